package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/mfapi"
)

// MockNAVClient is a mock implementation of mfapi.Client for testing.
// It returns configured quotes per scheme code instead of calling the API.
type MockNAVClient struct {
	mu sync.Mutex
	// Quotes maps scheme code to the quote returned for it
	Quotes map[string]mfapi.Quote
	// MockError is returned for every lookup when set
	MockError error
	// QueryCount tracks how many lookups were made
	QueryCount int
}

// NewMockNAVClient creates a mock client that knows no scheme codes.
func NewMockNAVClient() *MockNAVClient {
	return &MockNAVClient{Quotes: map[string]mfapi.Quote{}}
}

// LatestNAV returns the configured quote, MockError, or mfapi.ErrNoData for unknown codes.
func (m *MockNAVClient) LatestNAV(_ context.Context, schemeCode string) (mfapi.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QueryCount++
	if m.MockError != nil {
		return mfapi.Quote{}, m.MockError
	}
	q, ok := m.Quotes[schemeCode]
	if !ok {
		return mfapi.Quote{}, mfapi.ErrNoData
	}
	return q, nil
}

// WithQuote configures the quote returned for schemeCode.
func (m *MockNAVClient) WithQuote(schemeCode string, date time.Time, nav float64) *MockNAVClient {
	m.Quotes[schemeCode] = mfapi.Quote{
		SchemeCode: schemeCode,
		SchemeName: "Mock Scheme " + schemeCode,
		Date:       date,
		NAV:        decimal.NewFromFloat(nav),
	}
	return m
}

// WithError configures the mock to return the specified error.
func (m *MockNAVClient) WithError(err error) *MockNAVClient {
	m.MockError = err
	return m
}

func (m *MockNAVClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.QueryCount
}
