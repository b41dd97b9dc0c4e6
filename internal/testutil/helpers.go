package testutil

import (
	"database/sql"
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/encryption"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/logging"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/mfapi"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/repository"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/service"
)

// NewTestCoordinator wires a coordinator over the SQL ledger store.
func NewTestCoordinator(t *testing.T, db *sql.DB) *ledger.Coordinator {
	t.Helper()

	store := repository.NewLedgerStore(db, repository.NewPFRepository(db), repository.NewMutualFundRepository(db))
	return ledger.NewCoordinator(store, logging.Discard(), 2)
}

// NewTestPFService creates a PFService without account number encryption.
func NewTestPFService(t *testing.T, db *sql.DB) *service.PFService {
	t.Helper()
	return NewTestPFServiceWithCipher(t, db, nil)
}

// NewTestPFServiceWithCipher creates a PFService using the given cipher. A nil cipher disables encryption.
func NewTestPFServiceWithCipher(t *testing.T, db *sql.DB, cipher *encryption.Cipher) *service.PFService {
	t.Helper()

	if cipher == nil {
		var err error
		if cipher, err = encryption.New(""); err != nil {
			t.Fatalf("Failed to create cipher: %v", err)
		}
	}
	return service.NewPFService(
		repository.NewPFRepository(db),
		repository.NewUserRepository(db),
		NewTestCoordinator(t, db),
		cipher,
		logging.Discard(),
	)
}

// NewTestMutualFundService creates a MutualFundService backed by a mock NAV client.
func NewTestMutualFundService(t *testing.T, db *sql.DB) *service.MutualFundService {
	t.Helper()
	return NewTestMutualFundServiceWithClient(t, db, NewMockNAVClient())
}

func NewTestMutualFundServiceWithClient(t *testing.T, db *sql.DB, client mfapi.Client) *service.MutualFundService {
	t.Helper()

	return service.NewMutualFundService(
		repository.NewMutualFundRepository(db),
		repository.NewUserRepository(db),
		NewTestCoordinator(t, db),
		client,
		logging.Discard(),
	)
}

func NewTestNAVService(t *testing.T, db *sql.DB, client mfapi.Client) *service.NAVService {
	t.Helper()
	return service.NewNAVService(repository.NewMutualFundRepository(db), client, logging.Discard())
}

func NewTestUserService(t *testing.T, db *sql.DB) *service.UserService {
	t.Helper()
	return service.NewUserService(repository.NewUserRepository(db))
}

func NewTestGoldService(t *testing.T, db *sql.DB) *service.GoldService {
	t.Helper()
	return service.NewGoldService(repository.NewGoldRepository(db))
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return service.NewSystemService(db)
}

// PFLedgerFixture is a PF account ready for ledger tests: one user, one account of the PF type
// and a 7.1% rate period covering April 2020 to March 2021.
type PFLedgerFixture struct {
	DB      *sql.DB
	Service *service.PFService
	User    model.User
	Account model.PFAccount
	Period  model.RatePeriod
}

func NewPFLedgerFixture(t *testing.T) *PFLedgerFixture {
	t.Helper()

	db := SetupTestDB(t)
	user := NewUser().Build(t, db)
	return &PFLedgerFixture{
		DB:      db,
		Service: NewTestPFService(t, db),
		User:    user,
		Account: NewPFAccount(user.ID).Build(t, db),
		Period: NewRatePeriod(PFTypeID).
			WithRange(Date(t, "2020-04-01"), Date(t, "2021-04-01")).
			WithRate(7.1).
			Build(t, db),
	}
}

// MFFixture is one user and one fund with a mutual fund service over them.
type MFFixture struct {
	DB      *sql.DB
	Service *service.MutualFundService
	User    model.User
	Fund    model.FundMetadata
}

func NewMFFixture(t *testing.T) *MFFixture {
	t.Helper()

	db := SetupTestDB(t)
	return &MFFixture{
		DB:      db,
		Service: NewTestMutualFundService(t, db),
		User:    NewUser().Build(t, db),
		Fund:    NewFund().Build(t, db),
	}
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeUserName generates a unique user name for testing.
//
// Example usage:
//
//	name := testutil.MakeUserName("Asha")
//	// Returns: "Asha ABC123"
func MakeUserName(base string) string {
	if base == "" {
		base = "User"
	}
	return base + " " + randomAlphanumeric(6)
}

// MakeFundName generates a unique fund name for testing.
func MakeFundName(base string) string {
	if base == "" {
		base = "Fund"
	}
	return base + " " + randomAlphanumeric(6)
}

// MakeSchemeCode generates a six digit scheme code.
func MakeSchemeCode() string {
	const digits = "0123456789"
	result := make([]byte, 6)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = digits[rand.Intn(len(digits))]
	}
	return string(result)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
