package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

// memStore is an in-memory Store with the same version semantics as the SQLite store.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]model.PFAccount
	periods  map[string][]model.RatePeriod
	rows     map[string][]model.LedgerRow
	events   []model.FlowEvent
	nextID   int
	nextSeq  int64

	putRows   int
	conflicts int // PutLedgerRows/PutFlowEvents calls left that fail with ErrConcurrentMutation
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]model.PFAccount{},
		periods:  map[string][]model.RatePeriod{},
		rows:     map[string][]model.LedgerRow{},
	}
}

func (s *memStore) addAccount(a model.PFAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
}

func (s *memStore) addPeriod(p model.RatePeriod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods[p.AccountType] = append(s.periods[p.AccountType], p)
}

func (s *memStore) addEvent(e model.FlowEvent) model.FlowEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.nextSeq++
	e.ID = fmt.Sprintf("ev-%d", s.nextID)
	e.Seq = s.nextSeq
	e.Version = 1
	s.events = append(s.events, e)
	return e
}

func (s *memStore) GetAccount(_ context.Context, accountID string) (model.PFAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return model.PFAccount{}, fmt.Errorf("account %s not found", accountID)
	}
	return a, nil
}

func (s *memStore) GetRatePeriods(_ context.Context, accountType string) ([]model.RatePeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.RatePeriod(nil), s.periods[accountType]...), nil
}

func (s *memStore) GetLedgerRows(_ context.Context, accountID string, from time.Time) ([]model.LedgerRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.LedgerRow
	for _, r := range s.rows[accountID] {
		if !r.Date.Before(from) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *memStore) PutLedgerRows(_ context.Context, accountID string, rows []model.LedgerRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putRows++
	if s.conflicts > 0 {
		s.conflicts--
		return ErrConcurrentMutation
	}

	existing := s.rows[accountID]
	index := map[string]int{}
	for i, r := range existing {
		index[r.ID] = i
	}
	for _, r := range rows {
		if r.ID != "" {
			if i, ok := index[r.ID]; ok && existing[i].Version != r.Version {
				return ErrConcurrentMutation
			}
		}
	}

	next := append([]model.LedgerRow(nil), existing...)
	for i := range rows {
		if rows[i].ID == "" {
			s.nextID++
			rows[i].ID = fmt.Sprintf("row-%d", s.nextID)
			rows[i].Version = 1
			next = append(next, rows[i])
			continue
		}
		rows[i].Version++
		next[index[rows[i].ID]] = rows[i]
	}
	s.rows[accountID] = next
	return nil
}

func (s *memStore) DeleteLedgerRows(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, accountID)
	return nil
}

func (s *memStore) GetFlowEvents(_ context.Context, accountID, instrumentID string) ([]model.FlowEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.FlowEvent
	for _, e := range s.events {
		if e.AccountID == accountID && e.InstrumentID == instrumentID {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func (s *memStore) PutFlowEvents(_ context.Context, events []model.FlowEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflicts > 0 {
		s.conflicts--
		return ErrConcurrentMutation
	}
	index := map[string]int{}
	for i, e := range s.events {
		index[e.ID] = i
	}
	for _, e := range events {
		if i, ok := index[e.ID]; !ok || s.events[i].Version != e.Version {
			return ErrConcurrentMutation
		}
	}
	for i := range events {
		events[i].Version++
		s.events[index[events[i].ID]] = events[i]
	}
	return nil
}
