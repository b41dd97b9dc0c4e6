package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

// LotMatcher matches Dispose events against the oldest unmatched Acquire events (FIFO).
type LotMatcher struct{}

// NewLotMatcher creates a LotMatcher.
func NewLotMatcher() *LotMatcher {
	return &LotMatcher{}
}

// sortEvents orders events by date, breaking ties by creation sequence.
func sortEvents(events []model.FlowEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].Seq < events[j].Seq
	})
}

// Reconcile runs one FIFO matching pass over the events of a single account and instrument.
//
// Matching resumes from each event's persisted MatchedQuantity, so running it again without
// new events changes nothing. The returned slice holds every event, sorted, with updated
// matching fields; the caller persists it as one batch.
func (m *LotMatcher) Reconcile(events []model.FlowEvent) ([]model.FlowEvent, error) {
	out := make([]model.FlowEvent, len(events))
	copy(out, events)
	sortEvents(out)

	if err := checkOrdering(out); err != nil {
		return nil, err
	}

	var acquires, disposes []int
	for i, e := range out {
		if e.IsFullyMatched {
			continue
		}
		if !e.Quantity.Valid || !e.Quantity.Decimal.IsPositive() || !e.UnitPrice.Valid {
			return nil, fmt.Errorf("%w: %s", ErrIncompleteEvent, e.ID)
		}
		switch e.Direction {
		case model.Acquire:
			acquires = append(acquires, i)
		case model.Dispose:
			disposes = append(disposes, i)
		default:
			return nil, fmt.Errorf("unknown direction %q on event %s", e.Direction, e.ID)
		}
	}

	for _, ai := range acquires {
		acq := &out[ai]
		remaining := acq.Remaining()

		for _, di := range disposes {
			if !remaining.IsPositive() {
				break
			}
			disp := &out[di]
			dispRemaining := disp.Remaining()
			if !dispRemaining.IsPositive() {
				continue
			}

			units := decimal.Min(remaining, dispRemaining)
			acq.RealizedPrincipal = acq.RealizedPrincipal.Add(units.Mul(acq.UnitPrice.Decimal))
			acq.RealizedGain = acq.RealizedGain.Add(units.Mul(disp.UnitPrice.Decimal.Sub(acq.UnitPrice.Decimal)))

			acq.MatchedQuantity = acq.MatchedQuantity.Add(units)
			disp.MatchedQuantity = disp.MatchedQuantity.Add(units)
			disp.IsFullyMatched = !disp.Remaining().IsPositive()
			remaining = remaining.Sub(units)
		}

		acq.IsFullyMatched = !remaining.IsPositive()
	}

	return out, nil
}

// Reset clears all matching results so the next Reconcile starts from scratch.
func (m *LotMatcher) Reset(events []model.FlowEvent) []model.FlowEvent {
	out := make([]model.FlowEvent, len(events))
	for i, e := range events {
		e.MatchedQuantity = decimal.Zero
		e.RealizedPrincipal = decimal.Zero
		e.RealizedGain = decimal.Zero
		e.IsFullyMatched = false
		out[i] = e
	}
	sortEvents(out)
	return out
}

// checkOrdering rejects event sets that FIFO matching could not have produced. Within one
// direction, matched units always form a prefix of the sorted events: fully matched events,
// then at most one partial, then untouched ones. An event with units left that sorts before
// an event of its direction that already carries matched units was added after matching
// (a backdated lot or redemption), so the persisted results no longer hold.
func checkOrdering(sorted []model.FlowEvent) error {
	lastMatched := map[model.Direction]int{}
	for i, e := range sorted {
		if e.MatchedQuantity.IsPositive() {
			lastMatched[e.Direction] = i
		}
	}
	for i, e := range sorted {
		if e.IsFullyMatched {
			continue
		}
		last, ok := lastMatched[e.Direction]
		if !ok || i >= last {
			continue
		}
		return fmt.Errorf("%w: event %s (%s) dated %s before matched event %s dated %s",
			ErrInvalidEventOrdering, e.ID, e.Direction, e.Date.Format("2006-01-02"),
			sorted[last].ID, sorted[last].Date.Format("2006-01-02"))
	}
	return nil
}
