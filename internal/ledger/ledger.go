// Package ledger derives per-person balances from a people/receipts
// snapshot. The computation is pure and deterministic: the same snapshot
// always yields the same rows, in the same order as the input people.
package ledger

import (
	"tripsplit/internal/models"
	"tripsplit/internal/money"
)

// Stats counts references the computation had to ignore. The rows are
// unaffected; the counts exist so callers can surface how much of the
// input was silently excluded.
type Stats struct {
	// UnknownPayers is the number of receipts whose payer names nobody
	// in the people list.
	UnknownPayers int

	// UnknownParticipants is the number of item participant entries that
	// name nobody in the people list. Each such entry still dilutes the
	// item's split, so its share is credited to no one.
	UnknownParticipants int

	// UnassignedItems is the number of items with an empty participant
	// set, whose cost is excluded from everyone's consumption.
	UnassignedItems int
}

// ComputeBalances returns one BalanceRow per known person, in the order
// the people are given. See Compute for the rules.
func ComputeBalances(people []string, receipts []models.Receipt) []models.BalanceRow {
	rows, _ := Compute(people, receipts)
	return rows
}

// Compute derives balances and reports what was ignored along the way.
//
// Rules:
//   - every known person gets a row, even with no activity;
//   - a receipt's total is credited to its payer's "paid" when the payer
//     is a known person, and skipped otherwise;
//   - each item's cost is split evenly across its full participant set;
//     entries naming unknown people still count toward the divisor, but
//     their share is credited to no one;
//   - items with no participants contribute to no one's "consumed";
//   - a malformed receipt never fails the whole computation.
//
// Accumulation happens unrounded; rounding is applied once per output
// field so divisible splits come out exact.
func Compute(people []string, receipts []models.Receipt) ([]models.BalanceRow, Stats) {
	var stats Stats

	type totals struct {
		paid     float64
		consumed float64
	}
	known := make(map[string]*totals, len(people))
	for _, name := range people {
		if _, dup := known[name]; !dup {
			known[name] = &totals{}
		}
	}

	for _, receipt := range receipts {
		if t, ok := known[receipt.PaidBy]; ok {
			t.paid += receipt.TotalAmount
		} else if receipt.PaidBy != "" {
			stats.UnknownPayers++
		}

		for _, item := range receipt.Items {
			participants := dedupe(item.Participants)
			if len(participants) == 0 {
				stats.UnassignedItems++
				continue
			}
			cost := money.ItemTotal(item)
			if cost == 0 {
				continue
			}
			share := cost / float64(len(participants))
			for _, name := range participants {
				if t, ok := known[name]; ok {
					t.consumed += share
				} else {
					stats.UnknownParticipants++
				}
			}
		}
	}

	rows := make([]models.BalanceRow, 0, len(people))
	seen := make(map[string]bool, len(people))
	for _, name := range people {
		if seen[name] {
			continue
		}
		seen[name] = true
		t := known[name]
		rows = append(rows, models.BalanceRow{
			Name:     name,
			Paid:     money.Round(t.paid),
			Consumed: money.Round(t.consumed),
			Net:      money.Round(t.paid - t.consumed),
		})
	}
	return rows, stats
}

// dedupe collapses duplicate participant entries, preserving first-seen
// order so the share divisor is the distinct participant count.
func dedupe(names []string) []string {
	if len(names) < 2 {
		return names
	}
	seen := make(map[string]bool, len(names))
	out := names[:0:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
