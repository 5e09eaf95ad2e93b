package suggest

import "github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"

// transferWindowDays is how far apart the two sides of a transfer may land.
const transferWindowDays = 2

// TransferReason is the fixed explanation recorded on both sides of a pair.
const TransferReason = "opposite amount within 2 days"

// MatchTransfers pairs rows whose amounts are exact numeric opposites and
// whose dates (when both are known) fall within the window. Pairing is
// greedy and mutually exclusive: a consumed row is never reconsidered.
// PairedWith records the 1-based position of the counterpart row.
func MatchTransfers(rows []model.DraftRow) {
	paired := make([]bool, len(rows))
	for i := range rows {
		if paired[i] || rows[i].Amount.IsZero() {
			continue
		}
		for j := i + 1; j < len(rows); j++ {
			if paired[j] {
				continue
			}
			if !rows[i].Amount.Equal(rows[j].Amount.Neg()) {
				continue
			}
			if !withinWindow(rows[i], rows[j]) {
				continue
			}
			rows[i].Transfer = &model.TransferMatch{PairedWith: j + 1, Reason: TransferReason}
			rows[j].Transfer = &model.TransferMatch{PairedWith: i + 1, Reason: TransferReason}
			paired[i], paired[j] = true, true
			break
		}
	}
}

func withinWindow(a, b model.DraftRow) bool {
	if a.Date.IsZero() || b.Date.IsZero() {
		return true
	}
	diff := a.Date.Sub(b.Date)
	if diff < 0 {
		diff = -diff
	}
	return diff.Hours() <= transferWindowDays*24
}
