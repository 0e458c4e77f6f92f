package settlement

import (
	"sort"

	"p2plend/internal/domain/funding"
	"p2plend/pkg/money"
)

// RemainderPolicy picks the lender that absorbs the rounding residue.
type RemainderPolicy string

const (
	// RemainderLargest gives the residue to the largest contribution, ties
	// going to the lender who funded first.
	RemainderLargest RemainderPolicy = "largest"
	// RemainderEarliest gives it to the lender who funded first.
	RemainderEarliest RemainderPolicy = "earliest"
)

type Payout struct {
	LenderID string       `json:"lender_id"`
	Amount   money.Amount `json:"amount"`
}

// Distribute splits due across contributions in proportion to their amounts.
// Each share is rounded to the minor unit and the residue is assigned by
// policy, so the payouts always sum to due. Payouts follow the order of cs.
func Distribute(due money.Amount, cs []funding.Contribution, total money.Amount, policy RemainderPolicy) []Payout {
	if len(cs) == 0 || total <= 0 {
		return nil
	}
	out := make([]Payout, len(cs))
	var sum money.Amount
	for i, c := range cs {
		out[i] = Payout{LenderID: c.LenderID, Amount: money.Share(due, c.Amount, total)}
		sum += out[i].Amount
	}

	residual := due - sum
	if residual == 0 {
		return out
	}

	rec := 0
	for i := 1; i < len(cs); i++ {
		c, best := cs[i], cs[rec]
		switch {
		case policy != RemainderEarliest && c.Amount != best.Amount:
			if c.Amount > best.Amount {
				rec = i
			}
		case c.Order < best.Order:
			rec = i
		}
	}
	out[rec].Amount += residual
	if out[rec].Amount >= 0 {
		return out
	}

	// Shares rounded up past due and the chosen lender cannot give back
	// enough; take the deficit from the largest payouts instead.
	deficit := -out[rec].Amount
	out[rec].Amount = 0
	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return out[order[a]].Amount > out[order[b]].Amount })
	for _, i := range order {
		if deficit == 0 {
			break
		}
		take := min(deficit, out[i].Amount)
		out[i].Amount -= take
		deficit -= take
	}
	return out
}
