package share

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/patungan/pkg/money"
)

// Share is one member's computed portion of a total amount.
type Share struct {
	UserID snowflake.ID
	Amount decimal.Decimal
}

// Compute splits totalAmount across members. Equal members each take
// totalAmount divided by the full member count (custom members included in
// the divisor); custom members take their fixed value. Rounding residue on
// the equal portion is spread one cent at a time over the leading equal
// members so an all-equal split always sums to the total exactly.
//
// The result must land within money.Tolerance of totalAmount, otherwise the
// custom values do not leave the right remainder and ErrShareSumMismatch is
// returned.
func Compute(members []Member, totalAmount decimal.Decimal) ([]Share, error) {
	if len(members) == 0 {
		return nil, ErrNoActiveParticipants
	}

	n := decimal.NewFromInt(int64(len(members)))
	equalRaw := totalAmount.Div(n)
	equalShare := money.Round(equalRaw)

	shares := make([]Share, 0, len(members))
	equalIdx := make([]int, 0, len(members))
	for _, m := range members {
		if m.Rule.IsCustom() {
			if !m.Rule.Value().IsPositive() {
				return nil, ErrMissingShareValue
			}
			shares = append(shares, Share{UserID: m.UserID, Amount: money.Round(m.Rule.Value())})
			continue
		}
		equalIdx = append(equalIdx, len(shares))
		shares = append(shares, Share{UserID: m.UserID, Amount: equalShare})
	}

	if len(equalIdx) > 0 {
		distributeResidue(shares, equalIdx, equalRaw, equalShare)
	}

	sum := decimal.Zero
	for _, sh := range shares {
		sum = sum.Add(sh.Amount)
	}
	if !money.WithinTolerance(sum, totalAmount) {
		return nil, ErrShareSumMismatch
	}
	return shares, nil
}

// distributeResidue nudges leading equal shares by one cent each until the
// equal portion sums to its rounded target.
func distributeResidue(shares []Share, equalIdx []int, equalRaw, equalShare decimal.Decimal) {
	target := money.Round(equalRaw.Mul(decimal.NewFromInt(int64(len(equalIdx)))))
	residue := target.Sub(equalShare.Mul(decimal.NewFromInt(int64(len(equalIdx)))))

	cent := money.Tolerance
	if residue.IsNegative() {
		cent = cent.Neg()
	}
	steps := residue.Abs().Div(money.Tolerance).IntPart()
	for i := int64(0); i < steps && i < int64(len(equalIdx)); i++ {
		idx := equalIdx[i]
		shares[idx].Amount = shares[idx].Amount.Add(cent)
	}
}
