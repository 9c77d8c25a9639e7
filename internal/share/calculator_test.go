package share

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	subscriptiondomain "github.com/smallbiznis/patungan/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func sumShares(shares []Share) decimal.Decimal {
	total := decimal.Zero
	for _, sh := range shares {
		total = total.Add(sh.Amount)
	}
	return total
}

func TestComputeEqualSplit(t *testing.T) {
	members := []Member{
		{UserID: 1, Rule: Equal()},
		{UserID: 2, Rule: Equal()},
	}

	shares, err := Compute(members, d(t, "100.00"))
	require.NoError(t, err)
	require.Len(t, shares, 2)
	assert.True(t, shares[0].Amount.Equal(d(t, "50.00")))
	assert.True(t, shares[1].Amount.Equal(d(t, "50.00")))
}

func TestComputeEqualSplitResidue(t *testing.T) {
	members := []Member{
		{UserID: 1, Rule: Equal()},
		{UserID: 2, Rule: Equal()},
		{UserID: 3, Rule: Equal()},
	}

	shares, err := Compute(members, d(t, "100.00"))
	require.NoError(t, err)
	assert.True(t, sumShares(shares).Equal(d(t, "100.00")))
	for _, sh := range shares {
		diff := sh.Amount.Sub(d(t, "33.3333")).Abs()
		assert.True(t, diff.LessThan(d(t, "0.01")))
	}
}

func TestComputeEqualSplitSevenWays(t *testing.T) {
	members := make([]Member, 0, 7)
	for i := 1; i <= 7; i++ {
		members = append(members, Member{UserID: snowflake.ID(i), Rule: Equal()})
	}

	shares, err := Compute(members, d(t, "100.00"))
	require.NoError(t, err)
	assert.True(t, sumShares(shares).Equal(d(t, "100.00")))
}

func TestComputeCustomAndEqualMix(t *testing.T) {
	// Divisor counts every member, custom ones included: the equal member
	// owes 90/3 = 30 and the customs must cover the remaining 60.
	members := []Member{
		{UserID: 1, Rule: Custom(d(t, "40.00"))},
		{UserID: 2, Rule: Custom(d(t, "20.00"))},
		{UserID: 3, Rule: Equal()},
	}

	shares, err := Compute(members, d(t, "90.00"))
	require.NoError(t, err)
	assert.True(t, shares[2].Amount.Equal(d(t, "30.00")))
	assert.True(t, sumShares(shares).Equal(d(t, "90.00")))
}

func TestComputeShareSumMismatch(t *testing.T) {
	members := []Member{
		{UserID: 1, Rule: Custom(d(t, "10.00"))},
		{UserID: 2, Rule: Equal()},
	}

	// Equal member owes 100/2 = 50; 10 + 50 leaves 40 unaccounted for.
	_, err := Compute(members, d(t, "100.00"))
	assert.ErrorIs(t, err, ErrShareSumMismatch)
}

func TestComputeNoMembers(t *testing.T) {
	_, err := Compute(nil, d(t, "100.00"))
	assert.ErrorIs(t, err, ErrNoActiveParticipants)
}

func TestComputeCustomRequiresPositiveValue(t *testing.T) {
	members := []Member{
		{UserID: 1, Rule: Custom(decimal.Zero)},
	}
	_, err := Compute(members, d(t, "100.00"))
	assert.ErrorIs(t, err, ErrMissingShareValue)
}

func TestMembersFromParticipants(t *testing.T) {
	custom := d(t, "25.00")
	participants := []subscriptiondomain.Participant{
		{UserID: 1, ShareType: subscriptiondomain.ShareTypeEqual, IsActive: true},
		{UserID: 2, ShareType: subscriptiondomain.ShareTypeCustom, ShareValue: &custom, IsActive: true},
		{UserID: 3, ShareType: subscriptiondomain.ShareTypeEqual, IsActive: false},
	}

	members, err := MembersFromParticipants(participants)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.False(t, members[0].Rule.IsCustom())
	assert.True(t, members[1].Rule.IsCustom())
	assert.True(t, members[1].Rule.Value().Equal(custom))
}

func TestMembersFromParticipantsMissingCustomValue(t *testing.T) {
	participants := []subscriptiondomain.Participant{
		{UserID: 1, ShareType: subscriptiondomain.ShareTypeCustom, IsActive: true},
	}
	_, err := MembersFromParticipants(participants)
	assert.ErrorIs(t, err, ErrMissingShareValue)
}
