// Package share computes each participant's monetary portion of a charge.
// It is a pure calculation layer with no persistence.
package share

import (
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	subscriptiondomain "github.com/smallbiznis/patungan/internal/subscription/domain"
)

var (
	ErrNoActiveParticipants = errors.New("no_active_participants")
	ErrMissingShareValue    = errors.New("missing_share_value")
	ErrShareSumMismatch     = errors.New("share_sum_mismatch")
)

type ruleKind int

const (
	ruleEqual ruleKind = iota
	ruleCustom
)

// Rule is a closed description of how a member's share is derived. Construct
// one with Equal or Custom; the zero value behaves as Equal.
type Rule struct {
	kind  ruleKind
	value decimal.Decimal
}

// Equal splits the charge evenly with every other member.
func Equal() Rule {
	return Rule{kind: ruleEqual}
}

// Custom fixes the member's share to an explicit amount.
func Custom(value decimal.Decimal) Rule {
	return Rule{kind: ruleCustom, value: value}
}

// IsCustom reports whether the rule carries a fixed amount.
func (r Rule) IsCustom() bool { return r.kind == ruleCustom }

// Value returns the fixed amount of a Custom rule. Zero for Equal.
func (r Rule) Value() decimal.Decimal { return r.value }

// Member pairs a user with the rule used to compute their share.
type Member struct {
	UserID snowflake.ID
	Rule   Rule
}

// MembersFromParticipants converts persisted participant rows into calculator
// members, dropping inactive rows. A CUSTOM row without a positive
// share_value is a configuration error.
func MembersFromParticipants(participants []subscriptiondomain.Participant) ([]Member, error) {
	members := make([]Member, 0, len(participants))
	for i := range participants {
		p := participants[i]
		if !p.IsActive {
			continue
		}
		switch p.ShareType {
		case subscriptiondomain.ShareTypeCustom:
			if p.ShareValue == nil || !p.ShareValue.IsPositive() {
				return nil, ErrMissingShareValue
			}
			members = append(members, Member{UserID: p.UserID, Rule: Custom(*p.ShareValue)})
		default:
			members = append(members, Member{UserID: p.UserID, Rule: Equal()})
		}
	}
	return members, nil
}
