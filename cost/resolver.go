/*
Package cost resolves the daily personnel rate that applies to a project member.

PRECEDENCE (first match wins):

 1. CUSTOM:   the member's CustomDailyRate, used verbatim

 2. STANDARD: the standard grid row for (partner nation, StandardRole)

 3. NONE:     no rate configured, daily rate 0

    The member's own ProjectRole is NOT used for the grid lookup. Only one
    rate tier is seeded, so every member is priced at the configured
    StandardRole. Switching to multi-tier pricing is a change of WithStandardRole
    per lookup, not of the precedence chain.

MONTHLY COST:

	MonthlyCost = DailyRate x WorkingDaysPerMonth (21.5, an average of business
	days per month). It is a fixed constant, never a calendar computation.

FAILURE MODES:
  - Unknown member:   (nil, nil)
  - Partner missing:  falls through to NONE
  - Store failure:    wrapped error, the caller decides whether to retry

EXAMPLE:

	resolver := cost.NewResolver(store)
	c, err := resolver.Resolve(ctx, "member-42")
	if c == nil {
	    // no such member
	}
	fmt.Println(c.Source, c.DailyRate, c.MonthlyCost)
*/
package cost

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erasmus-writer/resource-engine/generic"
)

// DefaultStandardRole is the grid role every member is priced at.
const DefaultStandardRole = "Researcher"

// WorkingDaysPerMonth converts a daily rate into a monthly cost.
var WorkingDaysPerMonth = decimal.NewFromFloat(21.5)

type Source string

const (
	SourceCustom   Source = "CUSTOM"
	SourceStandard Source = "STANDARD"
	SourceNone     Source = "NONE"
)

// Cost is the effective personnel cost of one member.
type Cost struct {
	MemberID    generic.MemberID
	Nation      string // empty when the partner could not be read
	DailyRate   generic.Amount
	MonthlyCost generic.Amount
	Source      Source
	Details     string
}

// Resolver applies the precedence chain against a CostStore.
type Resolver struct {
	store        generic.CostStore
	standardRole string
	log          *zap.SugaredLogger
}

type Option func(*Resolver)

// WithStandardRole sets the grid role used for STANDARD lookups.
func WithStandardRole(role string) Option {
	return func(r *Resolver) {
		if role != "" {
			r.standardRole = role
		}
	}
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

func NewResolver(store generic.CostStore, opts ...Option) *Resolver {
	r := &Resolver{
		store:        store,
		standardRole: DefaultStandardRole,
		log:          zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StandardRole returns the grid role in use.
func (r *Resolver) StandardRole() string { return r.standardRole }

// Resolve returns the member's effective cost, or nil if the member does not exist.
func (r *Resolver) Resolve(ctx context.Context, memberID generic.MemberID) (*Cost, error) {
	member, err := r.store.GetProjectMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("loading member %s: %w", memberID, err)
	}
	if member == nil {
		return nil, nil
	}
	return r.ResolveMember(ctx, *member)
}

// ResolveMember applies the precedence chain to an already loaded member.
func (r *Resolver) ResolveMember(ctx context.Context, member generic.ProjectMember) (*Cost, error) {
	if member.CustomDailyRate != nil {
		return newCost(member.ID, "", *member.CustomDailyRate, SourceCustom, "custom daily rate"), nil
	}

	nation, err := r.memberNation(ctx, member)
	if err != nil {
		return nil, err
	}
	if nation != "" {
		sc, err := r.store.FindStandardCost(ctx, nation, r.standardRole)
		if err != nil {
			return nil, fmt.Errorf("looking up standard cost (%s, %s): %w", nation, r.standardRole, err)
		}
		if sc != nil {
			details := fmt.Sprintf("standard cost: %s, %s", sc.Nation, sc.Area)
			return newCost(member.ID, nation, sc.DailyRate, SourceStandard, details), nil
		}
	}

	r.log.Debugw("no cost found for member",
		"member_id", member.ID,
		"partner_id", member.PartnerID,
		"nation", nation,
		"role", r.standardRole,
	)
	return newCost(member.ID, nation, decimal.Zero, SourceNone, "no cost found"), nil
}

// memberNation returns the partner's nation, or "" when there is no partner.
func (r *Resolver) memberNation(ctx context.Context, member generic.ProjectMember) (string, error) {
	if member.PartnerID == "" {
		return "", nil
	}
	partner, err := r.store.GetPartner(ctx, member.PartnerID)
	if err != nil {
		return "", fmt.Errorf("loading partner %s: %w", member.PartnerID, err)
	}
	if partner == nil {
		return "", nil
	}
	return partner.Nation, nil
}

func newCost(id generic.MemberID, nation string, rate decimal.Decimal, source Source, details string) *Cost {
	daily := generic.NewAmountFromDecimal(rate, generic.UnitEUR)
	return &Cost{
		MemberID:    id,
		Nation:      nation,
		DailyRate:   daily,
		MonthlyCost: MonthlyCost(daily),
		Source:      source,
		Details:     details,
	}
}

// MonthlyCost returns daily x WorkingDaysPerMonth.
func MonthlyCost(daily generic.Amount) generic.Amount {
	return daily.Mul(WorkingDaysPerMonth)
}
