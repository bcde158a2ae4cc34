package cost_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/erasmus-writer/resource-engine/cost"
	"github.com/erasmus-writer/resource-engine/generic"
	"github.com/erasmus-writer/resource-engine/generic/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func dec(s string) decimal.Decimal { return generic.MustParseDecimal(s) }

func ratePtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// italianTeam: partner in Italy, Italy/Researcher at 241 in the grid.
func italianTeam() *store.Memory {
	mem := store.NewMemory()
	mem.PutPartner(generic.Partner{ID: "p-it", ProjectID: "proj-1", Nation: "Italy", Name: "UniBo"})
	mem.PutStandardCost(generic.StandardCost{ID: "sc-it", Nation: "Italy", Role: "Researcher", Area: "Group 2", DailyRate: dec("241")})
	return mem
}

type failingStore struct {
	*store.Memory
	err error
}

func (f failingStore) GetPartner(context.Context, generic.PartnerID) (*generic.Partner, error) {
	return nil, f.err
}

// =============================================================================
// PRECEDENCE TESTS
// =============================================================================

func TestResolve_StandardCost_FromPartnerNation(t *testing.T) {
	// GIVEN: A member of an Italian partner, no custom rate
	// WHEN: Resolving the cost
	// THEN: The Italy/Researcher grid rate applies

	mem := italianTeam()
	mem.PutMember(generic.ProjectMember{ID: "m-1", UserID: "u-1", ProjectID: "proj-1", PartnerID: "p-it"})
	resolver := cost.NewResolver(mem)

	c, err := resolver.Resolve(context.Background(), "m-1")
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, cost.SourceStandard, c.Source)
	assert.True(t, c.DailyRate.Value.Equal(dec("241")))
	assert.True(t, c.MonthlyCost.Value.Equal(dec("5181.5")), "241 x 21.5")
	assert.Equal(t, generic.UnitEUR, c.DailyRate.Unit)
	assert.Equal(t, "Italy", c.Nation)
	assert.Equal(t, "standard cost: Italy, Group 2", c.Details)
}

func TestResolve_CustomRate_WinsOverGrid(t *testing.T) {
	// GIVEN: An Italian member with a custom rate of 300
	// THEN: CUSTOM wins even though a grid row exists

	mem := italianTeam()
	mem.PutMember(generic.ProjectMember{ID: "m-1", PartnerID: "p-it", CustomDailyRate: ratePtr("300")})

	c, err := cost.NewResolver(mem).Resolve(context.Background(), "m-1")
	require.NoError(t, err)

	assert.Equal(t, cost.SourceCustom, c.Source)
	assert.True(t, c.DailyRate.Value.Equal(dec("300")))
	assert.True(t, c.MonthlyCost.Value.Equal(dec("6450")))
	assert.Equal(t, "custom daily rate", c.Details)
}

func TestResolve_CustomRateZero_IsStillCustom(t *testing.T) {
	// A zero override is an explicit rate, not an absent one.
	mem := italianTeam()
	mem.PutMember(generic.ProjectMember{ID: "m-1", PartnerID: "p-it", CustomDailyRate: ratePtr("0")})

	c, err := cost.NewResolver(mem).Resolve(context.Background(), "m-1")
	require.NoError(t, err)

	assert.Equal(t, cost.SourceCustom, c.Source)
	assert.True(t, c.DailyRate.IsZero())
	assert.True(t, c.MonthlyCost.IsZero())
}

func TestResolve_NationNotInGrid_None(t *testing.T) {
	mem := italianTeam()
	mem.PutPartner(generic.Partner{ID: "p-tr", Nation: "Türkiye"})
	mem.PutMember(generic.ProjectMember{ID: "m-1", PartnerID: "p-tr"})

	c, err := cost.NewResolver(mem).Resolve(context.Background(), "m-1")
	require.NoError(t, err)

	assert.Equal(t, cost.SourceNone, c.Source)
	assert.True(t, c.DailyRate.IsZero())
	assert.True(t, c.MonthlyCost.IsZero())
	assert.Equal(t, "no cost found", c.Details)
	assert.Equal(t, "Türkiye", c.Nation)
}

func TestResolve_PartnerMissing_None(t *testing.T) {
	// GIVEN: The member's partner row does not exist
	// THEN: Falls through to NONE rather than failing

	mem := italianTeam()
	mem.PutMember(generic.ProjectMember{ID: "m-1", PartnerID: "p-gone"})

	c, err := cost.NewResolver(mem).Resolve(context.Background(), "m-1")
	require.NoError(t, err)

	assert.Equal(t, cost.SourceNone, c.Source)
	assert.Empty(t, c.Nation)
}

func TestResolve_NoPartner_None(t *testing.T) {
	mem := italianTeam()
	mem.PutMember(generic.ProjectMember{ID: "m-1"})

	c, err := cost.NewResolver(mem).Resolve(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, cost.SourceNone, c.Source)
}

func TestResolve_UnknownMember_ReturnsNil(t *testing.T) {
	c, err := cost.NewResolver(italianTeam()).Resolve(context.Background(), "m-missing")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestResolve_ProjectRoleIgnoredForLookup(t *testing.T) {
	// GIVEN: A member whose project role is "Manager", with only a
	//        Researcher row (and a Manager row) in the grid
	// THEN: The configured standard role is used, not the project role

	mem := italianTeam()
	mem.PutStandardCost(generic.StandardCost{Nation: "Italy", Role: "Manager", DailyRate: dec("350")})
	mem.PutMember(generic.ProjectMember{ID: "m-1", PartnerID: "p-it", ProjectRole: "Manager"})

	c, err := cost.NewResolver(mem).Resolve(context.Background(), "m-1")
	require.NoError(t, err)
	assert.True(t, c.DailyRate.Value.Equal(dec("241")))
}

func TestResolve_WithStandardRole(t *testing.T) {
	mem := italianTeam()
	mem.PutStandardCost(generic.StandardCost{Nation: "Italy", Role: "Manager", Area: "Group 2", DailyRate: dec("350")})
	mem.PutMember(generic.ProjectMember{ID: "m-1", PartnerID: "p-it"})

	resolver := cost.NewResolver(mem, cost.WithStandardRole("Manager"))
	c, err := resolver.Resolve(context.Background(), "m-1")
	require.NoError(t, err)

	assert.Equal(t, "Manager", resolver.StandardRole())
	assert.True(t, c.DailyRate.Value.Equal(dec("350")))
}

func TestResolve_GridLookupIsCaseInsensitive(t *testing.T) {
	mem := italianTeam()
	mem.PutPartner(generic.Partner{ID: "p-lower", Nation: "italy"})
	mem.PutMember(generic.ProjectMember{ID: "m-1", PartnerID: "p-lower"})

	c, err := cost.NewResolver(mem).Resolve(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, cost.SourceStandard, c.Source)
}

func TestResolve_StoreError_Wrapped(t *testing.T) {
	boom := errors.New("disk on fire")
	mem := italianTeam()
	mem.PutMember(generic.ProjectMember{ID: "m-1", PartnerID: "p-it"})

	_, err := cost.NewResolver(failingStore{Memory: mem, err: boom}).Resolve(context.Background(), "m-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestResolve_None_LogsAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	mem := italianTeam()
	mem.PutMember(generic.ProjectMember{ID: "m-1"})

	_, err := cost.NewResolver(mem, cost.WithLogger(zap.New(core).Sugar())).Resolve(context.Background(), "m-1")
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("no cost found for member").Len())
}

func TestMonthlyCost_FixedMultiplier(t *testing.T) {
	daily := generic.NewAmountFromDecimal(dec("100"), generic.UnitEUR)
	assert.True(t, cost.MonthlyCost(daily).Value.Equal(dec("2150")))
}
