package workload_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/erasmus-writer/resource-engine/generic"
	"github.com/erasmus-writer/resource-engine/generic/store"
	"github.com/erasmus-writer/resource-engine/workload"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func dec(s string) decimal.Decimal { return generic.MustParseDecimal(s) }

// capacity declares the same days for every month of 2025.
func capacity(mem *store.Memory, user generic.UserID, perMonth string) {
	ua := generic.UserAvailability{UserID: user, Year: 2025}
	for i := range ua.Days {
		ua.Days[i] = dec(perMonth)
	}
	mem.PutAvailability(ua)
}

func assign(mem *store.Memory, id string, user generic.UserID, project generic.ProjectID, days, months string) {
	mem.PutAssignment(generic.Assignment{ID: id, UserID: user, ProjectID: project, Days: dec(days), Months: months})
}

func newCalculator(t *testing.T, mem *store.Memory) *workload.Calculator {
	return workload.NewCalculator(mem, zaptest.NewLogger(t).Sugar())
}

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestCalculate_NoAvailability_Unknown(t *testing.T) {
	mem := store.NewMemory()
	assign(mem, "a-1", "u-1", "proj-1", "10", `["2025-01"]`)

	w, err := newCalculator(t, mem).Calculate(context.Background(), "u-1", 1, 2025)
	require.NoError(t, err)

	assert.Equal(t, workload.StatusUnknown, w.Status)
	assert.True(t, w.Capacity.IsZero())
	assert.True(t, w.Load.IsZero())
	assert.True(t, w.Percentage.IsZero())
}

func TestCalculate_ZeroCapacity_NoCapacity(t *testing.T) {
	// GIVEN: August capacity is 0 and an assignment covers August
	// THEN: NO_CAPACITY with the 100 sentinel and zero load

	mem := store.NewMemory()
	ua := generic.UserAvailability{UserID: "u-1", Year: 2025}
	for i := range ua.Days {
		ua.Days[i] = dec("20")
	}
	ua.Days[7] = decimal.Zero
	mem.PutAvailability(ua)
	assign(mem, "a-1", "u-1", "proj-1", "10", `["2025-08"]`)

	w, err := newCalculator(t, mem).Calculate(context.Background(), "u-1", 8, 2025)
	require.NoError(t, err)

	assert.Equal(t, workload.StatusNoCapacity, w.Status)
	assert.True(t, w.Percentage.Equal(dec("100")))
	assert.True(t, w.Load.IsZero())
	assert.True(t, w.Capacity.IsZero())
}

func TestCalculate_EvenSplit(t *testing.T) {
	// GIVEN: 30 days over Jan-Mar, 20 days capacity per month
	// WHEN: Calculating February
	// THEN: Load 10, 50%, OK

	mem := store.NewMemory()
	capacity(mem, "u-1", "20")
	assign(mem, "a-1", "u-1", "proj-1", "30", `["2025-01","2025-02","2025-03"]`)

	w, err := newCalculator(t, mem).Calculate(context.Background(), "u-1", 2, 2025)
	require.NoError(t, err)

	assert.True(t, w.Load.Equal(dec("10")), "load = %s", w.Load)
	assert.True(t, w.Percentage.Equal(dec("50")), "percentage = %s", w.Percentage)
	assert.Equal(t, workload.StatusOK, w.Status)
	require.Len(t, w.Contributions, 1)
	assert.Equal(t, "a-1", w.Contributions[0].AssignmentID)
}

func TestCalculate_MonthNotCovered_ZeroLoad(t *testing.T) {
	mem := store.NewMemory()
	capacity(mem, "u-1", "20")
	assign(mem, "a-1", "u-1", "proj-1", "30", `["2025-01","2025-02","2025-03"]`)

	w, err := newCalculator(t, mem).Calculate(context.Background(), "u-1", 4, 2025)
	require.NoError(t, err)

	assert.True(t, w.Load.IsZero())
	assert.True(t, w.Percentage.IsZero())
	assert.Equal(t, workload.StatusOK, w.Status)
	assert.Empty(t, w.Contributions)
}

func TestCalculate_SumsAcrossProjects(t *testing.T) {
	// Workload is per user, not per project.
	mem := store.NewMemory()
	capacity(mem, "u-1", "20")
	assign(mem, "a-1", "u-1", "proj-1", "12", `["2025-01","2025-02"]`)
	assign(mem, "a-2", "u-1", "proj-2", "6", `["2025-01"]`)

	w, err := newCalculator(t, mem).Calculate(context.Background(), "u-1", 1, 2025)
	require.NoError(t, err)

	assert.True(t, w.Load.Equal(dec("12")))
	assert.True(t, w.Percentage.Equal(dec("60")))
	assert.Len(t, w.Contributions, 2)
}

func TestCalculate_Overload(t *testing.T) {
	// GIVEN: January capacity 15, 20 days assigned to January only
	// THEN: ~133%, OVERLOAD

	mem := store.NewMemory()
	ua := generic.UserAvailability{UserID: "u-1", Year: 2025}
	for i := range ua.Days {
		ua.Days[i] = dec("20")
	}
	ua.Days[0] = dec("15")
	mem.PutAvailability(ua)
	assign(mem, "a-1", "u-1", "proj-1", "20", `["2025-01"]`)

	w, err := newCalculator(t, mem).Calculate(context.Background(), "u-1", 1, 2025)
	require.NoError(t, err)

	assert.Equal(t, workload.StatusOverload, w.Status)
	assert.Equal(t, "133.33", w.Percentage.StringFixed(2))
}

func TestCalculate_ThresholdBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		capacity string
		days     string
		months   string
		copies   int
		status   workload.Status
	}{
		{"exactly 85% is OK", "20", "17", `["2025-06"]`, 1, workload.StatusOK},
		{"just above 85% is WARNING", "20", "17.2", `["2025-06"]`, 1, workload.StatusWarning},
		{"exactly 100% is not OVERLOAD", "20", "20", `["2025-06"]`, 1, workload.StatusWarning},
		{"just above 100% is OVERLOAD", "20", "20.2", `["2025-06"]`, 1, workload.StatusOverload},
		// thirds of a day that add back to the full capacity
		{"fractional shares summing to 100% are not OVERLOAD", "2", "2", `["2025-06","2025-07","2025-08"]`, 3, workload.StatusWarning},
		{"fractional shares summing to 85% are OK", "20", "17", `["2025-06","2025-07","2025-08"]`, 3, workload.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := store.NewMemory()
			capacity(mem, "u-1", tt.capacity)
			for i := 0; i < tt.copies; i++ {
				assign(mem, fmt.Sprintf("a-%d", i), "u-1", "proj-1", tt.days, tt.months)
			}

			w, err := newCalculator(t, mem).Calculate(context.Background(), "u-1", 6, 2025)
			require.NoError(t, err)
			assert.Equal(t, tt.status, w.Status, "percentage = %s", w.Percentage)
		})
	}
}

func TestCalculate_EvenSplitsAddBackExactly(t *testing.T) {
	// GIVEN: 2 days of capacity and three 2-day assignments over a quarter
	mem := store.NewMemory()
	capacity(mem, "u-1", "2")
	for _, id := range []string{"a-1", "a-2", "a-3"} {
		assign(mem, id, "u-1", "proj-1", "2", `["2025-01","2025-02","2025-03"]`)
	}

	// WHEN: January is evaluated
	w, err := newCalculator(t, mem).Calculate(context.Background(), "u-1", 1, 2025)
	require.NoError(t, err)

	// THEN: the thirds add back to exactly 2 days, 100%
	assert.True(t, w.Load.Equal(dec("2")), "load = %s", w.Load)
	assert.True(t, w.Percentage.Equal(dec("100")), "percentage = %s", w.Percentage)
	assert.Equal(t, workload.StatusWarning, w.Status)
	assert.Len(t, w.Contributions, 3)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, workload.StatusOK, workload.Classify(dec("0")))
	assert.Equal(t, workload.StatusOK, workload.Classify(dec("85")))
	assert.Equal(t, workload.StatusWarning, workload.Classify(dec("85.01")))
	assert.Equal(t, workload.StatusWarning, workload.Classify(dec("100")))
	assert.Equal(t, workload.StatusOverload, workload.Classify(dec("100.01")))
}

// =============================================================================
// MALFORMED DATA AND CONTRACT TESTS
// =============================================================================

func TestCalculate_MalformedMonths_SkippedAndLogged(t *testing.T) {
	// GIVEN: One valid assignment and one whose months are not a JSON list
	// WHEN: Calculating January
	// THEN: The valid one counts, the malformed one is skipped with a warning

	core, logs := observer.New(zapcore.WarnLevel)
	mem := store.NewMemory()
	capacity(mem, "u-1", "20")
	assign(mem, "a-good", "u-1", "proj-1", "10", `["2025-01"]`)
	assign(mem, "a-bad", "u-1", "proj-1", "50", `2025-01,2025-02`)

	calc := workload.NewCalculator(mem, zap.New(core).Sugar())
	w, err := calc.Calculate(context.Background(), "u-1", 1, 2025)
	require.NoError(t, err)

	assert.True(t, w.Load.Equal(dec("10")))
	assert.Equal(t, workload.StatusOK, w.Status)

	require.Len(t, w.Skipped, 1)
	assert.Equal(t, "a-bad", w.Skipped[0].AssignmentID)
	assert.ErrorIs(t, w.Skipped[0].Err, generic.ErrMalformedPeriods)

	entries := logs.FilterMessage("skipping assignment with malformed months").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a-bad", entries[0].ContextMap()["assignment_id"])
}

func TestCalculate_BadMonthInsideList_Skipped(t *testing.T) {
	mem := store.NewMemory()
	capacity(mem, "u-1", "20")
	assign(mem, "a-bad", "u-1", "proj-1", "10", `["2025-01","2025-13"]`)

	w, err := newCalculator(t, mem).Calculate(context.Background(), "u-1", 1, 2025)
	require.NoError(t, err)

	assert.True(t, w.Load.IsZero())
	assert.Len(t, w.Skipped, 1)
}

func TestCalculate_EmptyMonthList_ContributesNothing(t *testing.T) {
	mem := store.NewMemory()
	capacity(mem, "u-1", "20")
	assign(mem, "a-1", "u-1", "proj-1", "10", `[]`)

	w, err := newCalculator(t, mem).Calculate(context.Background(), "u-1", 1, 2025)
	require.NoError(t, err)

	assert.True(t, w.Load.IsZero())
	assert.Empty(t, w.Skipped)
}

func TestCalculate_DuplicateMonths_CountTowardSplit(t *testing.T) {
	// ["2025-01","2025-01","2025-02"]: 30 days / 3 entries = 10 for January
	mem := store.NewMemory()
	capacity(mem, "u-1", "20")
	assign(mem, "a-1", "u-1", "proj-1", "30", `["2025-01","2025-01","2025-02"]`)

	w, err := newCalculator(t, mem).Calculate(context.Background(), "u-1", 1, 2025)
	require.NoError(t, err)
	assert.True(t, w.Load.Equal(dec("10")))
}

func TestCalculate_InvalidMonth_FailsFast(t *testing.T) {
	calc := newCalculator(t, store.NewMemory())

	for _, month := range []int{0, 13, -1} {
		_, err := calc.Calculate(context.Background(), "u-1", month, 2025)
		require.Error(t, err)
		assert.ErrorIs(t, err, generic.ErrInvalidMonth)

		var monthErr *generic.InvalidMonthError
		require.True(t, errors.As(err, &monthErr))
		assert.Equal(t, month, monthErr.Month)
		assert.True(t, generic.IsClientError(err))
	}
}

func TestCalculate_FractionalDaysNotRounded(t *testing.T) {
	mem := store.NewMemory()
	capacity(mem, "u-1", "20")
	assign(mem, "a-1", "u-1", "proj-1", "10", `["2025-01","2025-02","2025-03"]`)

	w, err := newCalculator(t, mem).Calculate(context.Background(), "u-1", 1, 2025)
	require.NoError(t, err)

	assert.Equal(t, "3.33", w.Load.StringFixed(2))
	assert.False(t, w.Load.Equal(dec("3.33")))
}

// =============================================================================
// YEAR TESTS
// =============================================================================

func TestCalculateYear_MatchesMonthlyCalculation(t *testing.T) {
	mem := store.NewMemory()
	ua := generic.UserAvailability{UserID: "u-1", Year: 2025}
	for i := range ua.Days {
		ua.Days[i] = dec("20")
	}
	ua.Days[7] = decimal.Zero
	mem.PutAvailability(ua)
	assign(mem, "a-1", "u-1", "proj-1", "30", `["2025-01","2025-02","2025-03"]`)
	assign(mem, "a-2", "u-1", "proj-1", "20.2", `["2025-06"]`)

	calc := newCalculator(t, mem)
	year, err := calc.CalculateYear(context.Background(), "u-1", 2025)
	require.NoError(t, err)
	require.Len(t, year, 12)

	for m := 1; m <= 12; m++ {
		single, err := calc.Calculate(context.Background(), "u-1", m, 2025)
		require.NoError(t, err)
		assert.Equal(t, single.Status, year[m-1].Status, "month %d", m)
		assert.True(t, single.Load.Equal(year[m-1].Load), "month %d", m)
	}
	assert.Equal(t, workload.StatusNoCapacity, year[7].Status)
	assert.Equal(t, workload.StatusOverload, year[5].Status)
}

func TestCalculateYear_NoAvailability_AllUnknown(t *testing.T) {
	year, err := newCalculator(t, store.NewMemory()).CalculateYear(context.Background(), "u-1", 2025)
	require.NoError(t, err)

	for _, w := range year {
		assert.Equal(t, workload.StatusUnknown, w.Status)
	}
}

func TestShare(t *testing.T) {
	jan, _ := generic.NewPeriodKey(2025, 1)
	apr, _ := generic.NewPeriodKey(2025, 4)
	months, err := generic.ParsePeriods(`["2025-01","2025-02","2025-03"]`)
	require.NoError(t, err)

	assert.True(t, workload.Share(dec("30"), months, jan).Equal(dec("10")))
	assert.True(t, workload.Share(dec("30"), months, apr).IsZero())
}
