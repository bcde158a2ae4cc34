/*
Package workload computes a user's committed effort against declared capacity.

ALGORITHM (one month):

 1. No availability row for the year      -> UNKNOWN, all zeros

 2. Month capacity is 0                    -> NO_CAPACITY, percentage 100

 3. Sum days/len(months) over every assignment of the user whose months
    contain the period key. Assignments are NOT scoped by project.

 4. percentage = load / capacity x 100

 5. > 100 OVERLOAD, > 85 WARNING, otherwise OK

    An assignment with a malformed month list contributes nothing. It is
    logged and listed in Workload.Skipped; the other assignments still count.

NUMERICS:

	Fractional days, decimal arithmetic, no rounding. Presentation rounds.

EXAMPLE:

	calc := workload.NewCalculator(store)
	w, err := calc.Calculate(ctx, "user-1", 1, 2025)
	fmt.Println(w.Load, w.Capacity, w.Percentage, w.Status)
*/
package workload

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erasmus-writer/resource-engine/generic"
)

type Status string

const (
	StatusOK         Status = "OK"
	StatusWarning    Status = "WARNING"
	StatusOverload   Status = "OVERLOAD"
	StatusNoCapacity Status = "NO_CAPACITY"
	StatusUnknown    Status = "UNKNOWN"
)

const (
	// ShareScale is the precision of one assignment's monthly share.
	ShareScale = 20
	// LoadScale is the precision a month's summed load is settled at.
	LoadScale = 10
)

var (
	hundred = decimal.NewFromInt(100)

	// WarningThreshold and OverloadThreshold are exclusive lower bounds.
	WarningThreshold  = decimal.NewFromInt(85)
	OverloadThreshold = hundred
)

// Workload is the result for one user and month.
type Workload struct {
	UserID     generic.UserID
	Period     generic.PeriodKey
	Capacity   decimal.Decimal
	Load       decimal.Decimal
	Percentage decimal.Decimal
	Status     Status

	Contributions []Contribution
	Skipped       []SkippedAssignment
}

// Contribution is one assignment's share of the month's load.
type Contribution struct {
	AssignmentID string
	ProjectID    generic.ProjectID
	Days         decimal.Decimal
}

// SkippedAssignment records an assignment left out of the sum.
type SkippedAssignment struct {
	AssignmentID string
	Err          error
}

// Calculator reads availability and assignments through a WorkloadStore.
type Calculator struct {
	store generic.WorkloadStore
	log   *zap.SugaredLogger
}

func NewCalculator(store generic.WorkloadStore, log *zap.SugaredLogger) *Calculator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Calculator{store: store, log: log}
}

// Calculate returns the user's workload for month (1-12) of year.
func (c *Calculator) Calculate(ctx context.Context, userID generic.UserID, month, year int) (*Workload, error) {
	key, err := generic.NewPeriodKey(year, month)
	if err != nil {
		return nil, err
	}

	avail, err := c.store.GetUserAvailability(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("loading availability for %s/%d: %w", userID, year, err)
	}
	if avail == nil {
		return unknown(userID, key), nil
	}
	if avail.Days[month-1].IsZero() {
		return noCapacity(userID, key), nil
	}

	assignments, err := c.store.ListAssignments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing assignments for %s: %w", userID, err)
	}
	parsed := c.parseAssignments(userID, assignments)
	return evaluate(userID, key, avail.Days[month-1], parsed), nil
}

// CalculateYear returns twelve workloads, January first, from a single
// availability read and a single assignment listing.
func (c *Calculator) CalculateYear(ctx context.Context, userID generic.UserID, year int) ([]*Workload, error) {
	avail, err := c.store.GetUserAvailability(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("loading availability for %s/%d: %w", userID, year, err)
	}

	var parsed parsedAssignments
	if avail != nil {
		assignments, err := c.store.ListAssignments(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("listing assignments for %s: %w", userID, err)
		}
		parsed = c.parseAssignments(userID, assignments)
	}

	out := make([]*Workload, 12)
	for m := 1; m <= 12; m++ {
		key, _ := generic.NewPeriodKey(year, m)
		switch {
		case avail == nil:
			out[m-1] = unknown(userID, key)
		case avail.Days[m-1].IsZero():
			out[m-1] = noCapacity(userID, key)
		default:
			out[m-1] = evaluate(userID, key, avail.Days[m-1], parsed)
		}
	}
	return out, nil
}

// Classify maps a load percentage to a status. Exactly 100 is WARNING under
// the > 85 rule even though one worked example calls it OK; confirm with
// the domain owners before changing it.
func Classify(percentage decimal.Decimal) Status {
	switch {
	case percentage.GreaterThan(OverloadThreshold):
		return StatusOverload
	case percentage.GreaterThan(WarningThreshold):
		return StatusWarning
	default:
		return StatusOK
	}
}

// Share returns the days an assignment contributes to key: Days spread
// evenly over every listed month, or zero if key is not listed.
func Share(days decimal.Decimal, months generic.Periods, key generic.PeriodKey) decimal.Decimal {
	if !months.Contains(key) {
		return decimal.Zero
	}
	return days.DivRound(decimal.NewFromInt(int64(len(months))), ShareScale)
}

// =============================================================================
// INTERNALS
// =============================================================================

type parsedAssignment struct {
	generic.Assignment
	months generic.Periods
}

type parsedAssignments struct {
	valid   []parsedAssignment
	skipped []SkippedAssignment
}

func (c *Calculator) parseAssignments(userID generic.UserID, assignments []generic.Assignment) parsedAssignments {
	var out parsedAssignments
	for _, a := range assignments {
		months, err := generic.ParsePeriods(a.Months)
		if err != nil {
			c.log.Warnw("skipping assignment with malformed months",
				"user_id", userID,
				"assignment_id", a.ID,
				"months", a.Months,
				"error", err,
			)
			out.skipped = append(out.skipped, SkippedAssignment{AssignmentID: a.ID, Err: err})
			continue
		}
		out.valid = append(out.valid, parsedAssignment{Assignment: a, months: months})
	}
	return out
}

func evaluate(userID generic.UserID, key generic.PeriodKey, capacity decimal.Decimal, parsed parsedAssignments) *Workload {
	w := &Workload{
		UserID:   userID,
		Period:   key,
		Capacity: capacity,
		Load:     decimal.Zero,
		Skipped:  parsed.skipped,
	}
	for _, a := range parsed.valid {
		share := Share(a.Days, a.months, key)
		if share.IsZero() {
			continue
		}
		w.Load = w.Load.Add(share)
		w.Contributions = append(w.Contributions, Contribution{
			AssignmentID: a.ID,
			ProjectID:    a.ProjectID,
			Days:         share,
		})
	}
	w.Load = w.Load.Round(LoadScale)
	w.Percentage = w.Load.Mul(hundred).Div(capacity)
	w.Status = Classify(w.Percentage)
	return w
}

func unknown(userID generic.UserID, key generic.PeriodKey) *Workload {
	return &Workload{
		UserID:     userID,
		Period:     key,
		Capacity:   decimal.Zero,
		Load:       decimal.Zero,
		Percentage: decimal.Zero,
		Status:     StatusUnknown,
	}
}

// noCapacity uses 100 as the percentage: any load at all would overflow.
func noCapacity(userID generic.UserID, key generic.PeriodKey) *Workload {
	return &Workload{
		UserID:     userID,
		Period:     key,
		Capacity:   decimal.Zero,
		Load:       decimal.Zero,
		Percentage: hundred,
		Status:     StatusNoCapacity,
	}
}
