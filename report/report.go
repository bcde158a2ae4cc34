/*
Package report combines member cost and monthly workload over a project team.

For every member of the project and every month in [From, To]:
  - the member's effective cost (cost.Resolver)
  - the member's workload for that month (workload.Calculator)
  - ProjectDays: the month's share of the member's assignments on this project
  - EffortCost = DailyRate x ProjectDays
  - BusinessDays for the partner nation (informational)

Workload is global across projects, so its Load includes effort committed
to other projects. ProjectDays does not depend on declared capacity: a month
with UNKNOWN workload still carries its project effort and cost.

Members are evaluated concurrently; the first store error aborts the report.
*/
package report

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/erasmus-writer/resource-engine/cost"
	"github.com/erasmus-writer/resource-engine/generic"
	"github.com/erasmus-writer/resource-engine/workload"
)

// DefaultConcurrency bounds the members evaluated in parallel.
const DefaultConcurrency = 4

type Report struct {
	ProjectID generic.ProjectID
	From      generic.PeriodKey
	To        generic.PeriodKey
	Members   []MemberLine
	Months    []MonthTotal
	TotalDays decimal.Decimal
	TotalCost decimal.Decimal
}

type MemberLine struct {
	MemberID    generic.MemberID
	UserID      generic.UserID
	ProjectRole string
	Nation      string
	Cost        cost.Cost
	Months      []MemberMonth
	TotalDays   decimal.Decimal // project days over the range
	TotalCost   decimal.Decimal
}

type MemberMonth struct {
	Workload     workload.Workload
	ProjectDays  decimal.Decimal
	EffortCost   decimal.Decimal // daily rate x project days
	BusinessDays int
}

type MonthTotal struct {
	Period generic.PeriodKey
	Days   decimal.Decimal
	Cost   decimal.Decimal
}

type Generator struct {
	store       generic.TeamStore
	costs       *cost.Resolver
	workloads   *workload.Calculator
	calendar    *generic.HolidayCalendar
	concurrency int
	log         *zap.SugaredLogger
}

func NewGenerator(store generic.TeamStore, costs *cost.Resolver, workloads *workload.Calculator, log *zap.SugaredLogger) *Generator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Generator{
		store:       store,
		costs:       costs,
		workloads:   workloads,
		calendar:    &generic.HolidayCalendar{},
		concurrency: DefaultConcurrency,
		log:         log,
	}
}

// SetConcurrency bounds the members evaluated in parallel. Values below 1
// are ignored.
func (g *Generator) SetConcurrency(n int) {
	if n >= 1 {
		g.concurrency = n
	}
}

// Generate builds the cost-by-month report of projectID over [from, to].
func (g *Generator) Generate(ctx context.Context, projectID generic.ProjectID, from, to generic.PeriodKey) (*Report, error) {
	periods, err := generic.PeriodRange(from, to)
	if err != nil {
		return nil, err
	}

	members, err := g.store.ListProjectMembers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing members of %s: %w", projectID, err)
	}

	lines := make([]MemberLine, len(members))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, m := range members {
		i, m := i, m
		eg.Go(func() error {
			line, err := g.memberLine(egCtx, m, periods)
			if err != nil {
				return err
			}
			lines[i] = *line
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	r := &Report{
		ProjectID: projectID,
		From:      from,
		To:        to,
		Members:   lines,
		TotalDays: decimal.Zero,
		TotalCost: decimal.Zero,
	}
	for i, p := range periods {
		total := MonthTotal{Period: p, Days: decimal.Zero, Cost: decimal.Zero}
		for _, line := range lines {
			total.Days = total.Days.Add(line.Months[i].ProjectDays)
			total.Cost = total.Cost.Add(line.Months[i].EffortCost)
		}
		r.Months = append(r.Months, total)
		r.TotalDays = r.TotalDays.Add(total.Days)
		r.TotalCost = r.TotalCost.Add(total.Cost)
	}

	g.log.Debugw("project report generated",
		"project_id", projectID,
		"from", from.String(),
		"to", to.String(),
		"members", len(lines),
	)
	return r, nil
}

func (g *Generator) memberLine(ctx context.Context, m generic.ProjectMember, periods generic.Periods) (*MemberLine, error) {
	c, err := g.costs.ResolveMember(ctx, m)
	if err != nil {
		return nil, err
	}

	nation := c.Nation
	if nation == "" && m.PartnerID != "" {
		partner, err := g.store.GetPartner(ctx, m.PartnerID)
		if err != nil {
			return nil, fmt.Errorf("loading partner %s: %w", m.PartnerID, err)
		}
		if partner != nil {
			nation = partner.Nation
		}
	}

	line := &MemberLine{
		MemberID:    m.ID,
		UserID:      m.UserID,
		ProjectRole: m.ProjectRole,
		Nation:      nation,
		Cost:        *c,
		TotalDays:   decimal.Zero,
		TotalCost:   decimal.Zero,
	}

	assignments, err := g.store.ListAssignments(ctx, m.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing assignments for %s: %w", m.UserID, err)
	}
	var onProject []projectAssignment
	for _, a := range assignments {
		if a.ProjectID != m.ProjectID {
			continue
		}
		months, err := generic.ParsePeriods(a.Months)
		if err != nil {
			g.log.Warnw("skipping assignment with malformed months",
				"project_id", m.ProjectID,
				"user_id", m.UserID,
				"assignment_id", a.ID,
				"months", a.Months,
				"error", err,
			)
			continue
		}
		onProject = append(onProject, projectAssignment{days: a.Days, months: months})
	}

	years := make(map[int][]*workload.Workload)
	for _, p := range periods {
		if _, ok := years[p.Year]; !ok {
			ws, err := g.workloads.CalculateYear(ctx, m.UserID, p.Year)
			if err != nil {
				return nil, err
			}
			years[p.Year] = ws
		}
		w := years[p.Year][int(p.Month)-1]

		projectDays := decimal.Zero
		for _, a := range onProject {
			projectDays = projectDays.Add(workload.Share(a.days, a.months, p))
		}
		projectDays = projectDays.Round(workload.LoadScale)
		month := MemberMonth{
			Workload:     *w,
			ProjectDays:  projectDays,
			EffortCost:   c.DailyRate.Value.Mul(projectDays),
			BusinessDays: g.calendar.BusinessDays(nation, p),
		}
		line.Months = append(line.Months, month)
		line.TotalDays = line.TotalDays.Add(month.ProjectDays)
		line.TotalCost = line.TotalCost.Add(month.EffortCost)
	}
	return line, nil
}

type projectAssignment struct {
	days   decimal.Decimal
	months generic.Periods
}
