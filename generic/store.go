/*
store.go - Data access contracts consumed by the engine

PURPOSE:

	Defines the interface between the calculation logic and persistence.
	The engine only READS through these interfaces; writes belong to the
	surrounding application (see store/sqlite for the admin operations).

KEY INTERFACES:

	CostStore:     Member, partner and standard grid lookups (cost.Resolver)
	WorkloadStore: Availability and assignment reads (workload.Calculator)
	Store:         Both of the above
	TeamStore:     Store plus project-wide listings (report.Generator, monitor)

NOT-FOUND CONTRACT:

	Point lookups return (nil, nil) when the record does not exist. An error
	means the store itself failed and the caller may retry.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - cost/resolver.go, workload/calculator.go: Consumers
*/
package generic

import "context"

// CostStore provides the reads needed to resolve a member's daily rate.
type CostStore interface {
	GetProjectMember(ctx context.Context, id MemberID) (*ProjectMember, error)
	GetPartner(ctx context.Context, id PartnerID) (*Partner, error)
	FindStandardCost(ctx context.Context, nation, role string) (*StandardCost, error)
}

// WorkloadStore provides the reads needed to compute a user's workload.
type WorkloadStore interface {
	GetUserAvailability(ctx context.Context, userID UserID, year int) (*UserAvailability, error)

	// ListAssignments returns every assignment of the user, across all projects.
	ListAssignments(ctx context.Context, userID UserID) ([]Assignment, error)
}

// Store is everything the core engine reads.
type Store interface {
	CostStore
	WorkloadStore
}

// TeamStore extends Store with listings used by reports and the monitor.
type TeamStore interface {
	Store

	// ListProjectMembers returns the project's members in a stable order.
	ListProjectMembers(ctx context.Context, projectID ProjectID) ([]ProjectMember, error)

	// ListAvailabilityUsers returns the users with an availability row for year.
	ListAvailabilityUsers(ctx context.Context, year int) ([]UserID, error)
}
