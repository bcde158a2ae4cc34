/*
Package generic provides the shared primitives of the resource engine.

PURPOSE:

	This package contains the types every other package speaks: money and
	effort amounts, identifiers, the records read from persistence, period
	keys, errors and the store contracts. It holds no business rules of its
	own beyond validation of its values.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 12.5 days, 241 EUR)
  - ProjectMember / Partner: Who works on a project and through which organisation
  - StandardCost: One row of the nation x role daily rate grid
  - UserAvailability: Twelve monthly capacities for one user and year
  - Assignment: Days of effort spread evenly over a list of months

DESIGN PRINCIPLES:
 1. Precision: Uses decimal.Decimal to avoid floating-point errors
 2. Type Safety: Strong typing for IDs prevents mixing member/user IDs
 3. Read-only core: Records are owned by the store, the engine only reads them

USAGE:

	rate := generic.NewAmount(241, generic.UnitEUR)
	monthly := rate.Mul(decimal.NewFromFloat(21.5))

SEE ALSO:
  - period.go: Period keys and serialized month lists
  - store.go: Data access contracts
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitDays Unit = "days"
	UnitEUR  Unit = "EUR"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromDecimal(value decimal.Decimal, unit Unit) Amount {
	return Amount{Value: value, Unit: unit}
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) String() string               { return a.Value.String() + " " + string(a.Unit) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type MemberID string
type UserID string
type ProjectID string
type PartnerID string

// =============================================================================
// PROJECT MEMBERSHIP
// =============================================================================

// OrgRole is the organisational role of a member inside a consortium.
type OrgRole string

const (
	RoleCoordinator OrgRole = "COORDINATOR"
	RolePartner     OrgRole = "PARTNER"
	RoleMember      OrgRole = "MEMBER"
	RoleAdmin       OrgRole = "ADMIN"
)

func (r OrgRole) Valid() bool {
	switch r {
	case RoleCoordinator, RolePartner, RoleMember, RoleAdmin:
		return true
	}
	return false
}

// ProjectMember is one user's participation in one project through one
// partner organisation. There is at most one membership per (user, project).
type ProjectMember struct {
	ID          MemberID
	UserID      UserID
	ProjectID   ProjectID
	PartnerID   PartnerID
	Role        OrgRole
	ProjectRole string // free-text job title, e.g. "Senior researcher"

	// CustomDailyRate overrides the standard grid when non-nil.
	CustomDailyRate *decimal.Decimal
}

// Partner is an organisation's participation record within a project.
// Members inherit their nation for rate lookups from here.
type Partner struct {
	ID        PartnerID
	ProjectID ProjectID
	Nation    string
	Name      string
	Budget    decimal.Decimal
}

// StandardCost is one row of the standard cost grid, unique per (Nation, Role).
type StandardCost struct {
	ID        string
	Nation    string
	Role      string
	Area      string // grid area/group label, e.g. "Group 2"
	DailyRate decimal.Decimal
}

// =============================================================================
// CAPACITY AND EFFORT
// =============================================================================

// UserAvailability holds the days a user can work in each month of one year.
// Days[0] is January, Days[11] is December.
type UserAvailability struct {
	UserID UserID
	Year   int
	Days   [12]decimal.Decimal
}

// Capacity returns the declared capacity for month (1-12).
func (u UserAvailability) Capacity(month int) (decimal.Decimal, error) {
	if month < 1 || month > 12 {
		return decimal.Zero, &InvalidMonthError{Month: month}
	}
	return u.Days[month-1], nil
}

// Assignment commits Days of a user's time, spread evenly over Months.
// Months is kept in its serialized form ("[\"2025-01\",\"2025-02\"]") and is
// parsed with ParsePeriods where it is consumed.
type Assignment struct {
	ID        string
	UserID    UserID
	ProjectID ProjectID
	Label     string // task or activity the effort belongs to
	Days      decimal.Decimal
	Months    string
}
