/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:

	Implements generic.TeamStore (everything the engine reads) plus the
	administrative writes the API needs. In production, the same patterns
	apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:

	partners:          Organisations per project, carrying the nation
	project_members:   One row per (user, project), optional custom daily rate
	standard_costs:    Daily rate grid, unique per (nation, role)
	user_availability: Twelve monthly capacities, unique per (user, year)
	assignments:       Effort in days with a serialized JSON month list

NUMBERS:

	Decimals are stored as TEXT to keep them exact. A NULL custom_daily_rate
	means "use the grid".

SERIALIZED MONTHS:

	assignments.months is stored as-is. The store never validates it: a
	malformed list is the workload calculator's concern, which skips it.

CONCURRENCY:

	Uses sync.RWMutex for thread-safety. SQLite is opened in WAL mode.

USAGE:

	store, err := sqlite.New("./data/erasmus.db")
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

	resolver := cost.NewResolver(store)

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/erasmus-writer/resource-engine/generic"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ generic.TeamStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// each :memory: connection is its own database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS partners (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		nation TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		budget TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_partners_project
		ON partners(project_id);

	CREATE TABLE IF NOT EXISTS project_members (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		partner_id TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'MEMBER',
		project_role TEXT,
		custom_daily_rate TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(user_id, project_id)
	);

	CREATE INDEX IF NOT EXISTS idx_members_project
		ON project_members(project_id);

	-- Lookups are case-insensitive on both key columns
	CREATE TABLE IF NOT EXISTS standard_costs (
		id TEXT PRIMARY KEY,
		nation TEXT NOT NULL COLLATE NOCASE,
		role TEXT NOT NULL COLLATE NOCASE,
		area TEXT NOT NULL DEFAULT '',
		daily_rate TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(nation, role)
	);

	CREATE TABLE IF NOT EXISTS user_availability (
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		days_jan TEXT NOT NULL DEFAULT '0',
		days_feb TEXT NOT NULL DEFAULT '0',
		days_mar TEXT NOT NULL DEFAULT '0',
		days_apr TEXT NOT NULL DEFAULT '0',
		days_may TEXT NOT NULL DEFAULT '0',
		days_jun TEXT NOT NULL DEFAULT '0',
		days_jul TEXT NOT NULL DEFAULT '0',
		days_aug TEXT NOT NULL DEFAULT '0',
		days_sep TEXT NOT NULL DEFAULT '0',
		days_oct TEXT NOT NULL DEFAULT '0',
		days_nov TEXT NOT NULL DEFAULT '0',
		days_dec TEXT NOT NULL DEFAULT '0',
		updated_at TEXT NOT NULL,
		PRIMARY KEY(user_id, year)
	);

	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		project_id TEXT NOT NULL DEFAULT '',
		label TEXT,
		days TEXT NOT NULL,
		months TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_user
		ON assignments(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// monthColumns lists the availability columns, January first.
const monthColumns = `days_jan, days_feb, days_mar, days_apr, days_may, days_jun,
	days_jul, days_aug, days_sep, days_oct, days_nov, days_dec`

// =============================================================================
// PARTNERS
// =============================================================================

// SavePartner inserts or updates a partner. Returns the stored ID.
func (s *Store) SavePartner(ctx context.Context, p generic.Partner) (generic.PartnerID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = generic.PartnerID(uuid.NewString())
	}

	query := `
		INSERT INTO partners (id, project_id, nation, name, budget, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			nation = excluded.nation,
			name = excluded.name,
			budget = excluded.budget
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.ProjectID, p.Nation, p.Name, p.Budget.String(), now(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save partner: %w", err)
	}
	return p.ID, nil
}

// GetPartner retrieves a partner by ID.
func (s *Store) GetPartner(ctx context.Context, id generic.PartnerID) (*generic.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p generic.Partner
	var budget string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, project_id, nation, name, budget FROM partners WHERE id = ?", id,
	).Scan(&p.ID, &p.ProjectID, &p.Nation, &p.Name, &budget)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Budget = generic.MustParseDecimal(budget)
	return &p, nil
}

// =============================================================================
// PROJECT MEMBERS
// =============================================================================

// SaveMember inserts or updates a member. The (user, project) pair is unique:
// saving a second membership for the same pair updates the existing row.
func (s *Store) SaveMember(ctx context.Context, m generic.ProjectMember) (generic.MemberID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = generic.MemberID(uuid.NewString())
	}
	if m.Role == "" {
		m.Role = generic.RoleMember
	}

	query := `
		INSERT INTO project_members
		(id, user_id, project_id, partner_id, role, project_role, custom_daily_rate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, project_id) DO UPDATE SET
			partner_id = excluded.partner_id,
			role = excluded.role,
			project_role = excluded.project_role,
			custom_daily_rate = excluded.custom_daily_rate,
			updated_at = excluded.updated_at
		RETURNING id
	`
	ts := now()
	var id generic.MemberID
	err := s.db.QueryRowContext(ctx, query,
		m.ID, m.UserID, m.ProjectID, m.PartnerID, m.Role,
		nullString(m.ProjectRole), nullDecimal(m.CustomDailyRate), ts, ts,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to save member: %w", err)
	}
	return id, nil
}

// SetCustomDailyRate sets or, with nil, clears a member's override.
func (s *Store) SetCustomDailyRate(ctx context.Context, id generic.MemberID, rate *decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE project_members SET custom_daily_rate = ?, updated_at = ? WHERE id = ?",
		nullDecimal(rate), now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update rate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrMemberNotFound
	}
	return nil
}

// DeleteMember removes a member from its project.
func (s *Store) DeleteMember(ctx context.Context, id generic.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM project_members WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrMemberNotFound
	}
	return nil
}

const memberColumns = `id, user_id, project_id, partner_id, role, project_role, custom_daily_rate`

// GetProjectMember retrieves a member by ID.
func (s *Store) GetProjectMember(ctx context.Context, id generic.MemberID) (*generic.ProjectMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM project_members WHERE id = ?", id)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListProjectMembers returns the project's members ordered by creation.
func (s *Store) ListProjectMembers(ctx context.Context, projectID generic.ProjectID) ([]generic.ProjectMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM project_members WHERE project_id = ? ORDER BY created_at, id",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []generic.ProjectMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (generic.ProjectMember, error) {
	var (
		m           generic.ProjectMember
		projectRole sql.NullString
		customRate  sql.NullString
	)
	err := row.Scan(&m.ID, &m.UserID, &m.ProjectID, &m.PartnerID, &m.Role, &projectRole, &customRate)
	if err != nil {
		return m, err
	}
	m.ProjectRole = projectRole.String
	if customRate.Valid {
		rate, err := decimal.NewFromString(customRate.String)
		if err != nil {
			return m, fmt.Errorf("member %s: %w: %q", m.ID, generic.ErrInvalidRate, customRate.String)
		}
		m.CustomDailyRate = &rate
	}
	return m, nil
}

// =============================================================================
// STANDARD COST GRID
// =============================================================================

// SaveStandardCost upserts a grid row on (nation, role).
func (s *Store) SaveStandardCost(ctx context.Context, sc generic.StandardCost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveStandardCost(ctx, s.db, sc)
}

// SaveStandardCosts upserts a whole grid atomically.
func (s *Store) SaveStandardCosts(ctx context.Context, rows []generic.StandardCost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, sc := range rows {
		if err := saveStandardCost(ctx, sqlTx, sc); err != nil {
			return err
		}
	}
	return sqlTx.Commit()
}

func saveStandardCost(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, sc generic.StandardCost) error {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	query := `
		INSERT INTO standard_costs (id, nation, role, area, daily_rate, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(nation, role) DO UPDATE SET
			area = excluded.area,
			daily_rate = excluded.daily_rate,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query, sc.ID, sc.Nation, sc.Role, sc.Area, sc.DailyRate.String(), now())
	if err != nil {
		return fmt.Errorf("failed to save standard cost (%s, %s): %w", sc.Nation, sc.Role, err)
	}
	return nil
}

// FindStandardCost looks up the grid row for (nation, role).
func (s *Store) FindStandardCost(ctx context.Context, nation, role string) (*generic.StandardCost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sc generic.StandardCost
	var rate string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, nation, role, area, daily_rate FROM standard_costs WHERE nation = ? AND role = ?",
		nation, role,
	).Scan(&sc.ID, &sc.Nation, &sc.Role, &sc.Area, &rate)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sc.DailyRate = generic.MustParseDecimal(rate)
	return &sc, nil
}

// ListStandardCosts returns the whole grid ordered by nation and role.
func (s *Store) ListStandardCosts(ctx context.Context) ([]generic.StandardCost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, nation, role, area, daily_rate FROM standard_costs ORDER BY nation, role",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grid []generic.StandardCost
	for rows.Next() {
		var sc generic.StandardCost
		var rate string
		if err := rows.Scan(&sc.ID, &sc.Nation, &sc.Role, &sc.Area, &rate); err != nil {
			return nil, err
		}
		sc.DailyRate = generic.MustParseDecimal(rate)
		grid = append(grid, sc)
	}
	return grid, rows.Err()
}

// =============================================================================
// AVAILABILITY
// =============================================================================

// SaveAvailability upserts the (user, year) row.
func (s *Store) SaveAvailability(ctx context.Context, ua generic.UserAvailability) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	args := []any{ua.UserID, ua.Year}
	for _, d := range ua.Days {
		args = append(args, d.String())
	}
	args = append(args, now())

	query := `
		INSERT INTO user_availability (user_id, year, ` + monthColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, year) DO UPDATE SET
			days_jan = excluded.days_jan, days_feb = excluded.days_feb,
			days_mar = excluded.days_mar, days_apr = excluded.days_apr,
			days_may = excluded.days_may, days_jun = excluded.days_jun,
			days_jul = excluded.days_jul, days_aug = excluded.days_aug,
			days_sep = excluded.days_sep, days_oct = excluded.days_oct,
			days_nov = excluded.days_nov, days_dec = excluded.days_dec,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save availability: %w", err)
	}
	return nil
}

// GetUserAvailability retrieves the (user, year) row.
func (s *Store) GetUserAvailability(ctx context.Context, userID generic.UserID, year int) (*generic.UserAvailability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var days [12]string
	dest := make([]any, 12)
	for i := range days {
		dest[i] = &days[i]
	}
	err := s.db.QueryRowContext(ctx,
		"SELECT "+monthColumns+" FROM user_availability WHERE user_id = ? AND year = ?",
		userID, year,
	).Scan(dest...)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ua := &generic.UserAvailability{UserID: userID, Year: year}
	for i, d := range days {
		ua.Days[i] = generic.MustParseDecimal(d)
	}
	return ua, nil
}

// ListAvailabilityUsers returns users with an availability row for year.
func (s *Store) ListAvailabilityUsers(ctx context.Context, year int) ([]generic.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM user_availability WHERE year = ? ORDER BY user_id", year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []generic.UserID
	for rows.Next() {
		var id generic.UserID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// SaveAssignment stores an assignment. Months are stored verbatim.
func (s *Store) SaveAssignment(ctx context.Context, a generic.Assignment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	query := `
		INSERT INTO assignments (id, user_id, project_id, label, days, months, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			project_id = excluded.project_id,
			label = excluded.label,
			days = excluded.days,
			months = excluded.months
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.ProjectID, nullString(a.Label), a.Days.String(), a.Months, now(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save assignment: %w", err)
	}
	return a.ID, nil
}

// ListAssignments returns every assignment of the user, oldest first.
func (s *Store) ListAssignments(ctx context.Context, userID generic.UserID) ([]generic.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, project_id, label, days, months
		FROM assignments
		WHERE user_id = ?
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []generic.Assignment
	for rows.Next() {
		var (
			a     generic.Assignment
			label sql.NullString
			days  string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.ProjectID, &label, &days, &a.Months); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.Label = label.String
		a.Days = generic.MustParseDecimal(days)
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset deletes all data. Used by demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"assignments", "user_availability", "project_members", "partners", "standard_costs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// Helper functions

// timestampLayout is fixed-width so that ORDER BY created_at is chronological.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func now() string {
	return time.Now().UTC().Format(timestampLayout)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
