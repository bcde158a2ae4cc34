/*
Package factory converts JSON standard cost grid documents into grid rows.

PURPOSE:

	The standard cost grid is administered outside the application: programme
	guides publish daily rates per country group. This package turns such a
	document into validated generic.StandardCost rows ready to be stored.

JSON SCHEMA:

	{
	  "role": "Researcher",
	  "rates": [
	    {"nation": "Italy",   "area": "Group 2", "daily_rate": "241"},
	    {"nation": "Denmark", "area": "Group 1", "daily_rate": "294"}
	  ]
	}

	"role" is optional and defaults to the factory's standard role. A rate may
	override it with its own "role" for multi-tier grids. daily_rate accepts a
	JSON string or number.

VALIDATION:
  - nation is required
  - daily_rate must parse and be >= 0
  - (nation, role) must be unique within the document (case-insensitive)

USAGE:

	f := factory.NewGridFactory(cost.DefaultStandardRole)
	rows, err := f.ParseGrid(data)
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erasmus-writer/resource-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// GridJSON is the JSON representation of a cost grid.
type GridJSON struct {
	Role  string     `json:"role,omitempty"`
	Rates []RateJSON `json:"rates"`
}

// RateJSON is one grid entry. decimal.Decimal unmarshals from both
// "241" and 241.
type RateJSON struct {
	Nation    string          `json:"nation"`
	Role      string          `json:"role,omitempty"`
	Area      string          `json:"area,omitempty"`
	DailyRate decimal.Decimal `json:"daily_rate"`
}

// =============================================================================
// GRID FACTORY
// =============================================================================

type GridFactory struct {
	defaultRole string
}

func NewGridFactory(defaultRole string) *GridFactory {
	return &GridFactory{defaultRole: defaultRole}
}

// ParseGrid parses a grid document.
func (f *GridFactory) ParseGrid(data []byte) ([]generic.StandardCost, error) {
	var doc GridJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid grid JSON: %w", err)
	}
	return f.FromJSON(doc)
}

// FromJSON validates an already decoded grid.
func (f *GridFactory) FromJSON(doc GridJSON) ([]generic.StandardCost, error) {
	role := strings.TrimSpace(doc.Role)
	if role == "" {
		role = f.defaultRole
	}

	seen := make(map[string]bool)
	rows := make([]generic.StandardCost, 0, len(doc.Rates))
	for i, r := range doc.Rates {
		nation := strings.TrimSpace(r.Nation)
		if nation == "" {
			return nil, fmt.Errorf("rate %d: nation is required", i)
		}
		rowRole := strings.TrimSpace(r.Role)
		if rowRole == "" {
			rowRole = role
		}
		if rowRole == "" {
			return nil, fmt.Errorf("rate %d (%s): role is required", i, nation)
		}
		if r.DailyRate.IsNegative() {
			return nil, fmt.Errorf("rate %d (%s): %w: %s", i, nation, generic.ErrInvalidRate, r.DailyRate)
		}

		key := strings.ToLower(nation) + "|" + strings.ToLower(rowRole)
		if seen[key] {
			return nil, fmt.Errorf("rate %d: duplicate entry for (%s, %s)", i, nation, rowRole)
		}
		seen[key] = true

		rows = append(rows, generic.StandardCost{
			Nation:    nation,
			Role:      rowRole,
			Area:      strings.TrimSpace(r.Area),
			DailyRate: r.DailyRate,
		})
	}
	return rows, nil
}
