package generic

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// =============================================================================
// PERIOD KEY - One calendar month, formatted "YYYY-MM"
// =============================================================================

// PeriodKey identifies a calendar month. Workload and cost are always
// computed per PeriodKey.
type PeriodKey struct {
	Year  int
	Month time.Month
}

// NewPeriodKey validates month (1-12) and builds a key.
func NewPeriodKey(year, month int) (PeriodKey, error) {
	if month < 1 || month > 12 {
		return PeriodKey{}, &InvalidMonthError{Month: month}
	}
	return PeriodKey{Year: year, Month: time.Month(month)}, nil
}

// ParsePeriodKey parses the strict "YYYY-MM" form.
func ParsePeriodKey(s string) (PeriodKey, error) {
	if len(s) != 7 || s[4] != '-' || !digits(s[:4]) || !digits(s[5:]) {
		return PeriodKey{}, fmt.Errorf("%w: %q is not YYYY-MM", ErrInvalidPeriod, s)
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return PeriodKey{}, fmt.Errorf("%w: bad year in %q", ErrInvalidPeriod, s)
	}
	month, err := strconv.Atoi(s[5:])
	if err != nil {
		return PeriodKey{}, fmt.Errorf("%w: bad month in %q", ErrInvalidPeriod, s)
	}
	if month < 1 || month > 12 {
		return PeriodKey{}, fmt.Errorf("%w: month %d out of range in %q", ErrInvalidPeriod, month, s)
	}
	return PeriodKey{Year: year, Month: time.Month(month)}, nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (p PeriodKey) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p PeriodKey) Before(other PeriodKey) bool {
	return p.Year < other.Year || (p.Year == other.Year && p.Month < other.Month)
}

// Next returns the following calendar month.
func (p PeriodKey) Next() PeriodKey {
	if p.Month == time.December {
		return PeriodKey{Year: p.Year + 1, Month: time.January}
	}
	return PeriodKey{Year: p.Year, Month: p.Month + 1}
}

// Start returns midnight UTC on the first day of the month.
func (p PeriodKey) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns midnight UTC on the last day of the month.
func (p PeriodKey) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

// PeriodRange returns every month in [from, to].
func PeriodRange(from, to PeriodKey) (Periods, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidPeriod, from, to)
	}
	var out Periods
	for p := from; !to.Before(p); p = p.Next() {
		out = append(out, p)
	}
	return out, nil
}

// =============================================================================
// PERIODS - The months an assignment spans
// =============================================================================

// Periods is an ordered list of months, as stored on an assignment.
// Duplicates are kept: an assignment's days are divided by len(Periods).
type Periods []PeriodKey

// ParsePeriods decodes a serialized JSON array of "YYYY-MM" strings.
func ParsePeriods(raw string) (Periods, error) {
	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, &PeriodParseError{Raw: raw, Err: err}
	}
	out := make(Periods, 0, len(keys))
	for _, k := range keys {
		p, err := ParsePeriodKey(k)
		if err != nil {
			return nil, &PeriodParseError{Raw: raw, Err: err}
		}
		out = append(out, p)
	}
	return out, nil
}

// FormatPeriods is the inverse of ParsePeriods.
func FormatPeriods(ps Periods) string {
	keys := make([]string, len(ps))
	for i, p := range ps {
		keys[i] = p.String()
	}
	b, _ := json.Marshal(keys)
	return string(b)
}

func (ps Periods) Contains(p PeriodKey) bool {
	for _, q := range ps {
		if q == p {
			return true
		}
	}
	return false
}
