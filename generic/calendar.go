package generic

import (
	"strings"
	"sync"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/at"
	"github.com/rickar/cal/v2/be"
	"github.com/rickar/cal/v2/ch"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/dk"
	"github.com/rickar/cal/v2/es"
	"github.com/rickar/cal/v2/fi"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/ie"
	"github.com/rickar/cal/v2/it"
	"github.com/rickar/cal/v2/nl"
	"github.com/rickar/cal/v2/no"
	"github.com/rickar/cal/v2/pl"
	"github.com/rickar/cal/v2/pt"
	"github.com/rickar/cal/v2/se"
)

// =============================================================================
// HOLIDAY CALENDAR - National business days per month
// =============================================================================

// HolidayCalendar counts working days in a month for a partner nation.
// It is informational: the cost engine always uses WorkingDaysPerMonth.
type HolidayCalendar struct {
	once      sync.Once
	mu        sync.Mutex
	calendars map[string]*cal.BusinessCalendar
}

// nationCodes maps grid nation names to ISO codes. Partners may store either.
var nationCodes = map[string]string{
	"austria":        "AT",
	"belgium":        "BE",
	"switzerland":    "CH",
	"germany":        "DE",
	"denmark":        "DK",
	"spain":          "ES",
	"finland":        "FI",
	"france":         "FR",
	"united kingdom": "GB",
	"ireland":        "IE",
	"italy":          "IT",
	"netherlands":    "NL",
	"norway":         "NO",
	"poland":         "PL",
	"portugal":       "PT",
	"sweden":         "SE",
}

func (c *HolidayCalendar) init() {
	c.calendars = map[string]*cal.BusinessCalendar{
		"AT": newBusinessCalendar("Austria", at.Holidays...),
		"BE": newBusinessCalendar("Belgium", be.Holidays...),
		"CH": newBusinessCalendar("Switzerland", ch.Holidays...),
		"DE": newBusinessCalendar("Germany", de.Holidays...),
		"DK": newBusinessCalendar("Denmark", dk.Holidays...),
		"ES": newBusinessCalendar("Spain", es.Holidays...),
		"FI": newBusinessCalendar("Finland", fi.Holidays...),
		"FR": newBusinessCalendar("France", fr.Holidays...),
		"GB": newBusinessCalendar("United Kingdom", gb.Holidays...),
		"IE": newBusinessCalendar("Ireland", ie.Holidays...),
		"IT": newBusinessCalendar("Italy", it.Holidays...),
		"NL": newBusinessCalendar("Netherlands", nl.Holidays...),
		"NO": newBusinessCalendar("Norway", no.Holidays...),
		"PL": newBusinessCalendar("Poland", pl.Holidays...),
		"PT": newBusinessCalendar("Portugal", pt.Holidays...),
		"SE": newBusinessCalendar("Sweden", se.Holidays...),
	}
}

func newBusinessCalendar(name string, holidays ...*cal.Holiday) *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.Name = name
	c.AddHoliday(holidays...)
	return c
}

// NationCode normalises "Italy", "italy" or "IT" to "IT". Unknown nations
// return "".
func NationCode(nation string) string {
	n := strings.TrimSpace(nation)
	if len(n) == 2 {
		return strings.ToUpper(n)
	}
	return nationCodes[strings.ToLower(n)]
}

// IsWorkday reports whether t is a working day in nation. Nations without
// a holiday set only skip weekends.
func (c *HolidayCalendar) IsWorkday(nation string, t time.Time) bool {
	c.once.Do(c.init)
	c.mu.Lock()
	defer c.mu.Unlock()
	bc, ok := c.calendars[NationCode(nation)]
	if !ok {
		return !cal.IsWeekend(t)
	}
	return bc.IsWorkday(t)
}

// BusinessDays counts working days of the month in nation.
func (c *HolidayCalendar) BusinessDays(nation string, key PeriodKey) int {
	n := 0
	end := key.End()
	for d := key.Start(); !d.After(end); d = d.AddDate(0, 0, 1) {
		if c.IsWorkday(nation, d) {
			n++
		}
	}
	return n
}
