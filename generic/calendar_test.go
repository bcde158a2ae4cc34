package generic_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/erasmus-writer/resource-engine/generic"
)

func TestNationCode(t *testing.T) {
	assert.Equal(t, "IT", generic.NationCode("Italy"))
	assert.Equal(t, "IT", generic.NationCode(" italy "))
	assert.Equal(t, "IT", generic.NationCode("it"))
	assert.Equal(t, "GB", generic.NationCode("United Kingdom"))
	assert.Equal(t, "", generic.NationCode("Atlantis"))
}

func TestBusinessDays_UnknownNation_WeekdaysOnly(t *testing.T) {
	// January 2025 starts on a Wednesday: 23 weekdays.
	cal := &generic.HolidayCalendar{}
	jan, _ := generic.NewPeriodKey(2025, 1)

	assert.Equal(t, 23, cal.BusinessDays("Atlantis", jan))
}

func TestBusinessDays_NationalHolidaysExcluded(t *testing.T) {
	cal := &generic.HolidayCalendar{}
	jan, _ := generic.NewPeriodKey(2025, 1)
	newYear := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, cal.IsWorkday("Italy", newYear))
	assert.True(t, cal.IsWorkday("Atlantis", newYear))
	assert.Less(t, cal.BusinessDays("Italy", jan), 23)
}

func TestBusinessDays_ConcurrentUse(t *testing.T) {
	cal := &generic.HolidayCalendar{}
	jan, _ := generic.NewPeriodKey(2025, 1)
	want := cal.BusinessDays("Germany", jan)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, cal.BusinessDays("DE", jan))
		}()
	}
	wg.Wait()
}
