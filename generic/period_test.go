package generic_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erasmus-writer/resource-engine/generic"
)

// =============================================================================
// PERIOD KEY TESTS
// =============================================================================

func TestParsePeriodKey_Valid(t *testing.T) {
	p, err := generic.ParsePeriodKey("2025-03")
	require.NoError(t, err)

	assert.Equal(t, 2025, p.Year)
	assert.Equal(t, time.March, p.Month)
	assert.Equal(t, "2025-03", p.String())
}

func TestParsePeriodKey_Invalid(t *testing.T) {
	for _, s := range []string{"", "2025-3", "2025-13", "2025-00", "25-03", "2025/03", "+202-03", "2025-03-01", "abcd-ef"} {
		t.Run(s, func(t *testing.T) {
			_, err := generic.ParsePeriodKey(s)
			require.Error(t, err)
			assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
		})
	}
}

func TestNewPeriodKey_ZeroPadsMonth(t *testing.T) {
	p, err := generic.NewPeriodKey(2025, 1)
	require.NoError(t, err)
	assert.Equal(t, "2025-01", p.String())
}

func TestNewPeriodKey_InvalidMonth(t *testing.T) {
	_, err := generic.NewPeriodKey(2025, 13)

	var monthErr *generic.InvalidMonthError
	require.True(t, errors.As(err, &monthErr))
	assert.Equal(t, 13, monthErr.Month)
	assert.ErrorIs(t, err, generic.ErrInvalidMonth)
}

func TestPeriodKey_NextAcrossYear(t *testing.T) {
	dec, _ := generic.NewPeriodKey(2024, 12)
	assert.Equal(t, "2025-01", dec.Next().String())
}

func TestPeriodKey_StartEnd(t *testing.T) {
	feb, _ := generic.NewPeriodKey(2024, 2)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), feb.Start())
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), feb.End())
}

func TestPeriodRange(t *testing.T) {
	from, _ := generic.NewPeriodKey(2024, 11)
	to, _ := generic.NewPeriodKey(2025, 2)

	ps, err := generic.PeriodRange(from, to)
	require.NoError(t, err)
	assert.Equal(t, `["2024-11","2024-12","2025-01","2025-02"]`, generic.FormatPeriods(ps))

	single, err := generic.PeriodRange(from, from)
	require.NoError(t, err)
	assert.Len(t, single, 1)

	_, err = generic.PeriodRange(to, from)
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
}

// =============================================================================
// PERIODS TESTS
// =============================================================================

func TestParsePeriods_RoundTrip(t *testing.T) {
	raw := `["2025-01","2025-02","2025-01"]`

	ps, err := generic.ParsePeriods(raw)
	require.NoError(t, err)
	assert.Len(t, ps, 3, "duplicates are kept")
	assert.Equal(t, raw, generic.FormatPeriods(ps))

	jan, _ := generic.NewPeriodKey(2025, 1)
	mar, _ := generic.NewPeriodKey(2025, 3)
	assert.True(t, ps.Contains(jan))
	assert.False(t, ps.Contains(mar))
}

func TestParsePeriods_Malformed(t *testing.T) {
	tests := map[string]string{
		"not json":      `2025-01,2025-02`,
		"object":        `{"months":["2025-01"]}`,
		"numbers":       `[202501]`,
		"bad entry":     `["2025-01","January"]`,
		"month too big": `["2025-13"]`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := generic.ParsePeriods(raw)
			require.Error(t, err)

			var parseErr *generic.PeriodParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, raw, parseErr.Raw)
			assert.ErrorIs(t, err, generic.ErrMalformedPeriods)
			assert.True(t, generic.IsClientError(err))
		})
	}
}

func TestParsePeriods_Empty(t *testing.T) {
	ps, err := generic.ParsePeriods(`[]`)
	require.NoError(t, err)
	assert.Empty(t, ps)
}

// =============================================================================
// ERROR HELPER TESTS
// =============================================================================

func TestErrorHelpers(t *testing.T) {
	assert.True(t, generic.IsClientError(generic.ErrInvalidRate))
	assert.False(t, generic.IsClientError(generic.ErrMemberNotFound))
	assert.True(t, generic.IsNotFound(generic.ErrMemberNotFound))
	assert.True(t, generic.IsNotFound(generic.ErrPartnerNotFound))
	assert.False(t, generic.IsNotFound(errors.New("other")))
}

func TestUserAvailability_Capacity(t *testing.T) {
	ua := generic.UserAvailability{UserID: "u-1", Year: 2025}
	ua.Days[0] = generic.MustParseDecimal("20")
	ua.Days[11] = generic.MustParseDecimal("12.5")

	jan, err := ua.Capacity(1)
	require.NoError(t, err)
	assert.Equal(t, "20", jan.String())

	dec, err := ua.Capacity(12)
	require.NoError(t, err)
	assert.Equal(t, "12.5", dec.String())

	_, err = ua.Capacity(0)
	assert.ErrorIs(t, err, generic.ErrInvalidMonth)
}
