package workday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHoliday(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-10-06", "2025-10-06", true},
		{"2025-10-6", "2025-10-06", true},
		{"2025-1-6", "2025-01-06", true},
		{"114/10/10", "2025-10-10", true},
		{"114-10-10", "2025-10-10", true},
		{"98/1/1", "2009-01-01", true},
		{" 2025-10-06 ", "2025-10-06", true},
		{"garbage", "", false},
		{"", "", false},
		{"10/10", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizeHoliday(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("NormalizeHoliday(%q) = (%q, %t), want (%q, %t)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestHolidaySetNormalizesAndDeduplicates(t *testing.T) {
	set := HolidaySet(
		[]string{"2025-10-06", "114/10/10"},
		[]string{"2025-10-6", "not a date", "2025-10-10"},
	)
	assert.ElementsMatch(t, []string{"2025-10-06", "2025-10-10"}, set)
}

func TestWorkdaysExcludesWeekendsAndHolidays(t *testing.T) {
	// October 2025 has 23 weekdays.
	all := Workdays(2025, time.October, nil)
	assert.Len(t, all, 23)
	for _, d := range all {
		day, err := time.Parse("2006-01-02", d)
		require.NoError(t, err)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Fatalf("weekend day %s in workday list", d)
		}
	}

	// both holidays fall on weekdays, so the count drops by exactly two
	holidays := []string{"2025-10-06", "2025-10-10"}
	filtered := Workdays(2025, time.October, holidays)
	assert.Len(t, filtered, 21)
	assert.NotContains(t, filtered, "2025-10-06")
	assert.NotContains(t, filtered, "2025-10-10")

	// a weekend holiday changes nothing
	assert.Len(t, Workdays(2025, time.October, []string{"2025-10-04"}), 23)
}

func TestParseMonth(t *testing.T) {
	year, month, err := ParseMonth("2025-10")
	require.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Equal(t, time.October, month)

	_, _, err = ParseMonth("2025/10")
	assert.Error(t, err)
	_, _, err = ParseMonth("")
	assert.Error(t, err)
}
