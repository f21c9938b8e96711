// Package workday computes the working days of a month for the
// upload-compliance statistics: Monday to Friday, minus a configurable
// holiday set.
package workday

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	arrays "github.com/adam-hanna/arrayOperations"
	"tideland.dev/go/slices"
)

// rocEraOffset converts a Republic-of-China calendar year to the Gregorian
// year.
const rocEraOffset = 1911

var (
	isoDate = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)
	rocDate = regexp.MustCompile(`^(\d{2,3})[/\-](\d{1,2})[/\-](\d{1,2})$`)
)

// NormalizeHoliday brings one holiday string into canonical YYYY-MM-DD form.
// Two input shapes are accepted: ISO YYYY-M-D (zero-padded as needed) and the
// ROC calendar form YY(Y)/M/D (year + 1911, "/" or "-" as separator).
// Anything else reports ok=false and is dropped by the caller.
func NormalizeHoliday(s string) (normalized string, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if isoDate.MatchString(s) {
		parts := strings.Split(s, "-")
		month, _ := strconv.Atoi(parts[1])
		day, _ := strconv.Atoi(parts[2])
		return fmt.Sprintf("%s-%02d-%02d", parts[0], month, day), true
	}
	if m := rocDate.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return fmt.Sprintf("%d-%02d-%02d", year+rocEraOffset, month, day), true
	}
	return "", false
}

// HolidaySet normalizes and deduplicates the union of the base holiday list
// and the caller-supplied extras. Unparsable entries are silently dropped;
// that is the documented best-effort behavior, not an error.
func HolidaySet(base, extra []string) []string {
	normalized := slices.FilterMap(
		append(append([]string{}, base...), extra...),
		func(s string) (string, bool) {
			return NormalizeHoliday(s)
		},
	)
	return arrays.Distinct(normalized)
}

// Workdays returns the YYYY-MM-DD dates of the given month whose weekday is
// Monday through Friday and which are not in the holiday set. holidays must
// already be normalized (see HolidaySet).
func Workdays(year int, month time.Month, holidays []string) []string {
	isHoliday := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		isHoliday[h] = true
	}
	var out []string
	for d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC); d.Month() == month; d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		date := d.Format("2006-01-02")
		if isHoliday[date] {
			continue
		}
		out = append(out, date)
	}
	return out
}

// ParseMonth parses a YYYY-MM month selector.
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month '%s': expected YYYY-MM", s)
	}
	return t.Year(), t.Month(), nil
}
