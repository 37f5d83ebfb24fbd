// Package datetime provides date and time utility functions.
package datetime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/consultorio/pkg/constants"
)

// ErrUnrecognizedDate is returned when no known layout matches.
var ErrUnrecognizedDate = errors.New("unrecognized date")

// ISOLayout is the layout used when writing timestamps to documents.
const ISOLayout = "2006-01-02T15:04:05"

// flexibleLayouts is tried in order; day-first forms win over month-first ones.
var flexibleLayouts = []string{
	"2/1/2006", "2/1/06", "2-1-2006", "2-1-06", "2.1.2006", "2.1.06",
	"1/2/2006", "1/2/06", "1-2-2006", "1-2-06",
	"2006-1-2", "2006/1/2", "2006.1.2", "2006_1_2",
	"2/1/2006 15:04:05", "2/1/2006 15:04", "2-1-2006 15:04:05", "2-1-2006 15:04",
	"2006-1-2 15:04:05", "2006-1-2 15:04",
	"2 de January de 2006", "2 January 2006", "January 2, 2006", "2 Jan 2006",
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	constants.DateLayout,
}

var spanishMonths = map[string]string{
	"enero": "January", "febrero": "February", "marzo": "March", "abril": "April",
	"mayo": "May", "junio": "June", "julio": "July", "agosto": "August",
	"septiembre": "September", "setiembre": "September", "octubre": "October",
	"noviembre": "November", "diciembre": "December",
	"ene": "Jan", "feb": "Feb", "mar": "Mar", "abr": "Apr", "may": "May", "jun": "Jun",
	"jul": "Jul", "ago": "Aug", "sep": "Sep", "set": "Sep", "oct": "Oct", "nov": "Nov", "dic": "Dec",
}

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.ParseInLocation(layout, dateStr, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseISO parses the timestamp forms written by this application and by
// earlier versions of the document format.
func ParseISO(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognizedDate, value)
}

// ParseFlexible parses user-supplied dates such as "05/03/2024", "2024-03-05",
// "5 de marzo de 2024" or "March 5, 2024". Day-first readings are preferred
// for ambiguous numeric dates. A lenient pass handles ISO timestamps and any
// three numeric groups.
func ParseFlexible(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrUnrecognizedDate)
	}

	candidates := []string{trimmed}
	if translated := translateMonths(trimmed); translated != trimmed {
		candidates = append(candidates, translated)
	}
	for _, candidate := range candidates {
		for _, layout := range flexibleLayouts {
			if t, err := time.ParseInLocation(layout, candidate, time.Local); err == nil {
				return t, nil
			}
		}
	}

	if t, err := ParseISO(trimmed); err == nil {
		return t, nil
	}
	return parseNumericGroups(trimmed)
}

func translateMonths(value string) string {
	fields := strings.Fields(value)
	for i, field := range fields {
		key := strings.ToLower(strings.TrimRight(field, ".,"))
		if english, ok := spanishMonths[key]; ok {
			suffix := ""
			if strings.HasSuffix(field, ",") {
				suffix = ","
			}
			fields[i] = english + suffix
		}
	}
	return strings.Join(fields, " ")
}

func parseNumericGroups(value string) (time.Time, error) {
	groups := strings.FieldsFunc(value, func(r rune) bool { return !unicode.IsDigit(r) })
	if len(groups) < 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognizedDate, value)
	}

	var year, month, day int
	nums := make([]int, 3)
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(groups[i])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognizedDate, value)
		}
		nums[i] = n
	}
	if len(groups[0]) == 4 {
		year, month, day = nums[0], nums[1], nums[2]
	} else {
		day, month, year = nums[0], nums[1], nums[2]
		if len(groups[2]) <= 2 {
			year += 2000
		}
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognizedDate, value)
	}
	return t, nil
}

// MonthKey returns the "YYYY-MM" aggregation key for t.
func MonthKey(t time.Time) string {
	return t.Format(constants.MonthLayout)
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// StartOfDay truncates t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDay parses a "YYYY-MM-DD" query value.
func ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation(constants.DateLayout, strings.TrimSpace(value), time.Local)
}
