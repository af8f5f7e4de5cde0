// Package caldate normalizes the date text found in spreadsheet cells into a
// calendar date and formats it back for display and for date input controls.
package caldate

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Date is a calendar day with no time-of-day and no zone. Month and Day are
// not range checked by Parse; use Valid to test for a real calendar day.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Mode selects the output of Format.
type Mode int

const (
	// InputControl renders strict YYYY-MM-DD, as accepted by <input type="date">.
	InputControl Mode = iota
	// Display renders "<weekday>, <day> <month> <year>" using a Names table.
	Display
)

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Today returns the current calendar day in loc. A nil loc means time.Local.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return FromTime(now.In(loc))
}

// Time returns midnight UTC of d. Out of range fields are normalized the way
// time.Date does it.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// Valid reports whether d names a real calendar day.
func (d Date) Valid() bool {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return false
	}
	return FromTime(d.Time()) == d
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// String returns the input-control form.
func (d Date) String() string {
	return Format(d, InputControl, nil)
}

// Weekday returns the day of week of d.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// Parse reads a spreadsheet cell value. The branches are tried in a fixed
// order and the first one that applies decides the result:
//
//  1. empty or blank input fails
//  2. input containing "/" is DD/MM/YY or DD/MM/YYYY; years below 100 get 2000 added
//  3. input containing "-" is YYYY-MM-DD, anything from a "T" onwards is dropped
//  4. anything else goes through the generic layouts
//
// A "/" value that does not split into three parts falls through to the later
// branches.
func Parse(raw string) (Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Date{}, false
	}

	if strings.Contains(s, "/") {
		if parts := strings.Split(s, "/"); len(parts) == 3 {
			day, ok1 := leadingInt(parts[0])
			month, ok2 := leadingInt(parts[1])
			year, ok3 := leadingInt(parts[2])
			if !ok1 || !ok2 || !ok3 {
				return Date{}, false
			}
			if year < 100 {
				year += 2000
			}
			return Date{Year: year, Month: month, Day: day}, true
		}
	}

	if strings.Contains(s, "-") {
		datePart, _, _ := strings.Cut(s, "T")
		if parts := strings.Split(datePart, "-"); len(parts) == 3 {
			year, ok1 := leadingInt(parts[0])
			month, ok2 := leadingInt(parts[1])
			day, ok3 := leadingInt(parts[2])
			if !ok1 || !ok2 || !ok3 {
				return Date{}, false
			}
			return Date{Year: year, Month: month, Day: day}, true
		}
	}

	return parseGeneric(s)
}

// MustParse is Parse for tests and constants. It panics on failure.
func MustParse(raw string) Date {
	d, ok := Parse(raw)
	if !ok {
		panic(fmt.Sprintf("caldate: cannot parse %q", raw))
	}
	return d
}

// Format renders d. A nil names table means Indonesian. Display mode falls
// back to the input-control form when d is not a real calendar day.
func Format(d Date, mode Mode, names Names) string {
	if mode == Display {
		if !d.Valid() {
			return Format(d, InputControl, nil)
		}
		if names == nil {
			names = Indonesian
		}
		return fmt.Sprintf("%s, %d %s %d", names.Weekday(d.Weekday()), d.Day, names.Month(time.Month(d.Month)), d.Year)
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// FormatRaw parses raw and formats the result. When raw cannot be parsed it
// is returned unchanged, except that blank input renders as "-" in Display
// mode and "" in InputControl mode.
func FormatRaw(raw string, mode Mode, names Names) string {
	if strings.TrimSpace(raw) == "" {
		if mode == Display {
			return "-"
		}
		return ""
	}
	d, ok := Parse(raw)
	if !ok {
		return raw
	}
	if mode == Display && !d.Valid() {
		return raw
	}
	return Format(d, mode, names)
}

// SameDay reports whether a and b are the same calendar day.
func SameDay(a, b Date) bool {
	return a == b
}

// SameWeek reports whether a falls in the Sunday-to-Saturday week containing b.
func SameWeek(a, b Date) bool {
	if !a.Valid() || !b.Valid() {
		return false
	}
	start := b.Time().AddDate(0, 0, -int(b.Weekday()))
	at := a.Time()
	return !at.Before(start) && at.Before(start.AddDate(0, 0, 7))
}

// SameMonth reports whether a and b share year and month.
func SameMonth(a, b Date) bool {
	return a.Year == b.Year && a.Month == b.Month
}

// SameYear reports whether a and b share the year.
func SameYear(a, b Date) bool {
	return a.Year == b.Year
}

// leadingInt reads an optionally signed run of leading digits, ignoring
// surrounding blanks and whatever follows the digits.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
		if digits > 9 {
			return 0, false
		}
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
