package dashboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bidan/registry/internal/platform/locale"
	"github.com/bidan/registry/pkg/caldate"
)

type Period string

const (
	PeriodToday  Period = "today"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodYear   Period = "year"
	PeriodCustom Period = "custom"
)

var ErrInvalidPeriod = errors.New("period must be today, week, month, year or YYYY-MM")

// Selection is a dashboard period. Year and Month are set for custom
// months only.
type Selection struct {
	Period Period `json:"period"`
	Year   int    `json:"year,omitempty"`
	Month  int    `json:"month,omitempty"`
}

// ParseSelection accepts today, week, month, year or a YYYY-MM month.
// Empty means today.
func ParseSelection(s string) (Selection, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Selection{Period: PeriodToday}, nil
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear:
		return Selection{Period: p}, nil
	}
	return ParseMonth(s)
}

// ParseMonth accepts YYYY-MM with a month between 01 and 12.
func ParseMonth(s string) (Selection, error) {
	y, m, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok || len(y) != 4 || len(m) != 2 {
		return Selection{}, ErrInvalidPeriod
	}
	year, err := strconv.Atoi(y)
	if err != nil || year < 1 {
		return Selection{}, ErrInvalidPeriod
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return Selection{}, ErrInvalidPeriod
	}
	return Selection{Period: PeriodCustom, Year: year, Month: month}, nil
}

// Contains reports whether d falls in the selection as seen from today.
// Weeks start on Sunday.
func (s Selection) Contains(d, today caldate.Date) bool {
	switch s.Period {
	case PeriodToday:
		return caldate.SameDay(d, today)
	case PeriodWeek:
		return caldate.SameWeek(d, today)
	case PeriodMonth:
		return caldate.SameMonth(d, today)
	case PeriodYear:
		return caldate.SameYear(d, today)
	case PeriodCustom:
		return d.Year == s.Year && d.Month == s.Month
	}
	return false
}

// Key is the selection as accepted by ParseSelection.
func (s Selection) Key() string {
	if s.Period == PeriodCustom {
		return fmt.Sprintf("%04d-%02d", s.Year, s.Month)
	}
	return string(s.Period)
}

// Label names the selection in loc's language, e.g. "Minggu Ini" or
// "Desember 2025".
func (s Selection) Label(loc *locale.Localizer) string {
	switch s.Period {
	case PeriodToday:
		return loc.T(locale.PeriodToday)
	case PeriodWeek:
		return loc.T(locale.PeriodWeek)
	case PeriodMonth:
		return loc.T(locale.PeriodMonth)
	case PeriodYear:
		return loc.T(locale.PeriodYear)
	}
	return loc.TData(locale.PeriodCustom, map[string]interface{}{
		"Month": loc.Names().Month(time.Month(s.Month)),
		"Year":  s.Year,
	})
}
