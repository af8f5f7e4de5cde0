package visit

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldKey case-folds s and strips combining marks, so "SITI" and "Sîti"
// both match "siti".
func foldKey(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

// containsAny reports whether any field contains the folded term.
func containsAny(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(foldKey(f), term) {
			return true
		}
	}
	return false
}

// Filter narrows List.
type Filter struct {
	// Query matches name, registration number, complaint, address and
	// therapy.
	Query string
	// TodayOnly keeps visits dated today.
	TodayOnly bool
}

func (f Filter) match(v *Visit, term string, today func(*Visit) bool) bool {
	if f.TodayOnly && !today(v) {
		return false
	}
	return containsAny(term, v.FullName, v.RegistrationNumber, v.Complaint, v.Address, v.Therapy)
}

// StatusShow selects rows of the service-status table.
type StatusShow string

const (
	ShowAll       StatusShow = "all"
	ShowServed    StatusShow = "served"
	ShowNotServed StatusShow = "not-served"
)

// ParseStatusShow accepts all, served and not-served; empty means all.
func ParseStatusShow(s string) (StatusShow, bool) {
	switch StatusShow(strings.ToLower(strings.TrimSpace(s))) {
	case "", ShowAll:
		return ShowAll, true
	case ShowServed:
		return ShowServed, true
	case ShowNotServed:
		return ShowNotServed, true
	}
	return "", false
}

// StatusFilter narrows ServiceStatus. Query matches name, registration
// number and complaint.
type StatusFilter struct {
	Show  StatusShow
	Query string
}

func (f StatusFilter) match(v *Visit, term string) bool {
	switch f.Show {
	case ShowServed:
		if !v.IsServed() {
			return false
		}
	case ShowNotServed:
		if v.IsServed() {
			return false
		}
	}
	return containsAny(term, v.FullName, v.RegistrationNumber, v.Complaint)
}
