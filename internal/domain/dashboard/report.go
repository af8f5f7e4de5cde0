// Package dashboard summarises visits over a period: service counts, age
// distribution and statistics, patient categories and recent activity.
package dashboard

import (
	"math"
	"sort"
	"strings"

	"github.com/bidan/registry/internal/domain/visit"
	"github.com/bidan/registry/internal/platform/locale"
	"github.com/bidan/registry/pkg/age"
	"github.com/bidan/registry/pkg/caldate"
)

const (
	topServices    = 5
	recentActivity = 5
)

// serviceTypes matches therapy text, lower-cased, against keywords. A visit
// can count towards several types.
var serviceTypes = []struct {
	name     string
	keywords []string
}{
	{"ANC", []string{"anc", "hamil"}},
	{"PNC", []string{"pnc", "nifas"}},
	{"KB", []string{"kb", "kontrasepsi"}},
	{"Imunisasi", []string{"imunisasi", "vaksin"}},
	{"Kontrol", []string{"periksa", "kontrol"}},
}

// PatientCategory is the first-match grouping of a visit by complaint and
// therapy.
type PatientCategory string

const (
	Pregnant   PatientCategory = "pregnant"
	Postpartum PatientCategory = "postpartum"
	FamilyPlan PatientCategory = "kb"
	General    PatientCategory = "general"
)

var patientCategories = []PatientCategory{Pregnant, Postpartum, FamilyPlan, General}

var patientCategoryIDs = map[PatientCategory]string{
	Pregnant:   locale.PatientPregnant,
	Postpartum: locale.PatientPostpartum,
	FamilyPlan: locale.PatientKB,
	General:    locale.PatientGeneral,
}

type Metrics struct {
	Total   int `json:"total"`
	Served  int `json:"served"`
	Pending int `json:"pending"`
}

type ServiceCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type AgeBucket struct {
	Category age.Category `json:"category"`
	Label    string       `json:"label"`
	Count    int          `json:"count"`
	// Percent of visits with a readable age, one decimal.
	Percent float64 `json:"percent"`
}

// AgeStats describes the readable ages of a period. Ages are in
// fractional years; min and max are 0 when nothing was readable.
type AgeStats struct {
	Total      int     `json:"total"`
	Valid      int     `json:"valid"`
	Invalid    int     `json:"invalid"`
	Average    float64 `json:"average"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	MostCommon *int    `json:"most_common,omitempty"`
}

type CategoryCount struct {
	Category PatientCategory `json:"category"`
	Label    string          `json:"label"`
	Count    int             `json:"count"`
}

type Report struct {
	Selection  Selection       `json:"selection"`
	Label      string          `json:"label"`
	Metrics    Metrics         `json:"metrics"`
	Services   []ServiceCount  `json:"services"`
	Ages       []AgeBucket     `json:"ages"`
	AgeStats   AgeStats        `json:"age_stats"`
	Categories []CategoryCount `json:"patient_categories"`
	Recent     []visit.View    `json:"recent"`
	Visits     []*visit.Visit  `json:"-"`
}

// Compute builds the report for the visits of sel as seen from today.
// Visits whose date cannot be read belong to no period.
func Compute(visits []*visit.Visit, sel Selection, today caldate.Date, loc *locale.Localizer) *Report {
	var inPeriod []*visit.Visit
	for _, v := range visits {
		if d, ok := v.Date(); ok && sel.Contains(d, today) {
			inPeriod = append(inPeriod, v)
		}
	}

	rep := &Report{
		Selection: sel,
		Label:     sel.Label(loc),
		Metrics:   metricsOf(inPeriod),
		Services:  countServices(inPeriod),
		AgeStats:  ageStats(inPeriod),
		Visits:    inPeriod,
	}
	rep.Ages = ageDistribution(inPeriod, rep.AgeStats.Valid, loc)
	rep.Categories = categorize(inPeriod, loc)

	n := len(inPeriod)
	recent := inPeriod[max(0, n-recentActivity):]
	rep.Recent = make([]visit.View, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		rep.Recent = append(rep.Recent, visit.NewView(recent[i], loc))
	}
	return rep
}

func metricsOf(visits []*visit.Visit) Metrics {
	m := Metrics{Total: len(visits)}
	for _, v := range visits {
		if v.IsServed() {
			m.Served++
		}
	}
	m.Pending = m.Total - m.Served
	return m
}

// countServices returns at most five service types with a non-zero
// count, highest first. Ties keep the order of serviceTypes.
func countServices(visits []*visit.Visit) []ServiceCount {
	counts := make([]ServiceCount, len(serviceTypes))
	for i, st := range serviceTypes {
		counts[i].Type = st.name
	}
	for _, v := range visits {
		therapy := strings.ToLower(v.Therapy)
		for i, st := range serviceTypes {
			if containsAny(therapy, st.keywords...) {
				counts[i].Count++
			}
		}
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })

	out := make([]ServiceCount, 0, topServices)
	for _, c := range counts {
		if c.Count == 0 || len(out) == topServices {
			break
		}
		out = append(out, c)
	}
	return out
}

func ageDistribution(visits []*visit.Visit, valid int, loc *locale.Localizer) []AgeBucket {
	counts := make(map[age.Category]int, len(age.Categories))
	for _, v := range visits {
		counts[age.CategorizeSimpleValue(v.AgeValue())]++
	}
	out := make([]AgeBucket, 0, len(age.Categories))
	for _, c := range age.Categories {
		b := AgeBucket{Category: c, Label: loc.AgeCategory(c), Count: counts[c]}
		if valid > 0 {
			b.Percent = round1(float64(b.Count) / float64(valid) * 100)
		}
		out = append(out, b)
	}
	return out
}

func ageStats(visits []*visit.Visit) AgeStats {
	st := AgeStats{Total: len(visits)}
	totalMonths := 0
	byYears := map[int]int{}
	for _, v := range visits {
		a := v.AgeValue()
		if !a.Valid {
			st.Invalid++
			continue
		}
		years := a.YearsFloat()
		if st.Valid == 0 || years < st.Min {
			st.Min = years
		}
		if st.Valid == 0 || years > st.Max {
			st.Max = years
		}
		st.Valid++
		totalMonths += a.TotalMonths()
		byYears[int(math.Round(years))]++
	}
	if st.Valid == 0 {
		return st
	}
	st.Average = round1(float64(totalMonths) / float64(st.Valid) / 12)
	st.Min = round1(st.Min)
	st.Max = round1(st.Max)

	best, bestCount := 0, 0
	for y, n := range byYears {
		if n > bestCount || (n == bestCount && y < best) {
			best, bestCount = y, n
		}
	}
	st.MostCommon = &best
	return st
}

// categoryOf applies the rules in order; the first match wins.
func categoryOf(v *visit.Visit) PatientCategory {
	complaint := strings.ToLower(v.Complaint)
	therapy := strings.ToLower(v.Therapy)
	switch {
	case strings.Contains(complaint, "hamil") || strings.Contains(therapy, "anc"):
		return Pregnant
	case strings.Contains(complaint, "nifas") || strings.Contains(therapy, "pnc"):
		return Postpartum
	case strings.Contains(complaint, "kb") || strings.Contains(therapy, "kontrasepsi"):
		return FamilyPlan
	default:
		return General
	}
}

func categorize(visits []*visit.Visit, loc *locale.Localizer) []CategoryCount {
	counts := make(map[PatientCategory]int, len(patientCategories))
	for _, v := range visits {
		counts[categoryOf(v)]++
	}
	out := make([]CategoryCount, 0, len(patientCategories))
	for _, c := range patientCategories {
		out = append(out, CategoryCount{Category: c, Label: loc.T(patientCategoryIDs[c]), Count: counts[c]})
	}
	return out
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
