// Package normalize exposes the date and age normalisers as results that
// the HTTP API and the CLI render.
package normalize

import (
	"github.com/bidan/registry/internal/platform/locale"
	"github.com/bidan/registry/pkg/age"
	"github.com/bidan/registry/pkg/caldate"
)

type DateResult struct {
	Raw     string `json:"raw"`
	Valid   bool   `json:"valid"`
	Input   string `json:"input"`
	Display string `json:"display"`
	// Calendar is false when the fields parsed but name no real day,
	// e.g. 31/02/2025.
	Calendar bool `json:"calendar"`
}

// Date normalises raw, rendering display text in loc's language.
func Date(raw string, loc *locale.Localizer) DateResult {
	var names caldate.Names
	if loc != nil {
		names = loc.Names()
	}
	res := DateResult{
		Raw:     raw,
		Input:   caldate.FormatRaw(raw, caldate.InputControl, nil),
		Display: caldate.FormatRaw(raw, caldate.Display, names),
	}
	if d, ok := caldate.Parse(raw); ok {
		res.Valid = true
		res.Calendar = d.Valid()
	}
	return res
}

type AgeResult struct {
	age.Value
	Display        string       `json:"display"`
	Clean          string       `json:"clean"`
	TotalMonths    int          `json:"total_months"`
	Category       age.Category `json:"category"`
	CategoryLabel  string       `json:"category_label,omitempty"`
	SimpleCategory age.Category `json:"simple_category"`
}

// Age normalises raw. Category uses the month based scheme and
// SimpleCategory the whole year scheme of the dashboard.
func Age(raw string, loc *locale.Localizer) AgeResult {
	v := age.Parse(raw)
	res := AgeResult{
		Value:          v,
		Display:        age.Format(v),
		Clean:          age.Clean(raw),
		TotalMonths:    v.TotalMonths(),
		Category:       age.CategorizeValue(v),
		SimpleCategory: age.CategorizeSimpleValue(v),
	}
	if loc != nil {
		res.CategoryLabel = loc.AgeCategory(res.Category)
	}
	return res
}
