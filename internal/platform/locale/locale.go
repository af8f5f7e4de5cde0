// Package locale holds the translated UI labels of the registry: service
// status, age and patient categories, dashboard periods and reminder text.
// Indonesian is the default; English is the only other language shipped.
package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/bidan/registry/pkg/age"
	"github.com/bidan/registry/pkg/caldate"
)

//go:embed locales/*.json
var localeFS embed.FS

// Message IDs.
const (
	StatusServed    = "status.served"
	StatusNotServed = "status.not_served"

	PeriodToday  = "period.today"
	PeriodWeek   = "period.week"
	PeriodMonth  = "period.month"
	PeriodYear   = "period.year"
	PeriodCustom = "period.custom"

	ReminderNone     = "reminder.none"
	ReminderUnserved = "reminder.unserved"

	PatientPregnant   = "patient.pregnant"
	PatientPostpartum = "patient.postpartum"
	PatientKB         = "patient.kb"
	PatientGeneral    = "patient.general"
)

// AgeCategoryID returns the message ID of an age bucket label.
func AgeCategoryID(c age.Category) string {
	return "age." + strings.ReplaceAll(string(c), "-", "_")
}

// Catalog is the loaded message bundle. It is safe for concurrent use.
type Catalog struct {
	bundle   *i18n.Bundle
	matcher  language.Matcher
	fallback language.Tag
}

// Load reads the embedded locales. defaultLang is used when a request
// names no supported language; it must be one of the shipped languages.
func Load(defaultLang string) (*Catalog, error) {
	fallback, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("parse default language %q: %w", defaultLang, err)
	}

	bundle := i18n.NewBundle(language.Indonesian)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
	}

	tags := bundle.LanguageTags()
	supported := false
	for _, t := range tags {
		base, _ := t.Base()
		fb, _ := fallback.Base()
		if base == fb {
			fallback = t
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("default language %q is not shipped", defaultLang)
	}

	// The matcher's first tag is its fallback.
	ordered := []language.Tag{fallback}
	for _, t := range tags {
		if t != fallback {
			ordered = append(ordered, t)
		}
	}

	return &Catalog{
		bundle:   bundle,
		matcher:  language.NewMatcher(ordered),
		fallback: fallback,
	}, nil
}

// Languages lists the shipped language tags, default first.
func (c *Catalog) Languages() []string {
	out := []string{c.fallback.String()}
	for _, t := range c.bundle.LanguageTags() {
		if t != c.fallback {
			out = append(out, t.String())
		}
	}
	return out
}

// For returns a localizer for the best match among accept, which may hold
// language codes or raw Accept-Language header values.
func (c *Catalog) For(accept ...string) *Localizer {
	tag, _ := language.MatchStrings(c.matcher, accept...)
	base, _ := tag.Base()
	return &Localizer{
		loc:  i18n.NewLocalizer(c.bundle, base.String(), c.fallback.String()),
		lang: base.String(),
	}
}

// Localizer translates for one language.
type Localizer struct {
	loc  *i18n.Localizer
	lang string
}

// Lang returns the base language code, e.g. "id".
func (l *Localizer) Lang() string {
	return l.lang
}

// Names returns the weekday and month words for date display.
func (l *Localizer) Names() caldate.Names {
	return caldate.NamesFor(l.lang)
}

// T translates id. Unknown ids come back unchanged.
func (l *Localizer) T(id string) string {
	return l.localize(&i18n.LocalizeConfig{MessageID: id})
}

// AgeCategory returns the label of an age bucket.
func (l *Localizer) AgeCategory(c age.Category) string {
	return l.T(AgeCategoryID(c))
}

// TData translates id with template data.
func (l *Localizer) TData(id string, data map[string]interface{}) string {
	return l.localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
}

// TCount translates a plural message; data gets Count set to n.
func (l *Localizer) TCount(id string, n int, data map[string]interface{}) string {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["Count"] = n
	return l.localize(&i18n.LocalizeConfig{MessageID: id, PluralCount: n, TemplateData: data})
}

func (l *Localizer) localize(cfg *i18n.LocalizeConfig) string {
	msg, err := l.loc.Localize(cfg)
	if err != nil || msg == "" {
		return cfg.MessageID
	}
	return msg
}
