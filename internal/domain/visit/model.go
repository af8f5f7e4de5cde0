package visit

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bidan/registry/internal/platform/locale"
	"github.com/bidan/registry/pkg/age"
	"github.com/bidan/registry/pkg/caldate"
)

// Columns is the width of the register, A to I.
const Columns = 9

// FirstDataRow is the sheet row of the first visit; row 1 holds headers.
const FirstDataRow = 2

// Status is the service state of a visit.
type Status string

const (
	StatusServed    Status = "served"
	StatusNotServed Status = "not-served"
)

// Visit is one row of the register. Row locates it in the store: the sheet
// row number (A2 is row 2) or the row_no column in Postgres.
type Visit struct {
	Row                int        `json:"row"`
	ID                 string     `json:"id,omitempty"`
	RegistrationNumber string     `json:"registration_number" validate:"required,max=64"`
	VisitDate          string     `json:"visit_date" validate:"required,caldate"`
	FullName           string     `json:"full_name" validate:"required,max=200"`
	Guardian           string     `json:"guardian" validate:"max=200"`
	Address            string     `json:"address" validate:"required,max=500"`
	Age                string     `json:"age" validate:"required,max=50"`
	Complaint          string     `json:"complaint"`
	Therapy            string     `json:"therapy"`
	Notes              string     `json:"notes"`
	ServedAt           *time.Time `json:"served_at,omitempty"`
}

// FromRow builds a visit from sheet cells. Missing trailing cells are
// empty.
func FromRow(row int, cells []string) *Visit {
	cell := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	return &Visit{
		Row:                row,
		RegistrationNumber: cell(0),
		VisitDate:          cell(1),
		FullName:           cell(2),
		Guardian:           cell(3),
		Address:            cell(4),
		Age:                cell(5),
		Complaint:          cell(6),
		Therapy:            cell(7),
		Notes:              cell(8),
	}
}

// Cells returns the visit in column order A to I.
func (v *Visit) Cells() []string {
	return []string{
		v.RegistrationNumber,
		v.VisitDate,
		v.FullName,
		v.Guardian,
		v.Address,
		v.Age,
		v.Complaint,
		v.Therapy,
		v.Notes,
	}
}

// Blank reports whether every cell is empty, as for a cleared sheet row.
func (v *Visit) Blank() bool {
	for _, c := range v.Cells() {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// IsServed reports whether a therapy has been recorded.
func (v *Visit) IsServed() bool {
	return strings.TrimSpace(v.Therapy) != ""
}

func (v *Visit) Status() Status {
	if v.IsServed() {
		return StatusServed
	}
	return StatusNotServed
}

// Date parses the visit date.
func (v *Visit) Date() (caldate.Date, bool) {
	return caldate.Parse(v.VisitDate)
}

// AgeValue parses the age text.
func (v *Visit) AgeValue() age.Value {
	return age.Parse(v.Age)
}

func (v *Visit) clone() *Visit {
	c := *v
	if v.ServedAt != nil {
		t := *v.ServedAt
		c.ServedAt = &t
	}
	return &c
}

// normalize trims the free-text fields, cleans the age and rewrites a
// parseable visit date as YYYY-MM-DD. An empty date becomes today.
func (v *Visit) normalize(today caldate.Date) {
	v.RegistrationNumber = strings.TrimSpace(v.RegistrationNumber)
	v.FullName = strings.TrimSpace(v.FullName)
	v.Guardian = strings.TrimSpace(v.Guardian)
	v.Address = strings.TrimSpace(v.Address)
	v.Complaint = strings.TrimSpace(v.Complaint)
	v.Therapy = strings.TrimSpace(v.Therapy)
	v.Notes = strings.TrimSpace(v.Notes)
	v.Age = age.Clean(v.Age)

	raw := strings.TrimSpace(v.VisitDate)
	if raw == "" {
		v.VisitDate = caldate.Format(today, caldate.InputControl, nil)
		return
	}
	if d, ok := caldate.Parse(raw); ok && d.Valid() {
		v.VisitDate = caldate.Format(d, caldate.InputControl, nil)
		return
	}
	v.VisitDate = raw
}

// View is the JSON shape returned by the API: the stored fields plus the
// normalised forms the front end displays.
type View struct {
	Visit
	VisitDateInput   string       `json:"visit_date_input"`
	VisitDateDisplay string       `json:"visit_date_display"`
	AgeDisplay       string       `json:"age_display"`
	AgeCategory      age.Category `json:"age_category"`
	AgeCategoryLabel string       `json:"age_category_label"`
	Status           Status       `json:"status"`
	StatusLabel      string       `json:"status_label"`
}

// NewView derives the display fields of v in loc's language.
func NewView(v *Visit, loc *locale.Localizer) View {
	cat := age.Categorize(v.Age)
	status := v.Status()
	statusID := locale.StatusNotServed
	if status == StatusServed {
		statusID = locale.StatusServed
	}
	return View{
		Visit:            *v,
		VisitDateInput:   caldate.FormatRaw(v.VisitDate, caldate.InputControl, nil),
		VisitDateDisplay: caldate.FormatRaw(v.VisitDate, caldate.Display, loc.Names()),
		AgeDisplay:       age.FormatRaw(v.Age),
		AgeCategory:      cat,
		AgeCategoryLabel: loc.AgeCategory(cat),
		Status:           status,
		StatusLabel:      loc.T(statusID),
	}
}

// NewViews maps NewView over visits.
func NewViews(visits []*Visit, loc *locale.Localizer) []View {
	out := make([]View, 0, len(visits))
	for _, v := range visits {
		out = append(out, NewView(v, loc))
	}
	return out
}

// ValidationError lists invalid fields by their JSON name.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, name := range sortedKeys(e.Fields) {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "invalid visit: " + strings.Join(parts, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("caldate", func(fl validator.FieldLevel) bool {
		d, ok := caldate.Parse(fl.Field().String())
		return ok && d.Valid()
	})
	return v
}

// Validate checks the required fields and that the visit date is a real
// calendar day.
func (v *Visit) Validate() error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "caldate":
		return "is not a valid date"
	default:
		return "is invalid"
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
