// Package age reads the free-text age column ("32 tahun", "10 bln",
// "9 th 6 bl", "4") into years and months, renders it back and buckets it
// into demographic categories.
package age

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Note tags a value whose unit had to be assumed.
type Note string

const (
	NoteNone Note = ""
	// NoteMaybeMonths marks a bare number below 13, which clerks sometimes
	// type for an infant's age in months. It is still read as years.
	NoteMaybeMonths Note = "mungkin-bulan"
	// NoteAssumedYears marks any other bare number.
	NoteAssumedYears Note = "asumsi-tahun"
)

// InvalidText is what Format returns for an invalid value.
const InvalidText = "Usia tidak valid"

// MaxCount caps every number read from an age. Larger numbers, including
// those that overflow an int, read as MaxCount so TotalMonths cannot wrap.
const MaxCount = 1_000_000

// Value is a parsed age. Months is in [0,11] for every value produced by Parse.
type Value struct {
	Years  int    `json:"years"`
	Months int    `json:"months"`
	Valid  bool   `json:"valid"`
	Raw    string `json:"raw,omitempty"`
	Note   Note   `json:"note,omitempty"`
}

var (
	combinedPattern = regexp.MustCompile(`(\d+)\s*(?:tahun|thn|th|t).*?(\d+)\s*(?:bulan|bln|bl|b)`)
	yearsPattern    = regexp.MustCompile(`(\d+)\s*(?:tahun|thn|th|t)`)
	monthsPattern   = regexp.MustCompile(`(\d+)\s*(?:bulan|bln|bl|b)`)
	barePattern     = regexp.MustCompile(`^(\d+)$`)
)

// Parse reads raw. It never fails: text that matches no pattern yields an
// invalid zero value.
//
// The combined "<n> tahun ... <n> bulan" form is tried before the single
// unit forms so that "9 th 6 bl" keeps its months.
func Parse(raw string) Value {
	s := strings.ToLower(strings.TrimSpace(raw))
	v := Value{Raw: raw}
	if s == "" {
		return v
	}

	if m := combinedPattern.FindStringSubmatch(s); m != nil {
		months := count(m[2])
		v.Years = min(count(m[1])+months/12, MaxCount)
		v.Months = months % 12
		v.Valid = true
		return v
	}
	if m := yearsPattern.FindStringSubmatch(s); m != nil {
		v.Years = count(m[1])
		v.Valid = true
		return v
	}
	if m := monthsPattern.FindStringSubmatch(s); m != nil {
		total := count(m[1])
		v.Years, v.Months = total/12, total%12
		v.Valid = true
		return v
	}
	if m := barePattern.FindStringSubmatch(s); m != nil {
		v.Years = count(m[1])
		v.Valid = true
		if v.Years < 13 {
			v.Note = NoteMaybeMonths
		} else {
			v.Note = NoteAssumedYears
		}
		return v
	}
	return v
}

// count reads a run of digits, clamping it to MaxCount.
func count(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil || n > MaxCount {
		return MaxCount
	}
	return n
}

// TotalMonths returns years*12 + months.
func (v Value) TotalMonths() int {
	return v.Years*12 + v.Months
}

// YearsFloat returns the age in fractional years.
func (v Value) YearsFloat() float64 {
	return float64(v.Years) + float64(v.Months)/12
}

// String is Format(v).
func (v Value) String() string {
	return Format(v)
}

// Format renders v in Indonesian. Zero years and zero months render as
// "0 tahun", never as an empty string.
func Format(v Value) string {
	switch {
	case !v.Valid:
		return InvalidText
	case v.Years > 0 && v.Months > 0:
		return fmt.Sprintf("%d tahun %d bulan", v.Years, v.Months)
	case v.Years > 0:
		return fmt.Sprintf("%d tahun", v.Years)
	case v.Months > 0:
		return fmt.Sprintf("%d bulan", v.Months)
	default:
		return "0 tahun"
	}
}

// FormatRaw parses raw and formats it.
func FormatRaw(raw string) string {
	return Format(Parse(raw))
}

var (
	spaceRun    = regexp.MustCompile(`\s+`)
	thnWord     = regexp.MustCompile(`(?i)thn`)
	blnWord     = regexp.MustCompile(`(?i)bln`)
	bareNumeric = regexp.MustCompile(`^\d+$`)
)

// Clean is the data-entry normaliser applied before an age is stored. A
// bare number below 13 becomes "<n> bulan", any other bare number
// "<n> tahun"; the abbreviations thn and bln are spelled out and runs of
// whitespace are collapsed.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if bareNumeric.MatchString(s) {
		n, err := strconv.Atoi(s)
		if err == nil {
			if n < 13 {
				return fmt.Sprintf("%d bulan", n)
			}
			return fmt.Sprintf("%d tahun", n)
		}
	}
	s = thnWord.ReplaceAllString(s, "tahun")
	s = blnWord.ReplaceAllString(s, "bulan")
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
