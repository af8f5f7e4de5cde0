package caldate

import (
	"strings"
	"time"
)

// Names supplies the weekday and month words used by Display mode.
type Names interface {
	Weekday(time.Weekday) string
	Month(time.Month) string
}

// Table is a fixed Names implementation.
type Table struct {
	Weekdays [7]string
	Months   [12]string
}

func (t *Table) Weekday(w time.Weekday) string {
	if w < time.Sunday || w > time.Saturday {
		return ""
	}
	return t.Weekdays[w]
}

func (t *Table) Month(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return t.Months[m-1]
}

// Indonesian follows the id-ID long date convention.
var Indonesian = &Table{
	Weekdays: [7]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"},
	Months: [12]string{
		"Januari", "Februari", "Maret", "April", "Mei", "Juni",
		"Juli", "Agustus", "September", "Oktober", "November", "Desember",
	},
}

// English follows the en-US long date words.
var English = &Table{
	Weekdays: [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	Months: [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
}

// NamesFor returns the table for a language code such as "id", "id-ID" or
// "en". Unknown codes get Indonesian.
func NamesFor(lang string) Names {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if strings.HasPrefix(lang, "en") {
		return English
	}
	return Indonesian
}

// monthIndex maps lower-cased full and three letter month words of both
// tables to a month number.
var monthIndex = func() map[string]int {
	idx := make(map[string]int, 48)
	for _, t := range []*Table{Indonesian, English} {
		for i, name := range t.Months {
			lower := strings.ToLower(name)
			idx[lower] = i + 1
			idx[lower[:3]] = i + 1
		}
	}
	idx["agt"] = 8
	idx["sept"] = 9
	return idx
}()

var weekdayWords = func() map[string]bool {
	words := make(map[string]bool, 28)
	for _, t := range []*Table{Indonesian, English} {
		for _, name := range t.Weekdays {
			lower := strings.ToLower(name)
			words[lower] = true
			words[lower[:3]] = true
		}
	}
	words["jum'at"] = true
	return words
}()
