package caldate

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Layouts tried by the generic branch. Values containing "/" or a
// three-part "-" never reach this list.
var genericLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.ANSIC,
	time.UnixDate,
	time.RubyDate,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 2 2006",
	"Jan 2 2006",
	"2006.01.02",
	"02.01.2006",
	"20060102",
	"2006-01-02 15:04:05 -0700",
}

// Spreadsheet day serials accepted as dates, roughly 1954 to 2119.
const (
	minSerial = 20000
	maxSerial = 80000
)

func parseGeneric(s string) (Date, bool) {
	// Browser toString output carries a trailing zone name in parentheses.
	if i := strings.Index(s, " ("); i > 0 && strings.HasSuffix(s, ")") {
		s = s[:i]
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial >= minSerial && serial <= maxSerial {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return FromTime(t), true
			}
		}
	}

	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), true
		}
	}

	return parseWords(s)
}

// parseWords handles "26 Desember 2025", "Jumat, 26 Desember 2025",
// "December 26, 2025" and the abbreviated month forms of both languages.
func parseWords(s string) (Date, bool) {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	if len(fields) > 0 && weekdayWords[strings.TrimSuffix(fields[0], ".")] {
		fields = fields[1:]
	}
	if len(fields) != 3 {
		return Date{}, false
	}
	for i := range fields {
		fields[i] = strings.TrimSuffix(fields[i], ".")
	}

	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return Date{}, false
	}

	if month, ok := monthIndex[fields[1]]; ok {
		if day, err := strconv.Atoi(fields[0]); err == nil {
			return Date{Year: year, Month: month, Day: day}, true
		}
	}
	if month, ok := monthIndex[fields[0]]; ok {
		if day, err := strconv.Atoi(fields[1]); err == nil {
			return Date{Year: year, Month: month, Day: day}, true
		}
	}
	return Date{}, false
}
