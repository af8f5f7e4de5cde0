package caldate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Date
		ok   bool
	}{
		{"two digit year", "26/12/25", Date{2025, 12, 26}, true},
		{"four digit year", "26/12/2025", Date{2025, 12, 26}, true},
		{"single digit fields", "5/1/2024", Date{2024, 1, 5}, true},
		{"iso", "2025-12-26", Date{2025, 12, 26}, true},
		{"iso with time", "2025-12-26T10:00:00", Date{2025, 12, 26}, true},
		{"iso with zone", "2025-12-26T23:30:00+07:00", Date{2025, 12, 26}, true},
		{"surrounding blanks", "  18/12/25 ", Date{2025, 12, 18}, true},
		{"slash wins over dash", "1/2/3-4", Date{2003, 2, 1}, true},
		{"out of range passes through", "31/02/2025", Date{2025, 2, 31}, true},
		{"trailing garbage after digits", "26/12/25 10:00", Date{2025, 12, 26}, true},
		{"indonesian words", "26 Desember 2025", Date{2025, 12, 26}, true},
		{"display form", "Jumat, 26 Desember 2025", Date{2025, 12, 26}, true},
		{"english month first", "December 26, 2025", Date{2025, 12, 26}, true},
		{"abbreviated", "Fri Dec 26 2025", Date{2025, 12, 26}, true},
		{"rfc1123", "Fri, 26 Dec 2025 10:00:00 GMT", Date{2025, 12, 26}, true},
		{"dash with offset", "2025-12-26 10:00:00 -0700", Date{2025, 12, 26}, true},
		{"compact", "20251226", Date{2025, 12, 26}, true},
		{"spreadsheet serial", "46017", Date{2025, 12, 26}, true},
		{"empty", "", Date{}, false},
		{"blank", "   ", Date{}, false},
		{"two slash parts", "26/12", Date{}, false},
		{"non numeric slash parts", "aa/bb/cc", Date{}, false},
		{"non numeric dash parts", "xx-yy-zz", Date{}, false},
		{"free text", "kemarin sore", Date{}, false},
		{"rfc850 splits into dash parts", "Friday, 26-Dec-25 10:00:00 UTC", Date{}, false},
		{"small number", "12", Date{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_AllDelimiterStylesAgree(t *testing.T) {
	want := Date{2025, 12, 26}
	for _, raw := range []string{"26/12/25", "26/12/2025", "2025-12-26", "2025-12-26T10:00:00"} {
		got, ok := Parse(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
		assert.Equal(t, "2025-12-26", Format(got, InputControl, nil), raw)
	}
}

func TestFormat_InputControl(t *testing.T) {
	assert.Equal(t, "2025-01-05", Format(Date{2025, 1, 5}, InputControl, nil))
	assert.Equal(t, "0999-12-31", Format(Date{999, 12, 31}, InputControl, nil))
	assert.Equal(t, "2025-02-31", Format(Date{2025, 2, 31}, InputControl, nil))
}

func TestFormat_Display(t *testing.T) {
	d := Date{2025, 12, 26}
	assert.Equal(t, "Jumat, 26 Desember 2025", Format(d, Display, Indonesian))
	assert.Equal(t, "Jumat, 26 Desember 2025", Format(d, Display, nil))
	assert.Equal(t, "Friday, 26 December 2025", Format(d, Display, English))
	assert.Equal(t, "Minggu, 1 Juni 2025", Format(Date{2025, 6, 1}, Display, Indonesian))
	// not a calendar day
	assert.Equal(t, "2025-02-31", Format(Date{2025, 2, 31}, Display, Indonesian))
}

func TestFormatRaw(t *testing.T) {
	assert.Equal(t, "-", FormatRaw("", Display, Indonesian))
	assert.Equal(t, "", FormatRaw("  ", InputControl, nil))
	assert.Equal(t, "belum diisi", FormatRaw("belum diisi", Display, Indonesian))
	assert.Equal(t, "belum diisi", FormatRaw("belum diisi", InputControl, nil))
	assert.Equal(t, "31/02/2025", FormatRaw("31/02/2025", Display, Indonesian))
	assert.Equal(t, "2025-02-31", FormatRaw("31/02/2025", InputControl, nil))
	assert.Equal(t, "Jumat, 26 Desember 2025", FormatRaw("26/12/25", Display, Indonesian))
	assert.Equal(t, "2025-12-26", FormatRaw("2025-12-26T08:15:00", InputControl, nil))
}

func TestInputControlRoundTrip(t *testing.T) {
	inputs := []string{
		"26/12/25", "1/1/2000", "29/2/24", "2025-12-26T10:00:00", "2024-02-29",
		"26 Desember 2025", "Mon Jan 2 2006", "46017", "31/12/1999",
	}
	for _, raw := range inputs {
		first, ok := Parse(raw)
		require.True(t, ok, raw)
		again, ok := Parse(Format(first, InputControl, nil))
		require.True(t, ok, raw)
		assert.Equal(t, first, again, raw)
	}
}

func TestSameDay(t *testing.T) {
	a := Date{2025, 12, 26}
	b := Date{2025, 12, 26}
	c := Date{2025, 12, 27}

	assert.True(t, SameDay(a, a))
	assert.True(t, SameDay(a, b))
	assert.True(t, SameDay(b, a))
	assert.False(t, SameDay(a, c))
	assert.False(t, SameDay(c, a))

	loc := time.FixedZone("WIB", 7*3600)
	morning := FromTime(time.Date(2025, 12, 26, 0, 5, 0, 0, loc))
	night := FromTime(time.Date(2025, 12, 26, 23, 55, 0, 0, loc))
	assert.True(t, SameDay(morning, night))
}

func TestToday_UsesLocation(t *testing.T) {
	now := time.Date(2025, 12, 26, 20, 0, 0, 0, time.UTC)
	wib := time.FixedZone("WIB", 7*3600)
	assert.Equal(t, Date{2025, 12, 27}, Today(now, wib))
	assert.Equal(t, Date{2025, 12, 26}, Today(now, time.UTC))
}

func TestSameWeek(t *testing.T) {
	wednesday := Date{2025, 12, 24}
	tests := []struct {
		name string
		d    Date
		ref  Date
		want bool
	}{
		{"sunday opens the week", Date{2025, 12, 21}, wednesday, true},
		{"saturday closes the week", Date{2025, 12, 27}, wednesday, true},
		{"previous saturday", Date{2025, 12, 20}, wednesday, false},
		{"next sunday", Date{2025, 12, 28}, wednesday, false},
		{"week spanning new year", Date{2026, 1, 3}, Date{2025, 12, 28}, true},
		{"not a calendar day", Date{2025, 2, 31}, wednesday, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SameWeek(tt.d, tt.ref))
		})
	}
}

func TestSameMonthAndYear(t *testing.T) {
	assert.True(t, SameMonth(Date{2025, 12, 1}, Date{2025, 12, 31}))
	assert.False(t, SameMonth(Date{2024, 12, 1}, Date{2025, 12, 1}))
	assert.True(t, SameYear(Date{2025, 1, 1}, Date{2025, 12, 31}))
	assert.False(t, SameYear(Date{2024, 12, 31}, Date{2025, 1, 1}))
}

func TestValid(t *testing.T) {
	assert.True(t, Date{2024, 2, 29}.Valid())
	assert.False(t, Date{2025, 2, 29}.Valid())
	assert.False(t, Date{2025, 13, 1}.Valid())
	assert.False(t, Date{2025, 0, 1}.Valid())
	assert.False(t, Date{}.Valid())
	assert.True(t, Date{}.IsZero())
}

func TestNamesFor(t *testing.T) {
	assert.Same(t, English, NamesFor("en-US"))
	assert.Same(t, Indonesian, NamesFor("id"))
	assert.Same(t, Indonesian, NamesFor(""))
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("nope") })
	assert.Equal(t, Date{2025, 12, 26}, MustParse("26/12/25"))
}
