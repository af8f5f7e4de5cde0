package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidan/registry/internal/platform/locale"
	"github.com/bidan/registry/pkg/caldate"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		in   string
		want Selection
		err  bool
	}{
		{"", Selection{Period: PeriodToday}, false},
		{"today", Selection{Period: PeriodToday}, false},
		{" Week ", Selection{Period: PeriodWeek}, false},
		{"month", Selection{Period: PeriodMonth}, false},
		{"year", Selection{Period: PeriodYear}, false},
		{"2025-11", Selection{Period: PeriodCustom, Year: 2025, Month: 11}, false},
		{"2025-13", Selection{}, true},
		{"2025-00", Selection{}, true},
		{"2025-1", Selection{}, true},
		{"25-11", Selection{}, true},
		{"custom", Selection{}, true},
		{"yesterday", Selection{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSelection(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, ErrInvalidPeriod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelection_Contains(t *testing.T) {
	today := caldate.Date{Year: 2025, Month: 12, Day: 26}

	assert.True(t, Selection{Period: PeriodToday}.Contains(today, today))
	assert.False(t, Selection{Period: PeriodToday}.Contains(caldate.Date{Year: 2025, Month: 12, Day: 25}, today))

	week := Selection{Period: PeriodWeek}
	assert.True(t, week.Contains(caldate.Date{Year: 2025, Month: 12, Day: 21}, today))
	assert.False(t, week.Contains(caldate.Date{Year: 2025, Month: 12, Day: 20}, today))

	assert.True(t, Selection{Period: PeriodMonth}.Contains(caldate.Date{Year: 2025, Month: 12, Day: 1}, today))
	assert.False(t, Selection{Period: PeriodMonth}.Contains(caldate.Date{Year: 2024, Month: 12, Day: 26}, today))
	assert.True(t, Selection{Period: PeriodYear}.Contains(caldate.Date{Year: 2025, Month: 1, Day: 1}, today))

	nov := Selection{Period: PeriodCustom, Year: 2025, Month: 11}
	assert.True(t, nov.Contains(caldate.Date{Year: 2025, Month: 11, Day: 30}, today))
	assert.False(t, nov.Contains(today, today))
}

func TestSelection_KeyAndLabel(t *testing.T) {
	cat, err := locale.Load("id")
	require.NoError(t, err)
	id, en := cat.For("id"), cat.For("en")

	nov := Selection{Period: PeriodCustom, Year: 2025, Month: 12}
	assert.Equal(t, "2025-12", nov.Key())
	assert.Equal(t, "Desember 2025", nov.Label(id))
	assert.Equal(t, "December 2025", nov.Label(en))

	assert.Equal(t, "week", Selection{Period: PeriodWeek}.Key())
	assert.Equal(t, "Hari Ini", Selection{Period: PeriodToday}.Label(id))
	assert.Equal(t, "This Week", Selection{Period: PeriodWeek}.Label(en))
}
