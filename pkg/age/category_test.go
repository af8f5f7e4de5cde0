package age

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		raw  string
		want Category
	}{
		{"", Unknown},
		{"tidak tahu", Unknown},
		{"0 bulan", Unknown},
		{"1 bulan", Infant},
		{"12 bulan", Infant},
		{"1 tahun", Infant},
		{"13 bulan", Toddler},
		{"5 tahun", Toddler},
		{"5 tahun 6 bulan", Child},
		{"12 tahun", Child},
		{"12 tahun 1 bulan", Adolescent},
		{"19 tahun", Adolescent},
		{"20 tahun", YoungAdult},
		{"35 tahun", YoungAdult},
		{"36 tahun", MiddleAged},
		{"55 tahun", MiddleAged},
		{"56 tahun", Elderly},
		{"200 tahun", Elderly},
		{"800000000000000000 tahun", Elderly},
		{"99999999999999999999 tahun", Elderly},
		{"99999999999999999999 bulan", Elderly},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.raw))
		})
	}
}

func TestCategorizeSimple(t *testing.T) {
	tests := []struct {
		raw  string
		want Category
	}{
		{"", Unknown},
		{"tidak tahu", Unknown},
		{"0 tahun", Infant},
		{"0 bulan", Infant},
		{"11 bulan", Infant},
		{"1 tahun", Toddler},
		{"5 tahun", Toddler},
		{"5 tahun 6 bulan", Toddler},
		{"6 tahun", Child},
		{"12 tahun", Child},
		{"13 tahun", Adolescent},
		{"19 tahun", Adolescent},
		{"20 tahun", YoungAdult},
		{"35 tahun", YoungAdult},
		{"36 tahun", MiddleAged},
		{"55 tahun", MiddleAged},
		{"56 tahun", Elderly},
		{"200 tahun", Elderly},
		{"4", Toddler},
		{"800000000000000000 tahun", Elderly},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeSimple(tt.raw))
		})
	}
}

func TestSchemesDisagreeAtBoundaries(t *testing.T) {
	assert.Equal(t, Infant, Categorize("1 tahun"))
	assert.Equal(t, Toddler, CategorizeSimple("1 tahun"))

	assert.Equal(t, Unknown, Categorize("0 tahun"))
	assert.Equal(t, Infant, CategorizeSimple("0 tahun"))
}

func TestCategoriesOrder(t *testing.T) {
	assert.Len(t, Categories, 8)
	assert.Equal(t, Infant, Categories[0])
	assert.Equal(t, Unknown, Categories[len(Categories)-1])
}
