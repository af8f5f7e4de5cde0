package normalize

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidan/registry/internal/platform/locale"
	"github.com/bidan/registry/pkg/age"
)

func testCatalog(t *testing.T) *locale.Catalog {
	t.Helper()
	cat, err := locale.Load("id")
	require.NoError(t, err)
	return cat
}

func TestDate(t *testing.T) {
	cat := testCatalog(t)

	got := Date("26/12/25", cat.For("id"))
	assert.Equal(t, DateResult{Raw: "26/12/25", Valid: true, Calendar: true, Input: "2025-12-26", Display: "Jumat, 26 Desember 2025"}, got)

	en := Date("2025-12-26T10:00:00", cat.For("en"))
	assert.Equal(t, "Friday, 26 December 2025", en.Display)

	bad := Date("31/02/2025", nil)
	assert.True(t, bad.Valid)
	assert.False(t, bad.Calendar)
	assert.Equal(t, "31/02/2025", bad.Display)

	none := Date("", nil)
	assert.False(t, none.Valid)
	assert.Equal(t, "-", none.Display)
	assert.Equal(t, "", none.Input)
}

func TestAge(t *testing.T) {
	got := Age("9 th 6 bl", testCatalog(t).For("id"))
	assert.True(t, got.Valid)
	assert.Equal(t, 9, got.Years)
	assert.Equal(t, 6, got.Months)
	assert.Equal(t, 114, got.TotalMonths)
	assert.Equal(t, "9 tahun 6 bulan", got.Display)
	assert.Equal(t, "9 th 6 bl", got.Clean)
	assert.Equal(t, age.Child, got.Category)
	assert.Equal(t, age.Child, got.SimpleCategory)
	assert.Equal(t, "Anak (6-12 th)", got.CategoryLabel)

	bare := Age("4", nil)
	assert.Equal(t, age.NoteMaybeMonths, bare.Note)
	assert.Equal(t, "4 bulan", bare.Clean)
	assert.Empty(t, bare.CategoryLabel)

	bad := Age("dewasa", nil)
	assert.False(t, bad.Valid)
	assert.Equal(t, age.InvalidText, bad.Display)
	assert.Equal(t, age.Unknown, bad.Category)
}

func TestHandler(t *testing.T) {
	h := NewHandler(testCatalog(t))
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?raw="+url.QueryEscape("1 th 14 bl"), nil), rec)
	require.NoError(t, h.Age(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["years"])
	assert.Equal(t, float64(2), body["months"])
	assert.Equal(t, "toddler", body["category"])

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?raw=26%2F12%2F25", nil)
	req.Header.Set("Accept-Language", "en-GB,en;q=0.8")
	c = e.NewContext(req, rec)
	require.NoError(t, h.Date(c))

	var date DateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &date))
	assert.Equal(t, "Friday, 26 December 2025", date.Display)
}
