package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// waitForDeadline blocks like a slow spreadsheet read until ctx ends.
func waitForDeadline(c echo.Context) error {
	select {
	case <-c.Request().Context().Done():
		return c.Request().Context().Err()
	case <-time.After(2 * time.Second):
		return c.String(http.StatusOK, "late")
	}
}

func timeoutServer(timeout time.Duration, path string, h echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.Use(RequestTimeout(timeout))
	e.GET(path, h)
	return e
}

func TestRequestTimeout_FastHandler(t *testing.T) {
	e := timeoutServer(time.Second, "/api/v1/visits", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/visits", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRequestTimeout_SlowReadAnswers504(t *testing.T) {
	e := timeoutServer(20*time.Millisecond, "/api/v1/dashboard", waitForDeadline)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "allowed time limit")
}

func TestRequestTimeout_WrappedDeadlineError(t *testing.T) {
	e := timeoutServer(10*time.Millisecond, "/api/v1/visits", func(c echo.Context) error {
		<-c.Request().Context().Done()
		return echo.NewHTTPError(http.StatusInternalServerError, "sheet read failed").
			SetInternal(errors.New("values.get: canceled"))
	})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/visits", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestRequestTimeout_OtherErrorsPassThrough(t *testing.T) {
	e := timeoutServer(time.Second, "/api/v1/visits/:row", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/visits/99", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestTimeout_ExemptRequestsHaveNoDeadline(t *testing.T) {
	var hadDeadline bool
	deadlineAware := func(c echo.Context) error {
		_, hadDeadline = c.Request().Context().Deadline()
		return c.NoContent(http.StatusOK)
	}

	tests := []struct {
		name    string
		path    string
		upgrade bool
	}{
		{"export", "/api/v1/visits/export", false},
		{"live feed", "/api/v1/live", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := timeoutServer(time.Millisecond, tt.path, deadlineAware)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.upgrade {
				req.Header.Set(echo.HeaderUpgrade, "websocket")
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.False(t, hadDeadline)
		})
	}
}

func TestRequestTimeout_ZeroDisables(t *testing.T) {
	var deadline bool
	e := timeoutServer(0, "/api/v1/visits", func(c echo.Context) error {
		_, deadline = c.Request().Context().Deadline()
		return c.NoContent(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/visits", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, deadline)
}

func TestRequestTimeout_RegularRequestGetsDeadline(t *testing.T) {
	var deadline time.Time
	e := timeoutServer(time.Minute, "/api/v1/visits", func(c echo.Context) error {
		deadline, _ = c.Request().Context().Deadline()
		return c.NoContent(http.StatusOK)
	})
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/visits", nil))

	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}
