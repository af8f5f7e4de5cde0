package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasRole(t *testing.T) {
	tests := []struct {
		name     string
		roles    []string
		required []string
		want     bool
	}{
		{"staff writes", []string{RoleStaff}, WriteRoles, true},
		{"viewer cannot write", []string{RoleViewer}, WriteRoles, false},
		{"viewer reads", []string{RoleViewer}, ReadRoles, true},
		{"admin passes anything", []string{RoleAdmin}, []string{"auditor"}, true},
		{"admin among others", []string{"auditor", RoleAdmin}, []string{RoleStaff}, true},
		{"no roles", nil, ReadRoles, false},
		{"unknown role", []string{"auditor"}, ReadRoles, false},
		{"nothing required", []string{RoleStaff}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasRole(tt.roles, tt.required...))
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		roles    []string
		required []string
		wantCode int
	}{
		{"staff on write route", []string{RoleStaff}, WriteRoles, http.StatusOK},
		{"viewer on read route", []string{RoleViewer}, ReadRoles, http.StatusOK},
		{"viewer on write route", []string{RoleViewer}, WriteRoles, http.StatusForbidden},
		{"admin on staff route", []string{RoleAdmin}, []string{RoleStaff}, http.StatusOK},
		{"anonymous", nil, ReadRoles, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/visits", nil)
			req = req.WithContext(WithIdentity(req.Context(), "u-1", "", tt.roles))
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(req, rec)

			err := RequireRole(tt.required...)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c)

			if tt.wantCode == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
				return
			}
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tt.wantCode, he.Code)
		})
	}
}

func TestRequireRole_MessageNamesRoles(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/visits/3", nil)
	req = req.WithContext(WithIdentity(req.Context(), "u-1", "", []string{RoleViewer}))
	c := echo.New().NewContext(req, httptest.NewRecorder())

	err := RequireRole(WriteRoles...)(func(echo.Context) error { return nil })(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "required role: staff or admin", he.Message)
}

func TestIdentityAccessors(t *testing.T) {
	ctx := WithIdentity(context.Background(), "user-123", "Bidan Sari", []string{RoleStaff})
	assert.Equal(t, "user-123", UserIDFromContext(ctx))
	assert.Equal(t, "Bidan Sari", UserNameFromContext(ctx))
	assert.Equal(t, []string{RoleStaff}, RolesFromContext(ctx))

	empty := context.Background()
	assert.Empty(t, UserIDFromContext(empty))
	assert.Empty(t, UserNameFromContext(empty))
	assert.Nil(t, RolesFromContext(empty))
}
