package dashboard

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bidan/registry/internal/domain/visit"
	"github.com/bidan/registry/internal/platform/auth"
	"github.com/bidan/registry/internal/platform/locale"
	"github.com/bidan/registry/internal/platform/sheets"
)

type Handler struct {
	svc     *Service
	catalog *locale.Catalog
}

func NewHandler(svc *Service, catalog *locale.Catalog) *Handler {
	return &Handler{svc: svc, catalog: catalog}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/dashboard", auth.RequireRole(auth.ReadRoles...))
	g.GET("", h.Dashboard)
	g.GET("/month/:yearMonth", h.Month)
}

// Dashboard serves GET /dashboard?period=today|week|month|year|YYYY-MM.
func (h *Handler) Dashboard(c echo.Context) error {
	sel, err := ParseSelection(c.QueryParam("period"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.render(c, sel)
}

func (h *Handler) Month(c echo.Context) error {
	sel, err := ParseMonth(c.Param("yearMonth"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.render(c, sel)
}

func (h *Handler) render(c echo.Context, sel Selection) error {
	rep, err := h.svc.Report(c.Request().Context(), sel, visit.Localizer(c, h.catalog))
	if err != nil {
		switch {
		case errors.Is(err, sheets.ErrUnauthorized):
			return echo.NewHTTPError(http.StatusForbidden, "spreadsheet access denied").SetInternal(err)
		case errors.Is(err, sheets.ErrUnavailable):
			return echo.NewHTTPError(http.StatusServiceUnavailable, "spreadsheet unavailable").SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rep)
}
