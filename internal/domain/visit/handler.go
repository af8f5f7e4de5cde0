package visit

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bidan/registry/internal/platform/auth"
	"github.com/bidan/registry/internal/platform/locale"
	"github.com/bidan/registry/internal/platform/sheets"
	"github.com/bidan/registry/pkg/caldate"
	"github.com/bidan/registry/pkg/pagination"
)

type Handler struct {
	svc     *Service
	catalog *locale.Catalog
}

func NewHandler(svc *Service, catalog *locale.Catalog) *Handler {
	return &Handler{svc: svc, catalog: catalog}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.ReadRoles...))
	read.GET("/visits", h.ListVisits)
	read.GET("/visits/search", h.SearchByRegistration)
	read.GET("/visits/export", h.ExportVisits)
	read.GET("/visits/:row", h.GetVisit)
	read.GET("/service-status", h.ServiceStatus)
	read.GET("/service-status/unserved", h.Unserved)

	write := api.Group("", auth.RequireRole(auth.WriteRoles...))
	write.POST("/visits", h.CreateVisit)
	write.PUT("/visits/:row", h.UpdateVisit)
	write.DELETE("/visits/:row", h.DeleteVisit)
	write.POST("/service-status/:row/serve", h.MarkServed)
}

// Localizer picks the response language from ?lang= or Accept-Language.
func Localizer(c echo.Context, catalog *locale.Catalog) *locale.Localizer {
	return catalog.For(c.QueryParam("lang"), c.Request().Header.Get("Accept-Language"))
}

func (h *Handler) localizer(c echo.Context) *locale.Localizer {
	return Localizer(c, h.catalog)
}

func parseRow(c echo.Context) (int, error) {
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil || row < FirstDataRow {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid row")
	}
	return row, nil
}

// httpError maps service and store errors to HTTP errors.
func httpError(err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Fields)
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	case errors.Is(err, ErrEmptySearch), errors.Is(err, ErrTherapyRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, sheets.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, "spreadsheet access denied").SetInternal(err)
	case errors.Is(err, sheets.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "spreadsheet unavailable").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) CreateVisit(c echo.Context) error {
	var v Visit
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateVisit(c.Request().Context(), &v); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, NewView(&v, h.localizer(c)))
}

func (h *Handler) GetVisit(c echo.Context) error {
	row, err := parseRow(c)
	if err != nil {
		return err
	}
	v, err := h.svc.GetVisit(c.Request().Context(), row)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, NewView(v, h.localizer(c)))
}

func (h *Handler) ListVisits(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{Query: c.QueryParam("q")}
	if s := c.QueryParam("today_only"); s != "" {
		todayOnly, err := strconv.ParseBool(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid today_only")
		}
		f.TodayOnly = todayOnly
	}

	visits, err := h.svc.ListVisits(c.Request().Context(), f)
	if err != nil {
		return httpError(err)
	}

	filters := url.Values{}
	if f.Query != "" {
		filters.Set("q", f.Query)
	}
	if f.TodayOnly {
		filters.Set("today_only", "true")
	}
	page := NewViews(pagination.Page(visits, pg), h.localizer(c))
	resp := pagination.New(page, len(visits), pg).WithLinks(c.Request().URL.Path, filters)
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateVisit(c echo.Context) error {
	row, err := parseRow(c)
	if err != nil {
		return err
	}
	var v Visit
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v.Row = row
	if err := h.svc.UpdateVisit(c.Request().Context(), &v); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, NewView(&v, h.localizer(c)))
}

func (h *Handler) DeleteVisit(c echo.Context) error {
	row, err := parseRow(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteVisit(c.Request().Context(), row); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SearchByRegistration(c echo.Context) error {
	visits, err := h.svc.SearchByRegistration(c.Request().Context(), c.QueryParam("reg"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"term":    c.QueryParam("reg"),
		"total":   len(visits),
		"results": NewViews(visits, h.localizer(c)),
	})
}

func (h *Handler) ExportVisits(c echo.Context) error {
	loc := h.localizer(c)
	name := fmt.Sprintf("kunjungan-%s.xlsx", caldate.Format(h.svc.Today(), caldate.InputControl, nil))

	visits, err := h.svc.AllVisits(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	resp.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	resp.WriteHeader(http.StatusOK)
	return WriteWorkbook(resp, visits, loc)
}

// StatusResponse is the service-status payload.
type StatusResponse struct {
	Date        string `json:"date"`
	DateDisplay string `json:"date_display"`
	Total       int    `json:"total"`
	Served      int    `json:"served"`
	NotServed   int    `json:"not_served"`
	Show        string `json:"show"`
	Visits      []View `json:"visits"`
}

func (h *Handler) ServiceStatus(c echo.Context) error {
	show, ok := ParseStatusShow(c.QueryParam("show"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "show must be all, served or not-served")
	}
	rep, err := h.svc.ServiceStatus(c.Request().Context(), StatusFilter{Show: show, Query: c.QueryParam("q")})
	if err != nil {
		return httpError(err)
	}
	loc := h.localizer(c)
	return c.JSON(http.StatusOK, StatusResponse{
		Date:        caldate.Format(rep.Date, caldate.InputControl, nil),
		DateDisplay: caldate.Format(rep.Date, caldate.Display, loc.Names()),
		Total:       rep.Total,
		Served:      rep.Served,
		NotServed:   rep.NotServed,
		Show:        string(show),
		Visits:      NewViews(rep.Visits, loc),
	})
}

type serveRequest struct {
	Therapy string `json:"therapy"`
}

func (h *Handler) MarkServed(c echo.Context) error {
	row, err := parseRow(c)
	if err != nil {
		return err
	}
	var req serveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.MarkServed(c.Request().Context(), row, req.Therapy)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, NewView(v, h.localizer(c)))
}

func (h *Handler) Unserved(c echo.Context) error {
	visits, err := h.svc.Unserved(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	loc := h.localizer(c)
	msg := loc.T(locale.ReminderNone)
	if len(visits) > 0 {
		msg = loc.TCount(locale.ReminderUnserved, len(visits), nil)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"total":   len(visits),
		"message": msg,
		"visits":  NewViews(visits, loc),
	})
}
