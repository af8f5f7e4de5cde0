package normalize

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bidan/registry/internal/domain/visit"
	"github.com/bidan/registry/internal/platform/auth"
	"github.com/bidan/registry/internal/platform/locale"
)

type Handler struct {
	catalog *locale.Catalog
}

func NewHandler(catalog *locale.Catalog) *Handler {
	return &Handler{catalog: catalog}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/normalize", auth.RequireRole(auth.ReadRoles...))
	g.GET("/date", h.Date)
	g.GET("/age", h.Age)
}

func (h *Handler) Date(c echo.Context) error {
	return c.JSON(http.StatusOK, Date(c.QueryParam("raw"), visit.Localizer(c, h.catalog)))
}

func (h *Handler) Age(c echo.Context) error {
	return c.JSON(http.StatusOK, Age(c.QueryParam("raw"), visit.Localizer(c, h.catalog)))
}
