package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/electioncalls/config"
	"github.com/padraicbc/electioncalls/db"
	"github.com/padraicbc/electioncalls/metrics"
	"github.com/padraicbc/electioncalls/models"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	store    *db.Store
	election *config.Election
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// New creates a Handler over the store and the election's office slugs.
func New(store *db.Store, election *config.Election, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{store: store, election: election, metrics: m, logger: logger}
}

// Register mounts the desk routes on e.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/test", h.Test)

	g := e.Group("/calls/:office")
	g.GET("", h.Calls)
	g.POST("/call-winner", h.CallWinner)
	g.POST("/accept-wire", h.AcceptWire)
	g.POST("/call-chamber", h.CallChamber)
}

// Test is the load balancer health check.
func (h *Handler) Test(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// office resolves the :office slug.
func (h *Handler) office(c echo.Context) (string, error) {
	office, err := h.election.OfficeForSlug(c.Param("office"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return office, nil
}

// httpError maps store errors onto status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrDataIntegrity):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
