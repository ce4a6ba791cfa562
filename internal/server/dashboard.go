package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/opencitylabs/tripdash/internal/dashboard"
	"github.com/opencitylabs/tripdash/models"
)

// DashboardHandler exposes the widget catalog, the pinned instance store and
// the remote query passthrough as user shortcuts; every route goes through
// the same command router the chat agent uses.
type DashboardHandler struct {
	Router *dashboard.Router
	State  *datasetState
}

func (h *DashboardHandler) Register(g *echo.Group) {
	g.GET("/menu", h.menu)
	g.GET("/stats", h.stats)
	g.GET("/widgets", h.list)
	g.POST("/widgets", h.add)
	g.POST("/widgets/pin", h.pin)
	g.DELETE("/widgets/:id", h.remove)
	g.DELETE("/widgets", h.clear)
	g.GET("/widgets/:id/preview", h.preview)
	g.POST("/query", h.query)
}

// dispatch routes one command, records metrics and maps router errors onto
// HTTP statuses. Validation failures are the caller's fault; anything else
// is an upstream failure.
func (h *DashboardHandler) dispatch(c echo.Context, cmd models.Command) (dashboard.Result, error) {
	start := time.Now()
	res, err := h.Router.Dispatch(c.Request().Context(), cmd)
	if cmd.Tool == models.ToolRemoteQuery {
		remoteQuerySeconds.Observe(time.Since(start).Seconds())
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	commandsTotal.WithLabelValues(toolLabel(cmd.Tool), outcome).Inc()
	if err != nil {
		switch {
		case errors.Is(err, models.ErrWidgetNotFound):
			return res, echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, models.ErrUnrecognizedCommand):
			return res, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return res, echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
	}
	return res, nil
}

func toolLabel(tool string) string {
	if tool == "" {
		return "unknown"
	}
	return tool
}

func (h *DashboardHandler) menu(c echo.Context) error {
	res, err := h.dispatch(c, models.Command{Tool: models.ToolShowMenu})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res.Menu)
}

func (h *DashboardHandler) stats(c echo.Context) error {
	agg := h.State.Aggregates()
	return c.JSON(http.StatusOK, StatsResponse{
		TotalTrips:   agg.Total,
		MemberTrips:  agg.Members,
		CasualTrips:  agg.Casuals,
		MemberRatio:  agg.MemberRatio,
		MeanDuration: agg.MeanDuration,
		PeakHour:     agg.PeakHour,
		BusiestDay:   agg.BusiestDay,
		TopStation:   agg.TopStationName,
		LoadedAt:     h.State.LoadedAt(),
	})
}

func (h *DashboardHandler) list(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Router.Store.List())
}

func (h *DashboardHandler) add(c echo.Context) error {
	var req AddWidgetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.dispatch(c, models.Command{Tool: models.ToolAddWidget, WidgetID: req.WidgetID})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res.Widget)
}

func (h *DashboardHandler) pin(c echo.Context) error {
	var req PinPayloadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.dispatch(c, models.Command{
		Tool:       models.ToolPinPayload,
		Title:      req.Title,
		Kind:       req.Kind,
		Provenance: req.Provenance,
		Payload:    &req.Payload,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res.Widget)
}

func (h *DashboardHandler) remove(c echo.Context) error {
	if !h.Router.Store.Remove(c.Param("id")) {
		return echo.NewHTTPError(http.StatusNotFound, "widget instance not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *DashboardHandler) clear(c echo.Context) error {
	h.Router.Store.Clear()
	return c.NoContent(http.StatusNoContent)
}

func (h *DashboardHandler) preview(c echo.Context) error {
	res, err := h.dispatch(c, models.Command{Tool: models.ToolPreviewWidget, WidgetID: c.Param("id")})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res.Widget)
}

func (h *DashboardHandler) query(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.dispatch(c, models.Command{
		Tool:  models.ToolRemoteQuery,
		Title: req.Title,
		Query: &req.Query,
		Pin:   req.Pin,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res.Widget)
}
