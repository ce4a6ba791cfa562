package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/opencitylabs/tripdash/internal/dashboard"
	"github.com/opencitylabs/tripdash/models"
	"github.com/opencitylabs/tripdash/provider"
)

// ChatHandler turns free text into dashboard commands via the LLM provider.
// The agent's output is untrusted: whatever it emits goes through the same
// router validation as any user shortcut, and a failed command is a chat
// reply, not a failed HTTP turn.
type ChatHandler struct {
	LLM    provider.Provider
	Router *dashboard.Router
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.chat)
}

func (h *ChatHandler) chat(c echo.Context) error {
	if h.LLM == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "chat agent not configured (providers.openai.api_key)")
	}
	var req ChatRequest
	if err := c.Bind(&req); err != nil || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}

	ctx := c.Request().Context()
	cmd, reply, err := h.LLM.TranslateCommand(ctx, req.Message, req.History, h.Router.Catalog.Menu())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	start := time.Now()
	res, err := h.Router.Dispatch(ctx, cmd)
	if cmd.Tool == models.ToolRemoteQuery {
		remoteQuerySeconds.Observe(time.Since(start).Seconds())
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	commandsTotal.WithLabelValues(toolLabel(cmd.Tool), outcome).Inc()

	resp := ChatResponse{Reply: reply}
	if err != nil {
		// command failures are recoverable: surface them in the transcript
		resp.Error = err.Error()
		return c.JSON(http.StatusOK, resp)
	}
	if resp.Reply == "" {
		resp.Reply = res.Message
	}
	resp.Result = &res
	return c.JSON(http.StatusOK, resp)
}
