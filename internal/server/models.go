package server

import (
	"time"

	"github.com/opencitylabs/tripdash/internal/dashboard"
	"github.com/opencitylabs/tripdash/models"
)

// HTTPError is the JSON error body produced by the unified error handler.
type HTTPError struct {
	Error string `json:"error"`
}

// AddWidgetRequest pins a catalog widget to the dashboard.
type AddWidgetRequest struct {
	WidgetID string `json:"widget_id"`
}

// PinPayloadRequest pins an already-rendered payload, e.g. a kept preview
// or a remote query result.
type PinPayloadRequest struct {
	Title      string         `json:"title"`
	Kind       string         `json:"kind"`
	Provenance string         `json:"provenance"`
	Payload    models.Payload `json:"payload"`
}

// QueryRequest runs a declarative read query against the remote row store.
type QueryRequest struct {
	Query models.QueryDescriptor `json:"query"`
	Title string                 `json:"title"`
	Pin   bool                   `json:"pin"`
}

// ChatRequest is one conversational turn. The transcript lives with the
// caller; History carries whatever recent lines it wants the agent to see.
type ChatRequest struct {
	Message string   `json:"message"`
	History []string `json:"history"`
}

// ChatResponse is the agent's reply plus whatever the command produced.
// Error is set when the command failed validation or execution; the turn is
// still a 200 because command failures are recoverable chat content.
type ChatResponse struct {
	Reply  string            `json:"reply"`
	Error  string            `json:"error,omitempty"`
	Result *dashboard.Result `json:"result,omitempty"`
}

// StatsResponse carries the summary scalars.
type StatsResponse struct {
	TotalTrips   int       `json:"total_trips"`
	MemberTrips  int       `json:"member_trips"`
	CasualTrips  int       `json:"casual_trips"`
	MemberRatio  float64   `json:"member_ratio"`
	MeanDuration float64   `json:"mean_duration_minutes"`
	PeakHour     string    `json:"peak_hour"`
	BusiestDay   string    `json:"busiest_day"`
	TopStation   string    `json:"top_station"`
	LoadedAt     time.Time `json:"loaded_at"`
}
