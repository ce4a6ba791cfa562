package models

import (
	"errors"
	"time"
)

// ErrWidgetNotFound is returned when a command references an unknown catalog widget.
var ErrWidgetNotFound = errors.New("widget not found")

// ErrUnrecognizedCommand is returned for commands with an unknown or missing tool.
var ErrUnrecognizedCommand = errors.New("unrecognized command")

// Tool names accepted by the command router.
const (
	ToolShowMenu      = "show_menu"
	ToolPreviewWidget = "preview_widget"
	ToolAddWidget     = "add_widget"
	ToolPinPayload    = "pin_payload"
	ToolRemoteQuery   = "remote_query"
)

// Widget kinds.
const (
	KindChart = "chart"
	KindTable = "table"
)

// Provenance tags for widget instances.
const (
	ProvenanceLocal  = "local"
	ProvenanceRemote = "remote"
	ProvenanceCustom = "custom"
)

// Command is a structured instruction from a user shortcut or the LLM agent.
// The agent's output is untrusted; the router validates the shape before acting.
type Command struct {
	Tool     string           `json:"tool"`
	WidgetID string           `json:"widget_id,omitempty"`
	Title    string           `json:"title,omitempty"`
	Kind     string           `json:"kind,omitempty"`
	Payload  *Payload         `json:"payload,omitempty"`
	Query    *QueryDescriptor `json:"query,omitempty"`
	Pin      bool             `json:"pin,omitempty"`
	// Provenance applies to pin_payload commands; defaults to "custom".
	Provenance string `json:"provenance,omitempty"`
}

// QueryDescriptor is a declarative read query against the remote row store.
type QueryDescriptor struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns,omitempty"`
	Filters []Filter `json:"filters,omitempty"`
	OrderBy *OrderBy `json:"order_by,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

type Filter struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

type OrderBy struct {
	Column    string `json:"column"`
	Ascending bool   `json:"ascending"`
}

// Payload is the renderable unit bound to a widget: a chart or a table.
type Payload struct {
	Kind  string     `json:"kind"`
	Chart *ChartData `json:"chart,omitempty"`
	Table *TableData `json:"table,omitempty"`
}

type ChartData struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

type Series struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
}

type TableData struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// MenuEntry is one catalog entry as shown to users and to the agent.
type MenuEntry struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Title string `json:"title"`
}

// WidgetInstance is a widget currently pinned to the dashboard.
type WidgetInstance struct {
	ID         string    `json:"id"`
	Provenance string    `json:"provenance"`
	Kind       string    `json:"kind"`
	Title      string    `json:"title"`
	Payload    Payload   `json:"payload"`
	CreatedAt  time.Time `json:"created_at"`
}
