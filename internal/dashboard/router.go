package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/opencitylabs/tripdash/internal/trips"
	"github.com/opencitylabs/tripdash/models"
)

// QueryExecutor runs a declarative read query against the remote row store.
// The router treats it strictly as an injected dependency.
type QueryExecutor interface {
	Query(ctx context.Context, q models.QueryDescriptor) (*models.TableData, error)
}

// Remote query row limits.
const (
	DefaultQueryLimit = 10
	MaxQueryLimit     = 200
)

// WidgetView is the renderable outcome of a command: a transient preview or
// a freshly pinned instance (ID set, Pinned true).
type WidgetView struct {
	ID         string         `json:"id,omitempty"`
	Kind       string         `json:"kind"`
	Title      string         `json:"title"`
	Provenance string         `json:"provenance"`
	Payload    models.Payload `json:"payload"`
	Pinned     bool           `json:"pinned"`
}

// Result is what a successfully dispatched command produced.
type Result struct {
	Message string             `json:"message"`
	Menu    []models.MenuEntry `json:"menu,omitempty"`
	Widget  *WidgetView        `json:"widget,omitempty"`
}

// Router dispatches one structured command at a time against the catalog,
// the instance store and the remote row store. Commands come from user
// shortcuts or from the LLM agent; agent output is untrusted, so every
// command is validated structurally before anything happens. A command that
// fails validation or execution leaves all stores unchanged.
type Router struct {
	Catalog    *Catalog
	Store      *Store
	Exec       QueryExecutor
	Aggregates func() *trips.AggregateSet
}

// Dispatch routes a single command. On error no state was mutated and the
// error text is safe to surface to the command issuer.
func (r *Router) Dispatch(ctx context.Context, cmd models.Command) (Result, error) {
	switch cmd.Tool {
	case models.ToolShowMenu:
		return Result{Message: "Here is the widget catalog.", Menu: r.Catalog.Menu()}, nil
	case models.ToolPreviewWidget:
		return r.buildWidget(cmd.WidgetID, false)
	case models.ToolAddWidget:
		return r.buildWidget(cmd.WidgetID, true)
	case models.ToolPinPayload:
		return r.pinPayload(cmd)
	case models.ToolRemoteQuery:
		return r.remoteQuery(ctx, cmd)
	default:
		return Result{}, fmt.Errorf("%w: tool %q", models.ErrUnrecognizedCommand, cmd.Tool)
	}
}

func (r *Router) buildWidget(id string, pin bool) (Result, error) {
	def, payload, err := r.Catalog.Build(id, r.Aggregates())
	if err != nil {
		return Result{}, err
	}
	view := &WidgetView{
		Kind:       def.Kind,
		Title:      def.Title,
		Provenance: models.ProvenanceLocal,
		Payload:    payload,
	}
	if !pin {
		return Result{Message: fmt.Sprintf("Preview of %q.", def.Title), Widget: view}, nil
	}
	view.ID = r.Store.Create(def.Kind, def.Title, payload, models.ProvenanceLocal)
	view.Pinned = true
	return Result{Message: fmt.Sprintf("Added %q to the dashboard.", def.Title), Widget: view}, nil
}

func (r *Router) pinPayload(cmd models.Command) (Result, error) {
	if cmd.Payload == nil {
		return Result{}, fmt.Errorf("%w: pin_payload requires a payload", models.ErrUnrecognizedCommand)
	}
	kind := cmd.Kind
	if kind == "" {
		kind = cmd.Payload.Kind
	}
	if kind != models.KindChart && kind != models.KindTable {
		return Result{}, fmt.Errorf("%w: unknown widget kind %q", models.ErrUnrecognizedCommand, kind)
	}
	title := cmd.Title
	if title == "" {
		title = "Pinned widget"
	}
	provenance := cmd.Provenance
	if provenance == "" {
		provenance = models.ProvenanceCustom
	}
	view := &WidgetView{
		ID:         r.Store.Create(kind, title, *cmd.Payload, provenance),
		Kind:       kind,
		Title:      title,
		Provenance: provenance,
		Payload:    *cmd.Payload,
		Pinned:     true,
	}
	return Result{Message: fmt.Sprintf("Pinned %q to the dashboard.", title), Widget: view}, nil
}

func (r *Router) remoteQuery(ctx context.Context, cmd models.Command) (Result, error) {
	if r.Exec == nil {
		return Result{}, fmt.Errorf("remote row store is not configured")
	}
	if cmd.Query == nil {
		return Result{}, fmt.Errorf("%w: remote_query requires a query descriptor", models.ErrUnrecognizedCommand)
	}
	q, err := NormalizeQuery(*cmd.Query)
	if err != nil {
		return Result{}, err
	}
	table, err := r.Exec.Query(ctx, q)
	if err != nil {
		// surfaced verbatim, no retry, no partial pin
		return Result{}, fmt.Errorf("remote query failed: %w", err)
	}
	title := cmd.Title
	if title == "" {
		title = fmt.Sprintf("Query: %s", q.Table)
	}
	payload := models.Payload{Kind: models.KindTable, Table: table}
	view := &WidgetView{
		Kind:       models.KindTable,
		Title:      title,
		Provenance: models.ProvenanceRemote,
		Payload:    payload,
	}
	msg := fmt.Sprintf("Query against %q returned %d rows.", q.Table, len(table.Rows))
	if cmd.Pin {
		view.ID = r.Store.Create(models.KindTable, title, payload, models.ProvenanceRemote)
		view.Pinned = true
		msg += " Pinned to the dashboard."
	}
	return Result{Message: msg, Widget: view}, nil
}

// NormalizeQuery validates the parts of a descriptor the router owns: the
// table name must be present and the row limit is clamped to [1,200] with a
// default of 10 when absent. Column and operator validation belongs to the
// executor.
func NormalizeQuery(q models.QueryDescriptor) (models.QueryDescriptor, error) {
	q.Table = strings.TrimSpace(q.Table)
	if q.Table == "" {
		return q, fmt.Errorf("%w: remote_query requires a table name", models.ErrUnrecognizedCommand)
	}
	switch {
	case q.Limit == 0:
		q.Limit = DefaultQueryLimit
	case q.Limit < 1:
		q.Limit = 1
	case q.Limit > MaxQueryLimit:
		q.Limit = MaxQueryLimit
	}
	return q, nil
}
