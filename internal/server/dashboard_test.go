package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/opencitylabs/tripdash/internal/dashboard"
	"github.com/opencitylabs/tripdash/internal/trips"
	"github.com/opencitylabs/tripdash/models"
)

type stubExecutor struct {
	table *models.TableData
	err   error
}

func (s *stubExecutor) Query(context.Context, models.QueryDescriptor) (*models.TableData, error) {
	return s.table, s.err
}

func fixtureRecords() []trips.TripRecord {
	start := time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)
	var records []trips.TripRecord
	for i := 0; i < 10; i++ {
		records = append(records, trips.TripRecord{
			RideID:       "r",
			StartedAt:    start,
			EndedAt:      start.Add(20 * time.Minute),
			MemberType:   "member",
			RideableType: "classic_bike",
			StartStation: "Central",
			EndStation:   "Harbor",
		})
	}
	return records
}

func testHandler(exec dashboard.QueryExecutor) *DashboardHandler {
	state := &datasetState{
		agg:    trips.Aggregate(fixtureRecords()),
		logger: log.New(log.Writer(), "[DATASET] ", log.LstdFlags),
	}
	router := &dashboard.Router{
		Catalog:    dashboard.NewCatalog(),
		Store:      dashboard.NewStore(),
		Exec:       exec,
		Aggregates: state.Aggregates,
	}
	return &DashboardHandler{Router: router, State: state}
}

func jsonContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestMenuEnumeratesCatalog(t *testing.T) {
	e := echo.New()
	h := testHandler(nil)
	ctx, rec := jsonContext(e, http.MethodGet, "/api/menu", "")

	if err := h.menu(ctx); err != nil {
		t.Fatalf("menu: %v", err)
	}
	var menu []models.MenuEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &menu); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(menu) != len(h.Router.Catalog.Menu()) {
		t.Fatalf("menu length %d, want %d", len(menu), len(h.Router.Catalog.Menu()))
	}
}

func TestStats(t *testing.T) {
	e := echo.New()
	h := testHandler(nil)
	ctx, rec := jsonContext(e, http.MethodGet, "/api/stats", "")

	if err := h.stats(ctx); err != nil {
		t.Fatalf("stats: %v", err)
	}
	var resp StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalTrips != 10 || resp.MemberRatio != 100 || resp.PeakHour != "08:00" {
		t.Fatalf("unexpected stats: %+v", resp)
	}
}

func TestAddWidgetThenList(t *testing.T) {
	e := echo.New()
	h := testHandler(nil)

	ctx, rec := jsonContext(e, http.MethodPost, "/api/widgets", `{"widget_id":"trips_by_hour"}`)
	if err := h.add(ctx); err != nil {
		t.Fatalf("add: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	ctx, rec = jsonContext(e, http.MethodGet, "/api/widgets", "")
	if err := h.list(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	var list []models.WidgetInstance
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Trips by Hour" || list[0].Provenance != models.ProvenanceLocal {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestAddUnknownWidget(t *testing.T) {
	e := echo.New()
	h := testHandler(nil)

	ctx, _ := jsonContext(e, http.MethodPost, "/api/widgets", `{"widget_id":"bogus"}`)
	err := h.add(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %#v", err)
	}
	if h.Router.Store.Len() != 0 {
		t.Fatalf("failed add must not pin anything")
	}
}

func TestPreviewDoesNotPin(t *testing.T) {
	e := echo.New()
	h := testHandler(nil)

	ctx, rec := jsonContext(e, http.MethodGet, "/api/widgets/summary/preview", "")
	ctx.SetParamNames("id")
	ctx.SetParamValues("summary")
	if err := h.preview(ctx); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if h.Router.Store.Len() != 0 {
		t.Fatalf("preview must not pin")
	}
}

func TestRemoveAndClear(t *testing.T) {
	e := echo.New()
	h := testHandler(nil)
	id := h.Router.Store.Create(models.KindChart, "w", models.Payload{Kind: models.KindChart}, models.ProvenanceLocal)

	ctx, _ := jsonContext(e, http.MethodDelete, "/api/widgets/"+id, "")
	ctx.SetParamNames("id")
	ctx.SetParamValues(id)
	if err := h.remove(ctx); err != nil {
		t.Fatalf("remove: %v", err)
	}

	ctx, _ = jsonContext(e, http.MethodDelete, "/api/widgets/"+id, "")
	ctx.SetParamNames("id")
	ctx.SetParamValues(id)
	if err := h.remove(ctx); err == nil {
		t.Fatalf("removing absent id should 404")
	}

	h.Router.Store.Create(models.KindChart, "w", models.Payload{Kind: models.KindChart}, models.ProvenanceLocal)
	ctx, rec := jsonContext(e, http.MethodDelete, "/api/widgets", "")
	if err := h.clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if rec.Code != http.StatusNoContent || h.Router.Store.Len() != 0 {
		t.Fatalf("clear should empty the store")
	}
}

func TestQueryEndpoint(t *testing.T) {
	e := echo.New()
	h := testHandler(&stubExecutor{table: &models.TableData{
		Columns: []string{"station"},
		Rows:    [][]string{{"Central"}},
	}})

	ctx, rec := jsonContext(e, http.MethodPost, "/api/query", `{"query":{"table":"trips"},"pin":true}`)
	if err := h.query(ctx); err != nil {
		t.Fatalf("query: %v", err)
	}
	var view dashboard.WidgetView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !view.Pinned || view.Provenance != models.ProvenanceRemote {
		t.Fatalf("unexpected view: %+v", view)
	}
	if h.Router.Store.Len() != 1 {
		t.Fatalf("pinned query should create an instance")
	}
}

func TestQueryEndpointExecutorFailure(t *testing.T) {
	e := echo.New()
	h := testHandler(&stubExecutor{err: errors.New("connection refused")})

	ctx, _ := jsonContext(e, http.MethodPost, "/api/query", `{"query":{"table":"trips"}}`)
	err := h.query(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %#v", err)
	}
	if h.Router.Store.Len() != 0 {
		t.Fatalf("failed query must not pin")
	}
}

func TestQueryEndpointMissingTable(t *testing.T) {
	e := echo.New()
	h := testHandler(&stubExecutor{})

	ctx, _ := jsonContext(e, http.MethodPost, "/api/query", `{"query":{}}`)
	err := h.query(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %#v", err)
	}
}
