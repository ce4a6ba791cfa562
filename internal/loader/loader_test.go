package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const sampleCSV = `ride_id,rideable_type,started_at,ended_at,start_station_name,end_station_name,member_casual
r1,classic_bike,2024-05-01 08:00:00,2024-05-01 08:30:00,Central,Harbor,member
r2,electric_bike,2024-05-01 09:00:00,2024-05-01 09:10:00,Harbor,Central,casual
`

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	l := New(path, nil, 0)
	rows, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["ride_id"] != "r1" || rows[1]["member_casual"] != "casual" {
		t.Fatalf("unexpected row mapping: %+v", rows)
	}
}

func TestLoadFromHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	l := New(srv.URL, nil, 0)
	rows, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestLoadHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	l := New(srv.URL, nil, 0)
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatalf("expected error for 404 source")
	}
}

func TestLoadMissingFile(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "absent.csv"), nil, 0)
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatalf("expected error for missing dataset")
	}
}

func TestLoadEmptyDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	l := New(path, nil, 0)
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatalf("empty dataset should be a load failure")
	}
}

func TestLoadHeaderOnlyDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "header.csv")
	if err := os.WriteFile(path, []byte("ride_id,started_at,ended_at\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	l := New(path, nil, 0)
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatalf("header-only dataset should be a load failure")
	}
}

func TestParseCSVShortRows(t *testing.T) {
	rows, err := parseCSV([]byte("a,b,c\n1,2\n"))
	if err != nil {
		t.Fatalf("parseCSV: %v", err)
	}
	if rows[0]["a"] != "1" || rows[0]["b"] != "2" {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
	if _, ok := rows[0]["c"]; ok {
		t.Fatalf("missing trailing field should stay absent")
	}
}
