package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"general": {"listen": ":9000"},
		"dataset": {"source": "/data/trips.csv", "refresh_cron": "@daily"},
		"databases": {"postgres": {"host": "db", "dbname": "rides"}}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.General.Listen != ":9000" || cfg.Dataset.Source != "/data/trips.csv" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Providers.OpenAI.CompletionModel != "gpt-4o-mini" {
		t.Fatalf("model default not applied: %q", cfg.Providers.OpenAI.CompletionModel)
	}
}

func TestLoadConfigRequiresDatasetSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"general": {}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for missing dataset.source")
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", User: "u", Password: "p", DBName: "rides"}
	dsn, err := p.DSN()
	if err != nil {
		t.Fatalf("DSN: %v", err)
	}
	want := "postgres://u:p@db:5432/rides?sslmode=disable"
	if dsn != want {
		t.Fatalf("dsn: got %q want %q", dsn, want)
	}

	p = PostgresConfig{URL: "postgres://x"}
	if dsn, _ := p.DSN(); dsn != "postgres://x" {
		t.Fatalf("url should win: %q", dsn)
	}

	if _, err := (PostgresConfig{Host: "db"}).DSN(); err == nil {
		t.Fatalf("missing dbname should error")
	}
}
