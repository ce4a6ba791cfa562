package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/opencitylabs/tripdash/config"
	"github.com/opencitylabs/tripdash/internal/dashboard"
	"github.com/opencitylabs/tripdash/internal/loader"
	"github.com/opencitylabs/tripdash/internal/rowstore"
	"github.com/opencitylabs/tripdash/provider"
)

func Run(cfg *appconfig.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	// shared dependencies (top-level DI)
	var rdb *redis.Client
	if cfg.Databases.Redis.Configured() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Databases.Redis.Addr(),
			Password: cfg.Databases.Redis.Password,
			DB:       cfg.Databases.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s): %w", cfg.Databases.Redis.Addr(), err)
		}
	}

	// the one-shot load: a missing or empty dataset is a blocking error
	state := newDatasetState(loader.New(cfg.Dataset.Source, rdb, cfg.Dataset.SnapshotTTL))
	if err := state.Reload(ctx); err != nil {
		return fmt.Errorf("dataset load failed: %w", err)
	}

	// remote row store is optional; queries report unavailability without it
	var exec dashboard.QueryExecutor
	if cfg.Databases.Postgres.Configured() {
		dsn, err := cfg.Databases.Postgres.DSN()
		if err != nil {
			return err
		}
		rs, err := rowstore.NewWithDSN(ctx, dsn)
		if err != nil {
			return err
		}
		exec = rs
	}

	router := &dashboard.Router{
		Catalog:    dashboard.NewCatalog(),
		Store:      dashboard.NewStore(),
		Exec:       exec,
		Aggregates: state.Aggregates,
	}

	// LLM-backed command source; chat stays disabled without an API key
	var llm provider.Provider
	if cfg.Providers.OpenAI.APIKey != "" {
		var err error
		llm, err = provider.NewProvider(cfg.Providers.OpenAI)
		if err != nil {
			return err
		}
	}

	api := e.Group("/api")
	dh := &DashboardHandler{Router: router, State: state}
	dh.Register(api)
	ch := &ChatHandler{LLM: llm, Router: router}
	ch.Register(api)

	if cfg.Dataset.RefreshCron != "" {
		ref := &Refresher{State: state, Rdb: rdb, CronSpec: cfg.Dataset.RefreshCron, Stop: make(chan struct{})}
		ref.Start()
	}

	addr := cfg.General.Listen
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}
	if addr == "" {
		addr = ":10040"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
