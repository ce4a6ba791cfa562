package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"
)

const refreshLockKey = "tripdash:refresh:lock"

// Refresher re-runs the full load cycle on a cron spec. There is no
// incremental path: every refresh recomputes all aggregates from scratch and
// swaps them in atomically. A Redis lock keeps replicated instances from
// hammering the dataset source together.
type Refresher struct {
	State    *datasetState
	Rdb      *redis.Client
	CronSpec string
	Stop     chan struct{}

	logger      *log.Logger
	lastRefresh time.Time
}

func (r *Refresher) Start() {
	r.logger = log.New(log.Writer(), "[REFRESH] ", log.LstdFlags)
	r.lastRefresh = time.Now()
	ticker := time.NewTicker(time.Minute)
	go func() {
		for {
			select {
			case <-r.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				r.tick()
			}
		}
	}()
}

func (r *Refresher) tick() {
	if !isDue(r.CronSpec, r.lastRefresh, time.Now()) {
		return
	}
	ctx := context.Background()
	if r.Rdb != nil {
		ok, _ := r.Rdb.SetNX(ctx, refreshLockKey, "1", 2*time.Minute).Result()
		if !ok {
			return
		}
		defer r.Rdb.Del(ctx, refreshLockKey)
	}
	r.lastRefresh = time.Now()
	if err := r.State.Reload(ctx); err != nil {
		// the previous aggregates stay in place; try again next cycle
		r.logger.Printf("refresh failed: %v", err)
		return
	}
	r.logger.Printf("dataset refreshed")
}

// isDue determines whether a refresh with the given cron spec is due.
// Supports "@daily", "@hourly", and standard 5-field cron expressions; an
// invalid expression falls back to @daily.
func isDue(cronSpec string, last, now time.Time) bool {
	switch cronSpec {
	case "@daily":
		return now.Sub(last) >= 24*time.Hour
	case "@hourly":
		return now.Sub(last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			return now.Sub(last) >= 24*time.Hour
		}
		return !expr.Next(last).After(now)
	}
}
