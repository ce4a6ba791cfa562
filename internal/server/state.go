package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/opencitylabs/tripdash/internal/loader"
	"github.com/opencitylabs/tripdash/internal/trips"
)

// datasetState holds the current aggregate set. Loads replace the whole set
// atomically; readers always see either the previous or the new aggregates,
// never a partial recompute.
type datasetState struct {
	mu       sync.RWMutex
	agg      *trips.AggregateSet
	loadedAt time.Time

	loader *loader.Loader
	logger *log.Logger
}

func newDatasetState(l *loader.Loader) *datasetState {
	return &datasetState{
		agg:    trips.Aggregate(nil),
		loader: l,
		logger: log.New(log.Writer(), "[DATASET] ", log.LstdFlags),
	}
}

// Reload runs one full load cycle: fetch, sanitize, aggregate, swap.
func (s *datasetState) Reload(ctx context.Context) error {
	rows, err := s.loader.Load(ctx)
	if err != nil {
		datasetReloads.WithLabelValues("error").Inc()
		return err
	}
	records, rejected := trips.Clean(rows)
	agg := trips.Aggregate(records)

	rowsLoaded.Add(float64(len(records)))
	rowsRejected.Add(float64(rejected))
	datasetReloads.WithLabelValues("ok").Inc()
	s.logger.Printf("aggregated %d trips (%d rows rejected)", len(records), rejected)

	s.mu.Lock()
	s.agg = agg
	s.loadedAt = time.Now()
	s.mu.Unlock()
	return nil
}

// Aggregates returns the current aggregate set, which is read-only.
func (s *datasetState) Aggregates() *trips.AggregateSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agg
}

func (s *datasetState) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
