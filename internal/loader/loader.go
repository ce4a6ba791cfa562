package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opencitylabs/tripdash/internal/trips"
)

const snapshotKey = "tripdash:dataset:snapshot"

// Loader fetches the raw trip export once per load cycle and parses it into
// row records. The concrete encoding (CSV with a header row) is owned here;
// the core only ever sees column→value mappings.
type Loader struct {
	Source   string // http(s) URL or local file path
	HTTP     *http.Client
	Rdb      *redis.Client // optional: last-good snapshot cache
	CacheTTL time.Duration
	Logger   *log.Logger
}

func New(source string, rdb *redis.Client, cacheTTL time.Duration) *Loader {
	return &Loader{
		Source:   source,
		HTTP:     &http.Client{Timeout: 2 * time.Minute},
		Rdb:      rdb,
		CacheTTL: cacheTTL,
		Logger:   log.New(log.Writer(), "[LOADER] ", log.LstdFlags),
	}
}

// Load fetches and parses the dataset. A missing or empty dataset is a load
// failure surfaced to the caller; when the source is unreachable and Redis
// holds a previous snapshot, the snapshot is served instead.
func (l *Loader) Load(ctx context.Context) ([]trips.RawRecord, error) {
	raw, err := l.fetch(ctx)
	if err != nil {
		if cached, ok := l.snapshot(ctx); ok {
			l.Logger.Printf("source fetch failed (%v), serving cached snapshot", err)
			raw = cached
		} else {
			return nil, err
		}
	} else {
		l.cacheSnapshot(ctx, raw)
	}

	rows, err := parseCSV(raw)
	if err != nil {
		return nil, err
	}
	l.Logger.Printf("loaded %d raw rows from %s", len(rows), l.Source)
	return rows, nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	if strings.HasPrefix(l.Source, "http://") || strings.HasPrefix(l.Source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.Source, nil)
		if err != nil {
			return nil, fmt.Errorf("build dataset request: %w", err)
		}
		resp, err := l.HTTP.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch dataset: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch dataset: status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
	data, err := os.ReadFile(l.Source)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return data, nil
}

func (l *Loader) snapshot(ctx context.Context) ([]byte, bool) {
	if l.Rdb == nil {
		return nil, false
	}
	data, err := l.Rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (l *Loader) cacheSnapshot(ctx context.Context, data []byte) {
	if l.Rdb == nil {
		return
	}
	if err := l.Rdb.Set(ctx, snapshotKey, data, l.CacheTTL).Err(); err != nil {
		l.Logger.Printf("snapshot cache write failed: %v", err)
	}
}

// parseCSV decodes a header-first CSV export into row records. Short rows
// are padded implicitly by the column zip; an export without data rows is a
// load failure, not an empty dashboard.
func parseCSV(data []byte) ([]trips.RawRecord, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("dataset is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("parse dataset header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []trips.RawRecord
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse dataset row %d: %w", len(rows)+2, err)
		}
		row := make(trips.RawRecord, len(header))
		for i, name := range header {
			if i < len(fields) {
				row[name] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset has no data rows")
	}
	return rows, nil
}
