package trips

import (
	"strings"
	"time"
)

// RawRecord is one untyped row from the dataset export, column name to value.
type RawRecord map[string]string

// TripRecord is a trip that passed sanitization. Never mutated after creation.
type TripRecord struct {
	RideID       string
	StartedAt    time.Time
	EndedAt      time.Time
	MemberType   string
	RideableType string
	StartStation string
	EndStation   string
}

// DurationMinutes is the trip length in minutes, derived from the timestamps.
func (t TripRecord) DurationMinutes() float64 {
	return t.EndedAt.Sub(t.StartedAt).Minutes()
}

// IsMember reports whether the rider is an annual member. Anything that is
// not a case-insensitive match for "member" counts as casual.
func (t TripRecord) IsMember() bool {
	return strings.EqualFold(t.MemberType, "member")
}

// MaxTripMinutes is the longest trip admitted into the working set. The
// source exports contain sentinel rows (dock malfunctions, unreturned bikes)
// well past any real ride length.
const MaxTripMinutes = 240

// Timestamp layouts seen in bike-share exports, tried in order.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	time.RFC3339,
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Sanitize validates and normalizes one raw row. The second return value is
// false when the row is rejected; rejection is expected noise in the source
// data and is never surfaced as an error.
func Sanitize(raw RawRecord) (TripRecord, bool) {
	rideID := strings.TrimSpace(raw["ride_id"])
	if rideID == "" {
		return TripRecord{}, false
	}
	startedAt, ok := parseTime(raw["started_at"])
	if !ok {
		return TripRecord{}, false
	}
	endedAt, ok := parseTime(raw["ended_at"])
	if !ok {
		return TripRecord{}, false
	}
	minutes := endedAt.Sub(startedAt).Minutes()
	if minutes <= 0 || minutes > MaxTripMinutes {
		return TripRecord{}, false
	}

	memberType := "casual"
	if strings.EqualFold(strings.TrimSpace(raw["member_casual"]), "member") {
		memberType = "member"
	}

	return TripRecord{
		RideID:       rideID,
		StartedAt:    startedAt,
		EndedAt:      endedAt,
		MemberType:   memberType,
		RideableType: defaulted(raw["rideable_type"], "unknown"),
		StartStation: defaulted(raw["start_station_name"], "Unknown"),
		EndStation:   defaulted(raw["end_station_name"], "Unknown"),
	}, true
}

// Clean runs every raw row through Sanitize, dropping rejects silently, and
// reports how many rows were rejected.
func Clean(rows []RawRecord) ([]TripRecord, int) {
	records := make([]TripRecord, 0, len(rows))
	rejected := 0
	for _, row := range rows {
		rec, ok := Sanitize(row)
		if !ok {
			rejected++
			continue
		}
		records = append(records, rec)
	}
	return records, rejected
}

func defaulted(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}
