package trips

import (
	"fmt"
	"sort"
	"time"
)

// TopListSize caps ranked and listing views.
const TopListSize = 12

// Bucket is one labeled count in a distribution view.
type Bucket struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// DaySplit is a member/casual pair for one day of the week.
type DaySplit struct {
	Day    string `json:"day"`
	Member int    `json:"member"`
	Casual int    `json:"casual"`
}

// ListingRow is one row of the latest-trips view.
type ListingRow struct {
	RideID       string    `json:"ride_id"`
	StartedAt    time.Time `json:"started_at"`
	Minutes      float64   `json:"minutes"`
	MemberType   string    `json:"member_type"`
	RideableType string    `json:"rideable_type"`
	StartStation string    `json:"start_station"`
	EndStation   string    `json:"end_station"`
}

// AggregateSet holds every derived view over one clean record set. It is
// created whole by Aggregate and read-only afterwards; a reload recomputes
// the full set from scratch.
type AggregateSet struct {
	Hourly    [24]int
	ByWeekday [7]int
	DaySplits [7]DaySplit
	Monthly   []Bucket
	Durations []Bucket
	Rideables []Bucket
	Stations  []Bucket
	Routes    []Bucket
	Latest    []ListingRow

	Total          int
	Members        int
	Casuals        int
	MemberRatio    float64
	MeanDuration   float64
	PeakHour       string
	BusiestDay     string
	TopStationName string
}

var weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Duration histogram bins in minutes. Half-open except the last, which is
// closed at MaxTripMinutes so the bins partition the valid range exactly.
var durationBins = []struct {
	Lo, Hi float64
	Label  string
}{
	{0, 5, "0-5"},
	{5, 10, "5-10"},
	{10, 15, "10-15"},
	{15, 20, "15-20"},
	{20, 30, "20-30"},
	{30, 60, "30-60"},
	{60, 120, "60-120"},
	{120, MaxTripMinutes, "120-240"},
}

// HourLabel formats an hour-of-day bucket label ("00:00" ... "23:00").
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// mondayIndex maps Go's Sunday-first weekday onto Monday-first buckets.
func mondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// Aggregate reduces the clean record set into every dashboard view in a
// single pass plus per-view sorting. Empty input yields zero/empty views.
func Aggregate(records []TripRecord) *AggregateSet {
	agg := &AggregateSet{TopStationName: "n/a"}
	for i, day := range weekdays {
		agg.DaySplits[i].Day = day
	}

	monthly := map[string]int{}
	durations := make([]int, len(durationBins))
	rideables := newCounter()
	stations := newCounter()
	routes := newCounter()
	totalMinutes := 0.0

	for _, rec := range records {
		agg.Total++
		if rec.IsMember() {
			agg.Members++
		} else {
			agg.Casuals++
		}

		agg.Hourly[rec.StartedAt.Hour()]++
		di := mondayIndex(rec.StartedAt.Weekday())
		agg.ByWeekday[di]++
		if rec.IsMember() {
			agg.DaySplits[di].Member++
		} else {
			agg.DaySplits[di].Casual++
		}

		monthly[rec.StartedAt.Format("2006-01")]++

		minutes := rec.DurationMinutes()
		totalMinutes += minutes
		durations[durationBin(minutes)]++

		rideables.add(rec.RideableType)
		stations.add(rec.StartStation)
		routes.add(rec.StartStation + " → " + rec.EndStation)
	}

	agg.Monthly = monthlyBuckets(monthly)
	agg.Durations = make([]Bucket, len(durationBins))
	for i, bin := range durationBins {
		agg.Durations[i] = Bucket{Label: bin.Label, Value: float64(durations[i])}
	}
	agg.Rideables = rideables.rankedDesc(0)
	agg.Stations = stations.rankedDesc(TopListSize)
	agg.Routes = routes.rankedDesc(TopListSize)
	agg.Latest = latestRows(records)

	if agg.Total > 0 {
		agg.MemberRatio = 100 * float64(agg.Members) / float64(agg.Total)
		agg.MeanDuration = totalMinutes / float64(agg.Total)
	}
	agg.PeakHour = HourLabel(firstMax(agg.Hourly[:]))
	agg.BusiestDay = weekdays[firstMax(agg.ByWeekday[:])]
	if len(agg.Stations) > 0 {
		agg.TopStationName = agg.Stations[0].Label
	}
	return agg
}

// durationBin returns the index of the first bin whose range contains the
// value. Callers guarantee 0 < minutes <= MaxTripMinutes.
func durationBin(minutes float64) int {
	for i := range durationBins[:len(durationBins)-1] {
		if minutes < durationBins[i].Hi {
			return i
		}
	}
	return len(durationBins) - 1
}

func monthlyBuckets(counts map[string]int) []Bucket {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	// lexicographic order is chronological for YYYY-MM keys
	sort.Strings(keys)
	buckets := make([]Bucket, len(keys))
	for i, k := range keys {
		buckets[i] = Bucket{Label: k, Value: float64(counts[k])}
	}
	return buckets
}

// counter counts group keys while remembering first-encountered order, which
// is the documented tie-break for ranked views.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// rankedDesc returns buckets sorted descending by count, ties kept in
// first-encountered order. limit <= 0 means no truncation.
func (c *counter) rankedDesc(limit int) []Bucket {
	buckets := make([]Bucket, len(c.order))
	for i, key := range c.order {
		buckets[i] = Bucket{Label: key, Value: float64(c.counts[key])}
	}
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Value > buckets[j].Value })
	if limit > 0 && len(buckets) > limit {
		buckets = buckets[:limit]
	}
	return buckets
}

func latestRows(records []TripRecord) []ListingRow {
	sorted := make([]TripRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartedAt.After(sorted[j].StartedAt) })
	if len(sorted) > TopListSize {
		sorted = sorted[:TopListSize]
	}
	rows := make([]ListingRow, len(sorted))
	for i, rec := range sorted {
		rows[i] = ListingRow{
			RideID:       rec.RideID,
			StartedAt:    rec.StartedAt,
			Minutes:      rec.DurationMinutes(),
			MemberType:   rec.MemberType,
			RideableType: rec.RideableType,
			StartStation: rec.StartStation,
			EndStation:   rec.EndStation,
		}
	}
	return rows
}

// firstMax returns the index of the maximum value; the first index wins ties.
func firstMax(values []int) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
