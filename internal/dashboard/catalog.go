package dashboard

import (
	"fmt"

	"github.com/opencitylabs/tripdash/internal/trips"
	"github.com/opencitylabs/tripdash/models"
)

// WidgetDefinition is one static catalog entry. Definitions are fixed at
// process start and never created or destroyed at runtime.
type WidgetDefinition struct {
	ID    string
	Kind  string
	Title string
	Build func(*trips.AggregateSet) models.Payload
}

// Catalog is the fixed, ordered widget registry.
type Catalog struct {
	defs []WidgetDefinition
}

// NewCatalog returns the built-in widget catalog.
func NewCatalog() *Catalog {
	return &Catalog{defs: []WidgetDefinition{
		{ID: "trips_by_hour", Kind: models.KindChart, Title: "Trips by Hour", Build: buildHourly},
		{ID: "trips_by_weekday", Kind: models.KindChart, Title: "Trips by Day of Week", Build: buildWeekday},
		{ID: "member_casual_split", Kind: models.KindChart, Title: "Members vs Casual Riders", Build: buildDaySplit},
		{ID: "monthly_volume", Kind: models.KindChart, Title: "Monthly Trip Volume", Build: buildMonthly},
		{ID: "duration_histogram", Kind: models.KindChart, Title: "Trip Duration Distribution", Build: buildDurations},
		{ID: "rideable_types", Kind: models.KindChart, Title: "Rides by Bike Type", Build: buildRideables},
		{ID: "top_stations", Kind: models.KindTable, Title: "Top Start Stations", Build: buildStations},
		{ID: "top_routes", Kind: models.KindTable, Title: "Top Routes", Build: buildRoutes},
		{ID: "latest_trips", Kind: models.KindTable, Title: "Latest Trips", Build: buildLatest},
		{ID: "summary", Kind: models.KindTable, Title: "Dataset Summary", Build: buildSummary},
	}}
}

// Menu enumerates every definition in catalog order.
func (c *Catalog) Menu() []models.MenuEntry {
	menu := make([]models.MenuEntry, len(c.defs))
	for i, d := range c.defs {
		menu[i] = models.MenuEntry{ID: d.ID, Kind: d.Kind, Title: d.Title}
	}
	return menu
}

// Lookup finds a definition by id. An unknown id is a normal, reportable
// condition, never a crash.
func (c *Catalog) Lookup(id string) (WidgetDefinition, bool) {
	for _, d := range c.defs {
		if d.ID == id {
			return d, true
		}
	}
	return WidgetDefinition{}, false
}

// Build renders the named widget against the given aggregate set.
func (c *Catalog) Build(id string, agg *trips.AggregateSet) (WidgetDefinition, models.Payload, error) {
	def, ok := c.Lookup(id)
	if !ok {
		return WidgetDefinition{}, models.Payload{}, fmt.Errorf("%w: %q", models.ErrWidgetNotFound, id)
	}
	return def, def.Build(agg), nil
}

func chartPayload(labels []string, series ...models.Series) models.Payload {
	return models.Payload{Kind: models.KindChart, Chart: &models.ChartData{Labels: labels, Series: series}}
}

func tablePayload(columns []string, rows [][]string) models.Payload {
	return models.Payload{Kind: models.KindTable, Table: &models.TableData{Columns: columns, Rows: rows}}
}

func bucketChart(name string, buckets []trips.Bucket) models.Payload {
	labels := make([]string, len(buckets))
	data := make([]float64, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Label
		data[i] = b.Value
	}
	return chartPayload(labels, models.Series{Name: name, Data: data})
}

func bucketTable(valueColumn string, buckets []trips.Bucket) models.Payload {
	rows := make([][]string, len(buckets))
	for i, b := range buckets {
		rows[i] = []string{b.Label, fmt.Sprintf("%.0f", b.Value)}
	}
	return tablePayload([]string{valueColumn, "Trips"}, rows)
}

func buildHourly(agg *trips.AggregateSet) models.Payload {
	labels := make([]string, len(agg.Hourly))
	data := make([]float64, len(agg.Hourly))
	for h, v := range agg.Hourly {
		labels[h] = trips.HourLabel(h)
		data[h] = float64(v)
	}
	return chartPayload(labels, models.Series{Name: "Trips", Data: data})
}

func buildWeekday(agg *trips.AggregateSet) models.Payload {
	labels := make([]string, len(agg.DaySplits))
	data := make([]float64, len(agg.ByWeekday))
	for i, v := range agg.ByWeekday {
		labels[i] = agg.DaySplits[i].Day
		data[i] = float64(v)
	}
	return chartPayload(labels, models.Series{Name: "Trips", Data: data})
}

func buildDaySplit(agg *trips.AggregateSet) models.Payload {
	labels := make([]string, len(agg.DaySplits))
	member := make([]float64, len(agg.DaySplits))
	casual := make([]float64, len(agg.DaySplits))
	for i, s := range agg.DaySplits {
		labels[i] = s.Day
		member[i] = float64(s.Member)
		casual[i] = float64(s.Casual)
	}
	return chartPayload(labels,
		models.Series{Name: "Member", Data: member},
		models.Series{Name: "Casual", Data: casual},
	)
}

func buildMonthly(agg *trips.AggregateSet) models.Payload {
	return bucketChart("Trips", agg.Monthly)
}

func buildDurations(agg *trips.AggregateSet) models.Payload {
	return bucketChart("Trips", agg.Durations)
}

func buildRideables(agg *trips.AggregateSet) models.Payload {
	return bucketChart("Trips", agg.Rideables)
}

func buildStations(agg *trips.AggregateSet) models.Payload {
	return bucketTable("Station", agg.Stations)
}

func buildRoutes(agg *trips.AggregateSet) models.Payload {
	return bucketTable("Route", agg.Routes)
}

func buildLatest(agg *trips.AggregateSet) models.Payload {
	rows := make([][]string, len(agg.Latest))
	for i, r := range agg.Latest {
		rows[i] = []string{
			r.StartedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.1f min", r.Minutes),
			r.MemberType,
			r.RideableType,
			r.StartStation,
			r.EndStation,
		}
	}
	return tablePayload([]string{"Started", "Duration", "Rider", "Bike", "From", "To"}, rows)
}

func buildSummary(agg *trips.AggregateSet) models.Payload {
	rows := [][]string{
		{"Total trips", fmt.Sprintf("%d", agg.Total)},
		{"Member trips", fmt.Sprintf("%d", agg.Members)},
		{"Casual trips", fmt.Sprintf("%d", agg.Casuals)},
		{"Member share", fmt.Sprintf("%.1f%%", agg.MemberRatio)},
		{"Mean duration", fmt.Sprintf("%.1f min", agg.MeanDuration)},
		{"Peak hour", agg.PeakHour},
		{"Busiest day", agg.BusiestDay},
		{"Top station", agg.TopStationName},
	}
	return tablePayload([]string{"Metric", "Value"}, rows)
}
