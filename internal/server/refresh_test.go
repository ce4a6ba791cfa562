package server

import (
	"testing"
	"time"
)

func TestIsDueShortcuts(t *testing.T) {
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

	if isDue("@daily", now.Add(-23*time.Hour), now) {
		t.Fatalf("@daily should not be due after 23h")
	}
	if !isDue("@daily", now.Add(-25*time.Hour), now) {
		t.Fatalf("@daily should be due after 25h")
	}
	if isDue("@hourly", now.Add(-30*time.Minute), now) {
		t.Fatalf("@hourly should not be due after 30m")
	}
	if !isDue("@hourly", now.Add(-90*time.Minute), now) {
		t.Fatalf("@hourly should be due after 90m")
	}
}

func TestIsDueCronExpression(t *testing.T) {
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

	// every day at 06:00; last run yesterday evening
	if !isDue("0 6 * * *", now.Add(-18*time.Hour), now) {
		t.Fatalf("06:00 run should be due by noon")
	}
	// last run this morning after 06:00
	if isDue("0 6 * * *", now.Add(-2*time.Hour), now) {
		t.Fatalf("06:00 run already happened today")
	}
}

func TestIsDueInvalidExpressionFallsBackToDaily(t *testing.T) {
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	if isDue("not a cron", now.Add(-1*time.Hour), now) {
		t.Fatalf("invalid spec should behave like @daily")
	}
	if !isDue("not a cron", now.Add(-25*time.Hour), now) {
		t.Fatalf("invalid spec should behave like @daily")
	}
}
