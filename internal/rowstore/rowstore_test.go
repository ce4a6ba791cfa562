package rowstore

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/opencitylabs/tripdash/models"
)

func TestQueryBuildsParameterizedSelect(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	exec := &Executor{DB: db}
	mock.ExpectQuery(`SELECT station, trips FROM station_counts WHERE member_type = \$1 AND trips >= \$2 ORDER BY trips DESC LIMIT \$3`).
		WithArgs("member", "10", 25).
		WillReturnRows(sqlmock.NewRows([]string{"station", "trips"}).
			AddRow("Central", int64(42)).
			AddRow("Harbor", int64(31)))

	table, err := exec.Query(context.Background(), models.QueryDescriptor{
		Table:   "station_counts",
		Columns: []string{"station", "trips"},
		Filters: []models.Filter{
			{Column: "member_type", Operator: "eq", Value: "member"},
			{Column: "trips", Operator: "gte", Value: "10"},
		},
		OrderBy: &models.OrderBy{Column: "trips", Ascending: false},
		Limit:   25,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(table.Columns) != 2 || len(table.Rows) != 2 {
		t.Fatalf("unexpected table shape: %+v", table)
	}
	if table.Rows[0][0] != "Central" || table.Rows[0][1] != "42" {
		t.Fatalf("unexpected first row: %v", table.Rows[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestQuerySelectStarDefault(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	exec := &Executor{DB: db}
	mock.ExpectQuery(`SELECT \* FROM trips LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"ride_id"}).AddRow([]byte("abc")))

	table, err := exec.Query(context.Background(), models.QueryDescriptor{Table: "trips", Limit: 10})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if table.Rows[0][0] != "abc" {
		t.Fatalf("byte values should render as text: %v", table.Rows[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestQueryNullRendersEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	exec := &Executor{DB: db}
	mock.ExpectQuery(`SELECT \* FROM trips LIMIT \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"end_station"}).AddRow(nil))

	table, err := exec.Query(context.Background(), models.QueryDescriptor{Table: "trips", Limit: 1})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if table.Rows[0][0] != "" {
		t.Fatalf("NULL should render empty, got %q", table.Rows[0][0])
	}
}

func TestQueryRejectsInvalidIdentifiers(t *testing.T) {
	exec := &Executor{}
	cases := []models.QueryDescriptor{
		{Table: "trips; DROP TABLE trips", Limit: 1},
		{Table: "trips", Columns: []string{"ride_id, secret"}, Limit: 1},
		{Table: "trips", Filters: []models.Filter{{Column: "1=1 --", Operator: "eq", Value: "x"}}, Limit: 1},
		{Table: "trips", OrderBy: &models.OrderBy{Column: "trips)"}, Limit: 1},
	}
	for i, q := range cases {
		if _, err := exec.Query(context.Background(), q); err == nil {
			t.Fatalf("case %d: expected identifier validation error", i)
		}
	}
}

func TestQueryRejectsUnknownOperator(t *testing.T) {
	exec := &Executor{}
	_, err := exec.Query(context.Background(), models.QueryDescriptor{
		Table:   "trips",
		Filters: []models.Filter{{Column: "trips", Operator: "regex", Value: ".*"}},
		Limit:   1,
	})
	if err == nil {
		t.Fatalf("expected unsupported operator error")
	}
}
