package rowstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/opencitylabs/tripdash/models"
)

// Executor runs declarative read queries against a Postgres row store. It
// owns no schema; the tables it reads belong to whoever exports them.
type Executor struct {
	DB *sql.DB
}

// NewWithDSN opens and pings a Postgres connection.
func NewWithDSN(ctx context.Context, dsn string) (*Executor, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open row store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping row store: %w", err)
	}
	return &Executor{DB: db}, nil
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// operators maps the descriptor spellings onto SQL. Both the word forms the
// agent tends to emit and the symbolic forms are accepted.
var operators = map[string]string{
	"eq": "=", "=": "=",
	"neq": "<>", "!=": "<>", "<>": "<>",
	"gt": ">", ">": ">",
	"gte": ">=", ">=": ">=",
	"lt": "<", "<": "<",
	"lte": "<=", "<=": "<=",
	"like": "LIKE", "LIKE": "LIKE",
}

// Query translates the descriptor into a parameterized SELECT and returns
// the result as a table. The descriptor arrives pre-normalized by the
// router (table present, limit clamped); identifiers and operators are
// validated here because they are spliced into the statement text.
func (e *Executor) Query(ctx context.Context, q models.QueryDescriptor) (*models.TableData, error) {
	stmt, args, err := buildSelect(q)
	if err != nil {
		return nil, err
	}
	rows, err := e.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	table := &models.TableData{Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return table, nil
}

func buildSelect(q models.QueryDescriptor) (string, []interface{}, error) {
	if err := validIdent(q.Table); err != nil {
		return "", nil, err
	}
	projection := "*"
	if len(q.Columns) > 0 {
		for _, col := range q.Columns {
			if err := validIdent(col); err != nil {
				return "", nil, err
			}
		}
		projection = strings.Join(q.Columns, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", projection, q.Table)

	var args []interface{}
	if len(q.Filters) > 0 {
		clauses := make([]string, len(q.Filters))
		for i, f := range q.Filters {
			if err := validIdent(f.Column); err != nil {
				return "", nil, err
			}
			op, ok := operators[f.Operator]
			if !ok {
				return "", nil, fmt.Errorf("unsupported filter operator %q", f.Operator)
			}
			args = append(args, f.Value)
			clauses[i] = fmt.Sprintf("%s %s $%d", f.Column, op, len(args))
		}
		b.WriteString(" WHERE " + strings.Join(clauses, " AND "))
	}

	if q.OrderBy != nil {
		if err := validIdent(q.OrderBy.Column); err != nil {
			return "", nil, err
		}
		direction := "DESC"
		if q.OrderBy.Ascending {
			direction = "ASC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", q.OrderBy.Column, direction)
	}

	args = append(args, q.Limit)
	fmt.Fprintf(&b, " LIMIT $%d", len(args))
	return b.String(), args, nil
}

func validIdent(s string) error {
	if !identPattern.MatchString(s) {
		return fmt.Errorf("invalid identifier %q", s)
	}
	return nil
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", val)
	}
}
