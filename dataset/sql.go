package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

const (
	// DriverSQLite selects modernc.org/sqlite.
	DriverSQLite = "sqlite"
	// DriverPostgres selects the pgx stdlib driver.
	DriverPostgres = "pgx"

	defaultTable = "penguins"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLSource reads the dataset from a table through database/sql.
// Column names follow the CSV header names; extra columns are ignored.
type SQLSource struct {
	Driver string // DriverSQLite or DriverPostgres
	DSN    string
	Table  string // default "penguins"
}

func (s SQLSource) Name() string { return fmt.Sprintf("%s:%s", s.Driver, s.table()) }

func (s SQLSource) table() string {
	if s.Table == "" {
		return defaultTable
	}
	return s.Table
}

func (s SQLSource) Load(ctx context.Context) (*Dataset, error) {
	switch s.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", s.Driver)
	}
	if !identRe.MatchString(s.table()) {
		return nil, fmt.Errorf("invalid table name %q", s.table())
	}

	db, err := sql.Open(s.Driver, s.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Driver, err)
	}
	defer func() { _ = db.Close() }()

	return LoadTable(ctx, db, s.table())
}

// LoadTable reads every row of table from an open database, in the order the
// database returns them.
func LoadTable(ctx context.Context, db *sql.DB, table string) (*Dataset, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c] = i
	}
	if err := checkRequired(func(key string) bool { _, ok := index[key]; return ok }); err != nil {
		return nil, err
	}

	var records []Record
	cells := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rec, err := recordFromFields(func(key string) string {
			i, ok := index[key]
			if !ok || !cells[i].Valid {
				return ""
			}
			return cells[i].String
		})
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return New(records), nil
}
