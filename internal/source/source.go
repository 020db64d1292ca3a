// Package source loads raw zone-reading tables from the warehouse database.
// Uploaded files are handled by the upload subpackage.
package source

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/deng0529/GUItest-building-heating/internal/dataset"
)

//go:embed sql/find-table.sql
var findTableSQL string

//go:embed sql/list-tables.sql
var listTablesSQL string

// Source is the data-source handle injected into the pipeline.
type Source interface {
	// FetchTable returns every row of the named table in storage order.
	// Unknown tables fail with dataset.ErrTableNotFound and an unreachable
	// store with dataset.ErrConnectionFailure.
	FetchTable(ctx context.Context, name string) (*dataset.Dataset, error)
	// Tables lists the tables that can be fetched.
	Tables(ctx context.Context) ([]string, error)
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type warehouseImpl struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWarehouse returns a Source reading tables from a SQLite database.
func NewWarehouse(db *sql.DB, logger *slog.Logger) Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &warehouseImpl{db: db, logger: logger}
}

func (w *warehouseImpl) Tables(ctx context.Context) ([]string, error) {
	rows, err := w.db.QueryContext(ctx, listTablesSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: list tables: %v", dataset.ErrConnectionFailure, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			w.logger.Error("close table list rows", "error", err)
		}
	}()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (w *warehouseImpl) FetchTable(ctx context.Context, name string) (*dataset.Dataset, error) {
	name = strings.TrimSpace(name)
	if !identifierRe.MatchString(name) {
		return nil, fmt.Errorf("%w: %q is not a valid table name", dataset.ErrTableNotFound, name)
	}

	var stored string
	err := w.db.QueryRowContext(ctx, findTableSQL, name).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: %s", dataset.ErrTableNotFound, name)
	case err != nil:
		return nil, fmt.Errorf("%w: lookup %s: %v", dataset.ErrConnectionFailure, name, err)
	}

	start := time.Now()
	// stored comes from sqlite_master and matched identifierRe, so quoting is enough.
	rows, err := w.db.QueryContext(ctx, `SELECT * FROM "`+stored+`"`)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", dataset.ErrConnectionFailure, stored, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			w.logger.Error("close table rows", "table", stored, "error", err)
		}
	}()

	ds, err := scanDataset(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", dataset.ErrConnectionFailure, stored, err)
	}
	w.logger.Debug("table fetched", "table", stored, "rows", ds.Len(), "duration_ms", time.Since(start).Milliseconds())
	return ds, nil
}

func scanDataset(rows *sql.Rows) (*dataset.Dataset, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out [][]dataset.Cell
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]dataset.Cell, len(cols))
		for i, v := range vals {
			row[i] = toCell(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dataset.New(cols, out)
}

// toCell converts a value scanned from the driver. Text goes through
// dataset.ParseCell so numeric strings become numbers and time strings stay
// text until the temporal parser runs.
func toCell(v any) dataset.Cell {
	switch t := v.(type) {
	case nil:
		return dataset.Null()
	case int64:
		return dataset.Number(float64(t))
	case float64:
		return dataset.Number(t)
	case bool:
		if t {
			return dataset.Number(1)
		}
		return dataset.Number(0)
	case []byte:
		return dataset.ParseCell(string(t))
	case string:
		return dataset.ParseCell(t)
	case time.Time:
		return dataset.Time(t.UTC())
	default:
		return dataset.Text(fmt.Sprint(t))
	}
}
