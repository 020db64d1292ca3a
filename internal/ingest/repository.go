package ingest

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"regexp"
)

//go:embed sql/insert-reading.sql
var insertReadingSQL string

// SampleTimeLayout is how readings are stored in the SAMPLE_TIME column.
const SampleTimeLayout = "2006-01-02 15:04:05.999999999"

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type ReadingRepository interface {
	InsertReading(ctx context.Context, t ZoneTelemetry) error
	// InsertReadings stores a batch in one transaction and returns how many
	// rows were written.
	InsertReadings(ctx context.Context, batch []ZoneTelemetry) (int, error)
}

type repositoryImpl struct {
	db     *sql.DB
	insert string
}

// NewRepository writes readings into the given warehouse table.
func NewRepository(db *sql.DB, table string) (ReadingRepository, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid warehouse table name %q", table)
	}
	return &repositoryImpl{db: db, insert: fmt.Sprintf(insertReadingSQL, table)}, nil
}

func (r *repositoryImpl) InsertReading(ctx context.Context, t ZoneTelemetry) error {
	if _, err := r.db.ExecContext(ctx, r.insert, args(t)...); err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (r *repositoryImpl) InsertReadings(ctx context.Context, batch []ZoneTelemetry) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, r.insert)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, t := range batch {
		if _, err := stmt.ExecContext(ctx, args(t)...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert reading %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(batch), nil
}

func args(t ZoneTelemetry) []any {
	var zone any
	if t.ZoneID != nil {
		zone = *t.ZoneID
	}
	return []any{
		zone,
		t.SampleTime.UTC().Format(SampleTimeLayout),
		nullable(t.ExtTemp),
		nullable(t.TargetTemp),
		nullable(t.IndoorTemp),
	}
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
