// Package catalog mirrors converted records into a Postgres table so other
// services can query a release without pulling the Arrow shard.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/opencaption/macs2hub/internal/ingest"
)

// Catalog is a relational sink for canonical records.
type Catalog struct {
	db *sql.DB
}

// Open connects to Postgres and ensures the target table exists.
func Open(ctx context.Context, dsn string) (*Catalog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema setup failed: %w", err)
	}
	return c, nil
}

func (c *Catalog) ensureSchema(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS macs`)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS macs.records (
			id                 BIGSERIAL PRIMARY KEY,
			filename           TEXT NOT NULL,
			scene              TEXT,
			audio_path         TEXT NOT NULL,
			captions           TEXT[] NOT NULL,
			tags               JSONB NOT NULL,
			annotators         BIGINT[] NOT NULL,
			audio_identifier   TEXT,
			audio_source_label TEXT,
			ingested_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

// StoreRecords bulk inserts all records in a single transaction.
func (c *Catalog) StoreRecords(ctx context.Context, records []ingest.CanonicalRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(pq.CopyInSchema("macs", "records", copyInColumns...))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, rec := range records {
		values, err := recordValues(rec, now)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(values...); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.Filename, err)
		}
	}

	if _, err := stmt.Exec(); err != nil {
		return fmt.Errorf("failed to execute bulk insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// copyInColumns is the bulk insert column order; recordValues must stay
// aligned with it.
var copyInColumns = []string{
	"filename", "scene", "audio_path", "captions", "tags",
	"annotators", "audio_identifier", "audio_source_label", "ingested_at",
}

// recordValues assembles the column values for one record, in copyInColumns
// order.
func recordValues(rec ingest.CanonicalRecord, now time.Time) ([]interface{}, error) {
	tagsJSON, err := json.Marshal(rec.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags for %s: %w", rec.Filename, err)
	}

	return []interface{}{
		rec.Filename,
		nullable(rec.Scene),
		rec.AudioPath,
		pq.Array(rec.Captions),
		string(tagsJSON),
		pq.Array(widenInts(rec.Annotators)),
		nullable(rec.AudioIdentifier),
		nullable(rec.AudioSourceLabel),
		now,
	}, nil
}

// Close releases the database connection pool.
func (c *Catalog) Close() error { return c.db.Close() }

func nullable(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

// widenInts converts annotator IDs to int64 for pq array encoding.
func widenInts(vals []int32) []int64 {
	out := make([]int64, len(vals))
	for i, v := range vals {
		out[i] = int64(v)
	}
	return out
}
