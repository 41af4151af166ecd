package store

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL is embedded so the service can self-bootstrap its schema.
//
//go:embed schema.sql
var schemaSQL string

// TelemetryRow is one stored telemetry event. JSON names match the wire
// contract of the query endpoints.
type TelemetryRow struct {
	ID            string    `json:"id"`
	TS            string    `json:"ts"`
	IngestTS      time.Time `json:"ingest_ts"`
	Topic         *string   `json:"topic"`
	Sensor        *string   `json:"sensor"`
	ProductID     *string   `json:"productId"`
	LocationID    *string   `json:"locationId"`
	EdgeAlert     *string   `json:"edge_alert"`
	EdgeLatencyMs *int64    `json:"edge_latency_ms"`
	DataJSON      *string   `json:"data_json"`
}

// MetricsSummary aggregates the whole table for GET /metrics.
// AvgEdgeLatencyMs is nil when no stored row carries a latency.
type MetricsSummary struct {
	TotalRows        int64    `json:"total_rows"`
	Alerts           int64    `json:"alerts"`
	AvgEdgeLatencyMs *float64 `json:"avg_edge_latency_ms"`
}

// PostgresStore is the durable persistence layer for telemetry events.
// Postgres' WAL/MVCC lets query reads overlap the single ingestion
// writer without request-level locking.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if the
// database is unreachable.
func NewPostgresStore(dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema() error {
	_, err := p.pool.Exec(context.Background(), schemaSQL)
	return err
}

// Ping is used by the readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// InsertTelemetry persists a row and returns inserted=false when the id
// already exists. The primary-key constraint makes re-ingesting a
// replayed batch a no-op, so retries never duplicate rows.
func (p *PostgresStore) InsertTelemetry(ctx context.Context, row TelemetryRow) (bool, error) {
	if row.ID == "" {
		return false, errors.New("id required")
	}

	// RETURNING 1 only when inserted; duplicates return no rows.
	var one int
	err := p.pool.QueryRow(ctx, `
		INSERT INTO telemetry(id, ts, ingest_ts, topic, sensor,
		                      product_id, location_id, edge_alert, edge_latency_ms, data_json)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO NOTHING
		RETURNING 1
	`, row.ID, row.TS, row.IngestTS, row.Topic, row.Sensor,
		row.ProductID, row.LocationID, row.EdgeAlert, row.EdgeLatencyMs, row.DataJSON,
	).Scan(&one)

	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, err
}

// Metrics returns the aggregate view over all stored rows.
func (p *PostgresStore) Metrics(ctx context.Context) (MetricsSummary, error) {
	var m MetricsSummary
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(edge_alert),
		       AVG(edge_latency_ms)
		FROM telemetry
	`).Scan(&m.TotalRows, &m.Alerts, &m.AvgEdgeLatencyMs)
	return m, err
}

// LastN returns the n most recent rows by ingest time, newest first.
// Equal timestamps order by id so results are deterministic.
func (p *PostgresStore) LastN(ctx context.Context, n int) ([]TelemetryRow, error) {
	rows, err := p.pool.Query(ctx, selectColumns+`
		FROM telemetry
		ORDER BY ingest_ts DESC, id DESC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// RecentWithin returns rows ingested within the last seconds, newest
// first, capped at n.
func (p *PostgresStore) RecentWithin(ctx context.Context, n, seconds int) ([]TelemetryRow, error) {
	rows, err := p.pool.Query(ctx, selectColumns+`
		FROM telemetry
		WHERE ingest_ts >= now() - ($1 * interval '1 second')
		ORDER BY ingest_ts DESC, id DESC
		LIMIT $2
	`, seconds, n)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// LatestGPS returns the newest gps row per (product_id, location_id)
// pair, newest pairs first. Ties on ingest time break by id.
func (p *PostgresStore) LatestGPS(ctx context.Context) ([]TelemetryRow, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, ts, ingest_ts, topic, sensor,
		       product_id, location_id, edge_alert, edge_latency_ms, data_json
		FROM (
			SELECT DISTINCT ON (product_id, location_id)
			       id, ts, ingest_ts, topic, sensor,
			       product_id, location_id, edge_alert, edge_latency_ms, data_json
			FROM telemetry
			WHERE sensor = 'gps'
			ORDER BY product_id, location_id, ingest_ts DESC, id DESC
		) latest
		ORDER BY ingest_ts DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

const selectColumns = `
		SELECT id, ts, ingest_ts, topic, sensor,
		       product_id, location_id, edge_alert, edge_latency_ms, data_json`

func scanRows(rows pgx.Rows) ([]TelemetryRow, error) {
	defer rows.Close()

	out := []TelemetryRow{}
	for rows.Next() {
		var r TelemetryRow
		if err := rows.Scan(&r.ID, &r.TS, &r.IngestTS, &r.Topic, &r.Sensor,
			&r.ProductID, &r.LocationID, &r.EdgeAlert, &r.EdgeLatencyMs, &r.DataJSON); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
