// Package database persists telemetry records to PostgreSQL: a latest-state
// row per robot and an append-only history.
package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	_ "github.com/lib/pq"

	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
)

const storeName = "postgres"

// Projection names used in StoreWriteError.
const (
	ProjectionLatest  = "latest-state"
	ProjectionHistory = "history"
)

// DB wraps a database connection. A DB without a connection is unavailable
// and fails every write with *telemetry.StoreUnavailableError.
type DB struct {
	conn        *sql.DB
	unavailable error
}

// NewDB creates a new database connection using the provided DSN.
func NewDB(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Successfully connected to PostgreSQL database")

	return &DB{conn: conn}, nil
}

// Unavailable returns a DB that records why it could not be initialized.
func Unavailable(reason error) *DB {
	return &DB{unavailable: reason}
}

// Available reports whether the DB holds a connection.
func (db *DB) Available() bool {
	return db != nil && db.conn != nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		slog.Info("Closing database connection")
		return db.conn.Close()
	}
	return nil
}

func (db *DB) unavailableErr() error {
	return &telemetry.StoreUnavailableError{Store: storeName, Err: db.unavailable}
}

// columns holds a record converted to nullable SQL values.
type columns struct {
	timestamp          sql.NullString
	batteryLevel       sql.NullFloat64
	currentStatus      sql.NullString
	purificationStatus sql.NullString
	location           sql.NullString
	sourceEventID      sql.NullString
}

func toColumns(r *telemetry.Record) (columns, error) {
	var c columns
	if r.Timestamp != nil {
		c.timestamp = sql.NullString{String: *r.Timestamp, Valid: true}
	}
	if r.BatteryLevel != nil {
		c.batteryLevel = sql.NullFloat64{Float64: *r.BatteryLevel, Valid: true}
	}
	if r.CurrentStatus != nil {
		c.currentStatus = sql.NullString{String: *r.CurrentStatus, Valid: true}
	}
	if r.SourceEventID != "" {
		c.sourceEventID = sql.NullString{String: r.SourceEventID, Valid: true}
	}

	var err error
	if c.purificationStatus, err = marshalJSONB(r.PurificationStatus); err != nil {
		return c, fmt.Errorf("failed to marshal purificationStatus: %w", err)
	}
	if c.location, err = marshalJSONB(r.Location); err != nil {
		return c, fmt.Errorf("failed to marshal location: %w", err)
	}
	return c, nil
}

// marshalJSONB serializes a pass-through value for a JSONB column. Absent
// values are stored as NULL.
func marshalJSONB(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// classify separates a lost connection from a rejected statement.
func classify(err error, projection, deviceID string) error {
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return &telemetry.StoreUnavailableError{Store: storeName, Err: err}
	}
	return &telemetry.StoreWriteError{Projection: projection, DeviceID: deviceID, Err: err}
}
