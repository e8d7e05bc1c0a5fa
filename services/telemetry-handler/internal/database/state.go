package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
)

const upsertLatestQuery = `
	INSERT INTO robot_state (id, device_id, event_timestamp, battery_level, current_status,
		purification_status, location, source_event_id, revision, updated_at)
	VALUES ($1, $1, $2, $3, $4, $5, $6, $7, 1, NOW())
	ON CONFLICT (id) DO UPDATE SET
		device_id = EXCLUDED.device_id,
		event_timestamp = EXCLUDED.event_timestamp,
		battery_level = EXCLUDED.battery_level,
		current_status = EXCLUDED.current_status,
		purification_status = EXCLUDED.purification_status,
		location = EXCLUDED.location,
		source_event_id = EXCLUDED.source_event_id,
		revision = robot_state.revision + 1,
		updated_at = NOW()
`

const appendHistoryQuery = `
	INSERT INTO robot_history (id, device_id, event_timestamp, battery_level, current_status,
		purification_status, location, source_event_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// UpsertLatest replaces the latest-state row for the record's device. Every
// column is overwritten, so fields absent from the record become NULL.
func (db *DB) UpsertLatest(ctx context.Context, r *telemetry.Record) error {
	if err := r.RequireDeviceID(); err != nil {
		return err
	}
	if !db.Available() {
		return db.unavailableErr()
	}

	c, err := toColumns(r)
	if err != nil {
		return &telemetry.StoreWriteError{Projection: ProjectionLatest, DeviceID: r.DeviceID, Err: err}
	}

	if _, err := db.conn.ExecContext(ctx, upsertLatestQuery,
		r.DeviceID,
		c.timestamp,
		c.batteryLevel,
		c.currentStatus,
		c.purificationStatus,
		c.location,
		c.sourceEventID,
	); err != nil {
		return classify(err, ProjectionLatest, r.DeviceID)
	}
	return nil
}

// AppendHistory inserts a new history row under a fresh id and returns it.
// Repeated calls with the same record produce distinct rows.
func (db *DB) AppendHistory(ctx context.Context, r *telemetry.Record) (string, error) {
	if err := r.RequireDeviceID(); err != nil {
		return "", err
	}
	if !db.Available() {
		return "", db.unavailableErr()
	}

	c, err := toColumns(r)
	if err != nil {
		return "", &telemetry.StoreWriteError{Projection: ProjectionHistory, DeviceID: r.DeviceID, Err: err}
	}

	id := uuid.New().String()
	if _, err := db.conn.ExecContext(ctx, appendHistoryQuery,
		id,
		r.DeviceID,
		c.timestamp,
		c.batteryLevel,
		c.currentStatus,
		c.purificationStatus,
		c.location,
		c.sourceEventID,
	); err != nil {
		return "", classify(err, ProjectionHistory, r.DeviceID)
	}
	return id, nil
}
