package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RobotState is one row of robot_state.
type RobotState struct {
	DeviceID           string          `json:"deviceId"`
	Timestamp          *string         `json:"timestamp,omitempty"`
	BatteryLevel       *float64        `json:"batteryLevel,omitempty"`
	CurrentStatus      *string         `json:"currentStatus,omitempty"`
	PurificationStatus json.RawMessage `json:"purificationStatus,omitempty"`
	Location           json.RawMessage `json:"location,omitempty"`
	SourceEventID      string          `json:"sourceEventId,omitempty"`
	Revision           int64           `json:"revision"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// HistoryEntry is one row of robot_history.
type HistoryEntry struct {
	ID                 string          `json:"id"`
	DeviceID           string          `json:"deviceId"`
	Timestamp          *string         `json:"timestamp,omitempty"`
	BatteryLevel       *float64        `json:"batteryLevel,omitempty"`
	CurrentStatus      *string         `json:"currentStatus,omitempty"`
	PurificationStatus json.RawMessage `json:"purificationStatus,omitempty"`
	Location           json.RawMessage `json:"location,omitempty"`
	SourceEventID      string          `json:"sourceEventId,omitempty"`
	RecordedAt         time.Time       `json:"recordedAt"`
}

const stateColumns = `device_id, event_timestamp, battery_level, current_status,
	purification_status, location, source_event_id, revision, updated_at`

const historyColumns = `id, device_id, event_timestamp, battery_level, current_status,
	purification_status, location, source_event_id, recorded_at`

// nullableFields receives the columns shared by both tables.
type nullableFields struct {
	timestamp          sql.NullString
	batteryLevel       sql.NullFloat64
	currentStatus      sql.NullString
	purificationStatus []byte
	location           []byte
	sourceEventID      sql.NullString
}

func (n *nullableFields) timestampPtr() *string {
	if !n.timestamp.Valid {
		return nil
	}
	return &n.timestamp.String
}

func (n *nullableFields) batteryPtr() *float64 {
	if !n.batteryLevel.Valid {
		return nil
	}
	return &n.batteryLevel.Float64
}

func (n *nullableFields) statusPtr() *string {
	if !n.currentStatus.Valid {
		return nil
	}
	return &n.currentStatus.String
}

func rawJSON(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanState(row scanner) (RobotState, error) {
	var s RobotState
	var n nullableFields
	if err := row.Scan(
		&s.DeviceID,
		&n.timestamp,
		&n.batteryLevel,
		&n.currentStatus,
		&n.purificationStatus,
		&n.location,
		&n.sourceEventID,
		&s.Revision,
		&s.UpdatedAt,
	); err != nil {
		return s, err
	}
	s.Timestamp = n.timestampPtr()
	s.BatteryLevel = n.batteryPtr()
	s.CurrentStatus = n.statusPtr()
	s.PurificationStatus = rawJSON(n.purificationStatus)
	s.Location = rawJSON(n.location)
	s.SourceEventID = n.sourceEventID.String
	return s, nil
}

// ListLatest returns the latest state of every robot ordered by device id.
func (db *DB) ListLatest(ctx context.Context) ([]RobotState, error) {
	query := `SELECT ` + stateColumns + ` FROM robot_state ORDER BY device_id`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query robot state: %w", err)
	}
	defer rows.Close()

	states := []RobotState{}
	for rows.Next() {
		s, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan robot state: %w", err)
		}
		states = append(states, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating robot state: %w", err)
	}
	return states, nil
}

// GetLatest returns the latest state of one robot, or ErrNotFound.
func (db *DB) GetLatest(ctx context.Context, deviceID string) (*RobotState, error) {
	query := `SELECT ` + stateColumns + ` FROM robot_state WHERE id = $1`

	s, err := scanState(db.conn.QueryRowContext(ctx, query, deviceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get robot state: %w", err)
	}
	return &s, nil
}

// ListHistory returns up to limit history rows for a device, newest first.
func (db *DB) ListHistory(ctx context.Context, deviceID string, limit int) ([]HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM robot_history
		WHERE device_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2`

	rows, err := db.conn.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query robot history: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		var n nullableFields
		if err := rows.Scan(
			&e.ID,
			&e.DeviceID,
			&n.timestamp,
			&n.batteryLevel,
			&n.currentStatus,
			&n.purificationStatus,
			&n.location,
			&n.sourceEventID,
			&e.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan robot history: %w", err)
		}
		e.Timestamp = n.timestampPtr()
		e.BatteryLevel = n.batteryPtr()
		e.CurrentStatus = n.statusPtr()
		e.PurificationStatus = rawJSON(n.purificationStatus)
		e.Location = rawJSON(n.location)
		e.SourceEventID = n.sourceEventID.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating robot history: %w", err)
	}
	return entries, nil
}
