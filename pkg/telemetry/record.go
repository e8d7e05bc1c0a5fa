// Package telemetry defines the canonical robot telemetry record, the
// envelope normalizer that extracts it from loosely structured events,
// and the alert evaluator.
package telemetry

import (
	"fmt"
	"math"
	"strconv"
)

// NotAvailable is the placeholder used when logging absent fields.
const NotAvailable = "N/A"

// Record is the canonical telemetry snapshot derived from exactly one event.
// Optional scalars are nil when the event did not carry them.
type Record struct {
	DeviceID           string   `json:"deviceId,omitempty"`
	Timestamp          *string  `json:"timestamp,omitempty"`
	BatteryLevel       *float64 `json:"batteryLevel,omitempty"`
	CurrentStatus      *string  `json:"currentStatus,omitempty"`
	PurificationStatus any      `json:"purificationStatus,omitempty"`
	Location           any      `json:"location,omitempty"`
	SourceEventID      string   `json:"sourceEventId,omitempty"`
}

// HasDeviceID reports whether the record can be written to a keyed store.
func (r *Record) HasDeviceID() bool {
	return r != nil && r.DeviceID != ""
}

// RequireDeviceID returns ErrMissingKey when the record has no deviceId.
func (r *Record) RequireDeviceID() error {
	if !r.HasDeviceID() {
		return ErrMissingKey
	}
	return nil
}

// DeviceIDOrNA returns the device id, or "N/A" when absent.
func (r *Record) DeviceIDOrNA() string {
	if r.DeviceID == "" {
		return NotAvailable
	}
	return r.DeviceID
}

// TimestampOrNA returns the timestamp, or "N/A" when absent.
func (r *Record) TimestampOrNA() string {
	return stringOrNA(r.Timestamp)
}

// StatusOrNA returns the current status, or "N/A" when absent.
func (r *Record) StatusOrNA() string {
	return stringOrNA(r.CurrentStatus)
}

// BatteryOrNA formats the battery level without trailing zeros, or "N/A".
func (r *Record) BatteryOrNA() string {
	if r.BatteryLevel == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*r.BatteryLevel, 'f', -1, 64)
}

func stringOrNA(s *string) string {
	if s == nil {
		return NotAvailable
	}
	return *s
}

// extractRecord copies known fields out of a telemetry body. It never fails:
// fields that are missing or of an unusable type are left absent.
func extractRecord(body map[string]any, eventID string) *Record {
	r := &Record{SourceEventID: eventID}

	if id, ok := asString(body["deviceId"]); ok {
		r.DeviceID = id
	}

	// Upstream robots publish the timestamp as "ttimestamp".
	for _, key := range []string{"ttimestamp", "timestamp"} {
		if ts, ok := asString(body[key]); ok {
			r.Timestamp = &ts
			break
		}
	}

	if level, ok := asFloat(body["batteryLevel"]); ok {
		r.BatteryLevel = &level
	}
	if status, ok := body["currentStatus"].(string); ok {
		r.CurrentStatus = &status
	}
	if v, ok := body["purificationStatus"]; ok && v != nil {
		r.PurificationStatus = v
	}
	if v, ok := body["location"]; ok && v != nil {
		r.Location = v
	}

	return r
}

// asString accepts strings and formats numbers and booleans; anything else
// is treated as absent.
func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int, int32, int64, uint, uint32, uint64, bool:
		return fmt.Sprint(t), true
	default:
		return "", false
	}
}

// asFloat accepts any numeric type and numeric strings. NaN and ±Inf are
// treated as absent since they cannot be stored as JSON.
func asFloat(v any) (float64, bool) {
	f, ok := parseFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
