package telemetry

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestDecodeEnvelope_Shapes(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantShape Shape
		wantID    string
	}{
		{
			name:      "nested data.body",
			payload:   `{"id":"evt-1","data":{"body":{"deviceId":"r1"}}}`,
			wantShape: ShapeNested,
			wantID:    "evt-1",
		},
		{
			name:      "flat body",
			payload:   `{"id":"evt-2","body":{"deviceId":"r1"}}`,
			wantShape: ShapeFlat,
			wantID:    "evt-2",
		},
		{
			name:      "nested wins over flat",
			payload:   `{"data":{"body":{"deviceId":"nested"}},"body":{"deviceId":"flat"}}`,
			wantShape: ShapeNested,
		},
		{
			name:      "empty nested falls back to flat",
			payload:   `{"data":{"body":{}},"body":{"deviceId":"flat"}}`,
			wantShape: ShapeFlat,
		},
		{
			name:      "data without body falls back to flat",
			payload:   `{"data":{"other":1},"body":{"deviceId":"flat"}}`,
			wantShape: ShapeFlat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := DecodeEnvelope([]byte(tt.payload), "")
			if err != nil {
				t.Fatalf("DecodeEnvelope() error = %v", err)
			}
			if env.Shape != tt.wantShape {
				t.Errorf("DecodeEnvelope() shape = %v, want %v", env.Shape, tt.wantShape)
			}
			if env.ID != tt.wantID {
				t.Errorf("DecodeEnvelope() id = %q, want %q", env.ID, tt.wantID)
			}
		})
	}
}

func TestDecodeEnvelope_EmptyBody(t *testing.T) {
	payloads := []string{
		`{"body":{}}`,
		`{"data":{"body":{}}}`,
		`{"data":{}}`,
		`{"id":"evt-1"}`,
		`{"body":"not a mapping"}`,
		`{"body":[1,2,3]}`,
		`null`,
	}

	for _, payload := range payloads {
		t.Run(payload, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(payload), ContentTypeJSON)
			if !errors.Is(err, ErrEmptyBody) {
				t.Errorf("DecodeEnvelope(%s) error = %v, want ErrEmptyBody", payload, err)
			}
		})
	}
}

func TestDecodeEnvelope_DecodeError(t *testing.T) {
	tests := []struct {
		name        string
		payload     []byte
		contentType string
	}{
		{"invalid json", []byte(`{"body":`), ContentTypeJSON},
		{"json array", []byte(`[{"body":{}}]`), ""},
		{"plain text", []byte("battery low"), "text/plain"},
		{"invalid cbor", []byte{0xff, 0x00}, ContentTypeCBOR},
		{"invalid protobuf", []byte{0xff, 0xff, 0xff}, ContentTypeProtobuf},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEnvelope(tt.payload, tt.contentType)
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Errorf("DecodeEnvelope() error = %v, want *DecodeError", err)
			}
		})
	}
}

func TestNormalize_NestedAndFlatEquivalent(t *testing.T) {
	body := `{"deviceId":"r1","batteryLevel":42,"currentStatus":"CLEANING","ttimestamp":"t1",` +
		`"location":{"zone":"lobby"},"purificationStatus":{"filter":"ok"}}`

	nested, err := Normalize([]byte(`{"id":"e1","data":{"body":`+body+`}}`), "")
	if err != nil {
		t.Fatalf("Normalize(nested) error = %v", err)
	}
	flat, err := Normalize([]byte(`{"id":"e1","body":`+body+`}`), "")
	if err != nil {
		t.Fatalf("Normalize(flat) error = %v", err)
	}

	if !reflect.DeepEqual(nested, flat) {
		t.Errorf("Normalize() nested = %+v, flat = %+v, want equal", nested, flat)
	}
}

func TestNormalize_Fields(t *testing.T) {
	rec, err := Normalize([]byte(`{"id":"evt-9","body":{"deviceId":"r1","batteryLevel":15,"currentStatus":"OK","ttimestamp":"t1"}}`), "")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if rec.DeviceID != "r1" {
		t.Errorf("DeviceID = %q, want r1", rec.DeviceID)
	}
	if rec.Timestamp == nil || *rec.Timestamp != "t1" {
		t.Errorf("Timestamp = %v, want t1", rec.Timestamp)
	}
	if rec.BatteryLevel == nil || *rec.BatteryLevel != 15 {
		t.Errorf("BatteryLevel = %v, want 15", rec.BatteryLevel)
	}
	if rec.CurrentStatus == nil || *rec.CurrentStatus != "OK" {
		t.Errorf("CurrentStatus = %v, want OK", rec.CurrentStatus)
	}
	if rec.SourceEventID != "evt-9" {
		t.Errorf("SourceEventID = %q, want evt-9", rec.SourceEventID)
	}
	if rec.Location != nil || rec.PurificationStatus != nil {
		t.Errorf("pass-through fields = %v/%v, want absent", rec.Location, rec.PurificationStatus)
	}
}

func TestNormalize_MissingAndMalformedFields(t *testing.T) {
	rec, err := Normalize([]byte(`{"body":{"batteryLevel":"not-a-number","currentStatus":7,"location":null}}`), "")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if rec.HasDeviceID() {
		t.Errorf("HasDeviceID() = true, want false")
	}
	if !errors.Is(rec.RequireDeviceID(), ErrMissingKey) {
		t.Errorf("RequireDeviceID() = %v, want ErrMissingKey", rec.RequireDeviceID())
	}
	if rec.BatteryLevel != nil {
		t.Errorf("BatteryLevel = %v, want absent", *rec.BatteryLevel)
	}
	if rec.CurrentStatus != nil {
		t.Errorf("CurrentStatus = %v, want absent", *rec.CurrentStatus)
	}
	if rec.Location != nil {
		t.Errorf("Location = %v, want absent", rec.Location)
	}
	if rec.DeviceIDOrNA() != NotAvailable || rec.BatteryOrNA() != NotAvailable ||
		rec.StatusOrNA() != NotAvailable || rec.TimestampOrNA() != NotAvailable {
		t.Errorf("OrNA helpers should all return %q for an empty record", NotAvailable)
	}
}

func TestNormalize_LenientScalars(t *testing.T) {
	rec, err := Normalize([]byte(`{"body":{"deviceId":"r2","batteryLevel":"18.5","timestamp":1718000000}}`), "")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if rec.BatteryLevel == nil || *rec.BatteryLevel != 18.5 {
		t.Errorf("BatteryLevel = %v, want 18.5", rec.BatteryLevel)
	}
	if rec.Timestamp == nil || *rec.Timestamp != "1718000000" {
		t.Errorf("Timestamp = %v, want 1718000000", rec.Timestamp)
	}
	if rec.BatteryOrNA() != "18.5" {
		t.Errorf("BatteryOrNA() = %q, want 18.5", rec.BatteryOrNA())
	}
}

func TestNormalize_NonFiniteBatteryIsAbsent(t *testing.T) {
	tests := []struct {
		name    string
		battery any
		enc     string
	}{
		{"NaN string", "NaN", EncodingJSON},
		{"-Inf string", "-Inf", EncodingJSON},
		{"Infinity string", "-Infinity", EncodingJSON},
		{"cbor NaN", math.NaN(), EncodingCBOR},
		{"cbor -Inf", math.Inf(-1), EncodingCBOR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]any{"deviceId": "r1", "batteryLevel": tt.battery}
			payload, ct, err := EncodePayload(NewEnvelopeMap(ShapeFlat, "evt-1", body), tt.enc)
			if err != nil {
				t.Fatalf("EncodePayload() error = %v", err)
			}

			rec, err := Normalize(payload, ct)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if rec.BatteryLevel != nil {
				t.Errorf("BatteryLevel = %v, want absent", *rec.BatteryLevel)
			}
			if d := Evaluate(rec); d.Triggered {
				t.Errorf("Evaluate() = %v, want no alert", d.Reasons)
			}
			if _, err := json.Marshal(rec); err != nil {
				t.Errorf("json.Marshal() error = %v", err)
			}
		})
	}
}

func TestNewEnvelopeMap(t *testing.T) {
	body := map[string]any{"deviceId": "r1"}

	for _, shape := range []Shape{ShapeNested, ShapeFlat} {
		t.Run(shape.String(), func(t *testing.T) {
			env, err := envelopeFromMap(NewEnvelopeMap(shape, "evt-1", body))
			if err != nil {
				t.Fatalf("envelopeFromMap() error = %v", err)
			}
			if env.Shape != shape {
				t.Errorf("Shape = %v, want %v", env.Shape, shape)
			}
			if env.ID != "evt-1" {
				t.Errorf("ID = %q, want evt-1", env.ID)
			}
		})
	}
}
