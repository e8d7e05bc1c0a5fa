package telemetry

// Shape identifies which of the two known envelope layouts carried the body.
type Shape int

const (
	// ShapeNested is {"data": {"body": {...}}, "id": ...}.
	ShapeNested Shape = iota + 1
	// ShapeFlat is {"body": {...}, "id": ...}.
	ShapeFlat
)

func (s Shape) String() string {
	switch s {
	case ShapeNested:
		return "nested"
	case ShapeFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// Envelope is a decoded inbound event whose body has been located.
type Envelope struct {
	ID    string
	Shape Shape
	Body  map[string]any
}

// DecodeEnvelope parses a raw payload and locates its telemetry body.
// It returns a *DecodeError when the payload is not structured data and
// ErrEmptyBody when neither data.body nor body is a non-empty mapping.
func DecodeEnvelope(payload []byte, contentType string) (*Envelope, error) {
	raw, err := decodePayload(payload, contentType)
	if err != nil {
		return nil, err
	}
	return envelopeFromMap(raw)
}

func envelopeFromMap(raw map[string]any) (*Envelope, error) {
	id, _ := asString(raw["id"])

	if data, ok := raw["data"].(map[string]any); ok {
		if body, ok := data["body"].(map[string]any); ok && len(body) > 0 {
			return &Envelope{ID: id, Shape: ShapeNested, Body: body}, nil
		}
	}
	if body, ok := raw["body"].(map[string]any); ok && len(body) > 0 {
		return &Envelope{ID: id, Shape: ShapeFlat, Body: body}, nil
	}
	return nil, ErrEmptyBody
}

// Record extracts the canonical telemetry record from the envelope body.
func (e *Envelope) Record() *Record {
	return extractRecord(e.Body, e.ID)
}

// Normalize decodes a payload and extracts its telemetry record in one step.
func Normalize(payload []byte, contentType string) (*Record, error) {
	env, err := DecodeEnvelope(payload, contentType)
	if err != nil {
		return nil, err
	}
	return env.Record(), nil
}

// NewEnvelopeMap builds an event mapping in the requested shape. Producers
// use it so that both layouts stay in sync with the normalizer.
func NewEnvelopeMap(shape Shape, id string, body map[string]any) map[string]any {
	if shape == ShapeNested {
		return map[string]any{
			"id":   id,
			"data": map[string]any{"body": body},
		}
	}
	return map[string]any{
		"id":   id,
		"body": body,
	}
}
