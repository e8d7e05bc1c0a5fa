package telemetry

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Content types accepted on the telemetry topic.
const (
	ContentTypeJSON     = "application/json"
	ContentTypeCBOR     = "application/cbor"
	ContentTypeProtobuf = "application/x-protobuf"
)

// Encoding names used by producers.
const (
	EncodingJSON     = "json"
	EncodingCBOR     = "cbor"
	EncodingProtobuf = "protobuf"
)

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("telemetry: CBOR encoder initialization failed: " + err.Error())
	}
	// Envelopes only use string keys; decode untyped maps as map[string]any
	// so the normalizer sees the same shape as for JSON.
	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("telemetry: CBOR decoder initialization failed: " + err.Error())
	}
}

// ContentTypeFor maps an encoding name to its content type.
func ContentTypeFor(encoding string) (string, error) {
	switch strings.ToLower(encoding) {
	case EncodingJSON, "":
		return ContentTypeJSON, nil
	case EncodingCBOR:
		return ContentTypeCBOR, nil
	case EncodingProtobuf:
		return ContentTypeProtobuf, nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// decodePayload parses raw bytes into a generic mapping according to the
// content type. An empty content type means JSON.
func decodePayload(payload []byte, contentType string) (map[string]any, error) {
	switch mediaType(contentType) {
	case "", ContentTypeJSON:
		var m map[string]any
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, &DecodeError{Format: EncodingJSON, Err: err}
		}
		return m, nil
	case ContentTypeCBOR:
		var m map[string]any
		if err := cborDec.Unmarshal(payload, &m); err != nil {
			return nil, &DecodeError{Format: EncodingCBOR, Err: err}
		}
		return m, nil
	case ContentTypeProtobuf:
		var s structpb.Struct
		if err := proto.Unmarshal(payload, &s); err != nil {
			return nil, &DecodeError{Format: EncodingProtobuf, Err: err}
		}
		return s.AsMap(), nil
	default:
		return nil, &DecodeError{
			Format: contentType,
			Err:    fmt.Errorf("unsupported content type %q", contentType),
		}
	}
}

// EncodePayload serializes a generic mapping in the given encoding and
// returns the bytes together with the matching content type.
func EncodePayload(v map[string]any, encoding string) ([]byte, string, error) {
	contentType, err := ContentTypeFor(encoding)
	if err != nil {
		return nil, "", err
	}

	var data []byte
	switch contentType {
	case ContentTypeCBOR:
		data, err = cborEnc.Marshal(v)
	case ContentTypeProtobuf:
		var s *structpb.Struct
		s, err = structpb.NewStruct(v)
		if err == nil {
			data, err = proto.Marshal(s)
		}
	default:
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode %s payload: %w", encoding, err)
	}
	return data, contentType, nil
}

// mediaType strips parameters such as "; charset=utf-8".
func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
