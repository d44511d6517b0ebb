// Package codec defines the serializer plug-in boundary: Hyperion is
// opaque to payload semantics and only ever sees the byte sequence a
// Serializer produces.
package codec

import (
	"encoding/json"

	"github.com/hyperionmesh/hyperion/internal/hyerr"
)

// Serializer converts an application value to and from an opaque byte
// sequence. Implementations must be pure: no hidden streaming state
// carried between calls, and safe for concurrent use across independent
// connections.
type Serializer interface {
	Encode(v any) ([]byte, error)
	Decode(b []byte, out any) error
}

// Default is the reference Serializer: raw byte buffers and strings pass
// through unchanged, everything else falls back to JSON. Hyperion makes
// no assumption about the resulting bytes beyond len(b) >= 0.
type Default struct{}

// Encode implements Serializer.
func (Default) Encode(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	case nil:
		return nil, nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, hyerr.Wrap(hyerr.SerializerError, "json encode", err)
		}
		return b, nil
	}
}

// Decode implements Serializer.
func (Default) Decode(b []byte, out any) error {
	switch dst := out.(type) {
	case *[]byte:
		*dst = append((*dst)[:0], b...)
		return nil
	case *string:
		*dst = string(b)
		return nil
	default:
		if err := json.Unmarshal(b, out); err != nil {
			return hyerr.Wrap(hyerr.SerializerError, "json decode", err)
		}
		return nil
	}
}
