// Package dispatch implements the adaptive ("smart") dispatcher: it
// picks among lightweight, direct, and chunked wire encodings on send
// based on payload size, and auto-detects the encoding on receive from
// a single lead byte.
package dispatch

import (
	"context"
	"io"

	"github.com/hyperionmesh/hyperion/internal/framing"
	"github.com/hyperionmesh/hyperion/internal/hyerr"
	"github.com/hyperionmesh/hyperion/internal/wire"
)

const (
	// ModeLightweight is the discriminator byte for payloads under
	// LightweightMax bytes.
	ModeLightweight byte = 0xFF
	// ModeDirect is the discriminator byte for payloads from
	// LightweightMax up to DirectMax bytes.
	ModeDirect byte = 0xFE

	// LightweightMax is the exclusive upper bound for lightweight mode.
	LightweightMax = 1024
	// DirectMax is the exclusive upper bound for direct mode.
	DirectMax = 65536
)

// Dispatcher wraps a chunked framing.Engine with size-based mode
// selection. It is a thin composition, not a subtype of Engine: the
// chunked path it delegates to is bit-compatible with a plain
// framing.Engine's wire format.
type Dispatcher struct {
	engine *framing.Engine
}

// New returns a ready-to-use smart Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{engine: framing.New()}
}

// Send picks lightweight, direct, or chunked encoding for b based on its
// length and writes the resulting frame(s) to w, flushing once.
func (d *Dispatcher) Send(ctx context.Context, w io.Writer, b []byte) error {
	if err := wire.CheckWriter(w); err != nil {
		return err
	}
	if err := checkCancel(ctx); err != nil {
		return err
	}
	switch {
	case len(b) < LightweightMax:
		return sendLightweight(w, b)
	case len(b) < DirectMax:
		return sendDirect(w, b)
	default:
		return d.engine.Send(ctx, w, b)
	}
}

func sendLightweight(w io.Writer, b []byte) error {
	if _, err := w.Write([]byte{ModeLightweight}); err != nil {
		return hyerr.Wrap(hyerr.TransportError, "write lightweight discriminator", err)
	}
	if err := wire.WriteUint16BE(w, uint16(len(b))); err != nil {
		return err
	}
	if len(b) > 0 {
		if _, err := w.Write(b); err != nil {
			return hyerr.Wrap(hyerr.TransportError, "write lightweight payload", err)
		}
	}
	return wire.Flush(w)
}

func sendDirect(w io.Writer, b []byte) error {
	if _, err := w.Write([]byte{ModeDirect}); err != nil {
		return hyerr.Wrap(hyerr.TransportError, "write direct discriminator", err)
	}
	if err := wire.WriteInt32BE(w, int32(len(b))); err != nil {
		return err
	}
	if len(b) > 0 {
		if _, err := w.Write(b); err != nil {
			return hyerr.Wrap(hyerr.TransportError, "write direct payload", err)
		}
	}
	return wire.Flush(w)
}

// Receive reads one mode discriminator byte and dispatches to the
// matching decode path, returning the reassembled payload.
func (d *Dispatcher) Receive(ctx context.Context, r io.Reader) ([]byte, error) {
	if err := wire.CheckReader(r); err != nil {
		return nil, err
	}
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}
	modeByte, err := wire.ReadExact(r, 1)
	if err != nil {
		return nil, err
	}
	mode := modeByte[0]

	switch mode {
	case ModeLightweight:
		n, err := wire.ReadUint16BE(r)
		if err != nil {
			return nil, err
		}
		return wire.ReadExact(r, int(n))
	case ModeDirect:
		n, err := wire.ReadInt32BE(r)
		if err != nil {
			return nil, err
		}
		if n < 0 || n >= DirectMax {
			return nil, hyerr.New(hyerr.ProtocolViolation, "direct mode length outside [0, DirectMax)")
		}
		return wire.ReadExact(r, int(n))
	default:
		rest, err := wire.ReadExact(r, 3)
		if err != nil {
			return nil, err
		}
		headerLen := int32(mode)<<24 | int32(rest[0])<<16 | int32(rest[1])<<8 | int32(rest[2])
		first, err := d.engine.ReadHeaderGivenLength(r, headerLen)
		if err != nil {
			return nil, err
		}
		return d.engine.ReceiveFrom(ctx, r, &first)
	}
}

func checkCancel(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return hyerr.Wrap(hyerr.Cancelled, "cancelled", ctx.Err())
	default:
		return nil
	}
}
