// Package hyperion implements the Hyperion chunked framing protocol: a
// length-framed, chunked message format for reliable byte-stream
// transports, plus an adaptive dispatcher that picks the cheapest wire
// encoding for a given payload size.
package hyperion

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/hyperionmesh/hyperion/internal/chunkhdr"
	"github.com/hyperionmesh/hyperion/internal/codec"
	"github.com/hyperionmesh/hyperion/internal/dispatch"
	"github.com/hyperionmesh/hyperion/internal/framing"
	"github.com/hyperionmesh/hyperion/internal/hyerr"
	"github.com/hyperionmesh/hyperion/internal/stats"
	"github.com/hyperionmesh/hyperion/internal/wire"
)

// Re-exported so callers can build a Serializer or inspect an error's
// Kind without importing internal packages directly.
type (
	Serializer = codec.Serializer
	ErrorKind  = hyerr.Kind
)

const (
	ArgumentInvalid   = hyerr.ArgumentInvalid
	Cancelled         = hyerr.Cancelled
	EndOfStream       = hyerr.EndOfStream
	ProtocolViolation = hyerr.ProtocolViolation
	SerializerError   = hyerr.SerializerError
	TransportError    = hyerr.TransportError
)

// IsKind reports whether err carries the given ErrorKind anywhere in its
// unwrap chain.
func IsKind(err error, kind ErrorKind) bool {
	return hyerr.Is(err, kind)
}

// Engine is the top-level Hyperion entry point: it pairs a Serializer
// with the chunked framing engine and the adaptive dispatcher. The zero
// value is not usable; construct with New.
type Engine struct {
	serializer codec.Serializer
	framer     *framing.Engine
	dispatcher *dispatch.Dispatcher
}

// New returns an Engine using ser to encode/decode values. A nil ser
// defaults to codec.Default.
func New(ser codec.Serializer) *Engine {
	if ser == nil {
		ser = codec.Default{}
	}
	return &Engine{
		serializer: ser,
		framer:     framing.New(),
		dispatcher: dispatch.New(),
	}
}

// Send encodes v and writes it to w using the chunked framing engine
// unconditionally, regardless of payload size. Use this when a peer only
// understands the chunked wire format.
func (e *Engine) Send(ctx context.Context, w io.Writer, v any) error {
	if err := wire.CheckWriter(w); err != nil {
		recordKindError(err)
		return err
	}
	b, err := e.serializer.Encode(v)
	if err != nil {
		recordKindError(err)
		return err
	}
	start := time.Now()
	if err := e.framer.Send(ctx, w, b); err != nil {
		recordKindError(err)
		return err
	}
	stats.RecordSend(stats.ModeChunked, len(b), chunkCountFor(len(b)), time.Since(start))
	return nil
}

// Receive reads one chunked packet from r and decodes it into out.
func (e *Engine) Receive(ctx context.Context, r io.Reader, out any) error {
	if err := wire.CheckReader(r); err != nil {
		recordKindError(err)
		return err
	}
	b, err := e.framer.Receive(ctx, r)
	if err != nil {
		recordKindError(err)
		return err
	}
	stats.RecordReceive(stats.ModeChunked, len(b), chunkCountFor(len(b)))
	if err := e.serializer.Decode(b, out); err != nil {
		recordKindError(err)
		return err
	}
	return nil
}

// SmartSend encodes v and writes it to w using the adaptive dispatcher:
// lightweight, direct, or chunked encoding depending on len(v)'s encoded
// size, per the thresholds in the dispatch package.
func (e *Engine) SmartSend(ctx context.Context, w io.Writer, v any) error {
	if err := wire.CheckWriter(w); err != nil {
		recordKindError(err)
		return err
	}
	b, err := e.serializer.Encode(v)
	if err != nil {
		recordKindError(err)
		return err
	}
	start := time.Now()
	if err := e.dispatcher.Send(ctx, w, b); err != nil {
		recordKindError(err)
		return err
	}
	stats.RecordSend(modeFor(len(b)), len(b), chunkCountFor(len(b)), time.Since(start))
	return nil
}

// SmartReceive reads one packet from r, auto-detecting its wire encoding
// from the leading discriminator byte, and decodes it into out.
func (e *Engine) SmartReceive(ctx context.Context, r io.Reader, out any) error {
	if err := wire.CheckReader(r); err != nil {
		recordKindError(err)
		return err
	}
	b, err := e.dispatcher.Receive(ctx, r)
	if err != nil {
		recordKindError(err)
		return err
	}
	stats.RecordReceive(modeFor(len(b)), len(b), chunkCountFor(len(b)))
	if err := e.serializer.Decode(b, out); err != nil {
		recordKindError(err)
		return err
	}
	return nil
}

func modeFor(n int) string {
	switch {
	case n < dispatch.LightweightMax:
		return stats.ModeLightweight
	case n < dispatch.DirectMax:
		return stats.ModeDirect
	default:
		return stats.ModeChunked
	}
}

func chunkCountFor(n int) int {
	if n == 0 {
		return 1
	}
	if c := (n + chunkhdr.ChunkSize - 1) / chunkhdr.ChunkSize; c > 1 {
		return c
	}
	return 1
}

func recordKindError(err error) {
	var herr *hyerr.Error
	if errors.As(err, &herr) {
		stats.RecordError(herr.Kind.String())
	}
}
