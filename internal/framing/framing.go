// Package framing implements the chunked framing engine: splitting a
// byte buffer into one or more length-prefixed, JSON-headered chunks on
// send, and validating/reassembling them on receive.
package framing

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/hyperionmesh/hyperion/internal/chunkhdr"
	"github.com/hyperionmesh/hyperion/internal/hyerr"
	"github.com/hyperionmesh/hyperion/internal/wire"
)

// Engine sends and receives chunked packets over a reliable byte-stream
// transport. It owns no transport state between packets: every Send and
// Receive call is self-contained.
type Engine struct {
	bufPool *wire.BufferPool
}

// New returns a ready-to-use chunked framing Engine.
func New() *Engine {
	return &Engine{bufPool: wire.NewBufferPool(chunkhdr.ChunkSize)}
}

// Send splits b into chunks of at most chunkhdr.ChunkSize bytes under
// one fresh PacketID and writes them to w, flushing once at the end.
// ctx is checked before each chunk; cancellation aborts with
// hyerr.Cancelled and leaves w in an indeterminate state.
func (e *Engine) Send(ctx context.Context, w io.Writer, b []byte) error {
	if err := wire.CheckWriter(w); err != nil {
		return err
	}
	totalChunks := int32(1)
	if n := ceilDiv(len(b), chunkhdr.ChunkSize); n > 1 {
		totalChunks = int32(n)
	}
	packetID := uuid.New()

	for i := int32(0); i < totalChunks; i++ {
		if err := checkCancel(ctx); err != nil {
			return err
		}

		offset := int(i) * chunkhdr.ChunkSize
		size := minInt(chunkhdr.ChunkSize, len(b)-offset)

		h := chunkhdr.NewChunkHeader(packetID, i, totalChunks, int32(size))
		headerBytes, err := chunkhdr.EncodeHeader(h)
		if err != nil {
			return err
		}

		if err := wire.WriteInt32BE(w, int32(len(headerBytes))); err != nil {
			return err
		}
		if _, err := w.Write(headerBytes); err != nil {
			return hyerr.Wrap(hyerr.TransportError, "write chunk header", err)
		}
		if size > 0 {
			if _, err := w.Write(b[offset : offset+size]); err != nil {
				return hyerr.Wrap(hyerr.TransportError, "write chunk payload", err)
			}
		}
	}

	return wire.Flush(w)
}

// Receive reads one complete chunked packet from r, validating every
// chunk header and reassembling payloads in ChunkNumber order.
func (e *Engine) Receive(ctx context.Context, r io.Reader) ([]byte, error) {
	if err := wire.CheckReader(r); err != nil {
		return nil, err
	}
	return e.ReceiveFrom(ctx, r, nil)
}

// ReadHeaderGivenLength decodes the first chunk header when its
// header_length was already read off the wire (the smart dispatcher
// peels the leading bytes of header_length off the mode-discriminator
// byte before it can hand control here).
func (e *Engine) ReadHeaderGivenLength(r io.Reader, headerLen int32) (chunkhdr.ChunkHeader, error) {
	if headerLen < 1 || headerLen > chunkhdr.HeaderLengthLimit {
		return chunkhdr.ChunkHeader{}, hyerr.New(hyerr.ProtocolViolation, "header_length outside [1, HeaderLengthLimit]")
	}
	headerBytes, err := wire.ReadExact(r, int(headerLen))
	if err != nil {
		return chunkhdr.ChunkHeader{}, err
	}
	return chunkhdr.DecodeHeader(headerBytes)
}

// ReceiveFrom reassembles a chunked packet. If first is non-nil, it is
// the already-decoded header of the first chunk; otherwise the header
// length is read fresh from r for every chunk including the first.
func (e *Engine) ReceiveFrom(ctx context.Context, r io.Reader, first *chunkhdr.ChunkHeader) ([]byte, error) {
	var (
		out         []byte
		expectedID  uuid.UUID
		expectedTot int32
		received    int32
	)

	for {
		if err := checkCancel(ctx); err != nil {
			return nil, err
		}

		var h chunkhdr.ChunkHeader
		if first != nil {
			h = *first
			first = nil
		} else {
			headerLen, err := wire.ReadInt32BE(r)
			if err != nil {
				return nil, err
			}
			h, err = e.ReadHeaderGivenLength(r, headerLen)
			if err != nil {
				return nil, err
			}
		}

		if received == 0 {
			expectedID = h.PacketID
			expectedTot = h.TotalChunks
			// Size the hint from this chunk's own DataLength only (bounded
			// by chunkhdr.ChunkSize), never from the peer-controlled
			// TotalChunks: multiplying the two lets one forged header drive
			// an out-of-memory allocation before any other chunk is seen.
			if cap(out) == 0 {
				out = make([]byte, 0, int(h.DataLength))
			}
		} else if h.PacketID != expectedID || h.TotalChunks != expectedTot {
			return nil, hyerr.New(hyerr.ProtocolViolation, "chunk packet_id/total_chunks mismatch mid-packet")
		}

		if h.ChunkNumber != received {
			return nil, hyerr.New(hyerr.ProtocolViolation, "chunk received out of order")
		}

		if h.DataLength > 0 {
			payload := e.bufPool.Get(int(h.DataLength))
			err := wire.ReadExactInto(r, payload)
			if err == nil {
				out = append(out, payload...)
			}
			e.bufPool.Put(payload)
			if err != nil {
				return nil, err
			}
		}
		received++

		if h.ChunkNumber == h.TotalChunks-1 {
			return out, nil
		}
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

func ceilDiv(a, b int) int {
	if a == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
