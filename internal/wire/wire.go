// Package wire provides the fixed-width big-endian integer codecs and the
// exact-read helper that every higher Hyperion layer builds on.
package wire

import (
	"encoding/binary"
	"io"

	"github.com/hyperionmesh/hyperion/internal/hyerr"
)

// CheckWriter rejects a nil transport handle before any write is
// attempted, surfacing hyerr.ArgumentInvalid instead of letting the
// first Write call panic on a nil interface.
func CheckWriter(w io.Writer) error {
	if w == nil {
		return hyerr.New(hyerr.ArgumentInvalid, "transport writer is nil")
	}
	return nil
}

// CheckReader rejects a nil transport handle before any read is
// attempted, surfacing hyerr.ArgumentInvalid instead of letting the
// first Read call panic on a nil interface.
func CheckReader(r io.Reader) error {
	if r == nil {
		return hyerr.New(hyerr.ArgumentInvalid, "transport reader is nil")
	}
	return nil
}

// WriteUint16BE writes v to w as a 2-byte big-endian integer.
func WriteUint16BE(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return wrapTransport(err, "write_u16_be")
}

// WriteInt32BE writes v to w as a 4-byte big-endian integer.
func WriteInt32BE(w io.Writer, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return wrapTransport(err, "write_i32_be")
}

// ReadUint16BE reads a 2-byte big-endian integer from r.
func ReadUint16BE(r io.Reader) (uint16, error) {
	b, err := ReadExact(r, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadInt32BE reads a 4-byte big-endian integer from r.
func ReadInt32BE(r io.Reader) (int32, error) {
	b, err := ReadExact(r, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// ReadExact reads exactly n bytes from r, looping over short reads. A
// peer that closes before n bytes arrive surfaces hyerr.EndOfStream,
// never a truncated success.
func ReadExact(r io.Reader, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, hyerr.Wrap(hyerr.EndOfStream, "read_exact: peer closed mid-frame", err)
		}
		return nil, hyerr.Wrap(hyerr.TransportError, "read_exact", err)
	}
	return buf, nil
}

// ReadExactInto reads exactly len(buf) bytes from r into buf, applying
// the same EndOfStream classification as ReadExact. Callers that already
// hold a pooled buffer use this to avoid ReadExact's own allocation.
func ReadExactInto(r io.Reader, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return hyerr.Wrap(hyerr.EndOfStream, "read_exact: peer closed mid-frame", err)
		}
		return hyerr.Wrap(hyerr.TransportError, "read_exact", err)
	}
	return nil
}

func wrapTransport(err error, op string) error {
	if err == nil {
		return nil
	}
	return hyerr.Wrap(hyerr.TransportError, op, err)
}

// Flusher is satisfied by transports that can coalesce buffered writes,
// e.g. *bufio.Writer. Send flushes once per packet, never per chunk.
type Flusher interface {
	Flush() error
}

// Flush flushes w if it implements Flusher; otherwise it is a no-op,
// since plain net.Conn writes are unbuffered already.
func Flush(w io.Writer) error {
	f, ok := w.(Flusher)
	if !ok {
		return nil
	}
	return wrapTransport(f.Flush(), "flush")
}
