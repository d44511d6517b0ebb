package dispatch

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/hyperionmesh/hyperion/internal/chunkhdr"
	"github.com/hyperionmesh/hyperion/internal/hyerr"
)

func TestModeBoundaries(t *testing.T) {
	cases := []struct {
		n        int
		wantByte byte
	}{
		{0, ModeLightweight},
		{1023, ModeLightweight},
		{1024, ModeDirect},
		{65535, ModeDirect},
		{65536, 0}, // chunked: lead byte is the MSB of header_length, not a fixed value
	}
	for _, c := range cases {
		b := bytes.Repeat([]byte{0x7A}, c.n)
		var buf bytes.Buffer
		d := New()
		if err := d.Send(context.Background(), &buf, b); err != nil {
			t.Fatalf("n=%d send: %v", c.n, err)
		}
		lead := buf.Bytes()[0]
		if c.n < DirectMax {
			if lead != c.wantByte {
				t.Fatalf("n=%d: lead byte got %#x want %#x", c.n, lead, c.wantByte)
			}
		} else if lead == ModeLightweight || lead == ModeDirect {
			t.Fatalf("n=%d: chunked lead byte collided with a discriminator: %#x", c.n, lead)
		}
	}
}

func TestDiscriminatorDisjointnessForChunkedFrame(t *testing.T) {
	b := bytes.Repeat([]byte{0x11}, DirectMax+1)
	var buf bytes.Buffer
	d := New()
	if err := d.Send(context.Background(), &buf, b); err != nil {
		t.Fatalf("send: %v", err)
	}
	lead := buf.Bytes()[0]
	if lead == ModeLightweight || lead == ModeDirect {
		t.Fatalf("chunked lead byte must never be 0xFF or 0xFE, got %#x", lead)
	}
	// HeaderLengthLimit <= 65536 means the MSB of header_length is 0x00 or 0x01.
	if lead != 0x00 && lead != 0x01 {
		t.Fatalf("expected lead byte 0x00 or 0x01, got %#x", lead)
	}
}

func TestSmartRoundTripAcrossAllModes(t *testing.T) {
	sizes := []int{0, 23, 1023, 1024, 65535, 65536, chunkhdr.ChunkSize + 100}
	for _, n := range sizes {
		b := bytes.Repeat([]byte{0x5C}, n)
		var buf bytes.Buffer
		d := New()
		if err := d.Send(context.Background(), &buf, b); err != nil {
			t.Fatalf("n=%d send: %v", n, err)
		}
		got, err := d.Receive(context.Background(), &buf)
		if err != nil {
			t.Fatalf("n=%d receive: %v", n, err)
		}
		if !bytes.Equal(got, b) {
			t.Fatalf("n=%d round-trip mismatch", n)
		}
	}
}

func TestS1TinyString(t *testing.T) {
	msg := []byte("Hello HyperionProtocol!")
	var buf bytes.Buffer
	d := New()
	if err := d.Send(context.Background(), &buf, msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	want := append([]byte{0xFF, 0x00, 0x17}, msg...)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("wire mismatch: got %x want %x", buf.Bytes(), want)
	}
	got, err := d.Receive(context.Background(), &buf)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Fatalf("got %q want %q", got, msg)
	}
}

func TestS2EmptyMessage(t *testing.T) {
	var buf bytes.Buffer
	d := New()
	if err := d.Send(context.Background(), &buf, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	want := []byte{0xFF, 0x00, 0x00}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("wire mismatch: got %x want %x", buf.Bytes(), want)
	}
	got, err := d.Receive(context.Background(), &buf)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty buffer, got %d bytes", len(got))
	}
}

func TestS3DirectBoundary(t *testing.T) {
	msg := bytes.Repeat([]byte{0xAB}, 1024)
	var buf bytes.Buffer
	d := New()
	if err := d.Send(context.Background(), &buf, msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	want := append([]byte{0xFE, 0x00, 0x00, 0x04, 0x00}, msg...)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("wire mismatch: got %x want %x", buf.Bytes()[:5], want[:5])
	}
	got, err := d.Receive(context.Background(), &buf)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Fatalf("round-trip mismatch")
	}
}

func TestS4TwoChunkPacket(t *testing.T) {
	msg := bytes.Repeat([]byte{0x42}, chunkhdr.ChunkSize+1)
	var buf bytes.Buffer
	d := New()
	if err := d.Send(context.Background(), &buf, msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	got, err := d.Receive(context.Background(), &buf)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Fatalf("round-trip mismatch: got %d want %d bytes", len(got), len(msg))
	}
}

func TestReceiveRejectsDirectLengthAtOrAboveDirectMax(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(ModeDirect)
	buf.Write([]byte{0x00, 0x01, 0x00, 0x00}) // 65536, == DirectMax
	d := New()
	_, err := d.Receive(context.Background(), &buf)
	if err == nil {
		t.Fatalf("expected rejection of direct-mode length >= DirectMax")
	}
}

func TestSendRejectsNilWriter(t *testing.T) {
	d := New()
	err := d.Send(context.Background(), nil, []byte("payload"))
	expectArgumentInvalid(t, err)
}

func TestReceiveRejectsNilReader(t *testing.T) {
	d := New()
	_, err := d.Receive(context.Background(), nil)
	expectArgumentInvalid(t, err)
}

func expectArgumentInvalid(t *testing.T, err error) {
	t.Helper()
	var herr *hyerr.Error
	if !errors.As(err, &herr) || herr.Kind != hyerr.ArgumentInvalid {
		t.Fatalf("expected ArgumentInvalid, got %v", err)
	}
}
