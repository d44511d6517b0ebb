package chunkhdr

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hyperionmesh/hyperion/internal/hyerr"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	id := uuid.New()
	h := NewChunkHeader(id, 0, 2, ChunkSize)
	b, err := EncodeHeader(h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeHeader(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != h {
		t.Fatalf("got %+v want %+v", got, h)
	}
}

func TestNewChunkHeaderSetsEndFlagOnLastChunk(t *testing.T) {
	id := uuid.New()
	h := NewChunkHeader(id, 1, 2, 1)
	if h.Flags&FlagEndOfPacket == 0 {
		t.Fatalf("expected end-of-packet flag set")
	}
	first := NewChunkHeader(id, 0, 2, ChunkSize)
	if first.Flags&FlagEndOfPacket != 0 {
		t.Fatalf("did not expect end-of-packet flag on first chunk")
	}
}

func expectProtocolViolation(t *testing.T, err error) {
	t.Helper()
	var herr *hyerr.Error
	if !errors.As(err, &herr) || herr.Kind != hyerr.ProtocolViolation {
		t.Fatalf("expected ProtocolViolation, got %v", err)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	h := NewChunkHeader(uuid.New(), 0, 1, 0)
	h.Magic = "XXX"
	b, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = DecodeHeader(b)
	expectProtocolViolation(t, err)
}

func TestDecodeRejectsOutOfOrderChunkNumber(t *testing.T) {
	// DecodeHeader has no notion of arrival order: this header (chunk 1
	// of 2 without the end-of-packet flag) is rejected by the flag/position
	// check. Arrival-order rejection itself is tested in package framing.
	h := ChunkHeader{Magic: Magic, PacketID: uuid.New(), ChunkNumber: 1, TotalChunks: 2, DataLength: 0}
	b, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = DecodeHeader(b)
	expectProtocolViolation(t, err)
}

func TestDecodeRejectsZeroTotalChunks(t *testing.T) {
	h := ChunkHeader{Magic: Magic, PacketID: uuid.New(), ChunkNumber: 0, TotalChunks: 0, DataLength: 0}
	b, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = DecodeHeader(b)
	expectProtocolViolation(t, err)
}

func TestDecodeRejectsDataLengthAboveChunkSize(t *testing.T) {
	h := ChunkHeader{Magic: Magic, PacketID: uuid.New(), ChunkNumber: 0, TotalChunks: 1, DataLength: ChunkSize + 1, Flags: FlagEndOfPacket}
	b, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = DecodeHeader(b)
	expectProtocolViolation(t, err)
}

func TestDecodeRejectsFlagMismatch(t *testing.T) {
	h := ChunkHeader{Magic: Magic, PacketID: uuid.New(), ChunkNumber: 0, TotalChunks: 2, DataLength: 0, Flags: FlagEndOfPacket}
	b, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = DecodeHeader(b)
	expectProtocolViolation(t, err)
}

func TestDecodeRejectsReservedFlagBits(t *testing.T) {
	h := ChunkHeader{Magic: Magic, PacketID: uuid.New(), ChunkNumber: 0, TotalChunks: 1, DataLength: 0, Flags: 0x02}
	b, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = DecodeHeader(b)
	expectProtocolViolation(t, err)
}

func TestDecodeToleratesUnknownFields(t *testing.T) {
	b := []byte(`{"magic":"TTS","packet_id":"` + uuid.New().String() + `","chunk_number":0,"total_chunks":1,"data_length":0,"flags":1,"future_field":"ignored"}`)
	if _, err := DecodeHeader(b); err != nil {
		t.Fatalf("unexpected error tolerating unknown field: %v", err)
	}
}

func TestEncodeRejectsOversizedHeader(t *testing.T) {
	// A header this large cannot occur from a real ChunkHeader value, so
	// exercise the limit directly via a header with an implausibly long
	// magic string standing in for "any encoded form over the limit".
	h := ChunkHeader{Magic: string(make([]byte, HeaderLengthLimit+1)), PacketID: uuid.New(), ChunkNumber: 0, TotalChunks: 1, DataLength: 0, Flags: FlagEndOfPacket}
	_, err := EncodeHeader(h)
	expectProtocolViolation(t, err)
}
