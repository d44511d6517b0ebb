// Package chunkhdr encodes and decodes the per-chunk header for
// Hyperion's chunked framing mode and enforces its invariants. It never
// touches a transport: EncodeHeader and DecodeHeader are pure functions
// over bytes.
package chunkhdr

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hyperionmesh/hyperion/internal/hyerr"
)

// Magic is the required 3-char ASCII tag on every chunk header.
const Magic = "TTS"

// ChunkSize is the maximum payload bytes carried by one chunk.
const ChunkSize = 1 << 20 // 1 MiB

// HeaderLengthLimit bounds the encoded header size.
const HeaderLengthLimit = 65536

// FlagEndOfPacket is bit 0 of Flags: set iff ChunkNumber == TotalChunks-1.
const FlagEndOfPacket uint8 = 0x01

// ChunkHeader is the per-chunk header, JSON-encoded on the wire.
type ChunkHeader struct {
	Magic       string    `json:"magic"`
	PacketID    uuid.UUID `json:"packet_id"`
	ChunkNumber int32     `json:"chunk_number"`
	TotalChunks int32     `json:"total_chunks"`
	DataLength  int32     `json:"data_length"`
	Flags       uint8     `json:"flags"`
}

// NewChunkHeader builds a header for one chunk, setting Magic and the
// end-of-packet flag from chunkNumber/totalChunks.
func NewChunkHeader(packetID uuid.UUID, chunkNumber, totalChunks, dataLength int32) ChunkHeader {
	h := ChunkHeader{
		Magic:       Magic,
		PacketID:    packetID,
		ChunkNumber: chunkNumber,
		TotalChunks: totalChunks,
		DataLength:  dataLength,
	}
	if chunkNumber == totalChunks-1 {
		h.Flags = FlagEndOfPacket
	}
	return h
}

// EncodeHeader serializes h to JSON and enforces HeaderLengthLimit.
func EncodeHeader(h ChunkHeader) ([]byte, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return nil, hyerr.Wrap(hyerr.ProtocolViolation, "encode chunk header", err)
	}
	if len(b) < 1 || len(b) > HeaderLengthLimit {
		return nil, hyerr.New(hyerr.ProtocolViolation, "encoded header length outside [1, HeaderLengthLimit]")
	}
	return b, nil
}

// DecodeHeader parses b into a ChunkHeader and enforces every structural
// invariant from the data model: magic, TotalChunks/ChunkNumber bounds,
// DataLength bounds, and flag/position agreement. It does not know about
// a prior chunk's PacketID/TotalChunks; callers validate continuity
// themselves (see framing.Engine.Receive).
func DecodeHeader(b []byte) (ChunkHeader, error) {
	if len(b) < 1 || len(b) > HeaderLengthLimit {
		return ChunkHeader{}, hyerr.New(hyerr.ProtocolViolation, "header length outside [1, HeaderLengthLimit]")
	}
	var h ChunkHeader
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&h); err != nil {
		return ChunkHeader{}, hyerr.Wrap(hyerr.ProtocolViolation, "decode chunk header", err)
	}
	if err := validate(h); err != nil {
		return ChunkHeader{}, err
	}
	return h, nil
}

func validate(h ChunkHeader) error {
	if h.Magic != Magic {
		return hyerr.New(hyerr.ProtocolViolation, "invalid protocol magic")
	}
	if h.TotalChunks <= 0 {
		return hyerr.New(hyerr.ProtocolViolation, "total_chunks must be positive")
	}
	if h.ChunkNumber < 0 || h.ChunkNumber >= h.TotalChunks {
		return hyerr.New(hyerr.ProtocolViolation, "chunk_number out of range")
	}
	if h.DataLength < 0 || h.DataLength > ChunkSize {
		return hyerr.New(hyerr.ProtocolViolation, "data_length out of range")
	}
	if h.Flags&^FlagEndOfPacket != 0 {
		return hyerr.New(hyerr.ProtocolViolation, "reserved flag bits must be zero")
	}
	isLast := h.ChunkNumber == h.TotalChunks-1
	hasEndFlag := h.Flags&FlagEndOfPacket != 0
	if isLast != hasEndFlag {
		return hyerr.New(hyerr.ProtocolViolation, "end-of-packet flag disagrees with chunk position")
	}
	return nil
}
