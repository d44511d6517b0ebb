package stats

import (
	"testing"
	"time"
)

func TestRegisterIsIdempotent(t *testing.T) {
	Register()
	Register()
}

func TestRecordersAreSafeToCall(t *testing.T) {
	RecordSend(ModeLightweight, 23, 1, 2*time.Millisecond)
	RecordSend(ModeDirect, 2048, 1, 3*time.Millisecond)
	RecordSend(ModeChunked, 3*1024*1024, 3, 40*time.Millisecond)
	RecordReceive(ModeChunked, 3*1024*1024, 3)
	RecordError("protocol_violation")
}
