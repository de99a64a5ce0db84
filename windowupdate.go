package h2wire

import (
	"github.com/domsolutions/h2wire/wireutil"
)

const FrameWindowUpdate FrameType = 0x8

var _ Frame = &WindowUpdate{}

// WindowUpdate ...
//
// https://tools.ietf.org/html/rfc7540#section-6.9
type WindowUpdate struct {
	increment uint32
}

func (wu *WindowUpdate) Type() FrameType {
	return FrameWindowUpdate
}

// Reset ...
func (wu *WindowUpdate) Reset() {
	wu.increment = 0
}

// CopyTo ...
func (wu *WindowUpdate) CopyTo(w *WindowUpdate) {
	w.increment = wu.increment
}

// Increment ...
func (wu *WindowUpdate) Increment() uint32 {
	return wu.increment
}

// SetIncrement ...
func (wu *WindowUpdate) SetIncrement(increment uint32) {
	wu.increment = increment & (1<<31 - 1)
}

func (wu *WindowUpdate) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) != 4 {
		return payloadLengthMismatch("window_update: frame length %d, want exactly 4", len(fr.payload))
	}

	wu.increment = wireutil.BytesToUint32(fr.payload) & (1<<31 - 1)
	if wu.increment == 0 {
		return protocolViolation("window_update: zero-valued window size increment")
	}

	return nil
}

func (wu *WindowUpdate) Serialize(fr *FrameHeader) {
	fr.setPayload(wireutil.AppendUint32Bytes(fr.payload[:0], wu.increment))
}
