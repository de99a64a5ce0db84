package h2wire

import (
	"fmt"

	"github.com/domsolutions/h2wire/wireutil"
)

const FrameResetStream FrameType = 0x3

var _ Frame = &RstStream{}

// RstStream ...
//
// https://tools.ietf.org/html/rfc7540#section-6.4
type RstStream struct {
	code ErrorCode
}

func (rst *RstStream) Type() FrameType {
	return FrameResetStream
}

// Code ...
func (rst *RstStream) Code() ErrorCode {
	return rst.code
}

// SetCode ...
func (rst *RstStream) SetCode(code ErrorCode) {
	rst.code = code
}

// Reset ...
func (rst *RstStream) Reset() {
	rst.code = 0
}

// CopyTo ...
func (rst *RstStream) CopyTo(r *RstStream) {
	r.code = rst.code
}

// Error returns the stream error rst carries.
func (rst *RstStream) Error() error {
	return &DecodeError{Kind: KindProtocolViolation, Err: fmt.Errorf("stream reset: %s", rst.code)}
}

// Deserialize ...
func (rst *RstStream) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) != 4 {
		return payloadLengthMismatch("rst_stream: frame length %d, want exactly 4", len(fr.payload))
	}

	rst.code = ErrorCode(wireutil.BytesToUint32(fr.payload))

	return nil
}

// Serialize ...
func (rst *RstStream) Serialize(fr *FrameHeader) {
	fr.payload = wireutil.AppendUint32Bytes(fr.payload[:0], uint32(rst.code))
	fr.length = 4
}
