package h2wire

import (
	"github.com/domsolutions/h2wire/wireutil"
)

const FramePushPromise FrameType = 0x5

var _ Frame = &PushPromise{}

// PushPromise https://tools.ietf.org/html/rfc7540#section-6.6
type PushPromise struct {
	pad    bool
	ended  bool
	stream uint32
	header []byte // header block fragment
}

func (pp *PushPromise) Type() FrameType {
	return FramePushPromise
}

func (pp *PushPromise) Reset() {
	pp.pad = false
	pp.ended = false
	pp.stream = 0
	pp.header = pp.header[:0]
}

func (pp *PushPromise) SetHeader(h []byte) {
	pp.header = append(pp.header[:0], h...)
}

// Header returns the frame's raw header-block fragment.
func (pp *PushPromise) Header() []byte {
	return pp.header
}

// Stream returns the promised stream id.
func (pp *PushPromise) Stream() uint32 {
	return pp.stream
}

// SetStream sets the promised stream id.
func (pp *PushPromise) SetStream(stream uint32) {
	pp.stream = stream & (1<<31 - 1)
}

// EndHeaders reports whether END_HEADERS was set.
func (pp *PushPromise) EndHeaders() bool {
	return pp.ended
}

// SetEndHeaders sets the END_HEADERS flag state.
func (pp *PushPromise) SetEndHeaders(value bool) {
	pp.ended = value
}

// Padding reports whether the frame will be/was padded.
func (pp *PushPromise) Padding() bool {
	return pp.pad
}

// SetPadding sets whether the frame should be padded on Serialize.
func (pp *PushPromise) SetPadding(value bool) {
	pp.pad = value
}

func (pp *PushPromise) Write(b []byte) (int, error) {
	n := len(b)
	pp.header = append(pp.header, b...)
	return n, nil
}

func (pp *PushPromise) Deserialize(fr *FrameHeader) error {
	payload := fr.payload

	if fr.Flags().Has(FlagPadded) {
		var err error
		payload, err = wireutil.CutPadding(payload, fr.Len())
		if err != nil {
			return payloadLengthMismatch("push_promise: %s", err)
		}
	}

	if len(payload) < 4 {
		return payloadLengthMismatch("push_promise: %d octets remain, need at least 4 for the promised stream id", len(payload))
	}

	pp.stream = wireutil.BytesToUint32(payload) & (1<<31 - 1)
	pp.header = append(pp.header[:0], payload[4:]...)
	pp.ended = fr.Flags().Has(FlagEndHeaders)
	pp.pad = fr.Flags().Has(FlagPadded)

	return nil
}

func (pp *PushPromise) Serialize(fr *FrameHeader) {
	if pp.ended {
		fr.SetFlags(fr.Flags().Add(FlagEndHeaders))
	}

	payload := fr.payload[:0]
	var streamBytes [4]byte
	wireutil.Uint32ToBytes(streamBytes[:], pp.stream)
	payload = append(payload, streamBytes[:]...)
	payload = append(payload, pp.header...)

	if pp.pad {
		fr.SetFlags(fr.Flags().Add(FlagPadded))
		payload = wireutil.AddPadding(payload)
	}

	fr.setPayload(payload)
}
