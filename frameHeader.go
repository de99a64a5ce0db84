package h2wire

import (
	"bufio"
	"io"
	"sync"

	"github.com/domsolutions/h2wire/wireutil"
)

const (
	// DefaultFrameSize is the length of the generic frame header, in octets.
	//
	// http://httpwg.org/specs/rfc7540.html#FrameHeader
	DefaultFrameSize = 9
	// defaultMaxLen is SETTINGS_MAX_FRAME_SIZE's default value.
	//
	// https://httpwg.org/specs/rfc7540.html#SETTINGS_MAX_FRAME_SIZE
	defaultMaxLen = 1 << 14

	// Frame flags. A handful of bit values are reused across frame types
	// with different meanings; each typed frame view interprets only the
	// bits its own RFC section defines.
	FlagAck        FrameFlags = 0x1
	FlagEndStream  FrameFlags = 0x1
	FlagEndHeaders FrameFlags = 0x4
	FlagPadded     FrameFlags = 0x8
	FlagPriority   FrameFlags = 0x20
)

var frameHeaderPool = sync.Pool{
	New: func() interface{} {
		return &FrameHeader{}
	},
}

// FrameHeader is the 9-octet generic frame header of RFC 7540 section 4.1,
// plus a zero-copy view of the payload that follows it.
//
// Use AcquireFrameHeader to obtain one from the pool and ReleaseFrameHeader
// to return it. A FrameHeader instance MUST NOT be used from more than one
// goroutine at a time.
type FrameHeader struct {
	length int        // 24 bits on the wire
	kind   FrameType  // 8 bits
	flags  FrameFlags // 8 bits
	stream uint32     // 31 bits, reserved bit cleared on read

	maxLen uint32

	rawHeader [DefaultFrameSize]byte
	payload   []byte

	fr Frame
}

// AcquireFrameHeader gets a FrameHeader from the pool.
func AcquireFrameHeader() *FrameHeader {
	frh := frameHeaderPool.Get().(*FrameHeader)
	frh.Reset()
	return frh
}

// ReleaseFrameHeader releases frh's body to its own pool, detaches it, and
// returns frh to the pool; the remaining fields are reset by the next
// AcquireFrameHeader.
func ReleaseFrameHeader(frh *FrameHeader) {
	ReleaseFrame(frh.fr)
	frh.fr = nil
	frameHeaderPool.Put(frh)
}

// Reset clears frh to its zero state, ready for reuse.
func (frh *FrameHeader) Reset() {
	frh.kind = 0
	frh.flags = 0
	frh.stream = 0
	frh.length = 0
	frh.maxLen = defaultMaxLen
	frh.fr = nil
	frh.payload = frh.payload[:0]
}

// Type returns the frame type.
//
// https://httpwg.org/specs/rfc7540.html#Frame_types
func (frh *FrameHeader) Type() FrameType {
	return frh.kind
}

// Flags returns the frame's flags octet.
func (frh *FrameHeader) Flags() FrameFlags {
	return frh.flags
}

// SetFlags overwrites the frame's flags octet.
func (frh *FrameHeader) SetFlags(flags FrameFlags) {
	frh.flags = flags
}

// Stream returns the stream id of the current frame.
func (frh *FrameHeader) Stream() uint32 {
	return frh.stream
}

// SetStream sets the stream id on the current frame. The reserved bit is
// always cleared: RFC 7540 section 4.1 requires it to be zero on write.
func (frh *FrameHeader) SetStream(stream uint32) {
	frh.stream = stream & (1<<31 - 1)
}

// Len returns the payload octet count.
func (frh *FrameHeader) Len() int {
	return frh.length
}

// MaxLen returns the negotiated maximum payload length (SETTINGS_MAX_FRAME_SIZE).
func (frh *FrameHeader) MaxLen() uint32 {
	return frh.maxLen
}

// SetMaxLen sets the negotiated maximum payload length used by checkLen.
// A value of 0 disables the check.
func (frh *FrameHeader) SetMaxLen(max uint32) {
	frh.maxLen = max
}

func (frh *FrameHeader) parseValues(header []byte) {
	frh.length = int(wireutil.BytesToUint24(header[:3]))
	frh.kind = FrameType(header[3])
	frh.flags = FrameFlags(header[4])
	frh.stream = wireutil.BytesToUint32(header[5:]) & (1<<31 - 1)
}

func (frh *FrameHeader) buildHeader(header []byte) {
	wireutil.Uint24ToBytes(header[:3], uint32(frh.length))
	header[3] = byte(frh.kind)
	header[4] = byte(frh.flags)
	wireutil.Uint32ToBytes(header[5:], frh.stream&(1<<31-1))
}

// ReadFrameFrom reads one frame, header and payload, from br.
func ReadFrameFrom(br *bufio.Reader) (*FrameHeader, error) {
	return ReadFrameFromWithSize(br, defaultMaxLen)
}

// ReadFrameFromWithSize reads one frame from br, rejecting payloads larger
// than max (the connection's negotiated SETTINGS_MAX_FRAME_SIZE). max == 0
// disables the check.
func ReadFrameFromWithSize(br *bufio.Reader, max uint32) (*FrameHeader, error) {
	frh := AcquireFrameHeader()
	frh.maxLen = max

	_, err := frh.readFrom(br)
	if err != nil {
		ReleaseFrameHeader(frh)
		return nil, err
	}

	return frh, nil
}

// ReadFrom reads one frame, header and payload, from br and dispatches to
// the typed body's Deserialize. For frame types outside the ten defined by
// RFC 7540 it discards the payload and returns (9, errUnknownFrameType),
// counting only the header octets, per section 4.1's "unknown frame types
// MUST be ignored".
func (frh *FrameHeader) ReadFrom(br *bufio.Reader) (int64, error) {
	return frh.readFrom(br)
}

func (frh *FrameHeader) readFrom(br *bufio.Reader) (int64, error) {
	header, err := br.Peek(DefaultFrameSize)
	if err != nil {
		return 0, err
	}
	if _, err := br.Discard(DefaultFrameSize); err != nil {
		return 0, err
	}

	rn := int64(DefaultFrameSize)

	frh.parseValues(header)
	if err := frh.checkLen(); err != nil {
		io.CopyN(io.Discard, br, int64(frh.length))
		return rn, err
	}

	if frh.kind > maxFrameType {
		if _, err := io.CopyN(io.Discard, br, int64(frh.length)); err != nil {
			return rn, err
		}
		return rn, errUnknownFrameType
	}

	frh.fr = AcquireFrame(frh.kind)

	if frh.length > 0 {
		frh.payload = wireutil.Resize(frh.payload, frh.length)

		n, err := io.ReadFull(br, frh.payload)
		rn += int64(n)
		if err != nil {
			return rn, err
		}
	} else {
		frh.payload = frh.payload[:0]
	}

	return rn, frh.fr.Deserialize(frh)
}

// WriteTo serializes the frame body and writes header+payload to w.
func (frh *FrameHeader) WriteTo(w *bufio.Writer) (wb int64, err error) {
	frh.fr.Serialize(frh)

	frh.length = len(frh.payload)
	frh.buildHeader(frh.rawHeader[:])

	n, err := w.Write(frh.rawHeader[:])
	wb += int64(n)
	if err != nil {
		return wb, err
	}

	n, err = w.Write(frh.payload)
	wb += int64(n)
	return wb, err
}

// Body returns the typed frame view produced by the last Deserialize.
func (frh *FrameHeader) Body() Frame {
	return frh.fr
}

// SetBody attaches fr as the frame's typed body, adopting its Type().
func (frh *FrameHeader) SetBody(fr Frame) {
	if fr == nil {
		panic("h2wire: Body cannot be nil")
	}
	frh.kind = fr.Type()
	frh.fr = fr
}

func (frh *FrameHeader) setPayload(payload []byte) {
	frh.payload = append(frh.payload[:0], payload...)
}

func (frh *FrameHeader) checkLen() error {
	if frh.maxLen != 0 && frh.length > int(frh.maxLen) {
		return protocolViolation("frame length %d exceeds negotiated maximum %d", frh.length, frh.maxLen)
	}
	return nil
}
