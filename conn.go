package h2wire

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"
)

// ConnError is the connection-level failure Conn surfaces once it decides to
// stop decoding: Code is the wire ErrorCode a GOAWAY/RST_STREAM frame
// should carry, Err is the underlying cause (normally a *DecodeError).
type ConnError struct {
	Code ErrorCode
	Err  error
}

func (e *ConnError) Error() string {
	return e.Err.Error()
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// Conn ties frame decoding to the HPACK decoder across one HTTP/2
// connection's byte stream: it assembles HEADERS/PUSH_PROMISE plus any
// CONTINUATION fragments into complete header blocks and decodes them
// exactly once each.
//
// A Conn is not safe for concurrent use; HTTP/2 frames on one connection
// are read by a single goroutine.
type Conn struct {
	br *bufio.Reader

	decodeTable *DynamicTable
	encodeTable *DynamicTable
	decoder     *Decoder
	encoder     *Encoder

	maxFrameSize uint32

	assembling     bool
	assemblyKind   FrameType // FrameHeaders or FramePushPromise
	assemblyStream uint32
	// assemblyFrh is the FrameHeader that opened the block (HEADERS or
	// PUSH_PROMISE). It is held, not released, until finishAssembly
	// consumes its body — releasing it early would return its Frame body
	// to the package-level pool while this Conn still needs it, letting
	// another connection's AcquireFrame reuse and mutate the same object
	// out from under the pending assembly.
	assemblyFrh *FrameHeader
	pending     *bytebufferpool.ByteBuffer
}

// NewConn constructs a Conn reading frames from r. tableLimit bounds both
// directions' dynamic tables, mirroring the SETTINGS_HEADER_TABLE_SIZE a
// real connection would negotiate.
func NewConn(r *bufio.Reader, tableLimit int) *Conn {
	decodeTable := NewDynamicTable(tableLimit)
	encodeTable := NewDynamicTable(tableLimit)

	return &Conn{
		br:           r,
		decodeTable:  decodeTable,
		encodeTable:  encodeTable,
		decoder:      NewDecoder(decodeTable),
		encoder:      NewEncoder(encodeTable),
		maxFrameSize: defaultMaxLen,
	}
}

// Encoder returns the connection's outbound HPACK encoder.
func (c *Conn) Encoder() *Encoder {
	return c.encoder
}

// SetMaxFrameSize updates the negotiated SETTINGS_MAX_FRAME_SIZE used to
// bound incoming frame payloads.
func (c *Conn) SetMaxFrameSize(max uint32) {
	c.maxFrameSize = max
}

// Next reads and returns the next application-visible frame. HEADERS,
// PUSH_PROMISE and CONTINUATION fragments of one header block are consumed
// internally and only surfaced once END_HEADERS closes the block, at which
// point Next returns the frame that opened the block together with its
// fully decoded HeaderList. Every other frame type is returned immediately
// with a nil HeaderList.
func (c *Conn) Next() (Frame, *HeaderList, error) {
	for {
		frh, err := ReadFrameFromWithSize(c.br, c.maxFrameSize)
		if err != nil {
			if errors.Is(err, errUnknownFrameType) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil, nil, io.EOF
			}
			return nil, nil, c.fail(frh, err)
		}

		fr := frh.Body()

		if c.assembling {
			if frh.Type() != FrameContinuation || frh.Stream() != c.assemblyStream {
				err := protocolViolation("connection: frame type %d on stream %d arrived while a header block on stream %d was still open", frh.Type(), frh.Stream(), c.assemblyStream)
				return nil, nil, c.fail(frh, err)
			}

			cont := fr.(*Continuation)
			c.pending.Write(cont.Headers())

			if !cont.EndHeaders() {
				ReleaseFrameHeader(frh)
				continue
			}

			return c.finishAssembly(frh)
		}

		switch v := fr.(type) {
		case *Headers:
			if !v.EndHeaders() {
				c.startAssembly(FrameHeaders, frh, v.Headers())
				continue
			}

			list, err := c.decoder.Decode(v.Headers())
			if err != nil {
				return nil, nil, c.fail(frh, err)
			}
			return v, list, nil

		case *PushPromise:
			if !v.EndHeaders() {
				c.startAssembly(FramePushPromise, frh, v.Header())
				continue
			}

			list, err := c.decoder.Decode(v.Header())
			if err != nil {
				return nil, nil, c.fail(frh, err)
			}
			return v, list, nil

		case *Continuation:
			err := protocolViolation("connection: CONTINUATION frame on stream %d without a preceding HEADERS/PUSH_PROMISE", frh.Stream())
			return nil, nil, c.fail(frh, err)

		default:
			return fr, nil, nil
		}
	}
}

func (c *Conn) startAssembly(kind FrameType, frh *FrameHeader, fragment []byte) {
	c.assembling = true
	c.assemblyKind = kind
	c.assemblyStream = frh.Stream()
	c.assemblyFrh = frh
	c.pending = bytebufferpool.Get()
	c.pending.Write(fragment)
}

func (c *Conn) finishAssembly(lastFrh *FrameHeader) (Frame, *HeaderList, error) {
	block := c.pending.Bytes()
	list, err := c.decoder.Decode(block)

	openingFrh := c.assemblyFrh
	fr := openingFrh.Body()
	bytebufferpool.Put(c.pending)
	c.pending = nil
	c.assembling = false
	c.assemblyFrh = nil

	// openingFrh (and the Frame body we're about to return) is not
	// released back to the pool here: the caller still owns fr after
	// Next returns, same as the non-assembled HEADERS/PUSH_PROMISE path.
	// lastFrh is the terminating CONTINUATION frame, whose body is never
	// handed to the caller, so it is safe to release immediately.
	ReleaseFrameHeader(lastFrh)

	if err != nil {
		return nil, nil, c.fail(nil, err)
	}

	return fr, list, nil
}

// fail wraps err with frame/stream context and classifies it into the
// ErrorCode a GOAWAY frame should carry. frh may be nil when the failure
// happened after the triggering frame header was already released.
func (c *Conn) fail(frh *FrameHeader, err error) error {
	var wire ErrorCode = ErrCodeProtocol

	var de *DecodeError
	if errors.As(err, &de) {
		wire = de.ErrorCode()
	}

	var wrapped error
	if frh != nil {
		wrapped = errors.Wrapf(err, "frame type=%d stream=%d", frh.Type(), frh.Stream())
		ReleaseFrameHeader(frh)
	} else {
		wrapped = errors.Wrap(err, "header block assembly")
	}

	return &ConnError{Code: wire, Err: wrapped}
}
