package h2wire

import "sync"

// FrameType identifies the payload layout of a frame, per RFC 7540 section
// 11.2.
type FrameType uint8

const maxFrameType = FrameContinuation

// FrameFlags is the flags octet of a frame header. Which bits are
// meaningful depends on the frame's FrameType.
type FrameFlags uint8

// Has reports whether all bits of want are set.
func (f FrameFlags) Has(want FrameFlags) bool {
	return f&want == want
}

// Add returns f with want's bits set.
func (f FrameFlags) Add(want FrameFlags) FrameFlags {
	return f | want
}

// Frame is a typed, reusable view over a FrameHeader's payload. Each frame
// type in this package (Data, Headers, Priority, ...) implements Frame.
type Frame interface {
	Type() FrameType
	Reset()
	Deserialize(frh *FrameHeader) error
	Serialize(frh *FrameHeader)
}

var framePools = [maxFrameType + 1]*sync.Pool{
	FrameData:         {New: func() interface{} { return &Data{} }},
	FrameHeaders:      {New: func() interface{} { return &Headers{} }},
	FramePriority:     {New: func() interface{} { return &Priority{} }},
	FrameResetStream:  {New: func() interface{} { return &RstStream{} }},
	FrameSettings:     {New: func() interface{} { return &Settings{} }},
	FramePushPromise:  {New: func() interface{} { return &PushPromise{} }},
	FramePing:         {New: func() interface{} { return &Ping{} }},
	FrameGoAway:       {New: func() interface{} { return &GoAway{} }},
	FrameWindowUpdate: {New: func() interface{} { return &WindowUpdate{} }},
	FrameContinuation: {New: func() interface{} { return &Continuation{} }},
}

// AcquireFrame returns a pooled, reset Frame body for kind. kind must be
// one of the ten known frame types; callers are expected to have already
// rejected unknown types (see FrameHeader.readFrom).
func AcquireFrame(kind FrameType) Frame {
	fr := framePools[kind].Get().(Frame)
	fr.Reset()
	return fr
}

// ReleaseFrame returns fr to its type's pool. fr may be nil, in which case
// ReleaseFrame is a no-op.
func ReleaseFrame(fr Frame) {
	if fr == nil {
		return
	}
	framePools[fr.Type()].Put(fr)
}
