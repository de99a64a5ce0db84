package h2wire

import (
	"github.com/domsolutions/h2wire/wireutil"
)

const FrameSettings FrameType = 0x4

var _ Frame = &Settings{}

const (
	// default Settings parameters (RFC 7540 section 6.5.2)
	defaultHeaderTableSize   uint32 = 4096
	defaultConcurrentStreams uint32 = 100
	defaultWindowSize        uint32 = 1<<16 - 1
	defaultMaxFrameSize      uint32 = 1 << 14

	settingEntrySize = 6 // 2 octets of identifier + 4 octets of value

	// Setting identifiers (https://httpwg.org/specs/rfc7540.html#SettingValues)
	settingHeaderTableSize      uint16 = 0x1
	settingEnablePush           uint16 = 0x2
	settingMaxConcurrentStreams uint16 = 0x3
	settingInitialWindowSize    uint16 = 0x4
	settingMaxFrameSize         uint16 = 0x5
	settingMaxHeaderListSize    uint16 = 0x6
)

// Settings is the SETTINGS frame payload: a list of identifier/value pairs
// the sender uses to convey connection configuration (RFC 7540 section 6.5).
type Settings struct {
	ack bool

	headerTableSizeSet   bool
	HeaderTableSize      uint32
	DisablePush          bool
	EnablePushValue      uint32
	enablePushSet        bool
	maxConcurrentSet     bool
	MaxConcurrentStreams uint32
	initialWindowSet     bool
	InitialWindowSize    uint32
	maxFrameSizeSet      bool
	MaxFrameSize         uint32
	maxHeaderListSet     bool
	MaxHeaderListSize    uint32
}

func (st *Settings) Type() FrameType {
	return FrameSettings
}

// Reset resets settings to their RFC-default values; only explicitly set
// parameters are ever re-encoded, tracked by the *Set fields.
func (st *Settings) Reset() {
	st.ack = false
	st.headerTableSizeSet = false
	st.HeaderTableSize = defaultHeaderTableSize
	st.DisablePush = false
	st.EnablePushValue = 1
	st.enablePushSet = false
	st.maxConcurrentSet = false
	st.MaxConcurrentStreams = defaultConcurrentStreams
	st.initialWindowSet = false
	st.InitialWindowSize = defaultWindowSize
	st.maxFrameSizeSet = false
	st.MaxFrameSize = defaultMaxFrameSize
	st.maxHeaderListSet = false
	st.MaxHeaderListSize = 0
}

// Ack reports whether this is a SETTINGS acknowledgement.
func (st *Settings) Ack() bool {
	return st.ack
}

// SetAck marks the frame as a SETTINGS acknowledgement; an ack carries no
// payload regardless of any parameter setters called before it.
func (st *Settings) SetAck(value bool) {
	st.ack = value
}

func (st *Settings) SetHeaderTableSize(v uint32) {
	st.HeaderTableSize = v
	st.headerTableSizeSet = true
}

// SetDisablePush sets SETTINGS_ENABLE_PUSH, encoding disable as 0 and
// enable as 1 on the wire.
func (st *Settings) SetDisablePush(disable bool) {
	st.DisablePush = disable
	if disable {
		st.EnablePushValue = 0
	} else {
		st.EnablePushValue = 1
	}
	st.enablePushSet = true
}

func (st *Settings) SetMaxConcurrentStreams(v uint32) {
	st.MaxConcurrentStreams = v
	st.maxConcurrentSet = true
}

func (st *Settings) SetInitialWindowSize(v uint32) {
	st.InitialWindowSize = v
	st.initialWindowSet = true
}

func (st *Settings) SetMaxFrameSize(v uint32) {
	st.MaxFrameSize = v
	st.maxFrameSizeSet = true
}

func (st *Settings) SetMaxHeaderListSize(v uint32) {
	st.MaxHeaderListSize = v
	st.maxHeaderListSet = true
}

// Deserialize parses the SETTINGS frame payload. A payload length that is
// not a multiple of 6 is rejected as a KindProtocolViolation error, which
// maps to PROTOCOL_ERROR.
func (st *Settings) Deserialize(frh *FrameHeader) error {
	st.ack = frh.Flags().Has(FlagAck)

	if st.ack {
		if len(frh.payload) != 0 {
			return protocolViolation("settings: ACK frame carries a non-empty payload (%d octets)", len(frh.payload))
		}
		return nil
	}

	if len(frh.payload)%settingEntrySize != 0 {
		return protocolViolation("settings: payload length %d is not a multiple of %d", len(frh.payload), settingEntrySize)
	}

	for i := 0; i+settingEntrySize <= len(frh.payload); i += settingEntrySize {
		entry := frh.payload[i : i+settingEntrySize]
		id := uint16(entry[0])<<8 | uint16(entry[1])
		value := wireutil.BytesToUint32(entry[2:])

		switch id {
		case settingHeaderTableSize:
			st.SetHeaderTableSize(value)
		case settingEnablePush:
			st.EnablePushValue = value
			st.DisablePush = value == 0
			st.enablePushSet = true
		case settingMaxConcurrentStreams:
			st.SetMaxConcurrentStreams(value)
		case settingInitialWindowSize:
			st.SetInitialWindowSize(value)
		case settingMaxFrameSize:
			st.SetMaxFrameSize(value)
		case settingMaxHeaderListSize:
			st.SetMaxHeaderListSize(value)
		default:
			// unknown setting identifiers are ignored, RFC 7540 section 6.5.2
		}
	}

	return nil
}

// Serialize encodes only the parameters that were explicitly set.
func (st *Settings) Serialize(frh *FrameHeader) {
	if st.ack {
		frh.SetFlags(frh.Flags().Add(FlagAck))
		frh.setPayload(nil)
		return
	}

	payload := frh.payload[:0]

	if st.headerTableSizeSet {
		payload = appendSetting(payload, settingHeaderTableSize, st.HeaderTableSize)
	}
	if st.enablePushSet {
		payload = appendSetting(payload, settingEnablePush, st.EnablePushValue)
	}
	if st.maxConcurrentSet {
		payload = appendSetting(payload, settingMaxConcurrentStreams, st.MaxConcurrentStreams)
	}
	if st.initialWindowSet {
		payload = appendSetting(payload, settingInitialWindowSize, st.InitialWindowSize)
	}
	if st.maxFrameSizeSet {
		payload = appendSetting(payload, settingMaxFrameSize, st.MaxFrameSize)
	}
	if st.maxHeaderListSet {
		payload = appendSetting(payload, settingMaxHeaderListSize, st.MaxHeaderListSize)
	}

	frh.setPayload(payload)
}

func appendSetting(dst []byte, id uint16, value uint32) []byte {
	dst = append(dst, byte(id>>8), byte(id))
	return wireutil.AppendUint32Bytes(dst, value)
}
