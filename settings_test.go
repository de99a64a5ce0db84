package h2wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// SETTINGS payload declaring MAX_CONCURRENT_STREAMS=3 and ENABLE_PUSH=5, an
// out-of-range value for a boolean-shaped parameter that a strict RFC 7540
// reading would reject but this decoder accepts as-is.
func TestSettingsDeserializeAcceptsOutOfRangeEnablePush(t *testing.T) {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.payload = []byte{
		0x00, 0x03, 0x00, 0x00, 0x00, 0x03,
		0x00, 0x02, 0x00, 0x00, 0x00, 0x05,
	}

	st := &Settings{}
	require.NoError(t, st.Deserialize(frh))
	require.Equal(t, uint32(3), st.MaxConcurrentStreams)
	require.Equal(t, uint32(5), st.EnablePushValue)
	require.False(t, st.DisablePush)
}

func TestSettingsDeserializeRejectsMisalignedPayload(t *testing.T) {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.payload = []byte{0x00, 0x01, 0x00, 0x00}

	st := &Settings{}
	err := st.Deserialize(frh)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, KindProtocolViolation, de.Kind)
}

func TestSettingsAckRejectsNonEmptyPayload(t *testing.T) {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.SetFlags(frh.Flags().Add(FlagAck))
	frh.payload = []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00}

	st := &Settings{}
	err := st.Deserialize(frh)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, KindProtocolViolation, de.Kind)
}

func TestSettingsSerializeRoundTripsEnablePushValue(t *testing.T) {
	st := &Settings{}
	st.EnablePushValue = 5
	st.enablePushSet = true

	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	st.Serialize(frh)

	var decoded Settings
	require.NoError(t, decoded.Deserialize(frh))
	require.Equal(t, uint32(5), decoded.EnablePushValue)
}
