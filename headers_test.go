package h2wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// HEADERS payload with FlagPriority set: exclusive stream dependency 31,
// weight 255, followed by a one-byte header-block fragment.
func TestHeadersDeserializeEmbeddedPriorityExclusiveBit(t *testing.T) {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.SetFlags(frh.Flags().Add(FlagPriority))
	frh.payload = []byte{0x80, 0x00, 0x00, 0x1F, 0xFF, 0x82}

	h := &Headers{}
	require.NoError(t, h.Deserialize(frh))
	require.True(t, h.Exclusive())
	require.Equal(t, uint32(31), h.Stream())
	require.Equal(t, byte(255), h.Weight())
	require.Equal(t, []byte{0x82}, h.Headers())
}

func TestHeadersSerializeRoundTripsExclusiveBit(t *testing.T) {
	h := &Headers{}
	h.SetExclusive(true)
	h.SetStream(31)
	h.SetWeight(255)
	h.SetHeaders([]byte{0x82})

	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	h.Serialize(frh)
	require.True(t, frh.Flags().Has(FlagPriority))

	var decoded Headers
	require.NoError(t, decoded.Deserialize(frh))
	require.True(t, decoded.Exclusive())
	require.Equal(t, uint32(31), decoded.Stream())
	require.Equal(t, byte(255), decoded.Weight())
}
