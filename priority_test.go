package h2wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Wire bytes for a PRIORITY frame payload with the exclusive bit set, stream
// dependency 31, weight 255: 80 00 00 1F FF.
func TestPriorityDeserializeExclusiveBit(t *testing.T) {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.payload = []byte{0x80, 0x00, 0x00, 0x1F, 0xFF}

	pry := &Priority{}
	require.NoError(t, pry.Deserialize(frh))
	require.True(t, pry.Exclusive())
	require.Equal(t, uint32(31), pry.Stream())
	require.Equal(t, byte(255), pry.Weight())
}

func TestPrioritySerializeRoundTripsExclusiveBit(t *testing.T) {
	pry := &Priority{}
	pry.SetExclusive(true)
	pry.SetStream(31)
	pry.SetWeight(255)

	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	pry.Serialize(frh)
	require.Equal(t, []byte{0x80, 0x00, 0x00, 0x1F, 0xFF}, frh.payload)

	var decoded Priority
	require.NoError(t, decoded.Deserialize(frh))
	require.True(t, decoded.Exclusive())
	require.Equal(t, uint32(31), decoded.Stream())
	require.Equal(t, byte(255), decoded.Weight())
}

func TestPriorityDeserializeNonExclusive(t *testing.T) {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.payload = []byte{0x00, 0x00, 0x00, 0x1F, 0xFF}

	pry := &Priority{}
	require.NoError(t, pry.Deserialize(frh))
	require.False(t, pry.Exclusive())
	require.Equal(t, uint32(31), pry.Stream())
}
