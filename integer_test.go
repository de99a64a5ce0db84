package h2wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeIntRejectsSixOctetEncoding(t *testing.T) {
	// prefix octet (N=8, saturated) followed by five continuation octets:
	// four with the continuation bit set and a terminating fifth. Six
	// octets total, one more than this package accepts.
	b := []byte{0xff, 0x80, 0x80, 0x80, 0x80, 0x01}
	_, _, err := decodeInt(8, b)
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, KindCompressionError, de.Kind)
}

func TestDecodeIntAcceptsFiveOctetEncoding(t *testing.T) {
	// prefix octet followed by four continuation octets, the last
	// terminating: five octets total, the accepted boundary.
	b := []byte{0xff, 0x80, 0x80, 0x80, 0x01}
	value, consumed, err := decodeInt(8, b)
	require.NoError(t, err)
	require.Equal(t, 5, consumed)
	require.Greater(t, value, uint64(0))
}
