package h2wire

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/domsolutions/h2wire/wireutil"
)

const testStr = "make fasthttp great again"

func TestFrameHeaderWriteTo(t *testing.T) {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	data := AcquireFrame(FrameData).(*Data)
	frh.SetBody(data)

	n, err := io.WriteString(data, testStr)
	require.NoError(t, err)
	require.Equal(t, len(testStr), n)

	var bf bytes.Buffer
	bw := bufio.NewWriter(&bf)
	_, err = frh.WriteTo(bw)
	require.NoError(t, err)
	require.NoError(t, bw.Flush())

	require.Equal(t, testStr, string(bf.Bytes()[9:]))
}

func TestFrameHeaderReadFrom(t *testing.T) {
	var h [9]byte
	var bf bytes.Buffer
	br := bufio.NewReader(&bf)

	wireutil.Uint24ToBytes(h[:3], uint32(len(testStr)))

	n, err := bf.Write(h[:9])
	require.NoError(t, err)
	require.Equal(t, 9, n)

	n, err = io.WriteString(&bf, testStr)
	require.NoError(t, err)
	require.Equal(t, len(testStr), n)

	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	nn, err := frh.ReadFrom(br)
	require.NoError(t, err)
	require.Equal(t, int64(len(testStr)+9), nn)
	require.Equal(t, FrameData, frh.Type())

	data := frh.Body().(*Data)
	require.Equal(t, testStr, string(data.Data()))
}

// RFC 7540 section 4.1 example frame: length=238, type=HEADERS, flags=0x25,
// stream=1.
func TestFrameHeaderParseValues(t *testing.T) {
	header := []byte{0x00, 0x00, 0xEE, 0x01, 0x25, 0x00, 0x00, 0x00, 0x01}

	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	frh.parseValues(header)

	require.Equal(t, 238, frh.Len())
	require.Equal(t, FrameHeaders, frh.Type())
	require.Equal(t, FrameFlags(0x25), frh.Flags())
	require.Equal(t, uint32(1), frh.Stream())
}

func TestFrameHeaderUnknownTypeIsIgnored(t *testing.T) {
	var bf bytes.Buffer
	var h [9]byte
	wireutil.Uint24ToBytes(h[:3], 3)
	h[3] = 0xFF // unknown type
	bf.Write(h[:])
	bf.Write([]byte{1, 2, 3})

	br := bufio.NewReader(&bf)
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	_, err := frh.ReadFrom(br)
	require.ErrorIs(t, err, errUnknownFrameType)
}

func TestFrameHeaderRejectsOversizedPayload(t *testing.T) {
	var bf bytes.Buffer
	var h [9]byte
	wireutil.Uint24ToBytes(h[:3], defaultMaxLen+1)
	h[3] = byte(FrameData)
	bf.Write(h[:])
	bf.Write(make([]byte, defaultMaxLen+1))

	br := bufio.NewReader(&bf)
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	_, err := frh.ReadFrom(br)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	require.Equal(t, KindProtocolViolation, decodeErr.Kind)
}
