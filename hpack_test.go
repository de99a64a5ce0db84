package h2wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func checkField(t *testing.T, list *HeaderList, i int, k, v string) {
	t.Helper()
	require.Greater(t, list.Len(), i)
	hf := list.At(i)
	require.Equal(t, k, hf.Name())
	require.Equal(t, v, hf.Value())
}

func checkDynamic(t *testing.T, table *DynamicTable, i int, k, v string) {
	t.Helper()
	require.Greater(t, table.Len(), i)
	name, value, err := table.Get(staticTableSize + 1 + uint64(i))
	require.NoError(t, err)
	require.Equal(t, k, string(name))
	require.Equal(t, v, string(value))
}

// The three vectors below are RFC 7541 Appendix C.5's "Response Examples
// without Huffman Coding", exercised against a 256-octet dynamic table as
// the RFC's own walkthrough specifies.
func TestDecoderResponseExamplesWithoutHuffman(t *testing.T) {
	table := NewDynamicTable(256)
	dec := NewDecoder(table)

	block := []byte{
		0x48, 0x03, 0x33, 0x30, 0x32, 0x58,
		0x07, 0x70, 0x72, 0x69, 0x76, 0x61,
		0x74, 0x65, 0x61, 0x1d, 0x4d, 0x6f,
		0x6e, 0x2c, 0x20, 0x32, 0x31, 0x20,
		0x4f, 0x63, 0x74, 0x20, 0x32, 0x30,
		0x31, 0x33, 0x20, 0x32, 0x30, 0x3a,
		0x31, 0x33, 0x3a, 0x32, 0x31, 0x20,
		0x47, 0x4d, 0x54, 0x6e, 0x17, 0x68,
		0x74, 0x74, 0x70, 0x73, 0x3a, 0x2f,
		0x2f, 0x77, 0x77, 0x77, 0x2e, 0x65,
		0x78, 0x61, 0x6d, 0x70, 0x6c, 0x65,
		0x2e, 0x63, 0x6f, 0x6d,
	}

	list, err := dec.Decode(block)
	require.NoError(t, err)

	checkField(t, list, 0, ":status", "302")
	checkField(t, list, 1, "cache-control", "private")
	checkField(t, list, 2, "date", "Mon, 21 Oct 2013 20:13:21 GMT")
	checkField(t, list, 3, "location", "https://www.example.com")

	checkDynamic(t, table, 0, "location", "https://www.example.com")
	checkDynamic(t, table, 1, "date", "Mon, 21 Oct 2013 20:13:21 GMT")
	checkDynamic(t, table, 2, "cache-control", "private")
	checkDynamic(t, table, 3, ":status", "302")
	require.Equal(t, 222, table.Size())

	block = []byte{0x48, 0x03, 0x33, 0x30, 0x37, 0xc1, 0xc0, 0xbf}
	list, err = dec.Decode(block)
	require.NoError(t, err)

	checkField(t, list, 0, ":status", "307")
	checkField(t, list, 1, "cache-control", "private")
	checkField(t, list, 2, "date", "Mon, 21 Oct 2013 20:13:21 GMT")
	checkField(t, list, 3, "location", "https://www.example.com")

	checkDynamic(t, table, 0, ":status", "307")
	checkDynamic(t, table, 1, "location", "https://www.example.com")
	checkDynamic(t, table, 2, "date", "Mon, 21 Oct 2013 20:13:21 GMT")
	checkDynamic(t, table, 3, "cache-control", "private")
	require.Equal(t, 222, table.Size())

	block = []byte{
		0x88, 0xc1, 0x61, 0x1d, 0x4d, 0x6f,
		0x6e, 0x2c, 0x20, 0x32, 0x31, 0x20,
		0x4f, 0x63, 0x74, 0x20, 0x32, 0x30,
		0x31, 0x33, 0x20, 0x32, 0x30, 0x3a,
		0x31, 0x33, 0x3a, 0x32, 0x32, 0x20,
		0x47, 0x4d, 0x54, 0xc0, 0x5a, 0x04,
		0x67, 0x7a, 0x69, 0x70, 0x77, 0x38,
		0x66, 0x6f, 0x6f, 0x3d, 0x41, 0x53,
		0x44, 0x4a, 0x4b, 0x48, 0x51, 0x4b,
		0x42, 0x5a, 0x58, 0x4f, 0x51, 0x57,
		0x45, 0x4f, 0x50, 0x49, 0x55, 0x41,
		0x58, 0x51, 0x57, 0x45, 0x4f, 0x49,
		0x55, 0x3b, 0x20, 0x6d, 0x61, 0x78,
		0x2d, 0x61, 0x67, 0x65, 0x3d, 0x33,
		0x36, 0x30, 0x30, 0x3b, 0x20, 0x76,
		0x65, 0x72, 0x73, 0x69, 0x6f, 0x6e,
		0x3d, 0x31,
	}
	list, err = dec.Decode(block)
	require.NoError(t, err)

	checkField(t, list, 0, ":status", "200")
	checkField(t, list, 1, "cache-control", "private")
	checkField(t, list, 2, "date", "Mon, 21 Oct 2013 20:13:22 GMT")
	checkField(t, list, 3, "location", "https://www.example.com")
	checkField(t, list, 4, "content-encoding", "gzip")
	checkField(t, list, 5, "set-cookie", "foo=ASDJKHQKBZXOQWEOPIUAXQWEOIU; max-age=3600; version=1")

	checkDynamic(t, table, 0, "set-cookie", "foo=ASDJKHQKBZXOQWEOPIUAXQWEOIU; max-age=3600; version=1")
	checkDynamic(t, table, 1, "content-encoding", "gzip")
	checkDynamic(t, table, 2, "date", "Mon, 21 Oct 2013 20:13:22 GMT")
	require.Equal(t, 215, table.Size())
}

// RFC 7541 Appendix C.6's Huffman-coded counterpart of the same exchange.
func TestDecoderResponseExamplesWithHuffman(t *testing.T) {
	table := NewDynamicTable(256)
	dec := NewDecoder(table)

	block := []byte{
		0x48, 0x82, 0x64, 0x02, 0x58, 0x85,
		0xae, 0xc3, 0x77, 0x1a, 0x4b, 0x61,
		0x96, 0xd0, 0x7a, 0xbe, 0x94, 0x10,
		0x54, 0xd4, 0x44, 0xa8, 0x20, 0x05,
		0x95, 0x04, 0x0b, 0x81, 0x66, 0xe0,
		0x82, 0xa6, 0x2d, 0x1b, 0xff, 0x6e,
		0x91, 0x9d, 0x29, 0xad, 0x17, 0x18,
		0x63, 0xc7, 0x8f, 0x0b, 0x97, 0xc8,
		0xe9, 0xae, 0x82, 0xae, 0x43, 0xd3,
	}

	list, err := dec.Decode(block)
	require.NoError(t, err)

	checkField(t, list, 0, ":status", "302")
	checkField(t, list, 1, "cache-control", "private")
	checkField(t, list, 2, "date", "Mon, 21 Oct 2013 20:13:21 GMT")
	checkField(t, list, 3, "location", "https://www.example.com")
	require.Equal(t, 222, table.Size())

	block = []byte{0x48, 0x83, 0x64, 0x0e, 0xff, 0xc1, 0xc0, 0xbf}
	list, err = dec.Decode(block)
	require.NoError(t, err)

	checkField(t, list, 0, ":status", "307")
	checkField(t, list, 1, "cache-control", "private")
	checkField(t, list, 2, "date", "Mon, 21 Oct 2013 20:13:21 GMT")
	checkField(t, list, 3, "location", "https://www.example.com")
	require.Equal(t, 222, table.Size())

	block = []byte{
		0x88, 0xc1, 0x61, 0x96, 0xd0, 0x7a,
		0xbe, 0x94, 0x10, 0x54, 0xd4, 0x44,
		0xa8, 0x20, 0x05, 0x95, 0x04, 0x0b,
		0x81, 0x66, 0xe0, 0x84, 0xa6, 0x2d,
		0x1b, 0xff, 0xc0, 0x5a, 0x83, 0x9b,
		0xd9, 0xab, 0x77, 0xad, 0x94, 0xe7,
		0x82, 0x1d, 0xd7, 0xf2, 0xe6, 0xc7,
		0xb3, 0x35, 0xdf, 0xdf, 0xcd, 0x5b,
		0x39, 0x60, 0xd5, 0xaf, 0x27, 0x08,
		0x7f, 0x36, 0x72, 0xc1, 0xab, 0x27,
		0x0f, 0xb5, 0x29, 0x1f, 0x95, 0x87,
		0x31, 0x60, 0x65, 0xc0, 0x03, 0xed,
		0x4e, 0xe5, 0xb1, 0x06, 0x3d, 0x50, 0x07,
	}
	list, err = dec.Decode(block)
	require.NoError(t, err)

	checkField(t, list, 0, ":status", "200")
	checkField(t, list, 1, "cache-control", "private")
	checkField(t, list, 2, "date", "Mon, 21 Oct 2013 20:13:22 GMT")
	checkField(t, list, 3, "location", "https://www.example.com")
	checkField(t, list, 4, "content-encoding", "gzip")
	checkField(t, list, 5, "set-cookie", "foo=ASDJKHQKBZXOQWEOPIUAXQWEOIU; max-age=3600; version=1")
	require.Equal(t, 215, table.Size())
}

// Encoding then decoding the same fields must reconstruct the original
// list, regardless of whether individual string literals end up
// Huffman-coded.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	encTable := NewDynamicTable(256)
	decTable := NewDynamicTable(256)
	enc := NewEncoder(encTable)
	dec := NewDecoder(decTable)

	fields := []struct{ name, value string }{
		{":status", "302"},
		{"cache-control", "private"},
		{"date", "Mon, 21 Oct 2013 20:13:21 GMT"},
		{"location", "https://www.example.com"},
	}

	var block []byte
	for _, f := range fields {
		hf := AcquireHeaderField()
		hf.SetName(f.name)
		hf.SetValue(f.value)
		block = enc.AppendField(block, hf)
		ReleaseHeaderField(hf)
	}

	list, err := dec.Decode(block)
	require.NoError(t, err)
	require.Equal(t, len(fields), list.Len())
	for i, f := range fields {
		checkField(t, list, i, f.name, f.value)
	}

	// A second block referencing the now-shared static/dynamic context
	// should indexed-reference the entries the first block just inserted.
	block = nil
	for _, f := range fields {
		hf := AcquireHeaderField()
		hf.SetName(f.name)
		hf.SetValue(f.value)
		block = enc.AppendField(block, hf)
		ReleaseHeaderField(hf)
	}
	require.Len(t, block, len(fields)) // every field now fits an indexed (1-octet) representation

	list, err = dec.Decode(block)
	require.NoError(t, err)
	require.Equal(t, len(fields), list.Len())
	for i, f := range fields {
		checkField(t, list, i, f.name, f.value)
	}
}

func TestDecoderRejectsSizeUpdateAfterRepresentation(t *testing.T) {
	table := NewDynamicTable(4096)
	dec := NewDecoder(table)

	block := []byte{0x82, 0x20} // indexed :method GET, then a size update
	_, err := dec.Decode(block)
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, KindCompressionError, de.Kind)
}

func TestDecoderRejectsOutOfRangeIndex(t *testing.T) {
	table := NewDynamicTable(4096)
	dec := NewDecoder(table)

	_, err := dec.Decode([]byte{0xff, 0x00}) // index 127 with an empty dynamic table
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, KindCompressionError, de.Kind)
}
