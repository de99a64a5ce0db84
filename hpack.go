package h2wire

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
)

// Decoder is a stateful HPACK decoder: it consumes one complete header
// block (the concatenation of a HEADERS/PUSH_PROMISE fragment and any
// CONTINUATION fragments up to END_HEADERS) and mutates its dynamic table
// as a side effect. One Decoder belongs to one HTTP/2 connection and is
// not safe for concurrent use — see the connection's single-writer rule.
type Decoder struct {
	table *DynamicTable
}

// NewDecoder returns a Decoder backed by table. Multiple Decoder/Encoder
// pairs on the same connection should share one DynamicTable pair as
// described by the "Connection HPACK state" data model entry — in
// practice decode and encode directions each keep their own dynamic table,
// since HPACK's compression context is unidirectional.
func NewDecoder(table *DynamicTable) *Decoder {
	return &Decoder{table: table}
}

// Decode parses block and returns the ordered header list it represents.
// Any error aborts the whole block: spec section 4.5 requires that a
// failing representation never partially commits, so on error the
// returned list is always nil and the caller MUST treat the connection as
// failed (COMPRESSION_ERROR).
func (d *Decoder) Decode(block []byte) (*HeaderList, error) {
	list := NewHeaderList()
	if err := d.DecodeInto(block, list); err != nil {
		return nil, err
	}
	return list, nil
}

// DecodeInto is like Decode but appends into an existing, possibly reused,
// HeaderList.
func (d *Decoder) DecodeInto(block []byte, list *HeaderList) error {
	pos := 0
	sizeUpdates := 0
	sawRepresentation := false

	for pos < len(block) {
		b0 := block[pos]

		switch {
		case b0&0x80 != 0: // 1xxxxxxx: indexed header field
			idx, n, err := decodeInt(7, block[pos:])
			if err != nil {
				return err
			}
			pos += n

			if idx == 0 {
				return compressionError("hpack: indexed header field with index 0")
			}
			name, value, err := d.table.Get(idx)
			if err != nil {
				return err
			}
			list.Append(name, value, false)
			sawRepresentation = true

		case b0&0xC0 == 0x40: // 01xxxxxx: literal with incremental indexing
			name, value, n, err := d.decodeLiteralNameValue(block[pos:], 6)
			if err != nil {
				return err
			}
			pos += n

			d.table.Insert(name, value)
			list.Append(name, value, false)
			sawRepresentation = true

		case b0&0xE0 == 0x20: // 001xxxxx: dynamic table size update
			if sawRepresentation {
				return compressionError("hpack: dynamic table size update after a header representation")
			}
			sizeUpdates++
			if sizeUpdates > 2 {
				return compressionError("hpack: more than two dynamic table size updates in one block")
			}

			newMax, n, err := decodeInt(5, block[pos:])
			if err != nil {
				return err
			}
			pos += n

			if err := d.table.SetMaxSize(int(newMax)); err != nil {
				return err
			}

		case b0&0xF0 == 0x10: // 0001xxxx: literal never indexed
			name, value, n, err := d.decodeLiteralNameValue(block[pos:], 4)
			if err != nil {
				return err
			}
			pos += n

			list.Append(name, value, true)
			sawRepresentation = true

		case b0&0xF0 == 0x00: // 0000xxxx: literal without indexing
			name, value, n, err := d.decodeLiteralNameValue(block[pos:], 4)
			if err != nil {
				return err
			}
			pos += n

			list.Append(name, value, false)
			sawRepresentation = true

		default:
			return compressionError("hpack: unrecognized representation pattern 0x%02x", b0)
		}
	}

	return nil
}

// decodeLiteralNameValue decodes the common literal shape shared by
// incremental-indexing, never-indexed and without-indexing representations:
// an integer with the given prefix selecting either index 0 (both name and
// value follow as string literals) or a table index for the name (only the
// value follows).
func (d *Decoder) decodeLiteralNameValue(b []byte, prefix uint) (name, value []byte, consumed int, err error) {
	idx, n, err := decodeInt(prefix, b)
	if err != nil {
		return nil, nil, 0, err
	}
	consumed = n

	if idx == 0 {
		name, n, err = decodeStringLiteral(b[consumed:])
		if err != nil {
			return nil, nil, 0, err
		}
		consumed += n
	} else {
		name, err = d.table.GetName(idx)
		if err != nil {
			return nil, nil, 0, err
		}
	}

	value, n, err = decodeStringLiteral(b[consumed:])
	if err != nil {
		return nil, nil, 0, err
	}
	consumed += n

	return name, value, consumed, nil
}

// decodeStringLiteral decodes one HPACK string literal (RFC 7541 section
// 5.2) starting at b[0]: a Huffman flag plus a prefix-7 length, followed by
// that many octets, Huffman-decoded if the flag was set.
func decodeStringLiteral(b []byte) (value []byte, consumed int, err error) {
	if len(b) == 0 {
		return nil, 0, compressionError("hpack: truncated string literal")
	}

	huffman := b[0]&0x80 != 0

	length, n, err := decodeInt(7, b)
	if err != nil {
		return nil, 0, err
	}

	if uint64(len(b)-n) < length {
		return nil, 0, compressionError("hpack: string literal declares length %d, only %d octets remain", length, len(b)-n)
	}

	if huffman {
		it := newBitIter(b[n:]).take(int(length))
		value, err = huffmanDecode(nil, it)
		if err != nil {
			return nil, 0, err
		}
	} else {
		value = append([]byte(nil), b[n:n+int(length)]...)
	}

	return value, n + int(length), nil
}

// Encoder is the symmetric HPACK encoder: present to pin the wire contract
// shared with Decoder and to let round-trip tests re-serialize what they
// decoded.
type Encoder struct {
	table *DynamicTable
}

// NewEncoder returns an Encoder backed by table.
func NewEncoder(table *DynamicTable) *Encoder {
	return &Encoder{table: table}
}

// AppendField appends the representation for hf to dst, choosing the
// smallest representation the current tables allow: indexed if both name
// and value are already present, literal-with-incremental-indexing with an
// indexed name otherwise, or a fully literal representation as a last
// resort. Fields marked sensitive always use literal-never-indexed.
func (e *Encoder) AppendField(dst []byte, hf *HeaderField) []byte {
	name, value := hf.NameBytes(), hf.ValueBytes()

	idx, nameOnly, found := e.findField(name, value)

	if hf.IsSensitive() {
		return e.appendLiteral(dst, 0x10, 4, idx, found, name, value, false)
	}

	if found && !nameOnly {
		n := len(dst)
		dst = appendInt(dst, 7, idx)
		dst[n] |= 0x80
		return dst
	}

	return e.appendLiteral(dst, 0x40, 6, idx, nameOnly, name, value, true)
}

// AppendFieldWithoutIndexing is like AppendField but never inserts into the
// dynamic table, for callers that want the literal-without-indexing
// representation explicitly.
func (e *Encoder) AppendFieldWithoutIndexing(dst []byte, hf *HeaderField) []byte {
	name, value := hf.NameBytes(), hf.ValueBytes()
	idx, nameOnly, found := e.findField(name, value)
	if found && !nameOnly {
		n := len(dst)
		dst = appendInt(dst, 7, idx)
		dst[n] |= 0x80
		return dst
	}
	return e.appendLiteral(dst, 0x00, 4, idx, nameOnly, name, value, false)
}

func (e *Encoder) appendLiteral(dst []byte, patternBits byte, prefixN uint, idx uint64, nameIndexed bool, name, value []byte, insert bool) []byte {
	n := len(dst)
	if nameIndexed {
		dst = appendInt(dst, prefixN, idx)
	} else {
		dst = appendInt(dst, prefixN, 0)
	}
	dst[n] |= patternBits

	if !nameIndexed {
		dst = appendStringLiteral(dst, name)
	}
	dst = appendStringLiteral(dst, value)

	if insert {
		e.table.Insert(name, value)
	}

	return dst
}

// AppendSizeUpdate appends a dynamic-table-size-update representation and
// applies it to the encoder's own table. Per RFC 7541 section 4.2, callers
// must emit this before any header representation in the block.
func (e *Encoder) AppendSizeUpdate(dst []byte, newMax int) ([]byte, error) {
	if err := e.table.SetMaxSize(newMax); err != nil {
		return dst, err
	}
	n := len(dst)
	dst = appendInt(dst, 5, uint64(newMax))
	dst[n] |= 0x20
	return dst, nil
}

// appendStringLiteral appends s as an HPACK string literal, Huffman-coding
// it whenever that is strictly shorter.
func appendStringLiteral(dst, s []byte) []byte {
	if hlen := huffmanEncodedLen(s); hlen < len(s) {
		n := len(dst)
		dst = appendInt(dst, 7, uint64(hlen))
		dst[n] |= 0x80
		return huffmanEncode(dst, s)
	}

	dst = appendInt(dst, 7, uint64(len(s)))
	return append(dst, s...)
}

// findField looks for (name, value) in the static table, then the dynamic
// table, falling back to a name-only match. Dynamic entries are compared by
// xxhash first and by bytes.Equal only when the hashes agree; the hashes are
// computed on each call over every entry scanned, and no separate index
// structure tracks the Insert/evictTo mutations of the dynamic table.
func (e *Encoder) findField(name, value []byte) (index uint64, nameOnly bool, found bool) {
	for i, se := range staticTable {
		if se.name == string(name) && se.value == string(value) {
			return uint64(i + 1), false, true
		}
	}

	wantNV := hashPair(name, value)
	wantName := xxhash.Sum64(name)

	for i, de := range e.table.entries {
		if hashPair(de.name, de.value) == wantNV && bytes.Equal(de.name, name) && bytes.Equal(de.value, value) {
			return uint64(staticTableSize + 1 + i), false, true
		}
	}

	for i, se := range staticTable {
		if se.name == string(name) {
			return uint64(i + 1), true, true
		}
	}

	for i, de := range e.table.entries {
		if xxhash.Sum64(de.name) == wantName && bytes.Equal(de.name, name) {
			return uint64(staticTableSize + 1 + i), true, true
		}
	}

	return 0, false, false
}

func hashPair(name, value []byte) uint64 {
	d := xxhash.New()
	d.Write(name)
	d.Write([]byte{0})
	d.Write(value)
	return d.Sum64()
}
