package h2wire

// Unified 1-based HPACK table indexing (RFC 7541 section 2.3.3): 1..61
// addresses the 61-entry static table, 62.. addresses the per-connection
// dynamic table, with 62 always the most recently inserted entry.

const staticTableSize = 61

// staticEntry is a read-only (name, value) pair from the static table.
type staticEntry struct {
	name, value string
}

// staticTable is the RFC 7541 Appendix A table, indexed 1..61 (index 0 of
// this slice is entry 1).
var staticTable = [staticTableSize]staticEntry{
	{":authority", ""},
	{":method", "GET"},
	{":method", "POST"},
	{":path", "/"},
	{":path", "/index.html"},
	{":scheme", "http"},
	{":scheme", "https"},
	{":status", "200"},
	{":status", "204"},
	{":status", "206"},
	{":status", "304"},
	{":status", "400"},
	{":status", "404"},
	{":status", "500"},
	{"accept-charset", ""},
	{"accept-encoding", "gzip, deflate"},
	{"accept-language", ""},
	{"accept-ranges", ""},
	{"accept", ""},
	{"access-control-allow-origin", ""},
	{"age", ""},
	{"allow", ""},
	{"authorization", ""},
	{"cache-control", ""},
	{"content-disposition", ""},
	{"content-encoding", ""},
	{"content-language", ""},
	{"content-length", ""},
	{"content-location", ""},
	{"content-range", ""},
	{"content-type", ""},
	{"cookie", ""},
	{"date", ""},
	{"etag", ""},
	{"expect", ""},
	{"expires", ""},
	{"from", ""},
	{"host", ""},
	{"if-match", ""},
	{"if-modified-since", ""},
	{"if-none-match", ""},
	{"if-range", ""},
	{"if-unmodified-since", ""},
	{"last-modified", ""},
	{"link", ""},
	{"location", ""},
	{"max-forwards", ""},
	{"proxy-authenticate", ""},
	{"proxy-authorization", ""},
	{"range", ""},
	{"referer", ""},
	{"refresh", ""},
	{"retry-after", ""},
	{"server", ""},
	{"set-cookie", ""},
	{"strict-transport-security", ""},
	{"transfer-encoding", ""},
	{"user-agent", ""},
	{"vary", ""},
	{"via", ""},
	{"www-authenticate", ""},
}

// dynamicEntry is one entry of the per-connection dynamic table.
type dynamicEntry struct {
	name, value []byte
}

// entrySizeOverhead is the octet overhead RFC 7541 section 4.1's "Entry
// Size" attributes to a table entry beyond its raw content; accountedSize
// adds it to the name and value lengths.
const entrySizeOverhead = 32

func accountedSize(name, value []byte) int {
	return len(name) + len(value) + entrySizeOverhead
}

// DynamicTable is a per-connection FIFO of HPACK header entries with
// size-based eviction, per RFC 7541 section 2.3.2. The zero value is not
// usable; use NewDynamicTable.
type DynamicTable struct {
	entries []dynamicEntry // entries[0] is the most recently inserted (index 62)
	size    int            // sum of accountedSize over entries
	maxSize int            // current SETTINGS_HEADER_TABLE_SIZE-bounded limit
	limit   int            // header_table_size_limit negotiated for the connection
}

// NewDynamicTable constructs a dynamic table whose size may never exceed
// limit (the peer's negotiated SETTINGS_HEADER_TABLE_SIZE). maxSize starts
// equal to limit, as RFC 7541 section 4.2 requires before any explicit
// size-update representation is seen.
func NewDynamicTable(limit int) *DynamicTable {
	return &DynamicTable{maxSize: limit, limit: limit}
}

// Len returns the number of entries currently in the table.
func (t *DynamicTable) Len() int {
	return len(t.entries)
}

// Size returns the current accounted size (sum of entry sizes).
func (t *DynamicTable) Size() int {
	return t.size
}

// MaxSize returns the table's current size bound.
func (t *DynamicTable) MaxSize() int {
	return t.maxSize
}

// Get resolves a unified 1-based index: 1..61 from the static table,
// 62..61+Len() from the dynamic table. Index 0 and out-of-range indices are
// decoding errors per RFC 7541 section 6.1.
func (t *DynamicTable) Get(index uint64) (name, value []byte, err error) {
	if index == 0 {
		return nil, nil, compressionError("hpack: index 0 is not a valid table index")
	}
	if index <= staticTableSize {
		e := staticTable[index-1]
		return []byte(e.name), []byte(e.value), nil
	}

	di := index - staticTableSize - 1
	if di >= uint64(len(t.entries)) {
		return nil, nil, compressionError("hpack: index %d is out of range (static=%d, dynamic=%d)", index, staticTableSize, len(t.entries))
	}

	e := t.entries[di]
	return e.name, e.value, nil
}

// GetName is like Get but only the name is needed (literal representations
// that reuse a name but supply a fresh value).
func (t *DynamicTable) GetName(index uint64) (name []byte, err error) {
	name, _, err = t.Get(index)
	return name, err
}

// Insert adds (name, value) as the new most-recent entry (index 62),
// evicting from the oldest end first until the size invariant holds. If
// the new entry alone exceeds maxSize, the table is left empty and the
// entry is not inserted, per RFC 7541 section 4.4.
func (t *DynamicTable) Insert(name, value []byte) {
	newSize := accountedSize(name, value)

	t.evictTo(t.maxSize - newSize)

	if newSize > t.maxSize {
		return
	}

	entry := dynamicEntry{
		name:  append([]byte(nil), name...),
		value: append([]byte(nil), value...),
	}
	t.entries = append([]dynamicEntry{entry}, t.entries...)
	t.size += newSize
}

// SetMaxSize updates the table's size bound and evicts until the size
// invariant holds. newMax above the peer-negotiated limit is a decoding
// error and leaves the table unchanged.
func (t *DynamicTable) SetMaxSize(newMax int) error {
	if newMax > t.limit {
		return compressionError("hpack: dynamic table size update %d exceeds negotiated limit %d", newMax, t.limit)
	}

	t.maxSize = newMax
	t.evictTo(t.maxSize)

	return nil
}

// evictTo evicts from the oldest (tail) end until t.size <= budget.
func (t *DynamicTable) evictTo(budget int) {
	if budget < 0 {
		budget = 0
	}
	for t.size > budget && len(t.entries) > 0 {
		last := len(t.entries) - 1
		t.size -= accountedSize(t.entries[last].name, t.entries[last].value)
		t.entries = t.entries[:last]
	}
}
