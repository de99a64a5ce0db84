package h2wire

import "sync"

// HeaderField is one decoded (name, value) pair produced by the HPACK
// decoder, or one pair an encoder is about to write. neverIndexed records
// whether the representation that produced it was "literal never indexed",
// which intermediaries must preserve on re-encode; an endpoint that is not
// an intermediary may otherwise treat it like any other literal.
type HeaderField struct {
	name, value []byte
	sensitive   bool
	neverIndexed bool
}

var headerFieldPool = sync.Pool{
	New: func() interface{} {
		return &HeaderField{}
	},
}

// AcquireHeaderField gets a HeaderField from the pool.
func AcquireHeaderField() *HeaderField {
	return headerFieldPool.Get().(*HeaderField)
}

// ReleaseHeaderField resets hf and returns it to the pool.
func ReleaseHeaderField(hf *HeaderField) {
	hf.Reset()
	headerFieldPool.Put(hf)
}

// Reset clears hf to its zero state.
func (hf *HeaderField) Reset() {
	hf.name = hf.name[:0]
	hf.value = hf.value[:0]
	hf.sensitive = false
	hf.neverIndexed = false
}

// Empty reports whether hf carries neither a name nor a value.
func (hf *HeaderField) Empty() bool {
	return len(hf.name) == 0 && len(hf.value) == 0
}

// Size returns the field's accounted size as RFC 7541 section 4.1 defines
// it for dynamic-table entries: len(name) + len(value) + 32.
func (hf *HeaderField) Size() int {
	return accountedSize(hf.name, hf.value)
}

// CopyTo copies hf's fields to other.
func (hf *HeaderField) CopyTo(other *HeaderField) {
	other.name = append(other.name[:0], hf.name...)
	other.value = append(other.value[:0], hf.value...)
	other.sensitive = hf.sensitive
	other.neverIndexed = hf.neverIndexed
}

// Name returns the field's name without copying. The string aliases hf's
// backing array and is only valid until the next mutation or Reset.
func (hf *HeaderField) Name() string { return b2s(hf.name) }

// Value returns the field's value without copying. The string aliases
// hf's backing array and is only valid until the next mutation or Reset.
func (hf *HeaderField) Value() string { return b2s(hf.value) }

// NameBytes returns the field's name without copying.
func (hf *HeaderField) NameBytes() []byte { return hf.name }

// ValueBytes returns the field's value without copying.
func (hf *HeaderField) ValueBytes() []byte { return hf.value }

// SetName sets the field's name.
func (hf *HeaderField) SetName(name string) { hf.name = append(hf.name[:0], name...) }

// SetValue sets the field's value.
func (hf *HeaderField) SetValue(value string) { hf.value = append(hf.value[:0], value...) }

// SetNameBytes sets the field's name from b.
func (hf *HeaderField) SetNameBytes(b []byte) { hf.name = append(hf.name[:0], b...) }

// SetValueBytes sets the field's value from b.
func (hf *HeaderField) SetValueBytes(b []byte) { hf.value = append(hf.value[:0], b...) }

// IsPseudo reports whether the field is an HTTP/2 pseudo-header (its name
// starts with ':').
func (hf *HeaderField) IsPseudo() bool {
	return len(hf.name) > 0 && hf.name[0] == ':'
}

// IsSensitive reports whether the field was marked with SetSensitive or was
// decoded from a "never indexed" representation.
func (hf *HeaderField) IsSensitive() bool {
	return hf.sensitive || hf.neverIndexed
}

// SetSensitive marks the field as never-indexed: encoders that see this set
// MUST use the literal-never-indexed representation (RFC 7541 section 7.1.3).
func (hf *HeaderField) SetSensitive(v bool) {
	hf.sensitive = v
}

// AppendBytes appends a "name: value" rendering of hf to dst.
func (hf *HeaderField) AppendBytes(dst []byte) []byte {
	dst = append(dst, hf.name...)
	dst = append(dst, ':', ' ')
	dst = append(dst, hf.value...)
	return dst
}

func (hf *HeaderField) String() string {
	return string(hf.AppendBytes(nil))
}

// HeaderList is the ordered, append-only sequence of (name, value) pairs
// decoded from one header block. Duplicate names are permitted and
// preserved in the order they appeared.
type HeaderList struct {
	fields []HeaderField
}

// NewHeaderList returns an empty HeaderList.
func NewHeaderList() *HeaderList {
	return &HeaderList{}
}

// Append adds (name, value) as the newest entry.
func (l *HeaderList) Append(name, value []byte, neverIndexed bool) {
	l.fields = append(l.fields, HeaderField{
		name:         append([]byte(nil), name...),
		value:        append([]byte(nil), value...),
		neverIndexed: neverIndexed,
	})
}

// Len returns the number of fields in the list.
func (l *HeaderList) Len() int {
	return len(l.fields)
}

// At returns the field at position i in insertion order.
func (l *HeaderList) At(i int) *HeaderField {
	return &l.fields[i]
}

// Fields returns the underlying slice in insertion order. Callers must not
// retain it past the next Reset.
func (l *HeaderList) Fields() []HeaderField {
	return l.fields
}

// FindFirst performs a linear scan for the first field named name and
// returns its value. The expected list length is small (RFC 7540 headers),
// so a linear scan is the HPACK decoder's own idiom here.
func (l *HeaderList) FindFirst(name string) (value string, ok bool) {
	for i := range l.fields {
		if l.fields[i].Name() == name {
			return l.fields[i].Value(), true
		}
	}
	return "", false
}

// Reset empties the list for reuse.
func (l *HeaderList) Reset() {
	l.fields = l.fields[:0]
}
