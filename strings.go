package h2wire

// Pseudo-header names, used by cmd/h2wiredump to pull out request/response
// summaries from a decoded header list.
var (
	StringPath      = []byte(":path")
	StringStatus    = []byte(":status")
	StringAuthority = []byte(":authority")
	StringScheme    = []byte(":scheme")
	StringMethod    = []byte(":method")
)
