// Package codec encodes table filter and sort state for the URL.
//
// Two layouts are supported. The triplet layout spreads each filter over
// indexed keys:
//
//	filters[0][column]=name&filters[0][operator]=like&filters[0][value]=jo
//
// which is what the remote API accepts. The JSON layout stores the whole
// sequence under a single query key and is what the table controller binds
// to the browser URL.
//
// Decoding never fails loudly. A segment that is absent, malformed, or names
// a column or operator outside the allowed set decodes to nothing, and the
// caller falls back to its default.
package codec
