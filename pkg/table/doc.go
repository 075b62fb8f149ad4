// Package table holds the value types shared by the data-table packages:
// column definitions, filter and sort entries, and fetch parameters.
//
// Everything here is immutable data. State lives in tablestate, the URL
// encoding in codec, and rendering in tableui.
package table
