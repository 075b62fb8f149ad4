// Package errors provides structured, actionable errors for tabledash.
//
// Every error carries a code (e.g. "T101") that maps to a registered
// template with a category, a short message and a longer explanation.
// Library packages return plain wrapped errors; the command line wraps
// them with a code so the user gets a hint instead of a stack of
// fmt.Errorf prefixes.
//
// # Error Categories
//
//   - config: tabledash.json problems
//   - fetch: remote API failures
//   - codec: malformed query state that could not be recovered
//   - protocol: live session frames the server did not understand
//   - cli: command line usage errors
//
// # Usage
//
//	err := errors.New("T101").
//	    WithDetail("port 70000 is out of range").
//	    WithSuggestion("Pick a port between 1 and 65535")
//
//	fmt.Fprint(os.Stderr, err.Format())
package errors
