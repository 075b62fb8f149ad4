package querystate

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalid is returned by parsers for values they cannot accept.
var ErrInvalid = errors.New("querystate: invalid value")

// Parser converts a typed value to and from its query string form.
type Parser[T any] interface {
	Parse(s string) (T, error)
	Serialize(v T) string
	Eq(a, b T) bool
}

// Funcs adapts plain functions to a Parser.
type Funcs[T any] struct {
	ParseFunc     func(string) (T, error)
	SerializeFunc func(T) string
	EqFunc        func(a, b T) bool
}

func (f Funcs[T]) Parse(s string) (T, error) { return f.ParseFunc(s) }
func (f Funcs[T]) Serialize(v T) string     { return f.SerializeFunc(v) }
func (f Funcs[T]) Eq(a, b T) bool           { return f.EqFunc(a, b) }

type intParser struct {
	min int
}

func (p intParser) Parse(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalid, s)
	}
	if n < p.min {
		return 0, fmt.Errorf("%w: %d is below %d", ErrInvalid, n, p.min)
	}
	return n, nil
}

func (intParser) Serialize(v int) string { return strconv.Itoa(v) }
func (intParser) Eq(a, b int) bool       { return a == b }

type stringParser struct{}

func (stringParser) Parse(s string) (string, error) { return s, nil }
func (stringParser) Serialize(v string) string      { return v }
func (stringParser) Eq(a, b string) bool            { return a == b }

var (
	// Int parses any base-10 integer.
	Int Parser[int] = intParser{min: math.MinInt}

	// PositiveInt parses integers >= 1, as used by page and perPage.
	PositiveInt Parser[int] = intParser{min: 1}

	// String passes values through unchanged.
	String Parser[string] = stringParser{}
)

type arrayParser struct {
	item Parser[string]
	sep  string
}

// ArrayOf parses sep-separated lists. Empty items are dropped and items the
// item parser rejects are skipped rather than failing the whole list.
func ArrayOf(item Parser[string], sep string) Parser[[]string] {
	return arrayParser{item: item, sep: sep}
}

func (p arrayParser) Parse(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, p.sep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		v, err := p.item.Parse(part)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (p arrayParser) Serialize(v []string) string {
	parts := make([]string, len(v))
	for i, item := range v {
		parts[i] = p.item.Serialize(item)
	}
	return strings.Join(parts, p.sep)
}

func (p arrayParser) Eq(a, b []string) bool {
	return slices.Equal(a, b)
}
