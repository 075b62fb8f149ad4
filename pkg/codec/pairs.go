package codec

import (
	"errors"
	"iter"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/vango-dev/tabledash/pkg/table"
)

// Prefix is the key prefix of the triplet layout.
const Prefix = "filters"

// Pairs yields the triplet key/value pairs for filters in order. List values
// yield one "[value][]" pair per item. The sequence can be ranged over any
// number of times.
func Pairs(filters []table.FilterEntry) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for i, f := range filters {
			base := Prefix + "[" + strconv.Itoa(i) + "]"
			if !yield(base+"[column]", f.ID) {
				return
			}
			if !yield(base+"[operator]", string(f.Operator)) {
				return
			}
			if f.Value.IsList() {
				for _, item := range f.Value.Items() {
					if !yield(base+"[value][]", item) {
						return
					}
				}
				continue
			}
			if !yield(base+"[value]", f.Value.String()) {
				return
			}
		}
	}
}

// EncodeSegment returns the URL-encoded query segment for filters, keeping
// the pair order of Pairs.
func EncodeSegment(filters []table.FilterEntry) string {
	var b strings.Builder
	for k, v := range Pairs(filters) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	}
	return b.String()
}

// AddTo appends the triplet pairs to q.
func AddTo(q url.Values, filters []table.FilterEntry) {
	for k, v := range Pairs(filters) {
		q.Add(k, v)
	}
}

var tripletKey = regexp.MustCompile(`^filters\[(\d+)\]\[(column|operator|value)\](\[\])?$`)

var errMalformed = errors.New("codec: malformed filter segment")

type partial struct {
	column, operator string
	scalar           string
	list             []string
	isList, hasValue bool
}

// DecodeSegment parses a triplet segment produced by EncodeSegment. Any
// malformed pair, unknown column, or operator the column does not allow
// yields nil. Keys outside the filters prefix are ignored.
func DecodeSegment(segment string, allowed table.Columns) []table.FilterEntry {
	out, err := decodeSegment(segment, allowed)
	if err != nil {
		return nil
	}
	return out
}

func decodeSegment(segment string, allowed table.Columns) ([]table.FilterEntry, error) {
	segment = strings.TrimPrefix(segment, "?")
	if segment == "" {
		return nil, nil
	}
	byIndex := map[int]*partial{}
	for _, pair := range strings.Split(segment, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawVal, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, errMalformed
		}
		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			return nil, errMalformed
		}
		if !strings.HasPrefix(key, Prefix+"[") {
			continue
		}
		m := tripletKey.FindStringSubmatch(key)
		if m == nil {
			return nil, errMalformed
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, errMalformed
		}
		p := byIndex[idx]
		if p == nil {
			p = &partial{}
			byIndex[idx] = p
		}
		switch m[2] {
		case "column":
			p.column = val
		case "operator":
			p.operator = val
		case "value":
			p.hasValue = true
			if m[3] != "" {
				p.isList = true
				p.list = append(p.list, val)
			} else {
				p.scalar = val
			}
		}
	}

	indexes := make([]int, 0, len(byIndex))
	for i := range byIndex {
		indexes = append(indexes, i)
	}
	slices.Sort(indexes)

	out := make([]table.FilterEntry, 0, len(indexes))
	for _, i := range indexes {
		p := byIndex[i]
		col, ok := allowed.Find(p.column)
		if !ok || !p.hasValue {
			return nil, errMalformed
		}
		op, err := table.ParseOperator(p.operator)
		if err != nil || !col.AllowsOperator(op) {
			return nil, errMalformed
		}
		value := table.Scalar(p.scalar)
		if p.isList {
			value = table.List(p.list...)
		}
		if entry, keep := sanitize(col, table.FilterEntry{ID: col.ID, Operator: op, Value: value}); keep {
			out = append(out, entry)
		}
	}
	return out, nil
}

// sanitize drops option values the column does not declare. It reports
// false when nothing filterable remains.
func sanitize(col table.Column, f table.FilterEntry) (table.FilterEntry, bool) {
	if col.Variant.HasOptions() && len(col.Options) > 0 {
		var kept []string
		for _, v := range f.Value.Items() {
			if col.HasOption(v) {
				kept = append(kept, v)
			}
		}
		if f.Value.IsList() {
			f.Value = table.List(kept...)
		} else if len(kept) == 0 {
			f.Value = table.Scalar("")
		}
	}
	if f.Value.IsEmpty() {
		return f, false
	}
	return f, true
}
