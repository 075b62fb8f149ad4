package table

import "fmt"

// Variant is the kind of filter control a column renders.
type Variant int

const (
	VariantNone Variant = iota
	VariantText
	VariantNumber
	VariantRange
	VariantDate
	VariantDateRange
	VariantBoolean
	VariantSelect
	VariantMultiSelect
)

var variantNames = [...]string{
	VariantNone:        "",
	VariantText:        "text",
	VariantNumber:      "number",
	VariantRange:       "range",
	VariantDate:        "date",
	VariantDateRange:   "dateRange",
	VariantBoolean:     "boolean",
	VariantSelect:      "select",
	VariantMultiSelect: "multiSelect",
}

// String returns the wire name of the variant.
func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// Valid reports whether v is one of the filterable variants.
func (v Variant) Valid() bool {
	return v > VariantNone && int(v) < len(variantNames)
}

// HasOptions reports whether the variant picks from a fixed option list.
func (v Variant) HasOptions() bool {
	return v == VariantSelect || v == VariantMultiSelect
}

// ParseVariant parses a wire name such as "multiSelect".
func ParseVariant(s string) (Variant, error) {
	for i, name := range variantNames {
		if name != "" && name == s {
			return Variant(i), nil
		}
	}
	return VariantNone, fmt.Errorf("table: unknown filter variant %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(b []byte) error {
	parsed, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Operator is the comparison applied to a filter value.
type Operator string

const (
	OpLike Operator = "like"
	OpEq   Operator = "eq"
	OpGt   Operator = "gt"
	OpLt   Operator = "lt"
	OpGte  Operator = "gte"
	OpLte  Operator = "lte"
)

// Operators lists every supported operator.
var Operators = []Operator{OpLike, OpEq, OpGt, OpLt, OpGte, OpLte}

// Valid reports whether o is a supported operator.
func (o Operator) Valid() bool {
	switch o {
	case OpLike, OpEq, OpGt, OpLt, OpGte, OpLte:
		return true
	}
	return false
}

// Relational reports whether o orders values rather than matching them.
func (o Operator) Relational() bool {
	switch o {
	case OpGt, OpLt, OpGte, OpLte:
		return true
	}
	return false
}

// ParseOperator parses an operator name.
func ParseOperator(s string) (Operator, error) {
	o := Operator(s)
	if !o.Valid() {
		return "", fmt.Errorf("table: unknown filter operator %q", s)
	}
	return o, nil
}

// DefaultOperator returns the operator a variant uses when the column does
// not configure one.
func DefaultOperator(v Variant) Operator {
	switch v {
	case VariantText:
		return OpLike
	case VariantNumber:
		return OpGte
	case VariantRange, VariantDate, VariantDateRange:
		return OpEq
	default:
		return OpEq
	}
}
