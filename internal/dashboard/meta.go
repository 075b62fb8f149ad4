package dashboard

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/tabledash/internal/errors"
	"github.com/vango-dev/tabledash/pkg/table"
)

//go:embed columns.yaml
var columnsYAML []byte

// ColumnMeta is the static description of one column.
type ColumnMeta struct {
	ID            string           `yaml:"id"`
	Accessor      string           `yaml:"accessor"`
	Label         string           `yaml:"label"`
	Placeholder   string           `yaml:"placeholder"`
	Variant       table.Variant    `yaml:"variant"`
	Operators     []table.Operator `yaml:"operators"`
	OptionsFrom   string           `yaml:"optionsFrom"`
	Unit          string           `yaml:"unit"`
	Cell          string           `yaml:"cell"`
	EnableFilter  bool             `yaml:"enableFilter"`
	EnableSorting bool             `yaml:"enableSorting"`
	EnableHiding  bool             `yaml:"enableHiding"`
}

// Metadata is the parsed columns.yaml.
type Metadata struct {
	Columns []ColumnMeta   `yaml:"columns"`
	Genders []table.Option `yaml:"genders"`
}

// LoadMetadata parses the embedded column metadata.
func LoadMetadata() (Metadata, error) {
	return ParseMetadata(columnsYAML)
}

// ParseMetadata parses column metadata from YAML.
func ParseMetadata(data []byte) (Metadata, error) {
	var m Metadata
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Metadata{}, errors.New("T103").Wrap(err)
	}
	for _, c := range m.Columns {
		if c.Cell != "" && cellFuncs[c.Cell] == nil {
			return Metadata{}, errors.New("T103").
				WithDetail(fmt.Sprintf("column %q: unknown cell renderer %q", c.ID, c.Cell))
		}
		if c.EnableFilter && !c.Variant.Valid() {
			return Metadata{}, errors.New("T103").
				WithDetail(fmt.Sprintf("column %q: filterable column needs a variant", c.ID))
		}
	}
	if err := Columns(m, nil).Validate(); err != nil {
		return Metadata{}, errors.New("T103").Wrap(err)
	}
	return m, nil
}

var cellFuncs = map[string]func(accessor string) table.CellFunc{
	"capitalize": func(accessor string) table.CellFunc {
		return func(r table.Row) string {
			s, _ := r[accessor].(string)
			return capitalize(s)
		}
	},
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// Columns builds the table columns from meta. Columns whose optionsFrom is
// "genders" take genderOptions, which is nil while the options load.
func Columns(meta Metadata, genderOptions []table.Option) table.Columns {
	cols := make(table.Columns, 0, len(meta.Columns))
	for _, m := range meta.Columns {
		accessor := m.Accessor
		if accessor == "" {
			accessor = m.ID
		}
		col := table.Column{
			ID:            m.ID,
			Accessor:      accessor,
			Label:         m.Label,
			Placeholder:   m.Placeholder,
			Variant:       m.Variant,
			Operators:     m.Operators,
			Unit:          m.Unit,
			EnableFilter:  m.EnableFilter,
			EnableSorting: m.EnableSorting,
			EnableHiding:  m.EnableHiding,
		}
		if m.OptionsFrom == "genders" {
			col.Options = genderOptions
		}
		if fn := cellFuncs[m.Cell]; fn != nil {
			col.Cell = fn(accessor)
		}
		cols = append(cols, col)
	}
	return cols
}
