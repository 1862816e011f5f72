package schema

import (
	"strings"

	language "github.com/hanpama/fedgraph/internal/language"
)

// FieldSet is a parsed @key or @requires selection.
type FieldSet []*FieldSelection

type FieldSelection struct {
	Name     string
	Children FieldSet
}

// ParseFieldSet parses a federation field set such as `id owner { id }`.
func ParseFieldSet(fields string) (FieldSet, error) {
	sel, err := language.ParseFieldSet(fields)
	if err != nil {
		return nil, err
	}
	return fieldSetFromSelection(sel), nil
}

func fieldSetFromSelection(sel language.SelectionSet) FieldSet {
	if len(sel) == 0 {
		return nil
	}
	out := make(FieldSet, 0, len(sel))
	for _, s := range sel {
		f := s.(*language.Field)
		out = append(out, &FieldSelection{Name: f.Name, Children: fieldSetFromSelection(f.SelectionSet)})
	}
	return out
}

func (fs FieldSet) String() string {
	var b strings.Builder
	fs.write(&b)
	return b.String()
}

func (fs FieldSet) write(b *strings.Builder) {
	for i, f := range fs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f.Name)
		if len(f.Children) > 0 {
			b.WriteString(" { ")
			f.Children.write(b)
			b.WriteString(" }")
		}
	}
}

// Names returns the top-level field names.
func (fs FieldSet) Names() []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name
	}
	return out
}

func (fs FieldSet) MarshalText() ([]byte, error) { return []byte(fs.String()), nil }
