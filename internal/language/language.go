package language

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseFieldSet parses a federation field set such as `id organization { id }`.
// Only plain fields are accepted.
func ParseFieldSet(fields string) (SelectionSet, error) {
	if strings.TrimSpace(fields) == "" {
		return nil, fmt.Errorf("empty field set")
	}
	doc, err := parser.ParseQuery(&ast.Source{Name: "fieldset", Input: "{" + fields + "}"})
	if err != nil {
		return nil, err
	}
	if len(doc.Operations) != 1 || len(doc.Fragments) != 0 {
		return nil, fmt.Errorf("invalid field set %q", fields)
	}
	sel := doc.Operations[0].SelectionSet
	if err := checkPlainFields(sel); err != nil {
		return nil, fmt.Errorf("invalid field set %q: %w", fields, err)
	}
	return sel, nil
}

func checkPlainFields(sel SelectionSet) error {
	for _, s := range sel {
		f, ok := s.(*Field)
		if !ok {
			return fmt.Errorf("fragments are not allowed")
		}
		if f.Alias != "" && f.Alias != f.Name {
			return fmt.Errorf("aliases are not allowed")
		}
		if len(f.Arguments) > 0 || len(f.Directives) > 0 {
			return fmt.Errorf("arguments and directives are not allowed")
		}
		if err := checkPlainFields(f.SelectionSet); err != nil {
			return err
		}
	}
	return nil
}

// Format renders a query document with two-space indentation.
func Format(doc *QueryDocument) string {
	var b strings.Builder
	formatter.NewFormatter(&b, formatter.WithIndent("  ")).FormatQueryDocument(doc)
	return b.String()
}

// FormatCompact renders a query document without insignificant whitespace.
func FormatCompact(doc *QueryDocument) string {
	var b strings.Builder
	formatter.NewFormatter(&b, formatter.WithCompacted()).FormatQueryDocument(doc)
	return b.String()
}
