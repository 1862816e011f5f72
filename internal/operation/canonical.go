package operation

import (
	language "github.com/hanpama/fedgraph/internal/language"
)

// Canonical renders the bound operation as normalized GraphQL text:
// fragments are inlined, skipped selections are gone and merged fields
// appear once. Selections narrowed to another type are wrapped in inline
// fragments. Equal operations render to equal text.
func (op *Operation) Canonical() string {
	return language.Format(op.Document())
}

// Document returns the bound operation as a query document.
func (op *Operation) Document() *language.QueryDocument {
	def := &language.OperationDefinition{
		Operation:           op.Kind,
		Name:                op.Name,
		VariableDefinitions: op.Variables,
		SelectionSet:        op.selectionSet(op.RootType, op.Roots),
	}
	return &language.QueryDocument{Operations: language.OperationList{def}}
}

func (op *Operation) selectionSet(enclosing string, ids []FieldID) language.SelectionSet {
	var out language.SelectionSet
	fragments := make(map[string]*language.InlineFragment)
	for _, id := range ids {
		f := op.Fields[id]
		sel := &language.Field{
			Alias:     f.ResponseKey,
			Name:      f.Name,
			Arguments: f.Arguments,
		}
		if len(f.Children) > 0 {
			sel.SelectionSet = op.selectionSet(f.NamedType(), f.Children)
		}
		if f.ParentType == enclosing {
			out = append(out, sel)
			continue
		}
		frag, ok := fragments[f.ParentType]
		if !ok {
			frag = &language.InlineFragment{TypeCondition: f.ParentType}
			fragments[f.ParentType] = frag
			out = append(out, frag)
		}
		frag.SelectionSet = append(frag.SelectionSet, sel)
	}
	return out
}
