package operation

import (
	language "github.com/hanpama/fedgraph/internal/language"
	schema "github.com/hanpama/fedgraph/internal/schema"
)

// FieldID identifies a field within one bound operation.
type FieldID int

// NoParent is the parent of root fields.
const NoParent FieldID = -1

// Operation is a bound GraphQL operation. Fields is indexed by FieldID.
type Operation struct {
	Name      string
	Kind      language.Operation
	RootType  string
	Variables language.VariableDefinitionList
	Fields    []*Field
	Roots     []FieldID
}

// Field is one merged field selection.
type Field struct {
	ID          FieldID
	Parent      FieldID
	ParentType  string // Type the field is selected on, after fragment narrowing
	Name        string
	ResponseKey string
	Arguments   language.ArgumentList
	Type        *schema.TypeRef
	Definition  *schema.Field // nil for __typename
	Children    []FieldID
	Position    *language.Position
}

// IsTypename reports whether the field is the __typename meta field.
func (f *Field) IsTypename() bool { return f.Name == "__typename" }

// NamedType returns the innermost type name of the field.
func (f *Field) NamedType() string { return f.Type.GetNamedType() }

// Field returns the field with the given id.
func (op *Operation) Field(id FieldID) *Field { return op.Fields[id] }

// Path returns the response keys from the root to the field.
func (op *Operation) Path(id FieldID) []string {
	var path []string
	for id != NoParent {
		f := op.Fields[id]
		path = append(path, f.ResponseKey)
		id = f.Parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// VariablesUsed returns the variable names referenced by the argument
// lists, in first-use order.
func VariablesUsed(lists ...language.ArgumentList) []string {
	seen := make(map[string]bool)
	var out []string
	var visit func(v *language.Value)
	visit = func(v *language.Value) {
		if v == nil {
			return
		}
		if v.Kind == language.Variable {
			if !seen[v.Raw] {
				seen[v.Raw] = true
				out = append(out, v.Raw)
			}
			return
		}
		for _, c := range v.Children {
			visit(c.Value)
		}
	}
	for _, args := range lists {
		for _, arg := range args {
			visit(arg.Value)
		}
	}
	return out
}
