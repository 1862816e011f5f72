package operation

import (
	"sort"
	"strings"

	language "github.com/hanpama/fedgraph/internal/language"
	schema "github.com/hanpama/fedgraph/internal/schema"
)

// Bind selects the operation from doc and binds it to the schema. Variable
// values are coerced first so that @skip and @include can be evaluated.
// Binding errors are returned as a language.ErrorList.
func Bind(s *schema.Schema, doc *language.QueryDocument, operationName string, variables map[string]any) (*Operation, error) {
	def, err := getOperation(doc, operationName)
	if err != nil {
		return nil, err
	}
	rootType, err := rootTypeFor(s, def)
	if err != nil {
		return nil, err
	}
	vars, err := CoerceVariables(s, def, variables)
	if err != nil {
		return nil, err
	}

	b := &binder{
		schema:    s,
		doc:       doc,
		vars:      vars,
		defined:   make(map[string]bool, len(def.VariableDefinitions)),
		children:  make(map[childKey]FieldID),
		fragments: make(map[string]bool),
		op: &Operation{
			Name:      def.Name,
			Kind:      def.Operation,
			RootType:  rootType,
			Variables: def.VariableDefinitions,
		},
	}
	for _, v := range def.VariableDefinitions {
		b.defined[v.Variable] = true
	}
	b.collect(NoParent, rootType, def.SelectionSet)
	if len(b.errs) > 0 {
		return nil, b.errs
	}
	if len(b.op.Roots) == 0 {
		return nil, language.ErrorList{language.ErrorPosf(def.Position, "operation selects no fields")}
	}
	return b.op, nil
}

// getOperation retrieves the operation from the document
func getOperation(doc *language.QueryDocument, operationName string) (*language.OperationDefinition, error) {
	if len(doc.Operations) == 0 {
		return nil, language.Errorf("no operation provided")
	}
	if operationName == "" {
		if len(doc.Operations) > 1 {
			return nil, language.Errorf("operation name is required when the document contains multiple operations")
		}
		return doc.Operations[0], nil
	}
	if op := doc.Operations.ForName(operationName); op != nil {
		return op, nil
	}
	return nil, language.Errorf("unknown operation %q", operationName)
}

func rootTypeFor(s *schema.Schema, def *language.OperationDefinition) (string, error) {
	var name string
	switch def.Operation {
	case language.Query:
		name = s.QueryType
	case language.Mutation:
		name = s.MutationType
	case language.Subscription:
		name = s.SubscriptionType
	}
	if name == "" || s.Types[name] == nil {
		return "", language.ErrorPosf(def.Position, "schema does not support %s operations", def.Operation)
	}
	return name, nil
}

type childKey struct {
	parent      FieldID
	parentType  string
	responseKey string
}

type binder struct {
	schema    *schema.Schema
	doc       *language.QueryDocument
	vars      map[string]any
	defined   map[string]bool
	op        *Operation
	children  map[childKey]FieldID
	fragments map[string]bool // fragments on the current spread stack
	errs      language.ErrorList
}

func (b *binder) errorf(pos *language.Position, format string, args ...any) {
	b.errs = append(b.errs, language.ErrorPosf(pos, format, args...))
}

// collect adds the fields of selectionSet, selected on parentType, to parent.
func (b *binder) collect(parent FieldID, parentType string, selectionSet language.SelectionSet) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !b.shouldInclude(sel.Directives) {
				continue
			}
			b.addField(parent, parentType, sel)

		case *language.InlineFragment:
			if !b.shouldInclude(sel.Directives) {
				continue
			}
			narrowed, ok := b.narrow(parentType, sel.TypeCondition, sel.Position)
			if !ok {
				continue
			}
			b.collect(parent, narrowed, sel.SelectionSet)

		case *language.FragmentSpread:
			if !b.shouldInclude(sel.Directives) {
				continue
			}
			fragment := b.doc.Fragments.ForName(sel.Name)
			if fragment == nil {
				b.errorf(sel.Position, "Unknown fragment %q.", sel.Name)
				continue
			}
			if b.fragments[sel.Name] {
				b.errorf(sel.Position, "Cannot spread fragment %q within itself.", sel.Name)
				continue
			}
			if !b.shouldInclude(fragment.Directives) {
				continue
			}
			narrowed, ok := b.narrow(parentType, fragment.TypeCondition, sel.Position)
			if !ok {
				continue
			}
			b.fragments[sel.Name] = true
			b.collect(parent, narrowed, fragment.SelectionSet)
			delete(b.fragments, sel.Name)
		}
	}
}

// narrow returns the type the fragment's selections apply to, or false when
// the fragment can never apply below enclosing.
func (b *binder) narrow(enclosing, condition string, pos *language.Position) (string, bool) {
	if condition == "" || condition == enclosing {
		return enclosing, true
	}
	cond := b.schema.Types[condition]
	if cond == nil || cond.Inaccessible || !b.schema.IsComposite(condition) {
		b.errorf(pos, "Unknown type %q.", condition)
		return "", false
	}
	if !b.schema.IsAbstract(enclosing) {
		return enclosing, b.schema.Implements(enclosing, condition)
	}
	if !b.schema.IsAbstract(condition) {
		return condition, b.schema.Implements(condition, enclosing)
	}
	for _, p := range b.schema.PossibleTypes(condition) {
		if b.schema.Implements(p, enclosing) {
			return condition, true
		}
	}
	return "", false
}

func (b *binder) addField(parent FieldID, parentType string, sel *language.Field) {
	responseKey := sel.Alias
	if responseKey == "" {
		responseKey = sel.Name
	}

	var def *schema.Field
	var typ *schema.TypeRef
	if sel.Name == "__typename" {
		typ = schema.NonNullType(schema.NamedType("String"))
	} else {
		def = b.schema.Types[parentType].Field(sel.Name)
		if def == nil || def.Inaccessible {
			b.errorf(sel.Position, "Cannot query field %q on type %q.", sel.Name, parentType)
			return
		}
		typ = def.Type
	}
	b.checkArguments(parentType, sel, def)

	named := typ.GetNamedType()
	composite := b.schema.IsComposite(named)
	switch {
	case composite && len(sel.SelectionSet) == 0:
		b.errorf(sel.Position, "Field %q of type %q must have a selection of subfields.", sel.Name, typ.String())
		return
	case !composite && len(sel.SelectionSet) > 0:
		b.errorf(sel.Position, "Field %q must not have a selection since type %q has no subfields.", sel.Name, typ.String())
		return
	}

	key := childKey{parent: parent, parentType: parentType, responseKey: responseKey}
	id, exists := b.children[key]
	if exists {
		prev := b.op.Fields[id]
		if prev.Name != sel.Name {
			b.errorf(sel.Position, "Fields %q conflict because %s and %s are different fields.", responseKey, prev.Name, sel.Name)
			return
		}
		if !sameArguments(prev.Arguments, sel.Arguments) {
			b.errorf(sel.Position, "Fields %q conflict because they have differing arguments.", responseKey)
			return
		}
	} else {
		id = FieldID(len(b.op.Fields))
		b.children[key] = id
		b.op.Fields = append(b.op.Fields, &Field{
			ID:          id,
			Parent:      parent,
			ParentType:  parentType,
			Name:        sel.Name,
			ResponseKey: responseKey,
			Arguments:   sel.Arguments,
			Type:        typ,
			Definition:  def,
			Position:    sel.Position,
		})
		if parent == NoParent {
			b.op.Roots = append(b.op.Roots, id)
		} else {
			p := b.op.Fields[parent]
			p.Children = append(p.Children, id)
		}
	}
	if composite {
		b.collect(id, named, sel.SelectionSet)
	}
}

func (b *binder) checkArguments(parentType string, sel *language.Field, def *schema.Field) {
	var defs []*schema.InputValue
	if def != nil {
		defs = def.Arguments
	}
	provided := make(map[string]bool, len(sel.Arguments))
	for _, arg := range sel.Arguments {
		provided[arg.Name] = true
		found := false
		for _, a := range defs {
			if a.Name == arg.Name {
				found = true
				break
			}
		}
		if !found {
			b.errorf(arg.Position, "Unknown argument %q on field \"%s.%s\".", arg.Name, parentType, sel.Name)
		}
		b.checkVariables(arg.Value)
	}
	for _, a := range defs {
		if a.Type.IsNonNull() && a.DefaultValue == "" && !provided[a.Name] {
			b.errorf(sel.Position, "Field %q argument %q of type %q is required, but it was not provided.", sel.Name, a.Name, a.Type.String())
		}
	}
}

func (b *binder) checkVariables(v *language.Value) {
	if v == nil {
		return
	}
	if v.Kind == language.Variable {
		if !b.defined[v.Raw] {
			b.errorf(v.Position, "Variable \"$%s\" is not defined.", v.Raw)
		}
		return
	}
	for _, c := range v.Children {
		b.checkVariables(c.Value)
	}
}

// shouldInclude evaluates @skip and @include.
func (b *binder) shouldInclude(directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := b.directiveArgument(skip, "if").(bool); ok && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := b.directiveArgument(include, "if").(bool); ok && !v {
			return false
		}
	}
	return true
}

func (b *binder) directiveArgument(directive *language.Directive, name string) any {
	arg := directive.Arguments.ForName(name)
	if arg == nil {
		return nil
	}
	b.checkVariables(arg.Value)
	return literalValue(arg.Value, b.vars)
}

func sameArguments(a, b language.ArgumentList) bool {
	if len(a) != len(b) {
		return false
	}
	return argumentsKey(a) == argumentsKey(b)
}

// argumentsKey renders arguments in name order.
func argumentsKey(args language.ArgumentList) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.Name + ":" + arg.Value.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
