package schema

import (
	"context"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/hanpama/fedgraph/internal/ir"
)

// BuildFromIR builds the supergraph schema from the composed ir project.
// Subgraph ownership is kept on fields and types as resolvers and keys.
func BuildFromIR(p *ir.Project) (*Schema, error) {
	s := NewSchema("")
	s.SetQueryType(p.Schema.QueryType).
		SetMutationType(p.Schema.MutationType).
		SetSubscriptionType(p.Schema.SubscriptionType)
	// Builtins
	s.AddType(stringType).
		AddType(intType).
		AddType(floatType).
		AddType(booleanType).
		AddType(idType)
	s.AddDirective(includeDirective).
		AddDirective(skipDirective)

	index := make(map[ir.SubgraphID]int, len(p.Subgraphs))
	for _, sg := range p.Subgraphs {
		index[sg.ID] = len(s.Subgraphs)
		s.AddSubgraph(sg.Name, sg.URL)
	}

	names := make([]string, 0, len(p.Definitions))
	for name := range p.Definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := p.Definitions[name]
		var (
			t   *Type
			err error
		)
		switch {
		case def.Object != nil:
			t, err = buildObject(def.Object, index)
		case def.Interface != nil:
			t, err = buildInterface(def.Interface, index)
		case def.Enum != nil:
			t = buildEnum(def.Enum)
		case def.Input != nil:
			t = buildInput(def.Input)
		case def.Union != nil:
			t = buildUnion(def.Union)
		case def.Scalar != nil:
			if _, builtin := s.Types[name]; builtin {
				continue
			}
			t = buildScalar(def.Scalar)
		}
		if err != nil {
			return nil, err
		}
		if t != nil {
			s.AddType(t)
		}
	}

	s.Version = Version(s)
	return s, nil
}

// Version hashes the rendered supergraph. Equal schemas share a version.
func Version(s *Schema) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(Render(s)))
}

func buildObject(def *ir.ObjectDefinition, index map[ir.SubgraphID]int) (*Type, error) {
	t := NewType(def.Name, TypeKindObject, def.Description)
	t.Inaccessible = def.Inaccessible

	for _, name := range sortedKeys(def.Interfaces) {
		t.AddInterface(name)
	}
	for _, key := range def.Keys {
		fs, err := ParseFieldSet(key.Fields)
		if err != nil {
			return nil, fmt.Errorf("type %s: @key(fields: %q): %w", def.Name, key.Fields, err)
		}
		t.AddKey(&EntityKey{Subgraph: index[key.Subgraph], Fields: fs, Resolvable: key.Resolvable})
	}
	for _, fieldDef := range def.OrderedFields() {
		f, err := buildField(def.Name, fieldDef, index)
		if err != nil {
			return nil, err
		}
		t.AddField(f)
	}
	return t, nil
}

func buildInterface(def *ir.InterfaceDefinition, index map[ir.SubgraphID]int) (*Type, error) {
	t := NewType(def.Name, TypeKindInterface, def.Description)
	t.Inaccessible = def.Inaccessible

	for _, name := range sortedKeys(def.Interfaces) {
		t.AddInterface(name)
	}
	possible := append([]string(nil), def.PossibleTypes...)
	sort.Strings(possible)
	for _, name := range possible {
		t.AddPossibleType(name)
	}
	for _, fieldDef := range def.OrderedFields() {
		f, err := buildField(def.Name, fieldDef, index)
		if err != nil {
			return nil, err
		}
		t.AddField(f)
	}
	return t, nil
}

func buildField(typeName string, def *ir.FieldDefinition, index map[ir.SubgraphID]int) (*Field, error) {
	f := NewField(def.Name, def.Description, buildTypeRef(def.Type))
	f.Inaccessible = def.Inaccessible
	if def.Deprecation != nil {
		f.Deprecate(def.Deprecation.Reason)
	}
	for _, arg := range def.OrderedArgs() {
		f.AddArgument(buildArgumentAsInputValue(arg))
	}
	for _, owner := range def.Owners {
		if !owner.Resolves() {
			continue
		}
		r := &FieldResolver{
			Subgraph:  index[owner.Subgraph],
			Cost:      owner.Cost,
			Extension: owner.Extension,
		}
		if owner.Requires != "" {
			fs, err := ParseFieldSet(owner.Requires)
			if err != nil {
				return nil, fmt.Errorf("field %s.%s: @requires(fields: %q): %w", typeName, def.Name, owner.Requires, err)
			}
			r.Requires = fs
		}
		f.AddResolver(r)
	}
	sort.SliceStable(f.Resolvers, func(i, j int) bool { return f.Resolvers[i].Subgraph < f.Resolvers[j].Subgraph })
	return f, nil
}

func buildEnum(def *ir.EnumDefinition) *Type {
	t := NewType(def.Name, TypeKindEnum, def.Description)
	for _, v := range def.OrderedValues() {
		t.AddEnumValue(buildEnumValue(v))
	}
	return t
}

func buildEnumValue(v *ir.EnumValueDefinition) *EnumValue {
	e := NewEnumValue(v.Name, v.Description)
	if v.Deprecation != nil {
		e.Deprecate(v.Deprecation.Reason)
	}
	return e
}

func buildTypeRef(t *ir.TypeExpr) *TypeRef {
	switch t.Kind {
	case ir.TypeExprKindNamed:
		return &TypeRef{Kind: TypeRefKindNamed, Named: t.Named}
	case ir.TypeExprKindNonNull:
		return &TypeRef{Kind: TypeRefKindNonNull, OfType: buildTypeRef(t.OfType)}
	case ir.TypeExprKindList:
		return &TypeRef{Kind: TypeRefKindList, OfType: buildTypeRef(t.OfType)}
	}
	panic("unreachable")
}

func buildInputValue(v *ir.InputValueDefinition) *InputValue {
	in := NewInputValue(v.Name, v.Description, buildTypeRef(v.Type)).SetDefault(v.DefaultValue)
	if v.Deprecation != nil {
		in.Deprecate(v.Deprecation.Reason)
	}
	return in
}

func buildArgumentAsInputValue(a *ir.ArgumentDefinition) *InputValue {
	in := NewInputValue(a.Name, a.Description, buildTypeRef(a.Type)).SetDefault(a.DefaultValue)
	if a.Deprecation != nil {
		in.Deprecate(a.Deprecation.Reason)
	}
	return in
}

func buildInput(def *ir.InputDefinition) *Type {
	t := NewType(def.Name, TypeKindInputObject, def.Description)
	for _, v := range def.OrderedInputValues() {
		t.AddInputField(buildInputValue(v))
	}
	return t
}

func buildUnion(def *ir.UnionDefinition) *Type {
	t := NewType(def.Name, TypeKindUnion, def.Description)
	t.Inaccessible = def.Inaccessible

	// Sort union type names for deterministic output
	var typeNames []string
	for name := range def.Types {
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	for _, name := range typeNames {
		t.AddPossibleType(name)
	}
	return t
}

func buildScalar(def *ir.ScalarDefinition) *Type {
	t := NewType(def.Name, TypeKindScalar, def.Description)
	if def.SpecifiedByURL != "" {
		t.SetSpecifiedByURL(def.SpecifiedByURL)
	}
	return t
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// BuildFromSubgraphs composes in-memory subgraph SDL into a schema.
func BuildFromSubgraphs(ctx context.Context, subgraphs ...ir.InMemorySubgraph) (*Schema, error) {
	proj, err := ir.Build(ctx, ir.NewInMemoryDiscovery(subgraphs))
	if err != nil {
		return nil, err
	}
	return BuildFromIR(proj)
}
