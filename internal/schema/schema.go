package schema

import "sort"

// Schema is the composed supergraph: the client-facing type system plus the
// subgraph capabilities the planner chooses from.
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type // All named types keyed by name
	Directives       map[string]*Directive
	Description      string
	Subgraphs        []*Subgraph // In declaration order; Index equals position
	Version          string      // Content hash of the rendered supergraph
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.Types[s.MutationType] }

// GetSubscriptionType returns the root subscription type (may be nil if absent)
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

// IsRootType reports whether name is one of the operation root types.
func (s *Schema) IsRootType(name string) bool {
	return name != "" && (name == s.QueryType || name == s.MutationType || name == s.SubscriptionType)
}

// IsAbstract reports whether name is an interface or a union.
func (s *Schema) IsAbstract(name string) bool {
	t := s.Types[name]
	return t != nil && (t.Kind == TypeKindInterface || t.Kind == TypeKindUnion)
}

// IsComposite reports whether name is an object, interface or union.
func (s *Schema) IsComposite(name string) bool {
	t := s.Types[name]
	return t != nil && (t.Kind == TypeKindObject || t.Kind == TypeKindInterface || t.Kind == TypeKindUnion)
}

// IsInputType reports whether name is a scalar, enum or input object.
func (s *Schema) IsInputType(name string) bool {
	t := s.Types[name]
	return t != nil && (t.Kind == TypeKindScalar || t.Kind == TypeKindEnum || t.Kind == TypeKindInputObject)
}

// PossibleTypes returns the object types name may resolve to, sorted.
func (s *Schema) PossibleTypes(name string) []string {
	t := s.Types[name]
	if t == nil {
		return nil
	}
	switch t.Kind {
	case TypeKindObject:
		return []string{t.Name}
	case TypeKindInterface, TypeKindUnion:
		out := append([]string(nil), t.PossibleTypes...)
		sort.Strings(out)
		return out
	}
	return nil
}

// Implements reports whether object type obj may stand for abstract type name.
func (s *Schema) Implements(obj, name string) bool {
	if obj == name {
		return true
	}
	for _, p := range s.PossibleTypes(name) {
		if p == obj {
			return true
		}
	}
	return false
}

// Subgraph returns the subgraph at index i or nil.
func (s *Schema) Subgraph(i int) *Subgraph {
	if i < 0 || i >= len(s.Subgraphs) {
		return nil
	}
	return s.Subgraphs[i]
}

// Subgraph is a service contributing types and fields to the supergraph.
type Subgraph struct {
	Name  string
	Index int
	URL   string
}

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Fields         []*Field      // For OBJECT and INTERFACE
	Interfaces     []string      // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes  []string      // For INTERFACE and UNION
	EnumValues     []*EnumValue  // For ENUM
	InputFields    []*InputValue // For INPUT_OBJECT
	SpecifiedByURL *string
	Keys           []*EntityKey // For OBJECT; subgraph order, then declaration order
	Inaccessible   bool
}

// Field returns the field named name or nil.
func (t *Type) Field(name string) *Field {
	if t == nil {
		return nil
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// KeysIn returns the resolvable keys the subgraph declares for the type.
func (t *Type) KeysIn(subgraph int) []*EntityKey {
	var out []*EntityKey
	for _, k := range t.Keys {
		if k.Subgraph == subgraph && k.Resolvable {
			out = append(out, k)
		}
	}
	return out
}

// EntityKey is a @key declared by one subgraph.
type EntityKey struct {
	Subgraph   int
	Fields     FieldSet
	Resolvable bool
}

// Field represents a field on an object or interface
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	IsDeprecated      bool
	DeprecationReason string
	Inaccessible      bool
	Resolvers         []*FieldResolver // Subgraphs able to serve the field, by subgraph index
	Meta              bool             // Served by the gateway itself (introspection)
}

// ResolverIn returns the resolver of the field in subgraph i or nil.
func (f *Field) ResolverIn(i int) *FieldResolver {
	for _, r := range f.Resolvers {
		if r.Subgraph == i {
			return r
		}
	}
	return nil
}

// FieldResolver is one subgraph's ability to resolve a field.
type FieldResolver struct {
	Subgraph  int
	Cost      int
	Requires  FieldSet // Sibling fields needed from other subgraphs
	Extension string   // Non-empty for gateway-side extension resolvers
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// Helper functions for TypeRef
func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

func (t *TypeRef) String() string { return renderTypeRef(t) }

func (t *TypeRef) MarshalText() ([]byte, error) { return []byte(renderTypeRef(t)), nil }

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      string // GraphQL literal; empty when absent
	IsDeprecated      bool
	DeprecationReason string
}

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue
	IsRepeatable bool
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }
