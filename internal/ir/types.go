package ir

import (
	"sort"
	"strings"
)

// Project is the supergraph composed from every discovered subgraph.
type Project struct {
	Subgraphs   []*Subgraph            `json:"subgraphs"`
	Schema      *Schema                `json:"schema"`
	Definitions map[string]*Definition `json:"definitions"`
}

type Schema struct {
	QueryType        string `json:"queryType,omitempty"`
	MutationType     string `json:"mutationType,omitempty"`
	SubscriptionType string `json:"subscriptionType,omitempty"`
}

// Subgraph is one independently deployed GraphQL service.
// Index is the declaration order and the stable tie-break for planning.
type Subgraph struct {
	ID          SubgraphID `json:"id"`
	Name        string     `json:"name"`
	Index       int        `json:"index"`
	URL         string     `json:"url,omitempty"`
	FilePath    string     `json:"filePath,omitempty"`
	Definitions []string   `json:"definitions"`
}

// SubgraphID is a unique identifier for a subgraph, e.g. "accounts".
type SubgraphID string

type Definition struct {
	Object    *ObjectDefinition    `json:"object,omitempty"`
	Interface *InterfaceDefinition `json:"interface,omitempty"`
	Union     *UnionDefinition     `json:"union,omitempty"`
	Input     *InputDefinition     `json:"input,omitempty"`
	Enum      *EnumDefinition      `json:"enum,omitempty"`
	Scalar    *ScalarDefinition    `json:"scalar,omitempty"`
}

type ObjectDefinition struct {
	Name         string                      `json:"name"`
	Description  string                      `json:"description,omitempty"`
	Fields       map[string]*FieldDefinition `json:"fields"`
	Interfaces   map[string]*InterfaceImpl   `json:"interfaces"`
	Keys         []*KeyDefinition            `json:"keys"`
	Inaccessible bool                        `json:"inaccessible,omitempty"`
}

type InterfaceDefinition struct {
	Name          string                      `json:"name"`
	Description   string                      `json:"description,omitempty"`
	Fields        map[string]*FieldDefinition `json:"fields"`
	Interfaces    map[string]*InterfaceImpl   `json:"interfaces"`
	PossibleTypes []string                    `json:"possibleTypes"`
	Inaccessible  bool                        `json:"inaccessible,omitempty"`
}

type UnionDefinition struct {
	Name         string                          `json:"name"`
	Description  string                          `json:"description,omitempty"`
	Types        map[string]*UnionTypeDefinition `json:"types"`
	Inaccessible bool                            `json:"inaccessible,omitempty"`
}

type UnionTypeDefinition struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

type InputDefinition struct {
	Name        string                           `json:"name"`
	Description string                           `json:"description,omitempty"`
	InputValues map[string]*InputValueDefinition `json:"inputValues"`
}

type EnumDefinition struct {
	Name        string                          `json:"name"`
	Description string                          `json:"description,omitempty"`
	Values      map[string]*EnumValueDefinition `json:"values"`
}

type EnumValueDefinition struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Index       int          `json:"index"`
	Deprecation *Deprecation `json:"deprecation,omitempty"`
}

type ScalarDefinition struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	SpecifiedByURL string `json:"specifiedByURL,omitempty"`
}

type InterfaceImpl struct {
	Interface string `json:"interface"`
	Index     int    `json:"index"`
}

// KeyDefinition is one @key declared for a type by a subgraph.
// Keys keep subgraph declaration order, then directive order.
type KeyDefinition struct {
	Subgraph   SubgraphID `json:"subgraph"`
	Fields     string     `json:"fields"`
	Resolvable bool       `json:"resolvable"`
}

type FieldDefinition struct {
	Name         string                         `json:"name"`
	Description  string                         `json:"description,omitempty"`
	Index        int                            `json:"index"`
	Args         map[string]*ArgumentDefinition `json:"args"`
	Type         *TypeExpr                      `json:"fieldType"`
	Deprecation  *Deprecation                   `json:"deprecation,omitempty"`
	Inaccessible bool                           `json:"inaccessible,omitempty"`
	Owners       []*FieldOwner                  `json:"owners"`
}

// FieldOwner records how one subgraph declares a field.
type FieldOwner struct {
	Subgraph  SubgraphID `json:"subgraph"`
	External  bool       `json:"external,omitempty"`
	Shareable bool       `json:"shareable,omitempty"`
	Requires  string     `json:"requires,omitempty"`
	Cost      int        `json:"cost"`
	Extension string     `json:"extension,omitempty"`
}

// Resolves reports whether the owner can serve the field.
func (o *FieldOwner) Resolves() bool { return !o.External }

type ArgumentDefinition struct {
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Index        int          `json:"index"`
	DefaultValue string       `json:"defaultValue,omitempty"`
	Type         *TypeExpr    `json:"type"`
	Deprecation  *Deprecation `json:"deprecation,omitempty"`
}

type InputValueDefinition struct {
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Index        int          `json:"index"`
	DefaultValue string       `json:"defaultValue,omitempty"`
	Type         *TypeExpr    `json:"type"`
	Deprecation  *Deprecation `json:"deprecation,omitempty"`
}

type Deprecation struct {
	Reason string `json:"reason,omitempty"`
}

// TypeExpr represents a GraphQL type expression (e.g. String, [String!], String!).
type TypeExpr struct {
	Kind   TypeExprKind `json:"kind"`
	OfType *TypeExpr    `json:"ofType,omitempty"`
	Named  string       `json:"named,omitempty"`
}

type TypeExprKind string

const (
	TypeExprKindNamed   TypeExprKind = "NAMED"
	TypeExprKindList    TypeExprKind = "LIST"
	TypeExprKindNonNull TypeExprKind = "NON_NULL"
)

func (t *TypeExpr) unwrap() string {
	if t == nil {
		return ""
	}
	if t.Kind == TypeExprKindNamed {
		return t.Named
	}
	return t.OfType.unwrap()
}

func (t *TypeExpr) String() string {
	if t == nil {
		return "Unknown"
	}
	switch t.Kind {
	case TypeExprKindNamed:
		return t.Named
	case TypeExprKindList:
		return "[" + t.OfType.String() + "]"
	case TypeExprKindNonNull:
		return strings.TrimSuffix(t.OfType.String(), "!") + "!"
	default:
		return "Unknown"
	}
}

// SubgraphByID returns the subgraph with the given id or nil.
func (p *Project) SubgraphByID(id SubgraphID) *Subgraph {
	for _, s := range p.Subgraphs {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func orderedFields(fields map[string]*FieldDefinition) []*FieldDefinition {
	out := make([]*FieldDefinition, 0, len(fields))
	for _, f := range fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (e *ObjectDefinition) OrderedFields() []*FieldDefinition    { return orderedFields(e.Fields) }
func (e *InterfaceDefinition) OrderedFields() []*FieldDefinition { return orderedFields(e.Fields) }

func (e *EnumDefinition) OrderedValues() []*EnumValueDefinition {
	values := make([]*EnumValueDefinition, 0, len(e.Values))
	for _, val := range e.Values {
		values = append(values, val)
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Index < values[j].Index })
	return values
}

func (e *InputDefinition) OrderedInputValues() []*InputValueDefinition {
	values := make([]*InputValueDefinition, 0, len(e.InputValues))
	for _, val := range e.InputValues {
		values = append(values, val)
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Index < values[j].Index })
	return values
}

func (f *FieldDefinition) OrderedArgs() []*ArgumentDefinition {
	args := make([]*ArgumentDefinition, 0, len(f.Args))
	for _, a := range f.Args {
		args = append(args, a)
	}
	sort.Slice(args, func(i, j int) bool { return args[i].Index < args[j].Index })
	return args
}

func (e *UnionDefinition) OrderedTypes() []string {
	members := make([]*UnionTypeDefinition, 0, len(e.Types))
	for _, m := range e.Types {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Index < members[j].Index })
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}
