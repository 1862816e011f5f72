package introspection

import (
	language "github.com/hanpama/fedgraph/internal/language"
	schema "github.com/hanpama/fedgraph/internal/schema"
)

const metaSDL = `
"A GraphQL Schema defines the capabilities of a GraphQL server."
type __Schema {
  description: String
  types: [__Type!]!
  queryType: __Type!
  mutationType: __Type
  subscriptionType: __Type
  directives: [__Directive!]!
}

"The fundamental unit of any GraphQL Schema is the type."
type __Type {
  kind: __TypeKind!
  name: String
  description: String
  fields(includeDeprecated: Boolean = false): [__Field!]
  interfaces: [__Type!]
  possibleTypes: [__Type!]
  enumValues(includeDeprecated: Boolean = false): [__EnumValue!]
  inputFields(includeDeprecated: Boolean = false): [__InputValue!]
  ofType: __Type
  specifiedByURL: String
  isOneOf: Boolean
}

type __Field {
  name: String!
  description: String
  args(includeDeprecated: Boolean = false): [__InputValue!]!
  type: __Type!
  isDeprecated: Boolean!
  deprecationReason: String
}

type __InputValue {
  name: String!
  description: String
  type: __Type!
  defaultValue: String
  isDeprecated: Boolean!
  deprecationReason: String
}

type __EnumValue {
  name: String!
  description: String
  isDeprecated: Boolean!
  deprecationReason: String
}

type __Directive {
  name: String!
  description: String
  isRepeatable: Boolean!
  locations: [__DirectiveLocation!]!
  args(includeDeprecated: Boolean = false): [__InputValue!]!
}

enum __TypeKind { SCALAR OBJECT INTERFACE UNION ENUM INPUT_OBJECT LIST NON_NULL }

enum __DirectiveLocation {
  QUERY MUTATION SUBSCRIPTION FIELD FRAGMENT_DEFINITION FRAGMENT_SPREAD
  INLINE_FRAGMENT VARIABLE_DEFINITION SCHEMA SCALAR OBJECT FIELD_DEFINITION
  ARGUMENT_DEFINITION INTERFACE UNION ENUM ENUM_VALUE INPUT_OBJECT
  INPUT_FIELD_DEFINITION
}
`

var metaDoc = mustParse(metaSDL)

func mustParse(sdl string) *language.SchemaDocument {
	doc, err := language.ParseSchema("introspection.graphql", sdl)
	if err != nil {
		panic(err)
	}
	return doc
}

// Extend returns a copy of the schema with the introspection types and the
// __schema and __type root fields. The root fields are marked Meta: the
// gateway answers them without contacting a subgraph.
func Extend(original *schema.Schema) *schema.Schema {
	extended := *original
	extended.Types = make(map[string]*schema.Type, len(original.Types)+len(metaDoc.Definitions))
	for name, typ := range original.Types {
		extended.Types[name] = typ
	}
	for _, def := range metaDoc.Definitions {
		extended.Types[def.Name] = metaType(def)
	}

	query := extended.GetQueryType()
	if query == nil {
		return &extended
	}
	root := *query
	root.Fields = append(append(make([]*schema.Field, 0, len(query.Fields)+2), query.Fields...),
		&schema.Field{
			Name:        "__schema",
			Description: "Access the current type schema of this server.",
			Type:        schema.NonNullType(schema.NamedType("__Schema")),
			Meta:        true,
		},
		schema.NewField("__type", "Request the type information of a single type.", schema.NamedType("__Type")).
			AddArgument(schema.NewInputValue("name", "The name of the type to look up.", schema.NonNullType(schema.NamedType("String")))),
	)
	root.Fields[len(root.Fields)-1].Meta = true
	extended.Types[root.Name] = &root
	return &extended
}

// metaType converts a parsed meta type definition. Fresh values are built on
// every call so extended schemas never share them.
func metaType(def *language.Definition) *schema.Type {
	if def.Kind == language.Enum {
		t := schema.NewType(def.Name, schema.TypeKindEnum, def.Description)
		for _, v := range def.EnumValues {
			t.AddEnumValue(schema.NewEnumValue(v.Name, v.Description))
		}
		return t
	}
	t := schema.NewType(def.Name, schema.TypeKindObject, def.Description)
	for _, fd := range def.Fields {
		f := schema.NewField(fd.Name, fd.Description, typeRef(fd.Type))
		for _, arg := range fd.Arguments {
			in := schema.NewInputValue(arg.Name, arg.Description, typeRef(arg.Type))
			if arg.DefaultValue != nil {
				in.SetDefault(arg.DefaultValue.String())
			}
			f.AddArgument(in)
		}
		t.AddField(f)
	}
	return t
}

func typeRef(t *language.Type) *schema.TypeRef {
	var ref *schema.TypeRef
	if t.Elem != nil {
		ref = schema.ListType(typeRef(t.Elem))
	} else {
		ref = schema.NamedType(t.NamedType)
	}
	if t.NonNull {
		return schema.NonNullType(ref)
	}
	return ref
}
