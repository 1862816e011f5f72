package introspection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/fedgraph/internal/ir"
	"github.com/hanpama/fedgraph/internal/schema"
)

func TestExtend(t *testing.T) {
	original, err := schema.BuildFromSubgraphs(context.Background(), ir.InMemorySubgraph{
		Name:    "a",
		Content: "schema { query: Root } type Root { hello: String }",
	})
	require.NoError(t, err)

	extended := Extend(original)

	root := extended.GetQueryType()
	require.NotNil(t, root.Field("__schema"))
	require.True(t, root.Field("__schema").Meta)
	require.True(t, root.Field("__type").Meta)
	require.Empty(t, root.Field("__type").Resolvers)
	require.NotNil(t, root.Field("hello"))
	require.False(t, root.Field("hello").Meta)

	// The original schema is untouched
	require.Nil(t, original.GetQueryType().Field("__schema"))
	require.Nil(t, original.Types["__Schema"])

	for _, name := range []string{"__Schema", "__Type", "__Field", "__InputValue", "__EnumValue", "__Directive", "__TypeKind", "__DirectiveLocation"} {
		require.NotNil(t, extended.Types[name], name)
	}
	require.Equal(t, original.Version, extended.Version)
	require.Equal(t, schema.Render(original), schema.Render(extended), "meta types are not part of the supergraph")
}

func TestMetaTypes(t *testing.T) {
	original, err := schema.BuildFromSubgraphs(context.Background(), ir.InMemorySubgraph{
		Name:    "a",
		Content: "type Query { hello: String }",
	})
	require.NoError(t, err)
	a, b := Extend(original), Extend(original)
	require.NotSame(t, a.Types["__Type"], b.Types["__Type"])

	fields := a.Types["__Type"].Field("fields")
	require.Equal(t, schema.ListType(schema.NonNullType(schema.NamedType("__Field"))), fields.Type)
	require.Len(t, fields.Arguments, 1)
	require.Equal(t, "includeDeprecated", fields.Arguments[0].Name)
	require.Equal(t, "false", fields.Arguments[0].DefaultValue)

	require.Equal(t, schema.TypeKindEnum, a.Types["__TypeKind"].Kind)
	require.Len(t, a.Types["__TypeKind"].EnumValues, 8)
	require.Len(t, a.Types["__DirectiveLocation"].EnumValues, 19)
	require.Equal(t, "The fundamental unit of any GraphQL Schema is the type.", a.Types["__Type"].Description)

	typ := a.GetQueryType().Field("__type")
	require.True(t, typ.Meta)
	require.Equal(t, schema.NonNullType(schema.NamedType("String")), typ.Arguments[0].Type)
}
