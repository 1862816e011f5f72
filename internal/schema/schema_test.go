package schema

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/fedgraph/internal/ir"
)

func buildTestSchema(t *testing.T) *Schema {
	t.Helper()
	schema, err := BuildFromSubgraphs(context.Background(),
		ir.InMemorySubgraph{Name: "accounts", URL: "http://accounts/graphql", Content: mustReadFile(t, "testdata/accounts.graphql")},
		ir.InMemorySubgraph{Name: "products", URL: "http://products/graphql", Content: mustReadFile(t, "testdata/products.graphql")},
		ir.InMemorySubgraph{Name: "inventory", URL: "http://inventory/graphql", Content: mustReadFile(t, "testdata/inventory.graphql")},
		ir.InMemorySubgraph{Name: "reviews", URL: "http://reviews/graphql", Content: mustReadFile(t, "testdata/reviews.graphql")},
	)
	require.NoError(t, err, "failed to build schema")
	return schema
}

func TestSchemaSnapshot(t *testing.T) {
	schema := buildTestSchema(t)

	// Convert to JSON for snapshot comparison
	actual, err := json.MarshalIndent(schema, "", "  ")
	require.NoError(t, err, "failed to marshal schema to JSON")

	// Snapshot file path
	snapshotPath := filepath.Join("testdata", "schema_snapshot.json")

	// If snapshot doesn't exist, create it
	if _, err := os.Stat(snapshotPath); os.IsNotExist(err) {
		err := os.WriteFile(snapshotPath, actual, 0644)
		require.NoError(t, err, "failed to write snapshot file")
		t.Logf("Created snapshot file: %s", snapshotPath)
		return
	}

	// Read existing snapshot
	expected, err := os.ReadFile(snapshotPath)
	require.NoError(t, err, "failed to read snapshot file")

	// Compare snapshots
	if diff := cmp.Diff(string(expected), string(actual)); diff != "" {
		t.Errorf("Schema snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaRenderSnapshot(t *testing.T) {
	schema := buildTestSchema(t)

	// Render schema to SDL
	actual := Render(schema)

	// Snapshot file path
	snapshotPath := filepath.Join("testdata", "schema_rendered.graphql")

	// If snapshot doesn't exist, create it
	if _, err := os.Stat(snapshotPath); os.IsNotExist(err) {
		err := os.WriteFile(snapshotPath, []byte(actual), 0644)
		require.NoError(t, err, "failed to write snapshot file")
		t.Logf("Created snapshot file: %s", snapshotPath)
		return
	}

	// Read existing snapshot
	expected, err := os.ReadFile(snapshotPath)
	require.NoError(t, err, "failed to read snapshot file")

	// Compare snapshots
	if diff := cmp.Diff(string(expected), actual); diff != "" {
		t.Errorf("Rendered schema snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderJoinAnnotations(t *testing.T) {
	sdl := Render(buildTestSchema(t))

	require.Contains(t, sdl, `  INVENTORY @join__graph(name: "inventory", url: "http://inventory/graphql")`)
	require.Contains(t, sdl, `type Product @join__type(graph: PRODUCTS, key: "upc") @join__type(graph: INVENTORY, key: "upc") @join__type(graph: REVIEWS, key: "upc") {`)
	require.Contains(t, sdl, `  price: Int! @join__field(graph: PRODUCTS, cost: 2)`)
	require.Contains(t, sdl, `  shippingEstimate: Int @join__field(graph: INVENTORY, requires: "price weight")`)
	require.Contains(t, sdl, `  topProducts(first: Int = 5): [Product!]! @join__field(graph: PRODUCTS)`)
	require.NotContains(t, sdl, "schema {")
}

func TestResolversAndKeys(t *testing.T) {
	s := buildTestSchema(t)

	require.Equal(t, []string{"accounts", "products", "inventory", "reviews"}, func() []string {
		var names []string
		for i, sg := range s.Subgraphs {
			require.Equal(t, i, sg.Index)
			names = append(names, sg.Name)
		}
		return names
	}())

	product := s.Types["Product"]
	require.Len(t, product.Keys, 3)
	require.Len(t, product.KeysIn(2), 1)
	require.Equal(t, "upc", product.KeysIn(2)[0].Fields.String())

	price := product.Field("price")
	require.Len(t, price.Resolvers, 1, "external owners do not resolve")
	require.Equal(t, &FieldResolver{Subgraph: 1, Cost: 2}, price.Resolvers[0])

	shipping := product.Field("shippingEstimate")
	require.NotNil(t, shipping.ResolverIn(2))
	require.Equal(t, []string{"price", "weight"}, shipping.ResolverIn(2).Requires.Names())

	upc := product.Field("upc")
	require.Len(t, upc.Resolvers, 3)

	require.True(t, s.IsComposite("Review"))
	require.False(t, s.IsAbstract("Review"))
	require.Equal(t, []string{"Review"}, s.PossibleTypes("Review"))
}

func TestVersionIsStable(t *testing.T) {
	a := buildTestSchema(t)
	b := buildTestSchema(t)
	require.Len(t, a.Version, 16)
	require.Equal(t, a.Version, b.Version)

	other, err := BuildFromSubgraphs(context.Background(), ir.InMemorySubgraph{
		Name:    "accounts",
		Content: mustReadFile(t, "testdata/accounts.graphql"),
	})
	require.NoError(t, err)
	require.NotEqual(t, a.Version, other.Version)
}

func TestParseFieldSet(t *testing.T) {
	fs, err := ParseFieldSet("id owner { id region { code } }")
	require.NoError(t, err)
	require.Equal(t, "id owner { id region { code } }", fs.String())
	require.Equal(t, []string{"id", "owner"}, fs.Names())

	for _, bad := range []string{"", "id(a: 1)", "... on User { id }", "alias: id", "id @skip(if: true)"} {
		_, err := ParseFieldSet(bad)
		require.Error(t, err, bad)
	}
}

func TestGraphEnumValue(t *testing.T) {
	require.Equal(t, "ACCOUNTS", GraphEnumValue("accounts"))
	require.Equal(t, "SHIPPING_V2", GraphEnumValue("shipping-v2"))
	require.False(t, strings.ContainsAny(GraphEnumValue("a.b c"), ". "))
}

func mustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)
	return string(content)
}
