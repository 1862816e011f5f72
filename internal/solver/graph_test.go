package solver

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type candidateSummary struct {
	Kind     CandidateKind
	Subgraph int
	Cost     int
	Key      string
	Requires string
}

func summarize(cs []*Candidate) []candidateSummary {
	var out []candidateSummary
	for _, c := range cs {
		s := candidateSummary{Kind: c.Kind, Subgraph: c.Subgraph, Cost: c.Cost, Requires: c.Requires.String()}
		if c.Key != nil {
			s.Key = c.Key.Fields.String()
		}
		out = append(out, s)
	}
	return out
}

func TestBuildGraphCandidates(t *testing.T) {
	s := federatedSchema(t)
	op := bind(t, s, `{ topProducts { price shippingEstimate __typename } __typename }`, nil)
	sv, err := buildGraph(s, op)
	require.NoError(t, err)

	tests := []struct {
		id       NodeID
		expected []candidateSummary
	}{
		{0, []candidateSummary{{Kind: KindFetch, Subgraph: 1, Cost: 1}}},
		{1, []candidateSummary{
			{Kind: KindFetch, Subgraph: 1, Cost: 2},
			{Kind: KindEntityLookup, Subgraph: 1, Cost: 2, Key: "upc"},
		}},
		{2, []candidateSummary{
			{Kind: KindEntityLookup, Subgraph: 2, Cost: 1, Key: "upc", Requires: "price weight"},
		}},
		{4, []candidateSummary{{Kind: KindIntrospection, Subgraph: -1}}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.expected, summarize(sv.nodes[tt.id].Candidates)); diff != "" {
			t.Errorf("candidates of %s mismatch (-want +got):\n%s", sv.nodes[tt.id].Coordinate(), diff)
		}
	}

	nested := sv.nodes[3]
	require.True(t, nested.IsTypename())
	require.True(t, nested.inherit)
	require.Empty(t, nested.Candidates)
}

func TestBuildGraphAddsTypenameForAbstractFields(t *testing.T) {
	s := buildSchema(t, inMemory("media", `
		type Query { pick: Media }
		interface Media { id: ID! }
		type Song implements Media { id: ID! }
	`))
	sv, err := buildGraph(s, bind(t, s, `{ pick { id } }`, nil))
	require.NoError(t, err)

	require.Len(t, sv.nodes, 3)
	typename := sv.nodes[2]
	require.Equal(t, OriginTypename, typename.Origin)
	require.Equal(t, "Media", typename.ParentType)
	require.Equal(t, []NodeID{1, 2}, sv.nodes[0].Children)

	// A client __typename on the abstract type is reused.
	sv, err = buildGraph(s, bind(t, s, `{ pick { __typename id } }`, nil))
	require.NoError(t, err)
	require.Len(t, sv.nodes, 3)
}

func TestExpandRequirementsReusesSiblings(t *testing.T) {
	s := federatedSchema(t)
	sv, err := buildGraph(s, bind(t, s, `{ topProducts { upc price inStock shippingEstimate } }`, nil))
	require.NoError(t, err)
	require.NoError(t, sv.expandRequirements())

	// upc and price are client fields; __typename and weight are added.
	shipping := sv.nodes[4]
	needs := shipping.Candidates[0].Needs
	var names []string
	for _, id := range needs {
		names = append(names, sv.nodes[id].Name)
	}
	require.Equal(t, []string{"upc", "__typename", "price", "weight"}, names)
	require.Equal(t, NodeID(1), needs[0])
	require.Equal(t, NodeID(2), needs[2])
	require.Equal(t, OriginKey, sv.nodes[needs[1]].Origin)
	require.Equal(t, OriginRequirement, sv.nodes[needs[3]].Origin)
}

func TestExpandRequirementsAvoidsResponseKeyCollisions(t *testing.T) {
	s := federatedSchema(t)
	sv, err := buildGraph(s, bind(t, s, `{ topProducts { upc: name inStock } }`, nil))
	require.NoError(t, err)
	require.NoError(t, sv.expandRequirements())

	var upc *Node
	for _, id := range sv.nodes[0].Children {
		if n := sv.nodes[id]; n.Name == "upc" {
			upc = n
		}
	}
	require.NotNil(t, upc)
	require.Equal(t, OriginKey, upc.Origin)
	require.NotEqual(t, "upc", upc.ResponseKey)
	require.Regexp(t, `^__upc_\d+$`, upc.ResponseKey)
}

func TestSolveNestedRequirementLevels(t *testing.T) {
	plan := mustSolve(t, federatedSchema(t), `{ me { reviews { product { name shippingEstimate } } } }`)

	product := fieldAt(t, plan, "me", "reviews", "product")
	name := plan.PartitionOf(fieldAt(t, plan, "me", "reviews", "product", "name").ID)
	price := plan.PartitionOf(fieldAt(t, plan, "me", "reviews", "product", "price").ID)
	shipping := plan.PartitionOf(fieldAt(t, plan, "me", "reviews", "product", "shippingEstimate").ID)

	require.Equal(t, name.ID, price.ID, "required price joins the products lookup")
	require.Equal(t, 0, name.Level)
	require.Equal(t, 1, shipping.Level)
	require.Equal(t, product.ID, shipping.Parent)
	require.Contains(t, plan.Schedule.Edges, Edge{From: name.ID, To: shipping.ID})
}
