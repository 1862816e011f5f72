package operation

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/fedgraph/internal/ir"
	language "github.com/hanpama/fedgraph/internal/language"
	schema "github.com/hanpama/fedgraph/internal/schema"
)

const testSDL = `
type Query {
  node(id: ID!): Node
  search(term: String!): [SearchResult!]!
  me: User
  users(filter: UserFilter, first: Int = 10): [User!]!
}

type Mutation {
  rename(id: ID!, name: String!): User
}

interface Node {
  id: ID!
}

type User implements Node {
  id: ID!
  name: String
  role: Role
  friends: [User!]!
}

type Post implements Node {
  id: ID!
  title: String
  author: User
}

union SearchResult = User | Post

enum Role {
  ADMIN
  MEMBER
}

input UserFilter {
  role: Role!
  nameLike: String
}
`

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.BuildFromSubgraphs(context.Background(), ir.InMemorySubgraph{Name: "a", Content: testSDL})
	require.NoError(t, err)
	return s
}

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

func mustBind(t *testing.T, q string, vars map[string]any) *Operation {
	t.Helper()
	op, err := Bind(testSchema(t), mustParseQuery(t, q), "", vars)
	require.NoError(t, err)
	return op
}

// describe lists every bound field as "path on ParentType" in id order.
func describe(op *Operation) []string {
	out := make([]string, len(op.Fields))
	for i, f := range op.Fields {
		out[i] = strings.Join(op.Path(f.ID), ".") + " on " + f.ParentType
	}
	return out
}

func TestBindMergesFields(t *testing.T) {
	op := mustBind(t, `{ me { id name } me { id friends { id } } }`, nil)

	expected := []string{
		"me on Query",
		"me.id on User",
		"me.name on User",
		"me.friends on User",
		"me.friends.id on User",
	}
	if diff := cmp.Diff(expected, describe(op)); diff != "" {
		t.Errorf("bound fields mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []FieldID{0}, op.Roots)
	require.Equal(t, []FieldID{1, 2, 3}, op.Fields[0].Children)
	require.Equal(t, NoParent, op.Fields[0].Parent)
	require.Equal(t, "User", op.Fields[0].NamedType())
}

func TestBindFragmentsAndNarrowing(t *testing.T) {
	op := mustBind(t, `
		query {
			node(id: "1") { id ... on User { name } ...PostFields }
			search(term: "x") { __typename ... on Node { id } }
		}
		fragment PostFields on Post { title }
	`, nil)

	expected := []string{
		"node on Query",
		"node.id on Node",
		"node.name on User",
		"node.title on Post",
		"search on Query",
		"search.__typename on SearchResult",
		"search.id on Node",
	}
	if diff := cmp.Diff(expected, describe(op)); diff != "" {
		t.Errorf("bound fields mismatch (-want +got):\n%s", diff)
	}
	require.True(t, op.Fields[5].IsTypename())
	require.Nil(t, op.Fields[5].Definition)
	require.Equal(t, "String!", op.Fields[5].Type.String())
}

func TestBindDropsFragmentsThatCannotApply(t *testing.T) {
	op := mustBind(t, `{ me { ... on Post { title } id } }`, nil)
	require.Equal(t, []string{"me on Query", "me.id on User"}, describe(op))
}

func TestBindSkipInclude(t *testing.T) {
	op := mustBind(t, `
		query ($withName: Boolean!) {
			me { id name @include(if: $withName) role @skip(if: true) ...F @skip(if: false) }
		}
		fragment F on User { friends { id } }
	`, map[string]any{"withName": false})

	expected := []string{"me on Query", "me.id on User", "me.friends on User", "me.friends.id on User"}
	if diff := cmp.Diff(expected, describe(op)); diff != "" {
		t.Errorf("bound fields mismatch (-want +got):\n%s", diff)
	}
}

func TestBindSelectsNamedOperation(t *testing.T) {
	doc := mustParseQuery(t, `
		query A { me { id } }
		mutation B { rename(id: "1", name: "x") { id } }
	`)
	op, err := Bind(testSchema(t), doc, "B", nil)
	require.NoError(t, err)
	require.Equal(t, language.Mutation, op.Kind)
	require.Equal(t, "Mutation", op.RootType)
	require.Equal(t, "B", op.Name)
}

func TestBindErrors(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		operation string
		vars      map[string]any
		message   string
	}{
		{"unknown field", `{ me { age } }`, "", nil, `Cannot query field "age" on type "User"`},
		{"missing subfields", `{ me }`, "", nil, "must have a selection of subfields"},
		{"leaf with subfields", `{ me { id { x } } }`, "", nil, "must not have a selection"},
		{"unknown argument", `{ me(id: 1) { id } }`, "", nil, `Unknown argument "id"`},
		{"missing argument", `{ node { id } }`, "", nil, `argument "id" of type "ID!" is required`},
		{"different fields", `{ me { x: id x: name } }`, "", nil, "are different fields"},
		{"differing arguments", `{ node(id: "1") { id } node(id: "2") { id } }`, "", nil, "differing arguments"},
		{"fragment cycle", `{ me { ...A } } fragment A on User { friends { ...A } }`, "", nil, `Cannot spread fragment "A" within itself`},
		{"unknown fragment", `{ me { ...Missing } }`, "", nil, `Unknown fragment "Missing"`},
		{"unknown type condition", `{ me { ... on Nope { id } } }`, "", nil, `Unknown type "Nope"`},
		{"undefined variable", `{ node(id: $id) { id } }`, "", nil, `Variable "$id" is not defined`},
		{"operation name required", `query A { me { id } } query B { me { id } }`, "", nil, "operation name is required"},
		{"unknown operation", `query A { me { id } }`, "C", nil, `unknown operation "C"`},
		{"subscription unsupported", `subscription { me { id } }`, "", nil, "does not support subscription operations"},
		{"required variable", `query ($id: ID!) { node(id: $id) { id } }`, "", nil, "was not provided"},
		{"bad variable value", `query ($n: Int) { users(first: $n) { id } }`, "", map[string]any{"n": "ten"}, "cannot coerce"},
		{"enum variable", `query ($f: UserFilter) { users(filter: $f) { id } }`, "", map[string]any{"f": map[string]any{"role": "OWNER"}}, `"OWNER" does not exist in enum Role`},
		{"input field missing", `query ($f: UserFilter) { users(filter: $f) { id } }`, "", map[string]any{"f": map[string]any{}}, "required field 'role'"},
	}
	s := testSchema(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bind(s, mustParseQuery(t, tt.query), tt.operation, tt.vars)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestCoerceVariables(t *testing.T) {
	s := testSchema(t)
	doc := mustParseQuery(t, `query ($f: UserFilter!, $ids: [ID!], $n: Int = 3, $opt: String) { me { id } }`)

	values, err := CoerceVariables(s, doc.Operations[0], map[string]any{
		"f":   map[string]any{"role": "ADMIN"},
		"ids": float64(7),
	})
	require.NoError(t, err)

	expected := map[string]any{
		"f":   map[string]any{"role": "ADMIN"},
		"ids": []any{"7"},
		"n":   3,
	}
	if diff := cmp.Diff(expected, values); diff != "" {
		t.Errorf("coerced values mismatch (-want +got):\n%s", diff)
	}
}

func TestCanonical(t *testing.T) {
	a := mustBind(t, `
		query Q { node(id: "1") { ...N id } }
		fragment N on User { name }
	`, nil)
	b := mustBind(t, `query Q { node(id: "1") { ... on User { name } id } }`, nil)

	require.Equal(t, a.Canonical(), b.Canonical())
	require.Contains(t, a.Canonical(), "... on User")
	require.NotContains(t, a.Canonical(), "fragment")

	c := mustBind(t, `query Q { node(id: "2") { ... on User { name } id } }`, nil)
	require.NotEqual(t, a.Canonical(), c.Canonical())

	// The canonical text binds to the same fields.
	again := mustBind(t, a.Canonical(), nil)
	require.Equal(t, describe(a), describe(again))
}

func TestVariablesUsed(t *testing.T) {
	op := mustBind(t, `query ($a: ID!, $b: UserFilter) { node(id: $a) { id } users(filter: $b, first: 2) { id } }`,
		map[string]any{"a": "1"})
	args := func(ids []FieldID) []language.ArgumentList {
		var out []language.ArgumentList
		for _, id := range ids {
			out = append(out, op.Fields[id].Arguments)
		}
		return out
	}
	require.Equal(t, []string{"a", "b"}, VariablesUsed(args(op.Roots)...))
	require.Empty(t, VariablesUsed(args(op.Fields[0].Children)...))
	require.Equal(t, []string{"b", "a"}, VariablesUsed(op.Fields[op.Roots[1]].Arguments, op.Fields[op.Roots[0]].Arguments))
}
