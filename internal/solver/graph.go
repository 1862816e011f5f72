package solver

import (
	"fmt"
	"strings"

	"github.com/hanpama/fedgraph/internal/operation"
	schema "github.com/hanpama/fedgraph/internal/schema"
)

type solver struct {
	schema *schema.Schema
	op     *operation.Operation
	nodes  []*Node
	order  []NodeID // Live nodes in selection order; parents come first
	opened map[groupKey]bool
	levels map[NodeID]int
}

// buildGraph creates a node per bound field and derives its candidates.
func buildGraph(s *schema.Schema, op *operation.Operation) (*solver, error) {
	sv := &solver{
		schema: s,
		op:     op,
		nodes:  make([]*Node, 0, len(op.Fields)),
		opened: make(map[groupKey]bool),
		levels: make(map[NodeID]int),
	}
	for _, f := range op.Fields {
		if NodeID(f.ID) != NodeID(len(sv.nodes)) {
			return nil, invariantf("bound field %d is out of order", f.ID)
		}
		n := &Node{
			ID:          NodeID(f.ID),
			Parent:      NodeID(f.Parent),
			ParentType:  f.ParentType,
			Name:        f.Name,
			ResponseKey: f.ResponseKey,
			Type:        f.Type,
			Origin:      OriginClient,
			Partition:   -1,
			Arguments:   f.Arguments,
			Definition:  f.Definition,
			target:      -1,
		}
		for _, c := range f.Children {
			n.Children = append(n.Children, NodeID(c))
		}
		sv.nodes = append(sv.nodes, n)
	}

	clients := len(sv.nodes)
	for _, n := range sv.nodes[:clients] {
		if n.Parent != NoNode && n.Parent >= n.ID {
			return nil, invariantf("field %s precedes its parent", n.Coordinate())
		}
		sv.assignCandidates(n)
		if !n.inherit && len(n.Candidates) == 0 {
			return nil, newError(UnresolvableField, sv.path(n.ID), "no subgraph resolves %s", n.Coordinate())
		}
	}
	for _, n := range sv.nodes[:clients] {
		if err := sv.addTypenameDispatch(n); err != nil {
			return nil, err
		}
	}
	return sv, nil
}

func (sv *solver) assignCandidates(n *Node) {
	if n.Parent != NoNode {
		parent := sv.nodes[n.Parent]
		if parent.inherit || delegates(parent) {
			n.inherit = true
			return
		}
	}
	switch {
	case n.IsTypename():
		if n.Parent == NoNode {
			n.Candidates = []*Candidate{{Kind: KindIntrospection, Subgraph: -1}}
		} else {
			n.inherit = true
		}
	case n.Definition == nil:
		// unknown field; no candidates
	case n.Definition.Meta:
		n.Candidates = []*Candidate{{Kind: KindIntrospection, Subgraph: -1}}
	default:
		n.Candidates = sv.candidatesFor(n)
	}
}

// delegates reports whether the node is served by the gateway itself, in
// which case its whole subtree goes with it.
func delegates(n *Node) bool {
	if len(n.Candidates) == 0 {
		return false
	}
	for _, c := range n.Candidates {
		if c.Kind != KindIntrospection && c.Kind != KindExtension {
			return false
		}
	}
	return true
}

func (sv *solver) candidatesFor(n *Node) []*Candidate {
	var out []*Candidate
	add := func(c *Candidate) {
		c.Index = len(out)
		out = append(out, c)
	}
	parentType := sv.schema.Types[n.ParentType]
	for _, r := range n.Definition.Resolvers {
		switch {
		case r.Extension != "":
			add(&Candidate{Kind: KindExtension, Subgraph: r.Subgraph, Cost: r.Cost, Requires: r.Requires, Extension: r.Extension})
		case n.Parent == NoNode:
			add(&Candidate{Kind: KindFetch, Subgraph: r.Subgraph, Cost: r.Cost})
		default:
			if len(r.Requires) == 0 {
				add(&Candidate{Kind: KindFetch, Subgraph: r.Subgraph, Cost: r.Cost})
			}
			for _, k := range parentType.KeysIn(r.Subgraph) {
				add(&Candidate{Kind: KindEntityLookup, Subgraph: r.Subgraph, Cost: r.Cost, Requires: r.Requires, Key: k})
			}
		}
	}
	return out
}

// addTypenameDispatch gives abstract-typed nodes a __typename child.
func (sv *solver) addTypenameDispatch(n *Node) error {
	named := n.Type.GetNamedType()
	if !sv.schema.IsAbstract(named) {
		return nil
	}
	for _, c := range n.Children {
		child := sv.nodes[c]
		if child.IsTypename() && child.ParentType == named {
			return nil
		}
	}
	_, err := sv.addNode(n.ID, named, "__typename", OriginTypename)
	return err
}

// addNode appends a solver-created child of parent.
func (sv *solver) addNode(parent NodeID, parentType, name string, origin Origin) (*Node, error) {
	id := NodeID(len(sv.nodes))
	n := &Node{
		ID:          id,
		Parent:      parent,
		ParentType:  parentType,
		Name:        name,
		ResponseKey: sv.uniqueKey(parent, name, id),
		Origin:      origin,
		Partition:   -1,
		target:      -1,
	}
	if n.IsTypename() {
		n.Type = schema.NonNullType(schema.NamedType("String"))
	} else {
		n.Definition = sv.schema.Types[parentType].Field(name)
		if n.Definition == nil {
			return nil, invariantf("field set selects unknown field %s.%s", parentType, name)
		}
		n.Type = n.Definition.Type
	}
	sv.nodes = append(sv.nodes, n)
	p := sv.nodes[parent]
	p.Children = append(p.Children, id)
	sv.assignCandidates(n)
	return n, sv.addTypenameDispatch(n)
}

// uniqueKey returns name unless a sibling already answers under it.
func (sv *solver) uniqueKey(parent NodeID, name string, id NodeID) string {
	for _, c := range sv.nodes[parent].Children {
		if sv.nodes[c].ResponseKey == name {
			return fmt.Sprintf("__%s_%d", strings.TrimLeft(name, "_"), id)
		}
	}
	return name
}

// path returns the response path of a node.
func (sv *solver) path(id NodeID) []string {
	var path []string
	for id != NoNode {
		n := sv.nodes[id]
		path = append(path, n.ResponseKey)
		id = n.Parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
