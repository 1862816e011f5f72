package solver

import (
	schema "github.com/hanpama/fedgraph/internal/schema"
)

// expandRequirements resolves the needs of every candidate to nodes,
// creating solver nodes where no reusable sibling exists. New nodes are
// appended to the arena and expanded in turn until a fixed point.
func (sv *solver) expandRequirements() error {
	for i := 0; i < len(sv.nodes); i++ {
		n := sv.nodes[i]
		for _, c := range n.Candidates {
			var needs []NodeID
			var err error
			if c.Kind == KindEntityLookup {
				if needs, err = sv.ensureFieldSet(needs, n.Parent, n.ParentType, c.Key.Fields, OriginKey); err != nil {
					return err
				}
				typename, err := sv.ensure(n.Parent, n.ParentType, "__typename", OriginKey)
				if err != nil {
					return err
				}
				needs = append(needs, typename)
			}
			if len(c.Requires) > 0 {
				if needs, err = sv.ensureFieldSet(needs, n.Parent, n.ParentType, c.Requires, OriginRequirement); err != nil {
					return err
				}
			}
			c.Needs = dedupeNodes(needs)
		}
	}
	return sv.detectCycles()
}

// ensureFieldSet appends the nodes selecting fs below parent to needs,
// parents before their children.
func (sv *solver) ensureFieldSet(needs []NodeID, parent NodeID, parentType string, fs schema.FieldSet, origin Origin) ([]NodeID, error) {
	for _, sel := range fs {
		id, err := sv.ensure(parent, parentType, sel.Name, origin)
		if err != nil {
			return nil, err
		}
		needs = append(needs, id)
		if len(sel.Children) > 0 {
			needs, err = sv.ensureFieldSet(needs, id, sv.nodes[id].Type.GetNamedType(), sel.Children, origin)
			if err != nil {
				return nil, err
			}
		}
	}
	return needs, nil
}

// ensure returns the child of parent selecting name on parentType. A child
// selected without arguments on parentType, or on an abstract type
// parentType belongs to, is reused.
func (sv *solver) ensure(parent NodeID, parentType, name string, origin Origin) (NodeID, error) {
	if parent == NoNode {
		return NoNode, invariantf("field %s.%s is required at the operation root", parentType, name)
	}
	for _, c := range sv.nodes[parent].Children {
		child := sv.nodes[c]
		if child.Name == name && len(child.Arguments) == 0 && sv.schema.Implements(parentType, child.ParentType) {
			return c, nil
		}
	}
	n, err := sv.addNode(parent, parentType, name, origin)
	if err != nil {
		return NoNode, err
	}
	return n.ID, nil
}

func dedupeNodes(ids []NodeID) []NodeID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[NodeID]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// unavoidable returns the needs shared by every candidate of n.
func (sv *solver) unavoidable(n *Node) []NodeID {
	if len(n.Candidates) == 0 {
		return nil
	}
	var out []NodeID
	for _, t := range n.Candidates[0].Needs {
		shared := true
		for _, c := range n.Candidates[1:] {
			if !containsNode(c.Needs, t) {
				shared = false
				break
			}
		}
		if shared {
			out = append(out, t)
		}
	}
	return out
}

func containsNode(ids []NodeID, id NodeID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

const (
	white = iota
	grey
	black
)

// detectCycles walks unavoidable need edges from the client fields and
// fails on the first cycle.
func (sv *solver) detectCycles() error {
	color := make([]int, len(sv.nodes))
	var stack []NodeID
	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		color[id] = grey
		stack = append(stack, id)
		for _, t := range sv.unavoidable(sv.nodes[id]) {
			switch color[t] {
			case grey:
				return sv.cycleError(stack, t)
			case white:
				if err := visit(t); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}
	for _, n := range sv.nodes {
		if n.Origin == OriginClient && color[n.ID] == white {
			if err := visit(n.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// cycleError reports the stack suffix starting at target.
func (sv *solver) cycleError(stack []NodeID, target NodeID) *SolveError {
	start := 0
	for i, id := range stack {
		if id == target {
			start = i
			break
		}
	}
	var cycle []string
	for _, id := range stack[start:] {
		cycle = append(cycle, sv.nodes[id].Coordinate())
	}
	cycle = append(cycle, sv.nodes[target].Coordinate())
	err := newError(RequirementCycleDetected, sv.path(target), "field %s transitively requires itself", sv.nodes[target].Coordinate())
	err.Cycle = cycle
	return err
}
