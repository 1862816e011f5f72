package solver

import (
	language "github.com/hanpama/fedgraph/internal/language"
	schema "github.com/hanpama/fedgraph/internal/schema"
)

// groupKey identifies the request a lookup or extension candidate joins.
type groupKey struct {
	parent     NodeID
	kind       CandidateKind
	subgraph   int
	extension  string
	entityType string
	key        string
}

func groupOf(n *Node, c *Candidate) groupKey {
	k := groupKey{parent: n.Parent, kind: c.Kind, subgraph: c.Subgraph, extension: c.Extension, entityType: n.ParentType}
	if c.Key != nil {
		k.key = c.Key.Fields.String()
	}
	return k
}

// rank orders feasible candidates; lower wins, compared field by field.
type rank struct {
	tier     int
	cost     int
	subgraph int
	index    int
}

func (r rank) less(o rank) bool {
	if r.tier != o.tier {
		return r.tier < o.tier
	}
	if r.cost != o.cost {
		return r.cost < o.cost
	}
	if r.subgraph != o.subgraph {
		return r.subgraph < o.subgraph
	}
	return r.index < o.index
}

const (
	tierContinue = iota // served with the parent or a root sibling
	tierJoin            // joins a request a sibling already opened
	tierOpen            // opens a new request
)

// selectResolvers picks one candidate per live node, breadth first from the
// roots. Client fields are live from the start; solver fields become live
// when a chosen candidate needs them.
func (sv *solver) selectResolvers() error {
	enqueued := make([]bool, len(sv.nodes))
	var queue []NodeID
	enqueue := func(id NodeID) {
		if !enqueued[id] {
			enqueued[id] = true
			queue = append(queue, id)
		}
	}
	for _, n := range sv.nodes {
		if n.Parent == NoNode {
			enqueue(n.ID)
		}
	}

	rootFetch := make(map[int]bool)
	var prevRoot *Node
	for len(queue) > 0 {
		n := sv.nodes[queue[0]]
		queue = queue[1:]
		n.live = true
		sv.order = append(sv.order, n.ID)

		if n.inherit {
			n.target = sv.nodes[n.Parent].target
		} else {
			c, err := sv.choose(n, rootFetch, prevRoot)
			if err != nil {
				return err
			}
			n.Resolver = c
			switch c.Kind {
			case KindFetch, KindEntityLookup:
				n.target = c.Subgraph
			default:
				n.target = -1
			}
			if n.Parent == NoNode {
				prevRoot = n
				if c.Kind == KindFetch {
					rootFetch[c.Subgraph] = true
				}
			}
			if c.Kind == KindEntityLookup || c.Kind == KindExtension {
				sv.opened[groupOf(n, c)] = true
			}
			for _, t := range c.Needs {
				enqueue(t)
			}
		}
		for _, child := range n.Children {
			if o := sv.nodes[child].Origin; o == OriginClient || o == OriginTypename {
				enqueue(child)
			}
		}
	}
	return nil
}

func (sv *solver) choose(n *Node, rootFetch map[int]bool, prevRoot *Node) (*Candidate, error) {
	var best *Candidate
	var bestRank rank
	placed := 0
	var blocked NodeID = NoNode
	walk := sv.newAvoidWalk(n.ID)

	for _, c := range n.Candidates {
		tier, ok := sv.placement(n, c, rootFetch, prevRoot)
		if !ok {
			continue
		}
		placed++
		if t := sv.blockingNeed(n, c, walk); t != NoNode {
			if blocked == NoNode {
				blocked = t
			}
			continue
		}
		r := rank{tier: tier, cost: c.Cost, subgraph: c.Subgraph, index: c.Index}
		if best == nil || r.less(bestRank) {
			best, bestRank = c, r
		}
	}
	if best != nil {
		return best, nil
	}
	if placed > 0 {
		err := newError(RequirementCycleDetected, sv.path(n.ID), "every resolver of %s depends on %s, which depends on it", n.Coordinate(), sv.nodes[blocked].Coordinate())
		err.Cycle = []string{n.Coordinate(), sv.nodes[blocked].Coordinate(), n.Coordinate()}
		return nil, err
	}
	return nil, newError(UnresolvableField, sv.path(n.ID), "no resolver of %s can be reached from %s", n.Coordinate(), sv.servedBy(n.Parent))
}

// placement reports whether c can serve n given the choices made for its
// parent and earlier siblings, and the tier it lands in.
func (sv *solver) placement(n *Node, c *Candidate, rootFetch map[int]bool, prevRoot *Node) (int, bool) {
	switch c.Kind {
	case KindIntrospection:
		return tierContinue, true
	case KindExtension:
		if sv.opened[groupOf(n, c)] {
			return tierJoin, true
		}
		return tierOpen, true
	case KindFetch:
		if n.Parent != NoNode {
			return tierContinue, sv.nodes[n.Parent].target == c.Subgraph
		}
		if sv.op.Kind == language.Mutation {
			// Mutation fields run in order; only the previous one can be extended.
			if prevRoot != nil && prevRoot.Resolver.Kind == KindFetch && prevRoot.Resolver.Subgraph == c.Subgraph {
				return tierContinue, true
			}
			return tierOpen, true
		}
		if rootFetch[c.Subgraph] {
			return tierContinue, true
		}
		return tierOpen, true
	case KindEntityLookup:
		if n.Parent == NoNode {
			return 0, false
		}
		from := sv.nodes[n.Parent].target
		if from < 0 || !sv.providesFieldSet(from, n.ParentType, c.Key.Fields) {
			return 0, false
		}
		if sv.opened[groupOf(n, c)] {
			return tierJoin, true
		}
		return tierOpen, true
	}
	return 0, false
}

// providesFieldSet reports whether subgraph can resolve fs on typeName
// without further requirements.
func (sv *solver) providesFieldSet(subgraph int, typeName string, fs schema.FieldSet) bool {
	t := sv.schema.Types[typeName]
	for _, sel := range fs {
		if sel.Name == "__typename" {
			continue
		}
		f := t.Field(sel.Name)
		if f == nil {
			return false
		}
		r := f.ResolverIn(subgraph)
		if r == nil || len(r.Requires) > 0 || r.Extension != "" {
			return false
		}
		if len(sel.Children) > 0 && !sv.providesFieldSet(subgraph, f.Type.GetNamedType(), sel.Children) {
			return false
		}
	}
	return true
}

// blockingNeed returns the first need of c that cannot be resolved without
// n, or NoNode.
func (sv *solver) blockingNeed(n *Node, c *Candidate, w *avoidWalk) NodeID {
	for _, t := range c.Needs {
		if ok, _ := w.avoids(t); !ok {
			return t
		}
	}
	return NoNode
}

const (
	avoidUnknown int8 = iota
	avoidVisiting
	avoidYes
	avoidNo
)

const settled = int(^uint(0) >> 1)

// avoidWalk answers whether nodes can be resolved without banned. Answers
// are kept across calls with the same banned node.
type avoidWalk struct {
	sv     *solver
	banned NodeID
	state  map[NodeID]int8
	depth  map[NodeID]int
	level  int
}

func (sv *solver) newAvoidWalk(banned NodeID) *avoidWalk {
	return &avoidWalk{sv: sv, banned: banned, state: make(map[NodeID]int8), depth: make(map[NodeID]int)}
}

// avoids reports whether node t can be resolved without banned: t is not
// banned and neither its parent nor the needs of its chosen candidate (or
// of some candidate, when not chosen yet) lead to banned.
//
// The second result is the shallowest node still being visited that the
// answer relied on. A negative answer that relied on a node above t only
// holds for the current walk, so it is not kept.
func (w *avoidWalk) avoids(t NodeID) (bool, int) {
	if t == w.banned {
		return false, settled
	}
	switch w.state[t] {
	case avoidVisiting:
		return false, w.depth[t]
	case avoidNo:
		return false, settled
	case avoidYes:
		return true, settled
	}
	d := w.level
	w.state[t] = avoidVisiting
	w.depth[t] = d
	w.level++

	low := settled
	n := w.sv.nodes[t]
	ok := true
	if n.Parent != NoNode {
		ok, low = w.avoids(n.Parent)
	}
	if ok && !n.inherit {
		if n.Resolver != nil {
			ok, low = w.allAvoid(n.Resolver.Needs, low)
		} else {
			ok = false
			for _, c := range n.Candidates {
				var l int
				if ok, l = w.allAvoid(c.Needs, settled); ok {
					break
				}
				low = min(low, l)
			}
		}
	}

	w.level--
	switch {
	case ok:
		w.state[t] = avoidYes
		return true, settled
	case low < d:
		w.state[t] = avoidUnknown
		return false, low
	default:
		w.state[t] = avoidNo
		return false, settled
	}
}

func (w *avoidWalk) allAvoid(ids []NodeID, low int) (bool, int) {
	for _, id := range ids {
		ok, l := w.avoids(id)
		if !ok {
			return false, min(low, l)
		}
	}
	return true, low
}

func (sv *solver) servedBy(parent NodeID) string {
	if parent == NoNode {
		return "the operation root"
	}
	p := sv.nodes[parent]
	if sg := sv.schema.Subgraph(p.target); sg != nil {
		return p.Coordinate() + " served by " + sg.Name
	}
	return p.Coordinate() + " served by the gateway"
}
