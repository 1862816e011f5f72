package solver

import (
	"sort"

	language "github.com/hanpama/fedgraph/internal/language"
)

type partitionKey struct {
	groupKey
	level int
	run   int // mutation root run
}

type partitionBuilder struct {
	key     partitionKey
	nodes   []NodeID
	entries []NodeID
}

// buildPartitions assigns every live node to a partition and returns the
// partitions ordered by their lowest member id, plus the sequencing edges
// between mutation root runs.
func (sv *solver) buildPartitions() ([]*Partition, []Edge, error) {
	builders := make(map[partitionKey]*partitionBuilder)
	var list []*partitionBuilder
	owner := make(map[NodeID]*partitionBuilder)

	run := -1
	var prevRoot *Node
	var runs []*partitionBuilder

	for _, id := range sv.order {
		n := sv.nodes[id]
		var b *partitionBuilder
		switch {
		case n.inherit:
			b = owner[n.Parent]
		case n.Resolver.Kind == KindFetch && n.Parent != NoNode:
			b = owner[n.Parent]
		default:
			key := partitionKey{groupKey: groupOf(n, n.Resolver)}
			if n.Parent == NoNode {
				key.entityType = ""
				if sv.op.Kind == language.Mutation {
					if prevRoot == nil || groupOf(prevRoot, prevRoot.Resolver) != groupOf(n, n.Resolver) {
						run++
					}
					key.run = run
					prevRoot = n
				}
			} else if n.Resolver.Kind == KindEntityLookup || n.Resolver.Kind == KindExtension {
				level, err := sv.level(n)
				if err != nil {
					return nil, nil, err
				}
				key.level = level
			}
			b = builders[key]
			if b == nil {
				b = &partitionBuilder{key: key}
				builders[key] = b
				list = append(list, b)
				if n.Parent == NoNode && sv.op.Kind == language.Mutation {
					runs = append(runs, b)
				}
			}
			b.entries = append(b.entries, n.ID)
		}
		if b == nil {
			return nil, nil, invariantf("field %s has no partition to join", n.Coordinate())
		}
		b.nodes = append(b.nodes, n.ID)
		owner[n.ID] = b
	}

	for _, b := range list {
		sort.Slice(b.nodes, func(i, j int) bool { return b.nodes[i] < b.nodes[j] })
		sort.Slice(b.entries, func(i, j int) bool { return b.entries[i] < b.entries[j] })
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].nodes[0] < list[j].nodes[0] })

	ids := make(map[*partitionBuilder]PartitionID, len(list))
	parts := make([]*Partition, len(list))
	for i, b := range list {
		ids[b] = PartitionID(i)
		p := &Partition{
			ID:       PartitionID(i),
			Kind:     b.key.kind,
			Subgraph: -1,
			Parent:   b.key.parent,
			Level:    b.key.level,
			Entries:  b.entries,
			Nodes:    b.nodes,
			Shape:    NoShape,
		}
		switch p.Kind {
		case KindFetch, KindEntityLookup:
			p.Subgraph = b.key.subgraph
			p.SubgraphName = sv.schema.Subgraphs[p.Subgraph].Name
		case KindExtension:
			p.Extension = b.key.extension
		}
		if p.Kind == KindEntityLookup {
			p.EntityType = b.key.entityType
			p.Key = b.key.key
		}
		for _, id := range b.nodes {
			sv.nodes[id].Partition = p.ID
		}
		parts[i] = p
	}

	for _, p := range parts {
		var inputs []NodeID
		for _, id := range p.Nodes {
			n := sv.nodes[id]
			if n.Resolver == nil {
				continue
			}
			for _, t := range n.Resolver.Needs {
				if sv.nodes[t].Partition != p.ID {
					inputs = append(inputs, t)
				}
			}
		}
		if p.Parent != NoNode {
			inputs = append(inputs, p.Parent)
		}
		inputs = dedupeNodes(inputs)
		sort.Slice(inputs, func(i, j int) bool { return inputs[i] < inputs[j] })
		p.Inputs = inputs
	}

	// A mutation run starts once every request below the previous run is done.
	runOf := make(map[PartitionID]int, len(runs))
	for i, b := range runs {
		runOf[ids[b]] = i
	}
	var chain []Edge
	for _, p := range parts {
		top := p.Entries[0]
		for sv.nodes[top].Parent != NoNode {
			top = sv.nodes[top].Parent
		}
		i, ok := runOf[sv.nodes[top].Partition]
		if !ok || i+1 >= len(runs) {
			continue
		}
		chain = append(chain, Edge{From: p.ID, To: ids[runs[i+1]]})
	}
	return parts, chain, nil
}

// level is the depth of the chain of sibling requests a lookup or extension
// node waits for. Siblings served with the parent do not count.
func (sv *solver) level(n *Node) (int, error) {
	if l, ok := sv.levels[n.ID]; ok {
		if l < 0 {
			return 0, invariantf("field %s waits on itself", n.Coordinate())
		}
		return l, nil
	}
	sv.levels[n.ID] = -1
	level := 0
	for _, t := range n.Resolver.Needs {
		top := t
		for sv.nodes[top].Parent != n.Parent {
			top = sv.nodes[top].Parent
			if top == NoNode {
				return 0, invariantf("field %s needs %s outside its parent", n.Coordinate(), sv.nodes[t].Coordinate())
			}
		}
		s := sv.nodes[top]
		if s.inherit || s.Resolver.Kind == KindFetch {
			continue
		}
		l, err := sv.level(s)
		if err != nil {
			return 0, err
		}
		if l+1 > level {
			level = l + 1
		}
	}
	sv.levels[n.ID] = level
	return level, nil
}
