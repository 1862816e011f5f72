package solver

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// buildSchedule derives the partition DAG from partition inputs plus the
// extra sequencing edges and validates it.
func (sv *solver) buildSchedule(parts []*Partition, extra []Edge) (*Schedule, error) {
	seen := make(map[Edge]bool)
	var edges []Edge
	addEdge := func(e Edge) error {
		if e.From == e.To {
			return invariantf("partition %d depends on itself", e.From)
		}
		if !seen[e] {
			seen[e] = true
			edges = append(edges, e)
		}
		return nil
	}
	for _, p := range parts {
		for _, in := range p.Inputs {
			from := sv.nodes[in].Partition
			if from < 0 {
				return nil, invariantf("input %s of partition %d is not planned", sv.nodes[in].Coordinate(), p.ID)
			}
			if err := addEdge(Edge{From: from, To: p.ID}); err != nil {
				return nil, err
			}
		}
	}
	for _, e := range extra {
		if err := addEdge(e); err != nil {
			return nil, err
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	g := simple.NewDirectedGraph()
	for _, p := range parts {
		g.AddNode(simple.Node(p.ID))
	}
	for _, e := range edges {
		g.SetEdge(simple.Edge{F: simple.Node(e.From), T: simple.Node(e.To)})
	}
	sorted, err := topo.SortStabilized(g, byID)
	if err != nil {
		return nil, invariantf("partition schedule is not acyclic: %v", err)
	}

	order := make([]PartitionID, len(sorted))
	for i, n := range sorted {
		order[i] = PartitionID(n.ID())
	}

	// Stage of a partition is the length of the longest path reaching it.
	preds := make(map[PartitionID][]PartitionID)
	for _, e := range edges {
		preds[e.To] = append(preds[e.To], e.From)
	}
	stage := make(map[PartitionID]int, len(order))
	var stages [][]PartitionID
	for _, id := range order {
		s := 0
		for _, p := range preds[id] {
			if stage[p]+1 > s {
				s = stage[p] + 1
			}
		}
		stage[id] = s
		for len(stages) <= s {
			stages = append(stages, nil)
		}
		stages[s] = append(stages[s], id)
	}
	for _, st := range stages {
		sort.Slice(st, func(i, j int) bool { return st[i] < st[j] })
	}

	if edges == nil {
		edges = []Edge{}
	}
	return &Schedule{Edges: edges, Order: order, Stages: stages}, nil
}

func byID(nodes []graph.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
}
