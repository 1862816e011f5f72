package solver

import (
	"github.com/hanpama/fedgraph/internal/operation"
	schema "github.com/hanpama/fedgraph/internal/schema"
)

// Solve plans a bound operation against the schema. Failures are
// *SolveError values and never come with a partial plan.
func Solve(s *schema.Schema, op *operation.Operation) (*SolvedOperation, error) {
	sv, err := buildGraph(s, op)
	if err != nil {
		return nil, err
	}
	if err := sv.expandRequirements(); err != nil {
		return nil, err
	}
	if err := sv.selectResolvers(); err != nil {
		return nil, err
	}
	parts, chain, err := sv.buildPartitions()
	if err != nil {
		return nil, err
	}
	sched, err := sv.buildSchedule(parts, chain)
	if err != nil {
		return nil, err
	}
	shapes := sv.buildShapes(parts)
	sv.renderDocuments(parts)
	return sv.result(parts, sched, shapes)
}

// result collects the live nodes and checks that each belongs to exactly
// one partition.
func (sv *solver) result(parts []*Partition, sched *Schedule, shapes []*Shape) (*SolvedOperation, error) {
	out := &SolvedOperation{
		Operation:  sv.op,
		Name:       sv.op.Name,
		Kind:       sv.op.Kind,
		Partitions: parts,
		Schedule:   sched,
		Shapes:     shapes,
		byID:       make(map[NodeID]*Node),
	}
	count := make(map[NodeID]int)
	for _, p := range parts {
		for _, id := range p.Nodes {
			count[id]++
		}
	}
	for _, n := range sv.nodes {
		if !n.live {
			continue
		}
		if count[n.ID] != 1 || n.Partition < 0 {
			return nil, invariantf("field %s belongs to %d partitions", n.Coordinate(), count[n.ID])
		}
		live := n.Children[:0:0]
		for _, c := range n.Children {
			if sv.nodes[c].live {
				live = append(live, c)
			}
		}
		n.Children = live
		out.Fields = append(out.Fields, n)
		out.byID[n.ID] = n
	}
	for _, f := range sv.op.Fields {
		if out.byID[NodeID(f.ID)] == nil {
			return nil, invariantf("client field %s was not planned", f.ParentType+"."+f.Name)
		}
	}
	return out, nil
}
