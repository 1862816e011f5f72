package solver

import (
	language "github.com/hanpama/fedgraph/internal/language"
	"github.com/hanpama/fedgraph/internal/operation"
)

// renderDocuments renders the subgraph request of every fetch and entity
// lookup partition.
func (sv *solver) renderDocuments(parts []*Partition) {
	for _, p := range parts {
		var def *language.OperationDefinition
		switch p.Kind {
		case KindFetch:
			def = &language.OperationDefinition{
				Operation:    sv.op.Kind,
				SelectionSet: sv.selection(p, sv.op.RootType, p.Entries),
			}
		case KindEntityLookup:
			entities := &language.Field{
				Alias: "_entities",
				Name:  "_entities",
				Arguments: language.ArgumentList{{
					Name:  "representations",
					Value: &language.Value{Kind: language.Variable, Raw: "representations"},
				}},
				SelectionSet: language.SelectionSet{&language.InlineFragment{
					TypeCondition: p.EntityType,
					SelectionSet:  sv.selection(p, p.EntityType, p.Entries),
				}},
			}
			def = &language.OperationDefinition{
				Operation: language.Query,
				VariableDefinitions: language.VariableDefinitionList{{
					Variable: "representations",
					Type:     language.NonNullListType(language.NonNullNamedType("_Any")),
				}},
				SelectionSet: language.SelectionSet{entities},
			}
		default:
			continue
		}
		args := make([]language.ArgumentList, len(p.Nodes))
		for i, id := range p.Nodes {
			args[i] = sv.nodes[id].Arguments
		}
		p.Variables = operation.VariablesUsed(args...)
		for _, name := range p.Variables {
			if v := sv.op.Variables.ForName(name); v != nil {
				def.VariableDefinitions = append(def.VariableDefinitions, v)
			}
		}
		p.Document = language.Format(&language.QueryDocument{Operations: language.OperationList{def}})
	}
}

// selection renders the members of p among ids, wrapping fields selected on
// another type than enclosing in inline fragments.
func (sv *solver) selection(p *Partition, enclosing string, ids []NodeID) language.SelectionSet {
	var out language.SelectionSet
	fragments := make(map[string]*language.InlineFragment)
	for _, id := range ids {
		n := sv.nodes[id]
		if !n.live || n.Partition != p.ID {
			continue
		}
		sel := &language.Field{Alias: n.ResponseKey, Name: n.Name, Arguments: n.Arguments}
		if sv.schema.IsComposite(n.Type.GetNamedType()) {
			sel.SelectionSet = sv.selection(p, n.Type.GetNamedType(), n.Children)
			if len(sel.SelectionSet) == 0 {
				// Every child comes from another request
				sel.SelectionSet = language.SelectionSet{&language.Field{Name: "__typename"}}
			}
		}
		if n.ParentType == enclosing {
			out = append(out, sel)
			continue
		}
		frag := fragments[n.ParentType]
		if frag == nil {
			frag = &language.InlineFragment{TypeCondition: n.ParentType}
			fragments[n.ParentType] = frag
			out = append(out, frag)
		}
		frag.SelectionSet = append(frag.SelectionSet, sel)
	}
	return out
}
