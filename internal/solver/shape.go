package solver

// buildShapes gives every partition a shape over its entry fields.
func (sv *solver) buildShapes(parts []*Partition) []*Shape {
	var shapes []*Shape
	for _, p := range parts {
		typeName := sv.op.RootType
		if p.Parent != NoNode {
			typeName = sv.nodes[p.Entries[0]].ParentType
		}
		p.Shape = sv.concreteShape(&shapes, p.ID, typeName, p.Entries)
	}
	return shapes
}

func (sv *solver) concreteShape(shapes *[]*Shape, part PartitionID, typeName string, ids []NodeID) ShapeID {
	s := &Shape{ID: ShapeID(len(*shapes)), Kind: ShapeConcrete, TypeName: typeName, Fallback: NoShape}
	*shapes = append(*shapes, s)
	for _, id := range ids {
		n := sv.nodes[id]
		s.Fields = append(s.Fields, &ShapeField{
			ResponseKey: n.ResponseKey,
			Node:        n.ID,
			Exposed:     !n.Synthetic(),
			Shape:       sv.childShape(shapes, part, n),
		})
	}
	return s.ID
}

// childShape describes the members of part selected below n.
func (sv *solver) childShape(shapes *[]*Shape, part PartitionID, n *Node) ShapeID {
	named := n.Type.GetNamedType()
	if !sv.schema.IsComposite(named) {
		return NoShape
	}
	var children []NodeID
	for _, c := range n.Children {
		child := sv.nodes[c]
		if child.live && child.Partition == part {
			children = append(children, c)
		}
	}
	if !sv.schema.IsAbstract(named) {
		return sv.concreteShape(shapes, part, named, children)
	}

	s := &Shape{ID: ShapeID(len(*shapes)), Kind: ShapePolymorphic, TypeName: named}
	*shapes = append(*shapes, s)
	for _, possible := range sv.schema.PossibleTypes(named) {
		if t := sv.schema.Types[possible]; t == nil || t.Inaccessible {
			continue
		}
		var applies []NodeID
		for _, c := range children {
			if sv.schema.Implements(possible, sv.nodes[c].ParentType) {
				applies = append(applies, c)
			}
		}
		s.Cases = append(s.Cases, &ShapeCase{TypeName: possible, Shape: sv.concreteShape(shapes, part, possible, applies)})
	}
	var common []NodeID
	for _, c := range children {
		if sv.nodes[c].ParentType == named {
			common = append(common, c)
		}
	}
	s.Fallback = sv.concreteShape(shapes, part, named, common)
	return s.ID
}
