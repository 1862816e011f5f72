package ir

import (
	language "github.com/hanpama/fedgraph/internal/language"
)

type fieldSetKind string

const (
	fieldSetKey      fieldSetKind = "key"
	fieldSetRequires fieldSetKind = "requires"
)

// fieldSetUse is a @key or @requires field set waiting for validation.
type fieldSetUse struct {
	kind     fieldSetKind
	typeName string
	field    string
	fields   string
	subgraph SubgraphID
	pos      *language.Position
}

func (b *builder) populateDirectiveUses() error {
	for _, sd := range b.docs {
		for _, node := range sd.nodes() {
			def := b.Definitions[node.Name]
			if def == nil || federationTypes[node.Name] || getTypeKind(def) != kindName(node.Kind) {
				continue
			}

			switch node.Kind {
			case language.Object:
				shareable := b.processObjectTypeDirectives(sd.subgraph, def.Object, node)
				b.processObjectFieldDirectives(sd.subgraph, def.Object, node, shareable)
			case language.Interface:
				b.processInterfaceTypeDirectives(def.Interface, node)
				b.processInterfaceFieldDirectives(sd.subgraph, def.Interface, node)
			case language.Union:
				b.processUnionTypeDirectives(def.Union, node)
			case language.Scalar:
				b.processScalarTypeDirectives(def.Scalar, node)
			case language.Enum, language.InputObject:
				b.checkOnlyTagDirectives(node)
			}
		}
	}

	return b.result()
}

// processObjectTypeDirectives reports whether the node is marked @shareable.
func (b *builder) processObjectTypeDirectives(sg *Subgraph, def *ObjectDefinition, node *language.Definition) bool {
	shareable := false
	for _, dir := range node.Directives {
		switch dir.Name {
		case "key":
			b.handleKeyDirective(sg, def, dir, node)
		case "shareable":
			b.checkNoDirectiveArguments(dir)
			shareable = true
		case "inaccessible":
			b.checkNoDirectiveArguments(dir)
			def.Inaccessible = true
		case "extends", "tag":
			// no effect on composition
		default:
			b.addViolation(violationUnknownDirectiveOnType(dir.Name, node.Kind, node.Name, dir.Position))
		}
	}
	return shareable
}

func (b *builder) handleKeyDirective(sg *Subgraph, obj *ObjectDefinition, dir *language.Directive, node *language.Definition) {
	key := &KeyDefinition{Subgraph: sg.ID, Resolvable: true}
	for _, arg := range dir.Arguments {
		switch arg.Name {
		case "fields":
			key.Fields = b.getStringValue(arg.Value)
		case "resolvable":
			key.Resolvable = b.getBoolValue(arg.Value)
		default:
			b.addViolation(violationUnknownDirectiveArgument("key", arg.Name, arg.Position))
		}
	}
	if key.Fields == "" {
		b.addViolation(violationMissingDirectiveArgument("key", "fields", dir.Position))
		return
	}
	if b.isRootObject(obj.Name) {
		b.addViolation(violationKeyOnRootType(obj.Name, dir.Position))
		return
	}
	for _, existing := range obj.Keys {
		if existing.Subgraph == key.Subgraph && existing.Fields == key.Fields {
			b.addViolation(violationDuplicateKey(key.Fields, obj.Name, string(sg.ID), dir.Position))
			return
		}
	}
	obj.Keys = append(obj.Keys, key)
	b.fieldSets = append(b.fieldSets, &fieldSetUse{
		kind:     fieldSetKey,
		typeName: obj.Name,
		fields:   key.Fields,
		subgraph: sg.ID,
		pos:      dir.Position,
	})
}

func (b *builder) processObjectFieldDirectives(sg *Subgraph, obj *ObjectDefinition, node *language.Definition, shareable bool) {
	for _, fieldNode := range node.Fields {
		fd := obj.Fields[fieldNode.Name]
		owner := ownerOf(fd, sg.ID)
		if owner == nil {
			continue
		}
		if shareable {
			owner.Shareable = true
		}
		for _, dir := range fieldNode.Directives {
			switch dir.Name {
			case "external":
				b.checkNoDirectiveArguments(dir)
				owner.External = true
			case "shareable":
				b.checkNoDirectiveArguments(dir)
				owner.Shareable = true
			case "requires":
				b.handleRequiresDirective(sg, obj, fd, owner, dir)
			case "cost":
				b.handleCostDirective(owner, dir)
			case "extension":
				b.handleExtensionDirective(owner, dir)
			case "inaccessible":
				b.checkNoDirectiveArguments(dir)
				fd.Inaccessible = true
			case "deprecated":
				fd.Deprecation = b.projectDeprecation(dir)
			case "provides", "tag":
				// provided fields are not used for planning
			default:
				b.addViolation(violationUnknownDirectiveOnField(dir.Name, fieldNode.Name, node.Name, dir.Position))
			}
		}
		if owner.External && owner.Requires != "" {
			b.addViolation(violationExternalRequires(node.Name, fieldNode.Name, fieldNode.Position))
		}
	}
}

func (b *builder) handleRequiresDirective(sg *Subgraph, obj *ObjectDefinition, fd *FieldDefinition, owner *FieldOwner, dir *language.Directive) {
	for _, arg := range dir.Arguments {
		switch arg.Name {
		case "fields":
			owner.Requires = b.getStringValue(arg.Value)
		default:
			b.addViolation(violationUnknownDirectiveArgument("requires", arg.Name, arg.Position))
		}
	}
	if owner.Requires == "" {
		b.addViolation(violationMissingDirectiveArgument("requires", "fields", dir.Position))
		return
	}
	if b.isRootObject(obj.Name) {
		b.addViolation(violationRequiresOnRootField(obj.Name, fd.Name, dir.Position))
		owner.Requires = ""
		return
	}
	b.fieldSets = append(b.fieldSets, &fieldSetUse{
		kind:     fieldSetRequires,
		typeName: obj.Name,
		field:    fd.Name,
		fields:   owner.Requires,
		subgraph: sg.ID,
		pos:      dir.Position,
	})
}

func (b *builder) handleCostDirective(owner *FieldOwner, dir *language.Directive) {
	found := false
	for _, arg := range dir.Arguments {
		switch arg.Name {
		case "weight":
			found = true
			owner.Cost = b.getIntValue(arg.Value)
			if owner.Cost < 0 {
				b.addViolation(violationNegativeCost(owner.Cost, arg.Position))
			}
		default:
			b.addViolation(violationUnknownDirectiveArgument("cost", arg.Name, arg.Position))
		}
	}
	if !found {
		b.addViolation(violationMissingDirectiveArgument("cost", "weight", dir.Position))
	}
}

func (b *builder) handleExtensionDirective(owner *FieldOwner, dir *language.Directive) {
	for _, arg := range dir.Arguments {
		switch arg.Name {
		case "name":
			owner.Extension = b.getStringValue(arg.Value)
		default:
			b.addViolation(violationUnknownDirectiveArgument("extension", arg.Name, arg.Position))
		}
	}
	if owner.Extension == "" {
		b.addViolation(violationMissingDirectiveArgument("extension", "name", dir.Position))
	}
}

func (b *builder) processInterfaceTypeDirectives(def *InterfaceDefinition, node *language.Definition) {
	for _, dir := range node.Directives {
		switch dir.Name {
		case "inaccessible":
			b.checkNoDirectiveArguments(dir)
			def.Inaccessible = true
		case "tag":
		default:
			b.addViolation(violationUnknownDirectiveOnType(dir.Name, node.Kind, node.Name, dir.Position))
		}
	}
}

func (b *builder) processInterfaceFieldDirectives(sg *Subgraph, iface *InterfaceDefinition, node *language.Definition) {
	for _, fieldNode := range node.Fields {
		fd := iface.Fields[fieldNode.Name]
		owner := ownerOf(fd, sg.ID)
		if owner == nil {
			continue
		}
		for _, dir := range fieldNode.Directives {
			switch dir.Name {
			case "deprecated":
				fd.Deprecation = b.projectDeprecation(dir)
			case "inaccessible":
				b.checkNoDirectiveArguments(dir)
				fd.Inaccessible = true
			case "shareable":
				b.checkNoDirectiveArguments(dir)
				owner.Shareable = true
			case "external":
				b.checkNoDirectiveArguments(dir)
				owner.External = true
			case "tag":
			default:
				// Interface fields are resolved through their implementations
				b.addViolation(violationInterfaceDirectiveNotAllowed(dir.Name, fieldNode.Name, fieldNode.Position))
			}
		}
	}
}

func (b *builder) processUnionTypeDirectives(def *UnionDefinition, node *language.Definition) {
	for _, dir := range node.Directives {
		switch dir.Name {
		case "inaccessible":
			b.checkNoDirectiveArguments(dir)
			def.Inaccessible = true
		case "tag":
		default:
			b.addViolation(violationUnknownDirectiveOnType(dir.Name, node.Kind, node.Name, dir.Position))
		}
	}
}

func (b *builder) processScalarTypeDirectives(def *ScalarDefinition, node *language.Definition) {
	for _, dir := range node.Directives {
		switch dir.Name {
		case "specifiedBy":
			for _, arg := range dir.Arguments {
				switch arg.Name {
				case "url":
					def.SpecifiedByURL = b.getStringValue(arg.Value)
				default:
					b.addViolation(violationUnknownDirectiveArgument("specifiedBy", arg.Name, arg.Position))
				}
			}
		case "tag":
		default:
			b.addViolation(violationUnknownDirectiveOnType(dir.Name, node.Kind, node.Name, dir.Position))
		}
	}
}

func (b *builder) projectDeprecation(dir *language.Directive) *Deprecation {
	reason := "No longer supported"

	for _, arg := range dir.Arguments {
		switch arg.Name {
		case "reason":
			reason = b.getStringValue(arg.Value)
		default:
			b.addViolation(violationUnknownDirectiveArgument("deprecated", arg.Name, arg.Position))
		}
	}

	return &Deprecation{
		Reason: reason,
	}
}

func (b *builder) checkOnlyTagDirectives(node *language.Definition) {
	for _, dir := range node.Directives {
		if dir.Name == "tag" {
			continue
		}
		b.addViolation(violationUnknownDirectiveOnType(dir.Name, node.Kind, node.Name, dir.Position))
	}
}

func (b *builder) checkNoDirectiveArguments(node *language.Directive) {
	for _, arg := range node.Arguments {
		b.addViolation(violationDirectiveNoArguments(node.Name, arg.Position))
	}
}

func ownerOf(fd *FieldDefinition, id SubgraphID) *FieldOwner {
	if fd == nil {
		return nil
	}
	for _, o := range fd.Owners {
		if o.Subgraph == id {
			return o
		}
	}
	return nil
}
