package ir

import (
	"strings"

	language "github.com/hanpama/fedgraph/internal/language"
)

func (b *builder) populateReferences() error {
	for _, sd := range b.docs {
		for _, node := range sd.nodes() {
			def := b.Definitions[node.Name]
			if def == nil || federationTypes[node.Name] || getTypeKind(def) != kindName(node.Kind) {
				continue
			}
			b.populateDefinitionReference(sd.subgraph, def, node)
		}
	}
	return b.result()
}

func (b *builder) populateDefinitionReference(sg *Subgraph, def *Definition, node *language.Definition) {
	switch node.Kind {
	case language.Object:
		def.Object.Fields = b.mergeFields(sg, "object", def.Object.Fields, node)
	case language.Interface:
		def.Interface.Fields = b.mergeFields(sg, "interface", def.Interface.Fields, node)
	case language.Union:
		// NOOP
	case language.InputObject:
		b.extendInputDefinition(sg, def.Input, node)
	case language.Enum:
		b.extendEnumDefinition(sg, def.Enum, node)
	case language.Scalar:
		// NOOP
	default:
		panic("unreachable")
	}
}

// seenMember reports whether sg already declared member on typeName and
// records it otherwise.
func (b *builder) seenMember(sg *Subgraph, typeName, member string) bool {
	key := [3]string{string(sg.ID), typeName, member}
	if b.members[key] {
		return true
	}
	b.members[key] = true
	return false
}

func (b *builder) mergeFields(sg *Subgraph, kind string, fields map[string]*FieldDefinition, node *language.Definition) map[string]*FieldDefinition {
	for _, fieldNode := range node.Fields {
		if federationFields[fieldNode.Name] {
			continue
		}
		if strings.HasPrefix(fieldNode.Name, "__") {
			b.addViolation(violationReservedFieldPrefix("Field", fieldNode.Name, fieldNode.Position))
			continue
		}
		if b.seenMember(sg, node.Name, fieldNode.Name) {
			b.addViolation(violationDuplicateField(kind, fieldNode.Name, node.Name, fieldNode.Position))
			continue
		}

		incoming := b.populateFieldDefinition(len(fields), fieldNode)
		existing, ok := fields[fieldNode.Name]
		if !ok {
			fields[fieldNode.Name] = incoming
			existing = incoming
		} else {
			b.mergeFieldDefinition(node.Name, existing, incoming, fieldNode.Position)
		}
		existing.Owners = append(existing.Owners, &FieldOwner{
			Subgraph: sg.ID,
			Cost:     DefaultFieldCost,
		})
	}
	return fields
}

// mergeFieldDefinition folds another subgraph's declaration of the same field
// into existing. Field types must agree; arguments are merged by name.
func (b *builder) mergeFieldDefinition(typeName string, existing, incoming *FieldDefinition, pos *language.Position) {
	if incoming.Type != nil && existing.Type != nil && !b.typesAreEqual(existing.Type, incoming.Type) {
		b.addViolation(violationFieldTypeMismatch(typeName, existing.Name, existing.Type, incoming.Type, pos))
	}
	if existing.Description == "" {
		existing.Description = incoming.Description
	}
	for _, arg := range incoming.OrderedArgs() {
		current, ok := existing.Args[arg.Name]
		if !ok {
			arg.Index = len(existing.Args)
			existing.Args[arg.Name] = arg
			continue
		}
		if arg.Type != nil && current.Type != nil && !b.typesAreEqual(current.Type, arg.Type) {
			b.addViolation(violationArgumentTypeMismatch(typeName, existing.Name, arg.Name, current.Type, arg.Type, pos))
		}
	}
}

func (b *builder) extendInputDefinition(sg *Subgraph, def *InputDefinition, node *language.Definition) {
	for _, fieldNode := range node.Fields {
		if b.seenMember(sg, node.Name, fieldNode.Name) {
			b.addViolation(violationDuplicateInputValue(fieldNode.Name, node.Name, fieldNode.Position))
			continue
		}
		incoming := b.projectInputValueDefinition(len(def.InputValues), fieldNode)
		if incoming == nil {
			continue
		}
		if existing, ok := def.InputValues[fieldNode.Name]; ok {
			if incoming.Type != nil && existing.Type != nil && !b.typesAreEqual(existing.Type, incoming.Type) {
				b.addViolation(violationInputValueTypeMismatch(node.Name, fieldNode.Name, existing.Type, incoming.Type, fieldNode.Position))
			}
			continue
		}
		def.InputValues[fieldNode.Name] = incoming
	}
}

func (b *builder) extendEnumDefinition(sg *Subgraph, def *EnumDefinition, node *language.Definition) {
	for _, value := range node.EnumValues {
		if b.seenMember(sg, node.Name, value.Name) {
			b.addViolation(violationDuplicateEnumValue(value.Name, node.Name, value.Position))
			continue
		}
		if _, ok := def.Values[value.Name]; ok {
			continue
		}
		def.Values[value.Name] = b.projectEnumValueDefinition(len(def.Values), value)
	}
}

func (b *builder) populateFieldDefinition(index int, node *language.FieldDefinition) *FieldDefinition {
	def := &FieldDefinition{
		Name:        node.Name,
		Description: node.Description,
		Index:       index,
		Type:        b.projectTypeExpr(node.Type, typeExprModeOutput),
		Args:        make(map[string]*ArgumentDefinition, len(node.Arguments)),
		Deprecation: nil,
		Owners:      nil,
	}

	for _, argNode := range node.Arguments {
		if strings.HasPrefix(argNode.Name, "__") {
			b.addViolation(violationReservedFieldPrefix("Argument", argNode.Name, argNode.Position))
			continue
		}
		def.Args[argNode.Name] = b.projectArgumentDefinition(len(def.Args), argNode)
	}
	return def
}

func (b *builder) projectArgumentDefinition(index int, node *language.ArgumentDefinition) *ArgumentDefinition {
	def := &ArgumentDefinition{
		Name:        node.Name,
		Description: node.Description,
		Index:       index,
		Type:        b.projectTypeExpr(node.Type, typeExprModeInput),
		Deprecation: nil,
	}
	if node.DefaultValue != nil {
		def.DefaultValue = node.DefaultValue.String()
	}
	for _, dir := range node.Directives {
		switch dir.Name {
		case "deprecated":
			def.Deprecation = b.projectDeprecation(dir)
		default:
			b.addViolation(violationUnknownDirectiveOnArgument(dir.Name, node.Name, dir.Position))
		}
	}
	return def
}

func (b *builder) projectInputValueDefinition(index int, node *language.FieldDefinition) *InputValueDefinition {
	def := &InputValueDefinition{
		Name:        node.Name,
		Description: node.Description,
		Index:       index,
		Type:        b.projectTypeExpr(node.Type, typeExprModeInput),
		Deprecation: nil,
	}
	if def.Type == nil {
		return nil
	}
	if node.DefaultValue != nil {
		def.DefaultValue = node.DefaultValue.String()
	}
	for _, dir := range node.Directives {
		switch dir.Name {
		case "deprecated":
			def.Deprecation = b.projectDeprecation(dir)
		default:
			b.addViolation(violationUnknownDirectiveOnArgument(dir.Name, node.Name, dir.Position))
		}
	}
	return def
}

func (b *builder) projectEnumValueDefinition(index int, node *language.EnumValueDefinition) *EnumValueDefinition {
	def := &EnumValueDefinition{
		Name:        node.Name,
		Description: node.Description,
		Index:       index,
		Deprecation: nil,
	}
	for _, dir := range node.Directives {
		switch dir.Name {
		case "deprecated":
			def.Deprecation = b.projectDeprecation(dir)
		case "inaccessible", "tag":
		default:
			b.addViolation(violationUnknownDirectiveOnEnumValue(dir.Name, node.Name, dir.Position))
		}
	}
	return def
}

func (b *builder) projectTypeExpr(node *language.Type, mode typeExprMode) *TypeExpr {
	if node.NonNull {
		inner := b.projectTypeExpr(&language.Type{
			NamedType: node.NamedType,
			Elem:      node.Elem,
			NonNull:   false,
			Position:  node.Position,
		}, mode)
		if inner == nil {
			return nil
		}
		return &TypeExpr{Kind: TypeExprKindNonNull, OfType: inner}
	} else if node.Elem != nil {
		inner := b.projectTypeExpr(node.Elem, mode)
		if inner == nil {
			return nil
		}
		return &TypeExpr{Kind: TypeExprKindList, OfType: inner}
	} else {
		def, ok := b.Definitions[node.NamedType]
		if !ok {
			b.addViolation(violationTypeNotFound(node.NamedType, node.Position))
			return nil
		}
		if mode == typeExprModeInput {
			if def.Input == nil && def.Scalar == nil && def.Enum == nil {
				b.addViolation(violationTypeNotInput(node.NamedType, node.Position))
				return nil
			}
		}
		if mode == typeExprModeOutput {
			if def.Object == nil && def.Interface == nil && def.Union == nil && def.Scalar == nil && def.Enum == nil {
				b.addViolation(violationTypeNotOutput(node.NamedType, node.Position))
				return nil
			}
		}
		return &TypeExpr{
			Kind:  TypeExprKindNamed,
			Named: node.NamedType,
		}
	}
}

type typeExprMode int

const (
	typeExprModeInput typeExprMode = iota
	typeExprModeOutput
)
