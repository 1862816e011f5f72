package ir

import (
	language "github.com/hanpama/fedgraph/internal/language"
)

func (b *builder) populateDefinitions() error {
	for _, sd := range b.docs {
		for _, node := range sd.nodes() {
			if federationTypes[node.Name] {
				continue
			}
			def, ok := b.Definitions[node.Name]
			if !ok {
				def = &Definition{}
				switch node.Kind {
				case language.Object:
					def.Object = newObjectDefinition(node)
				case language.Interface:
					def.Interface = newInterfaceDefinition(node)
				case language.Union:
					def.Union = newUnionDefinition(node)
				case language.InputObject:
					def.Input = newInputDefinition(node)
				case language.Enum:
					def.Enum = newEnumDefinition(node)
				case language.Scalar:
					def.Scalar = newScalarDefinition(node)
				default:
					panic("unreachable")
				}
				b.Definitions[node.Name] = def
				b.positions[node.Name] = node.Position
			} else if kind := getTypeKind(def); kind != kindName(node.Kind) {
				b.addViolation(violationDefinitionKindMismatch(node.Name, kind, kindName(node.Kind), node.Position))
				continue
			}
			b.mergeDescription(def, node.Description)
			b.addSubgraphDefinition(sd.subgraph, node.Name)

			switch node.Kind {
			case language.Object:
				b.validateObjectFieldsExist(node)
			case language.Interface:
				b.validateInterfaceFieldsExist(node)
			}
		}
	}

	return b.result()
}

func (b *builder) addSubgraphDefinition(sg *Subgraph, name string) {
	for _, n := range sg.Definitions {
		if n == name {
			return
		}
	}
	sg.Definitions = append(sg.Definitions, name)
}

// mergeDescription keeps the first non-empty description.
func (b *builder) mergeDescription(def *Definition, desc string) {
	if desc == "" {
		return
	}
	switch {
	case def.Object != nil && def.Object.Description == "":
		def.Object.Description = desc
	case def.Interface != nil && def.Interface.Description == "":
		def.Interface.Description = desc
	case def.Union != nil && def.Union.Description == "":
		def.Union.Description = desc
	case def.Input != nil && def.Input.Description == "":
		def.Input.Description = desc
	case def.Enum != nil && def.Enum.Description == "":
		def.Enum.Description = desc
	}
}

func newObjectDefinition(node *language.Definition) *ObjectDefinition {
	return &ObjectDefinition{
		Name:        node.Name,
		Description: node.Description,
		Fields:      make(map[string]*FieldDefinition, len(node.Fields)),
		Interfaces:  make(map[string]*InterfaceImpl, len(node.Interfaces)),
		Keys:        []*KeyDefinition{},
	}
}

func newInterfaceDefinition(node *language.Definition) *InterfaceDefinition {
	return &InterfaceDefinition{
		Name:          node.Name,
		Description:   node.Description,
		Fields:        make(map[string]*FieldDefinition, len(node.Fields)),
		Interfaces:    make(map[string]*InterfaceImpl, len(node.Interfaces)),
		PossibleTypes: []string{},
	}
}

func newUnionDefinition(node *language.Definition) *UnionDefinition {
	return &UnionDefinition{
		Name:        node.Name,
		Description: node.Description,
		Types:       make(map[string]*UnionTypeDefinition, len(node.Types)),
	}
}

func newInputDefinition(node *language.Definition) *InputDefinition {
	return &InputDefinition{
		Name:        node.Name,
		Description: node.Description,
		InputValues: make(map[string]*InputValueDefinition, len(node.Fields)),
	}
}

func newEnumDefinition(node *language.Definition) *EnumDefinition {
	return &EnumDefinition{
		Name:        node.Name,
		Description: node.Description,
		Values:      make(map[string]*EnumValueDefinition, len(node.EnumValues)),
	}
}

func newScalarDefinition(node *language.Definition) *ScalarDefinition {
	return &ScalarDefinition{
		Name:        node.Name,
		Description: node.Description,
	}
}

func (b *builder) validateObjectFieldsExist(node *language.Definition) {
	if len(node.Fields) == 0 {
		b.addViolation(violationObjectMustHaveField(node.Name, node.Position))
	}
}

func (b *builder) validateInterfaceFieldsExist(node *language.Definition) {
	if len(node.Fields) == 0 {
		b.addViolation(violationInterfaceMustHaveField(node.Name, node.Position))
	}
}

func kindName(kind language.DefinitionKind) string {
	switch kind {
	case language.Object:
		return "Object"
	case language.Interface:
		return "Interface"
	case language.Union:
		return "Union"
	case language.InputObject:
		return "InputObject"
	case language.Enum:
		return "Enum"
	case language.Scalar:
		return "Scalar"
	}
	return "Unknown"
}
