package ir

import (
	"fmt"

	language "github.com/hanpama/fedgraph/internal/language"
)

// Common reusable violation constructors (template helpers)
// NOTE: Keep messages stable to avoid breaking snapshot tests.

func violationUnknownDirectiveArgument(directive, arg string, pos *language.Position) *Violation {
	return violationWithPosition(
		"Unknown argument '"+arg+"' in @"+directive+" directive",
		pos,
	)
}

func violationMissingDirectiveArgument(directive, arg string, pos *language.Position) *Violation {
	return violationWithPosition(
		"Missing argument '"+arg+"' in @"+directive+" directive",
		pos,
	)
}

func violationUnknownDirectiveOnField(directive, fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		"Unknown directive @"+directive+" on field "+fieldName+" of type "+typeName,
		pos,
	)
}

func violationUnknownDirectiveOnType(directive string, kind language.DefinitionKind, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		"Unknown directive @"+directive+" on "+string(kind)+" type "+typeName,
		pos,
	)
}

func violationUnknownDirectiveOnArgument(directive, argName string, pos *language.Position) *Violation {
	return violationWithPosition(
		"Unknown directive @"+directive+" on argument "+argName,
		pos,
	)
}

func violationUnknownDirectiveOnEnumValue(directive, valueName string, pos *language.Position) *Violation {
	return violationWithPosition(
		"Unknown directive @"+directive+" on enum value "+valueName,
		pos,
	)
}

func violationCustomDirectiveDefinition(name string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Directive @%s is not a federation directive and cannot be composed", name),
		pos,
	)
}

func violationDirectiveNoArguments(name string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Directive @%s does not accept arguments", name),
		pos,
	)
}

func violationInterfaceDirectiveNotAllowed(directiveName, interfaceField string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Directive @%s is not allowed on interface field %q. Only object fields may declare resolution directives", directiveName, interfaceField),
		pos,
	)
}

// Generic helpers replacing scattered inline strings
func violationReservedFieldPrefix(kind, fieldName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("%s name %q cannot start with '__' (reserved prefix)", kind, fieldName),
		pos,
	)
}

func violationDuplicateField(kind, fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Duplicate field %q found in %s %q", fieldName, kind, typeName),
		pos,
	)
}

func violationDuplicateInputValue(fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Duplicate input value %q found in input %q", fieldName, typeName),
		pos,
	)
}

func violationDuplicateEnumValue(valueName, enumName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Duplicate enum value %q found in enum %q", valueName, enumName),
		pos,
	)
}

func violationTypeNotFound(typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Type %q not found in definitions", typeName),
		pos,
	)
}

func violationTypeNotInput(typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Type %q is not an input type", typeName),
		pos,
	)
}

func violationTypeNotOutput(typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Type %q is not an output type", typeName),
		pos,
	)
}

func violationObjectMustHaveField(typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Object type %q must have at least one field", typeName),
		pos,
	)
}

func violationInterfaceMustHaveField(typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Interface type %q must have at least one field", typeName),
		pos,
	)
}

func violationDefinitionKindMismatch(name, existing, incoming string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Type %q is declared as %s and %s in different subgraphs", name, existing, incoming),
		pos,
	)
}

func violationFieldTypeMismatch(typeName, fieldName string, existing, incoming *TypeExpr, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Field %s.%s has type %s in one subgraph and %s in another", typeName, fieldName, existing, incoming),
		pos,
	)
}

func violationArgumentTypeMismatch(typeName, fieldName, argName string, existing, incoming *TypeExpr, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Argument %q of field %s.%s has type %s in one subgraph and %s in another", argName, typeName, fieldName, existing, incoming),
		pos,
	)
}

func violationInputValueTypeMismatch(typeName, fieldName string, existing, incoming *TypeExpr, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Input value %s.%s has type %s in one subgraph and %s in another", typeName, fieldName, existing, incoming),
		pos,
	)
}

func violationDuplicateSubgraph(id SubgraphID) *Violation {
	return &Violation{
		Message: fmt.Sprintf("Subgraph %q is declared more than once", id),
	}
}

func violationDuplicateKey(fields, typeName, subgraph string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Duplicate @key(fields: %q) on type %s in subgraph %s", fields, typeName, subgraph),
		pos,
	)
}

func violationKeyOnRootType(typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Root type %s cannot declare @key", typeName),
		pos,
	)
}

func violationKeyFieldNotInSubgraph(fieldName, typeName, subgraph string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("@key field '%s' on type %s is not declared by subgraph %s", fieldName, typeName, subgraph),
		pos,
	)
}

func violationRequiresOnRootField(typeName, fieldName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Root field %s.%s cannot declare @requires", typeName, fieldName),
		pos,
	)
}

func violationRequiresSelf(typeName, fieldName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Field %s.%s cannot @requires itself", typeName, fieldName),
		pos,
	)
}

func violationExternalRequires(typeName, fieldName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("External field %s.%s cannot declare @requires", typeName, fieldName),
		pos,
	)
}

func violationNegativeCost(cost int, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("@cost weight must not be negative, got %d", cost),
		pos,
	)
}

func violationInvalidFieldSet(kind, fields, reason string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("@%s field set %q is invalid: %s", kind, fields, reason),
		pos,
	)
}

func violationFieldSetUnknownField(kind, fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("@%s field '%s' does not exist on type %s", kind, fieldName, typeName),
		pos,
	)
}

func violationFieldSetMissingSelection(kind, fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("@%s field '%s' on type %s must select subfields", kind, fieldName, typeName),
		pos,
	)
}

func violationFieldSetLeafSelection(kind, fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("@%s field '%s' on type %s is a leaf and cannot select subfields", kind, fieldName, typeName),
		pos,
	)
}

func violationFieldHasNoResolver(typeName, fieldName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Field %s.%s is @external in every subgraph that declares it", typeName, fieldName),
		pos,
	)
}

func violationFieldNotShareable(typeName, fieldName, subgraphs string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Field %s.%s is resolved by several subgraphs but is not @shareable in: %s", typeName, fieldName, subgraphs),
		pos,
	)
}

func violationExtensionFieldShared(typeName, fieldName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Extension field %s.%s must be declared by exactly one subgraph", typeName, fieldName),
		pos,
	)
}

func violationExpectedString(pos *language.Position) *Violation {
	return violationWithPosition(
		"Expected a string value",
		pos,
	)
}

func violationExpectedBoolean(pos *language.Position) *Violation {
	return violationWithPosition(
		"Expected a boolean value",
		pos,
	)
}

func violationExpectedInt(pos *language.Position) *Violation {
	return violationWithPosition(
		"Expected an integer value",
		pos,
	)
}

func violationSchemaConflict(pos *language.Position) *Violation {
	return violationWithPosition(
		"Subgraphs declare conflicting schema root types",
		pos,
	)
}

func violationQueryTypeRequired() *Violation {
	return &Violation{
		Message: "Query root type is required",
	}
}

func violationRootTypeNotFound(kind, typeName string) *Violation {
	return &Violation{
		Message: fmt.Sprintf("%s type %q not found in definitions", kind, typeName),
	}
}

func violationRootTypeNotObject(kind, typeName string) *Violation {
	return &Violation{
		Message: fmt.Sprintf("%s type %q must be an Object type", kind, typeName),
	}
}
