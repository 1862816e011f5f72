package ir

var StringType = &ScalarDefinition{
	Name:           "String",
	Description:    "The String scalar type represents textual data, represented as UTF-8 character sequences.",
	SpecifiedByURL: "https://spec.graphql.org/October2021/#sec-String",
}

var IntType = &ScalarDefinition{
	Name:           "Int",
	Description:    "The Int scalar type represents non-fractional signed whole numeric values.",
	SpecifiedByURL: "https://spec.graphql.org/October2021/#sec-Int",
}

var FloatType = &ScalarDefinition{
	Name:           "Float",
	Description:    "The Float scalar type represents signed double-precision fractional values.",
	SpecifiedByURL: "https://spec.graphql.org/October2021/#sec-Float",
}

var BooleanType = &ScalarDefinition{
	Name:           "Boolean",
	Description:    "The Boolean scalar type represents true or false.",
	SpecifiedByURL: "https://spec.graphql.org/October2021/#sec-Boolean",
}

var IDType = &ScalarDefinition{
	Name:           "ID",
	Description:    "The ID scalar type represents a unique identifier, often used to refetch an object or as a key for caching.",
	SpecifiedByURL: "https://spec.graphql.org/October2021/#sec-ID",
}

// federationTypes are declared by subgraphs for their own runtime and are
// not part of the composed supergraph.
var federationTypes = map[string]bool{
	"_Any":          true,
	"_Entity":       true,
	"_Service":      true,
	"_FieldSet":     true,
	"FieldSet":      true,
	"link__Import":  true,
	"link__Purpose": true,
}

// federationFields are subgraph-only root fields.
var federationFields = map[string]bool{
	"_entities": true,
	"_service":  true,
}

// federationDirectives may be declared by subgraph SDL.
var federationDirectives = map[string]bool{
	"key":          true,
	"requires":     true,
	"provides":     true,
	"external":     true,
	"shareable":    true,
	"extends":      true,
	"inaccessible": true,
	"tag":          true,
	"link":         true,
	"cost":         true,
	"extension":    true,
}

// DefaultFieldCost is the cost of a field without @cost.
const DefaultFieldCost = 1
