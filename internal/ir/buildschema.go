package ir

import (
	language "github.com/hanpama/fedgraph/internal/language"
)

func (b *builder) processSchemaDefinitions() error {
	var declared *Schema
	for _, sd := range b.docs {
		var defs []*language.SchemaDefinition
		defs = append(defs, sd.doc.Schema...)
		defs = append(defs, sd.doc.SchemaExtension...)
		for _, schemaDef := range defs {
			if len(schemaDef.OperationTypes) == 0 {
				// `extend schema @link(...)` carries no root types
				continue
			}
			s := &Schema{}
			for _, opType := range schemaDef.OperationTypes {
				switch opType.Operation {
				case language.Query:
					s.QueryType = opType.Type
				case language.Mutation:
					s.MutationType = opType.Type
				case language.Subscription:
					s.SubscriptionType = opType.Type
				}
			}
			if declared != nil && *declared != *s {
				b.addViolation(violationSchemaConflict(schemaDef.Position))
				continue
			}
			declared = s
		}
	}

	if declared == nil {
		declared = &Schema{}
		if _, ok := b.Definitions["Query"]; ok {
			declared.QueryType = "Query"
		}
		if _, ok := b.Definitions["Mutation"]; ok {
			declared.MutationType = "Mutation"
		}
		if _, ok := b.Definitions["Subscription"]; ok {
			declared.SubscriptionType = "Subscription"
		}
	}
	b.Schema = declared

	if b.Schema.QueryType == "" {
		b.addViolation(violationQueryTypeRequired())
	}
	for _, root := range []struct{ kind, name string }{
		{"Query", b.Schema.QueryType},
		{"Mutation", b.Schema.MutationType},
		{"Subscription", b.Schema.SubscriptionType},
	} {
		if root.name == "" {
			continue
		}
		if def, ok := b.Definitions[root.name]; !ok {
			b.addViolation(violationRootTypeNotFound(root.kind, root.name))
		} else if def.Object == nil {
			b.addViolation(violationRootTypeNotObject(root.kind, root.name))
		}
	}

	return b.result()
}

func (b *builder) isRootObject(name string) bool {
	if b.Schema == nil {
		return false
	}
	return (b.Schema.QueryType != "" && b.Schema.QueryType == name) ||
		(b.Schema.MutationType != "" && b.Schema.MutationType == name) ||
		(b.Schema.SubscriptionType != "" && b.Schema.SubscriptionType == name)
}
