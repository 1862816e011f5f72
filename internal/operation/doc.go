// Package operation binds a parsed GraphQL operation to the supergraph schema.
//
// Binding resolves fragments and @skip/@include, merges fields that share a
// response key and records every field with its parent type and schema
// definition. The bound operation is the input of the query solver.
package operation
