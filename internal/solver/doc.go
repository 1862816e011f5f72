// Package solver turns a bound operation into a federated query plan.
//
// Solving runs in five stages over a flat node arena:
//
//  1. buildGraph creates one node per bound field and lists the resolver
//     candidates that can serve it.
//  2. expandRequirements adds the key, __typename and @requires fields that
//     entity lookups and requiring resolvers depend on.
//  3. selectResolvers picks exactly one candidate per live node.
//  4. buildPartitions groups the chosen candidates into subgraph fetches and
//     buildSchedule orders them.
//  5. buildShapes describes how each partition response folds into the
//     client response.
//
// Solve is synchronous, does no I/O and never mutates the schema or the
// bound operation.
package solver
