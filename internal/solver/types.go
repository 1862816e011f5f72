package solver

import (
	"fmt"

	language "github.com/hanpama/fedgraph/internal/language"
	"github.com/hanpama/fedgraph/internal/operation"
	schema "github.com/hanpama/fedgraph/internal/schema"
)

// NodeID addresses a node in the arena. Client nodes share the id of the
// bound field they were created from.
type NodeID int

// NoNode is the parent of root nodes.
const NoNode NodeID = -1

// Origin tells why a node exists.
type Origin int

const (
	OriginClient      Origin = iota // selected by the client
	OriginTypename                  // __typename added for abstract dispatch
	OriginRequirement               // needed by a @requires field set
	OriginKey                       // needed by an entity lookup
)

var originNames = [...]string{"client", "typename", "requirement", "key"}

func (o Origin) String() string { return originNames[o] }

func (o Origin) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// CandidateKind tags how a candidate resolves its field.
type CandidateKind int

const (
	KindFetch         CandidateKind = iota // query the subgraph directly
	KindEntityLookup                       // enter the subgraph through an entity key
	KindIntrospection                      // served by the gateway
	KindExtension                          // served by a gateway extension
)

var kindNames = [...]string{"fetch", "entityLookup", "introspection", "extension"}

func (k CandidateKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("CandidateKind(%d)", int(k))
}

func (k CandidateKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Node is one field instance in the operation graph.
type Node struct {
	ID          NodeID                `json:"id"`
	Parent      NodeID                `json:"parent"`
	ParentType  string                `json:"parentType"`
	Name        string                `json:"name"`
	ResponseKey string                `json:"responseKey"`
	Type        *schema.TypeRef       `json:"type"`
	Origin      Origin                `json:"origin"`
	Children    []NodeID              `json:"children,omitempty"`
	Resolver    *Candidate            `json:"resolver,omitempty"` // nil when the node inherits its parent's partition
	Partition   PartitionID           `json:"partition"`
	Arguments   language.ArgumentList `json:"-"`
	Definition  *schema.Field         `json:"-"`
	Candidates  []*Candidate          `json:"-"`

	// inherit marks nodes resolved with their parent: nested __typename
	// and everything below introspection or extension fields.
	inherit bool
	live    bool
	target  int // Subgraph serving the node once chosen, -1 for the gateway
}

// Synthetic reports whether the node was added by the solver.
func (n *Node) Synthetic() bool { return n.Origin != OriginClient }

// IsTypename reports whether the node selects __typename.
func (n *Node) IsTypename() bool { return n.Name == "__typename" }

// Coordinate returns Type.field.
func (n *Node) Coordinate() string { return n.ParentType + "." + n.Name }

// Candidate is one way of resolving a node.
type Candidate struct {
	Kind      CandidateKind     `json:"kind"`
	Index     int               `json:"index"`
	Subgraph  int               `json:"subgraph"` // Declaring subgraph; -1 for introspection
	Cost      int               `json:"cost"`
	Requires  schema.FieldSet   `json:"requires,omitempty"`
	Key       *schema.EntityKey `json:"key,omitempty"`
	Extension string            `json:"extension,omitempty"`
	Needs     []NodeID          `json:"needs,omitempty"` // Nodes that must be resolved first
}

// PartitionID addresses a partition; ids follow the lowest member node id.
type PartitionID int

// Partition is a chunk of the operation resolved by one request.
type Partition struct {
	ID           PartitionID   `json:"id"`
	Kind         CandidateKind `json:"kind"`
	Subgraph     int           `json:"subgraph"`
	SubgraphName string        `json:"subgraphName,omitempty"`
	Extension    string        `json:"extension,omitempty"`
	Parent       NodeID        `json:"parent"` // Node the partition's entry fields hang off, NoNode at the root
	EntityType   string        `json:"entityType,omitempty"`
	Key          string        `json:"key,omitempty"`
	Level        int           `json:"level"`
	Entries      []NodeID      `json:"entries"` // Top-level members in response order
	Nodes        []NodeID      `json:"nodes"`   // All members, ascending
	Inputs       []NodeID      `json:"inputs,omitempty"`
	Shape        ShapeID       `json:"shape"`
	Document     string        `json:"document,omitempty"`
	Variables    []string      `json:"variables,omitempty"`
}

// Edge orders two partitions: To consumes a field produced by From.
type Edge struct {
	From PartitionID `json:"from"`
	To   PartitionID `json:"to"`
}

// Schedule is the partial order over partitions.
type Schedule struct {
	Edges  []Edge          `json:"edges"`
	Order  []PartitionID   `json:"order"`
	Stages [][]PartitionID `json:"stages"` // Partitions in one stage may run concurrently
}

// ShapeID addresses a shape. NoShape marks leaves.
type ShapeID int

const NoShape ShapeID = -1

// ShapeKind tags shapes.
type ShapeKind int

const (
	ShapeConcrete ShapeKind = iota
	ShapePolymorphic
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeConcrete:
		return "concrete"
	case ShapePolymorphic:
		return "polymorphic"
	}
	return fmt.Sprintf("ShapeKind(%d)", int(k))
}

func (k ShapeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Shape tells how to fold a partition response onto the client response.
type Shape struct {
	ID       ShapeID       `json:"id"`
	Kind     ShapeKind     `json:"kind"`
	TypeName string        `json:"typeName"`
	Fields   []*ShapeField `json:"fields,omitempty"` // concrete
	Cases    []*ShapeCase  `json:"cases,omitempty"`  // polymorphic, sorted by type name
	Fallback ShapeID       `json:"fallback"`         // polymorphic, for unknown or inaccessible types; NoShape otherwise
}

type ShapeField struct {
	ResponseKey string  `json:"responseKey"`
	Node        NodeID  `json:"node"`
	Exposed     bool    `json:"exposed"` // false for solver-added fields
	Shape       ShapeID `json:"shape"`
}

type ShapeCase struct {
	TypeName string  `json:"typeName"`
	Shape    ShapeID `json:"shape"`
}

// SolvedOperation is an immutable query plan. It borrows the schema and the
// bound operation and may be shared by concurrent executions.
type SolvedOperation struct {
	Operation  *operation.Operation `json:"-"`
	Name       string               `json:"name,omitempty"`
	Kind       language.Operation   `json:"kind"`
	Fields     []*Node              `json:"fields"` // Live nodes, ascending id
	Partitions []*Partition         `json:"partitions"`
	Schedule   *Schedule            `json:"schedule"`
	Shapes     []*Shape             `json:"shapes"`

	byID map[NodeID]*Node
}

// Field returns the live node with the given id or nil.
func (s *SolvedOperation) Field(id NodeID) *Node { return s.byID[id] }

// Partition returns the partition with the given id.
func (s *SolvedOperation) Partition(id PartitionID) *Partition { return s.Partitions[id] }

// PartitionOf returns the partition that resolves the node.
func (s *SolvedOperation) PartitionOf(id NodeID) *Partition {
	n := s.byID[id]
	if n == nil {
		return nil
	}
	return s.Partitions[n.Partition]
}
