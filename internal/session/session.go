// Package session defines the boundary to a remote OPC UA server: node
// identity, the subset of client operations the discovery pipeline consumes,
// and the namespace index. Implementations live in subpackages.
package session

import (
	"context"
	"fmt"
)

// NodeID identifies one node in the server's address space. Two NodeIDs are
// equal iff they denote the same graph vertex, regardless of which reference
// path produced them, so NodeID is usable as a map key.
type NodeID struct {
	// Namespace is the namespace ordinal of the identifier.
	Namespace uint16
	// Text is the canonical string form of the full node id
	// (e.g. "i=84", "ns=2;s=Machine.Speed").
	Text string
}

func (n NodeID) String() string { return n.Text }

// IsZero reports whether n is the zero NodeID, used as the "no parent"
// marker on root edges.
func (n NodeID) IsZero() bool { return n.Text == "" }

// NumericID builds a NodeID with a numeric identifier.
func NumericID(ns uint16, id uint32) NodeID {
	if ns == 0 {
		return NodeID{Text: fmt.Sprintf("i=%d", id)}
	}
	return NodeID{Namespace: ns, Text: fmt.Sprintf("ns=%d;i=%d", ns, id)}
}

// StringID builds a NodeID with a string identifier.
func StringID(ns uint16, id string) NodeID {
	if ns == 0 {
		return NodeID{Text: fmt.Sprintf("s=%s", id)}
	}
	return NodeID{Namespace: ns, Text: fmt.Sprintf("ns=%d;s=%s", ns, id)}
}

// NodeClass is the categorical kind of a node.
type NodeClass uint32

const (
	ClassUnspecified   NodeClass = 0
	ClassObject        NodeClass = 1
	ClassVariable      NodeClass = 2
	ClassMethod        NodeClass = 4
	ClassObjectType    NodeClass = 8
	ClassVariableType  NodeClass = 16
	ClassReferenceType NodeClass = 32
	ClassDataType      NodeClass = 64
	ClassView          NodeClass = 128
)

func (c NodeClass) String() string {
	switch c {
	case ClassObject:
		return "Object"
	case ClassVariable:
		return "Variable"
	case ClassMethod:
		return "Method"
	case ClassObjectType:
		return "ObjectType"
	case ClassVariableType:
		return "VariableType"
	case ClassReferenceType:
		return "ReferenceType"
	case ClassDataType:
		return "DataType"
	case ClassView:
		return "View"
	default:
		return fmt.Sprintf("NodeClass(%d)", uint32(c))
	}
}

// NodeDetail carries the per-node attributes the XML serializer needs.
type NodeDetail struct {
	ID          NodeID
	BrowseName  string
	DisplayName string
	Class       NodeClass
	// Value is the node's current value rendered as text. HasValue is false
	// when the node carries no value attribute or value export is off.
	Value    string
	HasValue bool
}

// Session is the consumed collaborator: one established connection to an
// OPC UA server. Implementations are not safe for concurrent calls; the
// discovery pipeline issues remote calls strictly sequentially.
type Session interface {
	// Root returns the id of the address-space root folder.
	Root() NodeID
	// Children enumerates the targets of hierarchical references only.
	// Non-hierarchical references (type and property links back into shared
	// type definitions) are excluded, otherwise traversal cannot terminate.
	Children(ctx context.Context, id NodeID) ([]NodeID, error)
	// NodeClass reads the node's class attribute.
	NodeClass(ctx context.Context, id NodeID) (NodeClass, error)
	// Describe reads the attributes needed for export. The value is read
	// only when withValue is set.
	Describe(ctx context.Context, id NodeID, withValue bool) (NodeDetail, error)
	// NamespaceArray lists all namespace URIs known to the server.
	NamespaceArray(ctx context.Context) ([]string, error)
	// NamespaceOrdinal resolves a namespace URI to its ordinal.
	NamespaceOrdinal(ctx context.Context, uri string) (uint16, error)
	// Close releases the connection.
	Close(ctx context.Context) error
}
