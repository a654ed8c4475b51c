// Package scene is the narrow boundary between the shading logic and the
// host application's scene graph.
package scene

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNodeNotFound is returned for operations on nodes the scene does not know.
var ErrNodeNotFound = errors.New("node not found")

// Category is how a node is registered with the host's shading system.
type Category string

const (
	CategoryShader  Category = "shader"
	CategoryTexture Category = "texture"
	CategoryUtility Category = "utility"
	CategorySet     Category = "set"
)

// NodeRequest describes a node to create. An empty Name lets the host
// choose one.
type NodeRequest struct {
	Type     string
	Name     string
	Category Category
}

// Plug is one attribute of one node.
type Plug struct {
	Node string `json:"node" msgpack:"node"`
	Attr string `json:"attr" msgpack:"attr"`
}

// P is shorthand for a Plug.
func P(node, attr string) Plug {
	return Plug{Node: node, Attr: attr}
}

func (p Plug) String() string {
	return p.Node + "." + p.Attr
}

// ParsePlug splits "node.attr" at the first dot.
func ParsePlug(s string) (Plug, error) {
	node, attr, ok := strings.Cut(s, ".")
	if !ok || node == "" || attr == "" {
		return Plug{}, fmt.Errorf("invalid plug: %q", s)
	}
	return Plug{Node: node, Attr: attr}, nil
}

// Scene is the set of host primitives the shading logic needs.
type Scene interface {
	// CreateNode creates a node and returns the id the host assigned.
	CreateNode(ctx context.Context, req NodeRequest) (string, error)
	// Connect wires src into dst.
	Connect(ctx context.Context, src, dst Plug) error
	// SetAttr sets a string or integer attribute.
	SetAttr(ctx context.Context, plug Plug, value any) error
	// LinkPlacement connects a 2D placement node to a texture with the
	// host's default wiring.
	LinkPlacement(ctx context.Context, placement, texture string) error
	// AddToSet adds objects to a set. force moves them out of any other
	// exclusive set first.
	AddToSet(ctx context.Context, objects []string, set string, force bool) error
	// ListSelected returns the selection, optionally filtered by node type.
	ListSelected(ctx context.Context, filterType string) ([]string, error)
	// ListNodeTypes returns the node types of a classification, skipping
	// those also in excluding.
	ListNodeTypes(ctx context.Context, category, excluding string) ([]string, error)
	// ListAttributes returns a node's attribute names in host order.
	ListAttributes(ctx context.Context, node string) ([]string, error)
	// NodeType returns the type of the node, or of its first shape when
	// node is a transform.
	NodeType(ctx context.Context, node string) (string, error)
}

// HostError is a failure reported by the host application.
type HostError struct {
	Command string
	Message string
}

func (e *HostError) Error() string {
	if e.Command == "" {
		return "host error: " + e.Message
	}
	return fmt.Sprintf("host error running %q: %s", e.Command, e.Message)
}
