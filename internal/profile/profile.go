// Package profile holds the immutable shader family table: which attribute
// names each role maps to and which utility nodes a family wires in.
package profile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shadercreator/backend/internal/models"
)

// ErrUnknownFamily is returned when no profile matches a shader type.
var ErrUnknownFamily = errors.New("unknown shader family")

// NodeChoice names a utility node type and the plugs used to wire it.
// Source is the file texture output that feeds Input; Output feeds the
// shader or shading group.
type NodeChoice struct {
	Type   string `yaml:"type" json:"type"`
	Source string `yaml:"source" json:"source"`
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`
}

// Nodes are the utility node choices of a family. Nil entries mean the
// family has no such node.
type Nodes struct {
	Bump         *NodeChoice `yaml:"bump" json:"bump,omitempty"`
	Normal       *NodeChoice `yaml:"normal" json:"normal,omitempty"`
	Displacement *NodeChoice `yaml:"displacement" json:"displacement,omitempty"`
	Remap        *NodeChoice `yaml:"remap" json:"remap,omitempty"`
	ColorCorrect *NodeChoice `yaml:"color_correct" json:"colorCorrect,omitempty"`
	Range        *NodeChoice `yaml:"range" json:"range,omitempty"`
}

// Match decides which shader types a family covers.
type Match struct {
	Types    []string `yaml:"types" json:"types,omitempty"`
	Prefixes []string `yaml:"prefixes" json:"prefixes,omitempty"`
	Default  bool     `yaml:"default" json:"default,omitempty"`
}

// Accepts reports whether shaderType is an exact type or carries a prefix
// of this family. Default families are handled by the registry.
func (m Match) Accepts(shaderType string) bool {
	for _, t := range m.Types {
		if t == shaderType {
			return true
		}
	}
	for _, p := range m.Prefixes {
		if p != "" && strings.HasPrefix(shaderType, p) {
			return true
		}
	}
	return false
}

// Profile is one shader family.
type Profile struct {
	Name        string                          `json:"name"`
	Extended    bool                            `json:"extended"`
	Match       Match                           `json:"match"`
	BumpKeyword string                          `json:"bumpKeyword,omitempty"`
	Aliases     map[models.TextureRole][]string `json:"aliases"`
	Nodes       Nodes                           `json:"nodes"`
}

// Supports resolves role against the attribute names of a shader and its
// shading group. The first alias in alias order that exists wins; false
// means the family cannot take this role.
func (p *Profile) Supports(role models.TextureRole, attrs []string) (string, bool) {
	if len(attrs) == 0 {
		return "", false
	}
	have := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		have[a] = struct{}{}
	}
	for _, alias := range p.Aliases[role] {
		if _, ok := have[alias]; ok {
			return alias, true
		}
	}
	return "", false
}

// UseBumpNode reports whether a bump texture at path takes the bump node
// rather than the normal-map node. Non-extended families always use the
// bump node.
func (p *Profile) UseBumpNode(path string) bool {
	if !p.Extended || p.Nodes.Normal == nil {
		return true
	}
	keyword := p.BumpKeyword
	if keyword == "" {
		keyword = "bump"
	}
	return strings.Contains(strings.ToLower(path), strings.ToLower(keyword))
}

func (p *Profile) validate() error {
	if p.Name == "" {
		return errors.New("profile without name")
	}
	if p.Nodes.Bump == nil {
		return fmt.Errorf("profile %s: bump node is required", p.Name)
	}
	if p.Nodes.Displacement == nil {
		return fmt.Errorf("profile %s: displacement node is required", p.Name)
	}
	if p.Extended && p.Nodes.Remap == nil {
		return fmt.Errorf("profile %s: extended families need a remap node", p.Name)
	}
	for _, choice := range []*NodeChoice{p.Nodes.Bump, p.Nodes.Normal, p.Nodes.Displacement, p.Nodes.Remap, p.Nodes.ColorCorrect, p.Nodes.Range} {
		if choice == nil {
			continue
		}
		if choice.Type == "" || choice.Input == "" || choice.Output == "" {
			return fmt.Errorf("profile %s: node choice needs type, input and output", p.Name)
		}
	}
	return nil
}
