package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// TextureRole is the semantic purpose of a texture slot. The set is closed.
type TextureRole int

const (
	RoleDiffuse TextureRole = iota
	RoleSpecular
	RoleRoughness
	RoleTransmission
	RoleSSS
	RoleSSSColor
	RoleBump
	RoleDisplacement
)

// RoleCount is the number of texture roles.
const RoleCount = 8

var roleNames = [RoleCount]string{
	"diffuse",
	"specular",
	"roughness",
	"transmission",
	"sss",
	"sssColor",
	"bump",
	"displacement",
}

// ErrUnknownRole is returned when a role name is not one of the eight roles.
var ErrUnknownRole = errors.New("unknown texture role")

// ErrDuplicateRole is returned when a shader spec carries two slots for one role.
var ErrDuplicateRole = errors.New("duplicate texture role")

// AllRoles returns every role in canonical order.
func AllRoles() []TextureRole {
	roles := make([]TextureRole, RoleCount)
	for i := range roles {
		roles[i] = TextureRole(i)
	}
	return roles
}

// Valid reports whether r is one of the eight roles.
func (r TextureRole) Valid() bool {
	return r >= 0 && int(r) < RoleCount
}

func (r TextureRole) String() string {
	if !r.Valid() {
		return fmt.Sprintf("TextureRole(%d)", int(r))
	}
	return roleNames[r]
}

// ParseRole maps a role name (any case) to its TextureRole.
func ParseRole(s string) (TextureRole, error) {
	s = strings.TrimSpace(s)
	for i, name := range roleNames {
		if strings.EqualFold(name, s) {
			return TextureRole(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// MarshalJSON encodes the role by name.
func (r TextureRole) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, int(r))
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a role name.
func (r *TextureRole) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	role, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// MarshalText lets roles be used as map keys in JSON and YAML.
func (r TextureRole) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name used as a map key.
func (r *TextureRole) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// TextureSlot is one role's file input. An empty Path means the slot is unset.
type TextureSlot struct {
	Role    TextureRole `json:"role"`
	Path    string      `json:"path,omitempty"`
	Enabled bool        `json:"enabled"`
}

// Unset reports whether the slot has no path.
func (s TextureSlot) Unset() bool {
	return strings.TrimSpace(s.Path) == ""
}

// ImageExtensions are the file types offered by the texture file picker.
var ImageExtensions = []string{"jpg", "jpeg", "tif", "png", "tga", "exr"}
