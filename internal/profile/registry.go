package profile

import (
	"fmt"
	"strings"
)

// Registry is the ordered, read-only profile table. Resolution tries each
// family's match rules in file order, then falls back to the default family.
type Registry struct {
	profiles      []*Profile
	defaultFamily string
}

// NewRegistry builds a registry from already validated profiles.
func NewRegistry(defaultFamily string, profiles ...*Profile) (*Registry, error) {
	r := &Registry{defaultFamily: defaultFamily}
	seen := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		if err := p.validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate profile: %s", p.Name)
		}
		seen[key] = true
		r.profiles = append(r.profiles, p)
	}
	if defaultFamily != "" {
		if _, err := r.Get(defaultFamily); err != nil {
			return nil, fmt.Errorf("default family: %w", err)
		}
	}
	return r, nil
}

// Resolve returns the profile for a shader node type.
func (r *Registry) Resolve(shaderType string) (*Profile, error) {
	for _, p := range r.profiles {
		if p.Match.Accepts(shaderType) {
			return p, nil
		}
	}
	if r.defaultFamily != "" {
		return r.Get(r.defaultFamily)
	}
	for _, p := range r.profiles {
		if p.Match.Default {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, shaderType)
}

// Get returns a profile by name (any case).
func (r *Registry) Get(name string) (*Profile, error) {
	name = strings.ToLower(name)
	for _, p := range r.profiles {
		if strings.ToLower(p.Name) == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, name)
}

// Profiles returns the profiles in resolution order.
func (r *Registry) Profiles() []*Profile {
	out := make([]*Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// DefaultFamily returns the fallback family name, if any.
func (r *Registry) DefaultFamily() string {
	return r.defaultFamily
}
