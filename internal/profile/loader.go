package profile

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/shadercreator/backend/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var defaultProfiles []byte

type profileFile struct {
	DefaultFamily string        `yaml:"default_family"`
	Families      []profileYAML `yaml:"families"`
}

type profileYAML struct {
	Name        string              `yaml:"name"`
	Extended    bool                `yaml:"extended"`
	Match       Match               `yaml:"match"`
	BumpKeyword string              `yaml:"bump_keyword"`
	Aliases     map[string][]string `yaml:"aliases"`
	Nodes       Nodes               `yaml:"nodes"`
}

// LoadDefault loads the built-in profile table.
func LoadDefault() (*Registry, error) {
	return LoadFromReader(bytes.NewReader(defaultProfiles))
}

// LoadFile loads a profile table from a YAML file.
func LoadFile(filePath string) (*Registry, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// Load returns the table at filePath when it exists and the built-in table
// otherwise. defaultFamily, when set, overrides the file's default.
func Load(filePath, defaultFamily string) (*Registry, error) {
	var (
		reg *Registry
		err error
	)
	if filePath != "" {
		if _, statErr := os.Stat(filePath); statErr == nil {
			reg, err = LoadFile(filePath)
		} else if !os.IsNotExist(statErr) {
			return nil, statErr
		}
	}
	if reg == nil && err == nil {
		reg, err = LoadDefault()
	}
	if err != nil {
		return nil, err
	}
	if defaultFamily != "" && defaultFamily != reg.defaultFamily {
		return NewRegistry(defaultFamily, reg.profiles...)
	}
	return reg, nil
}

// LoadFromReader parses a YAML profile table.
func LoadFromReader(r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing profiles: %w", err)
	}
	if len(file.Families) == 0 {
		return nil, fmt.Errorf("parsing profiles: no families defined")
	}

	profiles := make([]*Profile, 0, len(file.Families))
	for _, raw := range file.Families {
		p := &Profile{
			Name:        raw.Name,
			Extended:    raw.Extended,
			Match:       raw.Match,
			BumpKeyword: raw.BumpKeyword,
			Aliases:     make(map[models.TextureRole][]string, len(raw.Aliases)),
			Nodes:       raw.Nodes,
		}
		for name, aliases := range raw.Aliases {
			role, err := models.ParseRole(name)
			if err != nil {
				return nil, fmt.Errorf("profile %s: %w", raw.Name, err)
			}
			p.Aliases[role] = aliases
		}
		profiles = append(profiles, p)
	}

	return NewRegistry(file.DefaultFamily, profiles...)
}

// DefaultYAML returns the built-in table source.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultProfiles))
	copy(out, defaultProfiles)
	return out
}
