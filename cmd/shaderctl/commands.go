package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shadercreator/backend/internal/models"
	"github.com/shadercreator/backend/internal/naming"
	"github.com/shadercreator/backend/internal/profile"
	"github.com/shadercreator/backend/internal/storage"
	"github.com/shadercreator/backend/internal/udim"
	"github.com/shadercreator/backend/internal/validation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// errForbiddenName makes validate-name exit non-zero.
var errForbiddenName = errors.New("name contains forbidden characters")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shaderctl",
		Short:         "Inspect texture naming, UDIM patterns and shader profiles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("json", false, "Output JSON")
	root.AddCommand(
		newRoleCmd(),
		newRelateCmd(),
		newUDIMCmd(),
		newProfilesCmd(),
		newValidateNameCmd(),
	)
	return root
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type roleResult struct {
	File    string  `json:"file"`
	Role    *string `json:"role,omitempty"`
	Version *int    `json:"version,omitempty"`
}

func newRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "role <file>...",
		Short: "Print the role and version found in each file name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]roleResult, 0, len(args))
			for _, f := range args {
				r := roleResult{File: f}
				if role, ok := naming.ResolveRole(f); ok {
					s := role.String()
					r.Role = &s
				}
				if v, ok := naming.ResolveVersion(f); ok {
					r.Version = &v
				}
				results = append(results, r)
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			for _, r := range results {
				role, version := "-", "-"
				if r.Role != nil {
					role = *r.Role
				}
				if r.Version != nil {
					version = fmt.Sprintf("v%02d", *r.Version)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", r.File, role, version)
			}
			return nil
		},
	}
}

func newRelateCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "relate <anchor>",
		Short: "List the sibling textures that follow the anchor's naming",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.NewLocalStore(root)
			if err != nil {
				return err
			}
			anchor := filepath.ToSlash(args[0])
			related, err := naming.FindRelatedFiles(store, anchor)
			if err != nil {
				var nerr *naming.NamingError
				if errors.As(err, &nerr) {
					return fmt.Errorf("%w (missing %s)", err, strings.Join(nerr.Missing(), ", "))
				}
				return err
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), related)
			}
			for _, role := range models.AllRoles() {
				if p, ok := related[role]; ok {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-13s %s\n", role.String()+":", p)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "Directory relative anchors are resolved against")
	return cmd
}

func newUDIMCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "udim <path>...",
		Short: "Print the wildcard pattern and tiling mode for texture paths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			descs := make([]models.UDIMDescriptor, 0, len(args))
			for _, p := range args {
				descs = append(descs, udim.Describe(p))
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), descs)
			}
			for _, d := range descs {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s (%d)\n", d.BasePattern, d.Mode, int(d.TilingMode))
			}
			return nil
		},
	}
}

func newProfilesCmd() *cobra.Command {
	var (
		file    string
		resolve string
	)
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Show the shader family profiles, or the family for one shader type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := profile.Load(file, "")
			if err != nil {
				return err
			}
			if resolve != "" {
				p, err := reg.Resolve(resolve)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return writeJSON(cmd.OutOrStdout(), p)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (extended: %t)\n", resolve, p.Name, p.Extended)
				return nil
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), reg.Profiles())
			}
			return printProfileSummary(cmd.OutOrStdout(), reg)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Profile YAML file (default: built-in table)")
	cmd.Flags().StringVar(&resolve, "resolve", "", "Shader type to resolve to its family")
	return cmd
}

// printProfileSummary writes family name, extended flag and supported roles
// as YAML.
func printProfileSummary(w io.Writer, reg *profile.Registry) error {
	type summary struct {
		Name     string   `yaml:"name"`
		Default  bool     `yaml:"default,omitempty"`
		Extended bool     `yaml:"extended"`
		Roles    []string `yaml:"roles"`
	}
	var out []summary
	for _, p := range reg.Profiles() {
		s := summary{Name: p.Name, Default: p.Name == reg.DefaultFamily(), Extended: p.Extended}
		for role := range p.Aliases {
			s.Roles = append(s.Roles, role.String())
		}
		sort.Strings(s.Roles)
		out = append(out, s)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

func newValidateNameCmd() *cobra.Command {
	var forbidden string
	cmd := &cobra.Command{
		Use:   "validate-name <name>",
		Short: "Check a shader name for forbidden characters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if validation.CheckName(name, forbidden) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%q: invalid\n", name)
				return errForbiddenName
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%q: ok\n", name)
			return nil
		},
	}
	cmd.Flags().StringVar(&forbidden, "forbidden", validation.DefaultForbiddenCharacters, "Characters a name may not contain")
	return cmd
}
