// Package shading builds material networks in the scene: the shader and its
// shading group, one file texture per slot, and the utility nodes each
// shader family needs between the textures and the shader.
package shading

import (
	"context"
	"fmt"
	"strings"

	"github.com/shadercreator/backend/internal/logging"
	"github.com/shadercreator/backend/internal/models"
	"github.com/shadercreator/backend/internal/profile"
	"github.com/shadercreator/backend/internal/scene"
	"github.com/shadercreator/backend/internal/udim"
)

// BuildError reports the step that failed and the nodes created before it.
// Nothing is rolled back.
type BuildError struct {
	Step    string
	Created []string
	Err     error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Link describes how one texture slot was wired.
type Link struct {
	Role       models.TextureRole `json:"role"`
	Attribute  string             `json:"attribute"`
	Target     scene.Plug         `json:"target"`
	File       string             `json:"file"`
	Placement  string             `json:"placement"`
	Utility    string             `json:"utility,omitempty"`
	Shader     string             `json:"shader,omitempty"`
	Pattern    string             `json:"pattern"`
	TilingMode models.TilingMode  `json:"tilingMode"`
}

// Nodes returns the nodes created for this link in creation order.
func (l Link) Nodes() []string {
	out := []string{l.File, l.Placement}
	if l.Utility != "" {
		out = append(out, l.Utility)
	}
	if l.Shader != "" {
		out = append(out, l.Shader)
	}
	return out
}

// Builder issues scene commands for material networks.
type Builder struct {
	scene    scene.Scene
	profiles *profile.Registry
	log      logging.Interface
}

// NewBuilder creates a builder. A nil log discards output.
func NewBuilder(sc scene.Scene, profiles *profile.Registry, log logging.Interface) *Builder {
	if log == nil {
		log = logging.Discard()
	}
	return &Builder{scene: sc, profiles: profiles, log: log}
}

// Profiles returns the family table the builder resolves against.
func (b *Builder) Profiles() *profile.Registry {
	return b.profiles
}

// tracker collects the nodes created during one call so failures can
// report them.
type tracker struct {
	created []string
}

func (t *tracker) fail(step string, err error) *BuildError {
	return &BuildError{Step: step, Created: append([]string(nil), t.created...), Err: err}
}

func (b *Builder) create(ctx context.Context, t *tracker, req scene.NodeRequest) (string, error) {
	name, err := b.scene.CreateNode(ctx, req)
	if err != nil {
		return "", err
	}
	t.created = append(t.created, name)
	return name, nil
}

// CreateShader creates the shader node and its shading group and connects
// shader.outColor to the group's surfaceShader. The group is named after
// name, or after the host-assigned shader id when name is empty.
func (b *Builder) CreateShader(ctx context.Context, name, shaderType string) (models.Network, error) {
	var t tracker
	material, err := b.create(ctx, &t, scene.NodeRequest{Type: shaderType, Name: name, Category: scene.CategoryShader})
	if err != nil {
		return models.Network{}, t.fail("create shader", err)
	}

	base := name
	if base == "" {
		base = material
	}
	sg, err := b.create(ctx, &t, scene.NodeRequest{Type: "shadingEngine", Name: base + "_SG", Category: scene.CategorySet})
	if err != nil {
		return models.Network{}, t.fail("create shading group", err)
	}

	if err := b.scene.Connect(ctx, scene.P(material, "outColor"), scene.P(sg, "surfaceShader")); err != nil {
		return models.Network{}, t.fail("connect shading group", err)
	}
	b.log.Debug("[Shader %s] created %s with %s", material, shaderType, sg)
	return models.Network{Material: material, ShadingGroup: sg, ShaderType: shaderType}, nil
}

// Assign makes objects members of the shading group, moving them out of any
// other group. An empty list is a no-op.
func (b *Builder) Assign(ctx context.Context, objects []string, shadingGroup string) error {
	if len(objects) == 0 {
		return nil
	}
	if err := b.scene.AddToSet(ctx, objects, shadingGroup, true); err != nil {
		return &BuildError{Step: "assign", Err: err}
	}
	return nil
}

// ConnectTextures creates and wires one file texture per enabled slot with
// a path, skipping roles the shader family cannot take.
func (b *Builder) ConnectTextures(ctx context.Context, network models.Network, slots []models.TextureSlot) ([]Link, error) {
	var t tracker
	prof, err := b.profiles.Resolve(network.ShaderType)
	if err != nil {
		return nil, t.fail("resolve family", err)
	}

	attrs, err := b.attributes(ctx, network)
	if err != nil {
		return nil, t.fail("list attributes", err)
	}

	var links []Link
	for _, slot := range slots {
		if !slot.Enabled || slot.Unset() {
			continue
		}
		attr, ok := prof.Supports(slot.Role, attrs)
		if !ok {
			b.log.Debug("[Shader %s] %s has no %s input, skipped", network.Material, network.ShaderType, slot.Role)
			continue
		}
		link, err := b.connectSlot(ctx, &t, prof, network, slot, attr)
		if err != nil {
			return links, err
		}
		links = append(links, link)
	}
	return links, nil
}

func (b *Builder) attributes(ctx context.Context, network models.Network) ([]string, error) {
	attrs, err := b.scene.ListAttributes(ctx, network.Material)
	if err != nil {
		return nil, err
	}
	sgAttrs, err := b.scene.ListAttributes(ctx, network.ShadingGroup)
	if err != nil {
		return nil, err
	}
	return append(attrs, sgAttrs...), nil
}

// createFile makes the file node and its 2D placement.
func (b *Builder) createFile(ctx context.Context, t *tracker, material string, role models.TextureRole, path string) (Link, error) {
	link := Link{Role: role}
	step := "create " + role.String() + " texture"

	file, err := b.create(ctx, t, scene.NodeRequest{Type: "file", Name: material + "_" + role.String(), Category: scene.CategoryTexture})
	if err != nil {
		return link, t.fail(step, err)
	}
	link.File = file

	link.Pattern, link.TilingMode = udim.Normalize(path)
	if err := b.scene.SetAttr(ctx, scene.P(file, "fileTextureName"), link.Pattern); err != nil {
		return link, t.fail(step, err)
	}
	if err := b.scene.SetAttr(ctx, scene.P(file, "uvTilingMode"), int(link.TilingMode)); err != nil {
		return link, t.fail(step, err)
	}

	placement, err := b.create(ctx, t, scene.NodeRequest{Type: "place2dTexture", Name: "place2d_" + file, Category: scene.CategoryTexture})
	if err != nil {
		return link, t.fail(step, err)
	}
	link.Placement = placement
	if err := b.scene.LinkPlacement(ctx, placement, file); err != nil {
		return link, t.fail(step, err)
	}
	return link, nil
}

// through creates a utility node and wires src -> node -> dst.
func (b *Builder) through(ctx context.Context, t *tracker, choice *profile.NodeChoice, name string, category scene.Category, file string, dst scene.Plug) (string, error) {
	node, err := b.create(ctx, t, scene.NodeRequest{Type: choice.Type, Name: name, Category: category})
	if err != nil {
		return "", err
	}
	if err := b.scene.Connect(ctx, scene.P(file, choice.Source), scene.P(node, choice.Input)); err != nil {
		return "", err
	}
	if err := b.scene.Connect(ctx, scene.P(node, choice.Output), dst); err != nil {
		return "", err
	}
	return node, nil
}

func (b *Builder) connectSlot(ctx context.Context, t *tracker, prof *profile.Profile, network models.Network, slot models.TextureSlot, attr string) (Link, error) {
	link, err := b.createFile(ctx, t, network.Material, slot.Role, slot.Path)
	if err != nil {
		return link, err
	}
	link.Attribute = attr
	step := "connect " + slot.Role.String()
	shader := network.Material

	switch slot.Role {
	case models.RoleBump:
		choice, suffix := prof.Nodes.Bump, "_bump2d"
		if !prof.UseBumpNode(slot.Path) {
			choice, suffix = prof.Nodes.Normal, "_normalMap"
		}
		link.Target = scene.P(shader, attr)
		link.Utility, err = b.through(ctx, t, choice, shader+suffix, scene.CategoryUtility, link.File, link.Target)

	case models.RoleDisplacement:
		link.Target = scene.P(network.ShadingGroup, attr)
		link.Shader, err = b.connectDisplacement(ctx, t, prof, shader, link.File, &link)

	default:
		link.Target = scene.P(shader, attr)
		colorLike := strings.Contains(strings.ToLower(attr), "color")
		switch {
		case colorLike && prof.Nodes.ColorCorrect != nil:
			link.Utility, err = b.through(ctx, t, prof.Nodes.ColorCorrect, shader+"_"+slot.Role.String()+"_cc", scene.CategoryUtility, link.File, link.Target)
		case !colorLike && prof.Nodes.Range != nil:
			link.Utility, err = b.through(ctx, t, prof.Nodes.Range, shader+"_"+slot.Role.String()+"_range", scene.CategoryUtility, link.File, link.Target)
		default:
			out := "outColorR"
			if colorLike {
				out = "outColor"
			}
			err = b.scene.Connect(ctx, scene.P(link.File, out), link.Target)
		}
	}
	if err != nil {
		return link, t.fail(step, err)
	}
	b.log.Debug("[Shader %s] %s -> %s", shader, link.File, link.Target)
	return link, nil
}

// connectDisplacement creates the displacement shader, optionally behind the
// family's remap node, and feeds it into the shading group.
func (b *Builder) connectDisplacement(ctx context.Context, t *tracker, prof *profile.Profile, shader, file string, link *Link) (string, error) {
	d := prof.Nodes.Displacement
	disp, err := b.create(ctx, t, scene.NodeRequest{Type: d.Type, Name: shader + "_dispShd", Category: scene.CategoryShader})
	if err != nil {
		return "", err
	}

	if prof.Extended && prof.Nodes.Remap != nil {
		link.Utility, err = b.through(ctx, t, prof.Nodes.Remap, shader+"_displacement_range", scene.CategoryUtility, file, scene.P(disp, d.Input))
		if err != nil {
			return disp, err
		}
	} else if err := b.scene.Connect(ctx, scene.P(file, d.Source), scene.P(disp, d.Input)); err != nil {
		return disp, err
	}

	if err := b.scene.Connect(ctx, scene.P(disp, d.Output), link.Target); err != nil {
		return disp, err
	}
	return disp, nil
}
