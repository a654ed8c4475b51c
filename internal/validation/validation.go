// Package validation checks a create request before anything touches the
// scene: the shader name, the selected objects and the texture slots.
package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shadercreator/backend/internal/models"
	"github.com/shadercreator/backend/internal/scene"
	"github.com/shadercreator/backend/internal/storage"
)

// DefaultForbiddenCharacters are rejected in shader names.
const DefaultForbiddenCharacters = "@!#$%^&*()<>?/\\|}{~:´"

// Classifier reports the node type of a scene object.
type Classifier interface {
	NodeType(ctx context.Context, node string) (string, error)
}

// Options tune the checks and the blocking policy.
type Options struct {
	ForbiddenCharacters   string
	SurfaceTypes          []string
	BlockOnNameError      bool
	BlockOnSelectionError bool
}

// DefaultOptions returns the stock rules: meshes and NURBS surfaces may take
// a shader, name and selection problems block the build.
func DefaultOptions() Options {
	return Options{
		ForbiddenCharacters:   DefaultForbiddenCharacters,
		SurfaceTypes:          []string{"mesh", "nurbsSurface"},
		BlockOnNameError:      true,
		BlockOnSelectionError: true,
	}
}

// Engine runs the pre-build checks.
type Engine struct {
	classifier Classifier
	fs         storage.FileSystem
	opts       Options
}

// NewEngine creates an engine. Zero-valued option fields fall back to the
// defaults; the blocking flags are taken as given.
func NewEngine(classifier Classifier, fs storage.FileSystem, opts Options) *Engine {
	def := DefaultOptions()
	if opts.ForbiddenCharacters == "" {
		opts.ForbiddenCharacters = def.ForbiddenCharacters
	}
	if len(opts.SurfaceTypes) == 0 {
		opts.SurfaceTypes = def.SurfaceTypes
	}
	return &Engine{classifier: classifier, fs: fs, opts: opts}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// CheckName reports whether name contains a forbidden or non-ASCII
// character. An empty name is accepted; the host generates one.
func CheckName(name, forbidden string) bool {
	for _, r := range name {
		if r > unicode.MaxASCII || strings.ContainsRune(forbidden, r) {
			return true
		}
	}
	return false
}

// Validate builds the report for one create request. selected is only
// classified when non-empty. Each enabled slot path is checked once.
func (e *Engine) Validate(ctx context.Context, name string, selected []string, slots []models.TextureSlot) (*models.ValidationReport, error) {
	report := &models.ValidationReport{}

	if CheckName(name, e.opts.ForbiddenCharacters) {
		report.NameWarning = name
	}

	for _, obj := range selected {
		ok, err := e.isSurface(ctx, obj)
		if err != nil {
			return nil, fmt.Errorf("classifying %s: %w", obj, err)
		}
		if !ok {
			report.SelectionWarning = append(report.SelectionWarning, obj)
		}
	}

	for _, slot := range slots {
		if !slot.Enabled {
			continue
		}
		if slot.Unset() {
			report.EmptySlots = append(report.EmptySlots, slot.Role)
			continue
		}
		if !e.fs.IsFile(slot.Path) {
			report.MissingFiles = append(report.MissingFiles, models.MissingFile{Role: slot.Role, Path: slot.Path})
		}
	}
	return report, nil
}

func (e *Engine) isSurface(ctx context.Context, obj string) (bool, error) {
	typ, err := e.classifier.NodeType(ctx, obj)
	var herr *scene.HostError
	if errors.Is(err, scene.ErrNodeNotFound) || errors.As(err, &herr) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, s := range e.opts.SurfaceTypes {
		if typ == s {
			return true, nil
		}
	}
	return false, nil
}

// Blocking reports whether the report stops the build under the engine's
// policy.
func (e *Engine) Blocking(report *models.ValidationReport) bool {
	return Blocking(report, e.opts)
}

// Blocking reports whether report stops a build under opts. Slot warnings
// never block.
func Blocking(report *models.ValidationReport, opts Options) bool {
	if report == nil {
		return false
	}
	return (opts.BlockOnNameError && report.HasNameError()) ||
		(opts.BlockOnSelectionError && report.HasSelectionError())
}
