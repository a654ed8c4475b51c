package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shadercreator/backend/internal/history"
	"github.com/shadercreator/backend/internal/logging"
	"github.com/shadercreator/backend/internal/models"
	"github.com/shadercreator/backend/internal/naming"
	"github.com/shadercreator/backend/internal/profile"
	"github.com/shadercreator/backend/internal/scene"
	"github.com/shadercreator/backend/internal/shading"
	"github.com/shadercreator/backend/internal/storage"
	"github.com/shadercreator/backend/internal/validation"
)

// DefaultMaxSessions bounds the in-memory build sessions kept for lookup.
const DefaultMaxSessions = 200

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// ErrInvalidSpec wraps problems with the request itself.
var ErrInvalidSpec = errors.New("invalid shader spec")

// ProgressFunc receives stage updates while a build runs.
type ProgressFunc func(status models.BuildStatus, message string)

// Config wires the manager's collaborators.
type Config struct {
	Scene       scene.Scene
	FS          storage.FileSystem
	Profiles    *profile.Registry
	Validation  validation.Options
	History     history.Recorder
	Log         logging.Interface
	MaxSessions int
}

// Manager runs build sessions against one scene. Builds are serialized.
type Manager struct {
	sessions map[string]*SessionState
	mu       sync.RWMutex
	buildMu  sync.Mutex

	scene       scene.Scene
	fs          storage.FileSystem
	engine      *validation.Engine
	builder     *shading.Builder
	history     history.Recorder
	log         logging.Interface
	maxSessions int
}

// SessionState holds a finished or running build and how its slots were wired.
type SessionState struct {
	Session      *models.BuildSession
	Links        []shading.Link
	LastAccessed time.Time
}

// NewManager creates a manager. History and Log may be nil.
func NewManager(cfg Config) *Manager {
	if cfg.Log == nil {
		cfg.Log = logging.Discard()
	}
	if cfg.History == nil {
		cfg.History = history.Nop{}
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	return &Manager{
		sessions:    make(map[string]*SessionState),
		scene:       cfg.Scene,
		fs:          cfg.FS,
		engine:      validation.NewEngine(cfg.Scene, cfg.FS, cfg.Validation),
		builder:     shading.NewBuilder(cfg.Scene, cfg.Profiles, cfg.Log),
		history:     cfg.History,
		log:         cfg.Log,
		maxSessions: cfg.MaxSessions,
	}
}

// shortID safely truncates an ID for logging (handles short IDs gracefully)
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// Profiles returns the shader family table.
func (m *Manager) Profiles() *profile.Registry {
	return m.builder.Profiles()
}

// History returns the build recorder.
func (m *Manager) History() history.Recorder {
	return m.history
}

// Scene returns the scene builds run against.
func (m *Manager) Scene() scene.Scene {
	return m.scene
}

// Create validates spec and, unless the report blocks, builds and assigns
// the material. Blocked and failed builds are returned as sessions with
// the matching status; the error is reserved for an invalid spec or a
// cancelled context.
func (m *Manager) Create(ctx context.Context, spec models.ShaderSpec, progress ProgressFunc) (*models.BuildSession, error) {
	if progress == nil {
		progress = func(models.BuildStatus, string) {}
	}
	if err := spec.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	if spec.ShaderType == "" {
		return nil, fmt.Errorf("%w: shader type is required", ErrInvalidSpec)
	}

	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.evictIfNeeded()
	b := models.NewBuildSession(uuid.New().String(), spec)
	id := shortID(b.ID)
	m.put(b, nil)

	m.log.Info("[Build %s] %s (%s), %d slots", id, spec.Name, spec.ShaderType, len(spec.Slots))

	b.Status = models.BuildStatusValidating
	progress(b.Status, "validating")
	m.put(b, nil)

	var selected []string
	if spec.AssignToSelection {
		sel, err := m.scene.ListSelected(ctx, "")
		if err != nil {
			return m.fail(ctx, b, nil, err), nil
		}
		selected = sel
	}

	report, err := m.engine.Validate(ctx, spec.Name, selected, spec.Slots)
	if err != nil {
		return m.fail(ctx, b, nil, err), nil
	}
	b.Report = report
	b.Diagnostic = validation.FormatHTML(report)

	if m.engine.Blocking(report) {
		b.Finish(models.BuildStatusBlocked)
		m.log.Warn("[Build %s] blocked: %s", id, validation.FormatText(report))
		progress(b.Status, "blocked")
		return m.finish(ctx, b, nil), nil
	}

	b.Status = models.BuildStatusBuilding
	progress(b.Status, "creating shader")
	m.put(b, nil)

	network, err := m.builder.CreateShader(ctx, spec.Name, spec.ShaderType)
	if err != nil {
		return m.fail(ctx, b, nil, err), nil
	}
	b.Network = &network
	b.Nodes = append(b.Nodes, network.Material, network.ShadingGroup)

	if spec.AssignToSelection && len(selected) > 0 {
		progress(b.Status, "assigning")
		if err := m.builder.Assign(ctx, selected, network.ShadingGroup); err != nil {
			return m.fail(ctx, b, nil, err), nil
		}
		b.Assigned = append([]string(nil), selected...)
	}

	progress(b.Status, "connecting textures")
	links, err := m.builder.ConnectTextures(ctx, network, spec.Slots)
	for _, l := range links {
		b.Nodes = append(b.Nodes, l.Nodes()...)
	}
	if err != nil {
		return m.fail(ctx, b, links, err), nil
	}

	b.Finish(models.BuildStatusComplete)
	m.log.Success("[Build %s] %s -> %s, %d nodes in %dms", id, network.Material, network.ShadingGroup, len(b.Nodes), b.DurationMs)
	if b.Diagnostic != "" {
		m.log.Warn("[Build %s] %s", id, validation.FormatText(report))
	}
	progress(b.Status, "complete")
	return m.finish(ctx, b, links), nil
}

// fail marks b failed with the host's error description. Nodes created by
// the failing step are kept on the session; nothing is undone.
func (m *Manager) fail(ctx context.Context, b *models.BuildSession, links []shading.Link, err error) *models.BuildSession {
	var berr *shading.BuildError
	if errors.As(err, &berr) {
		b.Nodes = appendMissing(b.Nodes, berr.Created)
	}
	b.Error = Describe(err)
	b.Diagnostic = b.Error
	b.Finish(models.BuildStatusFailed)
	m.log.Error("[Build %s] failed: %v", shortID(b.ID), err)
	return m.finish(ctx, b, links)
}

func (m *Manager) finish(ctx context.Context, b *models.BuildSession, links []shading.Link) *models.BuildSession {
	m.put(b, links)
	if err := m.history.Record(context.WithoutCancel(ctx), b); err != nil {
		m.log.Warn("[Build %s] history not recorded: %v", shortID(b.ID), err)
	}
	return clone(b)
}

// Describe renders err as "Error Type: <type>\nError: <message>\n", naming
// the innermost wrapped error's type.
func Describe(err error) string {
	root := err
	for {
		next := errors.Unwrap(root)
		if next == nil {
			break
		}
		root = next
	}
	return fmt.Sprintf("Error Type: %T\nError: %v\n", root, err)
}

func appendMissing(list, extra []string) []string {
	seen := make(map[string]bool, len(list))
	for _, n := range list {
		seen[n] = true
	}
	for _, n := range extra {
		if !seen[n] {
			list = append(list, n)
			seen[n] = true
		}
	}
	return list
}

func clone(b *models.BuildSession) *models.BuildSession {
	c := *b
	if b.Report != nil {
		r := *b.Report
		c.Report = &r
	}
	if b.Network != nil {
		n := *b.Network
		c.Network = &n
	}
	c.Spec.Slots = append([]models.TextureSlot(nil), b.Spec.Slots...)
	c.Nodes = append([]string(nil), b.Nodes...)
	c.Assigned = append([]string(nil), b.Assigned...)
	return &c
}

func (m *Manager) put(b *models.BuildSession, links []shading.Link) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.sessions[b.ID]
	if !ok {
		state = &SessionState{}
		m.sessions[b.ID] = state
	}
	state.Session = clone(b)
	if links != nil {
		state.Links = append([]shading.Link(nil), links...)
	}
	state.LastAccessed = time.Now()
}

// evictIfNeeded drops the oldest finished sessions when at capacity.
func (m *Manager) evictIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < m.maxSessions {
		return
	}
	var finished []*SessionState
	for _, state := range m.sessions {
		if state.Session.Status.Finished() {
			finished = append(finished, state)
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].Session.StartedAt.Before(finished[j].Session.StartedAt)
	})
	toFree := len(m.sessions) - m.maxSessions + 1
	for i := 0; i < toFree && i < len(finished); i++ {
		id := finished[i].Session.ID
		delete(m.sessions, id)
		m.log.Debug("[Manager] Cleaned up old session %s", shortID(id))
	}
}

// Get returns a copy of a session.
func (m *Manager) Get(id string) (*models.BuildSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return clone(state.Session), true
}

// Links returns how a session's slots were wired.
func (m *Manager) Links(id string) ([]shading.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return append([]shading.Link(nil), state.Links...), nil
}

// List returns all sessions, newest first.
func (m *Manager) List() []*models.BuildSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.BuildSession, 0, len(m.sessions))
	for _, state := range m.sessions {
		out = append(out, clone(state.Session))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// Validate runs the pre-build checks without touching the scene and returns
// the report with its rendered diagnostic and whether it would block.
func (m *Manager) Validate(ctx context.Context, spec models.ShaderSpec) (*models.ValidationReport, bool, error) {
	if err := spec.Normalize(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	var selected []string
	if spec.AssignToSelection {
		sel, err := m.scene.ListSelected(ctx, "")
		if err != nil {
			return nil, false, err
		}
		selected = sel
	}
	report, err := m.engine.Validate(ctx, spec.Name, selected, spec.Slots)
	if err != nil {
		return nil, false, err
	}
	return report, m.engine.Blocking(report), nil
}

// Relate finds the textures related to anchorPath by naming convention.
func (m *Manager) Relate(anchorPath string) (map[models.TextureRole]string, error) {
	related, err := naming.FindRelatedFiles(m.fs, anchorPath)
	if err != nil {
		var nerr *naming.NamingError
		if errors.As(err, &nerr) {
			m.log.Warn("[Relate] %s: missing %v", anchorPath, nerr.Missing())
		}
		return nil, err
	}
	return related, nil
}

// ShaderTypes lists the host's shader node types, excluding volume shaders.
func (m *Manager) ShaderTypes(ctx context.Context) ([]string, error) {
	types, err := m.scene.ListNodeTypes(ctx, "shader", "volume")
	if err != nil {
		return nil, err
	}
	sort.Strings(types)
	return types, nil
}
