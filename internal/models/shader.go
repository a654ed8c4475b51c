package models

import (
	"fmt"
	"time"
)

// ShaderSpec is the input of one create action.
type ShaderSpec struct {
	Name              string        `json:"name"`
	ShaderType        string        `json:"shaderType"`
	AssignToSelection bool          `json:"assignToSelection"`
	Slots             []TextureSlot `json:"slots"`
}

// Normalize checks slot roles and orders slots canonically.
func (s *ShaderSpec) Normalize() error {
	var seen [RoleCount]bool
	ordered := make([]TextureSlot, 0, len(s.Slots))
	byRole := make(map[TextureRole]TextureSlot, len(s.Slots))
	for _, slot := range s.Slots {
		if !slot.Role.Valid() {
			return fmt.Errorf("%w: %d", ErrUnknownRole, int(slot.Role))
		}
		if seen[slot.Role] {
			return fmt.Errorf("%w: %s", ErrDuplicateRole, slot.Role)
		}
		seen[slot.Role] = true
		byRole[slot.Role] = slot
	}
	for _, role := range AllRoles() {
		if slot, ok := byRole[role]; ok {
			ordered = append(ordered, slot)
		}
	}
	s.Slots = ordered
	return nil
}

// Slot returns the slot for role, if present.
func (s *ShaderSpec) Slot(role TextureRole) (TextureSlot, bool) {
	for _, slot := range s.Slots {
		if slot.Role == role {
			return slot, true
		}
	}
	return TextureSlot{}, false
}

// Network identifies the shader and shading group of a built material.
type Network struct {
	Material     string `json:"material"`
	ShadingGroup string `json:"shadingGroup"`
	ShaderType   string `json:"shaderType"`
}

// BuildStatus is the state of a build session.
type BuildStatus string

const (
	BuildStatusPending    BuildStatus = "pending"
	BuildStatusValidating BuildStatus = "validating"
	BuildStatusBuilding   BuildStatus = "building"
	BuildStatusComplete   BuildStatus = "complete"
	BuildStatusBlocked    BuildStatus = "blocked"
	BuildStatusFailed     BuildStatus = "failed"
)

// Finished reports whether the status is terminal.
func (s BuildStatus) Finished() bool {
	return s == BuildStatusComplete || s == BuildStatusBlocked || s == BuildStatusFailed
}

// BuildSession records one create action from validation to outcome.
type BuildSession struct {
	ID         string            `json:"id"`
	Spec       ShaderSpec        `json:"spec"`
	Status     BuildStatus       `json:"status"`
	Report     *ValidationReport `json:"report,omitempty"`
	Diagnostic string            `json:"diagnostic"`
	Network    *Network          `json:"network,omitempty"`
	Assigned   []string          `json:"assigned,omitempty"`
	Nodes      []string          `json:"nodes,omitempty"`
	Error      string            `json:"error,omitempty"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt,omitempty"`
	DurationMs int64             `json:"durationMs"`
}

// NewBuildSession creates a pending session for spec.
func NewBuildSession(id string, spec ShaderSpec) *BuildSession {
	return &BuildSession{
		ID:        id,
		Spec:      spec,
		Status:    BuildStatusPending,
		StartedAt: time.Now(),
	}
}

// Finish stamps the terminal status and duration.
func (b *BuildSession) Finish(status BuildStatus) {
	b.Status = status
	b.FinishedAt = time.Now()
	b.DurationMs = b.FinishedAt.Sub(b.StartedAt).Milliseconds()
}
