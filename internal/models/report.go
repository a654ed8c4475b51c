package models

// TilingMode is the host's uvTilingMode code for a UDIM pattern.
type TilingMode int

const (
	TilingNone   TilingMode = 0
	TilingZBrush TilingMode = 1
	TilingMudbox TilingMode = 2
	TilingMari   TilingMode = 3
)

func (m TilingMode) String() string {
	switch m {
	case TilingZBrush:
		return "zbrush"
	case TilingMudbox:
		return "mudbox"
	case TilingMari:
		return "mari"
	default:
		return "none"
	}
}

// UDIMDescriptor is a wildcard texture path and its tiling mode.
type UDIMDescriptor struct {
	BasePattern string     `json:"basePattern"`
	TilingMode  TilingMode `json:"tilingMode"`
	Mode        string     `json:"mode"`
}

// Tiled reports whether a tile token was found.
func (d UDIMDescriptor) Tiled() bool {
	return d.TilingMode != TilingNone
}

// MissingFile is an enabled slot whose path does not exist.
type MissingFile struct {
	Role TextureRole `json:"role"`
	Path string      `json:"path"`
}

// ValidationReport collects the four independent warning categories.
type ValidationReport struct {
	NameWarning      string        `json:"nameWarning,omitempty"`
	SelectionWarning []string      `json:"selectionWarning,omitempty"`
	EmptySlots       []TextureRole `json:"emptySlots,omitempty"`
	MissingFiles     []MissingFile `json:"missingFiles,omitempty"`
}

// Empty reports whether no category has content.
func (r *ValidationReport) Empty() bool {
	return r == nil || (r.NameWarning == "" && len(r.SelectionWarning) == 0 &&
		len(r.EmptySlots) == 0 && len(r.MissingFiles) == 0)
}

// HasNameError reports whether the shader name was rejected.
func (r *ValidationReport) HasNameError() bool {
	return r != nil && r.NameWarning != ""
}

// HasSelectionError reports whether any selected object cannot take a shader.
func (r *ValidationReport) HasSelectionError() bool {
	return r != nil && len(r.SelectionWarning) > 0
}

// HasSlotWarnings reports whether any slot is empty or points to a missing file.
func (r *ValidationReport) HasSlotWarnings() bool {
	return r != nil && (len(r.EmptySlots) > 0 || len(r.MissingFiles) > 0)
}
