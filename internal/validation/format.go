package validation

import (
	"html"
	"strings"

	"github.com/shadercreator/backend/internal/models"
)

// Header colors used by the host panel's rich-text dialog.
const (
	errorColor   = "red"
	warningColor = "orange"
)

func header(color, title string) string {
	return `<font color="` + color + `", size="25"><b>` + title + `</b></font><br />`
}

func highlight(color, text string) string {
	return `<font color="` + color + `", size="4"><b>` + text + `</b></font>`
}

// FormatHTML renders the report as the rich text shown by the host panel.
// Sections appear in a fixed order: name, selection, empty slots, missing
// files. An empty report renders as "".
func FormatHTML(r *models.ValidationReport) string {
	if r.Empty() {
		return ""
	}
	var b strings.Builder
	if r.HasNameError() {
		b.WriteString(header(errorColor, "Name Error:"))
		b.WriteString("There are some special characters in the name:<br />")
		b.WriteString(highlight(errorColor, html.EscapeString(r.NameWarning)))
		b.WriteString(", please remove them.<br />")
	}
	if r.HasSelectionError() {
		escaped := make([]string, len(r.SelectionWarning))
		for i, obj := range r.SelectionWarning {
			escaped[i] = html.EscapeString(obj)
		}
		b.WriteString(header(errorColor, "Objects Selected Error:"))
		b.WriteString("There are some objects selected that can't be assign a shader, please select only MESHES or a NURB SURFACE.<br />")
		b.WriteString(highlight(errorColor, strings.Join(escaped, "<br />")))
		b.WriteString("<br />")
	}
	if len(r.EmptySlots) > 0 {
		names := make([]string, len(r.EmptySlots))
		for i, role := range r.EmptySlots {
			names[i] = role.String()
		}
		b.WriteString(header(warningColor, "Empty Slot Warning:"))
		b.WriteString("These maps are enabled but have no file, they will be skipped:<br />")
		b.WriteString(highlight(warningColor, strings.Join(names, "<br />")))
		b.WriteString("<br />")
	}
	if len(r.MissingFiles) > 0 {
		lines := make([]string, len(r.MissingFiles))
		for i, m := range r.MissingFiles {
			lines[i] = m.Role.String() + ": " + html.EscapeString(m.Path)
		}
		b.WriteString(header(warningColor, "Missing File Warning:"))
		b.WriteString("These files could not be found on disk:<br />")
		b.WriteString(highlight(warningColor, strings.Join(lines, "<br />")))
		b.WriteString("<br />")
	}
	return b.String()
}

// FormatText renders the report as plain text, one section per block.
func FormatText(r *models.ValidationReport) string {
	if r.Empty() {
		return ""
	}
	var b strings.Builder
	if r.HasNameError() {
		b.WriteString("Name Error: special characters in the name: " + r.NameWarning + "\n")
	}
	if r.HasSelectionError() {
		b.WriteString("Objects Selected Error: only meshes or NURBS surfaces can take a shader: " +
			strings.Join(r.SelectionWarning, ", ") + "\n")
	}
	if len(r.EmptySlots) > 0 {
		names := make([]string, len(r.EmptySlots))
		for i, role := range r.EmptySlots {
			names[i] = role.String()
		}
		b.WriteString("Empty Slot Warning: " + strings.Join(names, ", ") + "\n")
	}
	for _, m := range r.MissingFiles {
		b.WriteString("Missing File Warning: " + m.Role.String() + ": " + m.Path + "\n")
	}
	return b.String()
}
