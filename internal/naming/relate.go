package naming

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shadercreator/backend/internal/models"
	"github.com/shadercreator/backend/internal/storage"
)

// NamingError reports why an anchor file cannot be related to its siblings.
type NamingError struct {
	File           string
	MissingRole    bool
	MissingVersion bool
}

func (e *NamingError) Error() string {
	return fmt.Sprintf("cannot relate textures for %q: missing %s", e.File, strings.Join(e.Missing(), " and "))
}

// Missing lists the absent convention elements.
func (e *NamingError) Missing() []string {
	var missing []string
	if e.MissingRole {
		missing = append(missing, "map type")
	}
	if e.MissingVersion {
		missing = append(missing, "version")
	}
	return missing
}

// Diagnostic is the bad-naming guidance shown to the user.
func (e *NamingError) Diagnostic() string {
	var b strings.Builder
	b.WriteString(`<font color="red" size="25"><b>Bad Naming Error:</b></font><br />`)
	fmt.Fprintf(&b, `The file <font color="red" size="4"><b>%s</b></font> does not follow the naming convention, so related maps could not be found.<br />`, e.File)
	if e.MissingRole {
		b.WriteString("Missing map type: the name needs one of Diffuse, Specular, Roughness, Transmission, SSS, SSSColor, Bump or Displacement.<br />")
	}
	if e.MissingVersion {
		b.WriteString("Missing version: the name needs a version token such as v01.<br />")
	}
	b.WriteString("Example: <b>hero_Diffuse_v01.exr</b>. Fill in the texture paths manually.")
	return b.String()
}

const rolePattern = `(?i:ssscolor|displacement|transmission|roughness|specular|diffuse|bump|sss)`

// Template is the anchored sibling pattern derived from an anchor file.
type Template struct {
	Anchor  string
	Role    models.TextureRole
	Version int
	re      *regexp.Regexp
}

// String returns the regular expression source.
func (t *Template) String() string {
	return t.re.String()
}

// Match returns the role and version of a sibling that fits the template.
func (t *Template) Match(name string) (models.TextureRole, int, bool) {
	m := t.re.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	role, ok := keywordRole(m[t.re.SubexpIndex("role")])
	if !ok {
		return 0, 0, false
	}
	ver := m[t.re.SubexpIndex("version")]
	return role, int(ver[1]-'0')*10 + int(ver[2]-'0'), true
}

// BuildTemplate widens the anchor's first role keyword and first version
// token into wildcards; all other text stays literal.
func BuildTemplate(fileName string) (*Template, error) {
	name := baseName(fileName)
	tokens := Tokenize(name)

	t := &Template{Anchor: name}
	var (
		b                 strings.Builder
		haveRole, haveVer bool
	)
	b.WriteString("^")
	for _, tok := range tokens {
		switch {
		case tok.Kind == TokenRole && !haveRole:
			haveRole = true
			t.Role = tok.Role
			b.WriteString("(?P<role>" + rolePattern + ")")
		case tok.Kind == TokenVersion && !haveVer:
			haveVer = true
			t.Version = tok.Version
			b.WriteString(`(?P<version>[vV][0-9]{2})`)
		default:
			b.WriteString(regexp.QuoteMeta(tok.Text))
		}
	}
	b.WriteString("$")

	if !haveRole || !haveVer {
		return nil, &NamingError{File: name, MissingRole: !haveRole, MissingVersion: !haveVer}
	}

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compiling template for %s: %w", name, err)
	}
	t.re = re
	return t, nil
}

// FindRelatedFiles returns, per role, the sibling of anchorPath that fits
// its naming template with the highest version.
func FindRelatedFiles(fsys storage.FileSystem, anchorPath string) (map[models.TextureRole]string, error) {
	tmpl, err := BuildTemplate(anchorPath)
	if err != nil {
		return nil, err
	}

	dir := dirPrefix(anchorPath)
	listDir := "."
	if dir != "" {
		listDir = strings.TrimRight(dir, `/\`)
		if listDir == "" {
			listDir = dir[:1]
		}
	}
	names, err := storage.ListImages(fsys, listDir)
	if err != nil {
		return nil, fmt.Errorf("listing siblings of %s: %w", anchorPath, err)
	}

	type candidate struct {
		name    string
		version int
	}
	best := make(map[models.TextureRole]candidate)
	for _, name := range names {
		role, ver, ok := tmpl.Match(name)
		if !ok {
			continue
		}
		if cur, seen := best[role]; seen && cur.version >= ver {
			continue
		}
		best[role] = candidate{name: name, version: ver}
	}

	related := make(map[models.TextureRole]string, len(best))
	for role, c := range best {
		related[role] = dir + c.name
	}
	return related, nil
}

// ImageFilter is the file dialog filter for texture images.
func ImageFilter() string {
	patterns := make([]string, len(models.ImageExtensions))
	for i, ext := range models.ImageExtensions {
		patterns[i] = "*." + ext
	}
	return "Images Files (" + strings.Join(patterns, " ") + ")"
}

func keywordRole(text string) (models.TextureRole, bool) {
	lower := asciiLower(text)
	for _, kw := range roleKeywords {
		if kw.word == lower {
			return kw.role, true
		}
	}
	return 0, false
}

// dirPrefix returns everything up to and including the last separator.
func dirPrefix(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[:i+1]
	}
	return ""
}
