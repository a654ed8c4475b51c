package validation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shadercreator/backend/internal/models"
	"github.com/shadercreator/backend/internal/scene"
	"github.com/shadercreator/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingClassifier struct{}

func (failingClassifier) NodeType(context.Context, string) (string, error) {
	return "", errors.New("port closed")
}

func newScene(t *testing.T) *scene.MemoryScene {
	t.Helper()
	s := scene.NewMemoryScene()
	require.NoError(t, s.AddObject("pSphereShape1", "mesh"))
	require.NoError(t, s.AddObject("nurbsPlaneShape1", "nurbsSurface"))
	require.NoError(t, s.AddObject("locatorShape1", "locator"))
	require.NoError(t, s.AddObject("curveShape1", "nurbsCurve"))
	return s
}

func TestCheckName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Hero", false},
		{"hero_skin_v01", false},
		{"", false},
		{"with space", false},
		{"Hero@", true},
		{"a/b", true},
		{`a\b`, true},
		{"a:b", true},
		{"a´b", true},
		{"héro", true},
		{"名前", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckName(tt.name, DefaultForbiddenCharacters))
		})
	}
}

func TestValidate(t *testing.T) {
	fs := testutil.NewMockFS("/tex/hero_diffuse_v01.png", "/tex/hero_bump_v01.png")
	e := NewEngine(newScene(t), fs, DefaultOptions())

	slots := []models.TextureSlot{
		{Role: models.RoleDiffuse, Path: "/tex/hero_diffuse_v01.png", Enabled: true},
		{Role: models.RoleSpecular, Path: "", Enabled: true},
		{Role: models.RoleRoughness, Path: "/tex/missing.png", Enabled: true},
		{Role: models.RoleTransmission, Path: "/tex/also_missing.png", Enabled: false},
		{Role: models.RoleSSS, Path: "", Enabled: false},
		{Role: models.RoleBump, Path: "  ", Enabled: true},
	}
	report, err := e.Validate(context.Background(), "Hero#1",
		[]string{"pSphereShape1", "locatorShape1", "nurbsPlaneShape1", "ghost"}, slots)
	require.NoError(t, err)

	assert.Equal(t, "Hero#1", report.NameWarning)
	assert.Equal(t, []string{"locatorShape1", "ghost"}, report.SelectionWarning)
	assert.Equal(t, []models.TextureRole{models.RoleSpecular, models.RoleBump}, report.EmptySlots)
	assert.Equal(t, []models.MissingFile{{Role: models.RoleRoughness, Path: "/tex/missing.png"}}, report.MissingFiles)
	assert.True(t, e.Blocking(report))

	assert.Equal(t, 1, fs.StatCount("/tex/hero_diffuse_v01.png"))
	assert.Equal(t, 1, fs.StatCount("/tex/missing.png"))
	assert.Equal(t, 0, fs.StatCount("/tex/also_missing.png"))
}

func TestValidateClean(t *testing.T) {
	fs := testutil.NewMockFS("/tex/a.png")
	e := NewEngine(newScene(t), fs, DefaultOptions())
	report, err := e.Validate(context.Background(), "Hero", []string{"pSphereShape1"},
		[]models.TextureSlot{{Role: models.RoleDiffuse, Path: "/tex/a.png", Enabled: true}})
	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.False(t, e.Blocking(report))
	assert.Equal(t, "", FormatHTML(report))
	assert.Equal(t, "", FormatText(report))
}

func TestValidateClassifierError(t *testing.T) {
	e := NewEngine(failingClassifier{}, testutil.NewMockFS(), DefaultOptions())
	_, err := e.Validate(context.Background(), "Hero", []string{"pSphereShape1"}, nil)
	assert.Error(t, err)

	report, err := e.Validate(context.Background(), "Hero", nil, nil)
	require.NoError(t, err)
	assert.True(t, report.Empty())
}

func TestValidateCustomSurfaceTypes(t *testing.T) {
	opts := DefaultOptions()
	opts.SurfaceTypes = []string{"mesh", "nurbsSurface", "nurbsCurve"}
	e := NewEngine(newScene(t), testutil.NewMockFS(), opts)
	report, err := e.Validate(context.Background(), "Hero", []string{"curveShape1"}, nil)
	require.NoError(t, err)
	assert.Empty(t, report.SelectionWarning)
}

func TestBlocking(t *testing.T) {
	nameOnly := &models.ValidationReport{NameWarning: "a@b"}
	selOnly := &models.ValidationReport{SelectionWarning: []string{"locator1"}}
	slotsOnly := &models.ValidationReport{
		EmptySlots:   []models.TextureRole{models.RoleBump},
		MissingFiles: []models.MissingFile{{Role: models.RoleDiffuse, Path: "/x.png"}},
	}
	lenient := Options{}

	tests := []struct {
		name   string
		report *models.ValidationReport
		opts   Options
		want   bool
	}{
		{"nil report", nil, DefaultOptions(), false},
		{"name blocks", nameOnly, DefaultOptions(), true},
		{"selection blocks", selOnly, DefaultOptions(), true},
		{"slot warnings are advisory", slotsOnly, DefaultOptions(), false},
		{"name allowed", nameOnly, lenient, false},
		{"selection allowed", selOnly, lenient, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Blocking(tt.report, tt.opts))
		})
	}
}

func TestFormatHTMLOrder(t *testing.T) {
	r := &models.ValidationReport{
		NameWarning:      "Hero<1>",
		SelectionWarning: []string{"locatorShape1", "cameraShape1"},
		EmptySlots:       []models.TextureRole{models.RoleSpecular, models.RoleSSSColor},
		MissingFiles:     []models.MissingFile{{Role: models.RoleDiffuse, Path: "/tex/a.png"}},
	}
	out := FormatHTML(r)

	name := strings.Index(out, "Name Error:")
	sel := strings.Index(out, "Objects Selected Error:")
	empty := strings.Index(out, "Empty Slot Warning:")
	missing := strings.Index(out, "Missing File Warning:")
	require.True(t, name >= 0 && sel >= 0 && empty >= 0 && missing >= 0, out)
	assert.True(t, name < sel && sel < empty && empty < missing)

	assert.Contains(t, out, `<font color="red", size="25"><b>Name Error:</b></font>`)
	assert.Contains(t, out, `<font color="orange", size="25"><b>Empty Slot Warning:</b></font>`)
	assert.Contains(t, out, "Hero&lt;1&gt;")
	assert.Contains(t, out, "locatorShape1<br />cameraShape1")
	assert.Contains(t, out, "specular<br />sssColor")
	assert.Contains(t, out, "diffuse: /tex/a.png")
}

func TestFormatText(t *testing.T) {
	r := &models.ValidationReport{
		EmptySlots:   []models.TextureRole{models.RoleBump},
		MissingFiles: []models.MissingFile{{Role: models.RoleDiffuse, Path: "/tex/a.png"}},
	}
	assert.Equal(t,
		"Empty Slot Warning: bump\nMissing File Warning: diffuse: /tex/a.png\n",
		FormatText(r))
}
