package udim

import (
	"testing"

	"github.com/shadercreator/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantPath string
		wantMode models.TilingMode
	}{
		{"mari", "tex/foo.1001.exr", "tex/foo.<UDIM>.exr", models.TilingMari},
		{"mudbox", "tex/foo.u1_v1.exr", "tex/foo.u<U>_v<V>.exr", models.TilingMudbox},
		{"zbrush", "tex/foo.u0_v0.exr", "tex/foo.u<u>_v<v>.exr", models.TilingZBrush},
		{"no tile", "tex/foo.exr", "tex/foo.exr", models.TilingNone},
		{"version and tile", "tex/hero_Diffuse_v02.1012.tif", "tex/hero_Diffuse_v02.<UDIM>.tif", models.TilingMari},
		{"several dots", "proj/a.b.c/hero.final.1001.png", "proj/a.b.c/hero.final.<UDIM>.png", models.TilingMari},
		{"numeric directory untouched", "/shows/2024/hero.exr", "/shows/2024/hero.exr", models.TilingNone},
		{"five digit run is not a tile", "tex/foo.10010.exr", "tex/foo.10010.exr", models.TilingNone},
		{"windows separators", `C:\tex\foo.1001.exr`, `C:\tex\foo.<UDIM>.exr`, models.TilingMari},
		{"last tile segment wins", "tex/foo.u1_v1.1001.exr", "tex/foo.u1_v1.<UDIM>.exr", models.TilingMari},
		{"token inside a segment is not a tile", "tex/foo_u1_v1.1001.exr", "tex/foo_u1_v1.<UDIM>.exr", models.TilingMari},
		{"year in name", "tex/hero_2024_Diffuse_v01.1001.exr", "tex/hero_2024_Diffuse_v01.<UDIM>.exr", models.TilingMari},
		{"digits glued to name", "tex/asset1234.1001.exr", "tex/asset1234.<UDIM>.exr", models.TilingMari},
		{"only digits in name", "tex/hero_2024_Diffuse.exr", "tex/hero_2024_Diffuse.exr", models.TilingNone},
		{"tile as extension", "tex/foo.1001", "tex/foo.1001", models.TilingNone},
		{"bare name", "1001.exr", "<UDIM>.exr", models.TilingMari},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotPath, gotMode := Normalize(tt.in)
			assert.Equal(t, tt.wantPath, gotPath)
			assert.Equal(t, tt.wantMode, gotMode)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"tex/foo.1001.exr",
		"tex/foo.u1_v1.exr",
		"tex/foo.u0_v0.exr",
		"tex/foo.exr",
		"tex/hero_Diffuse_v02.1012.tif",
		"tex/hero_2024_Diffuse_v01.1001.exr",
	}
	for _, in := range inputs {
		once, _ := Normalize(in)
		twice, mode := Normalize(once)
		assert.Equal(t, once, twice, in)
		assert.Equal(t, models.TilingNone, mode, in)
	}
}

func TestDescribe(t *testing.T) {
	d := Describe("tex/foo.1001.exr")
	assert.Equal(t, "tex/foo.<UDIM>.exr", d.BasePattern)
	assert.Equal(t, models.TilingMari, d.TilingMode)
	assert.Equal(t, "mari", d.Mode)
	assert.True(t, d.Tiled())

	assert.False(t, Describe("tex/foo.exr").Tiled())
}

func TestIsPatternAndExt(t *testing.T) {
	assert.True(t, IsPattern("tex/foo.<UDIM>.exr"))
	assert.True(t, IsPattern("tex/foo.u<U>_v<V>.exr"))
	assert.False(t, IsPattern("tex/<UDIM>/foo.exr"))
	assert.Equal(t, "exr", Ext("tex/foo.1001.EXR"))
	assert.Equal(t, "", Ext("tex/noext"))
}
