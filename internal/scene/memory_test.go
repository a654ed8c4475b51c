package scene

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySceneCreateNodeNaming(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryScene()

	name, err := s.CreateNode(ctx, NodeRequest{Type: "aiStandardSurface", Name: "Hero", Category: CategoryShader})
	require.NoError(t, err)
	assert.Equal(t, "Hero", name)

	name, err = s.CreateNode(ctx, NodeRequest{Type: "aiStandardSurface", Name: "Hero", Category: CategoryShader})
	require.NoError(t, err)
	assert.Equal(t, "Hero1", name)

	name, err = s.CreateNode(ctx, NodeRequest{Type: "lambert", Category: CategoryShader})
	require.NoError(t, err)
	assert.Equal(t, "lambert1", name)

	_, err = s.CreateNode(ctx, NodeRequest{Type: "noSuchNode"})
	var herr *HostError
	require.True(t, errors.As(err, &herr))
	assert.Contains(t, herr.Message, "Unknown object type")

	assert.Equal(t, 3, s.NodeCount())
	assert.Equal(t, 4, s.CallCount("createNode"))
}

func TestMemorySceneConnect(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryScene()
	shader, _ := s.CreateNode(ctx, NodeRequest{Type: "lambert", Name: "mat"})
	sg, _ := s.CreateNode(ctx, NodeRequest{Type: "shadingEngine", Name: "mat_SG", Category: CategorySet})

	require.NoError(t, s.Connect(ctx, P(shader, "outColor"), P(sg, "surfaceShader")))
	src, ok := s.Source(P(sg, "surfaceShader"))
	require.True(t, ok)
	assert.Equal(t, "mat.outColor", src.String())

	t.Run("destination already connected", func(t *testing.T) {
		err := s.Connect(ctx, P(shader, "outColor"), P(sg, "surfaceShader"))
		var herr *HostError
		require.True(t, errors.As(err, &herr))
		assert.Contains(t, herr.Message, "already connected")
	})

	t.Run("unknown attribute", func(t *testing.T) {
		err := s.Connect(ctx, P(shader, "baseColor"), P(sg, "volumeShader"))
		assert.Error(t, err)
	})

	t.Run("unknown node", func(t *testing.T) {
		err := s.Connect(ctx, P("ghost", "outColor"), P(sg, "volumeShader"))
		assert.Error(t, err)
	})
}

func TestMemorySceneSetAttrAndPlacement(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryScene()
	file, _ := s.CreateNode(ctx, NodeRequest{Type: "file", Name: "mat_diffuse", Category: CategoryTexture})
	place, _ := s.CreateNode(ctx, NodeRequest{Type: "place2dTexture", Name: "place2d_mat_diffuse", Category: CategoryUtility})

	require.NoError(t, s.SetAttr(ctx, P(file, "fileTextureName"), "/tex/a.<UDIM>.exr"))
	require.NoError(t, s.SetAttr(ctx, P(file, "uvTilingMode"), 3))
	assert.Error(t, s.SetAttr(ctx, P(file, "uvTilingMode"), []int{1}))

	node, ok := s.Node(file)
	require.True(t, ok)
	assert.Equal(t, "/tex/a.<UDIM>.exr", node.Attrs["fileTextureName"])
	assert.Equal(t, 3, node.Attrs["uvTilingMode"])

	require.NoError(t, s.LinkPlacement(ctx, place, file))
	src, ok := s.Source(P(file, "uvCoord"))
	require.True(t, ok)
	assert.Equal(t, P(place, "outUV"), src)
	assert.Len(t, s.Connections(), len(placementLinks))
}

func TestMemorySceneAddToSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryScene()
	require.NoError(t, s.AddObject("pSphereShape1", "mesh"))
	require.NoError(t, s.AddObject("pCubeShape1", "mesh"))
	sgA, _ := s.CreateNode(ctx, NodeRequest{Type: "shadingEngine", Name: "a_SG", Category: CategorySet})
	sgB, _ := s.CreateNode(ctx, NodeRequest{Type: "shadingEngine", Name: "b_SG", Category: CategorySet})

	require.NoError(t, s.AddToSet(ctx, []string{"pSphereShape1", "pCubeShape1"}, sgA, true))
	assert.Equal(t, []string{"pSphereShape1", "pCubeShape1"}, s.Members(sgA))

	err := s.AddToSet(ctx, []string{"pSphereShape1"}, sgB, false)
	assert.Error(t, err, "non-forced move into a second shading set must fail")

	require.NoError(t, s.AddToSet(ctx, []string{"pSphereShape1"}, sgB, true))
	assert.Equal(t, []string{"pCubeShape1"}, s.Members(sgA))
	assert.Equal(t, []string{"pSphereShape1"}, s.Members(sgB))

	assert.Error(t, s.AddToSet(ctx, []string{"pSphereShape1"}, "pCubeShape1", true))
	assert.Error(t, s.AddToSet(ctx, []string{"ghost"}, sgB, true))
}

func TestMemorySceneQueries(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryScene()
	require.NoError(t, s.AddObject("pSphereShape1", "mesh"))
	require.NoError(t, s.AddObject("locatorShape1", "locator"))
	require.NoError(t, s.Select("pSphereShape1", "locatorShape1"))
	assert.Error(t, s.Select("ghost"))

	all, err := s.ListSelected(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"pSphereShape1", "locatorShape1"}, all)

	meshes, err := s.ListSelected(ctx, "mesh")
	require.NoError(t, err)
	assert.Equal(t, []string{"pSphereShape1"}, meshes)

	types, err := s.ListNodeTypes(ctx, "shader", "volume")
	require.NoError(t, err)
	assert.Contains(t, types, "aiStandardSurface")
	assert.Contains(t, types, "lambert")
	assert.Contains(t, types, "displacementShader")
	assert.NotContains(t, types, "aiStandardVolume")
	assert.NotContains(t, types, "file")

	attrs, err := s.ListAttributes(ctx, "pSphereShape1")
	require.NoError(t, err)
	assert.Contains(t, attrs, "instObjGroups")
	_, err = s.ListAttributes(ctx, "ghost")
	assert.Error(t, err)

	typ, err := s.NodeType(ctx, "locatorShape1")
	require.NoError(t, err)
	assert.Equal(t, "locator", typ)
	_, err = s.NodeType(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestMemorySceneFailOn(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryScene()
	s.FailOn("createNode", "aiBump2d", "license error")

	_, err := s.CreateNode(ctx, NodeRequest{Type: "aiBump2d", Name: "x_bump"})
	var herr *HostError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, "license error", herr.Message)
	assert.Equal(t, 0, s.NodeCount())

	_, err = s.CreateNode(ctx, NodeRequest{Type: "aiRange"})
	assert.NoError(t, err)
}

func TestMemorySceneCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryScene()
	_, err := s.CreateNode(ctx, NodeRequest{Type: "lambert"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemorySceneSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryScene()
	require.NoError(t, s.AddObject("pSphereShape1", "mesh"))
	require.NoError(t, s.Select("pSphereShape1"))
	shader, _ := s.CreateNode(ctx, NodeRequest{Type: "lambert", Name: "mat"})
	sg, _ := s.CreateNode(ctx, NodeRequest{Type: "shadingEngine", Name: "mat_SG", Category: CategorySet})
	require.NoError(t, s.Connect(ctx, P(shader, "outColor"), P(sg, "surfaceShader")))
	require.NoError(t, s.AddToSet(ctx, []string{"pSphereShape1"}, sg, true))
	file, _ := s.CreateNode(ctx, NodeRequest{Type: "file", Name: "mat_diffuse"})
	require.NoError(t, s.SetAttr(ctx, P(file, "fileTextureName"), "/tex/a.exr"))

	data, err := s.EncodeSnapshot()
	require.NoError(t, err)

	restored := NewMemoryScene()
	require.NoError(t, restored.Restore(data))

	assert.Equal(t, s.NodeCount(), restored.NodeCount())
	assert.Equal(t, s.Connections(), restored.Connections())
	assert.Equal(t, []string{"pSphereShape1"}, restored.Members("mat_SG"))
	node, ok := restored.Node("mat_diffuse")
	require.True(t, ok)
	assert.Equal(t, "/tex/a.exr", node.Attrs["fileTextureName"])
	sel, _ := restored.ListSelected(ctx, "")
	assert.Equal(t, []string{"pSphereShape1"}, sel)
	assert.Empty(t, restored.Calls())

	assert.Error(t, restored.Restore([]byte{0xc1}))
}

func TestParsePlug(t *testing.T) {
	p, err := ParsePlug("file1.outColor")
	require.NoError(t, err)
	assert.Equal(t, P("file1", "outColor"), p)

	for _, bad := range []string{"file1", ".outColor", "file1."} {
		_, err := ParsePlug(bad)
		assert.Error(t, err, bad)
	}
}
