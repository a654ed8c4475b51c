package scene

// TypeInfo is what the in-memory scene knows about a node type.
type TypeInfo struct {
	// Classification follows the host's "shader/surface" style strings.
	Classification string
	Attributes     []string
}

var (
	commonAttrs = []string{"message", "caching", "frozen", "isHistoricallyInteresting", "nodeState"}

	surfaceOut = []string{"outColor", "outColorR", "outColorG", "outColorB", "outTransparency"}

	lambertAttrs = []string{
		"color", "transparency", "ambientColor", "incandescence", "diffuse",
		"translucence", "normalCamera",
	}

	standardSurfaceAttrs = []string{
		"base", "baseColor", "diffuseRoughness", "metalness",
		"specular", "specularColor", "specularRoughness", "specularIOR",
		"transmission", "transmissionColor", "transmissionDepth",
		"subsurface", "subsurfaceColor", "subsurfaceRadius", "subsurfaceScale",
		"coat", "coatColor", "coatRoughness", "sheen", "sheenColor",
		"emission", "emissionColor", "opacity", "normalCamera",
	}

	colorOut = []string{"outColor", "outColorR", "outColorG", "outColorB", "outAlpha"}
)

func join(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// DefaultCatalog returns the node types a stock host session offers to the
// shading tools, with the attributes they expose.
func DefaultCatalog() map[string]TypeInfo {
	return map[string]TypeInfo{
		"aiStandardSurface":  {"shader/surface", join(commonAttrs, standardSurfaceAttrs, surfaceOut)},
		"standardSurface":    {"shader/surface", join(commonAttrs, standardSurfaceAttrs, surfaceOut)},
		"openPBRSurface":     {"shader/surface", join(commonAttrs, standardSurfaceAttrs, surfaceOut)},
		"aiFlat":             {"shader/surface", join(commonAttrs, []string{"color"}, surfaceOut)},
		"lambert":            {"shader/surface", join(commonAttrs, lambertAttrs, surfaceOut)},
		"blinn":              {"shader/surface", join(commonAttrs, lambertAttrs, []string{"specularColor", "eccentricity", "specularRollOff", "reflectivity"}, surfaceOut)},
		"phong":              {"shader/surface", join(commonAttrs, lambertAttrs, []string{"specularColor", "cosinePower", "reflectivity"}, surfaceOut)},
		"displacementShader": {"shader/displacement", join(commonAttrs, []string{"displacement", "scale", "vectorDisplacement", "vectorEncoding"})},
		"aiStandardVolume":   {"shader/volume", join(commonAttrs, []string{"density", "scatterColor", "outColor"})},
		"volumeFog":          {"shader/volume", join(commonAttrs, []string{"color", "density", "outColor"})},

		"shadingEngine": {"set", join(commonAttrs, []string{"dagSetMembers", "surfaceShader", "volumeShader", "displacementShader", "imageShader"})},

		"file":           {"texture/2d", join(commonAttrs, []string{"fileTextureName", "uvTilingMode", "colorSpace", "uvCoord", "uvFilterSize", "coverage", "translateFrame", "rotateFrame", "repeatUV", "offset"}, colorOut)},
		"place2dTexture": {"utility/general", join(commonAttrs, []string{"outUV", "outUvFilterSize", "coverage", "translateFrame", "rotateFrame", "repeatUV", "offset"})},

		"bump2d":         {"utility/general", join(commonAttrs, []string{"bumpValue", "bumpDepth", "bumpInterp", "normalCamera", "outNormal"})},
		"aiBump2d":       {"utility/general", join(commonAttrs, []string{"bumpMap", "bumpHeight", "normal", "outValue"})},
		"aiNormalMap":    {"utility/general", join(commonAttrs, []string{"input", "strength", "tangent", "normal", "outValue"})},
		"aiRange":        {"utility/color", join(commonAttrs, []string{"input", "inputMin", "inputMax", "outputMin", "outputMax", "contrast"}, colorOut)},
		"aiColorCorrect": {"utility/color", join(commonAttrs, []string{"input", "gamma", "hueShift", "saturation", "contrast", "exposure"}, colorOut)},

		"mesh":         {"drawdb/geometry/mesh", join(commonAttrs, []string{"inMesh", "outMesh", "instObjGroups"})},
		"nurbsSurface": {"drawdb/geometry/nurbsSurface", join(commonAttrs, []string{"create", "local", "instObjGroups"})},
		"nurbsCurve":   {"drawdb/geometry/nurbsCurve", join(commonAttrs, []string{"create", "local"})},
		"locator":      {"drawdb/geometry/locator", join(commonAttrs, []string{"localPosition", "localScale"})},
		"camera":       {"drawdb/geometry/camera", join(commonAttrs, []string{"focalLength", "nearClipPlane"})},
		"transform":    {"drawdb/geometry/transform", join(commonAttrs, []string{"translate", "rotate", "scale", "visibility"})},
	}
}

// placementLinks are the plugs the host's default placement linkage wires
// from a place2dTexture into a file node.
var placementLinks = [][2]string{
	{"outUV", "uvCoord"},
	{"outUvFilterSize", "uvFilterSize"},
	{"coverage", "coverage"},
	{"translateFrame", "translateFrame"},
	{"rotateFrame", "rotateFrame"},
	{"repeatUV", "repeatUV"},
	{"offset", "offset"},
}
