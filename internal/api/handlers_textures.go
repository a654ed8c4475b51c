// handlers_textures.go - Texture path inspection handlers
package api

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shadercreator/backend/internal/models"
	"github.com/shadercreator/backend/internal/naming"
	"github.com/shadercreator/backend/internal/storage"
	"github.com/shadercreator/backend/internal/udim"
)

// PathRequest is the body of the texture endpoints.
type PathRequest struct {
	Path string `json:"path"`
}

// ClassifyResponse describes one texture path.
type ClassifyResponse struct {
	Path     string                `json:"path"`
	FileName string                `json:"fileName"`
	Role     *models.TextureRole   `json:"role,omitempty"`
	Version  *int                  `json:"version,omitempty"`
	UDIM     models.UDIMDescriptor `json:"udim"`
	IsImage  bool                  `json:"isImage"`
}

// RelateResponse lists the siblings found for an anchor file.
type RelateResponse struct {
	Anchor  string                        `json:"anchor"`
	Related map[models.TextureRole]string `json:"related"`
}

func bindPath(c echo.Context) (string, error) {
	var req PathRequest
	if err := c.Bind(&req); err != nil {
		return "", NewBadRequestError("invalid JSON body", err)
	}
	if strings.TrimSpace(req.Path) == "" {
		return "", NewValidationError("path")
	}
	return req.Path, nil
}

// HandleFilter returns the texture file dialog filter.
func (h *Handler) HandleFilter(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"filter":     naming.ImageFilter(),
		"extensions": models.ImageExtensions,
		"pattern":    storage.ImagePattern(),
	})
}

// HandleClassify reports role, version and UDIM tiling for one path.
func (h *Handler) HandleClassify(c echo.Context) error {
	p, err := bindPath(c)
	if err != nil {
		return err
	}
	name := path.Base(strings.ReplaceAll(p, `\`, "/"))
	resp := ClassifyResponse{
		Path:     p,
		FileName: name,
		UDIM:     udim.Describe(p),
		IsImage:  storage.IsImage(name),
	}
	if role, ok := naming.ResolveRole(name); ok {
		resp.Role = &role
	}
	if ver, ok := naming.ResolveVersion(name); ok {
		resp.Version = &ver
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleRelate finds the files related to an anchor texture. A name outside
// the convention answers 422 with the bad-naming guidance.
func (h *Handler) HandleRelate(c echo.Context) error {
	p, err := bindPath(c)
	if err != nil {
		return err
	}
	related, err := h.builds.Relate(p)
	if err != nil {
		var nerr *naming.NamingError
		if errors.As(err, &nerr) {
			return NewNamingError(nerr.Error(), nerr.Diagnostic())
		}
		return NewInternalError("failed to list related textures", err)
	}
	return c.JSON(http.StatusOK, RelateResponse{Anchor: p, Related: related})
}

// HandleUDIM returns the wildcard pattern and tiling mode for a path.
func (h *Handler) HandleUDIM(c echo.Context) error {
	p, err := bindPath(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, udim.Describe(p))
}
