package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"artgallery/internal/gallery"
	"artgallery/internal/media/sniffer"
	"artgallery/internal/models"
)

const maxMemory = 8 << 20

func (h HandlerSet) ListAssets(c *gin.Context) {
	assets, err := h.gallery.AssetsOf(c.Request.Context(), currentUserID(c), pageFromQuery(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]assetResponse, 0, len(assets))
	for _, a := range assets {
		items = append(items, h.toAsset(a))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CreateAsset accepts a multipart form. The file part is optional; without it
// the asset is text-only.
func (h HandlerSet) CreateAsset(c *gin.Context) {
	maxBytes := h.cfg.HTTP.MaxUploadMB << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	if err := c.Request.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file_too_large"})
			return
		}
		badRequest(c, "invalid_form")
		return
	}

	draft := gallery.Draft{
		UserID:      currentUserID(c),
		Prompt:      c.PostForm("prompt"),
		Style:       c.PostForm("style"),
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Origin:      models.ContentOrigin(c.PostForm("origin")),
	}

	if raw := c.PostForm("public"); raw != "" {
		public, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "invalid_public_flag")
			return
		}
		draft.Publish = public
	}

	file, _, err := c.Request.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		badRequest(c, "invalid_form")
		return
	default:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			badRequest(c, "invalid_file")
			return
		}
		detected, err := sniffer.DetectHead(data[:min(len(data), sniffer.HeadSize)])
		if err != nil {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported_media_type"})
			return
		}
		draft.Image = data
		draft.Format = string(detected.Type)
		draft.ContentType = detected.MIME
	}

	created, err := h.gallery.PublishAtCreation(c.Request.Context(), draft)
	if err != nil {
		h.writeError(c, err)
		return
	}

	body := gin.H{
		"asset":  h.toAsset(created.Asset),
		"public": created.MadePublic,
	}
	if created.Reason != "" {
		body["reason"] = created.Reason
	}
	c.JSON(http.StatusCreated, body)
}

type updateAssetRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Prompt      *string `json:"prompt"`
	Style       *string `json:"style"`
}

func (h HandlerSet) UpdateAsset(c *gin.Context) {
	var req updateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_body")
		return
	}

	asset, err := h.gallery.UpdateAsset(c.Request.Context(), c.Param("id"), currentUserID(c), gallery.AssetPatch{
		Title:       req.Title,
		Description: req.Description,
		Prompt:      req.Prompt,
		Style:       req.Style,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset": h.toAsset(asset)})
}

func (h HandlerSet) DeleteAsset(c *gin.Context) {
	if err := h.gallery.DeleteAsset(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type visibilityRequest struct {
	Public *bool `json:"public" binding:"required"`
}

func (h HandlerSet) SetVisibility(c *gin.Context) {
	var req visibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_body")
		return
	}

	vis, err := h.gallery.RequestVisibilityChange(c.Request.Context(), c.Param("id"), currentUserID(c), *req.Public)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"public": vis.IsPublic})
}

func (h HandlerSet) ToggleVisibility(c *gin.Context) {
	vis, err := h.gallery.ToggleVisibility(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"public": vis.IsPublic})
}

type likeRequest struct {
	Liked *bool `json:"liked" binding:"required"`
}

func (h HandlerSet) SetLike(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_body")
		return
	}

	res, err := h.gallery.ToggleLike(c.Request.Context(), c.Param("id"), currentUserID(c), *req.Liked)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": res.Liked, "likeCount": res.LikeCount})
}
