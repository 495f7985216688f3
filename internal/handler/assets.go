package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"plantasset/internal/repository"
	"plantasset/internal/service"
)

type AssetHandler struct {
	Hierarchy *service.Hierarchy
	Repo      repository.Repository
}

func (h *AssetHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/assets")
	group.GET("", h.list)
	group.GET("/tree", h.tree)
	group.POST("", h.create)
	group.PUT("/:id", h.rename)
	group.DELETE("/:id", h.remove)
	group.POST("/:id/restore", h.restore)
	group.POST("/bulk", h.bulkUpload)

	r.GET("/api/v1/signal-types", h.listSignalTypes)
}

func assetErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrAssetNotFound), errors.Is(err, service.ErrParentNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, service.ErrHasChildren),
		errors.Is(err, service.ErrHasMappings),
		errors.Is(err, service.ErrParentDeleted):
		return http.StatusConflict
	case errors.Is(err, service.ErrEmptyName):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (h *AssetHandler) list(c *gin.Context) {
	includeDeleted := false
	if v := boolQuery(c, "include_deleted"); v != nil {
		includeDeleted = *v
	}
	items, err := h.Repo.ListAssets(c.Request.Context(), includeDeleted)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

func (h *AssetHandler) tree(c *gin.Context) {
	roots, err := h.Hierarchy.Tree(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, roots, nil)
}

type createAssetRequest struct {
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parentId"`
}

func (h *AssetHandler) create(c *gin.Context) {
	var req createAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Hierarchy.Create(c.Request.Context(), req.Name, req.ParentID)
	if err != nil {
		Error(c, assetErrorStatus(err), err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

type renameAssetRequest struct {
	Name string `json:"name"`
}

func (h *AssetHandler) rename(c *gin.Context) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid asset id", nil)
		return
	}
	var req renameAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Hierarchy.Rename(c.Request.Context(), assetID, req.Name)
	if err != nil {
		Error(c, assetErrorStatus(err), err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *AssetHandler) remove(c *gin.Context) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid asset id", nil)
		return
	}
	if err := h.Hierarchy.SoftDelete(c.Request.Context(), assetID); err != nil {
		Error(c, assetErrorStatus(err), err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"assetId": assetID}, nil)
}

func (h *AssetHandler) restore(c *gin.Context) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid asset id", nil)
		return
	}
	if err := h.Hierarchy.Restore(c.Request.Context(), assetID); err != nil {
		Error(c, assetErrorStatus(err), err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"assetId": assetID}, nil)
}

type bulkUploadRequest struct {
	Rows []service.BulkRow `json:"rows"`
}

func (h *AssetHandler) bulkUpload(c *gin.Context) {
	var req bulkUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if len(req.Rows) == 0 {
		Error(c, http.StatusBadRequest, "rows required", nil)
		return
	}
	for i := range req.Rows {
		req.Rows[i].Name = strings.TrimSpace(req.Rows[i].Name)
	}
	res, err := h.Hierarchy.BulkUpload(c.Request.Context(), req.Rows)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, res, nil)
}

func (h *AssetHandler) listSignalTypes(c *gin.Context) {
	items, err := h.Repo.ListSignalTypes(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}
