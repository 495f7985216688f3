package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"plantasset/internal/service"
)

type MappingHandler struct {
	Mappings *service.Mappings
}

func (h *MappingHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/mappings")
	group.GET("", h.list)
	group.POST("", h.create)
	group.DELETE("/:id", h.remove)
}

func (h *MappingHandler) list(c *gin.Context) {
	items, err := h.Mappings.List(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

func (h *MappingHandler) create(c *gin.Context) {
	var req service.CreateMappingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Mappings.Create(c.Request.Context(), req)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, service.ErrAssetNotFound), errors.Is(err, service.ErrSignalTypeNotFound):
			status = http.StatusNotFound
		case errors.Is(err, service.ErrDuplicateDevicePort):
			status = http.StatusConflict
		}
		Error(c, status, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *MappingHandler) remove(c *gin.Context) {
	mappingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid mapping id", nil)
		return
	}
	if err := h.Mappings.Delete(c.Request.Context(), mappingID); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"mappingId": mappingID}, nil)
}
