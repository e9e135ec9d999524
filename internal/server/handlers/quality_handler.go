package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/domain/models"
	"github.com/loomworks/loomledger/internal/service/registry"
)

type QualityHandler struct {
	registry *registry.Service
	logger   *zap.Logger
}

func NewQualityHandler(reg *registry.Service, logger *zap.Logger) *QualityHandler {
	return &QualityHandler{registry: reg, logger: logger}
}

func (h *QualityHandler) Create(c *gin.Context) {
	var req registry.QualityCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	grade, err := h.registry.CreateQuality(c.Request.Context(), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	created(c, "quality grade created", grade)
}

func (h *QualityHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req registry.QualityUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	grade, err := h.registry.UpdateQuality(c.Request.Context(), id, req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(200, gin.H{"success": true, "message": "quality grade updated", "data": grade})
}

func (h *QualityHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	grade, err := h.registry.GetQuality(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, grade)
}

func (h *QualityHandler) List(c *gin.Context) {
	f := models.QualityFilter{
		Search: c.Query("search"),
		SortBy: c.Query("sortBy"),
		Order:  c.Query("order"),
	}
	grades, err := h.registry.ListQualities(c.Request.Context(), f)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	successList(c, len(grades), grades)
}

func (h *QualityHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.registry.DeleteQuality(c.Request.Context(), id); err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, gin.H{})
}
