package handlers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/domain/models"
	"github.com/loomworks/loomledger/internal/service/ledger"
	"github.com/loomworks/loomledger/internal/service/registry"
)

type TakaHandler struct {
	registry *registry.Service
	ledger   *ledger.Service
	logger   *zap.Logger
}

func NewTakaHandler(reg *registry.Service, led *ledger.Service, logger *zap.Logger) *TakaHandler {
	return &TakaHandler{registry: reg, ledger: led, logger: logger}
}

func (h *TakaHandler) Create(c *gin.Context) {
	var req registry.TakaCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	taka, err := h.registry.CreateTaka(c.Request.Context(), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	created(c, "taka created", taka)
}

func (h *TakaHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req registry.TakaUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	taka, err := h.registry.UpdateTaka(c.Request.Context(), id, req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(200, gin.H{"success": true, "message": "taka updated", "data": taka})
}

func (h *TakaHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	taka, err := h.registry.GetTaka(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, taka)
}

func (h *TakaHandler) List(c *gin.Context) {
	f := models.TakaFilter{
		Status: models.LotStatus(c.Query("status")),
		SortBy: c.Query("sortBy"),
		Order:  c.Query("order"),
	}
	if v := c.Query("machine"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			badRequest(c, "invalid machine id "+v)
			return
		}
		f.MachineID = &id
	}
	if v := c.Query("quality"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			badRequest(c, "invalid quality id "+v)
			return
		}
		f.QualityID = &id
	}

	takas, err := h.registry.ListTakas(c.Request.Context(), f)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	successList(c, len(takas), takas)
}

func (h *TakaHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.registry.DeleteTaka(c.Request.Context(), id); err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, gin.H{})
}

// Complete closes the lot. A second call conflicts, the ledger totals stay
// frozen at their final values.
func (h *TakaHandler) Complete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	taka, err := h.ledger.Complete(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, taka)
}

func (h *TakaHandler) Cancel(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	taka, err := h.ledger.Cancel(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, taka)
}
