package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/domain/models"
	"github.com/loomworks/loomledger/internal/service/registry"
)

type MachineHandler struct {
	registry *registry.Service
	logger   *zap.Logger
}

func NewMachineHandler(reg *registry.Service, logger *zap.Logger) *MachineHandler {
	return &MachineHandler{registry: reg, logger: logger}
}

func (h *MachineHandler) Create(c *gin.Context) {
	var req registry.MachineCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	machine, err := h.registry.CreateMachine(c.Request.Context(), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	created(c, "machine created", machine)
}

func (h *MachineHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req registry.MachineUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	machine, err := h.registry.UpdateMachine(c.Request.Context(), id, req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(200, gin.H{"success": true, "message": "machine updated", "data": machine})
}

func (h *MachineHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	machine, err := h.registry.GetMachine(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, machine)
}

func (h *MachineHandler) List(c *gin.Context) {
	f := models.MachineFilter{
		Status: models.MachineStatus(c.Query("status")),
		Search: c.Query("search"),
		SortBy: c.Query("sortBy"),
		Order:  c.Query("order"),
	}
	machines, err := h.registry.ListMachines(c.Request.Context(), f)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	successList(c, len(machines), machines)
}

func (h *MachineHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.registry.DeleteMachine(c.Request.Context(), id); err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, gin.H{})
}

func (h *MachineHandler) BulkDelete(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.registry.BulkDeleteMachines(c.Request.Context(), req.IDs); err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, gin.H{"deleted": len(req.IDs)})
}

func (h *MachineHandler) AssignWorker(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req registry.AssignWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	machine, err := h.registry.AssignWorker(c.Request.Context(), id, req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, machine)
}

func (h *MachineHandler) Production(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	f, err := productionFilterFromQuery(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	entries, totals, err := h.registry.MachineProduction(c.Request.Context(), id, f)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(200, gin.H{
		"success": true,
		"count":   len(entries),
		"data":    gin.H{"productions": entries, "totals": totals},
	})
}

func (h *MachineHandler) Stats(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	stats, err := h.registry.MachineStats(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, stats)
}
