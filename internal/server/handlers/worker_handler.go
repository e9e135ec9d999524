package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/domain/models"
	"github.com/loomworks/loomledger/internal/service/registry"
)

type WorkerHandler struct {
	registry *registry.Service
	logger   *zap.Logger
}

func NewWorkerHandler(reg *registry.Service, logger *zap.Logger) *WorkerHandler {
	return &WorkerHandler{registry: reg, logger: logger}
}

func (h *WorkerHandler) Create(c *gin.Context) {
	var req registry.WorkerCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	worker, err := h.registry.CreateWorker(c.Request.Context(), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	created(c, "worker created", worker)
}

func (h *WorkerHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req registry.WorkerUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	worker, err := h.registry.UpdateWorker(c.Request.Context(), id, req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(200, gin.H{"success": true, "message": "worker updated", "data": worker})
}

func (h *WorkerHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	worker, err := h.registry.GetWorker(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, worker)
}

func (h *WorkerHandler) List(c *gin.Context) {
	f := models.WorkerFilter{
		WorkerType: models.WorkerType(c.Query("workerType")),
		Shift:      models.WorkerShift(c.Query("shift")),
		Search:     c.Query("search"),
		SortBy:     c.Query("sortBy"),
		Order:      c.Query("order"),
	}
	workers, err := h.registry.ListWorkers(c.Request.Context(), f)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	successList(c, len(workers), workers)
}

func (h *WorkerHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.registry.DeleteWorker(c.Request.Context(), id); err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, gin.H{})
}

func (h *WorkerHandler) BulkDelete(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.registry.BulkDeleteWorkers(c.Request.Context(), req.IDs); err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, gin.H{"deleted": len(req.IDs)})
}

// Performance reports one worker's entries and totals for a month, defaulting
// to the current one.
func (h *WorkerHandler) Performance(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	year, month, err := queryMonth(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	entries, totals, err := h.registry.WorkerPerformance(c.Request.Context(), id, year, month)
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

func queryMonth(c *gin.Context) (int, time.Month, error) {
	now := time.Now()
	year, month := now.Year(), now.Month()

	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, err
		}
		year = n
	}
	if v := c.Query("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, err
		}
		if n < 1 || n > 12 {
			return 0, 0, &strconv.NumError{Func: "month", Num: v, Err: strconv.ErrRange}
		}
		month = time.Month(n)
	}
	return year, month, nil
}
