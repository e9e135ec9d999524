package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/service/reporting"
)

type DashboardHandler struct {
	reporter *reporting.Service
	logger   *zap.Logger
}

func NewDashboardHandler(reporter *reporting.Service, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{reporter: reporter, logger: logger}
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.reporter.Dashboard(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, stats)
}

func (h *DashboardHandler) MonthlyTrends(c *gin.Context) {
	months := 6
	if v := c.Query("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 24 {
			badRequest(c, "months must be between 1 and 24")
			return
		}
		months = n
	}

	trends, err := h.reporter.MonthlyTrends(c.Request.Context(), time.Now(), months)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	successList(c, len(trends), trends)
}

func (h *DashboardHandler) TopPerformers(c *gin.Context) {
	workers, machines, err := h.reporter.TopPerformers(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, gin.H{"workers": workers, "machines": machines})
}

func (h *DashboardHandler) QualityDistribution(c *gin.Context) {
	shares, err := h.reporter.QualityDistribution(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	successList(c, len(shares), shares)
}
