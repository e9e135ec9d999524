package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/service/reporting"
)

type ReportHandler struct {
	reporter    *reporting.Service
	salaryRange string
	logger      *zap.Logger
}

// NewReportHandler builds the report endpoints. salaryRange is the sheet
// range exports default to when the request does not name one.
func NewReportHandler(reporter *reporting.Service, salaryRange string, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reporter: reporter, salaryRange: salaryRange, logger: logger}
}

func (h *ReportHandler) Worker(c *gin.Context) {
	f, err := productionFilterFromQuery(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	groups, err := h.reporter.WorkerReport(c.Request.Context(), f)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	successList(c, len(groups), groups)
}

func (h *ReportHandler) Machine(c *gin.Context) {
	f, err := productionFilterFromQuery(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	groups, err := h.reporter.MachineReport(c.Request.Context(), f)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	successList(c, len(groups), groups)
}

func (h *ReportHandler) Salary(c *gin.Context) {
	year, month, err := queryMonth(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	rows, err := h.reporter.SalaryReport(c.Request.Context(), year, month)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	successList(c, len(rows), rows)
}

// ExportSalary writes the month's salary rows to the configured spreadsheet.
func (h *ReportHandler) ExportSalary(c *gin.Context) {
	var req struct {
		Year  int    `json:"year"`
		Month int    `json:"month" binding:"omitempty,min=1,max=12"`
		Range string `json:"range"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	now := time.Now()
	if req.Year == 0 {
		req.Year = now.Year()
	}
	month := now.Month()
	if req.Month != 0 {
		month = time.Month(req.Month)
	}
	if req.Range == "" {
		req.Range = h.salaryRange
	}

	rows, err := h.reporter.ExportSalary(c.Request.Context(), req.Year, month, req.Range)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, gin.H{"rowsWritten": rows})
}
