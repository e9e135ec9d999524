package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/domain/models"
	"github.com/loomworks/loomledger/internal/service/production"
	"github.com/loomworks/loomledger/internal/service/reporting"
)

type ProductionHandler struct {
	recorder *production.Service
	reporter *reporting.Service
	logger   *zap.Logger
}

func NewProductionHandler(recorder *production.Service, reporter *reporting.Service, logger *zap.Logger) *ProductionHandler {
	return &ProductionHandler{recorder: recorder, reporter: reporter, logger: logger}
}

func (h *ProductionHandler) Create(c *gin.Context) {
	var req production.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	entry, err := h.recorder.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	created(c, "production entry recorded", entry)
}

func (h *ProductionHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req production.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	entry, err := h.recorder.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(200, gin.H{"success": true, "message": "production entry updated", "data": entry})
}

func (h *ProductionHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.recorder.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, gin.H{})
}

func (h *ProductionHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	entry, err := h.recorder.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, entry)
}

func (h *ProductionHandler) List(c *gin.Context) {
	f, err := productionFilterFromQuery(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	entries, err := h.recorder.List(c.Request.Context(), f)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	successList(c, len(entries), entries)
}

func (h *ProductionHandler) Stats(c *gin.Context) {
	stats, err := h.reporter.ProductionStats(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	success(c, stats)
}

// Summary groups the filtered entries by worker, machine, quality or day.
func (h *ProductionHandler) Summary(c *gin.Context) {
	f, err := productionFilterFromQuery(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	groupBy := models.GroupKey(c.DefaultQuery("groupBy", string(models.GroupByWorker)))
	summaries, err := h.reporter.Summarize(c.Request.Context(), f, groupBy)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	successList(c, len(summaries), summaries)
}

// productionFilterFromQuery reads the shared list/summary query parameters.
// Dates are accepted as YYYY-MM-DD or RFC 3339.
func productionFilterFromQuery(c *gin.Context) (models.ProductionFilter, error) {
	var f models.ProductionFilter

	from, err := queryDate(c, "from")
	if err != nil {
		return f, err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return f, err
	}
	if to != nil && to.Hour() == 0 && to.Minute() == 0 && to.Second() == 0 {
		// bare dates on the upper bound mean "through that whole day"
		end := to.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	f.From, f.To = from, to

	f.Shift = models.Shift(c.Query("shift"))
	f.SortBy = c.Query("sortBy")
	f.Order = c.Query("order")

	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return f, &strconv.NumError{Func: "limit", Num: v, Err: strconv.ErrSyntax}
		}
		f.Limit = n
	}

	for param, dst := range map[string]**primitive.ObjectID{
		"machine": &f.MachineID,
		"worker":  &f.WorkerID,
		"taka":    &f.TakaID,
		"quality": &f.QualityID,
	} {
		if v := c.Query(param); v != "" {
			id, err := primitive.ObjectIDFromHex(v)
			if err != nil {
				return f, err
			}
			*dst = &id
		}
	}
	return f, nil
}

func queryDate(c *gin.Context, name string) (*time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		t, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}
