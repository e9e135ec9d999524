package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/server/handlers"
)

// Handlers carries the per-resource handler groups the router mounts.
type Handlers struct {
	Productions *handlers.ProductionHandler
	Takas       *handlers.TakaHandler
	Machines    *handlers.MachineHandler
	Workers     *handlers.WorkerHandler
	Qualities   *handlers.QualityHandler
	Dashboard   *handlers.DashboardHandler
	Reports     *handlers.ReportHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")

	productions := api.Group("/productions")
	{
		productions.GET("", h.Productions.List)
		productions.POST("", h.Productions.Create)
		productions.GET("/stats", h.Productions.Stats)
		productions.GET("/summary", h.Productions.Summary)
		productions.GET("/:id", h.Productions.Get)
		productions.PUT("/:id", h.Productions.Update)
		productions.DELETE("/:id", h.Productions.Delete)
	}

	takas := api.Group("/takas")
	{
		takas.GET("", h.Takas.List)
		takas.POST("", h.Takas.Create)
		takas.GET("/:id", h.Takas.Get)
		takas.PUT("/:id", h.Takas.Update)
		takas.DELETE("/:id", h.Takas.Delete)
		takas.PUT("/:id/complete", h.Takas.Complete)
		takas.PUT("/:id/cancel", h.Takas.Cancel)
	}

	machines := api.Group("/machines")
	{
		machines.GET("", h.Machines.List)
		machines.POST("", h.Machines.Create)
		machines.POST("/bulk-delete", h.Machines.BulkDelete)
		machines.GET("/:id", h.Machines.Get)
		machines.PUT("/:id", h.Machines.Update)
		machines.DELETE("/:id", h.Machines.Delete)
		machines.PUT("/:id/assign-worker", h.Machines.AssignWorker)
		machines.GET("/:id/production", h.Machines.Production)
		machines.GET("/:id/stats", h.Machines.Stats)
	}

	workers := api.Group("/workers")
	{
		workers.GET("", h.Workers.List)
		workers.POST("", h.Workers.Create)
		workers.POST("/bulk-delete", h.Workers.BulkDelete)
		workers.GET("/:id", h.Workers.Get)
		workers.PUT("/:id", h.Workers.Update)
		workers.DELETE("/:id", h.Workers.Delete)
		workers.GET("/:id/performance", h.Workers.Performance)
	}

	qualities := api.Group("/qualities")
	{
		qualities.GET("", h.Qualities.List)
		qualities.POST("", h.Qualities.Create)
		qualities.GET("/:id", h.Qualities.Get)
		qualities.PUT("/:id", h.Qualities.Update)
		qualities.DELETE("/:id", h.Qualities.Delete)
	}

	dashboard := api.Group("/dashboard")
	{
		dashboard.GET("/stats", h.Dashboard.Stats)
		dashboard.GET("/monthly-trends", h.Dashboard.MonthlyTrends)
		dashboard.GET("/top-performers", h.Dashboard.TopPerformers)
		dashboard.GET("/quality-distribution", h.Dashboard.QualityDistribution)
	}

	reports := api.Group("/reports")
	{
		reports.GET("/worker", h.Reports.Worker)
		reports.GET("/machine", h.Reports.Machine)
		reports.GET("/salary", h.Reports.Salary)
		reports.POST("/salary/export", h.Reports.ExportSalary)
	}

	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetString("requestID")),
			zap.String("client_ip", c.ClientIP()))
	}
}
