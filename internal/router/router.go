// Package router assembles the gin engine serving the attendance API and the
// relay endpoints.
package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/handler"
	"github.com/noah-isme/attendance-tracker/internal/middleware"
	"github.com/noah-isme/attendance-tracker/internal/service"
	"github.com/noah-isme/attendance-tracker/pkg/config"
	"github.com/noah-isme/attendance-tracker/pkg/logger"
	corsmiddleware "github.com/noah-isme/attendance-tracker/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/attendance-tracker/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers. Reports and Relay are optional; their
// routes are left out when nil.
type Handlers struct {
	Students   *handler.StudentHandler
	Subjects   *handler.SubjectHandler
	Attendance *handler.AttendanceHandler
	Calendar   *handler.CalendarHandler
	Settings   *handler.SettingsHandler
	Stats      *handler.StatsHandler
	Reports    *handler.ReportHandler
	Transfer   *handler.TransferHandler
	Relay      *handler.RelayHandler
	Metrics    *handler.MetricsHandler
}

// Options carries the process level settings the engine needs.
type Options struct {
	Env            string
	APIPrefix      string
	AllowedOrigins []string
	Logger         *zap.Logger
	Metrics        *service.MetricsService
}

// New builds the engine with the middleware chain and every route.
func New(opts Options, h Handlers) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	prefix := "/" + strings.Trim(opts.APIPrefix, "/")
	if prefix == "/" {
		prefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics, "/health", "/ready", "/metrics"))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if opts.Metrics != nil {
		r.GET("/metrics", h.Metrics.Prometheus)
	}
	if opts.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if h.Relay != nil {
		sync := r.Group("/sync")
		sync.POST("/store", h.Relay.Store)
		sync.GET("/retrieve", h.Relay.Retrieve)
	}

	api := r.Group(prefix)

	students := api.Group("/students")
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.GET("/:id", h.Students.Get)
	students.PATCH("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Delete)

	subjects := api.Group("/subjects")
	subjects.GET("", h.Subjects.List)
	subjects.POST("", h.Subjects.Create)
	subjects.PATCH("/:id", h.Subjects.Update)
	subjects.DELETE("/:id", h.Subjects.Delete)

	api.PUT("/attendance", h.Attendance.Set)
	api.GET("/attendance/marks", h.Attendance.Marks)

	calendar := api.Group("/calendar")
	calendar.GET("", h.Calendar.List)
	calendar.POST("/generate", h.Calendar.Generate)
	calendar.POST("/:date/toggle", h.Calendar.Toggle)
	calendar.PUT("/:date/note", h.Calendar.Note)

	api.GET("/settings", h.Settings.Get)
	api.PATCH("/settings", h.Settings.Update)
	api.PUT("/settings/timetable", h.Settings.SetTimetableSlot)
	api.GET("/license", h.Settings.License)
	api.POST("/license/activate", h.Settings.ActivateLicense)
	api.POST("/reset/:scope", h.Settings.Reset)

	stats := api.Group("/stats")
	stats.GET("/students/:id", h.Stats.Student)
	stats.GET("/report", h.Stats.Report)
	stats.GET("/trend/:id", h.Stats.Trend)
	stats.GET("/matrix", h.Stats.Matrix)
	stats.GET("/dashboard", h.Stats.Dashboard)

	if h.Reports != nil {
		reports := api.Group("/reports")
		reports.POST("/generate", h.Reports.Generate)
		reports.GET("/status/:id", h.Reports.Status)
		reports.GET("/download/:token", h.Reports.Download)
		reports.GET("/export", h.Reports.Export)
	}

	transfer := api.Group("/transfer")
	transfer.POST("/issue", h.Transfer.Issue)
	transfer.GET("/status", h.Transfer.Status)
	transfer.POST("/import", h.Transfer.Import)
	transfer.GET("/export", h.Transfer.Export)
	transfer.POST("/import-blob", h.Transfer.ImportBlob)

	if opts.Metrics != nil {
		api.GET("/metrics/summary", h.Metrics.Summary)
	}

	return r
}
