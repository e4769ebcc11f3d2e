package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/facepoint/internal/api/handlers"
	"github.com/your-org/facepoint/internal/api/ws"
	"github.com/your-org/facepoint/internal/attendance"
	"github.com/your-org/facepoint/internal/auth"
	"github.com/your-org/facepoint/internal/liveness"
	"github.com/your-org/facepoint/internal/queue"
	"github.com/your-org/facepoint/internal/recognize"
	"github.com/your-org/facepoint/internal/storage"
	"github.com/your-org/facepoint/internal/vision"
)

type RouterConfig struct {
	APIKey    string
	DB        *storage.PostgresStore
	MinIO     *storage.MinIOStore
	Producer  *queue.Producer
	Hub       *ws.Hub
	Extractor *vision.Extractor
	Gallery   *recognize.Cache
	Matcher   *recognize.Matcher
	Checker   *liveness.Checker
	Recorder  *attendance.Recorder
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.MinIO, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Recognition / clock-in
	recH := handlers.NewRecognitionHandler(cfg.DB, cfg.MinIO, cfg.Producer,
		cfg.Extractor, cfg.Gallery, cfg.Matcher, cfg.Checker, cfg.Recorder)
	v1.POST("/attendance/recognize", recH.Recognize)

	// Employees
	empH := handlers.NewEmployeeHandler(cfg.DB, cfg.MinIO, cfg.Extractor, cfg.Gallery)
	v1.POST("/employees", empH.Create)
	v1.GET("/employees", empH.List)
	v1.GET("/employees/:id", empH.Get)
	v1.POST("/employees/:id/face", empH.SetFace)
	v1.PATCH("/employees/:id/status", empH.UpdateStatus)
	v1.DELETE("/employees/:id", empH.Delete)

	// Attendance records
	attH := handlers.NewAttendanceHandler(cfg.DB)
	v1.GET("/attendance", attH.List)
	v1.GET("/attendance/summary", attH.Summary)
	v1.GET("/attendance/history", attH.History)

	// Recognition events
	eventH := handlers.NewEventHandler(cfg.DB, cfg.MinIO, cfg.Extractor)
	v1.GET("/events", eventH.List)
	v1.GET("/events/:id/snapshot", eventH.Snapshot)
	v1.POST("/search/events", eventH.SearchEvents)

	return r
}
