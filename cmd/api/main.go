package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go/jetstream"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/facepoint/internal/api"
	"github.com/your-org/facepoint/internal/api/ws"
	"github.com/your-org/facepoint/internal/attendance"
	"github.com/your-org/facepoint/internal/config"
	"github.com/your-org/facepoint/internal/liveness"
	"github.com/your-org/facepoint/internal/models"
	"github.com/your-org/facepoint/internal/observability"
	"github.com/your-org/facepoint/internal/queue"
	"github.com/your-org/facepoint/internal/recognize"
	"github.com/your-org/facepoint/internal/storage"
	"github.com/your-org/facepoint/internal/vision"
	"github.com/your-org/facepoint/pkg/dto"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting facepoint API service", "port", cfg.Server.Port)

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStream(context.Background()); err != nil {
		slog.Warn("ensure nats stream", "error", err)
	}

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Consumer persists the audit row and feeds live dashboards.
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create attendance consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	err = consumer.ConsumeAttendance(ctx, "api-attendance", func(ctx context.Context, msg jetstream.Msg) error {
		var ev models.AttendanceEvent
		if err := json.Unmarshal(msg.Data(), &ev); err != nil {
			return err
		}

		record := &models.RecognitionEvent{
			ID:             ev.EventID,
			EmployeeID:     ev.EmployeeID,
			Matched:        ev.Matched,
			Distance:       ev.Distance,
			Similarity:     ev.Similarity,
			Live:           ev.Live,
			LivenessReason: ev.LivenessReason,
			Slot:           ev.Slot,
			SnapshotKey:    ev.SnapshotKey,
			Descriptor:     ev.Descriptor,
			Timestamp:      ev.Timestamp,
		}
		if err := db.CreateEvent(ctx, record); err != nil {
			slog.Error("store recognition event", "error", err)
		}

		hub.BroadcastEvent(&dto.WSEvent{
			Type:         "attendance",
			EventID:      ev.EventID,
			EmployeeID:   ev.EmployeeID,
			EmployeeCode: ev.EmployeeCode,
			FullName:     ev.FullName,
			Matched:      ev.Matched,
			Live:         ev.Live,
			Similarity:   ev.Similarity,
			Slot:         ev.Slot,
			SlotTime:     ev.SlotTime,
			Late:         ev.Late,
			Message:      ev.Message,
			Timestamp:    ev.Timestamp,
		})

		return nil
	})
	if err != nil {
		slog.Warn("start attendance consumer", "error", err)
	}

	// Initialize ONNX Runtime for detection and embedding.
	ort.SetSharedLibraryPath(getONNXLibPath())
	if err := ort.InitializeEnvironment(); err != nil {
		slog.Error("onnx runtime init failed", "error", err)
		os.Exit(1)
	}
	defer ort.DestroyEnvironment()

	extractor, err := vision.NewExtractor(cfg.Vision, nil)
	if err != nil {
		slog.Error("init extractor", "error", err)
		os.Exit(1)
	}
	defer extractor.Close()

	// Recognition core
	gallery := recognize.NewCache(db, cfg.Recognition.GalleryTTL)
	matcher := recognize.NewMatcher(cfg.Recognition.ToleranceLadder)
	checker := liveness.NewChecker(extractor, liveness.DefaultThresholds())

	recorder, err := attendance.NewRecorder(db, cfg.Attendance)
	if err != nil {
		slog.Error("init attendance recorder", "error", err)
		os.Exit(1)
	}

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		APIKey:    cfg.Server.APIKey,
		DB:        db,
		MinIO:     minioStore,
		Producer:  producer,
		Hub:       hub,
		Extractor: extractor,
		Gallery:   gallery,
		Matcher:   matcher,
		Checker:   checker,
		Recorder:  recorder,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}

// getONNXLibPath returns the ONNX Runtime shared library path.
func getONNXLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "linux":
		return "libonnxruntime.so"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "onnxruntime.dll"
	}
}
