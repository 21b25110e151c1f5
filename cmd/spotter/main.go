// Spotter - live camera analysis dashboard
//
// Captures frames from a local camera and sends them to Gemini for
// motion description or object detection, rendering results in a
// browser dashboard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/teslashibe/go-spotter/internal/config"
	"github.com/teslashibe/go-spotter/internal/log"
	"github.com/teslashibe/go-spotter/pkg/analysis"
	"github.com/teslashibe/go-spotter/pkg/camera"
	"github.com/teslashibe/go-spotter/pkg/orchestrator"
	"github.com/teslashibe/go-spotter/pkg/web"
)

// previewInterval is how often preview frames are pushed to dashboard
// viewers (~5 fps keeps websocket traffic modest).
const previewInterval = 200 * time.Millisecond

func main() {
	// .env is optional; deployments use the real environment.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel)

	client, err := analysis.NewGemini(analysis.GeminiConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	camCfg := camera.DefaultConfig()
	camCfg.DeviceID = cfg.CameraDevice

	orch := orchestrator.New(orchestrator.DefaultConfig(), func() (camera.Source, error) {
		return camera.OpenWebcam(camCfg)
	}, client)

	srv := web.NewServer(cfg.Port, orch)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go previewLoop(ctx, orch, srv)

	srv.StartAsync()
	log.Info("spotter running", "port", cfg.Port, "model", cfg.GeminiModel, "camera", cfg.CameraDevice)

	<-ctx.Done()
	log.Info("shutting down")
	orch.Close()
	srv.Shutdown()
}

// previewLoop pushes camera frames to dashboard viewers while a
// session is active. Frames are transient: captured, broadcast,
// dropped.
func previewLoop(ctx context.Context, orch *orchestrator.Orchestrator, srv *web.Server) {
	ticker := time.NewTicker(previewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if srv.PreviewViewerCount() == 0 {
				continue
			}
			if !orch.Snapshot().SessionActive {
				continue
			}
			frame, err := orch.CaptureFrame()
			if err != nil {
				log.Debug("preview capture failed", "error", err)
				continue
			}
			srv.SendCameraFrame(frame)
		}
	}
}
