package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-spotter/pkg/analysis"
	"github.com/teslashibe/go-spotter/pkg/camera"
	"github.com/teslashibe/go-spotter/pkg/orchestrator"
)

func newTestServer(src camera.Source, client analysis.Client) *Server {
	cfg := orchestrator.Config{
		MotionDelay:    time.Millisecond,
		BannerTTL:      50 * time.Millisecond,
		PollInterval:   20 * time.Millisecond,
		RequestTimeout: time.Second,
	}
	orch := orchestrator.New(cfg, func() (camera.Source, error) { return src, nil }, client)
	return NewServer("0", orch)
}

func doJSON(t *testing.T, s *Server, method, path string, wantStatus int) map[string]any {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d", method, path, resp.StatusCode, wantStatus)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("%s %s: decode body: %v", method, path, err)
	}
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(&camera.Mock{}, &analysis.Mock{})
	body := doJSON(t, s, http.MethodGet, "/api/health", http.StatusOK)
	if body["status"] != "ok" {
		t.Errorf("status: got %v, want ok", body["status"])
	}
}

func TestStartSession(t *testing.T) {
	s := newTestServer(&camera.Mock{}, &analysis.Mock{})
	body := doJSON(t, s, http.MethodPost, "/api/session/start", http.StatusOK)
	if body["session_active"] != true {
		t.Errorf("session_active: got %v, want true", body["session_active"])
	}
}

func TestStartSession_CameraUnavailable(t *testing.T) {
	cfg := orchestrator.Config{MotionDelay: time.Millisecond, BannerTTL: time.Second, PollInterval: time.Second, RequestTimeout: time.Second}
	orch := orchestrator.New(cfg, func() (camera.Source, error) {
		return nil, errors.New("camera: permission denied")
	}, &analysis.Mock{})
	s := NewServer("0", orch)

	body := doJSON(t, s, http.MethodPost, "/api/session/start", http.StatusServiceUnavailable)
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "grant camera access") {
		t.Errorf("error should instruct the user to grant access and retry, got %q", msg)
	}
}

func TestAnalyze_NoSession(t *testing.T) {
	s := newTestServer(&camera.Mock{}, &analysis.Mock{})
	doJSON(t, s, http.MethodPost, "/api/analyze", http.StatusConflict)
}

func TestAnalyze_Success(t *testing.T) {
	client := &analysis.Mock{
		AnalyzeMotionFunc: func(ctx context.Context, a, b []byte) (*analysis.MotionResult, error) {
			return &analysis.MotionResult{Subject: "red ball", Movement: "rolling right", Confidence: 0.92}, nil
		},
	}
	s := newTestServer(&camera.Mock{}, client)

	doJSON(t, s, http.MethodPost, "/api/session/start", http.StatusOK)
	body := doJSON(t, s, http.MethodPost, "/api/analyze", http.StatusOK)

	result, ok := body["result"].(map[string]any)
	if !ok {
		t.Fatalf("missing result in %v", body)
	}
	if result["subject"] != "red ball" {
		t.Errorf("subject: got %v, want red ball", result["subject"])
	}
	if result["movement"] != "rolling right" {
		t.Errorf("movement: got %v, want rolling right", result["movement"])
	}
	if result["confidence_pct"] != float64(92) {
		t.Errorf("confidence_pct: got %v, want 92", result["confidence_pct"])
	}
	if body["banner"] != "rolling right" {
		t.Errorf("banner: got %v, want movement description", body["banner"])
	}
}

func TestAnalyze_BackendFailure(t *testing.T) {
	client := &analysis.Mock{
		AnalyzeMotionFunc: func(ctx context.Context, a, b []byte) (*analysis.MotionResult, error) {
			return nil, errors.New("analysis: API error 500: internal")
		},
	}
	s := newTestServer(&camera.Mock{}, client)

	doJSON(t, s, http.MethodPost, "/api/session/start", http.StatusOK)
	doJSON(t, s, http.MethodPost, "/api/analyze", http.StatusBadGateway)

	// The failure is persistent in motion mode.
	body := doJSON(t, s, http.MethodGet, "/api/state", http.StatusOK)
	if body["error"] == nil || body["error"] == "" {
		t.Error("backend failure should be visible in state")
	}
}

func TestSetMode(t *testing.T) {
	s := newTestServer(&camera.Mock{}, &analysis.Mock{})

	body := doJSON(t, s, http.MethodPost, "/api/mode/live", http.StatusOK)
	if body["mode"] != "live" {
		t.Errorf("mode: got %v, want live", body["mode"])
	}

	doJSON(t, s, http.MethodPost, "/api/mode/sideways", http.StatusBadRequest)
}

func TestToggleLive_Flow(t *testing.T) {
	s := newTestServer(&camera.Mock{}, &analysis.Mock{})

	// No session yet
	doJSON(t, s, http.MethodPost, "/api/live/toggle", http.StatusConflict)

	doJSON(t, s, http.MethodPost, "/api/session/start", http.StatusOK)

	// Wrong mode
	doJSON(t, s, http.MethodPost, "/api/live/toggle", http.StatusConflict)

	doJSON(t, s, http.MethodPost, "/api/mode/live", http.StatusOK)
	body := doJSON(t, s, http.MethodPost, "/api/live/toggle", http.StatusOK)
	if body["detecting"] != true {
		t.Errorf("detecting: got %v, want true", body["detecting"])
	}

	body = doJSON(t, s, http.MethodPost, "/api/live/toggle", http.StatusOK)
	if body["detecting"] != false {
		t.Errorf("detecting after second toggle: got %v, want false", body["detecting"])
	}
}

func TestStateDTO_MapsDetections(t *testing.T) {
	st := orchestrator.State{
		Mode: orchestrator.ModeLive,
		LastDetections: []analysis.Detection{
			{Label: "mug", Box: analysis.BoundingBox{XMin: 0.1, YMin: 0.2, XMax: 0.3, YMax: 0.4}},
		},
	}

	dto := toStateDTO(st)
	if len(dto.Detections) != 1 {
		t.Fatalf("detections: got %d, want 1", len(dto.Detections))
	}
	d := dto.Detections[0]
	if d.Label != "mug" || d.XMin != 0.1 || d.YMin != 0.2 || d.XMax != 0.3 || d.YMax != 0.4 {
		t.Errorf("detection mapping wrong: %+v", d)
	}
}
