package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// candidateEnvelope wraps model text in the generateContent response shape.
func candidateEnvelope(text string) string {
	envelope := map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"parts": []map[string]any{
						{"text": text},
					},
				},
			},
		},
	}
	data, _ := json.Marshal(envelope)
	return string(data)
}

// newTestGemini returns a client pointed at a scripted backend.
func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGemini(GeminiConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		HTTP:    srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	return g
}

func TestNewGemini_RequiresAPIKey(t *testing.T) {
	_, err := NewGemini(GeminiConfig{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("got %v, want ErrMissingAPIKey", err)
	}
}

func TestAnalyzeMotion_Success(t *testing.T) {
	var gotImages int
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Contents []struct {
				Parts []map[string]any `json:"parts"`
			} `json:"contents"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		for _, p := range req.Contents[0].Parts {
			if _, ok := p["inline_data"]; ok {
				gotImages++
			}
		}
		w.Write([]byte(candidateEnvelope(`{"objectName":"red ball","movementDescription":"rolling right","confidence":0.92}`)))
	})

	res, err := g.AnalyzeMotion(context.Background(), []byte("frameA"), []byte("frameB"))
	if err != nil {
		t.Fatalf("AnalyzeMotion: %v", err)
	}

	if gotImages != 2 {
		t.Errorf("inline images sent: got %d, want 2", gotImages)
	}
	if res.Subject != "red ball" {
		t.Errorf("Subject: got %q, want %q", res.Subject, "red ball")
	}
	if res.Movement != "rolling right" {
		t.Errorf("Movement: got %q, want %q", res.Movement, "rolling right")
	}
	if res.Confidence != 0.92 {
		t.Errorf("Confidence: got %v, want 0.92", res.Confidence)
	}
	if res.DisplayConfidence() != 92 {
		t.Errorf("DisplayConfidence: got %d, want 92", res.DisplayConfidence())
	}
}

func TestAnalyzeMotion_StripsCodeFences(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateEnvelope("```json\n{\"objectName\":\"cat\",\"movementDescription\":\"jumping\",\"confidence\":0.7}\n```")))
	})

	res, err := g.AnalyzeMotion(context.Background(), []byte("a"), []byte("b"))
	if err != nil {
		t.Fatalf("AnalyzeMotion: %v", err)
	}
	if res.Subject != "cat" {
		t.Errorf("Subject: got %q, want %q", res.Subject, "cat")
	}
}

func TestAnalyzeMotion_MissingFields(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateEnvelope(`{"objectName":"dog"}`)))
	})

	_, err := g.AnalyzeMotion(context.Background(), []byte("a"), []byte("b"))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("got %v, want ParseError", err)
	}
}

func TestAnalyzeMotion_ConfidenceOutOfRange(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateEnvelope(`{"objectName":"dog","movementDescription":"running","confidence":1.4}`)))
	})

	_, err := g.AnalyzeMotion(context.Background(), []byte("a"), []byte("b"))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("got %v, want ParseError", err)
	}
	if !IsBackendError(err) {
		t.Error("schema mismatch should count as a backend error")
	}
}

func TestAnalyzeMotion_NonNumericConfidence(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateEnvelope(`{"objectName":"dog","movementDescription":"running","confidence":"high"}`)))
	})

	_, err := g.AnalyzeMotion(context.Background(), []byte("a"), []byte("b"))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("got %v, want ParseError (no silent coercion)", err)
	}
}

func TestGenerate_APIError(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("quota exceeded"))
	})

	_, err := g.AnalyzeMotion(context.Background(), []byte("a"), []byte("b"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want APIError", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode: got %d, want 429", apiErr.StatusCode)
	}
	if !apiErr.IsRetryable() {
		t.Error("429 should be retryable")
	}
	if !IsBackendError(err) {
		t.Error("API error should count as a backend error")
	}
}

func TestGenerate_EmptyCandidates(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := g.DetectObjects(context.Background(), []byte("frame"))
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("got %v, want ErrEmptyResponse", err)
	}
}

func TestDetectObjects_Success(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateEnvelope(`{"detections":[
			{"objectName":"mug","boundingBox":{"x_min":0.1,"y_min":0.2,"x_max":0.3,"y_max":0.5}},
			{"objectName":"laptop","boundingBox":{"x_min":0.4,"y_min":0.1,"x_max":0.9,"y_max":0.8}}
		]}`)))
	})

	dets, err := g.DetectObjects(context.Background(), []byte("frame"))
	if err != nil {
		t.Fatalf("DetectObjects: %v", err)
	}
	if len(dets) != 2 {
		t.Fatalf("detections: got %d, want 2", len(dets))
	}
	if dets[0].Label != "mug" {
		t.Errorf("first label: got %q, want %q", dets[0].Label, "mug")
	}
	want := BoundingBox{XMin: 0.4, YMin: 0.1, XMax: 0.9, YMax: 0.8}
	if dets[1].Box != want {
		t.Errorf("second box: got %+v, want %+v", dets[1].Box, want)
	}
}

func TestDetectObjects_EmptyIsValid(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateEnvelope(`{"detections":[]}`)))
	})

	dets, err := g.DetectObjects(context.Background(), []byte("frame"))
	if err != nil {
		t.Fatalf("empty detections should not be an error, got %v", err)
	}
	if len(dets) != 0 {
		t.Errorf("detections: got %d, want 0", len(dets))
	}
}

func TestDetectObjects_DegenerateBox(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateEnvelope(`{"detections":[
			{"objectName":"mug","boundingBox":{"x_min":0.5,"y_min":0.2,"x_max":0.3,"y_max":0.5}}
		]}`)))
	})

	_, err := g.DetectObjects(context.Background(), []byte("frame"))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("got %v, want ParseError", err)
	}
}

func TestDetectObjects_MissingArray(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateEnvelope(`{"objects":[]}`)))
	})

	_, err := g.DetectObjects(context.Background(), []byte("frame"))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("got %v, want ParseError", err)
	}
}

func TestDisplayConfidence_Rounds(t *testing.T) {
	tests := []struct {
		confidence float64
		want       int
	}{
		{0, 0},
		{0.004, 0},
		{0.005, 1},
		{0.92, 92},
		{0.999, 100},
		{1, 100},
	}

	for _, tt := range tests {
		r := MotionResult{Confidence: tt.confidence}
		if got := r.DisplayConfidence(); got != tt.want {
			t.Errorf("DisplayConfidence(%v): got %d, want %d", tt.confidence, got, tt.want)
		}
		if got := r.DisplayConfidence(); got < 0 || got > 100 {
			t.Errorf("DisplayConfidence(%v)=%d outside [0,100]", tt.confidence, got)
		}
	}
}
