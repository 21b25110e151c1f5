package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/teslashibe/go-spotter/internal/httpc"
)

const (
	// Gemini generateContent REST endpoint.
	geminiBaseURL = "https://generativelanguage.googleapis.com"

	// Default model for frame analysis.
	geminiDefaultModel = "gemini-2.0-flash"
)

// Instructions sent alongside the frames. The backend is contracted to
// answer with strict JSON matching the shapes parsed below.
const (
	motionPrompt = `These two images were captured from the same camera about half a second apart, in order. ` +
		`Identify the most prominent moving subject and describe its motion between the frames. ` +
		`Respond with JSON only, exactly this shape: ` +
		`{"objectName": string, "movementDescription": string, "confidence": number between 0 and 1}`

	detectionPrompt = `Detect all significant objects in this image. ` +
		`Respond with JSON only, exactly this shape: ` +
		`{"detections": [{"objectName": string, "boundingBox": {"x_min": number, "y_min": number, "x_max": number, "y_max": number}}]}. ` +
		`Coordinates are normalized to [0,1] with x_min < x_max and y_min < y_max. ` +
		`Return {"detections": []} if nothing significant is visible.`
)

// GeminiConfig holds settings for the Gemini client.
type GeminiConfig struct {
	APIKey  string
	Model   string       // Defaults to gemini-2.0-flash
	BaseURL string       // Overridable for tests
	HTTP    *http.Client // Defaults to the shared httpc client
}

// Gemini implements Client using Google's generateContent API.
type Gemini struct {
	cfg GeminiConfig
}

// NewGemini creates a Gemini-backed analysis client.
func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = geminiDefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = geminiBaseURL
	}
	if cfg.HTTP == nil {
		cfg.HTTP = httpc.Client
	}
	return &Gemini{cfg: cfg}, nil
}

// AnalyzeMotion sends both frames with the motion instruction and
// validates the result shape.
func (g *Gemini) AnalyzeMotion(ctx context.Context, frameA, frameB []byte) (*MotionResult, error) {
	text, err := g.generate(ctx, motionPrompt, frameA, frameB)
	if err != nil {
		return nil, err
	}

	// Pointer fields so missing keys are detected, not zero-valued.
	var wire struct {
		ObjectName          *string  `json:"objectName"`
		MovementDescription *string  `json:"movementDescription"`
		Confidence          *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(stripFences(text)), &wire); err != nil {
		return nil, &ParseError{Reason: "motion result is not valid JSON", Cause: err}
	}
	if wire.ObjectName == nil || wire.MovementDescription == nil || wire.Confidence == nil {
		return nil, &ParseError{Reason: "motion result is missing required fields"}
	}
	if *wire.Confidence < 0 || *wire.Confidence > 1 {
		return nil, &ParseError{Reason: fmt.Sprintf("confidence %v outside [0,1]", *wire.Confidence)}
	}

	return &MotionResult{
		Subject:    *wire.ObjectName,
		Movement:   *wire.MovementDescription,
		Confidence: *wire.Confidence,
	}, nil
}

// DetectObjects sends one frame with the detection instruction and
// validates every bounding box.
func (g *Gemini) DetectObjects(ctx context.Context, frame []byte) ([]Detection, error) {
	text, err := g.generate(ctx, detectionPrompt, frame)
	if err != nil {
		return nil, err
	}

	var wire struct {
		Detections *[]struct {
			ObjectName  *string `json:"objectName"`
			BoundingBox *struct {
				XMin *float64 `json:"x_min"`
				YMin *float64 `json:"y_min"`
				XMax *float64 `json:"x_max"`
				YMax *float64 `json:"y_max"`
			} `json:"boundingBox"`
		} `json:"detections"`
	}
	if err := json.Unmarshal([]byte(stripFences(text)), &wire); err != nil {
		return nil, &ParseError{Reason: "detection result is not valid JSON", Cause: err}
	}
	if wire.Detections == nil {
		return nil, &ParseError{Reason: "detection result is missing detections array"}
	}

	// Empty is valid: nothing significant in frame.
	detections := make([]Detection, 0, len(*wire.Detections))
	for i, d := range *wire.Detections {
		if d.ObjectName == nil || d.BoundingBox == nil {
			return nil, &ParseError{Reason: fmt.Sprintf("detection %d is missing required fields", i)}
		}
		b := d.BoundingBox
		if b.XMin == nil || b.YMin == nil || b.XMax == nil || b.YMax == nil {
			return nil, &ParseError{Reason: fmt.Sprintf("detection %d has an incomplete bounding box", i)}
		}
		box := BoundingBox{XMin: *b.XMin, YMin: *b.YMin, XMax: *b.XMax, YMax: *b.YMax}
		if err := validateBox(box); err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("detection %d: %v", i, err)}
		}
		detections = append(detections, Detection{Label: *d.ObjectName, Box: box})
	}

	return detections, nil
}

func validateBox(b BoundingBox) error {
	for _, v := range []float64{b.XMin, b.YMin, b.XMax, b.YMax} {
		if v < 0 || v > 1 {
			return fmt.Errorf("coordinate %v outside [0,1]", v)
		}
	}
	if b.XMin >= b.XMax || b.YMin >= b.YMax {
		return fmt.Errorf("degenerate box [%v,%v,%v,%v]", b.XMin, b.YMin, b.XMax, b.YMax)
	}
	return nil
}

// generate posts the instruction plus inline JPEG frames and returns
// the first candidate's text.
func (g *Gemini) generate(ctx context.Context, instruction string, frames ...[]byte) (string, error) {
	parts := []map[string]any{
		{"text": instruction},
	}
	for _, frame := range frames {
		parts = append(parts, map[string]any{
			"inline_data": map[string]string{
				"mime_type": "image/jpeg",
				"data":      base64.StdEncoding.EncodeToString(frame),
			},
		})
	}

	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": parts},
		},
		"generationConfig": map[string]any{
			"temperature":      0.2,
			"maxOutputTokens":  1024,
			"responseMimeType": "application/json",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("analysis: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.cfg.BaseURL, g.cfg.Model, g.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("analysis: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.cfg.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("analysis: backend request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("analysis: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &ParseError{Reason: "invalid response envelope", Cause: err}
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

// stripFences removes a markdown code fence if the model wrapped its
// JSON in one despite the response mime type.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Ensure Gemini implements Client at compile time.
var _ Client = (*Gemini)(nil)
