// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings for the spotter service.
type Config struct {
	// GeminiAPIKey authenticates requests to the vision backend.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	// GeminiModel selects the generateContent model.
	GeminiModel string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`

	// Port is the HTTP port for the dashboard and API.
	Port string `env:"PORT" envDefault:"8080"`

	// CameraDevice is the local video device index passed to OpenCV.
	CameraDevice int `env:"CAMERA_DEVICE" envDefault:"0"`

	// LogLevel controls slog verbosity: debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	if cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("config: GEMINI_API_KEY is required (get one at https://aistudio.google.com/apikey)")
	}
	return cfg, nil
}
