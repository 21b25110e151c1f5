package camera

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("resolution: got %dx%d, want 1280x720", cfg.Width, cfg.Height)
	}
	if cfg.Quality != 80 {
		t.Errorf("quality: got %d, want 80", cfg.Quality)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("default config should validate, got %v", errs)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"negative device", func(c *Config) { c.DeviceID = -1 }, true},
		{"zero width", func(c *Config) { c.Width = 0 }, true},
		{"huge height", func(c *Config) { c.Height = 9999 }, true},
		{"zero quality", func(c *Config) { c.Quality = 0 }, true},
		{"quality over 100", func(c *Config) { c.Quality = 101 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			errs := cfg.Validate()
			if tt.wantErr && len(errs) == 0 {
				t.Error("expected validation errors, got none")
			}
			if !tt.wantErr && len(errs) > 0 {
				t.Errorf("expected no validation errors, got %v", errs)
			}
		})
	}
}

func TestMock_RecordsCalls(t *testing.T) {
	m := &Mock{}

	if _, err := m.CaptureJPEG(); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if _, err := m.CaptureJPEG(); err != nil {
		t.Fatalf("capture: %v", err)
	}
	m.Close()

	if m.Captures() != 2 {
		t.Errorf("captures: got %d, want 2", m.Captures())
	}
	if m.Closes() != 1 {
		t.Errorf("closes: got %d, want 1", m.Closes())
	}
}
