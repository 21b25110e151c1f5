package camera

// Config holds capture parameters for a webcam source.
// Width and height are hints; the driver may pick the closest mode.
type Config struct {
	DeviceID int `json:"device_id"` // OpenCV device index
	Width    int `json:"width"`     // Requested frame width in pixels
	Height   int `json:"height"`    // Requested frame height in pixels
	Quality  int `json:"quality"`   // JPEG quality 1-100
}

// DefaultConfig returns the recommended capture configuration.
// 720p keeps backend payloads small while leaving enough detail
// for object localization.
func DefaultConfig() Config {
	return Config{
		DeviceID: 0,
		Width:    1280,
		Height:   720,
		Quality:  80,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.DeviceID < 0 {
		errors = append(errors, "device_id must be >= 0")
	}
	if c.Width < 160 || c.Width > 4096 {
		errors = append(errors, "width must be between 160 and 4096")
	}
	if c.Height < 120 || c.Height > 2160 {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}
