// Package settings provides JSON-based application settings.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"patchlab/internal/config"
)

const (
	settingsFile = "settings.json"

	keyImageFolder = "image_folder_name"
	keyMaskFolder  = "mask_folder_name"
	keyLastConfig  = "last_config"
)

// Settings stores application settings as a key-value map.
type Settings struct {
	mu     sync.RWMutex
	values map[string]interface{}
	path   string
}

// Load reads settings from ~/.config/patchlab/settings.json.
// Returns a Settings with defaults if the file doesn't exist or cannot
// be parsed.
func Load() *Settings {
	s := &Settings{
		values: make(map[string]interface{}),
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	dir := filepath.Join(configDir, "patchlab")
	s.path = filepath.Join(dir, settingsFile)

	data, err := os.ReadFile(s.path)
	if err != nil {
		return s
	}
	_ = json.Unmarshal(data, &s.values)
	return s
}

// Path returns the file the settings persist to.
func (s *Settings) Path() string {
	return s.path
}

// Save writes settings to disk.
func (s *Settings) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.values, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// String returns a string setting, or fallback if not set.
func (s *Settings) String(key, fallback string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return fallback
}

// SetString stores a string setting.
func (s *Settings) SetString(key, val string) {
	s.mu.Lock()
	s.values[key] = val
	s.mu.Unlock()
}

// Int returns an integer setting, or fallback if not set. JSON numbers
// decode as float64, so both forms are accepted.
func (s *Settings) Int(key string, fallback int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return fallback
}

// SetInt stores an integer setting.
func (s *Settings) SetInt(key string, val int) {
	s.mu.Lock()
	s.values[key] = val
	s.mu.Unlock()
}

// Bool returns a bool setting, or fallback if not set.
func (s *Settings) Bool(key string, fallback bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

// SetBool stores a bool setting.
func (s *Settings) SetBool(key string, val bool) {
	s.mu.Lock()
	s.values[key] = val
	s.mu.Unlock()
}

// ImageFolderName returns the configured image subdirectory name.
func (s *Settings) ImageFolderName() string {
	return s.String(keyImageFolder, config.DefaultImageFolder)
}

// MaskFolderName returns the configured mask subdirectory name.
func (s *Settings) MaskFolderName() string {
	return s.String(keyMaskFolder, config.DefaultMaskFolder)
}

// SetFolderNames stores the image and mask subdirectory names.
func (s *Settings) SetFolderNames(image, mask string) {
	s.SetString(keyImageFolder, image)
	s.SetString(keyMaskFolder, mask)
}

// LastConfig returns the most recently stored run configuration. The
// second result is false when none has been stored or it cannot be
// decoded; the first is then the default configuration.
func (s *Settings) LastConfig() (config.Config, bool) {
	s.mu.RLock()
	v, ok := s.values[keyLastConfig]
	s.mu.RUnlock()
	if !ok {
		return config.Default(), false
	}

	data, err := json.Marshal(v)
	if err != nil {
		return config.Default(), false
	}
	cfg := config.Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return config.Default(), false
	}
	return cfg, true
}

// SetLastConfig stores cfg as the most recent run configuration.
func (s *Settings) SetLastConfig(cfg config.Config) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	var v map[string]interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return
	}
	s.mu.Lock()
	s.values[keyLastConfig] = v
	s.mu.Unlock()
}
