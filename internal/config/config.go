// Package config defines the immutable extraction-job configuration, its
// validation rules, and its JSON file round-trip.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SaveFormats is the closed set of output encodings the materializer writes.
var SaveFormats = []string{"png", "jpg", "tif"}

// Conventional subdirectory names under DataRoot and PatchRoot.
const (
	DefaultImageFolder = "Image"
	DefaultMaskFolder  = "Mask"
)

// Config holds every parameter of one extraction job. It is passed by value
// into the engine, so a running job never observes later mutations.
type Config struct {
	DataRoot           string   `json:"data_root"`
	PatchRoot          string   `json:"patch_root"`
	PatchSize          int      `json:"patch_size"`
	Stride             int      `json:"stride"`
	MinMaskRatio       float64  `json:"min_mask_ratio"`
	MaxPatchesPerImage int      `json:"max_patches_per_image"`
	SaveFormat         string   `json:"save_format"`
	Seed               int64    `json:"seed"`
	IncludeBorders     bool     `json:"include_borders"`
	ApplyMinMaskRatio  bool     `json:"apply_min_mask_ratio"`
	DryRun             bool     `json:"dry_run"`
	Extensions         []string `json:"extensions"`
	ImageFolderName    string   `json:"image_folder_name"`
	MaskFolderName     string   `json:"mask_folder_name"`
}

// Default returns the standard configuration. Roots are left empty and must
// be filled in by the caller before Validate passes.
func Default() Config {
	return Config{
		PatchSize:          256,
		Stride:             256,
		MinMaskRatio:       0.0,
		MaxPatchesPerImage: 0,
		SaveFormat:         "png",
		Seed:               123,
		IncludeBorders:     true,
		ApplyMinMaskRatio:  true,
		DryRun:             false,
		Extensions:         []string{"*.jpg", "*.jpeg", "*.png", "*.bmp", "*.gif"},
		ImageFolderName:    DefaultImageFolder,
		MaskFolderName:     DefaultMaskFolder,
	}
}

// ValidationError describes why a configuration was rejected. The Reason is
// suitable for showing to the user verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validate checks the configuration against its invariants. A nil result
// means the job can start. The returned error is always a *ValidationError.
func (c Config) Validate() error {
	if c.DataRoot == "" {
		return &ValidationError{Field: "data_root", Reason: "Invalid data_root"}
	}
	info, err := os.Stat(c.DataRoot)
	if err != nil || !info.IsDir() {
		return &ValidationError{Field: "data_root", Reason: "Invalid data_root"}
	}
	if c.PatchRoot == "" {
		return &ValidationError{Field: "patch_root", Reason: "patch_root is required"}
	}
	if c.PatchSize <= 0 || c.Stride <= 0 {
		return &ValidationError{Field: "patch_size", Reason: "patch_size and stride must be > 0"}
	}
	if !ValidSaveFormat(c.SaveFormat) {
		return &ValidationError{Field: "save_format", Reason: "Unsupported save format"}
	}
	if len(c.Extensions) == 0 {
		return &ValidationError{Field: "extensions", Reason: "extensions must not be empty"}
	}
	for _, pat := range c.Extensions {
		if strings.TrimSpace(pat) == "" {
			return &ValidationError{Field: "extensions", Reason: "extensions must not be empty"}
		}
	}
	return nil
}

// ValidSaveFormat reports whether format is one of SaveFormats.
func ValidSaveFormat(format string) bool {
	for _, f := range SaveFormats {
		if format == f {
			return true
		}
	}
	return false
}

// ImagesDir returns the source images directory.
func (c Config) ImagesDir() string {
	return filepath.Join(c.DataRoot, orDefault(c.ImageFolderName, DefaultImageFolder))
}

// MasksDir returns the source masks directory.
func (c Config) MasksDir() string {
	return filepath.Join(c.DataRoot, orDefault(c.MaskFolderName, DefaultMaskFolder))
}

// OutImagesDir returns the destination directory for image patches.
func (c Config) OutImagesDir() string {
	return filepath.Join(c.PatchRoot, orDefault(c.ImageFolderName, DefaultImageFolder))
}

// OutMasksDir returns the destination directory for mask patches.
func (c Config) OutMasksDir() string {
	return filepath.Join(c.PatchRoot, orDefault(c.MaskFolderName, DefaultMaskFolder))
}

// orDefault substitutes def for an empty folder name, so configurations
// persisted before the folder fields existed keep the conventional layout.
func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// SaveFile writes the configuration as indented JSON.
func (c Config) SaveFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadFile reads a configuration from a JSON file. Fields absent from the
// file keep their Default values.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("read config: %w", err)
	}
	c := Default()
	if err := json.Unmarshal(data, &c); err != nil {
		return Default(), fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}
