package config

import (
	"os"
	"strconv"
)

// Environment variable names recognized by FromEnv.
const (
	EnvDataRoot   = "PATCHLAB_DATA_ROOT"
	EnvPatchRoot  = "PATCHLAB_PATCH_ROOT"
	EnvPatchSize  = "PATCHLAB_PATCH_SIZE"
	EnvStride     = "PATCHLAB_STRIDE"
	EnvSaveFormat = "PATCHLAB_SAVE_FORMAT"
	EnvSeed       = "PATCHLAB_SEED"
)

// FromEnv returns base with any recognized environment overrides applied.
// Unset variables keep the base value, and numeric variables that fail to
// parse are ignored rather than treated as errors.
func FromEnv(base Config) Config {
	if v := os.Getenv(EnvDataRoot); v != "" {
		base.DataRoot = v
	}
	if v := os.Getenv(EnvPatchRoot); v != "" {
		base.PatchRoot = v
	}
	if v := os.Getenv(EnvPatchSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			base.PatchSize = n
		}
	}
	if v := os.Getenv(EnvStride); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			base.Stride = n
		}
	}
	if v := os.Getenv(EnvSaveFormat); v != "" {
		base.SaveFormat = v
	}
	if v := os.Getenv(EnvSeed); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			base.Seed = n
		}
	}
	return base
}
