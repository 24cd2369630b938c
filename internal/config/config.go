// Package config loads process-wide settings for the blindmark CLI from
// environment variables, with sensible defaults for local/offline use.
package config

import (
	"os"
	"runtime"
	"strconv"
)

// Config holds the settings that control one invocation of the toolkit.
type Config struct {
	WorkerCount         int    // goroutines in the parallel image batch (C12)
	LogLevel            string
	TempDir             string // base directory for scoped workspaces
	DefaultWatermarkKey string // JSON field name used in non-obfuscated mode
	ZipDeflateLevel     int    // compress/flate level for compressible ZIP entries
}

// Load reads Config from the environment, falling back to defaults tuned
// for a single-machine batch run.
func Load() *Config {
	return &Config{
		WorkerCount:         envIntOr("BLINDMARK_WORKER_COUNT", runtime.NumCPU()),
		LogLevel:            envOr("BLINDMARK_LOG_LEVEL", "info"),
		TempDir:             envOr("BLINDMARK_TEMP_DIR", os.TempDir()),
		DefaultWatermarkKey: envOr("BLINDMARK_WATERMARK_KEY", "_watermark"),
		ZipDeflateLevel:     envIntOr("BLINDMARK_ZIP_DEFLATE_LEVEL", 1),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
