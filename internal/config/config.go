// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for engine tuning and scenario setup.
//
// IMPORTANT: When changing values, only modify this file. All other parts
// of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"time"
)

// =============================================================================
// ENGINE CONFIGURATION
// =============================================================================

// EngineConfig holds WorldLoop/manager tuning: tick rate, worker pool sizing
// and the spatial index granularity.
type EngineConfig struct {
	TPS            int           // ticks per second the manager targets
	TickBudget     time.Duration // Phase 2's hard worker deadline
	NumWorkers     int           // 0 means runtime.GOMAXPROCS(0)
	CellSize       int           // spatial index bucket size, in grid cells
	SpawnInterval  int           // ticks between camp spawn attempts
	SpawnMaxPerCamp int
}

// DefaultEngine returns the reference engine tuning.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		TPS:             20,
		TickBudget:      40 * time.Millisecond,
		NumWorkers:      0,
		CellSize:        16,
		SpawnInterval:   50,
		SpawnMaxPerCamp: 4,
	}
}

// EngineFromEnv returns engine configuration with environment variable
// overrides. Environment variables take precedence over defaults.
func EngineFromEnv() EngineConfig {
	cfg := DefaultEngine()

	if v := getEnvInt("WORLDSIM_TPS", 0); v > 0 {
		cfg.TPS = v
	}
	if v := getEnvInt("WORLDSIM_TICK_BUDGET_MS", 0); v > 0 {
		cfg.TickBudget = time.Duration(v) * time.Millisecond
	}
	if v := getEnvInt("WORLDSIM_NUM_WORKERS", 0); v > 0 {
		cfg.NumWorkers = v
	}
	if v := getEnvInt("WORLDSIM_CELL_SIZE", 0); v > 0 {
		cfg.CellSize = v
	}
	if v := getEnvInt("WORLDSIM_SPAWN_INTERVAL", 0); v > 0 {
		cfg.SpawnInterval = v
	}
	if v := getEnvInt("WORLDSIM_SPAWN_MAX_PER_CAMP", 0); v > 0 {
		cfg.SpawnMaxPerCamp = v
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds the debug/observability HTTP server's settings.
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	DisableDebugAPI bool
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:         8080,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

// ServerFromEnv returns server configuration with environment variable
// overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if os.Getenv("WORLDSIM_DISABLE_DEBUG_API") == "true" {
		cfg.DisableDebugAPI = true
	}

	return cfg
}

// =============================================================================
// REPLAY CONFIGURATION
// =============================================================================

// ReplayConfig controls whether and where tick records are logged for
// later deterministic replay (spec.md §6, §8).
type ReplayConfig struct {
	Enabled bool
	Path    string // directory newline-delimited JSON logs are written to
}

// DefaultReplay returns the default replay configuration: disabled.
func DefaultReplay() ReplayConfig {
	return ReplayConfig{Enabled: false, Path: "./replay"}
}

// ReplayFromEnv returns replay configuration with environment variable
// overrides.
func ReplayFromEnv() ReplayConfig {
	cfg := DefaultReplay()

	if os.Getenv("WORLDSIM_REPLAY_ENABLED") == "true" {
		cfg.Enabled = true
	}
	if p := os.Getenv("WORLDSIM_REPLAY_PATH"); p != "" {
		cfg.Path = p
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Engine EngineConfig
	Server ServerConfig
	Replay ReplayConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Engine: EngineFromEnv(),
		Server: ServerFromEnv(),
		Replay: ReplayFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
