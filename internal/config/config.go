// Package config provides the configuration schema, loader, and provider registry
// for the Lookout scene-description assistant.
package config

import (
	"time"

	"github.com/MrWong99/lookout/pkg/types"
)

// LogLevel controls log verbosity for the Lookout process.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Flow selects the sampling preset for a scene query.
type Flow string

const (
	// FlowWarmup samples three frames 200ms apart, keeps detections above
	// 0.5 and dwells 8s on the result.
	FlowWarmup Flow = "warmup"

	// FlowSingleShot samples one frame, keeps detections above 0.7 and
	// dwells 5s on the result.
	FlowSingleShot Flow = "single-shot"
)

// IsValid reports whether f is a recognised flow.
func (f Flow) IsValid() bool {
	return f == FlowWarmup || f == FlowSingleShot
}

// Config is the root configuration structure for Lookout.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Session   SessionConfig   `yaml:"session"`
}

// ServerConfig holds the ops endpoint and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address of the ops HTTP server (health, metrics,
	// trigger). Default: "127.0.0.1:9090".
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`
}

// ProvidersConfig declares which provider implementation to use for each
// collaborator. Each field selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	Listener ProviderEntry `yaml:"listener"`
	Narrator ProviderEntry `yaml:"narrator"`
	Camera   ProviderEntry `yaml:"camera"`
	Detector ProviderEntry `yaml:"detector"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "console", "still").
	Name string `yaml:"name"`

	// Options holds provider-specific configuration values. Values may be
	// strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// OptionString returns Options[key] as a string, or def when absent.
func (e ProviderEntry) OptionString(key, def string) string {
	if v, ok := e.Options[key].(string); ok && v != "" {
		return v
	}
	return def
}

// SessionConfig tunes the orchestrator. Zero values are filled in by
// [ApplyDefaults] from the selected Flow, except that [LoadFromReader] keeps
// an explicit 0 for min_confidence, dwell and debounce.
type SessionConfig struct {
	// Flow selects the preset. Default: warmup.
	Flow Flow `yaml:"flow"`

	// Attempts is the number of frames sampled per scene query.
	Attempts int `yaml:"attempts"`

	// Interval is the pause between samples.
	Interval time.Duration `yaml:"interval"`

	// MinConfidence is the exclusive lower bound a detection must beat.
	MinConfidence float64 `yaml:"min_confidence"`

	// Dwell is how long the narration is held before returning to idle.
	Dwell time.Duration `yaml:"dwell"`

	// Debounce is the minimum gap between accepted triggers.
	Debounce time.Duration `yaml:"debounce"`

	// MaxItems caps how many detections are narrated.
	MaxItems int `yaml:"max_items"`

	// StageTimeout bounds camera acquisition and analysis. 0 disables it.
	StageTimeout time.Duration `yaml:"stage_timeout"`

	// PhoneticThreshold enables sound-alike command matching with the given
	// minimum Jaro-Winkler similarity. 0 disables it.
	PhoneticThreshold float64 `yaml:"phonetic_threshold"`

	// Camera holds capture preferences.
	Camera CameraConfig `yaml:"camera"`

	// LoadBreaker guards the detection-engine load.
	LoadBreaker BreakerConfig `yaml:"load_breaker"`
}

// CameraConfig holds the capture constraints requested from the camera.
type CameraConfig struct {
	// Facing is the preferred direction. Default: environment.
	Facing types.Facing `yaml:"facing"`

	// Width and Height are the ideal resolution. Default: 1280x720.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// BreakerConfig tunes the circuit breaker around the detection-engine load.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failed loads that open the
	// breaker. Default: 3.
	MaxFailures int `yaml:"max_failures"`

	// Cooldown is how long the breaker stays open. Default: 30s.
	Cooldown time.Duration `yaml:"cooldown"`
}
