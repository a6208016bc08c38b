package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/lookout/internal/sampler"
	"github.com/MrWong99/lookout/internal/session"
	"github.com/MrWong99/lookout/pkg/types"
)

// DefaultListenAddr is the ops server address used when none is configured.
const DefaultListenAddr = "127.0.0.1:9090"

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"listener": {"console"},
	"narrator": {"console"},
	"camera":   {"still"},
	"detector": {"fixture"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, fills in defaults and
// validates the result. Useful in tests where configs are constructed from
// string literals.
//
// session.min_confidence, session.dwell and session.debounce keep an explicit
// 0; only keys that are absent take the flow preset.
func LoadFromReader(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	var keys struct {
		Session map[string]yaml.Node `yaml:"session"`
	}
	if err := yaml.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg, keys.Session)
	return cfg, nil
}

// ApplyDefaults fills every zero-valued field with its default. Session
// timing defaults come from the selected flow preset.
func ApplyDefaults(cfg *Config) {
	applyDefaults(cfg, nil)
}

// applyDefaults is [ApplyDefaults], except that session keys present in set
// keep their zero value where zero is meaningful.
func applyDefaults(cfg *Config, set map[string]yaml.Node) {
	unset := func(key string) bool {
		n, ok := set[key]
		return !ok || n.ShortTag() == "!!null"
	}

	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}

	s := &cfg.Session
	if s.Flow == "" {
		s.Flow = FlowWarmup
	}
	preset := session.WarmupConfig()
	if s.Flow == FlowSingleShot {
		preset = session.SingleShotConfig()
	}
	if s.Attempts == 0 {
		s.Attempts = preset.Sampling.Attempts
	}
	if s.Interval == 0 {
		s.Interval = preset.Sampling.Interval
	}
	if s.MinConfidence == 0 && unset("min_confidence") {
		s.MinConfidence = preset.Sampling.MinConfidence
	}
	if s.Dwell == 0 && unset("dwell") {
		s.Dwell = preset.Dwell
	}
	if s.Debounce == 0 && unset("debounce") {
		s.Debounce = preset.Debounce
	}
	if s.MaxItems == 0 {
		s.MaxItems = preset.MaxItems
	}
	if s.Camera.Facing == "" {
		s.Camera.Facing = preset.Facing
	}
	if s.Camera.Width == 0 && s.Camera.Height == 0 {
		s.Camera.Width = preset.Resolution.Width
		s.Camera.Height = preset.Resolution.Height
	}
	if s.LoadBreaker.MaxFailures == 0 {
		s.LoadBreaker.MaxFailures = 3
	}
	if s.LoadBreaker.Cooldown == 0 {
		s.LoadBreaker.Cooldown = 30 * time.Second
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Providers: all four collaborators are required.
	entries := []struct {
		kind  string
		entry ProviderEntry
	}{
		{"listener", cfg.Providers.Listener},
		{"narrator", cfg.Providers.Narrator},
		{"camera", cfg.Providers.Camera},
		{"detector", cfg.Providers.Detector},
	}
	for _, e := range entries {
		if e.entry.Name == "" {
			errs = append(errs, fmt.Errorf("providers.%s.name is required", e.kind))
			continue
		}
		validateProviderName(e.kind, e.entry.Name)
	}

	// Session
	s := cfg.Session
	if s.Flow != "" && !s.Flow.IsValid() {
		errs = append(errs, fmt.Errorf("session.flow %q is invalid; valid values: warmup, single-shot", s.Flow))
	}
	if s.Attempts < 0 {
		errs = append(errs, fmt.Errorf("session.attempts %d must not be negative", s.Attempts))
	}
	if s.MinConfidence < 0 || s.MinConfidence >= 1 {
		errs = append(errs, fmt.Errorf("session.min_confidence %.2f is out of range [0, 1)", s.MinConfidence))
	}
	if s.PhoneticThreshold < 0 || s.PhoneticThreshold > 1 {
		errs = append(errs, fmt.Errorf("session.phonetic_threshold %.2f is out of range [0, 1]", s.PhoneticThreshold))
	}
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"interval", s.Interval},
		{"dwell", s.Dwell},
		{"debounce", s.Debounce},
		{"stage_timeout", s.StageTimeout},
		{"load_breaker.cooldown", s.LoadBreaker.Cooldown},
	}
	for _, d := range durations {
		if d.d < 0 {
			errs = append(errs, fmt.Errorf("session.%s %s must not be negative", d.name, d.d))
		}
	}
	if s.MaxItems < 0 {
		errs = append(errs, fmt.Errorf("session.max_items %d must not be negative", s.MaxItems))
	}
	if s.LoadBreaker.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("session.load_breaker.max_failures %d must not be negative", s.LoadBreaker.MaxFailures))
	}
	if s.Camera.Facing != "" && !s.Camera.Facing.IsValid() {
		errs = append(errs, fmt.Errorf("session.camera.facing %q is invalid; valid values: environment, user", s.Camera.Facing))
	}
	if s.Camera.Width < 0 || s.Camera.Height < 0 {
		errs = append(errs, fmt.Errorf("session.camera resolution %dx%d must not be negative", s.Camera.Width, s.Camera.Height))
	}

	if s.Flow == FlowSingleShot && s.Attempts > 1 {
		slog.Warn("config: session.attempts overrides the single-shot preset", "attempts", s.Attempts)
	}

	return errors.Join(errs...)
}

// SessionConfig converts the session section into the orchestrator's
// runtime configuration. cfg must have had [ApplyDefaults] applied.
func (cfg *Config) SessionConfig() session.Config {
	s := cfg.Session
	return session.Config{
		Debounce: s.Debounce,
		Dwell:    s.Dwell,
		Sampling: sampler.Policy{
			Attempts:      s.Attempts,
			Interval:      s.Interval,
			MinConfidence: s.MinConfidence,
		},
		MaxItems:     s.MaxItems,
		StageTimeout: s.StageTimeout,
		Facing:       s.Camera.Facing,
		Resolution:   types.Resolution{Width: s.Camera.Width, Height: s.Camera.Height},
	}
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("config: unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
