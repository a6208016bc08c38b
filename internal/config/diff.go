package config

import "fmt"

// ConfigDiff describes what changed between two configs.
// Only the log level can be applied without a restart; the other flags tell
// the caller that a restart is needed for the change to take effect.
type ConfigDiff struct {
	LogLevelChanged   bool
	NewLogLevel       LogLevel
	ProvidersChanged  bool
	SessionChanged    bool
	ListenAddrChanged bool
}

// RequiresRestart reports whether the diff contains changes that cannot be
// applied to a running process.
func (d ConfigDiff) RequiresRestart() bool {
	return d.ProvidersChanged || d.SessionChanged || d.ListenAddrChanged
}

// Empty reports whether nothing changed.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.RequiresRestart()
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.ListenAddrChanged = true
	}
	if !sameEntry(old.Providers.Listener, new.Providers.Listener) ||
		!sameEntry(old.Providers.Narrator, new.Providers.Narrator) ||
		!sameEntry(old.Providers.Camera, new.Providers.Camera) ||
		!sameEntry(old.Providers.Detector, new.Providers.Detector) {
		d.ProvidersChanged = true
	}
	if old.Session != new.Session {
		d.SessionChanged = true
	}
	return d
}

// sameEntry compares provider entries by name and option values. Nested
// option values are compared by their formatted representation.
func sameEntry(a, b ProviderEntry) bool {
	if a.Name != b.Name || len(a.Options) != len(b.Options) {
		return false
	}
	for k, av := range a.Options {
		bv, ok := b.Options[k]
		if !ok || fmt.Sprint(av) != fmt.Sprint(bv) {
			return false
		}
	}
	return true
}
