package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MrWong99/lookout/pkg/provider/camera"
	"github.com/MrWong99/lookout/pkg/provider/detector"
	"github.com/MrWong99/lookout/pkg/provider/listener"
	"github.com/MrWong99/lookout/pkg/provider/narrator"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	listener map[string]func(ProviderEntry) (listener.Provider, error)
	narrator map[string]func(ProviderEntry) (narrator.Provider, error)
	camera   map[string]func(ProviderEntry) (camera.Provider, error)
	detector map[string]func(ProviderEntry) (detector.Loader, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		listener: make(map[string]func(ProviderEntry) (listener.Provider, error)),
		narrator: make(map[string]func(ProviderEntry) (narrator.Provider, error)),
		camera:   make(map[string]func(ProviderEntry) (camera.Provider, error)),
		detector: make(map[string]func(ProviderEntry) (detector.Loader, error)),
	}
}

// RegisterListener registers a speech-recognition provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterListener(name string, factory func(ProviderEntry) (listener.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listener[name] = factory
}

// RegisterNarrator registers a speech-output provider factory under name.
func (r *Registry) RegisterNarrator(name string, factory func(ProviderEntry) (narrator.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.narrator[name] = factory
}

// RegisterCamera registers a camera provider factory under name.
func (r *Registry) RegisterCamera(name string, factory func(ProviderEntry) (camera.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.camera[name] = factory
}

// RegisterDetector registers a detection-engine loader factory under name.
func (r *Registry) RegisterDetector(name string, factory func(ProviderEntry) (detector.Loader, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detector[name] = factory
}

// CreateListener instantiates a listener using the factory registered under entry.Name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for that name.
func (r *Registry) CreateListener(entry ProviderEntry) (listener.Provider, error) {
	r.mu.RLock()
	factory, ok := r.listener[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: listener/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateNarrator instantiates a narrator using the factory registered under entry.Name.
func (r *Registry) CreateNarrator(entry ProviderEntry) (narrator.Provider, error) {
	r.mu.RLock()
	factory, ok := r.narrator[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: narrator/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateCamera instantiates a camera using the factory registered under entry.Name.
func (r *Registry) CreateCamera(entry ProviderEntry) (camera.Provider, error) {
	r.mu.RLock()
	factory, ok := r.camera[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: camera/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateDetector instantiates a detection loader using the factory registered under entry.Name.
func (r *Registry) CreateDetector(entry ProviderEntry) (detector.Loader, error) {
	r.mu.RLock()
	factory, ok := r.detector[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: detector/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
