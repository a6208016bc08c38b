package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MrWong99/lookout/internal/observe"
	"github.com/MrWong99/lookout/internal/resilience"
	"github.com/MrWong99/lookout/pkg/provider/detector"
)

// EngineCache lazily loads the detection engine once and hands the same
// instance to every later session. A failed load is not cached: the next
// session tries again, unless repeated failures have opened the breaker.
//
// EngineCache is safe for concurrent use.
type EngineCache struct {
	loader  detector.Loader
	breaker *resilience.CircuitBreaker
	metrics *observe.Metrics

	// loads collapses concurrent loads into one; mu only guards engine and
	// is never held across a load.
	loads singleflight.Group

	mu     sync.Mutex
	engine detector.Engine
}

// NewEngineCache returns a cache around loader. breaker may be nil, in which
// case every failed load is retried on the next call.
func NewEngineCache(loader detector.Loader, breaker *resilience.CircuitBreaker, metrics *observe.Metrics) *EngineCache {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &EngineCache{loader: loader, breaker: breaker, metrics: metrics}
}

// Loaded reports whether an engine is cached.
func (c *EngineCache) Loaded() bool {
	return c.cached() != nil
}

// Get returns the cached engine, loading it first if necessary. Concurrent
// callers share a single load, run with the first caller's context.
func (c *EngineCache) Get(ctx context.Context) (detector.Engine, error) {
	if eng := c.cached(); eng != nil {
		return eng, nil
	}
	v, err, _ := c.loads.Do("engine", func() (any, error) {
		if eng := c.cached(); eng != nil {
			return eng, nil
		}
		return c.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(detector.Engine), nil
}

func (c *EngineCache) cached() detector.Engine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine
}

func (c *EngineCache) load(ctx context.Context) (detector.Engine, error) {
	start := time.Now()
	var eng detector.Engine
	load := func(ctx context.Context) error {
		var err error
		eng, err = c.loader.Load(ctx)
		if err == nil && eng == nil {
			err = errors.New("loader returned no engine")
		}
		return err
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Do(ctx, load)
	} else {
		err = load(ctx)
	}
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, fmt.Errorf("session: load engine: %w", err)
		}
		if _, ok := detector.KindOf(err); !ok {
			err = detector.NewError(detector.KindNotLoaded, err)
		}
		return nil, fmt.Errorf("session: load engine: %w", err)
	}

	c.metrics.ModelLoadDuration.Record(ctx, time.Since(start).Seconds())
	slog.Info("session: detection engine loaded", "duration", time.Since(start))
	c.mu.Lock()
	c.engine = eng
	c.mu.Unlock()
	return eng, nil
}

// Ready reports whether analysis can be attempted: nil when an engine is
// cached or a load would be allowed, [resilience.ErrCircuitOpen] otherwise.
func (c *EngineCache) Ready(context.Context) error {
	if c.Loaded() {
		return nil
	}
	if c.breaker != nil && c.breaker.State() == resilience.StateOpen {
		return resilience.ErrCircuitOpen
	}
	return nil
}
