// Package sampler implements warm-up sampling: running a short burst of
// inference passes against a freshly opened capture and keeping the richest
// result.
//
// A single pass on a stream that has just started is often empty or noisy
// while exposure and focus settle. Sampling a few frames a short interval
// apart recovers most of the recall a tracker would give, at a fraction of the
// complexity.
//
// Selection rule: after each pass the detections are filtered to those with
// confidence strictly above the policy threshold, and the filtered set replaces
// the current best only when it is strictly larger. Ties keep the earlier set.
//
// The sampler does not retry failures. An inference call that errors ends the
// burst and the error is returned as a [detector.InferenceError].
package sampler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrWong99/lookout/pkg/provider/detector"
	"github.com/MrWong99/lookout/pkg/types"
)

// Policy is the sampling configuration.
type Policy struct {
	// Attempts is the number of inference passes. Values < 1 are treated as 1.
	Attempts int

	// Interval is the pause between consecutive passes. No pause follows the
	// final pass.
	Interval time.Duration

	// MinConfidence is the exclusive lower bound a detection must exceed to
	// be kept.
	MinConfidence float64
}

// WarmupPolicy samples three frames 200ms apart and keeps detections above
// 0.5.
var WarmupPolicy = Policy{Attempts: 3, Interval: 200 * time.Millisecond, MinConfidence: 0.5}

// SingleShotPolicy runs one pass and keeps detections above 0.7.
var SingleShotPolicy = Policy{Attempts: 1, MinConfidence: 0.7}

// FrameSource yields the current frame of an open capture. camera.Capture
// satisfies it.
type FrameSource interface {
	Frame(ctx context.Context) (types.Frame, error)
}

// Attempt describes one completed inference pass.
type Attempt struct {
	// Index is the zero-based pass number.
	Index int

	// Raw is the number of detections the engine returned.
	Raw int

	// Kept is the number that passed the confidence filter.
	Kept int

	// Duration is the wall time of the Detect call.
	Duration time.Duration
}

// Sampler runs bursts according to a [Policy].
type Sampler struct {
	policy    Policy
	sleep     func(ctx context.Context, d time.Duration) error
	onAttempt func(ctx context.Context, a Attempt)
}

// Option configures a [Sampler].
type Option func(*Sampler)

// WithSleep replaces the pause implementation. Tests use it to avoid real
// timers.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Sampler) { s.sleep = fn }
}

// WithAttemptHook registers fn to be called after every successful pass.
func WithAttemptHook(fn func(ctx context.Context, a Attempt)) Option {
	return func(s *Sampler) { s.onAttempt = fn }
}

// New returns a Sampler for p.
func New(p Policy, opts ...Option) *Sampler {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.Interval < 0 {
		p.Interval = 0
	}
	s := &Sampler{policy: p, sleep: Sleep}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Policy returns the effective policy.
func (s *Sampler) Policy() Policy { return s.policy }

// Sample runs the burst and returns the best filtered set, which may be empty.
func (s *Sampler) Sample(ctx context.Context, eng detector.Engine, src FrameSource) (types.DetectionSet, error) {
	best := types.DetectionSet{}
	last := s.policy.Attempts - 1

	for i := 0; i <= last; i++ {
		frame, err := src.Frame(ctx)
		if err != nil {
			return nil, inferenceError(ctx, detector.KindFrameUnreadable, fmt.Errorf("sampler: frame %d: %w", i, err))
		}

		start := time.Now()
		raw, err := eng.Detect(ctx, frame)
		if err != nil {
			return nil, inferenceError(ctx, detector.KindFailed, fmt.Errorf("sampler: detect %d: %w", i, err))
		}
		kept := raw.Above(s.policy.MinConfidence)

		if s.onAttempt != nil {
			s.onAttempt(ctx, Attempt{Index: i, Raw: len(raw), Kept: len(kept), Duration: time.Since(start)})
		}
		if len(kept) > len(best) {
			best = kept
		}

		if i < last && s.policy.Interval > 0 {
			if err := s.sleep(ctx, s.policy.Interval); err != nil {
				return nil, fmt.Errorf("sampler: %w", err)
			}
		}
	}
	return best, nil
}

// inferenceError wraps err as an InferenceError of kind unless it already
// carries one or is a context error.
func inferenceError(ctx context.Context, kind detector.Kind, err error) error {
	if _, ok := detector.KindOf(err); ok {
		return err
	}
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	return detector.NewError(kind, err)
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
