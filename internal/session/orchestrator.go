// Package session implements the command-to-narration state machine.
//
// One [Orchestrator] exists per process. A trigger moves it from Idle to
// Listening; the recognised transcript is interpreted, and a scene query walks
// through Capturing, Analyzing and Reporting before the orchestrator returns to
// Idle. Help and unrecognised transcripts are answered directly from
// Listening. Every collaborator failure is mapped to a fixed sentence, spoken,
// shown as status text and followed by an immediate return to Idle.
//
// Stages of one session run strictly in order on a single goroutine. Triggers
// that arrive while a session is in flight, or within the debounce window of
// the previous accepted trigger, are ignored.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/lookout/internal/command"
	"github.com/MrWong99/lookout/internal/narrate"
	"github.com/MrWong99/lookout/internal/observe"
	"github.com/MrWong99/lookout/internal/sampler"
	"github.com/MrWong99/lookout/pkg/provider/camera"
	"github.com/MrWong99/lookout/pkg/provider/detector"
	"github.com/MrWong99/lookout/pkg/provider/listener"
	"github.com/MrWong99/lookout/pkg/provider/narrator"
	"github.com/MrWong99/lookout/pkg/types"
)

// Trigger results reported to metrics.
const (
	triggerAccepted  = "accepted"
	triggerBusy      = "busy"
	triggerDebounced = "debounced"
	triggerClosed    = "closed"
)

// Config holds the timing and sampling parameters of a session.
type Config struct {
	// Debounce is the minimum time between accepted triggers.
	Debounce time.Duration

	// Dwell is how long the narration stays up before the capture is
	// released and the orchestrator returns to Idle.
	Dwell time.Duration

	// Sampling is the warm-up sampling policy.
	Sampling sampler.Policy

	// MaxItems caps how many detections are narrated.
	MaxItems int

	// StageTimeout bounds camera acquisition and analysis individually.
	// Zero means no bound.
	StageTimeout time.Duration

	// Facing is the preferred camera direction.
	Facing types.Facing

	// Resolution is the ideal capture resolution.
	Resolution types.Resolution
}

// WarmupConfig is the multi-frame flow: three samples above 0.5 and an 8s
// dwell.
func WarmupConfig() Config {
	return Config{
		Debounce:   800 * time.Millisecond,
		Dwell:      8 * time.Second,
		Sampling:   sampler.WarmupPolicy,
		MaxItems:   narrate.DefaultMaxItems,
		Facing:     types.FacingEnvironment,
		Resolution: types.Resolution{Width: 1280, Height: 720},
	}
}

// SingleShotConfig is the one-frame flow: one sample above 0.7 and a 5s
// dwell.
func SingleShotConfig() Config {
	cfg := WarmupConfig()
	cfg.Dwell = 5 * time.Second
	cfg.Sampling = sampler.SingleShotPolicy
	return cfg
}

// Deps are the collaborators an [Orchestrator] drives. All four are required.
type Deps struct {
	Listener listener.Provider
	Narrator narrator.Provider
	Camera   camera.Provider
	Detector detector.Loader
}

// Orchestrator is the session state machine. All exported methods are safe
// for concurrent use.
type Orchestrator struct {
	cfg         Config
	deps        Deps
	interpreter *command.Interpreter
	formatter   narrate.Formatter
	engines     *EngineCache
	metrics     *observe.Metrics
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
	onStatus    func(Status)

	life     context.Context
	shutdown context.CancelFunc

	mu          sync.Mutex
	status      Status
	lastTrigger time.Time
	triggered   bool
	capture     camera.Capture
	done        chan struct{}
	stageStart  time.Time
	closed      bool
}

// Option configures an [Orchestrator] during construction.
type Option func(*Orchestrator)

// WithClock replaces time.Now for debounce bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithSleep replaces the dwell and sampling pause implementation.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

// WithStatusFunc registers fn to receive every status change. fn is called
// synchronously from the session goroutine and must not block.
func WithStatusFunc(fn func(Status)) Option {
	return func(o *Orchestrator) { o.onStatus = fn }
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithInterpreter replaces the built-in command interpreter.
func WithInterpreter(in *command.Interpreter) Option {
	return func(o *Orchestrator) { o.interpreter = in }
}

// WithEngineCache shares an existing engine cache, e.g. one also used by a
// readiness probe. Deps.Detector is ignored when this option is set.
func WithEngineCache(c *EngineCache) Option {
	return func(o *Orchestrator) { o.engines = c }
}

// New creates an Orchestrator in the Idle state.
func New(deps Deps, cfg Config, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		cfg:         cfg,
		deps:        deps,
		interpreter: command.New(),
		formatter:   narrate.Formatter{MaxItems: cfg.MaxItems},
		now:         time.Now,
		sleep:       sampler.Sleep,
		status:      Status{State: Idle, Text: IdlePrompt},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}

	var missing []string
	if deps.Listener == nil {
		missing = append(missing, "listener")
	}
	if deps.Narrator == nil {
		missing = append(missing, "narrator")
	}
	if deps.Camera == nil {
		missing = append(missing, "camera")
	}
	if deps.Detector == nil && o.engines == nil {
		missing = append(missing, "detector")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("session: missing collaborators: %v", missing)
	}
	if o.engines == nil {
		o.engines = NewEngineCache(deps.Detector, nil, o.metrics)
	}

	o.life, o.shutdown = context.WithCancel(context.Background())
	return o, nil
}

// Engines returns the engine cache used by the orchestrator.
func (o *Orchestrator) Engines() *EngineCache { return o.engines }

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status.State
}

// Status returns the current status snapshot.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Trigger starts a session if the orchestrator is Idle and the debounce
// window since the last accepted trigger has elapsed. It returns immediately;
// the session runs in the background. A rejected trigger is a no-op and
// returns false.
//
// ctx contributes values (trace context) to the session but not
// cancellation: the session outlives a short-lived request context and is only
// cut short by [Orchestrator.Close].
func (o *Orchestrator) Trigger(ctx context.Context) bool {
	o.mu.Lock()
	now := o.now()
	switch {
	case o.closed:
		o.mu.Unlock()
		o.metrics.RecordTrigger(ctx, triggerClosed)
		return false
	case o.status.State != Idle:
		o.mu.Unlock()
		o.metrics.RecordTrigger(ctx, triggerBusy)
		slog.Debug("session: trigger ignored, busy", "state", o.State())
		return false
	case o.triggered && now.Sub(o.lastTrigger) < o.cfg.Debounce:
		o.mu.Unlock()
		o.metrics.RecordTrigger(ctx, triggerDebounced)
		slog.Debug("session: trigger ignored, debounced")
		return false
	}

	o.triggered = true
	o.lastTrigger = now
	id := uuid.NewString()
	done := make(chan struct{})
	o.done = done
	o.stageStart = now
	listening := Status{State: Listening, Text: statusListening, SessionID: id}
	o.status = listening
	o.mu.Unlock()
	o.publish(listening)

	o.metrics.RecordTrigger(ctx, triggerAccepted)

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(o.life, cancel)
	go func() {
		defer close(done)
		defer cancel()
		defer stop()
		o.run(sctx, id, now)
	}()
	return true
}

// Wait blocks until no session is in flight or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels any in-flight session, waits for it to release the camera and
// rejects all further triggers.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.shutdown()
	return o.Wait(ctx)
}

// run executes one session from Listening back to Idle.
func (o *Orchestrator) run(ctx context.Context, id string, started time.Time) {
	ctx, span := observe.StartSpan(ctx, "session", trace.WithAttributes(attribute.String("session.id", id)))
	log := observe.Logger(ctx).With("session_id", id)
	o.metrics.ActiveSessions.Add(ctx, 1)

	outcome := "ok"
	var sessionErr error
	defer func() {
		if r := recover(); r != nil {
			sessionErr = fmt.Errorf("session: panic: %v", r)
			outcome = "panic"
			log.Error("session: panic", "panic", r)
			o.abort(ctx, o.State(), sessionErr, GenericFailure)
		}
		o.metrics.ActiveSessions.Add(ctx, -1)
		o.metrics.SessionDuration.Record(ctx, time.Since(started).Seconds(),
			metric.WithAttributes(attribute.String("outcome", outcome)))
		observe.EndSpan(span, sessionErr)
	}()

	log.Info("session: listening")
	transcript, err := o.deps.Listener.Listen(ctx)
	if err != nil {
		outcome, sessionErr = "error", err
		msg := RecognitionFallback
		if _, ok := listener.KindOf(err); ok {
			msg = Message(err)
		}
		o.abort(ctx, Listening, err, msg)
		return
	}

	intent := o.interpreter.Interpret(transcript)
	o.metrics.RecordIntent(ctx, intent.String())
	log.Info("session: interpreted", "transcript", transcript, "intent", intent)

	switch intent {
	case command.Help:
		o.announce(ctx, HelpMessage)
		o.finish(ctx, HelpMessage)
	case command.SceneQuery:
		if err := o.describeScene(ctx, log); err != nil {
			outcome, sessionErr = "error", err
		}
	default:
		outcome = "unrecognized"
		o.announce(ctx, Reprompt)
		o.finish(ctx, IdlePrompt)
	}
}

// describeScene runs Capturing → Analyzing → Reporting → Idle.
func (o *Orchestrator) describeScene(ctx context.Context, log *slog.Logger) error {
	o.transition(ctx, Capturing, statusOpening, true)

	capture, err := o.openCapture(ctx)
	if err != nil {
		msg := CaptureFallback
		if _, ok := camera.KindOf(err); ok {
			msg = Message(err)
		}
		o.abort(ctx, Capturing, err, msg)
		return err
	}
	o.mu.Lock()
	o.capture = capture
	o.mu.Unlock()
	o.setStatus(Status{State: Capturing, Text: statusCameraReady, Busy: true})

	o.transition(ctx, Analyzing, statusProcessing, true)
	detections, err := o.analyze(ctx, capture)
	if err != nil {
		o.abort(ctx, Analyzing, err, AnalysisFailed)
		return err
	}

	sentence := o.formatter.Format(detections)
	o.transition(ctx, Reporting, sentence, true)
	o.metrics.Detections.Add(ctx, int64(min(len(detections), o.maxItems())))
	log.Info("session: reporting", "detections", len(detections), "sentence", sentence)
	o.announce(ctx, sentence)

	if err := o.sleep(ctx, o.cfg.Dwell); err != nil {
		log.Debug("session: dwell interrupted", "err", err)
	}
	o.finish(ctx, IdlePrompt)
	return nil
}

// openCapture acquires the camera, first requiring the preferred facing and
// then, unless access itself was refused, accepting any facing.
func (o *Orchestrator) openCapture(ctx context.Context) (camera.Capture, error) {
	ctx, span := observe.StartSpan(ctx, "capturing")
	if o.cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.StageTimeout)
		defer cancel()
	}

	c := camera.Constraints{Facing: o.cfg.Facing, ExactFacing: true, Ideal: o.cfg.Resolution}
	capture, err := o.deps.Camera.Open(ctx, c)
	if err != nil && retryableCapture(ctx, err) {
		slog.Debug("session: exact facing unavailable, relaxing", "err", err)
		c.ExactFacing = false
		capture, err = o.deps.Camera.Open(ctx, c)
	}
	observe.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("session: open camera: %w", err)
	}
	return capture, nil
}

// retryableCapture reports whether a relaxed second attempt makes sense.
func retryableCapture(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	kind, ok := camera.KindOf(err)
	if !ok {
		return false
	}
	return kind != camera.KindPermissionDenied && kind != camera.KindBlocked
}

// analyze loads (or reuses) the engine and runs warm-up sampling.
func (o *Orchestrator) analyze(ctx context.Context, capture camera.Capture) (types.DetectionSet, error) {
	ctx, span := observe.StartSpan(ctx, "analyzing")
	if o.cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.StageTimeout)
		defer cancel()
	}

	if !o.engines.Loaded() {
		o.setStatus(Status{State: Analyzing, Text: statusLoadingModel, Busy: true})
	}
	eng, err := o.engines.Get(ctx)
	if err != nil {
		observe.EndSpan(span, err)
		return nil, err
	}

	o.setStatus(Status{State: Analyzing, Text: statusDetecting, Busy: true})
	s := sampler.New(o.cfg.Sampling,
		sampler.WithSleep(o.sleep),
		sampler.WithAttemptHook(func(ctx context.Context, a sampler.Attempt) {
			o.metrics.InferenceDuration.Record(ctx, a.Duration.Seconds())
		}),
	)
	detections, err := s.Sample(ctx, eng, capture)
	observe.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("session: analyze: %w", err)
	}
	return detections, nil
}

// announce speaks text; failures are swallowed by the narrator helper.
func (o *Orchestrator) announce(ctx context.Context, text string) {
	narrator.SpeakQuietly(ctx, o.deps.Narrator, text)
}

// abort surfaces msg for a failure in stage and forces the machine to Idle.
// A session cancelled by Close is reset silently.
func (o *Orchestrator) abort(ctx context.Context, stage State, err error, msg string) {
	if o.life.Err() != nil {
		slog.Info("session: cancelled", "stage", stage)
		o.finish(ctx, IdlePrompt)
		return
	}
	o.metrics.RecordSessionError(ctx, stage.String(), errorKind(err))
	observe.Logger(ctx).Warn("session: stage failed", "stage", stage, "err", err, "message", msg)
	o.announce(ctx, msg)
	o.finish(ctx, msg)
}

// finish releases the capture (if any) and returns to Idle showing text.
func (o *Orchestrator) finish(ctx context.Context, text string) {
	o.mu.Lock()
	capture := o.capture
	o.capture = nil
	o.mu.Unlock()

	if capture != nil {
		if err := capture.Release(); err != nil {
			slog.Warn("session: release capture", "err", err)
		}
	}
	o.transition(ctx, Idle, text, false)
}

// transition records the duration of the stage being left and moves to next.
func (o *Orchestrator) transition(ctx context.Context, next State, text string, busy bool) {
	o.mu.Lock()
	prev := o.status.State
	now := o.now()
	elapsed := now.Sub(o.stageStart)
	o.stageStart = now
	id := o.status.SessionID
	if next == Idle {
		id = ""
	}
	s := Status{State: next, Text: text, Busy: busy, SessionID: id}
	o.status = s
	o.mu.Unlock()
	o.publish(s)

	if prev != next {
		o.metrics.RecordStage(ctx, prev.String(), elapsed.Seconds())
	}
}

// setStatus updates the status text within the current session.
func (o *Orchestrator) setStatus(s Status) {
	o.mu.Lock()
	s.SessionID = o.status.SessionID
	o.status = s
	o.mu.Unlock()
	o.publish(s)
}

// publish hands s to the status callback. It must be called without o.mu
// held. A panicking callback is logged and otherwise ignored.
func (o *Orchestrator) publish(s Status) {
	if o.onStatus == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("session: status callback panic", "panic", r, "state", s.State.String())
		}
	}()
	o.onStatus(s)
}

func (o *Orchestrator) maxItems() int {
	if o.cfg.MaxItems > 0 {
		return o.cfg.MaxItems
	}
	return narrate.DefaultMaxItems
}
