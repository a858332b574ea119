package escalate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RevCBH/medalert/internal/classify"
)

// Phase is the UI-facing state of the emergency call
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseCalling Phase = "calling"
)

// RearmPolicy decides whether a dismissed alert can be shown again
type RearmPolicy string

const (
	// RearmNever keeps every later high-risk alert in the session hidden
	// once the user has dismissed one.
	RearmNever RearmPolicy = "never"

	// RearmNextAlert clears the dismissal when a new high-risk advisory
	// arrives, so each distinct alert is shown once.
	RearmNextAlert RearmPolicy = "next-alert"
)

// Valid reports whether p is a known policy
func (p RearmPolicy) Valid() bool {
	return p == RearmNever || p == RearmNextAlert
}

const (
	// DefaultCallingTimeout is how long the calling phase is shown when
	// the action layer has not answered yet
	DefaultCallingTimeout = 5 * time.Second

	// DefaultCallTimeout bounds the underlying action layer request
	DefaultCallTimeout = 30 * time.Second
)

// Transition causes reported through OnChange
const (
	CauseStarted   = "started"
	CauseCompleted = "completed"
	CauseFailed    = "failed"
	CauseTimeout   = "timeout"
	CauseDismissed = "dismissed"
)

// State is a snapshot of a session's escalation state
type State struct {
	Phase      Phase       `json:"phase"`
	Dismissed  bool        `json:"dismissed"`
	LastStatus *CallStatus `json:"last_status"`
	Attempts   int         `json:"attempts"`
	LastReason string      `json:"last_reason,omitempty"`
}

// Calling reports whether a call is shown as in progress
func (s State) Calling() bool {
	return s.Phase == PhaseCalling
}

// Transition describes one state change of a Controller
type Transition struct {
	Cause   string
	From    Phase
	State   State
	Context EmergencyContext
	Err     error // Transport error for CauseFailed
}

// ControllerConfig configures a Controller. Zero values take defaults.
type ControllerConfig struct {
	Layer          ActionLayer
	CallingTimeout time.Duration
	CallTimeout    time.Duration
	Rearm          RearmPolicy
	Confidence     float64

	// OnChange is called after every transition, outside the controller's
	// lock and possibly from another goroutine.
	OnChange func(Transition)
}

// Controller is the per-session escalation state machine.
//
// Every high-risk advisory starts a new call attempt. The calling phase
// ends when the attempt's own timer fires or its call returns, whichever
// comes first; anything belonging to a superseded attempt only updates
// the last status, and only if nothing newer has reported.
type Controller struct {
	layer          ActionLayer
	callingTimeout time.Duration
	callTimeout    time.Duration
	rearm          RearmPolicy
	confidence     float64
	onChange       func(Transition)

	mu        sync.Mutex
	state     State
	gen       uint64 // current attempt
	statusGen uint64 // attempt that produced state.LastStatus
	timer     *time.Timer
	closed    bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewController creates an idle controller
func NewController(cfg ControllerConfig) *Controller {
	if cfg.Layer == nil {
		cfg.Layer = NewTerminal()
	}
	if cfg.CallingTimeout <= 0 {
		cfg.CallingTimeout = DefaultCallingTimeout
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if !cfg.Rearm.Valid() {
		cfg.Rearm = RearmNever
	}
	if cfg.Confidence <= 0 {
		cfg.Confidence = DefaultConfidence
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		layer:          cfg.Layer,
		callingTimeout: cfg.CallingTimeout,
		callTimeout:    cfg.CallTimeout,
		rearm:          cfg.Rearm,
		confidence:     cfg.Confidence,
		onChange:       cfg.OnChange,
		state:          State{Phase: PhaseIdle},
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Escalate starts a call attempt for a high-risk advisory. It returns
// immediately; the call runs in the background. Returns false when the
// advisory is not high risk or the controller is closed.
func (c *Controller) Escalate(adv classify.Advisory, transcript string) bool {
	if !adv.IsHigh() {
		return false
	}

	ec := NewContext(adv, transcript)
	ec.Confidence = c.confidence

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if c.rearm == RearmNextAlert {
		c.state.Dismissed = false
	}
	c.gen++
	gen := c.gen
	from := c.state.Phase
	c.state.Phase = PhaseCalling
	c.state.Attempts++
	c.state.LastReason = ec.Reason
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.callingTimeout, func() { c.expire(gen, ec) })
	snap := c.snapshotLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	log.Info().Str("layer", c.layer.Name()).Str("reason", ec.Reason).Uint64("attempt", gen).Msg("Emergency escalation started")
	c.notify(Transition{Cause: CauseStarted, From: from, State: snap, Context: ec})

	go c.call(gen, ec)
	return true
}

// Dismiss records the user's acknowledgement of the alert
func (c *Controller) Dismiss() {
	c.mu.Lock()
	already := c.state.Dismissed
	c.state.Dismissed = true
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if !already {
		c.notify(Transition{Cause: CauseDismissed, From: snap.Phase, State: snap})
	}
}

// AlertVisible reports whether the high-risk alert should be presented
// for adv given the current dismissal state
func (c *Controller) AlertVisible(adv classify.Advisory) bool {
	if !adv.IsHigh() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.state.Dismissed
}

// State returns a snapshot of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Rearm returns the configured rearm policy
func (c *Controller) Rearm() RearmPolicy {
	return c.rearm
}

// Wait blocks until every in-flight call has returned
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight calls and waits for them to return. Further
// escalations are refused.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Controller) call(gen uint64, ec EmergencyContext) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(c.ctx, c.callTimeout)
	defer cancel()

	status, err := c.trigger(ctx, ec)
	c.complete(gen, ec, status, err)
}

// trigger shields the controller from a misbehaving action layer
func (c *Controller) trigger(ctx context.Context, ec EmergencyContext) (status CallStatus, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action layer panic: %v", r)
		}
	}()
	return c.layer.Trigger(ctx, ec)
}

func (c *Controller) complete(gen uint64, ec EmergencyContext, status CallStatus, err error) {
	cause := CauseCompleted
	if err != nil {
		cause = CauseFailed
		status = NetworkError()
	}

	c.mu.Lock()
	if gen >= c.statusGen {
		s := status
		c.state.LastStatus = &s
		c.statusGen = gen
	}
	from := c.state.Phase
	if gen == c.gen && c.state.Phase == PhaseCalling {
		c.state.Phase = PhaseIdle
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if err != nil {
		log.Warn().Err(err).Str("layer", c.layer.Name()).Uint64("attempt", gen).Msg("Emergency escalation failed")
	} else {
		log.Info().Str("status", status.Status).Bool("dry_run", status.IsDryRun).Uint64("attempt", gen).Msg("Emergency escalation answered")
	}
	c.notify(Transition{Cause: cause, From: from, State: snap, Context: ec, Err: err})
}

func (c *Controller) expire(gen uint64, ec EmergencyContext) {
	c.mu.Lock()
	if gen != c.gen || c.state.Phase != PhaseCalling || c.closed {
		c.mu.Unlock()
		return
	}
	c.state.Phase = PhaseIdle
	c.timer = nil
	snap := c.snapshotLocked()
	c.mu.Unlock()

	log.Debug().Uint64("attempt", gen).Msg("Calling indicator timed out")
	c.notify(Transition{Cause: CauseTimeout, From: PhaseCalling, State: snap, Context: ec})
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	if s.LastStatus != nil {
		status := *s.LastStatus
		s.LastStatus = &status
	}
	return s
}

func (c *Controller) notify(t Transition) {
	if c.onChange != nil {
		c.onChange(t)
	}
}
