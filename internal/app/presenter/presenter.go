// Package presenter is the popup state machine: it decides whether a
// practice event surfaces as a transient snackbar, a persistent popup, or
// the full-screen completion sequence, and hands the caller explicit
// commands instead of threading callbacks through UI layers.
package presenter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shadowlingo/shadow/internal/domain"
	"github.com/shadowlingo/shadow/internal/infra/analytics"
	"github.com/shadowlingo/shadow/internal/infra/metrics"
)

// State is the controller's top-level presentation state.
type State string

const (
	StateIdle            State = "idle"
	StateSnackbar        State = "snackbar"
	StatePersistentPopup State = "persistent_popup"
	StateFullScreen      State = "full_screen"
)

// Step is the position inside the full-screen completion sequence.
type Step string

const (
	StepNone       Step = ""
	StepOpening    Step = "opening"
	StepProgress   Step = "progress"
	StepMilestones Step = "milestones"
	StepActions    Step = "actions"
)

// Action is a terminal choice on the completion screen.
type Action string

const (
	ActionGoNext  Action = "go_next"
	ActionGoAgain Action = "go_again"
	ActionHome    Action = "home"
)

// Command is what the caller should do after the completion flow ends. The
// controller never invokes navigation itself; it returns intent.
type Command struct {
	Action       Action `json:"action"`
	ResetSession bool   `json:"reset_session"`
}

// Notice is a non-completion notification. Persist keeps it on screen until
// the user dismisses it; otherwise it auto-closes as a snackbar.
type Notice struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Persist bool   `json:"persist"`
}

// StatsReader is the slice of the aggregator the controller needs. Snapshots
// are fetched lazily, at the opening→progress transition, so the progress
// animation gets a baseline that includes this session's writes.
type StatsReader interface {
	TodaySnapshot(ctx context.Context) (domain.DailyStatRecord, error)
	LifetimeSnapshot(ctx context.Context) (domain.UserListeningStats, error)
	MilestoneHistory() []domain.MilestoneEvent
	ResetSession()
}

const (
	defaultSnackbarTTL  = 2 * time.Second
	defaultMilestoneTTL = 4 * time.Second
)

// Controller is the popup state machine. All methods are safe for
// concurrent use.
type Controller struct {
	stats StatsReader
	sink  analytics.Sink
	log   zerolog.Logger

	snackbarTTL  time.Duration
	milestoneTTL time.Duration

	mu         sync.Mutex
	state      State
	step       Step
	notice     Notice
	today      domain.DailyStatRecord
	lifetime   domain.UserListeningStats
	milestones []domain.MilestoneEvent
	timer      *time.Timer
	timerGen   uint64
}

// NewController creates a controller with the production auto-close timings.
func NewController(stats StatsReader, sink analytics.Sink, log zerolog.Logger) *Controller {
	return NewControllerWithTimings(stats, sink, log, defaultSnackbarTTL, defaultMilestoneTTL)
}

// NewControllerWithTimings creates a controller with custom auto-close
// timings. Tests use short ones.
func NewControllerWithTimings(stats StatsReader, sink analytics.Sink, log zerolog.Logger, snackbarTTL, milestoneTTL time.Duration) *Controller {
	return &Controller{
		stats:        stats,
		sink:         sink,
		log:          log,
		snackbarTTL:  snackbarTTL,
		milestoneTTL: milestoneTTL,
		state:        StateIdle,
	}
}

// State returns the current presentation state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentStep returns the completion-sequence step, or StepNone outside the
// full-screen flow.
func (c *Controller) CurrentStep() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Notice returns the notice currently on screen. Meaningful in the snackbar
// and persistent-popup states.
func (c *Controller) Notice() Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

// Snapshots returns the stat snapshots fetched for the progress step.
func (c *Controller) Snapshots() (domain.DailyStatRecord, domain.UserListeningStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.today, c.lifetime
}

// Milestones returns the milestone list captured for the completion flow.
func (c *Controller) Milestones() []domain.MilestoneEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.MilestoneEvent, len(c.milestones))
	copy(out, c.milestones)
	return out
}

// Show surfaces a non-completion notice. Persistent notices stay until
// dismissed; others auto-close after the snackbar timeout. The full-screen
// flow has priority: while it is on screen the notice is dropped and Show
// reports false.
func (c *Controller) Show(n Notice) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateFullScreen {
		c.log.Debug().Str("title", n.Title).Msg("notice dropped, completion flow on screen")
		return false
	}

	c.cancelTimerLocked()
	c.notice = n
	if n.Persist {
		c.state = StatePersistentPopup
		c.publishShownLocked("persistent_popup")
		return true
	}
	c.state = StateSnackbar
	c.armTimerLocked(c.snackbarTTL)
	c.publishShownLocked("snackbar")
	return true
}

// ShowMilestone surfaces a milestone snackbar with the longer auto-close
// timeout. Subject to the same full-screen guard as Show.
func (c *Controller) ShowMilestone(ev domain.MilestoneEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateFullScreen {
		c.log.Debug().Str("title", ev.Title).Msg("milestone dropped, completion flow on screen")
		return false
	}

	c.cancelTimerLocked()
	c.notice = Notice{Title: ev.Title, Body: ev.Description}
	c.state = StateSnackbar
	c.armTimerLocked(c.milestoneTTL)
	c.publishShownLocked("milestone")
	return true
}

// CompleteList enters the full-screen completion sequence at its opening
// step. Whatever popup was on screen is replaced; from here on, plain
// snackbars cannot pre-empt the flow.
func (c *Controller) CompleteList() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelTimerLocked()
	c.state = StateFullScreen
	c.step = StepOpening
	c.milestones = c.stats.MilestoneHistory()
	c.publishShownLocked("full_screen")
}

// Advance moves the full-screen sequence forward one step. The stat
// snapshots are fetched exactly at the opening→progress transition. After
// progress, the milestone step is entered only when this session recorded
// milestones. Advancing outside the full-screen state is an error.
func (c *Controller) Advance(ctx context.Context) (Step, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateFullScreen {
		return StepNone, fmt.Errorf("advance outside completion flow (state %q)", c.state)
	}

	switch c.step {
	case StepOpening:
		today, err := c.stats.TodaySnapshot(ctx)
		if err != nil {
			return c.step, fmt.Errorf("today snapshot: %w", err)
		}
		lifetime, err := c.stats.LifetimeSnapshot(ctx)
		if err != nil {
			return c.step, fmt.Errorf("lifetime snapshot: %w", err)
		}
		c.today, c.lifetime = today, lifetime
		c.step = StepProgress
	case StepProgress:
		if len(c.milestones) > 0 {
			c.step = StepMilestones
		} else {
			c.step = StepActions
		}
	case StepMilestones:
		c.step = StepActions
	default:
		return c.step, fmt.Errorf("no step after %q", c.step)
	}
	return c.step, nil
}

// Finish ends the completion flow with a terminal action. The session
// counters and milestone history are reset, and the returned command tells
// the caller where to navigate.
func (c *Controller) Finish(action Action) (Command, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateFullScreen || c.step != StepActions {
		return Command{}, fmt.Errorf("finish from state %q step %q", c.state, c.step)
	}

	c.stats.ResetSession()
	c.resetLocked()
	c.sink.Publish(analytics.New("popup.finished", map[string]any{"action": string(action)}))
	return Command{Action: action, ResetSession: true}, nil
}

// Dismiss closes whatever popup is on screen: the auto-close timer is
// canceled, the milestone history is cleared, and the controller returns to
// idle. Dismissing from idle is a no-op.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIdle {
		return
	}
	c.cancelTimerLocked()
	c.stats.ResetSession()
	c.resetLocked()
	metrics.PopupsDismissed.Inc()
	c.sink.Publish(analytics.New("popup.dismissed", nil))
}

// Close cancels any pending timer. Call on shutdown.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimerLocked()
}

// ─── Internals ──────────────────────────────────────────────────────────────

func (c *Controller) resetLocked() {
	c.state = StateIdle
	c.step = StepNone
	c.notice = Notice{}
	c.milestones = nil
}

// armTimerLocked schedules the auto-close. The generation counter makes a
// stale timer a no-op: a snackbar replaced before its timeout must not close
// its successor. Auto-close only returns to idle — unlike Dismiss it is not
// a user interaction, so the session counters and milestone history stand.
func (c *Controller) armTimerLocked(d time.Duration) {
	c.timerGen++
	gen := c.timerGen
	c.timer = time.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.timerGen != gen || c.state != StateSnackbar {
			return
		}
		c.state = StateIdle
		c.notice = Notice{}
	})
}

func (c *Controller) cancelTimerLocked() {
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) publishShownLocked(kind string) {
	metrics.PopupsShown.WithLabelValues(kind).Inc()
	c.sink.Publish(analytics.New("popup.shown", map[string]any{"kind": kind}))
}
