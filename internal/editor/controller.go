// Package editor owns the codezap editing session: the input and output
// text, the busy flag, copy confirmation and theme. Actions that need I/O
// return Bubble Tea commands so the caller decides where they run.
package editor

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/asynkron/codezap/internal/core/logging"
)

// CopyConfirmDuration is how long CopyConfirmed stays set after a copy.
const CopyConfirmDuration = 3 * time.Second

// Optimizer turns source code into the text shown in the output pane. It
// must not fail: failures are reported as text.
type Optimizer interface {
	Optimize(ctx context.Context, code string) string
}

// OptimizeDoneMsg carries the result of the request identified by ID.
type OptimizeDoneMsg struct {
	ID     uint64
	Output string
}

// CopyResetMsg clears the copy confirmation set by copy number ID.
type CopyResetMsg struct {
	ID uint64
}

// Options configures a Controller.
type Options struct {
	Optimizer Optimizer
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
	Logger    logging.Logger
	// CopyConfirmDuration defaults to CopyConfirmDuration.
	CopyConfirmDuration time.Duration
	// Context is the parent of every request context.
	Context context.Context
	Dark    bool
}

// Controller holds the session State and implements the user actions.
// It is not safe for concurrent use; Bubble Tea calls it from one goroutine.
type Controller struct {
	state     State
	optimizer Optimizer
	clipboard func(string) error
	logger    logging.Logger
	copyDelay time.Duration
	ctx       context.Context

	requestID     uint64
	cancelRequest context.CancelFunc
	copyID        uint64
}

// New returns a controller with every field at its launch default.
func New(opts Options) *Controller {
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Logger == nil {
		opts.Logger = &logging.NoOpLogger{}
	}
	if opts.CopyConfirmDuration <= 0 {
		opts.CopyConfirmDuration = CopyConfirmDuration
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	return &Controller{
		state:     State{Dark: opts.Dark},
		optimizer: opts.Optimizer,
		clipboard: opts.Clipboard,
		logger:    opts.Logger.WithFields(logging.Field("component", "editor")),
		copyDelay: opts.CopyConfirmDuration,
		ctx:       opts.Context,
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State { return c.state }

// SetInput replaces the input text.
func (c *Controller) SetInput(text string) { c.state.Input = text }

// ToggleTheme flips between the light and dark theme.
func (c *Controller) ToggleTheme() { c.state.Dark = !c.state.Dark }

// LoadSample replaces the input with Samples[i]. It reports false and
// leaves the state untouched for an unknown index.
func (c *Controller) LoadSample(i int) bool {
	if i < 0 || i >= len(Samples) {
		return false
	}
	c.state.Input = Samples[i]
	return true
}

// RequestOptimize starts an optimization of the current input. It returns
// nil without touching state when the input is blank or a request is
// already in flight. The returned command performs the request and yields
// an OptimizeDoneMsg.
func (c *Controller) RequestOptimize() tea.Cmd {
	if strings.TrimSpace(c.state.Input) == "" || c.state.Busy {
		return nil
	}
	if c.optimizer == nil {
		c.logger.Warn(c.ctx, "optimize requested without an optimizer")
		return nil
	}

	if c.cancelRequest != nil {
		c.cancelRequest()
	}
	c.requestID++
	id := c.requestID
	traceID := logging.NewTraceID()
	ctx, cancel := context.WithCancel(logging.WithTraceID(c.ctx, traceID))
	c.cancelRequest = cancel

	c.state.Busy = true
	c.state.Output = ""
	c.state.Status = BusyStatus
	c.logger.Debug(ctx, "optimize requested", logging.Field("request_id", id))

	optimizer := c.optimizer
	code := c.state.Input
	return func() tea.Msg {
		return OptimizeDoneMsg{ID: id, Output: optimizer.Optimize(ctx, code)}
	}
}

// Update applies controller messages. It reports whether msg was one.
func (c *Controller) Update(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case OptimizeDoneMsg:
		c.handleOptimizeDone(msg)
		return true
	case CopyResetMsg:
		c.handleCopyReset(msg)
		return true
	}
	return false
}

func (c *Controller) handleOptimizeDone(msg OptimizeDoneMsg) {
	if msg.ID != c.requestID {
		c.logger.Debug(c.ctx, "dropping stale optimize result",
			logging.Field("request_id", msg.ID),
			logging.Field("latest_id", c.requestID))
		return
	}
	if c.cancelRequest != nil {
		c.cancelRequest()
		c.cancelRequest = nil
	}
	c.state.Output = msg.Output
	c.state.Busy = false
	c.state.Status = ""
}

// CopyOutput writes the output to the clipboard and sets CopyConfirmed.
// The returned command clears the confirmation after the configured delay.
// A clipboard failure is logged and leaves state unchanged.
func (c *Controller) CopyOutput() tea.Cmd {
	if err := c.clipboard(c.state.Output); err != nil {
		c.logger.Error(c.ctx, "failed to copy output", err)
		return nil
	}
	c.copyID++
	id := c.copyID
	c.state.CopyConfirmed = true
	return tea.Tick(c.copyDelay, func(time.Time) tea.Msg { return CopyResetMsg{ID: id} })
}

// A newer copy supersedes the pending reset of an older one.
func (c *Controller) handleCopyReset(msg CopyResetMsg) {
	if msg.ID != c.copyID {
		return
	}
	c.state.CopyConfirmed = false
}

// Close abandons any in-flight request.
func (c *Controller) Close() {
	if c.cancelRequest != nil {
		c.cancelRequest()
		c.cancelRequest = nil
	}
}
