package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	glam "github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/asynkron/codezap/internal/core/logging"
	"github.com/asynkron/codezap/internal/core/optimizer"
	"github.com/asynkron/codezap/internal/editor"
)

// Options configures the terminal UI.
type Options struct {
	Optimizer editor.Optimizer
	// Endpoint is shown in the header.
	Endpoint string
	Dark     bool
	// SaveDir receives the exported file. Defaults to the working directory.
	SaveDir   string
	Logger    logging.Logger
	Clipboard func(string) error
}

type focusArea int

const (
	focusInput focusArea = iota
	focusOutput
)

type model struct {
	ctrl     *editor.Controller
	endpoint string
	saveDir  string
	logger   logging.Logger

	// UI
	ta     textarea.Model
	vp     viewport.Model
	spin   spinner.Model
	help   help.Model
	keys   keyMap
	width  int
	height int
	ready  bool
	focus  focusArea

	// Output rendering
	glam       *glam.TermRenderer
	glamStyle  string
	glamWidth  int
	flashFrame int

	// notice is a transient line such as the saved file path.
	notice    string
	noticeErr bool

	theme theme
}

func newModel(opts Options) *model {
	ta := textarea.New()
	ta.Placeholder = "Paste JavaScript here… (ctrl+r to optimize, f1-f3 for samples)"
	ta.CharLimit = 0
	ta.ShowLineNumbers = true
	ta.SetHeight(8)
	ta.Focus()

	logger := opts.Logger
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}

	m := &model{
		ctrl: editor.New(editor.Options{
			Optimizer: opts.Optimizer,
			Clipboard: opts.Clipboard,
			Logger:    logger,
			Dark:      opts.Dark,
		}),
		endpoint: opts.Endpoint,
		saveDir:  opts.SaveDir,
		logger:   logger,
		ta:       ta,
		vp:       viewport.New(80, 10),
		spin:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:     help.New(),
		keys:     defaultKeyMap(),
	}
	m.applyTheme()
	return m
}

// applyTheme rebuilds styles and the glamour renderer for the current theme.
func (m *model) applyTheme() {
	m.theme = newTheme(m.ctrl.State().Dark)
	m.spin.Style = m.theme.spin
	_ = m.rebuildRenderer(m.vp.Width - 2)
	m.refreshOutput()
}

// rebuildRenderer recreates the Glamour renderer with the given wrap width.
func (m *model) rebuildRenderer(wrap int) error {
	if wrap < 10 {
		wrap = 10
	}
	if m.glam != nil && m.glamStyle == m.theme.name && m.glamWidth == wrap {
		return nil
	}
	r, err := glam.NewTermRenderer(
		glam.WithStylePath(m.theme.name), // fixed style to avoid OSC queries
		glam.WithWordWrap(wrap),
	)
	if err != nil {
		m.logger.Warn(context.Background(), "glamour renderer unavailable", logging.Field("error", err.Error()))
		m.glam = nil
		return err
	}
	m.glam, m.glamStyle, m.glamWidth = r, m.theme.name, wrap
	return nil
}

// renderOutput formats the output text for the viewport. Failure text is
// shown as-is so the "Error: " line stays readable.
func (m *model) renderOutput() string {
	out := m.ctrl.State().Output
	if out == "" {
		return m.theme.muted.Render("Optimized code will appear here.")
	}
	if strings.HasPrefix(out, optimizer.ErrorPrefix) {
		return m.theme.err.Render(out)
	}
	if out == optimizer.NoOutputText || m.glam == nil {
		return out
	}
	rendered, err := m.glam.Render("```javascript\n" + out + "\n```")
	if err != nil {
		return out
	}
	return rendered
}

func (m *model) refreshOutput() {
	m.vp.SetContent(m.renderOutput())
	m.vp.GotoTop()
}

// recalcLayout splits the terminal between the input and output panes.
func (m *model) recalcLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	inner := m.width - 2
	if inner < 1 {
		inner = 1
	}
	// header + status + footer = 3 rows, two bordered panes = 4 rows.
	free := m.height - 7
	if free < 6 {
		free = 6
	}
	taH := free / 3
	if taH < 3 {
		taH = 3
	}
	m.ta.SetWidth(inner)
	m.ta.SetHeight(taH)
	m.vp.Width = inner
	m.vp.Height = free - taH
	m.help.Width = m.width
	_ = m.rebuildRenderer(inner - 2)
	m.refreshOutput()
}

func (m *model) setFocus(f focusArea) {
	m.focus = f
	if f == focusInput {
		m.ta.Focus()
	} else {
		m.ta.Blur()
	}
}

func (m *model) setNotice(text string, isErr bool) {
	m.notice, m.noticeErr = text, isErr
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spin.Tick)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.ctrl.Update(msg) {
		if _, ok := msg.(editor.OptimizeDoneMsg); ok {
			m.refreshOutput()
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.ctrl.State().Busy {
			m.flashFrame++
		}
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	if m.focus == focusInput {
		m.ta, cmd = m.ta.Update(msg)
		m.ctrl.SetInput(m.ta.Value())
	} else {
		m.vp, cmd = m.vp.Update(msg)
	}
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.Close()
		return tea.Quit, true

	case key.Matches(msg, m.keys.Optimize):
		m.ctrl.SetInput(m.ta.Value())
		cmd := m.ctrl.RequestOptimize()
		if cmd != nil {
			m.setNotice("", false)
			m.refreshOutput()
		}
		return cmd, true

	case key.Matches(msg, m.keys.Copy):
		if m.ctrl.State().Output == "" {
			m.setNotice("Nothing to copy yet", false)
			return nil, true
		}
		cmd := m.ctrl.CopyOutput()
		if cmd == nil {
			m.setNotice("Copy failed", true)
		} else {
			m.setNotice("", false)
		}
		return cmd, true

	case key.Matches(msg, m.keys.Save):
		if m.ctrl.State().Output == "" {
			m.setNotice("Nothing to save yet", false)
			return nil, true
		}
		path, err := m.ctrl.DownloadOutput(m.saveDir)
		if err != nil {
			m.setNotice(err.Error(), true)
		} else {
			m.setNotice("Saved "+path, false)
		}
		return nil, true

	case key.Matches(msg, m.keys.Theme):
		m.ctrl.ToggleTheme()
		m.applyTheme()
		return nil, true

	case key.Matches(msg, m.keys.Sample1), key.Matches(msg, m.keys.Sample2), key.Matches(msg, m.keys.Sample3):
		idx := 0
		switch {
		case key.Matches(msg, m.keys.Sample2):
			idx = 1
		case key.Matches(msg, m.keys.Sample3):
			idx = 2
		}
		if m.ctrl.LoadSample(idx) {
			m.ta.SetValue(m.ctrl.State().Input)
			m.setNotice("Loaded sample: "+editor.SampleTitles[idx], false)
		}
		return nil, true

	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusInput {
			m.setFocus(focusOutput)
		} else {
			m.setFocus(focusInput)
		}
		return nil, true
	}
	return nil, false
}

func (m *model) View() string {
	if !m.ready {
		return "Initializing…"
	}
	st := m.ctrl.State()

	themeLabel := "light"
	if st.Dark {
		themeLabel = "dark"
	}
	header := m.theme.title.Render("⚡ codeZap") + m.theme.muted.Render(fmt.Sprintf("  %s · %s theme", m.endpoint, themeLabel))

	inputBox, outputBox := m.theme.border, m.theme.border
	if m.focus == focusInput {
		inputBox = m.theme.active
	} else {
		outputBox = m.theme.active
	}

	output := m.vp.View()
	if st.Busy {
		output = renderGradientBar(m.vp.Width, m.flashFrame) + "\n" + output
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		inputBox.Render(m.ta.View()),
		m.statusLine(st),
		outputBox.Render(output),
		m.help.View(m.keys),
	)
}

func (m *model) statusLine(st editor.State) string {
	switch {
	case st.Busy:
		return m.spin.View() + " " + m.theme.status.Render(st.Status)
	case st.CopyConfirmed:
		return m.theme.ok.Render("✓ Copied!")
	case m.notice != "" && m.noticeErr:
		return m.theme.err.Render(m.notice)
	case m.notice != "":
		return m.theme.status.Render(m.notice)
	}
	return ""
}

// Run launches the Bubble Tea TUI and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	if opts.Optimizer == nil {
		return errors.New("tui: optimizer is required")
	}

	// Prevent OSC background color queries from contaminating stdin by
	// explicitly setting color profile and background for lipgloss/termenv.
	lipgloss.SetColorProfile(termenv.TrueColor)
	lipgloss.SetHasDarkBackground(opts.Dark)

	m := newModel(opts)
	defer m.ctrl.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
