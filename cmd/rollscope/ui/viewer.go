package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"rollscope/internal/channels"
	"rollscope/internal/rollout"
	"rollscope/internal/watch"
)

// fileChangedMsg is delivered into the bubbletea loop when the watcher
// reports a trace-file modification.
type fileChangedMsg struct{}

// Model is the rollout viewer. All state transitions run on the bubbletea
// loop; the watcher goroutine only signals through the changes channel.
type Model struct {
	path     string
	records  []rollout.Record
	index    int
	live     bool
	debounce time.Duration

	watcher *watch.Watcher
	changes chan struct{}
	armed   bool

	viewport viewport.Model
	styles   Styles
	log      *zap.Logger

	width    int
	height   int
	ready    bool
	showHelp bool
	loadErr  error
}

// Option configures the viewer model.
type Option func(*Model)

// WithDebounce overrides the watcher debounce window.
func WithDebounce(d time.Duration) Option {
	return func(m *Model) { m.debounce = d }
}

// WithFollow starts the viewer in live/follow mode.
func WithFollow() Option {
	return func(m *Model) { m.live = true }
}

// WithStyles overrides the default dark styles.
func WithStyles(s Styles) Option {
	return func(m *Model) { m.styles = s }
}

// New creates a viewer for the given trace file, loads the current records
// and, in follow mode, starts the watcher. bubbletea's Init runs on a value
// copy, so all state setup happens here.
func New(path string, log *zap.Logger, opts ...Option) Model {
	if log == nil {
		log = zap.NewNop()
	}
	m := Model{
		path:     path,
		debounce: watch.DefaultDebounce,
		changes:  make(chan struct{}, 1),
		viewport: viewport.New(80, 20),
		styles:   NewStyles("dark"),
		log:      log,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.load()
	m.refreshViewport()
	if m.live {
		// Drop the returned command; Init re-arms the wait below.
		m.startWatcher()
	}
	return m
}

// Init arms the change listener when follow mode started at construction.
func (m Model) Init() tea.Cmd {
	if m.live && m.watcher != nil {
		return m.waitForChange()
	}
	return nil
}

// load reloads the full record list and clamps the index into range.
func (m *Model) load() {
	records, err := rollout.Load(m.path, m.log)
	m.loadErr = err
	m.records = records
	if m.index >= len(m.records) {
		m.index = len(m.records) - 1
	}
	if m.index < 0 {
		m.index = 0
	}
}

// startWatcher subscribes to trace-file changes. The callback runs on the
// watcher goroutine and only performs a non-blocking channel send; the
// bubbletea loop picks the signal up via waitForChange.
func (m *Model) startWatcher() tea.Cmd {
	if m.watcher == nil {
		ch := m.changes
		w, err := watch.New(m.path, func() {
			select {
			case ch <- struct{}{}:
			default:
			}
		}, m.log)
		if err != nil {
			m.log.Warn("cannot watch trace file", zap.Error(err))
			m.live = false
			return nil
		}
		w.SetDebounce(m.debounce)
		if err := w.Start(); err != nil {
			m.log.Warn("cannot watch trace directory", zap.Error(err))
			m.live = false
			return nil
		}
		m.watcher = w
	}
	if !m.armed {
		m.armed = true
		return m.waitForChange()
	}
	return nil
}

func (m *Model) stopWatcher() {
	if m.watcher != nil {
		m.watcher.Stop()
		m.watcher = nil
	}
}

// waitForChange blocks on the changes channel off the UI loop and turns
// the signal into a message. Re-armed after every delivery.
func (m Model) waitForChange() tea.Cmd {
	ch := m.changes
	return func() tea.Msg {
		<-ch
		return fileChangedMsg{}
	}
}

// Update handles navigation, live-mode toggling, and reload signals.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = conversationWidth(msg.Width)
		m.viewport.Height = msg.Height - 2
		m.ready = true
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case fileChangedMsg:
		var cmd tea.Cmd
		if m.live {
			m.load()
			// Follow the newest record.
			if len(m.records) > 0 {
				m.index = len(m.records) - 1
			}
			m.refreshViewport()
		}
		cmd = m.waitForChange()
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.stopWatcher()
		return m, tea.Quit

	case "left", "h":
		if m.index > 0 {
			m.index--
			m.refreshViewport()
		}
		return m, nil

	case "right", "l":
		if m.index < len(m.records)-1 {
			m.index++
			m.refreshViewport()
		}
		return m, nil

	case "r":
		m.load()
		m.refreshViewport()
		return m, nil

	case "w":
		if m.live {
			m.live = false
			m.stopWatcher()
			return m, nil
		}
		m.live = true
		return m, m.startWatcher()

	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) refreshViewport() {
	if len(m.records) == 0 {
		m.viewport.SetContent("No rollouts loaded")
		return
	}
	rec := m.records[m.index]
	family := channels.DetectFamily(rec.RendererName)
	m.viewport.SetContent(renderConversation(rec, family, m.styles))
}

// conversationWidth gives the conversation pane 70% of the terminal.
func conversationWidth(total int) int {
	w := total * 7 / 10
	if w < 20 {
		w = 20
	}
	return w
}

// View renders the conversation pane and the sidebar panels.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.helpView()
	}
	if len(m.records) == 0 {
		msg := "No rollouts loaded"
		if m.loadErr != nil {
			msg = m.styles.Error.Render("load error: " + m.loadErr.Error())
		}
		return msg + "\n\n" + m.styles.Dim.Render("r: refresh  w: watch  q: quit")
	}

	rec := m.records[m.index]
	sidebar := lipgloss.JoinVertical(lipgloss.Left,
		renderInfo(rec, m.index, len(m.records), m.live, m.styles),
		"",
		renderTokens(rec, m.styles),
		"",
		renderRewards(rec, m.styles),
		renderScores(rec, m.styles),
	)

	sidebarWidth := m.width - conversationWidth(m.width) - 2
	if sidebarWidth < 10 {
		sidebarWidth = 10
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.viewport.View(),
		m.styles.Sidebar.Width(sidebarWidth).Render(sidebar),
	)
}

// Records exposes the loaded records; the viewer never mutates them.
func (m Model) Records() []rollout.Record { return m.records }

// Index returns the current record position.
func (m Model) Index() int { return m.index }

// Live reports whether follow mode is active.
func (m Model) Live() bool { return m.live }
