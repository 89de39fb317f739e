package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/eleropi/eleropi-go/internal/ui"
	"github.com/eleropi/eleropi-go/pkg/eleroapi"
)

// Controller is the part of eleroapi.Client the pairing screen drives
type Controller interface {
	GetBlinds(ctx context.Context) ([]eleroapi.Blind, error)
	StartDiscovery(ctx context.Context) error
	StopDiscovery(ctx context.Context) error
}

const (
	// DefaultPairingWindow is how long discovery stays on before it is
	// switched off automatically
	DefaultPairingWindow = 2 * time.Minute

	// DefaultPollInterval is how often the blind listing is refreshed while
	// discovery is on
	DefaultPollInterval = 3 * time.Second
)

type pairingPhase int

const (
	phaseStarting pairingPhase = iota
	phaseActive
	phaseStopping
	phaseStopped
	phaseFailed
)

// request is one controller call. Only one is in flight at a time since
// the client is not safe for concurrent use.
type request int

const (
	requestNone request = iota
	requestStart
	requestBlinds
	requestStop
)

type beginPairingMsg struct{}
type pollMsg struct{}
type discoveryStartedMsg struct{ err error }
type discoveryStoppedMsg struct{ err error }
type blindsLoadedMsg struct {
	blinds []eleroapi.Blind
	err    error
}

type pairingKeyMap struct {
	Refresh key.Binding
	Stop    key.Binding
	Restart key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k pairingKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Stop, k.Restart, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k pairingKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh, k.Stop, k.Restart, k.Quit}}
}

// PairingOptions configures a PairingModel
type PairingOptions struct {
	DeviceID     string
	Host         string
	Labels       map[string]string // blind_id -> label from the CLI profile
	Window       time.Duration
	PollInterval time.Duration
}

// PairingResult is what a pairing session produced
type PairingResult struct {
	DeviceID  string
	Host      string
	Blinds    []eleroapi.Blind // last listing
	NewBlinds []eleroapi.Blind // blinds that appeared during the session
	Stopped   bool             // discovery was switched off before exit
	Err       error
}

// PairingModel switches the controller into discovery mode, watches the
// blind listing for newly paired blinds, and switches discovery off again.
type PairingModel struct {
	ctx  context.Context
	ctrl Controller
	opts PairingOptions

	phase         pairingPhase
	startedAt     time.Time
	inflight      request
	queue         []request
	stopRequested bool
	quitting      bool

	baseline    map[string]bool
	blinds      []eleroapi.Blind
	newBlinds   []eleroapi.Blind
	lastRefresh time.Time
	err         error

	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    pairingKeyMap
}

// NewPairingModel creates the pairing screen for an authenticated controller
func NewPairingModel(ctx context.Context, ctrl Controller, opts PairingOptions) PairingModel {
	if opts.Window <= 0 {
		opts.Window = DefaultPairingWindow
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return PairingModel{
		ctx:     ctx,
		ctrl:    ctrl,
		opts:    opts,
		phase:   phaseStarting,
		Spinner: s,
		Help:    help.New(),
		Keys: pairingKeyMap{
			Refresh: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "refresh"),
			),
			Stop: key.NewBinding(
				key.WithKeys("s"),
				key.WithHelp("s", "stop discovery"),
			),
			Restart: key.NewBinding(
				key.WithKeys("d"),
				key.WithHelp("d", "discover again"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "esc", "ctrl+c"),
				key.WithHelp("q", "stop & quit"),
			),
		},
	}
}

// Init loads the current listing as a baseline, then starts discovery
func (m PairingModel) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		func() tea.Msg { return beginPairingMsg{} },
	)
}

// Update handles messages and updates the model
func (m PairingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case beginPairingMsg:
		cmd := m.enqueue(requestBlinds)
		m.enqueue(requestStart)
		return m, cmd

	case blindsLoadedMsg:
		cmd := m.next()
		m.applyBlinds(msg)
		return m, cmd

	case discoveryStartedMsg:
		cmd := m.next()
		if msg.err != nil {
			m.phase = phaseFailed
			m.err = msg.err
			if m.quitting {
				return m, tea.Quit
			}
			return m, cmd
		}
		if m.stopRequested {
			// stop is already queued behind this request
			return m, cmd
		}
		m.phase = phaseActive
		m.startedAt = time.Now()
		m.err = nil
		return m, tea.Batch(cmd, m.poll())

	case pollMsg:
		if m.phase != phaseActive {
			return m, nil
		}
		if time.Since(m.startedAt) >= m.opts.Window {
			return m, m.requestStop()
		}
		return m, tea.Batch(m.enqueue(requestBlinds), m.poll())

	case discoveryStoppedMsg:
		cmd := m.next()
		m.stopRequested = false
		if msg.err != nil {
			m.phase = phaseFailed
			m.err = msg.err
		} else {
			m.phase = phaseStopped
		}
		if m.quitting {
			return m, tea.Quit
		}
		// one last look for blinds paired just before the stop
		return m, tea.Batch(cmd, m.enqueue(requestBlinds))
	}

	return m, nil
}

func (m PairingModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		if m.quitting || m.phase == phaseStopped || m.phase == phaseFailed {
			return m, tea.Quit
		}
		m.quitting = true
		return m, m.requestStop()

	case key.Matches(msg, m.Keys.Stop):
		if m.phase == phaseStarting || m.phase == phaseActive {
			return m, m.requestStop()
		}

	case key.Matches(msg, m.Keys.Restart):
		if m.phase == phaseStopped || m.phase == phaseFailed {
			m.phase = phaseStarting
			m.err = nil
			return m, m.enqueue(requestStart)
		}

	case key.Matches(msg, m.Keys.Refresh):
		return m, m.enqueue(requestBlinds)
	}

	return m, nil
}

func (m *PairingModel) requestStop() tea.Cmd {
	if m.stopRequested {
		return nil
	}
	m.stopRequested = true
	m.phase = phaseStopping
	return m.enqueue(requestStop)
}

func (m *PairingModel) applyBlinds(msg blindsLoadedMsg) {
	if msg.err != nil {
		// keep the previous listing, show why the refresh failed
		m.err = msg.err
		return
	}
	if m.phase != phaseFailed {
		m.err = nil
	}

	m.blinds = msg.blinds
	m.lastRefresh = time.Now()

	if m.baseline == nil {
		m.baseline = make(map[string]bool, len(msg.blinds))
		for _, b := range msg.blinds {
			m.baseline[b.ID()] = true
		}
		return
	}

	for _, b := range msg.blinds {
		id := b.ID()
		if m.baseline[id] {
			continue
		}
		m.baseline[id] = true
		m.newBlinds = append(m.newBlinds, b)
	}
}

// enqueue issues r now if nothing is in flight, otherwise queues it once
func (m *PairingModel) enqueue(r request) tea.Cmd {
	if m.inflight == r {
		return nil
	}
	for _, q := range m.queue {
		if q == r {
			return nil
		}
	}
	if m.inflight != requestNone {
		m.queue = append(m.queue, r)
		return nil
	}
	return m.issue(r)
}

// next marks the in-flight request done and issues the next queued one
func (m *PairingModel) next() tea.Cmd {
	m.inflight = requestNone
	if len(m.queue) == 0 {
		return nil
	}
	r := m.queue[0]
	m.queue = m.queue[1:]
	return m.issue(r)
}

func (m *PairingModel) issue(r request) tea.Cmd {
	m.inflight = r
	ctx, ctrl := m.ctx, m.ctrl

	switch r {
	case requestStart:
		return func() tea.Msg {
			return discoveryStartedMsg{err: ctrl.StartDiscovery(ctx)}
		}
	case requestStop:
		return func() tea.Msg {
			return discoveryStoppedMsg{err: ctrl.StopDiscovery(ctx)}
		}
	case requestBlinds:
		return func() tea.Msg {
			blinds, err := ctrl.GetBlinds(ctx)
			return blindsLoadedMsg{blinds: blinds, err: err}
		}
	}

	m.inflight = requestNone
	return nil
}

func (m PairingModel) poll() tea.Cmd {
	return tea.Tick(m.opts.PollInterval, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

// Result returns what the session produced so far
func (m PairingModel) Result() PairingResult {
	return PairingResult{
		DeviceID:  m.opts.DeviceID,
		Host:      m.opts.Host,
		Blinds:    m.blinds,
		NewBlinds: m.newBlinds,
		Stopped:   m.phase == phaseStopped,
		Err:       m.err,
	}
}

// View renders the pairing screen
func (m PairingModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Pair new blinds"))
	b.WriteString("\n")
	if m.opts.DeviceID != "" {
		b.WriteString(SubtitleStyle.Render("Controller " + m.opts.DeviceID))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.statusLine())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(RenderError(eleroapi.ShortMessage(m.err)))
		b.WriteString("\n")
	}

	b.WriteString(SectionStyle.Render(fmt.Sprintf("Paired this session (%d)", len(m.newBlinds))))
	b.WriteString("\n")
	if len(m.newBlinds) > 0 {
		b.WriteString(ui.RenderBlindTable(m.newBlinds, m.opts.Labels))
	} else {
		b.WriteString(SubtitleStyle.Render("None yet"))
	}
	b.WriteString("\n")

	b.WriteString(SubtitleStyle.Render(m.listingSummary()))
	b.WriteString("\n")

	return RenderApplicationContainer(m.opts.Host, b.String(), m.Help.View(m.Keys), m.Width, m.Height)
}

func (m PairingModel) statusLine() string {
	switch m.phase {
	case phaseStarting:
		return StatusStyle.Render(m.Spinner.View() + " Switching discovery on...")
	case phaseActive:
		left := m.opts.Window - time.Since(m.startedAt)
		if left < 0 {
			left = 0
		}
		return StatusStyle.Render(fmt.Sprintf("%s Discovery active: put the blind's remote in pairing mode (%s left)",
			m.Spinner.View(), left.Round(time.Second)))
	case phaseStopping:
		return StatusStyle.Render(m.Spinner.View() + " Switching discovery off...")
	case phaseStopped:
		return RenderSuccess("Discovery stopped")
	default:
		return RenderError("Discovery state unknown, check the controller")
	}
}

func (m PairingModel) listingSummary() string {
	if m.lastRefresh.IsZero() {
		return "Loading blinds..."
	}
	return fmt.Sprintf("%d blinds known, refreshed %s", len(m.blinds), m.lastRefresh.Format("15:04:05"))
}
