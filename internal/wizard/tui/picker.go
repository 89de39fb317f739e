package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/eleropi/eleropi-go/internal/discovery"
)

// ScanFunc browses the network for controllers
type ScanFunc func(ctx context.Context) ([]*discovery.Device, error)

type scanStartMsg struct{}
type scanCompleteMsg struct {
	devices []*discovery.Device
	err     error
}

// controllerSelectedMsg is emitted when the user picks a controller
type controllerSelectedMsg struct {
	device *discovery.Device
}

type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Enter}, {k.Rescan, k.Quit}}
}

// deviceItem wraps a Device for use with bubbles/list
type deviceItem struct {
	device *discovery.Device
}

func (d deviceItem) FilterValue() string {
	return d.device.Host() + " " + d.device.IP
}

func (d deviceItem) Title() string {
	return d.device.Host()
}

func (d deviceItem) Description() string {
	desc := fmt.Sprintf("%s:%d", d.device.IP, d.device.Port)
	if d.device.Instance != "" {
		desc += " • " + d.device.Instance
	}
	return desc
}

// PickerModel lists controllers found via mDNS and lets the user pick one
type PickerModel struct {
	ctx  context.Context
	scan ScanFunc

	Scanning   bool
	DeviceList list.Model
	Err        error

	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    pickerKeyMap
}

// NewPickerModel creates the controller picker
func NewPickerModel(ctx context.Context, scan ScanFunc) PickerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(HighlightColor).
		BorderForeground(HighlightColor)

	deviceList := list.New([]list.Item{}, delegate, 0, 0)
	deviceList.Title = "EleroPi controllers"
	deviceList.SetShowStatusBar(false)
	deviceList.SetShowHelp(false)
	deviceList.SetFilteringEnabled(false)
	deviceList.Styles.Title = TitleStyle

	return PickerModel{
		ctx:        ctx,
		scan:       scan,
		DeviceList: deviceList,
		Spinner:    s,
		Help:       help.New(),
		Keys: pickerKeyMap{
			Up: key.NewBinding(
				key.WithKeys("up", "k"),
				key.WithHelp("↑/k", "move up"),
			),
			Down: key.NewBinding(
				key.WithKeys("down", "j"),
				key.WithHelp("↓/j", "move down"),
			),
			Enter: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "pair with"),
			),
			Rescan: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "rescan"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "esc", "ctrl+c"),
				key.WithHelp("q", "quit"),
			),
		},
	}
}

// Init starts scanning immediately
func (m PickerModel) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		m.Spinner.Tick,
	)
}

// Update handles messages and updates the model
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.DeviceList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case scanStartMsg:
		if m.Scanning {
			return m, nil
		}
		m.Scanning = true
		m.Err = nil
		m.DeviceList.SetItems(nil)
		return m, m.scanCmd()

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, len(msg.devices))
		for i, d := range msg.devices {
			items[i] = deviceItem{device: d}
		}
		cmd := m.DeviceList.SetItems(items)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m PickerModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case m.Scanning:
		return m, nil

	case key.Matches(msg, m.Keys.Rescan):
		return m, func() tea.Msg { return scanStartMsg{} }

	case key.Matches(msg, m.Keys.Enter):
		if d := m.SelectedDevice(); d != nil {
			return m, func() tea.Msg { return controllerSelectedMsg{device: d} }
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.DeviceList, cmd = m.DeviceList.Update(msg)
	return m, cmd
}

func (m PickerModel) scanCmd() tea.Cmd {
	ctx, scan := m.ctx, m.scan
	return func() tea.Msg {
		devices, err := scan(ctx)
		return scanCompleteMsg{devices: devices, err: err}
	}
}

// SelectedDevice returns the highlighted controller, or nil
func (m PickerModel) SelectedDevice() *discovery.Device {
	if item, ok := m.DeviceList.SelectedItem().(deviceItem); ok {
		return item.device
	}
	return nil
}

// View renders the picker
func (m PickerModel) View() string {
	var content string
	switch {
	case m.Scanning:
		content = "\n" + StatusStyle.Render(m.Spinner.View()+" Browsing mDNS for EleroPi controllers...") + "\n"
	case m.Err != nil:
		content = "\n" + RenderError("Scan failed: "+m.Err.Error()) + "\n" + troubleshootingText()
	case len(m.DeviceList.Items()) == 0:
		content = "\n" + StatusStyle.Render("⚠ No controllers found on your network") + "\n" + troubleshootingText()
	default:
		content = m.DeviceList.View()
	}

	return RenderApplicationContainer("", content, m.Help.View(m.Keys), m.Width, m.Height)
}

func troubleshootingText() string {
	var b strings.Builder
	b.WriteString("\n  Troubleshooting:\n")
	b.WriteString("    • Ensure the Raspberry Pi is powered on and eleropi is running\n")
	b.WriteString("    • Make sure this machine is on the same network segment\n")
	b.WriteString("    • Check that UDP port 5353 (mDNS) is not blocked\n")
	b.WriteString("    • Or skip scanning: eleropi pair --host <address>\n")
	return b.String()
}
