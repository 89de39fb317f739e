package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/eleropi/eleropi-go/internal/discovery"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenPicker     Screen = "picker"
	ScreenConnecting Screen = "connecting"
	ScreenPairing    Screen = "pairing"
)

// ConnectFunc builds an authenticated controller for a picked device and
// returns its device id
type ConnectFunc func(ctx context.Context, device *discovery.Device) (Controller, string, error)

type connectedMsg struct {
	ctrl     Controller
	deviceID string
	host     string
	err      error
}

// AppConfig configures the pairing application. When Controller is set the
// picker is skipped; otherwise Scan and Connect are required.
type AppConfig struct {
	Controller Controller
	Pairing    PairingOptions

	Scan    ScanFunc
	Connect ConnectFunc
}

// AppModel coordinates the picker and pairing screens
type AppModel struct {
	ctx context.Context
	cfg AppConfig

	CurrentScreen Screen
	Picker        PickerModel
	Pairing       PairingModel
	pairingReady  bool

	Width  int
	Height int
}

// NewAppModel creates the application, starting at the picker unless a
// controller is already connected
func NewAppModel(ctx context.Context, cfg AppConfig) AppModel {
	m := AppModel{
		ctx: ctx,
		cfg: cfg,
	}

	if cfg.Controller != nil {
		m.CurrentScreen = ScreenPairing
		m.Pairing = NewPairingModel(ctx, cfg.Controller, cfg.Pairing)
		m.pairingReady = true
		return m
	}

	m.CurrentScreen = ScreenPicker
	m.Picker = NewPickerModel(ctx, cfg.Scan)
	return m
}

// Init starts the first screen
func (m AppModel) Init() tea.Cmd {
	if m.CurrentScreen == ScreenPairing {
		return m.Pairing.Init()
	}
	return m.Picker.Init()
}

// Update routes messages to the active screen and handles transitions
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		var cmd tea.Cmd
		if m.pairingReady {
			var updated tea.Model
			updated, cmd = m.Pairing.Update(msg)
			m.Pairing = updated.(PairingModel)
		}
		// the picker is only built when no controller was passed in
		if m.cfg.Controller == nil {
			updated, _ := m.Picker.Update(msg)
			m.Picker = updated.(PickerModel)
		}
		return m, cmd

	case controllerSelectedMsg:
		m.CurrentScreen = ScreenConnecting
		return m, m.connectCmd(msg.device)

	case connectedMsg:
		if msg.err != nil {
			m.CurrentScreen = ScreenPicker
			m.Picker.Err = msg.err
			return m, nil
		}
		opts := m.cfg.Pairing
		opts.DeviceID = msg.deviceID
		opts.Host = msg.host
		m.Pairing = NewPairingModel(m.ctx, msg.ctrl, opts)
		m.Pairing.Width, m.Pairing.Height = m.Width, m.Height
		m.pairingReady = true
		m.CurrentScreen = ScreenPairing
		return m, m.Pairing.Init()
	}

	switch m.CurrentScreen {
	case ScreenPairing:
		updated, cmd := m.Pairing.Update(msg)
		m.Pairing = updated.(PairingModel)
		return m, cmd
	case ScreenConnecting:
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "ctrl+c" {
			return m, tea.Quit
		}
		updated, cmd := m.Picker.Update(msg)
		m.Picker = updated.(PickerModel)
		if _, ok := msg.(tea.KeyMsg); ok {
			// ignore navigation while connecting
			return m, nil
		}
		return m, cmd
	default:
		updated, cmd := m.Picker.Update(msg)
		m.Picker = updated.(PickerModel)
		return m, cmd
	}
}

func (m AppModel) connectCmd(device *discovery.Device) tea.Cmd {
	ctx, connect := m.ctx, m.cfg.Connect
	return func() tea.Msg {
		ctrl, deviceID, err := connect(ctx, device)
		return connectedMsg{ctrl: ctrl, deviceID: deviceID, host: device.Host(), err: err}
	}
}

// View renders the active screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenPairing:
		return m.Pairing.View()
	case ScreenConnecting:
		content := "\n" + StatusStyle.Render(m.Picker.Spinner.View()+" Connecting and logging in...") + "\n"
		return RenderApplicationContainer("", content, "ctrl+c quit", m.Width, m.Height)
	default:
		return m.Picker.View()
	}
}

// Result returns the pairing outcome. If no controller was ever connected,
// only Err is set.
func (m AppModel) Result() PairingResult {
	if !m.pairingReady {
		return PairingResult{Err: m.Picker.Err}
	}
	return m.Pairing.Result()
}
