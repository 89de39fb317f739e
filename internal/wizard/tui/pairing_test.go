package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/eleropi/eleropi-go/pkg/eleroapi"
)

// fakeController records calls in order. Blinds in pairAfterStart show up
// in the listing once discovery has been started.
type fakeController struct {
	mu             sync.Mutex
	calls          []string
	blinds         []eleroapi.Blind
	pairAfterStart []eleroapi.Blind
	startErr       error
	stopErr        error
	blindsErr      error
}

func (f *fakeController) GetBlinds(ctx context.Context) ([]eleroapi.Blind, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "blinds")
	if f.blindsErr != nil {
		return nil, f.blindsErr
	}
	return append([]eleroapi.Blind(nil), f.blinds...), nil
}

func (f *fakeController) StartDiscovery(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "start")
	if f.startErr != nil {
		return f.startErr
	}
	f.blinds = append(f.blinds, f.pairAfterStart...)
	f.pairAfterStart = nil
	return nil
}

func (f *fakeController) StopDiscovery(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "stop")
	return f.stopErr
}

func (f *fakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func blind(id, name string) eleroapi.Blind {
	return eleroapi.Blind{"blind_id": id, "name": name}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd and every command that follows from it, feeding results
// back into the model, until nothing is left or the program quits.
func drain(t *testing.T, m PairingModel, cmd tea.Cmd) (PairingModel, bool) {
	t.Helper()
	pending := []tea.Cmd{cmd}
	for steps := 0; len(pending) > 0; steps++ {
		if steps > 200 {
			t.Fatal("pairing session did not settle")
		}
		c := pending[0]
		pending = pending[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			pending = append(pending, msg...)
		case tea.QuitMsg:
			return m, true
		case spinner.TickMsg:
		default:
			updated, next := m.Update(msg)
			m = updated.(PairingModel)
			pending = append(pending, next)
		}
	}
	return m, false
}

// step feeds msg to the model and runs the single command it returns
func step(t *testing.T, m PairingModel, msg tea.Msg) (PairingModel, tea.Msg) {
	t.Helper()
	updated, cmd := m.Update(msg)
	m = updated.(PairingModel)
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func equalCalls(got, want []string) bool {
	return strings.Join(got, ",") == strings.Join(want, ",")
}

func TestPairing_FullSessionDetectsNewBlinds(t *testing.T) {
	ctrl := &fakeController{
		blinds:         []eleroapi.Blind{blind("b1", "Kitchen")},
		pairAfterStart: []eleroapi.Blind{blind("b2", "Office")},
	}
	m := NewPairingModel(context.Background(), ctrl, PairingOptions{
		DeviceID:     "abc123",
		Host:         "eleropi.local",
		Window:       time.Millisecond,
		PollInterval: time.Millisecond,
	})

	m, quit := drain(t, m, m.Init())
	if quit {
		t.Fatal("session quit without a key press")
	}

	want := []string{"blinds", "start", "stop", "blinds"}
	if got := ctrl.Calls(); !equalCalls(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}

	res := m.Result()
	if !res.Stopped {
		t.Error("Stopped = false, want true after the window expired")
	}
	if res.Err != nil {
		t.Errorf("Err = %v, want nil", res.Err)
	}
	if len(res.Blinds) != 2 {
		t.Errorf("len(Blinds) = %d, want 2", len(res.Blinds))
	}
	if len(res.NewBlinds) != 1 || res.NewBlinds[0].ID() != "b2" {
		t.Errorf("NewBlinds = %v, want [b2]", res.NewBlinds)
	}
	if res.DeviceID != "abc123" || res.Host != "eleropi.local" {
		t.Errorf("Result identity = %q/%q", res.DeviceID, res.Host)
	}

	view := m.View()
	for _, want := range []string{"Discovery stopped", "Paired this session (1)", "Office"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() should contain %q", want)
		}
	}
}

func TestPairing_BaselineBeforeStart(t *testing.T) {
	ctrl := &fakeController{blinds: []eleroapi.Blind{blind("b1", "")}}
	m := NewPairingModel(context.Background(), ctrl, PairingOptions{Window: time.Hour, PollInterval: time.Hour})

	m, msg := step(t, m, beginPairingMsg{})
	if _, ok := msg.(blindsLoadedMsg); !ok {
		t.Fatalf("first command produced %T, want blindsLoadedMsg", msg)
	}
	if got := ctrl.Calls(); !equalCalls(got, []string{"blinds"}) {
		t.Fatalf("calls = %v, want only the baseline listing", got)
	}

	m, msg = step(t, m, msg)
	if _, ok := msg.(discoveryStartedMsg); !ok {
		t.Fatalf("second command produced %T, want discoveryStartedMsg", msg)
	}

	updated, _ := m.Update(msg)
	m = updated.(PairingModel)
	if m.phase != phaseActive {
		t.Errorf("phase = %v, want active", m.phase)
	}
	if !m.baseline["b1"] {
		t.Error("baseline should contain b1")
	}
	if len(m.newBlinds) != 0 {
		t.Errorf("newBlinds = %v, want none", m.newBlinds)
	}
}

func TestPairing_QuitStopsDiscoveryFirst(t *testing.T) {
	ctrl := &fakeController{}
	m := NewPairingModel(context.Background(), ctrl, PairingOptions{Window: time.Hour, PollInterval: time.Hour})

	m, msg := step(t, m, beginPairingMsg{})
	m, msg = step(t, m, msg)
	updated, _ := m.Update(msg) // discovery started; drop the poll timer
	m = updated.(PairingModel)

	m, msg = step(t, m, keyMsg("q"))
	if _, ok := msg.(discoveryStoppedMsg); !ok {
		t.Fatalf("q produced %T, want discoveryStoppedMsg", msg)
	}
	if m.phase != phaseStopping {
		t.Errorf("phase = %v, want stopping", m.phase)
	}

	m, msg = step(t, m, msg)
	if _, ok := msg.(tea.QuitMsg); !ok {
		t.Fatalf("after stop got %T, want tea.QuitMsg", msg)
	}
	if !m.Result().Stopped {
		t.Error("Stopped = false, want true")
	}

	want := []string{"blinds", "start", "stop"}
	if got := ctrl.Calls(); !equalCalls(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestPairing_SecondQuitForcesExit(t *testing.T) {
	ctrl := &fakeController{}
	m := NewPairingModel(context.Background(), ctrl, PairingOptions{})

	updated, cmd := m.Update(keyMsg("q"))
	m = updated.(PairingModel)
	if cmd == nil {
		t.Fatal("first q should request a stop")
	}

	_, cmd = m.Update(keyMsg("ctrl+c"))
	if cmd == nil {
		t.Fatal("second quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("second quit should exit immediately")
	}
}

func TestPairing_QuitWhileStarting(t *testing.T) {
	ctrl := &fakeController{}
	m := NewPairingModel(context.Background(), ctrl, PairingOptions{Window: time.Hour, PollInterval: time.Hour})

	m, msg := step(t, m, beginPairingMsg{})
	m, startMsg := step(t, m, msg) // start is now in flight

	updated, cmd := m.Update(keyMsg("esc"))
	m = updated.(PairingModel)
	if cmd != nil {
		t.Fatal("stop must wait for the in-flight start")
	}

	m, msg = step(t, m, startMsg)
	if _, ok := msg.(discoveryStoppedMsg); !ok {
		t.Fatalf("after start got %T, want queued discoveryStoppedMsg", msg)
	}

	_, msg = step(t, m, msg)
	if _, ok := msg.(tea.QuitMsg); !ok {
		t.Errorf("after stop got %T, want tea.QuitMsg", msg)
	}
}

func TestPairing_StartFailure(t *testing.T) {
	ctrl := &fakeController{startErr: eleroapi.NewRequestError("cannot put device in discovery")}
	m := NewPairingModel(context.Background(), ctrl, PairingOptions{Window: time.Hour, PollInterval: time.Hour})

	m, _ = drain(t, m, func() tea.Msg { return beginPairingMsg{} })

	if m.phase != phaseFailed {
		t.Errorf("phase = %v, want failed", m.phase)
	}
	res := m.Result()
	if !eleroapi.IsRequestError(res.Err) {
		t.Errorf("Err = %v, want RequestError", res.Err)
	}
	if res.Stopped {
		t.Error("Stopped = true after a failed start")
	}
	if !strings.Contains(m.View(), "cannot put device in discovery") {
		t.Error("View() should show the failure")
	}

	// d retries
	ctrl.startErr = nil
	updated, cmd := m.Update(keyMsg("d"))
	m = updated.(PairingModel)
	if m.phase != phaseStarting || cmd == nil {
		t.Fatalf("d should restart discovery, phase = %v", m.phase)
	}
	if _, ok := cmd().(discoveryStartedMsg); !ok {
		t.Error("d should issue StartDiscovery")
	}
}

func TestPairing_RequestsAreSerialized(t *testing.T) {
	ctrl := &fakeController{}
	m := NewPairingModel(context.Background(), ctrl, PairingOptions{})

	updated, first := m.Update(beginPairingMsg{})
	m = updated.(PairingModel)
	if first == nil {
		t.Fatal("begin issued nothing")
	}
	if m.inflight != requestBlinds {
		t.Errorf("inflight = %v, want blinds", m.inflight)
	}

	// refreshing while the same request is in flight is a no-op
	updated, cmd := m.Update(keyMsg("r"))
	m = updated.(PairingModel)
	if cmd != nil {
		t.Error("refresh should not issue a second concurrent call")
	}

	updated, cmd = m.Update(keyMsg("s"))
	m = updated.(PairingModel)
	if cmd != nil {
		t.Error("stop should queue behind the in-flight call")
	}
	updated, _ = m.Update(keyMsg("s"))
	m = updated.(PairingModel)

	want := []request{requestStart, requestStop}
	if len(m.queue) != len(want) {
		t.Fatalf("queue = %v, want %v", m.queue, want)
	}
	for i := range want {
		if m.queue[i] != want[i] {
			t.Errorf("queue[%d] = %v, want %v", i, m.queue[i], want[i])
		}
	}
}

func TestPairing_RefreshErrorKeepsListing(t *testing.T) {
	m := NewPairingModel(context.Background(), &fakeController{}, PairingOptions{})

	m.applyBlinds(blindsLoadedMsg{blinds: []eleroapi.Blind{blind("b1", "")}})
	m.applyBlinds(blindsLoadedMsg{err: errors.New("timeout")})

	if len(m.blinds) != 1 {
		t.Errorf("blinds = %v, want previous listing kept", m.blinds)
	}
	if m.err == nil {
		t.Error("err should be set after a failed refresh")
	}

	m.applyBlinds(blindsLoadedMsg{blinds: []eleroapi.Blind{blind("b1", ""), blind("b3", "")}})
	if m.err != nil {
		t.Errorf("err = %v, want cleared after a good refresh", m.err)
	}
	if len(m.newBlinds) != 1 || m.newBlinds[0].ID() != "b3" {
		t.Errorf("newBlinds = %v, want [b3]", m.newBlinds)
	}

	// seen again: not reported twice
	m.applyBlinds(blindsLoadedMsg{blinds: []eleroapi.Blind{blind("b1", ""), blind("b3", "")}})
	if len(m.newBlinds) != 1 {
		t.Errorf("newBlinds = %v, want b3 reported once", m.newBlinds)
	}
}

func TestPairing_Defaults(t *testing.T) {
	m := NewPairingModel(context.Background(), &fakeController{}, PairingOptions{})
	if m.opts.Window != DefaultPairingWindow {
		t.Errorf("Window = %v, want %v", m.opts.Window, DefaultPairingWindow)
	}
	if m.opts.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", m.opts.PollInterval, DefaultPollInterval)
	}
	if !strings.Contains(m.View(), "Switching discovery on") {
		t.Error("initial View() should show the starting status")
	}
}
