// Package tui implements the interactive pairing screen used by `eleropi pair`.
//
// Built on Bubble Tea, it follows the Model-Update-View pattern. Controller
// calls run as commands and report back as messages.
//
// # Screens
//
//   - Picker: browses mDNS for controllers and lets the user choose one.
//     Skipped when the command already has a host.
//   - Connecting: logs in to the chosen controller.
//   - Pairing: switches discovery on, polls the blind listing and highlights
//     blinds that appear, then switches discovery off when the window
//     expires or the user stops it.
//
// All screens share RenderApplicationContainer for the header, content
// area and footer.
//
// # Usage Example
//
//	app := tui.NewAppModel(ctx, tui.AppConfig{
//	    Controller: client,
//	    Pairing:    tui.PairingOptions{DeviceID: id, Host: host},
//	})
//	final, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
//	if err != nil {
//	    return err
//	}
//	result := final.(tui.AppModel).Result()
//
// # Key Bindings
//
//   - Picker: ↑/↓ navigate, enter select, r rescan, q quit
//   - Pairing: r refresh, s stop discovery, d discover again, q stop & quit
//
// Quitting the pairing screen always tries to switch discovery off first.
// Pressing q a second time exits without waiting.
//
// # Thread Safety
//
// eleroapi.Client is not safe for concurrent use, so the pairing screen keeps
// at most one controller call in flight and queues the rest.
package tui
