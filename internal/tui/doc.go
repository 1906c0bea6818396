// Package tui implements the interactive device monitor built on Bubble
// Tea.
//
// The monitor renders the engine's session table once a second and lets
// the user steer the selected device: power, operating mode, and the
// temperature setpoint. Reading each device's status on every repaint
// is what keeps the engine polling it; devices go idle again when the
// monitor exits.
//
// Libraries used:
//   - bubbletea: the Elm-style model/update/view loop
//   - bubbles/spinner, bubbles/key, bubbles/help: widgets and keymaps
//   - lipgloss: styling
package tui
