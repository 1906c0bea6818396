package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the monitor UI
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - available, on
	ErrorColor   = lipgloss.Color("#FF5555") // Red - unavailable
	WarningColor = lipgloss.Color("#FFA500") // Orange - binding, pending
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

var (
	// TitleStyle is for the monitor header line
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Bold(true).
			Padding(0, 2)

	// SelectedRowStyle highlights the device under the cursor
	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true)

	// RowStyle is for unselected device rows
	RowStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// AvailableStyle marks a responsive device
	AvailableStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// UnavailableStyle marks an unresponsive device
	UnavailableStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	// BindingStyle marks a device still completing its handshake
	BindingStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// StatusLineStyle is for the per-device capability summary
	StatusLineStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			PaddingLeft(4)

	// HintStyle is for transient messages above the help line
	HintStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	// BorderStyle frames the device table
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 1)
)
