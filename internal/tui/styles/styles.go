package styles

import "github.com/charmbracelet/lipgloss"

// Area states as rendered by the tree views.
const (
	StateVisible = "visible"
	StateHidden  = "hidden"
	// StateMasked is an area that is visible on its own but hidden by an ancestor.
	StateMasked = "masked"
)

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	// Header
	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(BorderColor).
		MarginBottom(1).
		PaddingBottom(1)

	// Tree rows
	Row = lipgloss.NewStyle().
		Padding(0, 1)

	RowActive = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Background(PrimaryColor).
			Padding(0, 1)

	Owner = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	// Event log pane
	EventLog = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	// Help bar
	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	// Error message
	ErrorMsg = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)
)

// State returns the display state of an area from its own and effective
// visibility.
func State(own, effective bool) string {
	switch {
	case effective:
		return StateVisible
	case own:
		return StateMasked
	default:
		return StateHidden
	}
}

// StateColor returns the color for an area state
func StateColor(state string) lipgloss.Color {
	switch state {
	case StateVisible:
		return SecondaryColor
	case StateHidden:
		return ErrorColor
	case StateMasked:
		return WarningColor
	default:
		return MutedColor
	}
}

// StateIcon returns the icon for an area state
func StateIcon(state string) string {
	switch state {
	case StateVisible:
		return "●"
	case StateHidden:
		return "○"
	case StateMasked:
		return "◌"
	default:
		return "?"
	}
}

// RenderState renders an icon and label for an area state.
func RenderState(state string) string {
	return lipgloss.NewStyle().Foreground(StateColor(state)).Render(StateIcon(state) + " " + state)
}
