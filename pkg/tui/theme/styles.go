package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Saffron-on-slate palette
var (
	ColorBase00 = lipgloss.Color("#15171c") // Background
	ColorBase01 = lipgloss.Color("#1f232b") // Raised background
	ColorBase02 = lipgloss.Color("#2b313b") // Selection
	ColorBase03 = lipgloss.Color("#545e6e") // Muted text, borders
	ColorBase05 = lipgloss.Color("#b8c0cc") // Default foreground
	ColorBase07 = lipgloss.Color("#eef1f5") // Brightest foreground

	ColorRed     = lipgloss.Color("#e06c6c")
	ColorSaffron = lipgloss.Color("#f4a340")
	ColorYellow  = lipgloss.Color("#e8c468")
	ColorGreen   = lipgloss.Color("#8cc084")
	ColorCyan    = lipgloss.Color("#5fb3b3")
	ColorBlue    = lipgloss.Color("#6c9bd2")
	ColorPurple  = lipgloss.Color("#a98bd6")

	ColorBorder  = ColorBase03
	ColorFocus   = ColorSaffron
	ColorSuccess = ColorGreen
	ColorWarning = ColorYellow
	ColorError   = ColorRed
	ColorInfo    = ColorCyan
	ColorMuted   = ColorBase03
)

// Styles defines the lipgloss styles shared by the chat view and renderer
type Styles struct {
	// Layout
	Header     lipgloss.Style
	ChatFooter lipgloss.Style
	Help       lipgloss.Style

	// Input
	InputBorder      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// Messages
	UserLabel       lipgloss.Style
	AgentLabel      lipgloss.Style
	UserMessage     lipgloss.Style
	AgentMessage    lipgloss.Style
	ErrorMessage    lipgloss.Style
	Timestamp       lipgloss.Style
	TypingIndicator lipgloss.Style

	// Connection
	Connected    lipgloss.Style
	Connecting   lipgloss.Style
	Disconnected lipgloss.Style

	// Review cards
	FindingCard  lipgloss.Style
	FindingTitle lipgloss.Style
	Suggestion   lipgloss.Style
	CodeFix      lipgloss.Style
}

// DefaultStyles returns the default styles
func DefaultStyles() *Styles {
	return &Styles{
		Header: lipgloss.NewStyle().
			Foreground(ColorFocus).
			Bold(true).
			Padding(0, 1),

		ChatFooter: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true),

		InputBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorFocus).
			Padding(0, 1),

		InputPlaceholder: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true),

		UserLabel: lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true),

		AgentLabel: lipgloss.NewStyle().
			Foreground(ColorSaffron).
			Bold(true),

		UserMessage: lipgloss.NewStyle().
			Foreground(ColorBase07),

		AgentMessage: lipgloss.NewStyle().
			Foreground(ColorBase05),

		ErrorMessage: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		Timestamp: lipgloss.NewStyle().
			Foreground(ColorMuted),

		TypingIndicator: lipgloss.NewStyle().
			Foreground(ColorInfo).
			Italic(true),

		Connected: lipgloss.NewStyle().
			Foreground(ColorSuccess),

		Connecting: lipgloss.NewStyle().
			Foreground(ColorWarning),

		Disconnected: lipgloss.NewStyle().
			Foreground(ColorError),

		FindingCard: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1),

		FindingTitle: lipgloss.NewStyle().
			Bold(true),

		Suggestion: lipgloss.NewStyle().
			Foreground(ColorGreen),

		CodeFix: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(ColorSaffron).
			PaddingLeft(1),
	}
}

// SeverityColor maps a review severity or risk level to a color
func SeverityColor(severity string) lipgloss.Color {
	switch strings.ToUpper(strings.TrimSpace(severity)) {
	case "CRITICAL", "HIGH":
		return ColorRed
	case "MEDIUM":
		return ColorSaffron
	case "LOW":
		return ColorYellow
	case "NONE", "INFO":
		return ColorGreen
	default:
		return ColorMuted
	}
}
