package formatter

import (
	"fmt"
	"strings"

	"github.com/calegray/manse/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// HealthStyle colors a computed health score: green above 0.7, yellow above
// 0.4, red below.
func HealthStyle(health float64) lipgloss.Style {
	switch {
	case health > 0.7:
		return StyleGreen
	case health > 0.4:
		return StyleYellow
	default:
		return StyleRed
	}
}

// FrictionIndicator renders a colored friction marker.
func FrictionIndicator(f domain.FrictionLevel) string {
	switch f {
	case domain.FrictionZero:
		return StyleGreen.Render("○ zero")
	case domain.FrictionLow:
		return StyleGreen.Render("◔ low")
	case domain.FrictionMedium:
		return StyleYellow.Render("◑ medium")
	case domain.FrictionHigh:
		return StyleRed.Render("● high")
	default:
		return StyleDim.Render("? " + string(f))
	}
}

// MasteryBadge renders "Keeper (7)" with the level color deepening toward
// purple at the top bands.
func MasteryBadge(totalMinutes int) string {
	level := domain.MasteryLevel(totalMinutes)
	title := domain.MasteryTitle(totalMinutes)
	style := StyleBlue
	if level >= 8 {
		style = StylePurple
	}
	return style.Render(fmt.Sprintf("%s (%d)", title, level))
}

// Header renders a section header with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
