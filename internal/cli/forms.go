package cli

import (
	"fmt"
	"strings"

	"github.com/calegray/manse/internal/cli/formatter"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// manseHuhTheme returns a custom huh theme using the existing Gruvbox palette.
func manseHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	// Focused state: orange accent
	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	// Blurred state: dimmed
	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// runRoomAddForm walks the user through picking a catalogue room and naming
// their variant of it.
func runRoomAddForm(app *App) (definitionID, variantName, why string, err error) {
	var wing string
	wings := app.Catalogue.Wings()
	wingOpts := make([]huh.Option[string], 0, len(wings))
	for _, w := range wings {
		wingOpts = append(wingOpts, huh.NewOption(string(w.Name), string(w.Name)))
	}

	wingForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which Wing?").
				Options(wingOpts...).
				Value(&wing),
		),
	).WithTheme(manseHuhTheme()).WithShowHelp(false)
	if err = wingForm.Run(); err != nil {
		return "", "", "", err
	}

	roomOpts := make([]huh.Option[string], 0, 12)
	for _, w := range wings {
		if string(w.Name) != wing {
			continue
		}
		for _, r := range w.Rooms {
			label := fmt.Sprintf("%s — %s", r.ID, r.Name)
			roomOpts = append(roomOpts, huh.NewOption(label, r.ID))
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which Room?").
				Options(roomOpts...).
				Value(&definitionID),
			huh.NewInput().
				Title("Variant Name").
				Placeholder("Balcony Chair").
				Value(&variantName).
				Validate(validateRequired("variant name")),
			huh.NewInput().
				Title("Why This Room?").
				Placeholder("What pulls you here").
				Value(&why),
		),
	).WithTheme(manseHuhTheme()).WithShowHelp(false)
	if err = form.Run(); err != nil {
		return "", "", "", err
	}
	return definitionID, strings.TrimSpace(variantName), strings.TrimSpace(why), nil
}
