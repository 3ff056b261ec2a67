package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Rule is the horizontal separator framing diagnosis output.
const Rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// Palette decorates console text. Renderers treat every entry as an opaque
// string transform.
type Palette struct {
	Red       func(string) string
	Yellow    func(string) string
	Cyan      func(string) string
	GreenBold func(string) string
	White     func(string) string
	Dim       func(string) string
}

// DefaultPalette returns lipgloss-backed styles. lipgloss drops the escape
// sequences on its own when stdout is not a terminal.
func DefaultPalette() Palette {
	return Palette{
		Red:       styleFunc(lipgloss.NewStyle().Foreground(lipgloss.Color("9"))),
		Yellow:    styleFunc(lipgloss.NewStyle().Foreground(lipgloss.Color("11"))),
		Cyan:      styleFunc(lipgloss.NewStyle().Foreground(lipgloss.Color("14"))),
		GreenBold: styleFunc(lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)),
		White:     styleFunc(lipgloss.NewStyle().Foreground(lipgloss.Color("15"))),
		Dim:       styleFunc(lipgloss.NewStyle().Faint(true)),
	}
}

// PlainPalette leaves text untouched.
func PlainPalette() Palette {
	id := func(s string) string { return s }
	return Palette{Red: id, Yellow: id, Cyan: id, GreenBold: id, White: id, Dim: id}
}

func styleFunc(s lipgloss.Style) func(string) string {
	return func(text string) string {
		// Render pads multi-line input into a block, so style line by line.
		lines := strings.Split(text, "\n")
		for i, l := range lines {
			if l != "" {
				lines[i] = s.Render(l)
			}
		}
		return strings.Join(lines, "\n")
	}
}
