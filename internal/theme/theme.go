// Package theme holds the light and dark palettes and the styles built from them.
package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Mode is a color scheme.
type Mode int

const (
	Light Mode = iota
	Dark
)

func (m Mode) String() string {
	if m == Dark {
		return "dark"
	}
	return "light"
}

// Preference values accepted by ParsePreference.
const (
	PrefAuto  = "auto"
	PrefLight = "light"
	PrefDark  = "dark"
)

// ParsePreference validates a theme setting. Empty means auto.
func ParsePreference(s string) (string, error) {
	switch p := strings.ToLower(strings.TrimSpace(s)); p {
	case "":
		return PrefAuto, nil
	case PrefAuto, PrefLight, PrefDark:
		return p, nil
	default:
		return "", fmt.Errorf("invalid theme %q (want auto, light or dark)", s)
	}
}

// Detect resolves a preference to a mode. Auto asks the terminal for its
// background color; out may be nil when there is no terminal.
func Detect(pref string, out *termenv.Output) Mode {
	switch pref {
	case PrefLight:
		return Light
	case PrefDark:
		return Dark
	}
	if out != nil && out.HasDarkBackground() {
		return Dark
	}
	return Light
}

type palette struct {
	text, muted, accent, done, danger, warn, badge lipgloss.Color
}

var palettes = map[Mode]palette{
	Light: {
		text:   "#1F2937",
		muted:  "#6B7280",
		accent: "#2563EB",
		done:   "#9CA3AF",
		danger: "#DC2626",
		warn:   "#B45309",
		badge:  "#7C3AED",
	},
	Dark: {
		text:   "#E5E7EB",
		muted:  "#9CA3AF",
		accent: "#60A5FA",
		done:   "#6B7280",
		danger: "#F87171",
		warn:   "#FBBF24",
		badge:  "#A78BFA",
	},
}

// Theme is a set of styles for one mode.
type Theme struct {
	Mode Mode

	Title    lipgloss.Style
	Header   lipgloss.Style
	Text     lipgloss.Style
	Muted    lipgloss.Style
	Done     lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Badge    lipgloss.Style

	renderer *lipgloss.Renderer
}

// New builds the styles for mode. A nil renderer uses lipgloss's default,
// which writes to stdout.
func New(mode Mode, r *lipgloss.Renderer) *Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	p := palettes[mode]
	return &Theme{
		Mode:     mode,
		Title:    r.NewStyle().Bold(true).Foreground(p.accent),
		Header:   r.NewStyle().Bold(true).Foreground(p.text),
		Text:     r.NewStyle().Foreground(p.text),
		Muted:    r.NewStyle().Foreground(p.muted),
		Done:     r.NewStyle().Foreground(p.done).Strikethrough(true),
		Selected: r.NewStyle().Bold(true).Foreground(p.accent),
		Error:    r.NewStyle().Foreground(p.danger),
		Warning:  r.NewStyle().Foreground(p.warn),
		Badge:    r.NewStyle().Foreground(p.badge).Bold(true),
		renderer: r,
	}
}

// Toggle returns the theme for the other mode.
func (t *Theme) Toggle() *Theme {
	if t.Mode == Dark {
		return New(Light, t.renderer)
	}
	return New(Dark, t.renderer)
}
