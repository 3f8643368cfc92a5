package tui

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
)

// theme is the set of styles for one palette.
type theme struct {
	name   string // glamour style path
	title  lipgloss.Style
	muted  lipgloss.Style
	border lipgloss.Style
	active lipgloss.Style
	status lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	spin   lipgloss.Style
}

func newTheme(dark bool) theme {
	// Brand red/coral/teal from the web version; text colors follow the background.
	red, coral, teal := lipgloss.Color("#E30613"), lipgloss.Color("#FF6F61"), lipgloss.Color("#00A19A")
	text, muted, frame := lipgloss.Color("236"), lipgloss.Color("244"), lipgloss.Color("250")
	name := "light"
	if dark {
		text, muted, frame = lipgloss.Color("252"), lipgloss.Color("245"), lipgloss.Color("240")
		name = "dark"
	}
	return theme{
		name:   name,
		title:  lipgloss.NewStyle().Bold(true).Foreground(red),
		muted:  lipgloss.NewStyle().Foreground(muted),
		border: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(frame),
		active: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(coral),
		status: lipgloss.NewStyle().Foreground(text),
		ok:     lipgloss.NewStyle().Bold(true).Foreground(teal),
		err:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		spin:   lipgloss.NewStyle().Foreground(coral),
	}
}

// renderGradientBar renders a full-width, color-cycling bar for the busy state.
func renderGradientBar(width, frame int) string {
	if width < 1 {
		width = 1
	}
	out := make([]byte, 0, width*24)
	baseHue := float64((frame * 5) % 360)
	for i := 0; i < width; i++ {
		hue := math.Mod(baseHue+float64(i*3), 360.0)
		phase := (float64(i)/float64(width))*2*math.Pi + float64(frame)/8.0
		light := 0.50 + 0.15*math.Sin(phase)
		seg := lipgloss.NewStyle().Foreground(lipgloss.Color(hslToHex(hue, 0.85, light))).Render("█")
		out = append(out, seg...)
	}
	return string(out)
}

// hslToHex converts H,S,L (H in [0,360), S/L in [0,1]) to a #RRGGBB string.
func hslToHex(h, s, l float64) string {
	r, g, b := hslToRGB(h, s, l)
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60.0
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r1, g1, b1 float64
	switch {
	case hp < 1:
		r1, g1, b1 = c, x, 0
	case hp < 2:
		r1, g1, b1 = x, c, 0
	case hp < 3:
		r1, g1, b1 = 0, c, x
	case hp < 4:
		r1, g1, b1 = 0, x, c
	case hp < 5:
		r1, g1, b1 = x, 0, c
	default:
		r1, g1, b1 = c, 0, x
	}
	m := l - c/2
	return uint8(clamp01(r1+m) * 255), uint8(clamp01(g1+m) * 255), uint8(clamp01(b1+m) * 255)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
