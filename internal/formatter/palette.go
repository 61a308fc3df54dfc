package formatter

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/jobtrail/internal/models"
)

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	status map[models.Status]lipgloss.Style
}

// NewPalette builds a palette from title, success, error, warning, and help colors.
func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		status: map[models.Status]lipgloss.Style{
			models.StatusApplied:    NewStyle(t),
			models.StatusAssessment: NewStyle(w),
			models.StatusInterview:  NewBold(w),
			models.StatusOffer:      NewBold(s),
			models.StatusRejected:   NewStyle(e),
			models.StatusGhosted:    NewEm(h),
			models.StatusWithdrawn:  NewEm(h),
			models.StatusOther:      NewStyle(h),
		},
	}
}

// DefaultPalette returns the palette used by the CLI.
func DefaultPalette() *Palette {
	return NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

func (p *Palette) Title(s string) string { return p.title.Render(s) }
func (p *Palette) OK(s string) string { return p.ok.Render(s) }
func (p *Palette) Err(s string) string { return p.err.Render(s) }
func (p *Palette) Warn(s string) string { return p.warn.Render(s) }
func (p *Palette) Help(s string) string { return p.help.Render(s) }

// Status renders a status name in its color.
func (p *Palette) Status(st models.Status) string {
	if style, ok := p.status[st]; ok {
		return style.Render(st.String())
	}
	return st.String()
}
