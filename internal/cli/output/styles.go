package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the CLI.
type Styles struct {
	Bold    lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
	Header  lipgloss.Style
	Path    lipgloss.Style
	Caret   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Bold:    r.NewStyle().Bold(true),
		Success: r.NewStyle().Foreground(lipgloss.Color("42")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Warning: r.NewStyle().Foreground(lipgloss.Color("214")),
		Info:    r.NewStyle().Foreground(lipgloss.Color("39")),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("245")),
		Header:  r.NewStyle().Bold(true).Underline(true),
		Path:    r.NewStyle().Foreground(lipgloss.Color("75")).Bold(true),
		Caret:   r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
	}
}
