// Package observability provides logging setup and formatted CLI output.
package observability

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jonathan/jobmarket/internal/compose"
	"github.com/jonathan/jobmarket/internal/platform"
	"github.com/jonathan/jobmarket/internal/types"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	stateStyles = map[compose.StageState]lipgloss.Style{
		compose.StateReady:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		compose.StateDegraded:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		compose.StateSkipped:   lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		compose.StateDiscarded: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		compose.StatePending:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
)

// Printer writes human-readable summaries of the shell.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) row(label, value string) {
	fmt.Fprintln(p.out, labelStyle.Render(label)+valueStyle.Render(value))
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) title(s string) {
	fmt.Fprintln(p.out, titleStyle.Render(s))
}

// PrintPlatform outputs the detected variant and its capabilities.
func (p *Printer) PrintPlatform(v platform.Variant, caps platform.Capabilities) {
	p.title("Platform")
	p.row("variant", string(v))
	p.row("camera", yesNo(caps.SupportsCamera))
	p.row("push", yesNo(caps.SupportsPushNotifications))
	p.row("status bar", yesNo(caps.SupportsStatusBar))
}

// PrintStages outputs how each composition stage resolved.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintStages(reports []compose.StageReport) {
	p.title("Stages")
	for _, r := range reports {
		style, ok := stateStyles[r.State]
		if !ok {
			style = valueStyle
		}
		line := labelStyle.Render(r.Name) + style.Render(string(r.State))
		if r.Duration > 0 {
			line += " " + mutedStyle.Render(r.Duration.Round(time.Microsecond).String())
		}
		if r.Err != nil && r.State != compose.StateSkipped {
			line += " " + mutedStyle.Render(r.Err.Error())
		}
		fmt.Fprintln(p.out, line)
	}
}

// PrintSession outputs the signed-in identity and active role.
func (p *Printer) PrintSession(identity *types.SessionIdentity, role *types.Role) {
	p.title("Session")
	if identity == nil {
		p.row("user", mutedStyle.Render("signed out"))
		return
	}

	p.row("user", identity.ID)
	if identity.DisplayName != nil {
		p.row("name", *identity.DisplayName)
	}
	if identity.Email != nil {
		p.row("email", *identity.Email)
	}
	if role != nil {
		p.row("role", role.String())
	} else {
		p.row("role", mutedStyle.Render("not selected"))
	}
}

// PrintShell outputs the full composed state.
func (p *Printer) PrintShell(shell *compose.Shell) {
	p.PrintPlatform(shell.Variant(), shell.Capabilities())
	p.PrintStages(shell.Stages())
	p.PrintSession(shell.CurrentUser(), shell.CurrentRole())
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
