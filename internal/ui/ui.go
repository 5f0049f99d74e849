// Package ui renders CLI output: messages, result tables and compiled
// statement reports.
package ui

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

// Printer writes styled output. Errors and warnings go to Err.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// New returns a printer writing to out and errOut. Nil writers default to
// the standard streams.
func New(out, errOut io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Printer{Out: out, Err: errOut}
}

func terminalWidth() int {
	if w := pterm.GetTerminalWidth(); w > 0 && w < 200 {
		return w
	}
	return 80
}

// Header prints a boxed title.
func (p *Printer) Header(title, subtitle string) {
	header := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(0, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			TitleStyle.Render(title),
			SecondaryStyle.Render(subtitle),
		))
	fmt.Fprintln(p.Out, header)
}

// Success prints a success message.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.Out, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Info prints an informational message.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.Out, InfoStyle.Render("ℹ "+fmt.Sprintf(format, args...)))
}

// Warning prints a warning.
func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.Err, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Error prints err with its category.
func (p *Printer) Error(err error) {
	color.New(color.FgRed, color.Bold).Fprintf(p.Err, "✗ %s: ", ErrorLabel(err))
	fmt.Fprintln(p.Err, err.Error())

	var qe *domain.QueryError
	if errors.As(err, &qe) && qe.SQL != "" {
		fmt.Fprintln(p.Err, SecondaryStyle.Render("  sql: "+qe.SQL))
	}
}

// ErrorLabel names the category of err.
func ErrorLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrSyntax):
		return "syntax error"
	case errors.Is(err, domain.ErrResolution):
		return "resolution error"
	case errors.Is(err, domain.ErrUnknownPlaceholder):
		return "unknown placeholder"
	case errors.Is(err, domain.ErrTypeMismatch):
		return "type mismatch"
	case errors.Is(err, domain.ErrConstraintViolation):
		return "constraint violation"
	case errors.Is(err, domain.ErrConnectivity):
		return "connectivity failure"
	case errors.Is(err, domain.ErrShapeMismatch):
		return "shape mismatch"
	case errors.Is(err, domain.ErrUnsupportedOperation):
		return "unsupported operation"
	case errors.Is(err, domain.ErrNoResult), errors.Is(err, domain.ErrNonUniqueResult):
		return "result error"
	default:
		return "error"
	}
}

// Table prints rows under headers.
func (p *Printer) Table(headers []string, rows [][]string) error {
	data := pterm.TableData{headers}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(p.Out, out)
	return nil
}

// Results prints materialized rows as a table followed by a row count.
func (p *Printer) Results(columns []string, rows []any) error {
	headers, cells := Tabulate(columns, rows)
	if err := p.Table(headers, cells); err != nil {
		return err
	}
	fmt.Fprintln(p.Out, SecondaryStyle.Render(fmt.Sprintf("(%d %s)", len(rows), plural(len(rows), "row"))))
	return nil
}

// Markdown renders markdown for the terminal.
func (p *Printer) Markdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth()),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(content)
	if err != nil {
		return err
	}
	fmt.Fprint(p.Out, out)
	return nil
}

// CodeBlock prints code in a bordered block.
func (p *Printer) CodeBlock(code, language string) {
	if language != "" {
		fmt.Fprintln(p.Out, SecondaryStyle.Render(" "+language+" "))
	}
	fmt.Fprintln(p.Out, lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(SecondaryColor).
		Padding(0, 1).
		Render(code))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
