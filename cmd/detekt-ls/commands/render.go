package commands

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize/english"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nielsdekker/detekt-ls/internal/invoke"
	"github.com/nielsdekker/detekt-ls/internal/sarif"
)

// Severity label colors for terminal output.
var (
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	hintColor    = color.New(color.FgWhite)
)

// renderDiagnostics writes a findings table for one target file.
func renderDiagnostics(out io.Writer, path string, diags []sarif.Diagnostic) {
	if len(diags) == 0 {
		return
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false

	tbl.AppendHeader(table.Row{"POSITION", "SEVERITY", "RULE", "MESSAGE"})

	for _, diag := range diags {
		tbl.AppendRow(table.Row{
			formatPosition(diag),
			severityLabel(diag.Severity),
			diag.RuleID,
			diag.Message,
		})
	}

	fmt.Fprintf(out, "%s\n%s\n", path, tbl.Render())
}

// renderSummary writes the closing findings/files count line.
func renderSummary(out io.Writer, findings, files int) {
	fmt.Fprintf(out, "\n%s in %s\n",
		english.Plural(findings, "finding", ""),
		english.Plural(files, "file", ""))
}

// formatPosition renders a one-based line:column range. Location-less
// findings carry negative positions and render as "-".
func formatPosition(diag sarif.Diagnostic) string {
	if diag.StartLine < 0 {
		return "-"
	}

	return fmt.Sprintf("%d:%d", diag.StartLine+1, diag.StartColumn+1)
}

func severityLabel(severity sarif.Severity) string {
	switch severity {
	case sarif.SeverityError:
		return errorColor.Sprint("error")
	case sarif.SeverityWarning:
		return warningColor.Sprint("warning")
	case sarif.SeverityInfo:
		return infoColor.Sprint("info")
	case sarif.SeverityHint:
		return hintColor.Sprint("hint")
	default:
		return warningColor.Sprint("warning")
	}
}

// terminalPublisher writes run results to a terminal stream. It is the
// lint Publisher for the watch mode, where completions arrive from
// concurrent runs.
type terminalPublisher struct {
	mu  sync.Mutex
	out io.Writer
}

func newTerminalPublisher(out io.Writer) *terminalPublisher {
	return &terminalPublisher{out: out}
}

func (p *terminalPublisher) PublishDiagnostics(id invoke.Identity, diags []sarif.Diagnostic) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(diags) == 0 {
		fmt.Fprintf(p.out, "%s: %s\n", id.Path, color.GreenString("no findings"))

		return
	}

	renderDiagnostics(p.out, id.Path, diags)
}

func (p *terminalPublisher) PublishWarning(id invoke.Identity, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "%s: %s\n", id.Path, warningColor.Sprint(msg))
}

func (p *terminalPublisher) PublishError(id invoke.Identity, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "%s: %s\n", id.Path, errorColor.Sprint(err.Error()))
}
