package commands

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/nielsdekker/detekt-ls/internal/invoke"
	"github.com/nielsdekker/detekt-ls/internal/sarif"
)

func TestRenderDiagnostics_TableContents(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer

	renderDiagnostics(&buf, "/proj/src/Main.kt", []sarif.Diagnostic{
		{
			StartLine: 9, StartColumn: 2, EndLine: 11, EndColumn: 6,
			Message: "This expression contains a magic number.",
			RuleID:  "detekt.style.MagicNumber", Severity: sarif.SeverityWarning,
		},
		{
			StartLine: 0, StartColumn: 0,
			Message: "Empty function body.",
			RuleID:  "detekt.empty-blocks.EmptyFunctionBlock", Severity: sarif.SeverityError,
		},
	})

	out := buf.String()

	assert.Contains(t, out, "/proj/src/Main.kt")
	assert.Contains(t, out, "10:3")
	assert.Contains(t, out, "1:1")
	assert.Contains(t, out, "warning")
	assert.Contains(t, out, "error")
	assert.Contains(t, out, "detekt.style.MagicNumber")
	assert.Contains(t, out, "This expression contains a magic number.")
}

func TestRenderDiagnostics_EmptyWritesNothing(t *testing.T) {
	var buf bytes.Buffer

	renderDiagnostics(&buf, "/proj/src/Main.kt", nil)

	assert.Empty(t, buf.String())
}

func TestFormatPosition_LocationlessFinding(t *testing.T) {
	pos := formatPosition(sarif.Diagnostic{StartLine: -1, StartColumn: -1})

	assert.Equal(t, "-", pos)
}

func TestRenderSummary_Pluralization(t *testing.T) {
	var buf bytes.Buffer

	renderSummary(&buf, 1, 1)
	assert.Contains(t, buf.String(), "1 finding in 1 file")

	buf.Reset()
	renderSummary(&buf, 3, 2)
	assert.Contains(t, buf.String(), "3 findings in 2 files")

	buf.Reset()
	renderSummary(&buf, 0, 0)
	assert.Contains(t, buf.String(), "0 findings in 0 files")
}

func TestTerminalPublisher(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer

	publisher := newTerminalPublisher(&buf)
	id := invoke.Identity{URI: "file:///proj/Main.kt", Path: "/proj/Main.kt"}

	publisher.PublishDiagnostics(id, nil)
	assert.Contains(t, buf.String(), "no findings")

	buf.Reset()
	publisher.PublishWarning(id, "baseline not found")
	assert.Contains(t, buf.String(), "/proj/Main.kt: baseline not found")

	buf.Reset()
	publisher.PublishError(id, errors.New("detekt invalid configuration"))
	assert.Contains(t, buf.String(), "detekt invalid configuration")
}
