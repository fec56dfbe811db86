package sarif_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nielsdekker/detekt-ls/internal/invoke"
	"github.com/nielsdekker/detekt-ls/internal/sarif"
)

var testIdentity = invoke.Identity{URI: "file:///proj/src/Main.kt", Path: "/proj/src/Main.kt"}

func writeReport(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "report.sarif")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

const twoFindingReport = `{
  "version": "2.1.0",
  "runs": [
    {
      "tool": {"driver": {"name": "detekt"}},
      "results": [
        {
          "ruleId": "detekt.style.MagicNumber",
          "level": "warning",
          "message": {"text": "This expression contains a magic number."},
          "locations": [
            {
              "physicalLocation": {
                "artifactLocation": {"uri": "file:///proj/src/Main.kt"},
                "region": {"startLine": 10, "startColumn": 3, "endLine": 12, "endColumn": 7}
              }
            }
          ]
        },
        {
          "ruleId": "detekt.complexity.LongMethod",
          "level": "error",
          "message": {"text": "The function main is too long."},
          "locations": [
            {
              "physicalLocation": {
                "artifactLocation": {"uri": "file:///proj/src/Main.kt"},
                "region": {"startLine": 1, "startColumn": 1, "endLine": 40, "endColumn": 2}
              }
            }
          ]
        }
      ]
    }
  ]
}`

func TestParse_ConvertsPositionsToZeroBased(t *testing.T) {
	t.Parallel()

	path := writeReport(t, twoFindingReport)

	diags, err := sarif.Parse(path, testIdentity)
	require.NoError(t, err)
	require.Len(t, diags, 2)

	first := diags[0]
	assert.Equal(t, testIdentity, first.Identity)
	assert.Equal(t, 9, first.StartLine)
	assert.Equal(t, 2, first.StartColumn)
	assert.Equal(t, 11, first.EndLine)
	assert.Equal(t, 6, first.EndColumn)
	assert.Equal(t, "This expression contains a magic number.", first.Message)
	assert.Equal(t, "detekt.style.MagicNumber", first.RuleID)
	assert.Equal(t, sarif.SeverityWarning, first.Severity)
}

func TestParse_PreservesReportOrder(t *testing.T) {
	t.Parallel()

	path := writeReport(t, twoFindingReport)

	diags, err := sarif.Parse(path, testIdentity)
	require.NoError(t, err)
	require.Len(t, diags, 2)

	assert.Equal(t, "detekt.style.MagicNumber", diags[0].RuleID)
	assert.Equal(t, "detekt.complexity.LongMethod", diags[1].RuleID)
	assert.Equal(t, sarif.SeverityError, diags[1].Severity)
}

func TestParse_EmptyResults(t *testing.T) {
	t.Parallel()

	path := writeReport(t, `{"version": "2.1.0", "runs": [{"results": []}]}`)

	diags, err := sarif.Parse(path, testIdentity)
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestParse_MissingFileIsUnreadable(t *testing.T) {
	t.Parallel()

	_, err := sarif.Parse(filepath.Join(t.TempDir(), "absent.sarif"), testIdentity)

	var unreadable *sarif.ReportUnreadableError
	require.ErrorAs(t, err, &unreadable)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "detekt exploded before writing json"},
		{name: "no runs", content: `{"version": "2.1.0", "runs": []}`},
		{name: "two runs", content: `{"runs": [{"results": []}, {"results": []}]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := writeReport(t, tc.content)

			_, err := sarif.Parse(path, testIdentity)

			var malformed *sarif.ReportMalformedError
			require.ErrorAs(t, err, &malformed)
		})
	}
}

func TestParse_ResultWithoutLocation(t *testing.T) {
	t.Parallel()

	path := writeReport(t, `{
  "runs": [{"results": [{"ruleId": "detekt.empty.EmptyKtFile", "message": {"text": "empty file"}}]}]
}`)

	diags, err := sarif.Parse(path, testIdentity)
	require.NoError(t, err)
	require.Len(t, diags, 1)

	// Zero-valued region converts to -1; renderers clamp.
	assert.Equal(t, -1, diags[0].StartLine)
	assert.Equal(t, "empty file", diags[0].Message)
}

func TestSeverityString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "error", sarif.SeverityError.String())
	assert.Equal(t, "warning", sarif.SeverityWarning.String())
	assert.Equal(t, "info", sarif.SeverityInfo.String())
	assert.Equal(t, "hint", sarif.SeverityHint.String())
}
