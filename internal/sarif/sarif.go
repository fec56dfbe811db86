// Package sarif reads detekt's SARIF report and converts it into
// normalized diagnostics.
//
// Only the single-run shape detekt emits is supported: a report with
// anything other than exactly one run is malformed. Positions in the
// report are one-based; emitted diagnostics are zero-based on all four
// fields.
package sarif

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nielsdekker/detekt-ls/internal/invoke"
)

// Severity classifies a diagnostic for rendering.
type Severity int

// Severities, ordered from most to least severe.
const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInfo
	SeverityHint
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Diagnostic is one normalized finding. Lines and columns are
// zero-based.
type Diagnostic struct {
	Identity    invoke.Identity
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
	Message     string
	RuleID      string
	Severity    Severity
}

// report mirrors the subset of SARIF 2.1 that detekt emits.
type report struct {
	Runs []run `json:"runs"`
}

type run struct {
	Results []result `json:"results"`
}

type result struct {
	RuleID    string     `json:"ruleId"`
	Level     string     `json:"level"`
	Message   message    `json:"message"`
	Locations []location `json:"locations"`
}

type message struct {
	Text string `json:"text"`
}

type location struct {
	PhysicalLocation physicalLocation `json:"physicalLocation"`
}

type physicalLocation struct {
	Region region `json:"region"`
}

type region struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

// ReportUnreadableError reports that the scratch report could not be
// opened. Expected when the tool failed before writing; callers
// classify the exit code first.
type ReportUnreadableError struct {
	Path string
	Err  error
}

func (e *ReportUnreadableError) Error() string {
	return fmt.Sprintf("report %s unreadable: %v", e.Path, e.Err)
}

func (e *ReportUnreadableError) Unwrap() error { return e.Err }

// ReportMalformedError reports that the scratch file did not
// deserialize as a single-run SARIF report.
type ReportMalformedError struct {
	Path   string
	Reason string
}

func (e *ReportMalformedError) Error() string {
	return fmt.Sprintf("report %s malformed: %s", e.Path, e.Reason)
}

// Parse reads the SARIF report at path and returns one diagnostic per
// finding, in report order, with positions converted to zero-based.
func Parse(path string, id invoke.Identity) ([]Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReportUnreadableError{Path: path, Err: err}
	}

	var rep report

	unmarshalErr := json.Unmarshal(data, &rep)
	if unmarshalErr != nil {
		return nil, &ReportMalformedError{Path: path, Reason: unmarshalErr.Error()}
	}

	if len(rep.Runs) != 1 {
		return nil, &ReportMalformedError{
			Path:   path,
			Reason: fmt.Sprintf("expected exactly one run, got %d", len(rep.Runs)),
		}
	}

	results := rep.Runs[0].Results
	diags := make([]Diagnostic, 0, len(results))

	for _, res := range results {
		var reg region
		if len(res.Locations) > 0 {
			reg = res.Locations[0].PhysicalLocation.Region
		}

		diags = append(diags, Diagnostic{
			Identity:    id,
			StartLine:   reg.StartLine - 1,
			StartColumn: reg.StartColumn - 1,
			EndLine:     reg.EndLine - 1,
			EndColumn:   reg.EndColumn - 1,
			Message:     res.Message.Text,
			RuleID:      res.RuleID,
			Severity:    levelToSeverity(res.Level),
		})
	}

	return diags, nil
}

// levelToSeverity maps a SARIF level to a Severity. Absent or unknown
// levels map to warning, detekt's default.
func levelToSeverity(level string) Severity {
	switch level {
	case "error":
		return SeverityError
	case "warning", "":
		return SeverityWarning
	case "note":
		return SeverityInfo
	case "none":
		return SeverityHint
	default:
		return SeverityWarning
	}
}
