// Package lint orchestrates detekt runs: resolve the invocation, start
// the process, classify the exit code, parse the report, and publish
// diagnostics.
package lint

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/nielsdekker/detekt-ls/internal/invoke"
	"github.com/nielsdekker/detekt-ls/internal/observability"
	"github.com/nielsdekker/detekt-ls/internal/runner"
	"github.com/nielsdekker/detekt-ls/internal/sarif"
)

// State names a phase of one run, for logs and traces.
type State string

// Run states. Every state may exit to StateFailed.
const (
	StateResolving   State = "resolving"
	StateInvoking    State = "invoking"
	StateAwaiting    State = "awaiting"
	StateClassifying State = "classifying"
	StateParsing     State = "parsing"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Publisher receives the outward signals of a run: diagnostics
// (possibly empty, which clears previously published ones), at most
// one warning, or a fatal error.
type Publisher interface {
	PublishDiagnostics(id invoke.Identity, diags []sarif.Diagnostic)
	PublishWarning(id invoke.Identity, msg string)
	PublishError(id invoke.Identity, err error)
}

// Deps are the orchestrator's collaborators. Constructed once at
// startup and passed in; the orchestrator keeps no ambient state.
type Deps struct {
	Cache     *invoke.Cache
	Runner    runner.Runner
	Publisher Publisher
	Logger    *slog.Logger

	// Parse deserializes a scratch report. Nil means sarif.Parse.
	Parse func(path string, id invoke.Identity) ([]sarif.Diagnostic, error)

	// Metrics and Tracer are optional; nil disables instrumentation.
	Metrics *observability.LintMetrics
	Tracer  trace.Tracer
}

// Orchestrator drives runs and serializes publication per identity.
//
// Each trigger gets a monotonic per-identity sequence number and
// cancels the context of the previous run for that identity, so a
// superseded detekt process is not left unmanaged. A run publishes
// only if no newer run was triggered for its identity in the meantime:
// last-issued wins, stale completions are discarded.
type Orchestrator struct {
	deps Deps

	mu   sync.Mutex
	runs map[invoke.Identity]*runSlot
}

type runSlot struct {
	seq    uint64
	cancel context.CancelFunc
}

// New creates an Orchestrator. Cache, Runner, Publisher and Logger are
// required.
func New(deps Deps) *Orchestrator {
	if deps.Parse == nil {
		deps.Parse = sarif.Parse
	}

	return &Orchestrator{
		deps: deps,
		runs: make(map[invoke.Identity]*runSlot),
	}
}

// Trigger starts an asynchronous run for id. It never blocks on the
// external process; completion is published through the Publisher.
func (o *Orchestrator) Trigger(ctx context.Context, id invoke.Identity) {
	runCtx, seq := o.admit(ctx, id)

	go o.run(runCtx, id, seq)
}

// Run executes one run synchronously and returns its result. Used by
// the one-shot CLI path; LSP and watch triggers go through Trigger.
func (o *Orchestrator) Run(ctx context.Context, id invoke.Identity) ([]sarif.Diagnostic, invoke.Warning, error) {
	runCtx, seq := o.admit(ctx, id)

	diags, warning, err := o.execute(runCtx, id)
	o.release(id, seq)

	return diags, warning, err
}

// Invalidate drops the cached invocation for id. Exposed for the LSP
// didClose path and out-of-band cache clearing.
func (o *Orchestrator) Invalidate(id invoke.Identity) {
	o.deps.Cache.Invalidate(id)
}

// admit issues the next sequence number for id and cancels the
// previous run's context.
func (o *Orchestrator) admit(ctx context.Context, id invoke.Identity) (context.Context, uint64) {
	runCtx, cancel := context.WithCancel(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()

	slot, ok := o.runs[id]
	if !ok {
		slot = &runSlot{}
		o.runs[id] = slot
	}

	if slot.cancel != nil {
		slot.cancel()
	}

	slot.seq++
	slot.cancel = cancel

	return runCtx, slot.seq
}

// current reports whether seq is still the latest run for id.
func (o *Orchestrator) current(id invoke.Identity, seq uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	slot, ok := o.runs[id]

	return ok && slot.seq == seq
}

// release clears the cancel func if seq is still the latest run.
func (o *Orchestrator) release(id invoke.Identity, seq uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	slot, ok := o.runs[id]
	if ok && slot.seq == seq {
		slot.cancel = nil
	}
}

// run executes one triggered run and publishes its outcome unless a
// newer run superseded it.
func (o *Orchestrator) run(ctx context.Context, id invoke.Identity, seq uint64) {
	diags, warning, err := o.execute(ctx, id)

	if !o.current(id, seq) {
		o.deps.Logger.Debug("discarding superseded run", "uri", id.URI, "seq", seq)

		return
	}

	o.release(id, seq)

	if warning != "" {
		o.deps.Publisher.PublishWarning(id, string(warning))
	}

	if err != nil {
		o.deps.Publisher.PublishError(id, err)

		return
	}

	o.deps.Publisher.PublishDiagnostics(id, diags)
}

// execute walks the state machine for one run.
func (o *Orchestrator) execute(ctx context.Context, id invoke.Identity) ([]sarif.Diagnostic, invoke.Warning, error) {
	started := time.Now()

	ctx, span := o.startSpan(ctx, id)
	defer span.End()

	log := o.deps.Logger.With("uri", id.URI)
	inflightDone := o.trackInflight(ctx)

	defer inflightDone()

	// Resolving.
	log.Debug("run state", "state", StateResolving)

	inv, warning, err := o.deps.Cache.Resolve(id, filepath.Dir(id.Path))
	if err != nil {
		o.finish(ctx, log, StateFailed, started, err)

		return nil, "", err
	}

	// Invoking. The process start is the run's only suspension point.
	log.Debug("run state", "state", StateInvoking, "command", inv.String())

	outcomeCh := o.deps.Runner.Start(ctx, inv)

	// Awaiting.
	log.Debug("run state", "state", StateAwaiting)

	outcome := <-outcomeCh

	// Classifying.
	log.Debug("run state", "state", StateClassifying, "exit_code", outcome.ExitCode)

	if outcome.Err != nil {
		err = &SpawnError{Executable: inv.Executable, Err: outcome.Err}
		o.finish(ctx, log, StateFailed, started, err)

		return nil, warning, err
	}

	if outcome.ExitCode == invalidConfigExitCode {
		err = &InvalidConfigError{Stderr: outcome.Stderr}
		o.finish(ctx, log, StateFailed, started, err)

		return nil, warning, err
	}

	// Parsing. Any other exit code, zero or not, still carries a
	// report: detekt signals findings through nonzero codes too.
	log.Debug("run state", "state", StateParsing, "report", inv.ReportPath)

	diags, parseErr := o.deps.Parse(inv.ReportPath, id)

	// The scratch file is consumed; remove it so a later failed run
	// cannot be misread as this run's stale report.
	_ = os.Remove(inv.ReportPath)

	if parseErr != nil {
		o.finish(ctx, log, StateFailed, started, parseErr)

		return nil, warning, parseErr
	}

	o.finish(ctx, log, StateDone, started, nil)

	return diags, warning, nil
}

func (o *Orchestrator) finish(ctx context.Context, log *slog.Logger, state State, started time.Time, err error) {
	elapsed := time.Since(started)

	if err != nil {
		log.Warn("run finished", "state", state, "elapsed", elapsed, "error", err)
	} else {
		log.Debug("run finished", "state", state, "elapsed", elapsed)
	}

	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordRun(ctx, string(state), elapsed)
	}
}

func (o *Orchestrator) startSpan(ctx context.Context, id invoke.Identity) (context.Context, trace.Span) {
	if o.deps.Tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return o.deps.Tracer.Start(ctx, "lint.run",
		trace.WithAttributes(observability.TargetAttribute(id.Path)))
}

func (o *Orchestrator) trackInflight(ctx context.Context) func() {
	if o.deps.Metrics == nil {
		return func() {}
	}

	return o.deps.Metrics.TrackInflight(ctx)
}
