// Package dispatch runs a (language × target) job matrix in a bounded worker
// pool, gates each job on its builder exit codes and warning reconciliation,
// and aggregates the results into one exit code.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/espdocs/internal/eventstore"
	"git.home.luguber.info/inful/espdocs/internal/logfields"
	"git.home.luguber.info/inful/espdocs/internal/matrix"
	"git.home.luguber.info/inful/espdocs/internal/metrics"
	"git.home.luguber.info/inful/espdocs/internal/relay"
	"git.home.luguber.info/inful/espdocs/internal/sphinx"
	"git.home.luguber.info/inful/espdocs/internal/substitution"
	"git.home.luguber.info/inful/espdocs/internal/targets"
	"git.home.luguber.info/inful/espdocs/internal/warnings"
)

// ExitInterrupted is the run and job code after cancellation.
const ExitInterrupted = sphinx.ExitInterrupted

// Mode selects what each job does.
type Mode int

const (
	// ModeBuild runs the builders, reconciles warnings and produces PDFs.
	ModeBuild Mode = iota
	// ModeLinkcheck runs the builders without warning reconciliation.
	ModeLinkcheck
	// ModeCheckWarnings only reconciles the logs of a previous build.
	ModeCheckWarnings
)

func (m Mode) String() string {
	switch m {
	case ModeLinkcheck:
		return "linkcheck"
	case ModeCheckWarnings:
		return "check-warnings"
	default:
		return "build"
	}
}

// Options configure a run.
type Options struct {
	Jobs             []matrix.Job
	Mode             Mode
	Workers          int // AutoWorkers or an explicit pool size
	JobsPerWorker    int // Requested builder parallelism; values above 1 are forced to 1
	Sphinx           sphinx.Sphinx
	LatexmkCommand   []string
	KnownWarningsDir string
}

// EventSink receives run events.
type EventSink interface {
	Record(ctx context.Context, e eventstore.Event) error
}

// JobResult is the outcome of one job.
type JobResult struct {
	Job         matrix.Job
	Code        int
	Duration    time.Duration
	NewWarnings int
}

// Summary is the outcome of a run. Results are in submission order.
type Summary struct {
	RunID    string
	Results  []JobResult
	Code     int
	Duration time.Duration
}

// Failed returns the results with a non-zero code.
func (s Summary) Failed() []JobResult {
	var failed []JobResult
	for _, r := range s.Results {
		if r.Code != 0 {
			failed = append(failed, r)
		}
	}
	return failed
}

// Dispatcher executes a job matrix.
type Dispatcher struct {
	opts       Options
	out        io.Writer
	runner     sphinx.Runner
	reconciler *warnings.Reconciler
	recorder   metrics.Recorder
	sink       EventSink
	logger     *slog.Logger
	runID      string
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithRunner replaces the subprocess runner.
func WithRunner(r sphinx.Runner) Option { return func(d *Dispatcher) { d.runner = r } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(d *Dispatcher) { d.recorder = r } }

// WithEventSink sets where run events are recorded.
func WithEventSink(s EventSink) Option { return func(d *Dispatcher) { d.sink = s } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(d *Dispatcher) { d.logger = l } }

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option { return func(d *Dispatcher) { d.runID = id } }

// New creates a Dispatcher writing console output to out. Writes to out are
// serialized, so out need not be safe for concurrent use.
func New(opts Options, out io.Writer, options ...Option) *Dispatcher {
	sink := relay.NewSyncWriter(out)
	d := &Dispatcher{
		opts:       opts,
		out:        sink,
		runner:     sphinx.ExecRunner{},
		reconciler: &warnings.Reconciler{Out: sink},
		recorder:   metrics.NoopRecorder{},
		logger:     slog.Default(),
	}
	for _, o := range options {
		o(d)
	}
	if d.runID == "" {
		d.runID = uuid.NewString()
	}
	return d
}

// RunID returns the identifier of the run.
func (d *Dispatcher) RunID() string { return d.runID }

// Run executes all jobs and returns the aggregated exit code: 0 when every job
// succeeded, 130 when ctx was cancelled, 1 otherwise.
func (d *Dispatcher) Run(ctx context.Context) int {
	return d.Execute(ctx).Code
}

// Execute is Run returning the per-job results.
func (d *Dispatcher) Execute(ctx context.Context) Summary {
	start := time.Now()
	jobs := d.opts.Jobs
	workers := PoolSize(d.opts.Workers, len(jobs))
	log := d.logger.With(logfields.RunID(d.runID))

	if d.opts.JobsPerWorker > 1 {
		log.Warn("Builder parallel jobs above 1 are not supported, using 1",
			slog.Int("requested", d.opts.JobsPerWorker))
	}

	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = j.Name()
	}
	log.Info("Starting documentation run",
		logfields.Command(d.opts.Mode.String()), logfields.Count(len(jobs)), logfields.Workers(workers))
	d.recorder.SetWorkers(workers)
	d.record(ctx, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewRunStarted(d.runID, eventstore.RunStartedData{
			Command: d.opts.Mode.String(), Jobs: names, Workers: workers,
		})
	})

	results := runOrdered(ctx, jobs, workers, d.runJob, func(j matrix.Job) JobResult {
		return JobResult{Job: j, Code: ExitInterrupted}
	})

	summary := Summary{RunID: d.runID, Results: results, Duration: time.Since(start)}
	failed := summary.Failed()
	switch {
	case ctx.Err() != nil:
		summary.Code = ExitInterrupted
	case len(failed) > 0:
		summary.Code = 1
	}
	if len(failed) > 0 {
		d.printFailures(failed)
	}

	failedNames := make([]string, len(failed))
	for i, r := range failed {
		failedNames[i] = r.Job.Name()
	}
	d.recorder.ObserveRunDuration(summary.Duration)
	d.recorder.IncRunOutcome(metrics.ResultFor(summary.Code))
	d.record(ctx, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewRunCompleted(d.runID, eventstore.RunCompletedData{
			ExitCode: summary.Code, Failed: failedNames, DurationMS: summary.Duration.Milliseconds(),
		})
	})
	log.Info("Documentation run finished",
		logfields.ExitCode(summary.Code),
		logfields.DurationMS(float64(summary.Duration.Milliseconds())),
		slog.Int("failed", len(failed)))
	return summary
}

func (d *Dispatcher) printFailures(failed []JobResult) {
	msg := "The following language/target combinations failed to build:\n"
	for _, r := range failed {
		msg += fmt.Sprintf("language: %s, target: %s, errcode: %d\n", r.Job.Language, r.Job.Target, r.Code)
	}
	_, _ = io.WriteString(d.out, msg)
}

// runJob executes one job and records its result.
func (d *Dispatcher) runJob(ctx context.Context, job matrix.Job) JobResult {
	start := time.Now()
	log := d.logger.With(logfields.RunID(d.runID), logfields.Language(job.Language), logfields.Target(job.Target))
	log.Debug("Job started", logfields.Path(job.BuildDir))

	res := JobResult{Job: job}
	res.Code, res.NewWarnings = d.execute(ctx, job, log)
	if ctx.Err() != nil && res.Code != 0 {
		res.Code = ExitInterrupted
	}
	res.Duration = time.Since(start)

	d.recorder.ObserveJobDuration(job.Language, job.Target, res.Duration)
	d.recorder.IncJobResult(job.Language, job.Target, metrics.ResultFor(res.Code))
	d.record(ctx, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewJobCompleted(d.runID, eventstore.JobCompletedData{
			Language: job.Language, Target: job.Target, ExitCode: res.Code,
			DurationMS: res.Duration.Milliseconds(), NewWarnings: res.NewWarnings,
		})
	})
	log.Debug("Job finished", logfields.ExitCode(res.Code), logfields.DurationMS(float64(res.Duration.Milliseconds())))
	return res
}

func (d *Dispatcher) execute(ctx context.Context, job matrix.Job, log *slog.Logger) (int, int) {
	out := relay.NewPrefixWriter(d.out, job.Name()+": ")
	defer func() { _ = out.Close() }()

	if err := os.MkdirAll(job.BuildDir, 0o750); err != nil {
		fmt.Fprintf(out, "failed to create build directory: %v\n", err)
		return 1, 0
	}

	if d.opts.Mode == ModeCheckWarnings {
		return d.reconcile(job)
	}

	if job.Target != targets.Generic {
		if err := d.saveSubstitutions(job); err != nil {
			log.Warn("Failed to write target substitutions", logfields.Error(err))
		}
	}

	newWarnings := 0
	for _, builder := range job.Builders {
		log.Debug("Running builder", logfields.Builder(builder))
		code := d.run(ctx, d.opts.Sphinx.Invocation(job, builder), out)
		if ctx.Err() != nil {
			return ExitInterrupted, newWarnings
		}
		if d.opts.Mode == ModeBuild {
			// Flush the builder's partial last line before the reconciler reports.
			_ = out.Close()
			rc, n := d.reconcile(job)
			code += rc
			newWarnings += n
		}
		if code != 0 {
			return code, newWarnings
		}
	}

	if d.opts.Mode == ModeBuild && sphinx.WantsPDF(job.Builders) {
		log.Debug("Running PDF step")
		code := d.run(ctx, sphinx.LatexmkInvocation(d.opts.LatexmkCommand, job), out)
		if ctx.Err() != nil {
			return ExitInterrupted, newWarnings
		}
		if code != 0 {
			return code, newWarnings
		}
	}
	return 0, newWarnings
}

func (d *Dispatcher) run(ctx context.Context, inv sphinx.Invocation, out io.Writer) int {
	code, err := d.runner.Run(ctx, inv, out)
	if err != nil {
		fmt.Fprintf(out, "failed to run %s: %v\n", inv.String(), err)
		if code == 0 {
			code = 1
		}
	}
	return code
}

// reconcile checks the doxygen log (when the project has a Doxyfile) and the
// Sphinx log of job, returning the summed code and the new warning count.
func (d *Dispatcher) reconcile(job matrix.Job) (int, int) {
	code, count := 0, 0
	if sphinx.HasDoxyfile(job.DoxyfileDir) {
		rc, res := d.reconciler.CheckResult(job.Language, job.Target,
			filepath.Join(job.BuildDir, warnings.DoxygenLog),
			filepath.Join(d.opts.KnownWarningsDir, warnings.DoxygenKnownWarnings),
			filepath.Join(job.BuildDir, warnings.DoxygenSanitizedLog))
		d.recorder.AddNewWarnings("doxygen", len(res.NewMessages))
		code += rc
		count += len(res.NewMessages)
	}
	rc, res := d.reconciler.CheckResult(job.Language, job.Target,
		filepath.Join(job.BuildDir, warnings.SphinxLog),
		filepath.Join(d.opts.KnownWarningsDir, warnings.SphinxKnownWarnings),
		filepath.Join(job.BuildDir, warnings.SphinxSanitizedLog))
	d.recorder.AddNewWarnings("sphinx", len(res.NewMessages))
	return code + rc, count + len(res.NewMessages)
}

func (d *Dispatcher) saveSubstitutions(job matrix.Job) error {
	sub, err := substitution.ForTarget(job.Target)
	if err != nil {
		return err
	}
	_, err = sub.SaveTable(job.BuildDir)
	return err
}

// record builds an event and hands it to the sink. Recording failures are
// logged and never change the run result.
func (d *Dispatcher) record(ctx context.Context, build func() (*eventstore.BaseEvent, error)) {
	if d.sink == nil {
		return
	}
	e, err := build()
	if err == nil {
		err = d.sink.Record(context.WithoutCancel(ctx), e)
	}
	if err != nil {
		d.logger.Warn("Failed to record run event", logfields.RunID(d.runID), logfields.Error(err))
	}
}
