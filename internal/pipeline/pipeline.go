package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/webscraper/internal/model"
)

// ErrSkipped is returned by a step whose input is missing, for example when
// the linked page was never found. The pipeline lists the step in
// Report.SkippedSteps and moves on.
var ErrSkipped = errors.New("step skipped")

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the accumulated
// report from previous steps.
//
// Design decision: We use an interface rather than function types because
// steps carry configuration state and the Name() method is needed for
// logging and for the step lists stored in the report.
type Step interface {
	// Do executes the pipeline step.
	// Returning ErrSkipped (or an error wrapping it) marks the step as
	// skipped; any other error stops the run.
	Do(ctx context.Context, report *model.Report) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to keep executing steps after
// one fails. The error of the last failing step stays in the report.
//
// The scan command never sets this: a failed fetch leaves nothing for the
// later steps to work on.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
//
// Design decision: We check ctx.Done() before each step rather than during,
// because steps pass the context on to their own blocking calls.
//
// A skipped step is not an error. Execute returns the first step error if
// continueOnError is false, ctx.Err() if the context ends between steps,
// and nil otherwise.
func (p *Pipeline) Execute(ctx context.Context, report *model.Report) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"target", report.TargetURL,
		)

		err := step.Do(ctx, report)
		switch {
		case err == nil:
			p.logger.Debug("step completed",
				"step", step.Name(),
				"target", report.TargetURL,
			)
			report.PerformedSteps = append(report.PerformedSteps, step.Name())
		case errors.Is(err, ErrSkipped):
			p.logger.Info("step skipped",
				"step", step.Name(),
				"reason", err,
			)
			report.SkippedSteps = append(report.SkippedSteps, step.Name())
		default:
			p.logger.Error("step failed",
				"step", step.Name(),
				"target", report.TargetURL,
				"error", err,
			)
			report.Error = err
			report.ErrorMessage = err.Error()
			if !p.continueOnError {
				return err
			}
		}
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
