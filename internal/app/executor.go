package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jsamuelsen/verse-service/internal/platform/logging"
	"github.com/jsamuelsen/verse-service/internal/platform/telemetry"
)

// Mutations of the working set run as Validate → Perform → Verify → Archive →
// Commit. Perform works on a copy; nothing becomes visible until Archive has
// persisted the verified copy and Commit has swapped it in.

// ExecutionStep names a pipeline step.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
	StepCommit   ExecutionStep = "commit"
)

// ExecutionError records the step where an operation failed.
type ExecutionError struct {
	Operation string
	Step      ExecutionStep
	Cause     error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Operation, e.Step, e.Cause)
}

// Unwrap exposes the cause so domain errors stay matchable.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Operation bundles the step functions. I is the request, S the staged state
// produced by Perform and O the caller-visible result. Nil steps are skipped.
type Operation[I, S, O any] struct {
	Name string

	Validate func(ctx context.Context, input I) error
	Perform  func(ctx context.Context, input I) (S, error)
	Verify   func(ctx context.Context, input I, staged S) error
	Archive  func(ctx context.Context, input I, staged S) error
	Commit   func(ctx context.Context, input I, staged S) (O, error)
}

// Executor runs operations with per-step logging and a span per operation.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor. A nil logger falls back to the context
// logger at execution time.
func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{logger: logger}
}

// Execute runs op against input.
func Execute[I, S, O any](ctx context.Context, exec *Executor, op Operation[I, S, O], input I) (result O, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "content."+op.Name)
	defer span.End()

	logger := exec.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}

	logger = logger.With(slog.String("operation", op.Name))
	start := time.Now()

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			if step, ok := GetExecutionStep(err); ok {
				span.SetAttributes(attribute.String("content.failed_step", string(step)))
			}
		}
	}()

	fail := func(step ExecutionStep, cause error) error {
		level := slog.LevelError
		if step == StepValidate {
			level = slog.LevelWarn
		}

		logger.Log(ctx, level, "operation failed", slog.String("step", string(step)), slog.Any("error", cause))

		return &ExecutionError{Operation: op.Name, Step: step, Cause: cause}
	}

	if op.Validate != nil {
		if err := op.Validate(ctx, input); err != nil {
			return result, fail(StepValidate, err)
		}
	}

	var staged S

	if op.Perform != nil {
		if staged, err = op.Perform(ctx, input); err != nil {
			return result, fail(StepPerform, err)
		}
	}

	if op.Verify != nil {
		if err := op.Verify(ctx, input, staged); err != nil {
			return result, fail(StepVerify, err)
		}
	}

	if op.Archive != nil {
		if err := op.Archive(ctx, input, staged); err != nil {
			return result, fail(StepArchive, err)
		}
	}

	if op.Commit != nil {
		if result, err = op.Commit(ctx, input, staged); err != nil {
			return result, fail(StepCommit, err)
		}
	}

	logger.DebugContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}

// GetExecutionStep extracts the failed step from err.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
