package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/appmigrate/appmigrate/internal/logging"
)

// Outcome is the result of processing one action.
type Outcome struct {
	Name      string
	Migration Migration
	Action    Action

	// Err is set when the action failed recoverably.
	Err *ActionFailedError

	// Info is a copy of the action's processed data info on success.
	Info map[string]string

	Duration time.Duration
}

// Failed reports whether the action failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// OutcomeFunc receives outcomes as they are produced.
type OutcomeFunc func(Outcome)

// Executor processes actions strictly in order. A recoverable failure of one
// action never stops the remaining actions; any other error does.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor returns an executor logging to the "executor" component logger.
func NewExecutor() *Executor {
	return &Executor{logger: logging.L("executor")}
}

// WithLogger returns a copy of e that logs to logger.
func (e *Executor) WithLogger(logger *slog.Logger) *Executor {
	return &Executor{logger: logger}
}

// Run processes every pair and returns one outcome per processed action.
// onOutcome, when not nil, is called after each action.
//
// If an action returns an error that is not an *ActionFailedError, or ctx is
// done before an action starts, Run stops and returns the outcomes so far
// together with the error.
func (e *Executor) Run(ctx context.Context, pairs []Pair, onOutcome OutcomeFunc) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(pairs))
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		log := e.logger.With(
			logging.KeyMigration, pair.Name,
			logging.KeyAction, pair.Action.Name(),
		)
		log.Debug("processing action", logging.KeyType, pair.Action.Type())

		start := time.Now()
		err := pair.Action.Process(ctx)
		outcome := Outcome{
			Name:      pair.Name,
			Migration: pair.Migration,
			Action:    pair.Action,
			Duration:  time.Since(start),
		}

		if err != nil {
			var failed *ActionFailedError
			if !errors.As(err, &failed) {
				log.Error("action aborted", logging.KeyError, err)
				return outcomes, fmt.Errorf("%s: %s: %w", pair.Name, pair.Action.Name(), err)
			}
			outcome.Err = &ActionFailedError{
				Migration: pair.Name,
				Action:    pair.Action.Name(),
				Err:       failed.Err,
			}
			log.Warn("action failed", logging.KeyError, failed.Err)
		} else {
			outcome.Info = maps.Clone(pair.Action.ProcessedDataInfo())
			log.Debug("action processed", logging.KeyDurationMs, outcome.Duration.Milliseconds())
		}

		outcomes = append(outcomes, outcome)
		if onOutcome != nil {
			onOutcome(outcome)
		}
	}
	return outcomes, nil
}

// Failures returns the recoverable failures among outcomes.
func Failures(outcomes []Outcome) []*ActionFailedError {
	var failures []*ActionFailedError
	for _, o := range outcomes {
		if o.Err != nil {
			failures = append(failures, o.Err)
		}
	}
	return failures
}
