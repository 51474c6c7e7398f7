package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

type sagaStep struct {
	name       string
	resource   string
	id         string
	action     func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// saga runs steps in order. When a step fails, the compensations of the steps
// already done run in reverse order.
type saga struct {
	flow    string
	steps   []sagaStep
	logger  ports.LoggerPort
	metrics ports.MetricsPort
}

func newSaga(flow string, logger ports.LoggerPort, metrics ports.MetricsPort) *saga {
	return &saga{flow: flow, logger: logger, metrics: metrics}
}

func (s *saga) add(step sagaStep) {
	s.steps = append(s.steps, step)
}

// run returns nil, a *domain.FlowError when everything was rolled back,
// or a *domain.PartialFailure when some compensation failed.
func (s *saga) run(ctx context.Context) error {
	for i, step := range s.steps {
		err := step.action(ctx)
		if err == nil {
			continue
		}

		err = classifyStepError(step, err)
		s.logger.Error("Flow step failed", map[string]interface{}{
			"flow":     s.flow,
			"step":     step.name,
			"resource": step.resource,
			"id":       step.id,
			"error":    err.Error(),
		})

		compErrs := s.compensate(ctx, s.steps[:i])
		if len(compErrs) > 0 {
			return &domain.PartialFailure{
				Flow:             s.flow,
				Step:             step.name,
				Err:              err,
				CompensationErrs: compErrs,
			}
		}
		return &domain.FlowError{Flow: s.flow, Step: step.name, Err: err}
	}
	return nil
}

// compensate keeps going after a failed compensation so as much as possible is restored.
// It ignores cancellation of the request context.
func (s *saga) compensate(ctx context.Context, done []sagaStep) []error {
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.compensate == nil {
			continue
		}
		if err := step.compensate(ctx); err != nil {
			s.logger.Error("Compensation failed", map[string]interface{}{
				"flow":     s.flow,
				"step":     step.name,
				"resource": step.resource,
				"id":       step.id,
				"error":    err.Error(),
			})
			s.metrics.RecordCompensation(s.flow, step.name, false)
			errs = append(errs, fmt.Errorf("compensate %s: %w", step.name, err))
			continue
		}
		s.logger.Info("Compensation applied", map[string]interface{}{
			"flow": s.flow,
			"step": step.name,
			"id":   step.id,
		})
		s.metrics.RecordCompensation(s.flow, step.name, true)
	}
	return errs
}

func classifyStepError(step sagaStep, err error) error {
	if errors.Is(err, domain.ErrVersionConflict) {
		return &domain.ConflictError{
			Resource: step.resource,
			ID:       step.id,
			Reason:   "modified concurrently",
			Err:      err,
		}
	}
	return err
}
