package saga

import (
	"context"

	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/message"
	"github.com/pkg/errors"
)

// StepFunc is one external effect of a saga. It must be safe to run again after a failure.
type StepFunc func(ctx context.Context) error

type StepOption func(o *stepOptions)

type stepOptions struct {
	ignoreCancellation bool
	retryPolicy        *RetryPolicy
}

// WithoutCancellation runs the step even after a cancel request. Used for the steps that record the outcome.
func WithoutCancellation() StepOption {
	return func(o *stepOptions) {
		o.ignoreCancellation = true
	}
}

func WithStepRetryPolicy(policy RetryPolicy) StepOption {
	return func(o *stepOptions) {
		o.retryPolicy = &policy
	}
}

// Context is passed to a workflow. Steps run strictly one after another.
type Context interface {
	Context() context.Context
	InstanceID() string
	// Input decodes the saga arguments into target, a pointer to a struct with json tags
	Input(target interface{}) error
	ExecuteStep(name string, step StepFunc, opts ...StepOption) error
	// CancelRequested reports whether a cancel request for the instance is pending
	CancelRequested() (bool, error)
	// RecordEvent attaches a custom event to the instance history
	RecordEvent(name string, err error)
	// ReconciliationRequired records that the remote and local state diverged and nobody will fix it automatically
	ReconciliationRequired(err error)
	Logger() log.Logger
}

type sagaContext struct {
	ctx      context.Context
	instance *Instance
	store    Store
	metrics  *Metrics
	logger   log.Logger
}

func newSagaContext(ctx context.Context, instance *Instance, store Store, metrics *Metrics, logger log.Logger) *sagaContext {
	return &sagaContext{
		ctx:      ctx,
		instance: instance,
		store:    store,
		metrics:  metrics,
		logger:   logger.WithFields(log.Fields{"saga_id": instance.ID, "saga_name": instance.Name}),
	}
}

func (c *sagaContext) Context() context.Context {
	return c.ctx
}

func (c *sagaContext) InstanceID() string {
	return c.instance.ID
}

func (c *sagaContext) Logger() log.Logger {
	return c.logger
}

func (c *sagaContext) Input(target interface{}) error {
	if err := message.DecodeInto(c.instance.Input, target); err != nil {
		return NewApplicationError(
			errors.Wrapf(err, "decoding input of saga %s", c.instance.ID).Error(),
			"InvalidInput",
			true,
			err,
		)
	}

	return nil
}

func (c *sagaContext) ExecuteStep(name string, step StepFunc, opts ...StepOption) error {
	stepOpts := &stepOptions{}
	for _, opt := range opts {
		opt(stepOpts)
	}

	policy := c.instance.RetryPolicy
	if stepOpts.retryPolicy != nil {
		policy = *stepOpts.retryPolicy
	}

	if !stepOpts.ignoreCancellation {
		canceled, err := c.CancelRequested()
		if err != nil {
			return errors.Wrapf(err, "checking cancellation before step %s", name)
		}

		if canceled {
			c.logger.Logf(log.InfoLevel, "saga was canceled, skipping step %s", name)
			c.record(NewHistoryEvent(name, OutcomeSkipped, 0, nil))
			c.metrics.stepFinished(name, OutcomeSkipped)
			return ErrCanceled
		}
	}

	c.logger.Logf(log.DebugLevel, "executing step %s", name)

	attempts, err := policy.do(c.ctx, func(attempt int) error {
		err := step(c.ctx)
		if err != nil {
			c.logger.Logf(log.WarnLevel, "step %s attempt %d failed. %s", name, attempt, err)
			c.record(NewHistoryEvent(name, OutcomeFailed, attempt, err))
		}
		return err
	})

	if err != nil {
		c.logger.Logf(log.ErrorLevel, "step %s failed after %d attempts. %s", name, attempts, err)
		c.metrics.stepFinished(name, OutcomeFailed)

		return err
	}

	c.record(NewHistoryEvent(name, OutcomeCompleted, attempts, nil))
	c.metrics.stepFinished(name, OutcomeCompleted)

	return nil
}

func (c *sagaContext) RecordEvent(name string, err error) {
	c.record(NewHistoryEvent(name, name, 0, err))
}

func (c *sagaContext) ReconciliationRequired(err error) {
	c.logger.Logf(log.ErrorLevel, "reconciliation required for saga %s. %s", c.instance.ID, err)
	c.RecordEvent("reconciliation_required", err)
	c.metrics.reconciliationRequired(c.instance.Name)
}

func (c *sagaContext) record(ev HistoryEvent) {
	c.instance.AttachEvent(ev)

	// history is observability only, a failed write must not fail the step that already happened
	if err := c.store.AppendHistory(context.WithoutCancel(c.ctx), c.instance.ID, ev); err != nil {
		c.logger.Logf(log.ErrorLevel, "error saving history event %s of saga %s. %s", ev.Name, c.instance.ID, err)
	}
}

func (c *sagaContext) CancelRequested() (bool, error) {
	current, err := c.store.GetById(c.ctx, c.instance.ID)
	if err != nil {
		return false, errors.WithStack(err)
	}

	return current != nil && current.Status == StatusCanceling, nil
}
