package saga

import (
	"context"
	"sync"

	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/dipalisurve2377/organization-events-sub001/saga/contracts"
	"github.com/dipalisurve2377/organization-events-sub001/saga/mutex"
	"github.com/pkg/errors"
)

// Workflow is a saga definition. It returns ErrCanceled when it stopped because of a cancel request.
type Workflow func(sagaCtx Context) error

// Runner executes registered workflows. One instance id is run by at most one runner at a time.
type Runner struct {
	mutex     sync.RWMutex
	workflows map[string]Workflow
	store     Store
	sagaMutex mutex.Mutex
	metrics   *Metrics
	logger    log.Logger
}

func NewRunner(store Store, sagaMutex mutex.Mutex, metrics *Metrics, logger log.Logger) *Runner {
	return &Runner{
		workflows: make(map[string]Workflow),
		store:     store,
		sagaMutex: sagaMutex,
		metrics:   metrics,
		logger:    logger,
	}
}

// Register panics on duplicate names, registration happens once on start up
func (r *Runner) Register(name string, workflow Workflow) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.workflows[name]; exists {
		panic(errors.Errorf("workflow %s is already registered", name))
	}

	r.workflows[name] = workflow
}

func (r *Runner) Registered(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, exists := r.workflows[name]

	return exists
}

// Start runs the workflow to the end and returns the finished instance.
// Returned error covers infrastructure failures only, the outcome of the workflow is in instance Status and LastError.
func (r *Runner) Start(ctx context.Context, cmd contracts.StartSagaCommand) (*Instance, error) {
	r.mutex.RLock()
	workflow, exists := r.workflows[cmd.Name]
	r.mutex.RUnlock()

	if !exists {
		return nil, errors.Errorf("workflow %s is not registered", cmd.Name)
	}

	if cmd.InstanceID == "" {
		return nil, errors.Errorf("instance id is required to start workflow %s", cmd.Name)
	}

	lock, err := r.sagaMutex.Lock(ctx, cmd.InstanceID)
	if err != nil {
		if errors.Is(err, mutex.ErrLocked) {
			return nil, errors.Wrapf(ErrAlreadyInFlight, "saga %s", cmd.InstanceID)
		}
		return nil, errors.Wrapf(err, "locking saga %s", cmd.InstanceID)
	}

	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			r.logger.Logf(log.ErrorLevel, "releasing lock of saga %s. %s", cmd.InstanceID, err)
		}
	}()

	instance, err := r.prepareInstance(ctx, cmd)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// a canceling instance keeps its status so the first step skips the rest of the workflow
	if instance.Status != StatusCanceling {
		moved, err := r.store.TransitionStatus(ctx, instance.ID, StatusInProgress, StatusCreated, StatusInProgress)
		if err != nil {
			return nil, errors.Wrapf(err, "marking saga %s in progress", instance.ID)
		}

		status := StatusInProgress
		if !moved {
			// mysql reports no affected rows for a resumed instance that is already in progress
			current, err := r.store.GetById(ctx, instance.ID)
			if err != nil {
				return nil, errors.Wrapf(err, "loading saga %s", instance.ID)
			}

			// a cancel request arrived after the instance was loaded
			if current != nil && current.Status == StatusCanceling {
				status = StatusCanceling
			}
		}

		instance.setStatus(status, nil)
	}

	sagaCtx := newSagaContext(ctx, instance, r.store, r.metrics, r.logger)
	sagaCtx.Logger().Logf(log.InfoLevel, "starting saga")

	workflowErr := workflow(sagaCtx)

	switch {
	case workflowErr == nil:
		instance.setStatus(StatusCompleted, nil)
		sagaCtx.Logger().Logf(log.InfoLevel, "saga completed")
	case errors.Is(workflowErr, ErrCanceled):
		instance.setStatus(StatusCanceled, nil)
		sagaCtx.Logger().Logf(log.InfoLevel, "saga canceled")
	default:
		instance.setStatus(StatusFailed, workflowErr)
		sagaCtx.Logger().Logf(log.ErrorLevel, "saga failed. %s", workflowErr)
	}

	// the outcome is written even if the worker is shutting down
	if err := r.store.Update(context.WithoutCancel(ctx), instance); err != nil {
		return instance, errors.Wrapf(err, "saving final status %s of saga %s", instance.Status, instance.ID)
	}

	r.metrics.sagaFinished(instance.Name, instance.Status)

	return instance, nil
}

// prepareInstance loads the stored instance or creates a new one. A terminal instance is replaced,
// an in flight one left behind by a crashed worker is picked up again.
func (r *Runner) prepareInstance(ctx context.Context, cmd contracts.StartSagaCommand) (*Instance, error) {
	existing, err := r.store.GetById(ctx, cmd.InstanceID)
	if err != nil {
		return nil, errors.Wrapf(err, "loading saga %s", cmd.InstanceID)
	}

	if existing != nil && !existing.Status.Terminal() {
		if existing.Status != StatusCreated {
			r.logger.Logf(log.WarnLevel, "saga %s is in status %s without a running owner, resuming it", existing.ID, existing.Status)
		}
		return existing, nil
	}

	if existing != nil {
		if err := r.store.Delete(ctx, existing.ID); err != nil {
			return nil, errors.Wrapf(err, "replacing finished saga %s", existing.ID)
		}
	}

	instance := NewInstance(cmd.InstanceID, cmd.Name, cmd.TaskQueue, cmd.Args, retryPolicyFromContract(cmd.RetryPolicy).WithDefaults())

	if err := r.store.Create(ctx, instance); err != nil {
		return nil, errors.Wrapf(err, "creating saga %s", instance.ID)
	}

	return instance, nil
}

// Cancel marks an in flight instance. The running workflow observes it before its next step.
// The status changes only if the instance is still in flight at the moment of the write, a finished instance is never reopened.
func (r *Runner) Cancel(ctx context.Context, sagaId string) error {
	moved, err := r.store.TransitionStatus(ctx, sagaId, StatusCanceling, StatusCreated, StatusInProgress)
	if err != nil {
		return errors.Wrapf(err, "marking saga %s canceling", sagaId)
	}

	if moved {
		return nil
	}

	instance, err := r.store.GetById(ctx, sagaId)
	if err != nil {
		return errors.Wrapf(err, "loading saga %s", sagaId)
	}

	if instance == nil {
		return errors.Errorf("saga %s not found", sagaId)
	}

	r.logger.Logf(log.InfoLevel, "saga %s is already %s, nothing to cancel", sagaId, instance.Status)

	return nil
}

func retryPolicyFromContract(policy *contracts.RetryPolicy) RetryPolicy {
	if policy == nil {
		return RetryPolicy{}
	}

	return RetryPolicy{
		MaximumAttempts:        policy.MaximumAttempts,
		InitialInterval:        policy.InitialInterval,
		BackoffCoefficient:     policy.BackoffCoefficient,
		MaximumInterval:        policy.MaximumInterval,
		NonRetryableErrorTypes: policy.NonRetryableErrorTypes,
	}
}

func retryPolicyToContract(policy *RetryPolicy) *contracts.RetryPolicy {
	if policy == nil {
		return nil
	}

	return &contracts.RetryPolicy{
		MaximumAttempts:        policy.MaximumAttempts,
		InitialInterval:        policy.InitialInterval,
		BackoffCoefficient:     policy.BackoffCoefficient,
		MaximumInterval:        policy.MaximumInterval,
		NonRetryableErrorTypes: policy.NonRetryableErrorTypes,
	}
}
