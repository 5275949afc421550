package handlers

import (
	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/dispatcher"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/message/execution"
	sagaPkg "github.com/dipalisurve2377/organization-events-sub001/saga"
	"github.com/dipalisurve2377/organization-events-sub001/saga/contracts"
	"github.com/pkg/errors"
)

func NewSagaControlHandler(runner *sagaPkg.Runner) *SagaControlHandler {
	return &SagaControlHandler{runner: runner}
}

type SagaControlHandler struct {
	runner *sagaPkg.Runner
}

// Subscribe routes saga control commands of the dispatcher to this handler
func (h *SagaControlHandler) Subscribe(d dispatcher.Dispatcher) {
	d.SubscribeForCmd(&contracts.StartSagaCommand{}, h.Handle)
	d.SubscribeForCmd(&contracts.CancelSagaCommand{}, h.Handle)
}

// Handle returns an error only when the runtime itself failed. A failed workflow is recorded on the instance.
func (h *SagaControlHandler) Handle(execCtx execution.MessageExecutionCtx) error {
	ctx := execCtx.Context()
	msg := execCtx.Message()
	logger := execCtx.Logger()

	switch cmd := msg.Payload.(type) {
	case *contracts.StartSagaCommand:
		logger.Logf(log.DebugLevel, "starting saga %s of %s", cmd.InstanceID, cmd.Name)

		instance, err := h.runner.Start(ctx, *cmd)
		if err != nil {
			if errors.Is(err, sagaPkg.ErrAlreadyInFlight) {
				logger.Logf(log.WarnLevel, "saga %s is already in flight, start command %s ignored", cmd.InstanceID, msg.ID)
				return nil
			}

			return errors.Wrapf(err, "running saga %s", cmd.InstanceID)
		}

		logger.Logf(log.InfoLevel, "saga %s finished with status %s", instance.ID, instance.Status)

	case *contracts.CancelSagaCommand:
		if err := h.runner.Cancel(ctx, cmd.InstanceID); err != nil {
			return errors.Wrapf(err, "canceling saga %s", cmd.InstanceID)
		}

		logger.Logf(log.InfoLevel, "cancel requested for saga %s", cmd.InstanceID)

	default:
		return errors.Errorf("unknown command type `%s` for SagaControlHandler. Supported: StartSagaCommand, CancelSagaCommand", msg.Name)
	}

	return nil
}
