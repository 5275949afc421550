package subscriber

import (
	"context"

	"github.com/dipalisurve2377/organization-events-sub001/log"
	msgDispatcher "github.com/dipalisurve2377/organization-events-sub001/pubsub/dispatcher"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/message"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/message/execution"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/transport"
	"github.com/pkg/errors"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/subscriber/processor.go -package subscriber . Processor

type Processor interface {
	Process(ctx context.Context, inPkg transport.IncomingPkg) error
}

type processor struct {
	logger            log.Logger
	decoder           message.Decoder
	dispatcher        msgDispatcher.Dispatcher
	msgExecCtxFactory execution.MessageExecutionCtxFactory
}

func NewMessageProcessor(decoder message.Decoder, msgExecCtxFactory execution.MessageExecutionCtxFactory, msgDispatcher msgDispatcher.Dispatcher, logger log.Logger) Processor {
	return &processor{decoder: decoder, msgExecCtxFactory: msgExecCtxFactory, dispatcher: msgDispatcher, logger: logger}
}

func (p *processor) Process(ctx context.Context, inPkg transport.IncomingPkg) error {
	msg, err := p.decoder.Decode(inPkg)
	if err != nil {
		p.logger.Logf(log.ErrorLevel, "Failed to decode IncomingPkg into Message. %s", err)
		return errors.WithStack(err)
	}

	executors := p.dispatcher.Match(msg.Payload)

	if len(executors) == 0 {
		err := errors.Errorf("No executors defined for message %s %s", msg.ID, msg.Name)
		p.logger.Log(log.ErrorLevel, err.Error())
		return WithNoExecutorsDefinedErr(err)
	}

	execCtx := p.msgExecCtxFactory.CreateCtx(ctx, msg)

	for _, exec := range executors {
		if err := exec(execCtx); err != nil {
			return errors.Wrapf(err, "error executing message %s %s", msg.ID, msg.Name)
		}
	}

	return nil
}

type NoExecutorsDefinedErr struct {
	error
}

func WithNoExecutorsDefinedErr(err error) error {
	return &NoExecutorsDefinedErr{err}
}
