package execution

import (
	"context"

	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/message"
)

// MessageExecutionCtx is passed to each executor and contains received message and ctx
type MessageExecutionCtx interface {
	// Message returns received message
	Message() *message.Message
	// Context returns parent execution context. Each message has own time limit in which it must be processed.
	Context() context.Context
	// Logger returns logger instance with message id included as a field
	Logger() log.Logger
}

type messageExecutionCtx struct {
	ctx     context.Context
	message *message.Message
	logger  log.Logger
}

func (m messageExecutionCtx) Context() context.Context {
	return m.ctx
}

func (m messageExecutionCtx) Message() *message.Message {
	return m.message
}

func (m messageExecutionCtx) Logger() log.Logger {
	return m.logger
}

type MessageExecutionCtxFactory interface {
	CreateCtx(ctx context.Context, message *message.Message) MessageExecutionCtx
}

type messageExecutionCtxFactory struct {
	logger log.Logger
}

func NewMessageExecutionCtxFactory(logger log.Logger) MessageExecutionCtxFactory {
	return &messageExecutionCtxFactory{logger: logger}
}

func (m messageExecutionCtxFactory) CreateCtx(ctx context.Context, message *message.Message) MessageExecutionCtx {
	return &messageExecutionCtx{
		ctx:     ctx,
		message: message,
		logger:  m.logger.WithFields(log.Fields{"message_id": message.ID, "message_name": message.Name}),
	}
}

// Executor is a callback that will be called on received message with context.
// it should return an error only if internal server error happened, business failures are recorded by the executor itself.
type Executor func(execCtx MessageExecutionCtx) error
