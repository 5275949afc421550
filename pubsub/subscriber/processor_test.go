package subscriber

import (
	"context"
	"testing"

	"github.com/dipalisurve2377/organization-events-sub001/pubsub/dispatcher"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/message"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/message/execution"
	"github.com/dipalisurve2377/organization-events-sub001/testing/log"
	mockMessage "github.com/dipalisurve2377/organization-events-sub001/testing/mocks/pubsub/message"
	mockTransport "github.com/dipalisurve2377/organization-events-sub001/testing/mocks/pubsub/transport"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type provisionCmd struct {
	Identifier string `json:"identifier"`
}

type unknownCmd struct {
}

func TestProcessor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	testLogger := log.NewNilLogger()
	decoder := mockMessage.NewMockDecoder(ctrl)
	execCtxFactory := execution.NewMessageExecutionCtxFactory(testLogger)

	ctx := context.Background()

	t.Run("successfully process a pkg", func(t *testing.T) {
		msgDispatcher := dispatcher.NewDispatcher()
		var executedWith *message.Message

		msgDispatcher.SubscribeForCmd(&provisionCmd{}, func(execCtx execution.MessageExecutionCtx) error {
			executedWith = execCtx.Message()
			return nil
		})

		pkgProcessor := NewMessageProcessor(decoder, execCtxFactory, msgDispatcher, testLogger)

		incomingPkg := mockTransport.NewMockIncomingPkg(ctrl)
		msg := message.NewCommand(&provisionCmd{Identifier: "acme"}, nil)

		decoder.EXPECT().Decode(incomingPkg).Return(msg, nil)

		assert.NoError(t, pkgProcessor.Process(ctx, incomingPkg))
		assert.Same(t, msg, executedWith)
	})

	t.Run("error decoding payload", func(t *testing.T) {
		pkgProcessor := NewMessageProcessor(decoder, execCtxFactory, dispatcher.NewDispatcher(), testLogger)

		incomingPkg := mockTransport.NewMockIncomingPkg(ctrl)
		decoder.EXPECT().Decode(incomingPkg).Return(nil, message.WithDecoderErr(errors.New("some error")))

		err := pkgProcessor.Process(ctx, incomingPkg)
		assert.EqualError(t, err, "some error")
		assert.True(t, errors.As(err, &message.DecoderErr{}))
	})

	t.Run("no executors defined", func(t *testing.T) {
		pkgProcessor := NewMessageProcessor(decoder, execCtxFactory, dispatcher.NewDispatcher(), testLogger)

		incomingPkg := mockTransport.NewMockIncomingPkg(ctrl)
		msg := message.NewCommand(&unknownCmd{}, nil)
		msg.ID = "123"
		msg.Name = "test.unknownCmd"

		decoder.EXPECT().Decode(incomingPkg).Return(msg, nil)

		err := pkgProcessor.Process(ctx, incomingPkg)
		assert.EqualError(t, err, "No executors defined for message 123 test.unknownCmd")

		noExecutorsErr := &NoExecutorsDefinedErr{}
		assert.True(t, errors.As(err, &noExecutorsErr))
	})

	t.Run("executor returns an error", func(t *testing.T) {
		msgDispatcher := dispatcher.NewDispatcher()
		msgDispatcher.SubscribeForCmd(&provisionCmd{}, func(execCtx execution.MessageExecutionCtx) error {
			return errors.New("always return an error")
		})

		pkgProcessor := NewMessageProcessor(decoder, execCtxFactory, msgDispatcher, testLogger)

		incomingPkg := mockTransport.NewMockIncomingPkg(ctrl)
		msg := message.NewCommand(&provisionCmd{Identifier: "acme"}, nil)
		msg.ID = "123"
		msg.Name = "test.provisionCmd"

		decoder.EXPECT().Decode(incomingPkg).Return(msg, nil)

		err := pkgProcessor.Process(ctx, incomingPkg)
		assert.EqualError(t, err, "error executing message 123 test.provisionCmd: always return an error")
	})
}
