package execution

import (
	"context"
	"testing"

	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/dipalisurve2377/organization-events-sub001/pubsub/message"
	testLog "github.com/dipalisurve2377/organization-events-sub001/testing/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageExecutionCtxFactory(t *testing.T) {
	logger := testLog.NewNilLogger()
	factory := NewMessageExecutionCtxFactory(logger)

	ctx := context.WithValue(context.Background(), struct{}{}, "x")
	msg := message.NewCommand(struct{}{}, nil)
	msg.Name = "saga.StartSagaCommand"

	execCtx := factory.CreateCtx(ctx, msg)

	assert.Same(t, msg, execCtx.Message())
	assert.Equal(t, ctx, execCtx.Context())

	execCtx.Logger().Log(log.InfoLevel, "hello")

	entries := logger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, msg.ID, entries[0].Fields["message_id"])
	assert.Equal(t, "saga.StartSagaCommand", entries[0].Fields["message_name"])
}
