package dispatcher

import (
	"reflect"
	"testing"

	"github.com/dipalisurve2377/organization-events-sub001/pubsub/message/execution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createOrganizationCmd struct {
	Identifier string
}

type deleteOrganizationCmd struct {
	Identifier string
}

type service struct {
}

func (h *service) handle(execCtx execution.MessageExecutionCtx) error {
	return nil
}

func (h *service) anotherHandler(execCtx execution.MessageExecutionCtx) error {
	return nil
}

var handler = &service{}

func TestDispatcher_SubscribeForCmd(t *testing.T) {
	t.Run("subscribe for cmd by passing pointer to a struct", func(t *testing.T) {
		dispatcher := NewDispatcher()
		dispatcher.SubscribeForCmd(&createOrganizationCmd{}, handler.handle)
		handlers := dispatcher.Match(&createOrganizationCmd{})
		require.Len(t, handlers, 1)
		assertThisValueExists(t, handler.handle, handlers)
	})

	t.Run("value and pointer resolve to the same type", func(t *testing.T) {
		dispatcher := NewDispatcher()
		dispatcher.SubscribeForCmd(createOrganizationCmd{}, handler.handle)
		handlers := dispatcher.Match(&createOrganizationCmd{Identifier: "acme"})
		require.Len(t, handlers, 1)
	})

	t.Run("multiple handlers for cmd", func(t *testing.T) {
		dispatcher := NewDispatcher()
		dispatcher.SubscribeForCmd(&deleteOrganizationCmd{}, handler.handle)
		dispatcher.SubscribeForCmd(&deleteOrganizationCmd{}, handler.anotherHandler)
		handlers := dispatcher.Match(&deleteOrganizationCmd{})
		require.Len(t, handlers, 2)
		assertThisValueExists(t, handler.handle, handlers)
		assertThisValueExists(t, handler.anotherHandler, handlers)
	})

	t.Run("duplicate cmd - handler is ignored", func(t *testing.T) {
		dispatcher := NewDispatcher()
		dispatcher.SubscribeForCmd(&createOrganizationCmd{}, handler.handle)
		dispatcher.SubscribeForCmd(&createOrganizationCmd{}, handler.handle)
		handlers := dispatcher.Match(&createOrganizationCmd{})
		require.Len(t, handlers, 1)
		assertThisValueExists(t, handler.handle, handlers)
	})

	t.Run("no handlers for unknown cmd", func(t *testing.T) {
		dispatcher := NewDispatcher()
		dispatcher.SubscribeForCmd(&createOrganizationCmd{}, handler.handle)
		assert.Empty(t, dispatcher.Match(&deleteOrganizationCmd{}))
	})

	t.Run("cmd is not struct type", func(t *testing.T) {
		dispatcher := NewDispatcher()
		wrongType := notStructType("aaa")
		assert.PanicsWithValue(t, "all types must be pointers to structs", func() {
			dispatcher.SubscribeForCmd(wrongType, handler.handle)
		})
	})
}

type notStructType string

func assertThisValueExists(t *testing.T, expected execution.Executor, executors []execution.Executor) {
	exists := false
	for _, e := range executors {
		expectedPtr := reflect.ValueOf(expected).Pointer()
		currentPtr := reflect.ValueOf(e).Pointer()
		if expectedPtr == currentPtr {
			exists = true
		}
	}
	assert.True(t, exists, "expected executor is not found among executors")
}
