package scheme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type someCommand struct {
	ID string
}

type otherCommand struct{}

func TestKnownTypesRegistry(t *testing.T) {
	registry := NewKnownTypesRegistry()
	registry.AddKnownTypes("test", &someCommand{}, otherCommand{})

	t.Run("new object", func(t *testing.T) {
		obj, err := registry.NewObject(GroupKind{Group: "test", Kind: "someCommand"})
		require.NoError(t, err)
		assert.IsType(t, &someCommand{}, obj)
	})

	t.Run("object kind", func(t *testing.T) {
		gk, err := registry.ObjectKind(&otherCommand{})
		require.NoError(t, err)
		assert.Equal(t, "test.otherCommand", gk.String())

		gk, err = registry.ObjectKind(someCommand{})
		require.NoError(t, err)
		assert.Equal(t, "test.someCommand", gk.String())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := registry.NewObject(GroupKind{Group: "test", Kind: "nope"})
		assert.EqualError(t, err, "type test.nope is not registered in KnownTypes")

		_, err = registry.ObjectKind(&struct{}{})
		assert.Error(t, err)
	})

	t.Run("not a struct", func(t *testing.T) {
		assert.Panics(t, func() {
			registry.AddKnownTypes("test", "string")
		})
	})

	t.Run("empty group", func(t *testing.T) {
		assert.Panics(t, func() {
			registry.AddKnownTypes("", &someCommand{})
		})
	})
}

func TestParseGroupKind(t *testing.T) {
	gk, err := ParseGroupKind("saga.StartSagaCommand")
	require.NoError(t, err)
	assert.Equal(t, GroupKind{Group: "saga", Kind: "StartSagaCommand"}, gk)

	gk, err = ParseGroupKind("provisioner.saga.CancelSagaCommand")
	require.NoError(t, err)
	assert.Equal(t, Group("provisioner.saga"), gk.Group)

	for _, bad := range []string{"", "noDot", ".Kind", "group."} {
		_, err := ParseGroupKind(bad)
		assert.Error(t, err, bad)
	}

	assert.True(t, GroupKind{}.Empty())
}
