package saga

import (
	"context"
	"testing"

	"github.com/dipalisurve2377/organization-events-sub001/log"
	testLog "github.com/dipalisurve2377/organization-events-sub001/testing/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, policy RetryPolicy) (*sagaContext, Store, *Metrics, *Instance) {
	store := NewMemoryStore()
	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	instance := NewInstance("create-org-acme", "CreateOrganization", "provisioning", map[string]interface{}{"identifier": "acme", "name": "Acme Inc"}, policy)
	require.NoError(t, store.Create(context.Background(), instance))

	return newSagaContext(context.Background(), instance, store, metrics, testLog.NewNilLogger()), store, metrics, instance
}

func TestSagaContext_Input(t *testing.T) {
	sagaCtx, _, _, _ := newTestContext(t, fastPolicy(1))

	var input struct {
		Identifier string `json:"identifier"`
		Name       string `json:"name"`
	}

	require.NoError(t, sagaCtx.Input(&input))
	assert.Equal(t, "acme", input.Identifier)
	assert.Equal(t, "Acme Inc", input.Name)
	assert.Equal(t, "create-org-acme", sagaCtx.InstanceID())

	var wrong struct {
		Identifier int `json:"identifier"`
	}

	err := sagaCtx.Input(&wrong)
	appErr, ok := AsApplicationError(err)
	require.True(t, ok)
	assert.Equal(t, "InvalidInput", appErr.Type)
	assert.True(t, appErr.NonRetryable)
}

func TestSagaContext_ExecuteStep(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		sagaCtx, store, metrics, instance := newTestContext(t, fastPolicy(3))

		calls := 0
		err := sagaCtx.ExecuteStep("CreatePendingRecord", func(ctx context.Context) error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		require.Len(t, instance.History, 1)
		assert.Equal(t, "CreatePendingRecord", instance.History[0].Name)
		assert.Equal(t, OutcomeCompleted, instance.History[0].Outcome)
		assert.Equal(t, 1, instance.History[0].Attempt)

		stored, err := store.GetById(context.Background(), instance.ID)
		require.NoError(t, err)
		assert.Len(t, stored.History, 1)

		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.steps.WithLabelValues("CreatePendingRecord", OutcomeCompleted)))
	})

	t.Run("every failed attempt is recorded", func(t *testing.T) {
		sagaCtx, _, metrics, instance := newTestContext(t, fastPolicy(3))

		err := sagaCtx.ExecuteStep("CreateRemoteAccount", func(ctx context.Context) error {
			return NewApplicationError("ServerError: 503", "ServerError", false, nil)
		})

		require.EqualError(t, err, "ServerError: 503")
		require.Len(t, instance.History, 3)

		for i, ev := range instance.History {
			assert.Equal(t, OutcomeFailed, ev.Outcome)
			assert.Equal(t, i+1, ev.Attempt)
			assert.Equal(t, "ServerError: 503", ev.Error)
		}

		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.steps.WithLabelValues("CreateRemoteAccount", OutcomeFailed)))
	})

	t.Run("retry succeeds", func(t *testing.T) {
		sagaCtx, _, _, instance := newTestContext(t, fastPolicy(3))

		calls := 0
		err := sagaCtx.ExecuteStep("PersistRemoteID", func(ctx context.Context) error {
			calls++
			if calls == 1 {
				return errors.New("store unavailable")
			}
			return nil
		})

		require.NoError(t, err)
		require.Len(t, instance.History, 2)
		assert.Equal(t, OutcomeFailed, instance.History[0].Outcome)
		assert.Equal(t, OutcomeCompleted, instance.History[1].Outcome)
		assert.Equal(t, 2, instance.History[1].Attempt)
	})

	t.Run("step policy overrides saga policy", func(t *testing.T) {
		sagaCtx, _, _, _ := newTestContext(t, fastPolicy(3))

		calls := 0
		err := sagaCtx.ExecuteStep("SendNotification", func(ctx context.Context) error {
			calls++
			return errors.New("smtp down")
		}, WithStepRetryPolicy(fastPolicy(1)))

		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancel request skips the step", func(t *testing.T) {
		sagaCtx, store, metrics, instance := newTestContext(t, fastPolicy(3))
		ctx := context.Background()

		stored, err := store.GetById(ctx, instance.ID)
		require.NoError(t, err)
		stored.Status = StatusCanceling
		require.NoError(t, store.Update(ctx, stored))

		called := false
		err = sagaCtx.ExecuteStep("CreateRemoteAccount", func(ctx context.Context) error {
			called = true
			return nil
		})

		assert.ErrorIs(t, err, ErrCanceled)
		assert.False(t, called)
		require.Len(t, instance.History, 1)
		assert.Equal(t, OutcomeSkipped, instance.History[0].Outcome)
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.steps.WithLabelValues("CreateRemoteAccount", OutcomeSkipped)))

		err = sagaCtx.ExecuteStep("UpdateStatus", func(ctx context.Context) error {
			called = true
			return nil
		}, WithoutCancellation())

		assert.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("store error while checking cancellation", func(t *testing.T) {
		instance := NewInstance("create-org-acme", "CreateOrganization", "provisioning", nil, fastPolicy(1))
		store := &faultyStore{Store: NewMemoryStore(), getErr: errors.New("db is down")}
		sagaCtx := newSagaContext(context.Background(), instance, store, nil, log.NewNilLogger())

		err := sagaCtx.ExecuteStep("CreatePendingRecord", func(ctx context.Context) error { return nil })
		assert.EqualError(t, err, "checking cancellation before step CreatePendingRecord: db is down")
	})

	t.Run("history write failure does not fail the step", func(t *testing.T) {
		logger := testLog.NewNilLogger()
		instance := NewInstance("create-org-acme", "CreateOrganization", "provisioning", nil, fastPolicy(1))
		store := &faultyStore{Store: NewMemoryStore(), appendErr: errors.New("db is down")}
		require.NoError(t, store.Create(context.Background(), instance))
		sagaCtx := newSagaContext(context.Background(), instance, store, nil, logger)

		err := sagaCtx.ExecuteStep("CreatePendingRecord", func(ctx context.Context) error { return nil })
		assert.NoError(t, err)
		assert.Len(t, instance.History, 1)
		assert.Contains(t, logger.MessagesWithLevel(log.ErrorLevel)[0], "error saving history event CreatePendingRecord")
	})
}

// faultyStore fails the chosen operations and passes the rest to the wrapped store
type faultyStore struct {
	Store
	getErr    error
	appendErr error
}

func (s *faultyStore) GetById(ctx context.Context, sagaId string) (*Instance, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.Store.GetById(ctx, sagaId)
}

func (s *faultyStore) AppendHistory(ctx context.Context, sagaId string, ev HistoryEvent) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	return s.Store.AppendHistory(ctx, sagaId, ev)
}

func TestSagaContext_ReconciliationRequired(t *testing.T) {
	sagaCtx, _, metrics, instance := newTestContext(t, fastPolicy(1))

	sagaCtx.ReconciliationRequired(errors.New("remote account idp-1 exists, record is still provisioning"))

	require.Len(t, instance.History, 1)
	assert.Equal(t, "reconciliation_required", instance.History[0].Name)
	assert.Equal(t, "remote account idp-1 exists, record is still provisioning", instance.History[0].Error)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.reconciliation.WithLabelValues("CreateOrganization")))
}
