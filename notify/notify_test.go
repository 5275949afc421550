package notify_test

import (
	"context"
	"testing"

	"github.com/dipalisurve2377/organization-events-sub001/failure"
	"github.com/dipalisurve2377/organization-events-sub001/notify"
	"github.com/dipalisurve2377/organization-events-sub001/store"
	"github.com/dipalisurve2377/organization-events-sub001/testing/log"
	mockNotify "github.com/dipalisurve2377/organization-events-sub001/testing/mocks/notify"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Run("known actions", func(t *testing.T) {
		for action, paragraph := range map[notify.Action]string{
			notify.ActionCreated: "has been created successfully",
			notify.ActionUpdated: "has been updated successfully",
			notify.ActionDeleted: "has been deleted",
		} {
			body, err := notify.Render(notify.Notification{Kind: store.OrganizationKind, Name: "Acme", Action: action})
			require.NoError(t, err)
			assert.Contains(t, body, paragraph)
			assert.Contains(t, body, "Hello Acme,")
			assert.Contains(t, body, "please do not reply")
		}
	})

	t.Run("unknown action keeps the envelope", func(t *testing.T) {
		body, err := notify.Render(notify.Notification{Kind: store.UserKind, Name: "Jane", Action: "archived"})
		require.NoError(t, err)
		assert.Contains(t, body, "Hello Jane,")
		assert.Contains(t, body, "please do not reply")
		assert.NotContains(t, body, "has been")
	})

	t.Run("names are escaped", func(t *testing.T) {
		body, err := notify.Render(notify.Notification{Kind: store.UserKind, Name: "<script>", Action: notify.ActionCreated})
		require.NoError(t, err)
		assert.NotContains(t, body, "<script>")
	})
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Organization created", notify.Subject(store.OrganizationKind, notify.ActionCreated))
	assert.Equal(t, "User deleted", notify.Subject(store.UserKind, notify.ActionDeleted))
}

func TestNotifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mailer := mockNotify.NewMockMailer(ctrl)
	notifier := notify.NewNotifier("noreply@acme.io", mailer, log.NewNilLogger())

	t.Run("sends envelope", func(t *testing.T) {
		mailer.
			EXPECT().
			Send(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, msg notify.Message) error {
				assert.Equal(t, "noreply@acme.io", msg.From)
				assert.Equal(t, "admin@acme.io", msg.To)
				assert.Equal(t, "Organization updated", msg.Subject)
				assert.Contains(t, msg.HTML, "has been updated")
				return nil
			})

		require.NoError(t, notifier.Notify(ctx, notify.Notification{Recipient: "admin@acme.io", Kind: store.OrganizationKind, Name: "Acme", Action: notify.ActionUpdated}))
	})

	t.Run("mailer failure is a notification error", func(t *testing.T) {
		mailer.
			EXPECT().
			Send(ctx, gomock.Any()).
			Return(errors.New("535 authentication failed"))

		err := notifier.Notify(ctx, notify.Notification{Recipient: "admin@acme.io", Kind: store.OrganizationKind, Name: "Acme", Action: notify.ActionDeleted})
		require.Error(t, err)
		assert.True(t, failure.Is(err, failure.NotificationError))
		assert.Contains(t, err.Error(), "535 authentication failed")
	})

	t.Run("missing recipient", func(t *testing.T) {
		err := notifier.Notify(ctx, notify.Notification{Kind: store.UserKind, Action: notify.ActionCreated})
		assert.True(t, failure.Is(err, failure.NotificationError))
	})
}
