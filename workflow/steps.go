package workflow

import (
	"context"

	"github.com/dipalisurve2377/organization-events-sub001/identity"
	"github.com/dipalisurve2377/organization-events-sub001/notify"
	"github.com/dipalisurve2377/organization-events-sub001/store"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../testing/mocks/workflow/steps.go -package workflow . Steps

// Steps are the external effects a workflow is made of. Each one is safe to repeat with the same input
// and fails with a *saga.ApplicationError.
type Steps interface {
	CreatePendingRecord(ctx context.Context, kind store.Kind, key, name string) error
	CreateRemoteAccount(ctx context.Context, kind store.Kind, attrs identity.Attributes) (string, error)
	UpdateRemoteAccount(ctx context.Context, kind store.Kind, remoteID string, attrs identity.Attributes) error
	DeleteRemoteAccount(ctx context.Context, kind store.Kind, remoteID string) error
	// PersistRemoteID links the record to the remote account and marks it provisioned in one write
	PersistRemoteID(ctx context.Context, kind store.Kind, key, remoteID string) error
	FindRecord(ctx context.Context, kind store.Kind, key string) (*store.Record, error)
	UpdateStatus(ctx context.Context, kind store.Kind, key string, update store.Update) error
	PurgeRecord(ctx context.Context, kind store.Kind, key string) error
	SendNotification(ctx context.Context, notification notify.Notification) error
}
