// Package activity implements the workflow steps on top of the identity provider, the record store and the notifier.
package activity

import (
	"context"
	"fmt"

	"github.com/dipalisurve2377/organization-events-sub001/failure"
	"github.com/dipalisurve2377/organization-events-sub001/identity"
	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/dipalisurve2377/organization-events-sub001/notify"
	"github.com/dipalisurve2377/organization-events-sub001/saga"
	"github.com/dipalisurve2377/organization-events-sub001/store"
	"github.com/dipalisurve2377/organization-events-sub001/workflow"
	"github.com/pkg/errors"
)

// UnknownError is the type of an application error built from an unclassified failure
const UnknownError = "UnknownError"

//go:generate mockgen --build_flags=--mod=mod -destination ../testing/mocks/activity/deps.go -package activity . IdentityProvider,Notifier

type IdentityProvider interface {
	CreateAccount(ctx context.Context, resource identity.Resource, attrs identity.Attributes) (string, error)
	UpdateAccount(ctx context.Context, resource identity.Resource, remoteID string, attrs identity.Attributes) error
	DeleteAccount(ctx context.Context, resource identity.Resource, remoteID string) error
}

type Notifier interface {
	Notify(ctx context.Context, notification notify.Notification) error
}

var _ workflow.Steps = (*Activities)(nil)

type Activities struct {
	idp      IdentityProvider
	records  store.Store
	notifier Notifier
	logger   log.Logger
}

func NewActivities(idp IdentityProvider, records store.Store, notifier Notifier, logger log.Logger) *Activities {
	return &Activities{idp: idp, records: records, notifier: notifier, logger: logger}
}

func (a *Activities) CreatePendingRecord(ctx context.Context, kind store.Kind, key, name string) error {
	if _, err := a.records.CreatePending(ctx, kind, key, name); err != nil {
		return applicationError(err, "creating pending", kind, key)
	}

	return nil
}

func (a *Activities) CreateRemoteAccount(ctx context.Context, kind store.Kind, attrs identity.Attributes) (string, error) {
	resource, err := resourceOf(kind)
	if err != nil {
		return "", err
	}

	remoteID, err := a.idp.CreateAccount(ctx, resource, attrs)
	if err != nil {
		return "", applicationError(err, "creating remote", kind, attributesKey(kind, attrs))
	}

	if remoteID == "" {
		return "", saga.NewApplicationError(
			fmt.Sprintf("creating remote %s %s: identity provider returned no id", kind, attributesKey(kind, attrs)),
			failure.ServerError.String(),
			false,
			nil,
		)
	}

	a.logger.Logf(log.InfoLevel, "created remote %s %s", kind, remoteID)

	return remoteID, nil
}

func (a *Activities) UpdateRemoteAccount(ctx context.Context, kind store.Kind, remoteID string, attrs identity.Attributes) error {
	resource, err := resourceOf(kind)
	if err != nil {
		return err
	}

	if err := a.idp.UpdateAccount(ctx, resource, remoteID, attrs); err != nil {
		return applicationError(err, "updating remote", kind, remoteID)
	}

	return nil
}

func (a *Activities) DeleteRemoteAccount(ctx context.Context, kind store.Kind, remoteID string) error {
	resource, err := resourceOf(kind)
	if err != nil {
		return err
	}

	if err := a.idp.DeleteAccount(ctx, resource, remoteID); err != nil {
		return applicationError(err, "deleting remote", kind, remoteID)
	}

	return nil
}

func (a *Activities) PersistRemoteID(ctx context.Context, kind store.Kind, key, remoteID string) error {
	update := store.Update{
		IdpID:  store.Some(remoteID),
		Status: store.Some(store.StatusSuccess),
	}

	if _, err := a.records.UpsertStatus(ctx, kind, key, update); err != nil {
		return applicationError(err, "persisting remote id of", kind, key)
	}

	return nil
}

func (a *Activities) FindRecord(ctx context.Context, kind store.Kind, key string) (*store.Record, error) {
	record, err := a.records.FindByKey(ctx, kind, key)
	if err != nil {
		return nil, applicationError(err, "reading", kind, key)
	}

	return record, nil
}

func (a *Activities) UpdateStatus(ctx context.Context, kind store.Kind, key string, update store.Update) error {
	if update.IsEmpty() {
		return nil
	}

	if _, err := a.records.UpsertStatus(ctx, kind, key, update); err != nil {
		return applicationError(err, "updating", kind, key)
	}

	return nil
}

func (a *Activities) PurgeRecord(ctx context.Context, kind store.Kind, key string) error {
	err := a.records.Delete(ctx, kind, key)

	// a purge that is repeated after a lost answer finds nothing to delete
	if failure.Is(err, failure.RecordNotFound) {
		a.logger.Logf(log.InfoLevel, "%s %s is already purged", kind, key)
		return nil
	}

	if err != nil {
		return applicationError(err, "purging", kind, key)
	}

	return nil
}

func (a *Activities) SendNotification(ctx context.Context, notification notify.Notification) error {
	if err := a.notifier.Notify(ctx, notification); err != nil {
		return applicationError(err, fmt.Sprintf("notifying %s about", notification.Recipient), notification.Kind, string(notification.Action))
	}

	return nil
}

// applicationError keeps the classification of err and adds what the step was doing with which target
func applicationError(err error, operation string, kind store.Kind, target string) error {
	message := fmt.Sprintf("%s %s %s: %s", operation, kind, target, err)

	if fErr, ok := failure.As(err); ok {
		return saga.NewApplicationError(message, fErr.Kind.String(), !fErr.Retryable(), err)
	}

	return saga.NewApplicationError(message, UnknownError, false, err)
}

func resourceOf(kind store.Kind) (identity.Resource, error) {
	switch kind {
	case store.UserKind:
		return identity.Users, nil
	case store.OrganizationKind:
		return identity.Organizations, nil
	default:
		return "", saga.NewApplicationError(fmt.Sprintf("unknown entity kind '%s'", kind), failure.ClientError.String(), true, errors.Errorf("unknown entity kind '%s'", kind))
	}
}

func attributesKey(kind store.Kind, attrs identity.Attributes) string {
	field := "name"
	if kind == store.UserKind {
		field = "email"
	}

	if v, ok := attrs[field].(string); ok {
		return v
	}

	return ""
}
