package workflow

import (
	"context"

	"github.com/dipalisurve2377/organization-events-sub001/identity"
	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/dipalisurve2377/organization-events-sub001/notify"
	"github.com/dipalisurve2377/organization-events-sub001/saga"
	"github.com/dipalisurve2377/organization-events-sub001/store"
	"github.com/pkg/errors"
)

// target is the entity a saga works on
type target struct {
	kind store.Kind
	key  string
	// recipient of the status email, none is sent when empty
	recipient string
}

type createRequest struct {
	target
	name  string
	attrs identity.Attributes
}

type updateRequest struct {
	target
	fields store.Update
	attrs  identity.Attributes
}

type deleteRequest struct {
	target
	purge bool
}

// create runs pending record, remote account, remote id and notification.
// Once the remote account exists the remaining steps run even if the saga is canceled.
func (d *definitions) create(sagaCtx saga.Context, req createRequest) error {
	err := sagaCtx.ExecuteStep("create_pending_record", func(ctx context.Context) error {
		return d.steps.CreatePendingRecord(ctx, req.kind, req.key, req.name)
	})
	if err != nil {
		return d.abort(sagaCtx, req.target, false, err)
	}

	var remoteID string

	err = sagaCtx.ExecuteStep("create_remote_account", func(ctx context.Context) error {
		id, err := d.steps.CreateRemoteAccount(ctx, req.kind, req.attrs)
		remoteID = id
		return err
	})
	if err != nil {
		return d.abort(sagaCtx, req.target, true, err)
	}

	err = sagaCtx.ExecuteStep("persist_remote_id", func(ctx context.Context) error {
		return d.steps.PersistRemoteID(ctx, req.kind, req.key, remoteID)
	}, saga.WithoutCancellation())
	if err != nil {
		// the remote account is kept, the record stays provisioning until somebody reconciles it
		sagaCtx.ReconciliationRequired(errors.Wrapf(err, "remote %s %s exists but %s '%s' was not linked to it", req.kind, remoteID, req.kind, req.key))
		return err
	}

	d.recordIgnoredCancel(sagaCtx, true)

	d.notify(sagaCtx, req.target, req.name, notify.ActionCreated)

	return nil
}

func (d *definitions) update(sagaCtx saga.Context, req updateRequest) error {
	err := sagaCtx.ExecuteStep("mark_updating", func(ctx context.Context) error {
		return d.steps.UpdateStatus(ctx, req.kind, req.key, store.Update{Status: store.Some(store.StatusUpdating)})
	})
	if err != nil {
		return d.abort(sagaCtx, req.target, false, err)
	}

	record, err := d.findRecord(sagaCtx, req.target)
	if err != nil {
		return d.abort(sagaCtx, req.target, true, err)
	}

	name, renamed := req.fields.Name.Get()
	remoteChanged := false

	if renamed && name != record.Name && record.IdpID != "" {
		err = sagaCtx.ExecuteStep("update_remote_account", func(ctx context.Context) error {
			return d.steps.UpdateRemoteAccount(ctx, req.kind, record.IdpID, req.attrs)
		})
		if err != nil {
			return d.abort(sagaCtx, req.target, true, err)
		}

		remoteChanged = true
	}

	fields := req.fields
	fields.Status = store.Some(store.StatusUpdated)

	err = sagaCtx.ExecuteStep("write_record", func(ctx context.Context) error {
		return d.steps.UpdateStatus(ctx, req.kind, req.key, fields)
	}, followRemote(remoteChanged)...)
	if err != nil {
		if remoteChanged {
			sagaCtx.ReconciliationRequired(errors.Wrapf(err, "remote %s %s was renamed but %s '%s' was not updated", req.kind, record.IdpID, req.kind, req.key))
		}
		return d.abort(sagaCtx, req.target, true, err)
	}

	d.recordIgnoredCancel(sagaCtx, remoteChanged)

	d.notify(sagaCtx, req.target, fields.Name.OrElse(record.Name), notify.ActionUpdated)

	return nil
}

func (d *definitions) delete(sagaCtx saga.Context, req deleteRequest) error {
	err := sagaCtx.ExecuteStep("mark_deleting", func(ctx context.Context) error {
		return d.steps.UpdateStatus(ctx, req.kind, req.key, store.Update{Status: store.Some(store.StatusDeleting)})
	})
	if err != nil {
		return d.abort(sagaCtx, req.target, false, err)
	}

	record, err := d.findRecord(sagaCtx, req.target)
	if err != nil {
		return d.abort(sagaCtx, req.target, true, err)
	}

	remoteDeleted := false

	if record.IdpID != "" {
		err = sagaCtx.ExecuteStep("delete_remote_account", func(ctx context.Context) error {
			return d.steps.DeleteRemoteAccount(ctx, req.kind, record.IdpID)
		})
		if err != nil {
			return d.abort(sagaCtx, req.target, true, err)
		}

		remoteDeleted = true
	} else {
		sagaCtx.Logger().Logf(log.InfoLevel, "%s '%s' is not linked to a remote account", req.kind, req.key)
	}

	if req.purge {
		err = sagaCtx.ExecuteStep("purge_record", func(ctx context.Context) error {
			return d.steps.PurgeRecord(ctx, req.kind, req.key)
		}, followRemote(remoteDeleted)...)
	} else {
		err = sagaCtx.ExecuteStep("mark_deleted", func(ctx context.Context) error {
			return d.steps.UpdateStatus(ctx, req.kind, req.key, store.Update{
				IdpID:  store.Some(""),
				Status: store.Some(store.StatusDeleted),
			})
		}, followRemote(remoteDeleted)...)
	}

	if err != nil {
		if remoteDeleted {
			sagaCtx.ReconciliationRequired(errors.Wrapf(err, "remote %s %s was deleted but %s '%s' was not", req.kind, record.IdpID, req.kind, req.key))
		}
		return d.abort(sagaCtx, req.target, true, err)
	}

	d.recordIgnoredCancel(sagaCtx, remoteDeleted)

	d.notify(sagaCtx, req.target, record.Name, notify.ActionDeleted)

	return nil
}

func (d *definitions) findRecord(sagaCtx saga.Context, t target) (*store.Record, error) {
	var record *store.Record

	err := sagaCtx.ExecuteStep("find_record", func(ctx context.Context) error {
		r, err := d.steps.FindRecord(ctx, t.kind, t.key)
		record = r
		return err
	})

	return record, err
}

// abort moves an entity the saga already marked in flight to canceled or failed and returns err unchanged.
// An entity the saga never marked keeps its status.
func (d *definitions) abort(sagaCtx saga.Context, t target, marked bool, err error) error {
	if !marked {
		sagaCtx.Logger().Logf(log.InfoLevel, "%s '%s' was not marked by this saga, its status is left as is", t.kind, t.key)
		return err
	}

	status := store.StatusFailed
	if errors.Is(err, saga.ErrCanceled) {
		status = store.StatusCanceled
	}

	markErr := sagaCtx.ExecuteStep("mark_"+status.String(), func(ctx context.Context) error {
		return d.steps.UpdateStatus(ctx, t.kind, t.key, store.Update{Status: store.Some(status)})
	}, saga.WithoutCancellation())

	if markErr != nil {
		sagaCtx.Logger().Logf(log.ErrorLevel, "marking %s '%s' as %s. %s", t.kind, t.key, status, markErr)
	}

	return err
}

// notify is best effort, a failed email never changes the outcome of the saga
func (d *definitions) notify(sagaCtx saga.Context, t target, name string, action notify.Action) {
	if t.recipient == "" {
		sagaCtx.Logger().Logf(log.InfoLevel, "no recipient for %s '%s', skipping %s notification", t.kind, t.key, action)
		return
	}

	notification := notify.Notification{
		Recipient: t.recipient,
		Kind:      t.kind,
		Name:      name,
		Action:    action,
	}

	err := sagaCtx.ExecuteStep("send_notification", func(ctx context.Context) error {
		return d.steps.SendNotification(ctx, notification)
	}, saga.WithoutCancellation())

	if err != nil {
		sagaCtx.Logger().Logf(log.WarnLevel, "%s notification to %s failed. %s", action, t.recipient, err)
	}
}

// recordIgnoredCancel leaves a trace when a cancel request arrived after a remote change and the saga finished anyway
func (d *definitions) recordIgnoredCancel(sagaCtx saga.Context, remoteChanged bool) {
	if !remoteChanged {
		return
	}

	requested, err := sagaCtx.CancelRequested()
	if err != nil {
		sagaCtx.Logger().Logf(log.WarnLevel, "checking for an ignored cancel request. %s", err)
		return
	}

	if requested {
		sagaCtx.RecordEvent("cancel_ignored", errors.New("cancel requested after the identity provider was changed, the saga ran to the end"))
	}
}

// followRemote keeps the record in step with a remote change that already happened
func followRemote(remoteChanged bool) []saga.StepOption {
	if remoteChanged {
		return []saga.StepOption{saga.WithoutCancellation()}
	}

	return nil
}
