package workflow

import (
	"github.com/dipalisurve2377/organization-events-sub001/identity"
	"github.com/dipalisurve2377/organization-events-sub001/saga"
	"github.com/dipalisurve2377/organization-events-sub001/store"
)

func (d *definitions) createOrganization(sagaCtx saga.Context) error {
	input := &OrganizationInput{}
	if err := decodeInput(sagaCtx, input); err != nil {
		return err
	}

	return d.create(sagaCtx, createRequest{
		target: target{kind: store.OrganizationKind, key: input.Identifier, recipient: input.NotifyEmail},
		name:   input.Name,
		attrs:  input.attributes(),
	})
}

func (d *definitions) createUser(sagaCtx saga.Context) error {
	input := &UserInput{}
	if err := decodeInput(sagaCtx, input); err != nil {
		return err
	}

	return d.create(sagaCtx, createRequest{
		target: target{kind: store.UserKind, key: input.Email, recipient: input.Email},
		name:   input.Name,
		attrs:  input.attributes(),
	})
}

func (d *definitions) updateOrganization(sagaCtx saga.Context) error {
	input := &OrganizationUpdateInput{}
	if err := decodeInput(sagaCtx, input); err != nil {
		return err
	}

	return d.update(sagaCtx, updateRequest{
		target: target{kind: store.OrganizationKind, key: input.Identifier, recipient: input.NotifyEmail},
		fields: input.update(),
		attrs:  identity.Attributes{"display_name": input.Name},
	})
}

func (d *definitions) updateUser(sagaCtx saga.Context) error {
	input := &UserUpdateInput{}
	if err := decodeInput(sagaCtx, input); err != nil {
		return err
	}

	return d.update(sagaCtx, updateRequest{
		target: target{kind: store.UserKind, key: input.Email, recipient: input.Email},
		fields: input.update(),
		attrs:  identity.Attributes{"name": input.Name},
	})
}

func (d *definitions) deleteOrganization(sagaCtx saga.Context) error {
	input := &OrganizationDeleteInput{}
	if err := decodeInput(sagaCtx, input); err != nil {
		return err
	}

	return d.delete(sagaCtx, deleteRequest{
		target: target{kind: store.OrganizationKind, key: input.Identifier, recipient: input.NotifyEmail},
		purge:  input.Purge,
	})
}

func (d *definitions) deleteUser(sagaCtx saga.Context) error {
	input := &UserDeleteInput{}
	if err := decodeInput(sagaCtx, input); err != nil {
		return err
	}

	return d.delete(sagaCtx, deleteRequest{
		target: target{kind: store.UserKind, key: input.Email, recipient: input.Email},
		purge:  input.Purge,
	})
}
