// Package workflow defines the provisioning sagas of users and organizations.
//
// Every saga is a fixed sequence of steps. The entity status in the record store is the progress
// signal: a saga that stops early leaves the entity in failed or canceled whenever the store is reachable.
package workflow

import (
	"context"
	"fmt"

	"github.com/dipalisurve2377/organization-events-sub001/saga"
	"github.com/pkg/errors"
)

const (
	CreateOrganization = "CreateOrganization"
	UpdateOrganization = "UpdateOrganization"
	DeleteOrganization = "DeleteOrganization"
	CreateUser         = "CreateUser"
	UpdateUser         = "UpdateUser"
	DeleteUser         = "DeleteUser"
)

// InvalidInput is the application error type of a saga whose payload fails validation
const InvalidInput = "InvalidInput"

var instancePrefixes = map[string]string{
	CreateOrganization: "create-org-",
	UpdateOrganization: "update-org-",
	DeleteOrganization: "delete-org-",
	CreateUser:         "create-user-",
	UpdateUser:         "update-user-",
	DeleteUser:         "delete-user-",
}

// Names lists every saga of the package
func Names() []string {
	return []string{CreateOrganization, UpdateOrganization, DeleteOrganization, CreateUser, UpdateUser, DeleteUser}
}

// InstanceID is the deterministic saga key of an operation over a target, e.g. create-org-acme
func InstanceID(name, key string) (string, error) {
	prefix, ok := instancePrefixes[name]
	if !ok {
		return "", errors.Errorf("unknown workflow %s", name)
	}

	if key == "" {
		return "", errors.Errorf("target key is required for workflow %s", name)
	}

	return prefix + key, nil
}

// NewInput returns a pointer to an empty input of the saga, ready to be decoded into
func NewInput(name string) (Input, error) {
	switch name {
	case CreateOrganization:
		return &OrganizationInput{}, nil
	case UpdateOrganization:
		return &OrganizationUpdateInput{}, nil
	case DeleteOrganization:
		return &OrganizationDeleteInput{}, nil
	case CreateUser:
		return &UserInput{}, nil
	case UpdateUser:
		return &UserUpdateInput{}, nil
	case DeleteUser:
		return &UserDeleteInput{}, nil
	default:
		return nil, errors.Errorf("unknown workflow %s", name)
	}
}

// Register adds all sagas to the runner
func Register(runner *saga.Runner, steps Steps) {
	d := &definitions{steps: steps}

	runner.Register(CreateOrganization, d.createOrganization)
	runner.Register(UpdateOrganization, d.updateOrganization)
	runner.Register(DeleteOrganization, d.deleteOrganization)
	runner.Register(CreateUser, d.createUser)
	runner.Register(UpdateUser, d.updateUser)
	runner.Register(DeleteUser, d.deleteUser)
}

type Starter interface {
	StartSaga(ctx context.Context, operation string, opts saga.StartOptions) (string, error)
}

// Trigger validates the input and starts the saga on the task queue. It returns the instance id right away.
func Trigger(ctx context.Context, starter Starter, taskQueue, name string, input Input, policy *saga.RetryPolicy) (string, error) {
	if err := input.Validate(); err != nil {
		return "", errors.Wrapf(err, "invalid input of %s", name)
	}

	instanceID, err := InstanceID(name, input.Key())
	if err != nil {
		return "", err
	}

	return starter.StartSaga(ctx, name, saga.StartOptions{
		TaskQueue:   taskQueue,
		InstanceID:  instanceID,
		Args:        input,
		RetryPolicy: policy,
	})
}

type definitions struct {
	steps Steps
}

// decodeInput reads and validates the saga payload. A bad payload is never retried.
func decodeInput(sagaCtx saga.Context, input Input) error {
	if err := sagaCtx.Input(input); err != nil {
		return err
	}

	if err := input.Validate(); err != nil {
		return saga.NewApplicationError(fmt.Sprintf("invalid input of saga %s: %s", sagaCtx.InstanceID(), err), InvalidInput, true, err)
	}

	return nil
}
