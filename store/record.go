package store

import (
	"time"

	"github.com/pkg/errors"
)

// Kind of a provisioned entity
type Kind string

const (
	UserKind         Kind = "user"
	OrganizationKind Kind = "organization"
)

// ParseKind validates a kind received from an input payload
func ParseKind(kind string) (Kind, error) {
	switch Kind(kind) {
	case UserKind, OrganizationKind:
		return Kind(kind), nil
	default:
		return "", errors.Errorf("unknown entity kind '%s'", kind)
	}
}

func (k Kind) String() string {
	return string(k)
}

// Title is used in notification subjects, e.g. "Organization created"
func (k Kind) Title() string {
	switch k {
	case UserKind:
		return "User"
	case OrganizationKind:
		return "Organization"
	default:
		return string(k)
	}
}

func (k Kind) table() string {
	if k == UserKind {
		return "users"
	}

	return "organizations"
}

// keyColumn is the unique local key of the kind
func (k Kind) keyColumn() string {
	if k == UserKind {
		return "email"
	}

	return "identifier"
}

// Status is the externally observable progress of a saga over an entity. Only sagas write it.
type Status string

const (
	StatusProvisioning Status = "provisioning"
	StatusSuccess      Status = "success"
	StatusUpdating     Status = "updating"
	StatusUpdated      Status = "updated"
	StatusDeleting     Status = "deleting"
	StatusDeleted      Status = "deleted"
	StatusFailed       Status = "failed"
	StatusCanceled     Status = "canceled"
)

func (s Status) String() string {
	return string(s)
}

// InFlight reports whether a saga is still working on the entity
func (s Status) InFlight() bool {
	switch s {
	case StatusProvisioning, StatusUpdating, StatusDeleting:
		return true
	default:
		return false
	}
}

// Record is the local view of a user or an organization.
type Record struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	IdpID     string    `json:"idp_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Update lists the fields an update writes. Absent fields are left untouched.
type Update struct {
	Name   Optional[string]
	IdpID  Optional[string]
	Status Optional[Status]
}

// IsEmpty reports whether the update carries no field at all
func (u Update) IsEmpty() bool {
	return !u.Name.IsPresent() && !u.IdpID.IsPresent() && !u.Status.IsPresent()
}

// apply merges present fields into the record
func (u Update) apply(r *Record) {
	if name, ok := u.Name.Get(); ok {
		r.Name = name
	}

	if idpID, ok := u.IdpID.Get(); ok {
		r.IdpID = idpID
	}

	if status, ok := u.Status.Get(); ok {
		r.Status = status
	}
}
