// Package store keeps the local records of users and organizations.
// Writes are single row atomic upserts keyed by the local key, never by the identity provider id.
package store

import (
	"context"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../testing/mocks/store/store.go -package store . Store

type Store interface {
	// CreatePending inserts the record or, when the key is taken, resets its name and status to provisioning.
	CreatePending(ctx context.Context, kind Kind, key, name string) (*Record, error)
	// UpsertStatus merges present fields of update into an existing record. A missing record is failure.RecordNotFound.
	UpsertStatus(ctx context.Context, kind Kind, key string, update Update) (*Record, error)
	FindByKey(ctx context.Context, kind Kind, key string) (*Record, error)
	ListAll(ctx context.Context, kind Kind) ([]*Record, error)
	// Delete removes the record. A missing record is failure.RecordNotFound.
	Delete(ctx context.Context, kind Kind, key string) error
}
