package saga

import (
	"context"
)

const (
	sagaTableName        = "saga"
	sagaHistoryTableName = "saga_history"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../testing/mocks/saga/store.go -package saga . Store

type Store interface {
	Create(ctx context.Context, saga *Instance) error
	// GetById returns nil, nil when there is no instance with such id
	GetById(ctx context.Context, sagaId string) (*Instance, error)
	GetByFilter(ctx context.Context, filters ...FilterOption) (*InstancesBatch, error)
	// Update writes instance fields and inserts history events the store hasn't seen yet
	Update(ctx context.Context, saga *Instance) error
	AppendHistory(ctx context.Context, sagaId string, ev HistoryEvent) error
	// TransitionStatus sets status to when the stored status is one of from, in a single conditional write.
	// It reports false when the instance is missing or in another status.
	TransitionStatus(ctx context.Context, sagaId string, to Status, from ...Status) (bool, error)
	Delete(ctx context.Context, sagaId string) error
}

type InstancesBatch struct {
	Total int
	Items []*Instance
}

type FilterOption func(opts *filterOptions)

func WithSagaId(sagaId string) FilterOption {
	return func(opts *filterOptions) {
		opts.sagaId = sagaId
	}
}

func WithStatus(status string) FilterOption {
	return func(opts *filterOptions) {
		opts.status = status
	}
}

func WithSagaName(sagaName string) FilterOption {
	return func(opts *filterOptions) {
		opts.sagaName = sagaName
	}
}

func WithOffsetAndLimit(offset, limit int) FilterOption {
	return func(opts *filterOptions) {
		opts.offset = &offset
		opts.limit = &limit
	}
}

type filterOptions struct {
	sagaId   string
	status   string
	sagaName string
	offset   *int
	limit    *int
}

func (o filterOptions) empty() bool {
	return o.sagaId == "" && o.status == "" && o.sagaName == "" && o.limit == nil
}
