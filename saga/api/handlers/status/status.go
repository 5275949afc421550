package status

import (
	"context"
	"net/http"
	"time"

	"github.com/dipalisurve2377/organization-events-sub001/saga"
	"github.com/pkg/errors"
)

type SagaBatch struct {
	Total int          `json:"total"`
	Items []SagaStatus `json:"items"`
}

type SagaStatus struct {
	SagaUID   string                 `json:"saga_uid"`
	Name      string                 `json:"name"`
	Status    string                 `json:"status"`
	LastError string                 `json:"last_error,omitempty"`
	Input     map[string]interface{} `json:"input"`
	StartedAt time.Time              `json:"started_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	Events    []saga.HistoryEvent    `json:"events"`
}

//go:generate mockgen --build_flags=--mod=mod -destination ./mock_test.go -package status . StatusService

type Pagination struct {
	Offset int
	Limit  int
}

type Filters struct {
	SagaID   string
	SagaName string
	Status   string
}

type StatusService interface {
	GetStatus(ctx context.Context, sagaId string) (*SagaStatus, error)
	GetFilteredBy(ctx context.Context, filters *Filters, pagination *Pagination) (*SagaBatch, error)
}

func NewStatusService(store saga.Store) StatusService {
	return &statusService{sagaStore: store}
}

type statusService struct {
	sagaStore saga.Store
}

func (s statusService) GetStatus(ctx context.Context, sagaId string) (*SagaStatus, error) {
	sagaInstance, err := s.sagaStore.GetById(ctx, sagaId)

	if err != nil {
		return nil, errors.Wrapf(err, "error loading saga '%s'", sagaId)
	}

	if sagaInstance == nil {
		return nil, NewResponseError(http.StatusNotFound, errors.Errorf("saga '%s' not found", sagaId))
	}

	status := toStatus(sagaInstance)

	return &status, nil
}

func (s statusService) GetFilteredBy(ctx context.Context, filters *Filters, pagination *Pagination) (*SagaBatch, error) {
	var opts []saga.FilterOption

	if filters.SagaID != "" {
		opts = append(opts, saga.WithSagaId(filters.SagaID))
	}

	if filters.Status != "" {
		if _, err := saga.ParseStatus(filters.Status); err != nil {
			return nil, NewResponseError(http.StatusBadRequest, err)
		}
		opts = append(opts, saga.WithStatus(filters.Status))
	}

	if filters.SagaName != "" {
		opts = append(opts, saga.WithSagaName(filters.SagaName))
	}

	if len(opts) == 0 && pagination == nil {
		return nil, NewResponseError(http.StatusBadRequest, errors.Errorf("Either filters or pagination must be specified"))
	}

	if pagination != nil {
		opts = append(opts, saga.WithOffsetAndLimit(pagination.Offset, pagination.Limit))
	}

	batch, err := s.sagaStore.GetByFilter(ctx, opts...)

	if err != nil {
		return nil, errors.WithStack(err)
	}

	statuses := make([]SagaStatus, len(batch.Items))

	for i, instance := range batch.Items {
		statuses[i] = toStatus(instance)
	}

	return &SagaBatch{
		Total: batch.Total,
		Items: statuses,
	}, nil
}

func toStatus(instance *saga.Instance) SagaStatus {
	events := instance.History
	if events == nil {
		events = []saga.HistoryEvent{}
	}

	return SagaStatus{
		SagaUID:   instance.ID,
		Name:      instance.Name,
		Status:    instance.Status.String(),
		LastError: instance.LastError,
		Input:     instance.Input,
		StartedAt: instance.StartedAt,
		UpdatedAt: instance.UpdatedAt,
		Events:    events,
	}
}
