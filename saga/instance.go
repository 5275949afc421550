package saga

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusCanceling  Status = "canceling"
	StatusCanceled   Status = "canceled"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type Status string

func ParseStatus(status string) (Status, error) {
	switch Status(status) {
	case StatusCreated, StatusInProgress, StatusCanceling, StatusCanceled, StatusCompleted, StatusFailed:
		return Status(status), nil
	default:
		return "", errors.Errorf("unknown saga status '%s'", status)
	}
}

// Terminal statuses never change again. An instance key in a terminal status can be started anew.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}

func (s Status) String() string {
	return string(s)
}

const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// HistoryEvent is one step attempt outcome or a custom event recorded by a workflow
type HistoryEvent struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Outcome   string    `json:"outcome"`
	Attempt   int       `json:"attempt"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewHistoryEvent(name, outcome string, attempt int, err error) HistoryEvent {
	ev := HistoryEvent{
		UID:       uuid.New().String(),
		Name:      name,
		Outcome:   outcome,
		Attempt:   attempt,
		CreatedAt: time.Now().UTC().Round(time.Second),
	}

	if err != nil {
		ev.Error = err.Error()
	}

	return ev
}

// Instance is a started saga, it is keyed by a deterministic id so only one runs per target
type Instance struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	TaskQueue   string                 `json:"task_queue"`
	Input       map[string]interface{} `json:"input"`
	RetryPolicy RetryPolicy            `json:"retry_policy"`
	Status      Status                 `json:"status"`
	LastError   string                 `json:"last_error,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	History     []HistoryEvent         `json:"history"`
}

func NewInstance(id, name, taskQueue string, input map[string]interface{}, policy RetryPolicy) *Instance {
	now := time.Now().UTC().Round(time.Second)

	return &Instance{
		ID:          id,
		Name:        name,
		TaskQueue:   taskQueue,
		Input:       input,
		RetryPolicy: policy,
		Status:      StatusCreated,
		StartedAt:   now,
		UpdatedAt:   now,
		History:     make([]HistoryEvent, 0),
	}
}

func (i *Instance) AttachEvent(ev HistoryEvent) {
	i.History = append(i.History, ev)
}

func (i *Instance) setStatus(status Status, err error) {
	i.Status = status
	i.UpdatedAt = time.Now().UTC().Round(time.Second)

	if err != nil {
		i.LastError = err.Error()
	}
}
