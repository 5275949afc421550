package contracts

import (
	"time"

	"github.com/dipalisurve2377/organization-events-sub001/runtime/scheme"
)

const (
	Group scheme.Group = "saga"
)

// Register adds saga control commands to the registry the bus codec decodes with
func Register(registry scheme.KnownTypesRegistry) {
	registry.AddKnownTypes(Group,
		&StartSagaCommand{},
		&CancelSagaCommand{},
	)
}

type RetryPolicy struct {
	MaximumAttempts        int           `json:"maximum_attempts"`
	InitialInterval        time.Duration `json:"initial_interval"`
	BackoffCoefficient     float64       `json:"backoff_coefficient"`
	MaximumInterval        time.Duration `json:"maximum_interval"`
	NonRetryableErrorTypes []string      `json:"non_retryable_error_types"`
}

// StartSagaCommand starts the workflow registered under Name. Args is the workflow input.
type StartSagaCommand struct {
	InstanceID  string                 `json:"instance_id"`
	Name        string                 `json:"name"`
	TaskQueue   string                 `json:"task_queue"`
	Args        map[string]interface{} `json:"args"`
	RetryPolicy *RetryPolicy           `json:"retry_policy,omitempty"`
}

type CancelSagaCommand struct {
	InstanceID string `json:"instance_id"`
}
