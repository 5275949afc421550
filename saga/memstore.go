package saga

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// NewMemoryStore keeps saga instances in process memory, it is used by single process runs and tests
func NewMemoryStore() Store {
	return &memoryStore{instances: make(map[string]*Instance)}
}

type memoryStore struct {
	mutex     sync.RWMutex
	instances map[string]*Instance
}

func (m *memoryStore) Create(_ context.Context, saga *Instance) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.instances[saga.ID]; exists {
		return errors.Errorf("saga instance %s already exists", saga.ID)
	}

	m.instances[saga.ID] = copyInstance(saga)

	return nil
}

func (m *memoryStore) GetById(_ context.Context, sagaId string) (*Instance, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	instance, exists := m.instances[sagaId]
	if !exists {
		return nil, nil
	}

	return copyInstance(instance), nil
}

func (m *memoryStore) GetByFilter(_ context.Context, filters ...FilterOption) (*InstancesBatch, error) {
	if len(filters) == 0 {
		return nil, errors.Errorf("no filters found, you have to specify at least one so result won't be whole store")
	}

	opts := &filterOptions{}

	for _, filter := range filters {
		filter(opts)
	}

	if opts.empty() {
		return nil, errors.Errorf("all specified filters are empty, you have to specify at least one so result won't be whole store")
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var matched []*Instance

	for _, instance := range m.instances {
		if opts.sagaId != "" && instance.ID != opts.sagaId {
			continue
		}

		if opts.status != "" && instance.Status.String() != opts.status {
			continue
		}

		if opts.sagaName != "" && instance.Name != opts.sagaName {
			continue
		}

		matched = append(matched, copyInstance(instance))
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].StartedAt.Equal(matched[j].StartedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].StartedAt.Before(matched[j].StartedAt)
	})

	batch := &InstancesBatch{Total: len(matched), Items: matched}

	if opts.limit != nil {
		from := min(*opts.offset, len(matched))
		to := min(from+*opts.limit, len(matched))
		batch.Items = matched[from:to]
	}

	return batch, nil
}

func (m *memoryStore) Update(_ context.Context, saga *Instance) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	stored, exists := m.instances[saga.ID]
	if !exists {
		return errors.Errorf("no saga instance %s found", saga.ID)
	}

	history := stored.History
	seen := make(map[string]struct{}, len(history))

	for _, ev := range history {
		seen[ev.UID] = struct{}{}
	}

	for _, ev := range saga.History {
		if _, exists := seen[ev.UID]; !exists {
			history = append(history, ev)
		}
	}

	updated := copyInstance(saga)
	updated.History = history
	m.instances[saga.ID] = updated

	return nil
}

func (m *memoryStore) AppendHistory(_ context.Context, sagaId string, ev HistoryEvent) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	stored, exists := m.instances[sagaId]
	if !exists {
		return errors.Errorf("no saga instance %s found", sagaId)
	}

	stored.History = append(stored.History, ev)

	return nil
}

func (m *memoryStore) TransitionStatus(_ context.Context, sagaId string, to Status, from ...Status) (bool, error) {
	if len(from) == 0 {
		return false, errors.Errorf("no source statuses given for transition of saga %s to %s", sagaId, to)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	stored, exists := m.instances[sagaId]
	if !exists {
		return false, nil
	}

	for _, status := range from {
		if stored.Status == status {
			stored.setStatus(to, nil)
			return true, nil
		}
	}

	return false, nil
}

func (m *memoryStore) Delete(_ context.Context, sagaId string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.instances[sagaId]; !exists {
		return errors.Errorf("no saga instance %s found", sagaId)
	}

	delete(m.instances, sagaId)

	return nil
}

func copyInstance(instance *Instance) *Instance {
	res := *instance

	res.History = append(make([]HistoryEvent, 0, len(instance.History)), instance.History...)

	if instance.Input != nil {
		res.Input = make(map[string]interface{}, len(instance.Input))
		for k, v := range instance.Input {
			res.Input[k] = v
		}
	}

	res.RetryPolicy.NonRetryableErrorTypes = append([]string(nil), instance.RetryPolicy.NonRetryableErrorTypes...)

	return &res
}
