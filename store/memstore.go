package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NewMemoryStore keeps records in process memory. It honors the same semantics as the sql store
// and is used by tests and by single process runs.
func NewMemoryStore() Store {
	return &memoryStore{
		records: map[Kind]map[string]*Record{
			UserKind:         {},
			OrganizationKind: {},
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

type memoryStore struct {
	mutex   sync.RWMutex
	records map[Kind]map[string]*Record
	now     func() time.Time
}

func (m *memoryStore) CreatePending(_ context.Context, kind Kind, key, name string) (*Record, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.now()

	if _, known := m.records[kind]; !known {
		m.records[kind] = map[string]*Record{}
	}

	record, exists := m.records[kind][key]
	if !exists {
		record = &Record{
			ID:        uuid.New().String(),
			Kind:      kind,
			Key:       key,
			CreatedAt: now,
		}
		m.records[kind][key] = record
	}

	record.Name = name
	record.Status = StatusProvisioning
	record.UpdatedAt = now

	res := *record

	return &res, nil
}

func (m *memoryStore) UpsertStatus(_ context.Context, kind Kind, key string, update Update) (*Record, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	record, exists := m.records[kind][key]
	if !exists {
		return nil, notFound(kind, key)
	}

	update.apply(record)
	record.UpdatedAt = m.now()

	res := *record

	return &res, nil
}

func (m *memoryStore) FindByKey(_ context.Context, kind Kind, key string) (*Record, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	record, exists := m.records[kind][key]
	if !exists {
		return nil, notFound(kind, key)
	}

	res := *record

	return &res, nil
}

func (m *memoryStore) ListAll(_ context.Context, kind Kind) ([]*Record, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	records := make([]*Record, 0, len(m.records[kind]))

	for _, record := range m.records[kind] {
		r := *record
		records = append(records, &r)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].Key < records[j].Key
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	return records, nil
}

func (m *memoryStore) Delete(_ context.Context, kind Kind, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.records[kind][key]; !exists {
		return notFound(kind, key)
	}

	delete(m.records[kind], key)

	return nil
}
