package weights

import (
	"context"
	"sort"
	"sync"
)

type repoMock struct {
	mu        sync.Mutex
	nextID    int
	records   map[int]Record
	returnErr error
}

func newRepoMock() *repoMock {
	return &repoMock{
		nextID:  1,
		records: map[int]Record{},
	}
}

func (m *repoMock) Add(_ context.Context, record Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	record.ID = m.nextID
	m.nextID++
	m.records[record.ID] = record
	return &record, nil
}

func (m *repoMock) List(_ context.Context, params ListParams) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	records := make([]Record, 0)
	for _, rec := range m.records {
		if rec.CustomerID == params.CustomerID {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].RecordedAt.After(records[j].RecordedAt)
	})
	if params.Limit > 0 && len(records) > params.Limit {
		records = records[:params.Limit]
	}
	return records, nil
}

func (m *repoMock) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return m.returnErr
	}
	if _, ok := m.records[id]; !ok {
		return ErrRecordNotFound
	}
	delete(m.records, id)
	return nil
}
