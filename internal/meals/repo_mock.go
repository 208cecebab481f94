package meals

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/miifit/backend/pkg"
)

type repoMock struct {
	mu        sync.Mutex
	nextID    int
	records   map[int]Record
	goals     map[string]Goal
	presets   []FoodItem
	returnErr error
}

func newRepoMock() *repoMock {
	return &repoMock{
		nextID:  1,
		records: map[int]Record{},
		goals:   map[string]Goal{},
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
	record.ComputeTotals()
	m.records[record.ID] = record
	return &record, nil
}

func (m *repoMock) Get(_ context.Context, id int) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
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
		return records[i].EatenAt.After(records[j].EatenAt)
	})
	if params.Limit > 0 && len(records) > params.Limit {
		records = records[:params.Limit]
	}
	return records, nil
}

func (m *repoMock) ListForDate(_ context.Context, customerID, date string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if _, err := time.Parse(pkg.DateLayout, date); err != nil {
		return nil, err
	}
	records := make([]Record, 0)
	for _, rec := range m.records {
		if rec.CustomerID == customerID && pkg.DayKey(rec.EatenAt) == date {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].EatenAt.Before(records[j].EatenAt)
	})
	return records, nil
}

func (m *repoMock) Update(_ context.Context, record *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return m.returnErr
	}
	if _, ok := m.records[record.ID]; !ok {
		return ErrRecordNotFound
	}
	record.ComputeTotals()
	m.records[record.ID] = *record
	return nil
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

func (m *repoMock) GetGoal(_ context.Context, customerID string) (*Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	goal, ok := m.goals[customerID]
	if !ok {
		return nil, ErrGoalNotFound
	}
	return &goal, nil
}

func (m *repoMock) SetGoal(_ context.Context, goal Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return m.returnErr
	}
	m.goals[goal.CustomerID] = goal
	return nil
}

func (m *repoMock) ListFoodPresets(_ context.Context) ([]FoodItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return m.presets, nil
}
