package customers

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// repoMock keeps customers in memory, for handler unit tests.
type repoMock struct {
	mu        sync.Mutex
	customers map[string]Customer
	returnErr error
}

func newRepoMock() *repoMock {
	return &repoMock{
		customers: map[string]Customer{},
	}
}

func (m *repoMock) Add(_ context.Context, customer Customer) (*Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	customer.ID = uuid.NewString()
	m.customers[customer.ID] = customer
	return &customer, nil
}

func (m *repoMock) Get(_ context.Context, id string) (*Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	c, ok := m.customers[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return &c, nil
}

func (m *repoMock) List(_ context.Context) ([]Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	customers := make([]Customer, 0, len(m.customers))
	for _, c := range m.customers {
		customers = append(customers, c)
	}
	return customers, nil
}

func (m *repoMock) Update(_ context.Context, customer *Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return m.returnErr
	}
	if _, ok := m.customers[customer.ID]; !ok {
		return ErrCustomerNotFound
	}
	m.customers[customer.ID] = *customer
	return nil
}

func (m *repoMock) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return m.returnErr
	}
	if _, ok := m.customers[id]; !ok {
		return ErrCustomerNotFound
	}
	delete(m.customers, id)
	return nil
}
