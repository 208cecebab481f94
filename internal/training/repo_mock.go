package training

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type repoMock struct {
	mu        sync.Mutex
	sessions  map[string]Session
	presets   []Preset
	returnErr error

	presetsCalls int
}

func newRepoMock() *repoMock {
	return &repoMock{
		sessions: map[string]Session{},
	}
}

func (m *repoMock) Add(_ context.Context, session Session) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	session.ID = uuid.NewString()
	m.sessions[session.ID] = session
	return &session, nil
}

func (m *repoMock) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *repoMock) List(_ context.Context, params ListParams) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	sessions := make([]Session, 0)
	for _, s := range m.sessions {
		if s.CustomerID == params.CustomerID {
			sessions = append(sessions, s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Date > sessions[j].Date
	})
	if params.Limit > 0 && len(sessions) > params.Limit {
		sessions = sessions[:params.Limit]
	}
	return sessions, nil
}

func (m *repoMock) Update(_ context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return m.returnErr
	}
	if _, ok := m.sessions[session.ID]; !ok {
		return ErrSessionNotFound
	}
	m.sessions[session.ID] = *session
	return nil
}

func (m *repoMock) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return m.returnErr
	}
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *repoMock) ListPresets(_ context.Context) ([]Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presetsCalls++
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return m.presets, nil
}
