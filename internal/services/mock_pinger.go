package services

import (
	"context"
	"sync"
)

// MockPinger is a Pinger for tests.
type MockPinger struct {
	mu        sync.Mutex
	pingError error
	calls     int
}

func NewMockPinger() *MockPinger {
	return &MockPinger{}
}

func (m *MockPinger) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.pingError
}

// SetPingError sets up the mock to return an error on Ping
func (m *MockPinger) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetPingSuccess sets up the mock to return success on Ping
func (m *MockPinger) SetPingSuccess() {
	m.SetPingError(nil)
}

func (m *MockPinger) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
