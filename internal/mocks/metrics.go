package mocks

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// MockMetrics counts what was recorded.
type MockMetrics struct {
	mu            sync.Mutex
	Flows         map[string]int
	Compensations map[string]int
	CounterDrift  int
	Repairs       map[string]int
	BreakerStates []string
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Flows:         make(map[string]int),
		Compensations: make(map[string]int),
		Repairs:       make(map[string]int),
	}
}

func (m *MockMetrics) RecordMetrics(c *gin.Context, start time.Time) {}

func (m *MockMetrics) RecordFlow(flow, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Flows[flow+":"+outcome]++
}

func (m *MockMetrics) RecordCompensation(flow, step string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.Compensations[flow+":"+step+":"+result]++
}

func (m *MockMetrics) RecordCounterDrift() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CounterDrift++
}

func (m *MockMetrics) RecordRepairs(kind string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Repairs[kind] += n
}

func (m *MockMetrics) SetBreakerState(name, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BreakerStates = append(m.BreakerStates, name+":"+state)
}

func (m *MockMetrics) FlowCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Flows[key]
}
