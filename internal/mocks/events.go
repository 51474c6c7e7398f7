package mocks

import (
	"context"
	"sync"
)

type PublishedEvent struct {
	Subject string
	Payload interface{}
}

type MockEventPublisher struct {
	mu          sync.Mutex
	Published   []PublishedEvent
	PublishFunc func(ctx context.Context, subject string, payload interface{}) error
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	m.mu.Lock()
	m.Published = append(m.Published, PublishedEvent{Subject: subject, Payload: payload})
	m.mu.Unlock()
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, subject, payload)
	}
	return nil
}

func (m *MockEventPublisher) Close() error { return nil }

func (m *MockEventPublisher) Subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Published))
	for _, e := range m.Published {
		out = append(out, e.Subject)
	}
	return out
}
