package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Skotchmaster/headphones_shop/internal/payment"
)

type publishedEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev, _ := event.(map[string]any)
	p.events = append(p.events, publishedEvent{Topic: topic, Key: key, Event: ev})
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event["type"].(string))
	}
	return out
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, p payment.CreateIntentParams) (*payment.Intent, error) {
	args := m.Called(ctx, p)
	if v := args.Get(0); v != nil {
		return v.(*payment.Intent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*payment.Intent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) CancelIntent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
