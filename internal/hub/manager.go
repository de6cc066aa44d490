// Package hub fans change events out to connected dashboard clients so open
// dashboards refetch when stored data changes.
package hub

import (
	"context"
	"sync"

	"civiceye/backend/internal/events"
	"civiceye/backend/internal/models"

	"go.uber.org/zap"
)

type ManagerService struct {
	mu      sync.RWMutex
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client

	subscriber events.Subscriber
	logger     *zap.Logger
	done       chan struct{}
}

func NewManagerService(sub events.Subscriber, logger *zap.Logger) *ManagerService {
	return &ManagerService{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		subscriber:   sub,
		logger:       logger,
		done:         make(chan struct{}),
	}
}

// Run subscribes to the event stream and serves registrations until ctx ends.
func (m *ManagerService) Run(ctx context.Context) error {
	defer close(m.done)
	feed, err := m.subscriber.Subscribe(ctx)
	if err != nil {
		m.logger.Error("Failed to subscribe to events", zap.Error(err))
		return err
	}
	m.logger.Info("Dashboard hub started")

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return nil

		case client := <-m.RegisterCh:
			m.mu.Lock()
			m.Clients[client.GetID()] = client
			m.mu.Unlock()
			m.logger.Debug("Dashboard client registered", zap.String("client_id", client.GetID()))

		case client := <-m.UnregisterCh:
			m.remove(client)

		case e, ok := <-feed:
			if !ok {
				m.logger.Warn("Event feed closed, stopping hub")
				m.closeAll()
				return nil
			}
			m.broadcast(e)
		}
	}
}

// broadcast never blocks: a client whose buffer is full is dropped.
func (m *ManagerService) broadcast(e models.Event) {
	m.mu.RLock()
	var slow []Client
	for _, client := range m.Clients {
		select {
		case client.GetSendChannel() <- e:
		default:
			slow = append(slow, client)
		}
	}
	m.mu.RUnlock()

	for _, client := range slow {
		m.logger.Warn("Dropping slow dashboard client", zap.String("client_id", client.GetID()))
		m.remove(client)
	}
}

func (m *ManagerService) remove(client Client) {
	m.mu.Lock()
	_, ok := m.Clients[client.GetID()]
	delete(m.Clients, client.GetID())
	m.mu.Unlock()
	if ok {
		client.Close()
	}
}

func (m *ManagerService) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, client := range m.Clients {
		client.Close()
		delete(m.Clients, id)
	}
}

// Done is closed once Run has returned.
func (m *ManagerService) Done() <-chan struct{} { return m.done }

// Count returns the number of connected clients.
func (m *ManagerService) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Clients)
}
