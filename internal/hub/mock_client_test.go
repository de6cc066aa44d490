package hub_test

import (
	"sync/atomic"

	"civiceye/backend/internal/models"
)

type MockClient struct {
	id          string
	RecvChannel chan models.Event
	closed      atomic.Bool
}

func newMockClient(id string, buffer int) *MockClient {
	return &MockClient{id: id, RecvChannel: make(chan models.Event, buffer)}
}

func (c *MockClient) GetID() string                       { return c.id }
func (c *MockClient) GetSendChannel() chan<- models.Event { return c.RecvChannel }
func (c *MockClient) Run()                                {}
func (c *MockClient) Close()                              { c.closed.Store(true) }
