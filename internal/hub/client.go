package hub

import "civiceye/backend/internal/models"

// Client is one live dashboard connection.
type Client interface {
	// GetID returns a per-connection identifier.
	GetID() string
	// GetSendChannel returns the channel the hub writes events to.
	GetSendChannel() chan<- models.Event
	// Run starts the client's pumps.
	Run()
	// Close stops the write pump and closes the connection.
	Close()
}
