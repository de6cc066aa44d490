// Package events carries change notifications between writers and live
// readers, over Redis pub/sub or a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"civiceye/backend/internal/models"
)

const (
	RedisChannel = "civiceye:events"
	ExchangeName = "civiceye.events"
)

type Publisher interface {
	Publish(ctx context.Context, e models.Event) error
}

// Subscriber delivers events until ctx is done, then closes the channel.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan models.Event, error)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, models.Event) error { return nil }

func (Nop) Subscribe(ctx context.Context) (<-chan models.Event, error) {
	ch := make(chan models.Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func Encode(e models.Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return body, nil
}

func Decode(body []byte) (models.Event, error) {
	var e models.Event
	if err := json.Unmarshal(body, &e); err != nil {
		return e, fmt.Errorf("decode event: %w", err)
	}
	if e.Type == "" {
		return e, fmt.Errorf("decode event: missing type")
	}
	return e, nil
}
