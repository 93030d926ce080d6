package service

import "context"

// Publisher interface for domain events (avoids depending on the broker)
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}
