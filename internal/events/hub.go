package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// Broadcaster pushes a payload to realtime subscribers of a topic
type Broadcaster interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// HubPublisher sends events to connected WebSocket dashboards, using the
// event type as the topic
type HubPublisher struct {
	hub Broadcaster
}

func NewHubPublisher(hub Broadcaster) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(ctx context.Context, evt Event) error {
	msg, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return p.hub.Publish(ctx, evt.Type, msg)
}
