package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/playsolmates/warden/ports"
)

const (
	topicLogin  = "warden.login"
	topicLogout = "warden.logout"
)

// AuthEvent is the payload published on login and logout
type AuthEvent struct {
	Wallet string    `json:"wallet"`
	At     time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, wallet string) error {
	return p.publish(topicLogin, wallet)
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, wallet string) error {
	return p.publish(topicLogout, wallet)
}

func (p *WatermillPublisher) publish(topic, wallet string) error {
	payload, err := json.Marshal(AuthEvent{Wallet: wallet, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
