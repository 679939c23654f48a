package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/pkg/kafka"
)

// EventPublisher publishes committed lifecycle transitions to the event stream
type EventPublisher interface {
	// Publish publishes a lifecycle event
	Publish(ctx context.Context, event domain.LifecycleEvent) error

	// Close closes the event publisher
	Close() error
}

// EventPublisherConfig contains configuration for the event publisher
type EventPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// DefaultEventPublisherConfig returns default configuration
func DefaultEventPublisherConfig() *EventPublisherConfig {
	return &EventPublisherConfig{
		Topic:       "payment-gateway.events",
		ServiceName: "payment-gateway-worker",
		ClientID:    "payment-gateway-producer",
	}
}

// withDefaults fills empty fields from DefaultEventPublisherConfig
func (c EventPublisherConfig) withDefaults() EventPublisherConfig {
	def := DefaultEventPublisherConfig()
	if c.Topic == "" {
		c.Topic = def.Topic
	}
	if c.ServiceName == "" {
		c.ServiceName = def.ServiceName
	}
	if c.ClientID == "" {
		c.ClientID = def.ClientID
	}
	return c
}

// KafkaEventPublisher publishes lifecycle events to a Kafka topic
type KafkaEventPublisher struct {
	producer    *kafka.Producer
	topic       string
	serviceName string
}

// NewKafkaEventPublisher connects to the brokers in cfg
func NewKafkaEventPublisher(ctx context.Context, cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	c := cfg.withDefaults()

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       c.Brokers,
		ClientID:      c.ClientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		BatchSize:     100,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaEventPublisher{
		producer:    producer,
		topic:       c.Topic,
		serviceName: c.ServiceName,
	}, nil
}

// Publish publishes event keyed by the entity id, so events of one entity stay ordered
func (p *KafkaEventPublisher) Publish(ctx context.Context, event domain.LifecycleEvent) error {
	if err := p.producer.ProduceJSON(ctx, p.topic, event.EntityID, event, p.headers(event)); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Event, err)
	}
	return nil
}

func (p *KafkaEventPublisher) headers(event domain.LifecycleEvent) map[string]string {
	return map[string]string{
		"event_type":   string(event.Event),
		"event_id":     uuid.New().String(),
		"source":       p.serviceName,
		"content_type": "application/json",
	}
}

// Close closes the event publisher
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

// NoOpEventPublisher is used when no event stream is configured
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

// Publish is a no-op
func (p *NoOpEventPublisher) Publish(ctx context.Context, event domain.LifecycleEvent) error {
	return nil
}

// Close is a no-op
func (p *NoOpEventPublisher) Close() error {
	return nil
}
