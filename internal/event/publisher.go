// Package event publishes domain events to the message bus for downstream
// consumers (exports, notifications).
package event

import (
	"encoding/json"
	"time"

	"github.com/streadway/amqp"
)

const exchange = "canvass.events"

// Publisher emits events on a durable topic exchange, with the event type
// as the routing key.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher connects to the broker and declares the exchange
func NewPublisher(amqpURL string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, channel: ch}, nil
}

// Publish sends one event. Event types are dotted routing keys like
// "response.finished".
func (p *Publisher) Publish(eventType string, payload interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"type":       eventType,
		"payload":    payload,
		"occurredAt": time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return p.channel.Publish(
		exchange,
		eventType,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Close releases the channel and connection
func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
