package events

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"
)

const exchangeName = "entitlements"

// RabbitMQPublisher implements Publisher on a RabbitMQ topic exchange.
type RabbitMQPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitMQPublisher dials the broker and declares the durable topic
// exchange the service publishes to.
func NewRabbitMQPublisher(url string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel open failed: %w", err)
	}
	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp exchange declare failed: %w", err)
	}
	return &RabbitMQPublisher{conn: conn, channel: ch}, nil
}

// Publish sends one persistent JSON message.
func (p *RabbitMQPublisher) Publish(_ context.Context, routingKey string, body []byte) error {
	return p.channel.Publish(exchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Close shuts down the channel and connection.
func (p *RabbitMQPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
