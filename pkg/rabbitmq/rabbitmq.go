package rabbitmq

import (
	"fmt"
	"log"
	"time"

	amqp "github.com/streadway/amqp"
)

const (
	// OrderExchange carries every order lifecycle event.
	OrderExchange = "order"
	// OrderEventsQueue is the durable queue live-update consumers read.
	OrderEventsQueue = "order_events"
)

// Client holds the RabbitMQ connection and channel. It is the engine's
// live-update channel: order events are published here with at-least-once
// delivery, and consumers re-fetch authoritative state on receipt.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, declares the order exchange and binds the
// durable event queue to every "order.*" routing key.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close() // Close connection if channel creation fails
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		OrderExchange, // name
		"topic",       // kind
		true,          // durable
		false,         // auto-delete
		false,         // internal
		false,         // no-wait
		nil,           // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s exchange: %w", OrderExchange, err)
	}

	if _, err := ch.QueueDeclare(
		OrderEventsQueue, // name
		true,             // durable (persists messages across broker restarts)
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", OrderEventsQueue, err)
	}

	if err := ch.QueueBind(OrderEventsQueue, "order.*", OrderExchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind %s: %w", OrderEventsQueue, err)
	}

	log.Printf("RabbitMQ client connected, %s bound to %s", OrderEventsQueue, OrderExchange)

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends a persistent JSON event to the given exchange.
func (c *Client) Publish(exchange, routingKey string, body []byte) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	err := c.channel.Publish(
		exchange,
		routingKey,
		false, // mandatory: if true, returns message if it cannot be routed
		false, // immediate: if true, returns message if it cannot be delivered to any consumer
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent, // Make message persistent
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	log.Printf(" [x] Sent %s event: %s", routingKey, body)
	return nil
}

// ConsumeOrderEvents delivers order events to the handler with manual
// acknowledgement. A handler error nacks the message back onto the queue,
// which is what makes delivery at-least-once; handlers must be idempotent
// and re-fetch order state rather than trusting the payload.
func (c *Client) ConsumeOrderEvents(messageHandler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		OrderEventsQueue, // queue
		"",               // consumer tag: unique identifier for the consumer
		false,            // auto-ack: set to false to manually acknowledge messages
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,              // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf(" [*] Waiting for order events on %s", OrderEventsQueue)

	go func() {
		for msg := range msgs {
			if err := messageHandler(msg); err != nil {
				log.Printf("Error processing message %d: %v", msg.DeliveryTag, err)
				// Requeue so another consumer can pick it up. Poison
				// messages would loop here; a dead-letter queue is the
				// escape hatch if that ever shows up in practice.
				if requeueErr := msg.Nack(false, true); requeueErr != nil {
					log.Printf("Error nacking message %d: %v", msg.DeliveryTag, requeueErr)
				}
			} else {
				if ackErr := msg.Ack(false); ackErr != nil {
					log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
				}
			}
		}
	}()

	return nil
}
