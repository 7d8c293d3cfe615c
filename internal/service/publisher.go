package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-rental/internal/queue"
)

// EventPublisher delivers domain events.  Callers treat failures as
// non-fatal: a rental that committed stays committed.
type EventPublisher interface {
	PublishRentalConfirmed(ctx context.Context, ev queue.RentalConfirmedEvent) error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

// PublishRentalConfirmed implements EventPublisher.
func (NoopPublisher) PublishRentalConfirmed(context.Context, queue.RentalConfirmedEvent) error {
	return nil
}

// AMQPPublisher publishes to RabbitMQ, dialing once per event.  Rentals are
// low volume and the broker may be restarted independently of the API.
type AMQPPublisher struct {
	url string
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url}
}

// PublishRentalConfirmed sends ev as a persistent JSON message to the
// rental.confirmed queue, declaring it if needed.
func (p *AMQPPublisher) PublishRentalConfirmed(ctx context.Context, ev queue.RentalConfirmedEvent) error {
	lg := zerolog.Ctx(ctx)
	conn, err := amqp.Dial(p.url)
	if err != nil {
		lg.Error().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		lg.Error().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := queue.DeclareRentalQueue(ch); err != nil {
		lg.Error().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.RentalConfirmedQueue, false, false, pub); err != nil {
		lg.Error().Err(err).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}
