package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Consumer reads rental.confirmed and appends one line per event to a log
// file.  It reconnects with exponential backoff until ctx is cancelled.
type Consumer struct {
	URL     string
	LogPath string
}

// NewConsumer returns a consumer for url writing to logs/rental.log.
func NewConsumer(url string) *Consumer {
	return &Consumer{URL: url, LogPath: filepath.Join("logs", "rental.log")}
}

// Run blocks until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	lg := log.With().Str("component", "rental-consumer").Logger()
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			lg.Warn().Err(err).Dur("retry_in", backoff).Msg("dial broker failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lg.Warn().Err(err).Msg("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "channel open")
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("rental-consumer: set QoS failed")
	}
	if _, err := DeclareRentalQueue(ch); err != nil {
		return errors.Wrap(err, "queue declare")
	}
	msgs, err := ch.ConsumeWithContext(ctx, RentalConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "queue consume")
	}

	for d := range msgs {
		if err := c.handle(d.Body); err != nil {
			log.Error().Err(err).Msg("rental-consumer: handle message failed")
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *Consumer) handle(body []byte) error {
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return errors.Wrap(err, "mkdir logs")
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open log file")
	}
	defer f.Close()
	return WriteRentalLine(f, body)
}

// WriteRentalLine decodes a RentalConfirmedEvent from body and writes it to
// w as a single line.
func WriteRentalLine(w io.Writer, body []byte) error {
	var ev RentalConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return errors.Wrap(err, "unmarshal")
	}
	item := "movie=" + deref(ev.MovieID)
	if ev.ShortPackID != nil {
		item = "pack=" + *ev.ShortPackID
	}
	promo := "-"
	if ev.PromoCodeID != nil {
		promo = *ev.PromoCodeID
	}
	_, err := fmt.Fprintf(w, "[%s] Rental confirmed | rental_id=%s | owner=%s | %s | amount=%d %s | method=%s | promo=%s | expires=%s\n",
		ev.PurchasedAt, ev.RentalID, ev.OwnerKind, item, ev.AmountLak, ev.Currency, ev.PaymentMethod, promo, ev.ExpiresAt)
	return errors.Wrap(err, "write log")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
