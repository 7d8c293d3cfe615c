// Package queue defines the messages exchanged over RabbitMQ and the
// background consumer that records them.
package queue

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/movie-rental/internal/model"
)

// RentalConfirmedQueue is the durable queue rental events are routed to.
const RentalConfirmedQueue = "rental.confirmed"

// RentalConfirmedEvent is published after a rental commits.  Anonymous
// viewer ids are not included; OwnerKind says which kind of viewer paid.
type RentalConfirmedEvent struct {
	RentalID      string  `json:"rental_id"`
	OwnerKind     string  `json:"owner_kind"`
	UserID        string  `json:"user_id,omitempty"`
	MovieID       *string `json:"movie_id,omitempty"`
	ShortPackID   *string `json:"short_pack_id,omitempty"`
	AmountLak     int64   `json:"amount_lak"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method"`
	PromoCodeID   *string `json:"promo_code_id,omitempty"`
	PurchasedAt   string  `json:"purchased_at"`
	ExpiresAt     string  `json:"expires_at"`
}

// NewRentalConfirmedEvent builds the event for rt.
func NewRentalConfirmedEvent(rt model.Rental) RentalConfirmedEvent {
	ev := RentalConfirmedEvent{
		RentalID:      rt.ID,
		OwnerKind:     rt.Owner.Kind().String(),
		MovieID:       rt.MovieID,
		ShortPackID:   rt.ShortPackID,
		AmountLak:     rt.Amount,
		Currency:      rt.Currency,
		PaymentMethod: rt.PaymentMethod,
		PromoCodeID:   rt.PromoCodeID,
		PurchasedAt:   rt.PurchasedAt.UTC().Format(time.RFC3339),
		ExpiresAt:     rt.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if id, ok := rt.Owner.UserID(); ok {
		ev.UserID = id
	}
	return ev
}

// DeclareRentalQueue declares the durable rental.confirmed queue on ch.
func DeclareRentalQueue(ch *amqp.Channel) (amqp.Queue, error) {
	return ch.QueueDeclare(RentalConfirmedQueue, true, false, false, false, nil)
}
