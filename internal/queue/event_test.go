package queue

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/movie-rental/internal/model"
)

func TestNewRentalConfirmedEventOmitsAnonymousID(t *testing.T) {
	movie := "m-1"
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rt := model.Rental{
		ID:          "r-1",
		Owner:       model.AnonymousIdentity("anon-secret-id"),
		MovieID:     &movie,
		PurchasedAt: at,
		ExpiresAt:   at.Add(48 * time.Hour),
		Amount:      20000,
		Currency:    model.CurrencyLAK,
	}
	ev := NewRentalConfirmedEvent(rt)
	if ev.OwnerKind != "anonymous" || ev.UserID != "" {
		t.Fatalf("owner = %q/%q", ev.OwnerKind, ev.UserID)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(body, []byte("anon-secret-id")) {
		t.Fatalf("event leaks anonymous id: %s", body)
	}

	var buf bytes.Buffer
	if err := WriteRentalLine(&buf, body); err != nil {
		t.Fatal(err)
	}
	line := buf.String()
	for _, want := range []string{"rental_id=r-1", "owner=anonymous", "movie=m-1", "amount=20000 LAK", "promo=-"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestWriteRentalLineRejectsGarbage(t *testing.T) {
	if err := WriteRentalLine(&bytes.Buffer{}, []byte("{")); err == nil {
		t.Fatal("expected error")
	}
}
