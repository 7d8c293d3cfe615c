package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/queue"
	"github.com/iliyamo/movie-rental/internal/repository"
)

var t0 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func strp(s string) *string { return &s }
func i64(n int64) *int64    { return &n }

// memStore is an in-memory stand-in for the MySQL repositories.  It
// applies the same guards as the SQL: one active rental per owner and
// target, and a capped promo increment.
type memStore struct {
	mu      sync.Mutex
	movies  map[string]model.Movie
	tiers   map[string]model.PricingTier
	promos  map[string]*model.PromoCode // by code
	packs   map[string]model.ShortPack
	members map[string][]string // pack id -> movie ids
	rentals []model.Rental
}

func newMemStore() *memStore {
	return &memStore{
		movies:  map[string]model.Movie{},
		tiers:   map[string]model.PricingTier{},
		promos:  map[string]*model.PromoCode{},
		packs:   map[string]model.ShortPack{},
		members: map[string][]string{},
	}
}

func (s *memStore) addPromo(p model.PromoCode) {
	if p.ID == "" {
		p.ID = "promo-" + p.Code
	}
	s.promos[p.Code] = &p
}

func (s *memStore) addRental(rt model.Rental) {
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	s.rentals = append(s.rentals, rt)
}

func (s *memStore) GetByID(_ context.Context, id string) (model.Movie, error) {
	m, ok := s.movies[id]
	if !ok {
		return model.Movie{}, repository.ErrNotFound
	}
	return m, nil
}

type tierView struct{ *memStore }

func (v tierView) GetByID(_ context.Context, id string) (model.PricingTier, error) {
	t, ok := v.tiers[id]
	if !ok {
		return model.PricingTier{}, repository.ErrNotFound
	}
	return t, nil
}

type packView struct{ *memStore }

func (v packView) GetByID(_ context.Context, id string) (model.ShortPack, error) {
	p, ok := v.packs[id]
	if !ok {
		return model.ShortPack{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *memStore) GetByCode(_ context.Context, code string) (model.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promos[code]
	if !ok {
		return model.PromoCode{}, repository.ErrNotFound
	}
	return *p, nil
}

func (s *memStore) IncrementUsage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incrementLocked(id)
}

func (s *memStore) incrementLocked(id string) error {
	for _, p := range s.promos {
		if p.ID != id {
			continue
		}
		if !p.IsActive || p.Exhausted() {
			return repository.ErrPromoExhausted
		}
		p.UsesCount++
		return nil
	}
	return repository.ErrPromoExhausted
}

func (s *memStore) PacksContaining(_ context.Context, movieID string) ([]string, error) {
	var out []string
	for packID, ids := range s.members {
		for _, id := range ids {
			if id == movieID {
				out = append(out, packID)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func owns(rt model.Rental, who model.Identity) bool {
	return rt.Owner == who
}

func (s *memStore) find(match func(model.Rental) bool) *model.Rental {
	var best *model.Rental
	for i := range s.rentals {
		rt := s.rentals[i]
		if match(rt) && (best == nil || rt.ExpiresAt.After(best.ExpiresAt)) {
			best = &rt
		}
	}
	return best
}

func (s *memStore) ActiveForMovie(_ context.Context, movieID string, who model.Identity, now time.Time) (*model.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(rt model.Rental) bool {
		return owns(rt, who) && rt.MovieID != nil && *rt.MovieID == movieID && rt.ActiveAt(now)
	}), nil
}

func (s *memStore) ActiveForPack(_ context.Context, packID string, who model.Identity, now time.Time) (*model.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(rt model.Rental) bool {
		return owns(rt, who) && rt.ShortPackID != nil && *rt.ShortPackID == packID && rt.ActiveAt(now)
	}), nil
}

func (s *memStore) LatestForPack(_ context.Context, packID string, who model.Identity) (*model.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(rt model.Rental) bool {
		return owns(rt, who) && rt.ShortPackID != nil && *rt.ShortPackID == packID
	}), nil
}

func (s *memStore) Create(_ context.Context, rt *model.Rental, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.rentals {
		if !owns(ex, rt.Owner) || !ex.ActiveAt(now) {
			continue
		}
		sameMovie := rt.MovieID != nil && ex.MovieID != nil && *ex.MovieID == *rt.MovieID
		samePack := rt.ShortPackID != nil && ex.ShortPackID != nil && *ex.ShortPackID == *rt.ShortPackID
		if sameMovie || samePack {
			return repository.ErrActiveRentalExists
		}
	}
	if rt.PromoCodeID != nil {
		if err := s.incrementLocked(*rt.PromoCodeID); err != nil {
			return err
		}
	}
	rt.ID = uuid.NewString()
	s.rentals = append(s.rentals, *rt)
	return nil
}

func (s *memStore) SetCurrentShort(_ context.Context, packID string, who model.Identity, shortID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	member := false
	for _, id := range s.members[packID] {
		member = member || id == shortID
	}
	for i, rt := range s.rentals {
		if member && owns(rt, who) && rt.ShortPackID != nil && *rt.ShortPackID == packID && rt.ActiveAt(now) {
			s.rentals[i].CurrentShortID = strp(shortID)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) ListByOwner(_ context.Context, who model.Identity) ([]model.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Rental
	for _, rt := range s.rentals {
		if owns(rt, who) {
			out = append(out, rt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchasedAt.After(out[j].PurchasedAt) })
	return out, nil
}

func (s *memStore) ClaimAnonymous(_ context.Context, anonymousID, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i, rt := range s.rentals {
		if id, ok := rt.Owner.AnonymousID(); ok && id == anonymousID {
			s.rentals[i].Owner = model.UserIdentity(userID)
			n++
		}
	}
	return n, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.RentalConfirmedEvent
	err    error
}

func (p *recordingPublisher) PublishRentalConfirmed(_ context.Context, ev queue.RentalConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}
