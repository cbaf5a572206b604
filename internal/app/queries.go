package app

import (
	"context"
	"fmt"
	"time"

	"staybook/internal/domain"
)

// QueryService serves the read-only derived views. Views are linear scans
// over the store; the two hottest reads (hotel detail and the full hotel
// listing) go through a read-through cache that the write side invalidates.
type QueryService struct {
	store    domain.Store
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(s domain.Store, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: s, cache: c, cacheTTL: ttl}
}

func hotelKey(id int64) string { return fmt.Sprintf("hotel:%d", id) }

const hotelListKey = "hotels:all"

func (s *QueryService) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	var h domain.Hotel
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, hotelKey(id), &h); ok {
			return h, nil
		}
	}
	h, err := s.store.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, hotelKey(id), h, int(s.cacheTTL.Seconds()))
	}
	return h, nil
}

func (s *QueryService) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	var out []domain.Hotel
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, hotelListKey, &out); ok && out != nil {
			return out, nil
		}
	}
	out, err := s.store.ListHotels(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, hotelListKey, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

// HotelsByOwner returns exactly the hotels whose OwnerID matches, empty
// slice (never nil) when the owner has none.
func (s *QueryService) HotelsByOwner(ctx context.Context, ownerID int64) ([]domain.Hotel, error) {
	hotels, err := s.store.ListHotels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Hotel, 0)
	for _, h := range hotels {
		if h.OwnerID == ownerID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *QueryService) RoomsByHotel(ctx context.Context, hotelID int64) ([]domain.Room, error) {
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Room, 0)
	for _, r := range rooms {
		if r.HotelID == hotelID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *QueryService) BookingsByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	bookings, err := s.store.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0)
	for _, b := range bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

// BookingsByHotel joins booking -> room -> hotel.
func (s *QueryService) BookingsByHotel(ctx context.Context, hotelID int64) ([]domain.Booking, error) {
	bookings, err := s.store.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0)
	for _, b := range bookings {
		room, err := s.store.GetRoom(ctx, b.RoomID)
		if err != nil {
			continue
		}
		if room.HotelID == hotelID {
			out = append(out, b)
		}
	}
	return out, nil
}

// HotelByStripeCustomer correlates a provider webhook event with a hotel.
// A miss is reported as ErrNotFound; the reconciler treats it as a no-op.
func (s *QueryService) HotelByStripeCustomer(ctx context.Context, customerID string) (domain.Hotel, error) {
	if customerID == "" {
		return domain.Hotel{}, fmt.Errorf("%w: empty customer reference", domain.ErrNotFound)
	}
	hotels, err := s.store.ListHotels(ctx)
	if err != nil {
		return domain.Hotel{}, err
	}
	for _, h := range hotels {
		if h.StripeCustomerID == customerID {
			return h, nil
		}
	}
	return domain.Hotel{}, fmt.Errorf("%w: no hotel for customer %s", domain.ErrNotFound, customerID)
}

// invalidateHotel drops the cached detail and listing entries after a
// hotel write. Best-effort: a failed eviction only shortens freshness.
func (s *QueryService) invalidateHotel(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, hotelKey(id))
	_ = s.cache.Del(ctx, hotelListKey)
}
