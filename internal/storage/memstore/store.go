// Package memstore holds the authoritative in-process entity records.
// One RWMutex serializes all map access; the contended region is tiny.
package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"staybook/internal/domain"
)

type Store struct {
	mu       sync.RWMutex
	users    map[int64]domain.User
	hotels   map[int64]domain.Hotel
	rooms    map[int64]domain.Room
	bookings map[int64]domain.Booking

	// nextID is shared across all entity kinds: IDs are unique and
	// strictly increasing store-wide, never per-table.
	nextID atomic.Int64
}

func New() *Store {
	return &Store{
		users:    make(map[int64]domain.User),
		hotels:   make(map[int64]domain.Hotel),
		rooms:    make(map[int64]domain.Room),
		bookings: make(map[int64]domain.Booking),
	}
}

// ---- Users ----

func (s *Store) CreateUser(_ context.Context, u domain.NewUser) (domain.User, error) {
	if strings.TrimSpace(u.Username) == "" {
		return domain.User{}, fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return domain.User{}, fmt.Errorf("%w: %q", domain.ErrUsernameTaken, u.Username)
		}
	}
	user := domain.User{
		ID:               s.nextID.Add(1),
		Username:         u.Username,
		Password:         u.Password,
		IsHotelOwner:     u.IsHotelOwner,
		StripeCustomerID: u.StripeCustomerID,
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("%w: user %q", domain.ErrNotFound, username)
}

func (s *Store) UpdateUser(_ context.Context, id int64, p domain.UserPatch) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.IsHotelOwner != nil {
		u.IsHotelOwner = *p.IsHotelOwner
	}
	if p.StripeCustomerID != nil {
		u.StripeCustomerID = *p.StripeCustomerID
	}
	s.users[id] = u
	return u, nil
}

// ---- Hotels ----

func (s *Store) CreateHotel(_ context.Context, h domain.NewHotel) (domain.Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[h.OwnerID]; !ok {
		return domain.Hotel{}, fmt.Errorf("%w: owner %d", domain.ErrNotFound, h.OwnerID)
	}
	hotel := domain.Hotel{
		ID:                 s.nextID.Add(1),
		Name:               h.Name,
		Description:        h.Description,
		Address:            h.Address,
		OwnerID:            h.OwnerID,
		Images:             cloneStrings(h.Images),
		VirtualTours:       cloneTours(h.VirtualTours),
		Amenities:          cloneStrings(h.Amenities),
		Rating:             h.Rating,
		StripeCustomerID:   h.StripeCustomerID,
		StripeAccountID:    h.StripeAccountID,
		SubscriptionStatus: domain.SubscriptionNone,
	}
	s.hotels[hotel.ID] = hotel
	return cloneHotel(hotel), nil
}

func (s *Store) GetHotel(_ context.Context, id int64) (domain.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hotels[id]
	if !ok {
		return domain.Hotel{}, fmt.Errorf("%w: hotel %d", domain.ErrNotFound, id)
	}
	return cloneHotel(h), nil
}

func (s *Store) ListHotels(_ context.Context) ([]domain.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Hotel, 0, len(s.hotels))
	for _, h := range s.hotels {
		out = append(out, cloneHotel(h))
	}
	return out, nil
}

func (s *Store) UpdateHotel(_ context.Context, id int64, p domain.HotelPatch) (domain.Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hotels[id]
	if !ok {
		return domain.Hotel{}, fmt.Errorf("%w: hotel %d", domain.ErrNotFound, id)
	}
	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.Description != nil {
		h.Description = *p.Description
	}
	if p.Address != nil {
		h.Address = *p.Address
	}
	if p.Images != nil {
		h.Images = cloneStrings(p.Images)
	}
	if p.VirtualTours != nil {
		h.VirtualTours = cloneTours(p.VirtualTours)
	}
	if p.Amenities != nil {
		h.Amenities = cloneStrings(p.Amenities)
	}
	if p.Rating != nil {
		h.Rating = p.Rating
	}
	if p.StripeCustomerID != nil {
		h.StripeCustomerID = *p.StripeCustomerID
	}
	if p.StripeAccountID != nil {
		h.StripeAccountID = *p.StripeAccountID
	}
	if p.SubscriptionStatus != nil {
		h.SubscriptionStatus = *p.SubscriptionStatus
	}
	s.hotels[id] = h
	return cloneHotel(h), nil
}

// ---- Rooms ----

func (s *Store) CreateRoom(_ context.Context, r domain.NewRoom) (domain.Room, error) {
	if r.Capacity < 1 {
		return domain.Room{}, fmt.Errorf("%w: capacity must be at least 1", domain.ErrValidation)
	}
	if r.PricePerNight.IsNegative() {
		return domain.Room{}, fmt.Errorf("%w: price per night must not be negative", domain.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hotels[r.HotelID]; !ok {
		return domain.Room{}, fmt.Errorf("%w: hotel %d", domain.ErrNotFound, r.HotelID)
	}
	available := true
	if r.Available != nil {
		available = *r.Available
	}
	room := domain.Room{
		ID:            s.nextID.Add(1),
		HotelID:       r.HotelID,
		Name:          r.Name,
		Description:   r.Description,
		PricePerNight: r.PricePerNight,
		Capacity:      r.Capacity,
		Images:        cloneStrings(r.Images),
		Available:     available,
	}
	s.rooms[room.ID] = room
	return cloneRoom(room), nil
}

func (s *Store) GetRoom(_ context.Context, id int64) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, fmt.Errorf("%w: room %d", domain.ErrNotFound, id)
	}
	return cloneRoom(r), nil
}

func (s *Store) ListRooms(_ context.Context) ([]domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, cloneRoom(r))
	}
	return out, nil
}

func (s *Store) UpdateRoom(_ context.Context, id int64, p domain.RoomPatch) (domain.Room, error) {
	if p.Capacity != nil && *p.Capacity < 1 {
		return domain.Room{}, fmt.Errorf("%w: capacity must be at least 1", domain.ErrValidation)
	}
	if p.PricePerNight != nil && p.PricePerNight.IsNegative() {
		return domain.Room{}, fmt.Errorf("%w: price per night must not be negative", domain.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, fmt.Errorf("%w: room %d", domain.ErrNotFound, id)
	}
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.PricePerNight != nil {
		r.PricePerNight = *p.PricePerNight
	}
	if p.Capacity != nil {
		r.Capacity = *p.Capacity
	}
	if p.Images != nil {
		r.Images = cloneStrings(p.Images)
	}
	if p.Available != nil {
		r.Available = *p.Available
	}
	s.rooms[id] = r
	return cloneRoom(r), nil
}

// ---- Bookings ----

func (s *Store) CreateBooking(_ context.Context, b domain.NewBooking) (domain.Booking, error) {
	if !b.CheckIn.Before(b.CheckOut) {
		return domain.Booking{}, fmt.Errorf("%w: check-in must precede check-out", domain.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[b.UserID]; !ok {
		return domain.Booking{}, fmt.Errorf("%w: user %d", domain.ErrNotFound, b.UserID)
	}
	if _, ok := s.rooms[b.RoomID]; !ok {
		return domain.Booking{}, fmt.Errorf("%w: room %d", domain.ErrNotFound, b.RoomID)
	}
	status := b.Status
	if status == "" {
		status = domain.BookingPending
	}
	booking := domain.Booking{
		ID:              s.nextID.Add(1),
		UserID:          b.UserID,
		RoomID:          b.RoomID,
		CheckIn:         b.CheckIn,
		CheckOut:        b.CheckOut,
		TotalPrice:      b.TotalPrice,
		Status:          status,
		PaymentIntentID: b.PaymentIntentID,
	}
	s.bookings[booking.ID] = booking
	return booking, nil
}

func (s *Store) GetBooking(_ context.Context, id int64) (domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
	}
	return b, nil
}

func (s *Store) ListBookings(_ context.Context) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	return out, nil
}

func (s *Store) UpdateBooking(_ context.Context, id int64, p domain.BookingPatch) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
	}
	if p.CheckIn != nil {
		b.CheckIn = *p.CheckIn
	}
	if p.CheckOut != nil {
		b.CheckOut = *p.CheckOut
	}
	if !b.CheckIn.Before(b.CheckOut) {
		return domain.Booking{}, fmt.Errorf("%w: check-in must precede check-out", domain.ErrValidation)
	}
	if p.TotalPrice != nil {
		b.TotalPrice = *p.TotalPrice
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.PaymentIntentID != nil {
		b.PaymentIntentID = *p.PaymentIntentID
	}
	s.bookings[id] = b
	return b, nil
}

// ---- copies ----
//
// Records with slice fields are cloned at the boundary so callers can never
// mutate stored state through an aliased backing array.

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneTours(in []domain.VirtualTour) []domain.VirtualTour {
	if in == nil {
		return []domain.VirtualTour{}
	}
	out := make([]domain.VirtualTour, len(in))
	copy(out, in)
	return out
}

func cloneHotel(h domain.Hotel) domain.Hotel {
	h.Images = cloneStrings(h.Images)
	h.VirtualTours = cloneTours(h.VirtualTours)
	h.Amenities = cloneStrings(h.Amenities)
	return h
}

func cloneRoom(r domain.Room) domain.Room {
	r.Images = cloneStrings(r.Images)
	return r
}
