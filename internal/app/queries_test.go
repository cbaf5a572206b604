package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"staybook/internal/app"
	"staybook/internal/domain"
	"staybook/internal/storage/memstore"
)

// ---- fakes ----

type fakeCache struct {
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.Hotel:
		*d = v.(domain.Hotel)
	case *[]domain.Hotel:
		*d = v.([]domain.Hotel)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

// ---- fixtures ----

type fixture struct {
	store  *memstore.Store
	owner  domain.User
	guest  domain.User
	hotelA domain.Hotel
	hotelB domain.Hotel
	roomA1 domain.Room
	roomB1 domain.Room
}

func buildFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()

	owner, err := s.CreateUser(ctx, domain.NewUser{Username: "owner", Password: "pw", IsHotelOwner: true})
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	guest, err := s.CreateUser(ctx, domain.NewUser{Username: "guest", Password: "pw"})
	if err != nil {
		t.Fatalf("guest: %v", err)
	}
	hotelA, err := s.CreateHotel(ctx, domain.NewHotel{Name: "Alpha", Description: "d", Address: "a", OwnerID: owner.ID})
	if err != nil {
		t.Fatalf("hotelA: %v", err)
	}
	hotelB, err := s.CreateHotel(ctx, domain.NewHotel{Name: "Beta", Description: "d", Address: "a", OwnerID: owner.ID})
	if err != nil {
		t.Fatalf("hotelB: %v", err)
	}
	roomA1, err := s.CreateRoom(ctx, domain.NewRoom{HotelID: hotelA.ID, Name: "A1", PricePerNight: decimal.NewFromInt(100), Capacity: 2})
	if err != nil {
		t.Fatalf("roomA1: %v", err)
	}
	roomB1, err := s.CreateRoom(ctx, domain.NewRoom{HotelID: hotelB.ID, Name: "B1", PricePerNight: decimal.NewFromInt(90), Capacity: 2})
	if err != nil {
		t.Fatalf("roomB1: %v", err)
	}
	return fixture{store: s, owner: owner, guest: guest, hotelA: hotelA, hotelB: hotelB, roomA1: roomA1, roomB1: roomB1}
}

// ---- tests ----

func TestHotelsByOwner_ExactSet(t *testing.T) {
	f := buildFixture(t)
	q := app.NewQueryService(f.store, nil, time.Minute)
	ctx := context.Background()

	owned, err := q.HotelsByOwner(ctx, f.owner.ID)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(owned) != 2 {
		t.Fatalf("expected 2 hotels, got %d", len(owned))
	}
	for _, h := range owned {
		if h.OwnerID != f.owner.ID {
			t.Fatalf("foreign hotel in result: %+v", h)
		}
	}

	none, err := q.HotelsByOwner(ctx, f.guest.ID)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", none)
	}
}

func TestRoomsByHotel(t *testing.T) {
	f := buildFixture(t)
	q := app.NewQueryService(f.store, nil, time.Minute)

	rooms, err := q.RoomsByHotel(context.Background(), f.hotelA.ID)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != f.roomA1.ID {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}
}

func TestBookingsByHotel_JoinsThroughRooms(t *testing.T) {
	f := buildFixture(t)
	ctx := context.Background()
	q := app.NewQueryService(f.store, nil, time.Minute)

	in := time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC)
	bA, err := f.store.CreateBooking(ctx, domain.NewBooking{
		UserID: f.guest.ID, RoomID: f.roomA1.ID, CheckIn: in, CheckOut: in.Add(48 * time.Hour),
		TotalPrice: decimal.NewFromInt(200), Status: domain.BookingPending,
	})
	if err != nil {
		t.Fatalf("booking A: %v", err)
	}
	if _, err := f.store.CreateBooking(ctx, domain.NewBooking{
		UserID: f.guest.ID, RoomID: f.roomB1.ID, CheckIn: in, CheckOut: in.Add(24 * time.Hour),
		TotalPrice: decimal.NewFromInt(90), Status: domain.BookingPending,
	}); err != nil {
		t.Fatalf("booking B: %v", err)
	}

	got, err := q.BookingsByHotel(ctx, f.hotelA.ID)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(got) != 1 || got[0].ID != bA.ID {
		t.Fatalf("expected only hotel A's booking, got %+v", got)
	}

	byUser, err := q.BookingsByUser(ctx, f.guest.ID)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(byUser) != 2 {
		t.Fatalf("expected 2 bookings for guest, got %d", len(byUser))
	}
}

func TestGetHotel_CacheMissThenHit(t *testing.T) {
	f := buildFixture(t)
	cache := &fakeCache{}
	q := app.NewQueryService(f.store, cache, 10*time.Minute)
	ctx := context.Background()

	// Miss (first time, populates cache)
	h, err := q.GetHotel(ctx, f.hotelA.ID)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if h.Name != "Alpha" {
		t.Fatalf("unexpected hotel: %+v", h)
	}

	// Mutate the store to prove the second read comes from cache
	name := "SHOULD NOT SEE THIS"
	if _, err := f.store.UpdateHotel(ctx, f.hotelA.ID, domain.HotelPatch{Name: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}

	h2, err := q.GetHotel(ctx, f.hotelA.ID)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if h2.Name != "Alpha" {
		t.Fatalf("expected cached name, got %s", h2.Name)
	}
}

func TestHotelByStripeCustomer(t *testing.T) {
	f := buildFixture(t)
	ctx := context.Background()
	q := app.NewQueryService(f.store, nil, time.Minute)

	cus := "cus_abc"
	if _, err := f.store.UpdateHotel(ctx, f.hotelB.ID, domain.HotelPatch{StripeCustomerID: &cus}); err != nil {
		t.Fatalf("update: %v", err)
	}

	h, err := q.HotelByStripeCustomer(ctx, "cus_abc")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if h.ID != f.hotelB.ID {
		t.Fatalf("wrong hotel: %+v", h)
	}

	if _, err := q.HotelByStripeCustomer(ctx, "cus_missing"); err == nil {
		t.Fatalf("expected miss for unknown customer")
	}
}
