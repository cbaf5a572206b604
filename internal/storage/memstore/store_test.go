package memstore_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"staybook/internal/domain"
	"staybook/internal/storage/memstore"
)

func seedOwner(t *testing.T, s *memstore.Store) domain.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), domain.NewUser{Username: "owner", Password: "pw", IsHotelOwner: true})
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	return u
}

func seedHotel(t *testing.T, s *memstore.Store, ownerID int64) domain.Hotel {
	t.Helper()
	h, err := s.CreateHotel(context.Background(), domain.NewHotel{
		Name: "Seaside", Description: "by the sea", Address: "1 Shore Rd", OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("create hotel: %v", err)
	}
	return h
}

func TestIDsUniqueAndIncreasingAcrossKinds(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	owner := seedOwner(t, s)
	hotel := seedHotel(t, s, owner.ID)
	room, err := s.CreateRoom(ctx, domain.NewRoom{
		HotelID: hotel.ID, Name: "101", PricePerNight: decimal.NewFromInt(80), Capacity: 2,
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	booking, err := s.CreateBooking(ctx, domain.NewBooking{
		UserID: owner.ID, RoomID: room.ID,
		CheckIn:  time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 3, 3, 11, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	ids := []int64{owner.ID, hotel.ID, room.ID, booking.ID}
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("ids not strictly increasing across kinds: %v", ids)
		}
	}
}

func TestConcurrentCreates_NoDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	const n = 64
	var wg sync.WaitGroup
	idCh := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := s.CreateUser(ctx, domain.NewUser{Username: fmt.Sprintf("u-%d", i), Password: "pw"})
			if err != nil {
				t.Errorf("create user %d: %v", i, err)
				return
			}
			idCh <- u.ID
		}(i)
	}
	wg.Wait()
	close(idCh)

	var ids []int64
	for id := range idCh {
		ids = append(ids, id)
	}
	if len(ids) != n {
		t.Fatalf("expected %d users, got %d", n, len(ids))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			t.Fatalf("duplicate id %d issued under concurrency", ids[i])
		}
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	if _, err := s.CreateUser(ctx, domain.NewUser{Username: "ana", Password: "pw"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := s.CreateUser(ctx, domain.NewUser{Username: "ana", Password: "other"})
	if !errorsIs(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestUserLookups(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	owner := seedOwner(t, s)

	byID, err := s.GetUser(ctx, owner.ID)
	if err != nil || byID.Username != "owner" {
		t.Fatalf("GetUser: %+v, %v", byID, err)
	}
	if _, err := s.GetUser(ctx, 999); !errorsIs(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent id, got %v", err)
	}

	byName, err := s.GetUserByUsername(ctx, "owner")
	if err != nil || byName.ID != owner.ID {
		t.Fatalf("GetUserByUsername: %+v, %v", byName, err)
	}
	if _, err := s.GetUserByUsername(ctx, "nobody"); !errorsIs(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent username, got %v", err)
	}
}

func TestUpdateUser_PartialMerge(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	owner := seedOwner(t, s)

	// Empty patch is the identity.
	same, err := s.UpdateUser(ctx, owner.ID, domain.UserPatch{})
	if err != nil {
		t.Fatalf("empty patch: %v", err)
	}
	if same != owner {
		t.Fatalf("empty patch changed record: %+v vs %+v", same, owner)
	}

	cus := "cus_42"
	updated, err := s.UpdateUser(ctx, owner.ID, domain.UserPatch{StripeCustomerID: &cus})
	if err != nil {
		t.Fatalf("patch customer: %v", err)
	}
	if updated.StripeCustomerID != "cus_42" {
		t.Fatalf("customer ref not applied: %+v", updated)
	}
	if updated.Username != owner.Username || updated.Password != owner.Password || updated.IsHotelOwner != owner.IsHotelOwner {
		t.Fatalf("unrelated fields changed: %+v", updated)
	}

	if _, err := s.UpdateUser(ctx, 999, domain.UserPatch{StripeCustomerID: &cus}); !errorsIs(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent user, got %v", err)
	}
}

func TestCreateHotel_Defaults(t *testing.T) {
	s := memstore.New()
	owner := seedOwner(t, s)
	h := seedHotel(t, s, owner.ID)

	if h.SubscriptionStatus != domain.SubscriptionNone {
		t.Fatalf("expected subscription status %q, got %q", domain.SubscriptionNone, h.SubscriptionStatus)
	}
	if h.Rating != nil {
		t.Fatalf("expected nil rating, got %v", h.Rating)
	}
	if h.Images == nil || h.Amenities == nil || h.VirtualTours == nil {
		t.Fatalf("optional slices must default to empty, not nil: %+v", h)
	}
}

func TestCreateHotel_OwnerMustExist(t *testing.T) {
	s := memstore.New()
	_, err := s.CreateHotel(context.Background(), domain.NewHotel{Name: "Ghost", OwnerID: 999})
	if !errorsIs(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent owner, got %v", err)
	}
}

func TestCreateRoom_DefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	owner := seedOwner(t, s)
	hotel := seedHotel(t, s, owner.ID)

	r, err := s.CreateRoom(ctx, domain.NewRoom{
		HotelID: hotel.ID, Name: "101", PricePerNight: decimal.NewFromInt(120), Capacity: 2,
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if !r.Available {
		t.Fatalf("available must default to true")
	}

	if _, err := s.CreateRoom(ctx, domain.NewRoom{HotelID: hotel.ID, Name: "bad", PricePerNight: decimal.NewFromInt(10), Capacity: 0}); !errorsIs(err, domain.ErrValidation) {
		t.Fatalf("capacity 0 must fail validation, got %v", err)
	}
	if _, err := s.CreateRoom(ctx, domain.NewRoom{HotelID: hotel.ID, Name: "bad", PricePerNight: decimal.NewFromInt(-1), Capacity: 1}); !errorsIs(err, domain.ErrValidation) {
		t.Fatalf("negative price must fail validation, got %v", err)
	}
	if _, err := s.CreateRoom(ctx, domain.NewRoom{HotelID: 12345, Name: "bad", PricePerNight: decimal.NewFromInt(10), Capacity: 1}); !errorsIs(err, domain.ErrNotFound) {
		t.Fatalf("absent hotel must fail NotFound, got %v", err)
	}
}

func TestUpdateHotel_PartialMerge(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	owner := seedOwner(t, s)
	h := seedHotel(t, s, owner.ID)

	// Empty patch is the identity.
	same, err := s.UpdateHotel(ctx, h.ID, domain.HotelPatch{})
	if err != nil {
		t.Fatalf("empty patch: %v", err)
	}
	got, _ := s.GetHotel(ctx, h.ID)
	if same.Name != got.Name || same.Address != got.Address || same.SubscriptionStatus != got.SubscriptionStatus {
		t.Fatalf("empty patch changed record: %+v vs %+v", same, got)
	}

	// Patching one field leaves the rest intact.
	status := domain.SubscriptionActive
	updated, err := s.UpdateHotel(ctx, h.ID, domain.HotelPatch{SubscriptionStatus: &status})
	if err != nil {
		t.Fatalf("patch status: %v", err)
	}
	if updated.SubscriptionStatus != domain.SubscriptionActive {
		t.Fatalf("status not applied: %+v", updated)
	}
	if updated.Name != h.Name || updated.Description != h.Description || updated.OwnerID != h.OwnerID {
		t.Fatalf("unrelated fields changed: %+v", updated)
	}

	if _, err := s.UpdateHotel(ctx, 4242, domain.HotelPatch{SubscriptionStatus: &status}); !errorsIs(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent hotel, got %v", err)
	}
}

func TestReturnedSlicesDoNotAliasStore(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	owner := seedOwner(t, s)
	h, err := s.CreateHotel(ctx, domain.NewHotel{
		Name: "Alias", Description: "d", Address: "a", OwnerID: owner.ID,
		Images: []string{"img-1"},
	})
	if err != nil {
		t.Fatalf("create hotel: %v", err)
	}

	h.Images[0] = "mutated"
	fresh, _ := s.GetHotel(ctx, h.ID)
	if fresh.Images[0] != "img-1" {
		t.Fatalf("caller mutation leaked into store: %v", fresh.Images)
	}
}

func TestCreateBooking_ReferentialIntegrity(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	owner := seedOwner(t, s)
	hotel := seedHotel(t, s, owner.ID)
	room, _ := s.CreateRoom(ctx, domain.NewRoom{HotelID: hotel.ID, Name: "101", PricePerNight: decimal.NewFromInt(50), Capacity: 1})

	in := time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC)
	out := in.Add(24 * time.Hour)

	if _, err := s.CreateBooking(ctx, domain.NewBooking{UserID: 999, RoomID: room.ID, CheckIn: in, CheckOut: out}); !errorsIs(err, domain.ErrNotFound) {
		t.Fatalf("absent user must fail NotFound, got %v", err)
	}
	if _, err := s.CreateBooking(ctx, domain.NewBooking{UserID: owner.ID, RoomID: 999, CheckIn: in, CheckOut: out}); !errorsIs(err, domain.ErrNotFound) {
		t.Fatalf("absent room must fail NotFound, got %v", err)
	}
	if _, err := s.CreateBooking(ctx, domain.NewBooking{UserID: owner.ID, RoomID: room.ID, CheckIn: out, CheckOut: in}); !errorsIs(err, domain.ErrValidation) {
		t.Fatalf("inverted dates must fail validation, got %v", err)
	}

	b, err := s.CreateBooking(ctx, domain.NewBooking{UserID: owner.ID, RoomID: room.ID, CheckIn: in, CheckOut: out})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if b.Status != domain.BookingPending {
		t.Fatalf("booking status must default to pending, got %q", b.Status)
	}
}

func errorsIs(err, target error) bool {
	return err != nil && errors.Is(err, target)
}
