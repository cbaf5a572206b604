package app

import (
	"context"
	"fmt"

	"staybook/internal/domain"
)

// CatalogService owns the write paths for hotels and rooms and keeps the
// query cache coherent after each write.
type CatalogService struct {
	store   domain.Store
	queries *QueryService
}

func NewCatalogService(s domain.Store, q *QueryService) *CatalogService {
	return &CatalogService{store: s, queries: q}
}

// RegisterHotel creates a hotel owned by the caller. Ownership comes from
// the caller identity, never from the request body.
func (s *CatalogService) RegisterHotel(ctx context.Context, callerID int64, h domain.NewHotel) (domain.Hotel, error) {
	if callerID <= 0 {
		return domain.Hotel{}, fmt.Errorf("%w: missing caller identity", domain.ErrUnauthorized)
	}
	h.OwnerID = callerID
	hotel, err := s.store.CreateHotel(ctx, h)
	if err != nil {
		return domain.Hotel{}, err
	}
	s.queries.invalidateHotel(ctx, hotel.ID)
	return hotel, nil
}

func (s *CatalogService) AddRoom(ctx context.Context, callerID, hotelID int64, r domain.NewRoom) (domain.Room, error) {
	if callerID <= 0 {
		return domain.Room{}, fmt.Errorf("%w: missing caller identity", domain.ErrUnauthorized)
	}
	r.HotelID = hotelID
	return s.store.CreateRoom(ctx, r)
}

func (s *CatalogService) UpdateRoom(ctx context.Context, callerID, roomID int64, p domain.RoomPatch) (domain.Room, error) {
	if callerID <= 0 {
		return domain.Room{}, fmt.Errorf("%w: missing caller identity", domain.ErrUnauthorized)
	}
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	hotel, err := s.store.GetHotel(ctx, room.HotelID)
	if err != nil {
		return domain.Room{}, err
	}
	if hotel.OwnerID != callerID {
		return domain.Room{}, fmt.Errorf("%w: room %d belongs to another owner's hotel", domain.ErrForbidden, roomID)
	}
	return s.store.UpdateRoom(ctx, roomID, p)
}

// RegisterUser creates an account; username collisions surface as
// ErrUsernameTaken. The stored credential is whatever the auth layer
// hands over.
func (s *CatalogService) RegisterUser(ctx context.Context, u domain.NewUser) (domain.User, error) {
	return s.store.CreateUser(ctx, u)
}

func (s *CatalogService) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return s.store.GetUser(ctx, id)
}

// GetUserByUsername backs profile lookup and availability checks.
func (s *CatalogService) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.store.GetUserByUsername(ctx, username)
}
