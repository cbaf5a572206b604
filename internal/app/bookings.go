package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"staybook/internal/adapters/observability"
	"staybook/internal/domain"
)

// BookingService validates stay requests and records reservations. It
// never talks to the payment provider: initiating the payment intent and
// confirming it are the HTTP layer's responsibility.
type BookingService struct {
	store domain.Store
}

func NewBookingService(s domain.Store) *BookingService {
	return &BookingService{store: s}
}

// Nights counts calendar-day-granularity nights: any partial day rounds
// up, so a 23:00 -> 01:00 stay is one night, never zero.
func Nights(checkIn, checkOut time.Time) int64 {
	span := checkOut.Sub(checkIn)
	return int64(math.Ceil(span.Hours() / 24))
}

// CreateBooking resolves the room, validates the range, prices the stay
// and persists a pending booking. No Room or Hotel state changes.
func (s *BookingService) CreateBooking(ctx context.Context, userID, roomID int64, checkIn, checkOut time.Time) (domain.Booking, error) {
	if userID <= 0 {
		return domain.Booking{}, fmt.Errorf("%w: missing caller identity", domain.ErrUnauthorized)
	}
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return domain.Booking{}, err
	}
	if !checkIn.Before(checkOut) {
		return domain.Booking{}, fmt.Errorf("%w: check-in must precede check-out", domain.ErrValidation)
	}

	nights := Nights(checkIn, checkOut)
	total := room.PricePerNight.Mul(decimal.NewFromInt(nights))

	booking, err := s.store.CreateBooking(ctx, domain.NewBooking{
		UserID:     userID,
		RoomID:     roomID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		TotalPrice: total,
		Status:     domain.BookingPending,
	})
	if err != nil {
		return domain.Booking{}, err
	}
	observability.BookingsCreated.Inc()
	return booking, nil
}

// ConfirmBooking is the server-trusted status transition: it moves a
// pending booking to confirmed once the payment intent succeeded. Only
// the booking's own user may confirm it.
func (s *BookingService) ConfirmBooking(ctx context.Context, callerID, bookingID int64, paymentIntentID string) (domain.Booking, error) {
	if callerID <= 0 {
		return domain.Booking{}, fmt.Errorf("%w: missing caller identity", domain.ErrUnauthorized)
	}
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if booking.UserID != callerID {
		return domain.Booking{}, fmt.Errorf("%w: booking %d belongs to another user", domain.ErrForbidden, bookingID)
	}
	if booking.Status != domain.BookingPending {
		return domain.Booking{}, fmt.Errorf("%w: booking %d is %s, not pending", domain.ErrValidation, bookingID, booking.Status)
	}
	status := domain.BookingConfirmed
	return s.store.UpdateBooking(ctx, bookingID, domain.BookingPatch{
		Status:          &status,
		PaymentIntentID: &paymentIntentID,
	})
}
