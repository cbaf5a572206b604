package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus mirrors the payment provider's reported subscription
// state. StatusNone means the hotel never started a subscription.
type SubscriptionStatus string

const (
	SubscriptionNone       SubscriptionStatus = "none"
	SubscriptionIncomplete SubscriptionStatus = "incomplete"
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionCanceled   SubscriptionStatus = "canceled"
)

// ParseSubscriptionStatus maps a provider status string onto the known set.
func ParseSubscriptionStatus(s string) (SubscriptionStatus, bool) {
	switch SubscriptionStatus(s) {
	case SubscriptionNone, SubscriptionIncomplete, SubscriptionActive,
		SubscriptionPastDue, SubscriptionCanceled:
		return SubscriptionStatus(s), true
	}
	return "", false
}

// BookingStatus is server-trusted: bookings start Pending and only the
// payment-confirmation path advances them.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCanceled  BookingStatus = "canceled"
)

type VirtualTour struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type User struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	Password         string `json:"password,omitempty"` // opaque credential; hashing is the auth layer's job
	IsHotelOwner     bool   `json:"isHotelOwner"`
	StripeCustomerID string `json:"stripeCustomerId,omitempty"` // empty = not provisioned
}

type Hotel struct {
	ID                 int64              `json:"id"`
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	Address            string             `json:"address"`
	OwnerID            int64              `json:"ownerId"`
	Images             []string           `json:"images"`
	VirtualTours       []VirtualTour      `json:"virtualTours"`
	Amenities          []string           `json:"amenities"`
	Rating             *decimal.Decimal   `json:"rating"` // nil until rated
	StripeCustomerID   string             `json:"stripeCustomerId,omitempty"`
	StripeAccountID    string             `json:"stripeAccountId,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
}

type Room struct {
	ID            int64           `json:"id"`
	HotelID       int64           `json:"hotelId"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	PricePerNight decimal.Decimal `json:"pricePerNight"`
	Capacity      int             `json:"capacity"`
	Images        []string        `json:"images"`
	Available     bool            `json:"available"`
}

type Booking struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"userId"`
	RoomID          int64           `json:"roomId"`
	CheckIn         time.Time       `json:"checkIn"`
	CheckOut        time.Time       `json:"checkOut"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Status          BookingStatus   `json:"status"`
	PaymentIntentID string          `json:"paymentIntentId,omitempty"`
}

// Creation parameters. Optional fields left zero receive documented
// defaults from the store so records are never partially undefined.

type NewUser struct {
	Username         string
	Password         string
	IsHotelOwner     bool
	StripeCustomerID string
}

type NewHotel struct {
	Name             string
	Description      string
	Address          string
	OwnerID          int64
	Images           []string
	VirtualTours     []VirtualTour
	Amenities        []string
	Rating           *decimal.Decimal
	StripeCustomerID string
	StripeAccountID  string
}

type NewRoom struct {
	HotelID       int64
	Name          string
	Description   string
	PricePerNight decimal.Decimal
	Capacity      int
	Images        []string
	Available     *bool // nil defaults to true
}

type NewBooking struct {
	UserID          int64
	RoomID          int64
	CheckIn         time.Time
	CheckOut        time.Time
	TotalPrice      decimal.Decimal
	Status          BookingStatus
	PaymentIntentID string
}

// Patch structs carry partial updates: nil means "keep the stored value",
// including for slices (a non-nil empty slice replaces with empty).

type UserPatch struct {
	Username         *string
	Password         *string
	IsHotelOwner     *bool
	StripeCustomerID *string
}

type HotelPatch struct {
	Name               *string
	Description        *string
	Address            *string
	Images             []string
	VirtualTours       []VirtualTour
	Amenities          []string
	Rating             *decimal.Decimal
	StripeCustomerID   *string
	StripeAccountID    *string
	SubscriptionStatus *SubscriptionStatus
}

type RoomPatch struct {
	Name          *string
	Description   *string
	PricePerNight *decimal.Decimal
	Capacity      *int
	Images        []string
	Available     *bool
}

type BookingPatch struct {
	CheckIn         *time.Time
	CheckOut        *time.Time
	TotalPrice      *decimal.Decimal
	Status          *BookingStatus
	PaymentIntentID *string
}
