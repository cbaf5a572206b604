package domain

import "context"

// Store is the authoritative in-memory repository for all four entity
// kinds. Mutations appear atomic to concurrent callers; IDs come from one
// counter shared across kinds. Nothing is ever deleted.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u NewUser) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	UpdateUser(ctx context.Context, id int64, p UserPatch) (User, error)

	// Hotels
	CreateHotel(ctx context.Context, h NewHotel) (Hotel, error)
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListHotels(ctx context.Context) ([]Hotel, error)
	UpdateHotel(ctx context.Context, id int64, p HotelPatch) (Hotel, error)

	// Rooms
	CreateRoom(ctx context.Context, r NewRoom) (Room, error)
	GetRoom(ctx context.Context, id int64) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	UpdateRoom(ctx context.Context, id int64, p RoomPatch) (Room, error)

	// Bookings
	CreateBooking(ctx context.Context, b NewBooking) (Booking, error)
	GetBooking(ctx context.Context, id int64) (Booking, error)
	ListBookings(ctx context.Context) ([]Booking, error)
	UpdateBooking(ctx context.Context, id int64, p BookingPatch) (Booking, error)
}

// PaymentIntent is the provider's handle for a one-off payment.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// Customer correlates a hotel with its record at the payment provider.
type Customer struct {
	ID string
}

// Subscription is the provider's view of a recurring charge.
type Subscription struct {
	ID           string
	CustomerID   string
	Status       SubscriptionStatus
	ClientSecret string // from the latest invoice's payment intent
}

// WebhookEvent is a verified, decoded provider notification.
type WebhookEvent struct {
	ID             string
	Type           string
	CustomerID     string
	SubscriptionID string
	Status         SubscriptionStatus
}

// PaymentProvider is the external subscription/payment collaborator. All
// calls hit the network and must happen outside any store lock.
type PaymentProvider interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency string) (PaymentIntent, error)
	CreateCustomer(ctx context.Context) (Customer, error)
	CreateSubscription(ctx context.Context, customerID, priceID string) (Subscription, error)

	// VerifyWebhook checks the delivery signature against the shared secret
	// and decodes the event. Failures wrap ErrWebhookVerification.
	VerifyWebhook(payload []byte, sigHeader string) (WebhookEvent, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
