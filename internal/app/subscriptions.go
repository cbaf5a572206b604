package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"staybook/internal/adapters/observability"
	"staybook/internal/domain"
)

// SubscriptionService starts hotel subscriptions against the payment
// provider and reconciles the provider's webhook deliveries back into the
// store. It mirrors provider-reported status verbatim: no transitions are
// invented locally, and redelivered events are absorbed idempotently.
type SubscriptionService struct {
	store    domain.Store
	queries  *QueryService
	provider domain.PaymentProvider
	priceID  string
}

func NewSubscriptionService(s domain.Store, q *QueryService, p domain.PaymentProvider, priceID string) *SubscriptionService {
	return &SubscriptionService{store: s, queries: q, provider: p, priceID: priceID}
}

// SubscriptionCheckout is what the browser needs to collect payment.
type SubscriptionCheckout struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientSecret   string `json:"clientSecret"`
}

// Subscribe provisions a provider customer for the hotel if it has none
// (persisted back immediately), then requests the subscription. Provider
// calls happen with no store lock held; identifiers are written back via a
// normal update afterwards.
func (s *SubscriptionService) Subscribe(ctx context.Context, hotelID, callerID int64) (SubscriptionCheckout, error) {
	if callerID <= 0 {
		return SubscriptionCheckout{}, fmt.Errorf("%w: missing caller identity", domain.ErrUnauthorized)
	}
	hotel, err := s.store.GetHotel(ctx, hotelID)
	if err != nil {
		return SubscriptionCheckout{}, err
	}
	if hotel.OwnerID != callerID {
		return SubscriptionCheckout{}, fmt.Errorf("%w: hotel %d is not owned by user %d", domain.ErrForbidden, hotelID, callerID)
	}

	customerID := hotel.StripeCustomerID
	if customerID == "" {
		customer, err := s.provider.CreateCustomer(ctx)
		if err != nil {
			return SubscriptionCheckout{}, fmt.Errorf("%w: create customer: %v", domain.ErrExternalService, err)
		}
		customerID = customer.ID
		if _, err := s.store.UpdateHotel(ctx, hotelID, domain.HotelPatch{StripeCustomerID: &customerID}); err != nil {
			return SubscriptionCheckout{}, err
		}
		s.queries.invalidateHotel(ctx, hotelID)
	}

	sub, err := s.provider.CreateSubscription(ctx, customerID, s.priceID)
	if err != nil {
		return SubscriptionCheckout{}, fmt.Errorf("%w: create subscription: %v", domain.ErrExternalService, err)
	}

	log.Info().
		Int64("hotel_id", hotelID).
		Str("subscription_id", sub.ID).
		Str("status", string(sub.Status)).
		Msg("subscription created")

	return SubscriptionCheckout{SubscriptionID: sub.ID, ClientSecret: sub.ClientSecret}, nil
}

// Provider event types the reconciler acts on.
const (
	eventSubscriptionCreated = "customer.subscription.created"
	eventSubscriptionUpdated = "customer.subscription.updated"
)

// ApplyWebhookEvent verifies the delivery and applies the reported status
// to the matching hotel. The signature check happens before any state
// change. Events for unknown customers are acknowledged and discarded;
// replaying an event whose status is already stored is a no-op, so
// at-least-once redelivery never causes extra side effects.
func (s *SubscriptionService) ApplyWebhookEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.provider.VerifyWebhook(payload, sigHeader)
	if err != nil {
		observability.WebhookEvents.WithLabelValues("rejected").Inc()
		return err
	}

	switch event.Type {
	case eventSubscriptionCreated, eventSubscriptionUpdated:
	default:
		observability.WebhookEvents.WithLabelValues("skipped").Inc()
		return nil
	}

	if event.Status == "" {
		// Authentic delivery reporting a status this system does not
		// model: acknowledge it, mirror nothing.
		observability.WebhookEvents.WithLabelValues("skipped").Inc()
		log.Debug().Str("event", event.ID).Msg("webhook with unmodeled subscription status skipped")
		return nil
	}

	hotel, err := s.queries.HotelByStripeCustomer(ctx, event.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The provider may reference entities outside this system.
			observability.WebhookEvents.WithLabelValues("ignored").Inc()
			log.Debug().Str("customer", event.CustomerID).Str("event", event.ID).Msg("webhook for unknown customer discarded")
			return nil
		}
		return err
	}

	if hotel.SubscriptionStatus == event.Status {
		// Redelivery of an already-applied status: acknowledge without
		// touching the store or the cache.
		observability.WebhookEvents.WithLabelValues("duplicate").Inc()
		return nil
	}

	status := event.Status
	if _, err := s.store.UpdateHotel(ctx, hotel.ID, domain.HotelPatch{SubscriptionStatus: &status}); err != nil {
		return err
	}
	s.queries.invalidateHotel(ctx, hotel.ID)

	observability.WebhookEvents.WithLabelValues("applied").Inc()
	log.Info().
		Int64("hotel_id", hotel.ID).
		Str("event", event.ID).
		Str("status", string(status)).
		Msg("subscription status applied")
	return nil
}
