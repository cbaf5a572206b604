// Package stripe is the HTTP adapter for the payment/subscription
// provider. The provider is treated as an opaque service: this client
// only issues the three calls the core consumes and verifies webhook
// deliveries.
package stripe

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"staybook/internal/adapters/observability"
	"staybook/internal/domain"
)

type Client struct {
	base          string
	hc            *http.Client
	key           string
	webhookSecret string
	rl            *rate.Limiter
}

func New(base, key, webhookSecret string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("secret key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:          strings.TrimSuffix(base, "/"),
		hc:            &http.Client{Timeout: 20 * time.Second},
		key:           key,
		webhookSecret: webhookSecret,
		rl:            rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API ----

func (c *Client) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string) (domain.PaymentIntent, error) {
	if currency == "" {
		currency = "usd"
	}
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", currency)

	var out struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := c.postForm(ctx, "/v1/payment_intents", form, &out); err != nil {
		return domain.PaymentIntent{}, err
	}
	return domain.PaymentIntent{ID: out.ID, ClientSecret: out.ClientSecret}, nil
}

func (c *Client) CreateCustomer(ctx context.Context) (domain.Customer, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.postForm(ctx, "/v1/customers", url.Values{}, &out); err != nil {
		return domain.Customer{}, err
	}
	return domain.Customer{ID: out.ID}, nil
}

func (c *Client) CreateSubscription(ctx context.Context, customerID, priceID string) (domain.Subscription, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("items[0][price]", priceID)
	form.Set("payment_behavior", "default_incomplete")
	form.Add("expand[]", "latest_invoice.payment_intent")

	var out struct {
		ID            string `json:"id"`
		Customer      string `json:"customer"`
		Status        string `json:"status"`
		LatestInvoice struct {
			PaymentIntent struct {
				ClientSecret string `json:"client_secret"`
			} `json:"payment_intent"`
		} `json:"latest_invoice"`
	}
	if err := c.postForm(ctx, "/v1/subscriptions", form, &out); err != nil {
		return domain.Subscription{}, err
	}
	status, ok := domain.ParseSubscriptionStatus(out.Status)
	if !ok {
		return domain.Subscription{}, fmt.Errorf("unexpected subscription status %q", out.Status)
	}
	return domain.Subscription{
		ID:           out.ID,
		CustomerID:   out.Customer,
		Status:       status,
		ClientSecret: out.LatestInvoice.PaymentIntent.ClientSecret,
	}, nil
}

// ---- Internals ----

var (
	ErrUnauthorized = errors.New("stripe: unauthorized")
	ErrNotFound     = errors.New("stripe: not found")
)

// postForm performs a form-encoded POST with client-side rate limiting and
// bounded retries. Retries on 429 and transient 5xx, honoring Retry-After
// when provided.
func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	var lastErr error
	var lastStatus int
	defer func() {
		observability.ObserveExternal("stripe", endpoint, lastStatus, time.Since(start))
	}()

	for i := 0; i < 4; i++ {
		// fresh request each attempt; the body reader is consumed
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.key)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		lastStatus = resp.StatusCode

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// provider error envelope: {"error":{"message":...}}
			var apiErr struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if json.Unmarshal(b, &apiErr) == nil && apiErr.Error.Message != "" {
				return fmt.Errorf("bad status %d: %s", resp.StatusCode, apiErr.Error.Message)
			}
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms,
// 800ms...), with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
