package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"staybook/internal/app"
	"staybook/internal/domain"
)

type Handlers struct {
	Q        *app.QueryService
	Catalog  *app.CatalogService
	Bookings *app.BookingService
	Subs     *app.SubscriptionService
	Payments domain.PaymentProvider
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Post("/api/users", h.createUser)
	s.mux.Get("/api/users/{id}", h.getUser)
	s.mux.Get("/api/users/by-username/{username}", h.getUserByUsername)
	s.mux.Get("/api/user", h.currentUser)

	s.mux.Get("/api/hotels", h.listHotels)
	s.mux.Get("/api/hotels/owner/{id}", h.hotelsByOwner)
	s.mux.Get("/api/hotels/{id}", h.getHotel)
	s.mux.Post("/api/hotels", h.createHotel)

	s.mux.Get("/api/hotels/{id}/rooms", h.listRooms)
	s.mux.Post("/api/hotels/{id}/rooms", h.createRoom)
	s.mux.Get("/api/hotels/{id}/bookings", h.hotelBookings)

	s.mux.Post("/api/bookings", h.createBooking)
	s.mux.Post("/api/bookings/{id}/confirm", h.confirmBooking)
	s.mux.Get("/api/user/bookings", h.userBookings)

	s.mux.Post("/api/create-payment-intent", h.createPaymentIntent)
	s.mux.Post("/api/hotels/{id}/subscribe", h.subscribe)
	s.mux.Post("/api/webhooks/stripe", h.stripeWebhook)
}

// ---- plumbing ----

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the domain failure taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUsernameTaken),
		errors.Is(err, domain.ErrWebhookVerification):
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, domain.ErrExternalService):
		writeProblem(w, http.StatusBadGateway, "Bad Gateway", err.Error())
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// callerID resolves the authenticated user from X-User-ID. Session and
// cookie plumbing live upstream; by the time a request reaches this
// service the identity is a plain resolved id. 0 means anonymous.
func callerID(r *http.Request) int64 {
	id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func decode(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// ---- users ----

func (h *Handlers) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username     string `json:"username"`
		Password     string `json:"password"`
		IsHotelOwner bool   `json:"isHotelOwner"`
	}
	if err := decode(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	user, err := h.Catalog.RegisterUser(r.Context(), domain.NewUser{
		Username: req.Username, Password: req.Password, IsHotelOwner: req.IsHotelOwner,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	user.Password = "" // never echo credentials
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handlers) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	user, err := h.Catalog.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	user.Password = ""
	writeJSON(w, http.StatusOK, user)
}

func (h *Handlers) getUserByUsername(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	user, err := h.Catalog.GetUserByUsername(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}
	user.Password = ""
	writeJSON(w, http.StatusOK, user)
}

// currentUser echoes the caller's own account, resolved from X-User-ID.
func (h *Handlers) currentUser(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == 0 {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	user, err := h.Catalog.GetUser(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	user.Password = ""
	writeJSON(w, http.StatusOK, user)
}

// ---- hotels ----

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	hotels, err := h.Q.ListHotels(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hotels)
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	hotel, err := h.Q.GetHotel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hotel)
}

func (h *Handlers) hotelsByOwner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	hotels, err := h.Q.HotelsByOwner(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hotels)
}

type hotelRequest struct {
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Address      string               `json:"address"`
	Images       []string             `json:"images"`
	VirtualTours []domain.VirtualTour `json:"virtualTours"`
	Amenities    []string             `json:"amenities"`
	Rating       *decimal.Decimal     `json:"rating"`
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == 0 {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	var req hotelRequest
	if err := decode(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	hotel, err := h.Catalog.RegisterHotel(r.Context(), caller, domain.NewHotel{
		Name: req.Name, Description: req.Description, Address: req.Address,
		Images: req.Images, VirtualTours: req.VirtualTours, Amenities: req.Amenities,
		Rating: req.Rating,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hotel)
}

// ---- rooms ----

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	rooms, err := h.Q.RoomsByHotel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == 0 {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	hotelID, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	var req struct {
		Name          string          `json:"name"`
		Description   string          `json:"description"`
		PricePerNight decimal.Decimal `json:"pricePerNight"`
		Capacity      int             `json:"capacity"`
		Images        []string        `json:"images"`
		Available     *bool           `json:"available"`
	}
	if err := decode(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	room, err := h.Catalog.AddRoom(r.Context(), caller, hotelID, domain.NewRoom{
		Name: req.Name, Description: req.Description,
		PricePerNight: req.PricePerNight, Capacity: req.Capacity,
		Images: req.Images, Available: req.Available,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

// ---- bookings ----

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == 0 {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	var req struct {
		RoomID   int64     `json:"roomId"`
		CheckIn  time.Time `json:"checkIn"`
		CheckOut time.Time `json:"checkOut"`
	}
	if err := decode(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	booking, err := h.Bookings.CreateBooking(r.Context(), caller, req.RoomID, req.CheckIn, req.CheckOut)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *Handlers) confirmBooking(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == 0 {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	var req struct {
		PaymentIntentID string `json:"paymentIntentId"`
	}
	if err := decode(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	booking, err := h.Bookings.ConfirmBooking(r.Context(), caller, id, req.PaymentIntentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handlers) userBookings(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == 0 {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	bookings, err := h.Q.BookingsByUser(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *Handlers) hotelBookings(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == 0 {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	hotelID, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	hotel, err := h.Q.GetHotel(r.Context(), hotelID)
	if err != nil {
		writeError(w, err)
		return
	}
	if hotel.OwnerID != caller {
		writeProblem(w, http.StatusForbidden, "Forbidden", "only the hotel owner may list its bookings")
		return
	}
	bookings, err := h.Q.BookingsByHotel(r.Context(), hotelID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// ---- payments ----

func (h *Handlers) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == 0 {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	var req struct {
		Amount   int64  `json:"amount"` // cents
		Currency string `json:"currency"`
	}
	if err := decode(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if req.Amount <= 0 {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "amount must be positive")
		return
	}
	pi, err := h.Payments.CreatePaymentIntent(r.Context(), req.Amount, req.Currency)
	if err != nil {
		writeError(w, errors.Join(domain.ErrExternalService, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": pi.ClientSecret})
}

func (h *Handlers) subscribe(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == 0 {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	hotelID, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	checkout, err := h.Subs.Subscribe(r.Context(), hotelID, caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkout)
}

// ---- webhooks ----

func (h *Handlers) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	r.Body.Close()
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "unreadable payload")
		return
	}
	if err := h.Subs.ApplyWebhookEvent(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
