package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/foodbridge-dev/foodbridge/services/marketplace/config"
	"github.com/foodbridge-dev/foodbridge/services/marketplace/internal/database"
	"github.com/foodbridge-dev/foodbridge/services/marketplace/internal/provider"
)

const bcryptCost = 12

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	db       *database.DB
	payments *provider.Provider
	cfg      *config.Config
}

// New creates a new Handler.
func New(db *database.DB, payments *provider.Provider, cfg *config.Config) *Handler {
	return &Handler{db: db, payments: payments, cfg: cfg}
}

// Routes mounts every endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Get("/users/{id}", h.GetUser)

	r.Post("/donations", h.CreateDonation)
	r.Get("/donations", h.AvailableDonations)
	r.Get("/users/{id}/donations", h.UserDonations)
	r.Post("/donations/{id}/claim", h.ClaimDonation)
	r.Get("/users/{id}/claims", h.UserClaims)

	r.Get("/payments/config", h.PaymentConfig)
	r.Post("/payments/create-payment-intent", h.CreatePaymentIntent)
	r.Post("/payments/success", h.PaymentSuccess)
	r.Get("/users/{id}/payments", h.UserPayments)
	r.Post("/payments/webhook", h.PaymentWebhook)

	// Simulated hosted provider, used unless PAYMENT_WIDGET_URL points
	// at a real one.
	r.Post("/v1/payment_intents/{id}/confirm", h.ConfirmIntent)
}

// --- Users ---

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		jsonError(w, "name, email and password are required", http.StatusBadRequest)
		return
	}
	if req.Role != "donor" && req.Role != "receiver" {
		jsonError(w, "role must be donor or receiver", http.StatusBadRequest)
		return
	}

	if _, err := h.db.UserByEmail(req.Email); err == nil {
		jsonError(w, "Email already registered", http.StatusBadRequest)
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		log.Printf("register: lookup %s: %v", req.Email, err)
		jsonError(w, "registration failed", http.StatusInternalServerError)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		log.Printf("register: hash password: %v", err)
		jsonError(w, "registration failed", http.StatusInternalServerError)
		return
	}

	if _, err := h.db.CreateUser(req.Name, req.Email, string(hash), req.Role); err != nil {
		log.Printf("register: create user: %v", err)
		jsonError(w, "registration failed", http.StatusInternalServerError)
		return
	}

	jsonOK(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.db.UserByEmail(req.Email)
	if errors.Is(err, database.ErrNotFound) {
		jsonError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Printf("login: lookup %s: %v", req.Email, err)
		jsonError(w, "login failed", http.StatusInternalServerError)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		jsonError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	jsonOK(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user_id": user.ID,
		"role":    user.Role,
	})
}

// GetUser handles GET /users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	user, err := h.db.UserByID(id)
	if errors.Is(err, database.ErrNotFound) {
		jsonError(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("get user %d: %v", id, err)
		jsonError(w, "failed to load user", http.StatusInternalServerError)
		return
	}
	jsonOK(w, http.StatusOK, user)
}

// --- Donations ---

type createDonationReq struct {
	DonorID    int    `json:"donor_id"`
	ItemName   string `json:"item_name"`
	Quantity   string `json:"quantity"`
	ExpiryDate string `json:"expiry_date"`
	Location   string `json:"location"`
}

// CreateDonation handles POST /donations.
func (h *Handler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	var req createDonationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.DonorID == 0 || req.ItemName == "" {
		jsonError(w, "donor_id and item_name are required", http.StatusBadRequest)
		return
	}

	d := &database.Donation{
		DonorID:    req.DonorID,
		ItemName:   req.ItemName,
		Quantity:   req.Quantity,
		ExpiryDate: req.ExpiryDate,
		Location:   req.Location,
	}
	if err := h.db.CreateDonation(d); err != nil {
		log.Printf("create donation: %v", err)
		jsonError(w, "failed to create donation", http.StatusInternalServerError)
		return
	}
	jsonOK(w, http.StatusCreated, map[string]string{"message": "Donation created"})
}

// AvailableDonations handles GET /donations.
func (h *Handler) AvailableDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := h.db.AvailableDonations()
	if err != nil {
		log.Printf("list donations: %v", err)
		jsonError(w, "failed to list donations", http.StatusInternalServerError)
		return
	}
	if donations == nil {
		donations = []*database.Donation{}
	}
	jsonOK(w, http.StatusOK, donations)
}

// UserDonations handles GET /users/{id}/donations.
func (h *Handler) UserDonations(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	donations, err := h.db.DonationsByDonor(id)
	if err != nil {
		log.Printf("donations for user %d: %v", id, err)
		jsonError(w, "failed to list donations", http.StatusInternalServerError)
		return
	}
	if donations == nil {
		donations = []*database.Donation{}
	}
	jsonOK(w, http.StatusOK, donations)
}

type claimReq struct {
	ReceiverID int `json:"receiver_id"`
}

// ClaimDonation handles POST /donations/{id}/claim.
func (h *Handler) ClaimDonation(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var req claimReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReceiverID == 0 {
		jsonError(w, "receiver_id is required", http.StatusBadRequest)
		return
	}

	_, err := h.db.ClaimDonation(id, req.ReceiverID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		jsonError(w, "donation not found", http.StatusNotFound)
	case errors.Is(err, database.ErrAlreadyClaimed):
		jsonError(w, "Donation already claimed", http.StatusBadRequest)
	case err != nil:
		log.Printf("claim donation %d: %v", id, err)
		jsonError(w, "failed to claim donation", http.StatusInternalServerError)
	default:
		jsonOK(w, http.StatusOK, map[string]string{"message": "Donation claimed successfully"})
	}
}

// UserClaims handles GET /users/{id}/claims.
func (h *Handler) UserClaims(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	claims, err := h.db.ClaimsByReceiver(id)
	if err != nil {
		log.Printf("claims for user %d: %v", id, err)
		jsonError(w, "failed to list claims", http.StatusInternalServerError)
		return
	}
	if claims == nil {
		claims = []*database.Claim{}
	}
	jsonOK(w, http.StatusOK, claims)
}

// --- Payments ---

// PaymentConfig handles GET /payments/config.
func (h *Handler) PaymentConfig(w http.ResponseWriter, r *http.Request) {
	widgetURL := h.cfg.WidgetURL
	if widgetURL == "" {
		// Advertise the built-in simulator on this server.
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		widgetURL = scheme + "://" + r.Host
	}
	jsonOK(w, http.StatusOK, map[string]string{
		"publishable_key": h.cfg.PublishableKey,
		"widget_url":      widgetURL,
	})
}

type createIntentReq struct {
	Amount  float64 `json:"amount"`
	DonorID int     `json:"donor_id"`
}

// CreatePaymentIntent handles POST /payments/create-payment-intent.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 || math.IsNaN(req.Amount) || req.DonorID == 0 {
		jsonError(w, "amount and donor_id are required", http.StatusBadRequest)
		return
	}

	cents := int64(math.Round(req.Amount * 100))
	intent := h.payments.CreateIntent(cents)

	payment, err := h.db.CreatePayment(req.DonorID, req.Amount, intent.ID)
	if err != nil {
		log.Printf("create payment for intent %s: %v", intent.ID, err)
		jsonError(w, "failed to create payment", http.StatusInternalServerError)
		return
	}

	jsonOK(w, http.StatusOK, map[string]any{
		"client_secret": intent.ClientSecret,
		"payment_id":    payment.ID,
	})
}

type paymentSuccessReq struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// PaymentSuccess handles POST /payments/success.
func (h *Handler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	var req paymentSuccessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaymentIntentID == "" {
		jsonError(w, "payment_intent_id is required", http.StatusBadRequest)
		return
	}

	err := h.db.SetPaymentStatus(req.PaymentIntentID, "succeeded")
	if errors.Is(err, database.ErrNotFound) {
		jsonError(w, "Payment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("record success for %s: %v", req.PaymentIntentID, err)
		jsonError(w, "failed to record payment", http.StatusInternalServerError)
		return
	}
	jsonOK(w, http.StatusOK, map[string]string{"message": "Payment recorded successfully"})
}

// UserPayments handles GET /users/{id}/payments.
func (h *Handler) UserPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	payments, err := h.db.PaymentsByDonor(id)
	if err != nil {
		log.Printf("payments for user %d: %v", id, err)
		jsonError(w, "failed to list payments", http.StatusInternalServerError)
		return
	}
	if payments == nil {
		payments = []*database.Payment{}
	}
	jsonOK(w, http.StatusOK, payments)
}

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// PaymentWebhook handles POST /payments/webhook — provider-pushed intent
// transitions, the recovery path when the client's best-effort success
// acknowledgement never arrived.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var event webhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		jsonError(w, "invalid payload", http.StatusBadRequest)
		return
	}

	var status string
	switch event.Type {
	case "payment_intent.succeeded":
		status = "succeeded"
	case "payment_intent.payment_failed":
		status = "failed"
	default:
		jsonOK(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if err := h.db.SetPaymentStatus(event.Data.Object.ID, status); err != nil &&
		!errors.Is(err, database.ErrNotFound) {
		log.Printf("webhook %s for %s: %v", event.Type, event.Data.Object.ID, err)
		jsonError(w, "failed to process event", http.StatusInternalServerError)
		return
	}
	jsonOK(w, http.StatusOK, map[string]string{"status": "success"})
}

// --- Simulated provider ---

type confirmReq struct {
	ClientSecret string `json:"client_secret"`
	Card         struct {
		Number string `json:"number"`
		Expiry string `json:"expiry"`
		CVC    string `json:"cvc"`
	} `json:"card"`
}

// ConfirmIntent handles POST /v1/payment_intents/{id}/confirm.
func (h *Handler) ConfirmIntent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req confirmReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	intent, err := h.payments.Confirm(id, req.ClientSecret, req.Card.Number)
	if err != nil {
		var decline *provider.DeclineError
		if errors.As(err, &decline) {
			jsonOK(w, http.StatusPaymentRequired, map[string]any{"error": decline})
			return
		}
		log.Printf("confirm intent %s: %v", id, err)
		jsonError(w, "confirmation failed", http.StatusInternalServerError)
		return
	}
	jsonOK(w, http.StatusOK, intent)
}

// --- Helpers ---

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		jsonError(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

func jsonOK(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data) //nolint:errcheck
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	jsonOK(w, status, map[string]string{"error": msg})
}
