// Package payment orchestrates monetary donations: a thin adapter over
// the hosted card-payment provider and the state machine that sequences
// intent creation, confirmation, and the success acknowledgement. It
// holds no secrets and performs no cryptography — the provider and the
// backend do the financial work.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/foodbridge-dev/foodbridge/internal/api"
)

// hostedBaseURL is the production provider endpoint, used when the
// backend's publishable config does not point at a local simulator.
const hostedBaseURL = "https://pay.foodbridge.dev"

// Confirmation statuses the provider reports.
const (
	StatusSucceeded      = "succeeded"
	StatusRequiresAction = "requires_action"
)

// ConfirmError is a provider-level rejection (declined card, expired
// intent). Message is the provider's human-readable text and is surfaced
// to the user verbatim.
type ConfirmError struct {
	Code    string
	Message string
}

func (e *ConfirmError) Error() string {
	return fmt.Sprintf("widget: %s", e.Message)
}

// CardDetails is the card input collected by the card element.
type CardDetails struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"` // MM/YY
	CVC    string `json:"cvc"`
}

// BillingDetails identify the payer, derived from the Session.
type BillingDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ConfirmResult is the provider's answer to a confirmation attempt.
type ConfirmResult struct {
	IntentID string `json:"id"`
	Status   string `json:"status"`
}

// Confirmer is the part of the widget the payment flow depends on.
// Tests inject a mock.
type Confirmer interface {
	ConfirmCardPayment(ctx context.Context, clientSecret string, card CardDetails, billing BillingDetails) (ConfirmResult, error)
}

// Widget wraps the hosted card-payment provider.
type Widget struct {
	baseURL        string
	publishableKey string
	hc             *http.Client
}

// Initialize builds a Widget from the backend's publishable config.
// The caller fetches cfg from GET /payments/config first.
func Initialize(cfg api.PaymentConfig) (*Widget, error) {
	if cfg.PublishableKey == "" {
		return nil, fmt.Errorf("widget: missing publishable key")
	}
	base := cfg.WidgetURL
	if base == "" {
		base = hostedBaseURL
	}
	return &Widget{
		baseURL:        strings.TrimRight(base, "/"),
		publishableKey: cfg.PublishableKey,
		hc:             &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// CreateCardElement returns a fresh, unmounted card input element.
func (w *Widget) CreateCardElement() *CardElement {
	return &CardElement{}
}

// ConfirmCardPayment runs the client-side confirmation for the intent
// identified by clientSecret. The call can take as long as the provider
// needs (its own network round trip, possibly user interaction); callers
// bound it with ctx.
func (w *Widget) ConfirmCardPayment(ctx context.Context, clientSecret string, card CardDetails, billing BillingDetails) (ConfirmResult, error) {
	intentID, err := intentIDFromSecret(clientSecret)
	if err != nil {
		return ConfirmResult{}, err
	}

	body, err := json.Marshal(struct {
		ClientSecret   string         `json:"client_secret"`
		Card           CardDetails    `json:"card"`
		BillingDetails BillingDetails `json:"billing_details"`
	}{clientSecret, card, billing})
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("widget: encode confirm: %w", err)
	}

	url := fmt.Sprintf("%s/v1/payment_intents/%s/confirm", w.baseURL, intentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("widget: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.publishableKey)

	resp, err := w.hc.Do(req)
	if err != nil {
		return ConfirmResult{}, &ConfirmError{Code: "network", Message: "Payment confirmation failed. Please try again."}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		msg := e.Error.Message
		if msg == "" {
			msg = "Payment confirmation failed. Please try again."
		}
		return ConfirmResult{}, &ConfirmError{Code: e.Error.Code, Message: msg}
	}

	var result ConfirmResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ConfirmResult{}, fmt.Errorf("widget: decode confirm: %w", err)
	}
	return result, nil
}

// intentIDFromSecret derives the intent id from its client secret
// (pi_<id>_secret_<nonce> → pi_<id>).
func intentIDFromSecret(clientSecret string) (string, error) {
	id, _, found := strings.Cut(clientSecret, "_secret_")
	if !found || id == "" {
		return "", &ConfirmError{Code: "invalid_secret", Message: "Payment confirmation failed. Please try again."}
	}
	return id, nil
}

// CardElement is the card input surface. In this client the element is
// the card form state itself; mount/unmount track whether the payment
// modal owns it. All operations are idempotent and safe on an element
// that was never mounted.
type CardElement struct {
	card    CardDetails
	mounted bool
}

// Mount attaches the element. Mounting twice leaves one mounted instance.
func (e *CardElement) Mount() {
	if e == nil {
		return
	}
	e.mounted = true
}

// Unmount detaches the element. Safe when never mounted.
func (e *CardElement) Unmount() {
	if e == nil {
		return
	}
	e.mounted = false
}

// Clear wipes the card input. Safe when never mounted.
func (e *CardElement) Clear() {
	if e == nil {
		return
	}
	e.card = CardDetails{}
}

// Mounted reports whether the element is currently attached.
func (e *CardElement) Mounted() bool {
	return e != nil && e.mounted
}

// SetCard replaces the card input (typed by the user while mounted).
func (e *CardElement) SetCard(card CardDetails) {
	if e == nil {
		return
	}
	e.card = card
}

// Card returns the current card input.
func (e *CardElement) Card() CardDetails {
	if e == nil {
		return CardDetails{}
	}
	return e.card
}
