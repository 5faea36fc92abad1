// Package provider simulates the hosted card-payment provider so the
// whole system runs locally: intent creation for the backend, and the
// confirm endpoint the client widget calls with a publishable key.
package provider

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Intent statuses.
const (
	StatusPending        = "pending"
	StatusSucceeded      = "succeeded"
	StatusRequiresAction = "requires_action"
)

// Test card numbers with fixed behavior, mirroring the usual provider
// test decks.
const (
	CardDeclined    = "4000000000000002"
	CardNeedsAction = "4000002500003155"
)

// DeclineError is a confirmation rejection with a client-facing message.
type DeclineError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DeclineError) Error() string {
	return fmt.Sprintf("provider: %s: %s", e.Code, e.Message)
}

// Intent is a tracked in-progress charge.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"-"`
	AmountCents  int64  `json:"amount"`
	Status       string `json:"status"`
}

// Provider is the in-memory intent registry.
type Provider struct {
	mu      sync.Mutex
	intents map[string]*Intent
}

// New returns an empty Provider.
func New() *Provider {
	return &Provider{intents: make(map[string]*Intent)}
}

// CreateIntent registers a new pending intent for amountCents.
func (p *Provider) CreateIntent(amountCents int64) *Intent {
	id := "pi_" + hex12()
	intent := &Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + hex12(),
		AmountCents:  amountCents,
		Status:       StatusPending,
	}
	p.mu.Lock()
	p.intents[id] = intent
	p.mu.Unlock()
	return intent
}

// Confirm runs the client-side confirmation for an intent. The client
// must present the matching client secret; the card number selects the
// outcome (test deck above, anything else succeeds).
func (p *Provider) Confirm(id, clientSecret, cardNumber string) (*Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	intent, ok := p.intents[id]
	if !ok || intent.ClientSecret != clientSecret {
		return nil, &DeclineError{Code: "intent_not_found", Message: "No such payment intent."}
	}
	if intent.Status == StatusSucceeded {
		// Confirming twice must not double-charge.
		return intent, nil
	}

	switch sanitize(cardNumber) {
	case CardDeclined:
		intent.Status = StatusPending
		return nil, &DeclineError{Code: "card_declined", Message: "Your card was declined."}
	case CardNeedsAction:
		intent.Status = StatusRequiresAction
		return intent, nil
	case "":
		return nil, &DeclineError{Code: "invalid_number", Message: "Your card number is invalid."}
	default:
		intent.Status = StatusSucceeded
		return intent, nil
	}
}

func sanitize(cardNumber string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(cardNumber)
}

func hex12() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
