package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foodbridge-dev/foodbridge/internal/api"
)

func TestInitialize_RequiresPublishableKey(t *testing.T) {
	if _, err := Initialize(api.PaymentConfig{}); err == nil {
		t.Error("expected error for missing publishable key")
	}
	w, err := Initialize(api.PaymentConfig{PublishableKey: "pk_test_1"})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if w.baseURL != hostedBaseURL {
		t.Errorf("expected hosted default base, got %q", w.baseURL)
	}
}

func TestConfirmCardPayment_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents/pi_1/confirm" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer pk_test_1" {
			t.Errorf("unexpected auth header %q", got)
		}
		json.NewEncoder(w).Encode(ConfirmResult{IntentID: "pi_1", Status: StatusSucceeded}) //nolint:errcheck
	}))
	defer srv.Close()

	w, err := Initialize(api.PaymentConfig{PublishableKey: "pk_test_1", WidgetURL: srv.URL})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	res, err := w.ConfirmCardPayment(context.Background(), "pi_1_secret_abc",
		CardDetails{Number: "4242424242424242", Expiry: "12/30", CVC: "123"},
		BillingDetails{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if res.IntentID != "pi_1" || res.Status != StatusSucceeded {
		t.Errorf("confirm returned %+v", res)
	}
}

func TestConfirmCardPayment_DeclineIsConfirmError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"error": map[string]string{"code": "card_declined", "message": "Your card was declined."},
		})
	}))
	defer srv.Close()

	w, _ := Initialize(api.PaymentConfig{PublishableKey: "pk_test_1", WidgetURL: srv.URL})
	_, err := w.ConfirmCardPayment(context.Background(), "pi_1_secret_abc", CardDetails{}, BillingDetails{})

	var confirmErr *ConfirmError
	if !errors.As(err, &confirmErr) {
		t.Fatalf("expected *ConfirmError, got %v", err)
	}
	if confirmErr.Message != "Your card was declined." {
		t.Errorf("expected provider message verbatim, got %q", confirmErr.Message)
	}
}

func TestConfirmCardPayment_MalformedSecret(t *testing.T) {
	w, _ := Initialize(api.PaymentConfig{PublishableKey: "pk_test_1"})
	_, err := w.ConfirmCardPayment(context.Background(), "garbage", CardDetails{}, BillingDetails{})
	var confirmErr *ConfirmError
	if !errors.As(err, &confirmErr) {
		t.Fatalf("expected *ConfirmError, got %v", err)
	}
}

func TestCardElement_IdempotentMountUnmount(t *testing.T) {
	w, _ := Initialize(api.PaymentConfig{PublishableKey: "pk_test_1"})
	el := w.CreateCardElement()

	// Unmount/Clear before any mount must be safe no-ops.
	el.Unmount()
	el.Clear()
	if el.Mounted() {
		t.Error("fresh element must not be mounted")
	}

	el.Mount()
	el.Mount()
	if !el.Mounted() {
		t.Error("expected exactly one mounted instance after double mount")
	}

	el.SetCard(CardDetails{Number: "4242424242424242"})
	el.Unmount()
	el.Unmount()
	if el.Mounted() {
		t.Error("expected unmounted after double unmount")
	}

	el.Clear()
	if el.Card() != (CardDetails{}) {
		t.Error("expected cleared card input")
	}

	// Nil receivers appear when the modal was never opened.
	var nilEl *CardElement
	nilEl.Mount()
	nilEl.Unmount()
	nilEl.Clear()
	if nilEl.Mounted() {
		t.Error("nil element must report unmounted")
	}
}
