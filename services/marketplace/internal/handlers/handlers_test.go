package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/foodbridge-dev/foodbridge/services/marketplace/config"
	"github.com/foodbridge-dev/foodbridge/services/marketplace/internal/database"
	"github.com/foodbridge-dev/foodbridge/services/marketplace/internal/provider"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{PublishableKey: "pk_test_simulated"}
	h := New(db, provider.New(), cfg)
	r := chi.NewRouter()
	h.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func get(t *testing.T, srv *httptest.Server, path string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func register(t *testing.T, srv *httptest.Server, name, email, role string) int {
	t.Helper()
	resp, _ := post(t, srv, "/register", map[string]string{
		"name": name, "email": email, "password": "hunter22", "role": role,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d", email, resp.StatusCode)
	}
	resp, body := post(t, srv, "/login", map[string]string{
		"email": email, "password": "hunter22",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
	return int(body["user_id"].(float64))
}

func TestRegisterAndLogin(t *testing.T) {
	srv := testServer(t)

	resp, body := post(t, srv, "/register", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "hunter22", "role": "donor",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if body["message"] != "User registered successfully" {
		t.Errorf("unexpected message %q", body["message"])
	}

	resp, body = post(t, srv, "/register", map[string]string{
		"name": "Ada2", "email": "ada@example.com", "password": "other", "role": "donor",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate register: expected 400, got %d", resp.StatusCode)
	}
	if body["error"] != "Email already registered" {
		t.Errorf("unexpected error %q", body["error"])
	}

	resp, body = post(t, srv, "/login", map[string]string{
		"email": "ada@example.com", "password": "hunter22",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	if body["role"] != "donor" {
		t.Errorf("expected donor role, got %q", body["role"])
	}
	if body["user_id"].(float64) == 0 {
		t.Error("expected a user_id")
	}

	resp, body = post(t, srv, "/login", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", resp.StatusCode)
	}
	if body["error"] != "Invalid email or password" {
		t.Errorf("unexpected error %q", body["error"])
	}
}

func TestGetUserOmitsPasswordHash(t *testing.T) {
	srv := testServer(t)
	id := register(t, srv, "Ada", "ada@example.com", "donor")

	var user map[string]any
	resp := get(t, srv, fmt.Sprintf("/users/%d", id), &user)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if user["name"] != "Ada" || user["email"] != "ada@example.com" {
		t.Errorf("unexpected profile %v", user)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Error("password hash leaked in profile response")
	}
}

func TestDonationLifecycle(t *testing.T) {
	srv := testServer(t)
	donorID := register(t, srv, "Ada", "ada@example.com", "donor")
	receiverID := register(t, srv, "Grace", "grace@example.com", "receiver")

	resp, body := post(t, srv, "/donations", map[string]any{
		"donor_id": donorID, "item_name": "Bread", "quantity": "12 loaves",
		"expiry_date": "2026-09-01", "location": "Midtown",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create donation: expected 201, got %d", resp.StatusCode)
	}
	if body["message"] != "Donation created" {
		t.Errorf("unexpected message %q", body["message"])
	}

	var available []map[string]any
	get(t, srv, "/donations", &available)
	if len(available) != 1 {
		t.Fatalf("expected 1 available donation, got %d", len(available))
	}
	donationID := int(available[0]["id"].(float64))

	resp, body = post(t, srv, fmt.Sprintf("/donations/%d/claim", donationID),
		map[string]int{"receiver_id": receiverID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("claim: expected 200, got %d", resp.StatusCode)
	}
	if body["message"] != "Donation claimed successfully" {
		t.Errorf("unexpected message %q", body["message"])
	}

	resp, body = post(t, srv, fmt.Sprintf("/donations/%d/claim", donationID),
		map[string]int{"receiver_id": receiverID})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("double claim: expected 400, got %d", resp.StatusCode)
	}
	if body["error"] != "Donation already claimed" {
		t.Errorf("unexpected error %q", body["error"])
	}

	get(t, srv, "/donations", &available)
	if len(available) != 0 {
		t.Errorf("claimed donation still listed as available")
	}

	var mine []map[string]any
	get(t, srv, fmt.Sprintf("/users/%d/donations", donorID), &mine)
	if len(mine) != 1 || mine[0]["status"] != "claimed" {
		t.Errorf("donor list should show the claimed donation, got %v", mine)
	}

	var claims []map[string]any
	get(t, srv, fmt.Sprintf("/users/%d/claims", receiverID), &claims)
	if len(claims) != 1 {
		t.Fatalf("expected 1 claim, got %d", len(claims))
	}
}

func TestPaymentFlow(t *testing.T) {
	srv := testServer(t)
	donorID := register(t, srv, "Ada", "ada@example.com", "donor")

	var cfg map[string]string
	get(t, srv, "/payments/config", &cfg)
	if cfg["publishable_key"] != "pk_test_simulated" {
		t.Errorf("unexpected publishable key %q", cfg["publishable_key"])
	}
	if cfg["widget_url"] != srv.URL {
		t.Errorf("widget_url = %q, want %q", cfg["widget_url"], srv.URL)
	}

	resp, body := post(t, srv, "/payments/create-payment-intent", map[string]any{
		"amount": 25.50, "donor_id": donorID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create intent: expected 200, got %d", resp.StatusCode)
	}
	secret, _ := body["client_secret"].(string)
	if secret == "" {
		t.Fatal("expected a client_secret")
	}
	intentID, _, _ := splitSecret(secret)

	resp, body = post(t, srv, "/v1/payment_intents/"+intentID+"/confirm", map[string]any{
		"client_secret": secret,
		"card":          map[string]string{"number": "4242 4242 4242 4242", "expiry": "12/28", "cvc": "123"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d (%v)", resp.StatusCode, body)
	}
	if body["status"] != "succeeded" {
		t.Errorf("confirm status = %q", body["status"])
	}

	resp, body = post(t, srv, "/payments/success", map[string]string{
		"payment_intent_id": intentID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("record success: expected 200, got %d", resp.StatusCode)
	}
	if body["message"] != "Payment recorded successfully" {
		t.Errorf("unexpected message %q", body["message"])
	}

	var payments []map[string]any
	get(t, srv, fmt.Sprintf("/users/%d/payments", donorID), &payments)
	if len(payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(payments))
	}
	if payments[0]["status"] != "succeeded" || payments[0]["amount"].(float64) != 25.5 {
		t.Errorf("unexpected payment record %v", payments[0])
	}

	resp, body = post(t, srv, "/payments/success", map[string]string{
		"payment_intent_id": "pi_missing",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown intent: expected 404, got %d", resp.StatusCode)
	}
	if body["error"] != "Payment not found" {
		t.Errorf("unexpected error %q", body["error"])
	}
}

func TestConfirmDeclined(t *testing.T) {
	srv := testServer(t)
	donorID := register(t, srv, "Ada", "ada@example.com", "donor")

	_, body := post(t, srv, "/payments/create-payment-intent", map[string]any{
		"amount": 10.0, "donor_id": donorID,
	})
	secret := body["client_secret"].(string)
	intentID, _, _ := splitSecret(secret)

	resp, body := post(t, srv, "/v1/payment_intents/"+intentID+"/confirm", map[string]any{
		"client_secret": secret,
		"card":          map[string]string{"number": provider.CardDeclined},
	})
	if resp.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", resp.StatusCode)
	}
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected structured error, got %v", body)
	}
	if errObj["message"] != "Your card was declined." {
		t.Errorf("unexpected decline message %q", errObj["message"])
	}
}

func TestWebhook(t *testing.T) {
	srv := testServer(t)
	donorID := register(t, srv, "Ada", "ada@example.com", "donor")

	_, body := post(t, srv, "/payments/create-payment-intent", map[string]any{
		"amount": 5.0, "donor_id": donorID,
	})
	intentID, _, _ := splitSecret(body["client_secret"].(string))

	event := map[string]any{
		"type": "payment_intent.succeeded",
		"data": map[string]any{"object": map[string]string{"id": intentID}},
	}
	resp, _ := post(t, srv, "/payments/webhook", event)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("webhook: expected 200, got %d", resp.StatusCode)
	}

	var payments []map[string]any
	get(t, srv, fmt.Sprintf("/users/%d/payments", donorID), &payments)
	if payments[0]["status"] != "succeeded" {
		t.Errorf("webhook did not update payment, got %v", payments[0])
	}

	resp, _ = post(t, srv, "/payments/webhook", map[string]any{"type": "charge.refunded"})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("unrecognized event: expected 200, got %d", resp.StatusCode)
	}
}

func splitSecret(secret string) (id, rest string, ok bool) {
	return strings.Cut(secret, "_secret_")
}
