// Package api is the typed wrapper over the marketplace backend HTTP
// endpoints. One method per backend capability; no retries here — retry
// policy belongs to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client is the interface the rest of the application consumes.
// The real implementation talks to services/marketplace over HTTP.
// Tests inject a mock.
type Client interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	User(ctx context.Context, id int) (UserProfile, error)
	Register(ctx context.Context, reg Registration) error

	CreateDonation(ctx context.Context, d NewDonation) error
	AvailableDonations(ctx context.Context) ([]Donation, error)
	DonationsByUser(ctx context.Context, userID int) ([]Donation, error)
	ClaimDonation(ctx context.Context, donationID, receiverID int) error
	ClaimsByUser(ctx context.Context, userID int) ([]Claim, error)

	PaymentConfig(ctx context.Context) (PaymentConfig, error)
	CreatePaymentIntent(ctx context.Context, amount float64, donorID int) (PaymentIntent, error)
	NotifyPaymentSuccess(ctx context.Context, paymentIntentID string) error
	PaymentsByUser(ctx context.Context, userID int) ([]Payment, error)
}

type httpClient struct {
	baseURL string
	hc      *http.Client
}

// New returns a Client bound to baseURL.
func New(baseURL string) Client {
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
}

// do issues one JSON request. A nil in skips the request body; a nil out
// discards the response body. Non-2xx statuses map to *ApiError with the
// server's {"error": ...} message when present; transport failures map to
// *NetworkError.
func (c *httpClient) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s %s: encode request: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		msg := e.Error
		if msg == "" {
			msg = fmt.Sprintf("request failed (%s)", resp.Status)
		}
		return &ApiError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *httpClient) Login(ctx context.Context, email, password string) (LoginResult, error) {
	in := map[string]string{"email": email, "password": password}
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/login", in, &out); err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

func (c *httpClient) User(ctx context.Context, id int) (UserProfile, error) {
	var out UserProfile
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, &out); err != nil {
		return UserProfile{}, err
	}
	return out, nil
}

func (c *httpClient) Register(ctx context.Context, reg Registration) error {
	return c.do(ctx, http.MethodPost, "/register", reg, nil)
}

func (c *httpClient) CreateDonation(ctx context.Context, d NewDonation) error {
	return c.do(ctx, http.MethodPost, "/donations", d, nil)
}

func (c *httpClient) AvailableDonations(ctx context.Context) ([]Donation, error) {
	var out []Donation
	if err := c.do(ctx, http.MethodGet, "/donations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) DonationsByUser(ctx context.Context, userID int) ([]Donation, error) {
	var out []Donation
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/donations", userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) ClaimDonation(ctx context.Context, donationID, receiverID int) error {
	in := map[string]int{"receiver_id": receiverID}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/donations/%d/claim", donationID), in, nil)
}

func (c *httpClient) ClaimsByUser(ctx context.Context, userID int) ([]Claim, error) {
	var out []Claim
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/claims", userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) PaymentConfig(ctx context.Context) (PaymentConfig, error) {
	var out PaymentConfig
	if err := c.do(ctx, http.MethodGet, "/payments/config", nil, &out); err != nil {
		return PaymentConfig{}, err
	}
	return out, nil
}

func (c *httpClient) CreatePaymentIntent(ctx context.Context, amount float64, donorID int) (PaymentIntent, error) {
	in := map[string]any{"amount": amount, "donor_id": donorID}
	var out PaymentIntent
	if err := c.do(ctx, http.MethodPost, "/payments/create-payment-intent", in, &out); err != nil {
		return PaymentIntent{}, err
	}
	return out, nil
}

func (c *httpClient) NotifyPaymentSuccess(ctx context.Context, paymentIntentID string) error {
	in := map[string]string{"payment_intent_id": paymentIntentID}
	return c.do(ctx, http.MethodPost, "/payments/success", in, nil)
}

func (c *httpClient) PaymentsByUser(ctx context.Context, userID int) ([]Payment, error) {
	var out []Payment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/payments", userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
