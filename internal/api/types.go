package api

import "time"

// Donation statuses as stored by the backend.
const (
	DonationAvailable = "available"
	DonationClaimed   = "claimed"
)

// Donation is a read-only projection of a server-owned donation record.
// Listing endpoints omit fields they do not carry (e.g. the donor feed
// omits quantity/location), so zero values are expected.
type Donation struct {
	ID         int       `json:"id"`
	DonorID    int       `json:"donor_id,omitempty"`
	ItemName   string    `json:"item_name"`
	Quantity   string    `json:"quantity,omitempty"`
	ExpiryDate string    `json:"expiry_date,omitempty"` // YYYY-MM-DD, may be empty
	Location   string    `json:"location,omitempty"`
	Status     string    `json:"status,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
}

// Claim is a receiver's reservation of a donation.
type Claim struct {
	ID         int       `json:"id"`
	DonationID int       `json:"donation_id"`
	ClaimTime  time.Time `json:"claim_time"`
}

// Payment is a server-owned monetary donation record.
type Payment struct {
	ID        int       `json:"id"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// UserProfile is the public profile served by GET /users/{id}.
type UserProfile struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResult carries the identity returned by a successful login.
type LoginResult struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
}

// PaymentConfig is the publishable configuration for the hosted payment
// widget. WidgetURL overrides the hosted default when the backend runs a
// local provider simulator.
type PaymentConfig struct {
	PublishableKey string `json:"publishable_key"`
	WidgetURL      string `json:"widget_url,omitempty"`
}

// PaymentIntent is the server-created intent handed back for client-side
// confirmation.
type PaymentIntent struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    int    `json:"payment_id"`
}

// NewDonation is the payload for creating a donation listing.
type NewDonation struct {
	DonorID    int    `json:"donor_id"`
	ItemName   string `json:"item_name"`
	Quantity   string `json:"quantity,omitempty"`
	ExpiryDate string `json:"expiry_date,omitempty"`
	Location   string `json:"location,omitempty"`
}

// Registration is the payload for creating an account.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}
