package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
}

// Domain errors callers branch on.
var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyClaimed = errors.New("donation already claimed")
)

// User is an account holder; Role is "donor" or "receiver".
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Donation is a listed surplus item.
type Donation struct {
	ID         int       `json:"id"`
	DonorID    int       `json:"donor_id"`
	ItemName   string    `json:"item_name"`
	Quantity   string    `json:"quantity,omitempty"`
	ExpiryDate string    `json:"expiry_date,omitempty"` // YYYY-MM-DD
	Location   string    `json:"location,omitempty"`
	Status     string    `json:"status"` // available | claimed
	CreatedAt  time.Time `json:"created_at"`
}

// Claim reserves a donation for a receiver.
type Claim struct {
	ID         int       `json:"id"`
	DonationID int       `json:"donation_id"`
	ReceiverID int       `json:"receiver_id"`
	ClaimTime  time.Time `json:"claim_time"`
}

// Payment is a monetary donation tracked against a provider intent.
type Payment struct {
	ID        int       `json:"id"`
	DonorID   int       `json:"donor_id"`
	Amount    float64   `json:"amount"` // dollars
	IntentID  string    `json:"-"`
	Status    string    `json:"status"` // pending | succeeded | failed
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS donations (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	donor_id    INTEGER NOT NULL REFERENCES users(id),
	item_name   TEXT NOT NULL,
	quantity    TEXT NOT NULL DEFAULT '',
	expiry_date TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'available',
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS claims (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	donation_id INTEGER NOT NULL REFERENCES donations(id),
	receiver_id INTEGER NOT NULL REFERENCES users(id),
	claim_time  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS payments (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	donor_id   INTEGER NOT NULL REFERENCES users(id),
	amount     REAL NOT NULL,
	intent_id  TEXT NOT NULL UNIQUE,
	status     TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_donations_donor  ON donations(donor_id);
CREATE INDEX IF NOT EXISTS idx_donations_status ON donations(status);
CREATE INDEX IF NOT EXISTS idx_claims_receiver  ON claims(receiver_id);
CREATE INDEX IF NOT EXISTS idx_payments_donor   ON payments(donor_id);
CREATE INDEX IF NOT EXISTS idx_payments_intent  ON payments(intent_id);
`

// Open creates or opens the SQLite database at path and applies the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close shuts down the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// --- User operations ---

// CreateUser inserts a new user and returns it with its assigned id.
func (db *DB) CreateUser(name, email, passwordHash, role string) (*User, error) {
	now := time.Now().UTC()
	res, err := db.conn.Exec(
		`INSERT INTO users (name, email, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		name, email, passwordHash, role, now,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &User{ID: int(id), Name: name, Email: email, PasswordHash: passwordHash, Role: role, CreatedAt: now}, nil
}

// UserByEmail looks up a user; ErrNotFound when absent.
func (db *DB) UserByEmail(email string) (*User, error) {
	return db.scanUser(db.conn.QueryRow(
		`SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = ?`, email))
}

// UserByID looks up a user; ErrNotFound when absent.
func (db *DB) UserByID(id int) (*User, error) {
	return db.scanUser(db.conn.QueryRow(
		`SELECT id, name, email, password_hash, role, created_at FROM users WHERE id = ?`, id))
}

func (db *DB) scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// --- Donation operations ---

// CreateDonation inserts a new available donation.
func (db *DB) CreateDonation(d *Donation) error {
	d.Status = "available"
	d.CreatedAt = time.Now().UTC()
	res, err := db.conn.Exec(
		`INSERT INTO donations (donor_id, item_name, quantity, expiry_date, location, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.DonorID, d.ItemName, d.Quantity, d.ExpiryDate, d.Location, d.Status, d.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = int(id)
	return nil
}

// AvailableDonations returns all unclaimed donations, newest first.
func (db *DB) AvailableDonations() ([]*Donation, error) {
	return db.queryDonations(
		`SELECT id, donor_id, item_name, quantity, expiry_date, location, status, created_at
		 FROM donations WHERE status = 'available' ORDER BY created_at DESC`)
}

// DonationsByDonor returns one donor's listings, newest first.
func (db *DB) DonationsByDonor(donorID int) ([]*Donation, error) {
	return db.queryDonations(
		`SELECT id, donor_id, item_name, quantity, expiry_date, location, status, created_at
		 FROM donations WHERE donor_id = ? ORDER BY created_at DESC`, donorID)
}

func (db *DB) queryDonations(query string, args ...any) ([]*Donation, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donations []*Donation
	for rows.Next() {
		d := &Donation{}
		if err := rows.Scan(&d.ID, &d.DonorID, &d.ItemName, &d.Quantity, &d.ExpiryDate,
			&d.Location, &d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

// ClaimDonation reserves a donation for a receiver. The status check and
// flip happen in one transaction so two receivers cannot both win.
func (db *DB) ClaimDonation(donationID, receiverID int) (*Claim, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	var status string
	err = tx.QueryRow(`SELECT status FROM donations WHERE id = ?`, donationID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if status == "claimed" {
		return nil, ErrAlreadyClaimed
	}

	if _, err := tx.Exec(`UPDATE donations SET status = 'claimed' WHERE id = ?`, donationID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := tx.Exec(
		`INSERT INTO claims (donation_id, receiver_id, claim_time) VALUES (?, ?, ?)`,
		donationID, receiverID, now,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &Claim{ID: int(id), DonationID: donationID, ReceiverID: receiverID, ClaimTime: now}, nil
}

// ClaimsByReceiver returns one receiver's claims, newest first.
func (db *DB) ClaimsByReceiver(receiverID int) ([]*Claim, error) {
	rows, err := db.conn.Query(
		`SELECT id, donation_id, receiver_id, claim_time FROM claims
		 WHERE receiver_id = ? ORDER BY claim_time DESC`, receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []*Claim
	for rows.Next() {
		c := &Claim{}
		if err := rows.Scan(&c.ID, &c.DonationID, &c.ReceiverID, &c.ClaimTime); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// --- Payment operations ---

// CreatePayment records a pending payment for a provider intent.
func (db *DB) CreatePayment(donorID int, amount float64, intentID string) (*Payment, error) {
	now := time.Now().UTC()
	res, err := db.conn.Exec(
		`INSERT INTO payments (donor_id, amount, intent_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, 'pending', ?, ?)`,
		donorID, amount, intentID, now, now,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Payment{ID: int(id), DonorID: donorID, Amount: amount, IntentID: intentID,
		Status: "pending", CreatedAt: now, UpdatedAt: now}, nil
}

// SetPaymentStatus updates the payment tracked for intentID; ErrNotFound
// when no payment references that intent.
func (db *DB) SetPaymentStatus(intentID, status string) error {
	res, err := db.conn.Exec(
		`UPDATE payments SET status = ?, updated_at = ? WHERE intent_id = ?`,
		status, time.Now().UTC(), intentID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PaymentsByDonor returns one donor's payments, newest first.
func (db *DB) PaymentsByDonor(donorID int) ([]*Payment, error) {
	rows, err := db.conn.Query(
		`SELECT id, donor_id, amount, intent_id, status, created_at, updated_at
		 FROM payments WHERE donor_id = ? ORDER BY created_at DESC`, donorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p := &Payment{}
		if err := rows.Scan(&p.ID, &p.DonorID, &p.Amount, &p.IntentID, &p.Status,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
