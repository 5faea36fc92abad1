package database

import (
	"errors"
	"os"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := t.TempDir() + "/test.db"
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(path)
	})
	return db
}

func TestUserCRUD(t *testing.T) {
	db := testDB(t)

	u, err := db.CreateUser("Ada", "ada@example.com", "hash", "donor")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected assigned id")
	}

	got, err := db.UserByEmail("ada@example.com")
	if err != nil {
		t.Fatalf("user by email: %v", err)
	}
	if got.ID != u.ID || got.Role != "donor" {
		t.Errorf("user by email returned %+v", got)
	}

	got, err = db.UserByID(u.ID)
	if err != nil {
		t.Fatalf("user by id: %v", err)
	}
	if got.Name != "Ada" {
		t.Errorf("user by id returned %+v", got)
	}

	if _, err := db.UserByEmail("nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Duplicate email violates the UNIQUE constraint.
	if _, err := db.CreateUser("Other", "ada@example.com", "hash", "receiver"); err == nil {
		t.Error("expected duplicate email to fail")
	}
}

func TestDonationListsAndClaim(t *testing.T) {
	db := testDB(t)
	donor, _ := db.CreateUser("Ada", "ada@example.com", "h", "donor")
	receiver, _ := db.CreateUser("Rex", "rex@example.com", "h", "receiver")

	d := &Donation{DonorID: donor.ID, ItemName: "Rice", Quantity: "5kg", Location: "Depot 4"}
	if err := db.CreateDonation(d); err != nil {
		t.Fatalf("create donation: %v", err)
	}
	if d.Status != "available" {
		t.Errorf("new donation status %q", d.Status)
	}

	avail, err := db.AvailableDonations()
	if err != nil {
		t.Fatalf("available donations: %v", err)
	}
	if len(avail) != 1 || avail[0].ItemName != "Rice" {
		t.Fatalf("available donations returned %+v", avail)
	}

	mine, err := db.DonationsByDonor(donor.ID)
	if err != nil {
		t.Fatalf("donations by donor: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("expected 1 donor donation, got %d", len(mine))
	}

	claim, err := db.ClaimDonation(d.ID, receiver.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claim.DonationID != d.ID || claim.ReceiverID != receiver.ID {
		t.Errorf("claim returned %+v", claim)
	}

	// A claimed donation cannot be claimed again and leaves the available feed.
	if _, err := db.ClaimDonation(d.ID, receiver.ID); !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("expected ErrAlreadyClaimed, got %v", err)
	}
	avail, _ = db.AvailableDonations()
	if len(avail) != 0 {
		t.Errorf("claimed donation still listed as available")
	}

	claims, err := db.ClaimsByReceiver(receiver.ID)
	if err != nil {
		t.Fatalf("claims by receiver: %v", err)
	}
	if len(claims) != 1 {
		t.Errorf("expected 1 claim, got %d", len(claims))
	}

	if _, err := db.ClaimDonation(9999, receiver.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown donation, got %v", err)
	}
}

func TestPaymentLifecycle(t *testing.T) {
	db := testDB(t)
	donor, _ := db.CreateUser("Ada", "ada@example.com", "h", "donor")

	p, err := db.CreatePayment(donor.ID, 25.5, "pi_abc")
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if p.Status != "pending" {
		t.Errorf("new payment status %q", p.Status)
	}

	if err := db.SetPaymentStatus("pi_abc", "succeeded"); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := db.SetPaymentStatus("pi_unknown", "succeeded"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	payments, err := db.PaymentsByDonor(donor.ID)
	if err != nil {
		t.Fatalf("payments by donor: %v", err)
	}
	if len(payments) != 1 || payments[0].Status != "succeeded" || payments[0].Amount != 25.5 {
		t.Errorf("payments returned %+v", payments[0])
	}
}
