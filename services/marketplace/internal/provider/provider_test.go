package provider

import (
	"errors"
	"strings"
	"testing"
)

func TestCreateIntent(t *testing.T) {
	p := New()
	intent := p.CreateIntent(2550)

	if !strings.HasPrefix(intent.ID, "pi_") {
		t.Errorf("intent id %q", intent.ID)
	}
	if !strings.HasPrefix(intent.ClientSecret, intent.ID+"_secret_") {
		t.Errorf("client secret %q does not embed intent id", intent.ClientSecret)
	}
	if intent.AmountCents != 2550 || intent.Status != StatusPending {
		t.Errorf("intent %+v", intent)
	}
}

func TestConfirm_Outcomes(t *testing.T) {
	p := New()

	t.Run("success", func(t *testing.T) {
		intent := p.CreateIntent(1000)
		got, err := p.Confirm(intent.ID, intent.ClientSecret, "4242 4242 4242 4242")
		if err != nil {
			t.Fatalf("confirm: %v", err)
		}
		if got.Status != StatusSucceeded {
			t.Errorf("status %q", got.Status)
		}
	})

	t.Run("declined", func(t *testing.T) {
		intent := p.CreateIntent(1000)
		_, err := p.Confirm(intent.ID, intent.ClientSecret, CardDeclined)
		var decline *DeclineError
		if !errors.As(err, &decline) {
			t.Fatalf("expected *DeclineError, got %v", err)
		}
		if decline.Message != "Your card was declined." {
			t.Errorf("message %q", decline.Message)
		}
	})

	t.Run("requires action", func(t *testing.T) {
		intent := p.CreateIntent(1000)
		got, err := p.Confirm(intent.ID, intent.ClientSecret, CardNeedsAction)
		if err != nil {
			t.Fatalf("confirm: %v", err)
		}
		if got.Status != StatusRequiresAction {
			t.Errorf("status %q", got.Status)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		intent := p.CreateIntent(1000)
		if _, err := p.Confirm(intent.ID, "bogus", "4242424242424242"); err == nil {
			t.Error("expected rejection for wrong secret")
		}
	})

	t.Run("repeat confirm is idempotent", func(t *testing.T) {
		intent := p.CreateIntent(1000)
		if _, err := p.Confirm(intent.ID, intent.ClientSecret, "4242424242424242"); err != nil {
			t.Fatalf("first confirm: %v", err)
		}
		got, err := p.Confirm(intent.ID, intent.ClientSecret, CardDeclined)
		if err != nil {
			t.Fatalf("second confirm: %v", err)
		}
		if got.Status != StatusSucceeded {
			t.Errorf("second confirm changed status to %q", got.Status)
		}
	})
}
