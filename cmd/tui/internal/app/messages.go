package app

import (
	"github.com/google/uuid"

	"github.com/foodbridge-dev/foodbridge/internal/api"
	"github.com/foodbridge-dev/foodbridge/internal/payment"
	"github.com/foodbridge-dev/foodbridge/internal/session"
)

// --- Tea messages ---

type loginDoneMsg struct {
	sess session.Session
	err  error
}

type registerDoneMsg struct {
	err error
}

type myDonationsMsg struct {
	donations []api.Donation
	err       error
}

type availableDonationsMsg struct {
	donations []api.Donation
	err       error
}

type claimsMsg struct {
	claims []api.Claim
	err    error
}

type paymentsMsg struct {
	payments []api.Payment
	err      error
}

type donationCreatedMsg struct {
	err error
}

type claimDoneMsg struct {
	err error
}

type widgetReadyMsg struct {
	confirmer payment.Confirmer
	err       error
}

type intentCreatedMsg struct {
	attemptID    uuid.UUID
	clientSecret string
	paymentID    int
	err          error
}

type confirmDoneMsg struct {
	attemptID uuid.UUID
	result    payment.ConfirmResult
	err       error
}

type successNotifiedMsg struct {
	attemptID uuid.UUID
	err       error
}
