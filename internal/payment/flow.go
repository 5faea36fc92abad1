package payment

import (
	"errors"
	"math"
	"strconv"

	"github.com/google/uuid"
)

// Phase of the in-flight PaymentAttempt.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCreatingIntent
	PhaseConfirming
	PhaseNotifyingSuccess
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCreatingIntent:
		return "creating_intent"
	case PhaseConfirming:
		return "confirming"
	case PhaseNotifyingSuccess:
		return "notifying_success"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// Submit rejections.
var (
	ErrInvalidAmount   = errors.New("payment: amount must be a positive number")
	ErrAttemptInFlight = errors.New("payment: an attempt is already in flight")
)

// Fixed user-facing messages.
const (
	msgIntentFailed = "Payment failed. Please try again."
	msgNeedsAuth    = "This payment method requires additional authentication, which is not supported. Please use a different card."
	msgNotifyFailed = "Payment succeeded, but recording it failed. It will appear once the server catches up."

	// MsgInvalidAmount is the toast shown for a rejected amount input.
	MsgInvalidAmount = "Please enter a valid donation amount"
)

// Attempt is the client-local, transient record of one payment try.
// Created on submit, mutated only by the Flow, discarded when the modal
// closes or the flow terminates.
type Attempt struct {
	ID           uuid.UUID
	Amount       float64
	ClientSecret string
	IntentID     string
	PaymentID    int
	Phase        Phase
	ErrMessage   string
}

// Next tells the caller which leg to run after a transition.
type Next int

const (
	NextNone    Next = iota
	NextConfirm      // run the widget confirmation
	NextNotify       // acknowledge success to the backend
	NextRefresh      // terminal success: refresh the payment history
)

// Flow is the payment flow controller: a state machine over the current
// Attempt. It performs no I/O itself — the caller runs each leg and
// reports the outcome back with the attempt id, so results that arrive
// after the attempt was discarded are ignored instead of applied blindly.
// All methods must be called from the single event loop.
type Flow struct {
	attempt *Attempt
}

// NewFlow returns an idle controller.
func NewFlow() *Flow {
	return &Flow{}
}

// Phase reports the current attempt's phase, PhaseIdle when none.
func (f *Flow) Phase() Phase {
	if f.attempt == nil {
		return PhaseIdle
	}
	return f.attempt.Phase
}

// Loading is true while any leg is in flight — the caller disables the
// submit action and shows a spinner.
func (f *Flow) Loading() bool {
	switch f.Phase() {
	case PhaseCreatingIntent, PhaseConfirming, PhaseNotifyingSuccess:
		return true
	}
	return false
}

// ErrorMessage is the user-facing text for a failed attempt, "" otherwise.
func (f *Flow) ErrorMessage() string {
	if f.attempt == nil {
		return ""
	}
	return f.attempt.ErrMessage
}

// Attempt returns a copy of the current attempt, nil when idle.
func (f *Flow) Attempt() *Attempt {
	if f.attempt == nil {
		return nil
	}
	cp := *f.attempt
	return &cp
}

// Submit validates amountInput and opens a new attempt in
// PhaseCreatingIntent. It is rejected — without any network call — while
// a previous attempt is still in flight, and for non-positive or
// non-numeric amounts. A failed or succeeded attempt is replaced.
func (f *Flow) Submit(amountInput string) (*Attempt, error) {
	if f.Loading() {
		return nil, ErrAttemptInFlight
	}

	amount, err := strconv.ParseFloat(amountInput, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, ErrInvalidAmount
	}

	f.attempt = &Attempt{
		ID:     uuid.New(),
		Amount: amount,
		Phase:  PhaseCreatingIntent,
	}
	return f.Attempt(), nil
}

// IntentCreated reports the outcome of the create-intent leg. On success
// the attempt moves to PhaseConfirming and the caller runs NextConfirm;
// on failure it moves to PhaseFailed with the generic retryable message
// and no partial state retained.
func (f *Flow) IntentCreated(id uuid.UUID, clientSecret string, paymentID int, err error) Next {
	if !f.owns(id, PhaseCreatingIntent) {
		return NextNone
	}
	if err != nil {
		f.fail(msgIntentFailed)
		return NextNone
	}
	f.attempt.ClientSecret = clientSecret
	f.attempt.PaymentID = paymentID
	f.attempt.Phase = PhaseConfirming
	return NextConfirm
}

// ConfirmFinished reports the outcome of the widget confirmation.
// A widget error fails the attempt with the widget's own message and
// clears the intent reference — a failed confirmation is never retried
// with the same intent; a fresh submit starts over. A succeeded status
// moves to PhaseNotifyingSuccess. Any other status means the payment
// method needs multi-step authentication, which this flow rejects with an
// explicit message rather than miscategorizing it.
func (f *Flow) ConfirmFinished(id uuid.UUID, result ConfirmResult, err error) Next {
	if !f.owns(id, PhaseConfirming) {
		return NextNone
	}
	if err != nil {
		msg := msgIntentFailed
		var confirmErr *ConfirmError
		if errors.As(err, &confirmErr) {
			msg = confirmErr.Message
		}
		f.attempt.ClientSecret = ""
		f.attempt.IntentID = ""
		f.fail(msg)
		return NextNone
	}
	if result.Status != StatusSucceeded {
		f.attempt.ClientSecret = ""
		f.attempt.IntentID = ""
		f.fail(msgNeedsAuth)
		return NextNone
	}
	f.attempt.IntentID = result.IntentID
	f.attempt.Phase = PhaseNotifyingSuccess
	return NextNotify
}

// SuccessNotified reports the outcome of the best-effort backend
// acknowledgement. The money has already moved, so the attempt reaches
// PhaseSucceeded regardless; a non-nil err is only worth a toast.
func (f *Flow) SuccessNotified(id uuid.UUID, err error) Next {
	if !f.owns(id, PhaseNotifyingSuccess) {
		return NextNone
	}
	if err != nil {
		f.attempt.ErrMessage = msgNotifyFailed
	}
	f.attempt.Phase = PhaseSucceeded
	return NextRefresh
}

// Discard drops the current attempt (payment modal closed). In-flight
// network calls are not cancelled; their late results fail the owns check
// and are ignored.
func (f *Flow) Discard() {
	f.attempt = nil
}

// owns reports whether a leg result belongs to the current attempt in the
// expected phase.
func (f *Flow) owns(id uuid.UUID, phase Phase) bool {
	return f.attempt != nil && f.attempt.ID == id && f.attempt.Phase == phase
}

func (f *Flow) fail(msg string) {
	f.attempt.Phase = PhaseFailed
	f.attempt.ErrMessage = msg
}
