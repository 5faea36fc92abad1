package app

import (
	"github.com/foodbridge-dev/foodbridge/internal/api"
	"github.com/foodbridge-dev/foodbridge/internal/payment"
	"github.com/foodbridge-dev/foodbridge/internal/session"
)

type appState int

const (
	stateLanding appState = iota
	stateLogin
	stateRegister
	stateDashboard
)

type modalState int

const (
	modalNone modalState = iota
	modalAddDonation
	modalPayment
)

// listState tracks one dashboard list through its fetch.
type listState int

const (
	listLoading listState = iota
	listReady
	listFailed
)

type toastEntry struct {
	ts    string
	text  string
	isErr bool
}

// form is a focus-cycling set of text inputs. fields point into the
// owning Model's value strings.
type form struct {
	labels []string
	fields []*string
	focus  int
}

// Model is the root bubbletea model for the FoodBridge client.
// Exported so tests can construct and drive it directly.
type Model struct {
	state appState
	modal modalState

	width  int
	height int

	client   api.Client
	sessions *session.Store

	flow      *payment.Flow
	confirmer payment.Confirmer
	card      *payment.CardElement

	// Login form
	loginEmail    string
	loginPassword string

	// Register form
	regName     string
	regEmail    string
	regPassword string
	regRole     string // donor | receiver, toggled not typed

	// Add-donation form
	donItem     string
	donQuantity string
	donExpiry   string
	donLocation string

	// Payment form
	payAmount string
	cardNum   string
	cardExp   string
	cardCVC   string

	formFocus int

	// Dashboard data. Which pair is populated depends on the role.
	myDonations   []api.Donation
	myDonationsSt listState
	available     []api.Donation
	availableSt   listState
	claims        []api.Claim
	claimsSt      listState
	payments      []api.Payment
	paymentsSt    listState

	availableIdx int

	toasts []toastEntry

	// Landing menu
	menuIdx int
}

// New creates a fresh Model. The store should already have Restore
// called on it; a restored session routes straight to the dashboard.
// confirmer may be nil, in which case the payment widget is initialized
// from the backend's publishable config when the payment modal opens.
func New(client api.Client, sessions *session.Store, confirmer payment.Confirmer) Model {
	m := Model{
		state:     stateLanding,
		client:    client,
		sessions:  sessions,
		flow:      payment.NewFlow(),
		confirmer: confirmer,
		regRole:   session.RoleDonor,
	}
	if sessions.Current() != nil {
		m.state = stateDashboard
	}
	return m
}

// Session returns the active session, nil when logged out.
func (m Model) Session() *session.Session {
	return m.sessions.Current()
}

// --- Forms ---

func (m *Model) loginForm() form {
	return form{
		labels: []string{"Email", "Password"},
		fields: []*string{&m.loginEmail, &m.loginPassword},
		focus:  m.formFocus,
	}
}

func (m *Model) registerForm() form {
	return form{
		labels: []string{"Name", "Email", "Password"},
		fields: []*string{&m.regName, &m.regEmail, &m.regPassword},
		focus:  m.formFocus,
	}
}

func (m *Model) donationForm() form {
	return form{
		labels: []string{"Item", "Quantity", "Expiry (YYYY-MM-DD)", "Location"},
		fields: []*string{&m.donItem, &m.donQuantity, &m.donExpiry, &m.donLocation},
		focus:  m.formFocus,
	}
}

func (m *Model) paymentForm() form {
	return form{
		labels: []string{"Amount (USD)", "Card number", "Expiry (MM/YY)", "CVC"},
		fields: []*string{&m.payAmount, &m.cardNum, &m.cardExp, &m.cardCVC},
		focus:  m.formFocus,
	}
}
