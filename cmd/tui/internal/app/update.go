package app

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"

	"github.com/foodbridge-dev/foodbridge/internal/api"
	"github.com/foodbridge-dev/foodbridge/internal/payment"
	"github.com/foodbridge-dev/foodbridge/internal/session"
)

// Fixed local-rejection messages. These fire before any request is made.
const (
	msgOnlyDonorsAdd      = "Only donors can add donations"
	msgOnlyReceiversClaim = "Only receivers can claim donations"
	msgOnlyDonorsPay      = "Only donors can make monetary donations"
)

// confirmTimeout bounds the widget confirmation leg so a wedged provider
// cannot leave the flow in confirming forever.
const confirmTimeout = 60 * time.Second

// Init fires the first dashboard refresh when a session was restored.
// Restore itself happens before the program starts and needs no network.
func (m Model) Init() tea.Cmd {
	if m.state == stateDashboard && m.Session() != nil {
		return m.refreshCmds()
	}
	return nil
}

// Update is the bubbletea update function.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case loginDoneMsg:
		return m.handleLoginDone(msg)

	case registerDoneMsg:
		return m.handleRegisterDone(msg)

	case myDonationsMsg:
		m.myDonations, m.myDonationsSt = msg.donations, listReady
		if msg.err != nil {
			m.myDonationsSt = listFailed
		}
		return m, nil

	case availableDonationsMsg:
		m.available, m.availableSt = msg.donations, listReady
		if msg.err != nil {
			m.availableSt = listFailed
		}
		if m.availableIdx >= len(m.available) {
			m.availableIdx = 0
		}
		return m, nil

	case claimsMsg:
		m.claims, m.claimsSt = msg.claims, listReady
		if msg.err != nil {
			m.claimsSt = listFailed
		}
		return m, nil

	case paymentsMsg:
		m.payments, m.paymentsSt = msg.payments, listReady
		if msg.err != nil {
			m.paymentsSt = listFailed
		}
		return m, nil

	case donationCreatedMsg:
		return m.handleDonationCreated(msg)

	case claimDoneMsg:
		return m.handleClaimDone(msg)

	case widgetReadyMsg:
		return m.handleWidgetReady(msg)

	case intentCreatedMsg:
		return m.handleIntentCreated(msg)

	case confirmDoneMsg:
		return m.handleConfirmDone(msg)

	case successNotifiedMsg:
		return m.handleSuccessNotified(msg)
	}

	return m, nil
}

// --- Key handling ---

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.Key()

	if k.Code == 'c' && k.Mod == tea.ModCtrl {
		return m.quit()
	}

	if m.state == stateDashboard && m.modal != modalNone {
		return m.handleModalKey(k)
	}

	switch m.state {
	case stateLanding:
		return m.handleLandingKey(k)
	case stateLogin:
		return m.handleLoginKey(k)
	case stateRegister:
		return m.handleRegisterKey(k)
	case stateDashboard:
		return m.handleDashboardKey(k)
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	// The snapshot write on exit mirrors the write on login, so a kill
	// between the two costs at most the in-memory changes.
	_ = m.sessions.Save()
	return m, tea.Quit
}

var landingMenu = []string{"Log in", "Register", "Quit"}

func (m Model) handleLandingKey(k tea.Key) (tea.Model, tea.Cmd) {
	switch k.Code {
	case tea.KeyUp, 'k':
		if m.menuIdx > 0 {
			m.menuIdx--
		}
	case tea.KeyDown, 'j':
		if m.menuIdx < len(landingMenu)-1 {
			m.menuIdx++
		}
	case tea.KeyEnter:
		switch landingMenu[m.menuIdx] {
		case "Log in":
			m.state = stateLogin
			m.formFocus = 0
		case "Register":
			m.state = stateRegister
			m.formFocus = 0
		case "Quit":
			return m.quit()
		}
	case 'q', tea.KeyEscape:
		return m.quit()
	}
	return m, nil
}

func (m Model) handleLoginKey(k tea.Key) (tea.Model, tea.Cmd) {
	f := m.loginForm()
	switch k.Code {
	case tea.KeyEscape:
		m.state = stateLanding
		m.loginEmail, m.loginPassword = "", ""
		m.formFocus = 0
		return m, nil
	case tea.KeyEnter:
		if m.formFocus < len(f.fields)-1 {
			m.formFocus++
			return m, nil
		}
		if m.loginEmail == "" || m.loginPassword == "" {
			m.toast("Email and password are required", true)
			return m, nil
		}
		return m, m.doLogin(m.loginEmail, m.loginPassword)
	}
	m.editField(f, k)
	return m, nil
}

func (m Model) handleRegisterKey(k tea.Key) (tea.Model, tea.Cmd) {
	f := m.registerForm()
	switch k.Code {
	case tea.KeyEscape:
		m.state = stateLanding
		m.regName, m.regEmail, m.regPassword = "", "", ""
		m.regRole = session.RoleDonor
		m.formFocus = 0
		return m, nil
	case tea.KeyLeft, tea.KeyRight:
		if m.regRole == session.RoleDonor {
			m.regRole = session.RoleReceiver
		} else {
			m.regRole = session.RoleDonor
		}
		return m, nil
	case tea.KeyEnter:
		if m.formFocus < len(f.fields)-1 {
			m.formFocus++
			return m, nil
		}
		if m.regName == "" || m.regEmail == "" || m.regPassword == "" {
			m.toast("All fields are required", true)
			return m, nil
		}
		return m, m.doRegister(api.Registration{
			Name:     m.regName,
			Email:    m.regEmail,
			Password: m.regPassword,
			Role:     m.regRole,
		})
	}
	m.editField(f, k)
	return m, nil
}

func (m Model) handleDashboardKey(k tea.Key) (tea.Model, tea.Cmd) {
	sess := m.Session()
	if sess == nil {
		m.state = stateLanding
		return m, nil
	}

	switch k.Code {
	case 'a':
		if sess.Role != session.RoleDonor {
			m.toast(msgOnlyDonorsAdd, true)
			return m, nil
		}
		m.modal = modalAddDonation
		m.donItem, m.donQuantity, m.donExpiry, m.donLocation = "", "", "", ""
		m.formFocus = 0
		return m, nil

	case 'p':
		if sess.Role != session.RoleDonor {
			m.toast(msgOnlyDonorsPay, true)
			return m, nil
		}
		return m.openPaymentModal()

	case 'c', tea.KeyEnter:
		return m.claimSelected()

	case tea.KeyUp, 'k':
		if m.availableIdx > 0 {
			m.availableIdx--
		}
	case tea.KeyDown, 'j':
		if m.availableIdx < len(m.available)-1 {
			m.availableIdx++
		}

	case 'r':
		m.resetLists()
		return m, m.refreshCmds()

	case 'l':
		if err := m.sessions.Clear(); err != nil {
			m.toast(err.Error(), true)
		}
		next := New(m.client, m.sessions, m.confirmer)
		next.width, next.height = m.width, m.height
		return next, nil

	case 'q', tea.KeyEscape:
		return m.quit()
	}
	return m, nil
}

// claimSelected runs the local role check first: a donor never sends a
// claim request, the rejection is immediate.
func (m Model) claimSelected() (tea.Model, tea.Cmd) {
	sess := m.Session()
	if sess.Role != session.RoleReceiver {
		m.toast(msgOnlyReceiversClaim, true)
		return m, nil
	}
	if len(m.available) == 0 || m.availableIdx >= len(m.available) {
		return m, nil
	}
	d := m.available[m.availableIdx]
	return m, m.doClaim(d.ID, sess.ID)
}

func (m Model) openPaymentModal() (tea.Model, tea.Cmd) {
	m.modal = modalPayment
	m.payAmount, m.cardNum, m.cardExp, m.cardCVC = "", "", "", ""
	m.formFocus = 0
	m.card = &payment.CardElement{}
	m.card.Mount()
	if m.confirmer == nil {
		return m, m.doInitWidget()
	}
	return m, nil
}

func (m Model) closePaymentModal() Model {
	m.flow.Discard()
	m.card.Unmount()
	m.card.Clear()
	m.modal = modalNone
	return m
}

func (m Model) handleModalKey(k tea.Key) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalAddDonation:
		f := m.donationForm()
		switch k.Code {
		case tea.KeyEscape:
			m.modal = modalNone
			return m, nil
		case tea.KeyEnter:
			if m.formFocus < len(f.fields)-1 {
				m.formFocus++
				return m, nil
			}
			if m.donItem == "" {
				m.toast("Item name is required", true)
				return m, nil
			}
			return m, m.doCreateDonation(api.NewDonation{
				DonorID:    m.Session().ID,
				ItemName:   m.donItem,
				Quantity:   m.donQuantity,
				ExpiryDate: m.donExpiry,
				Location:   m.donLocation,
			})
		}
		m.editField(f, k)
		return m, nil

	case modalPayment:
		f := m.paymentForm()
		switch k.Code {
		case tea.KeyEscape:
			return m.closePaymentModal(), nil
		case tea.KeyEnter:
			if m.formFocus < len(f.fields)-1 {
				m.formFocus++
				return m, nil
			}
			return m.submitPayment()
		}
		if !m.flow.Loading() {
			m.editField(f, k)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) submitPayment() (tea.Model, tea.Cmd) {
	if m.confirmer == nil {
		m.toast("Payment system is still loading", true)
		return m, nil
	}

	attempt, err := m.flow.Submit(m.payAmount)
	switch err {
	case nil:
	case payment.ErrInvalidAmount:
		m.toast(payment.MsgInvalidAmount, true)
		return m, nil
	default: // in flight; the pending attempt keeps running
		return m, nil
	}

	m.card.SetCard(payment.CardDetails{
		Number: m.cardNum,
		Expiry: m.cardExp,
		CVC:    m.cardCVC,
	})
	return m, m.doCreateIntent(attempt.ID, attempt.Amount, m.Session().ID)
}

// editField applies a key to the focused form field.
func (m *Model) editField(f form, k tea.Key) {
	field := f.fields[f.focus]
	switch k.Code {
	case tea.KeyTab, tea.KeyDown:
		m.formFocus = (f.focus + 1) % len(f.fields)
	case tea.KeyUp:
		m.formFocus = (f.focus + len(f.fields) - 1) % len(f.fields)
	case tea.KeyBackspace:
		if len(*field) > 0 {
			*field = (*field)[:len(*field)-1]
		}
	default:
		if k.Text != "" {
			*field += k.Text
		}
	}
}

func (m *Model) toast(text string, isErr bool) {
	m.toasts = append(m.toasts, toastEntry{
		ts:    time.Now().Format("15:04:05"),
		text:  text,
		isErr: isErr,
	})
	if len(m.toasts) > 50 {
		m.toasts = m.toasts[len(m.toasts)-50:]
	}
}

func (m *Model) resetLists() {
	m.myDonationsSt, m.availableSt = listLoading, listLoading
	m.claimsSt, m.paymentsSt = listLoading, listLoading
}

// refreshCmds is the single role-appropriate fetch batch for the
// dashboard: donors see their listings and payment history, receivers
// see what is available and what they already claimed.
func (m Model) refreshCmds() tea.Cmd {
	sess := m.Session()
	if sess == nil {
		return nil
	}
	if sess.Role == session.RoleDonor {
		return tea.Batch(m.doMyDonations(sess.ID), m.doPayments(sess.ID))
	}
	return tea.Batch(m.doAvailableDonations(), m.doClaims(sess.ID))
}

// --- Async commands ---

func (m Model) doLogin(email, password string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx := context.Background()
		res, err := client.Login(ctx, email, password)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		sess := session.Session{ID: res.UserID, Role: res.Role, Email: email}
		// Best effort: the profile fills in the display name, login
		// stands even if this fetch fails.
		if profile, err := client.User(ctx, res.UserID); err == nil {
			sess.Name = profile.Name
		}
		return loginDoneMsg{sess: sess}
	}
}

func (m Model) doRegister(reg api.Registration) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		return registerDoneMsg{err: client.Register(context.Background(), reg)}
	}
}

func (m Model) doMyDonations(userID int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		donations, err := client.DonationsByUser(context.Background(), userID)
		return myDonationsMsg{donations: donations, err: err}
	}
}

func (m Model) doAvailableDonations() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		donations, err := client.AvailableDonations(context.Background())
		return availableDonationsMsg{donations: donations, err: err}
	}
}

func (m Model) doClaims(userID int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		claims, err := client.ClaimsByUser(context.Background(), userID)
		return claimsMsg{claims: claims, err: err}
	}
}

func (m Model) doPayments(userID int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		payments, err := client.PaymentsByUser(context.Background(), userID)
		return paymentsMsg{payments: payments, err: err}
	}
}

func (m Model) doCreateDonation(d api.NewDonation) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		return donationCreatedMsg{err: client.CreateDonation(context.Background(), d)}
	}
}

func (m Model) doClaim(donationID, receiverID int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		return claimDoneMsg{err: client.ClaimDonation(context.Background(), donationID, receiverID)}
	}
}

func (m Model) doInitWidget() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		cfg, err := client.PaymentConfig(context.Background())
		if err != nil {
			return widgetReadyMsg{err: err}
		}
		w, err := payment.Initialize(cfg)
		if err != nil {
			return widgetReadyMsg{err: err}
		}
		return widgetReadyMsg{confirmer: w}
	}
}

func (m Model) doCreateIntent(attemptID uuid.UUID, amount float64, donorID int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		intent, err := client.CreatePaymentIntent(context.Background(), amount, donorID)
		return intentCreatedMsg{
			attemptID:    attemptID,
			clientSecret: intent.ClientSecret,
			paymentID:    intent.PaymentID,
			err:          err,
		}
	}
}

func (m Model) doConfirm(attemptID uuid.UUID, clientSecret string) tea.Cmd {
	confirmer := m.confirmer
	card := m.card.Card()
	sess := m.Session()
	billing := payment.BillingDetails{}
	if sess != nil {
		billing.Name, billing.Email = sess.Name, sess.Email
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), confirmTimeout)
		defer cancel()
		result, err := confirmer.ConfirmCardPayment(ctx, clientSecret, card, billing)
		return confirmDoneMsg{attemptID: attemptID, result: result, err: err}
	}
}

func (m Model) doNotifySuccess(attemptID uuid.UUID, intentID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		return successNotifiedMsg{
			attemptID: attemptID,
			err:       client.NotifyPaymentSuccess(context.Background(), intentID),
		}
	}
}

// --- Message handlers ---

func (m Model) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.toast(api.UserMessage(msg.err, "Login failed. Please try again."), true)
		return m, nil
	}
	if err := m.sessions.Set(msg.sess); err != nil {
		// The login still worked; the snapshot just won't survive exit.
		m.toast(err.Error(), true)
	}
	m.loginEmail, m.loginPassword = "", ""
	m.formFocus = 0
	m.state = stateDashboard
	m.resetLists()
	return m, m.refreshCmds()
}

func (m Model) handleRegisterDone(msg registerDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.toast(api.UserMessage(msg.err, "Registration failed. Please try again."), true)
		return m, nil
	}
	m.toast("Registration successful. Please log in.", false)
	m.loginEmail = m.regEmail
	m.regName, m.regEmail, m.regPassword = "", "", ""
	m.state = stateLogin
	m.formFocus = 1
	return m, nil
}

func (m Model) handleDonationCreated(msg donationCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.toast(api.UserMessage(msg.err, "Failed to create donation."), true)
		return m, nil
	}
	m.toast("Donation created", false)
	m.modal = modalNone
	m.myDonationsSt = listLoading
	return m, m.doMyDonations(m.Session().ID)
}

func (m Model) handleClaimDone(msg claimDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.toast(api.UserMessage(msg.err, "Failed to claim donation."), true)
	} else {
		m.toast("Donation claimed successfully", false)
	}
	// Either way the available list is stale now.
	m.availableSt, m.claimsSt = listLoading, listLoading
	return m, tea.Batch(m.doAvailableDonations(), m.doClaims(m.Session().ID))
}

func (m Model) handleWidgetReady(msg widgetReadyMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.toast("Payment system unavailable. Please try again later.", true)
		return m.closePaymentModal(), nil
	}
	m.confirmer = msg.confirmer
	return m, nil
}

func (m Model) handleIntentCreated(msg intentCreatedMsg) (tea.Model, tea.Cmd) {
	next := m.flow.IntentCreated(msg.attemptID, msg.clientSecret, msg.paymentID, msg.err)
	if next == payment.NextConfirm {
		return m, m.doConfirm(msg.attemptID, msg.clientSecret)
	}
	return m, nil
}

func (m Model) handleConfirmDone(msg confirmDoneMsg) (tea.Model, tea.Cmd) {
	next := m.flow.ConfirmFinished(msg.attemptID, msg.result, msg.err)
	if next == payment.NextNotify {
		return m, m.doNotifySuccess(msg.attemptID, m.flow.Attempt().IntentID)
	}
	return m, nil
}

func (m Model) handleSuccessNotified(msg successNotifiedMsg) (tea.Model, tea.Cmd) {
	next := m.flow.SuccessNotified(msg.attemptID, msg.err)
	if next != payment.NextRefresh {
		return m, nil
	}
	if note := m.flow.ErrorMessage(); note != "" {
		m.toast(note, true)
	}
	m.toast("Payment successful. Thank you for supporting FoodBridge!", false)
	m = m.closePaymentModal()
	m.paymentsSt = listLoading
	return m, m.doPayments(m.Session().ID)
}
