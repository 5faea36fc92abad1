package app

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/foodbridge-dev/foodbridge/internal/session"
)

// --- Styles ---

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#2ECC71"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#2ECC71"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4444")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2ECC71")).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#446644")).
			Padding(0, 1)
)

// View renders the full-screen TUI.
func (m Model) View() tea.View {
	if m.width == 0 {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}

	var s string
	switch m.state {
	case stateLanding:
		s = m.viewLanding()
	case stateLogin:
		s = m.viewForm("Log in", m.loginForm(), loginHints)
	case stateRegister:
		s = m.viewRegister()
	case stateDashboard:
		s = m.viewDashboard()
	}

	v := tea.NewView(s)
	v.AltScreen = true
	return v
}

const (
	loginHints = "[enter] next field / submit  [tab] next  [esc] back"
	formHints  = "[enter] next field / submit  [tab] next  [esc] cancel"
)

func (m Model) viewLanding() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  FOODBRIDGE"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  Connecting surplus food with those who need it"))
	b.WriteString("\n\n")

	for i, item := range landingMenu {
		if i == m.menuIdx {
			b.WriteString(selectedStyle.Render(" ▸ " + item + " "))
		} else {
			b.WriteString("   " + item)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  [↑/↓ or k/j] navigate  [enter] select  [q] quit"))
	return b.String()
}

// viewForm renders a focus-cycling form. Password-ish fields are masked
// by label convention.
func (m Model) viewForm(title string, f form, hints string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  " + title))
	b.WriteString("\n\n")

	for i, label := range f.labels {
		value := *f.fields[i]
		if strings.Contains(label, "Password") || label == "CVC" {
			value = strings.Repeat("*", len(value))
		}
		prompt := "  " + label + ": "
		if i == f.focus {
			b.WriteString(promptStyle.Render(prompt))
			b.WriteString(value)
			b.WriteString("█")
		} else {
			b.WriteString(prompt)
			b.WriteString(value)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + hints))
	b.WriteString(m.renderToasts())
	return b.String()
}

func (m Model) viewRegister() string {
	s := m.viewForm("Register", m.registerForm(), loginHints)
	role := "donor ◂▸ receiver"
	if m.regRole == session.RoleReceiver {
		role = "receiver ◂▸ donor"
	}
	return s + "\n" + dimStyle.Render("  Role: ") + valueStyle.Render(role) +
		dimStyle.Render("  [←/→] toggle")
}

func (m Model) viewDashboard() string {
	sess := m.Session()
	if sess == nil {
		return ""
	}

	var top, bottom string
	if sess.Role == session.RoleDonor {
		top = m.renderDonorPanel()
	} else {
		top = m.renderReceiverPanel()
	}

	switch m.modal {
	case modalAddDonation:
		bottom = m.viewForm("Add Donation", m.donationForm(), formHints)
	case modalPayment:
		bottom = m.renderPaymentModal()
	default:
		bottom = m.renderStatusPanel()
	}

	innerW := m.width - 4
	if innerW < 20 {
		innerW = 20
	}
	return panelStyle.Width(innerW).Render(top) + "\n" +
		panelStyle.Width(innerW).Render(bottom)
}

func (m Model) renderDonorPanel() string {
	sess := m.Session()
	var b strings.Builder
	b.WriteString(titleStyle.Render("Donor Dashboard"))
	b.WriteString(dimStyle.Render("  " + sess.Name + " <" + sess.Email + ">"))
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("My Donations"))
	b.WriteString("\n")
	for _, line := range donationLines(m.myDonationsSt, m.myDonations, emptyMyDonations, failedMyDonations) {
		b.WriteString(m.listLine(line, m.myDonationsSt))
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("My Payments"))
	b.WriteString("\n")
	for _, line := range paymentLines(m.paymentsSt, m.payments) {
		b.WriteString(m.listLine(line, m.paymentsSt))
	}

	return b.String()
}

func (m Model) renderReceiverPanel() string {
	sess := m.Session()
	var b strings.Builder
	b.WriteString(titleStyle.Render("Receiver Dashboard"))
	b.WriteString(dimStyle.Render("  " + sess.Name + " <" + sess.Email + ">"))
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Available Donations"))
	b.WriteString("\n")
	lines := donationLines(m.availableSt, m.available, emptyAvailable, failedAvailable)
	for i, line := range lines {
		if m.availableSt == listReady && len(m.available) > 0 && i == m.availableIdx {
			b.WriteString(selectedStyle.Render(" ▸ " + line + " "))
			b.WriteString("\n")
		} else {
			b.WriteString(m.listLine(line, m.availableSt))
		}
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("My Claims"))
	b.WriteString("\n")
	for _, line := range claimLines(m.claimsSt, m.claims) {
		b.WriteString(m.listLine(line, m.claimsSt))
	}

	return b.String()
}

// listLine styles one resolved list line: failures red, placeholders dim.
func (m Model) listLine(line string, st listState) string {
	switch {
	case st == listFailed:
		return errStyle.Render("  "+line) + "\n"
	case st == listLoading || strings.HasPrefix(line, "No "):
		return dimStyle.Render("  "+line) + "\n"
	}
	return "  " + line + "\n"
}

func (m Model) renderStatusPanel() string {
	var b strings.Builder
	sess := m.Session()
	if sess.Role == session.RoleDonor {
		b.WriteString(dimStyle.Render("[a] add donation  [p] donate money  [r] refresh  [l] logout  [q] quit"))
	} else {
		b.WriteString(dimStyle.Render("[↑/↓] select  [enter/c] claim  [r] refresh  [l] logout  [q] quit"))
	}
	b.WriteString(m.renderToasts())
	return b.String()
}

func (m Model) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Log:"))
	b.WriteString("\n")
	start := 0
	if len(m.toasts) > 4 {
		start = len(m.toasts) - 4
	}
	for _, t := range m.toasts[start:] {
		style := dimStyle
		if t.isErr {
			style = errStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("  [%s] %s", t.ts, t.text)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderPaymentModal() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Donate Money"))
	b.WriteString("\n\n")

	f := m.paymentForm()
	for i, label := range f.labels {
		value := *f.fields[i]
		if label == "CVC" {
			value = strings.Repeat("*", len(value))
		}
		prompt := label + ": "
		if i == f.focus && !m.flow.Loading() {
			b.WriteString(promptStyle.Render(prompt))
			b.WriteString(value)
			b.WriteString("█")
		} else {
			b.WriteString(prompt)
			b.WriteString(value)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.confirmer == nil:
		b.WriteString(dimStyle.Render("Loading payment system..."))
	case m.flow.Loading():
		b.WriteString(valueStyle.Render("Processing (" + m.flow.Phase().String() + ")..."))
	case m.flow.ErrorMessage() != "":
		b.WriteString(errStyle.Render(m.flow.ErrorMessage()))
	default:
		b.WriteString(dimStyle.Render(formHints))
	}
	b.WriteString(m.renderToasts())
	return b.String()
}
