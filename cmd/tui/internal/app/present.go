package app

import (
	"fmt"

	"github.com/foodbridge-dev/foodbridge/internal/api"
)

// Per-list empty-state and failure texts. A list renders exactly one of:
// its items, its empty text, its failure text, or a loading line.
const (
	emptyMyDonations = "No donations yet"
	emptyAvailable   = "No donations available right now"
	emptyClaims      = "No claims yet"
	emptyPayments    = "No payments yet"

	failedMyDonations = "Failed to load donations."
	failedAvailable   = "Failed to load available donations."
	failedClaims      = "Failed to load claims."
	failedPayments    = "Failed to load payments."
)

// donationLine renders one donation listing. Fields a feed omits render
// as absent rather than as zero-value noise.
func donationLine(d api.Donation) string {
	s := d.ItemName
	if d.Quantity != "" {
		s += fmt.Sprintf(" · %s", d.Quantity)
	}
	if d.ExpiryDate != "" {
		s += fmt.Sprintf(" · expires %s", d.ExpiryDate)
	}
	if d.Location != "" {
		s += fmt.Sprintf(" · %s", d.Location)
	}
	if d.Status != "" {
		s += fmt.Sprintf(" [%s]", d.Status)
	}
	return s
}

func claimLine(c api.Claim) string {
	s := fmt.Sprintf("Donation #%d", c.DonationID)
	if !c.ClaimTime.IsZero() {
		s += fmt.Sprintf(" · claimed %s", c.ClaimTime.Format("2006-01-02 15:04"))
	}
	return s
}

func paymentLine(p api.Payment) string {
	s := fmt.Sprintf("$%.2f · %s", p.Amount, p.Status)
	if !p.CreatedAt.IsZero() {
		s += fmt.Sprintf(" · %s", p.CreatedAt.Format("2006-01-02"))
	}
	return s
}

// listLines resolves a list's display lines from its fetch state.
func listLines(st listState, lines []string, emptyText, failedText string) []string {
	switch st {
	case listLoading:
		return []string{"loading..."}
	case listFailed:
		return []string{failedText}
	}
	if len(lines) == 0 {
		return []string{emptyText}
	}
	return lines
}

func donationLines(st listState, donations []api.Donation, emptyText, failedText string) []string {
	lines := make([]string, 0, len(donations))
	for _, d := range donations {
		lines = append(lines, donationLine(d))
	}
	return listLines(st, lines, emptyText, failedText)
}

func claimLines(st listState, claims []api.Claim) []string {
	lines := make([]string, 0, len(claims))
	for _, c := range claims {
		lines = append(lines, claimLine(c))
	}
	return listLines(st, lines, emptyClaims, failedClaims)
}

func paymentLines(st listState, payments []api.Payment) []string {
	lines := make([]string, 0, len(payments))
	for _, p := range payments {
		lines = append(lines, paymentLine(p))
	}
	return listLines(st, lines, emptyPayments, failedPayments)
}
