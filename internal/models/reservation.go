package models

import (
	"strconv"
	"strings"
	"time"
)

// Reservation is one customer's booking request. While pending it lives in
// the active collection; confirming or canceling relocates it to history
// under the same identifier.
type Reservation struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	ContactNumber string     `json:"contact_number"`
	Email         string     `json:"email"`
	Package       string     `json:"package"`
	Date          time.Time  `json:"date"`
	TimeSlot      string     `json:"time_slot"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	ReceiptRef    string     `json:"receipt_ref,omitempty"`
	IDDocumentRef string     `json:"id_document_ref,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	MovedAt       *time.Time `json:"moved_at,omitempty"`
}

// FullName joins first and last name for display and report rows.
func (r *Reservation) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// NumericSuffix parses the numeric part of an "ID_<n>" identifier.
// Returns false for identifiers in any other shape.
func (r *Reservation) NumericSuffix() (int, bool) {
	return ParseIDSuffix(r.ID)
}

// ParseIDSuffix extracts n from an "ID_<n>" identifier.
func ParseIDSuffix(id string) (int, bool) {
	const prefix = "ID_"
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(id[len(prefix):])
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatID builds the canonical identifier for a numeric suffix.
func FormatID(n int) string {
	return "ID_" + strconv.Itoa(n)
}
