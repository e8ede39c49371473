package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusOverdue = "overdue"
)

// Payment is one scheduled installment of an approved loan. The schedule
// is generated from the amortization numbers when an admin approves.
type Payment struct {
	gorm.Model
	LoanID        uint       `json:"loan_id" gorm:"index"`
	Sequence      int        `json:"sequence"` // 1-based installment number
	Amount        float64    `json:"amount"`
	DueDate       time.Time  `json:"due_date"`
	Status        string     `json:"status"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"` // "mpesa", "bank_transfer", ...
	TransactionID string     `json:"transaction_id,omitempty"`
}
