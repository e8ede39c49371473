// internal/models/loan.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Loan statuses. Transitions are one-directional: a loan leaves "pending"
// exactly once, to "approved" or "rejected", and only an admin may move it.
const (
	LoanStatusPending   = "pending"
	LoanStatusApproved  = "approved"
	LoanStatusRejected  = "rejected"
	LoanStatusDisbursed = "disbursed"
)

type Loan struct {
	gorm.Model
	Reference string `json:"reference" gorm:"uniqueIndex"` // human-facing id used in admin search
	UserID    uint   `json:"user_id" gorm:"index"`

	Amount         float64 `json:"amount"`
	Purpose        string  `json:"purpose"`
	DurationMonths int     `json:"duration_months"`
	InterestRate   float64 `json:"interest_rate"` // annual, percent
	MonthlyPayment float64 `json:"monthly_payment"`
	TotalRepayment float64 `json:"total_repayment"`

	// Employment snapshot duplicated from the profile at submission time,
	// so later profile edits don't rewrite the application under review.
	EmploymentStatus string  `json:"employment_status"`
	Employer         string  `json:"employer"`
	Occupation       string  `json:"occupation"`
	MonthlyIncome    float64 `json:"monthly_income"`

	Status         string     `json:"status"`
	Repaid         bool       `json:"repaid" gorm:"default:false"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	RejectedAt     *time.Time `json:"rejected_at,omitempty"`
	RejectedReason string     `json:"rejected_reason,omitempty"`

	IDDocumentURL string `json:"id_document_url"`
	SelfieURL     string `json:"selfie_url"`
	PayslipURL    string `json:"payslip_url"`

	Payments []Payment `gorm:"foreignKey:LoanID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"payments,omitempty"`
}
