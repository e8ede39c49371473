// Package stores defines the persistence capabilities the handlers rely
// on, with two interchangeable implementations: an in-memory store used
// in development and tests, and a GORM/Postgres store for deployments.
// The implementation is chosen once at composition time via Init.
package stores

import (
	"errors"

	"mkopo_loans/internal/models"
)

var (
	ErrEmailTaken     = errors.New("email already in use")
	ErrUserNotFound   = errors.New("user not found")
	ErrLoanNotFound   = errors.New("loan not found")
	ErrLoanNotPending = errors.New("loan is not pending")
	ErrReasonRequired = errors.New("a rejection reason is required")
)

// UserStore fronts the identity records. Only auth handlers touch it.
type UserStore interface {
	Create(user models.User) (models.User, error)
	GetByEmail(email string) (models.User, error)
	GetByID(id uint) (models.User, error)
	UpdatePassword(id uint, hash string) error
	ListBorrowers() ([]models.User, error)
}

// ProfileStore is keyed storage of the KYC record, one per user.
// Validation belongs to the form layer; this layer only merges.
type ProfileStore interface {
	// Get returns (nil, nil) when the user has no profile yet.
	Get(userID uint) (*models.Profile, error)
	// Update merges the non-nil patch fields into the existing profile,
	// creating one if absent, and returns the merged record.
	Update(userID uint, patch ProfileUpdate) (*models.Profile, error)
}

// StatusUpdate carries an admin's decision on a pending loan.
type StatusUpdate struct {
	Status string
	Reason string
}

type LoanStore interface {
	// CreateLoan assigns id, reference and timestamps and forces status
	// to pending regardless of input.
	CreateLoan(loan models.Loan) (models.Loan, error)
	GetLoan(id uint) (models.Loan, error)
	// ListByUser returns the user's loans newest-first.
	ListByUser(userID uint) ([]models.Loan, error)
	ListAll() ([]models.Loan, error)
	// UpdateStatus transitions a pending loan to approved or rejected,
	// stamping approved_at/rejected_at. Rejection without a reason and
	// transitions off a non-pending loan are refused.
	UpdateStatus(id uint, update StatusUpdate) (models.Loan, error)
}

type PaymentStore interface {
	// ReplaceForLoan swaps the loan's installment schedule wholesale.
	ReplaceForLoan(loanID uint, payments []models.Payment) error
	// ListByLoan returns installments in due-date order.
	ListByLoan(loanID uint) ([]models.Payment, error)
}

// Globally bound store handles, assigned once by Init before the router
// starts serving.
var (
	Users    UserStore
	Profiles ProfileStore
	Loans    LoanStore
	Payments PaymentStore
)

// Init binds the store handles the handlers use.
func Init(users UserStore, profiles ProfileStore, loans LoanStore, payments PaymentStore) {
	Users = users
	Profiles = profiles
	Loans = loans
	Payments = payments
}

// ProfileUpdate is a partial profile patch; nil fields are left untouched.
type ProfileUpdate struct {
	FullName      *string `json:"full_name"`
	IDNumber      *string `json:"id_number"`
	DateOfBirth   *string `json:"date_of_birth"`
	Gender        *string `json:"gender"`
	MaritalStatus *string `json:"marital_status"`
	Nationality   *string `json:"nationality"`

	Address        *string `json:"address"`
	County         *string `json:"county"`
	SubCounty      *string `json:"sub_county"`
	Village        *string `json:"village"`
	Phone          *string `json:"phone"`
	AlternatePhone *string `json:"alternate_phone"`

	ResidenceLocation []byte `json:"-"` // WKB, set by the handler after GeoJSON parsing

	EmploymentStatus *string  `json:"employment_status"`
	Employer         *string  `json:"employer"`
	Occupation       *string  `json:"occupation"`
	MonthlyIncome    *float64 `json:"monthly_income"`
	SecondaryIncome  *float64 `json:"secondary_income"`
	PayFrequency     *string  `json:"pay_frequency"`

	BankName          *string `json:"bank_name"`
	BankBranch        *string `json:"bank_branch"`
	BankAccountNumber *string `json:"bank_account_number"`
	MobileMoneyNumber *string `json:"mobile_money_number"`

	NextOfKinName         *string `json:"next_of_kin_name"`
	NextOfKinRelationship *string `json:"next_of_kin_relationship"`
	NextOfKinPhone        *string `json:"next_of_kin_phone"`
	NextOfKinIDNumber     *string `json:"next_of_kin_id_number"`
	NextOfKinAddress      *string `json:"next_of_kin_address"`

	IDDocumentURL *string `json:"id_document_url"`
	SelfieURL     *string `json:"selfie_url"`
	PayslipURL    *string `json:"payslip_url"`
	StatementURL  *string `json:"statement_url"`
}

// apply merges the patch into p. Shared by both store implementations so
// merge semantics cannot drift between them.
func (u ProfileUpdate) apply(p *models.Profile) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&p.FullName, u.FullName)
	setString(&p.IDNumber, u.IDNumber)
	setString(&p.DateOfBirth, u.DateOfBirth)
	setString(&p.Gender, u.Gender)
	setString(&p.MaritalStatus, u.MaritalStatus)
	setString(&p.Nationality, u.Nationality)

	setString(&p.Address, u.Address)
	setString(&p.County, u.County)
	setString(&p.SubCounty, u.SubCounty)
	setString(&p.Village, u.Village)
	setString(&p.Phone, u.Phone)
	setString(&p.AlternatePhone, u.AlternatePhone)

	if u.ResidenceLocation != nil {
		p.ResidenceLocation = u.ResidenceLocation
	}

	setString(&p.EmploymentStatus, u.EmploymentStatus)
	setString(&p.Employer, u.Employer)
	setString(&p.Occupation, u.Occupation)
	setFloat(&p.MonthlyIncome, u.MonthlyIncome)
	setFloat(&p.SecondaryIncome, u.SecondaryIncome)
	setString(&p.PayFrequency, u.PayFrequency)

	setString(&p.BankName, u.BankName)
	setString(&p.BankBranch, u.BankBranch)
	setString(&p.BankAccountNumber, u.BankAccountNumber)
	setString(&p.MobileMoneyNumber, u.MobileMoneyNumber)

	setString(&p.NextOfKinName, u.NextOfKinName)
	setString(&p.NextOfKinRelationship, u.NextOfKinRelationship)
	setString(&p.NextOfKinPhone, u.NextOfKinPhone)
	setString(&p.NextOfKinIDNumber, u.NextOfKinIDNumber)
	setString(&p.NextOfKinAddress, u.NextOfKinAddress)

	setString(&p.IDDocumentURL, u.IDDocumentURL)
	setString(&p.SelfieURL, u.SelfieURL)
	setString(&p.PayslipURL, u.PayslipURL)
	setString(&p.StatementURL, u.StatementURL)
}
