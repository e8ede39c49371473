// internal/models/profile.go
package models

import (
	"gorm.io/gorm"
)

// Profile holds the KYC record collected from a borrower: identity,
// contact, employment, banking, next of kin and uploaded document
// references. Created sparse at signup and merged incrementally by the
// KYC forms; never deleted in-app.
type Profile struct {
	gorm.Model
	UserID uint `json:"user_id" gorm:"uniqueIndex"` // Foreign key to User

	// Identity
	FullName      string `json:"full_name"`
	IDNumber      string `json:"id_number"`
	DateOfBirth   string `json:"date_of_birth"`
	Gender        string `json:"gender"`
	MaritalStatus string `json:"marital_status"`
	Nationality   string `json:"nationality"`

	// Contact
	Address        string `json:"address"`
	County         string `json:"county"`
	SubCounty      string `json:"sub_county"`
	Village        string `json:"village"`
	Phone          string `json:"phone"`
	AlternatePhone string `json:"alternate_phone"`

	// Residence geotag captured during field verification, stored in
	// WKB as a POINT (SRID 4326). API input/output is GeoJSON.
	ResidenceLocation []byte `gorm:"type:bytea" json:"-"`

	// Employment
	EmploymentStatus string  `json:"employment_status"` // "employed", "self_employed", "unemployed", "student"
	Employer         string  `json:"employer"`
	Occupation       string  `json:"occupation"`
	MonthlyIncome    float64 `json:"monthly_income"`
	SecondaryIncome  float64 `json:"secondary_income"`
	PayFrequency     string  `json:"pay_frequency"`

	// Banking
	BankName          string `json:"bank_name"`
	BankBranch        string `json:"bank_branch"`
	BankAccountNumber string `json:"bank_account_number"`
	MobileMoneyNumber string `json:"mobile_money_number"`

	// Next of kin
	NextOfKinName         string `json:"next_of_kin_name"`
	NextOfKinRelationship string `json:"next_of_kin_relationship"`
	NextOfKinPhone        string `json:"next_of_kin_phone"`
	NextOfKinIDNumber     string `json:"next_of_kin_id_number"`
	NextOfKinAddress      string `json:"next_of_kin_address"`

	// Document references (upload storage is a collaborator concern)
	IDDocumentURL string `json:"id_document_url"`
	SelfieURL     string `json:"selfie_url"`
	PayslipURL    string `json:"payslip_url"`
	StatementURL  string `json:"statement_url"`
}

// HasDocuments reports whether the two mandatory KYC uploads are already
// on file. The application wizard skips its Documents step when true.
func (p *Profile) HasDocuments() bool {
	return p != nil && p.IDDocumentURL != "" && p.SelfieURL != ""
}
