package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mkopo_loans/internal/amortization"
	"mkopo_loans/internal/models"
	"mkopo_loans/internal/stores"
	"mkopo_loans/internal/wizard"
)

// Wizard holds every in-progress application, one session per borrower.
var Wizard = wizard.NewManager()

// applicationPatch lets the client save any subset of wizard fields;
// omitted fields keep their current value.
type applicationPatch struct {
	Amount         *float64 `json:"amount"`
	Purpose        *string  `json:"purpose"`
	DurationMonths *int     `json:"duration_months"`
	InterestRate   *float64 `json:"interest_rate"`

	EmploymentStatus *string  `json:"employment_status"`
	Employer         *string  `json:"employer"`
	Occupation       *string  `json:"occupation"`
	MonthlyIncome    *float64 `json:"monthly_income"`

	Phone            *string `json:"phone"`
	Address          *string `json:"address"`
	NextOfKinName    *string `json:"next_of_kin_name"`
	NextOfKinPhone   *string `json:"next_of_kin_phone"`
	NextOfKinRelship *string `json:"next_of_kin_relationship"`

	IDDocumentURL *string `json:"id_document_url"`
	SelfieURL     *string `json:"selfie_url"`
	PayslipURL    *string `json:"payslip_url"`
}

func (p applicationPatch) apply(f *wizard.FormData) {
	if p.Amount != nil {
		f.Amount = *p.Amount
	}
	if p.Purpose != nil {
		f.Purpose = *p.Purpose
	}
	if p.DurationMonths != nil {
		f.DurationMonths = *p.DurationMonths
	}
	if p.InterestRate != nil {
		f.InterestRate = *p.InterestRate
	}
	if p.EmploymentStatus != nil {
		f.EmploymentStatus = *p.EmploymentStatus
	}
	if p.Employer != nil {
		f.Employer = *p.Employer
	}
	if p.Occupation != nil {
		f.Occupation = *p.Occupation
	}
	if p.MonthlyIncome != nil {
		f.MonthlyIncome = *p.MonthlyIncome
	}
	if p.Phone != nil {
		f.Phone = *p.Phone
	}
	if p.Address != nil {
		f.Address = *p.Address
	}
	if p.NextOfKinName != nil {
		f.NextOfKinName = *p.NextOfKinName
	}
	if p.NextOfKinPhone != nil {
		f.NextOfKinPhone = *p.NextOfKinPhone
	}
	if p.NextOfKinRelship != nil {
		f.NextOfKinRelship = *p.NextOfKinRelship
	}
	if p.IDDocumentURL != nil {
		f.IDDocumentURL = *p.IDDocumentURL
	}
	if p.SelfieURL != nil {
		f.SelfieURL = *p.SelfieURL
	}
	if p.PayslipURL != nil {
		f.PayslipURL = *p.PayslipURL
	}
}

func sessionResponse(s *wizard.Session) gin.H {
	steps := wizard.Steps(s.DocsOnFile)
	return gin.H{
		"step":        s.Step,
		"step_index":  wizard.Index(s.Step, s.DocsOnFile),
		"step_count":  len(steps),
		"steps":       steps,
		"form":        s.Form,
		"can_advance": s.Form.CanAdvance(s.Step),
	}
}

// StartApplication opens (or restarts) the wizard for the borrower,
// pre-filled from the KYC profile. When the profile already carries both
// document uploads, the Documents step disappears from the flow.
func StartApplication(c *gin.Context) {
	userID := uint(c.MustGet("user_id").(float64))

	profile, err := stores.Profiles.Get(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile: " + err.Error()})
		return
	}

	seed := wizard.FormData{InterestRate: DefaultInterestRate}
	if profile != nil {
		seed.EmploymentStatus = profile.EmploymentStatus
		seed.Employer = profile.Employer
		seed.Occupation = profile.Occupation
		seed.MonthlyIncome = profile.MonthlyIncome
		seed.Phone = profile.Phone
		seed.Address = profile.Address
		seed.NextOfKinName = profile.NextOfKinName
		seed.NextOfKinPhone = profile.NextOfKinPhone
		seed.NextOfKinRelship = profile.NextOfKinRelationship
	}

	session := Wizard.Start(userID, profile.HasDocuments(), seed)
	c.JSON(http.StatusCreated, gin.H{"application": sessionResponse(session)})
}

// GetApplication returns the wizard state so a reloaded client can
// resume where it left off.
func GetApplication(c *gin.Context) {
	userID := uint(c.MustGet("user_id").(float64))

	session := Wizard.Get(userID)
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no application in progress"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": sessionResponse(session)})
}

// UpdateApplication merges submitted fields into the wizard form.
func UpdateApplication(c *gin.Context) {
	userID := uint(c.MustGet("user_id").(float64))

	session := Wizard.Get(userID)
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no application in progress"})
		return
	}

	var patch applicationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application input: " + err.Error()})
		return
	}

	patch.apply(&session.Form)
	c.JSON(http.StatusOK, gin.H{"application": sessionResponse(session)})
}

// AdvanceApplication moves to the next step. When required fields of the
// current step are missing the step is left unchanged and the missing
// field names are reported for inline display.
func AdvanceApplication(c *gin.Context) {
	userID := uint(c.MustGet("user_id").(float64))

	session := Wizard.Get(userID)
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no application in progress"})
		return
	}

	if err := session.Advance(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "required fields missing",
			"missing": session.Form.Missing(session.Step),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"application": sessionResponse(session)})
}

// BackApplication moves one step backward, honoring the Documents skip.
func BackApplication(c *gin.Context) {
	userID := uint(c.MustGet("user_id").(float64))

	session := Wizard.Get(userID)
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no application in progress"})
		return
	}

	session.Back()
	c.JSON(http.StatusOK, gin.H{"application": sessionResponse(session)})
}

// AbandonApplication discards the in-progress wizard session.
func AbandonApplication(c *gin.Context) {
	userID := uint(c.MustGet("user_id").(float64))
	Wizard.End(userID)
	c.JSON(http.StatusOK, gin.H{"message": "application discarded"})
}

// SubmitApplication files the loan: wizard input merged with profile
// fallbacks, payment computed by the shared amortization math, record
// created pending. Double submission is refused while one is in flight.
func SubmitApplication(c *gin.Context) {
	userID := uint(c.MustGet("user_id").(float64))

	session := Wizard.Get(userID)
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no application in progress"})
		return
	}

	if err := session.BeginSubmit(); err != nil {
		switch err {
		case wizard.ErrSubmitInFlight:
			c.JSON(http.StatusConflict, gin.H{"error": "submission already in progress"})
		default:
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		}
		return
	}

	profile, err := stores.Profiles.Get(userID)
	if err != nil {
		session.EndSubmit()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile: " + err.Error()})
		return
	}

	loan := buildLoan(userID, session.Form, profile)
	created, err := stores.Loans.CreateLoan(loan)
	if err != nil {
		// Clear the in-flight flag so the user can retry.
		session.EndSubmit()
		logrus.WithError(err).Error("SubmitApplication: create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not submit application: " + err.Error()})
		return
	}

	Wizard.End(userID)
	Feed.Broadcast(FeedEvent{Type: "loan.submitted", Loan: created})

	c.JSON(http.StatusCreated, gin.H{
		"loan": created,
		"next": "/dashboard",
	})
}

// buildLoan merges the wizard form with profile fallbacks for the
// income, contact and document fields, and computes the repayment
// figures once via the shared formula.
func buildLoan(userID uint, form wizard.FormData, profile *models.Profile) models.Loan {
	rate := form.InterestRate
	if rate <= 0 {
		rate = DefaultInterestRate
	}
	monthly, total := amortization.Payment(form.Amount, form.DurationMonths, rate)

	loan := models.Loan{
		UserID:           userID,
		Amount:           form.Amount,
		Purpose:          form.Purpose,
		DurationMonths:   form.DurationMonths,
		InterestRate:     rate,
		MonthlyPayment:   monthly,
		TotalRepayment:   total,
		EmploymentStatus: form.EmploymentStatus,
		Employer:         form.Employer,
		Occupation:       form.Occupation,
		MonthlyIncome:    form.MonthlyIncome,
		IDDocumentURL:    form.IDDocumentURL,
		SelfieURL:        form.SelfieURL,
		PayslipURL:       form.PayslipURL,
	}

	if profile != nil {
		if loan.EmploymentStatus == "" {
			loan.EmploymentStatus = profile.EmploymentStatus
		}
		if loan.Employer == "" {
			loan.Employer = profile.Employer
		}
		if loan.Occupation == "" {
			loan.Occupation = profile.Occupation
		}
		if loan.MonthlyIncome == 0 {
			loan.MonthlyIncome = profile.MonthlyIncome
		}
		if loan.IDDocumentURL == "" {
			loan.IDDocumentURL = profile.IDDocumentURL
		}
		if loan.SelfieURL == "" {
			loan.SelfieURL = profile.SelfieURL
		}
		if loan.PayslipURL == "" {
			loan.PayslipURL = profile.PayslipURL
		}
	}
	return loan
}
