// Package wizard drives the multi-step loan application: an ordered set
// of steps, per-step required-field gating, and the rule that the
// Documents step only exists while the borrower's KYC uploads are missing.
package wizard

// Step identifies one screen of the application flow.
type Step string

const (
	StepLoanDetails   Step = "loan_details"
	StepEmployment    Step = "employment"
	StepContactAndKin Step = "contact_and_kin"
	StepDocuments     Step = "documents"
	StepSummary       Step = "summary"
)

// Steps returns the ordered step list for a session. When the profile
// already holds both an id document and a selfie, Documents is absent and
// the progress denominator shrinks with it.
func Steps(docsOnFile bool) []Step {
	if docsOnFile {
		return []Step{StepLoanDetails, StepEmployment, StepContactAndKin, StepSummary}
	}
	return []Step{StepLoanDetails, StepEmployment, StepContactAndKin, StepDocuments, StepSummary}
}

// Next returns the step after s, skipping Documents when the uploads are
// already on file. The last step maps to itself.
func Next(s Step, docsOnFile bool) Step {
	steps := Steps(docsOnFile)
	for i, st := range steps {
		if st == s {
			if i == len(steps)-1 {
				return st
			}
			return steps[i+1]
		}
	}
	return steps[0]
}

// Prev is the mirror of Next. The first step maps to itself.
func Prev(s Step, docsOnFile bool) Step {
	steps := Steps(docsOnFile)
	for i, st := range steps {
		if st == s {
			if i == 0 {
				return st
			}
			return steps[i-1]
		}
	}
	return steps[0]
}

// Index returns the 0-based position of s within the session's step list,
// for rendering "step N of M" progress.
func Index(s Step, docsOnFile bool) int {
	for i, st := range Steps(docsOnFile) {
		if st == s {
			return i
		}
	}
	return 0
}

// FormData accumulates everything the wizard collects across its steps.
type FormData struct {
	// Loan details
	Amount         float64 `json:"amount"`
	Purpose        string  `json:"purpose"`
	DurationMonths int     `json:"duration_months"`
	InterestRate   float64 `json:"interest_rate"`

	// Employment
	EmploymentStatus string  `json:"employment_status"`
	Employer         string  `json:"employer"`
	Occupation       string  `json:"occupation"`
	MonthlyIncome    float64 `json:"monthly_income"`

	// Contact and next of kin
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	NextOfKinName    string `json:"next_of_kin_name"`
	NextOfKinPhone   string `json:"next_of_kin_phone"`
	NextOfKinRelship string `json:"next_of_kin_relationship"`

	// Documents (collected only while the profile lacks them)
	IDDocumentURL string `json:"id_document_url"`
	SelfieURL     string `json:"selfie_url"`
	PayslipURL    string `json:"payslip_url"`
}

// Missing lists the required fields of step s not yet satisfied by f.
// An empty result means the "next" transition is enabled.
func (f *FormData) Missing(s Step) []string {
	var missing []string
	switch s {
	case StepLoanDetails:
		if f.Amount <= 0 {
			missing = append(missing, "amount")
		}
		if f.Purpose == "" {
			missing = append(missing, "purpose")
		}
		if f.DurationMonths <= 0 {
			missing = append(missing, "duration_months")
		}
	case StepEmployment:
		if f.EmploymentStatus == "" {
			missing = append(missing, "employment_status")
		}
		if f.MonthlyIncome <= 0 {
			missing = append(missing, "monthly_income")
		}
	case StepContactAndKin:
		if f.Phone == "" {
			missing = append(missing, "phone")
		}
		if f.Address == "" {
			missing = append(missing, "address")
		}
		if f.NextOfKinName == "" {
			missing = append(missing, "next_of_kin_name")
		}
		if f.NextOfKinPhone == "" {
			missing = append(missing, "next_of_kin_phone")
		}
	case StepDocuments:
		if f.IDDocumentURL == "" {
			missing = append(missing, "id_document_url")
		}
		if f.SelfieURL == "" {
			missing = append(missing, "selfie_url")
		}
	}
	return missing
}

// CanAdvance reports whether every required field of step s is filled.
func (f *FormData) CanAdvance(s Step) bool {
	return len(f.Missing(s)) == 0
}
