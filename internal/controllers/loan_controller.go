package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mkopo_loans/internal/amortization"
	"mkopo_loans/internal/stores"
)

// DefaultInterestRate is the annual rate (percent) applied when an
// application does not specify one.
const DefaultInterestRate = 15

// EstimatePayment quotes a monthly payment before the borrower starts an
// application. Shares the amortization math with the submission path.
func EstimatePayment(c *gin.Context) {
	var input struct {
		Amount         float64  `json:"amount" binding:"required,gt=0"`
		DurationMonths int      `json:"duration_months" binding:"required,gt=0"`
		InterestRate   *float64 `json:"interest_rate"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid estimate input: " + err.Error()})
		return
	}

	rate := float64(DefaultInterestRate)
	if input.InterestRate != nil {
		rate = *input.InterestRate
	}

	monthly, total := amortization.Payment(input.Amount, input.DurationMonths, rate)
	c.JSON(http.StatusOK, gin.H{
		"amount":          input.Amount,
		"duration_months": input.DurationMonths,
		"interest_rate":   rate,
		"monthly_payment": monthly,
		"total_repayment": total,
	})
}

// GetMyLoans lists the borrower's applications newest-first for the
// dashboard.
func GetMyLoans(c *gin.Context) {
	userID := uint(c.MustGet("user_id").(float64))

	loans, err := stores.Loans.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching loans: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": loans})
}

// GetLoanPayments returns the installment schedule of one of the
// borrower's own loans.
func GetLoanPayments(c *gin.Context) {
	userID := uint(c.MustGet("user_id").(float64))

	loanID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid loan ID format."})
		return
	}

	loan, err := stores.Loans.GetLoan(uint(loanID))
	if err != nil {
		if err == stores.ErrLoanNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Loan not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching loan: " + err.Error()})
		}
		return
	}
	if loan.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Loan belongs to another user"})
		return
	}

	payments, err := stores.Payments.ListByLoan(loan.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching schedule: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan, "payments": payments})
}
