package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mkopo_loans/internal/amortization"
	"mkopo_loans/internal/models"
	"mkopo_loans/internal/stores"
)

// ListLoans serves the review console: every application, optionally
// narrowed by a case-insensitive substring on the loan reference or the
// user id, and by status (all|pending|approved|rejected).
func ListLoans(c *gin.Context) {
	loans, err := stores.Loans.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing loans: " + err.Error()})
		return
	}

	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	status := strings.ToLower(strings.TrimSpace(c.DefaultQuery("status", "all")))

	filtered := loans[:0]
	for _, l := range loans {
		if status != "all" && status != "" && l.Status != status {
			continue
		}
		if q != "" {
			ref := strings.ToLower(l.Reference)
			uid := strconv.FormatUint(uint64(l.UserID), 10)
			if !strings.Contains(ref, q) && !strings.Contains(uid, q) {
				continue
			}
		}
		filtered = append(filtered, l)
	}

	c.JSON(http.StatusOK, gin.H{"data": filtered})
}

// ApproveLoan transitions a pending application to approved, stamps the
// decision time and generates the installment schedule.
func ApproveLoan(c *gin.Context) {
	loanID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid loan ID format."})
		return
	}

	loan, err := stores.Loans.UpdateStatus(uint(loanID), stores.StatusUpdate{Status: models.LoanStatusApproved})
	if err != nil {
		respondStatusError(c, err)
		return
	}

	schedule := amortization.Schedule(loan.Amount, loan.DurationMonths, loan.InterestRate, time.Now())
	payments := make([]models.Payment, 0, len(schedule))
	for _, inst := range schedule {
		payments = append(payments, models.Payment{
			LoanID:   loan.ID,
			Sequence: inst.Sequence,
			Amount:   inst.Amount,
			DueDate:  inst.DueDate,
			Status:   models.PaymentStatusPending,
		})
	}
	if err := stores.Payments.ReplaceForLoan(loan.ID, payments); err != nil {
		// The decision stands; the schedule can be regenerated.
		logrus.WithError(err).WithField("loan_id", loan.ID).Error("ApproveLoan: schedule generation failed")
	}

	Feed.Broadcast(FeedEvent{Type: "loan.approved", Loan: loan})
	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// RejectLoan transitions a pending application to rejected. The reason
// is mandatory and stored verbatim for audit.
func RejectLoan(c *gin.Context) {
	loanID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid loan ID format."})
		return
	}

	var body struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A rejection reason is required"})
		return
	}

	loan, err := stores.Loans.UpdateStatus(uint(loanID), stores.StatusUpdate{
		Status: models.LoanStatusRejected,
		Reason: body.Reason,
	})
	if err != nil {
		respondStatusError(c, err)
		return
	}

	Feed.Broadcast(FeedEvent{Type: "loan.rejected", Loan: loan})
	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// ListBorrowers lists registered borrower accounts for the console.
func ListBorrowers(c *gin.Context) {
	users, err := stores.Users.ListBorrowers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing borrowers: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

func respondStatusError(c *gin.Context, err error) {
	switch err {
	case stores.ErrLoanNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Loan not found"})
	case stores.ErrLoanNotPending:
		c.JSON(http.StatusConflict, gin.H{"error": "Loan has already been decided"})
	case stores.ErrReasonRequired:
		c.JSON(http.StatusBadRequest, gin.H{"error": "A rejection reason is required"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating loan: " + err.Error()})
	}
}
