// Package amortization computes fixed monthly installments for a loan.
// The same formula backs the pre-application estimator, the wizard's
// final submission and the installment schedule generated on approval.
package amortization

import (
	"math"
	"time"
)

// Payment returns the amortized monthly payment and the total repayment
// for the given principal, term in months and annual interest rate in
// percent. Both values are rounded to the nearest currency unit.
//
// A term of zero, a non-positive principal or a non-finite intermediate
// result yields (0, 0) so callers never render NaN in a summary panel.
func Payment(principal float64, termMonths int, annualRate float64) (monthly, total float64) {
	if termMonths <= 0 || principal <= 0 || !isFinite(principal) || !isFinite(annualRate) {
		return 0, 0
	}

	monthlyRate := annualRate / 100 / 12
	var m float64
	if monthlyRate == 0 {
		m = principal / float64(termMonths)
	} else {
		m = principal * monthlyRate / (1 - math.Pow(1+monthlyRate, -float64(termMonths)))
	}
	if !isFinite(m) {
		return 0, 0
	}

	return math.Round(m), math.Round(m * float64(termMonths))
}

// Installment is one row of a repayment schedule.
type Installment struct {
	Sequence int
	Amount   float64
	DueDate  time.Time
}

// Schedule expands the amortized payment into dated installments, one per
// month starting one month after start. The final installment absorbs the
// rounding remainder so the schedule sums to the total repayment.
func Schedule(principal float64, termMonths int, annualRate float64, start time.Time) []Installment {
	monthly, total := Payment(principal, termMonths, annualRate)
	if monthly == 0 {
		return nil
	}

	schedule := make([]Installment, 0, termMonths)
	for i := 1; i <= termMonths; i++ {
		amount := monthly
		if i == termMonths {
			amount = total - monthly*float64(termMonths-1)
		}
		schedule = append(schedule, Installment{
			Sequence: i,
			Amount:   amount,
			DueDate:  start.AddDate(0, i, 0),
		})
	}
	return schedule
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
