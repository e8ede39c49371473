package amortization

import (
	"math"
	"testing"
	"time"
)

func TestPayment(t *testing.T) {
	cases := []struct {
		name        string
		principal   float64
		termMonths  int
		annualRate  float64
		wantMonthly float64
		wantTotal   float64
	}{
		{"short term", 10000, 3, 15, 3417, 10251},
		{"one year", 10000, 12, 15, 903, 10831},
		{"two years", 50000, 24, 15, 2424, 58184},
		{"zero rate degrades to straight line", 10000, 3, 0, 3333, 10000},
		{"zero term", 10000, 0, 15, 0, 0},
		{"negative term", 10000, -3, 15, 0, 0},
		{"zero principal", 0, 12, 15, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			monthly, total := Payment(tc.principal, tc.termMonths, tc.annualRate)
			if monthly != tc.wantMonthly {
				t.Errorf("monthly: want %v got %v", tc.wantMonthly, monthly)
			}
			if total != tc.wantTotal {
				t.Errorf("total: want %v got %v", tc.wantTotal, total)
			}
		})
	}
}

func TestPaymentNeverNaN(t *testing.T) {
	inputs := []struct {
		principal  float64
		termMonths int
		annualRate float64
	}{
		{math.NaN(), 12, 15},
		{math.Inf(1), 12, 15},
		{10000, 12, math.NaN()},
		{10000, 12, math.Inf(1)},
		{10000, 0, 0},
	}
	for _, in := range inputs {
		monthly, total := Payment(in.principal, in.termMonths, in.annualRate)
		if monthly != 0 || total != 0 {
			t.Errorf("Payment(%v, %d, %v): want (0, 0) got (%v, %v)",
				in.principal, in.termMonths, in.annualRate, monthly, total)
		}
	}
}

// The rounded monthly payment times the term must match the total within
// the slack rounding can introduce, and must be positive for positive rates.
func TestPaymentConsistency(t *testing.T) {
	principals := []float64{1000, 10000, 50000, 120000}
	terms := []int{1, 3, 6, 12, 24, 36}
	rates := []float64{0, 5, 15, 24}

	for _, p := range principals {
		for _, term := range terms {
			for _, rate := range rates {
				monthly, total := Payment(p, term, rate)
				if rate > 0 && monthly <= 0 {
					t.Fatalf("Payment(%v, %d, %v): monthly should be positive, got %v", p, term, rate, monthly)
				}
				slack := float64(term)/2 + 0.5
				if diff := math.Abs(monthly*float64(term) - total); diff > slack {
					t.Errorf("Payment(%v, %d, %v): monthly*term=%v differs from total=%v by %v",
						p, term, rate, monthly*float64(term), total, diff)
				}

				again, _ := Payment(p, term, rate)
				if again != monthly {
					t.Errorf("Payment(%v, %d, %v) not deterministic: %v then %v", p, term, rate, monthly, again)
				}
			}
		}
	}
}

func TestSchedule(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	schedule := Schedule(10000, 3, 15, start)

	if len(schedule) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(schedule))
	}

	monthly, total := Payment(10000, 3, 15)
	var sum float64
	for i, inst := range schedule {
		if inst.Sequence != i+1 {
			t.Errorf("installment %d: sequence %d", i, inst.Sequence)
		}
		if want := start.AddDate(0, i+1, 0); !inst.DueDate.Equal(want) {
			t.Errorf("installment %d: due %v want %v", i, inst.DueDate, want)
		}
		if i < len(schedule)-1 && inst.Amount != monthly {
			t.Errorf("installment %d: amount %v want %v", i, inst.Amount, monthly)
		}
		sum += inst.Amount
	}
	if sum != total {
		t.Errorf("schedule sums to %v, total repayment is %v", sum, total)
	}
}

func TestScheduleZeroTerm(t *testing.T) {
	if s := Schedule(10000, 0, 15, time.Now()); s != nil {
		t.Fatalf("expected nil schedule, got %v", s)
	}
}
