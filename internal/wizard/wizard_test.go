package wizard

import (
	"reflect"
	"testing"
)

func filledForm() FormData {
	return FormData{
		Amount:           10000,
		Purpose:          "stock for kiosk",
		DurationMonths:   3,
		EmploymentStatus: "self_employed",
		MonthlyIncome:    25000,
		Phone:            "+254700000001",
		Address:          "Tom Mboya St, Nairobi",
		NextOfKinName:    "Grace A.",
		NextOfKinPhone:   "+254700000002",
		IDDocumentURL:    "https://cdn.example.com/id.png",
		SelfieURL:        "https://cdn.example.com/selfie.png",
	}
}

func TestStepsDenominator(t *testing.T) {
	if n := len(Steps(false)); n != 5 {
		t.Errorf("expected 5 steps without documents on file, got %d", n)
	}
	if n := len(Steps(true)); n != 4 {
		t.Errorf("expected 4 steps with documents on file, got %d", n)
	}
	for _, s := range Steps(true) {
		if s == StepDocuments {
			t.Error("Documents step present despite documents on file")
		}
	}
}

func TestNextPrevTable(t *testing.T) {
	cases := []struct {
		from       Step
		docsOnFile bool
		wantNext   Step
		wantPrev   Step
	}{
		{StepLoanDetails, false, StepEmployment, StepLoanDetails},
		{StepEmployment, false, StepContactAndKin, StepLoanDetails},
		{StepContactAndKin, false, StepDocuments, StepEmployment},
		{StepDocuments, false, StepSummary, StepContactAndKin},
		{StepSummary, false, StepSummary, StepDocuments},

		// With documents on file the wizard jumps over Documents in
		// both directions.
		{StepContactAndKin, true, StepSummary, StepEmployment},
		{StepSummary, true, StepSummary, StepContactAndKin},
	}

	for _, tc := range cases {
		if got := Next(tc.from, tc.docsOnFile); got != tc.wantNext {
			t.Errorf("Next(%s, docs=%v): want %s got %s", tc.from, tc.docsOnFile, tc.wantNext, got)
		}
		if got := Prev(tc.from, tc.docsOnFile); got != tc.wantPrev {
			t.Errorf("Prev(%s, docs=%v): want %s got %s", tc.from, tc.docsOnFile, tc.wantPrev, got)
		}
	}
}

func TestMissingFieldsGateAdvance(t *testing.T) {
	var f FormData
	want := []string{"amount", "purpose", "duration_months"}
	if got := f.Missing(StepLoanDetails); !reflect.DeepEqual(got, want) {
		t.Errorf("Missing(LoanDetails): want %v got %v", want, got)
	}

	f.Amount = 5000
	f.DurationMonths = 6
	if got := f.Missing(StepLoanDetails); !reflect.DeepEqual(got, []string{"purpose"}) {
		t.Errorf("Missing(LoanDetails): want [purpose] got %v", got)
	}

	f.Purpose = "school fees"
	if !f.CanAdvance(StepLoanDetails) {
		t.Error("expected complete loan details to allow advancing")
	}
}

func TestSessionAdvanceStaysPutWhenGated(t *testing.T) {
	m := NewManager()
	s := m.Start(1, false, FormData{})

	if err := s.Advance(); err != ErrStepGated {
		t.Fatalf("expected ErrStepGated, got %v", err)
	}
	if s.Step != StepLoanDetails {
		t.Fatalf("gated advance moved the step to %s", s.Step)
	}

	s.Form = filledForm()
	for _, want := range []Step{StepEmployment, StepContactAndKin, StepDocuments, StepSummary} {
		if err := s.Advance(); err != nil {
			t.Fatalf("advance to %s: %v", want, err)
		}
		if s.Step != want {
			t.Fatalf("expected step %s, got %s", want, s.Step)
		}
	}
}

func TestSessionDocumentsSkip(t *testing.T) {
	m := NewManager()
	s := m.Start(7, true, filledForm())

	s.Step = StepContactAndKin
	if err := s.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if s.Step != StepSummary {
		t.Fatalf("forward from ContactAndKin should land on Summary, got %s", s.Step)
	}

	s.Back()
	if s.Step != StepContactAndKin {
		t.Fatalf("backward from Summary should land on ContactAndKin, got %s", s.Step)
	}
}

func TestSessionSubmitGuards(t *testing.T) {
	m := NewManager()
	s := m.Start(3, true, filledForm())

	if err := s.BeginSubmit(); err != ErrNotAtSummary {
		t.Fatalf("expected ErrNotAtSummary, got %v", err)
	}

	s.Step = StepSummary
	if err := s.BeginSubmit(); err != nil {
		t.Fatalf("first submit should start: %v", err)
	}
	if err := s.BeginSubmit(); err != ErrSubmitInFlight {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	// A failed submission clears the flag so the user can retry.
	s.EndSubmit()
	if err := s.BeginSubmit(); err != nil {
		t.Fatalf("retry after EndSubmit should start: %v", err)
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	if m.Get(42) != nil {
		t.Fatal("expected no session before Start")
	}
	m.Start(42, false, FormData{})
	if m.Get(42) == nil {
		t.Fatal("expected session after Start")
	}
	m.End(42)
	if m.Get(42) != nil {
		t.Fatal("expected no session after End")
	}
}
