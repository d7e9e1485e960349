package services

import (
	"testing"
	"time"

	"unilms_go/apperrors"
	"unilms_go/models"
)

func TestRegistrationOpen(t *testing.T) {
	term := models.AcademicTerm{
		RegistrationStart: datePtr(2025, 2, 1),
		RegistrationEnd:   datePtr(2025, 2, 14),
	}

	tests := []struct {
		name string
		day  int
		want bool
	}{
		{"before window", 31, false},
		{"first day", 1, true},
		{"mid window", 7, true},
		{"last day", 14, true},
		{"after window", 15, false},
	}

	for _, tt := range tests {
		month := time.February
		if tt.day == 31 {
			month = time.January
		}
		today := date(2025, month, tt.day)
		if got := registrationOpen(&term, today); got != tt.want {
			t.Errorf("%s: registrationOpen = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRegistrationOpenUnboundedWindow(t *testing.T) {
	term := models.AcademicTerm{}
	if !registrationOpen(&term, date(2025, 6, 1)) {
		t.Error("a term without registration bounds must be open")
	}
}

func TestDropTransition(t *testing.T) {
	term := models.AcademicTerm{
		AcademicYear:       "2024-2025",
		AddDropDeadline:    datePtr(2025, 2, 21),
		WithdrawalDeadline: datePtr(2025, 4, 15),
	}

	tests := []struct {
		name     string
		day      int
		month    int
		want     string
		wantKind apperrors.Kind
	}{
		{"before add/drop deadline", 10, 2, models.EnrollmentDropped, ""},
		{"on add/drop deadline", 21, 2, models.EnrollmentDropped, ""},
		{"after add/drop before withdrawal", 1, 3, models.EnrollmentWithdrawn, ""},
		{"on withdrawal deadline", 15, 4, models.EnrollmentWithdrawn, ""},
		{"after withdrawal deadline", 16, 4, "", apperrors.KindRegistrationClosed},
	}

	for _, tt := range tests {
		got, err := dropTransition(&term, date(2025, time.Month(tt.month), tt.day))
		if tt.wantKind != "" {
			if !apperrors.IsKind(err, tt.wantKind) {
				t.Errorf("%s: error = %v, want kind %s", tt.name, err, tt.wantKind)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: dropTransition = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestDropTransitionNoDeadlines(t *testing.T) {
	// Without deadlines a drop is always a plain drop.
	term := models.AcademicTerm{}
	got, err := dropTransition(&term, date(2025, 6, 1))
	if err != nil || got != models.EnrollmentDropped {
		t.Errorf("dropTransition = %s, %v; want dropped", got, err)
	}
}
