package models

import (
	"testing"
	"time"
)

func TestLocalizedTextResolve(t *testing.T) {
	full := LocalizedText{"en": "Mathematics", "az": "Riyaziyyat", "ru": "Математика"}

	tests := []struct {
		name string
		text LocalizedText
		lang string
		want string
	}{
		{"requested language", full, "az", "Riyaziyyat"},
		{"fallback to en", LocalizedText{"en": "Mathematics"}, "az", "Mathematics"},
		{"fallback to az", LocalizedText{"az": "Riyaziyyat"}, "en", "Riyaziyyat"},
		{"any value last resort", LocalizedText{"ru": "Математика"}, "en", "Математика"},
		{"empty mapping", LocalizedText{}, "en", ""},
		{"nil mapping", nil, "en", ""},
		{"empty string skipped", LocalizedText{"az": "", "en": "Mathematics"}, "az", "Mathematics"},
	}

	for _, tt := range tests {
		if got := tt.text.Resolve(tt.lang); got != tt.want {
			t.Errorf("%s: Resolve(%q) = %q, want %q", tt.name, tt.lang, got, tt.want)
		}
	}
}

func TestLocalizedTextRoundTrip(t *testing.T) {
	original := LocalizedText{"en": "Physics", "az": "Fizika"}
	v, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned LocalizedText
	if err := scanned.Scan(v); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if scanned["en"] != "Physics" || scanned["az"] != "Fizika" {
		t.Errorf("round trip lost data: %v", scanned)
	}

	var nilText LocalizedText
	if err := nilText.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if nilText != nil {
		t.Errorf("Scan(nil) = %v, want nil", nilText)
	}
}

func TestNormalizeEnrollmentStatus(t *testing.T) {
	if got := NormalizeEnrollmentStatus("active"); got != EnrollmentEnrolled {
		t.Errorf("NormalizeEnrollmentStatus(active) = %s, want enrolled", got)
	}
	for _, s := range []string{EnrollmentEnrolled, EnrollmentDropped, EnrollmentWithdrawn, EnrollmentCompleted} {
		if got := NormalizeEnrollmentStatus(s); got != s {
			t.Errorf("NormalizeEnrollmentStatus(%s) = %s, want unchanged", s, got)
		}
	}
}

func TestDayOfWeekFor(t *testing.T) {
	tests := []struct {
		weekday time.Weekday
		want    int
	}{
		{time.Monday, 0},
		{time.Tuesday, 1},
		{time.Wednesday, 2},
		{time.Thursday, 3},
		{time.Friday, 4},
		{time.Saturday, 5},
		{time.Sunday, 6},
	}
	for _, tt := range tests {
		if got := DayOfWeekFor(tt.weekday); got != tt.want {
			t.Errorf("DayOfWeekFor(%s) = %d, want %d", tt.weekday, got, tt.want)
		}
	}
}

func TestIsAdministrativeRole(t *testing.T) {
	for _, role := range AdministrativeRoles {
		if !IsAdministrativeRole(role) {
			t.Errorf("IsAdministrativeRole(%s) = false", role)
		}
	}
	for _, role := range []string{"professor", "lecturer", "", "RECTOR"} {
		if IsAdministrativeRole(role) {
			t.Errorf("IsAdministrativeRole(%s) = true", role)
		}
	}
}

func TestEnrollmentIsLive(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{EnrollmentEnrolled, true},
		{EnrollmentCompleted, true},
		{EnrollmentDropped, false},
		{EnrollmentWithdrawn, false},
	}
	for _, tt := range tests {
		e := CourseEnrollment{EnrollmentStatus: tt.status}
		if got := e.IsLive(); got != tt.want {
			t.Errorf("IsLive(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
