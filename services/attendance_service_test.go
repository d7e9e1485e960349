package services

import (
	"strings"
	"testing"
	"time"

	"unilms_go/models"

	"gorm.io/gorm/clause"
)

func TestValidateAttendanceDate(t *testing.T) {
	term := models.AcademicTerm{
		StartDate: date(2025, 2, 3),
		EndDate:   date(2025, 5, 30),
	}
	// Wednesday template valid through March only.
	schedule := models.ClassSchedule{
		DayOfWeek:      2,
		EffectiveFrom:  datePtr(2025, 3, 1),
		EffectiveUntil: datePtr(2025, 3, 31),
	}

	tests := []struct {
		name    string
		day     int
		month   int
		wantErr bool
	}{
		{"valid wednesday", 12, 3, false},
		{"wrong weekday", 13, 3, true},
		{"before validity window", 26, 2, true},
		{"after validity window", 2, 4, true},
	}

	for _, tt := range tests {
		d := date(2025, time.Month(tt.month), tt.day)
		err := validateAttendanceDate(&schedule, &term, d)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: validateAttendanceDate(%v) error = %v, wantErr %v", tt.name, d, err, tt.wantErr)
		}
	}
}

func TestAttendanceUpsertAssignments(t *testing.T) {
	assignments := attendanceUpsertAssignments()

	byColumn := make(map[string]interface{}, len(assignments))
	for _, a := range assignments {
		byColumn[a.Column.Name] = a.Value
	}

	for _, col := range []string{"status", "notes", "marked_by", "marked_at"} {
		if _, ok := byColumn[col]; !ok {
			t.Errorf("column %s missing from upsert assignments", col)
		}
	}
	// Check-in/out must coalesce so omitted times never clear stored ones.
	for _, col := range []string{"check_in_time", "check_out_time"} {
		v, ok := byColumn[col]
		if !ok {
			t.Errorf("column %s missing from upsert assignments", col)
			continue
		}
		expr, ok := v.(clause.Expr)
		if !ok || !strings.Contains(expr.SQL, "COALESCE") {
			t.Errorf("column %s must coalesce with the stored value, got %v", col, v)
		}
	}
}

func TestValidateAttendanceDateUnboundedTemplate(t *testing.T) {
	term := models.AcademicTerm{
		StartDate: date(2025, 2, 3),
		EndDate:   date(2025, 5, 30),
	}
	schedule := models.ClassSchedule{DayOfWeek: 0}

	// Mondays anywhere in the term are fine.
	if err := validateAttendanceDate(&schedule, &term, date(2025, 2, 10)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	// Outside the term is not, even without a validity window.
	if err := validateAttendanceDate(&schedule, &term, date(2025, 6, 2)); err == nil {
		t.Error("date outside the term must be rejected")
	}
}
