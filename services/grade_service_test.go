package services

import (
	"math"
	"testing"

	"unilms_go/models"
)

func defaultScale() []models.GradePointScale {
	return []models.GradePointScale{
		{LetterGrade: "F", GradePoints: 0.0, MinPercentage: 0, MaxPercentage: 49.99, DisplayOrder: 1, IsPassing: false},
		{LetterGrade: "D", GradePoints: 1.0, MinPercentage: 50, MaxPercentage: 59.99, DisplayOrder: 2, IsPassing: true},
		{LetterGrade: "C", GradePoints: 2.0, MinPercentage: 60, MaxPercentage: 69.99, DisplayOrder: 3, IsPassing: true},
		{LetterGrade: "B", GradePoints: 3.0, MinPercentage: 70, MaxPercentage: 84.99, DisplayOrder: 4, IsPassing: true},
		{LetterGrade: "A", GradePoints: 4.0, MinPercentage: 85, MaxPercentage: 100, DisplayOrder: 5, IsPassing: true},
	}
}

func TestLetterForPercentage(t *testing.T) {
	scale := defaultScale()
	tests := []struct {
		percentage float64
		want       string
	}{
		{100, "A"},
		{85, "A"},
		{84.5, "B"},
		{70, "B"},
		{65, "C"},
		{50, "D"},
		{49.5, "F"},
		{0, "F"},
	}

	for _, tt := range tests {
		got := letterForPercentage(scale, tt.percentage)
		if got == nil {
			t.Errorf("letterForPercentage(%.2f) = nil, want %s", tt.percentage, tt.want)
			continue
		}
		if got.LetterGrade != tt.want {
			t.Errorf("letterForPercentage(%.2f) = %s, want %s", tt.percentage, got.LetterGrade, tt.want)
		}
	}
}

func TestLetterForPercentageGap(t *testing.T) {
	scale := defaultScale()

	// Values falling in the float gap between bands resolve to the band
	// below, and values above the top band clamp to it.
	tests := []struct {
		percentage float64
		want       string
	}{
		{84.995, "B"},
		{89.995, "A"},
		{49.995, "F"},
		{101, "A"},
	}
	for _, tt := range tests {
		got := letterForPercentage(scale, tt.percentage)
		if got == nil {
			t.Errorf("letterForPercentage(%.3f) = nil, want %s", tt.percentage, tt.want)
			continue
		}
		if got.LetterGrade != tt.want {
			t.Errorf("letterForPercentage(%.3f) = %s, want %s", tt.percentage, got.LetterGrade, tt.want)
		}
	}

	if got := letterForPercentage(scale, -1); got != nil {
		t.Errorf("percentage below every band must not resolve, got %s", got.LetterGrade)
	}
}

func TestScaleEntryForLetter(t *testing.T) {
	scale := defaultScale()
	if got := scaleEntryForLetter(scale, "B"); got == nil || got.GradePoints != 3.0 {
		t.Errorf("scaleEntryForLetter(B) = %v, want 3.0 points", got)
	}
	if got := scaleEntryForLetter(scale, "X"); got != nil {
		t.Error("unknown letter must return nil")
	}
}

func TestPassingThreshold(t *testing.T) {
	if got := passingThreshold(defaultScale()); got != 1.0 {
		t.Errorf("passingThreshold = %.2f, want 1.0", got)
	}
	if got := passingThreshold(nil); got != 0 {
		t.Errorf("passingThreshold of empty scale = %.2f, want 0", got)
	}
}

func TestWeightedFinal(t *testing.T) {
	tests := []struct {
		name    string
		entries []assessmentGrade
		want    float64
	}{
		{
			"simple average",
			[]assessmentGrade{
				{Weight: 50, Percentage: 80, HasGrade: true},
				{Weight: 50, Percentage: 60, HasGrade: true},
			},
			70,
		},
		{
			"missing counts as zero",
			[]assessmentGrade{
				{Weight: 50, Percentage: 80, HasGrade: true},
				{Weight: 50},
			},
			40,
		},
		{
			"excused drops from both sums",
			[]assessmentGrade{
				{Weight: 50, Percentage: 80, HasGrade: true},
				{Weight: 50, Excused: true},
			},
			80,
		},
		{
			"weights not summing to 100 still normalize",
			[]assessmentGrade{
				{Weight: 30, Percentage: 90, HasGrade: true},
				{Weight: 30, Percentage: 70, HasGrade: true},
			},
			80,
		},
		{"no entries", nil, 0},
		{
			"all excused",
			[]assessmentGrade{{Weight: 100, Excused: true}},
			0,
		},
	}

	for _, tt := range tests {
		got := weightedFinal(tt.entries)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: weightedFinal = %.4f, want %.4f", tt.name, got, tt.want)
		}
	}
}

func TestComputeGPA(t *testing.T) {
	// Two completed courses: 4 credits at 4.0 and 3 credits at 3.0.
	entries := []gpaEntry{
		{GradePoints: 4.0, CreditHours: 4},
		{GradePoints: 3.0, CreditHours: 3},
	}
	got := computeGPA(entries)
	if got == nil {
		t.Fatal("computeGPA returned nil for non-empty entries")
	}
	want := 25.0 / 7.0
	if math.Abs(*got-want) > 1e-9 {
		t.Errorf("computeGPA = %.6f, want %.6f", *got, want)
	}
}

func completedEnrollment(points float64, credits int) models.CourseEnrollment {
	return models.CourseEnrollment{
		GradePoints: &points,
		CourseOffering: models.CourseOffering{
			Course: models.Course{CreditHours: credits},
		},
	}
}

func TestStudentAggregates(t *testing.T) {
	completed := []models.CourseEnrollment{
		completedEnrollment(4.0, 4),
		completedEnrollment(3.0, 3),
	}
	gpa, earned := studentAggregates(completed, 1.0)
	if gpa == nil {
		t.Fatal("studentAggregates returned nil gpa for passing enrollments")
	}
	if want := 25.0 / 7.0; math.Abs(*gpa-want) > 1e-9 {
		t.Errorf("gpa = %.6f, want %.6f", *gpa, want)
	}
	if earned != 7 {
		t.Errorf("earned credits = %d, want 7", earned)
	}
}

func TestStudentAggregatesFailingOnly(t *testing.T) {
	// Failing grades earn no credits; gpa must then be null, not 0.0.
	completed := []models.CourseEnrollment{
		completedEnrollment(0.0, 4),
		completedEnrollment(0.0, 3),
	}
	gpa, earned := studentAggregates(completed, 1.0)
	if earned != 0 {
		t.Errorf("earned credits = %d, want 0", earned)
	}
	if gpa != nil {
		t.Errorf("gpa = %.2f, want nil when no credits are earned", *gpa)
	}
}

func TestStudentAggregatesMixed(t *testing.T) {
	// A failing course still weighs into the GPA but earns nothing.
	completed := []models.CourseEnrollment{
		completedEnrollment(4.0, 3),
		completedEnrollment(0.0, 3),
	}
	gpa, earned := studentAggregates(completed, 1.0)
	if gpa == nil {
		t.Fatal("studentAggregates returned nil gpa with a passing course present")
	}
	if math.Abs(*gpa-2.0) > 1e-9 {
		t.Errorf("gpa = %.6f, want 2.0", *gpa)
	}
	if earned != 3 {
		t.Errorf("earned credits = %d, want 3", earned)
	}
}

func TestComputeGPANoCredits(t *testing.T) {
	if got := computeGPA(nil); got != nil {
		t.Errorf("computeGPA of no entries = %v, want nil", *got)
	}
	if got := computeGPA([]gpaEntry{{GradePoints: 4.0, CreditHours: 0}}); got != nil {
		t.Errorf("computeGPA with zero credit hours = %v, want nil", *got)
	}
}
