package services

import (
	"testing"
	"time"

	"unilms_go/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestParseHourMinute(t *testing.T) {
	tests := []struct {
		input    string
		wantH    int
		wantM    int
		wantErr  bool
	}{
		{"14:00", 14, 0, false},
		{"9:05", 9, 5, false},
		{"09:05", 9, 5, false},
		{"23:59", 23, 59, false},
		{"2025-03-05T14:30:00Z", 14, 30, false},
		{"2025-03-05 08:15:00", 8, 15, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"noon", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		h, m, err := parseHourMinute(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseHourMinute(%q) expected error, got %d:%d", tt.input, h, m)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseHourMinute(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if h != tt.wantH || m != tt.wantM {
			t.Errorf("parseHourMinute(%q) = %d:%d, want %d:%d", tt.input, h, m, tt.wantH, tt.wantM)
		}
	}
}

func TestCanonicalHourMinute(t *testing.T) {
	if got, err := canonicalHourMinute("9:5"); err == nil {
		t.Errorf("canonicalHourMinute(\"9:5\") = %q; single-digit minutes must not parse", got)
	}
	got, err := canonicalHourMinute("9:30")
	if err != nil || got != "09:30" {
		t.Errorf("canonicalHourMinute(\"9:30\") = %q, %v; want \"09:30\"", got, err)
	}
}

func TestTimeRangesOverlap(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd string
		want                       bool
	}{
		{"identical", "09:00", "10:00", "09:00", "10:00", true},
		{"contained", "09:00", "12:00", "10:00", "11:00", true},
		{"partial", "09:00", "10:30", "10:00", "11:00", true},
		{"touching end-start", "09:00", "10:00", "10:00", "11:00", false},
		{"touching start-end", "10:00", "11:00", "09:00", "10:00", false},
		{"disjoint", "09:00", "10:00", "14:00", "15:00", false},
	}

	for _, tt := range tests {
		if got := timeRangesOverlap(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
			t.Errorf("%s: timeRangesOverlap = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValidityWindowsIntersect(t *testing.T) {
	tests := []struct {
		name           string
		aFrom, aUntil  *time.Time
		bFrom, bUntil  *time.Time
		want           bool
	}{
		{"both unbounded", nil, nil, nil, nil, true},
		{"a before b", datePtr(2025, 1, 1), datePtr(2025, 2, 1), datePtr(2025, 3, 1), datePtr(2025, 4, 1), false},
		{"a after b", datePtr(2025, 3, 1), datePtr(2025, 4, 1), datePtr(2025, 1, 1), datePtr(2025, 2, 1), false},
		{"overlapping", datePtr(2025, 1, 1), datePtr(2025, 3, 1), datePtr(2025, 2, 1), datePtr(2025, 4, 1), true},
		{"touching endpoints", datePtr(2025, 1, 1), datePtr(2025, 2, 1), datePtr(2025, 2, 1), datePtr(2025, 3, 1), true},
		{"one side unbounded", nil, datePtr(2025, 2, 1), datePtr(2025, 1, 15), nil, true},
	}

	for _, tt := range tests {
		if got := validityWindowsIntersect(tt.aFrom, tt.aUntil, tt.bFrom, tt.bUntil); got != tt.want {
			t.Errorf("%s: validityWindowsIntersect = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTemplatesCollide(t *testing.T) {
	base := models.ClassSchedule{DayOfWeek: 2, StartTime: "14:00", EndTime: "15:30"}

	sameSlot := base
	if !templatesCollide(&base, &sameSlot) {
		t.Error("identical templates must collide")
	}

	otherDay := base
	otherDay.DayOfWeek = 3
	if templatesCollide(&base, &otherDay) {
		t.Error("different weekdays must not collide")
	}

	adjacent := base
	adjacent.StartTime, adjacent.EndTime = "15:30", "17:00"
	if templatesCollide(&base, &adjacent) {
		t.Error("back-to-back slots must not collide")
	}

	disjointWindow := base
	disjointWindow.EffectiveFrom = datePtr(2025, 6, 1)
	boundedBase := base
	boundedBase.EffectiveUntil = datePtr(2025, 5, 1)
	if templatesCollide(&boundedBase, &disjointWindow) {
		t.Error("disjoint validity windows must not collide")
	}
}

func TestFirstOnOrAfter(t *testing.T) {
	// 2025-03-01 is a Saturday; the next Wednesday (day 2) is March 5.
	got := firstOnOrAfter(date(2025, 3, 1), 2)
	if !got.Equal(date(2025, 3, 5)) {
		t.Errorf("firstOnOrAfter = %v, want 2025-03-05", got)
	}

	// A Wednesday maps to itself.
	got = firstOnOrAfter(date(2025, 3, 5), 2)
	if !got.Equal(date(2025, 3, 5)) {
		t.Errorf("firstOnOrAfter on matching day = %v, want 2025-03-05", got)
	}
}

func TestExpandTemplateDates(t *testing.T) {
	term := models.AcademicTerm{
		StartDate: date(2025, 2, 3),
		EndDate:   date(2025, 5, 30),
	}
	tpl := models.ClassSchedule{DayOfWeek: 2, StartTime: "14:00", EndTime: "15:30"}

	dates := expandTemplateDates(&tpl, &term, date(2025, 3, 1), date(2025, 3, 22))
	want := []time.Time{date(2025, 3, 5), date(2025, 3, 12), date(2025, 3, 19)}
	if len(dates) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(dates), len(want), dates)
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("dates[%d] = %v, want %v", i, dates[i], want[i])
		}
	}
}

func TestExpandTemplateDatesPrefixLaw(t *testing.T) {
	// Expanding a longer range must begin with the expansion of any shorter
	// prefix of that range.
	term := models.AcademicTerm{
		StartDate: date(2025, 2, 3),
		EndDate:   date(2025, 5, 30),
	}
	tpl := models.ClassSchedule{DayOfWeek: 0, StartTime: "09:00", EndTime: "10:00"}

	long := expandTemplateDates(&tpl, &term, date(2025, 2, 3), date(2025, 5, 30))
	short := expandTemplateDates(&tpl, &term, date(2025, 2, 3), date(2025, 3, 15))

	if len(short) == 0 || len(long) < len(short) {
		t.Fatalf("unexpected sizes: short=%d long=%d", len(short), len(long))
	}
	for i := range short {
		if !long[i].Equal(short[i]) {
			t.Errorf("prefix mismatch at %d: %v vs %v", i, long[i], short[i])
		}
	}
}

func TestExpandTemplateDatesClampsToValidity(t *testing.T) {
	term := models.AcademicTerm{
		StartDate: date(2025, 2, 3),
		EndDate:   date(2025, 5, 30),
	}
	tpl := models.ClassSchedule{
		DayOfWeek:      2,
		StartTime:      "14:00",
		EndTime:        "15:30",
		EffectiveFrom:  datePtr(2025, 3, 10),
		EffectiveUntil: datePtr(2025, 3, 31),
	}

	dates := expandTemplateDates(&tpl, &term, date(2025, 2, 3), date(2025, 5, 30))
	want := []time.Time{date(2025, 3, 12), date(2025, 3, 19), date(2025, 3, 26)}
	if len(dates) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(dates), len(want), dates)
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("dates[%d] = %v, want %v", i, dates[i], want[i])
		}
	}
}

func TestCourseColorStable(t *testing.T) {
	a := courseColor("CS101")
	b := courseColor("CS101")
	if a != b {
		t.Errorf("courseColor not stable: %s vs %s", a, b)
	}
	if a == "" {
		t.Error("courseColor returned empty string")
	}
}

func TestValidateTemplate(t *testing.T) {
	term := models.AcademicTerm{
		AcademicYear: "2024-2025",
		StartDate:    date(2025, 2, 3),
		EndDate:      date(2025, 5, 30),
	}

	tests := []struct {
		name    string
		tpl     models.ClassSchedule
		wantErr bool
	}{
		{"valid", models.ClassSchedule{DayOfWeek: 2, StartTime: "14:00", EndTime: "15:30"}, false},
		{"normalizes single digit hour", models.ClassSchedule{DayOfWeek: 0, StartTime: "9:00", EndTime: "10:00"}, false},
		{"start after end", models.ClassSchedule{DayOfWeek: 2, StartTime: "16:00", EndTime: "15:00"}, true},
		{"zero length", models.ClassSchedule{DayOfWeek: 2, StartTime: "14:00", EndTime: "14:00"}, true},
		{"bad day", models.ClassSchedule{DayOfWeek: 7, StartTime: "14:00", EndTime: "15:00"}, true},
		{"window outside term", models.ClassSchedule{
			DayOfWeek: 2, StartTime: "14:00", EndTime: "15:00",
			EffectiveFrom: datePtr(2025, 7, 1), EffectiveUntil: datePtr(2025, 8, 1),
		}, true},
		{"inverted window", models.ClassSchedule{
			DayOfWeek: 2, StartTime: "14:00", EndTime: "15:00",
			EffectiveFrom: datePtr(2025, 4, 1), EffectiveUntil: datePtr(2025, 3, 1),
		}, true},
	}

	for _, tt := range tests {
		tpl := tt.tpl
		err := validateTemplate(&tpl, &term)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: validateTemplate error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestValidateTemplateNormalizesTimes(t *testing.T) {
	term := models.AcademicTerm{StartDate: date(2025, 2, 3), EndDate: date(2025, 5, 30)}
	tpl := models.ClassSchedule{DayOfWeek: 1, StartTime: "8:00", EndTime: "9:30"}
	if err := validateTemplate(&tpl, &term); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.StartTime != "08:00" || tpl.EndTime != "09:30" {
		t.Errorf("times not normalized: %s-%s", tpl.StartTime, tpl.EndTime)
	}
}

func TestPickSurvivor(t *testing.T) {
	early := models.ClassSchedule{}
	early.CreatedAt = date(2025, 1, 1)
	early.CourseOffering.CurrentEnrollment = 5

	late := models.ClassSchedule{}
	late.CreatedAt = date(2025, 1, 10)
	late.CourseOffering.CurrentEnrollment = 20

	got := pickSurvivor([]models.ClassSchedule{early, late})
	if got.CourseOffering.CurrentEnrollment != 20 {
		t.Error("pickSurvivor must prefer the higher enrollment")
	}

	// Equal enrollment: earliest created wins.
	late.CourseOffering.CurrentEnrollment = 5
	got = pickSurvivor([]models.ClassSchedule{late, early})
	if !got.CreatedAt.Equal(early.CreatedAt) {
		t.Error("pickSurvivor must break ties with earliest created_at")
	}
}
