package services

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"sort"
	"strconv"
	"time"

	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/models"
	"unilms_go/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var hourMinuteRe = regexp.MustCompile(`(\d{1,2}):(\d{2})`)

// parseHourMinute extracts the hour and minute from a time-of-day string.
// Accepts bare "HH:MM" as well as datetime strings carrying a time part.
func parseHourMinute(s string) (int, int, error) {
	m := hourMinuteRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("no time of day in %q", s)
	}
	// For datetime strings the first HH:MM match may sit in the date part;
	// prefer a match preceded by 'T' or a space when one exists.
	if loc := hourMinuteRe.FindStringIndex(s); loc != nil && loc[0] > 0 {
		all := hourMinuteRe.FindAllStringSubmatchIndex(s, -1)
		for _, idx := range all {
			prev := s[idx[0]-1]
			if idx[0] > 0 && (prev == 'T' || prev == ' ') {
				m = []string{s[idx[0]:idx[1]], s[idx[2]:idx[3]], s[idx[4]:idx[5]]}
				break
			}
		}
	}
	h, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, err
	}
	mm, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, err
	}
	if h < 0 || h > 23 || mm < 0 || mm > 59 {
		return 0, 0, fmt.Errorf("time of day out of range in %q", s)
	}
	return h, mm, nil
}

// canonicalHourMinute normalizes a time-of-day string to zero-padded "HH:MM"
// so interval comparisons are plain lexical comparisons.
func canonicalHourMinute(s string) (string, error) {
	h, m, err := parseHourMinute(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// timeRangesOverlap reports whether two [start, end) intervals intersect.
// Inputs must be canonical "HH:MM" strings.
func timeRangesOverlap(aStart, aEnd, bStart, bEnd string) bool {
	return !(aEnd <= bStart || bEnd <= aStart)
}

// dateOnly truncates to midnight UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// validityWindowsIntersect reports whether two optional date windows
// intersect. A nil bound is unbounded on that side.
func validityWindowsIntersect(aFrom, aUntil, bFrom, bUntil *time.Time) bool {
	if aUntil != nil && bFrom != nil && dateOnly(*aUntil).Before(dateOnly(*bFrom)) {
		return false
	}
	if bUntil != nil && aFrom != nil && dateOnly(*bUntil).Before(dateOnly(*aFrom)) {
		return false
	}
	return true
}

// templatesCollide reports whether two templates occupy the same weekly slot:
// same day, overlapping time ranges, intersecting validity windows.
func templatesCollide(a, b *models.ClassSchedule) bool {
	if a.DayOfWeek != b.DayOfWeek {
		return false
	}
	if !timeRangesOverlap(a.StartTime, a.EndTime, b.StartTime, b.EndTime) {
		return false
	}
	return validityWindowsIntersect(a.EffectiveFrom, a.EffectiveUntil, b.EffectiveFrom, b.EffectiveUntil)
}

// firstOnOrAfter returns the first date on or after start whose weekday
// matches dayOfWeek (0=Monday).
func firstOnOrAfter(start time.Time, dayOfWeek int) time.Time {
	d := dateOnly(start)
	diff := (dayOfWeek - models.DayOfWeekFor(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, diff)
}

// maxDate / minDate pick window bounds, skipping nil entries.
func maxDate(dates ...*time.Time) time.Time {
	var out time.Time
	for _, d := range dates {
		if d == nil {
			continue
		}
		v := dateOnly(*d)
		if out.IsZero() || v.After(out) {
			out = v
		}
	}
	return out
}

func minDate(dates ...*time.Time) time.Time {
	var out time.Time
	for _, d := range dates {
		if d == nil {
			continue
		}
		v := dateOnly(*d)
		if out.IsZero() || v.Before(out) {
			out = v
		}
	}
	return out
}

var courseColorPalette = []string{
	"#1d4ed8", "#b91c1c", "#047857", "#7c3aed", "#b45309",
	"#0e7490", "#be185d", "#4d7c0f", "#6d28d9", "#9f1239",
}

// courseColor returns a stable per-course calendar color.
func courseColor(courseCode string) string {
	h := fnv.New32a()
	h.Write([]byte(courseCode))
	return courseColorPalette[int(h.Sum32())%len(courseColorPalette)]
}

// expandTemplateDates emits the dated occurrences of a template inside
// [rangeStart, rangeEnd], clamped to the term window and the template's
// validity window.
func expandTemplateDates(tpl *models.ClassSchedule, term *models.AcademicTerm, rangeStart, rangeEnd time.Time) []time.Time {
	ts, te := dateOnly(term.StartDate), dateOnly(term.EndDate)
	rs, re := dateOnly(rangeStart), dateOnly(rangeEnd)
	start := maxDate(tpl.EffectiveFrom, &ts, &rs)
	end := minDate(tpl.EffectiveUntil, &te, &re)
	if start.IsZero() || end.IsZero() || start.After(end) {
		return nil
	}

	var dates []time.Time
	for d := firstOnOrAfter(start, tpl.DayOfWeek); !d.After(end); d = d.AddDate(0, 0, 7) {
		dates = append(dates, d)
	}
	return dates
}

// eventTime attaches an "HH:MM" time of day to a date.
func eventTime(date time.Time, hm string) time.Time {
	h, m, _ := parseHourMinute(hm)
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, time.UTC)
}

// validateTemplate checks the shape invariants of a schedule template and
// normalizes its time strings.
func validateTemplate(tpl *models.ClassSchedule, term *models.AcademicTerm) error {
	start, err := canonicalHourMinute(tpl.StartTime)
	if err != nil {
		return apperrors.E(apperrors.KindValidation, "invalid start_time: %v", err)
	}
	end, err := canonicalHourMinute(tpl.EndTime)
	if err != nil {
		return apperrors.E(apperrors.KindValidation, "invalid end_time: %v", err)
	}
	tpl.StartTime, tpl.EndTime = start, end

	if tpl.StartTime >= tpl.EndTime {
		return apperrors.E(apperrors.KindValidation, "start_time must be before end_time")
	}
	if tpl.DayOfWeek < 0 || tpl.DayOfWeek > 6 {
		return apperrors.E(apperrors.KindValidation, "day_of_week must be in [0,6]")
	}
	if tpl.EffectiveFrom != nil && tpl.EffectiveUntil != nil &&
		dateOnly(*tpl.EffectiveFrom).After(dateOnly(*tpl.EffectiveUntil)) {
		return apperrors.E(apperrors.KindValidation, "effective_from must not be after effective_until")
	}

	// The validity window must intersect the offering's term window.
	ts, te := dateOnly(term.StartDate), dateOnly(term.EndDate)
	if !validityWindowsIntersect(tpl.EffectiveFrom, tpl.EffectiveUntil, &ts, &te) {
		return apperrors.E(apperrors.KindValidation, "template validity window falls outside the term %s", term.AcademicYear)
	}
	return nil
}

func templateOverlapError(kind string, tpl *models.ClassSchedule, other *models.ClassSchedule, offeringCode string) *apperrors.Error {
	return apperrors.E(apperrors.KindTemplateOverlap,
		"schedule overlaps an existing %s booking on day %d between %s and %s", kind, other.DayOfWeek, other.StartTime, other.EndTime).
		WithDetails(map[string]interface{}{
			"kind":                 kind,
			"conflicting_offering": offeringCode,
			"day":                  other.DayOfWeek,
			"range":                other.StartTime + "-" + other.EndTime,
		})
}

// checkTemplateConflicts runs the self, room, and instructor non-overlap
// checks inside the caller's transaction.
func checkTemplateConflicts(tx *gorm.DB, tpl *models.ClassSchedule) error {
	// Self: other templates of the same offering on the same day.
	var siblings []models.ClassSchedule
	if err := tx.Where("course_offering_id = ? AND day_of_week = ? AND id <> ?",
		tpl.CourseOfferingID, tpl.DayOfWeek, tpl.ID).Find(&siblings).Error; err != nil {
		return apperrors.FromDB(err, "class schedule")
	}
	for i := range siblings {
		if templatesCollide(tpl, &siblings[i]) {
			return templateOverlapError("self", tpl, &siblings[i], "")
		}
	}

	// Room: any template across offerings sharing (room, day).
	if tpl.RoomID != nil {
		var roomMates []models.ClassSchedule
		if err := tx.Preload("CourseOffering.Course").
			Where("room_id = ? AND day_of_week = ? AND id <> ?", tpl.RoomID, tpl.DayOfWeek, tpl.ID).
			Find(&roomMates).Error; err != nil {
			return apperrors.FromDB(err, "class schedule")
		}
		for i := range roomMates {
			if templatesCollide(tpl, &roomMates[i]) {
				return templateOverlapError("room", tpl, &roomMates[i], roomMates[i].CourseOffering.Course.Code)
			}
		}
	}

	// Instructor: same rule keyed on instructor_id.
	if tpl.InstructorID != nil {
		var instructorMates []models.ClassSchedule
		if err := tx.Preload("CourseOffering.Course").
			Where("instructor_id = ? AND day_of_week = ? AND id <> ?", tpl.InstructorID, tpl.DayOfWeek, tpl.ID).
			Find(&instructorMates).Error; err != nil {
			return apperrors.FromDB(err, "class schedule")
		}
		for i := range instructorMates {
			if templatesCollide(tpl, &instructorMates[i]) {
				return templateOverlapError("instructor", tpl, &instructorMates[i], instructorMates[i].CourseOffering.Course.Code)
			}
		}
	}

	return nil
}

// CreateClassSchedule validates a template and inserts it. Conflict detection
// and insertion run in the same serializable transaction.
func CreateClassSchedule(tpl *models.ClassSchedule) error {
	var offering models.CourseOffering
	if err := database.DB.Preload("AcademicTerm").First(&offering, "id = ?", tpl.CourseOfferingID).Error; err != nil {
		return apperrors.FromDB(err, "course offering")
	}
	if err := validateTemplate(tpl, &offering.AcademicTerm); err != nil {
		return err
	}

	return runSerializable(func(tx *gorm.DB) error {
		if err := checkTemplateConflicts(tx, tpl); err != nil {
			return err
		}
		if err := tx.Create(tpl).Error; err != nil {
			return apperrors.FromDB(err, "class schedule")
		}
		return nil
	})
}

// UpdateClassSchedule re-validates and re-checks conflicts for an existing
// template before persisting changes.
func UpdateClassSchedule(tpl *models.ClassSchedule) error {
	var offering models.CourseOffering
	if err := database.DB.Preload("AcademicTerm").First(&offering, "id = ?", tpl.CourseOfferingID).Error; err != nil {
		return apperrors.FromDB(err, "course offering")
	}
	if err := validateTemplate(tpl, &offering.AcademicTerm); err != nil {
		return err
	}

	return runSerializable(func(tx *gorm.DB) error {
		if err := checkTemplateConflicts(tx, tpl); err != nil {
			return err
		}
		if err := tx.Save(tpl).Error; err != nil {
			return apperrors.FromDB(err, "class schedule")
		}
		return nil
	})
}

// buildEvents expands a set of templates to dated calendar events.
func buildEvents(templates []models.ClassSchedule, rangeStart, rangeEnd time.Time) []utils.ScheduleEvent {
	events := make([]utils.ScheduleEvent, 0)
	for i := range templates {
		tpl := &templates[i]
		term := tpl.CourseOffering.AcademicTerm
		course := tpl.CourseOffering.Course
		for _, date := range expandTemplateDates(tpl, &term, rangeStart, rangeEnd) {
			ev := utils.ScheduleEvent{
				ScheduleID:   tpl.ID,
				CourseCode:   course.Code,
				CourseName:   course.Name.Resolve("en"),
				Start:        eventTime(date, tpl.StartTime),
				End:          eventTime(date, tpl.EndTime),
				ScheduleType: tpl.ScheduleType,
				Color:        courseColor(course.Code),
				RoomID:       tpl.RoomID,
			}
			if tpl.Room != nil {
				ev.RoomNumber = tpl.Room.RoomNumber
			}
			if tpl.Instructor != nil {
				ev.InstructorName = tpl.Instructor.Username
				if tpl.Instructor.Person != nil {
					ev.InstructorName = utils.FullName(tpl.Instructor.Person)
				}
			}
			events = append(events, ev)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].CourseCode < events[j].CourseCode
	})
	return events
}

// ExpandTemplates materializes dated events from preloaded templates.
func ExpandTemplates(templates []models.ClassSchedule, rangeStart, rangeEnd time.Time) []utils.ScheduleEvent {
	return buildEvents(templates, rangeStart, rangeEnd)
}

// StudentScheduleEvents materializes the weekly calendar of a student's
// active enrollments over [rangeStart, rangeEnd].
func StudentScheduleEvents(studentID uuid.UUID, rangeStart, rangeEnd time.Time) ([]utils.ScheduleEvent, error) {
	var enrollments []models.CourseEnrollment
	if err := database.DB.Where("student_id = ? AND enrollment_status = ?", studentID, models.EnrollmentEnrolled).
		Find(&enrollments).Error; err != nil {
		return nil, apperrors.FromDB(err, "enrollment")
	}
	if len(enrollments) == 0 {
		return []utils.ScheduleEvent{}, nil
	}

	offeringIDs := make([]uuid.UUID, 0, len(enrollments))
	for _, e := range enrollments {
		offeringIDs = append(offeringIDs, e.CourseOfferingID)
	}

	var templates []models.ClassSchedule
	if err := database.DB.
		Preload("CourseOffering.Course").
		Preload("CourseOffering.AcademicTerm").
		Preload("Room").
		Preload("Instructor.Person").
		Where("course_offering_id IN ?", offeringIDs).
		Find(&templates).Error; err != nil {
		return nil, apperrors.FromDB(err, "class schedule")
	}

	return buildEvents(templates, rangeStart, rangeEnd), nil
}

// InstructorScheduleEvents materializes the weekly calendar of everything a
// user teaches: templates naming them directly plus templates of offerings
// they are assigned to.
func InstructorScheduleEvents(userID uuid.UUID, rangeStart, rangeEnd time.Time) ([]utils.ScheduleEvent, error) {
	var assignments []models.CourseInstructor
	if err := database.DB.Where("user_id = ?", userID).Find(&assignments).Error; err != nil {
		return nil, apperrors.FromDB(err, "course instructor")
	}
	offeringIDs := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		offeringIDs = append(offeringIDs, a.CourseOfferingID)
	}

	q := database.DB.
		Preload("CourseOffering.Course").
		Preload("CourseOffering.AcademicTerm").
		Preload("Room").
		Preload("Instructor.Person")
	if len(offeringIDs) > 0 {
		q = q.Where("instructor_id = ? OR course_offering_id IN ?", userID, offeringIDs)
	} else {
		q = q.Where("instructor_id = ?", userID)
	}

	var templates []models.ClassSchedule
	if err := q.Find(&templates).Error; err != nil {
		return nil, apperrors.FromDB(err, "class schedule")
	}

	return buildEvents(templates, rangeStart, rangeEnd), nil
}

// LegacyCollapseEntry describes one duplicate group resolved by the cleanup.
type LegacyCollapseEntry struct {
	InstructorID uuid.UUID   `json:"instructor_id"`
	DayOfWeek    int         `json:"day_of_week"`
	StartTime    string      `json:"start_time"`
	EndTime      string      `json:"end_time"`
	KeptID       uuid.UUID   `json:"kept_id"`
	DeletedIDs   []uuid.UUID `json:"deleted_ids"`
}

// pickSurvivor keeps the template whose offering has the highest current
// enrollment, tie-broken by earliest created_at.
func pickSurvivor(group []models.ClassSchedule) models.ClassSchedule {
	best := group[0]
	for _, t := range group[1:] {
		if t.CourseOffering.CurrentEnrollment > best.CourseOffering.CurrentEnrollment {
			best = t
			continue
		}
		if t.CourseOffering.CurrentEnrollment == best.CourseOffering.CurrentEnrollment &&
			t.CreatedAt.Before(best.CreatedAt) {
			best = t
		}
	}
	return best
}

// CollapseLegacyTemplates is a one-shot cleanup for imported legacy data
// where several templates occupy the same (instructor, day, start, end)
// slot. It runs under a single transaction and supports dry runs.
func CollapseLegacyTemplates(dryRun bool) ([]LegacyCollapseEntry, error) {
	var report []LegacyCollapseEntry

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var templates []models.ClassSchedule
		if err := tx.Preload("CourseOffering").
			Where("instructor_id IS NOT NULL").
			Find(&templates).Error; err != nil {
			return apperrors.FromDB(err, "class schedule")
		}

		groups := make(map[string][]models.ClassSchedule)
		for _, t := range templates {
			key := fmt.Sprintf("%s|%d|%s|%s", t.InstructorID, t.DayOfWeek, t.StartTime, t.EndTime)
			groups[key] = append(groups[key], t)
		}

		keys := make([]string, 0, len(groups))
		for k := range groups {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			group := groups[key]
			if len(group) < 2 {
				continue
			}
			survivor := pickSurvivor(group)
			entry := LegacyCollapseEntry{
				InstructorID: *survivor.InstructorID,
				DayOfWeek:    survivor.DayOfWeek,
				StartTime:    survivor.StartTime,
				EndTime:      survivor.EndTime,
				KeptID:       survivor.ID,
			}
			for _, t := range group {
				if t.ID == survivor.ID {
					continue
				}
				entry.DeletedIDs = append(entry.DeletedIDs, t.ID)
				if !dryRun {
					if err := tx.Delete(&models.ClassSchedule{}, "id = ?", t.ID).Error; err != nil {
						return apperrors.FromDB(err, "class schedule")
					}
				}
			}
			report = append(report, entry)
		}
		return nil
	})

	return report, err
}
