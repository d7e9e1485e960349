package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/models"
	"unilms_go/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const attendanceRecomputeQueue = "attendance:recompute"

var attendanceStatuses = map[string]bool{
	"present": true,
	"absent":  true,
	"late":    true,
	"excused": true,
}

// AttendanceEntry is one student's status in a bulk submission. Check-in and
// check-out times are optional and never cleared by a resubmission that
// omits them.
type AttendanceEntry struct {
	StudentID    uuid.UUID  `json:"student_id" validate:"required"`
	Status       string     `json:"status" validate:"required"`
	Notes        string     `json:"notes"`
	CheckInTime  *time.Time `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time"`
}

// AttendanceResult reports the outcome of a bulk submission.
type AttendanceResult struct {
	ClassScheduleID uuid.UUID `json:"class_schedule_id"`
	AttendanceDate  string    `json:"attendance_date"`
	Recorded        int       `json:"recorded"`
}

// validateAttendanceDate checks that the date falls on the template's weekday
// and inside its validity window intersected with the term.
func validateAttendanceDate(schedule *models.ClassSchedule, term *models.AcademicTerm, date time.Time) error {
	date = dateOnly(date)
	if models.DayOfWeekFor(date.Weekday()) != schedule.DayOfWeek {
		return apperrors.E(apperrors.KindValidation,
			"%s does not fall on the schedule's weekday", date.Format("2006-01-02"))
	}

	from := dateOnly(term.StartDate)
	until := dateOnly(term.EndDate)
	from = maxDate(&from, schedule.EffectiveFrom)
	until = minDate(&until, schedule.EffectiveUntil)
	if date.Before(from) || date.After(until) {
		return apperrors.E(apperrors.KindValidation,
			"%s is outside the schedule's validity window", date.Format("2006-01-02"))
	}
	return nil
}

// SubmitAttendance upserts attendance rows for one template and date. The
// caller must hold any instructor role on the offering. Affected enrollments
// are queued for percentage recomputation.
func SubmitAttendance(callerUserID, scheduleID uuid.UUID, date time.Time, entries []AttendanceEntry) (*AttendanceResult, error) {
	for _, e := range entries {
		if !attendanceStatuses[strings.ToLower(e.Status)] {
			return nil, apperrors.E(apperrors.KindValidation, "invalid attendance status '%s'", e.Status)
		}
	}

	var schedule models.ClassSchedule
	if err := database.DB.
		Preload("CourseOffering").
		Preload("CourseOffering.AcademicTerm").
		First(&schedule, "id = ?", scheduleID).Error; err != nil {
		return nil, apperrors.FromDB(err, "class schedule")
	}

	ok, err := isOfferingInstructor(database.DB, schedule.CourseOfferingID, callerUserID,
		"primary", "co_instructor", "assistant")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.E(apperrors.KindForbidden, "only instructors assigned to this offering may mark attendance")
	}

	if err := validateAttendanceDate(&schedule, &schedule.CourseOffering.AcademicTerm, date); err != nil {
		return nil, err
	}

	// Only students with a live enrollment can be marked.
	var enrolled []models.CourseEnrollment
	if err := database.DB.
		Where("course_offering_id = ? AND enrollment_status IN ?",
			schedule.CourseOfferingID, models.LiveEnrollmentStatuses).
		Find(&enrolled).Error; err != nil {
		return nil, apperrors.FromDB(err, "enrollment")
	}
	enrolledSet := make(map[uuid.UUID]bool, len(enrolled))
	for _, e := range enrolled {
		enrolledSet[e.StudentID] = true
	}

	now := time.Now()
	records := make([]models.AttendanceRecord, 0, len(entries))
	for _, e := range entries {
		if !enrolledSet[e.StudentID] {
			return nil, apperrors.E(apperrors.KindValidation,
				"student %s is not enrolled in this offering", e.StudentID)
		}
		records = append(records, models.AttendanceRecord{
			ClassScheduleID: scheduleID,
			StudentID:       e.StudentID,
			AttendanceDate:  dateOnly(date),
			Status:          strings.ToLower(e.Status),
			Notes:           e.Notes,
			CheckInTime:     e.CheckInTime,
			CheckOutTime:    e.CheckOutTime,
			MarkedBy:        callerUserID,
			MarkedAt:        now,
		})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "class_schedule_id"}, {Name: "student_id"}, {Name: "attendance_date"},
			},
			DoUpdates: attendanceUpsertAssignments(),
		}).Create(&records).Error
	})
	if err != nil {
		return nil, apperrors.FromDB(err, "attendance record")
	}

	for _, r := range records {
		queueAttendanceRecompute(schedule.CourseOfferingID, r.StudentID)
	}

	return &AttendanceResult{
		ClassScheduleID: scheduleID,
		AttendanceDate:  dateOnly(date).Format("2006-01-02"),
		Recorded:        len(records),
	}, nil
}

// attendanceUpsertAssignments is the on-conflict column set. Status, notes
// and the marker fields are overwritten; check-in and check-out keep their
// stored values when the resubmission carries none.
func attendanceUpsertAssignments() clause.Set {
	assignments := clause.AssignmentColumns([]string{"status", "notes", "marked_by", "marked_at"})
	return append(assignments,
		clause.Assignment{
			Column: clause.Column{Name: "check_in_time"},
			Value:  gorm.Expr("COALESCE(VALUES(check_in_time), check_in_time)"),
		},
		clause.Assignment{
			Column: clause.Column{Name: "check_out_time"},
			Value:  gorm.Expr("COALESCE(VALUES(check_out_time), check_out_time)"),
		})
}

// queueAttendanceRecompute stages a recompute task in Redis; with no Redis
// the recomputation runs synchronously.
func queueAttendanceRecompute(offeringID, studentID uuid.UUID) {
	redisClient := database.GetRedisClient()
	if redisClient == nil {
		if err := RecomputeAttendancePercentage(offeringID, studentID); err != nil {
			logrus.WithError(err).Warn("Synchronous attendance recompute failed")
		}
		return
	}

	member := fmt.Sprintf("%s:%s", offeringID, studentID)
	if err := redisClient.SAdd(context.Background(), attendanceRecomputeQueue, member).Err(); err != nil {
		logrus.WithError(err).Warn("Failed to queue attendance recompute, running synchronously")
		if err := RecomputeAttendancePercentage(offeringID, studentID); err != nil {
			logrus.WithError(err).Warn("Synchronous attendance recompute failed")
		}
	}
}

// RecomputeAttendancePercentage rebuilds the enrollment's attendance
// percentage as present records over all records across the offering's
// schedules.
func RecomputeAttendancePercentage(offeringID, studentID uuid.UUID) error {
	type tally struct {
		Total   int64
		Present int64
	}
	var t tally
	err := database.DB.Model(&models.AttendanceRecord{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN attendance_records.status = 'present' THEN 1 ELSE 0 END), 0) AS present").
		Joins("JOIN class_schedules ON class_schedules.id = attendance_records.class_schedule_id").
		Where("class_schedules.course_offering_id = ? AND attendance_records.student_id = ?",
			offeringID, studentID).
		Scan(&t).Error
	if err != nil {
		return apperrors.FromDB(err, "attendance record")
	}

	var percentage *float64
	if t.Total > 0 {
		p := float64(t.Present) / float64(t.Total) * 100
		percentage = &p
	}

	err = database.DB.Model(&models.CourseEnrollment{}).
		Where("course_offering_id = ? AND student_id = ? AND enrollment_status IN ?",
			offeringID, studentID, models.LiveEnrollmentStatuses).
		Update("attendance_percentage", percentage).Error
	if err != nil {
		return apperrors.FromDB(err, "enrollment")
	}
	return nil
}

// DrainAttendanceRecomputeQueue processes queued recompute tasks. Run by the
// maintenance scheduler.
func DrainAttendanceRecomputeQueue() {
	redisClient := database.GetRedisClient()
	if redisClient == nil {
		return
	}

	ctx := context.Background()
	for {
		member, err := redisClient.SPop(ctx, attendanceRecomputeQueue).Result()
		if err != nil {
			return
		}
		parts := strings.SplitN(member, ":", 2)
		if len(parts) != 2 {
			logrus.WithField("member", member).Warn("Malformed attendance recompute task")
			continue
		}
		offeringID, err1 := uuid.Parse(parts[0])
		studentID, err2 := uuid.Parse(parts[1])
		if err1 != nil || err2 != nil {
			logrus.WithField("member", member).Warn("Malformed attendance recompute task")
			continue
		}
		if err := RecomputeAttendancePercentage(offeringID, studentID); err != nil {
			logrus.WithError(err).WithField("member", member).Warn("Attendance recompute failed")
		}
	}
}

// AttendanceRosterRow is one student's record (or absence of one) in the
// roster-joined read view for a template and date.
type AttendanceRosterRow struct {
	StudentID     uuid.UUID `json:"student_id"`
	StudentNumber string    `json:"student_number"`
	FullName      string    `json:"full_name"`
	Status        *string   `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	MarkedAt      *string   `json:"marked_at,omitempty"`
}

// AttendanceRoster returns every live-enrolled student of the template's
// offering with their record for the date, unmarked students included with a
// null status.
func AttendanceRoster(scheduleID uuid.UUID, date time.Time) ([]AttendanceRosterRow, error) {
	var schedule models.ClassSchedule
	if err := database.DB.First(&schedule, "id = ?", scheduleID).Error; err != nil {
		return nil, apperrors.FromDB(err, "class schedule")
	}

	var enrollments []models.CourseEnrollment
	if err := database.DB.
		Preload("Student").
		Preload("Student.User").
		Where("course_offering_id = ? AND enrollment_status IN ?",
			schedule.CourseOfferingID, models.LiveEnrollmentStatuses).
		Find(&enrollments).Error; err != nil {
		return nil, apperrors.FromDB(err, "enrollment")
	}

	var records []models.AttendanceRecord
	if err := database.DB.
		Where("class_schedule_id = ? AND attendance_date = ?", scheduleID, dateOnly(date)).
		Find(&records).Error; err != nil {
		return nil, apperrors.FromDB(err, "attendance record")
	}
	byStudent := make(map[uuid.UUID]*models.AttendanceRecord, len(records))
	for i := range records {
		byStudent[records[i].StudentID] = &records[i]
	}

	rows := make([]AttendanceRosterRow, 0, len(enrollments))
	for _, e := range enrollments {
		row := AttendanceRosterRow{
			StudentID:     e.StudentID,
			StudentNumber: e.Student.StudentNumber,
		}
		var person models.Person
		if err := database.DB.First(&person, "user_id = ?", e.Student.UserID).Error; err == nil {
			row.FullName = utils.FullName(&person)
		}
		if r, ok := byStudent[e.StudentID]; ok {
			row.Status = &r.Status
			row.Notes = r.Notes
			marked := r.MarkedAt.Format(time.RFC3339)
			row.MarkedAt = &marked
		}
		rows = append(rows, row)
	}
	return rows, nil
}
