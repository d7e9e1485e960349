package services

import (
	"time"

	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// registrationOpen reports whether today falls inside the term's
// registration window. Unset bounds leave that side open.
func registrationOpen(term *models.AcademicTerm, today time.Time) bool {
	d := dateOnly(today)
	if term.RegistrationStart != nil && d.Before(dateOnly(*term.RegistrationStart)) {
		return false
	}
	if term.RegistrationEnd != nil && d.After(dateOnly(*term.RegistrationEnd)) {
		return false
	}
	return true
}

// dropTransition decides the status an enrollment moves to when a student
// leaves an offering on the given day: "dropped" until the add/drop
// deadline, "withdrawn" until the withdrawal deadline, forbidden after.
func dropTransition(term *models.AcademicTerm, today time.Time) (string, error) {
	d := dateOnly(today)
	if term.AddDropDeadline == nil || !d.After(dateOnly(*term.AddDropDeadline)) {
		return models.EnrollmentDropped, nil
	}
	if term.WithdrawalDeadline != nil && !d.After(dateOnly(*term.WithdrawalDeadline)) {
		return models.EnrollmentWithdrawn, nil
	}
	return "", apperrors.E(apperrors.KindRegistrationClosed, "withdrawal deadline for term %s has passed", term.AcademicYear)
}

// studentConflictCheck rejects enrollment when any template of the target
// offering overlaps a template of the student's other active enrollments.
func studentConflictCheck(tx *gorm.DB, studentID, offeringID uuid.UUID) error {
	var newTemplates []models.ClassSchedule
	if err := tx.Where("course_offering_id = ?", offeringID).Find(&newTemplates).Error; err != nil {
		return apperrors.FromDB(err, "class schedule")
	}
	if len(newTemplates) == 0 {
		return nil
	}

	var active []models.CourseEnrollment
	if err := tx.Where("student_id = ? AND enrollment_status = ? AND course_offering_id <> ?",
		studentID, models.EnrollmentEnrolled, offeringID).Find(&active).Error; err != nil {
		return apperrors.FromDB(err, "enrollment")
	}
	if len(active) == 0 {
		return nil
	}

	otherIDs := make([]uuid.UUID, 0, len(active))
	for _, e := range active {
		otherIDs = append(otherIDs, e.CourseOfferingID)
	}

	var existing []models.ClassSchedule
	if err := tx.Preload("CourseOffering.Course").
		Where("course_offering_id IN ?", otherIDs).Find(&existing).Error; err != nil {
		return apperrors.FromDB(err, "class schedule")
	}

	for i := range newTemplates {
		for j := range existing {
			if templatesCollide(&newTemplates[i], &existing[j]) {
				return apperrors.E(apperrors.KindScheduleConflict,
					"schedule conflicts with %s on day %d between %s and %s",
					existing[j].CourseOffering.Course.Code, existing[j].DayOfWeek,
					existing[j].StartTime, existing[j].EndTime).
					WithDetails(map[string]interface{}{
						"course_code": existing[j].CourseOffering.Course.Code,
						"day":         existing[j].DayOfWeek,
						"range":       existing[j].StartTime + "-" + existing[j].EndTime,
					})
			}
		}
	}
	return nil
}

// Enroll registers a student into a course offering. Capacity, uniqueness,
// and schedule conflicts are checked inside a serializable transaction with
// bounded retry.
func Enroll(studentID, offeringID uuid.UUID, today time.Time) (*models.CourseEnrollment, error) {
	var offering models.CourseOffering
	if err := database.DB.Preload("AcademicTerm").First(&offering, "id = ?", offeringID).Error; err != nil {
		return nil, apperrors.FromDB(err, "course offering")
	}
	if !registrationOpen(&offering.AcademicTerm, today) {
		return nil, apperrors.E(apperrors.KindRegistrationClosed, "registration for term %s is closed", offering.AcademicTerm.AcademicYear)
	}

	var student models.Student
	if err := database.DB.First(&student, "id = ?", studentID).Error; err != nil {
		return nil, apperrors.FromDB(err, "student")
	}
	if student.Status != "active" {
		return nil, apperrors.E(apperrors.KindIneligibleStudent, "student status %s does not permit enrollment", student.Status)
	}

	var enrollment models.CourseEnrollment
	err := runSerializable(func(tx *gorm.DB) error {
		// Re-read the counters under lock; capacity is a cross-row invariant.
		var current models.CourseOffering
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&current, "id = ?", offeringID).Error; err != nil {
			return apperrors.FromDB(err, "course offering")
		}

		if current.CurrentEnrollment >= current.MaxEnrollment {
			if current.EnrollmentStatus == "open" {
				if err := tx.Model(&current).Update("enrollment_status", "waitlisted").Error; err != nil {
					return apperrors.FromDB(err, "course offering")
				}
			}
			return apperrors.E(apperrors.KindOfferingFull, "offering is full (%d/%d)", current.CurrentEnrollment, current.MaxEnrollment)
		}

		var liveCount int64
		if err := tx.Model(&models.CourseEnrollment{}).
			Where("course_offering_id = ? AND student_id = ? AND enrollment_status = ?",
				offeringID, studentID, models.EnrollmentEnrolled).
			Count(&liveCount).Error; err != nil {
			return apperrors.FromDB(err, "enrollment")
		}
		if liveCount > 0 {
			return apperrors.E(apperrors.KindAlreadyEnrolled, "student is already enrolled in this offering")
		}

		if err := studentConflictCheck(tx, studentID, offeringID); err != nil {
			return err
		}

		enrollment = models.CourseEnrollment{
			CourseOfferingID: offeringID,
			StudentID:        studentID,
			EnrollmentDate:   dateOnly(today),
			EnrollmentStatus: models.EnrollmentEnrolled,
		}
		if err := tx.Create(&enrollment).Error; err != nil {
			return apperrors.FromDB(err, "enrollment")
		}
		if err := tx.Model(&current).
			Update("current_enrollment", gorm.Expr("current_enrollment + 1")).Error; err != nil {
			return apperrors.FromDB(err, "course offering")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifyEnrollment(&enrollment, &offering)
	return &enrollment, nil
}

// Drop removes a student from an offering, moving the enrollment to
// "dropped" or "withdrawn" depending on the term deadlines.
func Drop(enrollmentID uuid.UUID, today time.Time) (*models.CourseEnrollment, error) {
	var enrollment models.CourseEnrollment
	if err := database.DB.Preload("CourseOffering.AcademicTerm").
		First(&enrollment, "id = ?", enrollmentID).Error; err != nil {
		return nil, apperrors.FromDB(err, "enrollment")
	}

	target, err := dropTransition(&enrollment.CourseOffering.AcademicTerm, today)
	if err != nil {
		return nil, err
	}

	err = runSerializable(func(tx *gorm.DB) error {
		var current models.CourseEnrollment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&current, "id = ?", enrollmentID).Error; err != nil {
			return apperrors.FromDB(err, "enrollment")
		}
		if current.EnrollmentStatus != models.EnrollmentEnrolled {
			return apperrors.E(apperrors.KindPreconditionFailed, "enrollment is %s and cannot be dropped", current.EnrollmentStatus)
		}

		if err := tx.Model(&current).Update("enrollment_status", target).Error; err != nil {
			return apperrors.FromDB(err, "enrollment")
		}
		if err := tx.Model(&models.CourseOffering{}).
			Where("id = ?", current.CourseOfferingID).
			Update("current_enrollment", gorm.Expr("current_enrollment - 1")).Error; err != nil {
			return apperrors.FromDB(err, "course offering")
		}
		enrollment = current
		enrollment.EnrollmentStatus = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Complete marks an enrollment finished with its final grade. The enrollment
// keeps counting against capacity; completion is reached via finalization,
// after the term's grade submission workflow closes the offering.
func Complete(tx *gorm.DB, enrollment *models.CourseEnrollment, letterGrade string, gradePoints float64) error {
	updates := map[string]interface{}{
		"enrollment_status": models.EnrollmentCompleted,
		"grade":             letterGrade,
		"grade_points":      gradePoints,
	}
	if err := tx.Model(enrollment).Updates(updates).Error; err != nil {
		return apperrors.FromDB(err, "enrollment")
	}
	enrollment.EnrollmentStatus = models.EnrollmentCompleted
	enrollment.Grade = &letterGrade
	enrollment.GradePoints = &gradePoints
	return nil
}

// instructorConflictCheck verifies that the user has no overlapping class
// schedule templates across offerings in the same term.
func instructorConflictCheck(tx *gorm.DB, userID, offeringID uuid.UUID, termID uuid.UUID) error {
	var newTemplates []models.ClassSchedule
	if err := tx.Where("course_offering_id = ?", offeringID).Find(&newTemplates).Error; err != nil {
		return apperrors.FromDB(err, "class schedule")
	}
	if len(newTemplates) == 0 {
		return nil
	}

	var others []models.ClassSchedule
	if err := tx.Preload("CourseOffering.Course").
		Joins("JOIN course_offerings ON course_offerings.id = class_schedules.course_offering_id").
		Where("class_schedules.instructor_id = ? AND course_offerings.academic_term_id = ? AND class_schedules.course_offering_id <> ?",
			userID, termID, offeringID).
		Find(&others).Error; err != nil {
		return apperrors.FromDB(err, "class schedule")
	}

	for i := range newTemplates {
		for j := range others {
			if templatesCollide(&newTemplates[i], &others[j]) {
				return apperrors.E(apperrors.KindScheduleConflict,
					"instructor has an overlapping class for %s on day %d between %s and %s",
					others[j].CourseOffering.Course.Code, others[j].DayOfWeek,
					others[j].StartTime, others[j].EndTime)
			}
		}
	}
	return nil
}

// AssignInstructor links a staff user to an offering. At most one primary
// per offering; assigning a primary also rechecks their schedule conflicts.
func AssignInstructor(offeringID, userID uuid.UUID, role string, today time.Time) (*models.CourseInstructor, error) {
	switch role {
	case "primary", "co_instructor", "assistant":
	default:
		return nil, apperrors.E(apperrors.KindValidation, "invalid instructor role %q", role)
	}

	var staff models.StaffMember
	if err := database.DB.First(&staff, "user_id = ?", userID).Error; err != nil {
		return nil, apperrors.E(apperrors.KindPreconditionFailed, "user is not a staff member")
	}
	if !staff.IsActive {
		return nil, apperrors.E(apperrors.KindPreconditionFailed, "staff member is not active")
	}

	var offering models.CourseOffering
	if err := database.DB.First(&offering, "id = ?", offeringID).Error; err != nil {
		return nil, apperrors.FromDB(err, "course offering")
	}

	var assignment models.CourseInstructor
	err := runSerializable(func(tx *gorm.DB) error {
		if role == "primary" {
			var primaryCount int64
			if err := tx.Model(&models.CourseInstructor{}).
				Where("course_offering_id = ? AND role = ?", offeringID, "primary").
				Count(&primaryCount).Error; err != nil {
				return apperrors.FromDB(err, "course instructor")
			}
			if primaryCount > 0 {
				return apperrors.E(apperrors.KindPreconditionFailed, "offering already has a primary instructor; replace it explicitly")
			}
			if err := instructorConflictCheck(tx, userID, offeringID, offering.AcademicTermID); err != nil {
				return err
			}
		}

		assignment = models.CourseInstructor{
			CourseOfferingID: offeringID,
			UserID:           userID,
			Role:             role,
			AssignedDate:     dateOnly(today),
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return apperrors.FromDB(err, "course instructor")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ReplacePrimaryInstructor demotes the current primary to co_instructor and
// promotes the given user, as one explicit operation.
func ReplacePrimaryInstructor(offeringID, userID uuid.UUID, today time.Time) (*models.CourseInstructor, error) {
	var offering models.CourseOffering
	if err := database.DB.First(&offering, "id = ?", offeringID).Error; err != nil {
		return nil, apperrors.FromDB(err, "course offering")
	}

	var assignment models.CourseInstructor
	err := runSerializable(func(tx *gorm.DB) error {
		if err := tx.Model(&models.CourseInstructor{}).
			Where("course_offering_id = ? AND role = ?", offeringID, "primary").
			Update("role", "co_instructor").Error; err != nil {
			return apperrors.FromDB(err, "course instructor")
		}

		if err := instructorConflictCheck(tx, userID, offeringID, offering.AcademicTermID); err != nil {
			return err
		}

		assignment = models.CourseInstructor{
			CourseOfferingID: offeringID,
			UserID:           userID,
			Role:             "primary",
			AssignedDate:     dateOnly(today),
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return apperrors.FromDB(err, "course instructor")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// notifyEnrollment writes a confirmation notification row for the student.
func notifyEnrollment(enrollment *models.CourseEnrollment, offering *models.CourseOffering) {
	var student models.Student
	if err := database.DB.First(&student, "id = ?", enrollment.StudentID).Error; err != nil {
		return
	}
	var course models.Course
	if err := database.DB.First(&course, "id = ?", offering.CourseID).Error; err != nil {
		return
	}

	notification := models.Notification{
		UserID: student.UserID,
		Title: models.LocalizedText{
			"en": "Enrollment confirmed",
			"az": "Qeydiyyat təsdiqləndi",
		},
		Message: models.LocalizedText{
			"en": "You are enrolled in " + course.Code + " section " + offering.SectionCode + ".",
			"az": course.Code + " kursunun " + offering.SectionCode + " bölməsinə qeydiyyatdan keçdiniz.",
		},
		Type: "success",
	}
	database.DB.Create(&notification)
}
