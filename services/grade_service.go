package services

import (
	"math"
	"sort"
	"time"

	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// letterForPercentage resolves a percentage to the scale entry whose range
// contains it, walking entries by display_order descending.
func letterForPercentage(scale []models.GradePointScale, percentage float64) *models.GradePointScale {
	sorted := make([]models.GradePointScale, len(scale))
	copy(sorted, scale)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].DisplayOrder > sorted[j].DisplayOrder
	})
	for i := range sorted {
		if percentage >= sorted[i].MinPercentage && percentage <= sorted[i].MaxPercentage {
			return &sorted[i]
		}
	}
	// Configured bands may leave float gaps (89.99 to 90) or stop at 100.
	// Fall back to the best band whose lower bound is not above the value.
	for i := range sorted {
		if percentage >= sorted[i].MinPercentage {
			return &sorted[i]
		}
	}
	return nil
}

// scaleEntryForLetter finds the scale entry of a letter grade.
func scaleEntryForLetter(scale []models.GradePointScale, letter string) *models.GradePointScale {
	for i := range scale {
		if scale[i].LetterGrade == letter {
			return &scale[i]
		}
	}
	return nil
}

// passingThreshold is the lowest grade-point value the scale marks passing.
func passingThreshold(scale []models.GradePointScale) float64 {
	threshold := math.Inf(1)
	for _, s := range scale {
		if s.IsPassing && s.GradePoints < threshold {
			threshold = s.GradePoints
		}
	}
	if math.IsInf(threshold, 1) {
		return 0
	}
	return threshold
}

// assessmentGrade pairs an assessment weight with a student's result.
type assessmentGrade struct {
	Weight     float64
	Percentage float64
	HasGrade   bool
	Excused    bool
}

// weightedFinal computes the weighted course percentage. Assessments without
// a grade count as zero unless excused; excused assessments drop out of both
// sums.
func weightedFinal(entries []assessmentGrade) float64 {
	var sum, weightSum float64
	for _, e := range entries {
		if e.Excused {
			continue
		}
		weightSum += e.Weight
		if e.HasGrade {
			sum += e.Percentage * e.Weight
		}
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}

// gpaEntry is one completed enrollment contributing to the GPA.
type gpaEntry struct {
	GradePoints float64
	CreditHours int
}

// computeGPA returns the credit-weighted grade point average, or nil when no
// credits contribute.
func computeGPA(entries []gpaEntry) *float64 {
	var pointSum float64
	var creditSum int
	for _, e := range entries {
		pointSum += e.GradePoints * float64(e.CreditHours)
		creditSum += e.CreditHours
	}
	if creditSum == 0 {
		return nil
	}
	gpa := pointSum / float64(creditSum)
	return &gpa
}

// attendanceGateSatisfied reports whether at least one attendance record
// exists for some class schedule of the offering on the given date.
func attendanceGateSatisfied(tx *gorm.DB, offeringID uuid.UUID, date time.Time) (bool, error) {
	var count int64
	err := tx.Model(&models.AttendanceRecord{}).
		Joins("JOIN class_schedules ON class_schedules.id = attendance_records.class_schedule_id").
		Where("class_schedules.course_offering_id = ? AND attendance_records.attendance_date = ?",
			offeringID, dateOnly(date)).
		Count(&count).Error
	if err != nil {
		return false, apperrors.FromDB(err, "attendance record")
	}
	return count > 0, nil
}

// isOfferingInstructor checks the caller against the offering's instructor
// assignments, restricted to the given roles.
func isOfferingInstructor(tx *gorm.DB, offeringID, userID uuid.UUID, roles ...string) (bool, error) {
	var count int64
	err := tx.Model(&models.CourseInstructor{}).
		Where("course_offering_id = ? AND user_id = ? AND role IN ?", offeringID, userID, roles).
		Count(&count).Error
	if err != nil {
		return false, apperrors.FromDB(err, "course instructor")
	}
	return count > 0, nil
}

// GradeEntry is one student's mark in a submission batch.
type GradeEntry struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	Marks     float64   `json:"marks" validate:"min=0"`
	Notes     string    `json:"notes"`
}

// SkippedStudent explains why a student received no grade in a batch.
type SkippedStudent struct {
	StudentID uuid.UUID `json:"student_id"`
	Reason    string    `json:"reason"`
}

// GradeSubmissionResult is the outcome of a batch grade submission.
type GradeSubmissionResult struct {
	AssessmentID    uuid.UUID        `json:"assessment_id"`
	GradedStudents  []uuid.UUID      `json:"graded_students"`
	SkippedStudents []SkippedStudent `json:"skipped_students"`
}

// NewAssessmentInput carries the metadata for an assessment created inline
// during grade submission.
type NewAssessmentInput struct {
	Title            models.LocalizedText `json:"title"`
	AssessmentType   string               `json:"assessment_type"`
	TotalMarks       float64              `json:"total_marks"`
	PassingMarks     float64              `json:"passing_marks"`
	WeightPercentage float64              `json:"weight_percentage"`
}

// SubmitGrades records per-student marks for an assessment on a given date.
// The attendance gate must already be satisfied for that date; students
// marked absent or late on the date are skipped.
func SubmitGrades(callerUserID, offeringID uuid.UUID, assessmentID *uuid.UUID, newAssessment *NewAssessmentInput, date time.Time, entries []GradeEntry) (*GradeSubmissionResult, error) {
	result := &GradeSubmissionResult{GradedStudents: []uuid.UUID{}, SkippedStudents: []SkippedStudent{}}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		ok, err := isOfferingInstructor(tx, offeringID, callerUserID, "primary", "co_instructor")
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.E(apperrors.KindForbidden, "only the primary or co-instructor may submit grades")
		}

		gateOK, err := attendanceGateSatisfied(tx, offeringID, date)
		if err != nil {
			return err
		}
		if !gateOK {
			return apperrors.E(apperrors.KindAttendanceRequired, "no attendance has been recorded for %s", dateOnly(date).Format("2006-01-02"))
		}

		var assessment models.Assessment
		if assessmentID != nil {
			if err := tx.First(&assessment, "id = ? AND course_offering_id = ?", assessmentID, offeringID).Error; err != nil {
				return apperrors.FromDB(err, "assessment")
			}
		} else {
			if newAssessment == nil {
				return apperrors.E(apperrors.KindValidation, "either assessment_id or assessment metadata is required")
			}
			assessment = models.Assessment{
				CourseOfferingID: offeringID,
				Title:            newAssessment.Title,
				AssessmentType:   newAssessment.AssessmentType,
				TotalMarks:       newAssessment.TotalMarks,
				PassingMarks:     newAssessment.PassingMarks,
				WeightPercentage: newAssessment.WeightPercentage,
				IsPublished:      true,
			}
			if assessment.AssessmentType == "" {
				assessment.AssessmentType = "other"
			}
			if err := tx.Create(&assessment).Error; err != nil {
				return apperrors.FromDB(err, "assessment")
			}
		}
		if assessment.TotalMarks <= 0 {
			return apperrors.E(apperrors.KindValidation, "assessment total_marks must be positive")
		}
		result.AssessmentID = assessment.ID

		var scale []models.GradePointScale
		if err := tx.Find(&scale).Error; err != nil {
			return apperrors.FromDB(err, "grade point scale")
		}

		for _, entry := range entries {
			// Most recent attendance across the offering's schedules decides
			// whether the student can be graded for this date.
			var record models.AttendanceRecord
			err := tx.
				Joins("JOIN class_schedules ON class_schedules.id = attendance_records.class_schedule_id").
				Where("class_schedules.course_offering_id = ? AND attendance_records.student_id = ? AND attendance_records.attendance_date = ?",
					offeringID, entry.StudentID, dateOnly(date)).
				Order("attendance_records.marked_at DESC").
				First(&record).Error
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					result.SkippedStudents = append(result.SkippedStudents, SkippedStudent{
						StudentID: entry.StudentID, Reason: "no attendance record for this date",
					})
					continue
				}
				return apperrors.FromDB(err, "attendance record")
			}
			if record.Status == "absent" || record.Status == "late" {
				result.SkippedStudents = append(result.SkippedStudents, SkippedStudent{
					StudentID: entry.StudentID, Reason: "marked " + record.Status + " on this date",
				})
				continue
			}

			percentage := entry.Marks / assessment.TotalMarks * 100
			if percentage < 0 || percentage > 100 {
				return apperrors.E(apperrors.KindValidation, "marks %.2f out of range for total %.2f", entry.Marks, assessment.TotalMarks)
			}
			var letter *string
			if s := letterForPercentage(scale, percentage); s != nil {
				letter = &s.LetterGrade
			}

			var grade models.Grade
			err = tx.Where("assessment_id = ? AND student_id = ?", assessment.ID, entry.StudentID).First(&grade).Error
			switch {
			case err == nil:
				updates := map[string]interface{}{
					"marks_obtained": entry.Marks,
					"percentage":     percentage,
					"letter_grade":   letter,
					"feedback":       entry.Notes,
					"graded_by":      callerUserID,
					"graded_at":      time.Now(),
				}
				if err := tx.Model(&grade).Updates(updates).Error; err != nil {
					return apperrors.FromDB(err, "grade")
				}
			case err == gorm.ErrRecordNotFound:
				grade = models.Grade{
					AssessmentID:  assessment.ID,
					StudentID:     entry.StudentID,
					MarksObtained: entry.Marks,
					Percentage:    percentage,
					LetterGrade:   letter,
					Feedback:      entry.Notes,
					GradedBy:      callerUserID,
					GradedAt:      time.Now(),
				}
				if err := tx.Create(&grade).Error; err != nil {
					return apperrors.FromDB(err, "grade")
				}
			default:
				return apperrors.FromDB(err, "grade")
			}
			result.GradedStudents = append(result.GradedStudents, entry.StudentID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FinalizationResult reports the rollup outcome per offering.
type FinalizationResult struct {
	OfferingID        uuid.UUID `json:"offering_id"`
	FinalizedStudents int       `json:"finalized_students"`
	WeightImbalance   bool      `json:"weight_imbalance"`
	WeightSum         float64   `json:"weight_sum"`
}

// FinalizeOffering computes the final course grade for every live enrollment
// of the offering, maps it through the grade point scale, marks enrollments
// completed, and recomputes each student's GPA inside the same transaction.
func FinalizeOffering(offeringID uuid.UUID) (*FinalizationResult, error) {
	result := &FinalizationResult{OfferingID: offeringID}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var offering models.CourseOffering
		if err := tx.Preload("Course").First(&offering, "id = ?", offeringID).Error; err != nil {
			return apperrors.FromDB(err, "course offering")
		}

		var assessments []models.Assessment
		if err := tx.Where("course_offering_id = ? AND is_published = ?", offeringID, true).
			Find(&assessments).Error; err != nil {
			return apperrors.FromDB(err, "assessment")
		}
		if len(assessments) == 0 {
			return apperrors.E(apperrors.KindPreconditionFailed, "offering has no published assessments to finalize")
		}

		// When any assessment carries is_final grades, only those count.
		// Detect by probing for final-flagged grades.
		assessmentIDs := make([]uuid.UUID, 0, len(assessments))
		for _, a := range assessments {
			assessmentIDs = append(assessmentIDs, a.ID)
		}
		var finalCount int64
		if err := tx.Model(&models.Grade{}).
			Where("assessment_id IN ? AND is_final = ?", assessmentIDs, true).
			Count(&finalCount).Error; err != nil {
			return apperrors.FromDB(err, "grade")
		}
		finalOnly := finalCount > 0

		var weightSum float64
		for _, a := range assessments {
			weightSum += a.WeightPercentage
		}
		result.WeightSum = weightSum
		if math.Abs(weightSum-100) > 0.01 {
			result.WeightImbalance = true
			logrus.WithFields(logrus.Fields{
				"offering_id": offeringID,
				"weight_sum":  weightSum,
			}).Warn("Assessment weights do not sum to 100")
		}

		var scale []models.GradePointScale
		if err := tx.Find(&scale).Error; err != nil {
			return apperrors.FromDB(err, "grade point scale")
		}
		threshold := passingThreshold(scale)

		var enrollments []models.CourseEnrollment
		if err := tx.Where("course_offering_id = ? AND enrollment_status = ?",
			offeringID, models.EnrollmentEnrolled).
			Find(&enrollments).Error; err != nil {
			return apperrors.FromDB(err, "enrollment")
		}

		for i := range enrollments {
			enrollment := &enrollments[i]

			var grades []models.Grade
			if err := tx.Where("assessment_id IN ? AND student_id = ?", assessmentIDs, enrollment.StudentID).
				Find(&grades).Error; err != nil {
				return apperrors.FromDB(err, "grade")
			}
			byAssessment := make(map[uuid.UUID]*models.Grade, len(grades))
			for j := range grades {
				byAssessment[grades[j].AssessmentID] = &grades[j]
			}

			var entries []assessmentGrade
			for _, a := range assessments {
				g := byAssessment[a.ID]
				if finalOnly && (g == nil || !g.IsFinal) {
					continue
				}
				e := assessmentGrade{Weight: a.WeightPercentage}
				if g != nil {
					e.HasGrade = true
					e.Percentage = g.Percentage
					e.Excused = g.IsExcused
				}
				entries = append(entries, e)
			}

			weighted := weightedFinal(entries)
			scaleEntry := letterForPercentage(scale, weighted)
			if scaleEntry == nil {
				return apperrors.E(apperrors.KindInternal, "grade point scale does not cover %.2f%%", weighted)
			}

			if err := Complete(tx, enrollment, scaleEntry.LetterGrade, scaleEntry.GradePoints); err != nil {
				return err
			}
			if err := recomputeStudentAggregates(tx, enrollment.StudentID, scale, threshold); err != nil {
				return err
			}
			notifyGradeFinalized(tx, enrollment, &offering, scaleEntry.LetterGrade)
			result.FinalizedStudents++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// studentAggregates derives gpa and earned credits from completed
// enrollments. gpa is null exactly when total_credits_earned is zero, so a
// transcript holding only failing grades reports no GPA rather than 0.0.
func studentAggregates(completed []models.CourseEnrollment, threshold float64) (*float64, int) {
	var entries []gpaEntry
	creditsEarned := 0
	for _, e := range completed {
		if e.GradePoints == nil {
			continue
		}
		credits := e.CourseOffering.Course.CreditHours
		entries = append(entries, gpaEntry{GradePoints: *e.GradePoints, CreditHours: credits})
		if *e.GradePoints >= threshold {
			creditsEarned += credits
		}
	}
	if creditsEarned == 0 {
		return nil, 0
	}
	return computeGPA(entries), creditsEarned
}

// recomputeStudentAggregates rebuilds gpa and total_credits_earned from all
// completed enrollments, locking the student row for the duration.
func recomputeStudentAggregates(tx *gorm.DB, studentID uuid.UUID, scale []models.GradePointScale, threshold float64) error {
	var student models.Student
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&student, "id = ?", studentID).Error; err != nil {
		return apperrors.FromDB(err, "student")
	}

	var completed []models.CourseEnrollment
	if err := tx.Preload("CourseOffering.Course").
		Where("student_id = ? AND enrollment_status = ? AND grade_points IS NOT NULL",
			studentID, models.EnrollmentCompleted).
		Find(&completed).Error; err != nil {
		return apperrors.FromDB(err, "enrollment")
	}

	gpa, creditsEarned := studentAggregates(completed, threshold)
	updates := map[string]interface{}{
		"gpa":                  gpa,
		"total_credits_earned": creditsEarned,
	}
	if err := tx.Model(&student).Updates(updates).Error; err != nil {
		return apperrors.FromDB(err, "student")
	}
	return nil
}

// FinalizeDueOfferings sweeps terms whose grade submission deadline has
// passed and finalizes any offerings still holding live enrollments. Run by
// the maintenance scheduler.
func FinalizeDueOfferings(now time.Time) {
	var terms []models.AcademicTerm
	if err := database.DB.
		Where("grade_submission_deadline IS NOT NULL AND grade_submission_deadline <= ?", dateOnly(now)).
		Find(&terms).Error; err != nil {
		logrus.WithError(err).Error("Failed to load terms for finalization sweep")
		return
	}

	for _, term := range terms {
		var offeringIDs []uuid.UUID
		err := database.DB.Model(&models.CourseOffering{}).
			Joins("JOIN course_enrollments ON course_enrollments.course_offering_id = course_offerings.id").
			Where("course_offerings.academic_term_id = ? AND course_enrollments.enrollment_status = ?",
				term.ID, models.EnrollmentEnrolled).
			Distinct().
			Pluck("course_offerings.id", &offeringIDs).Error
		if err != nil {
			logrus.WithError(err).Error("Failed to collect offerings for finalization sweep")
			continue
		}

		for _, id := range offeringIDs {
			if _, err := FinalizeOffering(id); err != nil {
				logrus.WithError(err).WithField("offering_id", id).Warn("Finalization sweep skipped offering")
			}
		}
	}
}

// notifyGradeFinalized writes a notification row for the student.
func notifyGradeFinalized(tx *gorm.DB, enrollment *models.CourseEnrollment, offering *models.CourseOffering, letter string) {
	var student models.Student
	if err := tx.First(&student, "id = ?", enrollment.StudentID).Error; err != nil {
		return
	}

	notification := models.Notification{
		UserID: student.UserID,
		Title: models.LocalizedText{
			"en": "Final grade posted",
			"az": "Yekun qiymət elan olundu",
		},
		Message: models.LocalizedText{
			"en": "Your final grade for " + offering.Course.Code + " is " + letter + ".",
			"az": offering.Course.Code + " kursu üzrə yekun qiymətiniz: " + letter + ".",
		},
		Type: "info",
	}
	tx.Create(&notification)
}
