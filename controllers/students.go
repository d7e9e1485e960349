package controllers

import (
	"time"

	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/middleware"
	"unilms_go/models"
	"unilms_go/services"
	"unilms_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudentController struct{}

// currentStudent resolves the caller's student row.
func currentStudent(c *fiber.Ctx) (*models.Student, error) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return nil, apperrors.E(apperrors.KindUnauthorized, "not authenticated")
	}
	var student models.Student
	if err := database.DB.First(&student, "user_id = ?", user.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.E(apperrors.KindForbidden, "account is not linked to a student record")
		}
		return nil, apperrors.FromDB(err, "student")
	}
	return &student, nil
}

// GetStudents lists students with number/name search.
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := database.DB.Model(&models.Student{}).
		Joins("JOIN users ON users.id = students.user_id").
		Joins("LEFT JOIN people ON people.user_id = users.id")
	if search := c.Query("search"); search != "" {
		// Prefix match on number and name parts.
		like := search + "%"
		query = query.
			Where("students.student_number LIKE ? OR users.username LIKE ? OR people.first_name LIKE ? OR people.last_name LIKE ?",
				like, like, like, like)
	}
	if program := c.Query("academic_program_id"); program != "" {
		query = query.Where("students.academic_program_id = ?", program)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("students.status = ?", status)
	}

	var total int64
	query.Count(&total)

	var students []models.Student
	if err := query.Preload("User.Person").Preload("AcademicProgram").
		Order("people.last_name ASC, people.first_name ASC, students.id ASC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&students).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "student"))
	}
	return c.JSON(utils.NewListEnvelope(p, total, students))
}

// GetStudent returns one student with profile and program.
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var student models.Student
	if err := database.DB.Preload("User.Person").Preload("AcademicProgram").
		First(&student, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "student"))
	}
	return c.JSON(fiber.Map{"student": student})
}

type createStudentRequest struct {
	UserID            uuid.UUID `json:"user_id" validate:"required"`
	StudentNumber     string    `json:"student_number" validate:"required"`
	AcademicProgramID uuid.UUID `json:"academic_program_id" validate:"required"`
	EnrollmentDate    time.Time `json:"enrollment_date" validate:"required"`
	StudyMode         string    `json:"study_mode" validate:"omitempty,oneof=full_time part_time distance"`
}

// CreateStudent links an existing user account to a student record.
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	var req createStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", req.UserID).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "user"))
	}
	var program models.AcademicProgram
	if err := database.DB.First(&program, "id = ?", req.AcademicProgramID).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "academic program"))
	}

	student := models.Student{
		UserID:            req.UserID,
		StudentNumber:     req.StudentNumber,
		AcademicProgramID: req.AcademicProgramID,
		EnrollmentDate:    req.EnrollmentDate,
		Status:            "active",
		StudyMode:         req.StudyMode,
	}
	if student.StudyMode == "" {
		student.StudyMode = "full_time"
	}
	if err := database.DB.Create(&student).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "student"))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"student": student})
}

// UpdateStudent patches a student record.
func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var student models.Student
	if err := database.DB.First(&student, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "student"))
	}
	if err := c.BodyParser(&student); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := database.DB.Save(&student).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "student"))
	}
	return c.JSON(fiber.Map{"student": student})
}

// GetMyProfile returns the caller's student record, transcript summary, and
// active enrollments.
func (sc *StudentController) GetMyProfile(c *fiber.Ctx) error {
	student, err := currentStudent(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := database.DB.Preload("User.Person").Preload("AcademicProgram").
		First(student, "id = ?", student.ID).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "student"))
	}

	var enrollments []models.CourseEnrollment
	database.DB.Preload("CourseOffering.Course").Preload("CourseOffering.AcademicTerm").
		Where("student_id = ? AND enrollment_status = ?", student.ID, models.EnrollmentEnrolled).
		Find(&enrollments)

	return c.JSON(fiber.Map{
		"student":     student,
		"enrollments": enrollments,
	})
}

// GetMyTranscript lists the caller's completed enrollments with grades.
func (sc *StudentController) GetMyTranscript(c *fiber.Ctx) error {
	student, err := currentStudent(c)
	if err != nil {
		return respondError(c, err)
	}

	var completed []models.CourseEnrollment
	if err := database.DB.
		Preload("CourseOffering.Course").
		Preload("CourseOffering.AcademicTerm").
		Where("student_id = ? AND enrollment_status = ?", student.ID, models.EnrollmentCompleted).
		Order("created_at ASC").
		Find(&completed).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "enrollment"))
	}

	return c.JSON(fiber.Map{
		"student_number":       student.StudentNumber,
		"gpa":                  student.GPA,
		"total_credits_earned": student.TotalCreditsEarned,
		"entries":              completed,
	})
}

// GetMySchedule materializes the caller's calendar over a date range.
func (sc *StudentController) GetMySchedule(c *fiber.Ctx) error {
	student, err := currentStudent(c)
	if err != nil {
		return respondError(c, err)
	}

	now := time.Now()
	start, err := queryDate(c, "start", now.AddDate(0, 0, -7))
	if err != nil {
		return respondError(c, err)
	}
	end, err := queryDate(c, "end", now.AddDate(0, 0, 21))
	if err != nil {
		return respondError(c, err)
	}

	events, err := services.StudentScheduleEvents(student.ID, start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"events": events})
}

// GetMyGrades lists the caller's per-assessment grades, newest first.
func (sc *StudentController) GetMyGrades(c *fiber.Ctx) error {
	student, err := currentStudent(c)
	if err != nil {
		return respondError(c, err)
	}
	p := utils.ParsePagination(c)

	query := database.DB.Model(&models.Grade{}).Where("student_id = ?", student.ID)
	if offering := c.Query("course_offering_id"); offering != "" {
		query = query.Joins("JOIN assessments ON assessments.id = grades.assessment_id").
			Where("assessments.course_offering_id = ?", offering)
	}

	var total int64
	query.Count(&total)

	var grades []models.Grade
	if err := query.Preload("Assessment").
		Order("grades.graded_at DESC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&grades).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "grade"))
	}
	return c.JSON(utils.NewListEnvelope(p, total, grades))
}
