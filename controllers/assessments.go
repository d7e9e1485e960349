package controllers

import (
	"fmt"
	"time"

	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/middleware"
	"unilms_go/models"
	"unilms_go/services"
	"unilms_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type AssessmentController struct{}

// GetAssessments lists assessments of an offering.
func (ac *AssessmentController) GetAssessments(c *fiber.Ctx) error {
	offeringID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var assessments []models.Assessment
	if err := database.DB.Where("course_offering_id = ?", offeringID).
		Order("due_date ASC, created_at ASC").
		Find(&assessments).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "assessment"))
	}

	var weightSum float64
	for _, a := range assessments {
		weightSum += a.WeightPercentage
	}

	return c.JSON(fiber.Map{
		"assessments": assessments,
		"weight_sum":  weightSum,
	})
}

type assessmentRequest struct {
	CourseOfferingID uuid.UUID            `json:"course_offering_id" validate:"required"`
	Title            models.LocalizedText `json:"title" validate:"required"`
	AssessmentType   string               `json:"assessment_type" validate:"required,oneof=exam quiz assignment project presentation participation lab other"`
	TotalMarks       float64              `json:"total_marks" validate:"required,gt=0"`
	PassingMarks     float64              `json:"passing_marks" validate:"min=0"`
	WeightPercentage float64              `json:"weight_percentage" validate:"required,gt=0,max=100"`
	DueDate          *time.Time           `json:"due_date"`
	Instructions     string               `json:"instructions"`
}

// CreateAssessment adds a gradable item to an offering.
func (ac *AssessmentController) CreateAssessment(c *fiber.Ctx) error {
	var req assessmentRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	var offering models.CourseOffering
	if err := database.DB.First(&offering, "id = ?", req.CourseOfferingID).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "course offering"))
	}

	assessment := models.Assessment{
		CourseOfferingID: req.CourseOfferingID,
		Title:            req.Title,
		AssessmentType:   req.AssessmentType,
		TotalMarks:       req.TotalMarks,
		PassingMarks:     req.PassingMarks,
		WeightPercentage: req.WeightPercentage,
		DueDate:          req.DueDate,
		Instructions:     req.Instructions,
		IsPublished:      true,
	}
	if err := database.DB.Create(&assessment).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "assessment"))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"assessment": assessment})
}

type submitGradesRequest struct {
	CourseOfferingID uuid.UUID                    `json:"course_offering_id" validate:"required"`
	AssessmentID     *uuid.UUID                   `json:"assessment_id"`
	Assessment       *services.NewAssessmentInput `json:"assessment"`
	Date             string                       `json:"date" validate:"required"`
	Entries          []services.GradeEntry        `json:"entries" validate:"required,min=1,dive"`
}

// SubmitGrades records marks for a batch of students. Attendance for the date
// must exist first; absent and late students come back in skipped_students.
func (ac *AssessmentController) SubmitGrades(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return respondError(c, apperrors.E(apperrors.KindUnauthorized, "not authenticated"))
	}

	var req submitGradesRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid date, expected YYYY-MM-DD"))
	}

	result, err := services.SubmitGrades(user.ID, req.CourseOfferingID, req.AssessmentID, req.Assessment, date, req.Entries)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"result": result})
}

// FinalizeOffering computes final grades, completes enrollments, and rolls up
// each student's GPA.
func (ac *AssessmentController) FinalizeOffering(c *fiber.Ctx) error {
	offeringID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	result, err := services.FinalizeOffering(offeringID)
	if err != nil {
		return respondError(c, err)
	}
	middleware.LogActivity(c, "FINALIZE", "offerings", offeringID.String(), result)
	return c.JSON(fiber.Map{"result": result})
}

// gradebookRows loads the gradebook matrix of an offering.
func gradebookRows(offeringID uuid.UUID) ([]models.Assessment, []models.CourseEnrollment, map[uuid.UUID]map[uuid.UUID]*models.Grade, error) {
	var assessments []models.Assessment
	if err := database.DB.Where("course_offering_id = ?", offeringID).
		Order("due_date ASC, created_at ASC").
		Find(&assessments).Error; err != nil {
		return nil, nil, nil, apperrors.FromDB(err, "assessment")
	}

	var enrollments []models.CourseEnrollment
	if err := database.DB.Preload("Student.User.Person").
		Where("course_offering_id = ? AND enrollment_status IN ?",
			offeringID, models.LiveEnrollmentStatuses).
		Find(&enrollments).Error; err != nil {
		return nil, nil, nil, apperrors.FromDB(err, "enrollment")
	}

	assessmentIDs := make([]uuid.UUID, 0, len(assessments))
	for _, a := range assessments {
		assessmentIDs = append(assessmentIDs, a.ID)
	}

	byStudent := make(map[uuid.UUID]map[uuid.UUID]*models.Grade)
	if len(assessmentIDs) > 0 {
		var grades []models.Grade
		if err := database.DB.Where("assessment_id IN ?", assessmentIDs).
			Find(&grades).Error; err != nil {
			return nil, nil, nil, apperrors.FromDB(err, "grade")
		}
		for i := range grades {
			g := &grades[i]
			if byStudent[g.StudentID] == nil {
				byStudent[g.StudentID] = make(map[uuid.UUID]*models.Grade)
			}
			byStudent[g.StudentID][g.AssessmentID] = g
		}
	}
	return assessments, enrollments, byStudent, nil
}

// GetGradebook returns the offering's grade matrix as JSON.
func (ac *AssessmentController) GetGradebook(c *fiber.Ctx) error {
	offeringID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	lang := requestLanguage(c)

	assessments, enrollments, byStudent, err := gradebookRows(offeringID)
	if err != nil {
		return respondError(c, err)
	}

	type cell struct {
		AssessmentID uuid.UUID `json:"assessment_id"`
		Marks        *float64  `json:"marks"`
		Percentage   *float64  `json:"percentage"`
		LetterGrade  *string   `json:"letter_grade"`
		IsExcused    bool      `json:"is_excused"`
	}
	type row struct {
		StudentID     uuid.UUID `json:"student_id"`
		StudentNumber string    `json:"student_number"`
		FullName      string    `json:"full_name"`
		FinalGrade    *string   `json:"final_grade"`
		Cells         []cell    `json:"cells"`
	}

	rows := make([]row, 0, len(enrollments))
	for _, e := range enrollments {
		r := row{
			StudentID:     e.StudentID,
			StudentNumber: e.Student.StudentNumber,
			FullName:      utils.FullName(e.Student.User.Person),
			FinalGrade:    e.Grade,
		}
		for _, a := range assessments {
			cl := cell{AssessmentID: a.ID}
			if g, ok := byStudent[e.StudentID][a.ID]; ok {
				cl.Marks = &g.MarksObtained
				cl.Percentage = &g.Percentage
				cl.LetterGrade = g.LetterGrade
				cl.IsExcused = g.IsExcused
			}
			r.Cells = append(r.Cells, cl)
		}
		rows = append(rows, r)
	}

	type column struct {
		AssessmentID uuid.UUID `json:"assessment_id"`
		Title        string    `json:"title"`
		Weight       float64   `json:"weight"`
		TotalMarks   float64   `json:"total_marks"`
	}
	columns := make([]column, 0, len(assessments))
	for _, a := range assessments {
		columns = append(columns, column{
			AssessmentID: a.ID,
			Title:        a.Title.Resolve(lang),
			Weight:       a.WeightPercentage,
			TotalMarks:   a.TotalMarks,
		})
	}

	return c.JSON(fiber.Map{
		"columns": columns,
		"rows":    rows,
	})
}

// ExportGradebook streams the grade matrix as an xlsx workbook.
func (ac *AssessmentController) ExportGradebook(c *fiber.Ctx) error {
	offeringID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	lang := requestLanguage(c)

	var offering models.CourseOffering
	if err := database.DB.Preload("Course").Preload("AcademicTerm").
		First(&offering, "id = ?", offeringID).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "course offering"))
	}

	assessments, enrollments, byStudent, err := gradebookRows(offeringID)
	if err != nil {
		return respondError(c, err)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Gradebook"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Student Number", "Full Name"}
	for _, a := range assessments {
		headers = append(headers, fmt.Sprintf("%s (%.0f%%)", a.Title.Resolve(lang), a.WeightPercentage))
	}
	headers = append(headers, "Final Grade", "Attendance %")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for rowIdx, e := range enrollments {
		values := []interface{}{
			e.Student.StudentNumber,
			utils.FullName(e.Student.User.Person),
		}
		for _, a := range assessments {
			if g, ok := byStudent[e.StudentID][a.ID]; ok {
				if g.IsExcused {
					values = append(values, "excused")
				} else {
					values = append(values, g.MarksObtained)
				}
			} else {
				values = append(values, "")
			}
		}
		if e.Grade != nil {
			values = append(values, *e.Grade)
		} else {
			values = append(values, "")
		}
		if e.AttendancePercentage != nil {
			values = append(values, fmt.Sprintf("%.1f", *e.AttendancePercentage))
		} else {
			values = append(values, "")
		}

		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return respondError(c, apperrors.Wrap(err, apperrors.KindInternal, "failed to build workbook"))
	}

	fileName := fmt.Sprintf("gradebook_%s_%s.xlsx", offering.Course.Code, offering.SectionCode)
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	return c.Send(buf.Bytes())
}
