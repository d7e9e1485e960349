package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Assessment is a gradable item attached to a course offering.
type Assessment struct {
	BaseModel
	CourseOfferingID     uuid.UUID      `json:"course_offering_id" gorm:"type:char(36);not null;index"`
	Title                LocalizedText  `json:"title" gorm:"type:json"`
	AssessmentType       string         `json:"assessment_type" gorm:"size:20;not null;type:enum('exam','quiz','assignment','project','presentation','participation','lab','other')"`
	TotalMarks           float64        `json:"total_marks" gorm:"not null"`
	PassingMarks         float64        `json:"passing_marks"`
	WeightPercentage     float64        `json:"weight_percentage" gorm:"not null"`
	DueDate              *time.Time     `json:"due_date"`
	DurationMinutes      *int           `json:"duration_minutes"`
	Instructions         string         `json:"instructions" gorm:"type:text"`
	Rubric               datatypes.JSON `json:"rubric,omitempty"`
	SubmissionType       string         `json:"submission_type" gorm:"size:20;default:'in_class'"`
	IsPublished          bool           `json:"is_published" gorm:"default:false"`
	AllowsLateSubmission bool           `json:"allows_late_submission" gorm:"default:false"`

	CourseOffering CourseOffering `json:"course_offering,omitempty" gorm:"foreignKey:CourseOfferingID"`
}

// Grade is the mark a student obtained in an assessment. At most one row per
// (assessment, student); resubmission updates in place.
type Grade struct {
	BaseModel
	AssessmentID  uuid.UUID `json:"assessment_id" gorm:"type:char(36);not null;uniqueIndex:idx_grade_key,priority:1"`
	StudentID     uuid.UUID `json:"student_id" gorm:"type:char(36);not null;uniqueIndex:idx_grade_key,priority:2"`
	MarksObtained float64   `json:"marks_obtained" gorm:"not null"`
	Percentage    float64   `json:"percentage" gorm:"not null"`
	LetterGrade   *string   `json:"letter_grade" gorm:"size:5"`
	Feedback      string    `json:"feedback" gorm:"type:text"`
	GradedBy      uuid.UUID `json:"graded_by" gorm:"type:char(36);not null"`
	GradedAt      time.Time `json:"graded_at" gorm:"not null"`
	IsFinal       bool      `json:"is_final" gorm:"default:false"`
	IsExcused     bool      `json:"is_excused" gorm:"default:false"`

	Assessment Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
	Student    Student    `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}
