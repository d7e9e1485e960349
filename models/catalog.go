package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AcademicProgram model. A degree program owned by an organization unit.
type AcademicProgram struct {
	BaseModel
	Code                   string         `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name                   LocalizedText  `json:"name" gorm:"type:json"`
	OrganizationUnitID     uuid.UUID      `json:"organization_unit_id" gorm:"type:char(36);not null;index"`
	DegreeType             string         `json:"degree_type" gorm:"size:50;not null;type:enum('bachelor','master','phd','diploma','certificate')"`
	DurationYears          int            `json:"duration_years" gorm:"not null"`
	TotalCredits           int            `json:"total_credits" gorm:"not null"`
	LanguagesOfInstruction datatypes.JSON `json:"languages_of_instruction,omitempty"`
	IsActive               bool           `json:"is_active" gorm:"default:true"`

	OrganizationUnit OrganizationUnit `json:"organization_unit,omitempty" gorm:"foreignKey:OrganizationUnitID"`
}

// Course model. Canonical catalog entry, independent of term.
type Course struct {
	BaseModel
	Code          string         `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name          LocalizedText  `json:"name" gorm:"type:json"`
	CreditHours   int            `json:"credit_hours" gorm:"not null"`
	LectureHours  int            `json:"lecture_hours"`
	TutorialHours int            `json:"tutorial_hours"`
	LabHours      int            `json:"lab_hours"`
	CourseLevel   string         `json:"course_level" gorm:"size:50"`
	Prerequisites datatypes.JSON `json:"prerequisites,omitempty"`
	IsActive      bool           `json:"is_active" gorm:"default:true"`
}

// CourseOffering model. A course scheduled in a term. CurrentEnrollment is a
// derived cache and must equal the count of live enrollments.
type CourseOffering struct {
	BaseModel
	CourseID              uuid.UUID `json:"course_id" gorm:"type:char(36);not null;uniqueIndex:idx_offering_section,priority:1"`
	AcademicTermID        uuid.UUID `json:"academic_term_id" gorm:"type:char(36);not null;uniqueIndex:idx_offering_section,priority:2"`
	SectionCode           string    `json:"section_code" gorm:"size:20;not null;uniqueIndex:idx_offering_section,priority:3"`
	LanguageOfInstruction string    `json:"language_of_instruction" gorm:"size:10"`
	MaxEnrollment         int       `json:"max_enrollment" gorm:"not null"`
	CurrentEnrollment     int       `json:"current_enrollment" gorm:"not null;default:0"`
	DeliveryMode          string    `json:"delivery_mode" gorm:"size:20;default:'in_person';type:enum('in_person','online','hybrid')"`
	IsPublished           bool      `json:"is_published" gorm:"default:false"`
	EnrollmentStatus      string    `json:"enrollment_status" gorm:"size:20;default:'open';type:enum('open','closed','waitlisted')"`

	Course       Course       `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	AcademicTerm AcademicTerm `json:"academic_term,omitempty" gorm:"foreignKey:AcademicTermID"`
}

// Room model
type Room struct {
	BaseModel
	RoomNumber string `json:"room_number" gorm:"size:50;not null;uniqueIndex"`
	Building   string `json:"building" gorm:"size:100"`
	Capacity   int    `json:"capacity"`
	IsActive   bool   `json:"is_active" gorm:"default:true"`
}

// TimeSlot model. Catalog of canonical start/end pairs used by legacy
// expansion; not authoritative once ClassSchedule rows exist.
type TimeSlot struct {
	BaseModel
	Code      string `json:"code" gorm:"size:20;uniqueIndex"`
	StartTime string `json:"start_time" gorm:"size:5;not null"`
	EndTime   string `json:"end_time" gorm:"size:5;not null"`
}

// AcademicScheduleEvent model. Calendar events attached to an academic term
// (exam weeks, orientation days and similar).
type AcademicScheduleEvent struct {
	BaseModel
	AcademicTermID uuid.UUID     `json:"academic_term_id" gorm:"type:char(36);not null;index"`
	Title          LocalizedText `json:"title" gorm:"type:json"`
	EventType      string        `json:"event_type" gorm:"size:50;not null"`
	StartDate      time.Time     `json:"start_date" gorm:"type:date;not null"`
	EndDate        time.Time     `json:"end_date" gorm:"type:date;not null"`
	Notes          string        `json:"notes" gorm:"type:text"`

	AcademicTerm AcademicTerm `json:"academic_term,omitempty" gorm:"foreignKey:AcademicTermID"`
}
