package models

import (
	"time"

	"github.com/google/uuid"
)

// Canonical enrollment status values. "active" is accepted as a synonym for
// "enrolled" on input and normalized on write.
const (
	EnrollmentEnrolled  = "enrolled"
	EnrollmentDropped   = "dropped"
	EnrollmentWithdrawn = "withdrawn"
	EnrollmentCompleted = "completed"
)

// LiveEnrollmentStatuses are the statuses counted against offering capacity.
var LiveEnrollmentStatuses = []string{EnrollmentEnrolled, EnrollmentCompleted}

// NormalizeEnrollmentStatus collapses the legacy "active" value.
func NormalizeEnrollmentStatus(status string) string {
	if status == "active" {
		return EnrollmentEnrolled
	}
	return status
}

// Student model. One-to-one with a User. GPA and TotalCreditsEarned are
// derived and recomputed inside the finalization transaction.
type Student struct {
	BaseModel
	UserID                 uuid.UUID  `json:"user_id" gorm:"type:char(36);uniqueIndex;not null"`
	StudentNumber          string     `json:"student_number" gorm:"size:50;not null;uniqueIndex"`
	AcademicProgramID      uuid.UUID  `json:"academic_program_id" gorm:"type:char(36);not null;index"`
	EnrollmentDate         time.Time  `json:"enrollment_date" gorm:"type:date;not null"`
	ExpectedGraduationDate *time.Time `json:"expected_graduation_date" gorm:"type:date"`
	Status                 string     `json:"status" gorm:"size:20;not null;default:'active';type:enum('active','graduated','withdrawn','suspended','deferred')"`
	StudyMode              string     `json:"study_mode" gorm:"size:20;default:'full_time'"`
	FundingType            string     `json:"funding_type" gorm:"size:30"`
	GPA                    *float64   `json:"gpa"`
	TotalCreditsEarned     int        `json:"total_credits_earned" gorm:"default:0"`

	User            User            `json:"user,omitempty" gorm:"foreignKey:UserID"`
	AcademicProgram AcademicProgram `json:"academic_program,omitempty" gorm:"foreignKey:AcademicProgramID"`
}

// Administrative roles that elevate a staff member to ADMIN at login.
var AdministrativeRoles = []string{"rector", "vice_rector", "dean", "vice_dean", "head_of_department"}

// IsAdministrativeRole reports whether role belongs to the closed set.
func IsAdministrativeRole(role string) bool {
	for _, r := range AdministrativeRoles {
		if r == role {
			return true
		}
	}
	return false
}

// StaffMember model. One-to-one with a User.
type StaffMember struct {
	BaseModel
	UserID             uuid.UUID     `json:"user_id" gorm:"type:char(36);uniqueIndex;not null"`
	EmployeeNumber     string        `json:"employee_number" gorm:"size:50;not null;uniqueIndex"`
	OrganizationUnitID uuid.UUID     `json:"organization_unit_id" gorm:"type:char(36);not null;index"`
	PositionTitle      LocalizedText `json:"position_title" gorm:"type:json"`
	EmploymentType     string        `json:"employment_type" gorm:"size:30;default:'full_time'"`
	HireDate           time.Time     `json:"hire_date" gorm:"type:date;not null"`
	ContractEndDate    *time.Time    `json:"contract_end_date" gorm:"type:date"`
	AcademicRank       string        `json:"academic_rank" gorm:"size:50"`
	AdministrativeRole string        `json:"administrative_role" gorm:"size:50"`
	IsActive           bool          `json:"is_active" gorm:"default:true"`

	User             User             `json:"user,omitempty" gorm:"foreignKey:UserID"`
	OrganizationUnit OrganizationUnit `json:"organization_unit,omitempty" gorm:"foreignKey:OrganizationUnitID"`
}

// StudentCohort groups students for administrative cohorting.
type StudentCohort struct {
	BaseModel
	Name              LocalizedText `json:"name" gorm:"type:json"`
	AcademicYear      string        `json:"academic_year" gorm:"size:20;not null"`
	AcademicProgramID uuid.UUID     `json:"academic_program_id" gorm:"type:char(36);not null;index"`
	Language          string        `json:"language" gorm:"size:10"`
	IsActive          bool          `json:"is_active" gorm:"default:true"`

	AcademicProgram AcademicProgram `json:"academic_program,omitempty" gorm:"foreignKey:AcademicProgramID"`
	Members         []CohortMember  `json:"members,omitempty" gorm:"foreignKey:CohortID"`
}

// CohortMember is a time-bounded cohort membership.
type CohortMember struct {
	BaseModel
	CohortID  uuid.UUID `json:"cohort_id" gorm:"type:char(36);not null;index:idx_cohort_member"`
	StudentID uuid.UUID `json:"student_id" gorm:"type:char(36);not null;index:idx_cohort_member"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`

	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// CourseInstructor links a user acting as instructor to an offering.
// At most one primary per offering.
type CourseInstructor struct {
	BaseModel
	CourseOfferingID uuid.UUID `json:"course_offering_id" gorm:"type:char(36);not null;index:idx_offering_instructor"`
	UserID           uuid.UUID `json:"user_id" gorm:"type:char(36);not null;index:idx_offering_instructor"`
	Role             string    `json:"role" gorm:"size:20;not null;type:enum('primary','co_instructor','assistant')"`
	AssignedDate     time.Time `json:"assigned_date" gorm:"type:date;not null"`

	CourseOffering CourseOffering `json:"course_offering,omitempty" gorm:"foreignKey:CourseOfferingID"`
	User           User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// CourseEnrollment links a student to an offering. At most one live row per
// (offering, student); historical dropped/withdrawn rows coexist for
// transcripts, so uniqueness is enforced by the roster service, not a
// database constraint.
type CourseEnrollment struct {
	BaseModel
	CourseOfferingID     uuid.UUID `json:"course_offering_id" gorm:"type:char(36);not null;index:idx_enrollment_offering_student,priority:1"`
	StudentID            uuid.UUID `json:"student_id" gorm:"type:char(36);not null;index:idx_enrollment_offering_student,priority:2"`
	EnrollmentDate       time.Time `json:"enrollment_date" gorm:"type:date;not null"`
	EnrollmentStatus     string    `json:"enrollment_status" gorm:"size:20;not null;default:'enrolled';type:enum('enrolled','dropped','withdrawn','completed')"`
	Grade                *string   `json:"grade" gorm:"size:5"`
	GradePoints          *float64  `json:"grade_points"`
	AttendancePercentage *float64  `json:"attendance_percentage"`

	CourseOffering CourseOffering `json:"course_offering,omitempty" gorm:"foreignKey:CourseOfferingID"`
	Student        Student        `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// IsLive reports whether the enrollment counts against offering capacity.
func (e *CourseEnrollment) IsLive() bool {
	return e.EnrollmentStatus == EnrollmentEnrolled || e.EnrollmentStatus == EnrollmentCompleted
}
