package models

import (
	"time"

	"github.com/google/uuid"
)

// ClassSchedule is a recurring weekly template attached to an offering.
// DayOfWeek uses 0=Monday .. 6=Sunday. Times of day are "HH:MM" strings so
// that half-open interval comparisons are plain lexical comparisons.
type ClassSchedule struct {
	BaseModel
	CourseOfferingID uuid.UUID  `json:"course_offering_id" gorm:"type:char(36);not null;index"`
	DayOfWeek        int        `json:"day_of_week" gorm:"not null;index"`
	StartTime        string     `json:"start_time" gorm:"size:5;not null"`
	EndTime          string     `json:"end_time" gorm:"size:5;not null"`
	RoomID           *uuid.UUID `json:"room_id" gorm:"type:char(36);index"`
	ScheduleType     string     `json:"schedule_type" gorm:"size:20;default:'lecture';type:enum('lecture','tutorial','lab','exam')"`
	InstructorID     *uuid.UUID `json:"instructor_id" gorm:"type:char(36);index"`
	IsRecurring      bool       `json:"is_recurring" gorm:"default:true"`
	EffectiveFrom    *time.Time `json:"effective_from" gorm:"type:date"`
	EffectiveUntil   *time.Time `json:"effective_until" gorm:"type:date"`

	CourseOffering CourseOffering `json:"course_offering,omitempty" gorm:"foreignKey:CourseOfferingID"`
	Room           *Room          `json:"room,omitempty" gorm:"foreignKey:RoomID"`
	Instructor     *User          `json:"instructor,omitempty" gorm:"foreignKey:InstructorID"`
}

// DayOfWeekFor converts a calendar weekday to the 0=Monday convention.
func DayOfWeekFor(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// AttendanceRecord is keyed by (schedule, student, date); bulk submissions
// upsert on that key.
type AttendanceRecord struct {
	BaseModel
	ClassScheduleID uuid.UUID  `json:"class_schedule_id" gorm:"type:char(36);not null;uniqueIndex:idx_attendance_key,priority:1"`
	StudentID       uuid.UUID  `json:"student_id" gorm:"type:char(36);not null;uniqueIndex:idx_attendance_key,priority:2"`
	AttendanceDate  time.Time  `json:"attendance_date" gorm:"type:date;not null;uniqueIndex:idx_attendance_key,priority:3"`
	Status          string     `json:"status" gorm:"size:20;not null;type:enum('present','absent','late','excused')"`
	Notes           string     `json:"notes" gorm:"type:text"`
	CheckInTime     *time.Time `json:"check_in_time"`
	CheckOutTime    *time.Time `json:"check_out_time"`
	MarkedBy        uuid.UUID  `json:"marked_by" gorm:"type:char(36);not null"`
	MarkedAt        time.Time  `json:"marked_at" gorm:"not null"`

	ClassSchedule ClassSchedule `json:"class_schedule,omitempty" gorm:"foreignKey:ClassScheduleID"`
	Student       Student       `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}
