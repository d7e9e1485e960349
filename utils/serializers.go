package utils

import (
	"time"

	"unilms_go/models"

	"github.com/google/uuid"
)

// Compact representations used across APIs

type UserShort struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email,omitempty"`
	FullName string    `json:"full_name,omitempty"`
}

// FullName joins person name parts in display order.
func FullName(p *models.Person) string {
	if p == nil {
		return ""
	}
	name := p.FirstName
	if p.MiddleName != "" {
		name += " " + p.MiddleName
	}
	if p.LastName != "" {
		name += " " + p.LastName
	}
	return name
}

// ToUserShort maps a user with an optionally preloaded person.
func ToUserShort(u *models.User) UserShort {
	short := UserShort{ID: u.ID, Username: u.Username, Email: u.Email}
	if u.Person != nil {
		short.FullName = FullName(u.Person)
	}
	return short
}

// LocalizedField returns the full mapping plus, when lang is set, the
// resolved scalar. Handlers attach both to responses.
type LocalizedField struct {
	Values   models.LocalizedText `json:"values"`
	Resolved string               `json:"resolved,omitempty"`
}

func NewLocalizedField(t models.LocalizedText, lang string) LocalizedField {
	f := LocalizedField{Values: t}
	if lang != "" {
		f.Resolved = t.Resolve(lang)
	}
	return f
}

// ScheduleEvent is one dated occurrence of a class schedule template.
type ScheduleEvent struct {
	ScheduleID     uuid.UUID  `json:"schedule_id"`
	CourseCode     string     `json:"course_code"`
	CourseName     string     `json:"course_name"`
	Start          time.Time  `json:"start"`
	End            time.Time  `json:"end"`
	RoomNumber     string     `json:"room,omitempty"`
	ScheduleType   string     `json:"type"`
	InstructorName string     `json:"instructor_name,omitempty"`
	Color          string     `json:"color"`
	RoomID         *uuid.UUID `json:"room_id,omitempty"`
}
