package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base model with common fields. Identifiers are opaque UUIDs.
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// LocalizedText maps 2-letter language codes to display strings.
// Stored as a JSON column.
type LocalizedText map[string]string

func (t LocalizedText) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

func (t *LocalizedText) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for LocalizedText", value)
	}
	if len(b) == 0 {
		*t = nil
		return nil
	}
	return json.Unmarshal(b, t)
}

// Resolve picks a display string: requested language, then "en", then "az",
// then any value, then "".
func (t LocalizedText) Resolve(lang string) string {
	if len(t) == 0 {
		return ""
	}
	if v, ok := t[lang]; ok && v != "" {
		return v
	}
	for _, fallback := range []string{"en", "az"} {
		if fallback == lang {
			continue
		}
		if v, ok := t[fallback]; ok && v != "" {
			return v
		}
	}
	for _, v := range t {
		if v != "" {
			return v
		}
	}
	return ""
}

// User model
type User struct {
	BaseModel
	Username         string         `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Email            string         `json:"email" gorm:"size:255;uniqueIndex"`
	PasswordHash     string         `json:"-" gorm:"size:255;not null"`
	IsActive         bool           `json:"is_active" gorm:"default:true"`
	IsLocked         bool           `json:"is_locked" gorm:"default:false"`
	EmailVerified    bool           `json:"email_verified" gorm:"default:false"`
	FailedLoginCount int            `json:"failed_login_count" gorm:"default:0"`
	Metadata         datatypes.JSON `json:"metadata,omitempty"`

	// Relationships
	Person      *Person         `json:"person,omitempty" gorm:"foreignKey:UserID"`
	Student     *Student        `json:"student,omitempty" gorm:"foreignKey:UserID"`
	Staff       *StaffMember    `json:"staff,omitempty" gorm:"foreignKey:UserID"`
	Preferences *UserPreference `json:"preferences,omitempty" gorm:"foreignKey:UserID"`
}

// MetadataRole returns the role override carried in the metadata mapping.
// The override exists for bootstrapping sysadmin accounts.
func (u *User) MetadataRole() string {
	if len(u.Metadata) == 0 {
		return ""
	}
	var m map[string]interface{}
	if err := json.Unmarshal(u.Metadata, &m); err != nil {
		return ""
	}
	if role, ok := m["role"].(string); ok {
		return role
	}
	return ""
}

// Person model. One-to-one with a User; nil UserID marks a service account.
type Person struct {
	BaseModel
	UserID           *uuid.UUID     `json:"user_id" gorm:"type:char(36);uniqueIndex"`
	FirstName        string         `json:"first_name" gorm:"size:100;not null"`
	LastName         string         `json:"last_name" gorm:"size:100;not null"`
	MiddleName       string         `json:"middle_name" gorm:"size:100"`
	DateOfBirth      *time.Time     `json:"date_of_birth" gorm:"type:date"`
	Gender           string         `json:"gender" gorm:"size:20"`
	Nationality      string         `json:"nationality" gorm:"size:100"`
	NationalID       string         `json:"national_id" gorm:"size:64"`
	Phone            string         `json:"phone" gorm:"size:30"`
	ContactEmail     string         `json:"contact_email" gorm:"size:255"`
	Address          datatypes.JSON `json:"address,omitempty"`
	EmergencyContact datatypes.JSON `json:"emergency_contact,omitempty"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// UserPreference model; at most one row per user.
type UserPreference struct {
	BaseModel
	UserID             uuid.UUID `json:"user_id" gorm:"type:char(36);uniqueIndex;not null"`
	Language           string    `json:"language" gorm:"size:10;default:'az'"`
	Timezone           string    `json:"timezone" gorm:"size:64;default:'Asia/Baku'"`
	Theme              string    `json:"theme" gorm:"size:20;default:'light'"`
	EmailNotifications bool      `json:"email_notifications" gorm:"default:true"`
	PushNotifications  bool      `json:"push_notifications" gorm:"default:true"`
}

// OrganizationUnit model. Self-referential hierarchy; the parent graph must
// stay acyclic (enforced at write time by the org service).
type OrganizationUnit struct {
	BaseModel
	Code          string         `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name          LocalizedText  `json:"name" gorm:"type:json"`
	Type          string         `json:"type" gorm:"size:50;not null;type:enum('university','faculty','department','institute','center','other')"`
	ParentID      *uuid.UUID     `json:"parent_id" gorm:"type:char(36);index"`
	HeadUserID    *uuid.UUID     `json:"head_user_id" gorm:"type:char(36)"`
	DeputyUserIDs datatypes.JSON `json:"deputy_user_ids,omitempty"`
	IsActive      bool           `json:"is_active" gorm:"default:true"`

	Parent   *OrganizationUnit  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children []OrganizationUnit `json:"children,omitempty" gorm:"foreignKey:ParentID"`
}

// AcademicTerm model. At most one row has IsCurrent set.
type AcademicTerm struct {
	BaseModel
	AcademicYear            string     `json:"academic_year" gorm:"size:20;not null"`
	TermType                string     `json:"term_type" gorm:"size:20;not null;type:enum('fall','spring','summer','winter')"`
	TermNumber              int        `json:"term_number" gorm:"not null"`
	StartDate               time.Time  `json:"start_date" gorm:"type:date;not null"`
	EndDate                 time.Time  `json:"end_date" gorm:"type:date;not null"`
	RegistrationStart       *time.Time `json:"registration_start" gorm:"type:date"`
	RegistrationEnd         *time.Time `json:"registration_end" gorm:"type:date"`
	AddDropDeadline         *time.Time `json:"add_drop_deadline" gorm:"type:date"`
	WithdrawalDeadline      *time.Time `json:"withdrawal_deadline" gorm:"type:date"`
	GradeSubmissionDeadline *time.Time `json:"grade_submission_deadline" gorm:"type:date"`
	IsCurrent               bool       `json:"is_current" gorm:"default:false"`
}

// GradePointScale entry mapping a letter grade to grade points and a
// percentage range. Resolution walks entries by DisplayOrder descending.
type GradePointScale struct {
	BaseModel
	LetterGrade   string  `json:"letter_grade" gorm:"size:5;not null;uniqueIndex"`
	GradePoints   float64 `json:"grade_points" gorm:"not null"`
	MinPercentage float64 `json:"min_percentage" gorm:"not null"`
	MaxPercentage float64 `json:"max_percentage" gorm:"not null"`
	DisplayOrder  int     `json:"display_order" gorm:"not null"`
	IsPassing     bool    `json:"is_passing" gorm:"default:true"`
}

// Notification model. Text is carried per language; there is no push channel.
type Notification struct {
	BaseModel
	UserID  uuid.UUID     `json:"user_id" gorm:"type:char(36);not null;index"`
	Title   LocalizedText `json:"title" gorm:"type:json"`
	Message LocalizedText `json:"message" gorm:"type:json"`
	Type    string        `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"`
	Read    bool          `json:"read" gorm:"default:false"`
	ReadAt  *time.Time    `json:"read_at"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// ActivityLog model for audit tracking
type ActivityLog struct {
	BaseModel
	UserID     *uuid.UUID     `json:"user_id" gorm:"type:char(36);index"`
	Action     string         `json:"action" gorm:"size:100;not null"`
	Resource   string         `json:"resource" gorm:"size:100;not null"`
	ResourceID string         `json:"resource_id" gorm:"size:36"`
	Details    datatypes.JSON `json:"details,omitempty"`
	IPAddress  string         `json:"ip_address" gorm:"size:45"`
	UserAgent  string         `json:"user_agent" gorm:"size:500"`
}

// LogArchive model for tracking archived activity logs
type LogArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"`
	Error       string    `json:"error" gorm:"type:text"`
}
