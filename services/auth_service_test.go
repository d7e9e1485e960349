package services

import (
	"testing"

	"unilms_go/apperrors"
	"unilms_go/middleware"
	"unilms_go/models"

	"gorm.io/datatypes"
)

func TestCheckPortalAccess(t *testing.T) {
	tests := []struct {
		name     string
		userType string
		portal   string
		wantErr  bool
	}{
		{"student into student portal", middleware.UserTypeStudent, "student", false},
		{"student into teacher portal", middleware.UserTypeStudent, "teacher", true},
		{"student into admin portal", middleware.UserTypeStudent, "admin", true},
		{"teacher into teacher portal", middleware.UserTypeTeacher, "teacher", false},
		{"teacher into student portal", middleware.UserTypeTeacher, "student", true},
		{"teacher into admin portal", middleware.UserTypeTeacher, "admin", true},
		{"admin into teacher portal", middleware.UserTypeAdmin, "teacher", false},
		{"admin into admin portal", middleware.UserTypeAdmin, "admin", false},
		{"admin into student portal", middleware.UserTypeAdmin, "student", true},
		{"sysadmin into admin portal", middleware.UserTypeSysadmin, "admin", false},
		{"sysadmin into teacher portal", middleware.UserTypeSysadmin, "teacher", false},
		{"sysadmin into student portal", middleware.UserTypeSysadmin, "student", true},
		{"empty portal", middleware.UserTypeStudent, "", true},
		{"unknown portal", middleware.UserTypeAdmin, "wizard", true},
	}

	for _, tt := range tests {
		err := checkPortalAccess(tt.userType, tt.portal)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: checkPortalAccess(%s, %s) error = %v, wantErr %v",
				tt.name, tt.userType, tt.portal, err, tt.wantErr)
		}
	}
}

func TestCheckPortalAccessStudentMessage(t *testing.T) {
	err := checkPortalAccess(middleware.UserTypeStudent, "teacher")
	e, ok := apperrors.As(err)
	if !ok {
		t.Fatal("expected a domain error")
	}
	if e.Kind != apperrors.KindForbidden {
		t.Errorf("kind = %s, want FORBIDDEN", e.Kind)
	}
	if e.Message != "Students cannot access the teacher portal." {
		t.Errorf("unexpected message: %q", e.Message)
	}
}

func TestCheckPortalAccessAdminIntoStudentPortal(t *testing.T) {
	err := checkPortalAccess(middleware.UserTypeAdmin, "student")
	e, ok := apperrors.As(err)
	if !ok {
		t.Fatal("expected a domain error")
	}
	if e.Kind != apperrors.KindForbidden {
		t.Errorf("kind = %s, want FORBIDDEN", e.Kind)
	}
}

func TestResolveUserTypeMetadataOverride(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{"SYSADMIN", middleware.UserTypeSysadmin},
		{"ADMIN", middleware.UserTypeAdmin},
		{"TEACHER", middleware.UserTypeTeacher},
		{"STUDENT", middleware.UserTypeStudent},
		{"teacher", middleware.UserTypeTeacher},
	}

	for _, tt := range tests {
		// The override path returns before any roster lookup.
		user := models.User{Metadata: datatypes.JSON(`{"role":"` + tt.role + `"}`)}
		got, err := ResolveUserType(nil, &user)
		if err != nil {
			t.Errorf("role %q: unexpected error: %v", tt.role, err)
			continue
		}
		if got != tt.want {
			t.Errorf("role %q resolved to %s, want %s", tt.role, got, tt.want)
		}
	}
}
