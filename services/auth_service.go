package services

import (
	"strings"

	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/middleware"
	"unilms_go/models"
	"unilms_go/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const maxFailedLogins = 5

// Portal identifiers accepted at login.
const (
	PortalStudent = "student"
	PortalTeacher = "teacher"
	PortalAdmin   = "admin"
)

// ResolveUserType determines the caller's effective type. A metadata role
// override wins, then roster membership: a Student row yields STUDENT, a
// staff member with an administrative role yields ADMIN, any other staff
// member yields TEACHER.
func ResolveUserType(tx *gorm.DB, user *models.User) (string, error) {
	switch strings.ToUpper(user.MetadataRole()) {
	case middleware.UserTypeSysadmin:
		return middleware.UserTypeSysadmin, nil
	case middleware.UserTypeAdmin:
		return middleware.UserTypeAdmin, nil
	case middleware.UserTypeTeacher:
		return middleware.UserTypeTeacher, nil
	case middleware.UserTypeStudent:
		return middleware.UserTypeStudent, nil
	}

	var studentCount int64
	if err := tx.Model(&models.Student{}).Where("user_id = ?", user.ID).Count(&studentCount).Error; err != nil {
		return "", apperrors.FromDB(err, "student")
	}
	if studentCount > 0 {
		return middleware.UserTypeStudent, nil
	}

	var staff models.StaffMember
	err := tx.Where("user_id = ? AND is_active = ?", user.ID, true).First(&staff).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", apperrors.E(apperrors.KindForbidden, "account is not linked to a student or staff record")
		}
		return "", apperrors.FromDB(err, "staff member")
	}
	if models.IsAdministrativeRole(staff.AdministrativeRole) {
		return middleware.UserTypeAdmin, nil
	}
	return middleware.UserTypeTeacher, nil
}

// checkPortalAccess gates resolved types against the requested portal.
// The student portal admits students only; the teacher portal admits
// teaching staff and administrators; the admin portal admits
// administrators only.
func checkPortalAccess(userType, portal string) error {
	switch strings.ToLower(portal) {
	case PortalStudent:
		if userType != middleware.UserTypeStudent {
			return apperrors.E(apperrors.KindForbidden, "Only students can access the student portal.")
		}
	case PortalTeacher:
		switch userType {
		case middleware.UserTypeTeacher, middleware.UserTypeAdmin, middleware.UserTypeSysadmin:
		case middleware.UserTypeStudent:
			return apperrors.E(apperrors.KindForbidden, "Students cannot access the teacher portal.")
		default:
			return apperrors.E(apperrors.KindForbidden, "Only teaching staff can access the teacher portal.")
		}
	case PortalAdmin:
		if userType != middleware.UserTypeAdmin && userType != middleware.UserTypeSysadmin {
			return apperrors.E(apperrors.KindForbidden, "Only administrators can access the admin portal.")
		}
	default:
		return apperrors.E(apperrors.KindValidation, "unknown portal '%s'", portal)
	}
	return nil
}

// LoginResult bundles the issued token with the resolved identity.
type LoginResult struct {
	Token    string       `json:"token"`
	UserType string       `json:"user_type"`
	User     *models.User `json:"user"`
}

// Authenticate verifies credentials and issues a token. Failed attempts
// increment a counter that locks the account at the threshold. Accounts
// migrated with plaintext passwords are upgraded to bcrypt on first
// successful login.
func Authenticate(username, password, portal string) (*LoginResult, error) {
	var user models.User
	err := database.DB.Preload("Person").
		Where("username = ? OR email = ?", username, username).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.E(apperrors.KindUnauthorized, "Invalid credentials")
		}
		return nil, apperrors.FromDB(err, "user")
	}

	if user.IsLocked {
		return nil, apperrors.E(apperrors.KindForbidden, "Account is locked. Contact an administrator.")
	}
	if !user.IsActive {
		return nil, apperrors.E(apperrors.KindForbidden, "Account is deactivated.")
	}

	var passwordOK bool
	var upgradeHash bool
	if utils.IsHashedPassword(user.PasswordHash) {
		passwordOK = utils.CheckPassword(user.PasswordHash, password)
	} else {
		// Legacy import rows store plaintext until first login.
		passwordOK = utils.ConstantTimeEquals(user.PasswordHash, password)
		upgradeHash = passwordOK
	}

	if !passwordOK {
		updates := map[string]interface{}{"failed_login_count": gorm.Expr("failed_login_count + 1")}
		if user.FailedLoginCount+1 >= maxFailedLogins {
			updates["is_locked"] = true
		}
		if dbErr := database.DB.Model(&user).Updates(updates).Error; dbErr != nil {
			logrus.WithError(dbErr).Error("Failed to record failed login attempt")
		}
		return nil, apperrors.E(apperrors.KindUnauthorized, "Invalid credentials")
	}

	userType, err := ResolveUserType(database.DB, &user)
	if err != nil {
		return nil, err
	}
	if err := checkPortalAccess(userType, portal); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"failed_login_count": 0}
	if upgradeHash {
		if hashed, hashErr := utils.HashPassword(password); hashErr == nil {
			updates["password_hash"] = hashed
		} else {
			logrus.WithError(hashErr).Error("Failed to upgrade legacy password hash")
		}
	}
	if dbErr := database.DB.Model(&user).Updates(updates).Error; dbErr != nil {
		logrus.WithError(dbErr).Error("Failed to reset failed login counter")
	}

	token, err := middleware.GenerateToken(&user, userType)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "failed to sign token")
	}

	return &LoginResult{Token: token, UserType: userType, User: &user}, nil
}

// RefreshToken re-resolves the caller's type and issues a fresh token.
func RefreshToken(user *models.User) (*LoginResult, error) {
	userType, err := ResolveUserType(database.DB, user)
	if err != nil {
		return nil, err
	}
	token, err := middleware.GenerateToken(user, userType)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "failed to sign token")
	}
	return &LoginResult{Token: token, UserType: userType, User: user}, nil
}
