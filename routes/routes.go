package routes

import (
	"unilms_go/controllers"
	"unilms_go/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes registers the full API surface under /api.
func SetupRoutes(app *fiber.App) {
	auth := &controllers.AuthController{}
	users := &controllers.UserController{}
	orgs := &controllers.OrganizationController{}
	terms := &controllers.TermController{}
	catalog := &controllers.CatalogController{}
	rooms := &controllers.RoomController{}
	offerings := &controllers.OfferingController{}
	students := &controllers.StudentController{}
	staff := &controllers.StaffController{}
	cohorts := &controllers.CohortController{}
	enrollments := &controllers.EnrollmentController{}
	gradeScale := &controllers.GradeScaleController{}
	schedules := &controllers.ScheduleController{}
	attendance := &controllers.AttendanceController{}
	assessments := &controllers.AssessmentController{}
	health := &controllers.HealthController{}

	api := app.Group("/api")

	api.Get("/health", health.Health)

	// Public auth surface
	api.Post("/auth/login", auth.Login)

	// Everything below requires a valid token
	protected := api.Group("", middleware.JWTMiddleware(), middleware.LogActivityMiddleware())

	protected.Post("/auth/logout", auth.Logout)
	protected.Post("/auth/refresh", auth.Refresh)
	protected.Get("/auth/me", auth.Me)
	protected.Post("/auth/change-password", auth.ChangePassword)

	// Accounts (admin only)
	userRoutes := protected.Group("/users", middleware.RequireAdmin())
	userRoutes.Get("/", users.GetUsers)
	userRoutes.Post("/", users.CreateUser)
	userRoutes.Get("/:id", users.GetUser)
	userRoutes.Patch("/:id", users.UpdateUser)

	// Self-service
	protected.Patch("/me/preferences", users.UpdateMyPreferences)
	protected.Get("/me/notifications", users.GetMyNotifications)
	protected.Post("/me/notifications/:id/read", users.MarkNotificationRead)

	// Organization hierarchy
	orgRoutes := protected.Group("/organization-units")
	orgRoutes.Get("/", orgs.GetUnits)
	orgRoutes.Get("/tree", orgs.GetUnitTree)
	orgRoutes.Get("/:id", orgs.GetUnit)
	orgRoutes.Post("/", middleware.RequireAdmin(), orgs.CreateUnit)
	orgRoutes.Patch("/:id", middleware.RequireAdmin(), orgs.UpdateUnit)
	orgRoutes.Delete("/:id", middleware.RequireAdmin(), orgs.DeactivateUnit)

	// Academic terms
	termRoutes := protected.Group("/terms")
	termRoutes.Get("/", terms.GetTerms)
	termRoutes.Get("/current", terms.GetCurrentTerm)
	termRoutes.Get("/:id", terms.GetTerm)
	termRoutes.Get("/:id/events", terms.GetTermEvents)
	termRoutes.Post("/", middleware.RequireAdmin(), terms.CreateTerm)
	termRoutes.Patch("/:id", middleware.RequireAdmin(), terms.UpdateTerm)
	termRoutes.Post("/:id/set-current", middleware.RequireAdmin(), terms.SetCurrentTerm)

	// Grade point scale
	scaleRoutes := protected.Group("/grade-scale")
	scaleRoutes.Get("/", gradeScale.GetGradeScale)
	scaleRoutes.Post("/", middleware.RequireAdmin(), gradeScale.CreateGradeScaleEntry)
	scaleRoutes.Patch("/:id", middleware.RequireAdmin(), gradeScale.UpdateGradeScaleEntry)
	scaleRoutes.Delete("/:id", middleware.RequireAdmin(), gradeScale.DeleteGradeScaleEntry)

	// Catalog
	programRoutes := protected.Group("/programs")
	programRoutes.Get("/", catalog.GetPrograms)
	programRoutes.Get("/:id", catalog.GetProgram)
	programRoutes.Post("/", middleware.RequireAdmin(), catalog.CreateProgram)
	programRoutes.Patch("/:id", middleware.RequireAdmin(), catalog.UpdateProgram)

	courseRoutes := protected.Group("/courses")
	courseRoutes.Get("/", catalog.GetCourses)
	courseRoutes.Get("/:id", catalog.GetCourse)
	courseRoutes.Post("/", middleware.RequireAdmin(), catalog.CreateCourse)
	courseRoutes.Patch("/:id", middleware.RequireAdmin(), catalog.UpdateCourse)

	// Rooms
	roomRoutes := protected.Group("/rooms")
	roomRoutes.Get("/", rooms.GetRooms)
	roomRoutes.Get("/:id", rooms.GetRoom)
	roomRoutes.Post("/", middleware.RequireAdmin(), rooms.CreateRoom)
	roomRoutes.Patch("/:id", middleware.RequireAdmin(), rooms.UpdateRoom)

	// Offerings
	offeringRoutes := protected.Group("/offerings")
	offeringRoutes.Get("/", offerings.GetOfferings)
	offeringRoutes.Get("/:id", offerings.GetOffering)
	offeringRoutes.Get("/:id/roster", middleware.RequireTeacherOrAbove(), offerings.GetOfferingRoster)
	offeringRoutes.Get("/:id/calendar", schedules.GetOfferingCalendar)
	offeringRoutes.Post("/", middleware.RequireAdmin(), offerings.CreateOffering)
	offeringRoutes.Patch("/:id/capacity", middleware.RequireAdmin(), offerings.UpdateCapacity)
	offeringRoutes.Post("/:id/publish", middleware.RequireAdmin(), offerings.PublishOffering)
	offeringRoutes.Post("/:id/close", middleware.RequireAdmin(), offerings.CloseOffering)
	offeringRoutes.Delete("/:id", middleware.RequireAdmin(), offerings.DeleteOffering)
	offeringRoutes.Post("/:id/instructors", middleware.RequireAdmin(), offerings.AssignInstructor)
	offeringRoutes.Put("/:id/instructors/primary", middleware.RequireAdmin(), offerings.ReplacePrimaryInstructor)

	// Assessments and grades
	offeringRoutes.Get("/:id/assessments", middleware.RequireTeacherOrAbove(), assessments.GetAssessments)
	offeringRoutes.Get("/:id/gradebook", middleware.RequireTeacherOrAbove(), assessments.GetGradebook)
	offeringRoutes.Get("/:id/gradebook/export", middleware.RequireTeacherOrAbove(), assessments.ExportGradebook)
	offeringRoutes.Post("/:id/finalize", middleware.RequireAdmin(), assessments.FinalizeOffering)
	protected.Post("/assessments", middleware.RequireTeacherOrAbove(), assessments.CreateAssessment)
	protected.Post("/grades", middleware.RequireTeacherOrAbove(), assessments.SubmitGrades)

	// Students
	studentRoutes := protected.Group("/students")
	studentRoutes.Get("/me", students.GetMyProfile)
	studentRoutes.Get("/me/transcript", students.GetMyTranscript)
	studentRoutes.Get("/me/schedule", students.GetMySchedule)
	studentRoutes.Get("/me/grades", students.GetMyGrades)
	studentRoutes.Get("/", middleware.RequireTeacherOrAbove(), students.GetStudents)
	studentRoutes.Get("/:id", middleware.RequireTeacherOrAbove(), students.GetStudent)
	studentRoutes.Post("/", middleware.RequireAdmin(), students.CreateStudent)
	studentRoutes.Patch("/:id", middleware.RequireAdmin(), students.UpdateStudent)

	// Staff and teacher self-service
	staffRoutes := protected.Group("/staff")
	staffRoutes.Get("/me/offerings", staff.GetMyOfferings)
	staffRoutes.Get("/me/schedule", staff.GetMySchedule)
	staffRoutes.Get("/", middleware.RequireAdmin(), staff.GetStaff)
	staffRoutes.Get("/:id", middleware.RequireAdmin(), staff.GetStaffMember)
	staffRoutes.Post("/", middleware.RequireAdmin(), staff.CreateStaffMember)
	staffRoutes.Patch("/:id", middleware.RequireAdmin(), staff.UpdateStaffMember)

	// Cohorts
	cohortRoutes := protected.Group("/cohorts", middleware.RequireAdmin())
	cohortRoutes.Get("/", cohorts.GetCohorts)
	cohortRoutes.Get("/:id", cohorts.GetCohort)
	cohortRoutes.Post("/", cohorts.CreateCohort)
	cohortRoutes.Post("/:id/members", cohorts.AddCohortMember)
	cohortRoutes.Delete("/:id/members/:studentId", cohorts.RemoveCohortMember)

	// Enrollment lifecycle
	enrollmentRoutes := protected.Group("/enrollments")
	enrollmentRoutes.Post("/", enrollments.Enroll)
	enrollmentRoutes.Post("/:id/drop", enrollments.Drop)

	// Schedule templates
	protected.Get("/time-slots", schedules.GetTimeSlots)
	scheduleRoutes := protected.Group("/schedules")
	scheduleRoutes.Post("/", middleware.RequireAdmin(), schedules.CreateSchedule)
	scheduleRoutes.Patch("/:id", middleware.RequireAdmin(), schedules.UpdateSchedule)
	scheduleRoutes.Delete("/:id", middleware.RequireAdmin(), schedules.DeleteSchedule)
	scheduleRoutes.Post("/collapse-legacy", middleware.RequireAdmin(), schedules.CollapseLegacySchedules)
	scheduleRoutes.Get("/:id/attendance", middleware.RequireTeacherOrAbove(), attendance.GetAttendanceRoster)

	// Attendance
	protected.Post("/attendance", middleware.RequireTeacherOrAbove(), attendance.SubmitAttendance)
}
