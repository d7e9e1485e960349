package seeders

import (
	"log"
	"time"

	"unilms_go/database"
	"unilms_go/models"
	"unilms_go/utils"

	"gorm.io/datatypes"
)

// RunSeeders inserts baseline reference data. Every seeder is idempotent and
// skips rows that already exist.
func RunSeeders() {
	seedGradePointScale()
	seedSysadmin()
	seedCurrentTerm()
	log.Println("Seeding completed")
}

// seedGradePointScale installs the default letter grade scale.
func seedGradePointScale() {
	var count int64
	database.DB.Model(&models.GradePointScale{}).Count(&count)
	if count > 0 {
		return
	}

	entries := []models.GradePointScale{
		{LetterGrade: "A", GradePoints: 4.0, MinPercentage: 90, MaxPercentage: 100, DisplayOrder: 7, IsPassing: true},
		{LetterGrade: "B+", GradePoints: 3.5, MinPercentage: 85, MaxPercentage: 89.99, DisplayOrder: 6, IsPassing: true},
		{LetterGrade: "B", GradePoints: 3.0, MinPercentage: 80, MaxPercentage: 84.99, DisplayOrder: 5, IsPassing: true},
		{LetterGrade: "C+", GradePoints: 2.5, MinPercentage: 70, MaxPercentage: 79.99, DisplayOrder: 4, IsPassing: true},
		{LetterGrade: "C", GradePoints: 2.0, MinPercentage: 60, MaxPercentage: 69.99, DisplayOrder: 3, IsPassing: true},
		{LetterGrade: "D", GradePoints: 1.0, MinPercentage: 50, MaxPercentage: 59.99, DisplayOrder: 2, IsPassing: true},
		{LetterGrade: "F", GradePoints: 0.0, MinPercentage: 0, MaxPercentage: 49.99, DisplayOrder: 1, IsPassing: false},
	}
	for _, e := range entries {
		if err := database.DB.Create(&e).Error; err != nil {
			log.Printf("Failed to seed grade scale entry %s: %v", e.LetterGrade, err)
		}
	}
	log.Println("Seeded grade point scale")
}

// seedSysadmin creates the bootstrap administrator account.
func seedSysadmin() {
	var count int64
	database.DB.Model(&models.User{}).Where("username = ?", "sysadmin").Count(&count)
	if count > 0 {
		return
	}

	hashed, err := utils.HashPassword("ChangeMe_2025")
	if err != nil {
		log.Printf("Failed to hash sysadmin password: %v", err)
		return
	}

	user := models.User{
		Username:     "sysadmin",
		Email:        "sysadmin@university.edu.az",
		PasswordHash: hashed,
		IsActive:     true,
		Metadata:     datatypes.JSON([]byte(`{"role":"SYSADMIN"}`)),
	}
	if err := database.DB.Create(&user).Error; err != nil {
		log.Printf("Failed to seed sysadmin: %v", err)
		return
	}

	person := models.Person{
		UserID:    &user.ID,
		FirstName: "System",
		LastName:  "Administrator",
	}
	database.DB.Create(&person)
	log.Println("Seeded sysadmin account")
}

// seedCurrentTerm installs a term covering today so a fresh install is usable
// immediately.
func seedCurrentTerm() {
	var count int64
	database.DB.Model(&models.AcademicTerm{}).Count(&count)
	if count > 0 {
		return
	}

	now := time.Now()
	year := now.Year()
	start := time.Date(year, 9, 15, 0, 0, 0, 0, time.UTC)
	if now.Before(start) {
		start = time.Date(year, 2, 1, 0, 0, 0, 0, time.UTC)
	}
	end := start.AddDate(0, 4, 0)
	regEnd := start.AddDate(0, 0, 14)
	addDrop := start.AddDate(0, 0, 21)
	withdrawal := start.AddDate(0, 2, 0)
	gradeDeadline := end.AddDate(0, 0, 14)

	term := models.AcademicTerm{
		AcademicYear:            time.Now().Format("2006") + "-" + time.Now().AddDate(1, 0, 0).Format("2006"),
		TermType:                "fall",
		TermNumber:              1,
		StartDate:               start,
		EndDate:                 end,
		RegistrationStart:       &start,
		RegistrationEnd:         &regEnd,
		AddDropDeadline:         &addDrop,
		WithdrawalDeadline:      &withdrawal,
		GradeSubmissionDeadline: &gradeDeadline,
		IsCurrent:               true,
	}
	if err := database.DB.Create(&term).Error; err != nil {
		log.Printf("Failed to seed academic term: %v", err)
		return
	}
	log.Println("Seeded current academic term")
}
