package utils

import (
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"aspira/backend/models"
)

// Seed loads the example accounts, courses and announcement used for
// local development. It is idempotent: existing rows are left alone.
func Seed(db *gorm.DB, logger *log.Logger) error {
	if _, err := seedUser(db, models.User{
		FirstName: "Super", LastName: "Admin",
		Email: "admin@aspira.edu", Role: models.RoleAdmin,
	}, "AdminPass123", logger); err != nil {
		return err
	}

	teacher, err := seedUser(db, models.User{
		FirstName: "Jane", LastName: "Professor",
		Email: "prof.jane@aspira.edu", Role: models.RoleTeacher,
	}, "TeacherPass123", logger)
	if err != nil {
		return err
	}

	s1, err := seedUser(db, models.User{
		FirstName: "Student", LastName: "One",
		Email: "student1@aspira.edu", Role: models.RoleStudent,
	}, "Student123", logger)
	if err != nil {
		return err
	}

	s2, err := seedUser(db, models.User{
		FirstName: "Student", LastName: "Two",
		Email: "student2@aspira.edu", Role: models.RoleStudent,
	}, "Student123", logger)
	if err != nil {
		return err
	}

	if err := seedCourse(db, "Introduction to Programming", "Learn programming basics",
		teacher, []models.User{*s1, *s2}, logger); err != nil {
		return err
	}
	if err := seedCourse(db, "Foundations of Information Security", "Security fundamentals",
		teacher, []models.User{*s1}, logger); err != nil {
		return err
	}

	var ann models.Announcement
	err = db.Where("title = ?", "Welcome to Aspira").First(&ann).Error
	if err == gorm.ErrRecordNotFound {
		ann = models.Announcement{
			Title:    "Welcome to Aspira",
			Message:  "Platform seeded with example data",
			AuthorID: &teacher.ID,
		}
		if err := db.Create(&ann).Error; err != nil {
			return err
		}
		logger.Println("Announcement created")
	} else if err != nil {
		return err
	}

	logger.Println("Seeding complete")
	return nil
}

func seedUser(db *gorm.DB, u models.User, password string, logger *log.Logger) (*models.User, error) {
	var existing models.User
	err := db.Where("email = ?", u.Email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u.Password = string(hash)

	if err := db.Create(&u).Error; err != nil {
		return nil, err
	}
	logger.Printf("User created: %s / %s", u.Email, password)
	return &u, nil
}

func seedCourse(db *gorm.DB, title, desc string, teacher *models.User, students []models.User, logger *log.Logger) error {
	var existing models.Course
	err := db.Where("title = ?", title).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	course := models.Course{
		Title:       title,
		Description: desc,
		TeacherID:   &teacher.ID,
		Students:    students,
		Contents: []models.Content{
			{Title: "Syllabus", File: "/uploads/contents/syllabus.pdf"},
		},
	}
	if err := db.Create(&course).Error; err != nil {
		return err
	}
	logger.Printf("Course created: %s", title)
	return nil
}
