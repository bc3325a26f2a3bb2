package controllers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"aspira/backend/config"
	"aspira/backend/middleware"
	"aspira/backend/models"
	"aspira/backend/utils"
)

type CoursesController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *log.Logger
}

func NewCoursesController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *CoursesController {
	return &CoursesController{DB: db, Cfg: cfg, Log: logger}
}

// Create adds a course owned by the caller. An admin may hand it to any
// teacher instead.
func (cc *CoursesController) Create(c *fiber.Ctx) error {
	actor := middleware.CurrentUser(c)

	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Teacher     uint   `json:"teacher"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Title == "" {
		return utils.BadRequest(c, "Title required")
	}

	teacherID := actor.ID
	if actor.Role == models.RoleAdmin && input.Teacher != 0 {
		var teacher models.User
		err := cc.DB.First(&teacher, input.Teacher).Error
		if err != nil || teacher.Role != models.RoleTeacher {
			return utils.BadRequest(c, "Invalid teacher ID")
		}
		teacherID = teacher.ID
	}

	course := models.Course{
		Title:       input.Title,
		Description: input.Description,
		TeacherID:   &teacherID,
	}
	if err := cc.DB.Create(&course).Error; err != nil {
		cc.Log.Printf("courses: create: %v", err)
		return utils.InternalServerError(c, "Could not create course")
	}

	cc.DB.Preload("Teacher").First(&course, course.ID)
	return c.JSON(course)
}

// List applies role-scoped visibility: admins see everything, teachers
// their own courses, students the ones they are enrolled in. Any other
// role sees nothing.
func (cc *CoursesController) List(c *fiber.Ctx) error {
	actor := middleware.CurrentUser(c)

	query := cc.DB.Preload("Teacher").Preload("Students")
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleTeacher:
		query = query.Where("teacher_id = ?", actor.ID)
	case models.RoleStudent:
		query = query.
			Joins("JOIN course_students ON course_students.course_id = courses.id").
			Where("course_students.user_id = ?", actor.ID)
	default:
		return c.JSON([]models.Course{})
	}

	var courses []models.Course
	if err := query.Find(&courses).Error; err != nil {
		cc.Log.Printf("courses: list: %v", err)
		return utils.InternalServerError(c, "Could not query database")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return c.JSON(courses)
}

func (cc *CoursesController) Get(c *fiber.Ctx) error {
	course, err := cc.loadCourse(c, c.Params("id"), "Teacher", "Students", "Contents", "Submissions")
	if err != nil {
		return err
	}
	return c.JSON(course)
}

// Update edits title and description; an admin may also reassign the
// owning teacher.
func (cc *CoursesController) Update(c *fiber.Ctx) error {
	actor := middleware.CurrentUser(c)

	course, err := cc.loadCourse(c, c.Params("id"))
	if err != nil {
		return err
	}

	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Teacher     uint   `json:"teacher"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if input.Title != "" {
		course.Title = input.Title
	}
	if input.Description != "" {
		course.Description = input.Description
	}
	if actor.Role == models.RoleAdmin && input.Teacher != 0 {
		var teacher models.User
		err := cc.DB.First(&teacher, input.Teacher).Error
		if err != nil || teacher.Role != models.RoleTeacher {
			return utils.BadRequest(c, "Invalid teacher ID")
		}
		course.TeacherID = &teacher.ID
	}

	if err := cc.DB.Save(course).Error; err != nil {
		cc.Log.Printf("courses: update: %v", err)
		return utils.InternalServerError(c, "Could not update course")
	}

	cc.DB.Preload("Teacher").First(course, course.ID)
	return c.JSON(fiber.Map{"msg": "Course updated successfully", "course": course})
}

// Delete removes the course. Contents, submissions, attendance sessions
// and enrollments go with it.
func (cc *CoursesController) Delete(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	res := cc.DB.Delete(&models.Course{}, courseID)
	if res.Error != nil {
		cc.Log.Printf("courses: delete: %v", res.Error)
		return utils.InternalServerError(c, "Could not delete course")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Course not found")
	}

	return c.JSON(fiber.Map{"msg": "Course deleted successfully"})
}

// AddStudent enrolls a student. Enrolling an already-enrolled student is
// a no-op, so the roster keeps set semantics.
func (cc *CoursesController) AddStudent(c *fiber.Ctx) error {
	course, err := cc.loadCourse(c, c.Params("id"), "Students")
	if err != nil {
		return err
	}

	var input struct {
		StudentID uint `json:"studentId"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.StudentID == 0 {
		return utils.BadRequest(c, "studentId required")
	}

	var student models.User
	if err := cc.DB.First(&student, input.StudentID).Error; err != nil {
		return utils.NotFound(c, "Student not found")
	}

	enrolled := false
	for _, s := range course.Students {
		if s.ID == student.ID {
			enrolled = true
			break
		}
	}
	if !enrolled {
		if err := cc.DB.Model(course).Association("Students").Append(&student); err != nil {
			cc.Log.Printf("courses: add student: %v", err)
			return utils.InternalServerError(c, "Could not enroll student")
		}
	}

	cc.DB.Preload("Students").First(course, course.ID)
	return c.JSON(course)
}

// UploadContent stores a file for the course. The title falls back to
// the original filename when none is given.
func (cc *CoursesController) UploadContent(c *fiber.Ctx) error {
	course, err := cc.loadCourse(c, c.Params("id"))
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.BadRequest(c, "No file uploaded")
	}

	title := c.FormValue("title")
	if title == "" {
		title = file.Filename
	}

	path, err := utils.SaveUpload(c, file, cc.Cfg.UploadDir, utils.UploadContents)
	if err != nil {
		cc.Log.Printf("courses: save content: %v", err)
		return utils.InternalServerError(c, "Server error during upload")
	}

	content := models.Content{
		CourseID: course.ID,
		Title:    title,
		File:     path,
	}
	if err := cc.DB.Create(&content).Error; err != nil {
		cc.Log.Printf("courses: create content: %v", err)
		return utils.InternalServerError(c, "Could not store content")
	}

	return c.JSON(fiber.Map{"msg": "Content added successfully", "content": content})
}

// DeleteContent removes one content item. Deleting an id that is already
// gone still succeeds; the end state is the same.
func (cc *CoursesController) DeleteContent(c *fiber.Ctx) error {
	course, err := cc.loadCourse(c, c.Params("id"))
	if err != nil {
		return err
	}

	contentID, err := strconv.Atoi(c.Params("contentId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid content ID")
	}

	res := cc.DB.Where("course_id = ?", course.ID).Delete(&models.Content{}, contentID)
	if res.Error != nil {
		cc.Log.Printf("courses: delete content: %v", res.Error)
		return utils.InternalServerError(c, "Could not delete content")
	}

	return c.JSON(fiber.Map{"msg": "Content deleted"})
}

// Submit records a student's uploaded work for the course.
func (cc *CoursesController) Submit(c *fiber.Ctx) error {
	actor := middleware.CurrentUser(c)

	course, err := cc.loadCourse(c, c.Params("id"))
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.BadRequest(c, "No file uploaded")
	}

	path, err := utils.SaveUpload(c, file, cc.Cfg.UploadDir, utils.UploadSubmissions)
	if err != nil {
		cc.Log.Printf("courses: save submission: %v", err)
		return utils.InternalServerError(c, "Server error during upload")
	}

	submission := models.Submission{
		CourseID:  course.ID,
		StudentID: actor.ID,
		File:      path,
		Notes:     c.FormValue("notes"),
		Status:    models.StatusSubmitted,
	}
	if err := cc.DB.Create(&submission).Error; err != nil {
		cc.Log.Printf("courses: create submission: %v", err)
		return utils.InternalServerError(c, "Could not store submission")
	}

	return c.JSON(fiber.Map{"msg": "Submitted", "submission": submission})
}

// ListSubmissions returns all submissions with the student reference
// resolved; a vanished student renders as null rather than failing.
func (cc *CoursesController) ListSubmissions(c *fiber.Ctx) error {
	course, err := cc.loadCourse(c, c.Params("id"), "Submissions")
	if err != nil {
		return err
	}

	students := cc.studentIndex(collectStudentIDs(course.Submissions))

	out := make([]fiber.Map, 0, len(course.Submissions))
	for _, s := range course.Submissions {
		var studentView interface{}
		if student, ok := students[s.StudentID]; ok {
			studentView = fiber.Map{
				"id":        student.ID,
				"firstname": student.FirstName,
				"lastname":  student.LastName,
				"email":     student.Email,
			}
		}
		out = append(out, fiber.Map{
			"id":        s.ID,
			"student":   studentView,
			"file":      s.File,
			"notes":     s.Notes,
			"grade":     s.Grade,
			"status":    s.Status,
			"createdAt": s.CreatedAt,
		})
	}

	return c.JSON(out)
}

// MySubmissions returns only the acting student's submissions.
func (cc *CoursesController) MySubmissions(c *fiber.Ctx) error {
	actor := middleware.CurrentUser(c)

	course, err := cc.loadCourse(c, c.Params("id"))
	if err != nil {
		return err
	}

	var submissions []models.Submission
	if err := cc.DB.Where("course_id = ? AND student_id = ?", course.ID, actor.ID).
		Find(&submissions).Error; err != nil {
		cc.Log.Printf("courses: my submissions: %v", err)
		return utils.InternalServerError(c, "Could not query database")
	}
	return c.JSON(submissions)
}

// Grade attaches a grade to a submission and moves it to Graded. The
// transition is unconditional: clearing the grade to empty still marks
// the submission Graded.
func (cc *CoursesController) Grade(c *fiber.Ctx) error {
	courseParam := c.Params("id")
	if courseParam == "" {
		courseParam = c.Params("courseId")
	}

	course, err := cc.loadCourse(c, courseParam)
	if err != nil {
		return err
	}

	submissionID, err := strconv.Atoi(c.Params("submissionId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid submission ID")
	}

	var input struct {
		Grade string `json:"grade"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var submission models.Submission
	err = cc.DB.Where("course_id = ?", course.ID).First(&submission, submissionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Submission not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	submission.Grade = input.Grade
	submission.Status = models.StatusGraded
	if err := cc.DB.Save(&submission).Error; err != nil {
		cc.Log.Printf("courses: grade: %v", err)
		return utils.InternalServerError(c, "Server error while grading")
	}

	return c.JSON(fiber.Map{"msg": "Grade updated successfully", "submission": submission})
}

// loadCourse resolves the :id param to a course or writes the error
// response itself and returns it.
func (cc *CoursesController) loadCourse(c *fiber.Ctx, param string, preloads ...string) (*models.Course, error) {
	courseID, err := strconv.Atoi(param)
	if err != nil {
		return nil, utils.BadRequest(c, "Invalid course ID")
	}

	query := cc.DB
	for _, p := range preloads {
		query = query.Preload(p)
	}

	var course models.Course
	if err := query.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound(c, "Course not found")
		}
		cc.Log.Printf("courses: load %d: %v", courseID, err)
		return nil, utils.InternalServerError(c, "Could not query database")
	}
	return &course, nil
}

// studentIndex loads the given users into an id -> user map. Missing ids
// are simply absent from the map.
func (cc *CoursesController) studentIndex(ids []uint) map[uint]models.User {
	index := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return index
	}

	var users []models.User
	cc.DB.Where("id IN ?", ids).Find(&users)
	for _, u := range users {
		index[u.ID] = u
	}
	return index
}

func collectStudentIDs(submissions []models.Submission) []uint {
	seen := make(map[uint]bool, len(submissions))
	ids := make([]uint, 0, len(submissions))
	for _, s := range submissions {
		if !seen[s.StudentID] {
			seen[s.StudentID] = true
			ids = append(ids, s.StudentID)
		}
	}
	return ids
}
