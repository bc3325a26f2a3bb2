package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aspira/backend/config"
	"aspira/backend/models"
	"aspira/backend/utils"
)

// AttendanceController maintains the per-course calendar of attendance
// sessions. Day matching is UTC throughout; the (course, day) unique
// index makes concurrent marking converge on a single session per day.
type AttendanceController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *log.Logger
}

func NewAttendanceController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *AttendanceController {
	return &AttendanceController{DB: db, Cfg: cfg, Log: logger}
}

// List returns every session for the course in insertion order, with
// student references resolved to display names.
func (at *AttendanceController) List(c *fiber.Ctx) error {
	courseID, err := at.courseID(c)
	if err != nil {
		return err
	}

	sessions, err := at.loadSessions(c, courseID)
	if err != nil {
		return err
	}
	return c.JSON(at.resolveSessions(sessions))
}

type MarkAttendanceInput struct {
	Date    string            `json:"date" validate:"required"`
	Records []MarkRecordInput `json:"records"`
}

// MarkRecordInput tolerates sloppy payloads: the student id may arrive
// as a number or a numeric string. Anything else decodes to 0, so the
// record gets skipped instead of failing the whole request.
type MarkRecordInput struct {
	StudentID uint
	Status    string
}

func (r *MarkRecordInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		StudentID json.RawMessage `json:"student_id"`
		Status    string          `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Status = raw.Status
	r.StudentID = 0

	var id uint
	if json.Unmarshal(raw.StudentID, &id) == nil {
		r.StudentID = id
		return nil
	}
	var s string
	if json.Unmarshal(raw.StudentID, &s) == nil {
		if n, err := strconv.ParseUint(s, 10, 32); err == nil {
			r.StudentID = uint(n)
		}
	}
	return nil
}

// Mark saves the session for the given calendar day. An existing session
// on that day has its records replaced wholesale; otherwise a new session
// is appended. Records without a usable student id are skipped rather
// than failing the request, and reported back in the response.
func (at *AttendanceController) Mark(c *fiber.Ctx) error {
	courseID, err := at.courseID(c)
	if err != nil {
		return err
	}

	var input MarkAttendanceInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	day, perr := parseDay(input.Date)
	if perr != nil {
		return utils.BadRequest(c, "Invalid date")
	}

	records := make([]models.AttendanceRecord, 0, len(input.Records))
	skipped := 0
	for _, r := range input.Records {
		if r.StudentID == 0 {
			skipped++
			continue
		}
		status := r.Status
		if !models.ValidAttendanceStatus(status) {
			status = models.AttendanceAbsent
		}
		records = append(records, models.AttendanceRecord{
			StudentID: r.StudentID,
			Status:    status,
		})
	}

	session := models.AttendanceSession{
		CourseID:    courseID,
		SessionDate: day,
		Records:     records,
	}
	err = at.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id"}, {Name: "session_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"records"}),
	}).Create(&session).Error
	if err != nil {
		at.Log.Printf("attendance: mark: %v", err)
		return utils.InternalServerError(c, "Server error while marking attendance")
	}

	sessions, err := at.loadSessions(c, courseID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"msg":        "Attendance saved successfully",
		"attendance": at.resolveSessions(sessions),
		"skipped":    skipped,
	})
}

// Recover fetches the stored session for a past calendar day without
// touching it. It exists so the dashboard can restore a day's roster
// view after navigating away.
func (at *AttendanceController) Recover(c *fiber.Ctx) error {
	courseID, err := at.courseID(c)
	if err != nil {
		return err
	}

	var input struct {
		Date string `json:"date"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Date == "" {
		return utils.BadRequest(c, "Date required to recover attendance")
	}

	day, perr := parseDay(input.Date)
	if perr != nil {
		return utils.BadRequest(c, "Invalid date")
	}

	var session models.AttendanceSession
	err = at.DB.Where("course_id = ? AND session_date = ?", courseID, day).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "No attendance record found for that date")
		}
		at.Log.Printf("attendance: recover: %v", err)
		return utils.InternalServerError(c, "Server error while recovering attendance")
	}

	return c.JSON(fiber.Map{
		"msg":    "Attendance recovered successfully",
		"record": at.resolveSessions([]models.AttendanceSession{session})[0],
	})
}

// Prefill returns the roster with default statuses for a new marking
// session: each student's status from the most recent session, or Absent
// when they have no prior record.
func (at *AttendanceController) Prefill(c *fiber.Ctx) error {
	courseID, err := at.courseID(c)
	if err != nil {
		return err
	}

	var course models.Course
	if err := at.DB.Preload("Students").First(&course, courseID).Error; err != nil {
		return utils.NotFound(c, "Course not found")
	}

	var last models.AttendanceSession
	lastStatuses := make(map[uint]string)
	err = at.DB.Where("course_id = ?", courseID).Order("id DESC").First(&last).Error
	if err == nil {
		for _, r := range last.Records {
			lastStatuses[r.StudentID] = r.Status
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		at.Log.Printf("attendance: prefill: %v", err)
		return utils.InternalServerError(c, "Could not query database")
	}

	roster := make([]fiber.Map, 0, len(course.Students))
	for _, s := range course.Students {
		status, ok := lastStatuses[s.ID]
		if !ok {
			status = models.AttendanceAbsent
		}
		roster = append(roster, fiber.Map{
			"student_id": s.ID,
			"name":       s.DisplayName(),
			"status":     status,
		})
	}

	return c.JSON(fiber.Map{"records": roster})
}

// courseID validates the :courseId param and the course's existence,
// writing the error response itself on failure.
func (at *AttendanceController) courseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.Atoi(c.Params("courseId"))
	if err != nil {
		return 0, utils.BadRequest(c, "Invalid course ID")
	}

	var count int64
	if err := at.DB.Model(&models.Course{}).Where("id = ?", id).Count(&count).Error; err != nil {
		at.Log.Printf("attendance: course lookup: %v", err)
		return 0, utils.InternalServerError(c, "Could not query database")
	}
	if count == 0 {
		return 0, utils.NotFound(c, "Course not found")
	}
	return uint(id), nil
}

func (at *AttendanceController) loadSessions(c *fiber.Ctx, courseID uint) ([]models.AttendanceSession, error) {
	var sessions []models.AttendanceSession
	err := at.DB.Where("course_id = ?", courseID).Order("id ASC").Find(&sessions).Error
	if err != nil {
		at.Log.Printf("attendance: load sessions: %v", err)
		return nil, utils.InternalServerError(c, "Server error while fetching attendance")
	}
	return sessions, nil
}

// resolveSessions expands record student ids into display names. Records
// for students that have since been deleted keep a placeholder so stored
// history always renders.
func (at *AttendanceController) resolveSessions(sessions []models.AttendanceSession) []fiber.Map {
	ids := make([]uint, 0)
	seen := make(map[uint]bool)
	for _, s := range sessions {
		for _, r := range s.Records {
			if !seen[r.StudentID] {
				seen[r.StudentID] = true
				ids = append(ids, r.StudentID)
			}
		}
	}

	index := make(map[uint]models.User, len(ids))
	if len(ids) > 0 {
		var users []models.User
		at.DB.Where("id IN ?", ids).Find(&users)
		for _, u := range users {
			index[u.ID] = u
		}
	}

	out := make([]fiber.Map, 0, len(sessions))
	for _, s := range sessions {
		records := make([]fiber.Map, 0, len(s.Records))
		for _, r := range s.Records {
			name := "Unknown student"
			email := ""
			if u, ok := index[r.StudentID]; ok {
				name = u.DisplayName()
				email = u.Email
			}
			records = append(records, fiber.Map{
				"student_id": r.StudentID,
				"name":       name,
				"email":      email,
				"status":     r.Status,
			})
		}
		out = append(out, fiber.Map{
			"id":      s.ID,
			"date":    s.SessionDate.Format("2006-01-02"),
			"records": records,
		})
	}
	return out
}

// parseDay accepts a bare date or a full timestamp and truncates it to
// the UTC calendar day.
func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return models.DayUTC(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return models.DayUTC(t), nil
}
