package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission lifecycle statuses.
const (
	StatusSubmitted   = "Submitted"
	StatusUnderReview = "Under Review"
	StatusGraded      = "Graded"
)

// Attendance statuses. Unknown values collapse to Absent on write.
const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
	AttendanceLate    = "Late"
	AttendanceExcused = "Excused"
)

// ValidAttendanceStatus reports whether s is one of the four recognized
// attendance statuses.
func ValidAttendanceStatus(s string) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

type Course struct {
	ID          uint                `json:"id" gorm:"primaryKey"`
	Title       string              `json:"title" gorm:"not null"`
	Description string              `json:"description" gorm:"default:''"`
	TeacherID   *uint               `json:"teacherId" gorm:"index"`
	Teacher     *User               `json:"teacher" gorm:"foreignKey:TeacherID;constraint:OnDelete:SET NULL"`
	Students    []User              `json:"students" gorm:"many2many:course_students;constraint:OnDelete:CASCADE"`
	Contents    []Content           `json:"contents" gorm:"constraint:OnDelete:CASCADE"`
	Submissions []Submission        `json:"submissions" gorm:"constraint:OnDelete:CASCADE"`
	Attendance  []AttendanceSession `json:"attendance" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// Content is a titled file reference owned by its course; it never exists
// on its own.
type Content struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CourseID  uint      `json:"courseId" gorm:"not null;index"`
	Title     string    `json:"title" gorm:"not null"`
	File      string    `json:"file" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}

// Submission is a student's uploaded work for a course. A student may
// submit more than once.
type Submission struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CourseID  uint      `json:"courseId" gorm:"not null;index"`
	StudentID uint      `json:"studentId" gorm:"not null;index"`
	File      string    `json:"file" gorm:"not null"`
	Notes     string    `json:"notes" gorm:"default:''"`
	Grade     string    `json:"grade" gorm:"default:''"`
	Status    string    `json:"status" gorm:"default:Submitted"`
	CreatedAt time.Time `json:"createdAt"`
}

// AttendanceRecord is one student's status within a session. Records are
// stored as a JSONB array on the session, mirroring the owned-document
// shape of the data.
type AttendanceRecord struct {
	StudentID uint   `json:"student_id"`
	Status    string `json:"status"`
}

// AttendanceSession holds one calendar day of attendance for a course.
// SessionDate is date-only (UTC midnight); the unique index guarantees at
// most one session per course per day even under concurrent marking.
type AttendanceSession struct {
	ID          uint                                  `json:"id" gorm:"primaryKey"`
	CourseID    uint                                  `json:"courseId" gorm:"not null;uniqueIndex:idx_course_session_day"`
	SessionDate time.Time                             `json:"date" gorm:"type:date;not null;uniqueIndex:idx_course_session_day"`
	Records     datatypes.JSONSlice[AttendanceRecord] `json:"records"`
	CreatedAt   time.Time                             `json:"createdAt"`
}

// DayUTC truncates t to its UTC calendar day. All attendance date
// matching goes through this single rule.
func DayUTC(t time.Time) time.Time {
	return time.Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), 0, 0, 0, 0, time.UTC)
}

// SameDayUTC reports whether a and b fall on the same UTC calendar day.
func SameDayUTC(a, b time.Time) bool {
	return DayUTC(a).Equal(DayUTC(b))
}
