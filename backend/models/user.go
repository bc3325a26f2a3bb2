package models

import (
	"strings"
	"time"
)

// Roles recognized by the platform. Anything else gets no course
// visibility at all.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

type User struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	FirstName        string     `json:"firstname" gorm:"default:''"`
	LastName         string     `json:"lastname" gorm:"default:''"`
	Email            string     `json:"email" gorm:"unique;not null"`
	Password         string     `json:"-" gorm:"not null"`
	Role             string     `json:"role" gorm:"default:student"`
	ProfilePicture   string     `json:"profilePicture" gorm:"default:''"`
	ResetToken       string     `json:"-"`
	ResetTokenExpire *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// DisplayName joins first and last name, falling back to the email so
// rosters never render an empty label.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// CanManage reports whether the user may administer courses, content and
// announcements.
func (u *User) CanManage() bool {
	return u.Role == RoleAdmin || u.Role == RoleTeacher
}

// Public is the JSON view used in auth responses.
func (u *User) Public() map[string]interface{} {
	return map[string]interface{}{
		"id":             u.ID,
		"firstname":      u.FirstName,
		"lastname":       u.LastName,
		"email":          u.Email,
		"role":           u.Role,
		"profilePicture": u.ProfilePicture,
		"createdAt":      u.CreatedAt,
	}
}
