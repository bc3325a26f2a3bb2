package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)

	// 08:30 on the 2nd in UTC+9 is still the 1st in UTC
	local := time.Date(2024, 3, 2, 8, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC), local.UTC())
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), DayUTC(local))
}

func TestSameDayUTC(t *testing.T) {
	a := time.Date(2024, 3, 1, 0, 0, 1, 0, time.UTC)
	b := time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC)
	c := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameDayUTC(a, b))
	assert.False(t, SameDayUTC(a, c))
}

func TestValidAttendanceStatus(t *testing.T) {
	for _, s := range []string{AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused} {
		assert.True(t, ValidAttendanceStatus(s))
	}
	assert.False(t, ValidAttendanceStatus(""))
	assert.False(t, ValidAttendanceStatus("present"))
	assert.False(t, ValidAttendanceStatus("Sick"))
}

func TestUserDisplayName(t *testing.T) {
	u := User{FirstName: "Jane", LastName: "Professor", Email: "jane@aspira.edu"}
	assert.Equal(t, "Jane Professor", u.DisplayName())

	u = User{Email: "anon@aspira.edu"}
	assert.Equal(t, "anon@aspira.edu", u.DisplayName())

	u = User{FirstName: "Solo"}
	assert.Equal(t, "Solo", u.DisplayName())
}
