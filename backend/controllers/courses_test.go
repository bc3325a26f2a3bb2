package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aspira/backend/models"
)

func TestCreateCourse(t *testing.T) {
	resp, result := doJSON(t, "POST", "/api/courses", teacherToken, map[string]string{
		"title":       "Algorithms",
		"description": "Sorting and searching",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Algorithms", result["title"])
	// Caller becomes the owning teacher
	assert.Equal(t, float64(teacherUser.ID), result["teacherId"])

	// Students cannot create courses
	resp, _ = doJSON(t, "POST", "/api/courses", studentToken, map[string]string{
		"title": "Nope",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Title is mandatory
	resp, _ = doJSON(t, "POST", "/api/courses", teacherToken, map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdminAssignsTeacher(t *testing.T) {
	resp, result := doJSON(t, "POST", "/api/courses", adminToken, map[string]interface{}{
		"title":   "Assigned Course",
		"teacher": teacherUser.ID,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(teacherUser.ID), result["teacherId"])

	// Assigning a non-teacher is rejected
	resp, _ = doJSON(t, "POST", "/api/courses", adminToken, map[string]interface{}{
		"title":   "Bad Assignment",
		"teacher": studentOne.ID,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRoleScopedCourseVisibility(t *testing.T) {
	courseID := createCourse(t, teacherToken, "Visibility 101")
	enroll(t, teacherToken, courseID, studentOne.ID)

	// Teacher sees own courses only
	resp, teacherCourses := doJSONList(t, "GET", "/api/courses", teacherToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	for _, c := range teacherCourses {
		assert.Equal(t, float64(teacherUser.ID), c.(map[string]interface{})["teacherId"])
	}

	// Enrolled student sees the course
	resp, studentCourses := doJSONList(t, "GET", "/api/courses", studentToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, containsCourse(studentCourses, courseID))

	// Unenrolled student does not
	resp, otherCourses := doJSONList(t, "GET", "/api/courses", student2Tok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, containsCourse(otherCourses, courseID))

	// Admin sees everything
	resp, adminCourses := doJSONList(t, "GET", "/api/courses", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, containsCourse(adminCourses, courseID))
}

func TestUnknownRoleSeesNoCourses(t *testing.T) {
	user := mustCreateUser("Odd", "Role", "oddrole@test.edu", models.RoleStudent)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("role", "auditor").Error)

	resp, courses := doJSONList(t, "GET", "/api/courses", mustToken(user.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, courses)
}

func TestEnrollTwiceKeepsOneEntry(t *testing.T) {
	courseID := createCourse(t, teacherToken, "Set Semantics")

	enroll(t, teacherToken, courseID, studentOne.ID)
	enroll(t, teacherToken, courseID, studentOne.ID)

	resp, result := doJSON(t, "GET", coursePath(courseID), teacherToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	students := result["students"].([]interface{})
	count := 0
	for _, s := range students {
		if s.(map[string]interface{})["id"] == float64(studentOne.ID) {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestContentUploadAndIdempotentDelete(t *testing.T) {
	courseID := createCourse(t, teacherToken, "Content Course")

	resp, result := doMultipart(t, "POST", coursePath(courseID, "content"), teacherToken,
		map[string]string{"title": "Lecture 1"}, "file", "lecture1.pdf", []byte("%PDF-1.4 stub"))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	content := result["content"].(map[string]interface{})
	assert.Equal(t, "Lecture 1", content["title"])
	contentID := uint(content["id"].(float64))

	// Listed on the course
	resp, course := doJSON(t, "GET", coursePath(courseID), teacherToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, course["contents"].([]interface{}), 1)

	// Delete removes it
	resp, _ = doJSON(t, "DELETE", coursePath(courseID, "content", itoa(contentID)), teacherToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, course = doJSON(t, "GET", coursePath(courseID), teacherToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, course["contents"])

	// Second delete of the same id is a success no-op
	resp, _ = doJSON(t, "DELETE", coursePath(courseID, "content", itoa(contentID)), teacherToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestContentTitleFallsBackToFilename(t *testing.T) {
	courseID := createCourse(t, teacherToken, "Fallback Title Course")

	resp, result := doMultipart(t, "POST", coursePath(courseID, "content"), teacherToken,
		nil, "file", "syllabus.pdf", []byte("syllabus"))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "syllabus.pdf", result["content"].(map[string]interface{})["title"])
}

func TestSubmitAndGrade(t *testing.T) {
	courseID := createCourse(t, teacherToken, "Graded Course")
	enroll(t, teacherToken, courseID, studentOne.ID)

	// Teachers cannot submit
	resp, _ := doMultipart(t, "POST", coursePath(courseID, "submit"), teacherToken,
		nil, "file", "hw.txt", []byte("answers"))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, result := doMultipart(t, "POST", coursePath(courseID, "submit"), studentToken,
		map[string]string{"notes": "my homework"}, "file", "hw.txt", []byte("answers"))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	submission := result["submission"].(map[string]interface{})
	assert.Equal(t, models.StatusSubmitted, submission["status"])
	submissionID := uint(submission["id"].(float64))

	// Student sees own submission
	resp, mine := doJSONList(t, "GET", coursePath(courseID, "my-submission"), studentToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, mine, 1)

	// Students cannot list all submissions
	resp, _ = doJSONList(t, "GET", coursePath(courseID, "submissions"), studentToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Teacher grades it
	resp, result = doJSON(t, "PUT", coursePath(courseID, "grade", itoa(submissionID)), teacherToken,
		map[string]string{"grade": "A"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	graded := result["submission"].(map[string]interface{})
	assert.Equal(t, "A", graded["grade"])
	assert.Equal(t, models.StatusGraded, graded["status"])

	// Unknown submission id
	resp, _ = doJSON(t, "PUT", coursePath(courseID, "grade", "999999"), teacherToken,
		map[string]string{"grade": "B"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestEmptyGradeStillMarksGraded(t *testing.T) {
	courseID := createCourse(t, teacherToken, "Empty Grade Course")
	enroll(t, teacherToken, courseID, studentOne.ID)

	resp, result := doMultipart(t, "POST", coursePath(courseID, "submit"), studentToken,
		nil, "file", "essay.txt", []byte("essay"))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	submissionID := uint(result["submission"].(map[string]interface{})["id"].(float64))

	// Current behavior: grading with an empty grade still forces Graded
	resp, result = doJSON(t, "PATCH",
		"/api/courses/"+itoa(courseID)+"/submissions/"+itoa(submissionID)+"/grade",
		teacherToken, map[string]string{"grade": ""})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	graded := result["submission"].(map[string]interface{})
	assert.Equal(t, "", graded["grade"])
	assert.Equal(t, models.StatusGraded, graded["status"])
}

func TestDeleteCourseCascades(t *testing.T) {
	courseID := createCourse(t, teacherToken, "Doomed Course")
	enroll(t, teacherToken, courseID, studentOne.ID)

	resp, _ := doJSON(t, "DELETE", coursePath(courseID), teacherToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, "GET", coursePath(courseID), teacherToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var count int64
	db.Model(&models.Content{}).Where("course_id = ?", courseID).Count(&count)
	assert.Zero(t, count)
}

func TestCourseNotFound(t *testing.T) {
	resp, _ := doJSON(t, "GET", "/api/courses/999999", adminToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, "GET", "/api/courses/notanid", adminToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func containsCourse(courses []interface{}, id uint) bool {
	for _, c := range courses {
		if c.(map[string]interface{})["id"] == float64(id) {
			return true
		}
	}
	return false
}

// doMultipart posts a multipart form with one file plus optional fields.
func doMultipart(t *testing.T, method, path, token string, fields map[string]string, fileField, filename string, fileBody []byte) (resp *http.Response, result map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		writer.WriteField(k, v)
	}
	part, err := writer.CreateFormFile(fileField, filename)
	require.NoError(t, err)
	part.Write(fileBody)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	raw, err := app.Test(req, -1)
	require.NoError(t, err)

	data, _ := io.ReadAll(raw.Body)
	if len(data) > 0 {
		json.Unmarshal(data, &result)
	}
	return raw, result
}
