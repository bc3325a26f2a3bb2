package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"aspira/backend/config"
	"aspira/backend/mailer"
	"aspira/backend/models"
	"aspira/backend/routes"
	"aspira/backend/utils"
)

var (
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config

	adminUser   models.User
	teacherUser models.User
	studentOne  models.User
	studentTwo  models.User

	adminToken   string
	teacherToken string
	studentToken string
	student2Tok  string
)

func TestMain(m *testing.M) {
	setup()
	code := m.Run()
	teardown()
	os.Exit(code)
}

func setup() {
	cfg = &config.Config{
		DBHost:     envOr("TEST_DB_HOST", "localhost"),
		DBPort:     envOr("TEST_DB_PORT", "5432"),
		DBUser:     envOr("TEST_DB_USER", "postgres"),
		DBPassword: envOr("TEST_DB_PASSWORD", "postgres"),
		DBName:     envOr("TEST_DB_NAME", "aspira_test"),
		JWTSecret:  "testsecret",
		ServerPort: "8080",
		UploadDir:  mustTempDir(),
		BaseURL:    "http://localhost:8080",
	}

	var err error
	db, err = utils.InitDB(cfg)
	if err != nil {
		panic(err)
	}

	logger := utils.InitLogger(utils.LoggerConfig{Output: os.Stderr})
	mail := mailer.NewService("", "test@aspira.edu", logger)

	app = fiber.New()
	routes.SetupRoutes(app, db, cfg, mail, logger)

	adminUser = mustCreateUser("Super", "Admin", "admin@test.edu", models.RoleAdmin)
	teacherUser = mustCreateUser("Jane", "Professor", "teacher@test.edu", models.RoleTeacher)
	studentOne = mustCreateUser("Student", "One", "s1@test.edu", models.RoleStudent)
	studentTwo = mustCreateUser("Student", "Two", "s2@test.edu", models.RoleStudent)

	adminToken = mustToken(adminUser.ID)
	teacherToken = mustToken(teacherUser.ID)
	studentToken = mustToken(studentOne.ID)
	student2Tok = mustToken(studentTwo.ID)
}

func teardown() {
	db.Migrator().DropTable(
		"course_students",
		&models.AttendanceSession{},
		&models.Submission{},
		&models.Content{},
		&models.Announcement{},
		&models.Course{},
		&models.User{},
	)
	os.RemoveAll(cfg.UploadDir)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustTempDir() string {
	dir, err := os.MkdirTemp("", "aspira-uploads-")
	if err != nil {
		panic(err)
	}
	return dir
}

func mustCreateUser(first, last, email, role string) models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	user := models.User{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Password:  string(hash),
		Role:      role,
	}
	if err := db.Create(&user).Error; err != nil {
		panic(err)
	}
	return user
}

func mustToken(userID uint) string {
	token, err := utils.GenerateJWTToken(userID, cfg)
	if err != nil {
		panic(err)
	}
	return token
}

// doJSON fires a JSON request at the test app and decodes the response
// body into a generic map.
func doJSON(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	var result map[string]interface{}
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		json.Unmarshal(data, &result)
	}
	return resp, result
}

// doJSONList is doJSON for endpoints whose top-level response is an array.
func doJSONList(t *testing.T, method, path, token string, body interface{}) (*http.Response, []interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	var result []interface{}
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		json.Unmarshal(data, &result)
	}
	return resp, result
}

// createCourse makes a course through the API and returns its id.
func createCourse(t *testing.T, token, title string) uint {
	t.Helper()
	resp, result := doJSON(t, "POST", "/api/courses", token, map[string]interface{}{
		"title": title,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("create course %q: status %d", title, resp.StatusCode)
	}
	id, ok := result["id"].(float64)
	if !ok {
		t.Fatalf("create course %q: no id in response %v", title, result)
	}
	return uint(id)
}

func enroll(t *testing.T, token string, courseID, studentID uint) {
	t.Helper()
	resp, _ := doJSON(t, "POST", coursePath(courseID, "add-student"), token, map[string]interface{}{
		"studentId": studentID,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("enroll student %d: status %d", studentID, resp.StatusCode)
	}
}

func coursePath(id uint, parts ...string) string {
	path := "/api/courses/" + itoa(id)
	for _, p := range parts {
		path += "/" + p
	}
	return path
}

func attendancePath(id uint, parts ...string) string {
	path := "/api/attendance/" + itoa(id)
	for _, p := range parts {
		path += "/" + p
	}
	return path
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
