package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"aspira/backend/config"
	"aspira/backend/controllers"
	"aspira/backend/mailer"
	"aspira/backend/middleware"
	"aspira/backend/models"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, mail mailer.Service, logger *log.Logger) {
	authRequired := middleware.AuthRequired(db, cfg)
	manage := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	studentOnly := middleware.RequireRoles(models.RoleStudent)

	api := app.Group("/api")

	// Auth routes
	authController := controllers.NewAuthController(db, cfg, mail, logger)
	api.Post("/auth/register", authController.Register)
	api.Post("/auth/login", authController.Login)
	api.Post("/auth/forgot-password", authController.ForgotPassword)
	api.Post("/auth/reset-password", authController.ResetPassword)
	api.Get("/auth/me", authRequired, authController.Me)
	api.Get("/me", authRequired, authController.Me)

	// User routes
	userController := controllers.NewUserController(db, cfg, logger)
	users := api.Group("/users", authRequired)
	users.Get("/me", authController.Me)
	users.Put("/me", userController.UpdateMe)
	users.Get("/", userController.List)
	users.Post("/", adminOnly, userController.Create)
	users.Put("/:id", adminOnly, userController.Update)
	users.Delete("/:id", adminOnly, userController.Delete)
	users.Post("/:id/promote", adminOnly, userController.Promote)
	users.Post("/:id/demote", adminOnly, userController.Demote)

	// Course routes
	coursesController := controllers.NewCoursesController(db, cfg, logger)
	courses := api.Group("/courses", authRequired)
	courses.Get("/", coursesController.List)
	courses.Post("/", manage, coursesController.Create)
	courses.Post("/:id/add-student", manage, coursesController.AddStudent)
	courses.Post("/:id/content", manage, coursesController.UploadContent)
	courses.Delete("/:id/content/:contentId", manage, coursesController.DeleteContent)
	courses.Post("/:id/submit", studentOnly, coursesController.Submit)
	courses.Get("/:id/submissions", manage, coursesController.ListSubmissions)
	courses.Get("/:id/my-submission", studentOnly, coursesController.MySubmissions)
	courses.Put("/:id/grade/:submissionId", manage, coursesController.Grade)
	courses.Patch("/:courseId/submissions/:submissionId/grade", manage, coursesController.Grade)
	courses.Get("/:id", coursesController.Get)
	courses.Put("/:id", manage, coursesController.Update)
	courses.Delete("/:id", manage, coursesController.Delete)

	// Attendance routes
	attendanceController := controllers.NewAttendanceController(db, cfg, logger)
	attendance := api.Group("/attendance", authRequired)
	attendance.Get("/:courseId", attendanceController.List)
	attendance.Get("/:courseId/prefill", attendanceController.Prefill)
	attendance.Post("/:courseId/mark", attendanceController.Mark)
	attendance.Post("/:courseId/recover", attendanceController.Recover)

	// Announcement routes
	announcementController := controllers.NewAnnouncementController(db, cfg, logger)
	announcements := api.Group("/announcements", authRequired)
	announcements.Get("/", announcementController.List)
	announcements.Post("/", manage, announcementController.Create)
	announcements.Put("/:id", manage, announcementController.Update)
	announcements.Delete("/:id", manage, announcementController.Delete)
}
