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

type AnnouncementController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *log.Logger
}

func NewAnnouncementController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *AnnouncementController {
	return &AnnouncementController{DB: db, Cfg: cfg, Log: logger}
}

// List returns all announcements, newest first, visible to every
// authenticated role.
func (an *AnnouncementController) List(c *fiber.Ctx) error {
	var anns []models.Announcement
	err := an.DB.Preload("Author").Order("created_at DESC").Find(&anns).Error
	if err != nil {
		an.Log.Printf("announcements: list: %v", err)
		return utils.InternalServerError(c, "Could not query database")
	}
	return c.JSON(anns)
}

type AnnouncementInput struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	// Body is the legacy field name some dashboard forms still send.
	Body string `json:"body"`
}

func (in *AnnouncementInput) text() string {
	if in.Body != "" {
		return in.Body
	}
	return in.Message
}

func (an *AnnouncementController) Create(c *fiber.Ctx) error {
	actor := middleware.CurrentUser(c)

	var input AnnouncementInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Title == "" {
		return utils.BadRequest(c, "Title required")
	}

	ann := models.Announcement{
		Title:    input.Title,
		Message:  input.text(),
		AuthorID: &actor.ID,
	}
	if err := an.DB.Create(&ann).Error; err != nil {
		an.Log.Printf("announcements: create: %v", err)
		return utils.InternalServerError(c, "Server error while creating announcement")
	}

	return c.JSON(fiber.Map{"msg": "Announcement added successfully", "ann": ann})
}

func (an *AnnouncementController) Update(c *fiber.Ctx) error {
	annID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid announcement ID")
	}

	var input AnnouncementInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var ann models.Announcement
	if err := an.DB.First(&ann, annID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Announcement not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Title != "" {
		ann.Title = input.Title
	}
	if text := input.text(); text != "" {
		ann.Message = text
	}

	if err := an.DB.Save(&ann).Error; err != nil {
		an.Log.Printf("announcements: update: %v", err)
		return utils.InternalServerError(c, "Server error while updating announcement")
	}

	return c.JSON(fiber.Map{"msg": "Announcement updated successfully", "ann": ann})
}

func (an *AnnouncementController) Delete(c *fiber.Ctx) error {
	annID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid announcement ID")
	}

	res := an.DB.Delete(&models.Announcement{}, annID)
	if res.Error != nil {
		an.Log.Printf("announcements: delete: %v", res.Error)
		return utils.InternalServerError(c, "Server error while deleting announcement")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Announcement not found")
	}

	return c.JSON(fiber.Map{"msg": "Announcement deleted successfully"})
}
