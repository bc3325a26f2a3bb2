package controllers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"aspira/backend/config"
	"aspira/backend/middleware"
	"aspira/backend/models"
	"aspira/backend/utils"
)

type UserController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *log.Logger
}

func NewUserController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *UserController {
	return &UserController{DB: db, Cfg: cfg, Log: logger}
}

// List handles both modes of GET /users: an email search open to
// teachers and admins, and the full listing restricted to admins.
func (uc *UserController) List(c *fiber.Ctx) error {
	actor := middleware.CurrentUser(c)

	if email := c.Query("email"); email != "" {
		if !actor.CanManage() {
			return utils.Forbidden(c, "Only teachers or admins can search users by email")
		}
		var users []models.User
		if err := uc.DB.Where("email ILIKE ?", "%"+email+"%").Find(&users).Error; err != nil {
			uc.Log.Printf("users: search: %v", err)
			return utils.InternalServerError(c, "Could not query database")
		}
		return c.JSON(users)
	}

	if actor.Role != models.RoleAdmin {
		return utils.Forbidden(c, "Admin only")
	}

	var users []models.User
	if err := uc.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		uc.Log.Printf("users: list: %v", err)
		return utils.InternalServerError(c, "Could not query database")
	}
	return c.JSON(users)
}

// UpdateMe edits the acting user's own profile. The profile picture
// arrives as an optional multipart file.
func (uc *UserController) UpdateMe(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	if v := c.FormValue("firstname"); v != "" {
		user.FirstName = v
	}
	if v := c.FormValue("lastname"); v != "" {
		user.LastName = v
	}
	if v := c.FormValue("email"); v != "" && v != user.Email {
		var existing models.User
		if err := uc.DB.Where("email = ?", v).First(&existing).Error; err == nil {
			return utils.BadRequest(c, "Email already exists")
		}
		user.Email = v
	}

	if file, err := c.FormFile("profilePicture"); err == nil {
		path, err := utils.SaveUpload(c, file, uc.Cfg.UploadDir, utils.UploadProfile)
		if err != nil {
			uc.Log.Printf("users: save profile picture: %v", err)
			return utils.InternalServerError(c, "Could not save profile picture")
		}
		user.ProfilePicture = path
	}

	if err := uc.DB.Save(user).Error; err != nil {
		uc.Log.Printf("users: update profile: %v", err)
		return utils.InternalServerError(c, "Could not update profile")
	}
	return c.JSON(user)
}

type CreateUserInput struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"omitempty,oneof=admin teacher student"`
}

// Create lets an admin add an account with any role.
func (uc *UserController) Create(c *fiber.Ctx) error {
	var input CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	var existing models.User
	if err := uc.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return utils.BadRequest(c, "Email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	role := input.Role
	if role == "" {
		role = models.RoleStudent
	}

	user := models.User{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  string(hash),
		Role:      role,
	}
	if err := uc.DB.Create(&user).Error; err != nil {
		uc.Log.Printf("users: create: %v", err)
		return utils.InternalServerError(c, "Could not create user")
	}

	return c.JSON(fiber.Map{"msg": "User created successfully", "user": user})
}

// Update edits an existing account. A blank password leaves the current
// credential untouched.
func (uc *UserController) Update(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	var input struct {
		FirstName string `json:"firstname"`
		LastName  string `json:"lastname"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Role      string `json:"role"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	if input.LastName != "" {
		user.LastName = input.LastName
	}
	if input.Email != "" && input.Email != user.Email {
		var existing models.User
		if err := uc.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
			return utils.BadRequest(c, "Email already exists")
		}
		user.Email = input.Email
	}
	if input.Role != "" {
		user.Role = input.Role
	}
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return utils.InternalServerError(c, "Could not hash password")
		}
		user.Password = string(hash)
	}

	if err := uc.DB.Save(&user).Error; err != nil {
		uc.Log.Printf("users: update: %v", err)
		return utils.InternalServerError(c, "Could not update user")
	}
	return c.JSON(user)
}

func (uc *UserController) Delete(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	res := uc.DB.Delete(&models.User{}, userID)
	if res.Error != nil {
		uc.Log.Printf("users: delete: %v", res.Error)
		return utils.InternalServerError(c, "Could not delete user")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "User not found")
	}

	return c.JSON(fiber.Map{"msg": "User deleted"})
}

// Promote raises an account to the teacher role.
func (uc *UserController) Promote(c *fiber.Ctx) error {
	return uc.setRole(c, models.RoleTeacher, "Promoted")
}

// Demote drops an account back to the student role.
func (uc *UserController) Demote(c *fiber.Ctx) error {
	return uc.setRole(c, models.RoleStudent, "Demoted")
}

func (uc *UserController) setRole(c *fiber.Ctx, role, msg string) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	user.Role = role
	if err := uc.DB.Save(&user).Error; err != nil {
		uc.Log.Printf("users: set role: %v", err)
		return utils.InternalServerError(c, "Could not update user")
	}

	return c.JSON(fiber.Map{"msg": msg, "user": user})
}
