package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"aspira/backend/config"
	"aspira/backend/mailer"
	"aspira/backend/middleware"
	"aspira/backend/models"
	"aspira/backend/utils"
)

const resetTokenTTL = 10 * time.Minute

type AuthController struct {
	DB   *gorm.DB
	Cfg  *config.Config
	Mail mailer.Service
	Log  *log.Logger
}

func NewAuthController(db *gorm.DB, cfg *config.Config, mail mailer.Service, logger *log.Logger) *AuthController {
	return &AuthController{DB: db, Cfg: cfg, Mail: mail, Log: logger}
}

type RegisterInput struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

// Register creates a student account. Self-registration never grants a
// privileged role; admins promote later.
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	var existing models.User
	if err := ac.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return utils.BadRequest(c, "Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	user := models.User{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  string(hash),
		Role:      models.RoleStudent,
	}
	if err := ac.DB.Create(&user).Error; err != nil {
		ac.Log.Printf("register: create user: %v", err)
		return utils.InternalServerError(c, "Could not create user")
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user.Public(),
	})
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	var user models.User
	if err := ac.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.BadRequest(c, "Invalid credentials")
		}
		ac.Log.Printf("login: query user: %v", err)
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return utils.BadRequest(c, "Invalid credentials")
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user.Public(),
	})
}

// ForgotPassword stores a short-lived reset token and mails the link.
func (ac *AuthController) ForgotPassword(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var user models.User
	if err := ac.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		return utils.NotFound(c, "No account found with this email.")
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return utils.InternalServerError(c, "Could not generate reset token")
	}
	token := hex.EncodeToString(buf)
	expire := time.Now().Add(resetTokenTTL)

	user.ResetToken = token
	user.ResetTokenExpire = &expire
	if err := ac.DB.Save(&user).Error; err != nil {
		ac.Log.Printf("forgot-password: save token: %v", err)
		return utils.InternalServerError(c, "Could not store reset token")
	}

	resetLink := fmt.Sprintf("%s/reset-password.html?token=%s", ac.Cfg.BaseURL, token)
	err := ac.Mail.Send(mailer.Message{
		To:       user.Email,
		Subject:  "Aspira Password Reset Request",
		TextBody: fmt.Sprintf("Reset your password (expires in 10 minutes): %s", resetLink),
		HTMLBody: fmt.Sprintf(`<p>Click the link below to reset your password (expires in 10 minutes):</p><a href="%s">%s</a>`, resetLink, resetLink),
	})
	if err != nil {
		ac.Log.Printf("forgot-password: send mail: %v", err)
		return utils.InternalServerError(c, "Error sending reset email.")
	}

	return c.JSON(fiber.Map{"msg": "Password reset link sent to your email."})
}

// ResetPassword consumes an unexpired token and sets the new password.
func (ac *AuthController) ResetPassword(c *fiber.Ctx) error {
	var input struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Token == "" || input.Password == "" {
		return utils.BadRequest(c, "Token and password required")
	}

	var user models.User
	err := ac.DB.Where("reset_token = ? AND reset_token_expire > ?", input.Token, time.Now()).
		First(&user).Error
	if err != nil {
		return utils.BadRequest(c, "Invalid or expired reset token.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	user.Password = string(hash)
	user.ResetToken = ""
	user.ResetTokenExpire = nil
	if err := ac.DB.Save(&user).Error; err != nil {
		ac.Log.Printf("reset-password: save: %v", err)
		return utils.InternalServerError(c, "Could not reset password")
	}

	return c.JSON(fiber.Map{"msg": "Password reset successful. You can now log in."})
}

// Me returns the acting user, minus credentials.
func (ac *AuthController) Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	return c.JSON(user)
}
