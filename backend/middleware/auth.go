package middleware

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"aspira/backend/config"
	"aspira/backend/models"
	"aspira/backend/utils"
)

const userLocalKey = "currentUser"

// AuthRequired verifies the bearer token, loads the acting user and
// stashes it in the request locals. A token whose user has since been
// deleted is rejected the same way as an invalid one.
func AuthRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			return utils.Unauthorized(c, "User not found")
		}

		c.Locals(userLocalKey, &user)
		return c.Next()
	}
}

// RequireRoles gates a route to the given roles. It must run after
// AuthRequired.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return utils.Unauthorized(c, "Unauthorized")
		}

		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
		}

		return utils.Forbidden(c, "Forbidden")
	}
}

// CurrentUser returns the user attached by AuthRequired, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalKey).(*models.User)
	return user
}
