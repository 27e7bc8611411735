package handlers

import (
	"errors"

	"clinic-server/internal/models"
	"clinic-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserHandler serves the user directory: doctor listings and identity
// lookups for the scheduling UI.
type UserHandler struct {
	DB *gorm.DB
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

// GetDoctors lists all doctor accounts.
func (h *UserHandler) GetDoctors(c *gin.Context) {
	var doctors []models.User
	if err := h.DB.Where("role = ?", models.RoleDoctor).
		Order("last_name asc, first_name asc").
		Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to retrieve doctors: "+err.Error())
		return
	}

	sanitized := make([]models.UserSanitized, 0, len(doctors))
	for i := range doctors {
		sanitized = append(sanitized, doctors[i].Sanitize())
	}
	utils.Success(c, "Doctors retrieved successfully", sanitized)
}

// GetUserByID returns one user record.
func (h *UserHandler) GetUserByID(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := h.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "User retrieved successfully", user.Sanitize())
}
