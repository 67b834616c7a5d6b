package handlers

import (
	"net/http"

	"salontime-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteHandler struct {
	DB *gorm.DB
}

// AddFavorite is idempotent: favoriting twice returns the existing row.
func (h *FavoriteHandler) AddFavorite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	salonID, ok := parseUUIDParam(c, "salonId", "salon")
	if !ok {
		return
	}

	var salon models.Salon
	if err := h.DB.Where("id = ? AND is_active = ?", salonID, true).First(&salon).Error; err != nil {
		respondLookupError(c, err, "Salon")
		return
	}

	favorite := models.Favorite{ID: uuid.New(), UserID: userID, SalonID: salonID}
	result := h.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&favorite)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add favorite"})
		return
	}

	if result.RowsAffected == 0 {
		if err := h.DB.Where("user_id = ? AND salon_id = ?", userID, salonID).First(&favorite).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load favorite"})
			return
		}
		c.JSON(http.StatusOK, favorite)
		return
	}

	adjustSalonCounter(h.DB, salonID, "favorite_count", 1)
	c.JSON(http.StatusCreated, favorite)
}

func (h *FavoriteHandler) RemoveFavorite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	salonID, ok := parseUUIDParam(c, "salonId", "salon")
	if !ok {
		return
	}

	result := h.DB.Where("user_id = ? AND salon_id = ?", userID, salonID).Delete(&models.Favorite{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove favorite"})
		return
	}
	if result.RowsAffected > 0 {
		adjustSalonCounter(h.DB, salonID, "favorite_count", -1)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Favorite removed"})
}

func (h *FavoriteHandler) GetFavorites(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var favorites []models.Favorite
	if err := h.DB.Preload("Salon").
		Joins("JOIN salons ON salons.id = favorites.salon_id AND salons.is_active = ? AND salons.deleted_at IS NULL", true).
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC").
		Find(&favorites).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorites"})
		return
	}

	c.JSON(http.StatusOK, favorites)
}
