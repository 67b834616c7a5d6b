package handlers

import (
	"net/http"

	"salontime-backend/cache"
	"salontime-backend/models"
	"salontime-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServiceHandler struct {
	DB    *gorm.DB
	Cache cache.Cache
}

// GetSalonServices lists the active services of an active salon.
func (h *ServiceHandler) GetSalonServices(c *gin.Context) {
	salonID, ok := parseUUIDParam(c, "id", "salon")
	if !ok {
		return
	}

	var salon models.Salon
	if err := h.DB.Where("id = ? AND is_active = ?", salonID, true).First(&salon).Error; err != nil {
		respondLookupError(c, err, "Salon")
		return
	}

	var services []models.Service
	if err := h.DB.Preload("Category").
		Where("salon_id = ? AND is_active = ?", salonID, true).
		Order("name ASC").
		Find(&services).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch services"})
		return
	}

	c.JSON(http.StatusOK, services)
}

func (h *ServiceHandler) GetMyServices(c *gin.Context) {
	salon, ok := ownedSalon(h.DB, c)
	if !ok {
		return
	}

	var services []models.Service
	if err := h.DB.Preload("Category").Where("salon_id = ?", salon.ID).Order("name ASC").Find(&services).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch services"})
		return
	}

	c.JSON(http.StatusOK, services)
}

// checkCategory rejects unknown or inactive category references.
func (h *ServiceHandler) checkCategory(c *gin.Context, id *uuid.UUID) bool {
	if id == nil {
		return true
	}
	var count int64
	if err := h.DB.Model(&models.ServiceCategory{}).Where("id = ? AND is_active = ?", *id, true).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check category"})
		return false
	}
	if count == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
		return false
	}
	return true
}

func (h *ServiceHandler) CreateService(c *gin.Context) {
	salon, ok := ownedSalon(h.DB, c)
	if !ok {
		return
	}

	var req struct {
		Name        string     `json:"name" binding:"required,min=2,max=120"`
		Description string     `json:"description" binding:"max=2000"`
		Price       float64    `json:"price" binding:"gte=0"`
		Duration    int        `json:"duration" binding:"required,gte=5,lte=720"`
		CategoryID  *uuid.UUID `json:"category_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	if !h.checkCategory(c, req.CategoryID) {
		return
	}

	service := models.Service{
		ID:          uuid.New(),
		SalonID:     salon.ID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Duration:    req.Duration,
		CategoryID:  req.CategoryID,
		IsActive:    true,
	}
	if err := h.DB.Create(&service).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create service"})
		return
	}

	invalidateSearch(c.Request.Context(), h.Cache)
	c.JSON(http.StatusCreated, service)
}

func (h *ServiceHandler) UpdateService(c *gin.Context) {
	salon, ok := ownedSalon(h.DB, c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id", "service")
	if !ok {
		return
	}

	var service models.Service
	if err := h.DB.Where("id = ? AND salon_id = ?", id, salon.ID).First(&service).Error; err != nil {
		respondLookupError(c, err, "Service")
		return
	}

	var req struct {
		Name        *string    `json:"name" binding:"omitempty,min=2,max=120"`
		Description *string    `json:"description" binding:"omitempty,max=2000"`
		Price       *float64   `json:"price" binding:"omitempty,gte=0"`
		Duration    *int       `json:"duration" binding:"omitempty,gte=5,lte=720"`
		CategoryID  *uuid.UUID `json:"category_id"`
		IsActive    *bool      `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	if !h.checkCategory(c, req.CategoryID) {
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Duration != nil {
		updates["duration"] = *req.Duration
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&service).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update service"})
			return
		}
		invalidateSearch(c.Request.Context(), h.Cache)
	}

	if err := h.DB.Preload("Category").Where("id = ?", service.ID).First(&service).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load service"})
		return
	}
	c.JSON(http.StatusOK, service)
}

// DeleteService soft-deletes the service; existing bookings keep their
// price snapshot.
func (h *ServiceHandler) DeleteService(c *gin.Context) {
	salon, ok := ownedSalon(h.DB, c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id", "service")
	if !ok {
		return
	}

	result := h.DB.Where("id = ? AND salon_id = ?", id, salon.ID).Delete(&models.Service{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete service"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Service not found"})
		return
	}

	invalidateSearch(c.Request.Context(), h.Cache)
	c.JSON(http.StatusOK, gin.H{"message": "Service deleted successfully"})
}
