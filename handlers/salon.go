package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"salontime-backend/cache"
	"salontime-backend/models"
	"salontime-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SalonHandler struct {
	DB    *gorm.DB
	Cache cache.Cache
}

type salonRequest struct {
	Name          *string                    `json:"name" binding:"omitempty,min=2,max=120"`
	Description   *string                    `json:"description" binding:"omitempty,max=2000"`
	Phone         *string                    `json:"phone" binding:"omitempty,phone"`
	Email         *string                    `json:"email" binding:"omitempty,email"`
	Website       *string                    `json:"website" binding:"omitempty,url"`
	Address       *string                    `json:"address"`
	City          *string                    `json:"city"`
	PostalCode    *string                    `json:"postal_code"`
	Country       *string                    `json:"country"`
	Latitude      *float64                   `json:"latitude"`
	Longitude     *float64                   `json:"longitude"`
	BusinessHours map[string]models.DayHours `json:"business_hours"`
}

// validateBusinessHours checks day keys and HH:MM values. A close before the
// open time is an overnight entry and is allowed.
func validateBusinessHours(hours map[string]models.DayHours) error {
	known := make(map[string]bool, len(models.Weekdays))
	for _, d := range models.Weekdays {
		known[d] = true
	}
	for day, entry := range hours {
		if !known[day] {
			return fmt.Errorf("unknown day %q in business hours", day)
		}
		if entry.Closed {
			continue
		}
		if !utils.IsClock(entry.Open) || !utils.IsClock(entry.Close) {
			return fmt.Errorf("%s must have open and close times in HH:MM format", day)
		}
		if entry.Open == entry.Close {
			return fmt.Errorf("%s open and close times must differ", day)
		}
	}
	return nil
}

func validateCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return errors.New("latitude and longitude must be provided together")
	}
	if lat != nil && !utils.ValidCoordinates(*lat, *lng) {
		return errors.New("coordinates are out of range")
	}
	return nil
}

func (r salonRequest) updates() map[string]interface{} {
	updates := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	set("name", r.Name)
	set("description", r.Description)
	set("phone", r.Phone)
	set("email", r.Email)
	set("website", r.Website)
	set("address", r.Address)
	set("city", r.City)
	set("postal_code", r.PostalCode)
	set("country", r.Country)
	if r.Latitude != nil {
		updates["latitude"] = *r.Latitude
		updates["longitude"] = *r.Longitude
	}
	if r.BusinessHours != nil {
		updates["business_hours"] = models.BusinessHours(r.BusinessHours)
	}
	return updates
}

func (h *SalonHandler) CreateSalon(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req salonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if err := validateCoordinates(req.Latitude, req.Longitude); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateBusinessHours(req.BusinessHours); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	if err := h.DB.Unscoped().Model(&models.Salon{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing salon"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "You already have a salon registered"})
		return
	}

	hours := models.BusinessHours(req.BusinessHours)
	if len(hours) == 0 {
		hours = models.DefaultBusinessHours()
	}

	str := func(v *string) string {
		if v == nil {
			return ""
		}
		return strings.TrimSpace(*v)
	}

	salon := models.Salon{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Name:          str(req.Name),
		Description:   str(req.Description),
		Phone:         str(req.Phone),
		Email:         str(req.Email),
		Website:       str(req.Website),
		Address:       str(req.Address),
		City:          str(req.City),
		PostalCode:    str(req.PostalCode),
		Country:       str(req.Country),
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		BusinessHours: hours,
		IsActive:      true,
	}

	if err := h.DB.Create(&salon).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create salon"})
		return
	}

	invalidateSearch(c.Request.Context(), h.Cache)
	c.JSON(http.StatusCreated, salon)
}

// GetSalon is the public salon page. Each successful read counts as a view.
func (h *SalonHandler) GetSalon(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "salon")
	if !ok {
		return
	}

	var salon models.Salon
	if err := h.DB.Preload("Services", "is_active = ?", true).
		Preload("Services.Category").
		Where("id = ? AND is_active = ?", id, true).
		First(&salon).Error; err != nil {
		respondLookupError(c, err, "Salon")
		return
	}

	adjustSalonCounter(h.DB, salon.ID, "view_count", 1)
	c.JSON(http.StatusOK, salon)
}

func (h *SalonHandler) GetMySalon(c *gin.Context) {
	salon, ok := ownedSalon(h.DB, c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, salon)
}

func (h *SalonHandler) UpdateMySalon(c *gin.Context) {
	salon, ok := ownedSalon(h.DB, c)
	if !ok {
		return
	}

	var req salonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
		return
	}
	if err := validateCoordinates(req.Latitude, req.Longitude); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateBusinessHours(req.BusinessHours); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if updates := req.updates(); len(updates) > 0 {
		if err := h.DB.Model(&salon).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update salon"})
			return
		}
		invalidateSearch(c.Request.Context(), h.Cache)
	}

	if err := h.DB.Where("id = ?", salon.ID).First(&salon).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load salon"})
		return
	}
	c.JSON(http.StatusOK, salon)
}

// UpdateBusinessHours replaces the weekly schedule.
func (h *SalonHandler) UpdateBusinessHours(c *gin.Context) {
	salon, ok := ownedSalon(h.DB, c)
	if !ok {
		return
	}

	var req map[string]models.DayHours
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid business hours payload"})
		return
	}
	if err := validateBusinessHours(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hours := models.BusinessHours(req)
	if err := h.DB.Model(&salon).Update("business_hours", hours).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update business hours"})
		return
	}

	invalidateSearch(c.Request.Context(), h.Cache)
	c.JSON(http.StatusOK, hours)
}

// DeactivateMySalon hides the salon from search and public pages. Salons are
// never hard-deleted.
func (h *SalonHandler) DeactivateMySalon(c *gin.Context) {
	salon, ok := ownedSalon(h.DB, c)
	if !ok {
		return
	}

	if err := h.DB.Model(&salon).Update("is_active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate salon"})
		return
	}

	invalidateSearch(c.Request.Context(), h.Cache)
	c.JSON(http.StatusOK, gin.H{"message": "Salon deactivated"})
}

// ========== Admin ==========

func (h *SalonHandler) ListSalons(c *gin.Context) {
	page, limit := pageParams(c)

	query := h.DB.Model(&models.Salon{})
	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(city) LIKE ?)", pattern, pattern)
	}
	switch c.Query("status") {
	case "active":
		query = query.Where("is_active = ?", true)
	case "inactive":
		query = query.Where("is_active = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch salons"})
		return
	}

	var salons []models.Salon
	if err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&salons).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch salons"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"salons": salons,
		"total":  total,
		"page":   page,
		"limit":  limit,
		"pages":  int(math.Ceil(float64(total) / float64(limit))),
	})
}

// FeatureSalon sets or clears the featured flag. An expiry in the past is
// rejected; a nil expiry features the salon indefinitely.
func (h *SalonHandler) FeatureSalon(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "salon")
	if !ok {
		return
	}

	var req struct {
		Featured      *bool      `json:"featured" binding:"required"`
		FeaturedUntil *time.Time `json:"featured_until"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	if *req.Featured && req.FeaturedUntil != nil && !req.FeaturedUntil.After(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "featured_until must be in the future"})
		return
	}

	var salon models.Salon
	if err := h.DB.Where("id = ?", id).First(&salon).Error; err != nil {
		respondLookupError(c, err, "Salon")
		return
	}

	updates := map[string]interface{}{"is_featured": *req.Featured, "featured_until": nil}
	if *req.Featured && req.FeaturedUntil != nil {
		updates["featured_until"] = req.FeaturedUntil.UTC()
	}
	if err := h.DB.Model(&salon).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update salon"})
		return
	}

	invalidateSearch(c.Request.Context(), h.Cache)
	if err := h.DB.Where("id = ?", salon.ID).First(&salon).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load salon"})
		return
	}
	c.JSON(http.StatusOK, salon)
}
