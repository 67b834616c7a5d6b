package handlers

import (
	"log/slog"
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

const categoriesCacheTTL = 10 * time.Minute

type CategoryHandler struct {
	DB    *gorm.DB
	Cache cache.Cache
}

func (h *CategoryHandler) forget(c *gin.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Delete(c.Request.Context(), cache.KeyCategories); err != nil {
		slog.Warn("category cache invalidation failed", "error", err)
	}
	invalidateSearch(c.Request.Context(), h.Cache)
}

// GetCategories returns active categories in display order.
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	ctx := c.Request.Context()

	var categories []models.ServiceCategory
	if h.Cache != nil {
		if ok, _ := cache.GetJSON(ctx, h.Cache, cache.KeyCategories, &categories); ok {
			c.JSON(http.StatusOK, categories)
			return
		}
	}

	if err := h.DB.Where("is_active = ?", true).Order("sort_order ASC, name ASC").Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	if h.Cache != nil {
		if err := cache.SetJSON(ctx, h.Cache, cache.KeyCategories, categories, categoriesCacheTTL); err != nil {
			slog.Warn("category cache write failed", "error", err)
		}
	}
	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=2,max=80"`
		Slug        string `json:"slug" binding:"omitempty,max=80"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
		SortOrder   int    `json:"sort_order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	slug := models.Slugify(req.Slug)
	if slug == "" {
		slug = models.Slugify(req.Name)
	}
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name must contain letters or digits"})
		return
	}

	var count int64
	h.DB.Unscoped().Model(&models.ServiceCategory{}).
		Where("LOWER(name) = ? OR slug = ?", strings.ToLower(strings.TrimSpace(req.Name)), slug).
		Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "A category with this name or slug already exists"})
		return
	}

	category := models.ServiceCategory{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug,
		Description: req.Description,
		Icon:        req.Icon,
		SortOrder:   req.SortOrder,
		IsActive:    true,
	}
	if err := h.DB.Create(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	h.forget(c)
	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "category")
	if !ok {
		return
	}

	var category models.ServiceCategory
	if err := h.DB.Where("id = ?", id).First(&category).Error; err != nil {
		respondLookupError(c, err, "Category")
		return
	}

	var req struct {
		Name        *string `json:"name" binding:"omitempty,min=2,max=80"`
		Slug        *string `json:"slug" binding:"omitempty,max=80"`
		Description *string `json:"description"`
		Icon        *string `json:"icon"`
		SortOrder   *int    `json:"sort_order"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		slug := models.Slugify(*req.Slug)
		if slug == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "slug must contain letters or digits"})
			return
		}
		var count int64
		if err := h.DB.Unscoped().Model(&models.ServiceCategory{}).Where("slug = ? AND id <> ?", slug, id).Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check slug"})
			return
		}
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "A category with this slug already exists"})
			return
		}
		updates["slug"] = slug
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Icon != nil {
		updates["icon"] = *req.Icon
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&category).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
			return
		}
		h.forget(c)
	}

	if err := h.DB.Where("id = ?", id).First(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load category"})
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "category")
	if !ok {
		return
	}

	var serviceCount int64
	if err := h.DB.Model(&models.Service{}).Where("category_id = ?", id).Count(&serviceCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check category dependencies"})
		return
	}

	if serviceCount > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         "Cannot delete category with associated services",
			"message":       "Deactivate the category or reassign its services first",
			"service_count": serviceCount,
		})
		return
	}

	result := h.DB.Delete(&models.ServiceCategory{}, "id = ?", id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	h.forget(c)
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
