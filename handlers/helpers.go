package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"salontime-backend/cache"
	"salontime-backend/middleware"
	"salontime-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(middleware.ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func currentRole(c *gin.Context) string {
	return c.GetString(middleware.ContextUserRole)
}

// pageParams reads page/limit with the same bounds the admin lists use.
func pageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func parseUUIDParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + label + " ID"})
		return uuid.Nil, false
	}
	return id, true
}

// respondLookupError maps a failed First() to 404 or 500.
func respondLookupError(c *gin.Context, err error, what string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch " + what})
}

// ownedSalon loads the salon of the authenticated owner.
func ownedSalon(db *gorm.DB, c *gin.Context) (models.Salon, bool) {
	var salon models.Salon
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return salon, false
	}
	if err := db.Where("owner_id = ?", ownerID).First(&salon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "You have not registered a salon yet"})
			return salon, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch salon"})
		return salon, false
	}
	return salon, true
}

// adjustSalonCounter bumps one of the salon counters. Failures are logged
// and never fail the request.
func adjustSalonCounter(db *gorm.DB, salonID uuid.UUID, column string, delta int) {
	expr := gorm.Expr(column+" + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN "+column+" + ? < 0 THEN 0 ELSE "+column+" + ? END", delta, delta)
	}
	if err := db.Model(&models.Salon{}).Where("id = ?", salonID).UpdateColumn(column, expr).Error; err != nil {
		slog.Warn("salon counter update failed", "salon_id", salonID, "column", column, "error", err)
	}
}

// invalidateSearch drops cached search pages after a write that can change them.
func invalidateSearch(ctx context.Context, c cache.Cache) {
	if c == nil {
		return
	}
	if err := cache.DeletePrefix(ctx, c, cache.KeySearchPrefix); err != nil {
		slog.Warn("search cache invalidation failed", "error", err)
	}
}
