package handlers

import (
	"math"
	"net/http"
	"time"

	"salontime-backend/cache"
	"salontime-backend/events"
	"salontime-backend/models"
	"salontime-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewHandler struct {
	DB     *gorm.DB
	Events events.Publisher
	Cache  cache.Cache
}

type reviewResponse struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	ClientName string    `json:"client_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// recomputeRating rebuilds the salon aggregate from the reviews table.
func recomputeRating(db *gorm.DB, salonID uuid.UUID) error {
	var agg struct {
		Average float64
		Count   int
	}
	if err := db.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("salon_id = ?", salonID).
		Scan(&agg).Error; err != nil {
		return err
	}
	return db.Model(&models.Salon{}).Where("id = ?", salonID).UpdateColumns(map[string]interface{}{
		"rating_average": math.Round(agg.Average*100) / 100,
		"rating_count":   agg.Count,
	}).Error
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	clientID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	bookingID, ok := parseUUIDParam(c, "id", "booking")
	if !ok {
		return
	}

	var req struct {
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
		Comment string `json:"comment" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var booking models.Booking
	if err := h.DB.Where("id = ? AND client_id = ?", bookingID, clientID).First(&booking).Error; err != nil {
		respondLookupError(c, err, "Booking")
		return
	}
	if booking.Status != models.BookingStatusCompleted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only completed bookings can be reviewed"})
		return
	}

	var existing int64
	if err := h.DB.Unscoped().Model(&models.Review{}).Where("booking_id = ?", booking.ID).Count(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing review"})
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "This booking has already been reviewed"})
		return
	}

	review := models.Review{
		ID:        uuid.New(),
		BookingID: booking.ID,
		SalonID:   booking.SalonID,
		ClientID:  clientID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		return recomputeRating(tx, booking.SalonID)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create review"})
		return
	}

	invalidateSearch(c.Request.Context(), h.Cache)
	events.Emit(c.Request.Context(), h.Events, events.ReviewCreated, gin.H{
		"review_id":  review.ID,
		"booking_id": review.BookingID,
		"salon_id":   review.SalonID,
		"rating":     review.Rating,
	})

	c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) GetSalonReviews(c *gin.Context) {
	salonID, ok := parseUUIDParam(c, "id", "salon")
	if !ok {
		return
	}
	page, limit := pageParams(c)

	var salon models.Salon
	if err := h.DB.Where("id = ? AND is_active = ?", salonID, true).First(&salon).Error; err != nil {
		respondLookupError(c, err, "Salon")
		return
	}

	var total int64
	if err := h.DB.Model(&models.Review{}).Where("salon_id = ?", salonID).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count reviews"})
		return
	}

	var reviews []models.Review
	if err := h.DB.Preload("Client").
		Where("salon_id = ?", salonID).
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&reviews).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
		return
	}

	result := make([]reviewResponse, 0, len(reviews))
	for _, r := range reviews {
		name := ""
		if r.Client != nil {
			name = r.Client.Name
		}
		result = append(result, reviewResponse{
			ID:         r.ID,
			BookingID:  r.BookingID,
			Rating:     r.Rating,
			Comment:    r.Comment,
			ClientName: name,
			CreatedAt:  r.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews":        result,
		"total":          total,
		"page":           page,
		"limit":          limit,
		"rating_average": salon.RatingAverage,
		"rating_count":   salon.RatingCount,
	})
}
