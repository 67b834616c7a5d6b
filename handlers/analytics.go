package handlers

import (
	"math"
	"net/http"
	"time"

	"salontime-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AnalyticsHandler struct {
	DB       *gorm.DB
	Location *time.Location
	Now      func() time.Time
}

// periodWindow returns the current [start, end] and previous [prevStart,
// start) windows as YYYY-MM-DD strings. Windows are rolling, ending today.
func periodWindow(period string, now time.Time) (start, end, prevStart string, ok bool) {
	var from, prev time.Time
	switch period {
	case "", "month":
		from, prev = now.AddDate(0, -1, 0), now.AddDate(0, -2, 0)
	case "quarter":
		from, prev = now.AddDate(0, -3, 0), now.AddDate(0, -6, 0)
	case "year":
		from, prev = now.AddDate(-1, 0, 0), now.AddDate(-2, 0, 0)
	default:
		return "", "", "", false
	}
	const layout = "2006-01-02"
	return from.Format(layout), now.Format(layout), prev.Format(layout), true
}

// growthPercent compares two revenue figures. Growth from zero is 100% when
// there is any current revenue.
func growthPercent(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return math.Round((current-previous)/previous*10000) / 100
}

type serviceStat struct {
	ServiceID    uuid.UUID `json:"service_id"`
	Name         string    `json:"name"`
	BookingCount int64     `json:"bookings"`
	Revenue      float64   `json:"revenue"`
}

// GetOwnerAnalytics summarizes the owner's salon for ?period=month|quarter|year.
func (h *AnalyticsHandler) GetOwnerAnalytics(c *gin.Context) {
	salon, ok := ownedSalon(h.DB, c)
	if !ok {
		return
	}

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	if h.Location != nil {
		now = now.In(h.Location)
	}

	period := c.DefaultQuery("period", "month")
	start, end, prevStart, ok := periodWindow(period, now)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be one of month, quarter, year"})
		return
	}

	inSalon := func() *gorm.DB {
		return h.DB.Model(&models.Booking{}).Where("bookings.salon_id = ?", salon.ID)
	}

	var statusRows []struct {
		Status models.BookingStatus
		Count  int64
	}
	if err := inSalon().
		Select("status, COUNT(*) AS count").
		Where("appointment_date BETWEEN ? AND ?", start, end).
		Group("status").
		Scan(&statusRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}
	byStatus := map[models.BookingStatus]int64{}
	for s := range models.AllowedBookingTransitions {
		byStatus[s] = 0
	}
	var totalBookings int64
	for _, row := range statusRows {
		byStatus[row.Status] = row.Count
		totalBookings += row.Count
	}

	var revenue, prevRevenue float64
	inSalon().Select("COALESCE(SUM(price), 0)").
		Where("status = ? AND appointment_date BETWEEN ? AND ?", models.BookingStatusCompleted, start, end).
		Scan(&revenue)
	inSalon().Select("COALESCE(SUM(price), 0)").
		Where("status = ? AND appointment_date >= ? AND appointment_date < ?", models.BookingStatusCompleted, prevStart, start).
		Scan(&prevRevenue)

	topServices := []serviceStat{}
	if err := inSalon().
		Select("services.id AS service_id, services.name AS name, COUNT(bookings.id) AS booking_count, COALESCE(SUM(bookings.price), 0) AS revenue").
		Joins("JOIN services ON services.id = bookings.service_id").
		Where("bookings.status = ? AND bookings.appointment_date BETWEEN ? AND ?", models.BookingStatusCompleted, start, end).
		Group("services.id, services.name").
		Order("booking_count DESC, revenue DESC").
		Limit(5).
		Scan(&topServices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	completionRate := 0.0
	if totalBookings > 0 {
		completionRate = math.Round(float64(byStatus[models.BookingStatusCompleted])/float64(totalBookings)*10000) / 100
	}

	c.JSON(http.StatusOK, gin.H{
		"period": gin.H{"name": period, "start": start, "end": end},
		"bookings": gin.H{
			"total":           totalBookings,
			"by_status":       byStatus,
			"completion_rate": completionRate,
		},
		"revenue": gin.H{
			"current":  revenue,
			"previous": prevRevenue,
			"growth":   growthPercent(revenue, prevRevenue),
		},
		"top_services": topServices,
		"counters": gin.H{
			"views":     salon.ViewCount,
			"favorites": salon.FavoriteCount,
			"bookings":  salon.BookingCount,
		},
		"rating": gin.H{
			"average": salon.RatingAverage,
			"count":   salon.RatingCount,
		},
	})
}
