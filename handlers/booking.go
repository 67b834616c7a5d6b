package handlers

import (
	"fmt"
	"net/http"
	"time"

	"salontime-backend/events"
	"salontime-backend/models"
	"salontime-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// activeBookingStatuses are the statuses that hold a time slot.
var activeBookingStatuses = []models.BookingStatus{models.BookingStatusPending, models.BookingStatusConfirmed}

type BookingHandler struct {
	DB       *gorm.DB
	Events   events.Publisher
	Location *time.Location
	Now      func() time.Time
}

func (h *BookingHandler) now() time.Time {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

// endTime adds minutes to an HH:MM start. ok is false when the appointment
// would run past midnight.
func endTime(start string, minutes int) (string, bool) {
	t, err := time.Parse("15:04", start)
	if err != nil {
		return "", false
	}
	end := t.Add(time.Duration(minutes) * time.Minute)
	if end.Day() != t.Day() {
		return "", false
	}
	return end.Format("15:04"), true
}

type bookingEvent struct {
	BookingID uuid.UUID            `json:"booking_id"`
	SalonID   uuid.UUID            `json:"salon_id"`
	ClientID  uuid.UUID            `json:"client_id"`
	ServiceID uuid.UUID            `json:"service_id"`
	Date      string               `json:"appointment_date"`
	StartTime string               `json:"start_time"`
	Status    models.BookingStatus `json:"status"`
	From      models.BookingStatus `json:"from,omitempty"`
}

func newBookingEvent(b models.Booking) bookingEvent {
	return bookingEvent{
		BookingID: b.ID,
		SalonID:   b.SalonID,
		ClientID:  b.ClientID,
		ServiceID: b.ServiceID,
		Date:      b.AppointmentDate,
		StartTime: b.StartTime,
		Status:    b.Status,
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	clientID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		SalonID         uuid.UUID  `json:"salon_id" binding:"required"`
		ServiceID       uuid.UUID  `json:"service_id" binding:"required"`
		StaffID         *uuid.UUID `json:"staff_id"`
		AppointmentDate string     `json:"appointment_date" binding:"required,date"`
		StartTime       string     `json:"start_time" binding:"required,clock"`
		Notes           string     `json:"notes" binding:"max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	now := h.now()
	today := now.Format("2006-01-02")
	if req.AppointmentDate < today || (req.AppointmentDate == today && req.StartTime <= now.Format("15:04")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Appointment must be in the future"})
		return
	}

	var salon models.Salon
	if err := h.DB.Where("id = ? AND is_active = ?", req.SalonID, true).First(&salon).Error; err != nil {
		respondLookupError(c, err, "Salon")
		return
	}

	var service models.Service
	if err := h.DB.Where("id = ? AND salon_id = ? AND is_active = ?", req.ServiceID, salon.ID, true).First(&service).Error; err != nil {
		respondLookupError(c, err, "Service")
		return
	}

	end, ok := endTime(req.StartTime, service.Duration)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Appointment must end before midnight"})
		return
	}

	booking := models.Booking{
		ID:              uuid.New(),
		ClientID:        clientID,
		SalonID:         salon.ID,
		ServiceID:       service.ID,
		StaffID:         req.StaffID,
		AppointmentDate: req.AppointmentDate,
		StartTime:       req.StartTime,
		EndTime:         end,
		Price:           service.Price,
		Notes:           req.Notes,
		Status:          models.BookingStatusPending,
	}

	conflict := false
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Booking{}).
			Where("appointment_date = ? AND status IN ?", booking.AppointmentDate, activeBookingStatuses).
			Where("start_time < ? AND end_time > ?", booking.EndTime, booking.StartTime)
		if booking.StaffID != nil {
			q = q.Where("staff_id = ?", *booking.StaffID)
		} else {
			q = q.Where("salon_id = ? AND client_id = ?", booking.SalonID, booking.ClientID)
		}

		var overlapping int64
		if err := q.Count(&overlapping).Error; err != nil {
			return err
		}
		if overlapping > 0 {
			conflict = true
			return nil
		}
		return tx.Create(&booking).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create booking"})
		return
	}
	if conflict {
		c.JSON(http.StatusConflict, gin.H{"error": "This time slot is no longer available"})
		return
	}

	adjustSalonCounter(h.DB, salon.ID, "booking_count", 1)
	events.Emit(c.Request.Context(), h.Events, events.BookingCreated, newBookingEvent(booking))

	c.JSON(http.StatusCreated, booking)
}

// scope restricts a booking query to what the caller may see.
func (h *BookingHandler) scope(c *gin.Context, q *gorm.DB) (*gorm.DB, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}

	switch currentRole(c) {
	case models.RoleAdmin:
		if salonID := c.Query("salon_id"); salonID != "" {
			q = q.Where("bookings.salon_id = ?", salonID)
		}
	case models.RoleSalonOwner:
		q = q.Where("bookings.salon_id IN (?)", h.DB.Model(&models.Salon{}).Select("id").Where("owner_id = ?", userID))
	default:
		q = q.Where("bookings.client_id = ?", userID)
	}
	return q, true
}

func (h *BookingHandler) GetBookings(c *gin.Context) {
	page, limit := pageParams(c)

	query, ok := h.scope(c, h.DB.Model(&models.Booking{}))
	if !ok {
		return
	}

	if status := c.Query("status"); status != "" {
		if !models.IsValidBookingStatus(models.BookingStatus(status)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
		query = query.Where("bookings.status = ?", status)
	}
	if date := c.Query("date"); date != "" {
		if !utils.IsDate(date) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be in YYYY-MM-DD format"})
			return
		}
		query = query.Where("bookings.appointment_date = ?", date)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	var bookings []models.Booking
	if err := query.Preload("Salon").Preload("Service").
		Order("bookings.appointment_date DESC, bookings.start_time DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&bookings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "booking")
	if !ok {
		return
	}

	query, ok := h.scope(c, h.DB.Model(&models.Booking{}))
	if !ok {
		return
	}

	var booking models.Booking
	if err := query.Preload("Salon").Preload("Service").Where("bookings.id = ?", id).First(&booking).Error; err != nil {
		respondLookupError(c, err, "Booking")
		return
	}

	c.JSON(http.StatusOK, booking)
}

// UpdateBookingStatus applies a state machine transition. Clients may only
// cancel their own bookings; owners act on their salon's bookings.
func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "booking")
	if !ok {
		return
	}

	var req struct {
		Status models.BookingStatus `json:"status" binding:"required"`
		Reason string               `json:"reason" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	if !models.IsValidBookingStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	query, ok := h.scope(c, h.DB.Model(&models.Booking{}))
	if !ok {
		return
	}

	var booking models.Booking
	if err := query.Where("bookings.id = ?", id).First(&booking).Error; err != nil {
		respondLookupError(c, err, "Booking")
		return
	}

	role := currentRole(c)
	if role != models.RoleAdmin && role != models.RoleSalonOwner && req.Status != models.BookingStatusCancelled {
		c.JSON(http.StatusForbidden, gin.H{"error": "Clients can only cancel bookings"})
		return
	}

	if !models.IsValidBookingTransition(booking.Status, req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid status transition from '%s' to '%s'", booking.Status, req.Status),
		})
		return
	}

	from := booking.Status
	updates := map[string]interface{}{"status": req.Status}
	if req.Status == models.BookingStatusCancelled && req.Reason != "" {
		updates["cancellation_reason"] = req.Reason
	}

	// the status guard makes concurrent transitions from the same state lose cleanly
	result := h.DB.Model(&models.Booking{}).Where("id = ? AND status = ?", booking.ID, from).Updates(updates)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update booking status"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Booking was modified concurrently, please retry"})
		return
	}

	if err := h.DB.Preload("Salon").Preload("Service").Where("id = ?", booking.ID).First(&booking).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load booking"})
		return
	}

	evt := newBookingEvent(booking)
	evt.From = from
	events.Emit(c.Request.Context(), h.Events, events.BookingStatusChanged, evt)

	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) GetBookingTransitions(c *gin.Context) {
	c.JSON(http.StatusOK, models.AllowedBookingTransitions)
}
