package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no_show"
)

type Booking struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ClientID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"client_id"`
	Client             *User          `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	SalonID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"salon_id"`
	Salon              *Salon         `gorm:"foreignKey:SalonID" json:"salon,omitempty"`
	ServiceID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"service_id"`
	Service            *Service       `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	StaffID            *uuid.UUID     `gorm:"type:uuid;index" json:"staff_id,omitempty"`
	AppointmentDate    string         `gorm:"type:varchar(10);not null;index" json:"appointment_date"` // YYYY-MM-DD
	StartTime          string         `gorm:"type:varchar(5);not null" json:"start_time"`              // HH:MM
	EndTime            string         `gorm:"type:varchar(5);not null" json:"end_time"`                // HH:MM
	Price              float64        `gorm:"not null" json:"price"`
	Notes              string         `json:"notes"`
	Status             BookingStatus  `gorm:"default:pending;index" json:"status"`
	CancellationReason string         `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = BookingStatusPending
	}
	return nil
}

// AllowedBookingTransitions defines the booking status state machine.
var AllowedBookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow},
	BookingStatusCompleted: {},
	BookingStatusCancelled: {},
	BookingStatusNoShow:    {},
}

// IsValidBookingTransition checks if a status transition is allowed.
func IsValidBookingTransition(from, to BookingStatus) bool {
	allowed, exists := AllowedBookingTransitions[from]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsValidBookingStatus reports whether s is one of the known statuses.
func IsValidBookingStatus(s BookingStatus) bool {
	_, ok := AllowedBookingTransitions[s]
	return ok
}
