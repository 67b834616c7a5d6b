package handlers

import (
	"net/http"
	"testing"

	"salontime-backend/events"
	"salontime-backend/models"

	"github.com/google/uuid"
)

func bookingBody(salon models.Salon, svc models.Service, date, start string) map[string]interface{} {
	return map[string]interface{}{
		"salon_id":         salon.ID.String(),
		"service_id":       svc.ID.String(),
		"appointment_date": date,
		"start_time":       start,
	}
}

func TestEndTime(t *testing.T) {
	cases := []struct {
		start   string
		minutes int
		want    string
		ok      bool
	}{
		{"09:00", 45, "09:45", true},
		{"23:00", 60, "", false},
		{"22:30", 90, "", false},
		{"23:00", 59, "23:59", true},
		{"25:00", 30, "", false},
	}
	for _, tc := range cases {
		got, ok := endTime(tc.start, tc.minutes)
		if ok != tc.ok || got != tc.want {
			t.Errorf("endTime(%s, %d) = %q, %v; want %q, %v", tc.start, tc.minutes, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCreateBooking(t *testing.T) {
	db := freshDB()
	pub := &recordingPublisher{}
	router := setupBookingRouter(db, pub)

	_, _, salon := seedOwnerWithSalon(db, "Studio")
	svc := seedService(db, salon.ID, "Haircut", 35, 45)
	_, token := seedTestUser(db, "client@test.com", models.RoleClient)

	w := serve(router, authRequest("POST", "/api/bookings", bookingBody(salon, svc, "2025-03-12", "10:00"), token))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	if resp["end_time"] != "10:45" || resp["status"] != "pending" || resp["price"] != float64(35) {
		t.Errorf("unexpected booking %s", w.Body.String())
	}

	var stored models.Salon
	db.First(&stored, "id = ?", salon.ID)
	if stored.BookingCount != 1 {
		t.Errorf("expected booking_count 1, got %d", stored.BookingCount)
	}

	if got := pub.types(); len(got) != 1 || got[0] != events.BookingCreated {
		t.Errorf("expected one booking.created event, got %v", got)
	}
}

func TestCreateBookingInPast(t *testing.T) {
	db := freshDB()
	router := setupBookingRouter(db, nil)

	_, _, salon := seedOwnerWithSalon(db, "Studio")
	svc := seedService(db, salon.ID, "Haircut", 35, 45)
	_, token := seedTestUser(db, "client@test.com", models.RoleClient)

	for _, slot := range [][2]string{{"2025-03-09", "15:00"}, {"2025-03-10", "08:30"}, {"2025-03-10", "09:00"}} {
		w := serve(router, authRequest("POST", "/api/bookings", bookingBody(salon, svc, slot[0], slot[1]), token))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s %s: expected status 400, got %d", slot[0], slot[1], w.Code)
		}
	}

	w := serve(router, authRequest("POST", "/api/bookings", bookingBody(salon, svc, "2025-03-10", "09:30"), token))
	if w.Code != http.StatusCreated {
		t.Errorf("expected later today to be accepted, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateBookingValidation(t *testing.T) {
	db := freshDB()
	router := setupBookingRouter(db, nil)

	_, _, salon := seedOwnerWithSalon(db, "Studio")
	svc := seedService(db, salon.ID, "Haircut", 35, 45)
	_, token := seedTestUser(db, "client@test.com", models.RoleClient)

	cases := map[string]map[string]interface{}{
		"bad date":   bookingBody(salon, svc, "12-03-2025", "10:00"),
		"bad clock":  bookingBody(salon, svc, "2025-03-12", "10am"),
		"past 24:00": bookingBody(salon, svc, "2025-03-12", "23:30"),
	}
	for name, body := range cases {
		w := serve(router, authRequest("POST", "/api/bookings", body, token))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d: %s", name, w.Code, w.Body.String())
		}
	}
}

func TestCreateBookingServiceMustBelongToSalon(t *testing.T) {
	db := freshDB()
	router := setupBookingRouter(db, nil)

	_, _, salon := seedOwnerWithSalon(db, "Studio")
	_, _, other := seedOwnerWithSalon(db, "Other")
	foreign := seedService(db, other.ID, "Massage", 60, 60)
	_, token := seedTestUser(db, "client@test.com", models.RoleClient)

	w := serve(router, authRequest("POST", "/api/bookings", bookingBody(salon, foreign, "2025-03-12", "10:00"), token))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateBookingInactiveSalon(t *testing.T) {
	db := freshDB()
	router := setupBookingRouter(db, nil)

	_, _, salon := seedOwnerWithSalon(db, "Studio")
	svc := seedService(db, salon.ID, "Haircut", 35, 45)
	db.Model(&salon).Update("is_active", false)
	_, token := seedTestUser(db, "client@test.com", models.RoleClient)

	w := serve(router, authRequest("POST", "/api/bookings", bookingBody(salon, svc, "2025-03-12", "10:00"), token))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestCreateBookingOverlap(t *testing.T) {
	db := freshDB()
	router := setupBookingRouter(db, nil)

	_, _, salon := seedOwnerWithSalon(db, "Studio")
	svc := seedService(db, salon.ID, "Haircut", 35, 60)
	client, token := seedTestUser(db, "client@test.com", models.RoleClient)
	seedBooking(db, client.ID, svc, "2025-03-12", "10:00", models.BookingStatusConfirmed)

	w := serve(router, authRequest("POST", "/api/bookings", bookingBody(salon, svc, "2025-03-12", "10:30"), token))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", w.Code, w.Body.String())
	}

	// back-to-back is fine
	w = serve(router, authRequest("POST", "/api/bookings", bookingBody(salon, svc, "2025-03-12", "11:00"), token))
	if w.Code != http.StatusCreated {
		t.Errorf("expected adjacent slot to be accepted, got %d: %s", w.Code, w.Body.String())
	}

	// a different client is not blocked without a staff member
	_, otherToken := seedTestUser(db, "other@test.com", models.RoleClient)
	w = serve(router, authRequest("POST", "/api/bookings", bookingBody(salon, svc, "2025-03-12", "10:30"), otherToken))
	if w.Code != http.StatusCreated {
		t.Errorf("expected other client to book, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateBookingCancelledSlotIsFree(t *testing.T) {
	db := freshDB()
	router := setupBookingRouter(db, nil)

	_, _, salon := seedOwnerWithSalon(db, "Studio")
	svc := seedService(db, salon.ID, "Haircut", 35, 60)
	client, token := seedTestUser(db, "client@test.com", models.RoleClient)
	seedBooking(db, client.ID, svc, "2025-03-12", "10:00", models.BookingStatusCancelled)

	w := serve(router, authRequest("POST", "/api/bookings", bookingBody(salon, svc, "2025-03-12", "10:00"), token))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateBookingStaffOverlap(t *testing.T) {
	db := freshDB()
	router := setupBookingRouter(db, nil)

	_, _, salon := seedOwnerWithSalon(db, "Studio")
	svc := seedService(db, salon.ID, "Haircut", 35, 60)
	_, first := seedTestUser(db, "first@test.com", models.RoleClient)
	_, second := seedTestUser(db, "second@test.com", models.RoleClient)
	staff := uuid.New()

	body := bookingBody(salon, svc, "2025-03-12", "14:00")
	body["staff_id"] = staff.String()
	if w := serve(router, authRequest("POST", "/api/bookings", body, first)); w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	body = bookingBody(salon, svc, "2025-03-12", "14:15")
	body["staff_id"] = staff.String()
	if w := serve(router, authRequest("POST", "/api/bookings", body, second)); w.Code != http.StatusConflict {
		t.Errorf("expected staff member to be busy, got %d", w.Code)
	}
}

func TestCreateBookingOwnerForbidden(t *testing.T) {
	db := freshDB()
	router := setupBookingRouter(db, nil)

	_, ownerToken, salon := seedOwnerWithSalon(db, "Studio")
	svc := seedService(db, salon.ID, "Haircut", 35, 45)

	w := serve(router, authRequest("POST", "/api/bookings", bookingBody(salon, svc, "2025-03-12", "10:00"), ownerToken))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}
}

func TestGetBookingsScopedByRole(t *testing.T) {
	db := freshDB()
	router := setupBookingRouter(db, nil)

	_, ownerToken, salon := seedOwnerWithSalon(db, "Mine")
	_, _, other := seedOwnerWithSalon(db, "Theirs")
	mine := seedService(db, salon.ID, "Haircut", 35, 45)
	theirs := seedService(db, other.ID, "Nails", 25, 30)
	alice, aliceToken := seedTestUser(db, "alice@test.com", models.RoleClient)
	bob, _ := seedTestUser(db, "bob@test.com", models.RoleClient)
	_, adminToken := seedTestUser(db, "admin@test.com", models.RoleAdmin)

	seedBooking(db, alice.ID, mine, "2025-03-12", "10:00", models.BookingStatusPending)
	seedBooking(db, alice.ID, theirs, "2025-03-13", "10:00", models.BookingStatusConfirmed)
	seedBooking(db, bob.ID, mine, "2025-03-12", "12:00", models.BookingStatusPending)

	cases := []struct {
		name  string
		token string
		query string
		want  float64
	}{
		{"client sees own", aliceToken, "", 2},
		{"owner sees salon", ownerToken, "", 2},
		{"admin sees all", adminToken, "", 3},
		{"admin filters salon", adminToken, "?salon_id=" + other.ID.String(), 1},
		{"status filter", aliceToken, "?status=confirmed", 1},
		{"date filter", ownerToken, "?date=2025-03-12", 2},
	}
	for _, tc := range cases {
		w := serve(router, authRequest("GET", "/api/bookings"+tc.query, nil, tc.token))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d: %s", tc.name, w.Code, w.Body.String())
			continue
		}
		if got := parseResponse(w)["total"]; got != tc.want {
			t.Errorf("%s: expected total %v, got %v", tc.name, tc.want, got)
		}
	}

	w := serve(router, authRequest("GET", "/api/bookings?status=done", nil, aliceToken))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected unknown status filter to 400, got %d", w.Code)
	}
}

func TestGetBookingHiddenFromOtherClients(t *testing.T) {
	db := freshDB()
	router := setupBookingRouter(db, nil)

	_, _, salon := seedOwnerWithSalon(db, "Studio")
	svc := seedService(db, salon.ID, "Haircut", 35, 45)
	alice, aliceToken := seedTestUser(db, "alice@test.com", models.RoleClient)
	_, bobToken := seedTestUser(db, "bob@test.com", models.RoleClient)
	booking := seedBooking(db, alice.ID, svc, "2025-03-12", "10:00", models.BookingStatusPending)

	w := serve(router, authRequest("GET", "/api/bookings/"+booking.ID.String(), nil, aliceToken))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if parseResponse(w)["service"] == nil {
		t.Error("expected service to be preloaded")
	}

	w = serve(router, authRequest("GET", "/api/bookings/"+booking.ID.String(), nil, bobToken))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for another client, got %d", w.Code)
	}
}

func TestUpdateBookingStatusFlow(t *testing.T) {
	db := freshDB()
	pub := &recordingPublisher{}
	router := setupBookingRouter(db, pub)

	_, ownerToken, salon := seedOwnerWithSalon(db, "Studio")
	svc := seedService(db, salon.ID, "Haircut", 35, 45)
	client, _ := seedTestUser(db, "client@test.com", models.RoleClient)
	booking := seedBooking(db, client.ID, svc, "2025-03-12", "10:00", models.BookingStatusPending)
	url := "/api/bookings/" + booking.ID.String() + "/status"

	for _, next := range []string{"confirmed", "completed"} {
		w := serve(router, authRequest("PUT", url, map[string]string{"status": next}, ownerToken))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d: %s", next, w.Code, w.Body.String())
		}
		if parseResponse(w)["status"] != next {
			t.Errorf("expected status %s, got %s", next, w.Body.String())
		}
	}

	w := serve(router, authRequest("PUT", url, map[string]string{"status": "cancelled"}, ownerToken))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected terminal state to reject transitions, got %d", w.Code)
	}
	if msg := parseResponse(w)["error"]; msg != "Invalid status transition from 'completed' to 'cancelled'" {
		t.Errorf("unexpected error message %v", msg)
	}

	if got := pub.types(); len(got) != 2 || got[1] != events.BookingStatusChanged {
		t.Errorf("expected two status change events, got %v", got)
	}
}

func TestClientCanOnlyCancel(t *testing.T) {
	db := freshDB()
	router := setupBookingRouter(db, nil)

	_, _, salon := seedOwnerWithSalon(db, "Studio")
	svc := seedService(db, salon.ID, "Haircut", 35, 45)
	client, token := seedTestUser(db, "client@test.com", models.RoleClient)
	booking := seedBooking(db, client.ID, svc, "2025-03-12", "10:00", models.BookingStatusPending)
	url := "/api/bookings/" + booking.ID.String() + "/status"

	w := serve(router, authRequest("PUT", url, map[string]string{"status": "confirmed"}, token))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}

	w = serve(router, authRequest("PUT", url, map[string]string{"status": "cancelled", "reason": "sick"}, token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var stored models.Booking
	db.First(&stored, "id = ?", booking.ID)
	if stored.Status != models.BookingStatusCancelled || stored.CancellationReason != "sick" {
		t.Errorf("cancellation not persisted: %+v", stored)
	}
}

func TestUpdateBookingStatusUnknown(t *testing.T) {
	db := freshDB()
	router := setupBookingRouter(db, nil)

	_, ownerToken, salon := seedOwnerWithSalon(db, "Studio")
	svc := seedService(db, salon.ID, "Haircut", 35, 45)
	client, _ := seedTestUser(db, "client@test.com", models.RoleClient)
	booking := seedBooking(db, client.ID, svc, "2025-03-12", "10:00", models.BookingStatusPending)

	w := serve(router, authRequest("PUT", "/api/bookings/"+booking.ID.String()+"/status", map[string]string{"status": "archived"}, ownerToken))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestGetBookingTransitions(t *testing.T) {
	db := freshDB()
	router := setupBookingRouter(db, nil)

	_, token := seedTestUser(db, "client@test.com", models.RoleClient)

	w := serve(router, authRequest("GET", "/api/bookings/transitions", nil, token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if len(resp["confirmed"].([]interface{})) != 3 {
		t.Errorf("expected 3 transitions from confirmed, got %v", resp["confirmed"])
	}
	if len(resp["completed"].([]interface{})) != 0 {
		t.Errorf("expected completed to be terminal, got %v", resp["completed"])
	}
}
