package search

import (
	"math/rand"
	"testing"
	"time"

	"salontime-backend/models"
	"salontime-backend/utils"
)

func TestIsOpenAt(t *testing.T) {
	h := weekdayHours("09:00", "17:00")

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"tuesday morning", tuesday, true},
		{"opening minute", time.Date(2025, 1, 7, 9, 0, 0, 0, testZone), true},
		{"closing minute", time.Date(2025, 1, 7, 17, 0, 0, 0, testZone), true},
		{"after close", time.Date(2025, 1, 7, 17, 1, 0, 0, testZone), false},
		{"before open", time.Date(2025, 1, 7, 8, 59, 0, 0, testZone), false},
		{"sunday closed", time.Date(2025, 1, 5, 10, 0, 0, 0, testZone), false},
	}
	for _, tc := range cases {
		if got := IsOpenAt(h, tc.at); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestIsOpenAtMissingData(t *testing.T) {
	if IsOpenAt(nil, tuesday) {
		t.Error("no business hours must be treated as closed")
	}
	if IsOpenAt(models.BusinessHours{"monday": {Open: "09:00", Close: "17:00"}}, tuesday) {
		t.Error("missing entry for today must be treated as closed")
	}
	if IsOpenAt(models.BusinessHours{"tuesday": {Open: "09:00"}}, tuesday) {
		t.Error("missing close time must be treated as closed")
	}
	if IsOpenAt(models.BusinessHours{"tuesday": {Open: "09:00", Close: "17:00", Closed: true}}, tuesday) {
		t.Error("closed flag must win over times")
	}
	if IsOpenAt(models.BusinessHours{"tuesday": {Open: "9am", Close: "5pm"}}, tuesday) {
		t.Error("unparseable times must be treated as closed")
	}
}

func TestIsOpenAtOvernight(t *testing.T) {
	h := models.BusinessHours{"friday": {Open: "20:00", Close: "02:00"}}

	friLate := time.Date(2025, 1, 10, 23, 30, 0, 0, testZone)
	satEarly := time.Date(2025, 1, 11, 1, 30, 0, 0, testZone)
	satLater := time.Date(2025, 1, 11, 3, 0, 0, 0, testZone)
	friEarly := time.Date(2025, 1, 10, 1, 0, 0, 0, testZone)

	if !IsOpenAt(h, friLate) {
		t.Error("expected open friday 23:30")
	}
	if !IsOpenAt(h, satEarly) {
		t.Error("expected open saturday 01:30 from friday's late shift")
	}
	if IsOpenAt(h, satLater) {
		t.Error("expected closed saturday 03:00")
	}
	if IsOpenAt(h, friEarly) {
		t.Error("friday's late shift must not open friday early morning")
	}
}

func TestSortByDistanceMissingLast(t *testing.T) {
	items := []SalonResult{
		{Salon: models.Salon{Name: "none"}},
		{Salon: models.Salon{Name: "far"}, Distance: ptr(9)},
		{Salon: models.Salon{Name: "near"}, Distance: ptr(1)},
		{Salon: models.Salon{Name: "mid"}, Distance: ptr(4)},
	}
	sortByDistance(items)

	want := []string{"near", "mid", "far", "none"}
	for i, n := range names(items) {
		if n != want[i] {
			t.Fatalf("expected order %v, got %v", want, names(items))
		}
	}
}

func TestRefineDistanceRange(t *testing.T) {
	p := Params{Lat: ptr(52.37), Lng: ptr(4.90), MaxDistance: ptr(10), MinDistance: ptr(1), Sort: SortDistance}
	salons := []models.Salon{
		{Name: "center", Latitude: ptr(52.37), Longitude: ptr(4.90)},
		{Name: "5km", Latitude: ptr(52.415), Longitude: ptr(4.90)},
		{Name: "50km", Latitude: ptr(52.82), Longitude: ptr(4.90)},
		{Name: "no coordinates"},
	}

	out := refine(withDistances(salons, p), p, tuesday)
	if len(out) != 1 || out[0].Name != "5km" {
		t.Fatalf("expected only the 5km salon, got %v", names(out))
	}
	if d := *out[0].Distance; d < 4.5 || d > 5.5 {
		t.Errorf("expected distance ~5km, got %f", d)
	}
}

func TestRefineKeepsMissingCoordinatesWithoutRange(t *testing.T) {
	p := Params{Lat: ptr(52.37), Lng: ptr(4.90), Sort: SortDistance}
	salons := []models.Salon{
		{Name: "no coordinates"},
		{Name: "center", Latitude: ptr(52.37), Longitude: ptr(4.90)},
	}
	out := refine(withDistances(salons, p), p, tuesday)
	if len(out) != 2 || out[0].Name != "center" || out[1].Distance != nil {
		t.Fatalf("expected located salon first and unlocated last, got %v", names(out))
	}
}

func TestRefineOpenNow(t *testing.T) {
	p := Params{OpenNow: true}
	salons := []models.Salon{
		{Name: "open", BusinessHours: weekdayHours("09:00", "17:00")},
		{Name: "closed today", BusinessHours: models.BusinessHours{"tuesday": {Closed: true}}},
		{Name: "no hours"},
	}
	out := refine(withDistances(salons, p), p, tuesday)
	if len(out) != 1 || out[0].Name != "open" {
		t.Fatalf("expected only the open salon, got %v", names(out))
	}
}

// The bounding box applied in SQL must never drop a salon the exact
// distance check would keep.
func TestBoundingBoxSupersetOfExactRadius(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		lat, lng := r.Float64()*160-80, r.Float64()*340-170
		radius := 1 + r.Float64()*200
		box := utils.BoundingBox(lat, lng, radius)

		for j := 0; j < 50; j++ {
			sLat := lat + (r.Float64()*2-1)*radius/90
			sLng := lng + (r.Float64()*2-1)*radius/30
			if !utils.ValidCoordinates(sLat, sLng) {
				continue
			}
			inside := utils.Haversine(lat, lng, sLat, sLng) <= radius
			if inside && !box.Contains(sLat, sLng) {
				t.Fatalf("salon at (%f,%f) is %.2fkm from (%f,%f) but outside box %+v",
					sLat, sLng, utils.Haversine(lat, lng, sLat, sLng), lat, lng, box)
			}
		}
	}
}
