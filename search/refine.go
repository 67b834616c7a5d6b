package search

import (
	"sort"
	"time"

	"salontime-backend/models"
	"salontime-backend/utils"
)

// SalonResult is a salon with its distance from the search center in km.
type SalonResult struct {
	models.Salon
	Distance *float64 `json:"distance,omitempty"`
}

func withDistances(salons []models.Salon, p Params) []SalonResult {
	out := make([]SalonResult, len(salons))
	for i, s := range salons {
		out[i] = SalonResult{Salon: s}
		if p.HasCenter() && s.HasCoordinates() {
			d := utils.Haversine(*p.Lat, *p.Lng, *s.Latitude, *s.Longitude)
			out[i].Distance = &d
		}
	}
	return out
}

// refine applies the criteria the database cannot evaluate: exact distance
// range, open now and distance ordering. now must already be in the
// configured timezone.
func refine(items []SalonResult, p Params, now time.Time) []SalonResult {
	out := items[:0:0]
	for _, it := range items {
		if p.HasDistanceRange() {
			if it.Distance == nil {
				continue
			}
			if p.MaxDistance != nil && *it.Distance > *p.MaxDistance {
				continue
			}
			if p.MinDistance != nil && *it.Distance < *p.MinDistance {
				continue
			}
		}
		if p.OpenNow && !IsOpenAt(it.BusinessHours, now) {
			continue
		}
		out = append(out, it)
	}

	if p.EffectiveSort() == SortDistance {
		sortByDistance(out)
	}
	return out
}

// sortByDistance orders ascending, entries without a distance last.
func sortByDistance(items []SalonResult) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Distance, items[j].Distance
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}

// IsOpenAt reports whether the hours cover t. A day without an entry, marked
// closed, or missing open/close is closed. An entry whose close is before its
// open runs past midnight into the next day.
func IsOpenAt(hours models.BusinessHours, t time.Time) bool {
	if len(hours) == 0 {
		return false
	}
	clock := t.Format("15:04")

	today, ok := hours[models.Weekdays[t.Weekday()]]
	if ok && usable(today) {
		if today.Close >= today.Open {
			if clock >= today.Open && clock <= today.Close {
				return true
			}
		} else if clock >= today.Open {
			return true
		}
	}

	yesterday, ok := hours[models.Weekdays[(t.Weekday()+6)%7]]
	if ok && usable(yesterday) && yesterday.Close < yesterday.Open && clock <= yesterday.Close {
		return true
	}
	return false
}

func usable(d models.DayHours) bool {
	return !d.Closed && utils.IsClock(d.Open) && utils.IsClock(d.Close)
}
