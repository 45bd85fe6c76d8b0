package app

import (
	"testing"

	"trip_planner/internal/domain"
)

func TestGuessFromMap_KeepsAbsenceAndTypes(t *testing.T) {
	g := GuessFromMap(mustJSON(t, `{
		"departureLocation": "London",
		"arrival_location": "Paris",
		"adult_guests": 2,
		"departure_date_leaving": null,
		"length_of_stay": "a week",
		"holiday_type": true
	}`))

	if g.DepartureLocation.String() != "London" || g.ArrivalLocation.String() != "Paris" {
		t.Fatalf("locations: %+v", g)
	}
	if n, ok := g.AdultGuests.Number(); !ok || n != 2 {
		t.Fatalf("adults should stay numeric, got %v", g.AdultGuests)
	}
	if g.DepartureDate.Present() {
		t.Fatalf("null must read as absent")
	}
	if !g.LengthOfStay.IsText() || g.LengthOfStay.String() != "a week" {
		t.Fatalf("stay: %v", g.LengthOfStay)
	}
	if g.HolidayType.String() != "true" {
		t.Fatalf("bool should become text, got %q", g.HolidayType.String())
	}
	if g.ReturnDate.Present() {
		t.Fatalf("missing key must read as absent")
	}
}

func TestMapFlights(t *testing.T) {
	got := mapFlights(mustJSON(t, flightsLHRCDG), "GBP")
	if len(got) != 2 {
		t.Fatalf("want 2 flights, got %d", len(got))
	}
	best := got[0]
	if best.Departure.Code != "LHR" || best.Arrival.Code != "CDG" || best.Stops != 0 {
		t.Fatalf("best: %+v", best)
	}
	if best.DurationMin != 75 || best.CarbonGrams != 52000 || best.Price.Amount != 120 {
		t.Fatalf("best details: %+v", best)
	}
	if best.BookingURL == "" || len(best.Extensions) != 1 {
		t.Fatalf("best extras: %+v", best)
	}
	other := got[1]
	if other.Stops != 1 || other.Arrival.Code != "CDG" || other.Price.Amount != 99.5 {
		t.Fatalf("connecting flight: %+v", other)
	}

	if n := len(mapFlights(map[string]any{}, "GBP")); n != 0 {
		t.Fatalf("empty payload gave %d flights", n)
	}
}

func TestMapHotels_CheapestFirst(t *testing.T) {
	q := domain.TripQuery{DepartureDate: "2025-07-10", ReturnDate: "2025-07-17"}
	got := mapHotels(mustJSON(t, hotelResults), q, "GBP")
	if len(got) != 2 {
		t.Fatalf("want 2 priced hotels, got %d", len(got))
	}
	if got[0].Name != "Lumiere" || got[0].ID != 12 || got[0].CheckIn != "2025-07-10" {
		t.Fatalf("cheapest: %+v", got[0])
	}
}

func TestHotelSearchType(t *testing.T) {
	cases := []struct{ holiday, dest, want string }{
		{"Mountain", "city", "region"},
		{"beach", "district", "district"},
		{"city break", "", "city"},
	}
	for _, c := range cases {
		if got := hotelSearchType(c.holiday, c.dest); got != c.want {
			t.Fatalf("%q/%q: got %q want %q", c.holiday, c.dest, got, c.want)
		}
	}
}

func TestParseFromPrice(t *testing.T) {
	cases := map[string]float64{
		"from £25.00 per adult": 25,
		"From $1,200":           1200,
		"from &pound;9.5":       9.5,
	}
	for in, want := range cases {
		got, ok := parseFromPrice(in)
		if !ok || got != want {
			t.Fatalf("%q: got %v,%v want %v", in, got, ok, want)
		}
	}
	if _, ok := parseFromPrice("Free entry"); ok {
		t.Fatalf("expected no price")
	}
}

func TestActivityWindow(t *testing.T) {
	start, end := activityWindow(domain.TripQuery{DepartureDate: "2025-07-10", ReturnDate: "2025-07-11"})
	if start != "2025-07-11" || end != "2025-07-11" {
		t.Fatalf("short stay window: %s..%s", start, end)
	}
	if got := activityCity(" Paris, France "); got != "Paris" {
		t.Fatalf("city: %q", got)
	}
}
