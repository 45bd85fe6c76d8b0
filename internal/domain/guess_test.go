package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"trip_planner/internal/domain"
)

func TestRawGuess_UnmarshalKeepsAbsence(t *testing.T) {
	in := `{"departure_location":"","arrival_location":"Paris","adult_guests":2,
		"departure_date_leaving":null,"length_of_stay":"a week"}`

	var g domain.RawGuess
	if err := json.Unmarshal([]byte(in), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !g.DepartureLocation.Present() || g.DepartureLocation.String() != "" {
		t.Fatalf("empty string must stay present: %+v", g.DepartureLocation)
	}
	if n, ok := g.AdultGuests.Number(); !ok || n != 2 {
		t.Fatalf("adult_guests: got %v %v", n, ok)
	}
	if g.DepartureDate.Present() {
		t.Fatalf("null must decode as absent")
	}
	if g.HolidayType.Present() || g.ReturnDate.Present() {
		t.Fatalf("missing keys must decode as absent")
	}
	if !g.LengthOfStay.IsText() || g.LengthOfStay.String() != "a week" {
		t.Fatalf("length_of_stay: %+v", g.LengthOfStay)
	}
}

func TestRawGuess_MarshalRoundTrip(t *testing.T) {
	g := domain.RawGuess{
		ArrivalLocation: domain.Text("Rome"),
		AdultGuests:     domain.Int(3),
	}
	b, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back domain.RawGuess
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != g {
		t.Fatalf("round trip changed guess:\n got %+v\nwant %+v", back, g)
	}
}

func TestRawGuess_Literal(t *testing.T) {
	g := domain.RawGuess{
		DepartureLocation: domain.Text("London"),
		AdultGuests:       domain.Text(" 4 "),
		DepartureDate:     domain.Text("next month"),
		LengthOfStay:      domain.Text("a week"),
	}
	q := g.Literal()
	if q.DepartureLocation != "London" || q.AdultGuests != 4 {
		t.Fatalf("unexpected literal: %+v", q)
	}
	if q.DepartureDate != "next month" {
		t.Fatalf("literal must not coerce dates: %q", q.DepartureDate)
	}
	if q.LengthOfStay != 0 {
		t.Fatalf("non-numeric stay must read as 0, got %d", q.LengthOfStay)
	}
}

func TestRawGuess_GetSet(t *testing.T) {
	var g domain.RawGuess
	g.Set(domain.FieldHolidayType, domain.Text("beach"))
	g.Set(domain.Field("nope"), domain.Text("ignored"))
	if got := g.Get(domain.FieldHolidayType).String(); got != "beach" {
		t.Fatalf("got %q", got)
	}
	if g.Get(domain.Field("nope")).Present() {
		t.Fatalf("unknown field must read as absent")
	}
}

func TestTripQuery_Check(t *testing.T) {
	ok := domain.TripQuery{DepartureDate: "2025-07-10", LengthOfStay: 7, ReturnDate: "2025-07-17"}
	if err := ok.Check(); err != nil {
		t.Fatalf("valid query rejected: %v", err)
	}

	bad := []domain.TripQuery{
		{DepartureDate: "2025-07-10", LengthOfStay: 7, ReturnDate: "2025-07-16"},
		{DepartureDate: "July 10", LengthOfStay: 7},
		{ReturnDate: "2025-07-17"},
		{DepartureDate: "2025-07-10", ReturnDate: "2025-07-17"},
		{AdultGuests: -1},
		{DepartureDate: "2025-07-10", LengthOfStay: 3661, ReturnDate: "2035-07-19"},
		{DepartureDate: "9999-12-01", LengthOfStay: 60, ReturnDate: "10000-01-30"},
	}
	for _, q := range bad {
		if err := q.Check(); !errors.Is(err, domain.ErrInvalidQuery) {
			t.Fatalf("expected ErrInvalidQuery for %+v, got %v", q, err)
		}
	}
}
