package domain

import (
	"fmt"

	"trip_planner/internal/dates"
)

// Field names a trip query field by its wire key.
type Field string

const (
	FieldDepartureLocation Field = "departure_location"
	FieldArrivalLocation   Field = "arrival_location"
	FieldAdultGuests       Field = "adult_guests"
	FieldDepartureDate     Field = "departure_date_leaving"
	FieldLengthOfStay      Field = "length_of_stay"
	FieldHolidayType       Field = "holiday_type"
	FieldReturnDate        Field = "arrival_date_coming_back"
)

// TripQuery is a validated trip request. "" and 0 mean the field still needs
// clarification.
type TripQuery struct {
	DepartureLocation string `json:"departure_location"`
	ArrivalLocation   string `json:"arrival_location"`
	AdultGuests       int    `json:"adult_guests"`
	DepartureDate     string `json:"departure_date_leaving"`
	LengthOfStay      int    `json:"length_of_stay"`
	HolidayType       string `json:"holiday_type"`
	ReturnDate        string `json:"arrival_date_coming_back"`
}

// Guess lifts q back into a raw guess with every field present.
func (q TripQuery) Guess() RawGuess {
	return RawGuess{
		DepartureLocation: Text(q.DepartureLocation),
		ArrivalLocation:   Text(q.ArrivalLocation),
		AdultGuests:       Int(q.AdultGuests),
		DepartureDate:     Text(q.DepartureDate),
		LengthOfStay:      Int(q.LengthOfStay),
		HolidayType:       Text(q.HolidayType),
		ReturnDate:        Text(q.ReturnDate),
	}
}

// Check verifies the date invariants of a coerced query.
func (q TripQuery) Check() error {
	if q.AdultGuests < 0 {
		return fmt.Errorf("%w: adult_guests %d", ErrInvalidQuery, q.AdultGuests)
	}
	if q.LengthOfStay < 0 || q.LengthOfStay > dates.MaxStay {
		return fmt.Errorf("%w: length_of_stay %d", ErrInvalidQuery, q.LengthOfStay)
	}

	dep, ret := q.DepartureDate, q.ReturnDate
	if dep == "" || q.LengthOfStay == 0 {
		if ret != "" {
			return fmt.Errorf("%w: return date %q without departure date and stay", ErrInvalidQuery, ret)
		}
	}
	if dep == "" {
		return nil
	}
	d, ok := dates.ParseISO(dep)
	if !ok || dates.FormatDate(d) != dep {
		return fmt.Errorf("%w: departure date %q is not canonical", ErrInvalidQuery, dep)
	}
	if q.LengthOfStay > 0 {
		if want := dates.FormatDate(dates.AddDays(d, q.LengthOfStay)); ret != want {
			return fmt.Errorf("%w: return date %q, want %q", ErrInvalidQuery, ret, want)
		}
		if r, ok := dates.ParseISO(ret); !ok || !r.After(d) {
			return fmt.Errorf("%w: return date %q is not after departure %q", ErrInvalidQuery, ret, dep)
		}
	}
	return nil
}

// Question is a clarification prompt and the field its answer updates.
// Field is empty for open questions that map to no single field.
type Question struct {
	Field Field  `json:"field,omitempty"`
	Text  string `json:"text"`
}
