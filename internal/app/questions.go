package app

import (
	"strings"

	"trip_planner/internal/dates"
	"trip_planner/internal/domain"
)

const (
	AskDepartureLocation = "Where would you like to depart from?"
	AskArrivalLocation   = "Where would you like to go?"
	AskAdultGuests       = "How many adults will be traveling?"
	AskDepartureDate     = "When would you like to depart? Please provide a specific date (e.g., 'July 10' or '10th July')"
	AskLengthOfStay      = "How long would you like to stay?"
	AskHolidayType       = "What type of holiday are you looking for? For example: beach vacation, city break, cultural tour, adventure, etc."

	AskDifferentDate        = "No flights were found. Would you like to depart on a different date?"
	AskDifferentDestination = "No flights were found. Is there another destination you would like to go to?"
	AskWhatToChange         = "No flights were found for your search. What would you like to change?"
)

var (
	placeLike   = []string{"", "unknown", "anywhere", "somewhere"}
	genericType = []string{"", "unknown", "any", "vacation", "holiday"}
	pairedType  = []string{"romantic", "couple", "honeymoon"}
)

// Answers are routed by the first phrase found in the question text.
var routes = []struct {
	phrase string
	field  domain.Field
}{
	{"depart from", domain.FieldDepartureLocation},
	{"go", domain.FieldArrivalLocation},
	{"adults", domain.FieldAdultGuests},
	{"depart", domain.FieldDepartureDate},
	{"stay", domain.FieldLengthOfStay},
	{"holiday", domain.FieldHolidayType},
}

// FollowUpQuestions lists what still has to be asked before q can be
// searched. Every check runs; order is fixed.
func FollowUpQuestions(q domain.TripQuery) []domain.Question {
	var out []domain.Question
	ask := func(text string) {
		f, _ := RouteQuestion(text)
		out = append(out, domain.Question{Field: f, Text: text})
	}

	if isOneOf(q.DepartureLocation, placeLike) {
		ask(AskDepartureLocation)
	}
	if isOneOf(q.ArrivalLocation, placeLike) {
		ask(AskArrivalLocation)
	}
	// romantic trips are taken to be two adults
	if q.AdultGuests <= 0 && !containsAny(q.HolidayType, pairedType) {
		ask(AskAdultGuests)
	}
	if !dates.HasDigit(q.DepartureDate) {
		ask(AskDepartureDate)
	}
	if q.LengthOfStay <= 0 {
		ask(AskLengthOfStay)
	}
	if isOneOf(q.HolidayType, genericType) {
		ask(AskHolidayType)
	}
	return out
}

// NoFlightsQuestions suggests changes after a flight search came back empty.
func NoFlightsQuestions(q domain.TripQuery) []domain.Question {
	var out []domain.Question
	if dates.HasDigit(q.DepartureDate) {
		out = append(out, domain.Question{Field: domain.FieldDepartureDate, Text: AskDifferentDate})
	}
	if !isOneOf(q.DepartureLocation, placeLike) && !isOneOf(q.ArrivalLocation, placeLike) {
		out = append(out, domain.Question{Field: domain.FieldArrivalLocation, Text: AskDifferentDestination})
	}
	if len(out) == 0 {
		out = append(out, domain.Question{Text: AskWhatToChange})
	}
	return out
}

// RouteQuestion maps a question's text to the field its answer updates.
func RouteQuestion(text string) (domain.Field, bool) {
	low := strings.ToLower(text)
	for _, r := range routes {
		if strings.Contains(low, r.phrase) {
			return r.field, true
		}
	}
	return "", false
}

func isOneOf(s string, set []string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
