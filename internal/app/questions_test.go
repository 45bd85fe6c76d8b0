package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip_planner/internal/domain"
)

func completeQuery() domain.TripQuery {
	return domain.TripQuery{
		DepartureLocation: "London",
		ArrivalLocation:   "Paris",
		AdultGuests:       2,
		DepartureDate:     "2025-07-10",
		LengthOfStay:      7,
		HolidayType:       "city break",
		ReturnDate:        "2025-07-17",
	}
}

func texts(qs []domain.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.Text
	}
	return out
}

func TestFollowUpQuestions_CompleteQueryAsksNothing(t *testing.T) {
	assert.Empty(t, FollowUpQuestions(completeQuery()))
}

func TestFollowUpQuestions_OrderForSparseGuess(t *testing.T) {
	g := domain.RawGuess{
		DepartureLocation: domain.Text(""),
		ArrivalLocation:   domain.Text("Paris"),
		AdultGuests:       domain.Int(0),
		DepartureDate:     domain.Text("next month"),
		LengthOfStay:      domain.Int(0),
		HolidayType:       domain.Text(""),
		ReturnDate:        domain.Text(""),
	}
	qs := FollowUpQuestions(g.Literal())
	require.Len(t, qs, 5)
	assert.Equal(t, []string{
		AskDepartureLocation,
		AskAdultGuests,
		AskDepartureDate,
		AskLengthOfStay,
		AskHolidayType,
	}, texts(qs))
}

func TestFollowUpQuestions_Placeholders(t *testing.T) {
	q := completeQuery()
	q.DepartureLocation = "Anywhere"
	q.ArrivalLocation = " somewhere "
	q.HolidayType = "Holiday"
	assert.Equal(t, []string{AskDepartureLocation, AskArrivalLocation, AskHolidayType}, texts(FollowUpQuestions(q)))
}

func TestFollowUpQuestions_PairedTripsSkipGuests(t *testing.T) {
	for _, ht := range []string{"honeymoon", "Romantic getaway", "couples retreat"} {
		q := completeQuery()
		q.AdultGuests = 0
		q.HolidayType = ht
		assert.Empty(t, FollowUpQuestions(q), ht)
	}

	q := completeQuery()
	q.AdultGuests = 0
	q.HolidayType = "beach"
	assert.Equal(t, []string{AskAdultGuests}, texts(FollowUpQuestions(q)))
}

func TestFollowUpQuestions_DateNeedsDigits(t *testing.T) {
	q := completeQuery()
	q.DepartureDate = "sometime in summer"
	assert.Equal(t, []string{AskDepartureDate}, texts(FollowUpQuestions(q)))

	// digit-bearing garbage is not questioned here; coercion deals with it
	q.DepartureDate = "the 3rd-ish"
	assert.Empty(t, FollowUpQuestions(q))
}

func TestNoFlightsQuestions(t *testing.T) {
	qs := NoFlightsQuestions(completeQuery())
	require.Len(t, qs, 2)
	assert.Equal(t, domain.FieldDepartureDate, qs[0].Field)
	assert.Equal(t, domain.FieldArrivalLocation, qs[1].Field)

	q := completeQuery()
	q.DepartureDate = ""
	q.ArrivalLocation = "anywhere"
	qs = NoFlightsQuestions(q)
	require.Len(t, qs, 1)
	assert.Equal(t, AskWhatToChange, qs[0].Text)
	assert.Empty(t, qs[0].Field)
}

func TestRouteQuestion_GeneratedQuestionsRouteToTheirField(t *testing.T) {
	cases := map[string]domain.Field{
		AskDepartureLocation:    domain.FieldDepartureLocation,
		AskArrivalLocation:      domain.FieldArrivalLocation,
		AskAdultGuests:          domain.FieldAdultGuests,
		AskDepartureDate:        domain.FieldDepartureDate,
		AskLengthOfStay:         domain.FieldLengthOfStay,
		AskHolidayType:          domain.FieldHolidayType,
		AskDifferentDate:        domain.FieldDepartureDate,
		AskDifferentDestination: domain.FieldArrivalLocation,
	}
	for text, want := range cases {
		got, ok := RouteQuestion(text)
		require.True(t, ok, text)
		assert.Equal(t, want, got, text)
	}

	_, ok := RouteQuestion(AskWhatToChange)
	assert.False(t, ok)
}

func TestRouteQuestion_FirstPhraseWins(t *testing.T) {
	// "depart from" outranks "depart"; "go" outranks "stay"
	f, ok := RouteQuestion("Where will you depart from?")
	require.True(t, ok)
	assert.Equal(t, domain.FieldDepartureLocation, f)

	f, ok = RouteQuestion("Where do you want to go and stay?")
	require.True(t, ok)
	assert.Equal(t, domain.FieldArrivalLocation, f)
}
