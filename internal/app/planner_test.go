package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip_planner/internal/adapters/memory"
	"trip_planner/internal/domain"
)

func mustJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

const flightsLHRCDG = `{
  "search_metadata": {"google_flights_url": "https://www.google.com/travel/flights?x=1"},
  "best_flights": [{
    "flights": [{
      "departure_airport": {"name": "Heathrow", "id": "LHR", "time": "2025-07-10 08:00"},
      "arrival_airport": {"name": "Charles de Gaulle", "id": "CDG", "time": "2025-07-10 10:15"},
      "airline": "British Airways", "flight_number": "BA 304", "travel_class": "Economy"
    }],
    "total_duration": 75, "carbon_emissions": {"this_flight": 52000},
    "price": 120, "extensions": ["Checked baggage for a fee"]
  }],
  "other_flights": [{
    "flights": [
      {"departure_airport": {"id": "LHR"}, "arrival_airport": {"id": "AMS"}},
      {"departure_airport": {"id": "AMS"}, "arrival_airport": {"id": "CDG"}}
    ],
    "total_duration": 240, "price": "99.50"
  }]
}`

const flightsCDGLHR = `{
  "best_flights": [{
    "flights": [{"departure_airport": {"id": "CDG"}, "arrival_airport": {"id": "LHR"}, "airline": "Air France"}],
    "price": 110.5
  }]
}`

const hotelDestinations = `{"data": [{"dest_id": "-1456928", "search_type": "city", "name": "Paris"}]}`

const hotelResults = `{"data": {"hotels": [
  {"hotel_id": 11, "property": {"name": "Grand", "priceBreakdown": {"grossPrice": {"value": 900.4, "currency": "GBP"}}}},
  {"hotel_id": 12, "property": {"name": "Lumiere", "priceBreakdown": {"grossPrice": {"value": 700, "currency": "GBP"}}}},
  {"hotel_id": 13, "property": {"name": "Unpriced"}}
]}}`

const activityPlaces = `{"data": [
  {"geoId": 1, "trackingItems": {"placeType": "HOTEL"}},
  {"geoId": 187147, "trackingItems": {"placeType": "CITY"}}
]}`

const activityResults = `{"data": {"attractions": [
  {"cardTitle": {"string": "Louvre tour"}, "cardLink": {"route": {"url": "/AttractionProductReview-1", "typedParams": {"contentId": "777"}}},
   "merchandisingText": {"htmlString": "from £25.00 per adult"}},
  {"cardTitle": {"string": "No id"}}
]}}`

type fakeFlights struct {
	byRoute map[string]string
	calls   int32
	err     error
}

func (f *fakeFlights) SearchFlights(_ context.Context, req domain.FlightRequest) (map[string]any, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	var m map[string]any
	if s, ok := f.byRoute[req.From+"-"+req.To]; ok {
		_ = json.Unmarshal([]byte(s), &m)
	}
	return m, nil
}

type fakeHotels struct{ err error }

func (f fakeHotels) SearchDestination(context.Context, string) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	var m map[string]any
	_ = json.Unmarshal([]byte(hotelDestinations), &m)
	return m, nil
}

func (f fakeHotels) SearchHotels(_ context.Context, req domain.HotelRequest) (map[string]any, error) {
	var m map[string]any
	_ = json.Unmarshal([]byte(hotelResults), &m)
	return m, nil
}

type fakeActivities struct{ last domain.AttractionRequest }

func (f *fakeActivities) AutoComplete(context.Context, string) (map[string]any, error) {
	var m map[string]any
	_ = json.Unmarshal([]byte(activityPlaces), &m)
	return m, nil
}

func (f *fakeActivities) SearchAttractions(_ context.Context, req domain.AttractionRequest) (map[string]any, error) {
	f.last = req
	var m map[string]any
	_ = json.Unmarshal([]byte(activityResults), &m)
	return m, nil
}

type fakeAirports map[string]string

func (f fakeAirports) ResolveIATA(city string) (string, bool) {
	c, ok := f[city]
	return c, ok
}

type fakeExtractor struct{ reply string }

func (f fakeExtractor) ExtractGuess(context.Context, string) (map[string]any, error) {
	var m map[string]any
	err := json.Unmarshal([]byte(f.reply), &m)
	return m, err
}

func newTestPlanner(fl *fakeFlights, h domain.HotelAPI, a domain.ActivityAPI) *Planner {
	s := NewSearcher(fl, h, a, memory.New(64, time.Hour), time.Hour, "GBP")
	return NewPlanner(fakeExtractor{reply: `{"arrival_location": "Paris", "adult_guests": 2}`}, fakeAirports{"London": "LHR", "Paris": "CDG"}, s, NewPackageService(fixedNow), 2, "GBP")
}

func roundTripFlights() *fakeFlights {
	return &fakeFlights{byRoute: map[string]string{"LHR-CDG": flightsLHRCDG, "CDG-LHR": flightsCDGLHR}}
}

func TestPlanner_PlanBuildsPackage(t *testing.T) {
	acts := &fakeActivities{}
	p := newTestPlanner(roundTripFlights(), fakeHotels{}, acts)

	pkg, err := p.Plan(context.Background(), completeQuery())
	require.NoError(t, err)
	require.NotNil(t, pkg.OutboundFlight)
	assert.Equal(t, "BA 304", pkg.OutboundFlight.FlightNumber)
	assert.Equal(t, "Air France", pkg.InboundFlight.Airline)
	require.NotNil(t, pkg.Hotel)
	assert.Equal(t, "Lumiere", pkg.Hotel.Name)
	require.Len(t, pkg.Activities, 1)
	assert.Equal(t, "777", pkg.Activities[0].ProductID)
	assert.Equal(t, 980.5, pkg.TotalPrice.Amount)
	assert.Equal(t, "Paris city break", pkg.Name)

	assert.Equal(t, "187147", acts.last.GeoID)
	assert.Equal(t, "2025-07-11", acts.last.Start)
	assert.Equal(t, "2025-07-16", acts.last.End)
}

func TestPlanner_NoFlights(t *testing.T) {
	fl := &fakeFlights{byRoute: map[string]string{"LHR-CDG": `{}`}}
	p := newTestPlanner(fl, nil, nil)

	_, err := p.Plan(context.Background(), completeQuery())
	var nf *NoFlightsError
	require.True(t, errors.As(err, &nf))
	assert.True(t, errors.Is(err, domain.ErrNoFlights))
	assert.Equal(t, "outbound", nf.Leg)
	assert.Len(t, nf.Questions, 2)

	fl.byRoute["LHR-CDG"] = flightsLHRCDG
	_, err = p.Plan(context.Background(), completeQuery())
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "inbound", nf.Leg)
	assert.Equal(t, "2025-07-17", nf.Date)
}

func TestPlanner_UnknownCityIsNoFlights(t *testing.T) {
	q := completeQuery()
	q.ArrivalLocation = "Atlantis"
	_, err := newTestPlanner(roundTripFlights(), nil, nil).Plan(context.Background(), q)
	assert.True(t, errors.Is(err, domain.ErrNoFlights))
}

func TestPlanner_HotelFailureDegrades(t *testing.T) {
	p := newTestPlanner(roundTripFlights(), fakeHotels{err: errors.New("boom")}, nil)
	pkg, err := p.Plan(context.Background(), completeQuery())
	require.NoError(t, err)
	assert.Nil(t, pkg.Hotel)
	assert.Empty(t, pkg.Activities)
	assert.Equal(t, 230.5, pkg.TotalPrice.Amount)
}

func TestPlanner_FlightErrorsPropagate(t *testing.T) {
	fl := &fakeFlights{err: errors.New("serpapi down")}
	_, err := newTestPlanner(fl, nil, nil).Plan(context.Background(), completeQuery())
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNoFlights))
}

func TestPlanner_RejectsIncompleteQuery(t *testing.T) {
	q := completeQuery()
	q.DepartureDate, q.ReturnDate = "", ""
	_, err := newTestPlanner(roundTripFlights(), nil, nil).Plan(context.Background(), q)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestPlanner_HoneymoonAssumesTwoAdults(t *testing.T) {
	q := completeQuery()
	q.AdultGuests = 0
	q.HolidayType = "honeymoon"
	pkg, err := newTestPlanner(roundTripFlights(), nil, nil).Plan(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 2, pkg.Guests)
}

func TestPlanner_CachesFlightSearches(t *testing.T) {
	fl := roundTripFlights()
	p := newTestPlanner(fl, nil, nil)
	for i := 0; i < 2; i++ {
		_, err := p.Plan(context.Background(), completeQuery())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&fl.calls))
}

func TestPlanner_Extract(t *testing.T) {
	p := newTestPlanner(roundTripFlights(), nil, nil)
	g, err := p.Extract(context.Background(), "Paris from London in July")
	require.NoError(t, err)
	assert.Equal(t, "Paris", g.ArrivalLocation.String())
	assert.Equal(t, 2, g.AdultGuests.Int())
	assert.False(t, g.DepartureLocation.Present())

	_, err = p.Extract(context.Background(), "  ")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
