package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"trip_planner/internal/adapters/observability"
	"trip_planner/internal/domain"
)

// NoFlightsError reports an empty flight search together with the questions
// that could rescue it.
type NoFlightsError struct {
	Leg       string // outbound|inbound
	From, To  string
	Date      string
	Questions []domain.Question
}

func (e *NoFlightsError) Error() string {
	return fmt.Sprintf("no %s flights %s to %s on %s", e.Leg, e.From, e.To, e.Date)
}

func (e *NoFlightsError) Unwrap() error { return domain.ErrNoFlights }

type Planner struct {
	extractor domain.GuessExtractor
	airports  domain.AirportResolver
	search    *Searcher
	packages  *PackageService
	sem       *semaphore.Weighted
	currency  string
}

func NewPlanner(x domain.GuessExtractor, a domain.AirportResolver, s *Searcher, p *PackageService, workers int, currency string) *Planner {
	if workers <= 0 {
		workers = 4
	}
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return &Planner{
		extractor: x,
		airports:  a,
		search:    s,
		packages:  p,
		sem:       semaphore.NewWeighted(int64(workers)),
		currency:  currency,
	}
}

// Extract asks the model for a first guess at text.
func (p *Planner) Extract(ctx context.Context, text string) (domain.RawGuess, error) {
	if strings.TrimSpace(text) == "" {
		return domain.RawGuess{}, fmt.Errorf("%w: empty request", domain.ErrValidation)
	}
	if p.extractor == nil {
		return domain.RawGuess{}, errors.New("no guess extractor configured")
	}
	m, err := p.extractor.ExtractGuess(ctx, text)
	if err != nil {
		return domain.RawGuess{}, fmt.Errorf("extract guess: %w", err)
	}
	return GuessFromMap(m), nil
}

// Plan searches flights, a hotel and activities for q and stores the result
// as a draft package. Only flight misses fail the plan.
func (p *Planner) Plan(ctx context.Context, q domain.TripQuery) (domain.HolidayPackage, error) {
	if q.AdultGuests <= 0 && containsAny(q.HolidayType, pairedType) {
		q.AdultGuests = 2
	}
	if qs := FollowUpQuestions(q); len(qs) > 0 || q.ReturnDate == "" {
		return domain.HolidayPackage{}, fmt.Errorf("%w: query still needs %d answers", domain.ErrValidation, len(qs))
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return domain.HolidayPackage{}, err
	}
	defer p.sem.Release(1)

	start := time.Now()
	pkg, err := p.plan(ctx, q)
	outcome := "ok"
	var nf *NoFlightsError
	switch {
	case errors.As(err, &nf):
		outcome = "no_flights"
	case err != nil:
		outcome = "error"
	}
	observability.ObservePlan(outcome, time.Since(start))
	return pkg, err
}

func (p *Planner) plan(ctx context.Context, q domain.TripQuery) (domain.HolidayPackage, error) {
	from, to := p.airport(q.DepartureLocation), p.airport(q.ArrivalLocation)
	noFlights := func(leg, a, b, date string) error {
		log.Warn().Str("leg", leg).Str("from", a).Str("to", b).Str("date", date).Msg("no flights found")
		return &NoFlightsError{Leg: leg, From: a, To: b, Date: date, Questions: NoFlightsQuestions(q)}
	}
	if from == "" || to == "" {
		return domain.HolidayPackage{}, noFlights("outbound", q.DepartureLocation, q.ArrivalLocation, q.DepartureDate)
	}

	out, err := p.search.Flights(ctx, domain.FlightRequest{From: from, To: to, Date: q.DepartureDate, Adults: q.AdultGuests, Currency: p.currency})
	if err != nil {
		return domain.HolidayPackage{}, err
	}
	if len(out) == 0 {
		return domain.HolidayPackage{}, noFlights("outbound", from, to, q.DepartureDate)
	}
	in, err := p.search.Flights(ctx, domain.FlightRequest{From: to, To: from, Date: q.ReturnDate, Adults: q.AdultGuests, Currency: p.currency})
	if err != nil {
		return domain.HolidayPackage{}, err
	}
	if len(in) == 0 {
		return domain.HolidayPackage{}, noFlights("inbound", to, from, q.ReturnDate)
	}

	var hotel *domain.Hotel
	if hs, err := p.search.Hotels(ctx, q); err != nil {
		log.Warn().Err(err).Str("provider", "booking").Msg("hotel search failed; planning without a hotel")
	} else if len(hs) > 0 {
		hotel = &hs[0]
	}

	var acts []domain.Activity
	if as, err := p.search.Activities(ctx, q); err != nil {
		log.Warn().Err(err).Str("provider", "tripadvisor").Msg("activity search failed; planning without activities")
	} else if len(as) > 0 {
		acts = as[:1]
	}

	return p.packages.Create(ctx, NewPackage{
		Name:           packageName(q),
		Description:    packageDescription(q),
		Query:          q,
		OutboundFlight: &out[0],
		InboundFlight:  &in[0],
		Hotel:          hotel,
		Activities:     acts,
		Currency:       p.currency,
	})
}

// airport resolves a city to an IATA code. Text that already looks like a
// code is used as is.
func (p *Planner) airport(city string) string {
	if p.airports != nil {
		if code, ok := p.airports.ResolveIATA(city); ok {
			return code
		}
	}
	c := strings.TrimSpace(city)
	if len(c) == 3 && strings.IndexFunc(c, func(r rune) bool { return !unicode.IsLetter(r) }) < 0 {
		return strings.ToUpper(c)
	}
	return ""
}

func packageName(q domain.TripQuery) string {
	return strings.TrimSpace(q.ArrivalLocation + " " + q.HolidayType)
}

func packageDescription(q domain.TripQuery) string {
	adults := "adults"
	if q.AdultGuests == 1 {
		adults = "adult"
	}
	nights := "nights"
	if q.LengthOfStay == 1 {
		nights = "night"
	}
	return fmt.Sprintf("%d %s in %s from %s for %d %s, %s to %s",
		q.LengthOfStay, nights, q.ArrivalLocation, q.DepartureLocation, q.AdultGuests, adults, q.DepartureDate, q.ReturnDate)
}
