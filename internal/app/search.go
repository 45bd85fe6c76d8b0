package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trip_planner/internal/dates"
	"trip_planner/internal/domain"
)

// Searcher runs provider searches and caches the mapped results. A nil
// hotel or activity API disables that search.
type Searcher struct {
	flights    domain.FlightAPI
	hotels     domain.HotelAPI
	activities domain.ActivityAPI
	cache      domain.Cache
	cacheTTL   time.Duration
	currency   string
}

func NewSearcher(f domain.FlightAPI, h domain.HotelAPI, a domain.ActivityAPI, c domain.Cache, ttl time.Duration, currency string) *Searcher {
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return &Searcher{flights: f, hotels: h, activities: a, cache: c, cacheTTL: ttl, currency: currency}
}

func (s *Searcher) ttl() int { return int(s.cacheTTL.Seconds()) }

// cached returns what is stored under key or fills it from fetch. Empty
// results are not stored.
func cached[T any](ctx context.Context, s *Searcher, key string, fetch func() ([]T, error)) ([]T, error) {
	var out []T
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}
	out, err := fetch()
	if err != nil {
		return nil, err
	}
	if s.cache != nil && len(out) > 0 {
		_ = s.cache.Set(ctx, key, out, s.ttl())
	}
	return out, nil
}

func (s *Searcher) Flights(ctx context.Context, req domain.FlightRequest) ([]domain.Flight, error) {
	if req.Currency == "" {
		req.Currency = s.currency
	}
	key := fmt.Sprintf("flights:%s:%s:%s:%d:%s", req.From, req.To, req.Date, req.Adults, req.Currency)
	return cached(ctx, s, key, func() ([]domain.Flight, error) {
		payload, err := s.flights.SearchFlights(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("search flights %s-%s: %w", req.From, req.To, err)
		}
		return mapFlights(payload, req.Currency), nil
	})
}

func (s *Searcher) Hotels(ctx context.Context, q domain.TripQuery) ([]domain.Hotel, error) {
	if s.hotels == nil {
		return nil, nil
	}
	rooms := (q.AdultGuests + 1) / 2
	key := fmt.Sprintf("hotels:%s:%s:%s:%d:%s", strings.ToLower(q.ArrivalLocation), q.DepartureDate, q.ReturnDate, q.AdultGuests, s.currency)
	return cached(ctx, s, key, func() ([]domain.Hotel, error) {
		dest, err := s.hotels.SearchDestination(ctx, q.ArrivalLocation)
		if err != nil {
			return nil, fmt.Errorf("hotel destination %q: %w", q.ArrivalLocation, err)
		}
		id, st, ok := destination(dest)
		if !ok {
			return nil, fmt.Errorf("hotel destination %q: %w", q.ArrivalLocation, domain.ErrNotFound)
		}
		payload, err := s.hotels.SearchHotels(ctx, domain.HotelRequest{
			DestID:     id,
			SearchType: hotelSearchType(q.HolidayType, st),
			Arrival:    q.DepartureDate,
			Departure:  q.ReturnDate,
			Adults:     q.AdultGuests,
			Rooms:      rooms,
			Currency:   s.currency,
		})
		if err != nil {
			return nil, fmt.Errorf("search hotels %s: %w", id, err)
		}
		return mapHotels(payload, q, s.currency), nil
	})
}

func (s *Searcher) Activities(ctx context.Context, q domain.TripQuery) ([]domain.Activity, error) {
	if s.activities == nil {
		return nil, nil
	}
	city := activityCity(q.ArrivalLocation)
	start, end := activityWindow(q)
	key := fmt.Sprintf("activities:%s:%s:%s:%d:%s", strings.ToLower(city), start, end, q.AdultGuests, s.currency)
	return cached(ctx, s, key, func() ([]domain.Activity, error) {
		ac, err := s.activities.AutoComplete(ctx, city)
		if err != nil {
			return nil, fmt.Errorf("activity location %q: %w", city, err)
		}
		geo, ok := geoID(ac)
		if !ok {
			return nil, fmt.Errorf("activity location %q: %w", city, domain.ErrNotFound)
		}
		payload, err := s.activities.SearchAttractions(ctx, domain.AttractionRequest{
			GeoID:    geo,
			Start:    start,
			End:      end,
			Adults:   q.AdultGuests,
			Currency: s.currency,
		})
		if err != nil {
			return nil, fmt.Errorf("search attractions %s: %w", geo, err)
		}
		return mapActivities(payload, city, s.currency), nil
	})
}

// activityCity keeps the part before the first comma ("Paris, France").
func activityCity(loc string) string {
	if i := strings.IndexByte(loc, ','); i >= 0 {
		loc = loc[:i]
	}
	return strings.TrimSpace(loc)
}

// activityWindow runs from the day after arrival to the day before leaving,
// collapsing to a single day on short stays.
func activityWindow(q domain.TripQuery) (string, string) {
	dep, ok := dates.ParseISO(q.DepartureDate)
	if !ok {
		return q.DepartureDate, q.ReturnDate
	}
	start := dates.AddDays(dep, 1)
	end := start
	if ret, ok := dates.ParseISO(q.ReturnDate); ok {
		if last := dates.AddDays(ret, -1); last.After(start) {
			end = last
		}
	}
	return dates.FormatDate(start), dates.FormatDate(end)
}
