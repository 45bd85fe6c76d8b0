package app

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"trip_planner/internal/dates"
	"trip_planner/internal/domain"
)

// NewPackage is what Create needs to assemble a package.
type NewPackage struct {
	Name           string
	Description    string
	Query          domain.TripQuery
	OutboundFlight *domain.Flight
	InboundFlight  *domain.Flight
	Hotel          *domain.Hotel
	Activities     []domain.Activity
	Rooms          int // 0 means one room per two guests
	Currency       string
}

// ItineraryItem is one dated line of a package itinerary.
type ItineraryItem struct {
	Date   string `json:"date"`
	Kind   string `json:"kind"` // flight|hotel|activity
	Detail string `json:"detail"`
}

// PackageService keeps holiday packages in memory.
type PackageService struct {
	mu       sync.RWMutex
	packages map[string]domain.HolidayPackage
	now      func() time.Time
	newID    func() string
}

func NewPackageService(now func() time.Time) *PackageService {
	if now == nil {
		now = time.Now
	}
	return &PackageService{packages: map[string]domain.HolidayPackage{}, now: now, newID: uuid.NewString}
}

func (s *PackageService) Create(_ context.Context, in NewPackage) (domain.HolidayPackage, error) {
	q := in.Query
	rooms := in.Rooms
	if rooms == 0 {
		rooms = int(math.Ceil(float64(q.AdultGuests) / 2))
	}
	currency := in.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	now := s.now().UTC()
	p := domain.HolidayPackage{
		ID:             s.newID(),
		Name:           in.Name,
		Description:    in.Description,
		Query:          q,
		OutboundFlight: in.OutboundFlight,
		InboundFlight:  in.InboundFlight,
		Hotel:          in.Hotel,
		Activities:     append([]domain.Activity{}, in.Activities...),
		StartDate:      q.DepartureDate,
		EndDate:        q.ReturnDate,
		Guests:         q.AdultGuests,
		Rooms:          rooms,
		PackageType:    q.HolidayType,
		Status:         domain.StatusDraft,
		TotalPrice:     domain.Price{Currency: currency},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := validatePackage(p); err != nil {
		log.Error().Err(err).Str("package", p.ID).Msg("package rejected")
		return domain.HolidayPackage{}, err
	}
	reprice(&p)

	s.mu.Lock()
	s.packages[p.ID] = p
	s.mu.Unlock()
	log.Info().Str("package", p.ID).Float64("total", p.TotalPrice.Amount).Msg("created holiday package")
	return p, nil
}

func validatePackage(p domain.HolidayPackage) error {
	start, ok1 := dates.ParseISO(p.StartDate)
	end, ok2 := dates.ParseISO(p.EndDate)
	switch {
	case !ok1 || !ok2:
		return fmt.Errorf("%w: package dates %q..%q", domain.ErrValidation, p.StartDate, p.EndDate)
	case !start.Before(end):
		return fmt.Errorf("%w: start %s not before end %s", domain.ErrValidation, p.StartDate, p.EndDate)
	case p.Guests <= 0:
		return fmt.Errorf("%w: guests %d", domain.ErrValidation, p.Guests)
	case p.Rooms <= 0:
		return fmt.Errorf("%w: rooms %d", domain.ErrValidation, p.Rooms)
	}
	return nil
}

// reprice rebuilds the breakdown. Flight and hotel prices cover the whole
// party; activity prices are per person.
func reprice(p *domain.HolidayPackage) {
	var b domain.PriceBreakdown
	if p.OutboundFlight != nil {
		b.OutboundFlight = p.OutboundFlight.Price.Amount
	}
	if p.InboundFlight != nil {
		b.InboundFlight = p.InboundFlight.Price.Amount
	}
	if p.Hotel != nil {
		b.Hotel = p.Hotel.Price.Amount
	}
	for _, a := range p.Activities {
		b.Activities += a.Price.Amount * float64(p.Guests)
	}
	b.Total = round2(b.OutboundFlight + b.InboundFlight + b.Hotel + b.Activities)
	p.Breakdown = b
	p.TotalPrice.Amount = b.Total
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

func (s *PackageService) Get(_ context.Context, id string) (domain.HolidayPackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.packages[id]
	if !ok {
		return domain.HolidayPackage{}, fmt.Errorf("package %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (s *PackageService) mutate(id string, fn func(*domain.HolidayPackage) error) (domain.HolidayPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.packages[id]
	if !ok {
		return domain.HolidayPackage{}, fmt.Errorf("package %s: %w", id, domain.ErrNotFound)
	}
	if err := fn(&p); err != nil {
		return domain.HolidayPackage{}, err
	}
	reprice(&p)
	p.UpdatedAt = s.now().UTC()
	s.packages[id] = p
	return p, nil
}

func (s *PackageService) UpdateStatus(_ context.Context, id string, st domain.PackageStatus) (domain.HolidayPackage, error) {
	return s.mutate(id, func(p *domain.HolidayPackage) error {
		switch st {
		case domain.StatusDraft, domain.StatusConfirmed, domain.StatusCancelled:
		default:
			return fmt.Errorf("%w: status %q", domain.ErrValidation, st)
		}
		p.Status = st
		log.Info().Str("package", id).Str("status", string(st)).Msg("package status updated")
		return nil
	})
}

func (s *PackageService) UpdateActivities(_ context.Context, id string, acts []domain.Activity) (domain.HolidayPackage, error) {
	return s.mutate(id, func(p *domain.HolidayPackage) error {
		p.Activities = append([]domain.Activity{}, acts...)
		return nil
	})
}

func (s *PackageService) UpdateHotel(_ context.Context, id string, h *domain.Hotel) (domain.HolidayPackage, error) {
	return s.mutate(id, func(p *domain.HolidayPackage) error {
		p.Hotel = h
		return nil
	})
}

func (s *PackageService) UpdateFlights(_ context.Context, id string, out, in *domain.Flight) (domain.HolidayPackage, error) {
	return s.mutate(id, func(p *domain.HolidayPackage) error {
		p.OutboundFlight, p.InboundFlight = out, in
		return nil
	})
}

func (s *PackageService) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packages[id]; !ok {
		return fmt.Errorf("package %s: %w", id, domain.ErrNotFound)
	}
	delete(s.packages, id)
	log.Info().Str("package", id).Msg("deleted holiday package")
	return nil
}

// List returns matching packages, oldest first.
func (s *PackageService) List(_ context.Context, f domain.PackageFilter) []domain.HolidayPackage {
	s.mu.RLock()
	out := make([]domain.HolidayPackage, 0, len(s.packages))
	for _, p := range s.packages {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.PackageType != "" && !strings.EqualFold(p.PackageType, f.PackageType) {
			continue
		}
		out = append(out, p)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Itinerary lays the package out day by day: outbound flight, hotel check-in,
// one activity per day from the day after arrival, hotel check-out, inbound
// flight.
func (s *PackageService) Itinerary(ctx context.Context, id string) ([]ItineraryItem, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var out []ItineraryItem
	if f := p.OutboundFlight; f != nil {
		out = append(out, ItineraryItem{Date: p.StartDate, Kind: "flight", Detail: describeFlight(f)})
	}
	if h := p.Hotel; h != nil {
		out = append(out, ItineraryItem{Date: p.StartDate, Kind: "hotel", Detail: "Check in at " + h.Name})
	}
	start, _ := dates.ParseISO(p.StartDate)
	for i, a := range p.Activities {
		day := dates.FormatDate(dates.AddDays(start, i+1))
		if day >= p.EndDate {
			day = p.StartDate
		}
		out = append(out, ItineraryItem{Date: day, Kind: "activity", Detail: a.Title})
	}
	if h := p.Hotel; h != nil {
		out = append(out, ItineraryItem{Date: p.EndDate, Kind: "hotel", Detail: "Check out of " + h.Name})
	}
	if f := p.InboundFlight; f != nil {
		out = append(out, ItineraryItem{Date: p.EndDate, Kind: "flight", Detail: describeFlight(f)})
	}
	return out, nil
}

func describeFlight(f *domain.Flight) string {
	var b strings.Builder
	b.WriteString(f.Departure.Code)
	if f.Departure.Time != "" {
		b.WriteString(" " + f.Departure.Time)
	}
	b.WriteString(" to ")
	b.WriteString(f.Arrival.Code)
	if f.Arrival.Time != "" {
		b.WriteString(" " + f.Arrival.Time)
	}
	if f.Airline != "" || f.FlightNumber != "" {
		b.WriteString(" (" + strings.TrimSpace(f.Airline+" "+f.FlightNumber) + ")")
	}
	return b.String()
}
