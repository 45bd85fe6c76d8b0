package domain

import "time"

const DefaultCurrency = "GBP"

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type Airport struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
	Time string `json:"time,omitempty"`
}

type Flight struct {
	Airline      string   `json:"airline,omitempty"`
	FlightNumber string   `json:"flight_number,omitempty"`
	Departure    Airport  `json:"departure"`
	Arrival      Airport  `json:"arrival"`
	DurationMin  int      `json:"duration_min"`
	Stops        int      `json:"stops"`
	TravelClass  string   `json:"travel_class,omitempty"`
	CarbonGrams  int      `json:"carbon_grams,omitempty"`
	Price        Price    `json:"price"`
	BookingURL   string   `json:"booking_url,omitempty"`
	Extensions   []string `json:"extensions,omitempty"`
}

type Hotel struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	URL      string `json:"url,omitempty"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Price    Price  `json:"price"`
}

type Activity struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	City      string `json:"city,omitempty"`
	Slug      string `json:"slug,omitempty"`
	Price     Price  `json:"price"`
}

// FlightRequest is one leg of a round trip, already resolved to airport codes.
type FlightRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Date     string `json:"date"`
	Adults   int    `json:"adults"`
	Currency string `json:"currency"`
}

type HotelRequest struct {
	DestID     string `json:"dest_id"`
	SearchType string `json:"search_type"`
	Arrival    string `json:"arrival"`
	Departure  string `json:"departure"`
	Adults     int    `json:"adults"`
	Rooms      int    `json:"rooms"`
	Currency   string `json:"currency"`
}

type AttractionRequest struct {
	GeoID    string `json:"geo_id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Adults   int    `json:"adults"`
	Currency string `json:"currency"`
}

type PackageStatus string

const (
	StatusDraft     PackageStatus = "Draft"
	StatusConfirmed PackageStatus = "Confirmed"
	StatusCancelled PackageStatus = "Cancelled"
)

type PriceBreakdown struct {
	OutboundFlight float64 `json:"outbound_flight"`
	InboundFlight  float64 `json:"inbound_flight"`
	Hotel          float64 `json:"hotel"`
	Activities     float64 `json:"activities"`
	Total          float64 `json:"total"`
}

type HolidayPackage struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Query          TripQuery      `json:"query"`
	OutboundFlight *Flight        `json:"outbound_flight,omitempty"`
	InboundFlight  *Flight        `json:"inbound_flight,omitempty"`
	Hotel          *Hotel         `json:"hotel,omitempty"`
	Activities     []Activity     `json:"activities"`
	StartDate      string         `json:"start_date"`
	EndDate        string         `json:"end_date"`
	Guests         int            `json:"guests"`
	Rooms          int            `json:"rooms"`
	PackageType    string         `json:"package_type"`
	Status         PackageStatus  `json:"status"`
	Breakdown      PriceBreakdown `json:"price_breakdown"`
	TotalPrice     Price          `json:"total_price"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// PackageFilter narrows List; empty fields match everything.
type PackageFilter struct {
	Status      PackageStatus
	PackageType string
}
