package domain

import "context"

// Vendor clients return the provider's JSON as-is; app maps it.

// GuessExtractor asks a model to read a free-text trip request. It is only
// expected to try; nothing it returns is trusted.
type GuessExtractor interface {
	ExtractGuess(ctx context.Context, text string) (map[string]any, error)
}

type FlightAPI interface {
	SearchFlights(ctx context.Context, req FlightRequest) (map[string]any, error)
}

type HotelAPI interface {
	SearchDestination(ctx context.Context, query string) (map[string]any, error)
	SearchHotels(ctx context.Context, req HotelRequest) (map[string]any, error)
}

type ActivityAPI interface {
	AutoComplete(ctx context.Context, query string) (map[string]any, error)
	SearchAttractions(ctx context.Context, req AttractionRequest) (map[string]any, error)
}

type AirportResolver interface {
	ResolveIATA(city string) (string, bool)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
