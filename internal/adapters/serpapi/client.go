// Package serpapi searches Google Flights through SerpAPI.
package serpapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"trip_planner/internal/adapters/httpclient"
	"trip_planner/internal/domain"
)

const DefaultBaseURL = "https://serpapi.com"

type Client struct {
	http *httpclient.Client
	key  string
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("serpapi: API key is required")
	}
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		http: httpclient.New(httpclient.Options{Service: "serpapi", BaseURL: base, RPS: rps}),
		key:  key,
	}, nil
}

// SearchFlights asks for one-way flights with at most one stop.
func (c *Client) SearchFlights(ctx context.Context, req domain.FlightRequest) (map[string]any, error) {
	currency := req.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	q := url.Values{
		"engine":        {"google_flights"},
		"departure_id":  {req.From},
		"arrival_id":    {req.To},
		"outbound_date": {req.Date},
		"adults":        {strconv.Itoa(max(req.Adults, 1))},
		"currency":      {currency},
		"hl":            {"en"},
		"stops":         {"1"},
		"type":          {"2"},
		"api_key":       {c.key},
	}
	var out map[string]any
	if err := c.http.GetJSON(ctx, "google_flights", "/search.json", q, &out); err != nil {
		return nil, err
	}
	if msg, ok := out["error"].(string); ok && msg != "" {
		// SerpAPI reports an empty search as an error string
		if isEmptyResult(msg) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("serpapi: %s", msg)
	}
	return out, nil
}

func isEmptyResult(msg string) bool {
	return msg == "Google Flights hasn't returned any results for this query."
}
