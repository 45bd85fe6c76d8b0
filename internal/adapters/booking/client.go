// Package booking talks to the Booking.com RapidAPI hotel search.
package booking

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"trip_planner/internal/adapters/httpclient"
	"trip_planner/internal/domain"
)

const (
	DefaultBaseURL = "https://booking-com15.p.rapidapi.com"
	defaultHost    = "booking-com15.p.rapidapi.com"
)

type Client struct {
	http *httpclient.Client
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("booking: RapidAPI key is required")
	}
	host := defaultHost
	if base == "" {
		base = DefaultBaseURL
	} else if u, err := url.Parse(base); err == nil && u.Host != "" {
		host = u.Host
	}
	return &Client{http: httpclient.New(httpclient.Options{
		Service: "booking",
		BaseURL: base,
		RPS:     rps,
		Headers: map[string]string{"x-rapidapi-key": key, "x-rapidapi-host": host},
	})}, nil
}

func (c *Client) SearchDestination(ctx context.Context, query string) (map[string]any, error) {
	var out map[string]any
	err := c.http.GetJSON(ctx, "searchDestination", "/api/v1/hotels/searchDestination", url.Values{"query": {query}}, &out)
	return out, err
}

func (c *Client) SearchHotels(ctx context.Context, req domain.HotelRequest) (map[string]any, error) {
	currency := req.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	q := url.Values{
		"dest_id":        {req.DestID},
		"search_type":    {req.SearchType},
		"arrival_date":   {req.Arrival},
		"departure_date": {req.Departure},
		"adults":         {strconv.Itoa(max(req.Adults, 1))},
		"room_qty":       {strconv.Itoa(max(req.Rooms, 1))},
		"languagecode":   {"en-gb"},
		"currency_code":  {currency},
	}
	var out map[string]any
	err := c.http.GetJSON(ctx, "searchHotels", "/api/v1/hotels/searchHotels", q, &out)
	return out, err
}
