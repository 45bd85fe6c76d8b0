// Package tripadvisor talks to the TripAdvisor RapidAPI attractions search.
package tripadvisor

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"trip_planner/internal/adapters/httpclient"
	"trip_planner/internal/domain"
)

const (
	DefaultBaseURL = "https://tripadvisor-com1.p.rapidapi.com"
	defaultHost    = "tripadvisor-com1.p.rapidapi.com"
)

type Client struct {
	http *httpclient.Client
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("tripadvisor: RapidAPI key is required")
	}
	host := defaultHost
	if base == "" {
		base = DefaultBaseURL
	} else if u, err := url.Parse(base); err == nil && u.Host != "" {
		host = u.Host
	}
	return &Client{http: httpclient.New(httpclient.Options{
		Service: "tripadvisor",
		BaseURL: base,
		RPS:     rps,
		Headers: map[string]string{"X-RapidAPI-Key": key, "X-RapidAPI-Host": host},
	})}, nil
}

func (c *Client) AutoComplete(ctx context.Context, query string) (map[string]any, error) {
	var out map[string]any
	err := c.http.GetJSON(ctx, "auto-complete", "/auto-complete", url.Values{"query": {query}}, &out)
	return out, err
}

func (c *Client) SearchAttractions(ctx context.Context, req domain.AttractionRequest) (map[string]any, error) {
	currency := req.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	q := url.Values{
		"geoId":     {req.GeoID},
		"startDate": {req.Start},
		"endDate":   {req.End},
		"adults":    {strconv.Itoa(max(req.Adults, 1))},
		"language":  {"en"},
		"currency":  {currency},
	}
	var out map[string]any
	err := c.http.GetJSON(ctx, "attractions", "/attractions/search", q, &out)
	return out, err
}
