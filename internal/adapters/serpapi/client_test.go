package serpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"trip_planner/internal/domain"
)

func TestSearchFlights_Params(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/search.json" || q.Get("engine") != "google_flights" || q.Get("type") != "2" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if q.Get("departure_id") != "LHR" || q.Get("arrival_id") != "CDG" || q.Get("outbound_date") != "2025-07-10" {
			t.Errorf("route params: %v", q)
		}
		if q.Get("adults") != "1" || q.Get("currency") != domain.DefaultCurrency || q.Get("api_key") != "k" {
			t.Errorf("party params: %v", q)
		}
		_, _ = w.Write([]byte(`{"best_flights": [{"price": 120}]}`))
	}))
	defer ts.Close()

	c, err := New(ts.URL, "k", 100)
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.SearchFlights(context.Background(), domain.FlightRequest{From: "LHR", To: "CDG", Date: "2025-07-10"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, ok := out["best_flights"]; !ok {
		t.Fatalf("payload not passed through: %v", out)
	}
}

func TestSearchFlights_ErrorStrings(t *testing.T) {
	reply := `{"error": "Google Flights hasn't returned any results for this query."}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(reply))
	}))
	defer ts.Close()
	c, _ := New(ts.URL, "k", 100)

	out, err := c.SearchFlights(context.Background(), domain.FlightRequest{From: "LHR", To: "XXX"})
	if err != nil || len(out) != 0 {
		t.Fatalf("empty search should be an empty payload, got %v %v", out, err)
	}

	reply = `{"error": "Invalid API key."}`
	if _, err := c.SearchFlights(context.Background(), domain.FlightRequest{From: "LHR", To: "CDG"}); err == nil {
		t.Fatalf("expected provider error")
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := New("", "", 1); err == nil {
		t.Fatalf("expected error")
	}
}
