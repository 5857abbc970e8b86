package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// stubFlights is the synthetic dataset used whenever the live provider is
// unreachable, misconfigured or empty. Per-traveler prices are fixed; totals
// scale with the traveler count at request time.
var stubFlights = []FlightOffer{
	{Carrier: "Ryanair", PricePerTraveler: 89, DurationMinutes: 150, Stops: 1, Rating: 4.2},
	{Carrier: "Aeroflot", PricePerTraveler: 145, DurationMinutes: 195, Stops: 0, Rating: 4.7},
	{Carrier: "Turkish Airlines", PricePerTraveler: 112, DurationMinutes: 250, Stops: 1, Rating: 4.5},
}

// FlightClient searches round-trip flights via the SerpAPI Google Flights
// engine. Search never fails: every error path degrades to stub data.
type FlightClient struct {
	apiKey     string
	baseURL    string
	currency   string
	httpClient *http.Client
}

func NewFlightClient(apiKey, baseURL, currency string, timeout time.Duration) *FlightClient {
	if apiKey == "" {
		log.Println("⚠️  SERPAPI_KEY not set — flight search will use fallback data")
	}
	return &FlightClient{
		apiKey:   apiKey,
		baseURL:  baseURL,
		currency: currency,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search returns up to 10 flight offers. Offers are normalized item by item;
// an entry without a usable price is dropped, not fatal.
func (c *FlightClient) Search(ctx context.Context, origin, destination, outboundDate, returnDate string, travelers int) FlightResult {
	if c.apiKey == "" {
		return FlightResult{Offers: stubFlightsFor(travelers), Source: SourceFallback}
	}

	offers, err := c.searchLive(ctx, origin, destination, outboundDate, returnDate, travelers)
	if err != nil {
		log.Printf("⚠️  flight search failed: %v — using fallback", err)
		return FlightResult{Offers: stubFlightsFor(travelers), Source: SourceFallback}
	}
	if len(offers) == 0 {
		log.Println("⚠️  flight search returned 0 offers — using fallback")
		return FlightResult{Offers: stubFlightsFor(travelers), Source: SourceFallback}
	}
	return FlightResult{Offers: offers, Source: SourceLive}
}

type serpFlightsResponse struct {
	SearchMetadata struct {
		Status string `json:"status"`
	} `json:"search_metadata"`
	BestFlights []struct {
		Price         int `json:"price"`
		TotalDuration int `json:"total_duration"`
		Flights       []struct {
			Airline string `json:"airline"`
		} `json:"flights"`
	} `json:"best_flights"`
}

func (c *FlightClient) searchLive(ctx context.Context, origin, destination, outboundDate, returnDate string, travelers int) ([]FlightOffer, error) {
	params := url.Values{}
	params.Set("engine", "google_flights")
	params.Set("api_key", c.apiKey)
	params.Set("departure_id", origin)
	params.Set("arrival_id", destination)
	params.Set("outbound_date", outboundDate)
	params.Set("return_date", returnDate)
	params.Set("adults", strconv.Itoa(travelers))
	params.Set("currency", c.currency)
	params.Set("type", "1") // round trip
	params.Set("hl", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi flights status %d: %s", resp.StatusCode, string(body))
	}

	var sr serpFlightsResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("parse flights response: %w", err)
	}
	if sr.SearchMetadata.Status != "Success" {
		return nil, fmt.Errorf("serpapi flights status %q", sr.SearchMetadata.Status)
	}

	offers := make([]FlightOffer, 0, len(sr.BestFlights))
	for i, item := range sr.BestFlights {
		if len(offers) >= 10 {
			break
		}
		if item.Price <= 0 {
			continue
		}
		carrier := "Unknown"
		if len(item.Flights) > 0 && item.Flights[0].Airline != "" {
			carrier = item.Flights[0].Airline
		}
		perTraveler := item.Price
		if travelers > 0 {
			perTraveler = item.Price / travelers
		}
		offers = append(offers, FlightOffer{
			Carrier:          carrier,
			PricePerTraveler: perTraveler,
			TotalPrice:       item.Price,
			DurationMinutes:  item.TotalDuration,
			Stops:            maxInt(0, len(item.Flights)-1),
			Rating:           4.0 + float64(i%3)*0.2,
		})
	}
	return offers, nil
}

func stubFlightsFor(travelers int) []FlightOffer {
	out := make([]FlightOffer, len(stubFlights))
	for i, f := range stubFlights {
		f.TotalPrice = f.PricePerTraveler * travelers
		out[i] = f
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
