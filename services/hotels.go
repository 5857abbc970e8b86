package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

func intPtr(n int) *int { return &n }

// stubHotels is a fixed curated list, returned verbatim regardless of
// destination when the live path is unavailable.
var stubHotels = []HotelOffer{
	{Name: "Hotel ABC", PricePerNight: 112, Stars: 4, Rating: 9.2, DiscountPercent: intPtr(25)},
	{Name: "Marina View", PricePerNight: 98, Stars: 4, Rating: 8.9},
	{Name: "City Center", PricePerNight: 135, Stars: 4, Rating: 9.5},
	{Name: "Plaza Suite", PricePerNight: 89, Stars: 4, Rating: 8.7},
	{Name: "Royal Beach", PricePerNight: 145, Stars: 4, Rating: 9.1},
}

// HotelClient searches hotels via the SerpAPI Google Hotels engine.
// Same contract as FlightClient: never fails, degrades to stub data.
type HotelClient struct {
	apiKey     string
	baseURL    string
	currency   string
	httpClient *http.Client
}

func NewHotelClient(apiKey, baseURL, currency string, timeout time.Duration) *HotelClient {
	return &HotelClient{
		apiKey:   apiKey,
		baseURL:  baseURL,
		currency: currency,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search returns up to 10 hotel offers for the destination and stay.
func (c *HotelClient) Search(ctx context.Context, destination, checkIn, checkOut string, travelers, hotelClass int) HotelResult {
	if c.apiKey == "" {
		return HotelResult{Offers: stubHotelsCopy(), Source: SourceFallback}
	}

	offers, err := c.searchLive(ctx, destination, checkIn, checkOut, travelers, hotelClass)
	if err != nil {
		log.Printf("⚠️  hotel search failed: %v — using fallback", err)
		return HotelResult{Offers: stubHotelsCopy(), Source: SourceFallback}
	}
	if len(offers) == 0 {
		log.Println("⚠️  hotel search returned 0 offers — using fallback")
		return HotelResult{Offers: stubHotelsCopy(), Source: SourceFallback}
	}
	return HotelResult{Offers: offers, Source: SourceLive}
}

// Google Hotels mixes types across properties: hotel_class may be a number
// or a string like "4-star hotel", prices live under rate_per_night for
// properties and price for ads. Decode loosely and coerce per item.
type serpHotelsResponse struct {
	SearchMetadata struct {
		Status string `json:"status"`
	} `json:"search_metadata"`
	Properties []serpHotelItem `json:"properties"`
	Ads        []serpHotelItem `json:"ads"`
}

type serpHotelItem struct {
	Name         string `json:"name"`
	RatePerNight struct {
		ExtractedLowest float64 `json:"extracted_lowest"`
		Lowest          string  `json:"lowest"`
	} `json:"rate_per_night"`
	ExtractedPrice      float64 `json:"extracted_price"`
	Price               string  `json:"price"`
	HotelClass          any     `json:"hotel_class"`
	ExtractedHotelClass int     `json:"extracted_hotel_class"`
	OverallRating       float64 `json:"overall_rating"`
}

func (c *HotelClient) searchLive(ctx context.Context, destination, checkIn, checkOut string, travelers, hotelClass int) ([]HotelOffer, error) {
	params := url.Values{}
	params.Set("engine", "google_hotels")
	params.Set("api_key", c.apiKey)
	params.Set("q", destination)
	params.Set("check_in_date", checkIn)
	params.Set("check_out_date", checkOut)
	params.Set("adults", strconv.Itoa(travelers))
	params.Set("currency", c.currency)
	params.Set("hotel_class", strconv.Itoa(hotelClass))
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
		return nil, fmt.Errorf("serpapi hotels status %d: %s", resp.StatusCode, string(body))
	}

	var sr serpHotelsResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("parse hotels response: %w", err)
	}
	if sr.SearchMetadata.Status != "Success" {
		return nil, fmt.Errorf("serpapi hotels status %q", sr.SearchMetadata.Status)
	}

	items := sr.Properties
	if len(items) == 0 {
		items = sr.Ads
	}

	offers := make([]HotelOffer, 0, len(items))
	for i, item := range items {
		if len(offers) >= 10 {
			break
		}
		price := itemPrice(item)
		if price <= 0 {
			continue
		}
		name := item.Name
		if name == "" {
			name = "Hotel"
		}
		rating := item.OverallRating
		if rating <= 0 {
			rating = 8.5 + float64(i%5)*0.1
		}
		offers = append(offers, HotelOffer{
			Name:          name,
			PricePerNight: price,
			Stars:         coerceStars(item),
			Rating:        math.Round(rating*10) / 10,
		})
	}
	return offers, nil
}

func itemPrice(item serpHotelItem) int {
	if item.RatePerNight.ExtractedLowest > 0 {
		return int(item.RatePerNight.ExtractedLowest)
	}
	if p := extractPrice(item.RatePerNight.Lowest); p > 0 {
		return p
	}
	if item.ExtractedPrice > 0 {
		return int(item.ExtractedPrice)
	}
	return extractPrice(item.Price)
}

func coerceStars(item serpHotelItem) int {
	switch v := item.HotelClass.(type) {
	case float64:
		if v >= 1 && v <= 5 {
			return int(v)
		}
	case string:
		if strings.Contains(strings.ToLower(v), "star") {
			return 4
		}
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 1 && n <= 5 {
			return n
		}
	}
	if item.ExtractedHotelClass >= 1 && item.ExtractedHotelClass <= 5 {
		return item.ExtractedHotelClass
	}
	return 4
}

var priceDigitsRe = regexp.MustCompile(`[\d][\d\s]*`)

// extractPrice pulls the numeric part from strings like "$112" or "98 €".
func extractPrice(s string) int {
	m := priceDigitsRe.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, " ", ""))
	if err != nil {
		return 0
	}
	return n
}

func stubHotelsCopy() []HotelOffer {
	out := make([]HotelOffer, len(stubHotels))
	copy(out, stubHotels)
	return out
}
