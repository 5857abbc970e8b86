package services

// Source tells whether offers came from a live provider call or from the
// synthetic fallback dataset. The HTTP contract never exposes an error for a
// failed provider; Source keeps the distinction observable for logs and tests.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// FlightOffer is one round-trip option, live or synthetic.
type FlightOffer struct {
	Carrier          string  `json:"carrier"`
	PricePerTraveler int     `json:"price_per_traveler"`
	TotalPrice       int     `json:"total_price"`
	DurationMinutes  int     `json:"duration_minutes"`
	Stops            int     `json:"stops"`
	Rating           float64 `json:"rating"`
}

// HotelOffer is one hotel option with per-night pricing.
type HotelOffer struct {
	Name            string  `json:"name"`
	PricePerNight   int     `json:"price_per_night"`
	Stars           int     `json:"stars"`
	Rating          float64 `json:"rating"`
	DiscountPercent *int    `json:"discount_percent,omitempty"`
}

// FlightResult and HotelResult carry the offers plus their provenance.
type FlightResult struct {
	Offers []FlightOffer `json:"offers"`
	Source Source        `json:"source"`
}

type HotelResult struct {
	Offers []HotelOffer `json:"offers"`
	Source Source       `json:"source"`
}

// Combo pairs one flight with one hotel by index into the offer lists.
// Total is always flight total plus hotel per-night price times nights,
// no matter which path produced the ranking.
type Combo struct {
	FlightIndex    int    `json:"flight_index"`
	HotelIndex     int    `json:"hotel_index"`
	Total          int    `json:"total"`
	SavingsPercent int    `json:"savings_percent"`
	Label          string `json:"label"`
}

// Ranking is the analyzer output: exactly two combos plus a short
// free-text recommendation.
type Ranking struct {
	Combos         []Combo `json:"best_combos"`
	Recommendation string  `json:"recommendation"`
	Source         Source  `json:"source"`
}

// ComboTotal is the one cost formula shared by every ranking path.
func ComboTotal(f FlightOffer, h HotelOffer, nights int) int {
	return f.TotalPrice + h.PricePerNight*nights
}
