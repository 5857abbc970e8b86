package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testFlights = []FlightOffer{
		{Carrier: "Ryanair", PricePerTraveler: 89, TotalPrice: 178, DurationMinutes: 150, Stops: 1, Rating: 4.2},
		{Carrier: "Aeroflot", PricePerTraveler: 145, TotalPrice: 290, DurationMinutes: 195, Stops: 0, Rating: 4.7},
	}
	testHotels = []HotelOffer{
		{Name: "Hotel ABC", PricePerNight: 112, Stars: 4, Rating: 9.2},
		{Name: "Marina View", PricePerNight: 98, Stars: 4, Rating: 8.9},
	}
)

func noKeyAnalyzer() *Analyzer {
	return NewAnalyzer("", "http://unused.invalid", "test-model", time.Second)
}

func TestAnalyze_FallbackExactlyTwoCombos(t *testing.T) {
	a := noKeyAnalyzer()
	budget := 1500

	r := a.Analyze(context.Background(), testFlights, testHotels, 7, &budget)

	assert.Equal(t, SourceFallback, r.Source)
	require.Len(t, r.Combos, 2)

	c1, c2 := r.Combos[0], r.Combos[1]
	assert.Equal(t, 0, c1.FlightIndex)
	assert.Equal(t, 0, c1.HotelIndex)
	assert.Equal(t, 178+112*7, c1.Total)
	assert.Equal(t, 1, c2.FlightIndex)
	assert.Equal(t, 1, c2.HotelIndex)
	assert.Equal(t, 290+98*7, c2.Total)

	wantSavings := int(math.Round((1 - float64(c1.Total)/1500.0) * 100))
	assert.Equal(t, wantSavings, c1.SavingsPercent)
	assert.Equal(t, 0, c2.SavingsPercent)

	assert.NotEqual(t, c1.Label, c2.Label)
	assert.NotEmpty(t, r.Recommendation)
}

func TestAnalyze_FallbackNoBudgetZeroSavings(t *testing.T) {
	r := noKeyAnalyzer().Analyze(context.Background(), testFlights, testHotels, 7, nil)
	require.Len(t, r.Combos, 2)
	assert.Equal(t, 0, r.Combos[0].SavingsPercent)
}

func TestAnalyze_FallbackOverBudgetZeroSavings(t *testing.T) {
	budget := 100 // well below any combo total
	r := noKeyAnalyzer().Analyze(context.Background(), testFlights, testHotels, 7, &budget)
	require.Len(t, r.Combos, 2)
	assert.Equal(t, 0, r.Combos[0].SavingsPercent)
}

func TestAnalyze_FallbackSingleOfferRepeats(t *testing.T) {
	r := noKeyAnalyzer().Analyze(context.Background(), testFlights[:1], testHotels[:1], 3, nil)
	require.Len(t, r.Combos, 2)
	assert.Equal(t, r.Combos[0].FlightIndex, r.Combos[1].FlightIndex)
	assert.Equal(t, r.Combos[0].HotelIndex, r.Combos[1].HotelIndex)
	assert.Equal(t, r.Combos[0].Total, r.Combos[1].Total)
}

func TestAnalyze_NoOffersDegradesWithoutCombos(t *testing.T) {
	// Cannot happen through the adapters (they always fall back to stub
	// data), but an empty list must still degrade cleanly.
	r := noKeyAnalyzer().Analyze(context.Background(), nil, testHotels, 7, nil)
	assert.Equal(t, SourceFallback, r.Source)
	assert.Empty(t, r.Combos)
	assert.NotEmpty(t, r.Recommendation)
}

// Whatever produced the ranking, every combo total must equal
// flight total + hotel per-night price * nights.
func TestAnalyze_TotalInvariantAcrossRandomOffers(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	a := noKeyAnalyzer()

	for i := 0; i < 200; i++ {
		nFlights := 1 + rng.Intn(10)
		nHotels := 1 + rng.Intn(10)
		nights := 1 + rng.Intn(20)

		flights := make([]FlightOffer, nFlights)
		for j := range flights {
			flights[j] = FlightOffer{Carrier: "F", TotalPrice: 50 + rng.Intn(900)}
		}
		hotels := make([]HotelOffer, nHotels)
		for j := range hotels {
			hotels[j] = HotelOffer{Name: "H", PricePerNight: 30 + rng.Intn(300)}
		}

		var budget *int
		if rng.Intn(2) == 0 {
			b := 200 + rng.Intn(3000)
			budget = &b
		}

		r := a.Analyze(context.Background(), flights, hotels, nights, budget)
		require.Len(t, r.Combos, 2)
		for _, c := range r.Combos {
			require.GreaterOrEqual(t, c.FlightIndex, 0)
			require.Less(t, c.FlightIndex, nFlights)
			require.GreaterOrEqual(t, c.HotelIndex, 0)
			require.Less(t, c.HotelIndex, nHotels)
			assert.Equal(t, ComboTotal(flights[c.FlightIndex], hotels[c.HotelIndex], nights), c.Total)
		}
	}
}

func chatBody(content string) string {
	b, _ := json.Marshal(content)
	return fmt.Sprintf(`{"choices": [{"message": {"content": %s}}]}`, b)
}

func TestAnalyze_LiveRecomputesTotals(t *testing.T) {
	// Model picks indices 1/0 and reports nonsense totals; the analyzer
	// must keep the labels but replace the arithmetic.
	content := `{"best_combos": [
		{"flight_index": 1, "hotel_index": 0, "total": 1, "savings_percent": 12, "label": "quality pick"},
		{"flight_index": 0, "hotel_index": 1, "total": 999999, "savings_percent": 0, "label": "budget pick"}
	], "recommendation": "Take the second one."}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.Write([]byte(chatBody(content)))
	}))
	defer srv.Close()

	a := NewAnalyzer("key", srv.URL, "test-model", time.Second)
	r := a.Analyze(context.Background(), testFlights, testHotels, 7, nil)

	assert.Equal(t, SourceLive, r.Source)
	require.Len(t, r.Combos, 2)
	assert.Equal(t, 290+112*7, r.Combos[0].Total)
	assert.Equal(t, 178+98*7, r.Combos[1].Total)
	assert.Equal(t, "quality pick", r.Combos[0].Label)
	assert.Equal(t, "Take the second one.", r.Recommendation)
}

func TestAnalyze_LiveTooFewCombosFallsBack(t *testing.T) {
	content := `{"best_combos": [{"flight_index": 0, "hotel_index": 0, "total": 10, "savings_percent": 0, "label": "only one"}], "recommendation": "x"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatBody(content)))
	}))
	defer srv.Close()

	a := NewAnalyzer("key", srv.URL, "test-model", time.Second)
	r := a.Analyze(context.Background(), testFlights, testHotels, 7, nil)

	assert.Equal(t, SourceFallback, r.Source)
	require.Len(t, r.Combos, 2)
	assert.Equal(t, labelBestSavings, r.Combos[0].Label)
}

func TestAnalyze_LiveInvalidIndexFallsBack(t *testing.T) {
	content := `{"best_combos": [
		{"flight_index": 7, "hotel_index": 0, "total": 10, "savings_percent": 0, "label": "a"},
		{"flight_index": 0, "hotel_index": 0, "total": 10, "savings_percent": 0, "label": "b"}
	], "recommendation": "x"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatBody(content)))
	}))
	defer srv.Close()

	a := NewAnalyzer("key", srv.URL, "test-model", time.Second)
	r := a.Analyze(context.Background(), testFlights, testHotels, 7, nil)

	assert.Equal(t, SourceFallback, r.Source)
}

func TestAnalyze_LiveGarbageContentFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatBody("sorry, I cannot do that")))
	}))
	defer srv.Close()

	a := NewAnalyzer("key", srv.URL, "test-model", time.Second)
	r := a.Analyze(context.Background(), testFlights, testHotels, 7, nil)

	assert.Equal(t, SourceFallback, r.Source)
	require.Len(t, r.Combos, 2)
}

func TestAnalyze_LiveServerErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewAnalyzer("key", srv.URL, "test-model", time.Second)
	r := a.Analyze(context.Background(), testFlights, testHotels, 7, nil)

	assert.Equal(t, SourceFallback, r.Source)
	require.Len(t, r.Combos, 2)
}
