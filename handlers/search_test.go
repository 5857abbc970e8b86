package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripscout/search"
	"tripscout/services"
)

type stubFlightProvider struct{}

func (stubFlightProvider) Search(ctx context.Context, origin, destination, outboundDate, returnDate string, travelers int) services.FlightResult {
	return services.FlightResult{
		Offers: []services.FlightOffer{
			{Carrier: "Ryanair", PricePerTraveler: 89, TotalPrice: 89 * travelers, DurationMinutes: 150, Stops: 1, Rating: 4.2},
			{Carrier: "Aeroflot", PricePerTraveler: 145, TotalPrice: 145 * travelers, DurationMinutes: 195, Rating: 4.7},
		},
		Source: services.SourceFallback,
	}
}

type stubHotelProvider struct{}

func (stubHotelProvider) Search(ctx context.Context, destination, checkIn, checkOut string, travelers, hotelClass int) services.HotelResult {
	return services.HotelResult{
		Offers: []services.HotelOffer{
			{Name: "Hotel ABC", PricePerNight: 112, Stars: 4, Rating: 9.2},
			{Name: "Marina View", PricePerNight: 98, Stars: 4, Rating: 8.9},
		},
		Source: services.SourceFallback,
	}
}

type nopHistory struct{}

func (nopHistory) SaveSearch(ctx context.Context, userID int64, queryText string) error { return nil }

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	analyzer := services.NewAnalyzer("", "http://unused.invalid", "test-model", time.Second)
	orch := search.NewOrchestrator(
		stubFlightProvider{}, stubHotelProvider{}, analyzer, nopHistory{},
		search.NewSessionStore(), "BRU", time.Second,
	)
	h := NewHandler(orch, "EUR")

	r := gin.New()
	api := r.Group("/api")
	api.POST("/search", h.Search)
	api.POST("/search/more", h.More)
	api.POST("/search/save", h.Save)
	api.GET("/search/:user_id/pdf", h.ItineraryPDF)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	r := setupRouter()

	rec := postJSON(t, r, "/api/search", gin.H{
		"user_id": 42,
		"text":    "Barcelona 15-22 July, 2 people, 4*, budget 1500€",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var page search.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "BCN", page.Query.DestinationCode)
	assert.Len(t, page.Flights, 2)
	assert.Len(t, page.Hotels, 2)
	assert.Len(t, page.Combos, 2)
}

func TestSearchEndpoint_ParseFailure(t *testing.T) {
	r := setupRouter()

	rec := postJSON(t, r, "/api/search", gin.H{"user_id": 42, "text": "hello there"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
	assert.Contains(t, body["hint"], "Barcelona")
}

func TestSearchEndpoint_MissingFields(t *testing.T) {
	r := setupRouter()

	rec := postJSON(t, r, "/api/search", gin.H{"text": "Barcelona 15-22 July"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMoreEndpoint_NoSession(t *testing.T) {
	r := setupRouter()

	rec := postJSON(t, r, "/api/search/more", gin.H{"user_id": 42, "offset": 5})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMoreEndpoint_AfterSearch(t *testing.T) {
	r := setupRouter()

	rec := postJSON(t, r, "/api/search", gin.H{"user_id": 42, "text": "Barcelona 15-22 July"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, r, "/api/search/more", gin.H{"user_id": 42, "offset": 5})
	require.Equal(t, http.StatusOK, rec.Code)

	var page search.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Empty(t, page.Flights)
	assert.False(t, page.HasMoreFlights)
}

func TestSaveEndpoint_NoSession(t *testing.T) {
	r := setupRouter()

	rec := postJSON(t, r, "/api/search/save", gin.H{"user_id": 42})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveEndpoint_AfterSearch(t *testing.T) {
	r := setupRouter()

	rec := postJSON(t, r, "/api/search", gin.H{"user_id": 42, "text": "Barcelona 15-22 July"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, r, "/api/search/save", gin.H{"user_id": 42})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"saved":true`)
}

func TestPDFEndpoint(t *testing.T) {
	r := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/search/42/pdf", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	postJSON(t, r, "/api/search", gin.H{"user_id": 42, "text": "Barcelona 15-22 July"})

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search/42/pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF", rec.Body.String()[:4])
}

func TestPDFEndpoint_BadUserID(t *testing.T) {
	r := setupRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search/abc/pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
