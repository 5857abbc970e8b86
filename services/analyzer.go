package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"
)

const (
	labelBestSavings = "best savings"
	labelBestBalance = "best price/quality balance"

	fallbackRecommendation = "The first combo is the cheapest overall; the second balances price and quality."
)

// Analyzer ranks flight+hotel combos. The preferred path asks an
// OpenAI-compatible chat completions endpoint for exactly two combos in JSON
// mode; any misconfiguration, transport error or malformed answer drops the
// whole path and the deterministic scorer takes over. Analyze never fails.
type Analyzer struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
}

func NewAnalyzer(apiKey, apiURL, model string, timeout time.Duration) *Analyzer {
	if apiKey == "" {
		log.Println("⚠️  OPENAI_API_KEY not set — combo analysis will use the deterministic scorer")
	}
	return &Analyzer{
		apiKey: apiKey,
		apiURL: apiURL,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Analyze returns a ranking of exactly two combos. Combo totals are
// recomputed locally from the cost formula whichever path produced them.
// Both offer lists must be non-empty; the provider adapters guarantee that
// by falling back to stub data. With an empty list the ranking degrades to
// zero combos and a placeholder recommendation.
func (a *Analyzer) Analyze(ctx context.Context, flights []FlightOffer, hotels []HotelOffer, nights int, budget *int) Ranking {
	if a.apiKey == "" {
		return fallbackRanking(flights, hotels, nights, budget)
	}

	ranking, err := a.analyzeLive(ctx, flights, hotels, nights, budget)
	if err != nil {
		log.Printf("⚠️  combo analysis failed: %v — using deterministic scorer", err)
		return fallbackRanking(flights, hotels, nights, budget)
	}
	return ranking
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type aiRanking struct {
	BestCombos     []Combo `json:"best_combos"`
	Recommendation string  `json:"recommendation"`
}

func (a *Analyzer) analyzeLive(ctx context.Context, flights []FlightOffer, hotels []HotelOffer, nights int, budget *int) (Ranking, error) {
	reqBody := chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "user", Content: buildComboPrompt(flights, hotels, nights, budget)},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Ranking{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewReader(payload))
	if err != nil {
		return Ranking{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return Ranking{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Ranking{}, fmt.Errorf("chat completions status %d: %s", resp.StatusCode, string(body))
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return Ranking{}, fmt.Errorf("parse chat response: %w", err)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return Ranking{}, fmt.Errorf("empty chat response")
	}

	var ar aiRanking
	if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), &ar); err != nil {
		return Ranking{}, fmt.Errorf("parse combo json: %w", err)
	}
	if len(ar.BestCombos) < 2 {
		return Ranking{}, fmt.Errorf("expected at least 2 combos, got %d", len(ar.BestCombos))
	}

	combos := ar.BestCombos[:2]
	for i := range combos {
		c := &combos[i]
		if c.FlightIndex < 0 || c.FlightIndex >= len(flights) ||
			c.HotelIndex < 0 || c.HotelIndex >= len(hotels) {
			return Ranking{}, fmt.Errorf("combo %d references invalid offer index", i)
		}
		// Trust the model's labels, never its arithmetic.
		c.Total = ComboTotal(flights[c.FlightIndex], hotels[c.HotelIndex], nights)
	}

	recommendation := ar.Recommendation
	if recommendation == "" {
		recommendation = fallbackRecommendation
	}

	return Ranking{Combos: combos, Recommendation: recommendation, Source: SourceLive}, nil
}

func buildComboPrompt(flights []FlightOffer, hotels []HotelOffer, nights int, budget *int) string {
	type flightSummary struct {
		I       int     `json:"i"`
		Carrier string  `json:"carrier"`
		Total   int     `json:"total"`
		Rating  float64 `json:"rating"`
	}
	type hotelSummary struct {
		I             int     `json:"i"`
		Name          string  `json:"name"`
		PricePerNight int     `json:"price_per_night"`
		Rating        float64 `json:"rating"`
	}

	fs := make([]flightSummary, 0, 5)
	for i, f := range flights {
		if i >= 5 {
			break
		}
		fs = append(fs, flightSummary{I: i, Carrier: f.Carrier, Total: f.TotalPrice, Rating: f.Rating})
	}
	hs := make([]hotelSummary, 0, 5)
	for i, h := range hotels {
		if i >= 5 {
			break
		}
		hs = append(hs, hotelSummary{I: i, Name: h.Name, PricePerNight: h.PricePerNight, Rating: h.Rating})
	}

	fj, _ := json.Marshal(fs)
	hj, _ := json.Marshal(hs)
	budgetText := "not specified"
	if budget != nil {
		budgetText = fmt.Sprintf("%d", *budget)
	}

	return fmt.Sprintf(`Given flight and hotel options, pick the 2 best flight+hotel combos by total trip cost.
Flights (round-trip): %s
Hotels (price per night): %s
Nights: %d
Budget (optional): %s

Return ONLY valid JSON, no markdown, in the form:
{"best_combos": [{"flight_index": 0, "hotel_index": 0, "total": 1256, "savings_percent": 18, "label": "saves 18%%"}, ...], "recommendation": "one short sentence"}
best_combos must contain exactly 2 entries. total = flight total + (price per night * nights). savings_percent only when a budget is given, else 0.`,
		fj, hj, nights, budgetText)
}

// fallbackRanking is the deterministic scorer: first flight + first hotel as
// the savings pick, second of each (or the first again when only one exists)
// as the balance pick.
func fallbackRanking(flights []FlightOffer, hotels []HotelOffer, nights int, budget *int) Ranking {
	if len(flights) == 0 || len(hotels) == 0 {
		return Ranking{Recommendation: "No offers to combine.", Source: SourceFallback}
	}

	fi2, hi2 := 0, 0
	if len(flights) > 1 {
		fi2 = 1
	}
	if len(hotels) > 1 {
		hi2 = 1
	}

	total1 := ComboTotal(flights[0], hotels[0], nights)
	total2 := ComboTotal(flights[fi2], hotels[hi2], nights)

	savings := 0
	if budget != nil && *budget > 0 && total1 < *budget {
		savings = int(math.Round((1 - float64(total1)/float64(*budget)) * 100))
	}

	return Ranking{
		Combos: []Combo{
			{FlightIndex: 0, HotelIndex: 0, Total: total1, SavingsPercent: savings, Label: labelBestSavings},
			{FlightIndex: fi2, HotelIndex: hi2, Total: total2, SavingsPercent: 0, Label: labelBestBalance},
		},
		Recommendation: fallbackRecommendation,
		Source:         SourceFallback,
	}
}
