// Package search composes the query parser, the provider adapters and the
// combo analyzer into one synchronous pipeline per request, and owns the
// per-requester session state behind pagination and save.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tripscout/query"
	"tripscout/services"
)

// PageSize is how many flights and hotels one rendered page carries.
const PageSize = 5

// ErrNoActiveSession is returned by ShowMore and Save when the requester has
// no prior successful search in this process.
var ErrNoActiveSession = errors.New("no active search session")

// FlightProvider and HotelProvider wrap one external search call each.
// Neither ever fails; degraded results carry Source = fallback.
type FlightProvider interface {
	Search(ctx context.Context, origin, destination, outboundDate, returnDate string, travelers int) services.FlightResult
}

type HotelProvider interface {
	Search(ctx context.Context, destination, checkIn, checkOut string, travelers, hotelClass int) services.HotelResult
}

type ComboAnalyzer interface {
	Analyze(ctx context.Context, flights []services.FlightOffer, hotels []services.HotelOffer, nights int, budget *int) services.Ranking
}

// HistoryStore is the durable, append-only store behind the save action.
type HistoryStore interface {
	SaveSearch(ctx context.Context, userID int64, queryText string) error
}

// Page is the rendered slice of a session handed to the chat collaborator.
type Page struct {
	Query          query.ParsedQuery      `json:"query"`
	Flights        []services.FlightOffer `json:"flights"`
	Hotels         []services.HotelOffer  `json:"hotels"`
	Combos         []services.Combo       `json:"combos"`
	Recommendation string                 `json:"recommendation"`
	Nights         int                    `json:"nights"`
	HasMoreFlights bool                   `json:"has_more_flights"`
	HasMoreHotels  bool                   `json:"has_more_hotels"`
	NextOffset     int                    `json:"next_offset"`
}

type Orchestrator struct {
	flights         FlightProvider
	hotels          HotelProvider
	analyzer        ComboAnalyzer
	history         HistoryStore
	sessions        *SessionStore
	defaultOrigin   string
	providerTimeout time.Duration
}

func NewOrchestrator(
	flights FlightProvider,
	hotels HotelProvider,
	analyzer ComboAnalyzer,
	history HistoryStore,
	sessions *SessionStore,
	defaultOrigin string,
	providerTimeout time.Duration,
) *Orchestrator {
	return &Orchestrator{
		flights:         flights,
		hotels:          hotels,
		analyzer:        analyzer,
		history:         history,
		sessions:        sessions,
		defaultOrigin:   defaultOrigin,
		providerTimeout: providerTimeout,
	}
}

// RunSearch parses the text, fetches flights and hotels concurrently, ranks
// combos, stores the session and renders page 0. A parse failure returns a
// *query.ParseError and leaves any existing session untouched.
func (o *Orchestrator) RunSearch(ctx context.Context, userID int64, rawText string) (*Page, error) {
	parsed, err := query.Parse(rawText, o.defaultOrigin)
	if err != nil {
		return nil, err
	}

	// One search slot per requester: a second search blocks here until the
	// first completes, so completion order equals submission order.
	slot := o.sessions.Slot(userID)
	slot.Lock()
	defer slot.Unlock()

	nights := parsed.Nights()

	var (
		wg           sync.WaitGroup
		flightResult services.FlightResult
		hotelResult  services.HotelResult
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		fctx, cancel := context.WithTimeout(ctx, o.providerTimeout)
		defer cancel()
		flightResult = o.flights.Search(fctx,
			parsed.OriginCode, parsed.DestinationCode,
			parsed.OutboundDate, parsed.ReturnDate, parsed.Travelers)
	}()
	go func() {
		defer wg.Done()
		hctx, cancel := context.WithTimeout(ctx, o.providerTimeout)
		defer cancel()
		hotelResult = o.hotels.Search(hctx,
			parsed.Destination, parsed.OutboundDate, parsed.ReturnDate,
			parsed.Travelers, parsed.HotelClass)
	}()
	wg.Wait()

	ranking := o.analyzer.Analyze(ctx, flightResult.Offers, hotelResult.Offers, nights, parsed.Budget)

	sess := &Session{
		Query:     *parsed,
		Flights:   flightResult.Offers,
		Hotels:    hotelResult.Offers,
		Ranking:   ranking,
		Nights:    nights,
		CreatedAt: time.Now(),
	}
	o.sessions.Put(userID, sess)

	return renderPage(sess, 0), nil
}

// ShowMore renders the slice [offset, offset+PageSize) of the stored session.
func (o *Orchestrator) ShowMore(userID int64, offset int) (*Page, error) {
	sess, ok := o.sessions.Get(userID)
	if !ok {
		return nil, ErrNoActiveSession
	}
	if offset < 0 {
		offset = 0
	}
	return renderPage(sess, offset), nil
}

// Save persists the raw query text of the active session to durable history.
func (o *Orchestrator) Save(ctx context.Context, userID int64) error {
	sess, ok := o.sessions.Get(userID)
	if !ok {
		return ErrNoActiveSession
	}
	if err := o.history.SaveSearch(ctx, userID, sess.Query.RawText); err != nil {
		return fmt.Errorf("save search: %w", err)
	}
	return nil
}

// Itinerary builds the PDF export input from the active session.
func (o *Orchestrator) Itinerary(userID int64, currency string) (services.ItinerarySummary, error) {
	sess, ok := o.sessions.Get(userID)
	if !ok {
		return services.ItinerarySummary{}, ErrNoActiveSession
	}
	return services.ItinerarySummary{
		Destination:  sess.Query.Destination,
		OriginCode:   sess.Query.OriginCode,
		OutboundDate: sess.Query.OutboundDate,
		ReturnDate:   sess.Query.ReturnDate,
		Travelers:    sess.Query.Travelers,
		Nights:       sess.Nights,
		Currency:     currency,
		Flights:      sess.Flights,
		Hotels:       sess.Hotels,
		Ranking:      sess.Ranking,
	}, nil
}

func renderPage(sess *Session, offset int) *Page {
	return &Page{
		Query:          sess.Query,
		Flights:        sliceFlights(sess.Flights, offset),
		Hotels:         sliceHotels(sess.Hotels, offset),
		Combos:         sess.Ranking.Combos,
		Recommendation: sess.Ranking.Recommendation,
		Nights:         sess.Nights,
		HasMoreFlights: len(sess.Flights) > offset+PageSize,
		HasMoreHotels:  len(sess.Hotels) > offset+PageSize,
		NextOffset:     offset + PageSize,
	}
}

func sliceFlights(offers []services.FlightOffer, offset int) []services.FlightOffer {
	if offset >= len(offers) {
		return []services.FlightOffer{}
	}
	end := offset + PageSize
	if end > len(offers) {
		end = len(offers)
	}
	return offers[offset:end]
}

func sliceHotels(offers []services.HotelOffer, offset int) []services.HotelOffer {
	if offset >= len(offers) {
		return []services.HotelOffer{}
	}
	end := offset + PageSize
	if end > len(offers) {
		end = len(offers)
	}
	return offers[offset:end]
}
