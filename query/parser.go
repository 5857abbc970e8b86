// Package query turns free-form travel requests ("Barcelona 15-22 July,
// 2 people, 4*, budget 1500€") into structured search parameters. It is a
// fixed heuristic grammar, not NLP: first recognized city wins, first
// matching date pattern wins, everything else falls back to defaults.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParsedQuery is the structured form of one request. Immutable once built.
type ParsedQuery struct {
	Destination     string `json:"destination"`
	DestinationCode string `json:"destination_code"`
	OriginCode      string `json:"origin_code"`
	OutboundDate    string `json:"outbound_date"` // YYYY-MM-DD
	ReturnDate      string `json:"return_date"`   // YYYY-MM-DD
	Travelers       int    `json:"travelers"`     // clamped to [1,9]
	HotelClass      int    `json:"hotel_class"`   // clamped to [2,5]
	Budget          *int   `json:"budget,omitempty"`
	RawText         string `json:"raw_text"`
}

// ParseError reports an unusable query together with a corrective example
// the chat collaborator can show to the user.
type ParseError struct {
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	return "parse query: " + e.Reason
}

const exampleHint = "Specify a city, dates, travelers, hotel class and optionally a budget, e.g. " +
	`"Barcelona 15-22 July, 2 people, 4*, budget 1500€"`

// cityToIATA maps city names (EN/RU aliases, lowercase) to airport codes.
var cityToIATA = map[string]string{
	"moscow": "SVO", "москва": "SVO",
	"barcelona": "BCN", "барселона": "BCN",
	"paris": "CDG", "париж": "CDG",
	"amsterdam": "AMS", "амстердам": "AMS",
	"rome": "FCO", "рим": "FCO",
	"madrid": "MAD", "мадрид": "MAD",
	"london": "LHR", "лондон": "LHR",
	"brussels": "BRU", "брюссель": "BRU",
	"mechelen": "BRU", "мехелен": "BRU",
	"berlin": "BER", "берлин": "BER",
	"prague": "PRG", "прага": "PRG",
	"vienna": "VIE", "вена": "VIE",
	"milan": "MXP", "милан": "MXP",
	"lisbon": "LIS", "лиссабон": "LIS",
	"athens": "ATH", "афины": "ATH",
	"istanbul": "IST", "стамбул": "IST",
	"kyiv": "KBP", "kiev": "KBP", "киев": "KBP",
	"new york": "JFK", "нью йорк": "JFK",
	"tel aviv": "TLV", "тель авив": "TLV",
}

// monthNames maps EN/RU month names and short forms to month numbers.
var monthNames = map[string]time.Month{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7, "aug": 8,
	"sep": 9, "oct": 10, "nov": 11, "dec": 12,
	"января": 1, "февраля": 2, "марта": 3, "апреля": 4, "мая": 5, "июня": 6,
	"июля": 7, "августа": 8, "сентября": 9, "октября": 10, "ноября": 11, "декабря": 12,
	"янв": 1, "фев": 2, "мар": 3, "апр": 4, "июн": 6, "июл": 7, "авг": 8,
	"сен": 9, "окт": 10, "ноя": 11, "дек": 12,
}

var (
	travelersRe = regexp.MustCompile(`(?i)(\d+)\s*(?:человек|чел|people|persons?|adults?|passengers?|travell?ers?)`)
	trailingNRe = regexp.MustCompile(`(\d+)\s*$`)
	starsRe     = regexp.MustCompile(`(?i)(\d)\s*\*|(\d)\s*star|(\d)\s*звезд`)
	budgetRe    = regexp.MustCompile(`(?i)(\d[\d\s]*)\s*(?:€|eur\b|euro|евро)`)
	isoRangeRe  = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})\s*(?:\.\.|[/\-])\s*(\d{4})-(\d{2})-(\d{2})`)
	splitRe     = regexp.MustCompile(`[\s,]+`)
)

// Parse extracts a ParsedQuery from raw text. Destination and dates are
// mandatory; travelers, hotel class and budget resolve to defaults. The
// returned error is always a *ParseError.
func Parse(raw, defaultOrigin string) (*ParsedQuery, error) {
	return parseAt(raw, defaultOrigin, time.Now())
}

// parseAt is Parse with an injectable clock for the year-rollover rule.
func parseAt(raw, defaultOrigin string, now time.Time) (*ParsedQuery, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &ParseError{Reason: "empty query", Hint: exampleHint}
	}

	destination, code := findDestination(raw)
	if code == "" {
		return nil, &ParseError{Reason: "unknown destination city", Hint: exampleHint}
	}

	outbound, ret, ok := parseDateRange(raw, now)
	if !ok {
		return nil, &ParseError{Reason: "missing or invalid date range", Hint: exampleHint}
	}

	return &ParsedQuery{
		Destination:     destination,
		DestinationCode: code,
		OriginCode:      defaultOrigin,
		OutboundDate:    outbound,
		ReturnDate:      ret,
		Travelers:       parseTravelers(raw),
		HotelClass:      parseHotelClass(raw),
		Budget:          parseBudget(raw),
		RawText:         raw,
	}, nil
}

// findDestination returns the first known city in token order, trying single
// tokens across the whole text before adjacent pairs. A query naming two
// known cities resolves to the leftmost one; that is a deliberate limitation.
func findDestination(text string) (name, iata string) {
	words := splitRe.Split(text, -1)
	for _, w := range words {
		key := strings.ToLower(strings.TrimSpace(w))
		if code, ok := cityToIATA[key]; ok {
			return strings.TrimSpace(w), code
		}
	}
	for i := 0; i+1 < len(words); i++ {
		pair := strings.TrimSpace(words[i] + " " + words[i+1])
		if code, ok := cityToIATA[strings.ToLower(pair)]; ok {
			return pair, code
		}
	}
	return "", ""
}

// parseDateRange tries "D1-D2 <month>" with a named month first, then an
// explicit ISO range. Dates come back as YYYY-MM-DD strings.
func parseDateRange(text string, now time.Time) (outbound, ret string, ok bool) {
	lower := strings.ToLower(text)
	year := now.Year()

	// When several "D1-D2 <month>" patterns appear, the leftmost valid one
	// wins; candidates are compared by match position so the outcome does
	// not depend on month-table order.
	bestPos := -1
	var bestStart, bestEnd time.Time
	for monthName, month := range monthNames {
		if !strings.Contains(lower, monthName) {
			continue
		}
		re := regexp.MustCompile(`(\d{1,2})\s*[-–—]\s*(\d{1,2})\s*` + regexp.QuoteMeta(monthName))
		loc := re.FindStringSubmatchIndex(lower)
		if loc == nil {
			continue
		}
		if bestPos != -1 && loc[0] >= bestPos {
			continue
		}
		d1, _ := strconv.Atoi(lower[loc[2]:loc[3]])
		d2, _ := strconv.Atoi(lower[loc[4]:loc[5]])
		start, ok1 := makeDate(year, month, d1)
		end, ok2 := makeDate(year, month, d2)
		if !ok1 || !ok2 || !end.After(start) {
			continue
		}
		bestPos = loc[0]
		bestStart, bestEnd = start, end
	}
	if bestPos != -1 {
		start, end := bestStart, bestEnd
		// Missing year defaults to the current one; a range already behind
		// us rolls forward a year.
		if end.Before(now) {
			start = start.AddDate(1, 0, 0)
			end = end.AddDate(1, 0, 0)
		}
		return start.Format("2006-01-02"), end.Format("2006-01-02"), true
	}

	if m := isoRangeRe.FindStringSubmatch(text); m != nil {
		start, ok1 := atoiDate(m[1], m[2], m[3])
		end, ok2 := atoiDate(m[4], m[5], m[6])
		if ok1 && ok2 && end.After(start) {
			return start.Format("2006-01-02"), end.Format("2006-01-02"), true
		}
	}

	return "", "", false
}

func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false // e.g. 31 June normalized away
	}
	return t, true
}

func atoiDate(ys, ms, ds string) (time.Time, bool) {
	y, _ := strconv.Atoi(ys)
	m, _ := strconv.Atoi(ms)
	d, _ := strconv.Atoi(ds)
	if m < 1 || m > 12 {
		return time.Time{}, false
	}
	return makeDate(y, time.Month(m), d)
}

func parseTravelers(text string) int {
	if m := travelersRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return clamp(n, 1, 9)
	}
	if m := trailingNRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return clamp(n, 1, 9)
	}
	return 2
}

func parseHotelClass(text string) int {
	if m := starsRe.FindStringSubmatch(text); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				n, _ := strconv.Atoi(g)
				return clamp(n, 2, 5)
			}
		}
	}
	return 4
}

func parseBudget(text string) *int {
	m := budgetRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	digits := strings.ReplaceAll(strings.TrimSpace(m[1]), " ", "")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Nights returns the stay length implied by the parsed dates, never below 1.
func (q *ParsedQuery) Nights() int {
	start, err1 := time.Parse("2006-01-02", q.OutboundDate)
	end, err2 := time.Parse("2006-01-02", q.ReturnDate)
	if err1 != nil || err2 != nil {
		return 1
	}
	nights := int(end.Sub(start).Hours() / 24)
	if nights < 1 {
		return 1
	}
	return nights
}

// String is used in logs; it never includes the raw text verbatim twice.
func (q *ParsedQuery) String() string {
	budget := "none"
	if q.Budget != nil {
		budget = strconv.Itoa(*q.Budget)
	}
	return fmt.Sprintf("%s(%s) %s..%s x%d %d* budget=%s",
		q.Destination, q.DestinationCode, q.OutboundDate, q.ReturnDate,
		q.Travelers, q.HotelClass, budget)
}
