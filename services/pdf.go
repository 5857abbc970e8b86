package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ItinerarySummary is everything the PDF export needs from one search
// session, passed by value to keep this package free of session types.
type ItinerarySummary struct {
	Destination  string
	OriginCode   string
	OutboundDate string
	ReturnDate   string
	Travelers    int
	Nights       int
	Currency     string
	Flights      []FlightOffer
	Hotels       []HotelOffer
	Ranking      Ranking
}

// GeneratePDFBytes renders a search summary PDF and returns raw bytes.
func GeneratePDFBytes(s ItinerarySummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// Header bar
	pdf.SetFillColor(13, 24, 37)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(100, 10, "TripScout", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(212, 168, 67)
	pdf.SetXY(20, 18)
	pdf.CellFormat(170, 6, "Flight + Hotel Search Summary", "", 1, "L", false, 0, "")

	pdf.SetY(35)
	pdf.SetTextColor(0, 0, 0)

	sectionHeader := func(title string) {
		pdf.SetFillColor(13, 24, 37)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(170, 8, "  "+title, "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(55, 7, label, "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(115, 7, value, "", 1, "L", false, 0, "")
	}

	sectionHeader("Trip Overview")
	row("Route", fmt.Sprintf("%s -> %s -> %s", s.OriginCode, s.Destination, s.OriginCode))
	row("Dates", fmt.Sprintf("%s to %s (%d nights)", s.OutboundDate, s.ReturnDate, s.Nights))
	row("Travelers", fmt.Sprintf("%d", s.Travelers))
	row("Generated", time.Now().UTC().Format("02 Jan 2006, 15:04 UTC"))
	pdf.Ln(4)

	sectionHeader("Top Flights")
	for i, f := range s.Flights {
		if i >= 3 {
			break
		}
		stops := "direct"
		if f.Stops > 0 {
			stops = fmt.Sprintf("%d stop(s)", f.Stops)
		}
		row(f.Carrier, fmt.Sprintf("%d %s total, %dh %02dm, %s",
			f.TotalPrice, s.Currency, f.DurationMinutes/60, f.DurationMinutes%60, stops))
	}
	pdf.Ln(4)

	sectionHeader("Top Hotels")
	for i, h := range s.Hotels {
		if i >= 3 {
			break
		}
		row(h.Name, fmt.Sprintf("%d* — %d %s/night, rating %.1f",
			h.Stars, h.PricePerNight, s.Currency, h.Rating))
	}
	pdf.Ln(4)

	sectionHeader("Best Combos")
	for i, c := range s.Ranking.Combos {
		if c.FlightIndex >= len(s.Flights) || c.HotelIndex >= len(s.Hotels) {
			continue
		}
		f := s.Flights[c.FlightIndex]
		h := s.Hotels[c.HotelIndex]
		row(fmt.Sprintf("#%d %s", i+1, c.Label),
			fmt.Sprintf("%s + %s = %d %s", f.Carrier, h.Name, c.Total, s.Currency))
	}
	if s.Ranking.Recommendation != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(40, 40, 40)
		pdf.MultiCell(170, 5, s.Ranking.Recommendation, "", "L", false)
	}

	// Footer
	pdf.SetY(-22)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.3)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 8,
		"Generated by TripScout - Not a booking confirmation - Prices subject to change",
		"", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}
