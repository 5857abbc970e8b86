package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripscout/query"
	"tripscout/search"
	"tripscout/services"
)

// Handler exposes the search pipeline to the chat-delivery collaborator.
type Handler struct {
	orch     *search.Orchestrator
	currency string
}

func NewHandler(orch *search.Orchestrator, currency string) *Handler {
	return &Handler{orch: orch, currency: currency}
}

type searchRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

type moreRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
	Offset int   `json:"offset"`
}

type saveRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// Search interprets free text as a travel request and returns page 0.
func (h *Handler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	page, err := h.orch.RunSearch(c.Request.Context(), req.UserID, req.Text)
	if err != nil {
		var parseErr *query.ParseError
		if errors.As(err, &parseErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": parseErr.Reason, "hint": parseErr.Hint})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// More renders the next page of the requester's active session.
func (h *Handler) More(c *gin.Context) {
	var req moreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	page, err := h.orch.ShowMore(req.UserID, req.Offset)
	if err != nil {
		if errors.Is(err, search.ErrNoActiveSession) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active search. Send a new query first."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Pagination failed"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// Save persists the active session's raw query to durable history.
func (h *Handler) Save(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.orch.Save(c.Request.Context(), req.UserID); err != nil {
		if errors.Is(err, search.ErrNoActiveSession) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active search. Send a new query first."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save search"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved": true})
}

// ItineraryPDF renders the active session as a downloadable PDF summary.
func (h *Handler) ItineraryPDF(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	summary, err := h.orch.Itinerary(userID, h.currency)
	if err != nil {
		if errors.Is(err, search.ErrNoActiveSession) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active search. Send a new query first."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build itinerary"})
		return
	}

	pdfBytes, err := services.GeneratePDFBytes(summary)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=tripscout-itinerary.pdf")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
