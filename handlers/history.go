package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tripscout/database"
)

// HistoryHandler reads back saved searches from the durable store.
type HistoryHandler struct {
	store *database.Store
}

func NewHistoryHandler(store *database.Store) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// Get returns the requester's saved searches, newest first.
func (h *HistoryHandler) Get(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	limit := 20
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.store.GetHistory(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

// Health reports service and database status.
func (h *HistoryHandler) Health(c *gin.Context) {
	dbStatus := "ok"
	if h.store == nil {
		dbStatus = "not initialized"
	} else if err := h.store.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  "TripScout API",
		"database": dbStatus,
	})
}

func parseUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return 0, false
	}
	return id, true
}
