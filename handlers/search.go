package handlers

import (
	"net/http"

	"salontime-backend/search"

	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	Search *search.Service
}

// SearchSalons answers GET /api/salons/search. An empty page is a success.
func (h *SearchHandler) SearchSalons(c *gin.Context) {
	params := search.ParseParams(c.Request.URL.Query())

	result, err := h.Search.Search(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Search failed",
			"code":    "SEARCH_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       result.Data,
		"pagination": result.Pagination,
	})
}
