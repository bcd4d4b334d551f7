package server

import (
	"errors"
	"net/http"

	"github.com/AbdulWasayUl/country-currency-api/internal/db"
	"github.com/AbdulWasayUl/country-currency-api/services/refresh"
	"github.com/gin-gonic/gin"
)

// mapCountryError turns a service error into a status code and JSON body.
func mapCountryError(err error) (int, gin.H) {
	var notFound *db.NotFoundError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, gin.H{"error": "Country not found", "country": notFound.Name}
	case errors.Is(err, refresh.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, gin.H{"error": "External data source unavailable", "details": err.Error()}
	case errors.Is(err, db.ErrInvalidSort):
		return http.StatusBadRequest, gin.H{"error": "Invalid sort parameter"}
	case errors.Is(err, db.ErrInvalidPagination):
		return http.StatusBadRequest, gin.H{"error": "Invalid pagination parameter", "details": err.Error()}
	default:
		return http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()}
	}
}

func abortWithError(c *gin.Context, err error) {
	status, body := mapCountryError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
