package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AbdulWasayUl/country-currency-api/internal/logger"
	"github.com/gin-gonic/gin"
)

const (
	PathCountries = "/countries"
	PathStatus    = "/status"
	PathHealth    = "/health"
)

func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), AccessLog(), Recovery())

	countries := router.Group(PathCountries)
	{
		countries.POST("/refresh", h.RefreshCountries)
		countries.GET("", h.ListCountries)
		countries.GET("/image", h.GetSummaryImage)
		countries.GET("/:name", h.GetCountry)
		countries.DELETE("/:name", h.DeleteCountry)
	}

	router.GET(PathStatus, h.Status)
	router.GET(PathHealth, h.Health)

	return router
}

type Server struct {
	httpServer *http.Server
}

func New(port int, h *Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + strconv.Itoa(port),
			Handler:           NewRouter(h),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) Start() error {
	logger.Info("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
