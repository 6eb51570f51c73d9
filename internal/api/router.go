package api

import (
	"github.com/alexivanou/cityweather/internal/metrics"
	"github.com/alexivanou/cityweather/internal/service"
	"github.com/alexivanou/cityweather/internal/view"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter creates a new HTTP router. m may be nil to run without metrics.
func NewRouter(service service.ServiceInterface, statsCollector StatsCollector, m *metrics.Metrics, logger *zap.Logger) *mux.Router {
	handler := NewHandler(service, logger)
	if m != nil {
		handler.onStaleSuggestions = m.StaleHook(view.SlotSuggestions)
	}
	statsHandler := NewStatsHandler(statsCollector, logger)

	router := mux.NewRouter()
	// city names travel percent-encoded; the route package decodes them
	router.UseEncodedPath()

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	if m != nil {
		router.Handle("/metrics", m.Handler()).Methods("GET")
	}

	// API v1
	v1 := router.PathPrefix("/api/v1").Subrouter()
	if m != nil {
		v1.Use(metricsMiddleware(m))
	}
	v1.HandleFunc("/rows", handler.GetRows).Methods("GET")
	v1.HandleFunc("/suggest", handler.Suggest).Methods("GET")
	v1.HandleFunc("/suggest/ws", handler.SuggestSocket).Methods("GET")
	v1.HandleFunc("/route", handler.GetRoute).Methods("GET")
	v1.HandleFunc("/weather/{cityName}", handler.GetWeather).Methods("GET")
	v1.HandleFunc("/calls", handler.GetCalls).Methods("GET")
	v1.HandleFunc("/stats", statsHandler.GetStats).Methods("GET")

	return router
}
