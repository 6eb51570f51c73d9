package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexivanou/cityweather/internal/detail"
	"github.com/alexivanou/cityweather/internal/gateway"
	"github.com/alexivanou/cityweather/internal/model"
	"github.com/alexivanou/cityweather/internal/route"
	"github.com/alexivanou/cityweather/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

var validate = validator.New()

// Handler handles HTTP requests
type Handler struct {
	service service.ServiceInterface
	logger  *zap.Logger
	// onStaleSuggestions, if set, is called for every suggestion answer the socket drops
	onStaleSuggestions func()
}

// NewHandler creates a new handler instance
func NewHandler(service service.ServiceInterface, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// GetRows handles GET /api/v1/rows
func (h *Handler) GetRows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	startRow, err := strconv.Atoi(q.Get("startRow"))
	if err != nil {
		http.Error(w, "invalid startRow parameter", http.StatusBadRequest)
		return
	}
	endRow, err := strconv.Atoi(q.Get("endRow"))
	if err != nil {
		http.Error(w, "invalid endRow parameter", http.StatusBadRequest)
		return
	}

	window := model.RowWindow{StartRow: startRow, EndRow: endRow}
	if err := validate.Struct(window); err != nil {
		http.Error(w, "invalid row window: startRow must be >= 0 and endRow > startRow", http.StatusBadRequest)
		return
	}
	if err := window.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := h.service.Rows(r.Context(), q.Get("q"), window)

	status := http.StatusOK
	if resp.Failed {
		status = http.StatusBadGateway
	}
	h.writeJSON(w, status, resp)
}

// Suggest handles GET /api/v1/suggest. It always answers 200; a failed
// lookup yields an empty list.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	var seq uint64
	if seqStr := r.URL.Query().Get("seq"); seqStr != "" {
		if parsed, err := strconv.ParseUint(seqStr, 10, 64); err == nil {
			seq = parsed
		}
	}

	h.writeJSON(w, http.StatusOK, model.SuggestResponse{
		Seq:         seq,
		Query:       query,
		Suggestions: h.service.Suggest(r.Context(), query),
	})
}

// GetRoute handles GET /api/v1/route
func (h *Handler) GetRoute(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		http.Error(w, "query parameter 'city' is required", http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, model.RouteResponse{
		City: city,
		Path: route.CityNameToRoute(city),
	})
}

// GetWeather handles GET /api/v1/weather/{cityName}
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	param := mux.Vars(r)["cityName"]

	view, err := h.service.Weather(r.Context(), param)

	status := http.StatusOK
	if err != nil {
		var statusErr *gateway.StatusError
		switch {
		case errors.Is(err, route.ErrRouteDecode):
			status = http.StatusBadRequest
		case errors.As(err, &statusErr) && statusErr.NotFound():
			status = http.StatusNotFound
		default:
			h.logger.Warn("Error fetching weather", zap.String("param", param), zap.Error(err))
			status = http.StatusBadGateway
		}
	}

	h.writeJSON(w, status, weatherResponse(view))
}

func weatherResponse(v detail.View) model.WeatherResponse {
	return model.WeatherResponse{
		State:   v.State.String(),
		City:    v.City,
		Message: v.Message,
		Weather: v.Snapshot,
		Lines:   v.Render(),
	}
}

// GetCalls handles GET /api/v1/calls
func (h *Handler) GetCalls(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			http.Error(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
	}

	calls, err := h.service.RecentCalls(r.Context(), r.URL.Query().Get("gateway"), limit)
	if err != nil {
		if errors.Is(err, service.ErrUnknownGateway) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Error listing gateway calls", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, model.CallsResponse{Calls: calls, Count: len(calls)})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Error encoding response", zap.Error(err))
	}
}
