package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/brandao-20/mcp-server-ipma/internal/ipma"
	"github.com/brandao-20/mcp-server-ipma/internal/service"
	"github.com/brandao-20/mcp-server-ipma/internal/validation"
)

// Handler holds dependencies for the REST handlers. With ciMode set every
// endpoint short-circuits to its empty-but-successful shape without touching
// the service, so smoke tests run with zero outbound calls.
type Handler struct {
	service *service.Service
	logger  *zap.Logger
	ciMode  bool
}

// NewHandler returns a new Handler.
func NewHandler(service *service.Service, logger *zap.Logger, ciMode bool) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		ciMode:  ciMode,
	}
}

// GetHealth handles GET /. Returns 503 while the process is draining.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	if IsDraining() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting-down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetDistricts handles GET /mcp/districts.
func (h *Handler) GetDistricts(w http.ResponseWriter, r *http.Request) {
	if h.ciMode {
		writeJSON(w, http.StatusOK, map[string]interface{}{"districts": map[string]interface{}{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"districts": h.service.Districts()})
}

// GetCities handles GET /mcp/cities. With a district_id query parameter the
// city map is scoped to that district; without one the full table is
// returned.
func (h *Handler) GetCities(w http.ResponseWriter, r *http.Request) {
	if h.ciMode {
		writeJSON(w, http.StatusOK, map[string]interface{}{"cities": map[string]interface{}{}})
		return
	}

	districtID := r.URL.Query().Get("district_id")
	if districtID != "" {
		cities, err := h.service.CitiesInDistrict(districtID)
		if err != nil {
			writeError(w, http.StatusNotFound, "Distrito não encontrado")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"district_id": districtID,
			"cities":      cities,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"cities": h.service.Cities()})
}

// PostPrevisao handles POST /mcp/previsao. The body carries the city's
// global id, as a JSON string or number.
func (h *Handler) PostPrevisao(w http.ResponseWriter, r *http.Request) {
	if h.ciMode {
		writeJSON(w, http.StatusOK, map[string]interface{}{"previsoes": []interface{}{}, "updated": nil})
		return
	}

	var body struct {
		GlobalID ipma.FlexID `json:"global_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "global_id inválido")
		return
	}
	globalID, err := validation.ValidateGlobalID(string(body.GlobalID))
	if err != nil {
		writeError(w, http.StatusBadRequest, "global_id inválido")
		return
	}

	bundle, err := h.service.Forecast(r.Context(), globalID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownCity):
			writeError(w, http.StatusBadRequest, "global_id inválido")
		case errors.Is(err, service.ErrNoForecast):
			writeError(w, http.StatusNotFound, "Sem dados")
		default:
			h.writeInternalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, bundle)
}

// GetObservations handles GET /mcp/observations.
func (h *Handler) GetObservations(w http.ResponseWriter, r *http.Request) {
	if h.ciMode {
		writeJSON(w, http.StatusOK, map[string]interface{}{"observacoes": []interface{}{}})
		return
	}

	data, err := h.service.Observations(r.Context())
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"observacoes": data})
}

// GetWarnings handles GET /mcp/warnings.
func (h *Handler) GetWarnings(w http.ResponseWriter, r *http.Request) {
	if h.ciMode {
		writeJSON(w, http.StatusOK, map[string]interface{}{"avisos": []interface{}{}})
		return
	}

	data, err := h.service.Warnings(r.Context())
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"avisos": data})
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the flat wire error shape: {"error": "<mensagem>"}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeInternalError returns the generic internal-error message, keeping the
// underlying detail in the server log only.
func (h *Handler) writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, http.StatusInternalServerError, "Erro interno no servidor")
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		logger.Error("request failed", zap.Error(err))
	} else if h.logger != nil {
		h.logger.Error("request failed", zap.Error(err))
	}
}
