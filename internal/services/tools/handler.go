package tools

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"ramen-house/internal/logger"
)

// Handler exposes the tool surface over HTTP. The transport here stands in
// for the agent-protocol trigger; results are returned verbatim as text.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new tools handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register mounts the tool routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/tools", h.ListTools).Methods(http.MethodGet)
	r.HandleFunc("/api/tools/invoke", h.Invoke).Methods(http.MethodPost)
}

// ListTools handles GET /api/tools.
func (h *Handler) ListTools(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(h.service.Descriptors()); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode tool list", "", err, nil)
	}
}

// Invoke handles POST /api/tools/invoke. The body is a Call envelope; the
// response body is the raw result string.
func (h *Handler) Invoke(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var call Call
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("invalid tool envelope"))
		return
	}

	result, err := h.service.Invoke(call, requestID)
	if err != nil {
		h.logger.Error("tool_invocation_failed", "Tool invocation failed", requestID, err, map[string]interface{}{
			"tool_name": call.ToolName,
		})
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(result))
}
