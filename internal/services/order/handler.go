package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"ramen-house/internal/logger"
	"ramen-house/internal/models"
)

// Handler exposes the order service over REST.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new order handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register mounts the order routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/orders", h.CreateOrder).Methods(http.MethodPost)
	r.HandleFunc("/api/orders/{orderId}", h.GetOrder).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
}

// CreateOrder handles POST /api/orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	// UseNumber keeps quantities as json.Number; the service rejects
	// non-integer values.
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()

	var body interface{}
	if err := decoder.Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	payload, ok := body.(map[string]interface{})
	if !ok {
		h.writeError(w, http.StatusBadRequest, "body must be a json object")
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")

	order, warnings, err := h.service.CreateOrder(r.Context(), payload, idempotencyKey, requestID)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			h.writeError(w, reqErr.Status, reqErr.Message)
			return
		}
		h.logger.Error("order_creation_failed", "Failed to create order", requestID, err, nil)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if warnings == nil {
		warnings = []string{}
	}

	h.writeJSON(w, http.StatusOK, models.CreateOrderResponse{
		OrderID:            order.OrderID,
		Status:             order.Status,
		Total:              order.Total,
		Currency:           order.Currency,
		CreatedAt:          order.CreatedAt,
		ValidationWarnings: warnings,
	})
}

// GetOrder handles GET /api/orders/{orderId}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderId"]
	if orderID == "" {
		h.writeError(w, http.StatusBadRequest, "missing orderId")
		return
	}

	order, ok := h.service.GetOrder(r.Context(), orderID)
	if !ok {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if order.Items == nil {
		order.Items = []models.OrderLine{}
	}

	h.writeJSON(w, http.StatusOK, order)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   "ramen-house",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", "", err, nil)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, statusCode int, message string) {
	h.writeJSON(w, statusCode, map[string]string{"error": message})
}
