package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/usersoap/usersvc/internal/metrics"
	"github.com/usersoap/usersvc/internal/services"
	"github.com/usersoap/usersvc/internal/store"
)

const maxRequestBytes = 1 << 20

const (
	msgEmptyBody       = "No SOAP request body found."
	msgMalformedBody   = "Malformed SOAP request: empty or missing user fields."
	msgBodyTooLarge    = "SOAP request body too large."
	msgRegistered      = "User registered successfully"
	msgDuplicate       = "Duplicate user information detected (username, dni, or email)."
	msgProcessingError = "Error processing SOAP request: internal error"
	msgHealthy         = "Service is healthy"
	msgUnhealthy       = "Database connection failed"
)

// Pinger checks that the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterHandler serves the SOAP registration endpoint.
type RegisterHandler struct {
	userService *services.UserService
	store       Pinger
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewRegisterHandler constructs a RegisterHandler with the provided dependencies.
func NewRegisterHandler(userService *services.UserService, store Pinger, m *metrics.Metrics, logger *slog.Logger) *RegisterHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegisterHandler{
		userService: userService,
		store:       store,
		metrics:     m,
		logger:      logger,
	}
}

// RegisterRouter registers the registration and health routes on the given router.
func RegisterRouter(r chi.Router, userService *services.UserService, store Pinger, m *metrics.Metrics, logger *slog.Logger) {
	handler := NewRegisterHandler(userService, store, m, logger)

	r.Post("/register", handler.Register)
	r.Get("/health", handler.Health)
}

// Register parses a SOAP registration envelope and creates the user.
func (h *RegisterHandler) Register(w http.ResponseWriter, r *http.Request) {
	body, err := readFileLimited(r.Body, maxRequestBytes)
	if err != nil {
		h.metrics.ObserveRegistration(metrics.OutcomeMalformed)
		if errors.Is(err, errUploadTooLarge) {
			writeText(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		writeText(w, http.StatusBadRequest, msgMalformedBody)
		return
	}

	req, err := parseRegisterRequest(body)
	if err != nil {
		h.metrics.ObserveRegistration(metrics.OutcomeMalformed)
		if errors.Is(err, errEmptyRequest) {
			writeText(w, http.StatusBadRequest, msgEmptyBody)
			return
		}
		h.logger.DebugContext(r.Context(), "rejected registration request", "error", err)
		writeText(w, http.StatusBadRequest, msgMalformedBody)
		return
	}

	user, err := h.userService.Register(r.Context(), req.registration())
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			h.metrics.ObserveRegistration(metrics.OutcomeDuplicate)
			h.writeEnvelope(w, r, http.StatusConflict, msgDuplicate, "")
			return
		}
		h.metrics.ObserveRegistration(metrics.OutcomeError)
		h.logger.ErrorContext(r.Context(), "registration failed", "error", err)
		writeText(w, http.StatusInternalServerError, msgProcessingError)
		return
	}

	h.metrics.ObserveRegistration(metrics.OutcomeCreated)
	h.writeEnvelope(w, r, http.StatusCreated, msgRegistered, user.ID)
}

// Health reports whether the store answers a trivial query.
func (h *RegisterHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "health check failed", "error", err)
		writeText(w, http.StatusInternalServerError, msgUnhealthy)
		return
	}
	writeText(w, http.StatusOK, msgHealthy)
}

func (h *RegisterHandler) writeEnvelope(w http.ResponseWriter, r *http.Request, status int, message, id string) {
	out, err := marshalRegisterResponse(message, id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "encode soap response failed", "error", err)
		writeText(w, http.StatusInternalServerError, msgProcessingError)
		return
	}
	writeXML(w, status, out)
}
