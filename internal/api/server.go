package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"brewhouse/internal/auth"
	"brewhouse/internal/config"
	"brewhouse/internal/domain"
	"brewhouse/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Server exposes the public booking API and the admin panel API.
type Server struct {
	cfg          *config.Config
	reservations *service.ReservationService
	menu         *service.MenuService
	flow         *service.FlowService
	reports      *service.ReportService
	auth         *auth.Service
	blobs        domain.BlobStore
	sheets       domain.SheetsWriter
	validate     *validator.Validate
	limiter      *rateLimiter
	logger       *zerolog.Logger
	server       *http.Server
}

func NewServer(
	cfg *config.Config,
	reservations *service.ReservationService,
	menu *service.MenuService,
	flow *service.FlowService,
	reports *service.ReportService,
	authService *auth.Service,
	blobs domain.BlobStore,
	sheets domain.SheetsWriter,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		cfg:          cfg,
		reservations: reservations,
		menu:         menu,
		flow:         flow,
		reports:      reports,
		auth:         authService,
		blobs:        blobs,
		sheets:       sheets,
		validate:     validator.New(),
		limiter:      newRateLimiter(cfg.RateLimit),
		logger:       logger,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return s
}

// Handler builds the full route table. Split out so tests can drive the
// mux through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Публичная часть: меню, слоты, создание брони, загрузки, флоу
	mux.HandleFunc("GET /api/v1/menu", s.handleMenuCatalog)
	mux.HandleFunc("GET /api/v1/slots", s.handleAvailableSlots)
	mux.HandleFunc("POST /api/v1/reservations", s.handleCreateReservation)
	mux.HandleFunc("POST /api/v1/reservations/{id}/receipt", s.handleUploadReceipt)
	mux.HandleFunc("POST /api/v1/reservations/{id}/id-document", s.handleUploadIDDocument)

	mux.HandleFunc("POST /api/v1/flow/sessions", s.handleNewFlowSession)
	mux.HandleFunc("GET /api/v1/flow/sessions/{session}", s.handleGetFlowState)
	mux.HandleFunc("POST /api/v1/flow/sessions/{session}/advance", s.handleAdvanceFlow)
	mux.HandleFunc("DELETE /api/v1/flow/sessions/{session}", s.handleClearFlow)

	mux.HandleFunc("POST /api/v1/admin/login", s.handleAdminLogin)

	// Админка закрыта Bearer-токеном
	admin := func(h http.HandlerFunc) http.HandlerFunc { return s.requireAdmin(h) }

	mux.HandleFunc("GET /api/v1/admin/bookings", admin(s.handleListBookings))
	mux.HandleFunc("GET /api/v1/admin/bookings/{id}", admin(s.handleGetBooking))
	mux.HandleFunc("POST /api/v1/admin/bookings/{id}/confirm", admin(s.handleConfirmBooking))
	mux.HandleFunc("POST /api/v1/admin/bookings/{id}/cancel", admin(s.handleCancelBooking))
	mux.HandleFunc("DELETE /api/v1/admin/bookings/{id}", admin(s.handleDeleteBooking))

	mux.HandleFunc("GET /api/v1/admin/history", admin(s.handleListHistory))
	mux.HandleFunc("POST /api/v1/admin/history/{id}/undo", admin(s.handleUndoHistory))
	mux.HandleFunc("DELETE /api/v1/admin/history/{id}", admin(s.handleDeleteHistory))

	mux.HandleFunc("POST /api/v1/admin/reconcile", admin(s.handleReconcile))

	mux.HandleFunc("POST /api/v1/admin/menu", admin(s.handleCreateMenuItem))
	mux.HandleFunc("PUT /api/v1/admin/menu/{id}", admin(s.handleUpdateMenuItem))
	mux.HandleFunc("DELETE /api/v1/admin/menu/{id}", admin(s.handleDeleteMenuItem))
	mux.HandleFunc("POST /api/v1/admin/menu/{id}/image", admin(s.handleUploadMenuImage))

	mux.HandleFunc("GET /api/v1/admin/sales/export", admin(s.handleExportSales))
	mux.HandleFunc("POST /api/v1/admin/sales/resync", admin(s.handleResyncSales))

	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s.loggingMiddleware(s.limiter.wrap(mux))
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
