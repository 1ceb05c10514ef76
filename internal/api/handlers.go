package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"brewhouse/internal/auth"
	"brewhouse/internal/database"
	"brewhouse/internal/models"
	"brewhouse/internal/service"
)

const maxUploadSize = 10 << 20 // 10 MiB

type createReservationRequest struct {
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	ContactNumber string `json:"contact_number" validate:"required,len=11"`
	Email         string `json:"email" validate:"omitempty,email"`
	Package       string `json:"package" validate:"required"`
	Date          string `json:"date" validate:"required"`
	TimeSlot      string `json:"time_slot" validate:"required"`
}

type advanceFlowRequest struct {
	Step string                 `json:"step" validate:"required"`
	Data map[string]interface{} `json:"data"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) decodeAndValidate(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	if err := s.validate.Struct(dst); err != nil {
		return err
	}
	return nil
}

func (s *Server) handleMenuCatalog(w http.ResponseWriter, r *http.Request) {
	categories, err := s.menu.Catalog(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("menu catalog")
		writeError(w, http.StatusInternalServerError, "failed to load menu")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (s *Server) handleAvailableSlots(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	slots, err := s.reservations.AvailableSlots(r.Context(), date)
	if err != nil {
		s.respondReservationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date.Format(models.DateLayout),
		"slots": slots,
	})
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	date, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	reservation := &models.Reservation{
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		ContactNumber: strings.TrimSpace(req.ContactNumber),
		Email:         strings.TrimSpace(req.Email),
		Package:       req.Package,
		Date:          date,
		TimeSlot:      req.TimeSlot,
	}

	if err := s.reservations.CreateReservation(r.Context(), reservation); err != nil {
		s.respondReservationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reservation)
}

func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	method := r.FormValue("payment_method")
	if method == "" {
		writeError(w, http.StatusBadRequest, "payment_method is required")
		return
	}

	file, header, err := formFile(r, "receipt")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	key := "receipts/" + id + safeExt(header.Filename)
	if err := s.blobs.Put(r.Context(), key, file, header.Header.Get("Content-Type")); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("store receipt")
		writeError(w, http.StatusInternalServerError, "failed to store receipt")
		return
	}

	if err := s.reservations.AttachPayment(r.Context(), id, method, key); err != nil {
		s.respondReservationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"receipt_ref": key,
		"url":         s.blobs.URL(key),
	})
}

func (s *Server) handleUploadIDDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	file, header, err := formFile(r, "document")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	key := "id-documents/" + id + safeExt(header.Filename)
	if err := s.blobs.Put(r.Context(), key, file, header.Header.Get("Content-Type")); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("store id document")
		writeError(w, http.StatusInternalServerError, "failed to store document")
		return
	}

	if err := s.reservations.AttachIDDocument(r.Context(), id, key); err != nil {
		s.respondReservationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"id_document_ref": key,
		"url":             s.blobs.URL(key),
	})
}

func (s *Server) handleNewFlowSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": s.flow.NewSessionID(),
	})
}

func (s *Server) handleGetFlowState(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	state, err := s.flow.GetFlowState(r.Context(), sessionID)
	if err != nil {
		s.logger.Error().Err(err).Msg("get flow state")
		writeError(w, http.StatusInternalServerError, "failed to load flow state")
		return
	}
	if state == nil {
		// Сессия ещё не начинала флоу
		state = &models.FlowState{SessionID: sessionID}
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleAdvanceFlow(w http.ResponseWriter, r *http.Request) {
	var req advanceFlowRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := s.flow.AdvanceFlow(r.Context(), r.PathValue("session"), req.Step, req.Data)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStep) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, service.ErrTooManyRequests) {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("advance flow")
		writeError(w, http.StatusInternalServerError, "failed to advance flow")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.flow.ClearFlow(r.Context(), r.PathValue("session")); err != nil {
		s.logger.Error().Err(err).Msg("clear flow")
		writeError(w, http.StatusInternalServerError, "failed to clear flow")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusServiceUnavailable, "admin auth is not configured")
		return
	}

	var req loginRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, expiresAt, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		s.logger.Error().Err(err).Msg("admin login")
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// respondReservationError maps storage errors to HTTP statuses.
func (s *Server) respondReservationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrSlotFull):
		writeError(w, http.StatusConflict, "time slot is fully booked")
	case errors.Is(err, database.ErrUnknownSlot):
		writeError(w, http.StatusBadRequest, "unknown time slot")
	case errors.Is(err, database.ErrPastDate):
		writeError(w, http.StatusBadRequest, "reservation date is in the past")
	case errors.Is(err, database.ErrDateTooFar):
		writeError(w, http.StatusBadRequest, "reservation date is too far in the future")
	case errors.Is(err, database.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, "reservation not found")
	case errors.Is(err, database.ErrHistoryNotFound):
		writeError(w, http.StatusNotFound, "history record not found")
	case errors.Is(err, database.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid reservation status")
	default:
		s.logger.Error().Err(err).Msg("reservation operation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	date, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format; expected YYYY-MM-DD", name)
	}
	return date, nil
}

func formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, nil, fmt.Errorf("invalid multipart form")
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("%s file is required", field)
	}
	return file, header, nil
}

// safeExt keeps only a plain extension from an uploaded filename.
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if ext == "" || strings.ContainsAny(ext, "/\\") || len(ext) > 8 {
		return ""
	}
	return ext
}
