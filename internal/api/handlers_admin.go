package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"brewhouse/internal/database"
	"brewhouse/internal/models"
)

type menuItemRequest struct {
	Category    string  `json:"category" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gt=0"`
	BestSeller  bool    `json:"best_seller"`
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.reservations.ListReservations(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list bookings")
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.reservations.GetReservation(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondReservationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleConfirmBooking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.reservations.ConfirmReservation(r.Context(), id, adminUser(r.Context())); err != nil {
		s.respondReservationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": models.StatusConfirmed})
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.reservations.CancelReservation(r.Context(), id, adminUser(r.Context())); err != nil {
		s.respondReservationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": models.StatusCanceled})
}

func (s *Server) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := s.reservations.DeleteReservation(r.Context(), r.PathValue("id"), adminUser(r.Context())); err != nil {
		s.respondReservationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.reservations.ListHistory(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list history")
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (s *Server) handleUndoHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.reservations.UndoReservation(r.Context(), id, adminUser(r.Context())); err != nil {
		s.respondReservationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": models.StatusPending})
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.reservations.DeleteHistoryRecord(r.Context(), r.PathValue("id")); err != nil {
		s.respondReservationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	removed, err := s.reservations.Reconcile(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("reconcile")
		writeError(w, http.StatusInternalServerError, "reconcile failed")
		return
	}
	if removed == nil {
		removed = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (s *Server) handleCreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item := &models.MenuItem{
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		BestSeller:  req.BestSeller,
	}
	if err := s.menu.CreateItem(r.Context(), item); err != nil {
		s.logger.Error().Err(err).Msg("create menu item")
		writeError(w, http.StatusInternalServerError, "failed to create menu item")
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseMenuID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req menuItemRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item := &models.MenuItem{
		ID:          id,
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		BestSeller:  req.BestSeller,
	}
	if err := s.menu.UpdateItem(r.Context(), item); err != nil {
		if errors.Is(err, database.ErrMenuItemNotFound) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		s.logger.Error().Err(err).Msg("update menu item")
		writeError(w, http.StatusInternalServerError, "failed to update menu item")
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseMenuID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.menu.DeleteItem(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrMenuItemNotFound) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		s.logger.Error().Err(err).Msg("delete menu item")
		writeError(w, http.StatusInternalServerError, "failed to delete menu item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadMenuImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseMenuID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := formFile(r, "image")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	url, err := s.menu.AttachImage(r.Context(), id, file, header.Header.Get("Content-Type"), safeExt(header.Filename))
	if err != nil {
		if errors.Is(err, database.ErrMenuItemNotFound) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		s.logger.Error().Err(err).Msg("attach menu image")
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// salesPeriod reads the from/to query params. Без параметров берётся
// последний месяц.
func salesPeriod(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(0, -models.DefaultExportRangeMonthsBefore, 0)
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			return from, to, errors.New("invalid from format; expected YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			return from, to, errors.New("invalid to format; expected YYYY-MM-DD")
		}
		to = parsed
	}
	if to.Before(from) {
		return from, to, errors.New("to must not be before from")
	}
	return from, to, nil
}

// handleExportSales builds the XLSX report for the requested period and
// streams it back.
func (s *Server) handleExportSales(w http.ResponseWriter, r *http.Request) {
	from, to, err := salesPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, err := s.reports.ExportSales(r.Context(), from, to)
	if err != nil {
		s.logger.Error().Err(err).Msg("export sales")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="sales.xlsx"`)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

// handleResyncSales rebuilds the external sales spreadsheet from history.
func (s *Server) handleResyncSales(w http.ResponseWriter, r *http.Request) {
	if s.sheets == nil {
		writeError(w, http.StatusServiceUnavailable, "sales sheet sync is not configured")
		return
	}

	from, to, err := salesPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.reports.ResyncSalesSheet(r.Context(), s.sheets, from, to)
	if err != nil {
		s.logger.Error().Err(err).Msg("resync sales sheet")
		writeError(w, http.StatusInternalServerError, "resync failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func parseMenuID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid menu item id")
	}
	return id, nil
}
