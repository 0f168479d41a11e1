package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-monitor/internal/monitor"
	"github.com/nerrad567/gray-logic-monitor/internal/telegram"
)

// handleGetTelegrams returns the filtered, sorted, offset-annotated telegram
// view plus the distinct value distribution.
func (s *Server) handleGetTelegrams(w http.ResponseWriter, _ *http.Request) {
	view := s.controller.FilteredTelegramsAndDistinctValues()
	writeJSON(w, http.StatusOK, view)
}

// handleGetStatus returns the monitor's observable state.
func (s *Server) handleGetStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Status())
}

// handleTogglePause flips the paused flag and returns the new status.
func (s *Server) handleTogglePause(w http.ResponseWriter, _ *http.Request) {
	s.controller.TogglePause()
	writeJSON(w, http.StatusOK, s.controller.Status())
}

// handleReload re-pulls the authoritative snapshot from the core.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Reload(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.controller.Status())
}

// handleRetryConnection re-subscribes to the live feed. Reconnection is only
// ever user-triggered; there is no automatic retry anywhere.
func (s *Server) handleRetryConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.RetryConnection(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.controller.Status())
}

// handleClearTelegrams empties the telegram buffer, preserving the selected
// filter chips with zero counts.
func (s *Server) handleClearTelegrams(w http.ResponseWriter, _ *http.Request) {
	s.controller.ClearTelegrams()
	writeJSON(w, http.StatusOK, s.controller.Status())
}

// toggleFilterRequest is the body for POST /monitor/filters/{field}/toggle.
type toggleFilterRequest struct {
	Value string `json:"value"`
}

// handleToggleFilterValue adds or removes one value from a field's selection.
func (s *Server) handleToggleFilterValue(w http.ResponseWriter, r *http.Request) {
	field, err := telegram.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	var req toggleFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Value == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "value is required")
		return
	}

	s.controller.ToggleFilterValue(field, req.Value)
	writeJSON(w, http.StatusOK, s.controller.Status())
}

// setFilterValuesRequest is the body for PUT /monitor/filters/{field}.
type setFilterValuesRequest struct {
	Values []string `json:"values"`
}

// handleSetFilterValues replaces a field's selection wholesale. An empty
// values list clears the field's filter.
func (s *Server) handleSetFilterValues(w http.ResponseWriter, r *http.Request) {
	field, err := telegram.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	var req setFilterValuesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	s.controller.SetFilterFieldValues(field, req.Values)
	writeJSON(w, http.StatusOK, s.controller.Status())
}

// handleClearFilters removes every active filter.
func (s *Server) handleClearFilters(w http.ResponseWriter, _ *http.Request) {
	s.controller.ClearFilters()
	writeJSON(w, http.StatusOK, s.controller.Status())
}

// setSortRequest is the body for PUT /monitor/sort.
type setSortRequest struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

// handleSetSort changes the view ordering.
func (s *Server) handleSetSort(w http.ResponseWriter, r *http.Request) {
	var req setSortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	column, err := monitor.ParseSortColumn(req.Column)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	direction, err := monitor.ParseSortDirection(req.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	s.controller.SetSort(column, direction)
	writeJSON(w, http.StatusOK, s.controller.Status())
}

// selectTelegramRequest is the body for PUT /monitor/selection.
type selectTelegramRequest struct {
	ID string `json:"id"`
}

// handleSelectTelegram sets (or clears, with an empty ID) the selection
// pointer.
func (s *Server) handleSelectTelegram(w http.ResponseWriter, r *http.Request) {
	var req selectTelegramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	s.controller.SelectTelegram(req.ID)
	writeJSON(w, http.StatusOK, s.controller.Status())
}

// navigateTelegramRequest is the body for POST /monitor/navigate.
type navigateTelegramRequest struct {
	Delta int `json:"delta"`
}

// handleNavigateTelegram moves the selection pointer within the filtered,
// sorted list. Out-of-range moves are silent no-ops.
func (s *Server) handleNavigateTelegram(w http.ResponseWriter, r *http.Request) {
	var req navigateTelegramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Delta == 0 {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "delta must be non-zero")
		return
	}

	s.controller.NavigateTelegram(req.Delta)
	writeJSON(w, http.StatusOK, s.controller.Status())
}

// setExpandedFilterRequest is the body for PUT /monitor/expanded-filter.
type setExpandedFilterRequest struct {
	Field string `json:"field"`
}

// handleSetExpandedFilter records which filter dropdown is open. An empty
// field collapses all dropdowns.
func (s *Server) handleSetExpandedFilter(w http.ResponseWriter, r *http.Request) {
	var req setExpandedFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Field != "" {
		if _, err := telegram.ParseField(req.Field); err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
	}

	s.controller.SetExpandedFilter(req.Field)
	writeJSON(w, http.StatusOK, s.controller.Status())
}
