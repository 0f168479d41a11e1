package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-monitor/internal/recorder"
)

// defaultAddressListLimit bounds address listings when no limit is given.
const defaultAddressListLimit = 500

// handleListGroupAddresses returns the observed group addresses, most
// recently seen first. Supports ?limit=N.
func (s *Server) handleListGroupAddresses(w http.ResponseWriter, r *http.Request) {
	if s.addresses == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "address catalogue not enabled")
		return
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	addresses, err := s.addresses.ListGroupAddresses(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing group addresses failed", "error", err)
		writeInternalError(w, "failed to list group addresses")
		return
	}

	total, err := s.addresses.GroupAddressCount(r.Context())
	if err != nil {
		s.logger.Error("counting group addresses failed", "error", err)
		writeInternalError(w, "failed to list group addresses")
		return
	}

	if addresses == nil {
		addresses = []recorder.ObservedGroupAddress{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"group_addresses": addresses,
		"total":           total,
	})
}

// handleListDevices returns the observed device (source) addresses, most
// recently seen first. Supports ?limit=N.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	if s.addresses == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "address catalogue not enabled")
		return
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	devices, err := s.addresses.ListDevices(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing devices failed", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}

	total, err := s.addresses.DeviceCount(r.Context())
	if err != nil {
		s.logger.Error("counting devices failed", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}

	if devices == nil {
		devices = []recorder.ObservedDevice{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"total":   total,
	})
}

// parseLimit reads the optional ?limit query parameter. On a malformed value
// it writes a validation error and returns ok=false.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultAddressListLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "limit must be a positive integer")
		return 0, false
	}
	return limit, true
}
