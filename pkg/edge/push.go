package edge

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cornella-local/cornella-edge/pkg/push"
)

// clickRequest is the body of POST /_edge/push/click.
type clickRequest struct {
	Click   push.Click    `json:"click"`
	Windows []push.Window `json:"windows"`
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "read payload")
		return
	}

	notif, err := push.BuildNotification(raw, s.now())
	if errors.Is(err, push.ErrMalformedPayload) {
		s.logger.Warn().Err(err).Str("request_id", RequestIDFromContext(r.Context())).Msg("Ignoring malformed push payload")
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if notif == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if s.notifier != nil {
		if err := s.notifier.Deliver(r.Context(), notif); err != nil {
			writeJSONError(w, http.StatusBadGateway, "notification delivery failed")
			return
		}
	}

	writeJSON(w, http.StatusOK, notif)
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPayloadBytes)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed click event")
		return
	}

	writeJSON(w, http.StatusOK, push.ResolveClick(req.Click, req.Windows))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
