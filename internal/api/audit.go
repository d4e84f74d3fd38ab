package api

import (
	"net/http"
	"strconv"

	"github.com/cherubic/NLog/internal/audit"
)

// auditLog records an operator action. Failures are logged and otherwise
// ignored; the action has already been applied.
func (s *Server) auditLog(r *http.Request, action string, st StatusResponse) {
	if s.auditRepo == nil {
		return
	}

	entry := &audit.Entry{
		Action:        action,
		Instance:      st.Instance,
		Source:        auditSource,
		Configuration: st.Configuration,
		Details: map[string]any{
			"suspend_count": st.SuspendCount,
			"request_id":    r.Context().Value(ctxKeyRequestID),
		},
	}
	if subject := subjectFromContext(r.Context()); subject != "" {
		entry.Details["subject"] = subject
	}
	if err := s.auditRepo.Create(r.Context(), entry); err != nil {
		s.logger.Error("audit log write failed", "action", action, "error", err)
	}
}

// handleListAuditLogs returns paginated audit log entries with optional filters.
//
// Query parameters:
//   - action: filter by action type
//   - instance: filter by instance name
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeUnavailable(w, "audit logging not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:   q.Get("action"),
		Instance: q.Get("instance"),
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit logs", "error", err)
		writeInternalError(w, "failed to list audit logs")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
