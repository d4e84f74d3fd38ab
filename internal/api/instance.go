package api

import (
	"net/http"
	"sync"

	"github.com/cherubic/NLog/internal/audit"
	"github.com/cherubic/NLog/internal/lifecycle"
	"github.com/cherubic/NLog/internal/remote"
)

// StatusResponse describes the managed instance.
type StatusResponse struct {
	Instance      string `json:"instance"`
	Enabled       bool   `json:"enabled"`
	SuspendCount  int64  `json:"suspend_count"`
	Configuration string `json:"configuration,omitempty"`
}

// ReloadResult is the outcome of a reload issued through the API.
type ReloadResult struct {
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

// ReloadResponse is returned by POST /reload. Reload is nil when the
// installed configuration was swapped before the reload ran.
type ReloadResponse struct {
	StatusResponse
	Reload *ReloadResult `json:"reload,omitempty"`
}

func (s *Server) status() StatusResponse {
	return StatusResponse{
		Instance:      s.inst.Name(),
		Enabled:       s.inst.IsLoggingEnabled(),
		SuspendCount:  s.inst.SuspendCount(),
		Configuration: lifecycle.Describe(s.inst.GetConfiguration()),
	}
}

// handleStatus returns the current instance state.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

// execute applies a control action the same way remote commands do.
// It writes a 500 and returns false if the action is rejected.
func (s *Server) execute(w http.ResponseWriter, action string) bool {
	if err := remote.Execute(s.inst, action); err != nil {
		writeInternalError(w, err.Error())
		return false
	}
	return true
}

// handleSuspend increments the suspend counter.
func (s *Server) handleSuspend(w http.ResponseWriter, r *http.Request) {
	if !s.execute(w, remote.ActionSuspend) {
		return
	}
	st := s.status()
	s.auditLog(r, audit.ActionSuspended, st)
	writeJSON(w, http.StatusOK, st)
}

// handleResume decrements the suspend counter. The counter is not
// clamped, so resuming an enabled instance drives it negative.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if !s.execute(w, remote.ActionResume) {
		return
	}
	st := s.status()
	s.auditLog(r, audit.ActionResumed, st)
	writeJSON(w, http.StatusOK, st)
}

// handleReload reloads the installed configuration and reports the outcome.
func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	if s.inst.GetConfiguration() == nil {
		writeConflict(w, "no configuration installed")
		return
	}

	var (
		mu     sync.Mutex
		result *ReloadResult
	)
	sub := s.inst.OnConfigurationReloaded(func(e lifecycle.ReloadedEvent) {
		res := &ReloadResult{Succeeded: e.Succeeded}
		if e.Err != nil {
			res.Error = e.Err.Error()
		}
		mu.Lock()
		result = res
		mu.Unlock()
	})
	ok := s.execute(w, remote.ActionReload)
	sub.Cancel()
	if !ok {
		return
	}

	mu.Lock()
	defer mu.Unlock()
	writeJSON(w, http.StatusOK, ReloadResponse{StatusResponse: s.status(), Reload: result})
}

// handleUnload removes the installed configuration. Logging through the
// instance becomes a no-op until a new one is installed.
func (s *Server) handleUnload(w http.ResponseWriter, _ *http.Request) {
	if !s.execute(w, remote.ActionUnload) {
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}
