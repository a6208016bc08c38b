package app

import (
	"net/http"

	"github.com/MrWong99/lookout/internal/health"
	"github.com/MrWong99/lookout/internal/session"
)

// triggerResponse is the body of POST /trigger.
type triggerResponse struct {
	Accepted bool           `json:"accepted"`
	Status   session.Status `json:"status"`
}

// handleTrigger is the button: it starts a session if the orchestrator is
// idle and outside the debounce window. A rejected trigger is not an error;
// it answers 409 with the current status.
func (a *App) handleTrigger(w http.ResponseWriter, r *http.Request) {
	accepted := a.orch.Trigger(r.Context())
	code := http.StatusAccepted
	if !accepted {
		code = http.StatusConflict
	}
	health.WriteJSON(w, code, triggerResponse{Accepted: accepted, Status: a.orch.Status()})
}

// handleStatus returns the current status snapshot.
func (a *App) handleStatus(w http.ResponseWriter, _ *http.Request) {
	health.WriteJSON(w, http.StatusOK, a.orch.Status())
}
