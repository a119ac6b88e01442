package handlers

import (
	"net/http"
	"strings"
)

type waitlistRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (req *waitlistRequest) normalize() {
	req.Email = strings.TrimSpace(req.Email)
}

func (a *App) WaitlistJoin(w http.ResponseWriter, r *http.Request) {
	var req waitlistRequest
	if msg, ok := a.decode(w, r, &req); !ok {
		a.detail(w, http.StatusUnprocessableEntity, msg)
		return
	}
	added, err := a.Waitlist.Join(r.Context(), req.Email)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	message := "You're already on the list!"
	if added {
		message = "You're on the list!"
	}
	a.json(w, http.StatusOK, map[string]any{"ok": true, "message": message})
}

func (a *App) WaitlistCount(w http.ResponseWriter, r *http.Request) {
	count, err := a.Waitlist.Count(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int{"count": count})
}
