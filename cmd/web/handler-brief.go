package main

import (
	"net/http"

	"github.com/myrjola/briefly/internal/errors"
	"github.com/myrjola/briefly/internal/repositories"
)

// brief returns the stored brief for a completed session.
func (app *application) brief(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	b, err := app.sessions.GetBrief(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrBriefNotFound) || errors.Is(err, repositories.ErrSessionNotFound) {
			app.clientError(w, r, http.StatusNotFound, "no brief for this session")
			return
		}
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, b)
}
