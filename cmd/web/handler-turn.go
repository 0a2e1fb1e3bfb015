package main

import (
	"encoding/json"
	"net/http"

	"github.com/myrjola/briefly/internal/engine"
	"github.com/myrjola/briefly/internal/errors"
)

const maxTurnBodyBytes = 1 << 20

const discoverySessionKey = "discoverySessionID"

// turn runs one interview turn. The discovery session ID rides in the cookie
// session so browser clients don't have to track it, but an explicit sessionId
// in the body always wins so API clients can manage their own sessions.
func (app *application) turn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTurnBodyBytes)

	var req engine.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "malformed JSON body")
		return
	}

	if req.SessionID == "" {
		req.SessionID = app.sessionManager.GetString(r.Context(), discoverySessionKey)
	}

	resp, err := app.engine.ProcessTurn(r.Context(), req)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidRequest) {
			app.clientError(w, r, http.StatusBadRequest, "userInput is required")
			return
		}
		app.serverError(w, r, err)
		return
	}

	app.sessionManager.Put(r.Context(), discoverySessionKey, resp.SessionID)
	app.writeJSON(w, r, http.StatusOK, resp)
}
