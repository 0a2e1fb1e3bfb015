package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	session := alice.New(app.sessionManager.LoadAndSave)

	mux.Handle("POST /api/turn", session.ThenFunc(app.turn))
	mux.Handle("GET /api/sessions/{sessionID}/brief", session.ThenFunc(app.brief))
	mux.Handle("GET /api/healthy", http.HandlerFunc(app.healthy))

	return app.recoverPanic(app.logRequest(secureHeaders(mux)))
}
