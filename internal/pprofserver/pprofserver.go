// Package pprofserver exposes the Go profiling endpoints on a loopback-only
// listener so they are never reachable from the outside.
package pprofserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
)

func Handle(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
}

// Launch starts a pprof server on the IPv6 loopback address at the given port.
// It runs in the background for the lifetime of the process.
func Launch(port string, logger *slog.Logger) {
	go func() {
		mux := http.NewServeMux()
		Handle(mux)
		addr := fmt.Sprintf("[::1]%s", port)
		logger.Info("starting pprof server", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("pprof server stopped", "error", err)
		}
	}()
}
