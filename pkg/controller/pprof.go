package controller

import (
	"net/http/pprof"

	"github.com/gorilla/mux"
)

// PprofPrefix is the path prefix pprof handlers are served under.
const PprofPrefix = "/debug/pprof/"

// RegisterPprof registers the net/http/pprof handlers on router under
// PprofPrefix. Named profiles (heap, goroutine, ...) are served by the index.
func RegisterPprof(router *mux.Router) {
	router.HandleFunc(PprofPrefix+"cmdline", pprof.Cmdline)
	router.HandleFunc(PprofPrefix+"profile", pprof.Profile)
	router.HandleFunc(PprofPrefix+"symbol", pprof.Symbol)
	router.HandleFunc(PprofPrefix+"trace", pprof.Trace)
	router.PathPrefix(PprofPrefix).HandlerFunc(pprof.Index)
}
