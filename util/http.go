package util

import (
	"net/http"
	"strings"
)

// baseResponseWriter prepends the base path to absolute redirect locations.
type baseResponseWriter struct {
	http.ResponseWriter
	base string // without trailing slash
}

func (w baseResponseWriter) WriteHeader(statusCode int) {
	if location := w.Header().Get("Location"); strings.HasPrefix(location, "/") && !strings.HasPrefix(location, "//") {
		w.Header().Set("Location", w.base+location)
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

// Mount serves handler below base. The handler sees paths without base and can redirect to absolute paths like "/login".
// A request to base without trailing slash is redirected to base + "/".
func Mount(mux *http.ServeMux, base string, handler http.Handler) {

	base = strings.TrimSuffix(base, "/")

	var stripped = http.StripPrefix(base, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if base != "" {
			w = baseResponseWriter{w, base}
		}
		handler.ServeHTTP(w, r)
	}))
	mux.Handle(base+"/", stripped)

	if base != "" {
		mux.Handle(base, http.RedirectHandler(base+"/", http.StatusMovedPermanently))
	}
}
