package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jr0d/notion-clip/pkg/clip"
)

// Router wires the relay endpoints. The token and save endpoints are called
// from the extension and get CORS headers for allowedOrigin.
func (k *ClipRelayServer) Router(allowedOrigin string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(clip.AuthEndpoint, k.Authorize)
	r.HandleFunc(clip.CallbackEndpoint, k.Callback)

	api := r.NewRoute().Subrouter()
	api.Use(corsHeaders(allowedOrigin))
	api.HandleFunc(clip.TokenEndpoint, k.Poll)
	api.HandleFunc(clip.SaveEndpoint, k.Save)

	return otelhttp.NewHandler(r, "notion-clip-relay")
}

func corsHeaders(allowedOrigin string) mux.MiddlewareFunc {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			if allowedOrigin != "*" {
				h.Add("Vary", "Origin")
			}
			next.ServeHTTP(w, req)
		})
	}
}
