package middleware

import (
	"net/http"
	"runtime/debug"

	"pcbank/transport/http/response"

	log "github.com/sirupsen/logrus"
)

// Recovery turns a panicking handler into a 500
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.WithFields(log.Fields{
					"request_id": GetRequestID(r.Context()),
					"path":       r.URL.Path,
					"panic":      rec,
					"stack":      string(debug.Stack()),
				}).Error("Handler panicked")
				response.Error(w, nil)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
