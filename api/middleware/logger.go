// Package middleware holds HTTP middleware shared by the API server.
package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// RequestLogger returns middleware that logs one line per request through
// logger, tagged with chi's request id.
func RequestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				entry := logger.WithFields(logrus.Fields{
					"request_id": chimiddleware.GetReqID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"remote":     r.RemoteAddr,
					"status":     ww.Status(),
					"bytes":      ww.BytesWritten(),
					"duration":   time.Since(start),
				})
				switch {
				case ww.Status() >= http.StatusInternalServerError:
					entry.Error("request failed")
				case ww.Status() >= http.StatusBadRequest:
					entry.Warn("request rejected")
				default:
					entry.Info("request served")
				}
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}
