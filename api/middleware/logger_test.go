package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Get("/bad", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusBadRequest)
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	tests := []struct {
		path   string
		status int
		level  logrus.Level
	}{
		{"/ok", http.StatusOK, logrus.InfoLevel},
		{"/bad", http.StatusBadRequest, logrus.WarnLevel},
		{"/boom", http.StatusInternalServerError, logrus.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			hook.Reset()
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, tt.status, entry.Data["status"])
			assert.Equal(t, tt.path, entry.Data["path"])
			assert.NotEmpty(t, entry.Data["request_id"])
		})
	}
}
