package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	log, err := New(&Config{Level: "debug"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	_, err = New(&Config{Level: "loud"})
	require.Error(t, err)
}

func TestMiddlewareLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	mw := MiddlewareLogger(zap.New(core), &Config{LogRequests: true})

	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("nope"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/slack/events", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/slack/events", fields["path"])
	assert.EqualValues(t, http.StatusBadGateway, fields["status"])
	assert.EqualValues(t, 4, fields["bytes"])
}

func TestMiddlewareLoggerDisabled(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	mw := MiddlewareLogger(zap.New(core), &Config{LogRequests: false})

	mw(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Zero(t, logs.Len())
}
