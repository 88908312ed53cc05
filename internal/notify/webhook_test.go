package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/supplier-risk/internal/events"
)

func TestWebhook_Emit(t *testing.T) {
	var received atomic.Int32
	var gotType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var ev events.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		gotType = string(ev.Type)
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL)
	wh.Emit(context.Background(), events.New(events.TypeAlertCreated, map[string]string{"id": "a-1"}))

	assert.Equal(t, int32(1), received.Load())
	assert.Equal(t, string(events.TypeAlertCreated), gotType)
}

func TestWebhook_Emit_ServerErrorDoesNotPanic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL)
	// Failures are swallowed by contract.
	wh.Emit(context.Background(), events.New(events.TypeTaskCreated, nil))
}

func TestWebhook_Emit_UnreachableURL(t *testing.T) {
	wh := NewWebhook("http://127.0.0.1:1/nope")
	wh.Emit(context.Background(), events.New(events.TypeRiskRecomputed, nil))
}
