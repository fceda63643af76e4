package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondError(resp, http.StatusNotFound, "session not found")

	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Equal(t, "application/json", resp.Header().Get("Content-Type"))
	require.JSONEq(t, `{"error":"session not found"}`, resp.Body.String())
}

func TestSendSSEEvent(t *testing.T) {
	resp := httptest.NewRecorder()
	SetupSSEHeaders(resp)

	require.NoError(t, SendSSEEvent(resp, resp, "frame", map[string]string{"text": "bon"}))

	require.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))
	require.Equal(t, "event: frame\ndata: {\"text\":\"bon\"}\n\n", resp.Body.String())
	require.True(t, resp.Flushed)
}
