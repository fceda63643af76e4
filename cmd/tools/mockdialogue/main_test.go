package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	resp := httptest.NewRecorder()
	h(resp, httptest.NewRequest(http.MethodPost, "/webhooks/rest/webhook", strings.NewReader(body)))
	return resp
}

func TestModes(t *testing.T) {
	cases := []struct {
		mode   string
		body   string
		status int
		want   string
	}{
		{mode: modeEcho, body: `{"sender":"user","message":"salut"}`, status: http.StatusOK, want: `"text":"salut"`},
		{mode: modeButtons, body: `{"sender":"user","message":"menu"}`, status: http.StatusOK, want: `"payload":"/inscription"`},
		{mode: modeButtons, body: `{"sender":"user","message":"/inscription"}`, status: http.StatusOK, want: "Vous avez choisi /inscription"},
		{mode: modeEmpty, body: `{"sender":"user","message":"x"}`, status: http.StatusOK, want: "[]"},
		{mode: modeFail, body: `{"sender":"user","message":"x"}`, status: http.StatusInternalServerError},
		{mode: modeGarbage, body: `{"sender":"user","message":"x"}`, status: http.StatusOK, want: "<html>"},
	}

	for _, tc := range cases {
		t.Run(tc.mode, func(t *testing.T) {
			h, err := newHandler(tc.mode, 0)
			require.NoError(t, err)

			resp := post(t, h, tc.body)
			assert.Equal(t, tc.status, resp.Code)
			assert.Contains(t, resp.Body.String(), tc.want)
		})
	}
}

func TestUnknownMode(t *testing.T) {
	_, err := newHandler("chaos", 0)
	require.Error(t, err)
}
