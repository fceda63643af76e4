package conversation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/fsg-chatbot/widget/backend/internal/model/conversation"
	"github.com/fsg-chatbot/widget/backend/internal/model/profile"
)

var testTexts = profile.Seed()[0].Texts

func newTestClient(endpoint string, opts ...ClientOption) (*Client, *Log, *State) {
	msgs := NewLog()
	state := NewState()
	cfg := ClientConfig{Endpoint: endpoint, SenderID: "user"}
	return NewClient(cfg, msgs, state, testTexts, opts...), msgs, state
}

func replyServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientSendsWireContract(t *testing.T) {
	var (
		gotBody   model.DialogueRequest
		gotHeader http.Header
		gotMethod string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `[{"text":"ok"}]`)
	}))
	defer srv.Close()

	client, _, _ := newTestClient(srv.URL + "/webhooks/rest/webhook")
	require.True(t, client.Send(context.Background(), "bonjour"))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "application/json", gotHeader.Get("Accept"))
	assert.Equal(t, model.DialogueRequest{Sender: "user", Message: "bonjour"}, gotBody)
}

func TestClientMapsSuccessfulReplies(t *testing.T) {
	srv := replyServer(t, http.StatusOK, `[{"text":"hi","buttons":[{"title":"Yes","payload":"yes"}]}]`)
	client, msgs, state := newTestClient(srv.URL)

	require.True(t, client.Send(context.Background(), "hello"))

	records := msgs.ReadAll()
	require.Len(t, records, 2)
	require.Equal(t, model.SenderUser, records[0].Sender)
	require.Equal(t, "hello", records[0].Text)
	require.Equal(t, model.SenderBot, records[1].Sender)
	require.Equal(t, "hi", records[1].Text)
	require.Equal(t, []model.Button{{Title: "Yes", Payload: "yes"}}, records[1].Buttons)
	require.False(t, state.Busy())
}

func TestClientKeepsReplyOrderAndDefaultsText(t *testing.T) {
	srv := replyServer(t, http.StatusOK, `[{"text":"one"},{"image":"x.png"},{"text":""},{"text":"<b>four</b>"}]`)
	client, msgs, _ := newTestClient(srv.URL)

	client.Send(context.Background(), "go")

	records := msgs.ReadAll()
	require.Len(t, records, 5)
	got := []string{records[1].Text, records[2].Text, records[3].Text, records[4].Text}
	require.Equal(t, []string{"one", testTexts.NotUnderstood, testTexts.NotUnderstood, "<b>four</b>"}, got)
	for _, r := range records[1:] {
		require.Empty(t, r.Buttons)
	}
}

func TestClientEmptyResponseFallback(t *testing.T) {
	for name, body := range map[string]string{
		"empty array": `[]`,
		"null":        `null`,
		"no body":     ``,
	} {
		t.Run(name, func(t *testing.T) {
			srv := replyServer(t, http.StatusOK, body)
			client, msgs, state := newTestClient(srv.URL)

			client.Send(context.Background(), "hello")

			records := msgs.ReadAll()
			require.Len(t, records, 2)
			require.Equal(t, model.SenderBot, records[1].Sender)
			require.Equal(t, testTexts.CouldNotProcess, records[1].Text)
			require.Empty(t, records[1].Buttons)
			require.False(t, state.Busy())
		})
	}
}

func TestClientHTTPErrorFallback(t *testing.T) {
	srv := replyServer(t, http.StatusInternalServerError, `{"error":"boom"}`)
	client, msgs, state := newTestClient(srv.URL)

	client.Send(context.Background(), "hello")

	records := msgs.ReadAll()
	require.Len(t, records, 2)
	require.Equal(t, testTexts.ServerError, records[1].Text)
	require.False(t, state.Busy())
}

func TestClientConnectivityErrorFallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	client, msgs, state := newTestClient(endpoint)
	client.Send(context.Background(), "hello")

	records := msgs.ReadAll()
	require.Len(t, records, 2)
	require.Equal(t, testTexts.Connectivity, records[1].Text)
	require.False(t, state.Busy())
}

func TestClientNonArrayBodyFallsBack(t *testing.T) {
	for _, body := range []string{`{"text":"not an array"}`, `{}`, `{"recipient_id":"user"}`, `42`, `"hi"`} {
		t.Run(body, func(t *testing.T) {
			srv := replyServer(t, http.StatusOK, body)
			client, msgs, state := newTestClient(srv.URL)

			require.True(t, client.Send(context.Background(), "hello"))

			records := msgs.ReadAll()
			require.Len(t, records, 2)
			require.Equal(t, testTexts.CouldNotProcess, records[1].Text)
			require.Empty(t, records[1].Buttons)
			require.False(t, state.Busy())
		})
	}
}

func TestClientNonObjectElementsAreNotUnderstood(t *testing.T) {
	srv := replyServer(t, http.StatusOK, `["x", null, {"text":"ok"}]`)
	client, msgs, _ := newTestClient(srv.URL)

	require.True(t, client.Send(context.Background(), "hello"))

	records := msgs.ReadAll()
	require.Len(t, records, 4)
	require.Equal(t, testTexts.NotUnderstood, records[1].Text)
	require.Equal(t, testTexts.NotUnderstood, records[2].Text)
	require.Equal(t, "ok", records[3].Text)
}

func TestClientMalformedBodyIsGenericError(t *testing.T) {
	for _, body := range []string{`<html>oops</html>`, `[{"text":"cut`} {
		t.Run(body, func(t *testing.T) {
			srv := replyServer(t, http.StatusOK, body)
			client, msgs, _ := newTestClient(srv.URL)

			client.Send(context.Background(), "hello")

			records := msgs.ReadAll()
			require.Len(t, records, 2)
			require.Equal(t, testTexts.Generic, records[1].Text)
		})
	}
}

func TestClientTimeoutIsConnectivityError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	msgs := NewLog()
	state := NewState()
	client := NewClient(ClientConfig{Endpoint: srv.URL, SenderID: "user", Timeout: 20 * time.Millisecond}, msgs, state, testTexts)

	client.Send(context.Background(), "hello")

	records := msgs.ReadAll()
	require.Len(t, records, 2)
	require.Equal(t, testTexts.Connectivity, records[1].Text)
	require.False(t, state.Busy())
}

func TestClientAppendsUserRecordBeforeResponse(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-release
		_, _ = io.WriteString(w, `[{"text":"late"}]`)
	}))
	defer srv.Close()

	client, msgs, state := newTestClient(srv.URL)
	done := make(chan struct{})
	go func() {
		defer close(done)
		client.Send(context.Background(), "hello")
	}()

	<-arrived
	records := msgs.ReadAll()
	require.Len(t, records, 1)
	require.Equal(t, model.SenderUser, records[0].Sender)
	require.Equal(t, "hello", records[0].Text)
	require.True(t, state.Busy())

	close(release)
	<-done
	require.Equal(t, 2, msgs.Len())
	require.False(t, state.Busy())
}

func TestClientBlankSendIsNoop(t *testing.T) {
	client, msgs, state := newTestClient("http://127.0.0.1:1")

	require.False(t, client.Send(context.Background(), "   \t"))
	require.Zero(t, msgs.Len())
	require.False(t, state.Busy())
}

func TestClientClearsPendingInputOnSend(t *testing.T) {
	srv := replyServer(t, http.StatusOK, `[]`)
	client, _, state := newTestClient(srv.URL)
	state.SetInput("draft")

	var snapshots []Snapshot
	state.OnChange(func(s Snapshot) { snapshots = append(snapshots, s) })

	require.True(t, client.SendPending(context.Background()))
	require.Equal(t, "", state.Input())
	require.Equal(t, []Snapshot{{Busy: true, Input: ""}, {Busy: false, Input: ""}}, snapshots)
}

func TestClassify(t *testing.T) {
	require.Equal(t, OutcomeSuccess, Classify(nil))
	require.Equal(t, OutcomeConnectivity, Classify(&ConnectivityError{Err: io.EOF}))
	require.Equal(t, OutcomeHTTP, Classify(&HTTPError{StatusCode: 502}))
	require.Equal(t, OutcomeGeneric, Classify(&GenericError{Err: io.EOF}))
	require.Equal(t, OutcomeGeneric, Classify(io.ErrUnexpectedEOF))
}
