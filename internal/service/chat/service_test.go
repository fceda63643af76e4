package chat_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/fsg-chatbot/widget/backend/internal/metrics"
	"github.com/fsg-chatbot/widget/backend/internal/model/profile"
	chat "github.com/fsg-chatbot/widget/backend/internal/service/chat"
	"github.com/fsg-chatbot/widget/backend/internal/service/conversation"
)

func newService() *chat.Service {
	cfg := chat.Config{Client: conversation.ClientConfig{Endpoint: "http://127.0.0.1:1", SenderID: "user"}}
	return chat.NewService(cfg, profile.NewMemoryStore(profile.Seed()), metrics.New(), nil)
}

func TestServiceMountAndGet(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	session, err := svc.Mount(ctx, "fsg-en")
	require.NoError(t, err)

	got, err := svc.Get(ctx, session.ID())
	require.NoError(t, err)
	require.Same(t, session, got)

	msgs := got.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "Hello, I am the FSG chatbot.", msgs[0].Text)
	require.Equal(t, 1, svc.Count())
	require.Equal(t, conversation.DefaultRevealInterval, svc.RevealInterval())
}

func TestServiceMountUnknownProfile(t *testing.T) {
	svc := newService()

	_, err := svc.Mount(context.Background(), "missing")
	require.True(t, errors.Is(err, chat.ErrProfileNotFound))
}

func TestServiceUnmountDiscardsSession(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	session, err := svc.Mount(ctx, profile.DefaultID)
	require.NoError(t, err)
	require.NoError(t, svc.Unmount(ctx, session.ID()))

	require.True(t, session.Closed())
	_, err = svc.Get(ctx, session.ID())
	require.ErrorIs(t, err, chat.ErrSessionNotFound)
	require.ErrorIs(t, svc.Unmount(ctx, session.ID()), chat.ErrSessionNotFound)
}

func TestServiceSessionsAreIndependent(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	a, err := svc.Mount(ctx, profile.DefaultID)
	require.NoError(t, err)
	b, err := svc.Mount(ctx, profile.DefaultID)
	require.NoError(t, err)

	a.SetInput("only in a")
	require.NotEqual(t, a.ID(), b.ID())
	require.Equal(t, "", b.Input())

	svc.Shutdown(ctx)
	require.Zero(t, svc.Count())
	require.True(t, a.Closed())
	require.True(t, b.Closed())
}
