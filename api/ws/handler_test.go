package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdy4236/mask/internal/activity"
	"github.com/jdy4236/mask/internal/auth"
	"github.com/jdy4236/mask/internal/domain"
	"github.com/jdy4236/mask/internal/registry"
	"github.com/jdy4236/mask/internal/store"
	"github.com/jdy4236/mask/pkg/logger"
	"github.com/jdy4236/mask/service"
)

func setupServer(t *testing.T) (*httptest.Server, *auth.Verifier, store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log := logger.NewLogger("error", "")
	verifier := auth.NewVerifier("test-secret", st)
	chat := service.NewChatService(st, registry.NewRegistry(), activity.NewTracker(), nil, nil, log)

	srv := httptest.NewServer(SetupWebSocketRoutes(WSConfig{
		ChatService: chat,
		Verifier:    verifier,
		RootCtx:     logger.NewContext(context.Background(), log),
	}))
	t.Cleanup(srv.Close)
	return srv, verifier, st
}

func wsURL(srv *httptest.Server, query string) string {
	return strings.Replace(srv.URL, "http://", "ws://", 1) + "/ws" + query
}

// A plain HTTP request fails the upgrade; the handler must not write a
// second response on top of the one the upgrader already sent.
func TestHandleWebSocketRejectsPlainHTTP(t *testing.T) {
	srv, _, _ := setupServer(t)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleWebSocketUnauthorized(t *testing.T) {
	srv, _, _ := setupServer(t)

	conn, _, err := gws.DefaultDialer.Dial(wsURL(srv, "?token=bogus"), nil)
	require.NoError(t, err)
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	closeErr, ok := err.(*gws.CloseError)
	require.True(t, ok, "expected a close frame, got %v", err)
	assert.Equal(t, gws.ClosePolicyViolation, closeErr.Code)
	assert.Equal(t, "unauthorized", closeErr.Text)
}

func TestHandleWebSocketAuthenticated(t *testing.T) {
	srv, verifier, st := setupServer(t)
	require.NoError(t, st.CreateUser(context.Background(), &store.User{
		ID: "u1", Nickname: "alice", Email: "a@x", PasswordHash: "h", Role: "user",
	}))

	token, err := verifier.Issue("u1", "alice")
	require.NoError(t, err)

	conn, _, err := gws.DefaultDialer.Dial(wsURL(srv, "?token="+token), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(domain.ChatMessage{Type: domain.MessageTypeRoomList}))

	var reply domain.ChatMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, domain.MessageTypeRooms, reply.Type)
}
