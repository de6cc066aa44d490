package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"civiceye/backend/internal/api/handler"
	"civiceye/backend/internal/auth"
	"civiceye/backend/internal/hub"
	"civiceye/backend/internal/models"
	"civiceye/backend/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type feedSubscriber struct {
	feed chan models.Event
	err  error
}

func (s *feedSubscriber) Subscribe(context.Context) (<-chan models.Event, error) {
	return s.feed, s.err
}

type wsServer struct {
	url    string
	hub    *hub.ManagerService
	tokens *auth.TokenIssuer
}

func newWSServer(t *testing.T, sub *feedSubscriber, origins []string) *wsServer {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	store := new(testutil.MockStorage)

	m := hub.NewManagerService(sub, logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	started := make(chan error, 1)
	go func() { started <- m.Run(ctx) }()
	if sub.err != nil {
		require.Error(t, <-started)
	}

	h := &handler.Handler{
		Accounts:       auth.NewAccounts(store, tokens, "key", logger),
		Storage:        store,
		Hub:            m,
		Logger:         logger,
		AllowedOrigins: origins,
	}
	r := gin.New()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &wsServer{url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", hub: m, tokens: tokens}
}

func (s *wsServer) dial(t *testing.T, role models.Role, origin string) (*websocket.Conn, *http.Response, error) {
	tok, err := s.tokens.Issue(&models.Profile{ID: "user-" + string(role), Role: role})
	require.NoError(t, err)
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(s.url+"?token="+tok, header)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func TestServeWebSocket_DeliversEvents(t *testing.T) {
	sub := &feedSubscriber{feed: make(chan models.Event)}
	s := newWSServer(t, sub, []string{"https://dash.civiceye.in"})

	conn, _, err := s.dial(t, models.RoleAuthority, "https://dash.civiceye.in")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	sub.feed <- models.Event{Type: models.EventComplaintUpdated, TrackingID: "CIV-ABC123"}

	var e models.Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&e))
	assert.Equal(t, models.EventComplaintUpdated, e.Type)
	assert.Equal(t, "CIV-ABC123", e.TrackingID)
}

func TestServeWebSocket_RejectsUnknownOrigin(t *testing.T) {
	s := newWSServer(t, &feedSubscriber{feed: make(chan models.Event)}, []string{"https://dash.civiceye.in"})

	_, resp, err := s.dial(t, models.RoleAuthority, "https://evil.example")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServeWebSocket_CitizenForbidden(t *testing.T) {
	s := newWSServer(t, &feedSubscriber{feed: make(chan models.Event)}, []string{"*"})

	_, resp, err := s.dial(t, models.RoleCitizen, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServeWebSocket_StoppedHubClosesConnection(t *testing.T) {
	s := newWSServer(t, &feedSubscriber{err: errors.New("redis down")}, []string{"*"})

	conn, _, err := s.dial(t, models.RoleAuthority, "")
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "connection should be closed, not left hanging")
	}
}
