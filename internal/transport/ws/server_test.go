package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/marketplace/internal/adapter/inference"
	"github.com/xiaot623/gogo/marketplace/internal/domain"
	"github.com/xiaot623/gogo/marketplace/internal/service"
	"github.com/xiaot623/gogo/marketplace/tests/helpers"
)

type gatedGenerator struct {
	key     domain.ModelKey
	release chan struct{}
}

func (g *gatedGenerator) Key() domain.ModelKey { return g.key }

func (g *gatedGenerator) Generate(ctx context.Context, input string) (string, error) {
	<-g.release
	return input + " done", nil
}

func newTestServer(t *testing.T, opts helpers.ServiceOptions) (*service.Service, *httptest.Server) {
	t.Helper()

	svc, _ := helpers.NewTestService(t, opts)
	cfg := DefaultConfig()
	cfg.PollInterval = 10 * time.Millisecond

	e := echo.New()
	NewServer(svc, cfg).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return svc, srv
}

func dial(t *testing.T, srv *httptest.Server, id string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/interactions/" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestWatchPushesChangesAndCloses(t *testing.T) {
	release := make(chan struct{})
	loader := inference.LoaderFunc(func(ctx context.Context, key domain.ModelKey) (inference.Model, error) {
		return &gatedGenerator{key: key, release: release}, nil
	})
	svc, srv := newTestServer(t, helpers.ServiceOptions{Loader: loader})

	res, err := svc.Submit(context.Background(), service.SubmitRequest{AgentID: 1, Query: "hello", Caller: "w"})
	require.NoError(t, err)

	conn := dial(t, srv, "1")

	var first domain.InteractionEvent
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, domain.EventTypeInteractionSnapshot, first.Type)
	require.NotNil(t, first.Interaction)
	assert.Equal(t, res.InteractionID, first.Interaction.InteractionID)
	assert.Equal(t, domain.InteractionStatusPending, first.Interaction.Status)

	close(release)

	var done domain.InteractionEvent
	require.NoError(t, conn.ReadJSON(&done))
	assert.Equal(t, domain.EventTypeInteractionDone, done.Type)
	assert.Equal(t, domain.InteractionStatusCompleted, done.Interaction.Status)
	assert.NotEmpty(t, done.DisplayText)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
}

func TestWatchTerminalInteractionClosesImmediately(t *testing.T) {
	svc, srv := newTestServer(t, helpers.ServiceOptions{})

	res, err := svc.Submit(context.Background(), service.SubmitRequest{AgentID: 3, Query: "I love it", Caller: "w"})
	require.NoError(t, err)
	_, err = svc.WaitInteraction(context.Background(), res.InteractionID, 3*time.Second)
	require.NoError(t, err)

	conn := dial(t, srv, "1")

	var ev domain.InteractionEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, domain.EventTypeInteractionDone, ev.Type)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
}

func TestWatchUnknownInteraction(t *testing.T) {
	_, srv := newTestServer(t, helpers.ServiceOptions{})

	resp, err := http.Get(srv.URL + "/ws/interactions/99")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/ws/interactions/nope")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}
