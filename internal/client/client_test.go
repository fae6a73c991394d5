package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/marketplace/internal/adapter/inference"
	"github.com/xiaot623/gogo/marketplace/internal/config"
	"github.com/xiaot623/gogo/marketplace/internal/domain"
	"github.com/xiaot623/gogo/marketplace/internal/metrics"
	gateway "github.com/xiaot623/gogo/marketplace/internal/transport/http"
	"github.com/xiaot623/gogo/marketplace/tests/helpers"
)

func newTestClient(t *testing.T, opts helpers.ServiceOptions) *Client {
	t.Helper()

	svc, _ := helpers.NewTestService(t, opts)
	srv := httptest.NewServer(gateway.NewGatewayServer(svc, &config.Config{}, metrics.New()))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

type heldGenerator struct {
	key     domain.ModelKey
	release chan struct{}
}

func (g *heldGenerator) Key() domain.ModelKey { return g.key }

func (g *heldGenerator) Generate(ctx context.Context, input string) (string, error) {
	<-g.release
	return input + " done", nil
}

func heldLoader(release chan struct{}) inference.Loader {
	return inference.LoaderFunc(func(ctx context.Context, key domain.ModelKey) (inference.Model, error) {
		return &heldGenerator{key: key, release: release}, nil
	})
}

func TestListAndGetAgents(t *testing.T) {
	c := newTestClient(t, helpers.ServiceOptions{})
	ctx := context.Background()

	agents, err := c.ListAgents(ctx)
	require.NoError(t, err)
	assert.Len(t, agents, 5)

	agent, err := c.GetAgent(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, agent)
	assert.Equal(t, domain.CapabilityJobApplication, agent.Capability)

	agent, err = c.GetAgent(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, agent)
}

func TestSubmitAndPoll(t *testing.T) {
	c := newTestClient(t, helpers.ServiceOptions{})
	ctx := context.Background()

	res, err := c.Submit(ctx, domain.QueryRequest{AgentID: 2, Query: "translate from english to french: hello", WalletAddress: "w"})
	require.NoError(t, err)
	assert.Equal(t, domain.InteractionStatusPending, res.Status)

	in, err := c.Poll(ctx, res.InteractionID, 20*time.Millisecond, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.InteractionStatusCompleted, in.Status)
	assert.Equal(t, "[en-fr] hello", in.DisplayText())
}

func TestSubmitRejected(t *testing.T) {
	c := newTestClient(t, helpers.ServiceOptions{})

	_, err := c.Submit(context.Background(), domain.QueryRequest{AgentID: 4, Query: "summarize: tiny", WalletAddress: "w"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "too_short", apiErr.Code)
	assert.Equal(t, "The text is too short to summarize. Please provide a longer text.", apiErr.Detail)
}

func TestPollTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	c := newTestClient(t, helpers.ServiceOptions{Loader: heldLoader(release)})
	ctx := context.Background()

	res, err := c.Submit(ctx, domain.QueryRequest{AgentID: 1, Query: "hello", WalletAddress: "w"})
	require.NoError(t, err)

	in, err := c.Poll(ctx, res.InteractionID, 10*time.Millisecond, 3)
	assert.ErrorIs(t, err, ErrPollTimeout)
	require.NotNil(t, in)
	assert.Equal(t, domain.InteractionStatusPending, in.Status)
}

func TestPollUnknownInteraction(t *testing.T) {
	c := newTestClient(t, helpers.ServiceOptions{})

	in, err := c.GetInteraction(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, in)

	_, err = c.Poll(context.Background(), 404, 10*time.Millisecond, 3)
	assert.ErrorIs(t, err, domain.ErrInteractionNotFound)
}

func TestPollContextCancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	c := newTestClient(t, helpers.ServiceOptions{Loader: heldLoader(release)})

	res, err := c.Submit(context.Background(), domain.QueryRequest{AgentID: 1, Query: "hello", WalletAddress: "w"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = c.Poll(ctx, res.InteractionID, 10*time.Millisecond, 1000)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "unexpected error: %v", err)
}

func TestWatch(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, helpers.ServiceOptions{Loader: heldLoader(release)})
	ctx := context.Background()

	res, err := c.Submit(ctx, domain.QueryRequest{AgentID: 1, Query: "hello", WalletAddress: "w"})
	require.NoError(t, err)

	var events []domain.EventType
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	in, err := c.Watch(ctx, res.InteractionID, func(ev domain.InteractionEvent) {
		events = append(events, ev.Type)
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InteractionStatusCompleted, in.Status)
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventTypeInteractionDone, events[len(events)-1])
}

func TestServerErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream down")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.ListAgents(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Detail)
}
