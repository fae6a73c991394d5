package chain

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/marketplace/internal/domain"
)

func TestSimulatorRecordsEvents(t *testing.T) {
	sim := NewSimulator("http://localhost:9944", "5CiPPseXPECbkjWCa6MnjNokrgYjMqmKndv2rSnekmSK2DjL", 5)
	ctx := context.Background()

	in := &domain.Interaction{
		InteractionID: 1,
		AgentID:       2,
		Caller:        "wallet",
		Query:         strings.Repeat("x", 500),
		Status:        domain.InteractionStatusPending,
		FeePaid:       1000000000,
	}
	require.NoError(t, sim.RecordQuery(ctx, in))

	resp := "hola"
	in.Status = domain.InteractionStatusCompleted
	in.Response = &resp
	require.NoError(t, sim.RecordResponse(ctx, in))

	events := sim.Events()
	require.Len(t, events, 2)
	assert.Equal(t, EventQuerySubmitted, events[0].Type)
	assert.Equal(t, uint64(50000000), events[0].PlatformFee)
	assert.Equal(t, uint64(950000000), events[0].AgentFee)
	assert.True(t, strings.HasPrefix(events[0].TxHash, "0x"))
	assert.Equal(t, EventResponseSubmitted, events[1].Type)
	assert.Equal(t, domain.InteractionStatusCompleted, events[1].Status)
	assert.NotEqual(t, events[0].TxHash, events[1].TxHash)
}

func TestSimulatorHonoursContext(t *testing.T) {
	sim := NewSimulator("", "", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, sim.RecordQuery(ctx, &domain.Interaction{}))
	assert.Empty(t, sim.Events())
}

func TestSplitClampsPercent(t *testing.T) {
	platform, agent := NewSimulator("", "", 250).Split(1000)
	assert.Equal(t, uint64(1000), platform)
	assert.Equal(t, uint64(0), agent)

	platform, agent = NewSimulator("", "", 3).Split(199)
	assert.Equal(t, uint64(5), platform)
	assert.Equal(t, uint64(194), agent)
}

func TestFormatPriceAndTruncate(t *testing.T) {
	assert.Equal(t, "0.1000 DOT", FormatPrice(1000000000))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "héé...", Truncate("hééllo", 3))
	assert.Equal(t, "日本語", Truncate("日本語", 3))

	cut := Truncate(strings.Repeat("é", 200), 100)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, 103, utf8.RuneCountInString(cut))
	assert.Equal(t, "localhost:9944", nodeHost("ws://localhost:9944"))
}

func TestSimulatorKeepsRecentEvents(t *testing.T) {
	sim := NewSimulator("", "", 5)
	sim.SetMaxEvents(3)
	ctx := context.Background()

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, sim.RecordQuery(ctx, &domain.Interaction{InteractionID: i, Status: domain.InteractionStatusPending}))
	}

	events := sim.Events()
	require.Len(t, events, 3)
	assert.Equal(t, uint64(3), events[0].InteractionID)
	assert.Equal(t, uint64(5), events[2].InteractionID)

	sim.SetMaxEvents(1)
	events = sim.Events()
	require.Len(t, events, 1)
	assert.Equal(t, uint64(5), events[0].InteractionID)
}
