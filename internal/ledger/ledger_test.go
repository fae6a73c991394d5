package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/marketplace/internal/domain"
	"github.com/xiaot623/gogo/marketplace/internal/repository"
)

func ledgers(t *testing.T) map[string]*Ledger {
	t.Helper()

	db, err := repository.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	return map[string]*Ledger{
		"memory": New(repository.NewMemoryStore()),
		"sqlite": New(db),
	}
}

func TestCreateThenGetIsPending(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, err := l.Create(ctx, 1, "wallet", "hello", 1000000000)
			require.NoError(t, err)

			in, err := l.Get(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, in)
			assert.Equal(t, domain.InteractionStatusPending, in.Status)
			assert.Nil(t, in.Response)
			assert.Equal(t, uint64(1000000000), in.FeePaid)
			assert.Equal(t, "wallet", in.Caller)
		})
	}
}

func TestTerminalStatusIsSticky(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, _ := l.Create(ctx, 1, "wallet", "hello", 1)

			require.NoError(t, l.Complete(ctx, id, "hi"))
			assert.ErrorIs(t, l.Complete(ctx, id, "again"), domain.ErrAlreadyTerminal)
			assert.ErrorIs(t, l.Fail(ctx, id, "sorry"), domain.ErrAlreadyTerminal)

			in, _ := l.Get(ctx, id)
			assert.Equal(t, domain.InteractionStatusCompleted, in.Status)
			assert.Equal(t, "hi", *in.Response)
			assert.NotNil(t, in.CompletedAt)

			failed, _ := l.Create(ctx, 1, "wallet", "hello", 1)
			require.NoError(t, l.Fail(ctx, failed, "sorry"))
			assert.ErrorIs(t, l.Complete(ctx, failed, "late"), domain.ErrAlreadyTerminal)

			in, _ = l.Get(ctx, failed)
			assert.Equal(t, domain.InteractionStatusFailed, in.Status)
			assert.Nil(t, in.Response)
			assert.Equal(t, "sorry", in.DisplayText())
		})
	}
}

func TestFinishUnknownInteraction(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, l.Complete(context.Background(), 42, "x"), domain.ErrInteractionNotFound)
			assert.ErrorIs(t, l.Fail(context.Background(), 42, "x"), domain.ErrInteractionNotFound)

			in, err := l.Get(context.Background(), 42)
			assert.NoError(t, err)
			assert.Nil(t, in)
		})
	}
}

func TestConcurrentCreateIssuesUniqueIDs(t *testing.T) {
	l := New(repository.NewMemoryStore())
	ctx := context.Background()

	const n = 200
	ids := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := l.Create(ctx, uint32(i%5+1), "wallet", "q", 1)
			assert.NoError(t, err)
			ids <- id
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	count, err := l.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)
}

func TestPruneKeepsPendingAndRecent(t *testing.T) {
	l := New(repository.NewMemoryStore())
	ctx := context.Background()
	base := time.Unix(1700000000, 0)
	l.now = func() time.Time { return base }

	old, _ := l.Create(ctx, 1, "w", "q", 1)
	require.NoError(t, l.Complete(ctx, old, "r"))
	stillPending, _ := l.Create(ctx, 1, "w", "q", 1)

	l.now = func() time.Time { return base.Add(time.Hour) }
	recent, _ := l.Create(ctx, 1, "w", "q", 1)
	require.NoError(t, l.Fail(ctx, recent, "m"))

	removed, err := l.Prune(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	in, _ := l.Get(ctx, old)
	assert.Nil(t, in)
	in, _ = l.Get(ctx, stillPending)
	assert.NotNil(t, in)
	in, _ = l.Get(ctx, recent)
	assert.NotNil(t, in)

	list, err := l.ListByCaller(ctx, "w")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	list, err = l.ListByAgent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestPruneSubSecondRetention(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Unix(1700000000, 0)
			l.now = func() time.Time { return base }

			id, _ := l.Create(ctx, 1, "w", "q", 1)
			require.NoError(t, l.Complete(ctx, id, "r"))

			l.now = func() time.Time { return base.Add(500 * time.Millisecond) }
			removed, err := l.Prune(ctx, 100*time.Millisecond)
			require.NoError(t, err)
			assert.Equal(t, 0, removed)

			l.now = func() time.Time { return base.Add(2 * time.Second) }
			removed, err = l.Prune(ctx, 100*time.Millisecond)
			require.NoError(t, err)
			assert.Equal(t, 1, removed)
		})
	}
}
