package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	audit "condo/pkg/platform/audit"
	"condo/pkg/platform/audit/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	manager = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	alice   = "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		Actor:  manager,
		Action: string(audit.EventResidentAdded),
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), manager)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventResidentAdded), events[0].Action)
	assert.Equal(t, audit.CategoryGovernance, events[0].Category)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		Actor:  alice,
		Action: string(audit.EventQuotaPaid),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		events, err := pub.List(context.Background(), alice)
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	events, err := pub.List(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, audit.CategoryFinancial, events[0].Category)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			Actor:  alice,
			Action: string(audit.EventVoteCast),
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListByActor(context.Background(), alice)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_EmitAfterCloseWritesThrough(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	pub.Close()
	pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{Actor: alice, Action: "late"}))

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		dropped int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{
				Actor:  alice,
				Action: string(audit.EventVoteCast),
			})
			if errors.Is(err, ErrBufferFull) {
				mu.Lock()
				dropped++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	pub.Close()

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, len(events)+dropped, "every event is either stored or reported as dropped")
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithClock(func() time.Time { return fixed }))
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Actor:  manager,
		Action: string(audit.EventTopicAdded),
	}))

	events, err := pub.List(context.Background(), manager)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, fixed, events[0].Timestamp)
}

func TestPublisher_PreservesExistingTimestampAndCategory(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Actor:     manager,
		Action:    string(audit.EventTopicAdded),
		Timestamp: customTime,
		Category:  audit.CategorySecurity,
	}))

	events, err := pub.List(context.Background(), manager)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
}

func TestPublisher_ContextCancellation(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pub.Emit(ctx, audit.Event{Actor: alice, Action: string(audit.EventVoteCast)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublisher_RecentIsNewestFirst(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	for _, action := range []audit.AuditEvent{audit.EventTopicAdded, audit.EventVotingOpened, audit.EventVotingClosed} {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Actor: manager, Action: string(action)}))
	}

	result, err := pub.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, string(audit.EventVotingClosed), result[0].Action)
	assert.Equal(t, string(audit.EventVotingOpened), result[1].Action)
}

func TestPublisher_DifferentActors(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{Actor: manager, Action: string(audit.EventTopicAdded)}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Actor: alice, Action: string(audit.EventVoteCast)}))

	events1, err := pub.List(context.Background(), manager)
	require.NoError(t, err)
	require.Len(t, events1, 1)
	assert.Equal(t, string(audit.EventTopicAdded), events1[0].Action)

	events2, err := pub.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, events2, 1)
	assert.Equal(t, string(audit.EventVoteCast), events2[0].Action)
}
