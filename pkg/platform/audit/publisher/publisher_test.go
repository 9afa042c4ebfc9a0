package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "safereturn/pkg/domain"
	audit "safereturn/pkg/platform/audit"
	"safereturn/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	personID := id.PersonID(uuid.New())
	event := audit.Event{
		PersonID: personID,
		Action:   string(audit.EventPersonRegistered),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), personID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventPersonRegistered), events[0].Action)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	personID := id.PersonID(uuid.New())
	event := audit.Event{
		PersonID: personID,
		Action:   string(audit.EventCheckinSubmitted),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	// Wait for async processing
	time.Sleep(100 * time.Millisecond)

	events, err := pub.List(context.Background(), personID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventCheckinSubmitted), events[0].Action)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	personID := id.PersonID(uuid.New())

	for range 10 {
		event := audit.Event{
			PersonID: personID,
			Action:   string(audit.EventRiskTierChanged),
		}
		err := pub.Emit(context.Background(), event)
		require.NoError(t, err)
	}

	// Close should drain all events
	pub.Close()

	events, err := store.ListByPerson(context.Background(), personID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	personID := id.PersonID(uuid.New())

	// Flood a tiny buffer with concurrent writes; some emissions fail with
	// ErrBufferFull, none may block or panic.
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			event := audit.Event{
				PersonID: personID,
				Action:   string(audit.EventCheckinSubmitted),
			}
			_ = pub.Emit(context.Background(), event)
		}()
	}
	wg.Wait()
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	personID := id.PersonID(uuid.New())
	event := audit.Event{
		PersonID: personID,
		Action:   string(audit.EventPersonRegistered),
		// Timestamp not set
	}

	before := time.Now()
	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)
	after := time.Now()

	events, err := pub.List(context.Background(), personID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.True(t, !events[0].Timestamp.Before(before), "timestamp should be >= before")
	assert.True(t, !events[0].Timestamp.After(after), "timestamp should be <= after")
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	personID := id.PersonID(uuid.New())
	customTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	event := audit.Event{
		PersonID:  personID,
		Action:    string(audit.EventPersonRegistered),
		Timestamp: customTime,
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), personID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_MultipleEvents(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	personID := id.PersonID(uuid.New())

	events := []audit.Event{
		{PersonID: personID, Action: string(audit.EventPersonRegistered)},
		{PersonID: personID, Action: string(audit.EventProfileCreated)},
		{PersonID: personID, Action: string(audit.EventCheckinSubmitted)},
	}

	for _, event := range events {
		err := pub.Emit(context.Background(), event)
		require.NoError(t, err)
	}

	result, err := pub.List(context.Background(), personID)
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, string(audit.EventPersonRegistered), result[0].Action)
	assert.Equal(t, string(audit.EventProfileCreated), result[1].Action)
	assert.Equal(t, string(audit.EventCheckinSubmitted), result[2].Action)
}

func TestPublisher_DifferentPersons(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	personID1 := id.PersonID(uuid.New())
	personID2 := id.PersonID(uuid.New())

	err := pub.Emit(context.Background(), audit.Event{
		PersonID: personID1,
		Action:   string(audit.EventPersonRegistered),
	})
	require.NoError(t, err)

	err = pub.Emit(context.Background(), audit.Event{
		PersonID: personID2,
		Action:   string(audit.EventCaseCompleted),
	})
	require.NoError(t, err)

	events1, err := pub.List(context.Background(), personID1)
	require.NoError(t, err)
	require.Len(t, events1, 1)
	assert.Equal(t, string(audit.EventPersonRegistered), events1[0].Action)

	events2, err := pub.List(context.Background(), personID2)
	require.NoError(t, err)
	require.Len(t, events2, 1)
	assert.Equal(t, string(audit.EventCaseCompleted), events2[0].Action)
}
