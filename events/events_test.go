package events

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mahjongbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionalBus_FlushDeliversToMainBus(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan WindSelectedEvent, 1)
	mainBus.Subscribe(EventTypeWindSelected, func(ctx context.Context, event Event) {
		if e, ok := event.(WindSelectedEvent); ok {
			received <- e
		} else {
			t.Errorf("expected WindSelectedEvent, got %T", event)
		}
	})

	sent := WindSelectedEvent{
		SessionID:      7,
		GroupID:        "G1",
		ExternalUserID: "U1",
		Nickname:       "阿明",
		Wind:           models.WindEast,
	}
	transactionalBus.Publish(sent)
	assert.Equal(t, 1, transactionalBus.Pending())

	transactionalBus.Flush(context.Background())
	assert.Equal(t, 0, transactionalBus.Pending())

	select {
	case got := <-received:
		assert.Equal(t, sent, got)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestTransactionalBus_FlushKeepsOrderPerHandler(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var mu sync.Mutex
	var seats []int
	mainBus.Subscribe(EventTypeParticipantJoined, func(ctx context.Context, event Event) {
		mu.Lock()
		defer mu.Unlock()
		seats = append(seats, event.(ParticipantJoinedEvent).SeatNumber)
	})

	for seat := 1; seat <= 3; seat++ {
		transactionalBus.Publish(ParticipantJoinedEvent{SessionID: 1, SeatNumber: seat})
	}
	transactionalBus.Flush(context.Background())
	mainBus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []int{1, 2, 3}, seats)
}

func TestTransactionalBus_Discard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var delivered atomic.Int32
	mainBus.SubscribeAll(func(ctx context.Context, event Event) {
		delivered.Add(1)
	})

	transactionalBus.Publish(SessionCreatedEvent{SessionID: 1, GroupID: "G1"})
	transactionalBus.Publish(SessionStartedEvent{SessionID: 1, GroupID: "G1"})
	transactionalBus.Discard()
	transactionalBus.Flush(context.Background())
	mainBus.Wait()

	assert.Equal(t, int32(0), delivered.Load())
}

func TestBus_RecoversFromPanickingHandler(t *testing.T) {
	bus := NewBus()

	var delivered atomic.Int32
	bus.Subscribe(EventTypeSessionFinished, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeSessionFinished, func(ctx context.Context, event Event) {
		delivered.Add(1)
	})

	require.NotPanics(t, func() {
		bus.Emit(context.Background(), SessionFinishedEvent{SessionID: 1})
		bus.Wait()
	})
	assert.Equal(t, int32(1), delivered.Load())
}

func TestBus_FlushContextSurvivesCancellation(t *testing.T) {
	bus := NewBus()
	transactionalBus := NewTransactionalBus(bus)

	ctxErr := make(chan error, 1)
	bus.Subscribe(EventTypeProfileNicknameChanged, func(ctx context.Context, event Event) {
		ctxErr <- ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	transactionalBus.Publish(ProfileNicknameChangedEvent{ExternalUserID: "U1", Nickname: "阿明"})
	transactionalBus.Flush(ctx)
	cancel()
	bus.Wait()

	assert.NoError(t, <-ctxErr)
}

func TestAllEventTypes(t *testing.T) {
	types := AllEventTypes()
	assert.Len(t, types, 7)
	assert.Contains(t, types, EventTypeSessionStarted)
}
