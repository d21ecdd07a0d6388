package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynchronousEmitPersistsImmediately(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store)

	err := publisher.Emit(context.Background(), Event{
		CandidateID: "cert-2026-0001",
		Action:      string(EventCredentialIssued),
		Decision:    "issued",
	})
	require.NoError(t, err)

	events, err := publisher.List(context.Background(), "cert-2026-0001")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(EventCredentialIssued), events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero(), "missing timestamps are filled in on emit")
}

func TestAsyncEmitDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store, WithAsyncBuffer(16))

	for i := 0; i < 5; i++ {
		require.NoError(t, publisher.Emit(context.Background(), Event{
			CandidateID: "cert-2026-0002",
			Action:      string(EventVerificationDecision),
			Decision:    "admitted",
			Timestamp:   time.Now(),
		}))
	}
	publisher.Close()

	events, err := store.ListByCandidate(context.Background(), "cert-2026-0002")
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestAsyncEmitDropsWhenBufferFull(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store, WithAsyncBuffer(1))

	// Flooding a tiny buffer must never block the caller.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = publisher.Emit(context.Background(), Event{CandidateID: "cert-2026-0003", Action: "flood"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit blocked on a full buffer")
	}
	publisher.Close()
}

func TestListIsScopedToCandidate(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store)

	require.NoError(t, publisher.Emit(context.Background(), Event{CandidateID: "cert-a", Action: "x"}))
	require.NoError(t, publisher.Emit(context.Background(), Event{CandidateID: "cert-b", Action: "y"}))

	events, err := publisher.List(context.Background(), "cert-a")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "x", events[0].Action)
}
