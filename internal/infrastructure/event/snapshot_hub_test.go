package event

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotHub_SubscribeAndBroadcast(t *testing.T) {
	hub := NewSnapshotHub()
	projectID := uuid.New()

	ch, cancel := hub.Subscribe(projectID)
	defer cancel()

	hub.Broadcast(projectID)

	select {
	case got := <-ch:
		assert.Equal(t, projectID, got)
	default:
		t.Fatal("expected a notification")
	}
}

func TestSnapshotHub_NotifyImplementsNotifier(t *testing.T) {
	hub := NewSnapshotHub()
	projectID := uuid.New()

	ch, cancel := hub.Subscribe(projectID)
	defer cancel()

	require.NoError(t, hub.Notify(context.Background(), projectID))
	assert.Len(t, ch, 1)
}

func TestSnapshotHub_OnlyMatchingProjectNotified(t *testing.T) {
	hub := NewSnapshotHub()
	first := uuid.New()
	second := uuid.New()

	firstCh, cancelFirst := hub.Subscribe(first)
	defer cancelFirst()
	secondCh, cancelSecond := hub.Subscribe(second)
	defer cancelSecond()

	hub.Broadcast(first)

	assert.Len(t, firstCh, 1)
	assert.Empty(t, secondCh)
}

func TestSnapshotHub_CancelStopsDelivery(t *testing.T) {
	hub := NewSnapshotHub()
	projectID := uuid.New()

	ch, cancel := hub.Subscribe(projectID)
	cancel()

	hub.Broadcast(projectID)

	assert.Empty(t, ch)
	assert.Zero(t, hub.SubscriberCount(projectID))
}

func TestSnapshotHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewSnapshotHub()
	projectID := uuid.New()

	ch, cancel := hub.Subscribe(projectID)
	defer cancel()

	// Overflow the buffer, extra notifications are dropped not queued
	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Broadcast(projectID)
	}

	assert.Len(t, ch, subscriberBuffer)
}

func TestSnapshotHub_MultipleSubscribersSameProject(t *testing.T) {
	hub := NewSnapshotHub()
	projectID := uuid.New()

	firstCh, cancelFirst := hub.Subscribe(projectID)
	defer cancelFirst()
	secondCh, cancelSecond := hub.Subscribe(projectID)
	defer cancelSecond()

	require.Equal(t, 2, hub.SubscriberCount(projectID))

	hub.Broadcast(projectID)

	assert.Len(t, firstCh, 1)
	assert.Len(t, secondCh, 1)
}
