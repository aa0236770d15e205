package services

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinetalk/internal/models"
	"cinetalk/internal/store"
)

func testFeedEntry(discussionID string, itemType models.ItemType, createdAt int64) models.FeedEntry {
	return models.FeedEntry{
		Type:            models.FeedEntryDiscussionCreated,
		DiscussionID:    discussionID,
		DiscussionTitle: "title " + discussionID,
		UserID:          "uid-a",
		Username:        "alice",
		ItemType:        itemType,
		ItemID:          1,
		ItemTitle:       "item",
		CreatedAt:       createdAt,
	}
}

func TestFeedQueryNewestFirst(t *testing.T) {
	svc := NewFeedService(store.NewMemory())

	require.NoError(t, svc.Append(testFeedEntry("d1", models.ItemTypeMovie, 100)))
	require.NoError(t, svc.Append(testFeedEntry("d2", models.ItemTypeSeries, 300)))
	require.NoError(t, svc.Append(testFeedEntry("d3", models.ItemTypeMovie, 200)))

	entries, err := svc.Query(models.FeedFilterAll, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "d2", entries[0].DiscussionID)
	assert.Equal(t, "d3", entries[1].DiscussionID)
	assert.Equal(t, "d1", entries[2].DiscussionID)
}

func TestFeedQueryFilter(t *testing.T) {
	svc := NewFeedService(store.NewMemory())

	require.NoError(t, svc.Append(testFeedEntry("d1", models.ItemTypeMovie, 100)))
	require.NoError(t, svc.Append(testFeedEntry("d2", models.ItemTypeSeries, 300)))
	require.NoError(t, svc.Append(testFeedEntry("d3", models.ItemTypeMovie, 200)))

	entries, err := svc.Query(models.FeedFilterMovie, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Still newest first even though the store ordered by itemType.
	assert.Equal(t, "d3", entries[0].DiscussionID)
	assert.Equal(t, "d1", entries[1].DiscussionID)
}

func TestFeedQueryLimit(t *testing.T) {
	svc := NewFeedService(store.NewMemory())

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, svc.Append(testFeedEntry("d", models.ItemTypeMovie, i*100)))
	}

	entries, err := svc.Query(models.FeedFilterAll, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(500), entries[0].CreatedAt)
	assert.Equal(t, int64(400), entries[1].CreatedAt)
}

func TestFeedPurge(t *testing.T) {
	svc := NewFeedService(store.NewMemory())

	require.NoError(t, svc.Append(testFeedEntry("doomed", models.ItemTypeMovie, 100)))
	require.NoError(t, svc.Append(testFeedEntry("doomed", models.ItemTypeMovie, 200)))
	require.NoError(t, svc.Append(testFeedEntry("keeper", models.ItemTypeSeries, 300)))

	require.NoError(t, svc.Purge("doomed"))

	entries, err := svc.Query(models.FeedFilterAll, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keeper", entries[0].DiscussionID)

	// Purging again is a no-op.
	require.NoError(t, svc.Purge("doomed"))
}

func TestFeedStreamCloseUnblocksForwarder(t *testing.T) {
	svc := NewFeedService(store.NewMemory())

	before := runtime.NumGoroutine()
	stream := svc.Subscribe(models.FeedFilterAll, 10)

	// Never read a snapshot, so the forwarding goroutine is parked in its
	// send when the stream is closed.
	require.NoError(t, svc.Append(testFeedEntry("d1", models.ItemTypeMovie, 100)))
	stream.Close()

	// Poll from the test goroutine: Eventually runs its condition in a
	// goroutine of its own, which inflates NumGoroutine past before.
	deadline := time.Now().Add(time.Second)
	for runtime.NumGoroutine() > before {
		if time.Now().After(deadline) {
			t.Fatalf("forwarder goroutine still running: %d > %d", runtime.NumGoroutine(), before)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestFeedSubscribe(t *testing.T) {
	svc := NewFeedService(store.NewMemory())

	stream := svc.Subscribe(models.FeedFilterAll, 10)
	defer stream.Close()

	select {
	case entries := <-stream.Snapshots():
		assert.Empty(t, entries)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	require.NoError(t, svc.Append(testFeedEntry("d1", models.ItemTypeMovie, 100)))

	deadline := time.After(time.Second)
	for {
		select {
		case entries := <-stream.Snapshots():
			if len(entries) == 1 && entries[0].DiscussionID == "d1" {
				return
			}
		case <-deadline:
			t.Fatal("snapshot with new entry never arrived")
		}
	}
}
