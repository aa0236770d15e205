package services

import (
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinetalk/internal/models"
)

func TestReplyCreateRequiresAuth(t *testing.T) {
	env := newTestEnv()

	id, err := env.threads.Create(userA, seriesRef, models.ItemMeta{}, "t", "c", false)
	require.NoError(t, err)

	_, err = env.replies.Create(nil, seriesRef, models.ItemMeta{}, id, "hi", false)
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestReplyCreateMissingDiscussion(t *testing.T) {
	env := newTestEnv()

	_, err := env.replies.Create(userA, seriesRef, models.ItemMeta{}, "nope", "hi", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplyCreateBumpsParent(t *testing.T) {
	env := newTestEnv()

	id, err := env.threads.Create(userA, seriesRef, models.ItemMeta{}, "t", "c", false)
	require.NoError(t, err)

	replyID, err := env.replies.Create(userB, seriesRef, models.ItemMeta{}, id, "totally", false)
	require.NoError(t, err)
	require.NotEmpty(t, replyID)

	d, err := env.threads.Get(seriesRef, id)
	require.NoError(t, err)
	assert.Equal(t, 1, d.ReplyCount)
	assert.NotZero(t, d.LastReplyAt)
}

func TestReplyCountAfterCreatesAndDeletes(t *testing.T) {
	env := newTestEnv()

	id, err := env.threads.Create(userA, seriesRef, models.ItemMeta{}, "t", "c", false)
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 3; i++ {
		rid, err := env.replies.Create(userB, seriesRef, models.ItemMeta{}, id, "r", false)
		require.NoError(t, err)
		ids = append(ids, rid)
	}
	require.NoError(t, env.replies.Delete(userB, seriesRef, id, ids[1]))

	d, err := env.threads.Get(seriesRef, id)
	require.NoError(t, err)
	assert.Equal(t, 2, d.ReplyCount)
	assert.GreaterOrEqual(t, d.ReplyCount, 0)

	list, err := env.replies.List(id)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestReplyListOrdering(t *testing.T) {
	env := newTestEnv()

	id, err := env.threads.Create(userA, seriesRef, models.ItemMeta{}, "t", "c", false)
	require.NoError(t, err)

	first, err := env.replies.Create(userB, seriesRef, models.ItemMeta{}, id, "one", false)
	require.NoError(t, err)
	second, err := env.replies.Create(userA, seriesRef, models.ItemMeta{}, id, "two", false)
	require.NoError(t, err)
	third, err := env.replies.Create(userB, seriesRef, models.ItemMeta{}, id, "three", false)
	require.NoError(t, err)

	// Oldest first; replies read top to bottom.
	list, err := env.replies.List(id)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{first, second, third}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestReplyDeleteOwnership(t *testing.T) {
	env := newTestEnv()

	id, err := env.threads.Create(userA, seriesRef, models.ItemMeta{}, "t", "c", false)
	require.NoError(t, err)
	replyID, err := env.replies.Create(userB, seriesRef, models.ItemMeta{}, id, "r", false)
	require.NoError(t, err)

	err = env.replies.Delete(userA, seriesRef, id, replyID)
	assert.ErrorIs(t, err, ErrNotOwnReply)

	// The rejected delete left the reply and the counter alone.
	d, err := env.threads.Get(seriesRef, id)
	require.NoError(t, err)
	assert.Equal(t, 1, d.ReplyCount)

	require.NoError(t, env.replies.Delete(userB, seriesRef, id, replyID))
	_, err = env.replies.Get(id, replyID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplyEditPatch(t *testing.T) {
	env := newTestEnv()

	id, err := env.threads.Create(userA, seriesRef, models.ItemMeta{}, "t", "c", false)
	require.NoError(t, err)
	replyID, err := env.replies.Create(userB, seriesRef, models.ItemMeta{}, id, "draft", false)
	require.NoError(t, err)

	content := "final"
	require.NoError(t, env.replies.Edit(userB, id, replyID, models.ReplyPatch{Content: &content}))

	r, err := env.replies.Get(id, replyID)
	require.NoError(t, err)
	assert.Equal(t, "final", r.Content)
	assert.NotZero(t, r.UpdatedAt)
}

func TestReplyCreateNotifiesDiscussionAuthor(t *testing.T) {
	env := newTestEnv()

	id, err := env.threads.Create(userA, seriesRef, models.ItemMeta{}, "Finale?", "wow", false)
	require.NoError(t, err)

	_, err = env.replies.Create(userB, seriesRef, models.ItemMeta{}, id, "totally", false)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		inbox, err := env.notify.List("uid-a")
		return err == nil && len(inbox) == 1 &&
			inbox[0].Type == models.NotificationTypeDiscussionReply &&
			!inbox[0].Read
	}, time.Second, 10*time.Millisecond)
}

func TestReplyToSelfProducesNoNotification(t *testing.T) {
	env := newTestEnv()

	id, err := env.threads.Create(userA, seriesRef, models.ItemMeta{}, "t", "c", false)
	require.NoError(t, err)
	_, err = env.replies.Create(userA, seriesRef, models.ItemMeta{}, id, "me again", false)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	inbox, err := env.notify.List("uid-a")
	require.NoError(t, err)
	assert.Empty(t, inbox)
}

func TestReplySubscribeDisabled(t *testing.T) {
	env := newTestEnv()

	stream := env.replies.Subscribe("whatever", false)
	list, ok := <-stream.Snapshots()
	assert.True(t, ok)
	assert.Empty(t, list)

	_, ok = <-stream.Snapshots()
	assert.False(t, ok)
}

func TestReplySubscribe(t *testing.T) {
	env := newTestEnv()

	id, err := env.threads.Create(userA, seriesRef, models.ItemMeta{}, "t", "c", false)
	require.NoError(t, err)

	stream := env.replies.Subscribe(id, true)
	defer stream.Close()

	select {
	case list := <-stream.Snapshots():
		assert.Empty(t, list)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	replyID, err := env.replies.Create(userB, seriesRef, models.ItemMeta{}, id, "r", false)
	require.NoError(t, err)

	deadline := time.After(time.Second)
	for {
		select {
		case list := <-stream.Snapshots():
			if len(list) == 1 && list[0].ID == replyID {
				return
			}
		case <-deadline:
			t.Fatal("snapshot with new reply never arrived")
		}
	}
}

func TestReplyStreamCloseUnblocksForwarder(t *testing.T) {
	env := newTestEnv()

	id, err := env.threads.Create(userA, seriesRef, models.ItemMeta{}, "t", "c", false)
	require.NoError(t, err)

	before := runtime.NumGoroutine()
	stream := env.replies.Subscribe(id, true)

	// The initial snapshot fills the one-slot buffer; the next one parks
	// the forwarder in its send until Close lets it go.
	_, err = env.replies.Create(userB, seriesRef, models.ItemMeta{}, id, "r", false)
	require.NoError(t, err)
	stream.Close()

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond)
}

func TestReplyFeedEntryPreview(t *testing.T) {
	env := newTestEnv()

	id, err := env.threads.Create(userA, seriesRef, models.ItemMeta{ItemTitle: "The Show"}, "Finale?", "wow", false)
	require.NoError(t, err)

	long := strings.Repeat("абвгд ", 20) // 120 runes
	_, err = env.replies.Create(userB, seriesRef, models.ItemMeta{ItemTitle: "The Show"}, id, long, false)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		entries, err := env.feed.Query(models.FeedFilterAll, 10)
		if err != nil {
			return false
		}
		for _, e := range entries {
			if e.Type == models.FeedEntryReplyCreated {
				want := string([]rune(strings.TrimSpace(long))[:50]) + "..."
				return e.ContentPreview == want && len([]rune(e.ContentPreview)) == 53
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestReplyToggleLikeIdempotent(t *testing.T) {
	env := newTestEnv()

	id, err := env.threads.Create(userA, seriesRef, models.ItemMeta{}, "t", "c", false)
	require.NoError(t, err)
	replyID, err := env.replies.Create(userB, seriesRef, models.ItemMeta{}, id, "r", false)
	require.NoError(t, err)

	liked, likes, err := env.replies.ToggleLike(userA, id, replyID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, likes)

	r, err := env.replies.Get(id, replyID)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"uid-a": true}, r.Likes)

	liked, likes, err = env.replies.ToggleLike(userA, id, replyID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, likes)
}

func TestDiscussionReplyLikeRoundTrip(t *testing.T) {
	env := newTestEnv()

	// A opens a thread on series item 42.
	id, err := env.threads.Create(userA, seriesRef, models.ItemMeta{ItemTitle: "The Show"}, "Finale?", "wow", false)
	require.NoError(t, err)

	d, err := env.threads.Get(seriesRef, id)
	require.NoError(t, err)
	require.Equal(t, 0, d.ReplyCount)

	// B replies; the thread's counter and lastReplyAt move, A gets an
	// inbox entry.
	replyID, err := env.replies.Create(userB, seriesRef, models.ItemMeta{ItemTitle: "The Show"}, id, "totally", false)
	require.NoError(t, err)

	d, err = env.threads.Get(seriesRef, id)
	require.NoError(t, err)
	assert.Equal(t, 1, d.ReplyCount)
	assert.NotZero(t, d.LastReplyAt)

	require.Eventually(t, func() bool {
		inbox, err := env.notify.List("uid-a")
		return err == nil && len(inbox) == 1 && inbox[0].Type == models.NotificationTypeDiscussionReply
	}, time.Second, 10*time.Millisecond)

	// A likes B's reply; exactly one membership, and a second toggle
	// removes it.
	_, _, err = env.replies.ToggleLike(userA, id, replyID)
	require.NoError(t, err)

	r, err := env.replies.Get(id, replyID)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"uid-a": true}, r.Likes)

	_, _, err = env.replies.ToggleLike(userA, id, replyID)
	require.NoError(t, err)

	r, err = env.replies.Get(id, replyID)
	require.NoError(t, err)
	assert.NotContains(t, r.Likes, "uid-a")
}
