package services

import (
	"fmt"

	"cinetalk/internal/models"
)

// DiscussionsPath resolves the tree path of an item's thread collection.
// Episode threads get their own bucket keyed by item, season and episode;
// an episode ref missing either number falls back to the plain form. The
// path is a pure function of the ref and is never stored anywhere.
func DiscussionsPath(ref models.ItemRef) string {
	if ref.Type == models.ItemTypeEpisode && ref.Season != nil && ref.Episode != nil {
		return fmt.Sprintf("discussions/episode/%d_s%d_e%d", ref.ItemID, *ref.Season, *ref.Episode)
	}
	return fmt.Sprintf("discussions/%s/%d", ref.Type, ref.ItemID)
}

// DiscussionPath resolves one discussion node.
func DiscussionPath(ref models.ItemRef, discussionID string) string {
	return DiscussionsPath(ref) + "/" + discussionID
}

// RepliesPath resolves a discussion's flat reply collection.
func RepliesPath(discussionID string) string {
	return "discussionReplies/" + discussionID
}

// ReplyPath resolves one reply node.
func ReplyPath(discussionID, replyID string) string {
	return RepliesPath(discussionID) + "/" + replyID
}

// InboxPath resolves a user's notification inbox.
func InboxPath(uid string) string {
	return "users/" + uid + "/notifications"
}

// FeedPath is the shared cross-item activity feed collection.
const FeedPath = "discussionFeed"
