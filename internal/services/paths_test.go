package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cinetalk/internal/models"
)

func intp(v int) *int { return &v }

func TestDiscussionsPath(t *testing.T) {
	assert.Equal(t, "discussions/movie/603", DiscussionsPath(models.ItemRef{Type: models.ItemTypeMovie, ItemID: 603}))
	assert.Equal(t, "discussions/series/42", DiscussionsPath(models.ItemRef{Type: models.ItemTypeSeries, ItemID: 42}))

	ep := models.ItemRef{Type: models.ItemTypeEpisode, ItemID: 42, Season: intp(2), Episode: intp(7)}
	assert.Equal(t, "discussions/episode/42_s2_e7", DiscussionsPath(ep))

	// Same inputs, same path.
	assert.Equal(t, DiscussionsPath(ep), DiscussionsPath(ep))
}

func TestDiscussionsPathEpisodeFallback(t *testing.T) {
	// An episode ref missing either number falls back to the plain form.
	noSeason := models.ItemRef{Type: models.ItemTypeEpisode, ItemID: 42, Episode: intp(7)}
	assert.Equal(t, "discussions/episode/42", DiscussionsPath(noSeason))

	noEpisode := models.ItemRef{Type: models.ItemTypeEpisode, ItemID: 42, Season: intp(2)}
	assert.Equal(t, "discussions/episode/42", DiscussionsPath(noEpisode))
}

func TestChildPaths(t *testing.T) {
	ref := models.ItemRef{Type: models.ItemTypeSeries, ItemID: 42}
	assert.Equal(t, "discussions/series/42/-Abc", DiscussionPath(ref, "-Abc"))
	assert.Equal(t, "discussionReplies/-Abc", RepliesPath("-Abc"))
	assert.Equal(t, "discussionReplies/-Abc/-Def", ReplyPath("-Abc", "-Def"))
	assert.Equal(t, "users/u1/notifications", InboxPath("u1"))
}
