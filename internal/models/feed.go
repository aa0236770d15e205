package models

type FeedEntryType string

const (
	FeedEntryDiscussionCreated FeedEntryType = "discussion_created"
	FeedEntryReplyCreated      FeedEntryType = "reply_created"
)

// FeedFilter narrows the cross-item activity feed to one item type.
type FeedFilter string

const (
	FeedFilterAll     FeedFilter = "all"
	FeedFilterMovie   FeedFilter = "movie"
	FeedFilterSeries  FeedFilter = "series"
	FeedFilterEpisode FeedFilter = "episode"
)

func (f FeedFilter) Valid() bool {
	switch f {
	case FeedFilterAll, FeedFilterMovie, FeedFilterSeries, FeedFilterEpisode:
		return true
	}
	return false
}

// FeedEntry is a denormalized, append-only activity record in the shared
// discussionFeed collection. Everything needed to render a feed row is
// copied in at write time so the feed never joins back to the threads.
type FeedEntry struct {
	ID               string        `json:"id,omitempty"`
	Type             FeedEntryType `json:"type"`
	DiscussionID     string        `json:"discussionId"`
	DiscussionTitle  string        `json:"discussionTitle"`
	UserID           string        `json:"userId"`
	Username         string        `json:"username"`
	UserPhotoURL     string        `json:"userPhotoURL,omitempty"`
	ItemType         ItemType      `json:"itemType"`
	ItemID           int           `json:"itemId"`
	ItemTitle        string        `json:"itemTitle"`
	PosterPath       string        `json:"posterPath,omitempty"`
	SeasonNumber     *int          `json:"seasonNumber,omitempty"`
	EpisodeNumber    *int          `json:"episodeNumber,omitempty"`
	EpisodeTitle     string        `json:"episodeTitle,omitempty"`
	ContentPreview   string        `json:"contentPreview,omitempty"` // reply_created only
	CreatedAt        int64         `json:"createdAt"`                // epoch ms
}
