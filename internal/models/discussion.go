package models

type ItemType string

const (
	ItemTypeMovie   ItemType = "movie"
	ItemTypeSeries  ItemType = "series"
	ItemTypeEpisode ItemType = "episode"
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeMovie, ItemTypeSeries, ItemTypeEpisode:
		return true
	}
	return false
}

// ItemRef identifies the catalog item a thread hangs off. Season and
// Episode are set only for episode threads.
type ItemRef struct {
	Type    ItemType `json:"itemType"`
	ItemID  int      `json:"itemId"`
	Season  *int     `json:"seasonNumber,omitempty"`
	Episode *int     `json:"episodeNumber,omitempty"`
}

// ItemMeta is the catalog snapshot the client already holds (title, poster,
// episode title). The catalog API stays external; callers pass what they
// have and it is denormalized into feed entries.
type ItemMeta struct {
	ItemTitle    string `json:"itemTitle"`
	PosterPath   string `json:"posterPath,omitempty"`
	EpisodeTitle string `json:"episodeTitle,omitempty"`
}

// Discussion is one top-level thread attached to a content item. The author
// fields are a snapshot taken at creation time, not a live user reference.
// Likes uses user ids as keys so membership is idempotent by construction.
type Discussion struct {
	ID            string          `json:"id,omitempty"`
	ItemID        int             `json:"itemId"`
	ItemType      ItemType        `json:"itemType"`
	SeasonNumber  *int            `json:"seasonNumber,omitempty"`
	EpisodeNumber *int            `json:"episodeNumber,omitempty"`
	UserID        string          `json:"userId"`
	Username      string          `json:"username"`
	UserPhotoURL  string          `json:"userPhotoURL,omitempty"`
	Title         string          `json:"title"`
	Content       string          `json:"content"`
	CreatedAt     int64           `json:"createdAt"` // epoch ms
	UpdatedAt     int64           `json:"updatedAt,omitempty"`
	Likes         map[string]bool `json:"likes,omitempty"`
	ReplyCount    int             `json:"replyCount"`
	LastReplyAt   int64           `json:"lastReplyAt,omitempty"`
	IsPinned      bool            `json:"isPinned,omitempty"`
	IsSpoiler     bool            `json:"isSpoiler,omitempty"`
}

// Reply is a flat, single-level response to a Discussion.
type Reply struct {
	ID           string          `json:"id,omitempty"`
	UserID       string          `json:"userId"`
	Username     string          `json:"username"`
	UserPhotoURL string          `json:"userPhotoURL,omitempty"`
	Content      string          `json:"content"`
	CreatedAt    int64           `json:"createdAt"` // epoch ms
	UpdatedAt    int64           `json:"updatedAt,omitempty"`
	Likes        map[string]bool `json:"likes,omitempty"`
	IsSpoiler    bool            `json:"isSpoiler,omitempty"`
}

// DiscussionPatch is a field-level edit; nil fields are left untouched.
type DiscussionPatch struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	IsSpoiler *bool   `json:"isSpoiler,omitempty"`
}

// ReplyPatch is a field-level edit; nil fields are left untouched.
type ReplyPatch struct {
	Content   *string `json:"content,omitempty"`
	IsSpoiler *bool   `json:"isSpoiler,omitempty"`
}
