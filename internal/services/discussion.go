package services

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"cinetalk/internal/models"
	"cinetalk/internal/store"
	"cinetalk/internal/utils"
)

// DiscussionService owns the top-level threads of one content item: CRUD,
// ordering, like toggling and the fan-out they trigger. Every operation
// takes the acting user explicitly; there is no ambient current-user state.
type DiscussionService struct {
	store  store.Store
	notify *NotificationService
	feed   *FeedService
}

func NewDiscussionService(st store.Store, notify *NotificationService, feed *FeedService) *DiscussionService {
	return &DiscussionService{store: st, notify: notify, feed: feed}
}

// sortDiscussions orders a snapshot for display: pinned threads first, then
// newest first within each group.
func sortDiscussions(list []models.Discussion) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].IsPinned != list[j].IsPinned {
			return list[i].IsPinned
		}
		if list[i].CreatedAt != list[j].CreatedAt {
			return list[i].CreatedAt > list[j].CreatedAt
		}
		return list[i].ID > list[j].ID
	})
}

func decodeDiscussions(kids []store.Child) ([]models.Discussion, error) {
	out := make([]models.Discussion, 0, len(kids))
	for _, kid := range kids {
		var d models.Discussion
		if err := store.Decode(kid.Value, &d); err != nil {
			return nil, err
		}
		d.ID = kid.Key
		out = append(out, d)
	}
	sortDiscussions(out)
	return out, nil
}

// List returns the current threads of an item, pinned first then newest
// first.
func (s *DiscussionService) List(ref models.ItemRef) ([]models.Discussion, error) {
	kids, err := s.store.Query(DiscussionsPath(ref), store.Query{OrderBy: "createdAt"})
	if err != nil {
		return nil, err
	}
	return decodeDiscussions(kids)
}

// Get reads one thread.
func (s *DiscussionService) Get(ref models.ItemRef, discussionID string) (*models.Discussion, error) {
	raw, err := s.store.Get(DiscussionPath(ref, discussionID))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotFound
	}
	var d models.Discussion
	if err := store.Decode(raw, &d); err != nil {
		return nil, err
	}
	d.ID = discussionID
	return &d, nil
}

// DiscussionStream delivers full replacement snapshots of an item's thread
// list until closed.
type DiscussionStream struct {
	sub  *store.Subscription
	ch   chan []models.Discussion
	done chan struct{}
	once sync.Once
}

func (s *DiscussionStream) Snapshots() <-chan []models.Discussion {
	return s.ch
}

func (s *DiscussionStream) Close() {
	s.once.Do(func() {
		close(s.done)
		s.sub.Close()
	})
}

// Subscribe opens a continuous ordered view over an item's threads. The
// caller closes the stream when the owning screen goes away.
func (s *DiscussionService) Subscribe(ref models.ItemRef) *DiscussionStream {
	sub := s.store.Subscribe(DiscussionsPath(ref), store.Query{OrderBy: "createdAt"})
	stream := &DiscussionStream{
		sub:  sub,
		ch:   make(chan []models.Discussion),
		done: make(chan struct{}),
	}
	go func() {
		defer close(stream.ch)
		for kids := range sub.Snapshots() {
			list, err := decodeDiscussions(kids)
			if err != nil {
				log.Printf("discussion snapshot decode failed: %v", err)
				continue
			}
			// The consumer may be gone already; never block on a stream
			// nobody reads.
			select {
			case stream.ch <- list:
			case <-stream.done:
				return
			}
		}
	}()
	return stream
}

// Create appends a new thread and returns its id. The author snapshot
// (name, photo) is copied from the actor at creation time and never updated
// afterwards.
func (s *DiscussionService) Create(actor *models.User, ref models.ItemRef, meta models.ItemMeta, title, content string, isSpoiler bool) (string, error) {
	if actor == nil {
		return "", ErrAuthRequired
	}
	d := models.Discussion{
		ItemID:        ref.ItemID,
		ItemType:      ref.Type,
		SeasonNumber:  ref.Season,
		EpisodeNumber: ref.Episode,
		UserID:        actor.UID,
		Username:      actor.DisplayName(),
		UserPhotoURL:  actor.PhotoURL,
		Title:         title,
		Content:       content,
		CreatedAt:     time.Now().UnixMilli(),
		Likes:         map[string]bool{},
		ReplyCount:    0,
		IsSpoiler:     isSpoiler,
	}
	id, err := s.store.Push(DiscussionsPath(ref), d)
	if err != nil {
		return "", err
	}

	s.feed.AppendAsync(models.FeedEntry{
		Type:            models.FeedEntryDiscussionCreated,
		DiscussionID:    id,
		DiscussionTitle: title,
		UserID:          actor.UID,
		Username:        d.Username,
		UserPhotoURL:    actor.PhotoURL,
		ItemType:        ref.Type,
		ItemID:          ref.ItemID,
		ItemTitle:       meta.ItemTitle,
		PosterPath:      meta.PosterPath,
		SeasonNumber:    ref.Season,
		EpisodeNumber:   ref.Episode,
		EpisodeTitle:    meta.EpisodeTitle,
		CreatedAt:       d.CreatedAt,
	})

	return id, nil
}

// Delete removes a thread and its whole reply subtree in one batched
// update. Only the author may delete. Feed cleanup is a separate explicit
// FeedService.Purge call composed by the caller.
func (s *DiscussionService) Delete(actor *models.User, ref models.ItemRef, discussionID string) error {
	if actor == nil {
		return ErrAuthRequired
	}
	d, err := s.Get(ref, discussionID)
	if err != nil {
		return err
	}
	if d.UserID != actor.UID {
		return ErrNotOwnDiscussion
	}
	return s.store.Update(map[string]any{
		DiscussionPath(ref, discussionID): nil,
		RepliesPath(discussionID):         nil,
	})
}

// Edit applies a field-level patch. Ownership is not enforced at this
// layer; the HTTP layer gates edits to the author, mirroring the inherited
// UI-level gating.
func (s *DiscussionService) Edit(actor *models.User, ref models.ItemRef, discussionID string, patch models.DiscussionPatch) error {
	if actor == nil {
		return ErrAuthRequired
	}
	d, err := s.Get(ref, discussionID)
	if err != nil {
		return err
	}
	base := DiscussionPath(ref, d.ID)
	updates := make(map[string]any)
	if patch.Title != nil {
		updates[base+"/title"] = *patch.Title
	}
	if patch.Content != nil {
		updates[base+"/content"] = *patch.Content
	}
	if patch.IsSpoiler != nil {
		updates[base+"/isSpoiler"] = *patch.IsSpoiler
	}
	if len(updates) == 0 {
		return nil
	}
	updates[base+"/updatedAt"] = time.Now().UnixMilli()
	return s.store.Update(updates)
}

// ToggleLike flips the actor's like on a thread. A 0→1 transition notifies
// the thread's author unless the actor is the author.
func (s *DiscussionService) ToggleLike(actor *models.User, ref models.ItemRef, discussionID string) (liked bool, likes int, err error) {
	if actor == nil {
		return false, 0, ErrAuthRequired
	}
	d, err := s.Get(ref, discussionID)
	if err != nil {
		return false, 0, err
	}
	base := DiscussionPath(ref, discussionID)
	liked, err = toggleLike(s.store, base, actor.UID)
	if err != nil {
		return false, 0, err
	}

	if liked && d.UserID != actor.UID {
		actorName := actor.DisplayName()
		go s.notify.Notify(d.UserID, models.Notification{
			Type:    models.NotificationTypeDiscussionLike,
			Title:   "New like",
			Message: fmt.Sprintf("%s liked your discussion \"%s\"", actorName, utils.TruncatePreview(d.Title, 50)),
			Data: map[string]any{
				"discussionId": discussionID,
				"itemType":     ref.Type,
				"itemId":       ref.ItemID,
			},
		})
	}

	likes, err = likeCount(s.store, base)
	if err != nil {
		return liked, 0, err
	}
	return liked, likes, nil
}
