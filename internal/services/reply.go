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

// ReplyService owns the flat reply list under one discussion. Creating a
// reply also bumps the parent's replyCount counter, stamps lastReplyAt,
// notifies the thread author and appends a feed entry; deleting decrements
// the counter. The counter is a cache over the real list; the Reconciler
// keeps it honest.
type ReplyService struct {
	store  store.Store
	notify *NotificationService
	feed   *FeedService
	mail   *MailService
}

func NewReplyService(st store.Store, notify *NotificationService, feed *FeedService, mail *MailService) *ReplyService {
	return &ReplyService{store: st, notify: notify, feed: feed, mail: mail}
}

func decodeReplies(kids []store.Child) ([]models.Reply, error) {
	out := make([]models.Reply, 0, len(kids))
	for _, kid := range kids {
		var r models.Reply
		if err := store.Decode(kid.Value, &r); err != nil {
			return nil, err
		}
		r.ID = kid.Key
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// List returns a discussion's replies oldest first.
func (s *ReplyService) List(discussionID string) ([]models.Reply, error) {
	kids, err := s.store.Query(RepliesPath(discussionID), store.Query{OrderBy: "createdAt"})
	if err != nil {
		return nil, err
	}
	return decodeReplies(kids)
}

// Get reads one reply.
func (s *ReplyService) Get(discussionID, replyID string) (*models.Reply, error) {
	raw, err := s.store.Get(ReplyPath(discussionID, replyID))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotFound
	}
	var r models.Reply
	if err := store.Decode(raw, &r); err != nil {
		return nil, err
	}
	r.ID = replyID
	return &r, nil
}

// ReplyStream delivers full replacement snapshots of one discussion's reply
// list until closed.
type ReplyStream struct {
	sub  *store.Subscription
	ch   chan []models.Reply
	done chan struct{}
	once sync.Once
}

func (s *ReplyStream) Snapshots() <-chan []models.Reply {
	return s.ch
}

func (s *ReplyStream) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.sub != nil {
			s.sub.Close()
		}
	})
}

// Subscribe opens a continuous ordered view over a discussion's replies.
// With enabled=false (the thread is collapsed client-side) no store
// subscription is opened at all; the stream yields a single empty snapshot
// and then closes.
func (s *ReplyService) Subscribe(discussionID string, enabled bool) *ReplyStream {
	stream := &ReplyStream{ch: make(chan []models.Reply, 1), done: make(chan struct{})}
	if !enabled {
		stream.ch <- nil
		close(stream.ch)
		return stream
	}
	sub := s.store.Subscribe(RepliesPath(discussionID), store.Query{OrderBy: "createdAt"})
	stream.sub = sub
	go func() {
		defer close(stream.ch)
		for kids := range sub.Snapshots() {
			list, err := decodeReplies(kids)
			if err != nil {
				log.Printf("reply snapshot decode failed: %v", err)
				continue
			}
			select {
			case stream.ch <- list:
			case <-stream.done:
				return
			}
		}
	}()
	return stream
}

// Create appends a reply, bumps the parent counter and fans out the side
// effects. The discussion is addressed by ref+id so the counter lives next
// to the thread it counts.
func (s *ReplyService) Create(actor *models.User, ref models.ItemRef, meta models.ItemMeta, discussionID, content string, isSpoiler bool) (string, error) {
	if actor == nil {
		return "", ErrAuthRequired
	}
	raw, err := s.store.Get(DiscussionPath(ref, discussionID))
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", ErrNotFound
	}
	var d models.Discussion
	if err := store.Decode(raw, &d); err != nil {
		return "", err
	}

	r := models.Reply{
		UserID:       actor.UID,
		Username:     actor.DisplayName(),
		UserPhotoURL: actor.PhotoURL,
		Content:      content,
		CreatedAt:    time.Now().UnixMilli(),
		Likes:        map[string]bool{},
		IsSpoiler:    isSpoiler,
	}
	id, err := s.store.Push(RepliesPath(discussionID), r)
	if err != nil {
		return "", err
	}

	base := DiscussionPath(ref, discussionID)
	if err := s.store.Increment(base+"/replyCount", 1); err != nil {
		return id, err
	}
	if err := s.store.Set(base+"/lastReplyAt", r.CreatedAt); err != nil {
		return id, err
	}

	if d.UserID != actor.UID {
		recipient := d.UserID
		title := d.Title
		go func() {
			s.notify.Notify(recipient, models.Notification{
				Type:    models.NotificationTypeDiscussionReply,
				Title:   "New reply",
				Message: fmt.Sprintf("%s replied to your discussion \"%s\"", r.Username, utils.TruncatePreview(title, 50)),
				Data: map[string]any{
					"discussionId": discussionID,
					"replyId":      id,
					"itemType":     ref.Type,
					"itemId":       ref.ItemID,
				},
			})
			s.mail.SendReplyNotification(recipient, r.Username, title)
		}()
	}

	s.feed.AppendAsync(models.FeedEntry{
		Type:            models.FeedEntryReplyCreated,
		DiscussionID:    discussionID,
		DiscussionTitle: d.Title,
		UserID:          actor.UID,
		Username:        r.Username,
		UserPhotoURL:    actor.PhotoURL,
		ItemType:        ref.Type,
		ItemID:          ref.ItemID,
		ItemTitle:       meta.ItemTitle,
		PosterPath:      meta.PosterPath,
		SeasonNumber:    ref.Season,
		EpisodeNumber:   ref.Episode,
		EpisodeTitle:    meta.EpisodeTitle,
		ContentPreview:  utils.TruncatePreview(content, 50),
		CreatedAt:       r.CreatedAt,
	})

	return id, nil
}

// Delete removes a reply and decrements the parent counter. Only the
// author may delete.
func (s *ReplyService) Delete(actor *models.User, ref models.ItemRef, discussionID, replyID string) error {
	if actor == nil {
		return ErrAuthRequired
	}
	r, err := s.Get(discussionID, replyID)
	if err != nil {
		return err
	}
	if r.UserID != actor.UID {
		return ErrNotOwnReply
	}
	if err := s.store.Remove(ReplyPath(discussionID, replyID)); err != nil {
		return err
	}
	return s.store.Increment(DiscussionPath(ref, discussionID)+"/replyCount", -1)
}

// Edit applies a field-level patch. As with discussions, ownership is not
// enforced at this layer; the HTTP layer gates edits to the author.
func (s *ReplyService) Edit(actor *models.User, discussionID, replyID string, patch models.ReplyPatch) error {
	if actor == nil {
		return ErrAuthRequired
	}
	if _, err := s.Get(discussionID, replyID); err != nil {
		return err
	}
	base := ReplyPath(discussionID, replyID)
	updates := make(map[string]any)
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

// ToggleLike flips the actor's like on a reply. A 0→1 transition notifies
// the reply's author unless the actor is the author.
func (s *ReplyService) ToggleLike(actor *models.User, discussionID, replyID string) (liked bool, likes int, err error) {
	if actor == nil {
		return false, 0, ErrAuthRequired
	}
	r, err := s.Get(discussionID, replyID)
	if err != nil {
		return false, 0, err
	}
	base := ReplyPath(discussionID, replyID)
	liked, err = toggleLike(s.store, base, actor.UID)
	if err != nil {
		return false, 0, err
	}

	if liked && r.UserID != actor.UID {
		actorName := actor.DisplayName()
		go s.notify.Notify(r.UserID, models.Notification{
			Type:    models.NotificationTypeDiscussionLike,
			Title:   "New like",
			Message: fmt.Sprintf("%s liked your reply \"%s\"", actorName, utils.TruncatePreview(r.Content, 50)),
			Data: map[string]any{
				"discussionId": discussionID,
				"replyId":      replyID,
			},
		})
	}

	likes, err = likeCount(s.store, base)
	if err != nil {
		return liked, 0, err
	}
	return liked, likes, nil
}
