package services

import (
	"log"
	"sort"
	"sync"
	"time"

	"cinetalk/internal/models"
	"cinetalk/internal/store"
)

// FeedService maintains the denormalized discussionFeed collection: an
// append-only activity record per created discussion and reply, spanning
// all items. Appends happen as creation side effects and are best-effort;
// purge removes a deleted discussion's entries and is invoked explicitly by
// the caller that deletes the discussion.
type FeedService struct {
	store store.Store
}

func NewFeedService(st store.Store) *FeedService {
	return &FeedService{store: st}
}

// Append writes one entry. Called from fan-out goroutines; errors are for
// the caller to log.
func (s *FeedService) Append(entry models.FeedEntry) error {
	entry.ID = ""
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().UnixMilli()
	}
	_, err := s.store.Push(FeedPath, entry)
	return err
}

// AppendAsync fires Append from a goroutine, logging failures. The feed is
// outside the consistency boundary of the primary write.
func (s *FeedService) AppendAsync(entry models.FeedEntry) {
	go func() {
		if err := s.Append(entry); err != nil {
			log.Printf("feed append for discussion %s failed: %v", entry.DiscussionID, err)
		}
	}()
}

func feedQuery(filter models.FeedFilter, limit int) store.Query {
	if filter != models.FeedFilterAll {
		return store.Query{OrderBy: "itemType", EqualTo: string(filter), LimitToLast: limit}
	}
	return store.Query{OrderBy: "createdAt", LimitToLast: limit}
}

// decodeFeed turns a snapshot into entries sorted createdAt descending.
// The store orders filtered queries by itemType, so the client-side re-sort
// is what guarantees feed order.
func decodeFeed(kids []store.Child) ([]models.FeedEntry, error) {
	out := make([]models.FeedEntry, 0, len(kids))
	for _, kid := range kids {
		var e models.FeedEntry
		if err := store.Decode(kid.Value, &e); err != nil {
			return nil, err
		}
		e.ID = kid.Key
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Query returns the last limit entries for the filter, newest first.
func (s *FeedService) Query(filter models.FeedFilter, limit int) ([]models.FeedEntry, error) {
	kids, err := s.store.Query(FeedPath, feedQuery(filter, limit))
	if err != nil {
		return nil, err
	}
	return decodeFeed(kids)
}

// FeedStream is a continuous view over the feed; every emission replaces
// the previous snapshot.
type FeedStream struct {
	sub  *store.Subscription
	ch   chan []models.FeedEntry
	done chan struct{}
	once sync.Once
}

func (s *FeedStream) Snapshots() <-chan []models.FeedEntry {
	return s.ch
}

func (s *FeedStream) Close() {
	s.once.Do(func() {
		close(s.done)
		s.sub.Close()
	})
}

// Subscribe opens a continuous feed query.
func (s *FeedService) Subscribe(filter models.FeedFilter, limit int) *FeedStream {
	sub := s.store.Subscribe(FeedPath, feedQuery(filter, limit))
	stream := &FeedStream{
		sub:  sub,
		ch:   make(chan []models.FeedEntry),
		done: make(chan struct{}),
	}
	go func() {
		defer close(stream.ch)
		for kids := range sub.Snapshots() {
			entries, err := decodeFeed(kids)
			if err != nil {
				log.Printf("feed snapshot decode failed: %v", err)
				continue
			}
			select {
			case stream.ch <- entries:
			case <-stream.done:
				return
			}
		}
	}()
	return stream
}

// Purge removes every feed entry of one discussion in a single batched
// update. Composed with discussion deletion at the call site.
func (s *FeedService) Purge(discussionID string) error {
	kids, err := s.store.Query(FeedPath, store.Query{OrderBy: "discussionId", EqualTo: discussionID})
	if err != nil {
		return err
	}
	if len(kids) == 0 {
		return nil
	}
	updates := make(map[string]any, len(kids))
	for _, kid := range kids {
		updates[FeedPath+"/"+kid.Key] = nil
	}
	return s.store.Update(updates)
}
