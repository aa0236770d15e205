package services

import (
	"log"
	"sync"
	"time"

	"cinetalk/internal/models"
	"cinetalk/internal/store"
)

// reconcileTarget identifies one discussion whose counters should be
// recomputed from its actual reply list.
type reconcileTarget struct {
	Ref          models.ItemRef
	DiscussionID string
}

// Reconciler repairs replyCount and lastReplyAt drift in the background.
// The stored counters are caches over the reply list; concurrent writers or
// partial failures can leave them off by a few. Callers schedule a
// discussion after suspicious operations and a worker recounts it from the
// real list in batches.
type Reconciler struct {
	store   store.Store
	queue   chan reconcileTarget
	pending map[string]bool
	mu      sync.Mutex
}

func NewReconciler(st store.Store) *Reconciler {
	r := &Reconciler{
		store:   st,
		queue:   make(chan reconcileTarget, 1000),
		pending: make(map[string]bool),
	}
	go r.worker()
	return r
}

// Schedule enqueues a discussion for recount. Duplicate requests for a
// discussion already waiting are dropped, and a full queue drops the
// request rather than blocking the caller.
func (r *Reconciler) Schedule(ref models.ItemRef, discussionID string) {
	key := DiscussionPath(ref, discussionID)

	r.mu.Lock()
	if r.pending[key] {
		r.mu.Unlock()
		return
	}
	r.pending[key] = true
	r.mu.Unlock()

	select {
	case r.queue <- reconcileTarget{Ref: ref, DiscussionID: discussionID}:
	default:
		r.mu.Lock()
		delete(r.pending, key)
		r.mu.Unlock()
		log.Printf("reconcile queue full, skipping discussion %s", discussionID)
	}
}

func (r *Reconciler) worker() {
	batch := make([]reconcileTarget, 0, 50)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case t := <-r.queue:
			batch = append(batch, t)
			if len(batch) >= 50 {
				r.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.processBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (r *Reconciler) processBatch(targets []reconcileTarget) {
	for _, t := range targets {
		r.reconcile(t)

		r.mu.Lock()
		delete(r.pending, DiscussionPath(t.Ref, t.DiscussionID))
		r.mu.Unlock()
	}
}

// reconcile recounts one discussion. A vanished discussion is not an error;
// it was deleted while queued.
func (r *Reconciler) reconcile(t reconcileTarget) {
	base := DiscussionPath(t.Ref, t.DiscussionID)
	raw, err := r.store.Get(base)
	if err != nil || raw == nil {
		return
	}
	var d models.Discussion
	if err := store.Decode(raw, &d); err != nil {
		log.Printf("reconcile: decode discussion %s: %v", t.DiscussionID, err)
		return
	}

	kids, err := r.store.Query(RepliesPath(t.DiscussionID), store.Query{OrderBy: "createdAt"})
	if err != nil {
		log.Printf("reconcile: list replies of %s: %v", t.DiscussionID, err)
		return
	}

	updates := make(map[string]any)
	if d.ReplyCount != len(kids) {
		updates[base+"/replyCount"] = len(kids)
	}
	if len(kids) > 0 {
		var last models.Reply
		if err := store.Decode(kids[len(kids)-1].Value, &last); err == nil && last.CreatedAt != d.LastReplyAt {
			updates[base+"/lastReplyAt"] = last.CreatedAt
		}
	}
	if len(updates) == 0 {
		return
	}
	if err := r.store.Update(updates); err != nil {
		log.Printf("reconcile: update %s: %v", t.DiscussionID, err)
	}
}

// ReconcileNow recounts a discussion synchronously, bypassing the queue.
func (r *Reconciler) ReconcileNow(ref models.ItemRef, discussionID string) {
	r.reconcile(reconcileTarget{Ref: ref, DiscussionID: discussionID})
}
