package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cinetalk/internal/middleware"
	"cinetalk/internal/models"
	"cinetalk/internal/services"
	"cinetalk/internal/utils"
)

type DiscussionHandler struct {
	threads *services.DiscussionService
	feed    *services.FeedService
}

func NewDiscussionHandler(threads *services.DiscussionService, feed *services.FeedService) *DiscussionHandler {
	return &DiscussionHandler{threads: threads, feed: feed}
}

// itemRefFromRequest builds the item ref from the route params plus the
// optional season/episode query pair.
func itemRefFromRequest(c *gin.Context) (models.ItemRef, bool) {
	itemType := models.ItemType(c.Param("itemType"))
	if !itemType.Valid() {
		badRequest(c, "itemType must be movie, series or episode")
		return models.ItemRef{}, false
	}
	itemID := utils.StringToInt(c.Param("itemId"))
	if itemID <= 0 {
		badRequest(c, "itemId must be a positive number")
		return models.ItemRef{}, false
	}
	return models.ItemRef{
		Type:    itemType,
		ItemID:  itemID,
		Season:  utils.StringToIntPtr(c.Query("season")),
		Episode: utils.StringToIntPtr(c.Query("episode")),
	}, true
}

// itemMetaFromRequest reads the catalog snapshot the client sends along
// with writes; the catalog itself lives outside this service.
func itemMetaFromRequest(c *gin.Context) models.ItemMeta {
	return models.ItemMeta{
		ItemTitle:    c.Query("itemTitle"),
		PosterPath:   c.Query("posterPath"),
		EpisodeTitle: c.Query("episodeTitle"),
	}
}

const discussionListTTL = 30 * time.Second

func discussionListKey(ref models.ItemRef) string {
	return "discussions_" + services.DiscussionsPath(ref)
}

// List serves an item's threads behind a cached read; writes below drop the
// key so the next read is fresh.
func (h *DiscussionHandler) List(c *gin.Context) {
	ref, ok := itemRefFromRequest(c)
	if !ok {
		return
	}

	cache := utils.GetCache()
	key := discussionListKey(ref)
	if cached := cache.Get(key); cached != nil {
		if list, ok := cached.([]models.Discussion); ok {
			c.JSON(http.StatusOK, gin.H{"discussions": list})
			return
		}
	}

	list, err := h.threads.List(ref)
	if err != nil {
		fail(c, err)
		return
	}
	cache.Set(key, list, discussionListTTL)
	c.JSON(http.StatusOK, gin.H{"discussions": list})
}

func (h *DiscussionHandler) Stream(c *gin.Context) {
	ref, ok := itemRefFromRequest(c)
	if !ok {
		return
	}
	stream := h.threads.Subscribe(ref)
	snapshotStream(c, stream.Snapshots(), stream.Close)
}

func (h *DiscussionHandler) Get(c *gin.Context) {
	ref, ok := itemRefFromRequest(c)
	if !ok {
		return
	}
	d, err := h.threads.Get(ref, c.Param("discussionId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"discussion":   d,
		"contentHtml":  utils.RenderMarkdown(d.Content),
		"contentParts": utils.SplitContent(d.Content),
	})
}

type createDiscussionRequest struct {
	Title     string          `json:"title" binding:"required"`
	Content   string          `json:"content" binding:"required"`
	IsSpoiler bool            `json:"isSpoiler"`
	Meta      models.ItemMeta `json:"meta"`
}

func (h *DiscussionHandler) Create(c *gin.Context) {
	ref, ok := itemRefFromRequest(c)
	if !ok {
		return
	}
	var req createDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "title and content are required")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		badRequest(c, "title and content must not be blank")
		return
	}

	meta := req.Meta
	if meta.ItemTitle == "" {
		meta = itemMetaFromRequest(c)
	}

	id, err := h.threads.Create(middleware.CurrentUser(c), ref, meta, req.Title, req.Content, req.IsSpoiler)
	if err != nil {
		fail(c, err)
		return
	}
	utils.GetCache().Delete(discussionListKey(ref))
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// Delete removes a thread and then purges its feed entries. The purge is a
// separate call; a failure there leaves orphaned feed rows but the delete
// already happened.
func (h *DiscussionHandler) Delete(c *gin.Context) {
	ref, ok := itemRefFromRequest(c)
	if !ok {
		return
	}
	id := c.Param("discussionId")
	if err := h.threads.Delete(middleware.CurrentUser(c), ref, id); err != nil {
		fail(c, err)
		return
	}
	utils.GetCache().Delete(discussionListKey(ref))
	if err := h.feed.Purge(id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *DiscussionHandler) Edit(c *gin.Context) {
	ref, ok := itemRefFromRequest(c)
	if !ok {
		return
	}
	var patch models.DiscussionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid patch")
		return
	}

	user := middleware.CurrentUser(c)
	id := c.Param("discussionId")

	// Ownership is enforced here rather than in the service.
	d, err := h.threads.Get(ref, id)
	if err != nil {
		fail(c, err)
		return
	}
	if user == nil || d.UserID != user.UID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only edit your own discussions"})
		return
	}

	if err := h.threads.Edit(user, ref, id, patch); err != nil {
		fail(c, err)
		return
	}
	utils.GetCache().Delete(discussionListKey(ref))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *DiscussionHandler) ToggleLike(c *gin.Context) {
	ref, ok := itemRefFromRequest(c)
	if !ok {
		return
	}
	liked, likes, err := h.threads.ToggleLike(middleware.CurrentUser(c), ref, c.Param("discussionId"))
	if err != nil {
		fail(c, err)
		return
	}
	utils.GetCache().Delete(discussionListKey(ref))
	c.JSON(http.StatusOK, gin.H{"liked": liked, "likes": likes})
}
