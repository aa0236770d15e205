package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cinetalk/internal/models"
	"cinetalk/internal/services"
	"cinetalk/internal/utils"
)

const (
	feedDefaultLimit = 20
	feedMaxLimit     = 100
	feedCacheTTL     = 10 * time.Second
)

type FeedHandler struct {
	feed *services.FeedService
}

func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

func feedParams(c *gin.Context) (models.FeedFilter, int, bool) {
	filter := models.FeedFilter(c.DefaultQuery("filter", string(models.FeedFilterAll)))
	if !filter.Valid() {
		badRequest(c, "filter must be all, movie, series or episode")
		return "", 0, false
	}
	limit := utils.StringToInt(c.DefaultQuery("limit", ""))
	if limit <= 0 {
		limit = feedDefaultLimit
	}
	if limit > feedMaxLimit {
		limit = feedMaxLimit
	}
	return filter, limit, true
}

// List serves the activity feed behind a short-lived cache; the feed is
// hot, shared across users and tolerant of a few seconds of staleness.
func (h *FeedHandler) List(c *gin.Context) {
	filter, limit, ok := feedParams(c)
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("feed_%s_%d", filter, limit)
	cache := utils.GetCache()
	if cached := cache.Get(cacheKey); cached != nil {
		if entries, ok := cached.([]models.FeedEntry); ok {
			c.JSON(http.StatusOK, gin.H{"entries": entries})
			return
		}
	}

	entries, err := h.feed.Query(filter, limit)
	if err != nil {
		fail(c, err)
		return
	}
	cache.Set(cacheKey, entries, feedCacheTTL)
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *FeedHandler) Stream(c *gin.Context) {
	filter, limit, ok := feedParams(c)
	if !ok {
		return
	}
	stream := h.feed.Subscribe(filter, limit)
	snapshotStream(c, stream.Snapshots(), stream.Close)
}
