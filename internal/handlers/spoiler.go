package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cinetalk/internal/middleware"
	"cinetalk/internal/services"
	"cinetalk/internal/utils"
)

type SpoilerHandler struct {
	spoilers *services.SpoilerService
}

func NewSpoilerHandler(spoilers *services.SpoilerService) *SpoilerHandler {
	return &SpoilerHandler{spoilers: spoilers}
}

type revealRequest struct {
	ItemID  int `json:"itemId" binding:"required"`
	Season  int `json:"seasonNumber"`
	Episode int `json:"episodeNumber"`
}

// Reveal permanently unlocks one episode's threads for the current user.
func (h *SpoilerHandler) Reveal(c *gin.Context) {
	var req revealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "itemId is required")
		return
	}
	if err := h.spoilers.Reveal(middleware.CurrentUser(c), req.ItemID, req.Season, req.Episode); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revealed": true})
}

// Revealed reports whether the current user already unlocked the episode.
func (h *SpoilerHandler) Revealed(c *gin.Context) {
	var req revealRequest
	req.ItemID = utils.StringToInt(c.Query("itemId"))
	req.Season = utils.StringToInt(c.Query("season"))
	req.Episode = utils.StringToInt(c.Query("episode"))
	if req.ItemID <= 0 {
		badRequest(c, "itemId is required")
		return
	}

	revealed, err := h.spoilers.Revealed(middleware.CurrentUser(c), req.ItemID, req.Season, req.Episode)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revealed": revealed})
}
