package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cinetalk/internal/middleware"
	"cinetalk/internal/models"
	"cinetalk/internal/services"
	"cinetalk/internal/utils"
)

type ReplyHandler struct {
	replies   *services.ReplyService
	reconcile *services.Reconciler
}

func NewReplyHandler(replies *services.ReplyService, reconcile *services.Reconciler) *ReplyHandler {
	return &ReplyHandler{replies: replies, reconcile: reconcile}
}

// renderedReply pairs a reply with its sanitized HTML rendering.
type renderedReply struct {
	models.Reply
	ContentHTML template.HTML `json:"contentHtml"`
}

func (h *ReplyHandler) List(c *gin.Context) {
	list, err := h.replies.List(c.Param("discussionId"))
	if err != nil {
		fail(c, err)
		return
	}
	rendered := make([]renderedReply, 0, len(list))
	for _, r := range list {
		rendered = append(rendered, renderedReply{
			Reply:       r,
			ContentHTML: utils.RenderMarkdown(r.Content),
		})
	}
	c.JSON(http.StatusOK, gin.H{"replies": rendered})
}

func (h *ReplyHandler) Stream(c *gin.Context) {
	stream := h.replies.Subscribe(c.Param("discussionId"), true)
	snapshotStream(c, stream.Snapshots(), stream.Close)
}

type createReplyRequest struct {
	Content   string          `json:"content" binding:"required"`
	IsSpoiler bool            `json:"isSpoiler"`
	Meta      models.ItemMeta `json:"meta"`
}

// Create appends a reply under a discussion addressed through its item, so
// the parent counter update lands next to the thread. The counter is
// rechecked in the background afterwards.
func (h *ReplyHandler) Create(c *gin.Context) {
	ref, ok := itemRefFromRequest(c)
	if !ok {
		return
	}
	var req createReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "content is required")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		badRequest(c, "content must not be blank")
		return
	}

	discussionID := c.Param("discussionId")
	id, err := h.replies.Create(middleware.CurrentUser(c), ref, req.Meta, discussionID, req.Content, req.IsSpoiler)
	if err != nil {
		// A non-empty id means the reply landed but the counter update did
		// not; that is exactly when a recount matters.
		if id != "" {
			h.reconcile.Schedule(ref, discussionID)
		}
		fail(c, err)
		return
	}
	h.reconcile.Schedule(ref, discussionID)
	utils.GetCache().Delete(discussionListKey(ref))
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *ReplyHandler) Delete(c *gin.Context) {
	ref, ok := itemRefFromRequest(c)
	if !ok {
		return
	}
	discussionID := c.Param("discussionId")
	err := h.replies.Delete(middleware.CurrentUser(c), ref, discussionID, c.Param("replyId"))
	if err != nil {
		// Permission and lookup failures leave the tree untouched; anything
		// else may have removed the reply without adjusting the counter.
		if !errors.Is(err, services.ErrAuthRequired) && !errors.Is(err, services.ErrNotFound) && !errors.Is(err, services.ErrNotOwnReply) {
			h.reconcile.Schedule(ref, discussionID)
		}
		fail(c, err)
		return
	}
	h.reconcile.Schedule(ref, discussionID)
	utils.GetCache().Delete(discussionListKey(ref))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *ReplyHandler) Edit(c *gin.Context) {
	var patch models.ReplyPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid patch")
		return
	}

	user := middleware.CurrentUser(c)
	discussionID := c.Param("discussionId")
	replyID := c.Param("replyId")

	// Ownership is enforced here rather than in the service.
	r, err := h.replies.Get(discussionID, replyID)
	if err != nil {
		fail(c, err)
		return
	}
	if user == nil || r.UserID != user.UID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only edit your own replies"})
		return
	}

	if err := h.replies.Edit(user, discussionID, replyID, patch); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *ReplyHandler) ToggleLike(c *gin.Context) {
	liked, likes, err := h.replies.ToggleLike(middleware.CurrentUser(c), c.Param("discussionId"), c.Param("replyId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "likes": likes})
}
