package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"cinetalk/internal/services"
)

// fail maps service errors onto JSON error responses.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotOwnDiscussion), errors.Is(err, services.ErrNotOwnReply):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// snapshotStream bridges a snapshot channel onto a server-sent event
// response. Each emission replaces the previous one client-side. The
// channel must be closed by the cleanup func when the client goes away.
func snapshotStream[T any](c *gin.Context, snapshots <-chan []T, cleanup func()) {
	defer cleanup()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case snapshot, ok := <-snapshots:
			if !ok {
				return false
			}
			c.SSEvent("snapshot", snapshot)
			return true
		case <-clientGone:
			return false
		}
	})
}
