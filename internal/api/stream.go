package api

import (
	"io"

	"github.com/gin-gonic/gin"

	"agrimap/server/internal/pipeline"
)

// StreamSnapshots pushes the default snapshot as server-sent events,
// once on connect and again after every recomputation. Streams end when
// the client leaves or the handler is closed.
func (h *Handler) StreamSnapshots(c *gin.Context) {
	updates, cancel := h.hub.Subscribe()
	defer cancel()

	ctx := c.Request.Context()
	current, err := h.hub.Snapshot(ctx, pipeline.Request{})
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute initial snapshot for stream")
	}

	c.Stream(func(w io.Writer) bool {
		if current != nil {
			c.SSEvent("snapshot", current)
			current = nil
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-h.closing:
			return false
		case snap := <-updates:
			c.SSEvent("snapshot", snap)
			return true
		}
	})
}
