package controlplane

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
)

// handleSnapshotStream polls StateSync.Latest() at a fixed 60 Hz (not the
// workspace's ui_hz) and relays each snapshot whose tick differs from the
// last one sent to the client via Server-Sent Events, using gin's bundled
// gin-contrib/sse encoder (spec §4.11: "GET /snapshot/stream via SSE").
func (s *Server) handleSnapshotStream(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	ctx := c.Request.Context()
	var lastTick uint64
	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := s.state.Latest()
			if !first && snap.Tick == lastTick {
				continue
			}
			first = false
			lastTick = snap.Tick
			payload, err := json.Marshal(toSnapshotDTO(snap))
			if err != nil {
				continue
			}
			c.SSEvent("snapshot", string(payload))
			c.Writer.Flush()
		}
	}
}
