package events

import (
	"io"

	"github.com/gin-gonic/gin"
)

// SSEHandler streams bus events to a UI consumer so read views can refresh
// on commit. Purely notification: the payload identifies what changed, the
// consumer re-queries through the read endpoints.
func SSEHandler(bus Bus) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch, cancel := bus.Subscribe()
		defer cancel()

		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Stream(func(w io.Writer) bool {
			select {
			case ev, ok := <-ch:
				if !ok {
					return false
				}
				c.SSEvent(string(ev.Kind), ev)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
