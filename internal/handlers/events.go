package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"backend/internal/middleware"
	"backend/internal/realtime"
)

// StreamEvents is the live event stream for a signed-in session. It opens
// with a snapshot of everything the caller may see, then relays inserts,
// updates and alerts until the client disconnects.
func StreamEvents(hub *realtime.Hub, mirror *realtime.Mirror) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "EVENTS")

		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		role := middleware.Role(c)

		sub := hub.Subscribe(userID.Hex(), role)
		defer hub.Unsubscribe(sub.ID)

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")

		snapshot := realtime.Event{
			Kind:     realtime.EventSnapshot,
			Orders:   mirror.OrdersFor(userID.Hex(), role),
			Messages: mirror.MessagesFor(userID.Hex(), role),
		}
		c.SSEvent(snapshot.Kind, snapshot)
		c.Writer.Flush()

		clientGone := c.Request.Context().Done()
		c.Stream(func(w io.Writer) bool {
			select {
			case ev, open := <-sub.Events():
				if !open {
					return false
				}
				if ev.Order != nil && !sub.Observes(ev.Order.UserID.Hex()) {
					return true
				}
				if ev.Message != nil && !sub.Observes(ev.Message.UserID.Hex()) {
					return true
				}
				c.SSEvent(ev.Kind, ev)
				return true
			case <-clientGone:
				return false
			}
		})
	}
}
