package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backend/internal/realtime"
	"backend/internal/store"
)

// Health reports process liveness plus the store connection and the number
// of attached live sessions.
func Health(st *store.Store, hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "HEALTH")

		status := "ok"
		code := http.StatusOK
		if err := ensureDBConnection(c.Request.Context(), st.Database()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":      status,
			"subscribers": hub.SubscriberCount(),
		})
	}
}
