package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"backend/internal/middleware"
	"backend/internal/notify"
	"backend/internal/realtime"
	"backend/internal/store"
)

type NotifyPermissionRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetNotifyPermission records the caller's notification preference. Turning
// it on fires a self-test alert through the live event stream so the user
// sees one immediately.
func SetNotifyPermission(st *store.Store, hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "NOTIFY")

		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req NotifyPermissionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		enabled := *req.Enabled

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := st.SetNotifyEnabled(ctx, userID, enabled); err != nil {
			log.Println("[NOTIFY] [ERROR] permission save failed:", err)
			respondWithError(c, http.StatusInternalServerError, "NOTIFY", err.Error())
			return
		}

		if enabled {
			hub.SendAlertTo(userID.Hex(), notify.SelfTest(userID.Hex()))
		}

		c.JSON(http.StatusOK, gin.H{"enabled": enabled})
	}
}
