package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"backend/internal/assistant"
)

type AssistantRequest struct {
	Message string `json:"message" binding:"required"`
}

// AssistantChat answers a single chat-widget turn. The generator never
// fails outward; it degrades to a fixed reply instead.
func AssistantChat(gen assistant.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "ASSISTANT")

		var req AssistantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		reply := gen.GenerateReply(c.Request.Context(), strings.TrimSpace(req.Message))
		c.JSON(http.StatusOK, gin.H{"reply": reply})
	}
}
