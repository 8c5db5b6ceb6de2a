package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/middleware"
	"backend/internal/models"
	"backend/internal/store"
)

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
	// UserID selects the conversation when an admin replies. Ignored for
	// customers, whose conversation is their own.
	UserID string `json:"userId"`
}

// conversationOwner resolves which customer's thread the caller is acting
// on. Customers always act on their own thread; admins must name one.
func conversationOwner(c *gin.Context, requested string) (primitive.ObjectID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return primitive.NilObjectID, false
	}
	if middleware.Role(c) != models.RoleAdmin {
		return userID, true
	}

	if strings.TrimSpace(requested) == "" {
		respondWithError(c, http.StatusBadRequest, "MESSAGES", "userId is required")
		return primitive.NilObjectID, false
	}
	owner, err := primitive.ObjectIDFromHex(strings.TrimSpace(requested))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "MESSAGES", "invalid userId")
		return primitive.NilObjectID, false
	}
	return owner, true
}

// ListMessages returns a conversation oldest first. Admins pass ?userId= to
// pick a thread, or omit it to see every thread.
func ListMessages(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "MESSAGES")

		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var owner *primitive.ObjectID
		if middleware.Role(c) == models.RoleAdmin {
			if raw := strings.TrimSpace(c.Query("userId")); raw != "" {
				id, err := primitive.ObjectIDFromHex(raw)
				if err != nil {
					respondWithError(c, http.StatusBadRequest, "MESSAGES", "invalid userId")
					return
				}
				owner = &id
			}
		} else {
			owner = &userID
		}

		messages := st.ListMessages(c.Request.Context(), owner)
		c.JSON(http.StatusOK, gin.H{"messages": messages})
	}
}

// SendMessage appends a message to a support conversation.
func SendMessage(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "MESSAGES")

		var req SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		text := strings.TrimSpace(req.Message)
		if text == "" {
			respondWithError(c, http.StatusBadRequest, "MESSAGES", "message is required")
			return
		}

		owner, ok := conversationOwner(c, req.UserID)
		if !ok {
			return
		}

		senderRole := models.RoleUser
		if middleware.Role(c) == models.RoleAdmin {
			senderRole = models.RoleAdmin
		}

		msg := models.SupportMessage{
			UserID:     owner,
			SenderRole: senderRole,
			Message:    text,
			IsRead:     false,
			CreatedAt:  time.Now(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		id, err := st.SendMessage(ctx, msg)
		if err != nil {
			log.Println("[MESSAGES] [ERROR] send failed:", err)
			respondWithError(c, http.StatusInternalServerError, "MESSAGES", err.Error())
			return
		}
		msg.ID = id

		c.JSON(http.StatusCreated, msg)
	}
}

// MarkMessagesRead marks the counterpart's messages in a conversation as
// read.
func MarkMessagesRead(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "MESSAGES")

		var req struct {
			UserID string `json:"userId"`
		}
		_ = c.ShouldBindJSON(&req)

		owner, ok := conversationOwner(c, req.UserID)
		if !ok {
			return
		}

		// Reading your thread clears the other side's unread flags.
		counterpart := models.RoleAdmin
		if middleware.Role(c) == models.RoleAdmin {
			counterpart = models.RoleUser
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := st.MarkMessagesRead(ctx, owner, counterpart); err != nil {
			log.Println("[MESSAGES] [ERROR] mark read failed:", err)
			respondWithError(c, http.StatusInternalServerError, "MESSAGES", err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "messages marked read"})
	}
}
