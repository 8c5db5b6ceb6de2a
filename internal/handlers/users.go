package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backend/internal/store"
)

// ListUsers returns every profile for the admin dashboard.
func ListUsers(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "USERS")

		profiles := st.ListProfiles(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"users": profiles})
	}
}
