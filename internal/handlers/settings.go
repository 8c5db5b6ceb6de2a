package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"backend/internal/models"
	"backend/internal/store"
)

// defaults used until an admin saves real links.
var defaultSettings = map[string]string{
	models.SettingFacebookURL: "https://facebook.com",
	models.SettingYoutubeURL:  "https://youtube.com",
}

type UpdateSettingsRequest struct {
	FacebookURL string `json:"facebookUrl"`
	YoutubeURL  string `json:"youtubeUrl"`
}

// GetSettings is public: the landing page footer reads these links.
func GetSettings(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "SETTINGS")

		settings := st.GetSettings(c.Request.Context())
		for key, value := range defaultSettings {
			if settings[key] == "" {
				settings[key] = value
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"facebookUrl": settings[models.SettingFacebookURL],
			"youtubeUrl":  settings[models.SettingYoutubeURL],
		})
	}
}

// UpdateSettings saves the site links. Empty fields are left untouched.
func UpdateSettings(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "SETTINGS")

		var req UpdateSettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		updates := map[string]string{
			models.SettingFacebookURL: strings.TrimSpace(req.FacebookURL),
			models.SettingYoutubeURL:  strings.TrimSpace(req.YoutubeURL),
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		for key, value := range updates {
			if value == "" {
				continue
			}
			if err := st.UpsertSetting(ctx, key, value); err != nil {
				log.Println("[SETTINGS] [ERROR] save failed:", err)
				respondWithError(c, http.StatusInternalServerError, "SETTINGS", err.Error())
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "settings saved"})
	}
}
