package models

import "time"

// SiteSetting is a single key/value row of globally shared configuration
// (social links). Admin-mutated only.
type SiteSetting struct {
	Key       string    `bson:"_id" json:"key"`
	Value     string    `bson:"value" json:"value"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

const (
	SettingFacebookURL = "facebook_url"
	SettingYoutubeURL  = "youtube_url"
)
