package model

import (
	"time"

	"clipway/pkg/moderation"
)

// VideoDoc is the document-store layout of a published video. One document
// per video, keyed by the derived id string.
type VideoDoc struct {
	ID               string             `bson:"_id"`
	OwnerID          string             `bson:"owner_id"`
	MediaURL         string             `bson:"media_url"`
	Caption          string             `bson:"caption"`
	Hashtags         []string           `bson:"hashtags"`
	Mentions         []string           `bson:"mentions"`
	Location         string             `bson:"location"`
	LikeCount        int64              `bson:"like_count"`
	CommentCount     int64              `bson:"comment_count"`
	ModerationReport *moderation.Report `bson:"moderation_report,omitempty"`
	CreatedAt        time.Time          `bson:"created_at"`
}

// ModerationAuditDoc is one stored classification outcome, written for every
// gate run regardless of pass/fail.
type ModerationAuditDoc struct {
	ID        string             `bson:"_id"`
	VideoID   string             `bson:"video_id"`
	OwnerID   string             `bson:"owner_id"`
	MediaURL  string             `bson:"media_url"`
	Report    *moderation.Report `bson:"report"`
	CreatedAt time.Time          `bson:"created_at"`
}
