package entity

import (
	"time"

	"clipway/pkg/moderation"
)

// VideoRecord is the persisted, published video post. Fields are copied from
// the draft at publish time and never mutated afterwards by the publish flow.
type VideoRecord struct {
	ID               string             `json:"id"`
	OwnerID          string             `json:"owner_id"`
	MediaURL         string             `json:"media_url"`
	ThumbnailURL     string             `json:"thumbnail_url,omitempty"`
	Caption          string             `json:"caption"`
	Hashtags         []string           `json:"hashtags"`
	Mentions         []string           `json:"mentions"`
	Location         string             `json:"location"`
	LikeCount        int64              `json:"like_count"`
	CommentCount     int64              `json:"comment_count"`
	ModerationReport *moderation.Report `json:"moderation_report,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// PipelineState tracks one publish attempt through its linear stage sequence.
type PipelineState string

const (
	PipelineIdle       PipelineState = "idle"
	PipelineUploading  PipelineState = "uploading"
	PipelineModerating PipelineState = "moderating"
	PipelinePersisting PipelineState = "persisting"
	PipelinePublished  PipelineState = "published"
	PipelineFailed     PipelineState = "failed"
)

// PublishProgress is the externally visible view of an in-flight publish.
// Percent is the display-scaled pipeline progress, not the raw wire fraction.
type PublishProgress struct {
	State   PipelineState `json:"state"`
	Percent float64       `json:"percent"`
	Reason  string        `json:"reason,omitempty"`
	VideoID string        `json:"video_id,omitempty"`
}
