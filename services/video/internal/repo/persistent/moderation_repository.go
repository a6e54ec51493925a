package persistent

import (
	"context"
	"time"

	"clipway/pkg/moderation"
	"clipway/services/video/internal/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

const moderationCollection = "moderation_reports"

// ModerationAuditRepository persists every classification outcome, pass or
// fail, for later review.
type ModerationAuditRepository interface {
	Save(ctx context.Context, videoID, ownerID, mediaURL string, report *moderation.Report) error
}

type moderationAuditRepository struct {
	collection *mongo.Collection
}

func NewModerationAuditRepository(db *mongo.Database) ModerationAuditRepository {
	return &moderationAuditRepository{collection: db.Collection(moderationCollection)}
}

func (r *moderationAuditRepository) Save(ctx context.Context, videoID, ownerID, mediaURL string, report *moderation.Report) error {
	_, err := r.collection.InsertOne(ctx, model.ModerationAuditDoc{
		ID:        uuid.New().String(),
		VideoID:   videoID,
		OwnerID:   ownerID,
		MediaURL:  mediaURL,
		Report:    report,
		CreatedAt: time.Now(),
	})
	return err
}
