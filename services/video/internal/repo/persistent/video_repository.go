package persistent

import (
	"context"

	"clipway/services/video/internal/entity"
	"clipway/services/video/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const videosCollection = "videos"

type VideoRepository interface {
	Create(ctx context.Context, video *entity.VideoRecord) error
	GetByID(ctx context.Context, id string) (*entity.VideoRecord, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.VideoRecord, error)
	Delete(ctx context.Context, id string) error
}

type videoRepository struct {
	collection *mongo.Collection
}

func NewVideoRepository(db *mongo.Database) VideoRepository {
	return &videoRepository{collection: db.Collection(videosCollection)}
}

func (r *videoRepository) Create(ctx context.Context, video *entity.VideoRecord) error {
	_, err := r.collection.InsertOne(ctx, ToVideoDoc(video))
	return err
}

func (r *videoRepository) GetByID(ctx context.Context, id string) (*entity.VideoRecord, error) {
	var doc model.VideoDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, err
	}
	return ToVideoEntity(&doc), nil
}

// GetByIDs loads the given videos preserving the order of ids. Missing ids
// are skipped rather than failing the whole read.
func (r *videoRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.VideoRecord, error) {
	if len(ids) == 0 {
		return []*entity.VideoRecord{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	byID := make(map[string]*entity.VideoRecord, len(ids))
	for cursor.Next(ctx) {
		var doc model.VideoDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		byID[doc.ID] = ToVideoEntity(&doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	videos := make([]*entity.VideoRecord, 0, len(ids))
	for _, id := range ids {
		if video, ok := byID[id]; ok {
			videos = append(videos, video)
		}
	}
	return videos, nil
}

func (r *videoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
