package persistent

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const profilesCollection = "users"

// ProfileRepository gives the publish flow access to the owner's profile
// document. AppendPost must be append-unique so a retried publish cannot
// duplicate an id in the posts list.
type ProfileRepository interface {
	AppendPost(ctx context.Context, uid, videoID string) error
	RemovePost(ctx context.Context, uid, videoID string) error
	GetPosts(ctx context.Context, uid string) ([]string, error)
	UsernameDirectory(ctx context.Context) ([]string, error)
}

type profileRepository struct {
	collection *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) ProfileRepository {
	return &profileRepository{collection: db.Collection(profilesCollection)}
}

func (r *profileRepository) AppendPost(ctx context.Context, uid, videoID string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{"$addToSet": bson.M{"posts": videoID}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *profileRepository) RemovePost(ctx context.Context, uid, videoID string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{"$pull": bson.M{"posts": videoID}},
	)
	return err
}

func (r *profileRepository) GetPosts(ctx context.Context, uid string) ([]string, error) {
	var doc struct {
		Posts []string `bson:"posts"`
	}
	err := r.collection.FindOne(ctx, bson.M{"_id": uid},
		options.FindOne().SetProjection(bson.M{"posts": 1}),
	).Decode(&doc)
	if err != nil {
		return nil, err
	}
	if doc.Posts == nil {
		doc.Posts = []string{}
	}
	return doc.Posts, nil
}

// UsernameDirectory returns every registered handle for mention suggestions.
func (r *profileRepository) UsernameDirectory(ctx context.Context) ([]string, error) {
	cursor, err := r.collection.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"username": 1}).SetSort(bson.M{"username": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	usernames := []string{}
	for cursor.Next(ctx) {
		var doc struct {
			Username string `bson:"username"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		if doc.Username != "" {
			usernames = append(usernames, doc.Username)
		}
	}
	return usernames, cursor.Err()
}
