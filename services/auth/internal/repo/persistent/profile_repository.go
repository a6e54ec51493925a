package persistent

import (
	"context"
	"time"

	"clipway/services/auth/internal/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const profilesCollection = "users"

// ProfileRepository manages the user document in the document store. The
// credential row and the profile document are created together on register.
type ProfileRepository interface {
	Create(ctx context.Context, profile *entity.Profile) error
	GetByUID(ctx context.Context, uid string) (*entity.Profile, error)
	Update(ctx context.Context, uid string, update ProfileUpdate) error
}

// ProfileUpdate is a partial update of the profile document. Nil fields keep
// their stored value.
type ProfileUpdate struct {
	Username *string
	Bio      *string
	Passions *[]string
	Picture  *string
}

type profileRepository struct {
	collection *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) ProfileRepository {
	return &profileRepository{collection: db.Collection(profilesCollection)}
}

type profileDoc struct {
	UID            string    `bson:"_id"`
	Email          string    `bson:"email"`
	Username       string    `bson:"username"`
	Bio            string    `bson:"bio"`
	Passions       []string  `bson:"passions"`
	ProfilePicture string    `bson:"profile_picture"`
	Followers      int       `bson:"followers"`
	Following      int       `bson:"following"`
	Posts          []string  `bson:"posts"`
	CreatedAt      time.Time `bson:"created_at"`
}

func (r *profileRepository) Create(ctx context.Context, profile *entity.Profile) error {
	if profile.Posts == nil {
		profile.Posts = []string{}
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, profileDoc{
		UID:            profile.UID,
		Email:          profile.Email,
		Username:       profile.Username,
		Bio:            profile.Bio,
		Passions:       profile.Passions,
		ProfilePicture: profile.ProfilePicture,
		Followers:      profile.Followers,
		Following:      profile.Following,
		Posts:          profile.Posts,
		CreatedAt:      profile.CreatedAt,
	})
	return err
}

func (r *profileRepository) Update(ctx context.Context, uid string, update ProfileUpdate) error {
	set := bson.M{}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.Passions != nil {
		set["passions"] = *update.Passions
	}
	if update.Picture != nil {
		set["profile_picture"] = *update.Picture
	}
	if len(set) == 0 {
		return nil
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *profileRepository) GetByUID(ctx context.Context, uid string) (*entity.Profile, error) {
	var doc profileDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": uid}).Decode(&doc); err != nil {
		return nil, err
	}

	return &entity.Profile{
		UID:            doc.UID,
		Email:          doc.Email,
		Username:       doc.Username,
		Bio:            doc.Bio,
		Passions:       doc.Passions,
		ProfilePicture: doc.ProfilePicture,
		Followers:      doc.Followers,
		Following:      doc.Following,
		Posts:          doc.Posts,
		CreatedAt:      doc.CreatedAt,
	}, nil
}
