package repository

import (
	"context"
	"errors"
	"time"

	"campus-openings/internal/auth"
	"campus-openings/internal/database"
	"campus-openings/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate key")
	// ErrNotFound is returned when an update matched no document.
	ErrNotFound = errors.New("not found")
)

type UpdateResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

type UserRepo struct {
	collection *mongo.Collection
	bcryptCost int
}

func NewUserRepo(db *database.Mongo, bcryptCost int) *UserRepo {
	return &UserRepo{
		collection: db.Collection("users"),
		bcryptCost: bcryptCost,
	}
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepo) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"phoneNumber": phone})
}

func (r *UserRepo) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepo) FindByCollege(ctx context.Context, college string) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"collegeName": college},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Create hashes password and inserts the user. Every path that writes a
// password goes through hashing here or in UpdatePassword.
func (r *UserRepo) Create(ctx context.Context, user *models.User, password string) error {
	hash, err := auth.HashPassword(password, r.bcryptCost)
	if err != nil {
		return err
	}
	user.Password = hash
	user.Normalize()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	user.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id bson.ObjectID, password string) error {
	hash, err := auth.HashPassword(password, r.bcryptCost)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now()}})
}

func (r *UserRepo) UpdateProfilePicture(ctx context.Context, id bson.ObjectID, url string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"profilePicture": url, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) MarkVerified(ctx context.Context, id bson.ObjectID) (UpdateResult, error) {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"isVerified": true, "updatedAt": time.Now()},
	})
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

// SetRefreshToken is a targeted $set, the rest of the document is untouched.
func (r *UserRepo) SetRefreshToken(ctx context.Context, id bson.ObjectID, token string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"refreshToken": token}})
}

func (r *UserRepo) SwapRefreshToken(ctx context.Context, id bson.ObjectID, current, next string) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "refreshToken": current},
		bson.M{"$set": bson.M{"refreshToken": next}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *UserRepo) ClearRefreshToken(ctx context.Context, id bson.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$unset": bson.M{"refreshToken": ""},
	})
	return err
}

// Push appends value to the array at field.
func (r *UserRepo) Push(ctx context.Context, id bson.ObjectID, field string, value any) error {
	return r.updateOne(ctx, id, bson.M{
		"$push": bson.M{field: value},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}

// Pull removes every occurrence of value from the array at field.
func (r *UserRepo) Pull(ctx context.Context, id bson.ObjectID, field string, value any) error {
	return r.updateOne(ctx, id, bson.M{
		"$pull": bson.M{field: value},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}

// EnsureIndexes creates necessary indexes for the users collection
func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "phoneNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "collegeName", Value: 1}},
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) updateOne(ctx context.Context, id bson.ObjectID, update bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
