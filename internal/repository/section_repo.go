package repository

import (
	"context"
	"errors"
	"fmt"

	"campus-openings/internal/database"
	"campus-openings/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SectionRepo stores profile entries, one collection per section kind.
type SectionRepo struct {
	db *database.Mongo
}

func NewSectionRepo(db *database.Mongo) *SectionRepo {
	return &SectionRepo{db: db}
}

func (r *SectionRepo) collection(kind models.SectionKind) (*mongo.Collection, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown section kind %q", kind)
	}
	return r.db.Collection(kind.Collection()), nil
}

func (r *SectionRepo) Insert(ctx context.Context, kind models.SectionKind, doc any) (bson.ObjectID, error) {
	coll, err := r.collection(kind)
	if err != nil {
		return bson.ObjectID{}, err
	}
	result, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return bson.ObjectID{}, err
	}
	return result.InsertedID.(bson.ObjectID), nil
}

// Delete removes the entry if owner owns it and returns the removed document,
// or nil when nothing matched.
func (r *SectionRepo) Delete(ctx context.Context, kind models.SectionKind, id, owner bson.ObjectID) (bson.Raw, error) {
	coll, err := r.collection(kind)
	if err != nil {
		return nil, err
	}
	raw, err := coll.FindOneAndDelete(ctx, bson.M{"_id": id, "owner": owner}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}

// Restore re-inserts a document previously returned by Delete.
func (r *SectionRepo) Restore(ctx context.Context, kind models.SectionKind, doc bson.Raw) error {
	coll, err := r.collection(kind)
	if err != nil {
		return err
	}
	_, err = coll.InsertOne(ctx, doc)
	return err
}

// EnsureIndexes creates an owner index on every section collection.
func (r *SectionRepo) EnsureIndexes(ctx context.Context) error {
	for _, kind := range models.SectionKinds {
		_, err := r.db.Collection(kind.Collection()).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "owner", Value: 1}},
			Options: options.Index(),
		})
		if err != nil {
			return fmt.Errorf("%s: %w", kind.Collection(), err)
		}
	}
	return nil
}
