package repository

import (
	"context"
	"time"

	"campus-openings/internal/database"
	"campus-openings/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type JobRepo struct {
	collection *mongo.Collection
}

func NewJobRepo(db *database.Mongo) *JobRepo {
	return &JobRepo{
		collection: db.Collection("jobs"),
	}
}

func (r *JobRepo) Create(ctx context.Context, job *models.JobPosting) error {
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	if job.Domain == nil {
		job.Domain = []string{}
	}
	result, err := r.collection.InsertOne(ctx, job)
	if err != nil {
		return err
	}
	job.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

func (r *JobRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListExcludingOwner returns postings not owned by owner, newest first, with
// the owner document joined in. Postings whose owner no longer exists are
// kept with a nil Owner.
func (r *JobRepo) ListExcludingOwner(ctx context.Context, owner bson.ObjectID) ([]models.JobPostingView, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user": bson.M{"$ne": owner}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	pipeline = append(pipeline, joinOwner(true)...)
	return r.aggregate(ctx, pipeline)
}

// ListByOwnerCollege returns postings whose owner studies at college, newest first.
func (r *JobRepo) ListByOwnerCollege(ctx context.Context, college string) ([]models.JobPostingView, error) {
	pipeline := joinOwner(false)
	pipeline = append(pipeline,
		bson.D{{Key: "$match", Value: bson.M{"user.collegeName": college}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	)
	return r.aggregate(ctx, pipeline)
}

func (r *JobRepo) ListByIDs(ctx context.Context, ids []bson.ObjectID) ([]models.JobPosting, error) {
	jobs := []models.JobPosting{}
	if len(ids) == 0 {
		return jobs, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// EnsureIndexes creates necessary indexes for the jobs collection
func (r *JobRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// joinOwner replaces the owner id with the owner document, minus credentials.
// With keepOrphans, postings without a matching owner stay in the result.
func joinOwner(keepOrphans bool) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user",
			"foreignField": "_id",
			"as":           "user",
			"pipeline": bson.A{
				bson.M{"$project": bson.M{"password": 0, "refreshToken": 0}},
			},
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$user",
			"preserveNullAndEmptyArrays": keepOrphans,
		}}},
	}
}

func (r *JobRepo) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]models.JobPostingView, error) {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	views := []models.JobPostingView{}
	if err := cursor.All(ctx, &views); err != nil {
		return nil, err
	}
	return views, nil
}
