package repository

import (
	"context"

	"adaptivequiz/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResultRepo stores completed questionnaires. Past results double as the
// respondent's session history.
type ResultRepo interface {
	Create(ctx context.Context, result *model.TestResult) error
	GetByID(ctx context.Context, id string) (*model.TestResult, error)
	// GetRecentByRespondent returns up to limit results, most recent first
	GetRecentByRespondent(ctx context.Context, respondentID string, limit int) ([]model.TestResult, error)
	EnsureIndexes(ctx context.Context) error
}

type resultRepo struct {
	collection *mongo.Collection
}

func NewResultRepo(db *mongo.Database) ResultRepo {
	return &resultRepo{
		collection: db.Collection("results"),
	}
}

func (r *resultRepo) Create(ctx context.Context, result *model.TestResult) error {
	_, err := r.collection.InsertOne(ctx, result)
	return err
}

func (r *resultRepo) GetByID(ctx context.Context, id string) (*model.TestResult, error) {
	var result model.TestResult
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *resultRepo) GetRecentByRespondent(ctx context.Context, respondentID string, limit int) ([]model.TestResult, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "completedAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{"respondentId": respondentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []model.TestResult{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *resultRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "respondentId", Value: 1}, {Key: "completedAt", Value: -1}},
	})
	return err
}
