package import_feature

import (
	"context"
	"time"

	"go-crm-import/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ImportHistory is the stored outcome of one finished or aborted job.
type ImportHistory struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SessionID    string             `json:"session_id" bson:"session_id"`
	UserID       string             `json:"user_id" bson:"user_id"`
	Job          string             `json:"job" bson:"job"`
	Entity       string             `json:"entity" bson:"entity"`
	Status       JobStatus          `json:"status" bson:"status"`
	TotalRecords int                `json:"total_records" bson:"total_records"`
	SuccessCount int                `json:"success_count" bson:"success_count"`
	FailedCount  int                `json:"failed_count" bson:"failed_count"`
	Logs         []ImportLogEntry   `json:"logs,omitempty" bson:"logs,omitempty"`
	Error        string             `json:"error,omitempty" bson:"error,omitempty"`
	StartedAt    time.Time          `json:"started_at" bson:"started_at"`
	FinishedAt   time.Time          `json:"finished_at" bson:"finished_at"`
}

// HistoryFilter narrows List. Zero values match everything.
type HistoryFilter struct {
	Entity string
	UserID string
	Limit  int64
}

type HistoryRepository interface {
	Save(ctx context.Context, h *ImportHistory) error
	List(ctx context.Context, filter HistoryFilter) ([]ImportHistory, error)
	EnsureIndexes(ctx context.Context) error
}

type HistoryRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewHistoryRepository(mongodb *database.MongodbDB) HistoryRepository {
	return &HistoryRepositoryImpl{
		Collection: mongodb.DB.Collection("import_history"),
	}
}

func (r *HistoryRepositoryImpl) Save(ctx context.Context, h *ImportHistory) error {
	if h.ID.IsZero() {
		h.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, h)
	return err
}

func (r *HistoryRepositoryImpl) List(ctx context.Context, filter HistoryFilter) ([]ImportHistory, error) {
	query := bson.M{}
	if filter.Entity != "" {
		query["entity"] = filter.Entity
	}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().SetSort(bson.D{{Key: "finished_at", Value: -1}}).SetLimit(limit)

	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var history []ImportHistory
	if err = cursor.All(ctx, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// EnsureIndexes creates the indexes used by List.
func (r *HistoryRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "finished_at", Value: -1}}},
		{Keys: bson.D{{Key: "entity", Value: 1}, {Key: "finished_at", Value: -1}}},
	})
	return err
}
