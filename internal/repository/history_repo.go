package repository

import (
	"context"
	"time"

	"github.com/Zara8170/song-ai/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HistoryRepository guarda en Mongo el historial de corridas del pipeline.
type HistoryRepository struct {
	col *mongo.Collection
}

func NewHistoryRepository(mdb *mongo.Database) *HistoryRepository {
	return &HistoryRepository{col: mdb.Collection("recommendation_history")}
}

func (r *HistoryRepository) Insert(ctx context.Context, h *models.RecommendationHistory) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	_, err := r.col.InsertOne(ctx, h)
	return err
}

// FindByMember lista el historial de un usuario, más reciente primero.
func (r *HistoryRepository) FindByMember(ctx context.Context, memberID string, limit int64) ([]models.RecommendationHistory, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, bson.M{"memberId": memberID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.RecommendationHistory
	for cur.Next(ctx) {
		var h models.RecommendationHistory
		if err := cur.Decode(&h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, cur.Err()
}
