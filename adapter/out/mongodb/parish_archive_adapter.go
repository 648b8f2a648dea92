package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"parish_server/core/domain"
	"parish_server/core/port/out"
	"parish_server/pkg/apperr"
)

const collectionRejected = "rejected_replies"

// ArchiveAdapter stores rejected replies for operator review. Documents
// expire through a TTL index so the collection never needs manual
// cleanup.
type ArchiveAdapter struct {
	collection *mongo.Collection
	ttl        time.Duration
}

var _ out.ReplyArchive = (*ArchiveAdapter)(nil)

func NewArchiveAdapter(db *mongo.Database, ttl time.Duration) *ArchiveAdapter {
	return &ArchiveAdapter{
		collection: db.Collection(collectionRejected),
		ttl:        ttl,
	}
}

// EnsureIndexes creates the lookup and expiry indexes.
func (a *ArchiveAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "thread_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "rejected_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(a.ttl.Seconds())),
		},
	}
	if _, err := a.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return apperr.DatabaseError("create archive indexes", err)
	}
	return nil
}

func (a *ArchiveAdapter) ArchiveRejected(ctx context.Context, r *domain.RejectedReply) error {
	if r.RejectedAt.IsZero() {
		r.RejectedAt = time.Now()
	}
	if _, err := a.collection.InsertOne(ctx, r); err != nil {
		return apperr.DatabaseError("archive rejected reply", err)
	}
	return nil
}

func (a *ArchiveAdapter) ListRecent(ctx context.Context, limit int) ([]domain.RejectedReply, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "rejected_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := a.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, apperr.DatabaseError("list rejected replies", err)
	}
	defer cursor.Close(ctx)

	var replies []domain.RejectedReply
	if err := cursor.All(ctx, &replies); err != nil {
		return nil, apperr.DatabaseError("decode rejected replies", err)
	}
	return replies, nil
}
