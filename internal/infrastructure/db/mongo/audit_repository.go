package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gatherly/community-service/internal/core/domain"
)

const collectionAudit = "audit_log"

// AuditRepository persists the append-only audit trail. Entries are only ever
// inserted and read; there is no update or delete path.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit)}
}

type mongoAuditEntry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	AdminID    string             `bson:"admin_id"`
	Action     string             `bson:"action"`
	TargetType string             `bson:"target_type"`
	TargetID   string             `bson:"target_id"`
	Changes    map[string]string  `bson:"changes"`
	CreatedAt  time.Time          `bson:"created_at"`
	IP         string             `bson:"ip,omitempty"`
}

func (r *AuditRepository) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoAuditEntry{
		AdminID:    entry.AdminID,
		Action:     string(entry.Action),
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Changes:    entry.Changes,
		CreatedAt:  entry.CreatedAt.UTC(),
		IP:         entry.IP,
	}
	_, err := r.col.InsertOne(ctx, doc)
	return err
}

// HasEntry reports whether an entry for the given action and target exists.
func (r *AuditRepository) HasEntry(ctx context.Context, action domain.AuditAction, targetID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	count, err := r.col.CountDocuments(ctx, bson.M{
		"action":    string(action),
		"target_id": targetID,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns the most recent entries, newest first.
func (r *AuditRepository) List(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []mongoAuditEntry
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	entries := make([]*domain.AuditEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, &domain.AuditEntry{
			ID:         d.ID.Hex(),
			AdminID:    d.AdminID,
			Action:     domain.AuditAction(d.Action),
			TargetType: d.TargetType,
			TargetID:   d.TargetID,
			Changes:    d.Changes,
			CreatedAt:  d.CreatedAt,
			IP:         d.IP,
		})
	}
	return entries, nil
}
