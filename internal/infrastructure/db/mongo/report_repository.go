package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gatherly/community-service/internal/core/domain"
)

const collectionReports = "reports"

// ReportRepository implements ports.ReportRepository using MongoDB. The
// pending-to-terminal transition is a single findAndModify, so concurrent
// resolvers of the same report are serialized by the database: the first one
// wins, the rest see ErrReportResolved.
type ReportRepository struct {
	col *mongo.Collection
}

func NewReportRepository(db *mongo.Database) *ReportRepository {
	return &ReportRepository{col: db.Collection(collectionReports)}
}

func (r *ReportRepository) Insert(ctx context.Context, rep *domain.Report) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, rep)
	return err
}

func (r *ReportRepository) FindByID(ctx context.Context, id string) (*domain.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rep domain.Report
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rep)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReportNotFound
		}
		return nil, err
	}
	return &rep, nil
}

// Resolve atomically moves a pending report to its terminal status.
func (r *ReportRepository) Resolve(ctx context.Context, id string, status domain.ReportStatus, resolverID, notes string, at time.Time) (*domain.Report, error) {
	if !domain.ReportPending.CanTransitionTo(status) {
		return nil, fmt.Errorf("resolve: invalid target status %q", status)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "status": domain.ReportPending}
	update := bson.M{"$set": bson.M{
		"status":          string(status),
		"resolved_by":     resolverID,
		"resolved_at":     at.UTC(),
		"moderator_notes": notes,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rep domain.Report
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rep)
	if err == nil {
		return &rep, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// No pending document matched: either the report does not exist, or it
	// was already resolved by a concurrent moderator.
	n, cntErr := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if cntErr != nil {
		return nil, cntErr
	}
	if n == 0 {
		return nil, domain.ErrReportNotFound
	}
	return nil, domain.ErrReportResolved
}

// ListPending returns pending reports, newest first.
func (r *ReportRepository) ListPending(ctx context.Context) ([]*domain.Report, error) {
	return r.list(ctx,
		bson.M{"status": domain.ReportPending},
		bson.D{{Key: "created_at", Value: -1}},
	)
}

// ListResolved returns resolved reports ordered by resolution time, newest first.
func (r *ReportRepository) ListResolved(ctx context.Context) ([]*domain.Report, error) {
	return r.list(ctx,
		bson.M{"status": bson.M{"$ne": domain.ReportPending}},
		bson.D{{Key: "resolved_at", Value: -1}},
	)
}

func (r *ReportRepository) list(ctx context.Context, filter bson.M, sort bson.D) ([]*domain.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var reports []*domain.Report
	if err := cur.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// EnsureIndexes creates necessary indexes on the reports collection.
func (r *ReportRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "event_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
