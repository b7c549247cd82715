package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gatherly/community-service/internal/core/domain"
	"github.com/gatherly/community-service/internal/core/ports"
)

const collectionEvents = "events"

// EventRepository implements ports.EventRepository using MongoDB. All
// participant and moderation mutations are single conditional updates, so
// concurrent callers on one event are linearized by the database.
type EventRepository struct {
	col *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{col: db.Collection(collectionEvents)}
}

// Create inserts a new event document.
func (r *EventRepository) Create(ctx context.Context, e *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, e)
	return err
}

// FindByID retrieves an event by id.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var e domain.Event
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// List returns a page of events matching filter and the total count.
func (r *EventRepository) List(ctx context.Context, f ports.ListEventsFilter) ([]*domain.Event, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.CreatorID != "" {
		filter["creator_id"] = f.CreatorID
	}
	if f.ParticipantID != "" {
		filter["participant_ids"] = f.ParticipantID
	}
	if f.ActiveOnly {
		filter["is_active"] = true
	}
	if !f.IncludeBlocked {
		filter["is_blocked"] = false
	}

	dateFilter := bson.M{}
	if !f.DateFrom.IsZero() {
		dateFilter["$gte"] = f.DateFrom.UTC()
	}
	if !f.DateTo.IsZero() {
		dateFilter["$lte"] = f.DateTo.UTC()
	}
	if len(dateFilter) > 0 {
		filter["event_date"] = dateFilter
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "event_date", Value: 1}}).
		SetSkip(int64((page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var events []*domain.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// Update replaces the full document, guarded by the event's version. The
// losing writer of a concurrent update gets domain.ErrConflict and must retry
// from a fresh read.
func (r *EventRepository) Update(ctx context.Context, e *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	replacement := *e
	replacement.Version = e.Version + 1

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": e.ID, "version": e.Version}, &replacement)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.classifyMissedWrite(ctx, e.ID, domain.ErrConflict)
	}
	e.Version = replacement.Version
	return nil
}

// AddParticipant appends userID in a single conditional update. The filter
// re-states every precondition, so two joins racing for the last slot cannot
// both match.
func (r *EventRepository) AddParticipant(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{
		"_id":             eventID,
		"is_active":       true,
		"is_blocked":      false,
		"event_date":      bson.M{"$gt": now},
		"participant_ids": bson.M{"$ne": userID},
		"$expr":           bson.M{"$lt": bson.A{bson.M{"$size": "$participant_ids"}, "$max_participants"}},
	}
	update := bson.M{
		"$push": bson.M{"participant_ids": userID},
		"$inc":  bson.M{"version": 1},
		"$set":  bson.M{"updated_at": now},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.classifyJoinFailure(ctx, eventID, userID)
	}
	return nil
}

// classifyJoinFailure re-reads the event to turn a missed conditional write
// into the precise business error.
func (r *EventRepository) classifyJoinFailure(ctx context.Context, eventID, userID string) error {
	e, err := r.FindByID(ctx, eventID)
	if err != nil {
		return err
	}
	switch {
	case !e.IsActive || e.IsCompleted(time.Now().UTC()):
		return domain.ErrEventInactive
	case e.HasParticipant(userID):
		return domain.ErrAlreadyParticipant
	case e.IsFull():
		return domain.ErrEventFull
	default:
		// The event changed between the write and the re-read.
		return domain.ErrConflict
	}
}

// RemoveParticipant removes userID from the participant set.
func (r *EventRepository) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": eventID, "participant_ids": userID}
	update := bson.M{
		"$pull": bson.M{"participant_ids": userID},
		"$inc":  bson.M{"version": 1},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.classifyMissedWrite(ctx, eventID, domain.ErrNotParticipant)
	}
	return nil
}

// Block marks the event blocked and inactive. Attribution is written only by
// the first blocker; re-blocking is a no-op success.
func (r *EventRepository) Block(ctx context.Context, eventID, moderatorID, reason string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": eventID, "is_blocked": false}
	update := bson.M{
		"$set": bson.M{
			"is_blocked":   true,
			"is_active":    false,
			"blocked_by":   moderatorID,
			"blocked_at":   at.UTC(),
			"block_reason": reason,
			"updated_at":   at.UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Already blocked is fine; only a missing event is an error.
		return r.classifyMissedWrite(ctx, eventID, nil)
	}
	return nil
}

// Deactivate hides the event and records moderation notes, leaving the
// blocked flag untouched. Idempotent.
func (r *EventRepository) Deactivate(ctx context.Context, eventID, notes string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"is_active":        false,
			"moderation_notes": notes,
			"updated_at":       time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": eventID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// classifyMissedWrite distinguishes "document absent" from "document present
// but the condition did not hold", returning onMismatch for the latter.
func (r *EventRepository) classifyMissedWrite(ctx context.Context, eventID string, onMismatch error) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": eventID})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrEventNotFound
	}
	return onMismatch
}

// EnsureIndexes creates necessary indexes on the events collection.
func (r *EventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "creator_id", Value: 1}}},
		{Keys: bson.D{{Key: "participant_ids", Value: 1}}},
		{Keys: bson.D{{Key: "event_date", Value: 1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "is_blocked", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
