package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gatherly/community-service/internal/core/domain"
)

const collectionInterests = "interests"

// InterestRepository serves the interest lookup table.
type InterestRepository struct {
	col *mongo.Collection
}

func NewInterestRepository(db *mongo.Database) *InterestRepository {
	return &InterestRepository{col: db.Collection(collectionInterests)}
}

func (r *InterestRepository) List(ctx context.Context) ([]*domain.Interest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var interests []*domain.Interest
	if err := cur.All(ctx, &interests); err != nil {
		return nil, err
	}
	return interests, nil
}

func (r *InterestRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Interest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var interests []*domain.Interest
	if err := cur.All(ctx, &interests); err != nil {
		return nil, err
	}
	return interests, nil
}

// Seed upserts the given interests; used at startup to populate the lookup
// table on a fresh database.
func (r *InterestRepository) Seed(ctx context.Context, interests []domain.Interest) error {
	for _, in := range interests {
		filter := bson.M{"_id": in.ID}
		update := bson.M{"$set": bson.M{"name": in.Name, "category": in.Category}}
		if _, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
			return err
		}
	}
	return nil
}
