package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/bistro-boss-server/internal/database"
	"github.com/iliyamo/bistro-boss-server/internal/model"
)

// CartRepo reads and writes the `carts` collection.
type CartRepo struct{ col *mongo.Collection }

func NewCartRepo(db *mongo.Database) *CartRepo { return &CartRepo{col: db.Collection(database.CartCollection)} }

// ListByEmail returns the cart lines owned by email.
func (r *CartRepo) ListByEmail(ctx context.Context, email string) ([]model.CartItem, error) {
	cur, err := r.col.Find(ctx, bson.M{"email": email})
	if err != nil {
		return nil, err
	}
	items := []model.CartItem{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CartRepo) Create(ctx context.Context, item model.CartItem) (InsertResult, error) {
	item.ID = primitive.NilObjectID
	res, err := r.col.InsertOne(ctx, item)
	if err != nil {
		return InsertResult{}, err
	}
	return InsertResult{Acknowledged: true, InsertedID: res.InsertedID}, nil
}

func (r *CartRepo) Delete(ctx context.Context, id string) (DeleteResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return DeleteResult{}, err
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

// CartDeletion reports what DeleteMany actually removed.  Missing lists the
// requested ids that were not present (or were not valid ObjectIDs).
type CartDeletion struct {
	Acknowledged bool     `json:"acknowledged"`
	DeletedCount int64    `json:"deletedCount"`
	Missing      []string `json:"missingCartIds,omitempty"`
}

// DeleteMany removes every cart whose id is in ids.  It first resolves which
// of the ids exist so callers can report a partial clean-up.
func (r *CartRepo) DeleteMany(ctx context.Context, ids []string) (CartDeletion, error) {
	valid, invalid := splitObjectIDs(ids)
	out := CartDeletion{Acknowledged: true, Missing: invalid}
	if len(valid) == 0 {
		return out, nil
	}

	filter := bson.M{"_id": bson.M{"$in": valid}}
	cur, err := r.col.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return CartDeletion{}, err
	}
	var found []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &found); err != nil {
		return CartDeletion{}, err
	}
	present := make(map[primitive.ObjectID]bool, len(found))
	for _, f := range found {
		present[f.ID] = true
	}
	for _, oid := range valid {
		if !present[oid] {
			out.Missing = append(out.Missing, oid.Hex())
		}
	}

	res, err := r.col.DeleteMany(ctx, filter)
	if err != nil {
		return CartDeletion{}, err
	}
	out.DeletedCount = res.DeletedCount
	return out, nil
}
