package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/iliyamo/bistro-boss-server/internal/database"
	"github.com/iliyamo/bistro-boss-server/internal/model"
)

// MenuRepo reads and writes the `menu` collection.
type MenuRepo struct{ col *mongo.Collection }

func NewMenuRepo(db *mongo.Database) *MenuRepo { return &MenuRepo{col: db.Collection(database.MenuCollection)} }

func (r *MenuRepo) List(ctx context.Context) ([]model.MenuItem, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	items := []model.MenuItem{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Get looks the item up by its raw id, also trying the ObjectID form.
func (r *MenuRepo) Get(ctx context.Context, id string) (*model.MenuItem, error) {
	var item model.MenuItem
	err := r.col.FindOne(ctx, anyIDFilter(id)).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *MenuRepo) Create(ctx context.Context, item model.MenuItem) (InsertResult, error) {
	item.ID = nil
	res, err := r.col.InsertOne(ctx, item)
	if err != nil {
		return InsertResult{}, err
	}
	return InsertResult{Acknowledged: true, InsertedID: res.InsertedID}, nil
}

// Update overwrites the editable fields of an item.
func (r *MenuRepo) Update(ctx context.Context, id string, item model.MenuItem) (UpdateResult, error) {
	set := bson.M{
		"name":     item.Name,
		"category": item.Category,
		"price":    item.Price,
		"recipe":   item.Recipe,
		"image":    item.Image,
	}
	res, err := r.col.UpdateOne(ctx, anyIDFilter(id), bson.M{"$set": set})
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Acknowledged: true, MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (r *MenuRepo) Delete(ctx context.Context, id string) (DeleteResult, error) {
	res, err := r.col.DeleteOne(ctx, anyIDFilter(id))
	if err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (r *MenuRepo) Count(ctx context.Context) (int64, error) {
	return r.col.EstimatedDocumentCount(ctx)
}

// ReviewRepo reads the `reviews` collection.
type ReviewRepo struct{ col *mongo.Collection }

func NewReviewRepo(db *mongo.Database) *ReviewRepo { return &ReviewRepo{col: db.Collection(database.ReviewCollection)} }

func (r *ReviewRepo) List(ctx context.Context) ([]model.Review, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	reviews := []model.Review{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}
