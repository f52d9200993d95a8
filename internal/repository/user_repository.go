package repository

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/iliyamo/bistro-boss-server/internal/database"
	"github.com/iliyamo/bistro-boss-server/internal/model"
)

// UserRepo is the identity store: users keyed by email.
type UserRepo struct{ col *mongo.Collection }

func NewUserRepo(db *mongo.Database) *UserRepo { return &UserRepo{col: db.Collection(database.UserCollection)} }

// FindByEmail returns the user with the given email or ErrNotFound.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns every user.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	users := []model.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateIfAbsent inserts u unless a user with the same email exists.  The
// second return value is false when the user already existed; in that case
// nothing is written.  A duplicate-key error from a concurrent insert is
// folded into the "already exists" outcome.
func (r *UserRepo) CreateIfAbsent(ctx context.Context, u model.User) (InsertResult, bool, error) {
	u.Email = strings.TrimSpace(u.Email)
	if _, err := r.FindByEmail(ctx, u.Email); err == nil {
		return InsertResult{Acknowledged: true}, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return InsertResult{}, false, err
	}
	res, err := r.col.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return InsertResult{Acknowledged: true}, false, nil
	}
	if err != nil {
		return InsertResult{}, false, err
	}
	return InsertResult{Acknowledged: true, InsertedID: res.InsertedID}, true, nil
}

// PromoteToAdmin sets role=admin on the user with the given ObjectID.
func (r *UserRepo) PromoteToAdmin(ctx context.Context, id string) (UpdateResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return UpdateResult{}, err
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"role": model.RoleAdmin}})
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Acknowledged: true, MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

// Delete removes the user with the given ObjectID.
func (r *UserRepo) Delete(ctx context.Context, id string) (DeleteResult, error) {
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

// Count is an estimate taken from collection metadata.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	return r.col.EstimatedDocumentCount(ctx)
}
