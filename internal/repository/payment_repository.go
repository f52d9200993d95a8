package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/iliyamo/bistro-boss-server/internal/database"
	"github.com/iliyamo/bistro-boss-server/internal/model"
)

// PaymentRepo reads and writes the `payments` collection and runs the
// reporting aggregations over it.
type PaymentRepo struct {
	col      *mongo.Collection
	menuName string
}

func NewPaymentRepo(db *mongo.Database) *PaymentRepo {
	return &PaymentRepo{col: db.Collection(database.PaymentCollection), menuName: database.MenuCollection}
}

func (r *PaymentRepo) Insert(ctx context.Context, p model.Payment) (InsertResult, error) {
	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		return InsertResult{}, err
	}
	return InsertResult{Acknowledged: true, InsertedID: res.InsertedID}, nil
}

// ListByEmail returns the payment history of one customer.
func (r *PaymentRepo) ListByEmail(ctx context.Context, email string) ([]model.Payment, error) {
	cur, err := r.col.Find(ctx, bson.M{"email": email})
	if err != nil {
		return nil, err
	}
	out := []model.Payment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByTransactionID returns ErrNotFound when no payment carries txID.
func (r *PaymentRepo) FindByTransactionID(ctx context.Context, txID string) (*model.Payment, error) {
	var p model.Payment
	err := r.col.FindOne(ctx, bson.M{"transactionId": txID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkSuccess moves the payment to Success.  The filter excludes records
// already settled, so of two concurrent validations only one sees
// transitioned == true.
func (r *PaymentRepo) MarkSuccess(ctx context.Context, txID string) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"transactionId": txID, "status": bson.M{"$ne": model.PaymentSuccess}},
		bson.M{"$set": bson.M{"status": model.PaymentSuccess}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *PaymentRepo) Count(ctx context.Context) (int64, error) {
	return r.col.EstimatedDocumentCount(ctx)
}

// Revenue sums price over all payments; an empty collection yields 0.
func (r *PaymentRepo) Revenue(ctx context.Context) (float64, error) {
	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalRevenue", Value: bson.D{{Key: "$sum", Value: "$price"}}},
		}}},
	})
	if err != nil {
		return 0, err
	}
	var rows []struct {
		TotalRevenue float64 `bson:"totalRevenue"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].TotalRevenue, nil
}

// OrderStats joins every purchased menu item id against the menu and groups
// by category.  Categories with no orders do not appear.
func (r *PaymentRepo) OrderStats(ctx context.Context) ([]model.CategoryStat, error) {
	pipeline := orderStatsPipeline(r.menuName)
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	out := []model.CategoryStat{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// orderStatsPipeline compares ids as strings so seeded items (string _id)
// and items created through the API (ObjectID _id) both join.
func orderStatsPipeline(menu string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$menuItemIds"}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: menu},
			{Key: "let", Value: bson.D{{Key: "itemId", Value: "$menuItemIds"}}},
			{Key: "pipeline", Value: mongo.Pipeline{
				{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{
					{Key: "$eq", Value: bson.A{bson.D{{Key: "$toString", Value: "$_id"}}, "$$itemId"}},
				}}}}},
			}},
			{Key: "as", Value: "menuItems"},
		}}},
		{{Key: "$unwind", Value: "$menuItems"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$menuItems.category"},
			{Key: "quantity", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$menuItems.price"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "category", Value: "$_id"},
			{Key: "quantity", Value: "$quantity"},
			{Key: "revenue", Value: "$revenue"},
		}}},
	}
}
