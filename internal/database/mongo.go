package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names inside the bistro database.
const (
	MenuCollection    = "menu"
	ReviewCollection  = "reviews"
	CartCollection    = "carts"
	UserCollection    = "users"
	PaymentCollection = "payments"
)

// Store is the document store handle shared by every repository.  It is
// created once in main and closed on shutdown.
type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// ConnectMongo dials the cluster, pins the stable server API and verifies the
// connection with a ping.
func ConnectMongo(ctx context.Context, uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(50)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Store{Client: client, DB: client.Database(dbName)}, nil
}

func (s *Store) Collection(name string) *mongo.Collection { return s.DB.Collection(name) }

// Ping lets the health handler probe the store.
func (s *Store) Ping(ctx context.Context) error { return s.Client.Ping(ctx, readpref.Primary()) }

// EnsureIndexes creates the unique email index on users and the lookup index
// on payments.transactionId.  Both are idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.Collection(UserCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	if _, err := s.Collection(PaymentCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "transactionId", Value: 1}},
		Options: options.Index().SetName("idx_transaction"),
	}); err != nil {
		return fmt.Errorf("payments index: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.Client == nil {
		return nil
	}
	return s.Client.Disconnect(ctx)
}
