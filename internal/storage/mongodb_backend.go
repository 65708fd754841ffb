package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "rotation_index"

// MongoDBBackend stores {_id: key, idx: n} in the rotation_index collection.
type MongoDBBackend struct {
	uri        string
	dbName     string
	key        string
	client     *mongo.Client
	collection *mongo.Collection
}

type indexDoc struct {
	ID        string    `bson:"_id"`
	Idx       int       `bson:"idx"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func NewMongoDBBackend(uri, dbName, key string) *MongoDBBackend {
	if dbName == "" {
		dbName = "essayproxy"
	}
	return &MongoDBBackend{uri: uri, dbName: dbName, key: key}
}

// Initialize connects to MongoDB
func (m *MongoDBBackend) Initialize(ctx context.Context) error {
	if m.client == nil {
		opts := options.Client().ApplyURI(m.uri).
			SetMaxPoolSize(10).
			SetServerSelectionTimeout(5 * time.Second)
		client, err := mongo.Connect(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		m.client = client
		m.collection = client.Database(m.dbName).Collection(mongoCollection)
	}
	if err := m.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return nil
}

func (m *MongoDBBackend) Close() error {
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoDBBackend) Health(ctx context.Context) error {
	if m.client == nil {
		return errors.New("mongodb index store not initialized")
	}
	return m.client.Ping(ctx, nil)
}

func (m *MongoDBBackend) Get(ctx context.Context) (int, error) {
	if m.collection == nil {
		return 0, errors.New("mongodb index store not initialized")
	}
	var doc indexDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": m.key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("mongodb find %s: %w", m.key, err)
	}
	return doc.Idx, nil
}

func (m *MongoDBBackend) Set(ctx context.Context, idx int) error {
	if m.collection == nil {
		return errors.New("mongodb index store not initialized")
	}
	_, err := m.collection.UpdateOne(ctx,
		bson.M{"_id": m.key},
		bson.M{"$set": bson.M{"idx": idx, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongodb upsert %s: %w", m.key, err)
	}
	return nil
}
