package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/laserdata/laser-api/internal/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo reads from a collection on a shared client. Connections are checked
// out of the driver's pool per operation and returned when it completes.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

func (m *MongoRepo) FindFirst(ctx context.Context) (bson.M, error) {
	return findFirst(ctx, m.col)
}

func (m *MongoRepo) Ping(ctx context.Context) error {
	return m.col.Database().Client().Ping(ctx, nil)
}

func (m *MongoRepo) Close(ctx context.Context) error {
	return m.col.Database().Client().Disconnect(ctx)
}

// DialRepo opens a fresh client for every call and disconnects it before returning.
type DialRepo struct {
	opts       *options.ClientOptions
	database   string
	collection string
	timeout    time.Duration
}

func NewDialRepo(opts *options.ClientOptions, databaseName, collection string, timeout time.Duration) *DialRepo {
	return &DialRepo{opts: opts, database: databaseName, collection: collection, timeout: timeout}
}

func (d *DialRepo) FindFirst(ctx context.Context) (bson.M, error) {
	client, err := database.ConnectMongo(ctx, d.opts, d.timeout)
	if err != nil {
		return nil, err
	}
	defer client.Disconnect(context.Background())
	return findFirst(ctx, client.Database(d.database).Collection(d.collection))
}

func (d *DialRepo) Ping(ctx context.Context) error {
	client, err := database.ConnectMongo(ctx, d.opts, d.timeout)
	if err != nil {
		return err
	}
	return client.Disconnect(context.Background())
}

// Close is a no-op: DialRepo holds no connections between calls.
func (d *DialRepo) Close(ctx context.Context) error { return nil }

func findFirst(ctx context.Context, col *mongo.Collection) (bson.M, error) {
	var doc bson.M
	if err := col.FindOne(ctx, bson.D{}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s.%s: %w", col.Database().Name(), col.Name(), err)
	}
	return doc, nil
}
