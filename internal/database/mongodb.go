package database

import (
	"context"
	"fmt"
	"time"

	"github.com/laserdata/laser-api/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ClientOptions builds driver options from configuration. The same options serve the
// shared pooled client and the dial-per-request client.
func ClientOptions(cfg config.MongoDBConfig) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.Timeout).
		SetConnectTimeout(cfg.Timeout).
		// nested documents decode as maps so they serialize to plain JSON objects
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.MaxConnIdle > 0 {
		opts.SetMaxConnIdleTime(cfg.MaxConnIdle)
	}
	return opts
}

// Open creates a client without contacting the cluster. The driver dials lazily and
// keeps a pool per server, so one client is shared by all requests. Caller should
// call client.Disconnect(ctx).
func Open(opts *options.ClientOptions) (*mongo.Client, error) {
	client, err := mongo.Connect(context.Background(), opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	return client, nil
}

// ConnectMongo opens a connection and verifies it with a ping. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, opts *options.ClientOptions, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}
