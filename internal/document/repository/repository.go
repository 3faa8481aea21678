package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// Repository reads user documents from a backing store.
type Repository interface {
	// FindFirst returns the first document in natural order, or nil when the
	// collection is empty. Natural order is unspecified without a sort.
	FindFirst(ctx context.Context) (bson.M, error)
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
	// Close releases held connections.
	Close(ctx context.Context) error
}
