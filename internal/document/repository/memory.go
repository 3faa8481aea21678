package repository

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// MemoryRepo is an in-memory Repository used for local runs and unit tests.
// Documents are returned in insertion order.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs []bson.M
}

func NewMemoryRepo(docs ...bson.M) *MemoryRepo {
	m := &MemoryRepo{}
	for _, d := range docs {
		m.Insert(d)
	}
	return m
}

// Insert appends a copy of doc.
func (m *MemoryRepo) Insert(doc bson.M) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, clone(doc))
}

func (m *MemoryRepo) FindFirst(ctx context.Context) (bson.M, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.docs) == 0 {
		return nil, nil
	}
	return clone(m.docs[0]), nil
}

func (m *MemoryRepo) Ping(ctx context.Context) error { return ctx.Err() }

func (m *MemoryRepo) Close(ctx context.Context) error { return nil }

func clone(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
