package service

import (
	"context"
	"errors"
	"time"

	"github.com/laserdata/laser-api/internal/document"
	"github.com/laserdata/laser-api/internal/document/repository"
	"github.com/laserdata/laser-api/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotConfigured is returned when no MongoDB URI was supplied.
	ErrNotConfigured = errors.New("mongodb uri not configured")
)

// Service defines the document operations used by the handler layer.
type Service interface {
	// FetchFirstUserDocument returns the first user document, or nil when the
	// collection is empty.
	FetchFirstUserDocument(ctx context.Context) (document.Document, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// NewService wraps repo, bounding every call by timeout.
func NewService(repo repository.Repository, timeout time.Duration) Service {
	return &repoService{repo: repo, timeout: timeout}
}

// NewMongoService returns a Service reading from a collection on a shared client.
// Caller is responsible for creating the client and passing the collection in.
func NewMongoService(col *mongo.Collection, timeout time.Duration) Service {
	return NewService(repository.NewMongoRepo(col), timeout)
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService(docs ...bson.M) Service {
	return NewService(repository.NewMemoryRepo(docs...), 10*time.Second)
}

// NewUnconfiguredService returns a Service whose operations fail with ErrNotConfigured.
func NewUnconfiguredService() Service {
	return unavailable{err: ErrNotConfigured}
}

// NewUnavailableService returns a Service whose operations fail with err, for a
// store that could not be set up at startup.
func NewUnavailableService(err error) Service {
	return unavailable{err: err}
}

type repoService struct {
	repo    repository.Repository
	timeout time.Duration
}

func (s *repoService) FetchFirstUserDocument(ctx context.Context) (document.Document, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	raw, err := s.repo.FindFirst(ctx)
	metrics.DocumentQueryDuration.Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		metrics.DocumentQueries.WithLabelValues("error").Inc()
		return nil, err
	case raw == nil:
		metrics.DocumentQueries.WithLabelValues("empty").Inc()
		return nil, nil
	}
	metrics.DocumentQueries.WithLabelValues("found").Inc()
	return document.FromBSON(raw), nil
}

func (s *repoService) Ping(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.repo.Ping(ctx)
}

func (s *repoService) Close(ctx context.Context) error {
	return s.repo.Close(ctx)
}

func (s *repoService) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

type unavailable struct{ err error }

func (u unavailable) FetchFirstUserDocument(context.Context) (document.Document, error) {
	metrics.DocumentQueries.WithLabelValues("error").Inc()
	return nil, u.err
}

func (u unavailable) Ping(context.Context) error { return u.err }
func (unavailable) Close(context.Context) error  { return nil }
