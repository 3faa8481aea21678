package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/laserdata/laser-api/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// slowRepo blocks until the context is done.
type slowRepo struct{ pinged bool }

func (s *slowRepo) FindFirst(ctx context.Context) (bson.M, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (s *slowRepo) Ping(ctx context.Context) error  { s.pinged = true; return nil }
func (s *slowRepo) Close(ctx context.Context) error { return nil }

type failingRepo struct{ err error }

func (f failingRepo) FindFirst(context.Context) (bson.M, error) { return nil, f.err }
func (f failingRepo) Ping(context.Context) error                { return f.err }
func (f failingRepo) Close(context.Context) error               { return nil }

func TestFetchFirstUserDocument_Found(t *testing.T) {
	oid := primitive.NewObjectID()
	svc := NewMemoryService(bson.M{"_id": oid, "name": "a"})
	before := testutil.ToFloat64(metrics.DocumentQueries.WithLabelValues("found"))

	doc, err := svc.FetchFirstUserDocument(context.Background())
	require.NoError(t, err)
	require.Equal(t, oid.Hex(), doc["_id"])
	require.Equal(t, "a", doc["name"])
	require.Equal(t, before+1, testutil.ToFloat64(metrics.DocumentQueries.WithLabelValues("found")))
}

func TestFetchFirstUserDocument_Empty(t *testing.T) {
	svc := NewMemoryService()
	doc, err := svc.FetchFirstUserDocument(context.Background())
	require.NoError(t, err)
	require.Nil(t, doc)
}

func TestFetchFirstUserDocument_Error(t *testing.T) {
	boom := errors.New("server selection error: no reachable servers")
	svc := NewService(failingRepo{err: boom}, time.Second)
	before := testutil.ToFloat64(metrics.DocumentQueries.WithLabelValues("error"))

	doc, err := svc.FetchFirstUserDocument(context.Background())
	require.ErrorIs(t, err, boom)
	require.Nil(t, doc)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.DocumentQueries.WithLabelValues("error")))
}

func TestFetchFirstUserDocument_Timeout(t *testing.T) {
	svc := NewService(&slowRepo{}, 50*time.Millisecond)

	start := time.Now()
	_, err := svc.FetchFirstUserDocument(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestUnconfiguredService(t *testing.T) {
	svc := NewUnconfiguredService()
	_, err := svc.FetchFirstUserDocument(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
	require.ErrorIs(t, svc.Ping(context.Background()), ErrNotConfigured)
	require.NoError(t, svc.Close(context.Background()))
}

func TestUnavailableService(t *testing.T) {
	cause := errors.New("invalid MONGODB_URI: scheme must be \"mongodb\" or \"mongodb+srv\"")
	svc := NewUnavailableService(cause)
	_, err := svc.FetchFirstUserDocument(context.Background())
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrNotConfigured)
}

func TestPingDelegates(t *testing.T) {
	repo := &slowRepo{}
	svc := NewService(repo, time.Second)
	require.NoError(t, svc.Ping(context.Background()))
	require.True(t, repo.pinged)
}
