package statuscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentkyc/internal/kyc/models"
	id "talentkyc/pkg/domain"
)

type cache interface {
	Get(ctx context.Context, key Key) (*models.AggregateStatus, bool, error)
	Set(ctx context.Context, key Key, status models.AggregateStatus) error
	Invalidate(ctx context.Context, owner id.OwnerID) error
}

func sample() models.AggregateStatus {
	return models.AggregateStatus{
		Status:               models.KYCPendingReview,
		CompletionPercentage: 50,
		MissingRequirements:  []string{"proof_of_address"},
		Groups: []models.GroupProgress{
			{ID: "identity_document", Mode: models.ModeOneOf, State: models.GroupFull, SatisfiedBy: []models.DocumentType{models.DocumentTypePassport}},
			{ID: "proof_of_address", Mode: models.ModeAllOf, State: models.GroupPartial},
		},
		Purpose:        models.PurposeIdentityKYC,
		CatalogVersion: "v1",
		Generation:     "2.3.1700000000000000",
	}
}

func newRedisCache(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, time.Minute), mr
}

func exercise(t *testing.T, c cache) {
	ctx := context.Background()
	key := Key{OwnerID: "owner-1", Purpose: models.PurposeIdentityKYC, CatalogVersion: "v1"}
	other := Key{OwnerID: "owner-1", Purpose: models.PurposeProfessionalBackground, CatalogVersion: "v1"}
	neighbour := Key{OwnerID: "owner-2", Purpose: models.PurposeIdentityKYC, CatalogVersion: "v1"}

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, sample()))
	require.NoError(t, c.Set(ctx, other, sample()))
	require.NoError(t, c.Set(ctx, neighbour, sample()))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sample(), *got)

	_, ok, err = c.Get(ctx, Key{OwnerID: "owner-1", Purpose: models.PurposeIdentityKYC, CatalogVersion: "v2"})
	require.NoError(t, err)
	assert.False(t, ok, "catalog version is part of the key")

	require.NoError(t, c.Invalidate(ctx, "owner-1"))
	_, ok, _ = c.Get(ctx, key)
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, other)
	assert.False(t, ok, "invalidation covers every purpose of the owner")
	_, ok, _ = c.Get(ctx, neighbour)
	assert.True(t, ok, "other owners are untouched")
}

func TestRedis(t *testing.T) {
	c, mr := newRedisCache(t)
	exercise(t, c)

	t.Run("entries expire", func(t *testing.T) {
		ctx := context.Background()
		key := Key{OwnerID: "owner-ttl", Purpose: models.PurposeIdentityKYC, CatalogVersion: "v1"}
		require.NoError(t, c.Set(ctx, key, sample()))
		mr.FastForward(2 * time.Minute)
		_, ok, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("corrupt entries surface an error", func(t *testing.T) {
		ctx := context.Background()
		key := Key{OwnerID: "owner-bad", Purpose: models.PurposeIdentityKYC, CatalogVersion: "v1"}
		mr.HSet(ownerKey(key.OwnerID), key.field(), "{not json")
		_, _, err := c.Get(ctx, key)
		assert.Error(t, err)
	})

	t.Run("unreachable redis surfaces an error", func(t *testing.T) {
		c, mr := newRedisCache(t)
		mr.Close()
		_, _, err := c.Get(context.Background(), Key{OwnerID: "x"})
		assert.Error(t, err)
	})
}

func TestMemory(t *testing.T) {
	m := NewMemory(time.Minute)
	exercise(t, m)

	t.Run("entries expire", func(t *testing.T) {
		now := time.Now()
		m := NewMemory(time.Minute)
		m.now = func() time.Time { return now }
		key := Key{OwnerID: "owner-ttl", Purpose: models.PurposeIdentityKYC, CatalogVersion: "v1"}
		require.NoError(t, m.Set(context.Background(), key, sample()))

		now = now.Add(2 * time.Minute)
		_, ok, err := m.Get(context.Background(), key)
		require.NoError(t, err)
		assert.False(t, ok)
	})
	t.Run("callers cannot reach the cached entry", func(t *testing.T) {
		ctx := context.Background()
		m := NewMemory(time.Minute)
		key := Key{OwnerID: "owner-alias", Purpose: models.PurposeIdentityKYC, CatalogVersion: "v1"}
		stored := sample()
		require.NoError(t, m.Set(ctx, key, stored))
		stored.MissingRequirements[0] = "written-after-set"

		got, ok, err := m.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		got.MissingRequirements[0] = "written-after-get"
		got.Groups[0].State = models.GroupUnsatisfied
		got.Groups[0].SatisfiedBy[0] = models.DocumentTypeNationalID

		again, _, err := m.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, sample(), *again)
	})
}
