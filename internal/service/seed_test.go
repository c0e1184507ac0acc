package service

import (
	"context"
	"contract_system/internal/db/dbtest"
	"contract_system/internal/domain"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIsIdempotent(t *testing.T) {
	gdb := dbtest.Open(t)
	seeder := NewSeeder(gdb, nil)
	ctx := context.Background()

	res, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Users, 5)
	assert.Equal(t, 4, res.Contracts)
	assert.Equal(t, 2, res.Signatures)

	res, err = seeder.Seed(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Users, 5)
	assert.Zero(t, res.Contracts)
	assert.Zero(t, res.Signatures)

	counts := map[domain.ContractStatus]int64{}
	for _, s := range []domain.ContractStatus{domain.StatusDraft, domain.StatusSent, domain.StatusSigned} {
		var n int64
		require.NoError(t, gdb.Model(&domain.Contract{}).Where("status = ?", s).Count(&n).Error)
		counts[s] = n
	}
	assert.Equal(t, map[domain.ContractStatus]int64{domain.StatusDraft: 1, domain.StatusSent: 1, domain.StatusSigned: 2}, counts)
}

func TestSeedUsersCanLogIn(t *testing.T) {
	gdb := dbtest.Open(t)
	_, err := NewSeeder(gdb, nil).Seed(context.Background())
	require.NoError(t, err)

	u, err := NewUserService(gdb, nil, 0).Authenticate(context.Background(), "admin@example.com", SeedPassword)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

func TestSeedClearsCachedListings(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	gdb := dbtest.Open(t)
	ctx := context.Background()
	contracts := NewContractService(gdb, rdb, &recordingNotifier{}, time.Minute, 1<<20)
	users := NewUserService(gdb, rdb, time.Minute)

	list, total, err := contracts.List(ctx, ContractFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
	page, err := users.List(ctx, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	_, err = NewSeeder(gdb, rdb).Seed(ctx)
	require.NoError(t, err)

	list, total, err = contracts.List(ctx, ContractFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 4)
	assert.Equal(t, int64(4), total)
	page, err = users.List(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
}
