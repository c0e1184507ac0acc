package service

import (
	"context"
	"contract_system/internal/db/dbtest"
	"contract_system/internal/domain"
	"contract_system/internal/utils"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *recordingNotifier) ContractSent(_ context.Context, _ *domain.Contract, recipient *domain.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, recipient.Email)
	return nil
}

type fixture struct {
	db        *gorm.DB
	contracts *ContractService
	notifier  *recordingNotifier
	employer  domain.User
	admin     domain.User
	other     domain.User
}

func newFixture(t *testing.T, rdb *redis.Client) *fixture {
	t.Helper()
	gdb := dbtest.Open(t)
	f := &fixture{db: gdb, notifier: &recordingNotifier{}}
	f.contracts = NewContractService(gdb, rdb, f.notifier, time.Minute, 1<<20)
	f.employer = mustUser(t, gdb, "employer@example.com", domain.RoleClient)
	f.admin = mustUser(t, gdb, "admin@example.com", domain.RoleAdmin)
	f.other = mustUser(t, gdb, "other@example.com", domain.RoleClient)
	return f
}

func mustUser(t *testing.T, gdb *gorm.DB, email, role string) domain.User {
	t.Helper()
	u := domain.User{Email: email, Name: email, Role: role}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}

func (f *fixture) actor(u domain.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

func (f *fixture) draft(t *testing.T) *domain.Contract {
	t.Helper()
	c, err := f.contracts.Create(context.Background(), f.actor(f.employer), CreateContractInput{
		Title:   "Backend Engineer",
		Content: "Full-time position.",
	})
	require.NoError(t, err)
	return c
}

func TestCreateYieldsDraft(t *testing.T) {
	f := newFixture(t, nil)
	c := f.draft(t)

	assert.Equal(t, domain.StatusDraft, c.Status)
	assert.Equal(t, f.employer.ID, c.CreatedByID)
	require.NotNil(t, c.CreatedBy)
	assert.Equal(t, f.employer.Email, c.CreatedBy.Email)
	assert.Nil(t, c.SignedByID)
	assert.Empty(t, c.Signatures)
}

func TestCreateOnBehalfOfAnotherUser(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.contracts.Create(ctx, f.actor(f.other), CreateContractInput{Title: "t", Content: "c", CreatedByID: f.employer.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	c, err := f.contracts.Create(ctx, f.actor(f.admin), CreateContractInput{Title: "t", Content: "c", CreatedByID: f.employer.ID})
	require.NoError(t, err)
	assert.Equal(t, f.employer.ID, c.CreatedByID)

	_, err = f.contracts.Create(ctx, f.actor(f.admin), CreateContractInput{Title: "t", Content: "c", CreatedByID: 9999})
	assert.ErrorIs(t, err, ErrCreatorNotFound)
}

func TestGetMissingContract(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.contracts.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrContractNotFound)
}

func TestSendCreatesRecipient(t *testing.T) {
	f := newFixture(t, nil)
	c := f.draft(t)

	sent, err := f.contracts.Send(context.Background(), f.actor(f.employer), c.ID, "New.Hire@Example.com")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)
	require.NotNil(t, sent.SignedBy)
	assert.Equal(t, "new.hire@example.com", sent.SignedBy.Email)
	assert.Equal(t, "new.hire", sent.SignedBy.Name)
	assert.Equal(t, domain.RoleClient, sent.SignedBy.Role)
	assert.Equal(t, []string{"new.hire@example.com"}, f.notifier.sent)

	var recipient domain.User
	require.NoError(t, f.db.Where("email = ?", "new.hire@example.com").First(&recipient).Error)
	assert.Empty(t, recipient.Password)
}

func TestSendReusesExistingUser(t *testing.T) {
	f := newFixture(t, nil)
	c := f.draft(t)

	sent, err := f.contracts.Send(context.Background(), f.actor(f.employer), c.ID, f.other.Email)
	require.NoError(t, err)
	require.NotNil(t, sent.SignedByID)
	assert.Equal(t, f.other.ID, *sent.SignedByID)

	var count int64
	require.NoError(t, f.db.Model(&domain.User{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestSendRecipientCreatedConcurrently(t *testing.T) {
	f := newFixture(t, nil)
	c := f.draft(t)
	const email = "racer@example.com"

	// Once the recipient lookup misses, another sender commits the same user
	var once sync.Once
	require.NoError(t, f.db.Callback().Query().After("gorm:query").Register("test:concurrent_recipient", func(db *gorm.DB) {
		if db.Statement.Table != "users" || !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			return
		}
		once.Do(func() {
			other := db.Session(&gorm.Session{NewDB: true})
			other.Error = nil
			require.NoError(t, other.Create(&domain.User{Email: email, Name: "racer", Role: domain.RoleClient}).Error)
		})
	}))
	t.Cleanup(func() { _ = f.db.Callback().Query().Remove("test:concurrent_recipient") })

	sent, err := f.contracts.Send(context.Background(), f.actor(f.employer), c.ID, email)
	require.NoError(t, err)
	require.NotNil(t, sent.SignedBy)
	assert.Equal(t, email, sent.SignedBy.Email)

	var count int64
	require.NoError(t, f.db.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSendRequiresOwnership(t *testing.T) {
	f := newFixture(t, nil)
	c := f.draft(t)

	_, err := f.contracts.Send(context.Background(), f.actor(f.other), c.ID, "x@example.com")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.contracts.Send(context.Background(), f.actor(f.admin), c.ID, "x@example.com")
	assert.NoError(t, err)
}

func TestSignRecordsExactlyOneSignature(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	c := f.draft(t)
	_, err := f.contracts.Send(ctx, f.actor(f.employer), c.ID, f.other.Email)
	require.NoError(t, err)

	signed, err := f.contracts.Sign(ctx, c.ID, 0, testPNG)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSigned, signed.Status)
	require.NotNil(t, signed.SignedAt)
	require.Len(t, signed.Signatures, 1)
	assert.Equal(t, testPNG, signed.Signatures[0].Data)
	require.NotNil(t, signed.SignedByID)
	assert.Equal(t, f.other.ID, *signed.SignedByID)

	_, err = f.contracts.Sign(ctx, c.ID, 0, testPNG)
	assert.ErrorIs(t, err, ErrAlreadySigned)

	var count int64
	require.NoError(t, f.db.Model(&domain.Signature{}).Where("contract_id = ?", c.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSignDraftAssignsCaller(t *testing.T) {
	f := newFixture(t, nil)
	c := f.draft(t)

	signed, err := f.contracts.Sign(context.Background(), c.ID, f.other.ID, testPNG)
	require.NoError(t, err)
	require.NotNil(t, signed.SignedByID)
	assert.Equal(t, f.other.ID, *signed.SignedByID)
}

func TestSignRejectsInvalidImage(t *testing.T) {
	f := newFixture(t, nil)
	c := f.draft(t)

	_, err := f.contracts.Sign(context.Background(), c.ID, 0, "not base64!!")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	got, err := f.contracts.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, got.Status)
}

func TestSendAfterSignIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	c := f.draft(t)
	_, err := f.contracts.Sign(ctx, c.ID, 0, testPNG)
	require.NoError(t, err)

	_, err = f.contracts.Send(ctx, f.actor(f.employer), c.ID, "late@example.com")
	assert.ErrorIs(t, err, ErrAlreadySigned)
}

func TestUpdateOnlyWhileDraft(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	c := f.draft(t)

	title := "Senior Backend Engineer"
	updated, err := f.contracts.Update(ctx, f.actor(f.employer), c.ID, UpdateContractInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, c.Content, updated.Content)

	_, err = f.contracts.Update(ctx, f.actor(f.other), c.ID, UpdateContractInput{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.contracts.Send(ctx, f.actor(f.employer), c.ID, f.other.Email)
	require.NoError(t, err)
	_, err = f.contracts.Update(ctx, f.actor(f.employer), c.ID, UpdateContractInput{Title: &title})
	assert.ErrorIs(t, err, ErrNotDraft)
}

func TestDeleteRemovesSignatures(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	c := f.draft(t)
	_, err := f.contracts.Sign(ctx, c.ID, 0, testPNG)
	require.NoError(t, err)

	assert.ErrorIs(t, f.contracts.Delete(ctx, f.actor(f.other), c.ID), ErrForbidden)
	require.NoError(t, f.contracts.Delete(ctx, f.actor(f.employer), c.ID))

	_, err = f.contracts.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrContractNotFound)
	var count int64
	require.NoError(t, f.db.Model(&domain.Signature{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListFiltersAndPaging(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	first := f.draft(t)
	f.draft(t)
	third := f.draft(t)
	_, err := f.contracts.Send(ctx, f.actor(f.employer), first.ID, f.other.Email)
	require.NoError(t, err)

	all, total, err := f.contracts.List(ctx, ContractFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 3)
	assert.Equal(t, third.ID, all[0].ID, "newest first")

	sent, total, err := f.contracts.List(ctx, ContractFilter{Status: domain.StatusSent})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, sent, 1)
	assert.Equal(t, first.ID, sent[0].ID)

	bySigner, _, err := f.contracts.List(ctx, ContractFilter{SignedByID: f.other.ID})
	require.NoError(t, err)
	assert.Len(t, bySigner, 1)

	page, total, err := f.contracts.List(ctx, ContractFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 1)

	_, _, err = f.contracts.List(ctx, ContractFilter{Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestConcurrentSignHasSingleWinner(t *testing.T) {
	f := newFixture(t, nil)
	c := f.draft(t)

	const signers = 8
	var wg sync.WaitGroup
	errs := make([]error, signers)
	for i := 0; i < signers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.contracts.Sign(context.Background(), c.ID, 0, testPNG)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrAlreadySigned)
		}
	}
	assert.Equal(t, 1, wins)

	var count int64
	require.NoError(t, f.db.Model(&domain.Signature{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReadsAreCachedAndInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	f := newFixture(t, rdb)
	ctx := context.Background()
	c := f.draft(t)
	gen, err := utils.CacheGeneration(ctx, rdb, contractsGenKey)
	require.NoError(t, err)

	_, err = f.contracts.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(contractKey(gen, c.ID)))

	_, _, err = f.contracts.List(ctx, ContractFilter{})
	require.NoError(t, err)
	assert.True(t, mr.Exists(ContractFilter{}.cacheKey(gen)))

	// Mutations drop both the item and every listing
	_, err = f.contracts.Sign(ctx, c.ID, 0, testPNG)
	require.NoError(t, err)
	assert.False(t, mr.Exists(contractKey(gen, c.ID)))
	assert.False(t, mr.Exists(ContractFilter{}.cacheKey(gen)))

	got, err := f.contracts.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSigned, got.Status)
}

func TestLateCacheFillIsNotServed(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	f := newFixture(t, rdb)
	ctx := context.Background()
	c := f.draft(t)

	// A reader picks up the generation and the draft row, then stalls
	gen, err := utils.CacheGeneration(ctx, rdb, contractsGenKey)
	require.NoError(t, err)
	stale, err := f.contracts.load(ctx, f.db, c.ID)
	require.NoError(t, err)
	staleList, total, err := f.contracts.List(ctx, ContractFilter{})
	require.NoError(t, err)

	_, err = f.contracts.Sign(ctx, c.ID, 0, testPNG)
	require.NoError(t, err)

	// The stalled reader finishes its fills after the mutation
	require.NoError(t, utils.SetCache(ctx, rdb, contractKey(gen, c.ID), stale, time.Minute))
	require.NoError(t, utils.SetCache(ctx, rdb, ContractFilter{}.cacheKey(gen), contractPage{Contracts: staleList, Total: total}, time.Minute))

	got, err := f.contracts.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSigned, got.Status)

	list, _, err := f.contracts.List(ctx, ContractFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusSigned, list[0].Status)
}
