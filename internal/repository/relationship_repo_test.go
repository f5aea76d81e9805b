package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/GraceTang323/LinkedUp/internal/db"
	"github.com/GraceTang323/LinkedUp/internal/repository"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func seedUsers(t *testing.T, gdb *gorm.DB, uids ...string) {
	t.Helper()
	for _, uid := range uids {
		require.NoError(t, gdb.Create(&db.User{
			UID:  uid,
			Name: "Name of " + uid,
		}).Error)
	}
}

func countInterests(t *testing.T, gdb *gorm.DB, from, to string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(&db.InterestEdge{}).
		Where("owner_id = ? AND counterpart_id = ?", from, to).Count(&n).Error)
	return n
}

func countMatches(t *testing.T, gdb *gorm.DB, from, to string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(&db.MatchEdge{}).
		Where("owner_id = ? AND counterpart_id = ?", from, to).Count(&n).Error)
	return n
}

func TestExpressInterest_Validation(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRelationshipRepository(setupTestDB(t))

	_, err := repo.ExpressInterest(ctx, "u1", "u1")
	assert.Error(t, err)

	_, err = repo.ExpressInterest(ctx, "", "u2")
	assert.Error(t, err)
}

func TestExpressInterest_OneSidedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewRelationshipRepository(gdb)
	seedUsers(t, gdb, "u1", "u2")

	out, err := repo.ExpressInterest(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, repository.OneSidedInterestRecorded, out)

	// second call, same result, still exactly one edge
	out, err = repo.ExpressInterest(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, repository.OneSidedInterestRecorded, out)

	assert.Equal(t, int64(1), countInterests(t, gdb, "u1", "u2"))
	assert.Equal(t, int64(0), countMatches(t, gdb, "u1", "u2"))
}

func TestExpressInterest_MutualCreatesBothHalves(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewRelationshipRepository(gdb)
	seedUsers(t, gdb, "u1", "u2")

	_, err := repo.ExpressInterest(ctx, "u2", "u1")
	require.NoError(t, err)

	out, err := repo.ExpressInterest(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, repository.NewMatch, out)

	assert.Equal(t, int64(1), countMatches(t, gdb, "u1", "u2"))
	assert.Equal(t, int64(1), countMatches(t, gdb, "u2", "u1"))
}

func TestExpressInterest_AlreadyMatchedWritesNothing(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewRelationshipRepository(gdb)
	seedUsers(t, gdb, "u1", "u2")

	_, err := repo.ExpressInterest(ctx, "u2", "u1")
	require.NoError(t, err)
	_, err = repo.ExpressInterest(ctx, "u1", "u2")
	require.NoError(t, err)

	var interestsBefore, matchesBefore int64
	require.NoError(t, gdb.Model(&db.InterestEdge{}).Count(&interestsBefore).Error)
	require.NoError(t, gdb.Model(&db.MatchEdge{}).Count(&matchesBefore).Error)

	out, err := repo.ExpressInterest(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, repository.AlreadyMatched, out)

	var interestsAfter, matchesAfter int64
	require.NoError(t, gdb.Model(&db.InterestEdge{}).Count(&interestsAfter).Error)
	require.NoError(t, gdb.Model(&db.MatchEdge{}).Count(&matchesAfter).Error)
	assert.Equal(t, interestsBefore, interestsAfter)
	assert.Equal(t, matchesBefore, matchesAfter)
}

func TestListMatches_SkipsDeletedProfiles(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewRelationshipRepository(gdb)
	seedUsers(t, gdb, "u1", "u2", "u3")

	for _, pair := range [][2]string{{"u2", "u1"}, {"u1", "u2"}, {"u3", "u1"}, {"u1", "u3"}} {
		_, err := repo.ExpressInterest(ctx, pair[0], pair[1])
		require.NoError(t, err)
	}

	// u3's profile disappears while the edge remains
	require.NoError(t, gdb.Delete(&db.User{}, "uid = ?", "u3").Error)

	matches, err := repo.ListMatches(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "u2", matches[0].UID)
	assert.Equal(t, "Name of u2", matches[0].Name)
}

func TestUnlink_RemovesAllFourRecords(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewRelationshipRepository(gdb)
	seedUsers(t, gdb, "u1", "u2")

	_, err := repo.ExpressInterest(ctx, "u2", "u1")
	require.NoError(t, err)
	_, err = repo.ExpressInterest(ctx, "u1", "u2")
	require.NoError(t, err)

	require.NoError(t, repo.Unlink(ctx, "u1", "u2"))

	assert.Equal(t, int64(0), countInterests(t, gdb, "u1", "u2"))
	assert.Equal(t, int64(0), countInterests(t, gdb, "u2", "u1"))
	assert.Equal(t, int64(0), countMatches(t, gdb, "u1", "u2"))
	assert.Equal(t, int64(0), countMatches(t, gdb, "u2", "u1"))
}

func TestUnlink_PartialStateIsFine(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewRelationshipRepository(gdb)
	seedUsers(t, gdb, "u1", "u2")

	// only a one-sided interest exists
	_, err := repo.ExpressInterest(ctx, "u1", "u2")
	require.NoError(t, err)

	require.NoError(t, repo.Unlink(ctx, "u1", "u2"))
	assert.Equal(t, int64(0), countInterests(t, gdb, "u1", "u2"))

	// nothing at all exists
	require.NoError(t, repo.Unlink(ctx, "u1", "u2"))
}

func TestCascadeDeleteUser(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewRelationshipRepository(gdb)
	seedUsers(t, gdb, "x", "a", "b", "c")

	// x matched with a, one-sided with b, liked by c
	_, err := repo.ExpressInterest(ctx, "a", "x")
	require.NoError(t, err)
	_, err = repo.ExpressInterest(ctx, "x", "a")
	require.NoError(t, err)
	_, err = repo.ExpressInterest(ctx, "x", "b")
	require.NoError(t, err)
	_, err = repo.ExpressInterest(ctx, "c", "x")
	require.NoError(t, err)

	require.NoError(t, repo.CascadeDeleteUser(ctx, "x"))

	var n int64
	require.NoError(t, gdb.Model(&db.InterestEdge{}).
		Where("owner_id = ? OR counterpart_id = ?", "x", "x").Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, gdb.Model(&db.MatchEdge{}).
		Where("owner_id = ? OR counterpart_id = ?", "x", "x").Count(&n).Error)
	assert.Zero(t, n)

	// unrelated records untouched
	_, err = repo.ExpressInterest(ctx, "b", "c")
	require.NoError(t, err)
	require.NoError(t, repo.CascadeDeleteUser(ctx, "x"))
	assert.Equal(t, int64(1), countInterests(t, gdb, "b", "c"))
}

// The walk-through scenario: like, like back, both listed, unlink empties both.
func TestLinkUpScenario(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewRelationshipRepository(gdb)
	seedUsers(t, gdb, "u1", "u2")

	out, err := repo.ExpressInterest(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, repository.OneSidedInterestRecorded, out)

	out, err = repo.ExpressInterest(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, repository.NewMatch, out)

	ids1, err := repo.ListMatchIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, ids1)

	ids2, err := repo.ListMatchIDs(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids2)

	require.NoError(t, repo.Unlink(ctx, "u1", "u2"))

	ids1, err = repo.ListMatchIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, ids1)
	ids2, err = repo.ListMatchIDs(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, ids2)
}
