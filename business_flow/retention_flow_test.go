package businessflow_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	businessflow "github.com/amirphl/above-fold-tracker/business_flow"
	"github.com/amirphl/above-fold-tracker/models"
	"github.com/amirphl/above-fold-tracker/repository"
	testingutil "github.com/amirphl/above-fold-tracker/testing"
	"github.com/amirphl/above-fold-tracker/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetentionFlow(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		recordRepo := repository.NewTrackingRecordRepository(testDB.DB)
		settingsRepo := repository.NewTrackerSettingsRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		opts := businessflow.RetentionOptions{LockKey: "atf:test:retention:lock", LockTTL: time.Minute}
		flow := businessflow.NewRetentionFlow(recordRepo, settingsRepo, rc, opts)

		seed := func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			_, err := fixtures.CreateTrackingRecord("1920x1080", nil, utils.DaysAgo(10))
			require.NoError(t, err)
			_, err = fixtures.CreateTrackingRecord("1920x1080", nil, utils.DaysAgo(1))
			require.NoError(t, err)
		}

		t.Run("DefaultWindowIsSevenDays", func(t *testing.T) {
			seed(t)

			days, err := flow.RetentionDays(ctx)
			require.NoError(t, err)
			assert.Equal(t, 7, days)

			resp, err := flow.Purge(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), resp.Deleted)
			assert.False(t, resp.Skipped)

			again, err := flow.Purge(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(0), again.Deleted)

			remaining, err := recordRepo.Count(ctx, models.TrackingRecordFilter{})
			require.NoError(t, err)
			assert.Equal(t, int64(1), remaining)

			assert.False(t, mr.Exists(opts.LockKey), "lock must be released after the run")
		})

		t.Run("StoredRetentionWins", func(t *testing.T) {
			seed(t)
			require.NoError(t, settingsRepo.Upsert(ctx, models.DefaultTrackerSettings(30, true)))

			resp, err := flow.Purge(ctx)
			require.NoError(t, err)
			assert.Equal(t, 30, resp.RetentionDays)
			assert.Equal(t, int64(0), resp.Deleted)
		})

		t.Run("HeldLockSkipsRun", func(t *testing.T) {
			seed(t)
			require.NoError(t, mr.Set(opts.LockKey, "another-replica"))
			defer mr.Del(opts.LockKey)

			resp, err := flow.Purge(ctx)
			require.NoError(t, err)
			assert.True(t, resp.Skipped)
			assert.Equal(t, int64(0), resp.Deleted)

			remaining, err := recordRepo.Count(ctx, models.TrackingRecordFilter{})
			require.NoError(t, err)
			assert.Equal(t, int64(2), remaining)
		})

		t.Run("WithoutCache", func(t *testing.T) {
			seed(t)
			noCache := businessflow.NewRetentionFlow(recordRepo, settingsRepo, nil, businessflow.RetentionOptions{})

			resp, err := noCache.Purge(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), resp.Deleted)
		})

		return nil
	})
	require.NoError(t, err)
}
