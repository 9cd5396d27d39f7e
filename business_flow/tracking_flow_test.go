package businessflow_test

import (
	"testing"
	"time"

	"github.com/amirphl/above-fold-tracker/app/dto"
	"github.com/amirphl/above-fold-tracker/app/services"
	businessflow "github.com/amirphl/above-fold-tracker/business_flow"
	"github.com/amirphl/above-fold-tracker/models"
	"github.com/amirphl/above-fold-tracker/repository"
	testingutil "github.com/amirphl/above-fold-tracker/testing"
	"github.com/amirphl/above-fold-tracker/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNonceService(t *testing.T) services.NonceService {
	t.Helper()
	svc, err := services.NewNonceService("flow-test-nonce-secret", "above-fold-tracker", time.Hour)
	require.NoError(t, err)
	return svc
}

func TestTrackingFlow_Submit(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		recordRepo := repository.NewTrackingRecordRepository(testDB.DB)
		settingsRepo := repository.NewTrackerSettingsRepository(testDB.DB)
		nonceSvc := newTestNonceService(t)
		ctx := testingutil.CreateTestContext()

		flow := businessflow.NewTrackingFlow(recordRepo, settingsRepo, nonceSvc, businessflow.TrackingOptions{MaxLinks: 100})
		metadata := businessflow.NewClientMetadata("127.0.0.1", "go-test")

		validNonce, err := nonceSvc.Issue(utils.TrackingNonceAction, "")
		require.NoError(t, err)

		count := func(t *testing.T) int64 {
			n, err := recordRepo.Count(ctx, models.TrackingRecordFilter{})
			require.NoError(t, err)
			return n
		}

		t.Run("StoresSanitizedRecord", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			id, err := flow.Submit(ctx, &dto.TrackingSubmission{
				Screen: "1920x1080",
				Links: []any{
					map[string]any{"url": "https://example.com/", "text": "Home"},
					map[string]any{"url": "https://example.com/pricing", "text": "<i>Pricing</i>"},
				},
				Nonce: validNonce,
			}, metadata)
			require.NoError(t, err)
			assert.NotZero(t, id)

			record, err := recordRepo.ByID(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, record)
			assert.Equal(t, "1920x1080", record.Screen)
			assert.Equal(t, []models.LinkEntry{
				{URL: "https://example.com/", Text: "Home"},
				{URL: "https://example.com/pricing", Text: "Pricing"},
			}, []models.LinkEntry(record.Links))
		})

		t.Run("AcceptsJSONStringLinks", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			id, err := flow.Submit(ctx, &dto.TrackingSubmission{
				Screen: " 375x667 ",
				Links:  `[{"url":"https://m.example.com/","text":"Mobile"}]`,
				Nonce:  validNonce,
			}, metadata)
			require.NoError(t, err)

			record, err := recordRepo.ByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "375x667", record.Screen)
			assert.Len(t, record.Links, 1)
		})

		t.Run("InvalidScreenStoresNothing", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			_, err := flow.Submit(ctx, &dto.TrackingSubmission{Screen: "big", Links: "[]", Nonce: validNonce}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidScreen(err))
			assert.True(t, businessflow.IsInvalidSubmission(err))
			assert.Equal(t, "INVALID_DATA", businessflow.GetBusinessErrorCode(err))
			assert.Equal(t, int64(0), count(t))
		})

		t.Run("InvalidLinksStoreNothing", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			_, err := flow.Submit(ctx, &dto.TrackingSubmission{Screen: "1920x1080", Links: `[{"url":"/relative"}]`, Nonce: validNonce}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidLinks(err))
			assert.Equal(t, int64(0), count(t))
		})

		t.Run("BadNonceStoresNothing", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			adminNonce, err := nonceSvc.Issue(utils.AdminNonceAction, "1")
			require.NoError(t, err)

			for _, nonce := range []string{"", "garbage", adminNonce} {
				_, err := flow.Submit(ctx, &dto.TrackingSubmission{Screen: "1920x1080", Links: "[]", Nonce: nonce}, metadata)
				require.Error(t, err)
				assert.True(t, businessflow.IsInvalidNonce(err))
			}
			assert.Equal(t, int64(0), count(t))
		})

		t.Run("TestModeSkipsNonce", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			testModeFlow := businessflow.NewTrackingFlow(recordRepo, settingsRepo, nonceSvc, businessflow.TrackingOptions{TestMode: true})
			id, err := testModeFlow.Submit(ctx, &dto.TrackingSubmission{Screen: "1280x720", Links: "[]"}, nil)
			require.NoError(t, err)
			assert.NotZero(t, id)
		})

		t.Run("NoDeduplication", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			req := &dto.TrackingSubmission{Screen: "1920x1080", Links: "[]", Nonce: validNonce}
			first, err := flow.Submit(ctx, req, metadata)
			require.NoError(t, err)
			second, err := flow.Submit(ctx, req, metadata)
			require.NoError(t, err)
			assert.NotEqual(t, first, second)
			assert.Equal(t, int64(2), count(t))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestTrackingFlow_Config(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		recordRepo := repository.NewTrackingRecordRepository(testDB.DB)
		settingsRepo := repository.NewTrackerSettingsRepository(testDB.DB)
		nonceSvc := newTestNonceService(t)
		ctx := testingutil.CreateTestContext()

		flow := businessflow.NewTrackingFlow(recordRepo, settingsRepo, nonceSvc, businessflow.TrackingOptions{
			Endpoint:         "/api/v1/abovefold/track",
			LegacyEndpoint:   "/api/v1/ajax/track",
			DisableForAdmins: true,
		})

		t.Run("VisitorGetsNonce", func(t *testing.T) {
			cfg, err := flow.Config(ctx, false)
			require.NoError(t, err)
			assert.True(t, cfg.Enabled)
			assert.Equal(t, 100, cfg.MaxLinks)
			assert.Equal(t, "/api/v1/abovefold/track", cfg.Endpoint)
			assert.NoError(t, nonceSvc.Verify(cfg.Nonce, utils.TrackingNonceAction, ""))
		})

		t.Run("AdminDisabledByDefault", func(t *testing.T) {
			cfg, err := flow.Config(ctx, true)
			require.NoError(t, err)
			assert.False(t, cfg.Enabled)
			assert.Empty(t, cfg.Nonce)
		})

		t.Run("StoredSettingOverridesDefault", func(t *testing.T) {
			require.NoError(t, settingsRepo.Upsert(ctx, models.DefaultTrackerSettings(7, false)))

			cfg, err := flow.Config(ctx, true)
			require.NoError(t, err)
			assert.True(t, cfg.Enabled)
			assert.NotEmpty(t, cfg.Nonce)
		})

		return nil
	})
	require.NoError(t, err)
}
