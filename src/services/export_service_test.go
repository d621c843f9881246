package services

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/fraudstream/backend/src/database"
	"github.com/username/fraudstream/backend/src/generator"
	"github.com/username/fraudstream/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func newExportFixture(t *testing.T) (*ExportService, string) {
	t.Helper()
	dir := t.TempDir()
	database.InitDB(filepath.Join(dir, "test.db"))

	gen := generator.New(rand.New(rand.NewPCG(21, 22)), func() time.Time {
		return time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	})
	jobCache := cache.New(DefaultCacheExpiration, CacheCleanupInterval)
	return NewExportService(gen, jobCache, dir, 100000), dir
}

func TestExportWritesLabeledCSV(t *testing.T) {
	svc, dir := newExportFixture(t)

	run, err := svc.Export(ExportRequest{Count: 250, Filename: "txns.csv"})
	require.NoError(t, err)
	assert.Equal(t, 250, run.Requested)
	assert.Equal(t, 250, run.Written)
	assert.True(t, run.IncludeLabels)
	assert.NotEmpty(t, run.ID)

	data, err := os.ReadFile(filepath.Join(dir, "txns.csv"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 251, "header plus one line per record")
	assert.Equal(t, strings.Join(exportHeader, ","), lines[0])

	for _, line := range lines[1:] {
		fields := strings.Split(line, ",")
		require.Len(t, fields, len(exportHeader))
		assert.True(t, strings.HasPrefix(fields[0], "TXN_"))
		isFraud := fields[len(fields)-2]
		fraudType := fields[len(fields)-1]
		assert.Contains(t, []string{"true", "false"}, isFraud)
		if isFraud == "false" {
			assert.Equal(t, "normal", fraudType)
		} else {
			assert.Contains(t, []string{"money_laundering", "account_takeover", "loan_fraud", "fee_manipulation"}, fraudType)
		}
	}
}

func TestExportWithoutLabels(t *testing.T) {
	svc, dir := newExportFixture(t)

	noLabels := false
	run, err := svc.Export(ExportRequest{Count: 10, Filename: "plain.csv", IncludeLabels: &noLabels})
	require.NoError(t, err)
	assert.False(t, run.IncludeLabels)

	data, err := os.ReadFile(filepath.Join(dir, "plain.csv"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, strings.Join(exportHeader[:len(exportHeader)-2], ","), lines[0])
	assert.NotContains(t, lines[0], "is_fraud")
}

func TestExportRejectsOversizedRequest(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.Export(ExportRequest{Count: 100001})
	require.ErrorIs(t, err, ErrExportTooLarge)
}

func TestExportRejectsPathTraversalFilename(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.Export(ExportRequest{Count: 1, Filename: "../escape.csv"})
	require.ErrorIs(t, err, ErrInvalidFilename)
}

func TestExportRunRoundTrip(t *testing.T) {
	svc, _ := newExportFixture(t)

	run, err := svc.Export(ExportRequest{Count: 5})
	require.NoError(t, err)

	// Served from the job cache first.
	got, err := svc.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Written, got.Written)

	// And from the database once the cache entry is gone.
	svc.jobCache.Flush()
	got, err = svc.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.FraudCount, got.FraudCount)

	runs, err := svc.ListRuns(10)
	require.NoError(t, err)
	require.NotEmpty(t, runs)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestExportDefaultFilenameUsesJobID(t *testing.T) {
	svc, dir := newExportFixture(t)

	run, err := svc.Export(ExportRequest{Count: 1})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(run.Filename, "banking_transactions_"))
	assert.True(t, strings.HasSuffix(run.Filename, ".csv"))

	_, err = os.Stat(filepath.Join(dir, run.Filename))
	require.NoError(t, err)
}
