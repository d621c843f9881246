package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/fraudstream/backend/src/database"
	"github.com/username/fraudstream/backend/src/generator"
	"github.com/username/fraudstream/backend/src/logger"
	"github.com/username/fraudstream/backend/src/models"
)

var (
	ErrExportTooLarge  = errors.New("export exceeds maximum row count")
	ErrInvalidFilename = errors.New("invalid export filename")
)

const (
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute

	// Rows generated per engine lock acquisition while exporting.
	exportChunkSize = 1000
)

// Downstream training pipelines depend on this column order.
var exportHeader = []string{
	"transaction_id", "account_id", "branch_id", "transaction_amount_vnd",
	"transaction_hour", "transaction_timestamp", "location_city", "device_id",
	"biometric_failure_count", "transaction_frequency_5min", "total_loans_vnd",
	"num_transactions", "npl_flag", "total_deposits_vnd", "transaction_fees_vnd",
	"is_fraud", "fraud_type",
}

// ExportRequest is the POST /api/export body. IncludeLabels defaults to
// true: the file export is the ground-truth feed, unlike the live API.
type ExportRequest struct {
	Count         int    `json:"count" validate:"required,gte=1"`
	Filename      string `json:"filename"`
	IncludeLabels *bool  `json:"include_labels"`
}

// ExportService writes batches of generated records to CSV files,
// keeps recent job summaries in a TTL cache and persists run history.
type ExportService struct {
	gen       *generator.Generator
	jobCache  *cache.Cache
	exportDir string
	maxRows   int
}

func NewExportService(gen *generator.Generator, jobCache *cache.Cache, exportDir string, maxRows int) *ExportService {
	return &ExportService{
		gen:       gen,
		jobCache:  jobCache,
		exportDir: exportDir,
		maxRows:   maxRows,
	}
}

// Export generates req.Count records and writes them as one CSV file.
func (s *ExportService) Export(req ExportRequest) (*models.ExportRun, error) {
	startTime := time.Now()

	if req.Count > s.maxRows {
		return nil, fmt.Errorf("%w: requested %d, maximum %d", ErrExportTooLarge, req.Count, s.maxRows)
	}

	includeLabels := true
	if req.IncludeLabels != nil {
		includeLabels = *req.IncludeLabels
	}

	jobID := uuid.NewString()
	filename := req.Filename
	if filename == "" {
		filename = fmt.Sprintf("banking_transactions_%s.csv", jobID[:8])
	}
	if filename != filepath.Base(filename) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilename, req.Filename)
	}

	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(s.exportDir, filename)
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := exportHeader
	if !includeLabels {
		header = exportHeader[:len(exportHeader)-2]
	}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("writing export header: %w", err)
	}

	written := 0
	fraudCount := 0
	for written < req.Count {
		chunk := req.Count - written
		if chunk > exportChunkSize {
			chunk = exportChunkSize
		}
		for _, tx := range s.gen.NextBatch(chunk) {
			if tx.IsFraud {
				fraudCount++
			}
			if err := writer.Write(exportRow(tx, includeLabels)); err != nil {
				return nil, fmt.Errorf("writing export row: %w", err)
			}
			written++
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flushing export file: %w", err)
	}

	run := &models.ExportRun{
		ID:            jobID,
		Filename:      filename,
		Requested:     req.Count,
		Written:       written,
		FraudCount:    fraudCount,
		IncludeLabels: includeLabels,
		CreatedAt:     time.Now(),
	}

	if err := models.InsertExportRun(database.DB, run); err != nil {
		return nil, err
	}
	s.jobCache.Set(run.ID, run, cache.DefaultExpiration)

	logger.L.Info("CSV export completed",
		"jobID", run.ID,
		"filename", filename,
		"written", written,
		"fraudCount", fraudCount,
		"durationMs", time.Since(startTime).Milliseconds())
	return run, nil
}

// GetRun returns a job summary, preferring the TTL cache over the DB.
func (s *ExportService) GetRun(id string) (*models.ExportRun, error) {
	if cached, found := s.jobCache.Get(id); found {
		return cached.(*models.ExportRun), nil
	}
	return models.GetExportRun(database.DB, id)
}

func (s *ExportService) ListRuns(limit int) ([]models.ExportRun, error) {
	return models.ListExportRuns(database.DB, limit)
}

func exportRow(tx models.Transaction, includeLabels bool) []string {
	row := []string{
		tx.TransactionID,
		tx.AccountID,
		strconv.Itoa(tx.BranchID),
		formatFloat(tx.TransactionAmountVND),
		strconv.Itoa(tx.TransactionHour),
		tx.TransactionTimestamp,
		tx.LocationCity,
		tx.DeviceID,
		strconv.Itoa(tx.BiometricFailureCount),
		strconv.Itoa(tx.TransactionFrequency5Min),
		formatFloat(tx.TotalLoansVND),
		strconv.Itoa(tx.NumTransactions),
		strconv.FormatBool(tx.NPLFlag),
		formatFloat(tx.TotalDepositsVND),
		formatFloat(tx.TransactionFeesVND),
	}
	if includeLabels {
		row = append(row, strconv.FormatBool(tx.IsFraud), tx.FraudType.Label())
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
