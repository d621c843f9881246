package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/username/fraudstream/backend/src/generator"
	"github.com/username/fraudstream/backend/src/models"
	"github.com/username/fraudstream/backend/src/utils"
)

// TransactionHandler serves the pull interface: one record or a bounded
// batch per request. Records go out in the public (unlabeled) shape.
type TransactionHandler struct {
	gen          *generator.Generator
	maxBatchSize int
}

func NewTransactionHandler(gen *generator.Generator, maxBatchSize int) *TransactionHandler {
	return &TransactionHandler{gen: gen, maxBatchSize: maxBatchSize}
}

func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx := h.gen.Next()
	utils.SendJSON(w, tx.Public(), http.StatusOK)
}

func (h *TransactionHandler) HandleGetTransactionsBatch(w http.ResponseWriter, r *http.Request) {
	count, err := strconv.Atoi(r.PathValue("count"))
	if err != nil || count < 1 {
		utils.SendJSONError(w, "transaction count must be a positive integer", http.StatusBadRequest)
		return
	}
	if count > h.maxBatchSize {
		utils.SendJSONError(w, fmt.Sprintf("Maximum %d transactions per request", h.maxBatchSize), http.StatusBadRequest)
		return
	}

	batch := h.gen.NextBatch(count)
	public := make([]models.PublicTransaction, 0, len(batch))
	for _, tx := range batch {
		public = append(public, tx.Public())
	}

	utils.SendJSON(w, models.TransactionBatch{
		Transactions: public,
		Count:        len(public),
		Timestamp:    time.Now().Format(time.RFC3339),
	}, http.StatusOK)
}
