package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/username/fraudstream/backend/src/logger"
	"github.com/username/fraudstream/backend/src/models"
	"github.com/username/fraudstream/backend/src/services"
	"github.com/username/fraudstream/backend/src/utils"
)

var validate = validator.New()

// StreamHandler serves the SSE stream, its start/stop/status bookkeeping
// and the configuration surface.
type StreamHandler struct {
	svc *services.StreamService
}

func NewStreamHandler(svc *services.StreamService) *StreamHandler {
	return &StreamHandler{svc: svc}
}

func (h *StreamHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, map[string]any{
		"message":     "Banking Transaction Data API",
		"description": "Sends raw transaction data for fraud detection testing",
		"status":      "active",
		"streaming":   h.svc.IsStreaming(),
		"config":      h.svc.Config(),
	}, http.StatusOK)
}

type streamPacket struct {
	Timestamp    string                     `json:"timestamp"`
	Transactions []models.PublicTransaction `json:"transactions"`
}

// HandleStream pushes batches over SSE, pacing by the configured
// interval. The stop signal and the request context are both observed
// at the top of each iteration, so at most one generate-and-emit cycle
// completes after a stop request.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.SendJSONError(w, "streaming not supported by this connection", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	stop := h.svc.Begin()
	defer h.svc.End()
	logger.L.Info("SSE stream opened", "remoteAddr", r.RemoteAddr)

	for {
		select {
		case <-r.Context().Done():
			logger.L.Info("SSE client disconnected", "remoteAddr", r.RemoteAddr)
			return
		case <-stop:
			logger.L.Info("SSE stream stopped", "remoteAddr", r.RemoteAddr)
			return
		default:
		}

		batch := h.svc.NextBatch()
		public := make([]models.PublicTransaction, 0, len(batch))
		for _, tx := range batch {
			public = append(public, tx.Public())
		}

		data, err := json.Marshal(streamPacket{
			Timestamp:    time.Now().Format(time.RFC3339),
			Transactions: public,
		})
		if err != nil {
			logger.L.Error("Failed to marshal stream packet", "error", err)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()

		select {
		case <-r.Context().Done():
			logger.L.Info("SSE client disconnected", "remoteAddr", r.RemoteAddr)
			return
		case <-stop:
			logger.L.Info("SSE stream stopped", "remoteAddr", r.RemoteAddr)
			return
		case <-time.After(h.svc.Interval()):
		}
	}
}

func (h *StreamHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Start(); err != nil {
		if errors.Is(err, services.ErrStreamAlreadyRunning) {
			utils.SendJSONError(w, "Stream is already running", http.StatusBadRequest)
			return
		}
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	logger.L.Info("Transaction streaming started")
	utils.SendJSON(w, map[string]any{
		"message": "Transaction streaming started",
		"config":  h.svc.Config(),
	}, http.StatusOK)
}

func (h *StreamHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.svc.Stop()
	logger.L.Info("Transaction streaming stopped")
	utils.SendJSON(w, map[string]string{"message": "Transaction streaming stopped"}, http.StatusOK)
}

func (h *StreamHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, h.svc.Status(), http.StatusOK)
}

func (h *StreamHandler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, h.svc.Config(), http.StatusOK)
}

// HandleUpdateConfig replaces the stream configuration wholesale. A body
// that fails validation leaves the previous configuration active.
func (h *StreamHandler) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.StreamConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		utils.SendJSONError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(cfg); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("invalid configuration: %v", err), http.StatusBadRequest)
		return
	}
	h.svc.UpdateConfig(cfg)
	utils.SendJSON(w, map[string]any{
		"message": "Configuration updated successfully",
		"config":  cfg,
	}, http.StatusOK)
}
