// The relay binary forwards generated transactions to the durable
// stream. Usage: relay [test|stream] [batch_size] [interval_seconds]
// [max_batches].
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/username/fraudstream/backend/src/logger"
	"github.com/username/fraudstream/backend/src/relay"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Not fatal: OS environment and defaults still apply.
		fmt.Println("No .env file loaded:", err)
	}
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.InitLogger(logLevel)

	cfg := relay.Config{
		Broker: envOr("KAFKA_BROKER", "localhost:9092"),
		Topic:  envOr("STREAM_TOPIC", "transactions"),
		APIURL: envOr("TRANSACTION_API_URL", "http://localhost:8000"),
		Region: envOr("RELAY_REGION", "ap-southeast-1"),
	}
	logger.L.Info("Relay starting", "broker", cfg.Broker, "topic", cfg.Topic, "apiURL", cfg.APIURL, "region", cfg.Region)

	publisher, err := relay.NewPublisher(cfg)
	if err != nil {
		logger.L.Error("Failed to create publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	args := os.Args[1:]
	command := "stream"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "test":
		runTest(publisher)
	case "stream":
		batchSize := argInt(args, 1, 10)
		interval := time.Duration(argInt(args, 2, 5)) * time.Second
		maxBatches := argInt(args, 3, 0)
		runStream(publisher, batchSize, interval, maxBatches)
	default:
		fmt.Println("Usage: relay [test|stream] [batch_size] [interval_seconds] [max_batches]")
		os.Exit(2)
	}
}

// runTest checks both connections and pushes a single record through.
func runTest(publisher *relay.Publisher) {
	if err := publisher.TestConnections(); err != nil {
		logger.L.Error("Connection test failed", "error", err)
		os.Exit(1)
	}

	txs, err := publisher.FetchBatch(1)
	if err != nil {
		logger.L.Error("Failed to fetch test transaction", "error", err)
		os.Exit(1)
	}
	result := publisher.PublishBatch(txs)
	if result.Failed > 0 || result.Sent == 0 {
		logger.L.Error("Single transaction test failed", "sent", result.Sent, "failed", result.Failed)
		os.Exit(1)
	}
	logger.L.Info("Single transaction test successful", "sent", result.Sent)
}

// runStream polls the API and publishes until a signal arrives or
// maxBatches is reached (0 means unbounded).
func runStream(publisher *relay.Publisher, batchSize int, interval time.Duration, maxBatches int) {
	if err := publisher.TestConnections(); err != nil {
		logger.L.Error("Connection test failed", "error", err)
		os.Exit(1)
	}
	logger.L.Info("Starting relay streaming", "batchSize", batchSize, "interval", interval.String(), "maxBatches", maxBatches)

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)

	var totalBatches, totalTransactions, totalSent, totalFailed, totalFlagged int

	run := true
	for run {
		if maxBatches > 0 && totalBatches >= maxBatches {
			logger.L.Info("Reached maximum batches, stopping", "maxBatches", maxBatches)
			break
		}

		select {
		case sig := <-sigchan:
			logger.L.Info("Caught signal, terminating", "signal", sig.String())
			run = false

		default:
			txs, err := publisher.FetchBatch(batchSize)
			if err != nil {
				logger.L.Error("API request failed", "error", err)
			} else if len(txs) == 0 {
				logger.L.Warn("No transactions received from API")
			} else {
				result := publisher.PublishBatch(txs)
				totalBatches++
				totalTransactions += len(txs)
				totalSent += result.Sent
				totalFailed += result.Failed
				totalFlagged += result.Flagged

				logger.L.Info("Batch relayed",
					"batch", totalBatches,
					"sent", result.Sent,
					"failed", result.Failed,
					"flagged", result.Flagged,
					"totalTransactions", totalTransactions)
			}

			select {
			case sig := <-sigchan:
				logger.L.Info("Caught signal, terminating", "signal", sig.String())
				run = false
			case <-time.After(interval):
			}
		}
	}

	logger.L.Info("Relay stopped",
		"batches", totalBatches,
		"transactions", totalTransactions,
		"sent", totalSent,
		"failed", totalFailed,
		"flagged", totalFlagged)
}

func envOr(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func argInt(args []string, idx, fallback int) int {
	if len(args) <= idx {
		return fallback
	}
	value, err := strconv.Atoi(args[idx])
	if err != nil {
		fmt.Printf("Invalid numeric argument %q, using default %d\n", args[idx], fallback)
		return fallback
	}
	return value
}
