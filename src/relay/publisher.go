package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/username/fraudstream/backend/src/logger"
	"github.com/username/fraudstream/backend/src/models"
)

const (
	publishRetries = 3
	initialBackoff = 500 * time.Millisecond

	metadataTimeoutMs = 5000
	flushTimeoutMs    = 5000
)

type Config struct {
	Broker string
	Topic  string
	APIURL string
	Region string
}

// BatchResult summarizes one publish cycle.
type BatchResult struct {
	Sent    int
	Failed  int
	Flagged int
}

// Publisher pulls transaction batches from the generator API and
// publishes them to Kafka, partitioned by account so all of an
// account's activity lands on one partition.
type Publisher struct {
	cfg      Config
	producer *kafka.Producer
	client   *http.Client
	now      func() time.Time
}

func NewPublisher(cfg Config) (*Publisher, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": cfg.Broker})
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer for %s: %w", cfg.Broker, err)
	}
	return &Publisher{
		cfg:      cfg,
		producer: producer,
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}, nil
}

func (p *Publisher) Close() {
	p.producer.Flush(flushTimeoutMs)
	p.producer.Close()
}

// TestConnections checks both ends of the relay: the transaction API
// and the Kafka topic.
func (p *Publisher) TestConnections() error {
	resp, err := p.client.Get(p.cfg.APIURL + "/api/status")
	if err != nil {
		return fmt.Errorf("transaction API unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transaction API returned status %d", resp.StatusCode)
	}
	logger.L.Info("Transaction API reachable", "url", p.cfg.APIURL)

	if _, err := p.producer.GetMetadata(&p.cfg.Topic, false, metadataTimeoutMs); err != nil {
		return fmt.Errorf("kafka metadata for topic %s: %w", p.cfg.Topic, err)
	}
	logger.L.Info("Kafka topic reachable", "broker", p.cfg.Broker, "topic", p.cfg.Topic)
	return nil
}

// FetchBatch pulls n records from the generator API.
func (p *Publisher) FetchBatch(n int) ([]models.PublicTransaction, error) {
	resp, err := p.client.Get(fmt.Sprintf("%s/api/transactions/%d", p.cfg.APIURL, n))
	if err != nil {
		return nil, fmt.Errorf("requesting transaction batch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transaction API returned status %d", resp.StatusCode)
	}

	var batch models.TransactionBatch
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decoding transaction batch: %w", err)
	}
	return batch.Transactions, nil
}

// PublishBatch enriches each record and publishes it keyed by account
// ID. Transport failures are retried with exponential backoff; records
// that still fail are counted and skipped, never re-fetched.
func (p *Publisher) PublishBatch(txs []models.PublicTransaction) BatchResult {
	var result BatchResult
	deliveryChan := make(chan kafka.Event, len(txs))

	produced := 0
	for _, tx := range txs {
		enriched := Enrich(tx, p.cfg.Region, p.cfg.Topic, p.now())
		if enriched.Flagged() {
			result.Flagged++
		}

		payload, err := json.Marshal(enriched)
		if err != nil {
			logger.L.Error("Failed to marshal enriched record", "transactionID", tx.TransactionID, "error", err)
			result.Failed++
			continue
		}
		if err := p.produceWithRetry(tx.AccountID, payload, deliveryChan); err != nil {
			logger.L.Error("Failed to publish record", "transactionID", tx.TransactionID, "error", err)
			result.Failed++
			continue
		}
		produced++
	}

	for i := 0; i < produced; i++ {
		ev := <-deliveryChan
		msg, ok := ev.(*kafka.Message)
		if !ok {
			continue
		}
		if msg.TopicPartition.Error != nil {
			logger.L.Error("Delivery failed", "error", msg.TopicPartition.Error)
			result.Failed++
			continue
		}
		result.Sent++
	}
	return result
}

func (p *Publisher) produceWithRetry(key string, payload []byte, deliveryChan chan kafka.Event) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= publishRetries; attempt++ {
		err = p.producer.Produce(&kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &p.cfg.Topic, Partition: kafka.PartitionAny},
			Key:            []byte(key),
			Value:          payload,
		}, deliveryChan)
		if err == nil {
			return nil
		}
		logger.L.Warn("Kafka produce failed, backing off", "attempt", attempt, "error", err)
		time.Sleep(backoff)
		backoff *= 2
	}
	return fmt.Errorf("producing record after %d attempts: %w", publishRetries, err)
}
