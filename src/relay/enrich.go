// Package relay forwards generated transactions from the HTTP API to a
// durable Kafka stream for downstream fraud-detection pipelines,
// enriching each record with delivery metadata and derived risk flags.
package relay

import (
	"strings"
	"time"

	"github.com/username/fraudstream/backend/src/models"
)

const (
	highAmountThreshold    = 300_000_000
	highFrequencyThreshold = 10
	newDeviceMarker        = "DEV_NEW_"

	sourceName = "fraudstream_transaction_api"
)

// Hour 24 appears in the money-laundering pattern and counts as off
// hours.
var offHours = map[int]bool{1: true, 2: true, 3: true, 22: true, 23: true, 24: true}

// EnrichedTransaction is the record shape published to the stream. The
// metadata field names are kept from the legacy Kinesis feed so
// existing consumers continue to parse it.
type EnrichedTransaction struct {
	models.PublicTransaction

	KinesisTimestamp string `json:"kinesis_timestamp"`
	Source           string `json:"source"`
	Region           string `json:"region"`
	StreamName       string `json:"stream_name"`

	HighAmountFlag       bool `json:"high_amount_flag"`
	OffHoursFlag         bool `json:"off_hours_flag"`
	SuspiciousDeviceFlag bool `json:"suspicious_device_flag"`
	HighFrequencyFlag    bool `json:"high_frequency_flag"`
}

// Flagged reports whether any derived risk flag is set.
func (e EnrichedTransaction) Flagged() bool {
	return e.HighAmountFlag || e.OffHoursFlag || e.SuspiciousDeviceFlag || e.HighFrequencyFlag
}

// Enrich adds delivery metadata and the derived risk flags.
func Enrich(tx models.PublicTransaction, region, streamName string, now time.Time) EnrichedTransaction {
	return EnrichedTransaction{
		PublicTransaction: tx,

		KinesisTimestamp: now.UTC().Format(time.RFC3339),
		Source:           sourceName,
		Region:           region,
		StreamName:       streamName,

		HighAmountFlag:       tx.TransactionAmountVND > highAmountThreshold,
		OffHoursFlag:         offHours[tx.TransactionHour],
		SuspiciousDeviceFlag: strings.Contains(tx.DeviceID, newDeviceMarker),
		HighFrequencyFlag:    tx.TransactionFrequency5Min > highFrequencyThreshold,
	}
}
