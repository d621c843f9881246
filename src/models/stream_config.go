package models

// StreamConfig is the process-wide generation configuration. Updates
// replace the whole object at once; a partially populated POST body is
// rejected by validation rather than merged.
type StreamConfig struct {
	FrequencySeconds   float64 `json:"frequency_seconds" validate:"required,gt=0"`
	FraudInjectionRate float64 `json:"fraud_injection_rate" validate:"gte=0,lte=1"`
	BatchSize          int     `json:"batch_size" validate:"required,gte=1"`
}

// DefaultStreamConfig mirrors the service defaults: one record per
// second with a 5% fraud injection rate.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		FrequencySeconds:   1.0,
		FraudInjectionRate: 0.05,
		BatchSize:          1,
	}
}
