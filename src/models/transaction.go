package models

// FraudType identifies the generation recipe behind a record. The empty
// value means the record followed the normal (non-fraud) recipe.
type FraudType string

const (
	FraudNone            FraudType = ""
	FraudMoneyLaundering FraudType = "money_laundering"
	FraudAccountTakeover FraudType = "account_takeover"
	FraudLoanFraud       FraudType = "loan_fraud"
	FraudFeeManipulation FraudType = "fee_manipulation"
)

// Label returns the value written on the wire: "normal" for non-fraud
// records, the fraud type string otherwise.
func (f FraudType) Label() string {
	if f == FraudNone {
		return "normal"
	}
	return string(f)
}

// Transaction is a fully synthesized banking transaction, including the
// ground-truth fraud label. This is the shape written by the CSV export;
// the live API serves the unlabeled PublicTransaction view instead.
type Transaction struct {
	TransactionID            string    `json:"transaction_id"`
	AccountID                string    `json:"account_id"`
	BranchID                 int       `json:"branch_id"`
	TransactionAmountVND     float64   `json:"transaction_amount_vnd"`
	TransactionHour          int       `json:"transaction_hour"`
	TransactionTimestamp     string    `json:"transaction_timestamp"`
	LocationCity             string    `json:"location_city"`
	DeviceID                 string    `json:"device_id"`
	BiometricFailureCount    int       `json:"biometric_failure_count"`
	TransactionFrequency5Min int       `json:"transaction_frequency_5min"`
	TotalLoansVND            float64   `json:"total_loans_vnd"`
	NumTransactions          int       `json:"num_transactions"`
	NPLFlag                  bool      `json:"npl_flag"`
	TotalDepositsVND         float64   `json:"total_deposits_vnd"`
	TransactionFeesVND       float64   `json:"transaction_fees_vnd"`
	IsFraud                  bool      `json:"is_fraud"`
	FraudType                FraudType `json:"fraud_type"`
}

// PublicTransaction is the shape served by the live API: the same record
// without the is_fraud / fraud_type ground-truth labels.
type PublicTransaction struct {
	TransactionID            string  `json:"transaction_id"`
	AccountID                string  `json:"account_id"`
	BranchID                 int     `json:"branch_id"`
	TransactionAmountVND     float64 `json:"transaction_amount_vnd"`
	TransactionHour          int     `json:"transaction_hour"`
	TransactionTimestamp     string  `json:"transaction_timestamp"`
	LocationCity             string  `json:"location_city"`
	DeviceID                 string  `json:"device_id"`
	BiometricFailureCount    int     `json:"biometric_failure_count"`
	TransactionFrequency5Min int     `json:"transaction_frequency_5min"`
	TotalLoansVND            float64 `json:"total_loans_vnd"`
	NumTransactions          int     `json:"num_transactions"`
	NPLFlag                  bool    `json:"npl_flag"`
	TotalDepositsVND         float64 `json:"total_deposits_vnd"`
	TransactionFeesVND       float64 `json:"transaction_fees_vnd"`
}

// TransactionBatch is the envelope returned by the batch endpoint and
// consumed by the stream relay.
type TransactionBatch struct {
	Transactions []PublicTransaction `json:"transactions"`
	Count        int                 `json:"count"`
	Timestamp    string              `json:"timestamp"`
}

// Public strips the ground-truth labels for API delivery.
func (t Transaction) Public() PublicTransaction {
	return PublicTransaction{
		TransactionID:            t.TransactionID,
		AccountID:                t.AccountID,
		BranchID:                 t.BranchID,
		TransactionAmountVND:     t.TransactionAmountVND,
		TransactionHour:          t.TransactionHour,
		TransactionTimestamp:     t.TransactionTimestamp,
		LocationCity:             t.LocationCity,
		DeviceID:                 t.DeviceID,
		BiometricFailureCount:    t.BiometricFailureCount,
		TransactionFrequency5Min: t.TransactionFrequency5Min,
		TotalLoansVND:            t.TotalLoansVND,
		NumTransactions:          t.NumTransactions,
		NPLFlag:                  t.NPLFlag,
		TotalDepositsVND:         t.TotalDepositsVND,
		TransactionFeesVND:       t.TransactionFeesVND,
	}
}
