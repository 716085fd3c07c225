package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	// JobTypeRenewalSweep scans for subscriptions past their billing date
	// and enqueues one renewal job per hit.
	JobTypeRenewalSweep JobType = "renewal_sweep"
	// JobTypeSubscriptionRenewal advances (or expires) one subscription.
	JobTypeSubscriptionRenewal JobType = "subscription_renewal"
	// JobTypeInvoiceOverdueSweep flips pending invoices past due to overdue.
	JobTypeInvoiceOverdueSweep JobType = "invoice_overdue_sweep"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// SubscriptionRenewalJobPayload identifies the subscription to renew.
type SubscriptionRenewalJobPayload struct {
	SubscriptionID string `json:"subscription_id"`
}

// ToMap converts the payload to a map for storage
func (p SubscriptionRenewalJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"subscription_id": p.SubscriptionID,
	}
}

// SubscriptionRenewalJobPayloadFromMap creates a payload from a map
func SubscriptionRenewalJobPayloadFromMap(data map[string]interface{}) (*SubscriptionRenewalJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload SubscriptionRenewalJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// SweepJobPayload carries the reference time for sweep jobs.
type SweepJobPayload struct {
	AsOf time.Time `json:"as_of"`
}

// ToMap converts the payload to a map for storage
func (p SweepJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"as_of": p.AsOf.Format(time.RFC3339),
	}
}

// SweepJobPayloadFromMap creates a payload from a map
func SweepJobPayloadFromMap(data map[string]interface{}) (*SweepJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload SweepJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
