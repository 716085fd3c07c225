package jobqueue

import (
	"testing"
	"time"
)

func TestJobLifecycleMarks(t *testing.T) {
	job := &Job{
		ID:         "job-1",
		Type:       JobTypeSubscriptionRenewal,
		Status:     JobStatusPending,
		MaxRetries: DefaultMaxRetries,
	}

	job.MarkAsProcessing()
	if job.Status != JobStatusProcessing || job.ProcessedAt == nil {
		t.Fatalf("expected processing with timestamp, got %s", job.Status)
	}

	job.MarkAsCompleted()
	if job.Status != JobStatusCompleted || job.CompletedAt == nil {
		t.Fatalf("expected completed with timestamp, got %s", job.Status)
	}
	if job.ErrorMsg != "" {
		t.Fatalf("completion must clear the error message, got %q", job.ErrorMsg)
	}
}

func TestJobRetryAccounting(t *testing.T) {
	job := &Job{ID: "job-2", Type: JobTypeRenewalSweep, Status: JobStatusPending, MaxRetries: 2}

	for i := 1; i <= 2; i++ {
		job.MarkAsFailed("boom")
		if job.RetryCount != i {
			t.Fatalf("retry count = %d, want %d", job.RetryCount, i)
		}
		if i < 2 && !job.IsRetryable() {
			t.Fatalf("job should be retryable at attempt %d", i)
		}
	}
	job.MarkAsFailed("boom")
	if job.IsRetryable() {
		t.Fatal("job must not be retryable past max retries")
	}
}

func TestSweepPayloadRoundTrip(t *testing.T) {
	asOf := time.Date(2025, 7, 16, 3, 0, 0, 0, time.UTC)
	payload, err := SweepJobPayloadFromMap(SweepJobPayload{AsOf: asOf}.ToMap())
	if err != nil {
		t.Fatal(err)
	}
	if !payload.AsOf.Equal(asOf) {
		t.Fatalf("as_of = %s, want %s", payload.AsOf, asOf)
	}
}

func TestRenewalPayloadRoundTrip(t *testing.T) {
	payload, err := SubscriptionRenewalJobPayloadFromMap(
		SubscriptionRenewalJobPayload{SubscriptionID: "sub-1"}.ToMap())
	if err != nil {
		t.Fatal(err)
	}
	if payload.SubscriptionID != "sub-1" {
		t.Fatalf("subscription_id = %q", payload.SubscriptionID)
	}
}
