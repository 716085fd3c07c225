package jobqueue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cartamenu/carta/internal/pkg/billing"
)

// processRenewalSweepJob finds subscriptions past their billing date and
// enqueues one renewal job each.
func (q *Queue) processRenewalSweepJob(ctx context.Context, job *Job) error {
	payload, err := SweepJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid sweep payload: %w", err)
	}
	asOf := payload.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	due, err := q.svc.ListDueSubscriptions(ctx, asOf)
	if err != nil {
		return err
	}

	for _, sub := range due {
		renewal := SubscriptionRenewalJobPayload{SubscriptionID: sub.ID}
		if _, err := q.EnqueueJob(JobTypeSubscriptionRenewal, renewal.ToMap()); err != nil {
			return fmt.Errorf("failed to enqueue renewal for %s: %w", sub.ID, err)
		}
	}

	log.Printf("[JobQueue] Renewal sweep enqueued %d renewals (asOf=%s)", len(due), asOf.Format(time.RFC3339))
	return nil
}

// processSubscriptionRenewalJob advances or expires one subscription.
// An already-handled subscription is not an error; another worker or an
// admin may have renewed it between sweep and processing.
func (q *Queue) processSubscriptionRenewalJob(ctx context.Context, job *Job) error {
	payload, err := SubscriptionRenewalJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid renewal payload: %w", err)
	}
	if payload.SubscriptionID == "" {
		return fmt.Errorf("renewal payload missing subscription_id")
	}

	if err := q.svc.Renew(ctx, payload.SubscriptionID); err != nil {
		if billing.IsInvalidState(err) || billing.IsNotFound(err) {
			log.Printf("[JobQueue] Skipping renewal for %s: %v", payload.SubscriptionID, err)
			return nil
		}
		return err
	}
	return nil
}

// processInvoiceOverdueSweepJob flips pending invoices past due to overdue.
func (q *Queue) processInvoiceOverdueSweepJob(ctx context.Context, job *Job) error {
	payload, err := SweepJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid sweep payload: %w", err)
	}
	asOf := payload.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	n, err := q.svc.MarkOverdueInvoices(ctx, asOf)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("[JobQueue] Marked %d invoices overdue (asOf=%s)", n, asOf.Format(time.RFC3339))
	}
	return nil
}
