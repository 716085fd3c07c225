package jobqueue

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/cartamenu/carta/internal/pkg/billing"
	"github.com/cartamenu/carta/internal/pkg/env"
)

// Manager owns the job queue and the periodic sweep tickers. The sweeps
// only enqueue work; the actual renewals and overdue flips run through
// the queue workers.
type Manager struct {
	queue         *Queue
	renewalTicker *time.Ticker
	overdueTicker *time.Ticker
	stopCh        chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	running       bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton).
func GetManager(svc *billing.Service) *Manager {
	managerOnce.Do(func() {
		workerCount := intFromEnv("BILLING_QUEUE_WORKERS", 3)
		globalManager = &Manager{
			queue:  NewQueue(svc, workerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and the sweep tickers.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Println("[JobQueue Manager] Starting job queue and sweep workers")

	m.queue.Start()

	renewalInterval := time.Duration(intFromEnv("BILLING_RENEWAL_SWEEP_MINUTES", 60)) * time.Minute
	overdueInterval := time.Duration(intFromEnv("BILLING_OVERDUE_SWEEP_MINUTES", 360)) * time.Minute

	m.renewalTicker = time.NewTicker(renewalInterval)
	m.wg.Add(1)
	go m.sweepWorker("renewal", m.renewalTicker, JobTypeRenewalSweep)

	m.overdueTicker = time.NewTicker(overdueInterval)
	m.wg.Add(1)
	go m.sweepWorker("overdue", m.overdueTicker, JobTypeInvoiceOverdueSweep)

	log.Println("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and sweep tickers.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Println("[JobQueue Manager] Stopping job queue and sweep workers...")

	if m.renewalTicker != nil {
		m.renewalTicker.Stop()
	}
	if m.overdueTicker != nil {
		m.overdueTicker.Stop()
	}

	close(m.stopCh)
	m.running = false
	m.wg.Wait()

	m.queue.Stop()

	log.Println("[JobQueue Manager] Stopped successfully")
}

// sweepWorker enqueues one sweep job per tick.
func (m *Manager) sweepWorker(name string, ticker *time.Ticker, jobType JobType) {
	defer m.wg.Done()
	log.Printf("[JobQueue Manager] Started %s sweep worker", name)

	for {
		select {
		case <-m.stopCh:
			log.Printf("[JobQueue Manager] %s sweep worker stopping", name)
			return
		case <-ticker.C:
			payload := SweepJobPayload{AsOf: time.Now()}
			if _, err := m.queue.EnqueueJob(jobType, payload.ToMap()); err != nil {
				log.Printf("[JobQueue Manager] Error enqueuing %s sweep: %v", name, err)
			}
		}
	}
}

// RunRenewalSweepOnce exposes a manual trigger for a single renewal sweep (admin use).
func (m *Manager) RunRenewalSweepOnce() error {
	payload := SweepJobPayload{AsOf: time.Now()}
	_, err := m.queue.EnqueueJob(JobTypeRenewalSweep, payload.ToMap())
	return err
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func intFromEnv(key string, fallback int) int {
	if raw := env.GetEnv(key, ""); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}
