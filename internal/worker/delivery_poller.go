// Package worker provides the background delivery poller that mails
// letters once their scheduled instant arrives.
package worker

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/futureme/futureme/internal/domain"
	"github.com/futureme/futureme/internal/notifier"
	"github.com/futureme/futureme/internal/pkg/distlock"
	"github.com/futureme/futureme/internal/pkg/logger"
	"github.com/futureme/futureme/internal/pkg/timeconv"
	"github.com/futureme/futureme/internal/service/letter"
)

// DeliveryPoller wakes on a fixed interval, loads letters whose delivery
// instant is at or before now, emails each one, and marks it sent.
// Delivery is at-least-once: a crash between send and MarkSent means the
// letter is sent again on a later pass.
type DeliveryPoller struct {
	repo     letter.Repository
	notifier notifier.Notifier
	display  *timeconv.Zone
	lock     distlock.DistLock

	// Configuration
	pollInterval time.Duration
	batchSize    int
	sendTimeout  time.Duration

	// Clock seam for tests.
	now func() time.Time

	// Stats
	totalTicks     int64
	totalDelivered int64
	totalErrors    int64
	lastTickUnix   int64

	// Control
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
}

// DeliveryPollerConfig holds configuration for the delivery poller.
type DeliveryPollerConfig struct {
	PollInterval time.Duration     // how often to sweep for due letters
	BatchSize    int               // max letters loaded per sweep
	SendTimeout  time.Duration     // per-letter send budget
	Lock         distlock.DistLock // optional, keeps sweeps single-flight across instances
}

// DefaultDeliveryPollerConfig returns default configuration.
func DefaultDeliveryPollerConfig() DeliveryPollerConfig {
	return DeliveryPollerConfig{
		PollInterval: time.Minute,
		BatchSize:    100,
		SendTimeout:  20 * time.Second,
	}
}

// NewDeliveryPoller creates a delivery poller. The display zone is only
// used to render timestamps inside the outgoing email body.
func NewDeliveryPoller(repo letter.Repository, n notifier.Notifier, display *timeconv.Zone, config DeliveryPollerConfig) *DeliveryPoller {
	if config.PollInterval <= 0 {
		config.PollInterval = time.Minute
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = 20 * time.Second
	}
	if display == nil {
		display = timeconv.DefaultZone
	}

	return &DeliveryPoller{
		repo:         repo,
		notifier:     n,
		display:      display,
		lock:         config.Lock,
		pollInterval: config.PollInterval,
		batchSize:    config.BatchSize,
		sendTimeout:  config.SendTimeout,
		now:          time.Now,
	}
}

// Start begins the delivery poller background goroutine.
func (p *DeliveryPoller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.mu.Unlock()

	log.Printf("[DeliveryPoller] Starting with poll_interval=%s, batch_size=%d, send_timeout=%s",
		p.pollInterval, p.batchSize, p.sendTimeout)

	p.wg.Add(1)
	go p.pollLoop()
}

// Stop gracefully stops the delivery poller, waiting for an in-flight
// sweep to finish.
func (p *DeliveryPoller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	log.Println("[DeliveryPoller] Stopping...")
	p.wg.Wait()

	log.Printf("[DeliveryPoller] Stopped. Stats: ticks=%d, delivered=%d, errors=%d",
		atomic.LoadInt64(&p.totalTicks),
		atomic.LoadInt64(&p.totalDelivered),
		atomic.LoadInt64(&p.totalErrors))
}

// IsRunning returns whether the poller is currently running.
func (p *DeliveryPoller) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// Stats returns current delivery statistics.
func (p *DeliveryPoller) Stats() map[string]int64 {
	return map[string]int64{
		"total_ticks":     atomic.LoadInt64(&p.totalTicks),
		"total_delivered": atomic.LoadInt64(&p.totalDelivered),
		"total_errors":    atomic.LoadInt64(&p.totalErrors),
	}
}

// LastTick returns when the poller last completed a sweep, or the zero
// time if it has not swept yet.
func (p *DeliveryPoller) LastTick() time.Time {
	unix := atomic.LoadInt64(&p.lastTickUnix)
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0).UTC()
}

func (p *DeliveryPoller) pollLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	// Sweep immediately on start so letters due during downtime go out
	// without waiting a full interval.
	if err := p.Tick(p.ctx, p.now().UTC()); err != nil {
		log.Printf("[DeliveryPoller] Initial sweep error: %v", err)
	}

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if err := p.Tick(p.ctx, p.now().UTC()); err != nil {
				log.Printf("[DeliveryPoller] Sweep error: %v", err)
			}
		}
	}
}

// Tick runs one delivery sweep as of the given instant. It is exported so
// an operator endpoint or test can force a sweep without waiting on the
// ticker. Send failures are logged and skipped; the letter stays unsent
// and is retried on the next pass.
func (p *DeliveryPoller) Tick(ctx context.Context, asOf time.Time) error {
	atomic.AddInt64(&p.totalTicks, 1)

	if p.lock != nil {
		acquired, err := p.lock.Acquire(ctx)
		if err != nil {
			atomic.AddInt64(&p.totalErrors, 1)
			return err
		}
		if !acquired {
			// Another instance is sweeping; its pass covers our letters.
			// LastTick is deliberately not touched: only a sweep this
			// instance actually ran counts as liveness.
			return nil
		}
		defer func() {
			if err := p.lock.Release(ctx); err != nil {
				atomic.AddInt64(&p.totalErrors, 1)
				log.Printf("[DeliveryPoller] Lock release error: %v", err)
			}
		}()
	}

	defer atomic.StoreInt64(&p.lastTickUnix, p.now().Unix())

	due, err := p.repo.FindDue(ctx, asOf, p.batchSize)
	if err != nil {
		atomic.AddInt64(&p.totalErrors, 1)
		return err
	}
	if len(due) == 0 {
		return nil
	}

	log.Printf("[DeliveryPoller] Found %d letters due as of %s", len(due), asOf.Format(time.RFC3339))

	for i := range due {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		p.deliver(ctx, &due[i])
	}
	return nil
}

// deliver sends one letter and marks it sent. A send failure leaves the
// letter untouched for retry; a MarkSent failure after a successful send
// is logged loudly since it will cause a duplicate email next pass.
func (p *DeliveryPoller) deliver(ctx context.Context, l *domain.Letter) {
	sendCtx, cancel := context.WithTimeout(ctx, p.sendTimeout)
	defer cancel()

	if err := p.notifier.Send(sendCtx, notifier.DeliveryMessage(l, p.display)); err != nil {
		atomic.AddInt64(&p.totalErrors, 1)
		logger.Warn("letter delivery failed, will retry next pass",
			"letter_id", l.ID, "recipient", l.Email, "err", err.Error())
		return
	}

	if err := p.repo.MarkSent(ctx, l.ID); err != nil {
		atomic.AddInt64(&p.totalErrors, 1)
		logger.Error("letter sent but not marked, duplicate delivery likely",
			"letter_id", l.ID, "err", err.Error())
		return
	}

	atomic.AddInt64(&p.totalDelivered, 1)
	logger.Info("letter delivered",
		"letter_id", l.ID, "recipient", l.Email, "delivery_at", l.DeliveryAt.Format(time.RFC3339))
}
