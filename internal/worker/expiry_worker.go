// Package worker runs background maintenance for the scheduling service.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper transitions lapsed holds. *scheduling.Service implements it.
type Sweeper interface {
	ExpireStaleHolds(ctx context.Context) (int, error)
}

type ExpiryWorkerConfig struct {
	ScanInterval time.Duration
	// Bounds a single scan so Stop is not held up by a slow database.
	ScanTimeout time.Duration
}

func DefaultExpiryWorkerConfig() *ExpiryWorkerConfig {
	return &ExpiryWorkerConfig{
		ScanInterval: 30 * time.Second,
		ScanTimeout:  20 * time.Second,
	}
}

type ExpiryWorkerStats struct {
	IsRunning        bool
	TotalExpired     int64
	TotalErrors      int64
	LastScanTime     time.Time
	LastExpiredCount int
}

// ExpiryWorker calls the sweeper on a fixed interval. Correctness never
// depends on it: lapsed holds are already treated as expired by every read
// and admission, the sweep only makes the stored status catch up.
type ExpiryWorker struct {
	sweeper Sweeper
	log     *zap.Logger
	config  *ExpiryWorkerConfig

	mu               sync.Mutex
	running          bool
	stopCh           chan struct{}
	doneCh           chan struct{}
	totalExpired     int64
	totalErrors      int64
	lastScanTime     time.Time
	lastExpiredCount int
}

func NewExpiryWorker(sweeper Sweeper, log *zap.Logger, config *ExpiryWorkerConfig) *ExpiryWorker {
	if config == nil {
		config = DefaultExpiryWorkerConfig()
	}
	if config.ScanInterval <= 0 {
		config.ScanInterval = DefaultExpiryWorkerConfig().ScanInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ExpiryWorker{sweeper: sweeper, log: log.Named("expiry_worker"), config: config}
}

// Start launches the scan loop. Calling it on a running worker is a no-op.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	go w.run(ctx, w.stopCh, w.doneCh)
	w.log.Info("started", zap.Duration("interval", w.config.ScanInterval))
}

// Stop signals the loop and waits for an in-flight scan to finish.
func (w *ExpiryWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)
	<-doneCh
	w.log.Info("stopped")
}

func (w *ExpiryWorker) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.config.ScanInterval)
	defer ticker.Stop()

	w.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-stopCh:
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

// ScanOnce runs a single sweep synchronously.
func (w *ExpiryWorker) ScanOnce(ctx context.Context) (int, error) {
	return w.scan(ctx)
}

func (w *ExpiryWorker) scan(ctx context.Context) (int, error) {
	if w.config.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.ScanTimeout)
		defer cancel()
	}

	n, err := w.sweeper.ExpireStaleHolds(ctx)

	w.mu.Lock()
	w.lastScanTime = time.Now()
	w.lastExpiredCount = n
	w.totalExpired += int64(n)
	if err != nil {
		w.totalErrors++
	}
	w.mu.Unlock()

	if err != nil {
		w.log.Error("sweep failed", zap.Int("expired", n), zap.Error(err))
		return n, err
	}
	if n > 0 {
		w.log.Info("expired stale holds", zap.Int("count", n))
	}
	return n, nil
}

func (w *ExpiryWorker) GetStats() ExpiryWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ExpiryWorkerStats{
		IsRunning:        w.running,
		TotalExpired:     w.totalExpired,
		TotalErrors:      w.totalErrors,
		LastScanTime:     w.lastScanTime,
		LastExpiredCount: w.lastExpiredCount,
	}
}
