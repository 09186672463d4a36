package services

import (
	"context"
	"log"
	"time"
)

type providerScanSource interface {
	ActiveProviderIDs(ctx context.Context, since time.Time) ([]string, error)
}

type userScanner interface {
	ScanUser(ctx context.Context, userID string, triggerType string) (*ScanResult, error)
}

// ScanScheduler sweeps recently active providers through the abuse heuristics
// on a fixed interval. One provider failing its scan does not stop the sweep.
type ScanScheduler struct {
	source   providerScanSource
	scanner  userScanner
	interval time.Duration
	lookback time.Duration
}

func NewScanScheduler(source providerScanSource, scanner userScanner, interval time.Duration) *ScanScheduler {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &ScanScheduler{
		source:   source,
		scanner:  scanner,
		interval: interval,
		// Providers idle for more than two sweeps age out of the schedule.
		lookback: 2 * interval,
	}
}

// Run blocks until ctx is cancelled. Call it from its own goroutine.
func (s *ScanScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *ScanScheduler) sweep(ctx context.Context) {
	since := time.Now().Add(-s.lookback)
	providerIDs, err := s.source.ActiveProviderIDs(ctx, since)
	if err != nil {
		log.Printf("scan sweep: list active providers: %v", err)
		return
	}

	flagged := 0
	for _, providerID := range providerIDs {
		if ctx.Err() != nil {
			return
		}
		result, err := s.scanner.ScanUser(ctx, providerID, "scheduled")
		if err != nil {
			log.Printf("scan sweep: provider %s: %v", providerID, err)
			continue
		}
		if len(result.Flags) > 0 {
			flagged++
		}
	}

	log.Printf("scan sweep finished: %d providers scanned, %d flagged", len(providerIDs), flagged)
}
