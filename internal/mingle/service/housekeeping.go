package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/store"
)

// HousekeepingService periodically drops expired one-time codes so the code
// store does not grow without bound.
type HousekeepingService struct {
	Codes    store.OTPCodes
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService defaults a non-positive interval to one hour.
func NewHousekeepingService(codes store.OTPCodes, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Codes:    codes,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background until Stop is called.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	n, err := s.Codes.DeleteExpiredCodes(context.Background(), s.Now())
	if err != nil {
		s.Logger.Error("failed to delete expired otp codes", "error", err)
		return
	}
	s.Logger.Debug("housekeeping cleanup completed", "expired_codes", n)
}
