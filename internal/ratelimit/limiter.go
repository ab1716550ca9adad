// Package ratelimit paces calls to remote backends. A Limiter combines a
// per-minute token bucket with a daily request quota that resets when the
// local wall-clock date changes.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"topicseg/internal/domain"
)

// Config sets the limits. Zero disables the corresponding limit.
type Config struct {
	RequestsPerMinute int
	RequestsPerDay    int
}

// Limiter is safe for concurrent use. One instance is meant to be shared by
// every caller of the same backend.
type Limiter struct {
	minute *rate.Limiter
	perDay int
	now    func() time.Time

	mu    sync.Mutex
	day   string
	count int
}

// New creates a limiter using the wall clock.
func New(cfg Config) *Limiter {
	return newWithClock(cfg, time.Now)
}

func newWithClock(cfg Config, now func() time.Time) *Limiter {
	l := &Limiter{perDay: cfg.RequestsPerDay, now: now}
	if cfg.RequestsPerMinute > 0 {
		every := time.Minute / time.Duration(cfg.RequestsPerMinute)
		l.minute = rate.NewLimiter(rate.Every(every), cfg.RequestsPerMinute)
	}
	return l
}

// Wait blocks until a request may be sent. It fails with ErrRateLimited once
// the daily quota is used up, and with the context error on cancellation.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.reserveDaily(); err != nil {
		return err
	}
	if l.minute == nil {
		return nil
	}
	if err := l.minute.Wait(ctx); err != nil {
		l.release()
		return err
	}
	return nil
}

// Usage returns the number of requests counted for the current date.
func (l *Limiter) Usage() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()
	return l.count
}

func (l *Limiter) reserveDaily() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()
	if l.perDay > 0 && l.count >= l.perDay {
		return fmt.Errorf("%w: daily quota of %d requests reached for %s", domain.ErrRateLimited, l.perDay, l.day)
	}
	l.count++
	return nil
}

func (l *Limiter) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count > 0 {
		l.count--
	}
}

// rollover resets the daily counter when the date changes. Callers hold mu.
func (l *Limiter) rollover() {
	today := l.now().Format(time.DateOnly)
	if today != l.day {
		l.day = today
		l.count = 0
	}
}
