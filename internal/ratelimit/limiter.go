// Package ratelimit provides in-memory rate limiting for booking requests.
package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBookingCooldown is the minimum gap between booking attempts
	// from the same phone number.
	DefaultBookingCooldown = 30 * time.Second

	// DefaultMaxPerPhoneHour caps booking attempts per phone per hour.
	DefaultMaxPerPhoneHour = 10

	// DefaultMaxPerIPHour caps booking attempts per client IP per hour.
	DefaultMaxPerIPHour = 30

	// cleanupInterval controls how often stale entries are purged.
	cleanupInterval = 10 * time.Minute

	// entryTTL is how long an idle entry is retained before cleanup.
	entryTTL = 2 * time.Hour
)

// Clock abstracts time for testing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limiter settings.
type Config struct {
	BookingCooldown time.Duration
	MaxPerPhoneHour int
	MaxPerIPHour    int
	Clock           Clock
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		BookingCooldown: DefaultBookingCooldown,
		MaxPerPhoneHour: DefaultMaxPerPhoneHour,
		MaxPerIPHour:    DefaultMaxPerIPHour,
		Clock:           realClock{},
	}
}

// Result reports the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string
}

type entry struct {
	attempts []time.Time
	lastSeen time.Time
}

// Limiter enforces booking attempt limits per phone and per IP.
// All state is in memory; restarting the process resets the counters.
type Limiter struct {
	mu      sync.RWMutex
	phones  map[string]*entry
	ips     map[string]*entry
	config  Config
	clock   Clock
	stopCh  chan struct{}
	stopped sync.Once
}

// New creates a Limiter and starts its cleanup goroutine.
func New(config Config) *Limiter {
	if config.Clock == nil {
		config.Clock = realClock{}
	}
	if config.BookingCooldown <= 0 {
		config.BookingCooldown = DefaultBookingCooldown
	}
	if config.MaxPerPhoneHour <= 0 {
		config.MaxPerPhoneHour = DefaultMaxPerPhoneHour
	}
	if config.MaxPerIPHour <= 0 {
		config.MaxPerIPHour = DefaultMaxPerIPHour
	}

	l := &Limiter{
		phones: make(map[string]*entry),
		ips:    make(map[string]*entry),
		config: config,
		clock:  config.Clock,
		stopCh: make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Close stops the cleanup goroutine.
func (l *Limiter) Close() {
	l.stopped.Do(func() {
		close(l.stopCh)
	})
}

// CheckBooking reports whether a booking attempt from the given phone and
// client IP is allowed right now. It does not record the attempt; call
// RecordBooking after the request has been accepted for processing.
func (l *Limiter) CheckBooking(phone, ip string) Result {
	now := l.clock.Now()

	l.mu.RLock()
	defer l.mu.RUnlock()

	if e, ok := l.phones[hashKey(normalizePhone(phone))]; ok {
		if res := checkEntry(e, now, l.config.BookingCooldown, l.config.MaxPerPhoneHour, "phone"); !res.Allowed {
			return res
		}
	}
	if ip != "" {
		if e, ok := l.ips[hashKey(ip)]; ok {
			// No cooldown on IPs; a shared NAT would lock out unrelated
			// customers. Only the hourly cap applies.
			if res := checkEntry(e, now, 0, l.config.MaxPerIPHour, "ip"); !res.Allowed {
				return res
			}
		}
	}
	return Result{Allowed: true}
}

// RecordBooking records a booking attempt for the given phone and client IP.
func (l *Limiter) RecordBooking(phone, ip string) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.record(l.phones, hashKey(normalizePhone(phone)), now)
	if ip != "" {
		l.record(l.ips, hashKey(ip), now)
	}
}

func (l *Limiter) record(m map[string]*entry, key string, now time.Time) {
	e, ok := m[key]
	if !ok {
		e = &entry{}
		m[key] = e
	}
	cutoff := now.Add(-time.Hour)
	kept := e.attempts[:0]
	for _, t := range e.attempts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	e.attempts = append(kept, now)
	e.lastSeen = now
}

func checkEntry(e *entry, now time.Time, cooldown time.Duration, maxPerHour int, reason string) Result {
	if cooldown > 0 && len(e.attempts) > 0 {
		last := e.attempts[len(e.attempts)-1]
		if elapsed := now.Sub(last); elapsed < cooldown {
			return Result{
				Allowed:    false,
				RetryAfter: cooldown - elapsed,
				Reason:     reason + "_cooldown",
			}
		}
	}

	cutoff := now.Add(-time.Hour)
	recent := 0
	var oldest time.Time
	for _, t := range e.attempts {
		if t.After(cutoff) {
			if recent == 0 {
				oldest = t
			}
			recent++
		}
	}
	if recent >= maxPerHour {
		return Result{
			Allowed:    false,
			RetryAfter: oldest.Add(time.Hour).Sub(now),
			Reason:     reason + "_hourly_limit",
		}
	}
	return Result{Allowed: true}
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCh:
			return
		}
	}
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	cutoff := now.Add(-entryTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, e := range l.phones {
		if e.lastSeen.Before(cutoff) {
			delete(l.phones, key)
		}
	}
	for key, e := range l.ips {
		if e.lastSeen.Before(cutoff) {
			delete(l.ips, key)
		}
	}
}

// hashKey hashes identifiers so raw phone numbers and IPs are never held
// as map keys.
func hashKey(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
