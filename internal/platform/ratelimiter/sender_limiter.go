package ratelimiter

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SenderLimiter applies a token bucket per sender uid and periodically
// evicts senders that went idle.
type SenderLimiter struct {
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	bySender map[string]*senderBucket
	checks   uint64
	idleTTL  time.Duration
}

type senderBucket struct {
	limiter  *rate.Limiter
	lastSend time.Time
}

// New creates a per-sender limiter; returns nil (meaning "no throttling")
// if the arguments are invalid.
func New(rps float64, burst int, idleTTL time.Duration) *SenderLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &SenderLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		bySender: make(map[string]*senderBucket),
		idleTTL:  idleTTL,
	}
}

// Allow reports whether the sender may send one more message at now.
// A nil limiter and a blank sender always pass.
func (l *SenderLimiter) Allow(senderID string, now time.Time) bool {
	if l == nil {
		return true
	}
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.bySender[senderID]
	if !ok {
		bucket = &senderBucket{
			limiter: rate.NewLimiter(l.limit, l.burst),
		}
		l.bySender[senderID] = bucket
	}
	bucket.lastSend = now
	allowed := bucket.limiter.AllowN(now, 1)

	l.checks++
	if l.checks%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for sender, b := range l.bySender {
			if b.lastSend.Before(cutoff) {
				delete(l.bySender, sender)
			}
		}
	}

	return allowed
}
