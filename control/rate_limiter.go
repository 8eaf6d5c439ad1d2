package control

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// RateLimiter bounds how fast a signal may change between steps, the way a trapezoidal profile
// bounds acceleration. The output starts at zero.
type RateLimiter struct {
	mu      sync.Mutex
	maxRate float64
	last    float64
}

// NewRateLimiter returns a limiter allowing at most maxRate units per second of change.
func NewRateLimiter(maxRate float64) (*RateLimiter, error) {
	if maxRate <= 0 {
		return nil, errors.Errorf("rate limiter max rate must be positive, got %v", maxRate)
	}
	return &RateLimiter{maxRate: maxRate}, nil
}

// Next returns x moved toward from the previous output by at most maxRate*dt.
func (r *RateLimiter) Next(x float64, dt time.Duration) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	step := r.maxRate * dt.Seconds()
	delta := x - r.last
	if math.Abs(delta) > step {
		delta = math.Copysign(step, delta)
	}
	r.last += delta
	return r.last
}

// Reset returns the output to zero.
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = 0
}
